// Package file provides file-based store implementation: one JSON file per
// blob under a root directory, written atomically via rename.
package file

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/n8nhub/n8nhub/pkg/models"
	"github.com/n8nhub/n8nhub/pkg/store"
)

// Store implements store.Store using the file system.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a file store rooted at the given directory. A "file://"
// prefix is accepted and stripped.
func NewStore(root string, logger *slog.Logger) *Store {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Store{
		root:   cleanRoot,
		logger: logger.With("module", "store", "backend", "file"),
	}
}

func (s *Store) path(blob string) string {
	return filepath.Join(s.root, blob+".json")
}

// readBlob loads and decodes one blob. Absence returns (nil, false).
// Corrupt content is logged and treated as absent.
func (s *Store) readBlob(blob string, v any) bool {
	raw, err := os.ReadFile(s.path(blob))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to read persisted blob, treating as absent", "blob", blob, "error", err)
		}

		return false
	}

	if err := store.DecodeBlob(raw, v); err != nil {
		s.logger.Warn("Corrupt persisted blob, treating as absent", "blob", blob, "error", err)

		return false
	}

	return true
}

// writeBlob encodes and atomically replaces one blob.
func (s *Store) writeBlob(op, blob string, v any) error {
	raw, err := store.EncodeBlob(v)
	if err != nil {
		return &store.BlobError{Op: op, Blob: blob, Err: err}
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return &store.BlobError{Op: op, Blob: blob, Err: err}
	}

	tmp := s.path(blob) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return &store.BlobError{Op: op, Blob: blob, Err: err}
	}

	if err := os.Rename(tmp, s.path(blob)); err != nil {
		return &store.BlobError{Op: op, Blob: blob, Err: err}
	}

	return nil
}

func (s *Store) Instances(_ context.Context) ([]models.Instance, error) {
	var instances []models.Instance
	if !s.readBlob(store.BlobInstances, &instances) {
		return nil, nil
	}

	return instances, nil
}

func (s *Store) SaveInstances(_ context.Context, instances []models.Instance) error {
	return s.writeBlob("SaveInstances", store.BlobInstances, instances)
}

func (s *Store) Statuses(_ context.Context) (map[string]models.InstanceStatus, error) {
	var statuses map[string]models.InstanceStatus
	if !s.readBlob(store.BlobStatuses, &statuses) {
		return nil, nil
	}

	return statuses, nil
}

func (s *Store) SaveStatuses(_ context.Context, statuses map[string]models.InstanceStatus) error {
	return s.writeBlob("SaveStatuses", store.BlobStatuses, statuses)
}

func (s *Store) Workflows(_ context.Context) ([]models.WorkflowItem, error) {
	var items []models.WorkflowItem
	if !s.readBlob(store.BlobWorkflows, &items) {
		return nil, nil
	}

	return items, nil
}

func (s *Store) SaveWorkflows(_ context.Context, items []models.WorkflowItem) error {
	return s.writeBlob("SaveWorkflows", store.BlobWorkflows, items)
}

func (s *Store) ClearWorkflows(_ context.Context) error {
	err := os.Remove(s.path(store.BlobWorkflows))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &store.BlobError{Op: "ClearWorkflows", Blob: store.BlobWorkflows, Err: err}
	}

	return nil
}

// HealthCheck verifies the root directory exists or can be created.
func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.MkdirAll(s.root, 0o755)
		}

		return err
	}

	return nil
}

// Close performs any necessary cleanup. For file storage there is nothing to
// clean up.
func (s *Store) Close(_ context.Context) error {
	return nil
}
