// Package postgresql provides a PostgreSQL-backed store implementation. Each
// blob is one row in a blobs table holding the same versioned JSON envelope
// the file backend writes.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/n8nhub/n8nhub/pkg/models"
	"github.com/n8nhub/n8nhub/pkg/store"
)

// Store implements store.Store on a PostgreSQL connection.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore connects to the given database URL, verifies the connection, and
// ensures the schema exists.
func NewStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}

	s := &Store{
		db:     db,
		logger: logger.With("module", "store", "backend", "postgresql"),
	}

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS blobs (
			name TEXT PRIMARY KEY,
			content JSONB NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("creating blobs table: %w", err)
	}

	return nil
}

// readBlob loads and decodes one blob. A missing row returns false; corrupt
// content is logged and treated as absent. Connection failures surface.
func (s *Store) readBlob(ctx context.Context, op, blob string, v any) (bool, error) {
	var raw []byte

	err := s.db.QueryRowContext(ctx, `SELECT content FROM blobs WHERE name = $1`, blob).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, &store.BlobError{Op: op, Blob: blob, Err: fmt.Errorf("%w: %w", store.ErrUnavailable, err)}
	}

	if err := store.DecodeBlob(raw, v); err != nil {
		s.logger.Warn("Corrupt persisted blob, treating as absent", "blob", blob, "error", err)

		return false, nil
	}

	return true, nil
}

func (s *Store) writeBlob(ctx context.Context, op, blob string, v any) error {
	raw, err := store.EncodeBlob(v)
	if err != nil {
		return &store.BlobError{Op: op, Blob: blob, Err: err}
	}

	// lib/pq sends []byte as bytea, which does not cast to jsonb.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blobs (name, content, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (name) DO UPDATE SET content = EXCLUDED.content, updated_at = NOW()
	`, blob, string(raw))
	if err != nil {
		return &store.BlobError{Op: op, Blob: blob, Err: fmt.Errorf("%w: %w", store.ErrUnavailable, err)}
	}

	return nil
}

func (s *Store) Instances(ctx context.Context) ([]models.Instance, error) {
	var instances []models.Instance

	ok, err := s.readBlob(ctx, "Instances", store.BlobInstances, &instances)
	if err != nil || !ok {
		return nil, err
	}

	return instances, nil
}

func (s *Store) SaveInstances(ctx context.Context, instances []models.Instance) error {
	return s.writeBlob(ctx, "SaveInstances", store.BlobInstances, instances)
}

func (s *Store) Statuses(ctx context.Context) (map[string]models.InstanceStatus, error) {
	var statuses map[string]models.InstanceStatus

	ok, err := s.readBlob(ctx, "Statuses", store.BlobStatuses, &statuses)
	if err != nil || !ok {
		return nil, err
	}

	return statuses, nil
}

func (s *Store) SaveStatuses(ctx context.Context, statuses map[string]models.InstanceStatus) error {
	return s.writeBlob(ctx, "SaveStatuses", store.BlobStatuses, statuses)
}

func (s *Store) Workflows(ctx context.Context) ([]models.WorkflowItem, error) {
	var items []models.WorkflowItem

	ok, err := s.readBlob(ctx, "Workflows", store.BlobWorkflows, &items)
	if err != nil || !ok {
		return nil, err
	}

	return items, nil
}

func (s *Store) SaveWorkflows(ctx context.Context, items []models.WorkflowItem) error {
	return s.writeBlob(ctx, "SaveWorkflows", store.BlobWorkflows, items)
}

func (s *Store) ClearWorkflows(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE name = $1`, store.BlobWorkflows)
	if err != nil {
		return &store.BlobError{Op: "ClearWorkflows", Blob: store.BlobWorkflows, Err: fmt.Errorf("%w: %w", store.ErrUnavailable, err)}
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}

	return nil
}

func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}
