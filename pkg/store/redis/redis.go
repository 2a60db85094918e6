// Package redis provides a redis-backed store implementation. Each blob is a
// single string key holding the same versioned JSON envelope the file backend
// writes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/n8nhub/n8nhub/pkg/models"
	"github.com/n8nhub/n8nhub/pkg/store"
)

const keyPrefix = "n8nhub:"

// Store implements store.Store on a redis connection.
type Store struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

// NewStore creates a redis store from a redis:// connection URL.
func NewStore(url string, logger *slog.Logger) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &Store{
		client: goredis.NewClient(opts),
		logger: logger.With("module", "store", "backend", "redis"),
	}, nil
}

func key(blob string) string {
	return keyPrefix + blob
}

// readBlob loads and decodes one blob. Missing keys return false; corrupt
// content is logged and treated as absent. Connection failures surface.
func (s *Store) readBlob(ctx context.Context, op, blob string, v any) (bool, error) {
	raw, err := s.client.Get(ctx, key(blob)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
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

	if err := s.client.Set(ctx, key(blob), raw, 0).Err(); err != nil {
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
	if err := s.client.Del(ctx, key(store.BlobWorkflows)).Err(); err != nil {
		return &store.BlobError{Op: "ClearWorkflows", Blob: store.BlobWorkflows, Err: fmt.Errorf("%w: %w", store.ErrUnavailable, err)}
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}

	return nil
}

func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}
