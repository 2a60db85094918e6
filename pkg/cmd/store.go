// Package cmd provides shared wiring helpers for the command binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/n8nhub/n8nhub/pkg/store"
	"github.com/n8nhub/n8nhub/pkg/store/file"
	"github.com/n8nhub/n8nhub/pkg/store/postgresql"
	"github.com/n8nhub/n8nhub/pkg/store/redis"
)

// NewStore selects a store backend from a connection URL. "redis://" URLs get
// the redis backend, "postgres://" URLs the PostgreSQL backend; everything
// else is treated as a file root, with an optional "file://" prefix.
func NewStore(ctx context.Context, logger *slog.Logger, storeURL string) (store.Store, error) {
	switch {
	case strings.HasPrefix(storeURL, "redis://"), strings.HasPrefix(storeURL, "rediss://"):
		return redis.NewStore(storeURL, logger)
	case strings.HasPrefix(storeURL, "postgres://"), strings.HasPrefix(storeURL, "postgresql://"):
		return postgresql.NewStore(ctx, storeURL, logger)
	default:
		return file.NewStore(storeURL, logger), nil
	}
}
