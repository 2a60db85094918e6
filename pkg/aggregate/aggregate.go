// Package aggregate merges workflow listings from every reachable instance
// into the unified cache.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/n8nhub/n8nhub/pkg/fetch"
	"github.com/n8nhub/n8nhub/pkg/models"
	"github.com/n8nhub/n8nhub/pkg/status"
	"github.com/n8nhub/n8nhub/pkg/store"
)

// ErrNoReachableInstances indicates every configured instance failed; it is
// reported distinctly from an empty but successful aggregation.
var ErrNoReachableInstances = errors.New("no reachable instances")

// compactEvery bounds peak memory during very large aggregations: the
// accumulated list is deduplicated in place whenever this many new items have
// arrived since the last compaction.
const compactEvery = 100

// Result is the outcome of one aggregation: the committed item list plus any
// per-instance failures, keyed by instance name, so callers can report
// partial failure without discarding the success of other instances.
type Result struct {
	Items  []models.WorkflowItem
	Errors map[string]string
}

// Aggregator drives the fetcher across all active instances.
type Aggregator struct {
	store     store.Store
	statuses  *status.Cache
	fetcher   *fetch.Fetcher
	logger    *slog.Logger
	batchSize int
}

// New creates an aggregator.
func New(s store.Store, statuses *status.Cache, fetcher *fetch.Fetcher, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		store:     s,
		statuses:  statuses,
		fetcher:   fetcher,
		logger:    logger.With("module", "aggregate"),
		batchSize: fetch.DefaultBatchSize,
	}
}

// Refresh aggregates workflows from every instance whose cached status is
// active. Instances are processed sequentially: a failure is collected and
// the rest continue. With force set, statuses are re-probed first. The merged
// set is deduplicated by key, sorted by title, and committed atomically,
// replacing the previous cache.
func (a *Aggregator) Refresh(ctx context.Context, force bool) (*Result, error) {
	instances, err := a.store.Instances(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading instances: %w", err)
	}

	if force {
		if _, err := a.statuses.RefreshAll(ctx, instances); err != nil {
			a.logger.Warn("Status refresh before aggregation failed", "error", err)
		}
	}

	result := &Result{Errors: make(map[string]string)}

	var accumulated []models.WorkflowItem

	sinceCompact := 0
	attempted := 0

	for _, instance := range instances {
		cached, err := a.statuses.Get(ctx, instance.ID)
		if err != nil {
			return nil, fmt.Errorf("loading status for %s: %w", instance.ID, err)
		}

		// A known-offline instance is skipped silently; an instance that
		// has never been probed is attempted.
		if cached != nil && !cached.Active {
			a.logger.Debug("Skipping offline instance", "instance", instance.ID)

			continue
		}

		attempted++

		_, err = a.fetcher.FetchBatched(ctx, instance, func(items []models.WorkflowItem) {
			accumulated = append(accumulated, items...)

			sinceCompact += len(items)
			if sinceCompact >= compactEvery {
				accumulated = models.DedupeItems(accumulated)
				sinceCompact = 0
			}
		}, a.batchSize)
		if err != nil {
			result.Errors[instance.Name] = err.Error()

			a.logger.Warn("Instance aggregation failed", "instance", instance.ID, "error", err)
		}
	}

	accumulated = models.DedupeItems(accumulated)
	models.SortItems(accumulated)

	result.Items = accumulated

	if len(instances) > 0 && attempted == 0 {
		return result, fmt.Errorf("%w: all %d instances are offline", ErrNoReachableInstances, len(instances))
	}

	if attempted > 0 && len(result.Errors) == attempted {
		// Total failure: keep the previous cache rather than commit an
		// empty set that only reflects outages.
		return result, fmt.Errorf("%w: %d of %d failed", ErrNoReachableInstances, len(result.Errors), attempted)
	}

	if err := a.store.SaveWorkflows(ctx, accumulated); err != nil {
		return result, fmt.Errorf("saving workflow cache: %w", err)
	}

	a.logger.Info("Aggregation committed",
		"items", len(accumulated),
		"instances", attempted,
		"failures", len(result.Errors))

	return result, nil
}

// Merge folds extra items into the existing cache without pruning: records
// discovered by search fallback are added or updated, never removed. The
// merged cache keeps the sorted-by-title invariant.
func (a *Aggregator) Merge(ctx context.Context, extra []models.WorkflowItem) ([]models.WorkflowItem, error) {
	if len(extra) == 0 {
		items, err := a.store.Workflows(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading workflow cache: %w", err)
		}

		return items, nil
	}

	items, err := a.store.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading workflow cache: %w", err)
	}

	merged := models.DedupeItems(append(items, extra...))
	models.SortItems(merged)

	if err := a.store.SaveWorkflows(ctx, merged); err != nil {
		return nil, fmt.Errorf("saving workflow cache: %w", err)
	}

	return merged, nil
}
