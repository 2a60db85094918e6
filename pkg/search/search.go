// Package search answers queries against the unified workflow set using three
// escalating strategies: local substring filtering, fuzzy ranking, and a
// remote recall sweep across online instances.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/n8nhub/n8nhub/pkg/aggregate"
	"github.com/n8nhub/n8nhub/pkg/fetch"
	"github.com/n8nhub/n8nhub/pkg/models"
	"github.com/n8nhub/n8nhub/pkg/status"
	"github.com/n8nhub/n8nhub/pkg/store"
)

// Options narrows and steers a search.
type Options struct {
	// Tags keeps only items carrying every listed tag.
	Tags []string

	// InstanceIDs keeps only items from the listed instances.
	InstanceIDs []string

	// Escalate runs the fuzzy tier even when the substring tier already
	// found results, and unions both.
	Escalate bool
}

// Engine implements the layered search strategy.
type Engine struct {
	store      store.Store
	statuses   *status.Cache
	aggregator *aggregate.Aggregator
	fetcher    *fetch.Fetcher
	logger     *slog.Logger
}

// NewEngine creates a search engine.
func NewEngine(s store.Store, statuses *status.Cache, aggregator *aggregate.Aggregator, fetcher *fetch.Fetcher, logger *slog.Logger) *Engine {
	return &Engine{
		store:      s,
		statuses:   statuses,
		aggregator: aggregator,
		fetcher:    fetcher,
		logger:     logger.With("module", "search"),
	}
}

// Search runs the tiers in order. The first tier returning a non-empty result
// short-circuits the remainder unless Escalate is set; the remote tier only
// runs when the local tiers found nothing. Every tier deduplicates by key and
// returns items sorted by title.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]models.WorkflowItem, error) {
	snapshot, err := e.store.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading workflow cache: %w", err)
	}

	scoped := applySelectors(snapshot, opts)

	if strings.TrimSpace(query) == "" {
		return finalize(scoped), nil
	}

	local := substringFilter(scoped, query)

	if len(local) > 0 && !opts.Escalate {
		return finalize(local), nil
	}

	ranked := e.fuzzyRank(scoped, query)

	combined := append(local, ranked...)
	if len(combined) > 0 {
		return finalize(combined), nil
	}

	remote, err := e.remoteFallback(ctx, query)
	if err != nil {
		return nil, err
	}

	return finalize(applySelectors(remote, opts)), nil
}

// applySelectors intersects the item set with the tag and instance filters.
func applySelectors(items []models.WorkflowItem, opts Options) []models.WorkflowItem {
	if len(opts.Tags) == 0 && len(opts.InstanceIDs) == 0 {
		return items
	}

	out := make([]models.WorkflowItem, 0, len(items))

	for _, item := range items {
		if len(opts.InstanceIDs) > 0 && !slices.Contains(opts.InstanceIDs, item.InstanceID) {
			continue
		}

		if !hasAllTags(item, opts.Tags) {
			continue
		}

		out = append(out, item)
	}

	return out
}

func hasAllTags(item models.WorkflowItem, tags []string) bool {
	for _, want := range tags {
		found := false

		for _, have := range item.Tags {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				found = true

				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

// substringFilter is the zero-latency first tier: case-insensitive substring
// match against title, tags, and instance name.
func substringFilter(items []models.WorkflowItem, query string) []models.WorkflowItem {
	needle := strings.ToLower(strings.TrimSpace(query))

	out := make([]models.WorkflowItem, 0, len(items))

	for _, item := range items {
		if matchesSubstring(item, needle) {
			out = append(out, item)
		}
	}

	return out
}

func matchesSubstring(item models.WorkflowItem, needle string) bool {
	if strings.Contains(strings.ToLower(item.Title), needle) {
		return true
	}

	if strings.Contains(strings.ToLower(item.InstanceName), needle) {
		return true
	}

	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}

	return false
}

// remoteFallback streams each online instance's full workflow set, keeping
// items where any whitespace-delimited query part matches. Deliberately
// lenient: this tier is about recall, not precision. Everything it finds is
// merged into the cache so future searches benefit.
func (e *Engine) remoteFallback(ctx context.Context, query string) ([]models.WorkflowItem, error) {
	instances, err := e.store.Instances(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading instances: %w", err)
	}

	parts := strings.Fields(strings.ToLower(query))

	var matched []models.WorkflowItem

	for _, instance := range instances {
		cached, err := e.statuses.Get(ctx, instance.ID)
		if err != nil {
			return nil, fmt.Errorf("loading status for %s: %w", instance.ID, err)
		}

		if cached == nil || !cached.Active {
			continue
		}

		_, err = e.fetcher.FetchBatched(ctx, instance, func(items []models.WorkflowItem) {
			for _, item := range items {
				if matchesAnyPart(item, parts) {
					matched = append(matched, item)
				}
			}
		}, fetch.DefaultBatchSize)
		if err != nil {
			e.logger.Warn("Remote search fallback failed for instance", "instance", instance.ID, "error", err)
		}
	}

	if len(matched) > 0 {
		if _, err := e.aggregator.Merge(ctx, matched); err != nil {
			e.logger.Warn("Merging remote search results failed", "error", err)
		}
	}

	return matched, nil
}

func matchesAnyPart(item models.WorkflowItem, parts []string) bool {
	for _, part := range parts {
		if matchesSubstring(item, part) {
			return true
		}
	}

	return false
}

func finalize(items []models.WorkflowItem) []models.WorkflowItem {
	out := models.DedupeItems(items)
	models.SortItems(out)

	return out
}
