// Package hub wires the aggregation components into one explicit facade.
// Surrounding surfaces (CLI, HTTP API) call into the Hub instead of holding
// their own component handles; there is no package-level shared state.
package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/n8nhub/n8nhub/pkg/activation"
	"github.com/n8nhub/n8nhub/pkg/aggregate"
	"github.com/n8nhub/n8nhub/pkg/fetch"
	"github.com/n8nhub/n8nhub/pkg/models"
	"github.com/n8nhub/n8nhub/pkg/probe"
	"github.com/n8nhub/n8nhub/pkg/registry"
	"github.com/n8nhub/n8nhub/pkg/search"
	"github.com/n8nhub/n8nhub/pkg/status"
	"github.com/n8nhub/n8nhub/pkg/store"
	"github.com/n8nhub/n8nhub/pkg/tracer"
)

// ErrRefreshInFlight indicates a refresh was requested while one is already
// running. The core is single-threaded-cooperative: callers retry rather
// than interleave two aggregations over the same cache.
var ErrRefreshInFlight = errors.New("refresh already running")

// Options tunes the hub.
type Options struct {
	// ProbeAttempts bounds probe retries; 1 means no retry.
	ProbeAttempts int

	// ProbeRetryDelay separates probe attempts.
	ProbeRetryDelay time.Duration
}

// Hub is the consumer-facing surface of the aggregation core.
type Hub struct {
	store      store.Store
	registry   *registry.Registry
	statuses   *status.Cache
	aggregator *aggregate.Aggregator
	engine     *search.Engine
	controller *activation.Controller
	logger     *slog.Logger

	refreshing atomic.Bool
}

// New constructs the hub and all its components once, sharing the given
// store.
func New(s store.Store, logger *slog.Logger, opts Options) *Hub {
	var prober status.InstanceProber = probe.NewProber(logger)

	if opts.ProbeAttempts > 1 {
		prober = &probe.RetryingProber{
			Prober:   probe.NewProber(logger),
			Attempts: opts.ProbeAttempts,
			Delay:    opts.ProbeRetryDelay,
		}
	}

	reg := registry.New(s, logger)
	statuses := status.NewCache(s, prober, logger)
	fetcher := fetch.NewFetcher(logger)
	aggregator := aggregate.New(s, statuses, fetcher, logger)

	return &Hub{
		store:      s,
		registry:   reg,
		statuses:   statuses,
		aggregator: aggregator,
		engine:     search.NewEngine(s, statuses, aggregator, fetcher, logger),
		controller: activation.NewController(s, reg, logger),
		logger:     logger.With("module", "hub"),
	}
}

// ListInstances returns all configured instances in insertion order.
func (h *Hub) ListInstances(ctx context.Context) ([]models.Instance, error) {
	return h.registry.List(ctx)
}

// AddInstance registers a new instance.
func (h *Hub) AddInstance(ctx context.Context, req registry.AddRequest) (*models.Instance, error) {
	return h.registry.Add(ctx, req)
}

// EditInstance updates an instance's mutable fields.
func (h *Hub) EditInstance(ctx context.Context, id string, req registry.UpdateRequest) (*models.Instance, error) {
	return h.registry.Update(ctx, id, req)
}

// RemoveInstance deletes an instance and its cached workflows and status.
func (h *Hub) RemoveInstance(ctx context.Context, id string) error {
	return h.registry.Remove(ctx, id)
}

// GetInstance returns one instance.
func (h *Hub) GetInstance(ctx context.Context, id string) (*models.Instance, error) {
	return h.registry.Get(ctx, id)
}

// CachedWorkflows returns the last persisted unified workflow list, nil when
// no aggregation has ever completed. This is the initial view served before
// any network round-trip.
func (h *Hub) CachedWorkflows(ctx context.Context) ([]models.WorkflowItem, error) {
	return h.store.Workflows(ctx)
}

// RefreshWorkflows aggregates all reachable instances. Only one refresh runs
// at a time; a concurrent request gets ErrRefreshInFlight.
func (h *Hub) RefreshWorkflows(ctx context.Context, force bool) (*aggregate.Result, error) {
	if !h.refreshing.CompareAndSwap(false, true) {
		return nil, ErrRefreshInFlight
	}
	defer h.refreshing.Store(false)

	ctx, span := otel.Tracer("n8nhub").Start(ctx, "hub.refresh_workflows")
	defer span.End()

	span.SetAttributes(attribute.Bool("n8nhub.refresh.force", force))

	return h.aggregator.Refresh(ctx, force)
}

// Search answers a query with the layered strategy.
func (h *Hub) Search(ctx context.Context, query string, opts search.Options) ([]models.WorkflowItem, error) {
	return h.engine.Search(ctx, query, opts)
}

// Toggle flips the activation state of one cached workflow by key.
func (h *Hub) Toggle(ctx context.Context, key string) (*models.WorkflowItem, error) {
	ctx, span := otel.Tracer("n8nhub").Start(ctx, "hub.toggle")
	defer span.End()

	span.SetAttributes(attribute.String(tracer.WorkflowKeyKey, key))

	return h.controller.Toggle(ctx, key)
}

// InstanceStatus returns the last persisted probe result, nil if the
// instance has never been probed.
func (h *Hub) InstanceStatus(ctx context.Context, id string) (*models.InstanceStatus, error) {
	return h.statuses.Get(ctx, id)
}

// RefreshStatus probes one instance now.
func (h *Hub) RefreshStatus(ctx context.Context, id string) (*models.InstanceStatus, error) {
	ctx, span := otel.Tracer("n8nhub").Start(ctx, "hub.refresh_status")
	defer span.End()

	span.SetAttributes(attribute.String(tracer.InstanceIDKey, id))

	instance, err := h.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	refreshed, err := h.statuses.Refresh(ctx, *instance)
	if err != nil {
		return nil, err
	}

	return &refreshed, nil
}

// RefreshAllStatuses probes every instance sequentially.
func (h *Hub) RefreshAllStatuses(ctx context.Context) (map[string]models.InstanceStatus, error) {
	instances, err := h.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	return h.statuses.RefreshAll(ctx, instances)
}

// StartAutoRefresh schedules periodic status refreshes; the returned stop
// function must be called before shutdown.
func (h *Hub) StartAutoRefresh(interval time.Duration) (func(), error) {
	return h.statuses.StartAutoRefresh(h.registry.List, interval)
}

// HealthCheck verifies the backing store.
func (h *Hub) HealthCheck(ctx context.Context) error {
	if err := h.store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("store unhealthy: %w", err)
	}

	return nil
}
