// Package status maintains the latest probed reachability per instance and
// the background refresh schedule.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/n8nhub/n8nhub/pkg/models"
	"github.com/n8nhub/n8nhub/pkg/probe"
	"github.com/n8nhub/n8nhub/pkg/store"
)

// DefaultRefreshInterval is how often the auto-refresh schedule probes all
// instances.
const DefaultRefreshInterval = 5 * time.Minute

// InstanceProber is the probing capability the cache depends on. Both the
// bare and the retrying prober satisfy it.
type InstanceProber interface {
	Probe(ctx context.Context, instance models.Instance) probe.Result
}

// Cache persists probe outcomes per instance.
type Cache struct {
	store  store.Store
	prober InstanceProber
	logger *slog.Logger

	refreshing atomic.Bool
}

// NewCache creates a status cache.
func NewCache(s store.Store, prober InstanceProber, logger *slog.Logger) *Cache {
	return &Cache{
		store:  s,
		prober: prober,
		logger: logger.With("module", "status"),
	}
}

// Get returns the last persisted status for an instance, nil if it has never
// been probed. Get never probes.
func (c *Cache) Get(ctx context.Context, instanceID string) (*models.InstanceStatus, error) {
	statuses, err := c.store.Statuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading statuses: %w", err)
	}

	status, ok := statuses[instanceID]
	if !ok {
		return nil, nil
	}

	return &status, nil
}

// Refresh probes one instance and persists the result.
func (c *Cache) Refresh(ctx context.Context, instance models.Instance) (models.InstanceStatus, error) {
	status := c.probeOne(ctx, instance)

	statuses, err := c.store.Statuses(ctx)
	if err != nil {
		return status, fmt.Errorf("loading statuses: %w", err)
	}

	if statuses == nil {
		statuses = make(map[string]models.InstanceStatus, 1)
	}

	statuses[instance.ID] = status

	if err := c.store.SaveStatuses(ctx, statuses); err != nil {
		return status, fmt.Errorf("saving statuses: %w", err)
	}

	return status, nil
}

// RefreshAll probes every instance sequentially and writes all results in one
// batch. Sequential probing bounds load and keeps the persisted map free of
// instance-ordering races.
func (c *Cache) RefreshAll(ctx context.Context, instances []models.Instance) (map[string]models.InstanceStatus, error) {
	statuses, err := c.store.Statuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading statuses: %w", err)
	}

	if statuses == nil {
		statuses = make(map[string]models.InstanceStatus, len(instances))
	}

	for _, instance := range instances {
		statuses[instance.ID] = c.probeOne(ctx, instance)
	}

	if err := c.store.SaveStatuses(ctx, statuses); err != nil {
		return statuses, fmt.Errorf("saving statuses: %w", err)
	}

	return statuses, nil
}

func (c *Cache) probeOne(ctx context.Context, instance models.Instance) models.InstanceStatus {
	result := c.prober.Probe(ctx, instance)

	status := models.InstanceStatus{
		InstanceID:  instance.ID,
		Active:      result.OK,
		LastChecked: time.Now().UTC(),
	}
	if !result.OK {
		status.Error = result.Message
	}

	return status
}

// InstanceLister supplies the current instance list on every tick, so the
// schedule picks up registry changes without a restart.
type InstanceLister func(ctx context.Context) ([]models.Instance, error)

// StartAutoRefresh schedules RefreshAll on a repeating interval. The returned
// stop function halts the schedule and must be called to avoid leaking the
// timer. A tick that arrives while a refresh is still running is skipped.
func (c *Cache) StartAutoRefresh(list InstanceLister, interval time.Duration) (func(), error) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	scheduler := cron.New()

	_, err := scheduler.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if !c.refreshing.CompareAndSwap(false, true) {
			c.logger.Debug("Skipping status refresh tick, previous run still in flight")

			return
		}
		defer c.refreshing.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()

		instances, err := list(ctx)
		if err != nil {
			c.logger.Warn("Auto-refresh could not list instances", "error", err)

			return
		}

		if _, err := c.RefreshAll(ctx, instances); err != nil {
			c.logger.Warn("Auto-refresh failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling auto-refresh: %w", err)
	}

	scheduler.Start()

	return func() {
		<-scheduler.Stop().Done()
	}, nil
}
