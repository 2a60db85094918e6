// Package activation performs validated activate/deactivate transitions on a
// single workflow.
package activation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/n8nhub/n8nhub/pkg/api"
	"github.com/n8nhub/n8nhub/pkg/models"
	"github.com/n8nhub/n8nhub/pkg/registry"
	"github.com/n8nhub/n8nhub/pkg/store"
)

// Standard activation error types.
var (
	// ErrNoTriggerNode indicates the workflow cannot be activated because
	// its definition contains no enabled trigger-capable node.
	ErrNoTriggerNode = errors.New("workflow has no trigger node")

	// ErrWorkflowNotCached indicates the toggle target is not present in
	// the workflow cache.
	ErrWorkflowNotCached = errors.New("workflow not in cache")
)

// IsNoTriggerNode checks if an error indicates a missing trigger node.
func IsNoTriggerNode(err error) bool {
	return errors.Is(err, ErrNoTriggerNode)
}

// Controller validates and performs activation state transitions.
type Controller struct {
	store    store.Store
	registry *registry.Registry
	logger   *slog.Logger

	// newClient is swappable for tests.
	newClient func(instance models.Instance) *api.Client
}

// NewController creates an activation controller.
func NewController(s store.Store, reg *registry.Registry, logger *slog.Logger) *Controller {
	return &Controller{
		store:     s,
		registry:  reg,
		logger:    logger.With("module", "activation"),
		newClient: api.NewClientForInstance,
	}
}

// Toggle flips the activation state of one cached workflow. Activation first
// fetches the remote definition and requires an enabled trigger-capable node;
// the remote endpoint's own validation is authoritative, so a 400 complaining
// about triggers is normalized to ErrNoTriggerNode even when the local check
// passed. On success the cached item is updated in place and the full cache
// persisted.
func (c *Controller) Toggle(ctx context.Context, key string) (*models.WorkflowItem, error) {
	items, err := c.store.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading workflow cache: %w", err)
	}

	idx := -1

	for i := range items {
		if items[i].Key == key {
			idx = i

			break
		}
	}

	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotCached, key)
	}

	item := &items[idx]

	instance, err := c.registry.Get(ctx, item.InstanceID)
	if err != nil {
		return nil, err
	}

	client := c.newClient(*instance)
	activating := !item.Active

	if activating {
		detail, err := client.GetWorkflow(ctx, item.WorkflowID)
		if err != nil {
			return nil, fmt.Errorf("fetching workflow definition: %w", err)
		}

		if !detail.HasTriggerNode() {
			c.cacheTriggerFact(ctx, items, item, false)

			return nil, fmt.Errorf("%w: %s", ErrNoTriggerNode, item.Title)
		}
	}

	if activating {
		err = client.Activate(ctx, item.WorkflowID)
	} else {
		err = client.Deactivate(ctx, item.WorkflowID)
	}

	if err != nil {
		if activating && isTriggerComplaint(err) {
			c.cacheTriggerFact(ctx, items, item, false)

			return nil, fmt.Errorf("%w: %s", ErrNoTriggerNode, item.Title)
		}

		return nil, fmt.Errorf("toggling workflow %s: %w", item.Key, err)
	}

	item.SetActive(activating)

	if activating {
		hasTrigger := true
		item.HasTrigger = &hasTrigger
	}

	updated := *item

	models.SortItems(items)

	if err := c.store.SaveWorkflows(ctx, items); err != nil {
		return nil, fmt.Errorf("saving workflow cache: %w", err)
	}

	c.logger.Info("Toggled workflow", "key", key, "active", activating)

	return &updated, nil
}

// cacheTriggerFact records the remote-side trigger fact on the item so the
// check is not repeated on every render. Persistence failures only log: the
// caller already has a more important error to report.
func (c *Controller) cacheTriggerFact(ctx context.Context, items []models.WorkflowItem, item *models.WorkflowItem, hasTrigger bool) {
	item.HasTrigger = &hasTrigger

	if err := c.store.SaveWorkflows(ctx, items); err != nil {
		c.logger.Warn("Failed to persist trigger fact", "key", item.Key, "error", err)
	}
}

// isTriggerComplaint reports whether a remote 400 blames a missing or invalid
// trigger.
func isTriggerComplaint(err error) bool {
	if api.StatusCode(err) != http.StatusBadRequest {
		return false
	}

	return strings.Contains(strings.ToLower(api.ResponseBody(err)), "trigger")
}
