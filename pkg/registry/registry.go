// Package registry manages the durable set of configured instances.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/n8nhub/n8nhub/pkg/models"
	"github.com/n8nhub/n8nhub/pkg/store"
)

// Standard registry error types.
var (
	// ErrDuplicateInstance indicates an instance with the same normalized
	// base URL is already registered.
	ErrDuplicateInstance = errors.New("instance already exists")

	// ErrInstanceNotFound indicates no instance matches the given ID.
	ErrInstanceNotFound = errors.New("instance not found")
)

// IsDuplicate checks if an error indicates a duplicate instance.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateInstance)
}

// IsNotFound checks if an error indicates a missing instance.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}

// AddRequest is the input for registering an instance.
type AddRequest struct {
	Name    string `json:"name"     validate:"required,min=1"`
	BaseURL string `json:"base_url" validate:"required,url"`
	APIKey  string `json:"api_key"  validate:"required"`
	Color   string `json:"color,omitempty"`
}

// UpdateRequest is the input for editing an instance. Nil fields are left
// untouched; the ID and base URL are immutable.
type UpdateRequest struct {
	Name   *string `json:"name,omitempty"    validate:"omitempty,min=1"`
	APIKey *string `json:"api_key,omitempty" validate:"omitempty,min=1"`
	Color  *string `json:"color,omitempty"`
}

// Registry is the durable store of configured instances. Every mutation
// persists the full snapshot.
type Registry struct {
	store    store.Store
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates a registry.
func New(s store.Store, logger *slog.Logger) *Registry {
	return &Registry{
		store:    s,
		logger:   logger.With("module", "registry"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// List returns all instances in insertion order.
func (r *Registry) List(ctx context.Context) ([]models.Instance, error) {
	instances, err := r.store.Instances(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading instances: %w", err)
	}

	return instances, nil
}

// Get returns one instance by ID.
func (r *Registry) Get(ctx context.Context, id string) (*models.Instance, error) {
	instances, err := r.store.Instances(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading instances: %w", err)
	}

	for _, instance := range instances {
		if instance.ID == id {
			return &instance, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
}

// Add validates and registers a new instance. The instance ID is derived from
// the base URL, which makes registration idempotent per endpoint.
func (r *Registry) Add(ctx context.Context, req AddRequest) (*models.Instance, error) {
	if err := r.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid instance: %w", err)
	}

	instance := models.Instance{
		ID:        models.InstanceIDFromURL(req.BaseURL),
		Name:      req.Name,
		BaseURL:   req.BaseURL,
		APIKey:    req.APIKey,
		Color:     req.Color,
		CreatedAt: time.Now().UTC(),
	}

	instances, err := r.store.Instances(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading instances: %w", err)
	}

	for _, existing := range instances {
		if existing.ID == instance.ID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateInstance, instance.ID)
		}
	}

	instances = append(instances, instance)
	if err := r.store.SaveInstances(ctx, instances); err != nil {
		return nil, fmt.Errorf("saving instances: %w", err)
	}

	r.logger.Info("Registered instance", "instance", instance.ID, "name", instance.Name)

	return &instance, nil
}

// Update edits the mutable fields of an instance. The ID never changes, so
// cached workflow records referencing it stay valid.
func (r *Registry) Update(ctx context.Context, id string, req UpdateRequest) (*models.Instance, error) {
	if err := r.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid update: %w", err)
	}

	instances, err := r.store.Instances(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading instances: %w", err)
	}

	for i := range instances {
		if instances[i].ID != id {
			continue
		}

		if req.Name != nil {
			instances[i].Name = *req.Name
		}

		if req.APIKey != nil {
			instances[i].APIKey = *req.APIKey
		}

		if req.Color != nil {
			instances[i].Color = *req.Color
		}

		if err := r.store.SaveInstances(ctx, instances); err != nil {
			return nil, fmt.Errorf("saving instances: %w", err)
		}

		updated := instances[i]

		return &updated, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
}

// Remove deletes an instance and cascades: cached workflow records and the
// status entry for that instance are purged with it.
func (r *Registry) Remove(ctx context.Context, id string) error {
	instances, err := r.store.Instances(ctx)
	if err != nil {
		return fmt.Errorf("loading instances: %w", err)
	}

	kept := make([]models.Instance, 0, len(instances))

	found := false

	for _, instance := range instances {
		if instance.ID == id {
			found = true

			continue
		}

		kept = append(kept, instance)
	}

	if !found {
		return fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}

	if err := r.store.SaveInstances(ctx, kept); err != nil {
		return fmt.Errorf("saving instances: %w", err)
	}

	if err := r.purgeWorkflows(ctx, id); err != nil {
		return err
	}

	if err := r.purgeStatus(ctx, id); err != nil {
		return err
	}

	r.logger.Info("Removed instance", "instance", id)

	return nil
}

func (r *Registry) purgeWorkflows(ctx context.Context, instanceID string) error {
	items, err := r.store.Workflows(ctx)
	if err != nil {
		return fmt.Errorf("loading workflow cache: %w", err)
	}

	if items == nil {
		return nil
	}

	kept := make([]models.WorkflowItem, 0, len(items))

	for _, item := range items {
		if item.InstanceID != instanceID {
			kept = append(kept, item)
		}
	}

	if len(kept) == len(items) {
		return nil
	}

	if len(kept) == 0 {
		if err := r.store.ClearWorkflows(ctx); err != nil {
			return fmt.Errorf("clearing workflow cache: %w", err)
		}

		return nil
	}

	if err := r.store.SaveWorkflows(ctx, kept); err != nil {
		return fmt.Errorf("saving workflow cache: %w", err)
	}

	return nil
}

func (r *Registry) purgeStatus(ctx context.Context, instanceID string) error {
	statuses, err := r.store.Statuses(ctx)
	if err != nil {
		return fmt.Errorf("loading statuses: %w", err)
	}

	if _, ok := statuses[instanceID]; !ok {
		return nil
	}

	delete(statuses, instanceID)

	if err := r.store.SaveStatuses(ctx, statuses); err != nil {
		return fmt.Errorf("saving statuses: %w", err)
	}

	return nil
}
