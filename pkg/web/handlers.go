// Package web provides the REST surface over the aggregation hub.
package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/n8nhub/n8nhub/pkg/hub"
	"github.com/n8nhub/n8nhub/pkg/registry"
	"github.com/n8nhub/n8nhub/pkg/search"
)

type APIHandlers struct {
	hub       *hub.Hub
	validator *validator.Validate
}

func NewAPIHandlers(h *hub.Hub, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		hub:       h,
		validator: validator,
	}
}

func (h *APIHandlers) GetInstances(c fiber.Ctx) error {
	instances, err := h.hub.ListInstances(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"instances": redactInstances(instances)})
}

func (h *APIHandlers) CreateInstance(c fiber.Ctx) error {
	var req registry.AddRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	instance, err := h.hub.AddInstance(c.Context(), req)
	if err != nil {
		return handleHubError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(redactInstance(*instance))
}

func (h *APIHandlers) GetInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	instance, err := h.hub.GetInstance(c.Context(), id)
	if err != nil {
		return handleHubError(c, err)
	}

	return c.JSON(redactInstance(*instance))
}

func (h *APIHandlers) UpdateInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	var req registry.UpdateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	instance, err := h.hub.EditInstance(c.Context(), id, req)
	if err != nil {
		return handleHubError(c, err)
	}

	return c.JSON(redactInstance(*instance))
}

func (h *APIHandlers) DeleteInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	if err := h.hub.RemoveInstance(c.Context(), id); err != nil {
		return handleHubError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetInstanceStatus serves the cached probe result; ?refresh=true probes now.
func (h *APIHandlers) GetInstanceStatus(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	if refreshStr := c.Query("refresh"); refreshStr != "" {
		refresh, err := strconv.ParseBool(refreshStr)
		if err != nil {
			return badRequest(c, "Invalid refresh parameter: "+err.Error())
		}

		if refresh {
			status, err := h.hub.RefreshStatus(c.Context(), id)
			if err != nil {
				return handleHubError(c, err)
			}

			return c.JSON(status)
		}
	}

	if _, err := h.hub.GetInstance(c.Context(), id); err != nil {
		return handleHubError(c, err)
	}

	status, err := h.hub.InstanceStatus(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	if status == nil {
		return notFound(c, "Instance has not been probed yet")
	}

	return c.JSON(status)
}

// GetWorkflows serves the cached unified list without touching the network.
func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	items, err := h.hub.CachedWorkflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows": items,
		"count":     len(items),
	})
}

func (h *APIHandlers) RefreshWorkflows(c fiber.Ctx) error {
	force := false

	if forceStr := c.Query("force"); forceStr != "" {
		parsed, err := strconv.ParseBool(forceStr)
		if err != nil {
			return badRequest(c, "Invalid force parameter: "+err.Error())
		}

		force = parsed
	}

	result, err := h.hub.RefreshWorkflows(c.Context(), force)
	if err != nil {
		return handleHubError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows": result.Items,
		"count":     len(result.Items),
		"errors":    result.Errors,
	})
}

func (h *APIHandlers) SearchWorkflows(c fiber.Ctx) error {
	opts := search.Options{
		Tags:        splitList(c.Query("tags")),
		InstanceIDs: splitList(c.Query("instances")),
	}

	if escalateStr := c.Query("escalate"); escalateStr != "" {
		escalate, err := strconv.ParseBool(escalateStr)
		if err != nil {
			return badRequest(c, "Invalid escalate parameter: "+err.Error())
		}

		opts.Escalate = escalate
	}

	items, err := h.hub.Search(c.Context(), c.Query("q"), opts)
	if err != nil {
		return handleHubError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows": items,
		"count":     len(items),
	})
}

func (h *APIHandlers) ToggleWorkflow(c fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return badRequest(c, "Workflow key is required")
	}

	item, err := h.hub.Toggle(c.Context(), key)
	if err != nil {
		return handleHubError(c, err)
	}

	return c.JSON(item)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "n8nhub API is healthy"
	httpStatus := http.StatusOK

	if err := h.hub.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = err.Error()
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
