package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/n8nhub/n8nhub/pkg/activation"
	"github.com/n8nhub/n8nhub/pkg/aggregate"
	"github.com/n8nhub/n8nhub/pkg/api"
	"github.com/n8nhub/n8nhub/pkg/hub"
	"github.com/n8nhub/n8nhub/pkg/registry"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleHubError maps core errors onto problem responses.
func handleHubError(c fiber.Ctx, err error) error {
	switch {
	case registry.IsNotFound(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("instance_not_found").
			WithDetail(err.Error())

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case registry.IsDuplicate(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("duplicate_instance").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case errors.Is(err, hub.ErrRefreshInFlight):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("refresh_in_flight").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case activation.IsNoTriggerNode(err):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("no_trigger_node").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case errors.Is(err, activation.ErrWorkflowNotCached):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("workflow_not_cached").
			WithDetail(err.Error())

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case errors.Is(err, aggregate.ErrNoReachableInstances):
		problem := problems.NewStatusProblem(503).
			WithInstance(c.Path()).
			WithType("no_reachable_instances").
			WithDetail(err.Error())

		return c.Status(fiber.StatusServiceUnavailable).JSON(problem)

	case api.IsUnauthorized(err):
		problem := problems.NewStatusProblem(502).
			WithInstance(c.Path()).
			WithType("upstream_unauthorized").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadGateway).JSON(problem)

	default:
		return internalError(c, err)
	}
}
