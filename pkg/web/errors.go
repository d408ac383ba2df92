package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/flowpad/flowpad/pkg/graph"
	"github.com/flowpad/flowpad/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, errType, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType(errType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// importProblem extends the RFC 7807 response with the full list of
// structural problems a rejected workflow document carries.
type importProblem struct {
	problems.Problem

	Problems []string `json:"problems"`
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	var importErr *services.ImportError

	switch {
	case errors.As(err, &importErr):
		problem := importProblem{
			Problem: *problems.NewStatusProblem(fiber.StatusUnprocessableEntity).
				WithInstance(c.Path()).
				WithType("invalid_document").
				WithDetail("workflow document rejected"),
			Problems: importErr.Problems,
		}

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case graph.IsConnectionError(err):
		// A rejected connection is a well-formed request the graph rules
		// refuse; the detail carries the canvas-facing reason.
		problem := problems.NewStatusProblem(fiber.StatusUnprocessableEntity).
			WithInstance(c.Path()).
			WithType("connection_rejected").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case services.IsNotFoundError(err):
		return notFound(c, notFoundType(err), err.Error())

	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(fiber.StatusBadRequest).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(fiber.StatusConflict).
			WithInstance(c.Path()).
			WithType("execution_in_progress").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	default:
		return internalError(c, err)
	}
}

func notFoundType(err error) string {
	switch {
	case errors.Is(err, services.ErrNodeNotFound):
		return "node_not_found"
	case errors.Is(err, services.ErrEdgeNotFound):
		return "edge_not_found"
	default:
		return "workflow_not_found"
	}
}
