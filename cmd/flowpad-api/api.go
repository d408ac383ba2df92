// Package main provides the flowpad API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/flowpad/flowpad/pkg/autosave"
	"github.com/flowpad/flowpad/pkg/eventbus"
	"github.com/flowpad/flowpad/pkg/events"
	"github.com/flowpad/flowpad/pkg/persistence"
	"github.com/flowpad/flowpad/pkg/registry"
	"github.com/flowpad/flowpad/pkg/services"
	"github.com/flowpad/flowpad/pkg/web"
)

// APIConfig carries the tunables the flags expose.
type APIConfig struct {
	HistoryDepth   int
	ExecutionDelay time.Duration
	LogCapacity    int
}

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	saver       *autosave.Saver
	validate    *validator.Validate

	workflowService  *services.Workflow
	editorService    *services.Editor
	executionService *services.Execution
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	saver *autosave.Saver,
	config APIConfig,
) *API {
	api := &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		saver:       saver,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}

	var editorOpts []services.EditorOption
	if config.HistoryDepth > 0 {
		editorOpts = append(editorOpts, services.WithHistoryDepth(config.HistoryDepth))
	}

	var executionOpts []services.ExecutionOption
	if config.ExecutionDelay > 0 {
		executionOpts = append(executionOpts, services.WithExecutionDelay(config.ExecutionDelay))
	}

	if config.LogCapacity > 0 {
		executionOpts = append(executionOpts, services.WithExecutionLogCapacity(config.LogCapacity))
	}

	api.workflowService = services.NewWorkflow(logger, persistence, eventBus)
	api.editorService = services.NewEditor(logger, persistence, registry, eventBus, editorOpts...)
	api.executionService = services.NewExecution(logger, persistence, eventBus, executionOpts...)

	return api
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.workflowService, a.editorService, a.executionService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowpad API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)

	// Canvas mutation endpoints:
	w.Post("/:id/nodes", handlers.CreateNode)
	w.Patch("/:id/nodes/:nodeId", handlers.UpdateNode)
	w.Delete("/:id/nodes/:nodeId", handlers.DeleteNode)
	w.Post("/:id/edges", handlers.CreateEdge)
	w.Delete("/:id/edges/:edgeId", handlers.DeleteEdge)

	// History endpoints:
	w.Post("/:id/undo", handlers.Undo)
	w.Post("/:id/redo", handlers.Redo)

	// Document and run endpoints:
	w.Get("/:id/export", handlers.ExportWorkflow)
	w.Post("/:id/import", handlers.ImportWorkflow)
	w.Post("/:id/validate", handlers.ValidateWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)

	app.Get("/node-kinds", handlers.GetNodeKinds)
	app.Get("/health", handlers.HealthCheck)

	return app
}

// registerEventHandlers fans the event stream out to the components that
// react to it. The bus keeps one handler per event type, so each handler
// here is the single composite subscriber for its type.
func (a *API) registerEventHandlers() error {
	markDirty := func(ctx context.Context, event any) error {
		switch evt := event.(type) {
		case *events.WorkflowGraphChanged:
			a.saver.MarkDirty(evt.WorkflowID)
		case *events.WorkflowUpdated:
			a.saver.MarkDirty(evt.WorkflowID)
		default:
			a.logger.ErrorContext(ctx, "Invalid event payload for autosave", "payload", event)
		}

		return nil
	}

	if err := a.eventBus.Handle(events.WorkflowGraphChangedEvent, markDirty); err != nil {
		return err
	}

	// Viewport and rename changes land in the export document too.
	if err := a.eventBus.Handle(events.WorkflowUpdatedEvent, markDirty); err != nil {
		return err
	}

	return a.eventBus.Handle(events.WorkflowDeletedEvent, func(ctx context.Context, event any) error {
		deleted, ok := event.(*events.WorkflowDeleted)
		if !ok {
			a.logger.ErrorContext(ctx, "Invalid event payload for workflow deletion", "payload", event)

			return nil
		}

		a.editorService.Forget(deleted.WorkflowID)
		a.executionService.Forget(deleted.WorkflowID)
		a.saver.Forget(deleted.WorkflowID)

		return nil
	})
}

// Start wires the event handlers, starts the autosave mirror and serves
// HTTP until the process receives SIGINT or SIGTERM.
func (a *API) Start(ctx context.Context, port int) error {
	if err := a.registerEventHandlers(); err != nil {
		return err
	}

	if err := a.eventBus.Subscribe(ctx); err != nil {
		return err
	}

	if err := a.saver.Start(ctx); err != nil {
		return err
	}

	app := a.App()

	listenErr := make(chan error, 1)

	go func() {
		listenErr <- app.Listen(":" + strconv.Itoa(port))
	}()

	a.logger.InfoContext(ctx, "Flowpad API started", "port", port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return err
	case <-sigChan:
	}

	a.logger.InfoContext(ctx, "Shutting down Flowpad API...")

	if err := app.Shutdown(); err != nil {
		a.logger.ErrorContext(ctx, "Failed to shut down HTTP server", "error", err)
	}

	return a.saver.Stop(ctx)
}
