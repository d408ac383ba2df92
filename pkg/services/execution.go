package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flowpad/flowpad/pkg/eventbus"
	"github.com/flowpad/flowpad/pkg/graph"
	"github.com/flowpad/flowpad/pkg/models"
	"github.com/flowpad/flowpad/pkg/persistence"
	"github.com/flowpad/flowpad/pkg/workflow"
)

// ErrExecutionInProgress is returned when a run is requested for a
// workflow that is already executing.
var ErrExecutionInProgress = workflow.ErrRunInProgress

// Execution orchestrates workflow runs. Each workflow gets its own
// executor, so concurrent runs of different workflows are allowed while a
// second run of the same workflow is rejected.
type Execution struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	delay       time.Duration
	logCapacity int

	mu        sync.Mutex
	executors map[string]*workflow.Executor
}

// ExecutionOption configures an Execution service.
type ExecutionOption func(*Execution)

// WithExecutionDelay sets the per-node pacing delay for runs.
func WithExecutionDelay(delay time.Duration) ExecutionOption {
	return func(s *Execution) { s.delay = delay }
}

// WithExecutionLogCapacity bounds the execution log of each run.
func WithExecutionLogCapacity(capacity int) ExecutionOption {
	return func(s *Execution) { s.logCapacity = capacity }
}

// NewExecution creates the execution service. The event bus may be nil, in
// which case execution events are not published.
func NewExecution(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	opts ...ExecutionOption,
) *Execution {
	service := &Execution{
		logger:      logger.With("module", "execution"),
		persistence: persistence,
		eventBus:    eventBus,
		delay:       workflow.DefaultPacingDelay,
		executors:   make(map[string]*workflow.Executor),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// Run executes a workflow and returns the full execution result. Validation
// findings and per-node outcomes are reported inside the result's log, not
// as errors; the only error conditions are a missing workflow and a run
// already in progress.
func (s *Execution) Run(ctx context.Context, workflowID string) (*models.ExecutionResult, error) {
	target, err := s.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if target == nil {
		return nil, ErrWorkflowNotFound
	}

	return s.executorFor(workflowID).Execute(ctx, target)
}

// Validate runs the pre-execution readiness check without executing.
func (s *Execution) Validate(ctx context.Context, workflowID string) (graph.ValidationResult, error) {
	target, err := s.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return graph.ValidationResult{}, err
	}

	if target == nil {
		return graph.ValidationResult{}, ErrWorkflowNotFound
	}

	return graph.ValidateWorkflow(target.Nodes, target.Edges), nil
}

// IsRunning reports whether the workflow is currently executing.
func (s *Execution) IsRunning(workflowID string) bool {
	s.mu.Lock()
	executor, ok := s.executors[workflowID]
	s.mu.Unlock()

	return ok && executor.IsRunning()
}

// Forget drops the executor for a workflow, typically after the workflow
// itself was deleted.
func (s *Execution) Forget(workflowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.executors, workflowID)
}

func (s *Execution) executorFor(workflowID string) *workflow.Executor {
	s.mu.Lock()
	defer s.mu.Unlock()

	executor, ok := s.executors[workflowID]
	if !ok {
		opts := []workflow.ExecutorOption{
			workflow.WithPacingDelay(s.delay),
			workflow.WithLogCapacity(s.logCapacity),
		}

		if s.eventBus != nil {
			opts = append(opts, workflow.WithEventBus(s.eventBus))
		}

		executor = workflow.NewExecutor(s.logger, opts...)
		s.executors[workflowID] = executor
	}

	return executor
}
