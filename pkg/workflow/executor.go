// Package workflow runs workflow graphs. A run is gated behind whole-graph
// validation, then walks every Start node's paths over an explicit FIFO
// queue, selecting Condition branches by edge handle and recording each
// node execution in a bounded log. Failures stay local to the path that
// raised them; sibling paths keep running.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowpad/flowpad/pkg/eventbus"
	"github.com/flowpad/flowpad/pkg/events"
	"github.com/flowpad/flowpad/pkg/graph"
	"github.com/flowpad/flowpad/pkg/models"
	conditionnode "github.com/flowpad/flowpad/pkg/nodes/condition"
	endnode "github.com/flowpad/flowpad/pkg/nodes/end"
	startnode "github.com/flowpad/flowpad/pkg/nodes/start"
	transformnode "github.com/flowpad/flowpad/pkg/nodes/transform"
	"github.com/flowpad/flowpad/pkg/otelhelper"
)

// DefaultPacingDelay spaces node executions out so a run can be followed
// in real time. It is a yield point, not part of the graph semantics.
const DefaultPacingDelay = 200 * time.Millisecond

// ErrRunInProgress is returned by Execute when the executor is already
// running a workflow.
var ErrRunInProgress = errors.New("workflow execution already in progress")

type Executor struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	eventBus eventbus.EventBus
	delay    time.Duration
	capacity int
	running  atomic.Bool
}

type ExecutorOption func(*Executor)

// WithPacingDelay overrides the delay inserted before each node execution.
// A zero or negative delay disables pacing but keeps the yield point.
func WithPacingDelay(delay time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.delay = delay
	}
}

// WithLogCapacity overrides how many log entries a run retains.
func WithLogCapacity(capacity int) ExecutorOption {
	return func(e *Executor) {
		e.capacity = capacity
	}
}

// WithEventBus publishes execution lifecycle events to the given bus.
func WithEventBus(eventBus eventbus.EventBus) ExecutorOption {
	return func(e *Executor) {
		e.eventBus = eventBus
	}
}

// WithTracer overrides the tracer used to instrument runs.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

func NewExecutor(logger *slog.Logger, opts ...ExecutorOption) *Executor {
	executor := &Executor{
		logger:   logger.With("module", "workflow"),
		tracer:   otel.Tracer("flowpad/workflow"),
		delay:    DefaultPacingDelay,
		capacity: DefaultLogCapacity,
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// IsRunning reports whether the executor currently has an active run.
func (e *Executor) IsRunning() bool {
	return e.running.Load()
}

// workItem is one pending node on a traversal path. The visited set
// belongs to this path alone; sibling paths may legitimately reach the
// same node again.
type workItem struct {
	node    *models.Node
	input   map[string]any
	visited map[string]bool
}

// run carries the per-execution state shared by the traversal helpers.
type run struct {
	workflowID  string
	executionID string
	nodesByID   map[string]*models.Node
	adjacency   map[string][]*models.Edge
	log         *ExecutionLog
}

// Execute validates the workflow and, if it passes, walks every reachable
// path from each Start node in node order. Validation warnings and errors
// surface as system log entries; per-node failures halt only their own
// path. Execute returns ErrRunInProgress when a run is already active;
// every other outcome, including cancellation, is reported through the
// result's status and entries.
func (e *Executor) Execute(ctx context.Context, workflow *models.Workflow) (*models.ExecutionResult, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer e.running.Store(false)

	result := &models.ExecutionResult{
		ID:         generateExecutionID(),
		WorkflowID: workflow.ID,
		Status:     models.RunStatusCompleted,
		StartedAt:  time.Now().UTC(),
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.ExecutionIDKey, result.ID),
	)
	defer span.End()

	logger := e.logger.With("workflow_id", workflow.ID, "execution_id", result.ID)
	logger.Info("Starting workflow execution")

	e.publish(ctx, workflow.ID, events.WorkflowExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.WorkflowExecutionStartedEvent, workflow.ID),
		ExecutionID:  result.ID,
		WorkflowName: workflow.Name,
	})

	log := NewExecutionLog(e.capacity)

	validation := graph.ValidateWorkflow(workflow.Nodes, workflow.Edges)
	for _, warning := range validation.Warnings {
		log.Append(systemEntry(models.ExecutionStatusSkipped, warning))
	}

	if !validation.Valid {
		for _, problem := range validation.Errors {
			log.Append(systemEntry(models.ExecutionStatusError, problem))
		}

		result.Status = models.RunStatusFailed
		logger.Warn("Validation blocked execution", "errors", len(validation.Errors))

		return e.finish(ctx, span, workflow, result, log), nil
	}

	r := &run{
		workflowID:  workflow.ID,
		executionID: result.ID,
		nodesByID:   make(map[string]*models.Node, len(workflow.Nodes)),
		adjacency:   make(map[string][]*models.Edge, len(workflow.Nodes)),
		log:         log,
	}

	for _, node := range workflow.Nodes {
		r.nodesByID[node.ID] = node
	}

	for _, edge := range workflow.Edges {
		r.adjacency[edge.Source] = append(r.adjacency[edge.Source], edge)
	}

	for _, node := range workflow.Nodes {
		if node.Type != models.NodeKindStart {
			continue
		}

		if err := e.runTraversal(ctx, r, node); err != nil {
			log.Append(systemEntry(models.ExecutionStatusSkipped, "Execution cancelled before completion"))
			result.Status = models.RunStatusCancelled
			logger.Info("Workflow execution cancelled")

			break
		}
	}

	return e.finish(ctx, span, workflow, result, log), nil
}

// runTraversal drains one Start node's work queue. It returns an error
// only when the context is cancelled at a pacing yield point; every
// node-level failure is absorbed into the log.
func (e *Executor) runTraversal(ctx context.Context, r *run, start *models.Node) error {
	seed := map[string]any{}
	if config, ok := start.Data.Config.(*models.StartConfig); ok && config != nil {
		seed = models.CopyRecord(config.Payload)
	}

	queue := []workItem{{node: start, input: seed, visited: map[string]bool{}}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.visited[item.node.ID] {
			r.log.Append(models.ExecutionLogEntry{
				NodeID:    item.node.ID,
				NodeName:  item.node.DisplayName(),
				NodeKind:  item.node.Type,
				Input:     item.input,
				Timestamp: time.Now().UTC(),
				Status:    models.ExecutionStatusError,
				Message:   "Cycle detected: path abandoned to avoid an infinite loop",
			})

			continue
		}

		if err := e.pace(ctx); err != nil {
			return err
		}

		output, message, err := e.executeNode(item.node, item.input)

		entry := models.ExecutionLogEntry{
			NodeID:    item.node.ID,
			NodeName:  item.node.DisplayName(),
			NodeKind:  item.node.Type,
			Input:     item.input,
			Output:    output,
			Timestamp: time.Now().UTC(),
			Status:    models.ExecutionStatusSuccess,
			Message:   message,
		}
		if err != nil {
			entry.Status = models.ExecutionStatusError
			entry.Message = err.Error()
		}

		r.log.Append(entry)

		e.publish(ctx, r.workflowID, events.NodeExecuted{
			BaseEvent:   events.NewBaseEvent(events.NodeExecutedEvent, r.workflowID),
			ExecutionID: r.executionID,
			NodeID:      item.node.ID,
			NodeKind:    item.node.Type,
			Status:      entry.Status,
			Message:     entry.Message,
		})

		if err != nil {
			// This path ends here; siblings keep running.
			continue
		}

		queue = append(queue, e.successors(r, item, output)...)
	}

	return nil
}

// successors builds the queue items that follow a successfully executed
// node. For Condition sources only the edges matching the evaluated
// branch survive; the condition marker stays visible in the log but is
// stripped from the data handed to the next node.
func (e *Executor) successors(r *run, item workItem, output map[string]any) []workItem {
	edges := r.adjacency[item.node.ID]
	if len(edges) == 0 {
		return nil
	}

	branch, branchKnown := false, false
	next := output

	if item.node.Type == models.NodeKindCondition {
		branch, branchKnown = output[models.ConditionResultKey].(bool)
		next = models.CopyRecord(output)
		delete(next, models.ConditionResultKey)
	}

	items := make([]workItem, 0, len(edges))

	for _, edge := range edges {
		if item.node.Type == models.NodeKindCondition && edge.SourceHandle != "" {
			switch edge.SourceHandle {
			case models.HandleTrue:
				if !branchKnown || !branch {
					continue
				}
			case models.HandleFalse:
				if !branchKnown || branch {
					continue
				}
			default:
				continue
			}
		}

		target := r.nodesByID[edge.Target]
		if target == nil {
			continue
		}

		visited := make(map[string]bool, len(item.visited)+1)
		for id := range item.visited {
			visited[id] = true
		}
		visited[item.node.ID] = true

		items = append(items, workItem{node: target, input: next, visited: visited})
	}

	return items
}

// pace waits out the pacing delay before a node executes. It doubles as
// the run's cancellation yield point.
func (e *Executor) pace(ctx context.Context) error {
	if e.delay <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	timer := time.NewTimer(e.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// executeNode dispatches to the node kind's semantics. Panics are caught
// and reported as node errors so one misbehaving node cannot take down
// the run.
func (e *Executor) executeNode(node *models.Node, input map[string]any) (output map[string]any, message string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			output = nil
			message = ""
			err = fmt.Errorf("node execution panicked: %v", recovered)
		}
	}()

	switch node.Type {
	case models.NodeKindStart:
		config, _ := node.Data.Config.(*models.StartConfig)

		return startnode.New(config).Execute(input)
	case models.NodeKindTransform:
		config, _ := node.Data.Config.(*models.TransformConfig)

		return transformnode.New(config).Execute(input)
	case models.NodeKindCondition:
		config, _ := node.Data.Config.(*models.ConditionConfig)

		return conditionnode.New(config).Execute(input)
	case models.NodeKindEnd:
		config, _ := node.Data.Config.(*models.EndConfig)

		return endnode.New(config).Execute(input)
	default:
		return nil, "", fmt.Errorf("unknown node kind %q", node.Type)
	}
}

// finish stamps the result, publishes the terminal event and closes out
// the span.
func (e *Executor) finish(ctx context.Context, span trace.Span, workflow *models.Workflow, result *models.ExecutionResult, log *ExecutionLog) *models.ExecutionResult {
	result.FinishedAt = time.Now().UTC()
	result.Entries = log.Entries()

	span.SetAttributes(attribute.String(otelhelper.RunStatusKey, string(result.Status)))

	e.publish(ctx, workflow.ID, events.WorkflowExecutionFinished{
		BaseEvent:     events.NewBaseEvent(events.WorkflowExecutionFinishedEvent, workflow.ID),
		ExecutionID:   result.ID,
		Status:        result.Status,
		DurationMs:    result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		NodesExecuted: len(result.Entries),
	})

	e.logger.Info("Workflow execution finished",
		"workflow_id", workflow.ID,
		"execution_id", result.ID,
		"status", result.Status,
		"entries", len(result.Entries))

	return result
}

func (e *Executor) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, workflowID, event); err != nil {
		e.logger.Warn("Failed to publish execution event", "event_type", event.GetType(), "error", err)
	}
}

func systemEntry(status models.ExecutionStatus, message string) models.ExecutionLogEntry {
	return models.ExecutionLogEntry{
		NodeID:    models.SystemNodeID,
		NodeName:  "System",
		Timestamp: time.Now().UTC(),
		Status:    status,
		Message:   message,
	}
}

// generateExecutionID generates a unique execution ID.
func generateExecutionID() string {
	return fmt.Sprintf("exec-%s", uuid.New().String()[:8])
}
