package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/flowpad/flowpad/pkg/eventbus"
	"github.com/flowpad/flowpad/pkg/events"
	"github.com/flowpad/flowpad/pkg/graph"
	"github.com/flowpad/flowpad/pkg/history"
	"github.com/flowpad/flowpad/pkg/models"
	"github.com/flowpad/flowpad/pkg/persistence"
	"github.com/flowpad/flowpad/pkg/registry"
)

// Editor is the guarded mutation surface for workflow graphs. Every
// committed mutation persists the workflow, records an undo snapshot and
// publishes a graph-changed event. Mutations are serialized: one lock
// guards the whole load-modify-save cycle, so no partial states are
// observable.
type Editor struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	depth       int

	mu        sync.Mutex
	histories map[string]*history.Stack
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithHistoryDepth bounds the per-workflow undo stack.
func WithHistoryDepth(depth int) EditorOption {
	return func(e *Editor) { e.depth = depth }
}

// NewEditor creates the editor service. The event bus may be nil, in which
// case graph-changed events are not published.
func NewEditor(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	opts ...EditorOption,
) *Editor {
	editor := &Editor{
		logger:      logger.With("module", "editor"),
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		depth:       history.DefaultDepth,
		histories:   make(map[string]*history.Stack),
	}

	for _, opt := range opts {
		opt(editor)
	}

	return editor
}

// AddNodeRequest describes a node to place on the canvas. Label and Config
// are optional; the registry supplies palette defaults for both.
type AddNodeRequest struct {
	Kind     models.NodeKind `json:"kind"     validate:"required"`
	Label    string          `json:"label,omitempty"`
	Position models.Position `json:"position"`
	Config   map[string]any  `json:"config,omitempty"`
}

// AddNode places a new node of the requested kind into the workflow graph.
func (e *Editor) AddNode(ctx context.Context, workflowID string, req AddNodeRequest) (*models.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	workflow, err := e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	node, err := e.registry.NewNode(req.Kind, newNodeID(req.Kind), req.Position)
	if err != nil {
		return nil, NewValidationError("AddNode", "UNKNOWN_NODE_KIND", err.Error(), ErrUnknownNodeKind)
	}

	if req.Label != "" {
		node.Data.Label = req.Label
	}

	if req.Config != nil {
		config, err := e.typedConfig("AddNode", req.Kind, req.Config)
		if err != nil {
			return nil, err
		}

		node.Data.Config = config
	}

	before := models.NewSnapshot(workflow.Nodes, workflow.Edges)
	workflow.Nodes = append(workflow.Nodes, node)

	if err := e.commit(ctx, workflow, before, events.MutationNodeAdded); err != nil {
		return nil, err
	}

	return node, nil
}

// UpdateNodeRequest carries the mutable node fields. Nil fields are left
// unchanged; the node's kind is immutable.
type UpdateNodeRequest struct {
	Label    *string          `json:"label,omitempty"`
	Position *models.Position `json:"position,omitempty"`
	Config   map[string]any   `json:"config,omitempty"`
}

// UpdateNode edits a node's label, position or config in place.
func (e *Editor) UpdateNode(ctx context.Context, workflowID, nodeID string, req UpdateNodeRequest) (*models.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	workflow, err := e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	node := workflow.NodeByID(nodeID)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	var config models.NodeConfig

	if req.Config != nil {
		config, err = e.typedConfig("UpdateNode", node.Type, req.Config)
		if err != nil {
			return nil, err
		}
	}

	before := models.NewSnapshot(workflow.Nodes, workflow.Edges)

	if req.Label != nil {
		node.Data.Label = *req.Label
	}

	if req.Position != nil {
		node.Position = *req.Position
	}

	if config != nil {
		node.Data.Config = config
	}

	if err := e.commit(ctx, workflow, before, events.MutationNodeUpdated); err != nil {
		return nil, err
	}

	return node, nil
}

// DeleteNode removes a node together with every edge touching it.
func (e *Editor) DeleteNode(ctx context.Context, workflowID, nodeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	workflow, err := e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	if workflow.NodeByID(nodeID) == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	before := models.NewSnapshot(workflow.Nodes, workflow.Edges)

	nodes := make([]*models.Node, 0, len(workflow.Nodes)-1)

	for _, node := range workflow.Nodes {
		if node.ID != nodeID {
			nodes = append(nodes, node)
		}
	}

	edges := make([]*models.Edge, 0, len(workflow.Edges))

	for _, edge := range workflow.Edges {
		if edge.Source != nodeID && edge.Target != nodeID {
			edges = append(edges, edge)
		}
	}

	workflow.Nodes = nodes
	workflow.Edges = edges

	return e.commit(ctx, workflow, before, events.MutationNodeRemoved)
}

// AddEdgeRequest describes a candidate connection between two nodes.
type AddEdgeRequest struct {
	Source       string `json:"source"       validate:"required"`
	Target       string `json:"target"       validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// AddEdge connects two nodes after running the full connection gate:
// self-loop, duplicate, boundary kinds and the cycle pre-check. A rejected
// connection leaves the graph unchanged and the returned error satisfies
// graph.IsConnectionError.
func (e *Editor) AddEdge(ctx context.Context, workflowID string, req AddEdgeRequest) (*models.Edge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	workflow, err := e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	source := workflow.NodeByID(req.Source)
	if source == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, req.Source)
	}

	target := workflow.NodeByID(req.Target)
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, req.Target)
	}

	if err := graph.ValidateConnection(source, target, workflow.Edges); err != nil {
		return nil, err
	}

	edge := &models.Edge{
		ID:           newEdgeID(),
		Source:       req.Source,
		Target:       req.Target,
		SourceHandle: req.SourceHandle,
		TargetHandle: req.TargetHandle,
	}

	before := models.NewSnapshot(workflow.Nodes, workflow.Edges)
	workflow.Edges = append(workflow.Edges, edge)

	if err := e.commit(ctx, workflow, before, events.MutationEdgeAdded); err != nil {
		return nil, err
	}

	return edge, nil
}

// DeleteEdge removes a single edge.
func (e *Editor) DeleteEdge(ctx context.Context, workflowID, edgeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	workflow, err := e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	if workflow.EdgeByID(edgeID) == nil {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, edgeID)
	}

	before := models.NewSnapshot(workflow.Nodes, workflow.Edges)

	edges := make([]*models.Edge, 0, len(workflow.Edges)-1)

	for _, edge := range workflow.Edges {
		if edge.ID != edgeID {
			edges = append(edges, edge)
		}
	}

	workflow.Edges = edges

	return e.commit(ctx, workflow, before, events.MutationEdgeRemoved)
}

// Undo restores the graph state before the last committed mutation. Undoing
// with no recorded history is a no-op, not an error.
func (e *Editor) Undo(ctx context.Context, workflowID string) (*models.Workflow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	workflow, err := e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	current := models.NewSnapshot(workflow.Nodes, workflow.Edges)

	previous, ok := e.historyFor(workflowID).Undo(current)
	if !ok {
		return workflow, nil
	}

	return e.restore(ctx, workflow, previous, events.MutationUndo)
}

// Redo re-applies the last undone mutation. Redoing with nothing undone is
// a no-op, not an error.
func (e *Editor) Redo(ctx context.Context, workflowID string) (*models.Workflow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	workflow, err := e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	current := models.NewSnapshot(workflow.Nodes, workflow.Edges)

	next, ok := e.historyFor(workflowID).Redo(current)
	if !ok {
		return workflow, nil
	}

	return e.restore(ctx, workflow, next, events.MutationRedo)
}

// History reports whether the workflow currently has undo and redo states.
func (e *Editor) History(workflowID string) (canUndo, canRedo bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stack := e.historyFor(workflowID)

	return stack.CanUndo(), stack.CanRedo()
}

// Forget drops the undo history for a workflow, typically after the
// workflow itself was deleted.
func (e *Editor) Forget(workflowID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.histories, workflowID)
}

// Export returns the workflow's graph as a standalone document.
func (e *Editor) Export(ctx context.Context, workflowID string) (*models.WorkflowDocument, error) {
	workflow, err := e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return workflow.Document(), nil
}

// Import replaces the workflow's graph with the given document wholesale.
// The document passes the structural gate first; a document with any
// problem is rejected as a whole via *ImportError and the graph is left
// untouched.
func (e *Editor) Import(ctx context.Context, workflowID string, data []byte) (*models.Workflow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	workflow, err := e.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	doc, problems := graph.ParseDocument(data, e.registry)
	if len(problems) > 0 {
		return nil, &ImportError{Problems: problems}
	}

	before := models.NewSnapshot(workflow.Nodes, workflow.Edges)

	workflow.Nodes = doc.Nodes
	workflow.Edges = doc.Edges

	if doc.Viewport != nil {
		workflow.Viewport = doc.Viewport
	}

	if err := e.commit(ctx, workflow, before, events.MutationImport); err != nil {
		return nil, err
	}

	return workflow, nil
}

func (e *Editor) loadWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := e.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// commit persists a mutated workflow, records the pre-mutation snapshot
// for undo and announces the change. Recording after a successful save
// keeps history aligned with what is actually stored.
func (e *Editor) commit(ctx context.Context, workflow *models.Workflow, before *models.Snapshot, mutation events.GraphMutation) error {
	if err := e.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	e.historyFor(workflow.ID).Record(before)

	e.publishGraphChanged(ctx, workflow, mutation)

	return nil
}

// restore installs a snapshot produced by undo or redo. Unlike commit it
// does not record history: the exchange already happened inside the stack,
// and recording here would corrupt it.
func (e *Editor) restore(ctx context.Context, workflow *models.Workflow, snapshot *models.Snapshot, mutation events.GraphMutation) (*models.Workflow, error) {
	workflow.Nodes, workflow.Edges = snapshot.Restore()

	if err := e.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	e.publishGraphChanged(ctx, workflow, mutation)

	return workflow, nil
}

// historyFor returns the workflow's undo stack. Callers must hold e.mu.
func (e *Editor) historyFor(workflowID string) *history.Stack {
	stack, ok := e.histories[workflowID]
	if !ok {
		stack = history.NewStack(e.depth)
		e.histories[workflowID] = stack
	}

	return stack
}

func (e *Editor) typedConfig(op string, kind models.NodeKind, raw map[string]any) (models.NodeConfig, error) {
	if err := e.registry.ValidateConfig(kind, raw); err != nil {
		return nil, NewValidationError(op, "INVALID_NODE_CONFIG", err.Error(), ErrInvalidNodeConfig)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, NewValidationError(op, "INVALID_NODE_CONFIG", err.Error(), ErrInvalidNodeConfig)
	}

	config, err := models.UnmarshalConfig(kind, data)
	if err != nil {
		return nil, NewValidationError(op, "INVALID_NODE_CONFIG", err.Error(), ErrInvalidNodeConfig)
	}

	return config, nil
}

func (e *Editor) publishGraphChanged(ctx context.Context, workflow *models.Workflow, mutation events.GraphMutation) {
	if e.eventBus == nil {
		return
	}

	event := events.WorkflowGraphChanged{
		BaseEvent: events.NewBaseEvent(events.WorkflowGraphChangedEvent, workflow.ID),
		Mutation:  mutation,
		NodeCount: len(workflow.Nodes),
		EdgeCount: len(workflow.Edges),
	}

	if err := e.eventBus.Publish(ctx, workflow.ID, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish graph change",
			"workflow_id", workflow.ID, "mutation", mutation, "error", err)
	}
}

func newNodeID(kind models.NodeKind) string {
	return fmt.Sprintf("%s-%s", kind, uuid.New().String()[:8])
}

func newEdgeID() string {
	return "edge-" + uuid.New().String()[:8]
}
