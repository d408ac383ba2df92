// Package events defines event types and structures for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowpad/flowpad/pkg/models"
)

type EventType string

// Topic is the stream all editor and execution events are published on.
const Topic = "flowpad.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowCreatedEvent EventType = "workflow.created"
	WorkflowUpdatedEvent EventType = "workflow.updated"
	WorkflowDeletedEvent EventType = "workflow.deleted"

	// Editor graph events.
	WorkflowGraphChangedEvent EventType = "workflow.graph.changed"

	// Execution lifecycle events.
	WorkflowExecutionStartedEvent  EventType = "workflow.execution.started"
	WorkflowExecutionFinishedEvent EventType = "workflow.execution.finished"
	NodeExecutedEvent              EventType = "node.executed"
)

// GraphMutation names the editor operation that changed a workflow graph.
type GraphMutation string

const (
	MutationNodeAdded   GraphMutation = "node_added"
	MutationNodeUpdated GraphMutation = "node_updated"
	MutationNodeRemoved GraphMutation = "node_removed"
	MutationEdgeAdded   GraphMutation = "edge_added"
	MutationEdgeRemoved GraphMutation = "edge_removed"
	MutationUndo        GraphMutation = "undo"
	MutationRedo        GraphMutation = "redo"
	MutationImport      GraphMutation = "import"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type WorkflowCreated struct {
	BaseEvent

	Name string `json:"name"`
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowUpdated struct {
	BaseEvent

	Name string `json:"name"`
}

func (w WorkflowUpdated) GetType() EventType {
	return WorkflowUpdatedEvent
}

type WorkflowDeleted struct {
	BaseEvent
}

func (w WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

// WorkflowGraphChanged is emitted after every committed graph mutation,
// including undo, redo and document import.
type WorkflowGraphChanged struct {
	BaseEvent

	Mutation  GraphMutation `json:"mutation"`
	NodeCount int           `json:"node_count"`
	EdgeCount int           `json:"edge_count"`
}

func (w WorkflowGraphChanged) GetType() EventType {
	return WorkflowGraphChangedEvent
}

type WorkflowExecutionStarted struct {
	BaseEvent

	ExecutionID  string `json:"execution_id"`
	WorkflowName string `json:"workflow_name"`
}

func (w WorkflowExecutionStarted) GetType() EventType {
	return WorkflowExecutionStartedEvent
}

type WorkflowExecutionFinished struct {
	BaseEvent

	ExecutionID   string           `json:"execution_id"`
	Status        models.RunStatus `json:"status"`
	DurationMs    int64            `json:"duration_ms"`
	NodesExecuted int              `json:"nodes_executed"`
}

func (w WorkflowExecutionFinished) GetType() EventType {
	return WorkflowExecutionFinishedEvent
}

// NodeExecuted mirrors one execution log entry as it is appended.
type NodeExecuted struct {
	BaseEvent

	ExecutionID string                 `json:"execution_id"`
	NodeID      string                 `json:"node_id"`
	NodeKind    models.NodeKind        `json:"node_kind,omitempty"`
	Status      models.ExecutionStatus `json:"status"`
	Message     string                 `json:"message,omitempty"`
}

func (n NodeExecuted) GetType() EventType {
	return NodeExecutedEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
