package models

import "time"

// ExecutionStatus is the outcome recorded for one node execution attempt.
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusError   ExecutionStatus = "error"
	ExecutionStatusSkipped ExecutionStatus = "skipped"
)

// SystemNodeID marks log entries produced by the engine itself (validation
// findings, cancellation) rather than by a graph node.
const SystemNodeID = "system"

// ConditionResultKey is the record key under which a Condition node stores
// its evaluated boolean. Branch selection consumes it; it is visible in the
// log's output record.
const ConditionResultKey = "_conditionResult"

// ExecutionLogEntry is the immutable record of one node's execution attempt.
type ExecutionLogEntry struct {
	NodeID    string          `json:"node_id"`
	NodeName  string          `json:"node_name"`
	NodeKind  NodeKind        `json:"node_kind,omitempty"`
	Input     map[string]any  `json:"input,omitempty"`
	Output    map[string]any  `json:"output,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Status    ExecutionStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
}

// RunStatus is the overall outcome of one execution run.
type RunStatus string

const (
	// RunStatusCompleted means every reachable path terminated or errored
	// locally.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed means pre-execution validation blocked the run.
	RunStatusFailed RunStatus = "failed"
	// RunStatusCancelled means the run was abandoned at a yield point.
	RunStatusCancelled RunStatus = "cancelled"
)

// ExecutionResult is the envelope returned for one run: identity, timing and
// the ordered log.
type ExecutionResult struct {
	ID         string               `json:"id"`
	WorkflowID string               `json:"workflow_id"`
	Status     RunStatus            `json:"status"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Entries    []ExecutionLogEntry  `json:"entries"`
}
