package workflow

import (
	"sync"

	"github.com/flowpad/flowpad/pkg/models"
)

// DefaultLogCapacity is the number of entries an execution log retains
// before the oldest ones are evicted.
const DefaultLogCapacity = 100

// ExecutionLog is a bounded, append-only record of node executions. It is
// safe for concurrent use so observers can read entries while a run is
// still appending them.
type ExecutionLog struct {
	mu       sync.Mutex
	capacity int
	entries  []models.ExecutionLogEntry
}

func NewExecutionLog(capacity int) *ExecutionLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}

	return &ExecutionLog{capacity: capacity}
}

// Append adds an entry to the log, evicting the oldest entries once the
// capacity is exceeded.
func (l *ExecutionLog) Append(entry models.ExecutionLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if overflow := len(l.entries) - l.capacity; overflow > 0 {
		l.entries = append([]models.ExecutionLogEntry(nil), l.entries[overflow:]...)
	}
}

// Entries returns a snapshot of the retained entries in append order.
func (l *ExecutionLog) Entries() []models.ExecutionLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]models.ExecutionLogEntry, len(l.entries))
	copy(entries, l.entries)

	return entries
}

// Len returns the number of retained entries.
func (l *ExecutionLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}
