// Package history implements bounded linear undo/redo over workflow
// snapshots. Each committed mutation records the pre-mutation state;
// undoing exchanges the current state for the most recent recorded one
// and makes it redoable. Recording after an undo discards the redo
// states, so history stays linear.
package history

import (
	"sync"

	"github.com/flowpad/flowpad/pkg/models"
)

// DefaultDepth is the number of undo states retained. Once exceeded, the
// oldest state is dropped first.
const DefaultDepth = 50

// Stack holds the undo and redo snapshots for one workflow. It is safe
// for concurrent use.
type Stack struct {
	mu     sync.Mutex
	depth  int
	past   []*models.Snapshot
	future []*models.Snapshot
}

func NewStack(depth int) *Stack {
	if depth <= 0 {
		depth = DefaultDepth
	}

	return &Stack{depth: depth}
}

// Record pushes the state that preceded a committed mutation and clears
// any redo states. Mutations produced by Undo or Redo themselves must
// not be recorded, or applying history would feed back into it.
func (s *Stack) Record(state *models.Snapshot) {
	if state == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.past = append(s.past, state)
	if overflow := len(s.past) - s.depth; overflow > 0 {
		s.past = append([]*models.Snapshot(nil), s.past[overflow:]...)
	}

	s.future = nil
}

// Undo exchanges current for the most recently recorded state. It
// reports false when there is nothing to undo, leaving the stack
// untouched.
func (s *Stack) Undo(current *models.Snapshot) (*models.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.past) == 0 {
		return nil, false
	}

	state := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.future = append(s.future, current)

	return state, true
}

// Redo exchanges current for the most recently undone state. It reports
// false when there is nothing to redo.
func (s *Stack) Redo(current *models.Snapshot) (*models.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.future) == 0 {
		return nil, false
	}

	state := s.future[len(s.future)-1]
	s.future = s.future[:len(s.future)-1]
	s.past = append(s.past, current)

	return state, true
}

// CanUndo reports whether an undo state is available.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.past) > 0
}

// CanRedo reports whether a redo state is available.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.future) > 0
}

// Clear drops every retained state, for example when a different
// workflow is loaded into the editor.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.past = nil
	s.future = nil
}
