// Package autosave mirrors changed workflows to disk as export documents.
// Graph change events mark a workflow dirty; a cron schedule flushes every
// dirty workflow's document to the autosave directory.
package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/flowpad/flowpad/pkg/persistence"
)

// DefaultSchedule flushes dirty workflows every 30 seconds.
const DefaultSchedule = "@every 30s"

// Saver accumulates dirty workflow IDs and writes their export documents
// on a schedule. Writes are atomic: a temp file in the same directory is
// renamed over the target, so readers never observe a partial document.
type Saver struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	dir         string
	schedule    string
	cron        *cron.Cron

	mu    sync.Mutex
	dirty map[string]struct{}
}

type Option func(*Saver)

// WithSchedule overrides the flush schedule. Any robfig/cron spec works,
// including "@every 10s".
func WithSchedule(schedule string) Option {
	return func(s *Saver) {
		s.schedule = schedule
	}
}

func NewSaver(logger *slog.Logger, persistence persistence.Persistence, dir string, opts ...Option) *Saver {
	saver := &Saver{
		logger:      logger.With("module", "autosave"),
		persistence: persistence,
		dir:         dir,
		schedule:    DefaultSchedule,
		dirty:       make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(saver)
	}

	return saver
}

// MarkDirty queues a workflow for the next flush.
func (s *Saver) MarkDirty(workflowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty[workflowID] = struct{}{}
}

// Forget drops a workflow's dirty mark and removes its autosave document,
// typically after the workflow was deleted.
func (s *Saver) Forget(workflowID string) {
	s.mu.Lock()
	delete(s.dirty, workflowID)
	s.mu.Unlock()

	if err := s.removeDocument(workflowID); err != nil {
		s.logger.Warn("Failed to remove autosave document", "workflow_id", workflowID, "error", err)
	}
}

// DocumentPath returns where a workflow's autosave document is written.
func (s *Saver) DocumentPath(workflowID string) string {
	return filepath.Join(s.dir, workflowID+".json")
}

// Start creates the autosave directory and begins flushing on the
// configured schedule.
func (s *Saver) Start(ctx context.Context) error {
	err := os.MkdirAll(s.dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create autosave directory: %w", err)
	}

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err = s.cron.AddFunc(s.schedule, func() {
		flushErr := s.Flush(ctx)
		if flushErr != nil {
			s.logger.ErrorContext(ctx, "Autosave flush failed", "error", flushErr)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid autosave schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Autosave started", "dir", s.dir, "schedule", s.schedule)

	return nil
}

// Stop halts the schedule and flushes whatever is still pending.
func (s *Saver) Stop(ctx context.Context) error {
	if s.cron != nil {
		s.cron.Stop()
	}

	return s.Flush(ctx)
}

// Flush writes the export document of every dirty workflow and clears the
// dirty set. A workflow that fails to flush is re-marked so the next tick
// retries it.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := make([]string, 0, len(s.dirty))

	for workflowID := range s.dirty {
		pending = append(pending, workflowID)
	}

	s.dirty = make(map[string]struct{})
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	s.logger.DebugContext(ctx, "Flushing autosave documents", "count", len(pending))

	var errs []error

	for _, workflowID := range pending {
		err := s.flushWorkflow(ctx, workflowID)
		if err != nil {
			s.MarkDirty(workflowID)
			errs = append(errs, fmt.Errorf("workflow %s: %w", workflowID, err))
		}
	}

	return errors.Join(errs...)
}

func (s *Saver) flushWorkflow(ctx context.Context, workflowID string) error {
	workflow, err := s.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return err
	}

	if workflow == nil {
		// Deleted after it was marked; drop any stale document.
		return s.removeDocument(workflowID)
	}

	data, err := json.MarshalIndent(workflow.Document(), "", "  ")
	if err != nil {
		return err
	}

	return s.writeAtomic(s.DocumentPath(workflowID), data)
}

func (s *Saver) writeAtomic(path string, data []byte) error {
	err := os.MkdirAll(s.dir, 0750)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	_, err = tmp.Write(data)

	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	return os.Rename(tmp.Name(), path)
}

func (s *Saver) removeDocument(workflowID string) error {
	err := os.Remove(s.DocumentPath(workflowID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
