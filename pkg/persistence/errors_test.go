package persistence_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowpad/flowpad/pkg/persistence"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error constants are available", func(t *testing.T) {
		assert.NotNil(t, persistence.ErrWorkflowNotFound)
		assert.NotNil(t, persistence.ErrWorkflowAlreadyExists)
		assert.NotNil(t, persistence.ErrInvalidDocument)
	})

	t.Run("error checking functions work correctly", func(t *testing.T) {
		workflowErr := persistence.NewWorkflowError("GetByID", "workflow-123", persistence.ErrWorkflowNotFound)
		duplicateErr := persistence.NewWorkflowError("Save", "workflow-456", persistence.ErrWorkflowAlreadyExists)

		assert.True(t, persistence.IsWorkflowNotFound(workflowErr))
		assert.True(t, persistence.IsWorkflowAlreadyExists(duplicateErr))

		// Test error unwrapping
		assert.True(t, errors.Is(workflowErr, persistence.ErrWorkflowNotFound))
		assert.True(t, errors.Is(duplicateErr, persistence.ErrWorkflowAlreadyExists))
	})

	t.Run("workflow error contains context", func(t *testing.T) {
		err := persistence.NewWorkflowError("UpdateWorkflow", "workflow-123", persistence.ErrWorkflowNotFound)

		assert.Contains(t, err.Error(), "UpdateWorkflow")
		assert.Contains(t, err.Error(), "workflow-123")
		assert.Contains(t, err.Error(), "workflow not found")
	})

	t.Run("message is included when present", func(t *testing.T) {
		err := &persistence.WorkflowError{
			Op:         "Save",
			WorkflowID: "workflow-789",
			Err:        persistence.ErrInvalidDocument,
			Message:    "node config rejected",
		}

		assert.Contains(t, err.Error(), "node config rejected")
		assert.True(t, errors.Is(err, persistence.ErrInvalidDocument))
	})
}
