package autosave

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowpad/flowpad/pkg/models"
	"github.com/flowpad/flowpad/pkg/persistence"
	"github.com/flowpad/flowpad/pkg/persistence/file"
	"github.com/flowpad/flowpad/pkg/testutil"
)

func newTestSaver(t *testing.T, opts ...Option) (*Saver, persistence.Persistence) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := file.NewPersistence(t.TempDir())

	return NewSaver(logger, store, t.TempDir(), opts...), store
}

func seedWorkflow(t *testing.T, store persistence.Persistence) *models.Workflow {
	t.Helper()

	workflow := testutil.CreateTestWorkflow(
		[]*models.Node{
			testutil.StartNode("start-1", map[string]any{"message": "hello"}),
			testutil.EndNode("end-1"),
		},
		[]*models.Edge{testutil.EdgeBetween("e1", "start-1", "end-1")},
		testutil.WithWorkflowID("workflow-1"),
	)
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	return workflow
}

func readDocument(t *testing.T, path string) *models.WorkflowDocument {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc models.WorkflowDocument
	require.NoError(t, json.Unmarshal(data, &doc))

	return &doc
}

func TestSaverFlushWritesDocument(t *testing.T) {
	saver, store := newTestSaver(t)
	seedWorkflow(t, store)

	saver.MarkDirty("workflow-1")
	require.NoError(t, saver.Flush(t.Context()))

	doc := readDocument(t, saver.DocumentPath("workflow-1"))
	require.Len(t, doc.Nodes, 2)
	require.Len(t, doc.Edges, 1)
	assert.Equal(t, "start-1", doc.Nodes[0].ID)
}

func TestSaverFlushClearsDirtySet(t *testing.T) {
	saver, store := newTestSaver(t)
	seedWorkflow(t, store)

	saver.MarkDirty("workflow-1")
	require.NoError(t, saver.Flush(t.Context()))
	require.NoError(t, os.Remove(saver.DocumentPath("workflow-1")))

	// A second flush has nothing pending and does not rewrite the file.
	require.NoError(t, saver.Flush(t.Context()))
	assert.NoFileExists(t, saver.DocumentPath("workflow-1"))
}

func TestSaverFlushRemovesDocumentOfDeletedWorkflow(t *testing.T) {
	saver, store := newTestSaver(t)
	seedWorkflow(t, store)

	saver.MarkDirty("workflow-1")
	require.NoError(t, saver.Flush(t.Context()))
	require.FileExists(t, saver.DocumentPath("workflow-1"))

	require.NoError(t, store.DeleteWorkflow(t.Context(), "workflow-1"))
	saver.MarkDirty("workflow-1")

	require.NoError(t, saver.Flush(t.Context()))
	assert.NoFileExists(t, saver.DocumentPath("workflow-1"))
}

func TestSaverForget(t *testing.T) {
	saver, store := newTestSaver(t)
	seedWorkflow(t, store)

	saver.MarkDirty("workflow-1")
	require.NoError(t, saver.Flush(t.Context()))
	require.FileExists(t, saver.DocumentPath("workflow-1"))

	saver.Forget("workflow-1")
	assert.NoFileExists(t, saver.DocumentPath("workflow-1"))

	// Forget before a flush also drops the pending mark.
	saver.MarkDirty("workflow-1")
	saver.Forget("workflow-1")
	require.NoError(t, saver.Flush(t.Context()))
	assert.NoFileExists(t, saver.DocumentPath("workflow-1"))
}

func TestSaverStartInvalidSchedule(t *testing.T) {
	saver, _ := newTestSaver(t, WithSchedule("not a schedule"))

	err := saver.Start(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid autosave schedule")
}

func TestSaverFlushesOnSchedule(t *testing.T) {
	saver, store := newTestSaver(t, WithSchedule("@every 50ms"))
	seedWorkflow(t, store)

	require.NoError(t, saver.Start(t.Context()))

	defer func() {
		require.NoError(t, saver.Stop(t.Context()))
	}()

	saver.MarkDirty("workflow-1")

	require.Eventually(t, func() bool {
		_, err := os.Stat(saver.DocumentPath("workflow-1"))

		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSaverStopFlushesPending(t *testing.T) {
	saver, store := newTestSaver(t)
	seedWorkflow(t, store)

	saver.MarkDirty("workflow-1")

	require.NoError(t, saver.Stop(t.Context()))
	require.FileExists(t, saver.DocumentPath("workflow-1"))
}
