package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowpad/flowpad/pkg/models"
	"github.com/flowpad/flowpad/pkg/persistence/file"
	"github.com/flowpad/flowpad/pkg/registry"
	"github.com/flowpad/flowpad/pkg/services"
	"github.com/flowpad/flowpad/pkg/web"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persistence := file.NewPersistence(t.TempDir())
	registryInstance := registry.NewRegistry(logger)

	workflowService := services.NewWorkflow(logger, persistence, nil)
	editorService := services.NewEditor(logger, persistence, registryInstance, nil)
	executionService := services.NewExecution(logger, persistence, nil, services.WithExecutionDelay(0))

	handlers := web.NewAPIHandlers(
		workflowService,
		editorService,
		executionService,
		validator.New(validator.WithRequiredStructEnabled()),
		registryInstance,
	)

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/nodes", handlers.CreateNode)
	w.Patch("/:id/nodes/:nodeId", handlers.UpdateNode)
	w.Delete("/:id/nodes/:nodeId", handlers.DeleteNode)
	w.Post("/:id/edges", handlers.CreateEdge)
	w.Delete("/:id/edges/:edgeId", handlers.DeleteEdge)
	w.Post("/:id/undo", handlers.Undo)
	w.Post("/:id/redo", handlers.Redo)
	w.Get("/:id/export", handlers.ExportWorkflow)
	w.Post("/:id/import", handlers.ImportWorkflow)
	w.Post("/:id/validate", handlers.ValidateWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)

	app.Get("/node-kinds", handlers.GetNodeKinds)
	app.Get("/health", handlers.HealthCheck)

	return app
}

// doJSON performs a request with an optional JSON body and returns the
// status code and response body.
func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	if payload != nil {
		if raw, ok := payload.([]byte); ok {
			reader = bytes.NewReader(raw)
		} else {
			body, err := json.Marshal(payload)
			require.NoError(t, err)

			reader = bytes.NewReader(body)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

// createWorkflow creates a workflow through the API and returns its ID.
func createWorkflow(t *testing.T, app *fiber.App, name string) string {
	t.Helper()

	status, body := doJSON(t, app, http.MethodPost, "/workflows", web.CreateWorkflowRequest{Name: name})
	require.Equal(t, http.StatusCreated, status)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))
	require.NotEmpty(t, workflow.ID)

	return workflow.ID
}

// createNode places a node through the API and returns it.
func createNode(t *testing.T, app *fiber.App, workflowID string, req web.CreateNodeRequest) *models.Node {
	t.Helper()

	status, body := doJSON(t, app, http.MethodPost, "/workflows/"+workflowID+"/nodes", req)
	require.Equal(t, http.StatusCreated, status)

	var node models.Node
	require.NoError(t, json.Unmarshal(body, &node))

	return &node
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		validateResult func(t *testing.T, body []byte)
	}{
		{
			name: "successful creation",
			requestBody: web.CreateWorkflowRequest{
				Name:        "Order Pipeline",
				Description: "Processes incoming orders",
			},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				var workflow models.Workflow
				require.NoError(t, json.Unmarshal(body, &workflow))
				assert.Equal(t, "Order Pipeline", workflow.Name)
				assert.Equal(t, "Processes incoming orders", workflow.Description)
				assert.NotEmpty(t, workflow.ID)
				assert.NotNil(t, workflow.Nodes)
				assert.Empty(t, workflow.Nodes)
				assert.Empty(t, workflow.Edges)
			},
		},
		{
			name:           "validation error - missing name",
			requestBody:    web.CreateWorkflowRequest{Description: "no name"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    []byte("{not json"),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t)

			status, body := doJSON(t, app, http.MethodPost, "/workflows", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, status)

			if tt.validateResult != nil {
				tt.validateResult(t, body)
			}
		})
	}
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	id := createWorkflow(t, app, "Fetch Me")

	status, body := doJSON(t, app, http.MethodGet, "/workflows/"+id, nil)
	require.Equal(t, http.StatusOK, status)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))
	assert.Equal(t, "Fetch Me", workflow.Name)
}

func TestAPIHandlers_GetWorkflow_NotFound(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/workflows/non-existent", nil)
	require.Equal(t, http.StatusNotFound, status)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))
	assert.Equal(t, "workflow_not_found", problem["type"])
	assert.Equal(t, float64(http.StatusNotFound), problem["status"])
}

func TestAPIHandlers_ListWorkflows(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	createWorkflow(t, app, "Beta")
	createWorkflow(t, app, "Alpha")
	createWorkflow(t, app, "Gamma")

	status, body := doJSON(t, app, http.MethodGet, "/workflows?limit=2&sort_by=name&sort_order=asc", nil)
	require.Equal(t, http.StatusOK, status)

	var result struct {
		Workflows   []*models.Workflow `json:"workflows"`
		TotalCount  int                `json:"total_count"`
		HasNextPage bool               `json:"has_next_page"`
	}
	require.NoError(t, json.Unmarshal(body, &result))

	require.Len(t, result.Workflows, 2)
	assert.Equal(t, "Alpha", result.Workflows[0].Name)
	assert.Equal(t, "Beta", result.Workflows[1].Name)
	assert.Equal(t, 3, result.TotalCount)
	assert.True(t, result.HasNextPage)
}

func TestAPIHandlers_ListWorkflows_InvalidSort(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, _ := doJSON(t, app, http.MethodGet, "/workflows?sort_by=priority", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_UpdateWorkflow(t *testing.T) {
	t.Parallel()

	name := "Renamed"

	app := setupTestApp(t)
	id := createWorkflow(t, app, "Original")

	status, body := doJSON(t, app, http.MethodPatch, "/workflows/"+id, web.UpdateWorkflowRequest{
		Name:     &name,
		Viewport: &models.Viewport{X: 10, Y: 20, Zoom: 1.5},
	})
	require.Equal(t, http.StatusOK, status)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))
	assert.Equal(t, "Renamed", workflow.Name)
	require.NotNil(t, workflow.Viewport)
	assert.InDelta(t, 1.5, workflow.Viewport.Zoom, 0.001)
}

func TestAPIHandlers_UpdateWorkflow_NotFound(t *testing.T) {
	t.Parallel()

	name := "New Name"

	app := setupTestApp(t)

	status, _ := doJSON(t, app, http.MethodPatch, "/workflows/non-existent", web.UpdateWorkflowRequest{Name: &name})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_DeleteWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	id := createWorkflow(t, app, "Doomed")

	status, _ := doJSON(t, app, http.MethodDelete, "/workflows/"+id, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = doJSON(t, app, http.MethodGet, "/workflows/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_NodeLifecycle(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	id := createWorkflow(t, app, "Canvas")

	node := createNode(t, app, id, web.CreateNodeRequest{
		Kind:     models.NodeKindStart,
		Position: models.Position{X: 100, Y: 200},
	})
	assert.Equal(t, models.NodeKindStart, node.Type)
	assert.Equal(t, "Start", node.Data.Label)

	label := "Entry"

	status, body := doJSON(t, app, http.MethodPatch, "/workflows/"+id+"/nodes/"+node.ID, web.UpdateNodeRequest{
		Label:    &label,
		Position: &models.Position{X: 5, Y: 6},
	})
	require.Equal(t, http.StatusOK, status)

	var updated models.Node
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Entry", updated.Data.Label)
	assert.InDelta(t, 5, updated.Position.X, 0.001)

	status, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+id+"/nodes/"+node.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+id+"/nodes/"+node.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_CreateNode_UnknownKind(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	id := createWorkflow(t, app, "Canvas")

	status, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/nodes", web.CreateNodeRequest{Kind: "webhook"})
	require.Equal(t, http.StatusBadRequest, status)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))
	assert.Equal(t, "validation_error", problem["type"])
}

func TestAPIHandlers_CreateEdge(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	id := createWorkflow(t, app, "Canvas")

	start := createNode(t, app, id, web.CreateNodeRequest{Kind: models.NodeKindStart})
	end := createNode(t, app, id, web.CreateNodeRequest{Kind: models.NodeKindEnd})

	status, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/edges", web.CreateEdgeRequest{
		Source: start.ID,
		Target: end.ID,
	})
	require.Equal(t, http.StatusCreated, status)

	var edge models.Edge
	require.NoError(t, json.Unmarshal(body, &edge))
	assert.Equal(t, start.ID, edge.Source)
	assert.Equal(t, end.ID, edge.Target)

	// The same connection again is rejected with the reason.
	status, body = doJSON(t, app, http.MethodPost, "/workflows/"+id+"/edges", web.CreateEdgeRequest{
		Source: start.ID,
		Target: end.ID,
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))
	assert.Equal(t, "connection_rejected", problem["type"])
}

func TestAPIHandlers_CreateEdge_RejectsCycle(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	id := createWorkflow(t, app, "Canvas")

	a := createNode(t, app, id, web.CreateNodeRequest{Kind: models.NodeKindTransform})
	b := createNode(t, app, id, web.CreateNodeRequest{Kind: models.NodeKindTransform})
	c := createNode(t, app, id, web.CreateNodeRequest{Kind: models.NodeKindTransform})

	for _, pair := range [][2]string{{a.ID, b.ID}, {b.ID, c.ID}} {
		status, _ := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/edges", web.CreateEdgeRequest{
			Source: pair[0],
			Target: pair[1],
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/edges", web.CreateEdgeRequest{
		Source: c.ID,
		Target: a.ID,
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))
	assert.Contains(t, problem["detail"], "infinite loop")
}

func TestAPIHandlers_UndoRedo(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	id := createWorkflow(t, app, "Canvas")

	node := createNode(t, app, id, web.CreateNodeRequest{Kind: models.NodeKindStart})

	status, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/undo", nil)
	require.Equal(t, http.StatusOK, status)

	var undone web.HistoryResponse
	require.NoError(t, json.Unmarshal(body, &undone))
	assert.Empty(t, undone.Workflow.Nodes)
	assert.False(t, undone.CanUndo)
	assert.True(t, undone.CanRedo)

	status, body = doJSON(t, app, http.MethodPost, "/workflows/"+id+"/redo", nil)
	require.Equal(t, http.StatusOK, status)

	var redone web.HistoryResponse
	require.NoError(t, json.Unmarshal(body, &redone))
	require.Len(t, redone.Workflow.Nodes, 1)
	assert.Equal(t, node.ID, redone.Workflow.Nodes[0].ID)
	assert.True(t, redone.CanUndo)
	assert.False(t, redone.CanRedo)
}

func TestAPIHandlers_ExportImport(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	source := createWorkflow(t, app, "Source")

	start := createNode(t, app, source, web.CreateNodeRequest{
		Kind:   models.NodeKindStart,
		Config: map[string]any{"payload": map[string]any{"message": "hello"}},
	})
	end := createNode(t, app, source, web.CreateNodeRequest{Kind: models.NodeKindEnd})

	status, _ := doJSON(t, app, http.MethodPost, "/workflows/"+source+"/edges", web.CreateEdgeRequest{
		Source: start.ID,
		Target: end.ID,
	})
	require.Equal(t, http.StatusCreated, status)

	status, exported := doJSON(t, app, http.MethodGet, "/workflows/"+source+"/export", nil)
	require.Equal(t, http.StatusOK, status)

	target := createWorkflow(t, app, "Target")

	status, _ = doJSON(t, app, http.MethodPost, "/workflows/"+target+"/import", exported)
	require.Equal(t, http.StatusOK, status)

	status, reexported := doJSON(t, app, http.MethodGet, "/workflows/"+target+"/export", nil)
	require.Equal(t, http.StatusOK, status)

	assert.JSONEq(t, string(exported), string(reexported))
}

func TestAPIHandlers_Import_RejectsBadDocument(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	id := createWorkflow(t, app, "Canvas")

	doc := []byte(`{"nodes": [], "edges": [{"id": "e1", "source": "ghost", "target": "phantom"}]}`)

	status, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/import", doc)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	var problem struct {
		Type     string   `json:"type"`
		Problems []string `json:"problems"`
	}
	require.NoError(t, json.Unmarshal(body, &problem))
	assert.Equal(t, "invalid_document", problem.Type)
	assert.NotEmpty(t, problem.Problems)
}

func TestAPIHandlers_ValidateWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	id := createWorkflow(t, app, "Canvas")

	createNode(t, app, id, web.CreateNodeRequest{Kind: models.NodeKindTransform})

	// An invalid graph is still a successful validation call.
	status, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/validate", nil)
	require.Equal(t, http.StatusOK, status)

	var result struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestAPIHandlers_ExecuteWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	id := createWorkflow(t, app, "Runner")

	start := createNode(t, app, id, web.CreateNodeRequest{
		Kind:   models.NodeKindStart,
		Config: map[string]any{"payload": map[string]any{"message": "hello"}},
	})
	end := createNode(t, app, id, web.CreateNodeRequest{Kind: models.NodeKindEnd})

	status, _ := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/edges", web.CreateEdgeRequest{
		Source: start.ID,
		Target: end.ID,
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/execute", nil)
	require.Equal(t, http.StatusOK, status)

	var result models.ExecutionResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, models.RunStatusCompleted, result.Status)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, start.ID, result.Entries[0].NodeID)
	assert.Equal(t, end.ID, result.Entries[1].NodeID)
}

func TestAPIHandlers_GetNodeKinds(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/node-kinds", nil)
	require.Equal(t, http.StatusOK, status)

	var result struct {
		NodeKinds []struct {
			Kind    string `json:"kind"`
			Label   string `json:"label"`
			Handles []struct {
				ID   string `json:"id"`
				Type string `json:"type"`
			} `json:"handles"`
		} `json:"node_kinds"`
	}
	require.NoError(t, json.Unmarshal(body, &result))

	require.Len(t, result.NodeKinds, 4)
	assert.Equal(t, "start", result.NodeKinds[0].Kind)

	condition := result.NodeKinds[2]
	require.Equal(t, "condition", condition.Kind)

	var handleIDs []string
	for _, handle := range condition.Handles {
		if handle.ID != "" {
			handleIDs = append(handleIDs, handle.ID)
		}
	}

	assert.Equal(t, []string{"true", "false"}, handleIDs)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)

	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health["status"])
}
