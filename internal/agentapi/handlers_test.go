package agentapi

import (
	"Vybe_AI/internal/agent"
	"Vybe_AI/internal/models"
	"Vybe_AI/pkg/logger"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct{}

func (s *stubLLM) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	return &models.GenerateContentResponse{
		Text: `{"steps": [{"tool": "web_search", "args": {"query": "x"}, "description": "d"}]}`,
	}, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *agent.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ws, err := agent.NewWorkspace(t.TempDir())
	require.NoError(t, err)

	manager := agent.NewManager(agent.Deps{
		LLM:          &stubLLM{},
		Tools:        &agent.Toolset{Workspace: ws},
		ScanInterval: time.Millisecond,
	})

	log := logger.New("agent_service_test", "", "")
	api := NewAPI(manager, NewHub(log), nil, log)
	router := gin.New()
	RegisterRoutes(router, api, nil)
	return router, manager
}

type fakeRunStore struct {
	records map[string]*models.RunRecord
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{records: map[string]*models.RunRecord{}}
}

func (f *fakeRunStore) Save(ctx context.Context, record *models.RunRecord) error {
	f.records[record.ID] = record
	return nil
}

func (f *fakeRunStore) GetByID(ctx context.Context, id string) (*models.RunRecord, error) {
	return f.records[id], nil
}

func (f *fakeRunStore) ListRecent(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	out := make([]*models.RunRecord, 0, len(f.records))
	for _, record := range f.records {
		if len(out) == limit {
			break
		}
		out = append(out, record)
	}
	return out, nil
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAgentValidation(t *testing.T) {
	router, _ := setupRouter(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing objective", map[string]interface{}{
			"system_prompt": "p", "authorized_tools": []string{"web_search"},
		}},
		{"missing system prompt", map[string]interface{}{
			"objective": "o", "authorized_tools": []string{"web_search"},
		}},
		{"no tools", map[string]interface{}{
			"objective": "o", "system_prompt": "p", "authorized_tools": []string{},
		}},
		{"objective too long", map[string]interface{}{
			"objective": strings.Repeat("x", 2001), "system_prompt": "p", "authorized_tools": []string{"web_search"},
		}},
		{"system prompt too long", map[string]interface{}{
			"objective": "o", "system_prompt": strings.Repeat("x", 5001), "authorized_tools": []string{"web_search"},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/agents/create", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateAndInspectAgent(t *testing.T) {
	router, manager := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/agents/create", map[string]interface{}{
		"objective":        "research cats",
		"system_prompt":    "you are a researcher",
		"authorized_tools": []string{"web_search"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		Success bool   `json:"success"`
		AgentID string `json:"agent_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	require.NotEmpty(t, created.AgentID)
	assert.True(t, manager.AgentExists(created.AgentID))

	w = doJSON(router, http.MethodGet, "/api/agents/status/"+created.AgentID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status struct {
		Agent models.StatusSummary `json:"agent"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.AgentStatusIdle, status.Agent.Status)
	assert.Equal(t, "research cats", status.Agent.Objective)
}

func TestStartAgentLifecycleOverHTTP(t *testing.T) {
	router, manager := setupRouter(t)

	id := manager.CreateAgent("research cats", "p", []string{"web_search"})

	w := doJSON(router, http.MethodPost, "/api/agents/start/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, manager.GetAgentStatus(id).Terminal())

	w = doJSON(router, http.MethodGet, "/api/agents/logs/"+id+"?limit=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs struct {
		Logs []models.AgentAction `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	assert.Len(t, logs.Logs, 3)
}

func TestUnknownAgentRoutes(t *testing.T) {
	router, _ := setupRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/agents/start/missing"},
		{http.MethodGet, "/api/agents/status/missing"},
		{http.MethodPost, "/api/agents/pause/missing"},
		{http.MethodPost, "/api/agents/resume/missing"},
		{http.MethodPost, "/api/agents/stop/missing"},
	} {
		w := doJSON(router, route.method, route.path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, route.path)
	}

	// Logs for an unknown agent are an empty list, not an error.
	w := doJSON(router, http.MethodGet, "/api/agents/logs/missing", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAvailableToolsCatalog(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/agents/available-tools", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Tools []ToolInfo `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Len(t, payload.Tools, 15)
}

func TestSystemPromptsCatalog(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/agents/system-prompts", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Prompts []SystemPromptInfo `json:"prompts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Len(t, payload.Prompts, 5)
}

func TestCustomOrchestrationValidation(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/agents/orchestrate/custom", map[string]interface{}{
		"main_objective": "big goal",
		"sub_tasks": []map[string]interface{}{
			{"objective": "only one", "system_prompt": "p", "tools": []string{"web_search"}},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/agents/orchestrate/custom", map[string]interface{}{
		"sub_tasks": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomOrchestrationRuns(t *testing.T) {
	router, manager := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/agents/orchestrate/custom", map[string]interface{}{
		"main_objective": "research and write",
		"sub_tasks": []map[string]interface{}{
			{"objective": "research", "system_prompt": "p", "tools": []string{"web_search"}, "depends_on": []int{}},
			{"objective": "write", "system_prompt": "p", "tools": []string{"ai_write_file"}, "depends_on": []int{0}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		OrchestrationID string `json:"orchestration_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.OrchestrationID)

	w = doJSON(router, http.MethodGet, "/api/agents/orchestrate/"+created.OrchestrationID+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	view := manager.GetOrchestrationStatus(created.OrchestrationID)
	require.NotNil(t, view)
	assert.Equal(t, models.OrchestrationCompleted, view.Status)
}

func TestOrchestrationStatusNotFound(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/agents/orchestrate/orch_missing/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResearchWriteRequiresTopic(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/agents/orchestrate/research-write", map[string]interface{}{
		"topic": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunHistoryRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ws, err := agent.NewWorkspace(t.TempDir())
	require.NoError(t, err)

	runs := newFakeRunStore()
	manager := agent.NewManager(agent.Deps{
		LLM:          &stubLLM{},
		Tools:        &agent.Toolset{Workspace: ws},
		Runs:         runs,
		ScanInterval: time.Millisecond,
	})

	log := logger.New("agent_service_test", "", "")
	api := NewAPI(manager, NewHub(log), runs, log)
	router := gin.New()
	RegisterRoutes(router, api, nil)

	id := manager.CreateAgent("research cats", "p", []string{"web_search"})
	require.True(t, manager.StartAgent(id))
	require.True(t, manager.GetAgentStatus(id).Terminal())

	w := doJSON(router, http.MethodGet, "/api/agents/runs?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Runs []models.RunRecord `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, id, list.Runs[0].ID)
	assert.NotEmpty(t, list.Runs[0].Actions)

	w = doJSON(router, http.MethodGet, "/api/agents/runs/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var single struct {
		Run models.RunRecord `json:"run"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &single))
	assert.Equal(t, id, single.Run.ID)

	w = doJSON(router, http.MethodGet, "/api/agents/runs/agent_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunHistoryUnavailableWithoutStore(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/agents/runs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(router, http.MethodGet, "/api/agents/runs/some_agent", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListAgents(t *testing.T) {
	router, manager := setupRouter(t)
	manager.CreateAgent("one", "p", []string{"web_search"})
	manager.CreateAgent("two", "p", []string{"web_search"})

	w := doJSON(router, http.MethodGet, "/api/agents/list", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Agents []models.StatusSummary `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Len(t, payload.Agents, 2)
}
