package agentapi

import (
	"Vybe_AI/internal/agent"
	"Vybe_AI/internal/database/mongo"
	"Vybe_AI/internal/models"
	"Vybe_AI/pkg/logger"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	maxObjectiveLen    = 2000
	maxSystemPromptLen = 5000
)

// API provides handlers for the agent service.
type API struct {
	manager  *agent.Manager
	hub      *Hub
	runs     mongo.RunStore
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewAPI creates a new API handler. runs may be nil when run persistence is
// unavailable; the history routes then answer 503.
func NewAPI(manager *agent.Manager, hub *Hub, runs mongo.RunStore, logger *logger.Logger) *API {
	return &API{
		manager: manager,
		hub:     hub,
		runs:    runs,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // In production, implement a proper origin check.
			},
		},
	}
}

// CreateAgentHandler creates a new idle agent.
func (a *API) CreateAgentHandler(c *gin.Context) {
	var payload struct {
		Objective       string   `json:"objective"`
		SystemPrompt    string   `json:"system_prompt"`
		AuthorizedTools []string `json:"authorized_tools"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request payload"})
		return
	}

	objective := strings.TrimSpace(payload.Objective)
	systemPrompt := strings.TrimSpace(payload.SystemPrompt)

	if objective == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Objective is required"})
		return
	}
	if systemPrompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "System prompt is required"})
		return
	}
	if len(payload.AuthorizedTools) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "At least one authorized tool is required"})
		return
	}
	if len(objective) > maxObjectiveLen {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Objective too long (max 2000 characters)"})
		return
	}
	if len(systemPrompt) > maxSystemPromptLen {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "System prompt too long (max 5000 characters)"})
		return
	}

	agentID := a.manager.CreateAgent(objective, systemPrompt, payload.AuthorizedTools)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"agent_id": agentID,
		"message":  "Agent created successfully",
	})
}

// StartAgentHandler starts an existing agent's execution.
func (a *API) StartAgentHandler(c *gin.Context) {
	agentID := c.Param("id")

	if !a.manager.AgentExists(agentID) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Agent not found"})
		return
	}

	switch status := a.manager.GetAgentStatus(agentID); status {
	case models.AgentStatusExecuting:
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Agent is already running"})
		return
	case models.AgentStatusPlanning, models.AgentStatusVerifying:
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": fmt.Sprintf("Agent is currently %s", status)})
		return
	}

	if !a.manager.StartAgent(agentID) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to start agent"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Agent started successfully",
		"agent_id": agentID,
	})
}

// GetAgentStatusHandler returns one agent's status summary.
func (a *API) GetAgentStatusHandler(c *gin.Context) {
	agentID := c.Param("id")

	ag := a.manager.GetAgent(agentID)
	if ag == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Agent not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "agent": ag.StatusSummary()})
}

// GetAgentLogsHandler returns an agent's recent actions.
func (a *API) GetAgentLogsHandler(c *gin.Context) {
	agentID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs := a.manager.GetAgentLogs(agentID, limit)
	c.JSON(http.StatusOK, gin.H{"success": true, "logs": logs})
}

// ListAgentsHandler returns status summaries of every agent.
func (a *API) ListAgentsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "agents": a.manager.GetAllAgents()})
}

// PauseAgentHandler pauses an agent at its next step boundary.
func (a *API) PauseAgentHandler(c *gin.Context) {
	agentID := c.Param("id")
	if !a.manager.PauseAgent(agentID) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Agent not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": fmt.Sprintf("Agent %s paused successfully", agentID)})
}

// ResumeAgentHandler resumes a paused agent.
func (a *API) ResumeAgentHandler(c *gin.Context) {
	agentID := c.Param("id")
	if !a.manager.ResumeAgent(agentID) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Agent not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": fmt.Sprintf("Agent %s resumed successfully", agentID)})
}

// StopAgentHandler force-fails an agent.
func (a *API) StopAgentHandler(c *gin.Context) {
	agentID := c.Param("id")
	if !a.manager.StopAgent(agentID) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Agent not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": fmt.Sprintf("Agent %s stopped successfully", agentID)})
}

// RunHistoryHandler returns the most recently persisted agent runs.
func (a *API) RunHistoryHandler(c *gin.Context) {
	if a.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Run history is not available"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 {
		limit = 20
	}

	records, err := a.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to list run records")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to list run records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "runs": records})
}

// RunRecordHandler returns one persisted agent run by agent id.
func (a *API) RunRecordHandler(c *gin.Context) {
	if a.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Run history is not available"})
		return
	}

	record, err := a.runs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to read run record")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to read run record"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Run record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "run": record})
}

// AvailableToolsHandler returns the tool catalog.
func (a *API) AvailableToolsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "tools": AvailableTools()})
}

// SystemPromptsHandler returns the system prompt presets.
func (a *API) SystemPromptsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "prompts": DefaultSystemPrompts()})
}

// ResearchWriteHandler creates and starts a research + writing workflow.
func (a *API) ResearchWriteHandler(c *gin.Context) {
	var payload struct {
		Topic string `json:"topic"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request payload"})
		return
	}

	topic := strings.TrimSpace(payload.Topic)
	if topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Topic is required"})
		return
	}

	orchestrationID := a.manager.CreateResearchAndWriteWorkflow(topic)
	if !a.manager.ExecuteOrchestratedTask(orchestrationID) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to start orchestrated task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"orchestration_id": orchestrationID,
		"message":          fmt.Sprintf("Research and writing workflow started for: %s", topic),
	})
}

// CustomOrchestrationHandler creates and starts a custom multi-agent
// orchestration.
func (a *API) CustomOrchestrationHandler(c *gin.Context) {
	var payload struct {
		MainObjective string           `json:"main_objective"`
		SubTasks      []models.SubTask `json:"sub_tasks"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request payload"})
		return
	}

	mainObjective := strings.TrimSpace(payload.MainObjective)
	if mainObjective == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Main objective is required"})
		return
	}
	if len(payload.SubTasks) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "At least 2 sub-tasks are required for orchestration"})
		return
	}

	orchestrationID := a.manager.CreateOrchestratedTask(mainObjective, payload.SubTasks)
	if !a.manager.ExecuteOrchestratedTask(orchestrationID) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to start orchestrated task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"orchestration_id": orchestrationID,
		"message":          fmt.Sprintf("Custom orchestration started: %s", mainObjective),
	})
}

// OrchestrationStatusHandler returns the live status of an orchestration.
func (a *API) OrchestrationStatusHandler(c *gin.Context) {
	orchestrationID := c.Param("id")

	view := a.manager.GetOrchestrationStatus(orchestrationID)
	if view == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Orchestration not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orchestration": view})
}

// WebSocketHandler subscribes the caller to the live agent event feed.
func (a *API) WebSocketHandler(c *gin.Context) {
	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to upgrade WebSocket connection")
		return
	}

	connID := uuid.NewString()
	a.hub.Add(connID, conn)

	conn.SetCloseHandler(func(code int, text string) error {
		a.hub.Remove(connID)
		return nil
	})

	go func() {
		defer a.hub.Remove(connID)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				break
			}
		}
	}()
}
