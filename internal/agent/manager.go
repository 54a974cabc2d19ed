package agent

import (
	"Vybe_AI/internal/llm"
	"Vybe_AI/internal/memory"
	"Vybe_AI/internal/models"
	"Vybe_AI/pkg/logger"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunRecorder persists one record per terminal agent run.
type RunRecorder interface {
	Save(ctx context.Context, record *models.RunRecord) error
}

// NotificationCallback receives desktop notifications for orchestration
// terminal transitions.
type NotificationCallback func(title, message, notificationType, refID string)

// Deps are the collaborators shared by every agent the manager creates.
// LLM and Tools are required; everything else may be nil.
type Deps struct {
	LLM              llm.LLM
	Memory           memory.Store
	MemoryCollection string
	MemoryTopK       int
	Tools            *Toolset
	Adjuster         PlanAdjuster
	Runner           JobRunner
	Events           EventSink
	StatusCache      StatusSink
	Runs             RunRecorder
	ScanInterval     time.Duration
	Log              *logger.Logger
}

// Manager owns the id->Agent registry and the orchestration table. All map
// access is mutex-guarded; worker goroutines, the API layer and the
// orchestration driver touch it concurrently.
type Manager struct {
	mu             sync.RWMutex
	agents         map[string]*Agent
	orchestrations map[string]*models.OrchestrationTask
	callbacks      []NotificationCallback

	deps Deps
	log  *logger.Logger
}

// NewManager creates an empty Manager.
func NewManager(deps Deps) *Manager {
	if deps.ScanInterval <= 0 {
		deps.ScanInterval = time.Second
	}
	if deps.Log == nil {
		deps.Log = logger.New("agent_service", "", "")
	}
	return &Manager{
		agents:         make(map[string]*Agent),
		orchestrations: make(map[string]*models.OrchestrationTask),
		deps:           deps,
		log:            deps.Log,
	}
}

// CreateAgent builds a new idle agent and returns its id.
func (m *Manager) CreateAgent(objective, systemPrompt string, authorizedTools []string) string {
	return m.createAgent(objective, systemPrompt, authorizedTools, "")
}

func (m *Manager) createAgent(objective, systemPrompt string, authorizedTools []string, orchestrationID string) string {
	agentID := fmt.Sprintf("agent_%d_%s", time.Now().Unix(), uuid.NewString()[:8])

	a := New(Config{
		ID:               agentID,
		Objective:        objective,
		SystemPrompt:     systemPrompt,
		AuthorizedTools:  authorizedTools,
		OrchestrationID:  orchestrationID,
		LLM:              m.deps.LLM,
		Memory:           m.deps.Memory,
		MemoryCollection: m.deps.MemoryCollection,
		MemoryTopK:       m.deps.MemoryTopK,
		Tools:            m.deps.Tools,
		Adjuster:         m.deps.Adjuster,
		Runner:           m.deps.Runner,
		Events:           m.deps.Events,
		StatusCache:      m.deps.StatusCache,
		OnTerminal:       m.recordRun,
		Log:              logger.New("agent_service", agentID, orchestrationID),
	})

	m.mu.Lock()
	m.agents[agentID] = a
	m.mu.Unlock()

	m.log.WithPayload(map[string]interface{}{"agent_id": agentID, "objective": objective}).Info("created agent")
	return agentID
}

// recordRun persists a terminal agent's summary and actions, best-effort.
func (m *Manager) recordRun(a *Agent) {
	if m.deps.Runs == nil {
		return
	}
	summary := a.StatusSummary()
	record := &models.RunRecord{
		ID:          a.ID,
		Summary:     summary,
		Actions:     a.Actions(),
		RecordedAt:  time.Now(),
		CompletedAt: summary.CompletedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.deps.Runs.Save(ctx, record); err != nil {
		m.log.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to persist agent run record")
	}
}

// GetAgent returns the agent or nil.
func (m *Manager) GetAgent(agentID string) *Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agents[agentID]
}

// AgentExists reports whether the id resolves to a live agent.
func (m *Manager) AgentExists(agentID string) bool {
	if agentID == "" {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.agents[agentID]
	return ok
}

// StartAgent starts the agent's execution. Unknown ids return false.
func (m *Manager) StartAgent(agentID string) bool {
	a := m.GetAgent(agentID)
	if a == nil {
		m.log.WithPayload(map[string]interface{}{"agent_id": agentID}).Error("agent not found")
		return false
	}
	a.Start()
	return true
}

// PauseAgent pauses the agent. Unknown ids return false.
func (m *Manager) PauseAgent(agentID string) bool {
	a := m.GetAgent(agentID)
	if a == nil {
		return false
	}
	a.Pause()
	return true
}

// ResumeAgent resumes a paused agent. Unknown ids return false.
func (m *Manager) ResumeAgent(agentID string) bool {
	a := m.GetAgent(agentID)
	if a == nil {
		return false
	}
	a.Resume()
	return true
}

// StopAgent force-fails the agent. Unknown ids return false.
func (m *Manager) StopAgent(agentID string) bool {
	a := m.GetAgent(agentID)
	if a == nil {
		return false
	}
	a.Stop()
	return true
}

// GetAgentStatus returns the agent's status string, or "UNKNOWN" for ids
// that do not resolve.
func (m *Manager) GetAgentStatus(agentID string) models.AgentStatus {
	a := m.GetAgent(agentID)
	if a == nil {
		m.log.WithPayload(map[string]interface{}{"agent_id": agentID}).Debug("agent not found in registry")
		return models.AgentStatusUnknown
	}
	return a.Status()
}

// GetAllAgents returns status summaries of every registered agent.
func (m *Manager) GetAllAgents() []models.StatusSummary {
	m.mu.RLock()
	agents := make([]*Agent, 0, len(m.agents))
	for _, a := range m.agents {
		agents = append(agents, a)
	}
	m.mu.RUnlock()

	summaries := make([]models.StatusSummary, 0, len(agents))
	for _, a := range agents {
		summaries = append(summaries, a.StatusSummary())
	}
	return summaries
}

// GetAgentLogs returns at most limit of the agent's most recent actions;
// unknown ids yield an empty slice.
func (m *Manager) GetAgentLogs(agentID string, limit int) []models.AgentAction {
	a := m.GetAgent(agentID)
	if a == nil {
		return []models.AgentAction{}
	}
	return a.ActionLog(limit)
}

// CleanupCompletedAgents removes terminal agents whose completion is older
// than maxAgeHours and returns how many were removed. This is the only
// deletion path for agents and their history.
func (m *Manager) CleanupCompletedAgents(maxAgeHours int) int {
	cutoff := time.Now().Add(-time.Duration(maxAgeHours) * time.Hour)

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []string
	for agentID, a := range m.agents {
		completedAt := a.CompletedAt()
		if a.Status().Terminal() && completedAt != nil && completedAt.Before(cutoff) {
			removed = append(removed, agentID)
		}
	}
	for _, agentID := range removed {
		delete(m.agents, agentID)
		m.log.WithPayload(map[string]interface{}{"agent_id": agentID}).Info("cleaned up old agent")
	}
	return len(removed)
}

// AddNotificationCallback registers a desktop-notification callback.
func (m *Manager) AddNotificationCallback(cb NotificationCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// sendNotification fans out to every registered callback; a panicking
// callback never aborts the others.
func (m *Manager) sendNotification(title, message, notificationType, refID string) {
	m.mu.RLock()
	callbacks := make([]NotificationCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.RUnlock()

	for _, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.log.WithPayload(map[string]interface{}{"panic": fmt.Sprintf("%v", r)}).Error("notification callback failed")
				}
			}()
			cb(title, message, notificationType, refID)
		}()
	}
}
