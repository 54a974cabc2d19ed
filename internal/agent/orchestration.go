package agent

import (
	"Vybe_AI/internal/models"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateOrchestratedTask builds one sub-agent per sub-task and registers the
// group under a new orchestration id with status "created". DependsOn entries
// are indices into subTasks.
func (m *Manager) CreateOrchestratedTask(mainObjective string, subTasks []models.SubTask) string {
	orchestrationID := fmt.Sprintf("orch_%d_%s", time.Now().Unix(), uuid.NewString()[:8])

	subAgentIDs := make([]string, 0, len(subTasks))
	for _, task := range subTasks {
		agentID := m.createAgent(task.Objective, task.SystemPrompt, task.Tools, orchestrationID)
		subAgentIDs = append(subAgentIDs, agentID)
	}

	orch := &models.OrchestrationTask{
		ID:            orchestrationID,
		MainObjective: mainObjective,
		SubAgentIDs:   subAgentIDs,
		SubTasks:      subTasks,
		Status:        models.OrchestrationCreated,
		Results:       make(map[string]models.OrchestrationResult),
		StartedAt:     models.ISOTime(time.Now()),
	}

	m.mu.Lock()
	m.orchestrations[orchestrationID] = orch
	m.mu.Unlock()

	m.log.WithPayload(map[string]interface{}{
		"orchestration_id": orchestrationID,
		"sub_agents":       len(subTasks),
	}).Info("created orchestrated task")
	return orchestrationID
}

// ExecuteOrchestratedTask drives sub-agents in dependency order: each scan
// starts every agent whose dependencies have all been started, injecting
// whatever dependency results exist so far into its context. A scan that
// starts nothing marks the task failed and returns false; once every agent
// is started the task moves to "monitoring" and the call returns true.
//
// Gating is on "started", not "completed" - a dependent may start before its
// dependency has produced results. Kept as-is until product intent changes.
func (m *Manager) ExecuteOrchestratedTask(orchestrationID string) bool {
	m.mu.Lock()
	orch, ok := m.orchestrations[orchestrationID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	orch.Status = models.OrchestrationExecuting
	subAgentIDs := make([]string, len(orch.SubAgentIDs))
	copy(subAgentIDs, orch.SubAgentIDs)
	subTasks := make([]models.SubTask, len(orch.SubTasks))
	copy(subTasks, orch.SubTasks)
	m.mu.Unlock()

	executed := make(map[string]bool)

	for len(executed) < len(subAgentIDs) {
		madeProgress := false

		for i, agentID := range subAgentIDs {
			if executed[agentID] {
				continue
			}

			dependencies := subTasks[i].DependsOn
			depsMet := true
			for _, depIdx := range dependencies {
				if depIdx < 0 || depIdx >= len(subAgentIDs) || !executed[subAgentIDs[depIdx]] {
					depsMet = false
					break
				}
			}
			if !depsMet {
				continue
			}

			depResults := make(map[string]interface{}, len(dependencies))
			m.mu.RLock()
			for _, depIdx := range dependencies {
				depAgentID := subAgentIDs[depIdx]
				depResults[fmt.Sprintf("dependency_%d", depIdx)] = orch.Results[depAgentID]
			}
			m.mu.RUnlock()

			if a := m.GetAgent(agentID); a != nil {
				a.InjectContext(depResults)
			}

			if m.StartAgent(agentID) {
				executed[agentID] = true
				madeProgress = true
				m.log.WithPayload(map[string]interface{}{
					"agent_id":         agentID,
					"orchestration_id": orchestrationID,
				}).Info("started sub-agent")
			}
		}

		if !madeProgress {
			m.log.WithPayload(map[string]interface{}{"orchestration_id": orchestrationID}).
				Error("orchestration stuck - circular dependencies or all agents failed")
			m.mu.Lock()
			orch.Status = models.OrchestrationFailed
			m.mu.Unlock()
			return false
		}

		time.Sleep(m.deps.ScanInterval)
	}

	m.mu.Lock()
	orch.Status = models.OrchestrationMonitoring
	m.mu.Unlock()
	return true
}

// GetOrchestrationStatus polls every sub-agent, captures results of newly
// completed ones and settles the orchestration status once all sub-agents are
// terminal. Unknown ids return nil.
func (m *Manager) GetOrchestrationStatus(orchestrationID string) *models.OrchestrationStatusView {
	m.mu.RLock()
	orch, ok := m.orchestrations[orchestrationID]
	if !ok {
		m.mu.RUnlock()
		return nil
	}
	subAgentIDs := make([]string, len(orch.SubAgentIDs))
	copy(subAgentIDs, orch.SubAgentIDs)
	m.mu.RUnlock()

	agentStatuses := make(map[string]models.OrchestrationAgentStatus)
	allCompleted := true
	anyFailed := false

	for _, agentID := range subAgentIDs {
		a := m.GetAgent(agentID)
		if a == nil {
			continue
		}
		status := a.Status()
		agentStatuses[agentID] = models.OrchestrationAgentStatus{
			Status:    status,
			Objective: a.Objective,
		}

		switch {
		case !status.Terminal():
			allCompleted = false
		case status == models.AgentStatusFailed:
			anyFailed = true
		case status == models.AgentStatusCompleted:
			result := models.OrchestrationResult{Actions: a.Actions()}
			if completedAt := a.CompletedAt(); completedAt != nil {
				c := models.ISOTime(*completedAt)
				result.CompletedAt = &c
			}
			m.mu.Lock()
			orch.Results[agentID] = result
			m.mu.Unlock()
		}
	}

	m.mu.Lock()
	if allCompleted {
		if anyFailed {
			orch.Status = models.OrchestrationPartiallyFailed
		} else {
			orch.Status = models.OrchestrationCompleted
		}
	}
	status := orch.Status
	mainObjective := orch.MainObjective
	resultsSummary := len(orch.Results)
	m.mu.Unlock()

	// The notification repeats on every poll of an already-terminal
	// orchestration; the content is identical each time.
	if allCompleted {
		if anyFailed {
			m.sendNotification(
				"⚠️ Orchestrated Task Partially Failed",
				fmt.Sprintf("Some agents failed in: %s...", truncate(mainObjective, 50)),
				"warning",
				orchestrationID,
			)
		} else {
			m.sendNotification(
				"✅ Orchestrated Task Completed",
				fmt.Sprintf("All agents completed: %s...", truncate(mainObjective, 50)),
				"success",
				orchestrationID,
			)
		}
	}

	return &models.OrchestrationStatusView{
		OrchestrationID: orchestrationID,
		Status:          status,
		MainObjective:   mainObjective,
		AgentStatuses:   agentStatuses,
		ResultsSummary:  resultsSummary,
	}
}

// CreateResearchAndWriteWorkflow is a convenience wrapper building a two
// agent research + writing pipeline for one topic.
func (m *Manager) CreateResearchAndWriteWorkflow(topic string) string {
	subTasks := []models.SubTask{
		{
			Objective:    fmt.Sprintf("Research the latest advancements in %s", topic),
			SystemPrompt: fmt.Sprintf("You are a research specialist. Your task is to thoroughly research %s using web search and any available knowledge bases. Gather comprehensive, current information and organize it into key findings.", topic),
			Tools:        []string{ToolWebSearch, ToolQueryRAG},
			DependsOn:    []int{},
		},
		{
			Objective:    fmt.Sprintf("Write a comprehensive blog post about %s based on research findings", topic),
			SystemPrompt: fmt.Sprintf("You are a skilled technical writer. Using the research findings provided, write an engaging, informative blog post about %s. Make it accessible to a general audience while maintaining technical accuracy.", topic),
			Tools:        []string{ToolWriteFile, ToolReadFile},
			DependsOn:    []int{0},
		},
	}

	return m.CreateOrchestratedTask(fmt.Sprintf("Research and write about %s", topic), subTasks)
}

// truncate cuts s to at most max runes, never splitting a multi-byte
// character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
