package agent

import (
	"Vybe_AI/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func researchWriteSubTasks() []models.SubTask {
	return []models.SubTask{
		{
			Objective:    "research the topic",
			SystemPrompt: "researcher",
			Tools:        []string{ToolWebSearch},
			DependsOn:    []int{},
		},
		{
			Objective:    "write the report",
			SystemPrompt: "writer",
			Tools:        []string{ToolWriteFile},
			DependsOn:    []int{0},
		},
	}
}

func TestOrchestrationCreatesSubAgents(t *testing.T) {
	m := testManager(t, &stubLLM{response: singleStepPlan})

	orchID := m.CreateOrchestratedTask("research and write", researchWriteSubTasks())

	assert.Contains(t, orchID, "orch_")
	view := m.GetOrchestrationStatus(orchID)
	require.NotNil(t, view)
	assert.Equal(t, "research and write", view.MainObjective)
	assert.Len(t, view.AgentStatuses, 2)
}

func TestOrchestrationDependencyOrder(t *testing.T) {
	m := testManager(t, &stubLLM{response: singleStepPlan})
	orchID := m.CreateOrchestratedTask("research and write", researchWriteSubTasks())

	require.True(t, m.ExecuteOrchestratedTask(orchID))

	// With an inline runner every sub-agent completes during its start scan,
	// so the dependent agent must have started after its dependency.
	m.mu.RLock()
	orch := m.orchestrations[orchID]
	m.mu.RUnlock()
	require.Len(t, orch.SubAgentIDs, 2)

	first := m.GetAgent(orch.SubAgentIDs[0])
	second := m.GetAgent(orch.SubAgentIDs[1])
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.True(t, first.Status().Terminal())
	assert.True(t, second.Status().Terminal())

	view := m.GetOrchestrationStatus(orchID)
	require.NotNil(t, view)
	assert.Equal(t, models.OrchestrationCompleted, view.Status)
	assert.Equal(t, 2, view.ResultsSummary)
}

func TestOrchestrationCircularDependencyFails(t *testing.T) {
	m := testManager(t, &stubLLM{response: singleStepPlan})
	subTasks := []models.SubTask{
		{Objective: "a", SystemPrompt: "p", Tools: []string{ToolWebSearch}, DependsOn: []int{1}},
		{Objective: "b", SystemPrompt: "p", Tools: []string{ToolWebSearch}, DependsOn: []int{0}},
	}
	orchID := m.CreateOrchestratedTask("circular", subTasks)

	assert.False(t, m.ExecuteOrchestratedTask(orchID))

	view := m.GetOrchestrationStatus(orchID)
	require.NotNil(t, view)
	assert.Equal(t, models.OrchestrationFailed, view.Status)
}

func TestOrchestrationInvalidDependencyIndexFails(t *testing.T) {
	m := testManager(t, &stubLLM{response: singleStepPlan})
	subTasks := []models.SubTask{
		{Objective: "a", SystemPrompt: "p", Tools: []string{ToolWebSearch}, DependsOn: []int{7}},
	}
	orchID := m.CreateOrchestratedTask("broken deps", subTasks)

	assert.False(t, m.ExecuteOrchestratedTask(orchID))
}

func TestExecuteUnknownOrchestration(t *testing.T) {
	m := testManager(t, &stubLLM{})

	assert.False(t, m.ExecuteOrchestratedTask("orch_missing"))
	assert.Nil(t, m.GetOrchestrationStatus("orch_missing"))
}

func TestDependencyResultsInjectedIntoContext(t *testing.T) {
	m := testManager(t, &stubLLM{response: singleStepPlan})
	orchID := m.CreateOrchestratedTask("research and write", researchWriteSubTasks())

	require.True(t, m.ExecuteOrchestratedTask(orchID))

	m.mu.RLock()
	orch := m.orchestrations[orchID]
	m.mu.RUnlock()

	dependent := m.GetAgent(orch.SubAgentIDs[1])
	require.NotNil(t, dependent)
	dependent.mu.RLock()
	defer dependent.mu.RUnlock()
	// Gating is on "started": the injected dependency result may be empty,
	// but the key must be present.
	assert.Contains(t, dependent.memory.Context, "dependency_0")
}

func TestTerminalNotificationRepeatsOnPolling(t *testing.T) {
	m := testManager(t, &stubLLM{response: singleStepPlan})

	var titles []string
	m.AddNotificationCallback(func(title, message, notificationType, refID string) {
		titles = append(titles, title)
	})

	orchID := m.CreateOrchestratedTask("research and write", researchWriteSubTasks())
	require.True(t, m.ExecuteOrchestratedTask(orchID))

	m.GetOrchestrationStatus(orchID)
	m.GetOrchestrationStatus(orchID)

	require.Len(t, titles, 2)
	assert.Equal(t, titles[0], titles[1])
}

func TestPartiallyFailedOrchestration(t *testing.T) {
	m := testManager(t, &stubLLM{response: singleStepPlan})
	subTasks := []models.SubTask{
		{Objective: "research the topic", SystemPrompt: "p", Tools: []string{ToolWebSearch}},
		// No fallback keywords and an unparseable plan: this agent fails.
		{Objective: "hum a tune", SystemPrompt: "p", Tools: []string{ToolWebSearch}},
	}
	orchID := m.CreateOrchestratedTask("mixed outcome", subTasks)
	m.mu.RLock()
	failingAgent := m.orchestrations[orchID].SubAgentIDs[1]
	m.mu.RUnlock()

	// Make the second agent's planning fail outright.
	a := m.GetAgent(failingAgent)
	require.NotNil(t, a)
	a.llm = &stubLLM{response: "no plan here"}

	require.True(t, m.ExecuteOrchestratedTask(orchID))

	view := m.GetOrchestrationStatus(orchID)
	require.NotNil(t, view)
	assert.Equal(t, models.OrchestrationPartiallyFailed, view.Status)
}

func TestCreateResearchAndWriteWorkflow(t *testing.T) {
	m := testManager(t, &stubLLM{response: singleStepPlan})

	orchID := m.CreateResearchAndWriteWorkflow("AI music")

	m.mu.RLock()
	orch := m.orchestrations[orchID]
	m.mu.RUnlock()
	require.NotNil(t, orch)
	require.Len(t, orch.SubTasks, 2)
	assert.Equal(t, []int{0}, orch.SubTasks[1].DependsOn)
	assert.Contains(t, orch.SubTasks[0].Objective, "AI music")
	assert.Equal(t, models.OrchestrationCreated, orch.Status)
}
