package models

// OrchestrationStatus 定义了多 Agent 编排任务的状态枚举。
type OrchestrationStatus string

const (
	OrchestrationCreated         OrchestrationStatus = "created"
	OrchestrationExecuting       OrchestrationStatus = "executing"
	OrchestrationMonitoring      OrchestrationStatus = "monitoring"
	OrchestrationCompleted       OrchestrationStatus = "completed"
	OrchestrationPartiallyFailed OrchestrationStatus = "partially_failed"
	OrchestrationFailed          OrchestrationStatus = "failed"
)

// SubTask describes one sub-agent of an orchestrated task. DependsOn holds
// indices into the orchestration's sub_tasks list; a sub-agent is not started
// before every referenced sub-agent has been started.
type SubTask struct {
	Objective    string   `json:"objective"`
	SystemPrompt string   `json:"system_prompt"`
	Tools        []string `json:"tools"`
	DependsOn    []int    `json:"depends_on"`
}

// OrchestrationResult captures a completed sub-agent's output.
type OrchestrationResult struct {
	Actions     []AgentAction `json:"actions"`
	CompletedAt *string       `json:"completed_at"`
}

// OrchestrationTask is one multi-agent job: the sub-agent ids are
// index-aligned with SubTasks.
type OrchestrationTask struct {
	ID            string                         `json:"orchestration_id"`
	MainObjective string                         `json:"main_objective"`
	SubAgentIDs   []string                       `json:"sub_agent_ids"`
	SubTasks      []SubTask                      `json:"sub_tasks"`
	Status        OrchestrationStatus            `json:"status"`
	Results       map[string]OrchestrationResult `json:"results"`
	StartedAt     string                         `json:"started_at"`
}

// OrchestrationAgentStatus is one sub-agent's live status inside an
// orchestration status view.
type OrchestrationAgentStatus struct {
	Status    AgentStatus `json:"status"`
	Objective string      `json:"objective"`
}

// OrchestrationStatusView is the API-facing snapshot of one orchestration.
type OrchestrationStatusView struct {
	OrchestrationID string                              `json:"orchestration_id"`
	Status          OrchestrationStatus                 `json:"status"`
	MainObjective   string                              `json:"main_objective"`
	AgentStatuses   map[string]OrchestrationAgentStatus `json:"agent_statuses"`
	ResultsSummary  int                                 `json:"results_summary"`
}
