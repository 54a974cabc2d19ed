package models

import "time"

// AgentStatus 定义了 Agent 执行状态的枚举。
type AgentStatus string

const (
	AgentStatusIdle      AgentStatus = "idle"
	AgentStatusPlanning  AgentStatus = "planning"
	AgentStatusExecuting AgentStatus = "executing"
	AgentStatusVerifying AgentStatus = "verifying"
	AgentStatusCompleted AgentStatus = "completed"
	AgentStatusFailed    AgentStatus = "failed"
	AgentStatusPaused    AgentStatus = "paused"

	// AgentStatusUnknown is returned by registry lookups for ids that do not
	// resolve to a live agent. It is never assigned to an agent itself.
	AgentStatusUnknown AgentStatus = "UNKNOWN"
)

// Terminal reports whether the status is a terminal state.
func (s AgentStatus) Terminal() bool {
	return s == AgentStatusCompleted || s == AgentStatusFailed
}

// AgentAction represents a single action taken (or logged) by an agent.
// Actions are append-only; manager-level cleanup removes whole agents, never
// individual actions.
type AgentAction struct {
	Timestamp     string                 `json:"timestamp" bson:"timestamp"`
	ActionType    string                 `json:"action_type" bson:"action_type"`
	ToolName      string                 `json:"tool_name" bson:"tool_name"`
	Parameters    map[string]interface{} `json:"parameters" bson:"parameters"`
	Result        string                 `json:"result" bson:"result"`
	Success       bool                   `json:"success" bson:"success"`
	ExecutionTime float64                `json:"execution_time" bson:"execution_time"`
	StepIndex     int                    `json:"step_index" bson:"step_index"`
}

// PlanStep is one entry of an execution plan.
type PlanStep struct {
	Tool        string                 `json:"tool"`
	Args        map[string]interface{} `json:"args"`
	Description string                 `json:"description"`
}

// AgentPlan represents an agent's ordered execution plan. The plan may be
// replaced wholesale on revision, in which case RevisedCount is incremented;
// step order is never mutated outside of a plan adjustment.
type AgentPlan struct {
	Steps        []PlanStep `json:"steps"`
	CreatedAt    string     `json:"created_at"`
	RevisedCount int        `json:"revised_count"`
}

// StepResult is the outcome of dispatching one plan step.
type StepResult struct {
	Success       bool                   `json:"success"`
	Result        string                 `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	ExecutionTime float64                `json:"execution_time"`
	Tool          string                 `json:"tool"`
	Args          map[string]interface{} `json:"args"`
}

// CompletedStep records one processed plan step (success or failure).
type CompletedStep struct {
	Step      PlanStep   `json:"step"`
	Result    StepResult `json:"result"`
	Index     int        `json:"index"`
	Timestamp string     `json:"timestamp"`
}

// AgentMemory is an agent's working and historical state: full action log,
// the current plan, the completed-step log and a mutable context bag used to
// inject orchestration dependency results.
//
// AgentMemory is not internally synchronized; the owning Agent's lock guards
// all access.
type AgentMemory struct {
	Objective      string                 `json:"objective"`
	Actions        []AgentAction          `json:"actions"`
	CurrentPlan    *AgentPlan             `json:"current_plan,omitempty"`
	CompletedSteps []CompletedStep        `json:"completed_steps"`
	Context        map[string]interface{} `json:"context"`
}

// NewAgentMemory creates an empty memory for the given objective.
func NewAgentMemory(objective string) *AgentMemory {
	return &AgentMemory{
		Objective:      objective,
		Actions:        []AgentAction{},
		CompletedSteps: []CompletedStep{},
		Context:        map[string]interface{}{},
	}
}

// AddAction appends an action to the memory.
func (m *AgentMemory) AddAction(action AgentAction) {
	m.Actions = append(m.Actions, action)
}

// RecentActions returns at most count of the most recent actions.
func (m *AgentMemory) RecentActions(count int) []AgentAction {
	if count <= 0 || count >= len(m.Actions) {
		out := make([]AgentAction, len(m.Actions))
		copy(out, m.Actions)
		return out
	}
	out := make([]AgentAction, count)
	copy(out, m.Actions[len(m.Actions)-count:])
	return out
}

// StatusSummary is the API-facing snapshot of one agent.
type StatusSummary struct {
	ID              string      `json:"id" bson:"_id"`
	Objective       string      `json:"objective" bson:"objective"`
	Status          AgentStatus `json:"status" bson:"status"`
	CreatedAt       string      `json:"created_at" bson:"created_at"`
	StartedAt       *string     `json:"started_at" bson:"started_at"`
	CompletedAt     *string     `json:"completed_at" bson:"completed_at"`
	ActionsCount    int         `json:"actions_count" bson:"actions_count"`
	CompletedSteps  int         `json:"completed_steps" bson:"completed_steps"`
	TotalSteps      int         `json:"total_steps" bson:"total_steps"`
	AuthorizedTools []string    `json:"authorized_tools" bson:"authorized_tools"`
}

// ISOTime formats a timestamp the way the rest of the system expects.
func ISOTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
