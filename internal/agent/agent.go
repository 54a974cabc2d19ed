package agent

import (
	"Vybe_AI/internal/llm"
	"Vybe_AI/internal/memory"
	"Vybe_AI/internal/models"
	"Vybe_AI/pkg/logger"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// JobRunner schedules one background execution. A nil runner makes Start run
// the agent inline on the caller's goroutine.
type JobRunner interface {
	Submit(job func()) error
}

// EventSink receives one event per logged agent action.
type EventSink interface {
	Publish(ctx context.Context, event models.AgentEvent) error
}

// StatusSink mirrors live status strings into an external cache.
type StatusSink interface {
	SetStatus(ctx context.Context, agentID, status string) error
}

// Agent is one unit of autonomous work: a single objective driven through
// planning, per-step execution with verification, and memory storage.
//
// The mutex guards status, memory and the completion timestamps; the worker
// goroutine and the manager (pause/stop, status reads) touch them
// concurrently.
type Agent struct {
	ID              string
	Objective       string
	SystemPrompt    string
	AuthorizedTools []string
	OrchestrationID string

	mu          sync.RWMutex
	status      models.AgentStatus
	memory      *models.AgentMemory
	createdAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time

	llm           llm.LLM
	memStore      memory.Store
	memCollection string
	memTopK       int
	tools         *Toolset
	adjuster      PlanAdjuster
	runner        JobRunner
	events        EventSink
	statusSink    StatusSink
	onTerminal    func(*Agent)
	log           *logger.Logger
}

// Config carries everything needed to build one Agent. LLM and Tools are
// required; the rest may be nil/zero and degrade to no-ops or defaults.
type Config struct {
	ID              string
	Objective       string
	SystemPrompt    string
	AuthorizedTools []string
	OrchestrationID string

	LLM              llm.LLM
	Memory           memory.Store
	MemoryCollection string
	MemoryTopK       int
	Tools            *Toolset
	Adjuster         PlanAdjuster
	Runner           JobRunner
	Events           EventSink
	StatusCache      StatusSink
	OnTerminal       func(*Agent)
	Log              *logger.Logger
}

// New creates an idle Agent.
func New(cfg Config) *Agent {
	if cfg.Adjuster == nil {
		cfg.Adjuster = CountingAdjuster{}
	}
	if cfg.MemoryTopK <= 0 {
		cfg.MemoryTopK = 3
	}
	if cfg.MemoryCollection == "" {
		cfg.MemoryCollection = "agent_memory"
	}
	if cfg.Log == nil {
		cfg.Log = logger.New("agent_service", cfg.ID, cfg.OrchestrationID)
	}
	return &Agent{
		ID:              cfg.ID,
		Objective:       cfg.Objective,
		SystemPrompt:    cfg.SystemPrompt,
		AuthorizedTools: cfg.AuthorizedTools,
		OrchestrationID: cfg.OrchestrationID,
		status:          models.AgentStatusIdle,
		memory:          models.NewAgentMemory(cfg.Objective),
		createdAt:       time.Now(),
		llm:             cfg.LLM,
		memStore:        cfg.Memory,
		memCollection:   cfg.MemoryCollection,
		memTopK:         cfg.MemoryTopK,
		tools:           cfg.Tools,
		adjuster:        cfg.Adjuster,
		runner:          cfg.Runner,
		events:          cfg.Events,
		statusSink:      cfg.StatusCache,
		onTerminal:      cfg.OnTerminal,
		log:             cfg.Log,
	}
}

// Start moves an idle agent into PLANNING and hands execution to the job
// runner. Calling Start on a non-idle agent logs a warning and does nothing.
func (a *Agent) Start() {
	a.mu.Lock()
	if a.status != models.AgentStatusIdle {
		current := a.status
		a.mu.Unlock()
		a.log.WithPayload(map[string]interface{}{"status": current}).Warn("agent is not idle, start ignored")
		return
	}
	a.status = models.AgentStatusPlanning
	now := time.Now()
	a.startedAt = &now
	a.mu.Unlock()

	a.pushStatus(models.AgentStatusPlanning)
	a.log.WithPayload(map[string]interface{}{"objective": a.Objective}).Info("agent started")

	if a.runner != nil {
		if err := a.runner.Submit(a.execute); err != nil {
			a.log.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to submit agent job, running inline")
			a.execute()
		}
		return
	}
	a.execute()
}

// execute drives the four phases and settles the agent into a terminal state.
func (a *Agent) execute() {
	ctx := context.Background()
	if err := a.run(ctx); err != nil {
		a.fail(err)
		return
	}
	if cb := a.onTerminal; cb != nil {
		cb(a)
	}
}

func (a *Agent) run(ctx context.Context) error {
	// Phase 1: memory retrieval. Failures degrade to an empty memory list.
	a.logAction("memory_retrieval", "memory_system", nil, "Retrieving relevant memories...", true, 0, 0)
	memories := a.retrieveRelevantMemories(ctx)

	// Phase 2: LLM planning with deterministic fallback.
	a.logAction("planning", "llm_planner", nil, "Creating execution plan with LLM...", true, 0, 0)
	plan := a.createPlan(ctx, memories)
	if plan == nil || len(plan.Steps) == 0 {
		return errors.New("failed to create execution plan")
	}

	a.mu.Lock()
	a.memory.CurrentPlan = plan
	a.mu.Unlock()
	a.logAction("plan_created", "llm_planner", map[string]interface{}{"steps": len(plan.Steps)},
		fmt.Sprintf("Created plan with %d steps", len(plan.Steps)), true, 0, 0)

	// Phase 3: step execution with verification. A failed step never aborts
	// the loop; pause and stop are honored at step boundaries only.
	a.setStatus(models.AgentStatusExecuting)
	a.logAction("execution_start", "agent_executor", nil, "Beginning execution phase...", true, 0, 0)

	for i, step := range plan.Steps {
		status := a.Status()
		if status.Terminal() {
			a.log.Info("agent stopped, abandoning remaining steps")
			return nil
		}
		if status == models.AgentStatusPaused {
			a.log.Info("agent execution paused")
			break
		}

		stepResult := a.executePlanStep(ctx, step, i)

		a.setStatus(models.AgentStatusVerifying)
		verification := verifyStepResult(stepResult, i)
		if verification.RequiresPlanAdjustment {
			a.adjustPlan(verification)
		}
		a.setStatus(models.AgentStatusExecuting)

		completed := models.CompletedStep{
			Step:      step,
			Result:    stepResult,
			Index:     i,
			Timestamp: models.ISOTime(time.Now()),
		}
		a.mu.Lock()
		a.memory.CompletedSteps = append(a.memory.CompletedSteps, completed)
		a.mu.Unlock()
	}

	// Phase 4: memory storage, then completion. A stop that landed during the
	// final step leaves the agent FAILED; completion never overwrites it.
	a.storeTaskMemory(ctx)

	a.mu.Lock()
	if a.status.Terminal() {
		a.mu.Unlock()
		return nil
	}
	a.status = models.AgentStatusCompleted
	now := time.Now()
	a.completedAt = &now
	started := a.startedAt
	a.mu.Unlock()
	a.pushStatus(models.AgentStatusCompleted)

	durationMsg := "Agent completed successfully"
	if started != nil {
		durationMsg = fmt.Sprintf("Agent completed successfully in %.2f seconds", now.Sub(*started).Seconds())
	}
	a.logAction("completion", "agent_finalizer", nil, durationMsg, true, 0, 0)
	return nil
}

func (a *Agent) fail(err error) {
	a.mu.Lock()
	if a.status.Terminal() {
		a.mu.Unlock()
		a.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("agent already terminal, error dropped")
		return
	}
	a.status = models.AgentStatusFailed
	now := time.Now()
	a.completedAt = &now
	a.mu.Unlock()
	a.pushStatus(models.AgentStatusFailed)

	a.log.WithError(models.ErrorInfo{Message: err.Error()}).Error("agent failed")
	a.logAction("error", "agent_error", map[string]interface{}{"error": err.Error()},
		fmt.Sprintf("Agent failed: %v", err), false, 0, 0)

	if cb := a.onTerminal; cb != nil {
		cb(a)
	}
}

func (a *Agent) retrieveRelevantMemories(ctx context.Context) []memory.Document {
	if a.memStore == nil {
		a.log.Warn("memory store is not configured, skipping memory retrieval")
		return nil
	}
	docs, err := a.memStore.Query(ctx, a.memCollection, a.Objective, a.memTopK)
	if err != nil {
		a.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to retrieve memories")
		return nil
	}
	if len(docs) > a.memTopK {
		docs = docs[:a.memTopK]
	}
	a.logAction("memory_retrieval", "memory_system",
		map[string]interface{}{"memories_found": len(docs)},
		fmt.Sprintf("Retrieved %d relevant memories", len(docs)), true, 0, 0)
	return docs
}

func (a *Agent) createPlan(ctx context.Context, memories []memory.Document) *models.AgentPlan {
	prompt := buildPlanningPrompt(a.Objective, a.AuthorizedTools, memories)

	resp, err := a.llm.GenerateContent(ctx, &models.GenerateContentRequest{
		SystemPrompt: a.SystemPrompt,
		Prompt:       prompt,
	})
	if err != nil {
		a.log.WithError(models.ErrorInfo{Message: err.Error()}).Error("LLM planning failed, using fallback plan")
		return fallbackPlan(a.Objective, time.Now())
	}

	plan, err := parsePlan(resp.Text, time.Now())
	if err != nil {
		a.log.WithError(models.ErrorInfo{Message: err.Error()}).Error("invalid plan from LLM, using fallback plan")
		return fallbackPlan(a.Objective, time.Now())
	}
	return plan
}

func (a *Agent) executePlanStep(ctx context.Context, step models.PlanStep, stepIndex int) models.StepResult {
	description := step.Description
	if description == "" {
		description = "Executing step"
	}
	a.logAction("step_start", step.Tool, step.Args,
		fmt.Sprintf("Step %d: %s", stepIndex+1, description), true, 0, stepIndex)

	if !a.authorized(step.Tool) {
		errMsg := fmt.Sprintf("Tool %s not authorized", step.Tool)
		a.logAction("step_error", step.Tool, step.Args, errMsg, false, 0, stepIndex)
		return models.StepResult{Success: false, Error: errMsg, Tool: step.Tool, Args: step.Args}
	}

	if a.tools == nil || !a.tools.Known(step.Tool) {
		errMsg := fmt.Sprintf("Tool %s not available", step.Tool)
		a.logAction("step_error", step.Tool, step.Args, errMsg, false, 0, stepIndex)
		return models.StepResult{Success: false, Error: errMsg, Tool: step.Tool, Args: step.Args}
	}

	start := time.Now()
	receipt, err := a.tools.Dispatch(ctx, a.ID, step.Tool, step.Args)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		a.logAction("step_error", step.Tool, step.Args,
			fmt.Sprintf("Step %d failed: %v", stepIndex+1, err), false, elapsed, stepIndex)
		return models.StepResult{
			Success:       false,
			Error:         err.Error(),
			ExecutionTime: elapsed,
			Tool:          step.Tool,
			Args:          step.Args,
		}
	}

	a.logAction("step_complete", step.Tool, step.Args,
		fmt.Sprintf("Step %d completed successfully", stepIndex+1), true, elapsed, stepIndex)
	return models.StepResult{
		Success:       true,
		Result:        receipt,
		ExecutionTime: elapsed,
		Tool:          step.Tool,
		Args:          step.Args,
	}
}

// verification is the outcome of checking one step result.
type verification struct {
	Success                bool
	RequiresPlanAdjustment bool
	Reason                 string
	StepIndex              int
}

func verifyStepResult(result models.StepResult, stepIndex int) verification {
	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = "Step execution failed"
		}
		return verification{
			Success:                false,
			RequiresPlanAdjustment: true,
			Reason:                 reason,
			StepIndex:              stepIndex,
		}
	}
	return verification{Success: true, StepIndex: stepIndex}
}

func (a *Agent) adjustPlan(v verification) {
	a.logAction("plan_adjustment", "plan_adjuster",
		map[string]interface{}{"reason": v.Reason, "step_index": v.StepIndex},
		fmt.Sprintf("Adjusting plan due to step %d failure", v.StepIndex+1), true, 0, v.StepIndex)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.memory.CurrentPlan != nil {
		a.memory.CurrentPlan = a.adjuster.Adjust(a.memory.CurrentPlan, StepFailure{
			StepIndex: v.StepIndex,
			Reason:    v.Reason,
		})
	}
}

func (a *Agent) storeTaskMemory(ctx context.Context) {
	summary := a.taskSummary()

	if a.memStore == nil {
		a.logAction("memory_error", "memory_system", nil,
			"Memory storage failed: memory store is not configured", false, 0, 0)
		return
	}

	doc := memory.Document{
		Content: summary,
		Metadata: map[string]string{
			"agent_id": a.ID,
			"task_key": fmt.Sprintf("task_%s_%d", a.ID, time.Now().Unix()),
		},
	}
	if err := a.memStore.Ingest(ctx, a.memCollection, doc); err != nil {
		a.log.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to store task memory")
		a.logAction("memory_error", "memory_system", map[string]interface{}{"error": err.Error()},
			fmt.Sprintf("Memory storage failed: %v", err), false, 0, 0)
		return
	}
	a.logAction("memory_storage", "memory_system", nil, "Task memory stored successfully", true, 0, 0)
}

func (a *Agent) taskSummary() string {
	a.mu.RLock()
	status := a.status
	completedSteps := make([]models.CompletedStep, len(a.memory.CompletedSteps))
	copy(completedSteps, a.memory.CompletedSteps)
	started := a.startedAt
	completed := a.completedAt
	a.mu.RUnlock()

	duration := ""
	if started != nil && completed != nil {
		duration = fmt.Sprintf(" in %.1f seconds", completed.Sub(*started).Seconds())
	}

	summary := fmt.Sprintf(`# Agent Task Summary

## Objective
%s

## Execution Details
- Status: %s
- Steps Completed: %d
- Duration: %s
- Agent ID: %s

## Key Outcomes
`, a.Objective, status, len(completedSteps), duration, a.ID)

	for i, step := range completedSteps {
		description := step.Step.Description
		if description == "" {
			description = "Step executed"
		}
		mark := "✗"
		if step.Result.Success {
			mark = "✓"
		}
		summary += fmt.Sprintf("\n%d. %s %s", i+1, description, mark)
	}

	summary += fmt.Sprintf("\n\n## Created: %s", models.ISOTime(time.Now()))
	return summary
}

// Pause suspends execution at the next step boundary. Terminal agents are
// unaffected.
func (a *Agent) Pause() {
	a.mu.Lock()
	if a.status.Terminal() {
		a.mu.Unlock()
		return
	}
	a.status = models.AgentStatusPaused
	a.mu.Unlock()
	a.pushStatus(models.AgentStatusPaused)
}

// Resume returns a paused agent to EXECUTING. No effect from any other state.
func (a *Agent) Resume() {
	a.mu.Lock()
	if a.status != models.AgentStatusPaused {
		a.mu.Unlock()
		return
	}
	a.status = models.AgentStatusExecuting
	a.mu.Unlock()
	a.pushStatus(models.AgentStatusExecuting)
}

// Stop forces a non-terminal agent to FAILED regardless of its current
// phase. An in-flight tool call is not interrupted; the worker abandons the
// remaining steps at the next step boundary.
func (a *Agent) Stop() {
	a.mu.Lock()
	if a.status.Terminal() {
		a.mu.Unlock()
		return
	}
	a.status = models.AgentStatusFailed
	now := time.Now()
	a.completedAt = &now
	a.mu.Unlock()
	a.pushStatus(models.AgentStatusFailed)

	if cb := a.onTerminal; cb != nil {
		cb(a)
	}
}

// Status returns the agent's current status.
func (a *Agent) Status() models.AgentStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// setStatus applies a phase transition. Terminal states are final: a
// transition arriving after Stop (or failure) is dropped.
func (a *Agent) setStatus(s models.AgentStatus) {
	a.mu.Lock()
	if a.status.Terminal() {
		a.mu.Unlock()
		return
	}
	a.status = s
	a.mu.Unlock()
	a.pushStatus(s)
}

// pushStatus mirrors a status change into the external cache, best-effort.
func (a *Agent) pushStatus(s models.AgentStatus) {
	if a.statusSink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.statusSink.SetStatus(ctx, a.ID, string(s)); err != nil {
		a.log.WithError(models.ErrorInfo{Message: err.Error()}).Debug("failed to cache agent status")
	}
}

// InjectContext merges orchestration dependency results into the agent's
// memory context before it starts.
func (a *Agent) InjectContext(values map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.memory.Context == nil {
		a.memory.Context = map[string]interface{}{}
	}
	for k, v := range values {
		a.memory.Context[k] = v
	}
}

// ActionLog returns at most limit of the most recent actions.
func (a *Agent) ActionLog(limit int) []models.AgentAction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.memory.RecentActions(limit)
}

// Actions returns a copy of the full action log.
func (a *Agent) Actions() []models.AgentAction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.memory.RecentActions(0)
}

// CompletedAt returns the completion timestamp, nil while non-terminal.
func (a *Agent) CompletedAt() *time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.completedAt == nil {
		return nil
	}
	t := *a.completedAt
	return &t
}

// StatusSummary returns the API-facing snapshot of this agent.
func (a *Agent) StatusSummary() models.StatusSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	summary := models.StatusSummary{
		ID:              a.ID,
		Objective:       a.Objective,
		Status:          a.status,
		CreatedAt:       models.ISOTime(a.createdAt),
		ActionsCount:    len(a.memory.Actions),
		CompletedSteps:  len(a.memory.CompletedSteps),
		AuthorizedTools: a.AuthorizedTools,
	}
	if a.startedAt != nil {
		s := models.ISOTime(*a.startedAt)
		summary.StartedAt = &s
	}
	if a.completedAt != nil {
		c := models.ISOTime(*a.completedAt)
		summary.CompletedAt = &c
	}
	if a.memory.CurrentPlan != nil {
		summary.TotalSteps = len(a.memory.CurrentPlan.Steps)
	}
	return summary
}

func (a *Agent) authorized(tool string) bool {
	for _, t := range a.AuthorizedTools {
		if t == tool {
			return true
		}
	}
	return false
}

// logAction appends an action to memory, logs it and publishes it to the
// event sink.
func (a *Agent) logAction(actionType, toolName string, params map[string]interface{}, result string, success bool, executionTime float64, stepIndex int) {
	if params == nil {
		params = map[string]interface{}{}
	}
	action := models.AgentAction{
		Timestamp:     models.ISOTime(time.Now()),
		ActionType:    actionType,
		ToolName:      toolName,
		Parameters:    params,
		Result:        result,
		Success:       success,
		ExecutionTime: executionTime,
		StepIndex:     stepIndex,
	}

	a.mu.Lock()
	a.memory.AddAction(action)
	status := a.status
	a.mu.Unlock()

	a.log.WithPayload(map[string]interface{}{"action_type": actionType, "tool_name": toolName}).Info(result)

	if a.events != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		event := models.AgentEvent{
			AgentID:         a.ID,
			OrchestrationID: a.OrchestrationID,
			Timestamp:       time.Now(),
			Status:          status,
			Action:          action,
		}
		if err := a.events.Publish(ctx, event); err != nil {
			a.log.WithError(models.ErrorInfo{Message: err.Error()}).Debug("failed to publish agent event")
		}
	}
}
