package agent

import (
	"Vybe_AI/internal/models"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.GenerateContentResponse{Text: s.response}, nil
}

type recordingStatusSink struct {
	mu       sync.Mutex
	statuses []string
}

func (r *recordingStatusSink) SetStatus(ctx context.Context, agentID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *recordingStatusSink) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.statuses))
	copy(out, r.statuses)
	return out
}

func testToolset(t *testing.T) *Toolset {
	t.Helper()
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)
	return &Toolset{Workspace: ws}
}

const singleStepPlan = `{"steps": [{"tool": "web_search", "args": {"query": "cats"}, "description": "look up cats"}]}`

const twoStepPythonPlan = `{"steps": [` +
	`{"tool": "ai_execute_python", "args": {"code": "1"}, "description": "first"},` +
	`{"tool": "ai_execute_python", "args": {"code": "2"}, "description": "second"}]}`

type asyncRunner struct{}

func (asyncRunner) Submit(job func()) error {
	go job()
	return nil
}

// gatedCodeRunner blocks its first call until released so tests can act while
// a step is in flight.
type gatedCodeRunner struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func newGatedCodeRunner() *gatedCodeRunner {
	return &gatedCodeRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedCodeRunner) Run(ctx context.Context, code string) (string, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()
	if first {
		close(g.started)
		<-g.release
	}
	return "done", nil
}

func (g *gatedCodeRunner) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestAgentRunsToCompletion(t *testing.T) {
	sink := &recordingStatusSink{}
	a := New(Config{
		ID:              "agent_test_1",
		Objective:       "find facts about cats",
		SystemPrompt:    "you are a helper",
		AuthorizedTools: []string{ToolWebSearch},
		LLM:             &stubLLM{response: singleStepPlan},
		Tools:           testToolset(t),
		StatusCache:     sink,
	})

	require.Equal(t, models.AgentStatusIdle, a.Status())
	a.Start()

	assert.Equal(t, models.AgentStatusCompleted, a.Status())
	require.NotNil(t, a.CompletedAt())

	summary := a.StatusSummary()
	assert.Equal(t, 1, summary.CompletedSteps)
	assert.Equal(t, 1, summary.TotalSteps)
	require.NotNil(t, summary.StartedAt)

	// Completion requires passing through the execution phase.
	seen := sink.seen()
	assert.Contains(t, seen, string(models.AgentStatusPlanning))
	assert.Contains(t, seen, string(models.AgentStatusExecuting))
	assert.Contains(t, seen, string(models.AgentStatusVerifying))
	assert.Equal(t, string(models.AgentStatusCompleted), seen[len(seen)-1])

	a.mu.RLock()
	defer a.mu.RUnlock()
	require.Len(t, a.memory.CompletedSteps, 1)
	result := a.memory.CompletedSteps[0].Result
	assert.True(t, result.Success)
	assert.Contains(t, result.Result, "Web search completed for: cats")
}

func TestAgentWithEmptyAuthorizedToolsStillTerminates(t *testing.T) {
	a := New(Config{
		ID:              "agent_test_2",
		Objective:       "research cats",
		AuthorizedTools: []string{},
		LLM:             &stubLLM{response: singleStepPlan},
		Tools:           testToolset(t),
	})

	a.Start()

	// Every step fails authorization but the run still reaches a terminal
	// state.
	assert.True(t, a.Status().Terminal())
	a.mu.RLock()
	defer a.mu.RUnlock()
	require.Len(t, a.memory.CompletedSteps, 1)
	assert.False(t, a.memory.CompletedSteps[0].Result.Success)
	assert.Contains(t, a.memory.CompletedSteps[0].Result.Error, "not authorized")
}

func TestAgentFallbackPlanOnLLMError(t *testing.T) {
	a := New(Config{
		ID:              "agent_test_3",
		Objective:       "research cats",
		AuthorizedTools: []string{ToolWebSearch},
		LLM:             &stubLLM{err: errors.New("llm unavailable")},
		Tools:           testToolset(t),
	})

	a.Start()

	assert.Equal(t, models.AgentStatusCompleted, a.Status())
	a.mu.RLock()
	defer a.mu.RUnlock()
	require.NotNil(t, a.memory.CurrentPlan)
	require.NotEmpty(t, a.memory.CurrentPlan.Steps)
	assert.Equal(t, ToolWebSearch, a.memory.CurrentPlan.Steps[0].Tool)
}

func TestAgentFailsWhenNoPlanPossible(t *testing.T) {
	a := New(Config{
		ID:              "agent_test_4",
		Objective:       "say hello", // no fallback keywords
		AuthorizedTools: []string{ToolWebSearch},
		LLM:             &stubLLM{err: errors.New("llm unavailable")},
		Tools:           testToolset(t),
	})

	a.Start()

	assert.Equal(t, models.AgentStatusFailed, a.Status())
	require.NotNil(t, a.CompletedAt())

	actions := a.Actions()
	require.NotEmpty(t, actions)
	last := actions[len(actions)-1]
	assert.Equal(t, "error", last.ActionType)
	assert.False(t, last.Success)
}

func TestStartIsNoOpWhenNotIdle(t *testing.T) {
	a := New(Config{
		ID:              "agent_test_5",
		Objective:       "research cats",
		AuthorizedTools: []string{ToolWebSearch},
		LLM:             &stubLLM{response: singleStepPlan},
		Tools:           testToolset(t),
	})

	a.Start()
	require.Equal(t, models.AgentStatusCompleted, a.Status())
	actionsAfterFirst := len(a.Actions())

	a.Start()
	assert.Equal(t, models.AgentStatusCompleted, a.Status())
	assert.Equal(t, actionsAfterFirst, len(a.Actions()))
}

func TestPauseResumeStop(t *testing.T) {
	a := New(Config{
		ID:              "agent_test_6",
		Objective:       "research cats",
		AuthorizedTools: []string{ToolWebSearch},
		LLM:             &stubLLM{response: singleStepPlan},
		Tools:           testToolset(t),
	})

	a.Pause()
	assert.Equal(t, models.AgentStatusPaused, a.Status())

	a.Resume()
	assert.Equal(t, models.AgentStatusExecuting, a.Status())

	// Resume from a non-paused state has no effect.
	a.Resume()
	assert.Equal(t, models.AgentStatusExecuting, a.Status())

	a.Stop()
	assert.Equal(t, models.AgentStatusFailed, a.Status())
	assert.NotNil(t, a.CompletedAt())

	// Terminal agents are not pausable.
	a.Pause()
	assert.Equal(t, models.AgentStatusFailed, a.Status())
}

func TestStopDuringRunStaysFailed(t *testing.T) {
	gate := newGatedCodeRunner()
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)

	terminal := make(chan struct{}, 2)
	a := New(Config{
		ID:              "agent_test_stop",
		Objective:       "run some code",
		AuthorizedTools: []string{ToolExecutePython},
		LLM:             &stubLLM{response: twoStepPythonPlan},
		Tools:           &Toolset{Workspace: ws, Python: gate},
		Runner:          asyncRunner{},
		OnTerminal:      func(*Agent) { terminal <- struct{}{} },
	})

	a.Start()
	<-gate.started

	a.Stop()
	<-terminal
	require.Equal(t, models.AgentStatusFailed, a.Status())

	// Let the in-flight step finish: the worker must abandon the second step
	// and must not overwrite the terminal status with completed.
	close(gate.release)
	<-terminal

	assert.Equal(t, models.AgentStatusFailed, a.Status())
	assert.Equal(t, 1, gate.callCount())
	a.mu.RLock()
	defer a.mu.RUnlock()
	assert.Len(t, a.memory.CompletedSteps, 1)
}

func TestPauseDuringStepIsSupersededByVerification(t *testing.T) {
	gate := newGatedCodeRunner()
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)

	terminal := make(chan struct{}, 1)
	a := New(Config{
		ID:              "agent_test_pause_midstep",
		Objective:       "run some code",
		AuthorizedTools: []string{ToolExecutePython},
		LLM:             &stubLLM{response: twoStepPythonPlan},
		Tools:           &Toolset{Workspace: ws, Python: gate},
		Runner:          asyncRunner{},
		OnTerminal:      func(*Agent) { terminal <- struct{}{} },
	})

	a.Start()
	<-gate.started

	a.Pause()
	require.Equal(t, models.AgentStatusPaused, a.Status())

	// A pause issued while a step is in flight is overwritten by that step's
	// verifying/executing transitions, so the run carries on to completion.
	close(gate.release)
	<-terminal

	assert.Equal(t, models.AgentStatusCompleted, a.Status())
	assert.Equal(t, 2, gate.callCount())
}

func TestOnTerminalFires(t *testing.T) {
	var fired []string
	a := New(Config{
		ID:              "agent_test_7",
		Objective:       "research cats",
		AuthorizedTools: []string{ToolWebSearch},
		LLM:             &stubLLM{response: singleStepPlan},
		Tools:           testToolset(t),
		OnTerminal:      func(ag *Agent) { fired = append(fired, ag.ID) },
	})

	a.Start()
	assert.Equal(t, []string{"agent_test_7"}, fired)
}

func TestInjectContext(t *testing.T) {
	a := New(Config{
		ID:        "agent_test_8",
		Objective: "whatever",
		LLM:       &stubLLM{},
		Tools:     testToolset(t),
	})

	a.InjectContext(map[string]interface{}{"dependency_0": "result"})

	a.mu.RLock()
	defer a.mu.RUnlock()
	assert.Equal(t, "result", a.memory.Context["dependency_0"])
}

func TestVerifyStepResult(t *testing.T) {
	ok := verifyStepResult(models.StepResult{Success: true}, 2)
	assert.True(t, ok.Success)
	assert.False(t, ok.RequiresPlanAdjustment)

	failed := verifyStepResult(models.StepResult{Success: false, Error: "boom"}, 3)
	assert.False(t, failed.Success)
	assert.True(t, failed.RequiresPlanAdjustment)
	assert.Equal(t, "boom", failed.Reason)
	assert.Equal(t, 3, failed.StepIndex)
}

func TestCountingAdjuster(t *testing.T) {
	plan := &models.AgentPlan{Steps: []models.PlanStep{{Tool: ToolWebSearch}}}

	adjusted := CountingAdjuster{}.Adjust(plan, StepFailure{StepIndex: 0, Reason: "boom"})

	assert.Equal(t, 1, adjusted.RevisedCount)
	assert.Len(t, adjusted.Steps, 1)
}
