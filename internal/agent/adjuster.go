package agent

import "Vybe_AI/internal/models"

// StepFailure describes a failed step handed to the plan adjuster.
type StepFailure struct {
	StepIndex int
	Reason    string
}

// PlanAdjuster revises an execution plan after a failed step. The returned
// plan replaces the agent's current plan wholesale. Implementations must bump
// RevisedCount on every adjustment.
//
// The intended revision policy (retry, skip, LLM replan) is still open;
// swapping the adjuster does not touch the state machine.
type PlanAdjuster interface {
	Adjust(plan *models.AgentPlan, failure StepFailure) *models.AgentPlan
}

// CountingAdjuster records that an adjustment happened without changing any
// steps.
type CountingAdjuster struct{}

// Adjust increments the plan's revision counter and returns it unchanged.
func (CountingAdjuster) Adjust(plan *models.AgentPlan, failure StepFailure) *models.AgentPlan {
	if plan != nil {
		plan.RevisedCount++
	}
	return plan
}
