package domain

import "time"

// ActionPlanState enumerates lifecycle states for action plans.
type ActionPlanState string

const (
	ActionPlanStateDraft    ActionPlanState = "draft"
	ActionPlanStateActive   ActionPlanState = "active"
	ActionPlanStateArchived ActionPlanState = "archived"
)

// ActionPlan groups tasks under an owner's procurement plan.
type ActionPlan struct {
	ID        string
	OwnerID   string
	State     ActionPlanState
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal reports whether the plan has reached a final state.
func (p *ActionPlan) IsTerminal() bool {
	return p.State == ActionPlanStateArchived
}
