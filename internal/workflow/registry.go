package workflow

import "github.com/spec-kit/workflow-service/internal/domain"

var taskTransitions = map[domain.TaskState][]domain.TaskState{
	domain.TaskStateNew:        {domain.TaskStateInProgress, domain.TaskStateBlocked, domain.TaskStateCancelled},
	domain.TaskStateInProgress: {domain.TaskStateCompleted, domain.TaskStateBlocked, domain.TaskStateCancelled},
	domain.TaskStateBlocked:    {domain.TaskStateInProgress, domain.TaskStateCancelled},
	domain.TaskStateCompleted:  {},
	domain.TaskStateCancelled:  {},
}

var actionPlanTransitions = map[domain.ActionPlanState][]domain.ActionPlanState{
	domain.ActionPlanStateDraft:    {domain.ActionPlanStateActive, domain.ActionPlanStateArchived},
	domain.ActionPlanStateActive:   {domain.ActionPlanStateArchived},
	domain.ActionPlanStateArchived: {},
}

// CanTransitionTask reports whether the registry allows current -> next.
func CanTransitionTask(current, next domain.TaskState) bool {
	for _, candidate := range taskTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CanTransitionActionPlan reports whether the registry allows current -> next.
func CanTransitionActionPlan(current, next domain.ActionPlanState) bool {
	for _, candidate := range actionPlanTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TaskTransitionTable returns a copy of the allowed task transitions,
// keyed by source state. Used by the metadata endpoint.
func TaskTransitionTable() map[string][]string {
	table := make(map[string][]string, len(taskTransitions))
	for from, targets := range taskTransitions {
		next := make([]string, 0, len(targets))
		for _, target := range targets {
			next = append(next, string(target))
		}
		table[string(from)] = next
	}
	return table
}

// ActionPlanTransitionTable returns a copy of the allowed plan transitions.
func ActionPlanTransitionTable() map[string][]string {
	table := make(map[string][]string, len(actionPlanTransitions))
	for from, targets := range actionPlanTransitions {
		next := make([]string, 0, len(targets))
		for _, target := range targets {
			next = append(next, string(target))
		}
		table[string(from)] = next
	}
	return table
}
