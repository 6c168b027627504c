package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workflow-service/internal/domain"
)

func TestCanTransitionTask(t *testing.T) {
	allowed := map[domain.TaskState][]domain.TaskState{
		domain.TaskStateNew:        {domain.TaskStateInProgress, domain.TaskStateBlocked, domain.TaskStateCancelled},
		domain.TaskStateInProgress: {domain.TaskStateCompleted, domain.TaskStateBlocked, domain.TaskStateCancelled},
		domain.TaskStateBlocked:    {domain.TaskStateInProgress, domain.TaskStateCancelled},
		domain.TaskStateCompleted:  {},
		domain.TaskStateCancelled:  {},
	}

	states := []domain.TaskState{
		domain.TaskStateNew,
		domain.TaskStateInProgress,
		domain.TaskStateBlocked,
		domain.TaskStateCompleted,
		domain.TaskStateCancelled,
	}

	for _, from := range states {
		for _, to := range states {
			want := false
			for _, target := range allowed[from] {
				if target == to {
					want = true
				}
			}
			got := CanTransitionTask(from, to)
			require.Equalf(t, want, got, "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionTaskRejectsSelfAndUnknown(t *testing.T) {
	require.False(t, CanTransitionTask(domain.TaskStateNew, domain.TaskStateNew))
	require.False(t, CanTransitionTask(domain.TaskState("bogus"), domain.TaskStateInProgress))
	require.False(t, CanTransitionTask(domain.TaskStateNew, domain.TaskState("bogus")))
}

func TestCanTransitionActionPlan(t *testing.T) {
	require.True(t, CanTransitionActionPlan(domain.ActionPlanStateDraft, domain.ActionPlanStateActive))
	require.True(t, CanTransitionActionPlan(domain.ActionPlanStateDraft, domain.ActionPlanStateArchived))
	require.True(t, CanTransitionActionPlan(domain.ActionPlanStateActive, domain.ActionPlanStateArchived))

	require.False(t, CanTransitionActionPlan(domain.ActionPlanStateActive, domain.ActionPlanStateDraft))
	require.False(t, CanTransitionActionPlan(domain.ActionPlanStateArchived, domain.ActionPlanStateActive))
	require.False(t, CanTransitionActionPlan(domain.ActionPlanStateArchived, domain.ActionPlanStateDraft))
	require.False(t, CanTransitionActionPlan(domain.ActionPlanStateDraft, domain.ActionPlanStateDraft))
}

func TestTransitionTablesAreCopies(t *testing.T) {
	table := TaskTransitionTable()
	require.Contains(t, table, "new")
	require.ElementsMatch(t, []string{"in_progress", "blocked", "cancelled"}, table["new"])
	require.Empty(t, table["completed"])

	table["new"] = nil
	require.NotEmpty(t, TaskTransitionTable()["new"])

	planTable := ActionPlanTransitionTable()
	require.ElementsMatch(t, []string{"active", "archived"}, planTable["draft"])
	require.Empty(t, planTable["archived"])
}
