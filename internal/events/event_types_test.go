package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workflow-service/internal/domain"
)

func TestForTaskTransition(t *testing.T) {
	require.Equal(t, EventTaskCompleted, ForTaskTransition(domain.TaskStateCompleted))
	require.Equal(t, EventTaskCancelled, ForTaskTransition(domain.TaskStateCancelled))
	require.Equal(t, EventTaskStateChanged, ForTaskTransition(domain.TaskStateInProgress))
	require.Equal(t, EventTaskStateChanged, ForTaskTransition(domain.TaskStateBlocked))
}

func TestForActionPlanTransition(t *testing.T) {
	require.Equal(t, EventActionPlanActivated, ForActionPlanTransition(domain.ActionPlanStateActive))
	require.Equal(t, EventActionPlanArchived, ForActionPlanTransition(domain.ActionPlanStateArchived))
}

func TestMarshalPayloadRoundTrips(t *testing.T) {
	planID := "plan-1"
	data := MarshalPayload(TaskCompletedPayload{
		TaskType:     domain.TaskTypeIntake,
		ActionPlanID: &planID,
		Actor:        "user-1",
	})

	var payload TaskCompletedPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Equal(t, domain.TaskTypeIntake, payload.TaskType)
	require.NotNil(t, payload.ActionPlanID)
	require.Equal(t, "plan-1", *payload.ActionPlanID)
}

func TestMarshalPayloadNeverReturnsNil(t *testing.T) {
	data := MarshalPayload(make(chan int))
	require.JSONEq(t, "{}", string(data))
}
