package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	apperrors "github.com/spec-kit/workflow-service/pkg/util/errorutil"
)

type fakeStore struct {
	taskEvents []*domain.OutboxEvent
	planEvents []*domain.OutboxEvent
	failWith   error
}

func (s *fakeStore) ApplyTaskTransition(ctx context.Context, task *domain.Task, event *domain.OutboxEvent) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.taskEvents = append(s.taskEvents, event)
	return nil
}

func (s *fakeStore) ApplyActionPlanTransition(ctx context.Context, plan *domain.ActionPlan, event *domain.OutboxEvent) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.planEvents = append(s.planEvents, event)
	return nil
}

func newTask(state domain.TaskState) *domain.Task {
	return &domain.Task{
		ID:        "task-1",
		Type:      domain.TaskTypeIntake,
		State:     state,
		CreatedBy: "user-1",
	}
}

func TestTransitionTaskEmitsExactlyOneEvent(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.Now = func() time.Time { return now }

	task := newTask(domain.TaskStateNew)
	event, err := engine.TransitionTask(context.Background(), task, domain.TaskStateInProgress, "user-1")
	require.NoError(t, err)
	require.Len(t, store.taskEvents, 1)
	require.Same(t, store.taskEvents[0], event)

	require.Equal(t, domain.TaskStateInProgress, task.State)
	require.Equal(t, now, task.UpdatedAt)
	require.Equal(t, string(events.EventTaskStateChanged), event.EventType)
	require.Equal(t, domain.AggregateTask, event.AggregateType)
	require.Equal(t, task.ID, event.AggregateID)
	require.NotEmpty(t, event.ID)
	require.NotEmpty(t, event.CorrelationID)

	var payload events.TaskStateChangedPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	require.Equal(t, domain.TaskStateNew, payload.OldState)
	require.Equal(t, domain.TaskStateInProgress, payload.NewState)
	require.Equal(t, "user-1", payload.Actor)
}

func TestTransitionTaskCompletedEventType(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store)

	task := newTask(domain.TaskStateInProgress)
	event, err := engine.TransitionTask(context.Background(), task, domain.TaskStateCompleted, "user-2")
	require.NoError(t, err)
	require.Equal(t, string(events.EventTaskCompleted), event.EventType)

	var payload events.TaskCompletedPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	require.Equal(t, domain.TaskTypeIntake, payload.TaskType)
	require.Equal(t, "user-2", payload.Actor)
}

func TestTransitionTaskCancelledEventType(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store)

	task := newTask(domain.TaskStateBlocked)
	event, err := engine.TransitionTask(context.Background(), task, domain.TaskStateCancelled, "user-2")
	require.NoError(t, err)
	require.Equal(t, string(events.EventTaskCancelled), event.EventType)

	var payload events.TaskCancelledPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	require.Equal(t, domain.TaskStateBlocked, payload.OldState)
}

func TestTransitionTaskRejectsIllegalMove(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store)

	task := newTask(domain.TaskStateCompleted)
	_, err := engine.TransitionTask(context.Background(), task, domain.TaskStateInProgress, "user-1")
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "INVALID_TRANSITION", domainErr.Code)
	require.Equal(t, 409, domainErr.HTTPStatus)

	require.Equal(t, domain.TaskStateCompleted, task.State)
	require.Empty(t, store.taskEvents)
}

func TestTransitionTaskRevertsStateOnStoreError(t *testing.T) {
	store := &fakeStore{failWith: errors.New("connection refused")}
	engine := NewEngine(store)

	task := newTask(domain.TaskStateNew)
	_, err := engine.TransitionTask(context.Background(), task, domain.TaskStateInProgress, "user-1")
	require.Error(t, err)
	require.Equal(t, domain.TaskStateNew, task.State)
}

func TestTransitionActionPlanIncrementsVersion(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store)

	plan := &domain.ActionPlan{ID: "plan-1", OwnerID: "owner-1", State: domain.ActionPlanStateDraft, Version: 1}
	event, err := engine.TransitionActionPlan(context.Background(), plan, domain.ActionPlanStateActive, "owner-1")
	require.NoError(t, err)
	require.Equal(t, domain.ActionPlanStateActive, plan.State)
	require.Equal(t, 2, plan.Version)
	require.Equal(t, string(events.EventActionPlanActivated), event.EventType)
	require.Equal(t, domain.AggregateActionPlan, event.AggregateType)

	var payload events.ActionPlanActivatedPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	require.Equal(t, 2, payload.Version)
	require.Equal(t, "owner-1", payload.OwnerID)
}

func TestTransitionActionPlanRevertsOnStoreError(t *testing.T) {
	store := &fakeStore{failWith: errors.New("tx aborted")}
	engine := NewEngine(store)

	plan := &domain.ActionPlan{ID: "plan-1", OwnerID: "owner-1", State: domain.ActionPlanStateActive, Version: 3}
	_, err := engine.TransitionActionPlan(context.Background(), plan, domain.ActionPlanStateArchived, "owner-1")
	require.Error(t, err)
	require.Equal(t, domain.ActionPlanStateActive, plan.State)
	require.Equal(t, 3, plan.Version)
}

func TestTransitionActionPlanRejectsReactivation(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store)

	plan := &domain.ActionPlan{ID: "plan-1", OwnerID: "owner-1", State: domain.ActionPlanStateArchived, Version: 4}
	_, err := engine.TransitionActionPlan(context.Background(), plan, domain.ActionPlanStateActive, "owner-1")

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "INVALID_TRANSITION", domainErr.Code)
	require.Empty(t, store.planEvents)
}
