package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	apperrors "github.com/spec-kit/workflow-service/pkg/util/errorutil"
)

// Store commits a state change together with its outbox event as one atomic
// unit. The pgx-backed implementation wraps both writes in a transaction so
// "state changed" and "event recorded" never diverge.
type Store interface {
	ApplyTaskTransition(ctx context.Context, task *domain.Task, event *domain.OutboxEvent) error
	ApplyActionPlanTransition(ctx context.Context, plan *domain.ActionPlan, event *domain.OutboxEvent) error
}

// Engine validates requested state changes against the registry and persists
// the accepted ones. Automation side effects are deferred to the outbox drain;
// the engine's only side effect is the write.
type Engine struct {
	store Store

	// Now is swappable for tests.
	Now func() time.Time
}

// NewEngine constructs the transition engine.
func NewEngine(store Store) *Engine {
	return &Engine{store: store, Now: time.Now}
}

// TransitionTask applies target to task for actor. On success the task is
// mutated in place and the appended outbox event is returned.
func (e *Engine) TransitionTask(ctx context.Context, task *domain.Task, target domain.TaskState, actor string) (*domain.OutboxEvent, error) {
	if !CanTransitionTask(task.State, target) {
		return nil, apperrors.NewInvalidTransition("task", string(task.State), string(target))
	}

	oldState := task.State
	now := e.Now()
	task.State = target
	task.UpdatedAt = now

	eventType := events.ForTaskTransition(target)
	var payload []byte
	switch eventType {
	case events.EventTaskCompleted:
		payload = events.MarshalPayload(events.TaskCompletedPayload{
			TaskType:     task.Type,
			ActionPlanID: task.ActionPlanID,
			Actor:        actor,
		})
	case events.EventTaskCancelled:
		payload = events.MarshalPayload(events.TaskCancelledPayload{
			TaskType: task.Type,
			OldState: oldState,
			Actor:    actor,
		})
	default:
		payload = events.MarshalPayload(events.TaskStateChangedPayload{
			TaskType: task.Type,
			OldState: oldState,
			NewState: target,
			Actor:    actor,
		})
	}

	event := &domain.OutboxEvent{
		ID:            uuid.NewString(),
		EventType:     string(eventType),
		AggregateType: domain.AggregateTask,
		AggregateID:   task.ID,
		CorrelationID: uuid.NewString(),
		Payload:       payload,
		CreatedAt:     now,
	}

	if err := e.store.ApplyTaskTransition(ctx, task, event); err != nil {
		task.State = oldState
		return nil, err
	}
	return event, nil
}

// TransitionActionPlan applies target to plan for actor. Version increments on
// every accepted state change.
func (e *Engine) TransitionActionPlan(ctx context.Context, plan *domain.ActionPlan, target domain.ActionPlanState, actor string) (*domain.OutboxEvent, error) {
	if !CanTransitionActionPlan(plan.State, target) {
		return nil, apperrors.NewInvalidTransition("action_plan", string(plan.State), string(target))
	}

	oldState := plan.State
	oldVersion := plan.Version
	now := e.Now()
	plan.State = target
	plan.Version++
	plan.UpdatedAt = now

	eventType := events.ForActionPlanTransition(target)
	var payload []byte
	if eventType == events.EventActionPlanActivated {
		payload = events.MarshalPayload(events.ActionPlanActivatedPayload{
			OwnerID: plan.OwnerID,
			Version: plan.Version,
			Actor:   actor,
		})
	} else {
		payload = events.MarshalPayload(events.ActionPlanArchivedPayload{
			OwnerID: plan.OwnerID,
			Version: plan.Version,
			Actor:   actor,
		})
	}

	event := &domain.OutboxEvent{
		ID:            uuid.NewString(),
		EventType:     string(eventType),
		AggregateType: domain.AggregateActionPlan,
		AggregateID:   plan.ID,
		CorrelationID: uuid.NewString(),
		Payload:       payload,
		CreatedAt:     now,
	}

	if err := e.store.ApplyActionPlanTransition(ctx, plan, event); err != nil {
		plan.State = oldState
		plan.Version = oldVersion
		return nil, err
	}
	return event, nil
}
