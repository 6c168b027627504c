package automation

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	apperrors "github.com/spec-kit/workflow-service/pkg/util/errorutil"
)

const (
	idempotencyKeyPrefix  = "automation:event:"
	defaultHandlerTimeout = 30 * time.Second
)

// TaskCreator spawns follow-up tasks. Implemented by the workflow service;
// the interface keeps the dependency pointing inward.
type TaskCreator interface {
	CreateFollowUpTask(ctx context.Context, taskType domain.TaskType, createdBy string, actionPlanID *string, correlationID string) (*domain.Task, error)
}

// Dispatcher maps outbox event kinds to automation actions. It is idempotent
// per event id and never retries: disposition of a failed automation belongs
// to the worker loop that called it.
type Dispatcher struct {
	tasks          TaskCreator
	notifier       *Notifier
	idempotency    IdempotencyStore
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewDispatcher constructs the dispatcher.
func NewDispatcher(tasks TaskCreator, notifier *Notifier, idempotency IdempotencyStore, idempotencyTTL time.Duration, logger *zap.Logger) *Dispatcher {
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}
	return &Dispatcher{
		tasks:          tasks,
		notifier:       notifier,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
		logger:         logger,
	}
}

// ProcessEvent executes the automation bound to the event type. Unknown event
// types are no-ops so new producers cannot crash old consumers.
func (d *Dispatcher) ProcessEvent(ctx context.Context, event domain.OutboxEvent) error {
	if d.idempotency != nil {
		acquired, err := d.idempotency.Acquire(ctx, idempotencyKeyPrefix+event.ID, d.idempotencyTTL)
		if err != nil {
			// Marker store down: proceed anyway. At-least-once delivery
			// beats dropping the automation on a cache outage.
			d.logger.Warn("idempotency store unavailable", zap.Error(err))
		} else if !acquired {
			d.logger.Debug("event already handled", zap.String("event_id", event.ID))
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, defaultHandlerTimeout)
	defer cancel()

	switch events.EventType(event.EventType) {
	case events.EventTaskCompleted:
		return d.handleTaskCompleted(ctx, event)
	case events.EventActionPlanActivated:
		return d.handleActionPlanActivated(ctx, event)
	case events.EventActionPlanArchived:
		return d.handleActionPlanArchived(ctx, event)
	case events.EventTaskCreated, events.EventTaskStateChanged, events.EventTaskCancelled:
		// No automation bound; the event exists for audit and consumers.
		return nil
	default:
		d.logger.Debug("unknown event type ignored",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.EventType))
		return nil
	}
}

// handleTaskCompleted spawns an assessment follow-up when an intake task
// completes.
func (d *Dispatcher) handleTaskCompleted(ctx context.Context, event domain.OutboxEvent) error {
	var payload events.TaskCompletedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return apperrors.NewAutomationFailure(event.EventType, err)
	}
	if payload.TaskType != domain.TaskTypeIntake {
		return nil
	}

	task, err := d.tasks.CreateFollowUpTask(ctx, domain.TaskTypeAssessment, "automation", payload.ActionPlanID, event.CorrelationID)
	if err != nil {
		return apperrors.NewAutomationFailure(event.EventType, err)
	}
	d.logger.Info("follow-up task created",
		zap.String("source_task_id", event.AggregateID),
		zap.String("task_id", task.ID),
		zap.String("correlation_id", event.CorrelationID))
	return nil
}

func (d *Dispatcher) handleActionPlanActivated(ctx context.Context, event domain.OutboxEvent) error {
	var payload events.ActionPlanActivatedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return apperrors.NewAutomationFailure(event.EventType, err)
	}
	if err := d.notifier.SendActivationNotice(ctx, event.AggregateID, payload.OwnerID); err != nil {
		return apperrors.NewAutomationFailure(event.EventType, err)
	}
	return nil
}

func (d *Dispatcher) handleActionPlanArchived(ctx context.Context, event domain.OutboxEvent) error {
	var payload events.ActionPlanArchivedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return apperrors.NewAutomationFailure(event.EventType, err)
	}
	if err := d.notifier.SendArchiveNotice(ctx, event.AggregateID, payload.OwnerID); err != nil {
		return apperrors.NewAutomationFailure(event.EventType, err)
	}
	return nil
}
