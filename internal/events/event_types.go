package events

import (
	"encoding/json"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// EventType enumerates supported outbox event identifiers. The automation
// dispatcher switches exhaustively over these; unknown values read back from
// the store are no-ops so new producers cannot crash old consumers.
type EventType string

const (
	EventTaskCreated         EventType = "task.created"
	EventTaskStateChanged    EventType = "task.state_changed"
	EventTaskCompleted       EventType = "task.completed"
	EventTaskCancelled       EventType = "task.cancelled"
	EventActionPlanActivated EventType = "action_plan.activated"
	EventActionPlanArchived  EventType = "action_plan.archived"
)

// TaskCreatedPayload payload.
type TaskCreatedPayload struct {
	TaskType     domain.TaskType `json:"task_type"`
	CreatedBy    string          `json:"created_by"`
	AssignedTo   *string         `json:"assigned_to,omitempty"`
	ActionPlanID *string         `json:"action_plan_id,omitempty"`
}

// TaskStateChangedPayload payload.
type TaskStateChangedPayload struct {
	TaskType domain.TaskType  `json:"task_type"`
	OldState domain.TaskState `json:"old_state"`
	NewState domain.TaskState `json:"new_state"`
	Actor    string           `json:"actor"`
}

// TaskCompletedPayload payload.
type TaskCompletedPayload struct {
	TaskType     domain.TaskType `json:"task_type"`
	ActionPlanID *string         `json:"action_plan_id,omitempty"`
	Actor        string          `json:"actor"`
}

// TaskCancelledPayload payload.
type TaskCancelledPayload struct {
	TaskType domain.TaskType  `json:"task_type"`
	OldState domain.TaskState `json:"old_state"`
	Actor    string           `json:"actor"`
}

// ActionPlanActivatedPayload payload.
type ActionPlanActivatedPayload struct {
	OwnerID string `json:"owner_id"`
	Version int    `json:"version"`
	Actor   string `json:"actor"`
}

// ActionPlanArchivedPayload payload.
type ActionPlanArchivedPayload struct {
	OwnerID string `json:"owner_id"`
	Version int    `json:"version"`
	Actor   string `json:"actor"`
}

// ForTaskTransition selects the event type emitted for a task state change.
// Exactly one event is produced per transition.
func ForTaskTransition(target domain.TaskState) EventType {
	switch target {
	case domain.TaskStateCompleted:
		return EventTaskCompleted
	case domain.TaskStateCancelled:
		return EventTaskCancelled
	default:
		return EventTaskStateChanged
	}
}

// ForActionPlanTransition selects the event type for a plan state change.
func ForActionPlanTransition(target domain.ActionPlanState) EventType {
	switch target {
	case domain.ActionPlanStateActive:
		return EventActionPlanActivated
	default:
		return EventActionPlanArchived
	}
}

// MarshalPayload encodes an event payload for the outbox record.
func MarshalPayload(payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return []byte("{}")
	}
	return data
}
