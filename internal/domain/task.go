package domain

import "time"

// TaskState enumerates lifecycle states for tasks.
type TaskState string

const (
	TaskStateNew        TaskState = "new"
	TaskStateInProgress TaskState = "in_progress"
	TaskStateBlocked    TaskState = "blocked"
	TaskStateCompleted  TaskState = "completed"
	TaskStateCancelled  TaskState = "cancelled"
)

// TaskType enumerates known task categories. Unknown values are allowed;
// they fall through to the catch-all SLA config.
type TaskType string

const (
	TaskTypeIntake        TaskType = "intake"
	TaskTypeAssessment    TaskType = "assessment"
	TaskTypeReview        TaskType = "review"
	TaskTypeConsentReview TaskType = "consent_review"
	TaskTypeGeneral       TaskType = "general"
)

// Task is the aggregate for workflow work items.
type Task struct {
	ID           string
	Type         TaskType
	State        TaskState
	CreatedBy    string
	AssignedTo   *string
	ActionPlanID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsTerminal reports whether the task has reached a final state.
func (t *Task) IsTerminal() bool {
	return t.State == TaskStateCompleted || t.State == TaskStateCancelled
}
