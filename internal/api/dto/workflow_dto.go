package dto

import (
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// CreateTaskRequest payload.
type CreateTaskRequest struct {
	Type         string  `json:"type"`
	AssignedTo   *string `json:"assigned_to"`
	ActionPlanID *string `json:"action_plan_id"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	TargetState string `json:"target_state"`
}

// TaskResponse response.
type TaskResponse struct {
	ID           string           `json:"id"`
	Type         domain.TaskType  `json:"type"`
	State        domain.TaskState `json:"state"`
	CreatedBy    string           `json:"created_by"`
	AssignedTo   *string          `json:"assigned_to"`
	ActionPlanID *string          `json:"action_plan_id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// SLARecordResponse response.
type SLARecordResponse struct {
	ID          string     `json:"id"`
	SLAConfigID string     `json:"sla_config_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Breached    bool       `json:"breached"`
}

// TaskDetailResponse provides full task info.
type TaskDetailResponse struct {
	TaskResponse
	SLARecords []SLARecordResponse `json:"sla_records"`
}

// CreateActionPlanRequest payload.
type CreateActionPlanRequest struct {
	OwnerID string `json:"owner_id"`
}

// ActionPlanResponse response.
type ActionPlanResponse struct {
	ID        string                 `json:"id"`
	OwnerID   string                 `json:"owner_id"`
	State     domain.ActionPlanState `json:"state"`
	Version   int                    `json:"version"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// FromTask maps a domain task.
func FromTask(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:           task.ID,
		Type:         task.Type,
		State:        task.State,
		CreatedBy:    task.CreatedBy,
		AssignedTo:   task.AssignedTo,
		ActionPlanID: task.ActionPlanID,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

// FromTaskDetail maps a task with its SLA records.
func FromTaskDetail(task *domain.Task, records []domain.SLARecord) TaskDetailResponse {
	detail := TaskDetailResponse{
		TaskResponse: FromTask(task),
		SLARecords:   make([]SLARecordResponse, 0, len(records)),
	}
	for _, record := range records {
		detail.SLARecords = append(detail.SLARecords, SLARecordResponse{
			ID:          record.ID,
			SLAConfigID: record.SLAConfigID,
			StartedAt:   record.StartedAt,
			CompletedAt: record.CompletedAt,
			Breached:    record.Breached,
		})
	}
	return detail
}

// FromActionPlan maps a domain plan.
func FromActionPlan(plan *domain.ActionPlan) ActionPlanResponse {
	return ActionPlanResponse{
		ID:        plan.ID,
		OwnerID:   plan.OwnerID,
		State:     plan.State,
		Version:   plan.Version,
		CreatedAt: plan.CreatedAt,
		UpdatedAt: plan.UpdatedAt,
	}
}
