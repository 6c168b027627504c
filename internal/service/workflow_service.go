package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/observability"
	"github.com/spec-kit/workflow-service/internal/repository"
	"github.com/spec-kit/workflow-service/internal/workflow"
	apperrors "github.com/spec-kit/workflow-service/pkg/util/errorutil"
)

// ServiceAreaWorkflow scopes the per-task SLA configs owned by this core.
const ServiceAreaWorkflow = "workflow"

// WorkflowService coordinates task and action plan lifecycles. Every state
// mutation goes through the transition engine; creation opens SLA tracking.
type WorkflowService struct {
	store      repository.WorkflowStore
	tasks      repository.TaskRepository
	plans      repository.ActionPlanRepository
	slaConfigs repository.SLAConfigRepository
	slaRecords repository.SLARecordRepository
	engine     *workflow.Engine
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	Store         repository.WorkflowStore
	TaskRepo      repository.TaskRepository
	PlanRepo      repository.ActionPlanRepository
	SLAConfigRepo repository.SLAConfigRepository
	SLARecordRepo repository.SLARecordRepository
	Engine        *workflow.Engine
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

// TaskCreateInput describes task creation payload.
type TaskCreateInput struct {
	Type         domain.TaskType
	AssignedTo   *string
	ActionPlanID *string
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	return &WorkflowService{
		store:      deps.Store,
		tasks:      deps.TaskRepo,
		plans:      deps.PlanRepo,
		slaConfigs: deps.SLAConfigRepo,
		slaRecords: deps.SLARecordRepo,
		engine:     deps.Engine,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// CreateTask creates a task in state new, appends its creation event, and
// opens SLA tracking against the most specific matching config, all in one
// transaction.
func (s *WorkflowService) CreateTask(ctx context.Context, actor string, input TaskCreateInput) (*domain.Task, error) {
	taskType := domain.TaskType(strings.TrimSpace(string(input.Type)))
	if taskType == "" {
		return nil, apperrors.NewValidationError("task type required", nil)
	}
	return s.createTask(ctx, taskType, actor, input.AssignedTo, input.ActionPlanID, uuid.NewString())
}

// CreateFollowUpTask spawns an automation-created task carrying the
// correlation id of the event that triggered it.
func (s *WorkflowService) CreateFollowUpTask(ctx context.Context, taskType domain.TaskType, createdBy string, actionPlanID *string, correlationID string) (*domain.Task, error) {
	return s.createTask(ctx, taskType, createdBy, nil, actionPlanID, correlationID)
}

func (s *WorkflowService) createTask(ctx context.Context, taskType domain.TaskType, createdBy string, assignedTo, actionPlanID *string, correlationID string) (*domain.Task, error) {
	if actionPlanID != nil {
		if _, err := s.plans.GetByID(ctx, *actionPlanID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("action plan", map[string]any{"action_plan_id": *actionPlanID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	now := time.Now()
	task := &domain.Task{
		ID:           uuid.NewString(),
		Type:         taskType,
		State:        domain.TaskStateNew,
		CreatedBy:    createdBy,
		AssignedTo:   assignedTo,
		ActionPlanID: actionPlanID,
	}

	event := &domain.OutboxEvent{
		ID:            uuid.NewString(),
		EventType:     string(events.EventTaskCreated),
		AggregateType: domain.AggregateTask,
		AggregateID:   task.ID,
		CorrelationID: correlationID,
		Payload: events.MarshalPayload(events.TaskCreatedPayload{
			TaskType:     task.Type,
			CreatedBy:    createdBy,
			AssignedTo:   assignedTo,
			ActionPlanID: actionPlanID,
		}),
		CreatedAt: now,
	}

	record, err := s.openSLARecord(ctx, task, now)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.store.CreateTask(ctx, task, event, record); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("task created",
		zap.String("task_id", task.ID),
		zap.String("task_type", string(task.Type)),
		zap.String("created_by", createdBy))
	return task, nil
}

func (s *WorkflowService) openSLARecord(ctx context.Context, task *domain.Task, now time.Time) (*domain.SLARecord, error) {
	config, err := s.slaConfigs.FindMatch(ctx, ServiceAreaWorkflow, task.Type)
	if err != nil {
		return nil, err
	}
	if config == nil {
		// No config, not even the catch-all: task simply goes untracked.
		return nil, nil
	}
	return &domain.SLARecord{
		ID:          uuid.NewString(),
		TaskID:      task.ID,
		SLAConfigID: config.ID,
		StartedAt:   now,
	}, nil
}

// TransitionTask applies the requested state to the task.
func (s *WorkflowService) TransitionTask(ctx context.Context, actor, taskID string, target domain.TaskState) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return nil, apperrors.MapError(err)
	}

	if _, err := s.engine.TransitionTask(ctx, task, target, actor); err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "INVALID_TRANSITION" {
			s.metrics.TransitionRejected(string(domain.AggregateTask))
			return nil, err
		}
		return nil, apperrors.MapError(err)
	}
	s.metrics.TransitionApplied(string(domain.AggregateTask))
	return task, nil
}

// GetTask fetches a task with its SLA records.
func (s *WorkflowService) GetTask(ctx context.Context, taskID string) (*domain.Task, []domain.SLARecord, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	records, err := s.slaRecords.ListByTask(ctx, taskID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return task, records, nil
}

// ListTasks returns tasks matching the filter.
func (s *WorkflowService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	tasks, err := s.tasks.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tasks, nil
}

// CreateActionPlan creates a draft plan for the owner.
func (s *WorkflowService) CreateActionPlan(ctx context.Context, ownerID string) (*domain.ActionPlan, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperrors.NewValidationError("owner required", nil)
	}
	plan := &domain.ActionPlan{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		State:   domain.ActionPlanStateDraft,
		Version: 1,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("action plan created",
		zap.String("plan_id", plan.ID),
		zap.String("owner_id", ownerID))
	return plan, nil
}

// TransitionActionPlan applies the requested state to the plan.
func (s *WorkflowService) TransitionActionPlan(ctx context.Context, actor, planID string, target domain.ActionPlanState) (*domain.ActionPlan, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("action plan", map[string]any{"action_plan_id": planID})
		}
		return nil, apperrors.MapError(err)
	}

	if _, err := s.engine.TransitionActionPlan(ctx, plan, target, actor); err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "INVALID_TRANSITION" {
			s.metrics.TransitionRejected(string(domain.AggregateActionPlan))
			return nil, err
		}
		return nil, apperrors.MapError(err)
	}
	s.metrics.TransitionApplied(string(domain.AggregateActionPlan))
	return plan, nil
}

// GetActionPlan fetches a plan by id.
func (s *WorkflowService) GetActionPlan(ctx context.Context, planID string) (*domain.ActionPlan, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("action plan", map[string]any{"action_plan_id": planID})
		}
		return nil, apperrors.MapError(err)
	}
	return plan, nil
}

// Metadata returns the allowed-transition tables.
func (s *WorkflowService) Metadata() map[string]map[string][]string {
	return map[string]map[string][]string{
		"task":        workflow.TaskTransitionTable(),
		"action_plan": workflow.ActionPlanTransitionTable(),
	}
}
