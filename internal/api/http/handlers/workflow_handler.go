package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workflow-service/internal/api/dto"
	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/repository"
	"github.com/spec-kit/workflow-service/internal/service"
	apperrors "github.com/spec-kit/workflow-service/pkg/util/errorutil"
)

// WorkflowHandler manages task and action plan endpoints.
type WorkflowHandler struct {
	workflow *service.WorkflowService
}

// NewWorkflowHandler constructs handler.
func NewWorkflowHandler(workflowService *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflowService}
}

// CreateTask POST /workflow/tasks.
func (h *WorkflowHandler) CreateTask(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Type) == "" {
		return apperrors.NewValidationError("type required", nil)
	}

	task, err := h.workflow.CreateTask(c.UserContext(), actor, service.TaskCreateInput{
		Type:         domain.TaskType(req.Type),
		AssignedTo:   req.AssignedTo,
		ActionPlanID: req.ActionPlanID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromTask(task)})
}

// TransitionTask POST /workflow/tasks/:id/transition.
func (h *WorkflowHandler) TransitionTask(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.TargetState) == "" {
		return apperrors.NewValidationError("target_state required", nil)
	}

	task, err := h.workflow.TransitionTask(c.UserContext(), actor, c.Params("id"), domain.TaskState(req.TargetState))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTask(task)})
}

// GetTask GET /workflow/tasks/:id.
func (h *WorkflowHandler) GetTask(c *fiber.Ctx) error {
	task, records, err := h.workflow.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTaskDetail(task, records)})
}

// ListTasks GET /workflow/tasks.
func (h *WorkflowHandler) ListTasks(c *fiber.Ctx) error {
	filter := parseTaskQuery(c)
	tasks, err := h.workflow.ListTasks(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, dto.FromTask(&tasks[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateActionPlan POST /workflow/action-plans.
func (h *WorkflowHandler) CreateActionPlan(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CreateActionPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ownerID := req.OwnerID
	if ownerID == "" {
		ownerID = actor
	}

	plan, err := h.workflow.CreateActionPlan(c.UserContext(), ownerID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromActionPlan(plan)})
}

// ActivateActionPlan POST /workflow/action-plans/:id/activate.
func (h *WorkflowHandler) ActivateActionPlan(c *fiber.Ctx) error {
	return h.transitionPlan(c, domain.ActionPlanStateActive)
}

// ArchiveActionPlan POST /workflow/action-plans/:id/archive.
func (h *WorkflowHandler) ArchiveActionPlan(c *fiber.Ctx) error {
	return h.transitionPlan(c, domain.ActionPlanStateArchived)
}

func (h *WorkflowHandler) transitionPlan(c *fiber.Ctx, target domain.ActionPlanState) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	plan, err := h.workflow.TransitionActionPlan(c.UserContext(), actor, c.Params("id"), target)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromActionPlan(plan)})
}

// GetActionPlan GET /workflow/action-plans/:id.
func (h *WorkflowHandler) GetActionPlan(c *fiber.Ctx) error {
	plan, err := h.workflow.GetActionPlan(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromActionPlan(plan)})
}

// Metadata GET /workflow/metadata.
func (h *WorkflowHandler) Metadata(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.workflow.Metadata()})
}

func parseTaskQuery(c *fiber.Ctx) repository.TaskFilter {
	filter := repository.TaskFilter{
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if states := c.Query("state"); states != "" {
		for _, state := range strings.Split(states, ",") {
			filter.States = append(filter.States, domain.TaskState(strings.TrimSpace(state)))
		}
	}
	if taskType := c.Query("task_type"); taskType != "" {
		value := domain.TaskType(taskType)
		filter.TaskType = &value
	}
	if createdBy := c.Query("created_by"); createdBy != "" {
		filter.CreatedBy = &createdBy
	}
	if assignedTo := c.Query("assigned_to"); assignedTo != "" {
		filter.AssignedTo = &assignedTo
	}
	if planID := c.Query("action_plan_id"); planID != "" {
		filter.ActionPlanID = &planID
	}
	return filter
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	val := c.Query(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
