package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workflow-service/internal/api/dto"
	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/service"
	apperrors "github.com/spec-kit/workflow-service/pkg/util/errorutil"
)

// SLAHandler manages SLA config, catalog, and stats endpoints.
type SLAHandler struct {
	sla *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{sla: slaService}
}

// CreateConfig POST /workflow/sla-configs.
func (h *SLAHandler) CreateConfig(c *fiber.Ctx) error {
	var req dto.CreateSLAConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.SLAConfigInput{
		ServiceArea:   req.ServiceArea,
		TargetMinutes: req.TargetMinutes,
		Active:        true,
	}
	if req.Active != nil {
		input.Active = *req.Active
	}
	if req.TaskType != nil && strings.TrimSpace(*req.TaskType) != "" {
		taskType := domain.TaskType(*req.TaskType)
		input.TaskType = &taskType
	}

	config, err := h.sla.CreateConfig(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromSLAConfig(config)})
}

// ListConfigs GET /workflow/sla-configs.
func (h *SLAHandler) ListConfigs(c *fiber.Ctx) error {
	activeOnly := c.Query("active") == "true"
	configs, err := h.sla.ListConfigs(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	items := make([]dto.SLAConfigResponse, 0, len(configs))
	for i := range configs {
		items = append(items, dto.FromSLAConfig(&configs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListDefinitions GET /workflow/sla-definitions.
func (h *SLAHandler) ListDefinitions(c *fiber.Ctx) error {
	defs, err := h.sla.ListDefinitions(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.SLADefinitionResponse, 0, len(defs))
	for i := range defs {
		items = append(items, dto.FromSLADefinition(&defs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListBreaches GET /workflow/sla-breaches.
func (h *SLAHandler) ListBreaches(c *fiber.Ctx) error {
	var statuses []domain.BreachStatus
	if raw := c.Query("status"); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			statuses = append(statuses, domain.BreachStatus(strings.TrimSpace(status)))
		}
	}
	breaches, err := h.sla.ListBreaches(c.UserContext(), statuses, parseIntQuery(c, "limit", 50))
	if err != nil {
		return err
	}
	items := make([]dto.SLABreachResponse, 0, len(breaches))
	for i := range breaches {
		items = append(items, dto.FromSLABreach(&breaches[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Stats GET /workflow/stats.
func (h *SLAHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.sla.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
