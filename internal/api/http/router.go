package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workflow-service/internal/api/http/handlers"
	"github.com/spec-kit/workflow-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Workflow       *handlers.WorkflowHandler
	SLA            *handlers.SLAHandler
	AuthMiddleware *auth.Middleware
	OpsGuard       *auth.OpsKeyGuard
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	workflowGroup := app.Group("/workflow", cfg.AuthMiddleware.Handle)

	workflowGroup.Post("/tasks", cfg.Workflow.CreateTask)
	workflowGroup.Get("/tasks", cfg.Workflow.ListTasks)
	workflowGroup.Get("/tasks/:id", cfg.Workflow.GetTask)
	workflowGroup.Post("/tasks/:id/transition", cfg.Workflow.TransitionTask)

	workflowGroup.Post("/action-plans", cfg.Workflow.CreateActionPlan)
	workflowGroup.Get("/action-plans/:id", cfg.Workflow.GetActionPlan)
	workflowGroup.Post("/action-plans/:id/activate", cfg.Workflow.ActivateActionPlan)
	workflowGroup.Post("/action-plans/:id/archive", cfg.Workflow.ArchiveActionPlan)

	workflowGroup.Get("/metadata", cfg.Workflow.Metadata)
	workflowGroup.Get("/stats", cfg.SLA.Stats)

	workflowGroup.Post("/sla-configs", cfg.OpsGuard.Handle, cfg.SLA.CreateConfig)
	workflowGroup.Get("/sla-configs", cfg.SLA.ListConfigs)
	workflowGroup.Get("/sla-definitions", cfg.SLA.ListDefinitions)
	workflowGroup.Get("/sla-breaches", cfg.SLA.ListBreaches)
}
