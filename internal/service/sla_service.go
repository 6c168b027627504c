package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/observability"
	"github.com/spec-kit/workflow-service/internal/repository"
	apperrors "github.com/spec-kit/workflow-service/pkg/util/errorutil"
)

// SLAService exposes SLA configuration and operational stats.
type SLAService struct {
	configs     repository.SLAConfigRepository
	definitions repository.SLADefinitionRepository
	breaches    repository.SLABreachRepository
	records     repository.SLARecordRepository
	outbox      repository.OutboxRepository
	tasks       repository.TaskRepository
	metrics     *observability.Metrics
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	ConfigRepo     repository.SLAConfigRepository
	DefinitionRepo repository.SLADefinitionRepository
	BreachRepo     repository.SLABreachRepository
	RecordRepo     repository.SLARecordRepository
	OutboxRepo     repository.OutboxRepository
	TaskRepo       repository.TaskRepository
	Metrics        *observability.Metrics
}

// SLAConfigInput describes config creation payload.
type SLAConfigInput struct {
	ServiceArea   string
	TaskType      *domain.TaskType
	TargetMinutes int
	Active        bool
}

// WorkflowStats aggregates operational counters for the stats endpoint.
type WorkflowStats struct {
	TasksByState    map[domain.TaskState]int64      `json:"tasks_by_state"`
	Outbox          repository.OutboxStats          `json:"outbox"`
	OpenBreaches    map[domain.BreachSeverity]int64 `json:"open_breaches_by_severity"`
	BreachedRecords int64                           `json:"breached_sla_records"`
	Counters        observability.WorkflowSnapshot  `json:"counters"`
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	return &SLAService{
		configs:     deps.ConfigRepo,
		definitions: deps.DefinitionRepo,
		breaches:    deps.BreachRepo,
		records:     deps.RecordRepo,
		outbox:      deps.OutboxRepo,
		tasks:       deps.TaskRepo,
		metrics:     deps.Metrics,
	}
}

// CreateConfig adds a per-task SLA config.
func (s *SLAService) CreateConfig(ctx context.Context, input SLAConfigInput) (*domain.SLAConfig, error) {
	if strings.TrimSpace(input.ServiceArea) == "" {
		return nil, apperrors.NewValidationError("service_area required", nil)
	}
	if input.TargetMinutes <= 0 {
		return nil, apperrors.NewValidationError("target_minutes must be positive", nil)
	}
	config := &domain.SLAConfig{
		ID:            uuid.NewString(),
		ServiceArea:   input.ServiceArea,
		TaskType:      input.TaskType,
		TargetMinutes: input.TargetMinutes,
		Active:        input.Active,
	}
	if err := s.configs.Create(ctx, config); err != nil {
		return nil, apperrors.MapError(err)
	}
	return config, nil
}

// ListConfigs returns all configs, optionally active only.
func (s *SLAService) ListConfigs(ctx context.Context, activeOnly bool) ([]domain.SLAConfig, error) {
	configs, err := s.configs.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return configs, nil
}

// ListDefinitions returns the platform SLA catalog.
func (s *SLAService) ListDefinitions(ctx context.Context) ([]domain.SLADefinition, error) {
	defs, err := s.definitions.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return defs, nil
}

// ListBreaches returns breaches filtered by status.
func (s *SLAService) ListBreaches(ctx context.Context, statuses []domain.BreachStatus, limit int) ([]domain.SLABreach, error) {
	breaches, err := s.breaches.ListByStatus(ctx, statuses, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return breaches, nil
}

// Stats aggregates workflow operational counters.
func (s *SLAService) Stats(ctx context.Context) (*WorkflowStats, error) {
	tasksByState, err := s.tasks.CountByState(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	outboxStats, err := s.outbox.Stats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	openBreaches, err := s.breaches.CountOpenBySeverity(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	breachedRecords, err := s.records.CountBreached(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &WorkflowStats{
		TasksByState:    tasksByState,
		Outbox:          outboxStats,
		OpenBreaches:    openBreaches,
		BreachedRecords: breachedRecords,
		Counters:        s.metrics.Snapshot(),
	}, nil
}
