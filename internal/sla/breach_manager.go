package sla

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/observability"
	"github.com/spec-kit/workflow-service/internal/repository"
)

// BreachManager owns the breach lifecycle: one instance per (definition,
// subject), at most one open breach per instance, escalation on repeated
// failure instead of duplication.
type BreachManager struct {
	instances repository.SLAInstanceRepository
	breaches  repository.SLABreachRepository
	logger    *zap.Logger
	metrics   *observability.Metrics

	// Now is swappable for tests.
	Now func() time.Time
}

// NewBreachManager constructs the manager.
func NewBreachManager(instances repository.SLAInstanceRepository, breaches repository.SLABreachRepository, logger *zap.Logger, metrics *observability.Metrics) *BreachManager {
	return &BreachManager{
		instances: instances,
		breaches:  breaches,
		logger:    logger,
		metrics:   metrics,
		Now:       time.Now,
	}
}

// GetOrCreateInstance upserts the instance for (definition, subject) with the
// latest measured value. Duplicate active instances for the same subject
// cannot occur: the store keys on the pair.
func (m *BreachManager) GetOrCreateInstance(ctx context.Context, def *domain.SLADefinition, subject string, value float64) (*domain.SLAInstance, error) {
	instance := &domain.SLAInstance{
		ID:           uuid.NewString(),
		DefinitionID: def.ID,
		Subject:      subject,
		CurrentValue: value,
		Status:       domain.SLAInstanceActive,
	}
	if err := m.instances.Upsert(ctx, instance); err != nil {
		return nil, err
	}
	return instance, nil
}

// RecordFailure opens a breach for the instance, or escalates the one already
// open. Severity is recomputed from the latest value either way.
func (m *BreachManager) RecordFailure(ctx context.Context, def *domain.SLADefinition, instance *domain.SLAInstance, value float64) error {
	severity := CalculateSeverity(value, def.TargetNumeric, def.ObjectiveType)

	open, err := m.breaches.FindOpenByInstance(ctx, instance.ID)
	if err != nil {
		return err
	}
	if open != nil {
		if err := m.breaches.Escalate(ctx, open.ID, value, severity); err != nil {
			return err
		}
		m.metrics.BreachEscalated(string(severity))
		m.logger.Warn("sla breach escalated",
			zap.String("definition", def.Slug),
			zap.String("subject", instance.Subject),
			zap.Float64("value", value),
			zap.Int("escalation_level", open.EscalationLevel+1))
	} else {
		breach := &domain.SLABreach{
			ID:              uuid.NewString(),
			InstanceID:      instance.ID,
			DefinitionID:    def.ID,
			BreachValue:     value,
			TargetValue:     def.TargetNumeric,
			Severity:        severity,
			Status:          domain.BreachOpen,
			EscalationLevel: 0,
			OpenedAt:        m.Now(),
		}
		if err := m.breaches.Create(ctx, breach); err != nil {
			return err
		}
		m.metrics.BreachOpened(string(severity))
		m.logger.Warn("sla breach opened",
			zap.String("definition", def.Slug),
			zap.String("subject", instance.Subject),
			zap.Float64("value", value),
			zap.Float64("target", def.TargetNumeric),
			zap.String("severity", string(severity)))
	}

	if instance.Status != domain.SLAInstanceBreached {
		if err := m.instances.UpdateStatus(ctx, instance.ID, domain.SLAInstanceBreached); err != nil {
			return err
		}
		instance.Status = domain.SLAInstanceBreached
	}
	return nil
}

// RecordRecovery resolves the open breach for a now-passing instance, if any.
func (m *BreachManager) RecordRecovery(ctx context.Context, def *domain.SLADefinition, instance *domain.SLAInstance) error {
	open, err := m.breaches.FindOpenByInstance(ctx, instance.ID)
	if err != nil {
		return err
	}
	if open != nil {
		if err := m.breaches.Resolve(ctx, open.ID, m.Now()); err != nil {
			return err
		}
		m.metrics.BreachResolved(string(open.Severity))
		m.logger.Info("sla breach resolved",
			zap.String("definition", def.Slug),
			zap.String("subject", instance.Subject))
	}
	if instance.Status == domain.SLAInstanceBreached {
		if err := m.instances.UpdateStatus(ctx, instance.ID, domain.SLAInstanceResolved); err != nil {
			return err
		}
		instance.Status = domain.SLAInstanceResolved
	}
	return nil
}
