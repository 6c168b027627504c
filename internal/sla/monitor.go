package sla

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/observability"
	"github.com/spec-kit/workflow-service/internal/repository"
)

// Monitor runs one evaluation pass of the full SLA catalog. The worker
// runtime schedules it; the monitor itself holds no loop state.
type Monitor struct {
	definitions repository.SLADefinitionRepository
	records     repository.SLARecordRepository
	collectors  map[string]Collector
	breaches    *BreachManager
	logger      *zap.Logger
	metrics     *observability.Metrics

	// Now is swappable for tests.
	Now func() time.Time
}

// NewMonitor constructs the monitor. Collectors are keyed by definition slug;
// a definition with no registered collector is skipped.
func NewMonitor(
	definitions repository.SLADefinitionRepository,
	records repository.SLARecordRepository,
	collectors []Collector,
	breaches *BreachManager,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *Monitor {
	bySlug := make(map[string]Collector, len(collectors))
	for _, collector := range collectors {
		bySlug[collector.Slug()] = collector
	}
	return &Monitor{
		definitions: definitions,
		records:     records,
		collectors:  bySlug,
		breaches:    breaches,
		logger:      logger,
		metrics:     metrics,
		Now:         time.Now,
	}
}

// RunPass evaluates every enabled definition against its collector and flags
// overdue per-task SLA records. Collector failures are isolated per
// definition: the pass logs and moves on rather than aborting.
func (m *Monitor) RunPass(ctx context.Context) error {
	flagged, err := m.records.MarkOverdueOpenRecords(ctx, m.Now())
	if err != nil {
		return err
	}
	if flagged > 0 {
		m.logger.Warn("overdue sla records flagged", zap.Int64("count", flagged))
	}

	defs, err := m.definitions.ListEnabled(ctx)
	if err != nil {
		return err
	}

	for _, def := range defs {
		if err := m.evaluateDefinition(ctx, &def); err != nil {
			m.logger.Error("sla evaluation failed",
				zap.String("definition", def.Slug),
				zap.Error(err))
		}
	}
	return nil
}

func (m *Monitor) evaluateDefinition(ctx context.Context, def *domain.SLADefinition) error {
	collector, ok := m.collectors[def.Slug]
	if !ok {
		m.logger.Debug("no collector registered for definition", zap.String("slug", def.Slug))
		return nil
	}

	window := time.Duration(def.WindowMinutes) * time.Minute
	sample, err := collector.Collect(ctx, window)
	if err != nil {
		// Transient source failure: log, keep last known instance state,
		// retry next pass.
		m.logger.Warn("collector unavailable",
			zap.String("collector", collector.Slug()),
			zap.Error(err))
		return nil
	}

	instance, err := m.breaches.GetOrCreateInstance(ctx, def, sample.Subject, sample.Value)
	if err != nil {
		return err
	}

	if EvaluateObjective(sample.Value, def.TargetNumeric, def.Operator) {
		return m.breaches.RecordRecovery(ctx, def, instance)
	}
	return m.breaches.RecordFailure(ctx, def, instance, sample.Value)
}
