package sla

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/observability"
)

type fakeDefinitionRepo struct {
	enabled []domain.SLADefinition
	err     error
}

func (r *fakeDefinitionRepo) ListEnabled(ctx context.Context) ([]domain.SLADefinition, error) {
	return r.enabled, r.err
}

func (r *fakeDefinitionRepo) List(ctx context.Context) ([]domain.SLADefinition, error) {
	return r.enabled, r.err
}

func (r *fakeDefinitionRepo) GetBySlug(ctx context.Context, slug string) (*domain.SLADefinition, error) {
	for i := range r.enabled {
		if r.enabled[i].Slug == slug {
			return &r.enabled[i], nil
		}
	}
	return nil, nil
}

type fakeRecordRepo struct {
	flagged    int64
	overdueErr error
}

func (r *fakeRecordRepo) ListByTask(ctx context.Context, taskID string) ([]domain.SLARecord, error) {
	return nil, nil
}

func (r *fakeRecordRepo) MarkOverdueOpenRecords(ctx context.Context, now time.Time) (int64, error) {
	return r.flagged, r.overdueErr
}

func (r *fakeRecordRepo) CountBreached(ctx context.Context) (int64, error) { return 0, nil }

func (r *fakeRecordRepo) AvgClosedLatencyMinutes(ctx context.Context, taskType domain.TaskType, since time.Time) (float64, int64, error) {
	return 0, 0, nil
}

type scriptedCollector struct {
	slug   string
	sample Sample
	err    error
	calls  int
}

func (c *scriptedCollector) Slug() string { return c.slug }

func (c *scriptedCollector) Collect(ctx context.Context, window time.Duration) (Sample, error) {
	c.calls++
	return c.sample, c.err
}

func monitorFixture(t *testing.T, defs []domain.SLADefinition, collectors []Collector) (*Monitor, *fakeInstanceRepo, *fakeBreachRepo) {
	t.Helper()
	instances := newFakeInstanceRepo()
	breaches := newFakeBreachRepo()
	manager := NewBreachManager(instances, breaches, zap.NewNop(), observability.NewMetrics())
	monitor := NewMonitor(
		&fakeDefinitionRepo{enabled: defs},
		&fakeRecordRepo{},
		collectors,
		manager,
		zap.NewNop(),
		observability.NewMetrics(),
	)
	return monitor, instances, breaches
}

func TestRunPassOpensBreachOnFailingObjective(t *testing.T) {
	def := *latencyDefinition()
	collector := &scriptedCollector{
		slug:   def.Slug,
		sample: Sample{Subject: "platform", Value: 130, Count: 5},
	}
	monitor, _, breaches := monitorFixture(t, []domain.SLADefinition{def}, []Collector{collector})

	require.NoError(t, monitor.RunPass(context.Background()))
	require.Len(t, breaches.created, 1)
	require.Equal(t, 130.0, breaches.created[0].BreachValue)
}

func TestRunPassResolvesOnRecovery(t *testing.T) {
	def := *latencyDefinition()
	collector := &scriptedCollector{
		slug:   def.Slug,
		sample: Sample{Subject: "platform", Value: 130, Count: 5},
	}
	monitor, instances, breaches := monitorFixture(t, []domain.SLADefinition{def}, []Collector{collector})

	require.NoError(t, monitor.RunPass(context.Background()))
	require.Len(t, breaches.openByInst, 1)

	collector.sample.Value = 20
	require.NoError(t, monitor.RunPass(context.Background()))
	require.Empty(t, breaches.openByInst)

	for _, status := range instances.statuses {
		require.Equal(t, domain.SLAInstanceResolved, status)
	}
}

func TestRunPassIsolatesCollectorFailure(t *testing.T) {
	healthy := *latencyDefinition()
	broken := domain.SLADefinition{
		ID:            "def-2",
		Slug:          SlugAnalyticsFreshness,
		ObjectiveType: domain.ObjectiveFreshness,
		TargetNumeric: 60,
		WindowMinutes: 1440,
		Operator:      domain.OperatorLTE,
		Enabled:       true,
	}
	healthyCollector := &scriptedCollector{
		slug:   healthy.Slug,
		sample: Sample{Subject: "platform", Value: 130},
	}
	brokenCollector := &scriptedCollector{
		slug: broken.Slug,
		err:  errors.New("warehouse unreachable"),
	}
	monitor, _, breaches := monitorFixture(t,
		[]domain.SLADefinition{broken, healthy},
		[]Collector{healthyCollector, brokenCollector})

	require.NoError(t, monitor.RunPass(context.Background()))
	require.Equal(t, 1, healthyCollector.calls)
	require.Equal(t, 1, brokenCollector.calls)
	// The failed collector keeps last known state; the healthy one still breaches.
	require.Len(t, breaches.created, 1)
}

func TestRunPassSkipsDefinitionWithoutCollector(t *testing.T) {
	def := *latencyDefinition()
	monitor, instances, breaches := monitorFixture(t, []domain.SLADefinition{def}, nil)

	require.NoError(t, monitor.RunPass(context.Background()))
	require.Empty(t, instances.byKey)
	require.Empty(t, breaches.created)
}

func TestRunPassFailsWhenOverdueFlaggingFails(t *testing.T) {
	instances := newFakeInstanceRepo()
	breaches := newFakeBreachRepo()
	manager := NewBreachManager(instances, breaches, zap.NewNop(), observability.NewMetrics())
	monitor := NewMonitor(
		&fakeDefinitionRepo{},
		&fakeRecordRepo{overdueErr: errors.New("db down")},
		nil,
		manager,
		zap.NewNop(),
		observability.NewMetrics(),
	)

	require.Error(t, monitor.RunPass(context.Background()))
}
