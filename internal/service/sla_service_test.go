package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/observability"
	"github.com/spec-kit/workflow-service/internal/repository"
	apperrors "github.com/spec-kit/workflow-service/pkg/util/errorutil"
)

type memoryDefinitionRepo struct {
	defs []domain.SLADefinition
}

func (r *memoryDefinitionRepo) ListEnabled(ctx context.Context) ([]domain.SLADefinition, error) {
	var enabled []domain.SLADefinition
	for _, def := range r.defs {
		if def.Enabled {
			enabled = append(enabled, def)
		}
	}
	return enabled, nil
}

func (r *memoryDefinitionRepo) List(ctx context.Context) ([]domain.SLADefinition, error) {
	return r.defs, nil
}

func (r *memoryDefinitionRepo) GetBySlug(ctx context.Context, slug string) (*domain.SLADefinition, error) {
	for i := range r.defs {
		if r.defs[i].Slug == slug {
			return &r.defs[i], nil
		}
	}
	return nil, nil
}

type memoryBreachRepo struct {
	breaches []domain.SLABreach
}

func (r *memoryBreachRepo) Create(ctx context.Context, breach *domain.SLABreach) error {
	r.breaches = append(r.breaches, *breach)
	return nil
}

func (r *memoryBreachRepo) FindOpenByInstance(ctx context.Context, instanceID string) (*domain.SLABreach, error) {
	return nil, nil
}

func (r *memoryBreachRepo) Escalate(ctx context.Context, breachID string, breachValue float64, severity domain.BreachSeverity) error {
	return nil
}

func (r *memoryBreachRepo) Resolve(ctx context.Context, breachID string, resolvedAt time.Time) error {
	return nil
}

func (r *memoryBreachRepo) ListByStatus(ctx context.Context, statuses []domain.BreachStatus, limit int) ([]domain.SLABreach, error) {
	if len(statuses) == 0 {
		return r.breaches, nil
	}
	var result []domain.SLABreach
	for _, breach := range r.breaches {
		for _, status := range statuses {
			if breach.Status == status {
				result = append(result, breach)
			}
		}
	}
	return result, nil
}

func (r *memoryBreachRepo) CountOpenBySeverity(ctx context.Context) (map[domain.BreachSeverity]int64, error) {
	counts := make(map[domain.BreachSeverity]int64)
	for _, breach := range r.breaches {
		if breach.Status != domain.BreachResolved {
			counts[breach.Severity]++
		}
	}
	return counts, nil
}

type memoryOutboxRepo struct {
	stats repository.OutboxStats
}

func (r *memoryOutboxRepo) FetchUnprocessed(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	return nil, nil
}

func (r *memoryOutboxRepo) MarkProcessed(ctx context.Context, eventID string, processingErr error) error {
	return nil
}

func (r *memoryOutboxRepo) GetByID(ctx context.Context, eventID string) (*domain.OutboxEvent, error) {
	return nil, nil
}

func (r *memoryOutboxRepo) Stats(ctx context.Context) (repository.OutboxStats, error) {
	return r.stats, nil
}

func slaServiceFixture(t *testing.T) (*SLAService, *memoryStore, *memoryBreachRepo) {
	t.Helper()
	store := newMemoryStore()
	breaches := &memoryBreachRepo{
		breaches: []domain.SLABreach{
			{ID: "br-1", Severity: domain.SeverityHigh, Status: domain.BreachOpen},
			{ID: "br-2", Severity: domain.SeverityLow, Status: domain.BreachEscalated},
			{ID: "br-3", Severity: domain.SeverityHigh, Status: domain.BreachResolved},
		},
	}
	svc := NewSLAService(SLADependencies{
		ConfigRepo: &memoryConfigRepo{store: store},
		DefinitionRepo: &memoryDefinitionRepo{defs: []domain.SLADefinition{
			{ID: "def-1", Slug: "task-completion-latency", Enabled: true},
			{ID: "def-2", Slug: "retired-metric", Enabled: false},
		}},
		BreachRepo: breaches,
		RecordRepo: &memoryRecordRepo{store: store},
		OutboxRepo: &memoryOutboxRepo{stats: repository.OutboxStats{Unprocessed: 4, Processed: 20, Failed: 1}},
		TaskRepo:   &memoryTaskRepo{store: store},
		Metrics:    observability.NewMetrics(),
	})
	return svc, store, breaches
}

func TestCreateConfigValidation(t *testing.T) {
	svc, _, _ := slaServiceFixture(t)

	var domainErr *apperrors.DomainError

	_, err := svc.CreateConfig(context.Background(), SLAConfigInput{ServiceArea: " ", TargetMinutes: 60})
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "VALIDATION_FAILED", domainErr.Code)

	_, err = svc.CreateConfig(context.Background(), SLAConfigInput{ServiceArea: "workflow", TargetMinutes: 0})
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestCreateConfigPersists(t *testing.T) {
	svc, store, _ := slaServiceFixture(t)

	taskType := domain.TaskTypeReview
	config, err := svc.CreateConfig(context.Background(), SLAConfigInput{
		ServiceArea:   "workflow",
		TaskType:      &taskType,
		TargetMinutes: 90,
		Active:        true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, config.ID)
	require.Contains(t, store.configs, config.ID)
	require.Equal(t, 90, store.configs[config.ID].TargetMinutes)
}

func TestListBreachesFiltersByStatus(t *testing.T) {
	svc, _, _ := slaServiceFixture(t)

	open, err := svc.ListBreaches(context.Background(), []domain.BreachStatus{domain.BreachOpen}, 50)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, "br-1", open[0].ID)

	all, err := svc.ListBreaches(context.Background(), nil, 50)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestStatsAggregates(t *testing.T) {
	svc, store, _ := slaServiceFixture(t)
	store.tasks["t1"] = &domain.Task{ID: "t1", State: domain.TaskStateNew}
	store.tasks["t2"] = &domain.Task{ID: "t2", State: domain.TaskStateNew}
	store.tasks["t3"] = &domain.Task{ID: "t3", State: domain.TaskStateCompleted}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.TasksByState[domain.TaskStateNew])
	require.Equal(t, int64(1), stats.TasksByState[domain.TaskStateCompleted])
	require.Equal(t, int64(4), stats.Outbox.Unprocessed)
	require.Equal(t, int64(1), stats.Outbox.Failed)
	require.Equal(t, int64(1), stats.OpenBreaches[domain.SeverityHigh])
	require.Equal(t, int64(1), stats.OpenBreaches[domain.SeverityLow])
}

func TestListDefinitionsReturnsCatalog(t *testing.T) {
	svc, _, _ := slaServiceFixture(t)

	defs, err := svc.ListDefinitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)
}
