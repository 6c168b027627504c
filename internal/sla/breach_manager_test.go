package sla

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/observability"
)

type fakeInstanceRepo struct {
	byKey    map[string]*domain.SLAInstance
	statuses map[string]domain.SLAInstanceStatus
}

func newFakeInstanceRepo() *fakeInstanceRepo {
	return &fakeInstanceRepo{
		byKey:    make(map[string]*domain.SLAInstance),
		statuses: make(map[string]domain.SLAInstanceStatus),
	}
}

func (r *fakeInstanceRepo) Upsert(ctx context.Context, instance *domain.SLAInstance) error {
	key := instance.DefinitionID + "|" + instance.Subject
	if existing, ok := r.byKey[key]; ok {
		existing.CurrentValue = instance.CurrentValue
		*instance = *existing
		return nil
	}
	stored := *instance
	r.byKey[key] = &stored
	return nil
}

func (r *fakeInstanceRepo) UpdateStatus(ctx context.Context, instanceID string, status domain.SLAInstanceStatus) error {
	r.statuses[instanceID] = status
	for _, instance := range r.byKey {
		if instance.ID == instanceID {
			instance.Status = status
		}
	}
	return nil
}

func (r *fakeInstanceRepo) GetByDefinitionAndSubject(ctx context.Context, definitionID, subject string) (*domain.SLAInstance, error) {
	instance, ok := r.byKey[definitionID+"|"+subject]
	if !ok {
		return nil, nil
	}
	copied := *instance
	return &copied, nil
}

type fakeBreachRepo struct {
	created    []*domain.SLABreach
	escalated  map[string]int
	resolved   map[string]time.Time
	openByInst map[string]*domain.SLABreach
}

func newFakeBreachRepo() *fakeBreachRepo {
	return &fakeBreachRepo{
		escalated:  make(map[string]int),
		resolved:   make(map[string]time.Time),
		openByInst: make(map[string]*domain.SLABreach),
	}
}

func (r *fakeBreachRepo) Create(ctx context.Context, breach *domain.SLABreach) error {
	stored := *breach
	r.created = append(r.created, &stored)
	r.openByInst[breach.InstanceID] = &stored
	return nil
}

func (r *fakeBreachRepo) FindOpenByInstance(ctx context.Context, instanceID string) (*domain.SLABreach, error) {
	breach, ok := r.openByInst[instanceID]
	if !ok {
		return nil, nil
	}
	copied := *breach
	return &copied, nil
}

func (r *fakeBreachRepo) Escalate(ctx context.Context, breachID string, breachValue float64, severity domain.BreachSeverity) error {
	r.escalated[breachID]++
	for _, breach := range r.openByInst {
		if breach.ID == breachID {
			breach.Status = domain.BreachEscalated
			breach.EscalationLevel++
			breach.BreachValue = breachValue
			breach.Severity = severity
		}
	}
	return nil
}

func (r *fakeBreachRepo) Resolve(ctx context.Context, breachID string, resolvedAt time.Time) error {
	r.resolved[breachID] = resolvedAt
	for instanceID, breach := range r.openByInst {
		if breach.ID == breachID {
			delete(r.openByInst, instanceID)
		}
	}
	return nil
}

func (r *fakeBreachRepo) ListByStatus(ctx context.Context, statuses []domain.BreachStatus, limit int) ([]domain.SLABreach, error) {
	return nil, nil
}

func (r *fakeBreachRepo) CountOpenBySeverity(ctx context.Context) (map[domain.BreachSeverity]int64, error) {
	return map[domain.BreachSeverity]int64{}, nil
}

func latencyDefinition() *domain.SLADefinition {
	return &domain.SLADefinition{
		ID:            "def-1",
		Slug:          SlugTaskCompletionLatency,
		ObjectiveType: domain.ObjectiveLatency,
		TargetNumeric: 60,
		WindowMinutes: 1440,
		Operator:      domain.OperatorLT,
		Enabled:       true,
	}
}

func TestRecordFailureOpensSingleBreach(t *testing.T) {
	instances := newFakeInstanceRepo()
	breaches := newFakeBreachRepo()
	manager := NewBreachManager(instances, breaches, zap.NewNop(), observability.NewMetrics())

	def := latencyDefinition()
	instance, err := manager.GetOrCreateInstance(context.Background(), def, "platform", 130)
	require.NoError(t, err)

	require.NoError(t, manager.RecordFailure(context.Background(), def, instance, 130))
	require.Len(t, breaches.created, 1)
	require.Equal(t, domain.SeverityHigh, breaches.created[0].Severity)
	require.Equal(t, 0, breaches.created[0].EscalationLevel)
	require.Equal(t, domain.SLAInstanceBreached, instances.statuses[instance.ID])
}

func TestRecordFailureEscalatesInsteadOfDuplicating(t *testing.T) {
	instances := newFakeInstanceRepo()
	breaches := newFakeBreachRepo()
	manager := NewBreachManager(instances, breaches, zap.NewNop(), observability.NewMetrics())

	def := latencyDefinition()
	instance, err := manager.GetOrCreateInstance(context.Background(), def, "platform", 130)
	require.NoError(t, err)

	require.NoError(t, manager.RecordFailure(context.Background(), def, instance, 130))
	require.NoError(t, manager.RecordFailure(context.Background(), def, instance, 200))

	require.Len(t, breaches.created, 1)
	breach := breaches.openByInst[instance.ID]
	require.Equal(t, 1, breaches.escalated[breach.ID])
	require.Equal(t, domain.BreachEscalated, breach.Status)
	require.Equal(t, 1, breach.EscalationLevel)
	require.Equal(t, 200.0, breach.BreachValue)
	require.Equal(t, domain.SeverityCritical, breach.Severity)
}

func TestRecordRecoveryResolvesOpenBreach(t *testing.T) {
	instances := newFakeInstanceRepo()
	breaches := newFakeBreachRepo()
	manager := NewBreachManager(instances, breaches, zap.NewNop(), observability.NewMetrics())
	resolvedAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	manager.Now = func() time.Time { return resolvedAt }

	def := latencyDefinition()
	instance, err := manager.GetOrCreateInstance(context.Background(), def, "platform", 130)
	require.NoError(t, err)
	require.NoError(t, manager.RecordFailure(context.Background(), def, instance, 130))
	breachID := breaches.created[0].ID

	require.NoError(t, manager.RecordRecovery(context.Background(), def, instance))
	require.Equal(t, resolvedAt, breaches.resolved[breachID])
	require.Empty(t, breaches.openByInst)
	require.Equal(t, domain.SLAInstanceResolved, instances.statuses[instance.ID])
}

func TestRecordRecoveryWithoutOpenBreachIsNoop(t *testing.T) {
	instances := newFakeInstanceRepo()
	breaches := newFakeBreachRepo()
	manager := NewBreachManager(instances, breaches, zap.NewNop(), observability.NewMetrics())

	def := latencyDefinition()
	instance, err := manager.GetOrCreateInstance(context.Background(), def, "platform", 10)
	require.NoError(t, err)

	require.NoError(t, manager.RecordRecovery(context.Background(), def, instance))
	require.Empty(t, breaches.resolved)
	require.NotContains(t, instances.statuses, instance.ID)
}

func TestUpsertKeepsOneInstancePerSubject(t *testing.T) {
	instances := newFakeInstanceRepo()
	breaches := newFakeBreachRepo()
	manager := NewBreachManager(instances, breaches, zap.NewNop(), observability.NewMetrics())

	def := latencyDefinition()
	first, err := manager.GetOrCreateInstance(context.Background(), def, "platform", 10)
	require.NoError(t, err)
	second, err := manager.GetOrCreateInstance(context.Background(), def, "platform", 20)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 20.0, second.CurrentValue)
	require.Len(t, instances.byKey, 1)
}
