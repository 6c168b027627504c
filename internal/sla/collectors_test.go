package sla

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workflow-service/internal/domain"
)

type fakeLatencySource struct {
	avg      float64
	count    int64
	err      error
	lastType *domain.TaskType
	since    time.Time
}

func (s *fakeLatencySource) AvgCompletionLatencyMinutes(ctx context.Context, taskType *domain.TaskType, since time.Time) (float64, int64, error) {
	s.lastType = taskType
	s.since = since
	return s.avg, s.count, s.err
}

type fakePipelineSource struct {
	lastRun *time.Time
	err     error
}

func (s *fakePipelineSource) LastCompleted(ctx context.Context, pipeline string) (*time.Time, error) {
	return s.lastRun, s.err
}

func TestTaskLatencyCollectorWindow(t *testing.T) {
	source := &fakeLatencySource{avg: 42.5, count: 12}
	collector := NewTaskLatencyCollector(source)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	collector.now = func() time.Time { return now }

	sample, err := collector.Collect(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, "platform", sample.Subject)
	require.Equal(t, 42.5, sample.Value)
	require.Equal(t, int64(12), sample.Count)
	require.Nil(t, source.lastType)
	require.Equal(t, now.Add(-24*time.Hour), source.since)
}

func TestTaskLatencyCollectorPropagatesSourceError(t *testing.T) {
	source := &fakeLatencySource{err: errors.New("db down")}
	collector := NewTaskLatencyCollector(source)

	_, err := collector.Collect(context.Background(), time.Hour)
	require.Error(t, err)
}

func TestConsentLatencyCollectorFiltersByType(t *testing.T) {
	source := &fakeLatencySource{avg: 90, count: 3}
	collector := NewConsentLatencyCollector(source)

	sample, err := collector.Collect(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Equal(t, 90.0, sample.Value)
	require.NotNil(t, source.lastType)
	require.Equal(t, domain.TaskTypeConsentReview, *source.lastType)
}

func TestFreshnessCollectorNeverRanIsInfinitelyStale(t *testing.T) {
	collector := NewFreshnessCollector(&fakePipelineSource{}, "analytics-projection")

	sample, err := collector.Collect(context.Background(), time.Hour)
	require.NoError(t, err)
	require.True(t, math.IsInf(sample.Value, 1))
	require.Nil(t, sample.LastRun)

	// The sentinel must fail any finite target.
	require.False(t, EvaluateObjective(sample.Value, 60, domain.OperatorLTE))
	require.Equal(t, domain.SeverityCritical, CalculateSeverity(sample.Value, 60, domain.ObjectiveFreshness))
}

func TestFreshnessCollectorMinutesSinceLastRun(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lastRun := now.Add(-45 * time.Minute)
	collector := NewFreshnessCollector(&fakePipelineSource{lastRun: &lastRun}, "analytics-projection")
	collector.now = func() time.Time { return now }

	sample, err := collector.Collect(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Equal(t, 45.0, sample.Value)
	require.NotNil(t, sample.LastRun)
}

func TestFreshnessCollectorClampsFutureRunToZero(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lastRun := now.Add(2 * time.Minute)
	collector := NewFreshnessCollector(&fakePipelineSource{lastRun: &lastRun}, "analytics-projection")
	collector.now = func() time.Time { return now }

	sample, err := collector.Collect(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Equal(t, 0.0, sample.Value)
}
