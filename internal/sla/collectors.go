package sla

import (
	"context"
	"math"
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// Sample is one metric snapshot. Collectors never fail on missing data; they
// return a sentinel value instead (zero latency with Count 0, or +Inf
// freshness with a nil LastRun when nothing has ever run).
type Sample struct {
	Subject string
	Value   float64
	Count   int64
	LastRun *time.Time
}

// Collector computes one metric snapshot with no side effects.
type Collector interface {
	Slug() string
	Collect(ctx context.Context, window time.Duration) (Sample, error)
}

// LatencySource provides completion latency aggregates.
type LatencySource interface {
	AvgCompletionLatencyMinutes(ctx context.Context, taskType *domain.TaskType, since time.Time) (float64, int64, error)
}

// FreshnessSource provides the last completed pipeline run.
type FreshnessSource interface {
	LastCompleted(ctx context.Context, pipeline string) (*time.Time, error)
}

const (
	SlugTaskCompletionLatency    = "task-completion-latency"
	SlugConsentProcessingLatency = "consent-processing-latency"
	SlugAnalyticsFreshness       = "analytics-freshness"

	subjectPlatform = "platform"
)

// TaskLatencyCollector measures mean task completion latency in minutes over
// the evaluation window, across all task types.
type TaskLatencyCollector struct {
	source LatencySource
	now    func() time.Time
}

// NewTaskLatencyCollector constructs the collector.
func NewTaskLatencyCollector(source LatencySource) *TaskLatencyCollector {
	return &TaskLatencyCollector{source: source, now: time.Now}
}

func (c *TaskLatencyCollector) Slug() string { return SlugTaskCompletionLatency }

func (c *TaskLatencyCollector) Collect(ctx context.Context, window time.Duration) (Sample, error) {
	avg, count, err := c.source.AvgCompletionLatencyMinutes(ctx, nil, c.now().Add(-window))
	if err != nil {
		return Sample{}, err
	}
	return Sample{Subject: subjectPlatform, Value: avg, Count: count}, nil
}

// ConsentLatencyCollector measures mean completion latency for consent review
// tasks, the regulatory-sensitive slice of the workflow.
type ConsentLatencyCollector struct {
	source LatencySource
	now    func() time.Time
}

// NewConsentLatencyCollector constructs the collector.
func NewConsentLatencyCollector(source LatencySource) *ConsentLatencyCollector {
	return &ConsentLatencyCollector{source: source, now: time.Now}
}

func (c *ConsentLatencyCollector) Slug() string { return SlugConsentProcessingLatency }

func (c *ConsentLatencyCollector) Collect(ctx context.Context, window time.Duration) (Sample, error) {
	taskType := domain.TaskTypeConsentReview
	avg, count, err := c.source.AvgCompletionLatencyMinutes(ctx, &taskType, c.now().Add(-window))
	if err != nil {
		return Sample{}, err
	}
	return Sample{Subject: subjectPlatform, Value: avg, Count: count}, nil
}

// FreshnessCollector measures minutes since the analytics pipeline last
// completed. A pipeline that has never run is infinitely stale: the sample is
// +Inf, which fails any finite target. That is the intended value, not an
// error.
type FreshnessCollector struct {
	source   FreshnessSource
	pipeline string
	now      func() time.Time
}

// NewFreshnessCollector constructs the collector for the named pipeline.
func NewFreshnessCollector(source FreshnessSource, pipeline string) *FreshnessCollector {
	return &FreshnessCollector{source: source, pipeline: pipeline, now: time.Now}
}

func (c *FreshnessCollector) Slug() string { return SlugAnalyticsFreshness }

func (c *FreshnessCollector) Collect(ctx context.Context, window time.Duration) (Sample, error) {
	lastRun, err := c.source.LastCompleted(ctx, c.pipeline)
	if err != nil {
		return Sample{}, err
	}
	if lastRun == nil {
		return Sample{Subject: subjectPlatform, Value: math.Inf(1)}, nil
	}
	minutes := c.now().Sub(*lastRun).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	return Sample{Subject: subjectPlatform, Value: minutes, Count: 1, LastRun: lastRun}, nil
}
