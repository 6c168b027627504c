package domain

import "time"

// SLAConfig defines a per-task-type latency target. TaskType nil means the
// config is the catch-all fallback for any type without a more specific match.
type SLAConfig struct {
	ID            string
	ServiceArea   string
	TaskType      *TaskType
	TargetMinutes int
	Active        bool
	CreatedAt     time.Time
}

// SLARecord tracks a single task against its matched config. Opened when the
// task enters tracking, closed when it reaches a terminal state.
type SLARecord struct {
	ID          string
	TaskID      string
	SLAConfigID string
	StartedAt   time.Time
	CompletedAt *time.Time
	Breached    bool
}

// ObjectiveType classifies what an SLA definition measures. The severity
// function depends on it: latency-like objectives grade by ratio over target,
// rate-like objectives by absolute deficit.
type ObjectiveType string

const (
	ObjectiveLatency     ObjectiveType = "latency"
	ObjectiveSuccessRate ObjectiveType = "success_rate"
	ObjectiveFreshness   ObjectiveType = "freshness"
)

// ThresholdOperator compares a measured value against the target.
type ThresholdOperator string

const (
	OperatorLT  ThresholdOperator = "lt"
	OperatorLTE ThresholdOperator = "lte"
	OperatorGT  ThresholdOperator = "gt"
)

// SLADefinition is a platform-wide catalog entry evaluated every monitor pass.
type SLADefinition struct {
	ID            string
	Slug          string
	Description   string
	ObjectiveType ObjectiveType
	TargetNumeric float64
	WindowMinutes int
	Operator      ThresholdOperator
	Enabled       bool
	CreatedAt     time.Time
}

// SLAInstanceStatus enumerates evaluation outcomes for an instance.
type SLAInstanceStatus string

const (
	SLAInstanceActive   SLAInstanceStatus = "active"
	SLAInstanceBreached SLAInstanceStatus = "breached"
	SLAInstanceResolved SLAInstanceStatus = "resolved"
)

// SLAInstance holds the latest measured value per (definition, subject).
// It is upserted each evaluation cycle rather than duplicated.
type SLAInstance struct {
	ID           string
	DefinitionID string
	Subject      string
	CurrentValue float64
	Status       SLAInstanceStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BreachSeverity classifies how far a metric deviates from its target.
type BreachSeverity string

const (
	SeverityLow      BreachSeverity = "low"
	SeverityMedium   BreachSeverity = "medium"
	SeverityHigh     BreachSeverity = "high"
	SeverityCritical BreachSeverity = "critical"
)

// BreachStatus enumerates breach lifecycle states.
type BreachStatus string

const (
	BreachOpen      BreachStatus = "open"
	BreachEscalated BreachStatus = "escalated"
	BreachResolved  BreachStatus = "resolved"
)

// SLABreach records a single breach lifecycle for an instance. Repeated
// failures escalate the open breach instead of opening a second one.
type SLABreach struct {
	ID              string
	InstanceID      string
	DefinitionID    string
	BreachValue     float64
	TargetValue     float64
	Severity        BreachSeverity
	Status          BreachStatus
	EscalationLevel int
	OpenedAt        time.Time
	ResolvedAt      *time.Time
}
