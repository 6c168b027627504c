package domain

import "time"

// AggregateType identifies the entity an outbox event belongs to.
type AggregateType string

const (
	AggregateTask       AggregateType = "task"
	AggregateActionPlan AggregateType = "action_plan"
)

// OutboxEvent is an append-only record written in the same transaction as the
// state change it describes. Events are only ever marked processed, never
// deleted; a failed automation keeps processed=true with Error set so one bad
// event cannot block the queue.
type OutboxEvent struct {
	ID            string
	EventType     string
	AggregateType AggregateType
	AggregateID   string
	CorrelationID string
	Payload       []byte
	CreatedAt     time.Time
	Processed     bool
	ProcessedAt   *time.Time
	Error         *string
}
