package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// OutboxStats summarizes queue depth for the stats endpoint.
type OutboxStats struct {
	Unprocessed int64
	Processed   int64
	Failed      int64
}

// OutboxRepository reads and settles the append-only outbox. Events are
// written by the workflow store inside the transition transaction; this
// interface never inserts.
type OutboxRepository interface {
	FetchUnprocessed(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkProcessed(ctx context.Context, eventID string, processingErr error) error
	GetByID(ctx context.Context, eventID string) (*domain.OutboxEvent, error)
	Stats(ctx context.Context) (OutboxStats, error)
}

type outboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository instantiates repository.
func NewOutboxRepository(pool *pgxpool.Pool) OutboxRepository {
	return &outboxRepository{pool: pool}
}

// FetchUnprocessed returns up to limit unprocessed events oldest-first.
func (r *outboxRepository) FetchUnprocessed(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT id, event_type, aggregate_type, aggregate_id, correlation_id, payload,
               created_at, processed, processed_at, error
        FROM outbox_events
        WHERE processed = FALSE
        ORDER BY created_at ASC
        LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOutboxEvents(rows)
}

// MarkProcessed settles an event. A non-nil processingErr is recorded on the
// event but the event still counts as delivered; failed automations are
// surfaced for operator follow-up, not retried.
func (r *outboxRepository) MarkProcessed(ctx context.Context, eventID string, processingErr error) error {
	const query = `
        UPDATE outbox_events SET processed=TRUE, processed_at=$1, error=$2
        WHERE id=$3`
	var errText *string
	if processingErr != nil {
		msg := processingErr.Error()
		errText = &msg
	}
	cmd, err := r.pool.Exec(ctx, query, time.Now(), errText, eventID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *outboxRepository) GetByID(ctx context.Context, eventID string) (*domain.OutboxEvent, error) {
	const query = `
        SELECT id, event_type, aggregate_type, aggregate_id, correlation_id, payload,
               created_at, processed, processed_at, error
        FROM outbox_events WHERE id=$1`
	var event domain.OutboxEvent
	if err := r.pool.QueryRow(ctx, query, eventID).Scan(
		&event.ID,
		&event.EventType,
		&event.AggregateType,
		&event.AggregateID,
		&event.CorrelationID,
		&event.Payload,
		&event.CreatedAt,
		&event.Processed,
		&event.ProcessedAt,
		&event.Error,
	); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *outboxRepository) Stats(ctx context.Context) (OutboxStats, error) {
	const query = `
        SELECT
            COUNT(*) FILTER (WHERE processed = FALSE),
            COUNT(*) FILTER (WHERE processed = TRUE),
            COUNT(*) FILTER (WHERE processed = TRUE AND error IS NOT NULL)
        FROM outbox_events`
	var stats OutboxStats
	if err := r.pool.QueryRow(ctx, query).Scan(&stats.Unprocessed, &stats.Processed, &stats.Failed); err != nil {
		return OutboxStats{}, err
	}
	return stats, nil
}

func scanOutboxEvents(rows pgx.Rows) ([]domain.OutboxEvent, error) {
	var result []domain.OutboxEvent
	for rows.Next() {
		var event domain.OutboxEvent
		if err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.AggregateType,
			&event.AggregateID,
			&event.CorrelationID,
			&event.Payload,
			&event.CreatedAt,
			&event.Processed,
			&event.ProcessedAt,
			&event.Error,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
