package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// SLARecordRepository encapsulates per-task SLA record persistence. Records
// are opened inside the task-creation transaction and closed inside the
// terminal-transition transaction; this interface covers everything else.
type SLARecordRepository interface {
	ListByTask(ctx context.Context, taskID string) ([]domain.SLARecord, error)
	// MarkOverdueOpenRecords flags still-open records whose elapsed time
	// exceeds their config target. Returns the number flagged.
	MarkOverdueOpenRecords(ctx context.Context, now time.Time) (int64, error)
	CountBreached(ctx context.Context) (int64, error)
	AvgClosedLatencyMinutes(ctx context.Context, taskType domain.TaskType, since time.Time) (float64, int64, error)
}

type slaRecordRepository struct {
	pool *pgxpool.Pool
}

// NewSLARecordRepository instantiates repository.
func NewSLARecordRepository(pool *pgxpool.Pool) SLARecordRepository {
	return &slaRecordRepository{pool: pool}
}

func (r *slaRecordRepository) ListByTask(ctx context.Context, taskID string) ([]domain.SLARecord, error) {
	const query = `
        SELECT id, task_id, sla_config_id, started_at, completed_at, breached
        FROM sla_records WHERE task_id=$1 ORDER BY started_at`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLARecord
	for rows.Next() {
		var record domain.SLARecord
		if err := rows.Scan(
			&record.ID,
			&record.TaskID,
			&record.SLAConfigID,
			&record.StartedAt,
			&record.CompletedAt,
			&record.Breached,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *slaRecordRepository) MarkOverdueOpenRecords(ctx context.Context, now time.Time) (int64, error) {
	const query = `
        UPDATE sla_records r
        SET breached = TRUE
        FROM sla_configs c
        WHERE r.sla_config_id = c.id
          AND r.completed_at IS NULL
          AND r.breached = FALSE
          AND (EXTRACT(EPOCH FROM ($1::timestamptz - r.started_at)) / 60) > c.target_minutes`
	cmd, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *slaRecordRepository) CountBreached(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM sla_records WHERE breached = TRUE`
	var count int64
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// AvgClosedLatencyMinutes reports the mean start-to-close latency of records
// for tasks of the given type closed since the given time.
func (r *slaRecordRepository) AvgClosedLatencyMinutes(ctx context.Context, taskType domain.TaskType, since time.Time) (float64, int64, error) {
	const query = `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (r.completed_at - r.started_at)) / 60), 0), COUNT(*)
        FROM sla_records r
        JOIN tasks t ON t.id = r.task_id
        WHERE t.task_type = $1 AND r.completed_at IS NOT NULL AND r.completed_at >= $2`
	var avg float64
	var count int64
	if err := r.pool.QueryRow(ctx, query, taskType, since).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}
