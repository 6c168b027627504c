package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// WorkflowStore commits entity writes together with their outbox events in a
// single transaction. This is the one multi-row invariant in the system: a
// state change and its event record must never diverge.
type WorkflowStore interface {
	CreateTask(ctx context.Context, task *domain.Task, event *domain.OutboxEvent, record *domain.SLARecord) error
	ApplyTaskTransition(ctx context.Context, task *domain.Task, event *domain.OutboxEvent) error
	ApplyActionPlanTransition(ctx context.Context, plan *domain.ActionPlan, event *domain.OutboxEvent) error
}

type workflowStore struct {
	pool *pgxpool.Pool
}

// NewWorkflowStore instantiates the transactional store.
func NewWorkflowStore(pool *pgxpool.Pool) WorkflowStore {
	return &workflowStore{pool: pool}
}

// CreateTask inserts the task, its creation event, and the optional SLA
// record in one transaction.
func (s *workflowStore) CreateTask(ctx context.Context, task *domain.Task, event *domain.OutboxEvent, record *domain.SLARecord) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		const insertTask = `
            INSERT INTO tasks (id, task_type, state, created_by, assigned_to, action_plan_id)
            VALUES ($1,$2,$3,$4,$5,$6)
            RETURNING created_at, updated_at`
		if err := tx.QueryRow(ctx, insertTask,
			task.ID,
			task.Type,
			task.State,
			task.CreatedBy,
			task.AssignedTo,
			task.ActionPlanID,
		).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
			return err
		}
		if err := insertOutboxEvent(ctx, tx, event); err != nil {
			return err
		}
		if record != nil {
			const insertRecord = `
                INSERT INTO sla_records (id, task_id, sla_config_id, started_at, breached)
                VALUES ($1,$2,$3,$4,FALSE)`
			if _, err := tx.Exec(ctx, insertRecord,
				record.ID,
				record.TaskID,
				record.SLAConfigID,
				record.StartedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyTaskTransition updates the task state, appends the outbox event, and
// closes any open SLA record when the task reaches a terminal state. The
// record's breached flag is computed against its config target at close time.
func (s *workflowStore) ApplyTaskTransition(ctx context.Context, task *domain.Task, event *domain.OutboxEvent) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		const updateTask = `
            UPDATE tasks SET state=$1, updated_at=$2 WHERE id=$3`
		cmd, err := tx.Exec(ctx, updateTask, task.State, task.UpdatedAt, task.ID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		if err := insertOutboxEvent(ctx, tx, event); err != nil {
			return err
		}
		if task.IsTerminal() {
			const closeRecord = `
                UPDATE sla_records r
                SET completed_at=$1,
                    breached = (EXTRACT(EPOCH FROM ($1::timestamptz - r.started_at)) / 60) > c.target_minutes
                FROM sla_configs c
                WHERE r.sla_config_id = c.id AND r.task_id=$2 AND r.completed_at IS NULL`
			if _, err := tx.Exec(ctx, closeRecord, task.UpdatedAt, task.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyActionPlanTransition updates the plan state/version and appends the
// outbox event atomically.
func (s *workflowStore) ApplyActionPlanTransition(ctx context.Context, plan *domain.ActionPlan, event *domain.OutboxEvent) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		const updatePlan = `
            UPDATE action_plans SET state=$1, version=$2, updated_at=$3 WHERE id=$4`
		cmd, err := tx.Exec(ctx, updatePlan, plan.State, plan.Version, plan.UpdatedAt, plan.ID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

func (s *workflowStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertOutboxEvent(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	const query = `
        INSERT INTO outbox_events (id, event_type, aggregate_type, aggregate_id, correlation_id, payload, created_at, processed)
        VALUES ($1,$2,$3,$4,$5,$6,$7,FALSE)`
	_, err := tx.Exec(ctx, query,
		event.ID,
		event.EventType,
		event.AggregateType,
		event.AggregateID,
		event.CorrelationID,
		event.Payload,
		event.CreatedAt,
	)
	return err
}
