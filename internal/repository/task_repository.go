package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// TaskFilter captures task listing parameters.
type TaskFilter struct {
	States       []domain.TaskState
	TaskType     *domain.TaskType
	CreatedBy    *string
	AssignedTo   *string
	ActionPlanID *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TaskRepository encapsulates task persistence. State mutations go through the
// transition engine's store, not through this interface.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListWithFilter(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	CountByState(ctx context.Context) (map[domain.TaskState]int64, error)
	AvgCompletionLatencyMinutes(ctx context.Context, taskType *domain.TaskType, since time.Time) (float64, int64, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
        SELECT id, task_type, state, created_by, assigned_to, action_plan_id, created_at, updated_at
        FROM tasks WHERE id=$1`
	var task domain.Task
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.Type,
		&task.State,
		&task.CreatedBy,
		&task.AssignedTo,
		&task.ActionPlanID,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListWithFilter(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	base := `SELECT id, task_type, state, created_by, assigned_to, action_plan_id, created_at, updated_at
             FROM tasks`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.TaskType != nil {
		args = append(args, *filter.TaskType)
		clauses = append(clauses, fmt.Sprintf("task_type=$%d", len(args)))
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.ActionPlanID != nil {
		args = append(args, *filter.ActionPlanID)
		clauses = append(clauses, fmt.Sprintf("action_plan_id=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *taskRepository) CountByState(ctx context.Context) (map[domain.TaskState]int64, error) {
	const query = `SELECT state, COUNT(*) FROM tasks GROUP BY state`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TaskState]int64)
	for rows.Next() {
		var state domain.TaskState
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		counts[state] = count
	}
	return counts, rows.Err()
}

// AvgCompletionLatencyMinutes reports the mean creation-to-completion latency
// for tasks completed since the given time, plus the sample count. Zero with
// count zero is the no-data sentinel, not an error.
func (r *taskRepository) AvgCompletionLatencyMinutes(ctx context.Context, taskType *domain.TaskType, since time.Time) (float64, int64, error) {
	query := `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (updated_at - created_at)) / 60), 0), COUNT(*)
        FROM tasks
        WHERE state = 'completed' AND updated_at >= $1`
	args := []any{since}
	if taskType != nil {
		args = append(args, *taskType)
		query += fmt.Sprintf(" AND task_type=$%d", len(args))
	}

	var avg float64
	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}

func scanTasks(rows pgx.Rows) ([]domain.Task, error) {
	var result []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.Type,
			&task.State,
			&task.CreatedBy,
			&task.AssignedTo,
			&task.ActionPlanID,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}
