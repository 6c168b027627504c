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

// ActionPlanFilter captures plan listing parameters.
type ActionPlanFilter struct {
	States      []domain.ActionPlanState
	OwnerID     *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ActionPlanRepository encapsulates action plan persistence.
type ActionPlanRepository interface {
	Create(ctx context.Context, plan *domain.ActionPlan) error
	GetByID(ctx context.Context, id string) (*domain.ActionPlan, error)
	ListWithFilter(ctx context.Context, filter ActionPlanFilter) ([]domain.ActionPlan, error)
}

type actionPlanRepository struct {
	pool *pgxpool.Pool
}

// NewActionPlanRepository instantiates repository.
func NewActionPlanRepository(pool *pgxpool.Pool) ActionPlanRepository {
	return &actionPlanRepository{pool: pool}
}

func (r *actionPlanRepository) Create(ctx context.Context, plan *domain.ActionPlan) error {
	const query = `
        INSERT INTO action_plans (id, owner_id, state, version)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		plan.ID,
		plan.OwnerID,
		plan.State,
		plan.Version,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
}

func (r *actionPlanRepository) GetByID(ctx context.Context, id string) (*domain.ActionPlan, error) {
	const query = `
        SELECT id, owner_id, state, version, created_at, updated_at
        FROM action_plans WHERE id=$1`
	var plan domain.ActionPlan
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&plan.ID,
		&plan.OwnerID,
		&plan.State,
		&plan.Version,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *actionPlanRepository) ListWithFilter(ctx context.Context, filter ActionPlanFilter) ([]domain.ActionPlan, error) {
	base := `SELECT id, owner_id, state, version, created_at, updated_at FROM action_plans`
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
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
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
	return scanActionPlans(rows)
}

func scanActionPlans(rows pgx.Rows) ([]domain.ActionPlan, error) {
	var result []domain.ActionPlan
	for rows.Next() {
		var plan domain.ActionPlan
		if err := rows.Scan(
			&plan.ID,
			&plan.OwnerID,
			&plan.State,
			&plan.Version,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, plan)
	}
	return result, rows.Err()
}
