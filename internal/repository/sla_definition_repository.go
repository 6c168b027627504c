package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// SLADefinitionRepository encapsulates the platform-wide SLA catalog.
type SLADefinitionRepository interface {
	ListEnabled(ctx context.Context) ([]domain.SLADefinition, error)
	List(ctx context.Context) ([]domain.SLADefinition, error)
	GetBySlug(ctx context.Context, slug string) (*domain.SLADefinition, error)
}

type slaDefinitionRepository struct {
	pool *pgxpool.Pool
}

// NewSLADefinitionRepository instantiates repository.
func NewSLADefinitionRepository(pool *pgxpool.Pool) SLADefinitionRepository {
	return &slaDefinitionRepository{pool: pool}
}

func (r *slaDefinitionRepository) ListEnabled(ctx context.Context) ([]domain.SLADefinition, error) {
	const query = `
        SELECT id, slug, description, objective_type, target_numeric, window_minutes, threshold_operator, enabled, created_at
        FROM sla_definitions WHERE enabled = TRUE ORDER BY slug`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

func (r *slaDefinitionRepository) List(ctx context.Context) ([]domain.SLADefinition, error) {
	const query = `
        SELECT id, slug, description, objective_type, target_numeric, window_minutes, threshold_operator, enabled, created_at
        FROM sla_definitions ORDER BY slug`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

func (r *slaDefinitionRepository) GetBySlug(ctx context.Context, slug string) (*domain.SLADefinition, error) {
	const query = `
        SELECT id, slug, description, objective_type, target_numeric, window_minutes, threshold_operator, enabled, created_at
        FROM sla_definitions WHERE slug=$1`
	var def domain.SLADefinition
	if err := r.pool.QueryRow(ctx, query, slug).Scan(
		&def.ID,
		&def.Slug,
		&def.Description,
		&def.ObjectiveType,
		&def.TargetNumeric,
		&def.WindowMinutes,
		&def.Operator,
		&def.Enabled,
		&def.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &def, nil
}

func scanDefinitions(rows pgx.Rows) ([]domain.SLADefinition, error) {
	var result []domain.SLADefinition
	for rows.Next() {
		var def domain.SLADefinition
		if err := rows.Scan(
			&def.ID,
			&def.Slug,
			&def.Description,
			&def.ObjectiveType,
			&def.TargetNumeric,
			&def.WindowMinutes,
			&def.Operator,
			&def.Enabled,
			&def.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, def)
	}
	return result, rows.Err()
}
