package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// SLAConfigRepository encapsulates per-task SLA config persistence.
type SLAConfigRepository interface {
	Create(ctx context.Context, config *domain.SLAConfig) error
	List(ctx context.Context, activeOnly bool) ([]domain.SLAConfig, error)
	// FindMatch resolves the config for a task type: an exact task_type match
	// wins over the NULL catch-all. Returns nil when nothing matches.
	FindMatch(ctx context.Context, serviceArea string, taskType domain.TaskType) (*domain.SLAConfig, error)
}

type slaConfigRepository struct {
	pool *pgxpool.Pool
}

// NewSLAConfigRepository instantiates repository.
func NewSLAConfigRepository(pool *pgxpool.Pool) SLAConfigRepository {
	return &slaConfigRepository{pool: pool}
}

func (r *slaConfigRepository) Create(ctx context.Context, config *domain.SLAConfig) error {
	const query = `
        INSERT INTO sla_configs (id, service_area, task_type, target_minutes, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		config.ID,
		config.ServiceArea,
		config.TaskType,
		config.TargetMinutes,
		config.Active,
	).Scan(&config.CreatedAt)
}

func (r *slaConfigRepository) List(ctx context.Context, activeOnly bool) ([]domain.SLAConfig, error) {
	query := `
        SELECT id, service_area, task_type, target_minutes, active, created_at
        FROM sla_configs`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY service_area, task_type NULLS LAST`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAConfig
	for rows.Next() {
		var config domain.SLAConfig
		if err := rows.Scan(
			&config.ID,
			&config.ServiceArea,
			&config.TaskType,
			&config.TargetMinutes,
			&config.Active,
			&config.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, config)
	}
	return result, rows.Err()
}

func (r *slaConfigRepository) FindMatch(ctx context.Context, serviceArea string, taskType domain.TaskType) (*domain.SLAConfig, error) {
	const query = `
        SELECT id, service_area, task_type, target_minutes, active, created_at
        FROM sla_configs
        WHERE service_area=$1 AND active = TRUE AND (task_type=$2 OR task_type IS NULL)
        ORDER BY task_type NULLS LAST
        LIMIT 1`
	var config domain.SLAConfig
	if err := r.pool.QueryRow(ctx, query, serviceArea, taskType).Scan(
		&config.ID,
		&config.ServiceArea,
		&config.TaskType,
		&config.TargetMinutes,
		&config.Active,
		&config.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}
