package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// SLAInstanceRepository upserts evaluation snapshots per (definition, subject).
type SLAInstanceRepository interface {
	// Upsert writes the latest value for the (definition, subject) pair and
	// returns the stored instance. At most one instance exists per pair.
	Upsert(ctx context.Context, instance *domain.SLAInstance) error
	UpdateStatus(ctx context.Context, instanceID string, status domain.SLAInstanceStatus) error
	GetByDefinitionAndSubject(ctx context.Context, definitionID, subject string) (*domain.SLAInstance, error)
}

type slaInstanceRepository struct {
	pool *pgxpool.Pool
}

// NewSLAInstanceRepository instantiates repository.
func NewSLAInstanceRepository(pool *pgxpool.Pool) SLAInstanceRepository {
	return &slaInstanceRepository{pool: pool}
}

func (r *slaInstanceRepository) Upsert(ctx context.Context, instance *domain.SLAInstance) error {
	const query = `
        INSERT INTO sla_instances (id, sla_definition_id, subject, current_value, status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$6)
        ON CONFLICT (sla_definition_id, subject) DO UPDATE
            SET current_value = EXCLUDED.current_value,
                updated_at = EXCLUDED.updated_at
        RETURNING id, status, created_at, updated_at`
	now := time.Now()
	return r.pool.QueryRow(ctx, query,
		instance.ID,
		instance.DefinitionID,
		instance.Subject,
		instance.CurrentValue,
		instance.Status,
		now,
	).Scan(&instance.ID, &instance.Status, &instance.CreatedAt, &instance.UpdatedAt)
}

func (r *slaInstanceRepository) UpdateStatus(ctx context.Context, instanceID string, status domain.SLAInstanceStatus) error {
	const query = `UPDATE sla_instances SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, instanceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slaInstanceRepository) GetByDefinitionAndSubject(ctx context.Context, definitionID, subject string) (*domain.SLAInstance, error) {
	const query = `
        SELECT id, sla_definition_id, subject, current_value, status, created_at, updated_at
        FROM sla_instances WHERE sla_definition_id=$1 AND subject=$2`
	var instance domain.SLAInstance
	if err := r.pool.QueryRow(ctx, query, definitionID, subject).Scan(
		&instance.ID,
		&instance.DefinitionID,
		&instance.Subject,
		&instance.CurrentValue,
		&instance.Status,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &instance, nil
}
