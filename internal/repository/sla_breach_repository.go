package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// SLABreachRepository encapsulates breach lifecycle persistence.
type SLABreachRepository interface {
	Create(ctx context.Context, breach *domain.SLABreach) error
	// FindOpenByInstance returns the open or escalated breach for the
	// instance, or nil when none exists.
	FindOpenByInstance(ctx context.Context, instanceID string) (*domain.SLABreach, error)
	Escalate(ctx context.Context, breachID string, breachValue float64, severity domain.BreachSeverity) error
	Resolve(ctx context.Context, breachID string, resolvedAt time.Time) error
	ListByStatus(ctx context.Context, statuses []domain.BreachStatus, limit int) ([]domain.SLABreach, error)
	CountOpenBySeverity(ctx context.Context) (map[domain.BreachSeverity]int64, error)
}

type slaBreachRepository struct {
	pool *pgxpool.Pool
}

// NewSLABreachRepository instantiates repository.
func NewSLABreachRepository(pool *pgxpool.Pool) SLABreachRepository {
	return &slaBreachRepository{pool: pool}
}

func (r *slaBreachRepository) Create(ctx context.Context, breach *domain.SLABreach) error {
	const query = `
        INSERT INTO sla_breaches (id, sla_instance_id, sla_definition_id, breach_value, target_value,
                                  severity, status, escalation_level, opened_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.pool.Exec(ctx, query,
		breach.ID,
		breach.InstanceID,
		breach.DefinitionID,
		breach.BreachValue,
		breach.TargetValue,
		breach.Severity,
		breach.Status,
		breach.EscalationLevel,
		breach.OpenedAt,
	)
	return err
}

func (r *slaBreachRepository) FindOpenByInstance(ctx context.Context, instanceID string) (*domain.SLABreach, error) {
	const query = `
        SELECT id, sla_instance_id, sla_definition_id, breach_value, target_value,
               severity, status, escalation_level, opened_at, resolved_at
        FROM sla_breaches
        WHERE sla_instance_id=$1 AND status IN ('open','escalated')
        ORDER BY opened_at DESC
        LIMIT 1`
	var breach domain.SLABreach
	if err := r.pool.QueryRow(ctx, query, instanceID).Scan(
		&breach.ID,
		&breach.InstanceID,
		&breach.DefinitionID,
		&breach.BreachValue,
		&breach.TargetValue,
		&breach.Severity,
		&breach.Status,
		&breach.EscalationLevel,
		&breach.OpenedAt,
		&breach.ResolvedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &breach, nil
}

// Escalate bumps the escalation level and refreshes the measured value and
// severity on an already-open breach.
func (r *slaBreachRepository) Escalate(ctx context.Context, breachID string, breachValue float64, severity domain.BreachSeverity) error {
	const query = `
        UPDATE sla_breaches
        SET status='escalated', escalation_level = escalation_level + 1,
            breach_value=$1, severity=$2
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, breachValue, severity, breachID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slaBreachRepository) Resolve(ctx context.Context, breachID string, resolvedAt time.Time) error {
	const query = `
        UPDATE sla_breaches SET status='resolved', resolved_at=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, resolvedAt, breachID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slaBreachRepository) ListByStatus(ctx context.Context, statuses []domain.BreachStatus, limit int) ([]domain.SLABreach, error) {
	if len(statuses) == 0 {
		statuses = []domain.BreachStatus{domain.BreachOpen, domain.BreachEscalated}
	}
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, sla_instance_id, sla_definition_id, breach_value, target_value,
               severity, status, escalation_level, opened_at, resolved_at
        FROM sla_breaches
        WHERE status = ANY($1)
        ORDER BY opened_at DESC
        LIMIT $2`
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}
	rows, err := r.pool.Query(ctx, query, values, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLABreach
	for rows.Next() {
		var breach domain.SLABreach
		if err := rows.Scan(
			&breach.ID,
			&breach.InstanceID,
			&breach.DefinitionID,
			&breach.BreachValue,
			&breach.TargetValue,
			&breach.Severity,
			&breach.Status,
			&breach.EscalationLevel,
			&breach.OpenedAt,
			&breach.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, breach)
	}
	return result, rows.Err()
}

func (r *slaBreachRepository) CountOpenBySeverity(ctx context.Context) (map[domain.BreachSeverity]int64, error) {
	const query = `
        SELECT severity, COUNT(*) FROM sla_breaches
        WHERE status IN ('open','escalated')
        GROUP BY severity`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.BreachSeverity]int64)
	for rows.Next() {
		var severity domain.BreachSeverity
		var count int64
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		counts[severity] = count
	}
	return counts, rows.Err()
}
