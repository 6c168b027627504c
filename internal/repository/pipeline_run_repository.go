package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PipelineRunRepository reads analytics pipeline run markers. The ingestion
// pipeline itself lives outside this service; we only consume its freshness.
type PipelineRunRepository interface {
	// LastCompleted returns the most recent completed run time, or nil when
	// no run has ever completed.
	LastCompleted(ctx context.Context, pipeline string) (*time.Time, error)
}

type pipelineRunRepository struct {
	pool *pgxpool.Pool
}

// NewPipelineRunRepository instantiates repository.
func NewPipelineRunRepository(pool *pgxpool.Pool) PipelineRunRepository {
	return &pipelineRunRepository{pool: pool}
}

func (r *pipelineRunRepository) LastCompleted(ctx context.Context, pipeline string) (*time.Time, error) {
	const query = `
        SELECT completed_at FROM pipeline_runs
        WHERE pipeline=$1 AND completed_at IS NOT NULL
        ORDER BY completed_at DESC
        LIMIT 1`
	var completedAt time.Time
	if err := r.pool.QueryRow(ctx, query, pipeline).Scan(&completedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &completedAt, nil
}
