package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/observability"
)

// EventSource supplies unprocessed outbox events and settles them.
type EventSource interface {
	FetchUnprocessed(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkProcessed(ctx context.Context, eventID string, processingErr error) error
}

// EventHandler runs the automation for one event.
type EventHandler interface {
	ProcessEvent(ctx context.Context, event domain.OutboxEvent) error
}

// MonitorPass runs one full SLA catalog evaluation.
type MonitorPass interface {
	RunPass(ctx context.Context) error
}

// Config holds loop scheduling knobs.
type Config struct {
	EventInterval  time.Duration
	EventBatchSize int
	SLAInterval    time.Duration
	SLABackoff     time.Duration
}

// Runtime owns the two background loops: outbox drain and SLA monitoring.
// The loops run concurrently and independently; a failure in one never
// affects the other.
type Runtime struct {
	cfg     Config
	source  EventSource
	handler EventHandler
	monitor MonitorPass
	logger  *zap.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRuntime constructs the runtime.
func NewRuntime(cfg Config, source EventSource, handler EventHandler, monitor MonitorPass, logger *zap.Logger, metrics *observability.Metrics) *Runtime {
	if cfg.EventInterval <= 0 {
		cfg.EventInterval = 5 * time.Second
	}
	if cfg.EventBatchSize <= 0 {
		cfg.EventBatchSize = 100
	}
	if cfg.SLAInterval <= 0 {
		cfg.SLAInterval = 5 * time.Minute
	}
	if cfg.SLABackoff <= 0 {
		cfg.SLABackoff = time.Minute
	}
	return &Runtime{
		cfg:     cfg,
		source:  source,
		handler: handler,
		monitor: monitor,
		logger:  logger,
		metrics: metrics,
	}
}

// Start launches both loops. Calling Start on a running runtime is a no-op.
func (r *Runtime) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.running = true

	r.wg.Add(2)
	go r.eventLoop(ctx)
	go r.slaLoop(ctx)
	r.logger.Info("worker runtime started",
		zap.Duration("event_interval", r.cfg.EventInterval),
		zap.Duration("sla_interval", r.cfg.SLAInterval))
}

// Stop cancels both loops and waits for in-flight iterations to finish.
// When Stop returns no loop iteration is left half-executed. Idempotent.
func (r *Runtime) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()

	r.wg.Wait()

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	r.logger.Info("worker runtime stopped")
}

// Running reports whether the loops are active.
func (r *Runtime) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runtime) eventLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.EventInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce fetches one batch of unprocessed events oldest-first and settles
// every one of them. A handler failure or panic is recorded on the event,
// which still counts as delivered: one poison event must not starve the
// queue. Failed automations are surfaced via the error field, not retried.
func (r *Runtime) DrainOnce(ctx context.Context) {
	batch, err := r.source.FetchUnprocessed(ctx, r.cfg.EventBatchSize)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("fetch outbox batch failed", zap.Error(err))
		}
		return
	}

	for _, event := range batch {
		if ctx.Err() != nil {
			return
		}
		procErr := r.processSafely(ctx, event)
		if procErr != nil {
			r.logger.Error("automation failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(procErr))
		}
		if err := r.source.MarkProcessed(ctx, event.ID, procErr); err != nil {
			r.logger.Error("mark processed failed",
				zap.String("event_id", event.ID),
				zap.Error(err))
			continue
		}
		r.metrics.EventProcessed(procErr != nil)
	}
}

func (r *Runtime) processSafely(ctx context.Context, event domain.OutboxEvent) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return r.handler.ProcessEvent(ctx, event)
}

func (r *Runtime) slaLoop(ctx context.Context) {
	defer r.wg.Done()
	timer := time.NewTimer(r.cfg.SLAInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			next := r.cfg.SLAInterval
			if err := r.monitor.RunPass(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Error("sla monitoring pass failed", zap.Error(err))
				next = r.cfg.SLABackoff
			}
			timer.Reset(next)
		}
	}
}
