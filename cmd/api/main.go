package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/workflow-service/internal/api/http"
	"github.com/spec-kit/workflow-service/internal/api/http/handlers"
	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/automation"
	"github.com/spec-kit/workflow-service/internal/config"
	"github.com/spec-kit/workflow-service/internal/observability"
	"github.com/spec-kit/workflow-service/internal/persistence"
	"github.com/spec-kit/workflow-service/internal/repository"
	"github.com/spec-kit/workflow-service/internal/service"
	"github.com/spec-kit/workflow-service/internal/sla"
	"github.com/spec-kit/workflow-service/internal/worker"
	"github.com/spec-kit/workflow-service/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	taskRepo := repository.NewTaskRepository(pool)
	planRepo := repository.NewActionPlanRepository(pool)
	outboxRepo := repository.NewOutboxRepository(pool)
	slaConfigRepo := repository.NewSLAConfigRepository(pool)
	slaRecordRepo := repository.NewSLARecordRepository(pool)
	slaDefinitionRepo := repository.NewSLADefinitionRepository(pool)
	slaInstanceRepo := repository.NewSLAInstanceRepository(pool)
	slaBreachRepo := repository.NewSLABreachRepository(pool)
	pipelineRunRepo := repository.NewPipelineRunRepository(pool)
	store := repository.NewWorkflowStore(pool)

	metrics := observability.NewMetrics()
	engine := workflow.NewEngine(store)

	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		Store:         store,
		TaskRepo:      taskRepo,
		PlanRepo:      planRepo,
		SLAConfigRepo: slaConfigRepo,
		SLARecordRepo: slaRecordRepo,
		Engine:        engine,
		Logger:        logger,
		Metrics:       metrics,
	})
	slaService := service.NewSLAService(service.SLADependencies{
		ConfigRepo:     slaConfigRepo,
		DefinitionRepo: slaDefinitionRepo,
		BreachRepo:     slaBreachRepo,
		RecordRepo:     slaRecordRepo,
		OutboxRepo:     outboxRepo,
		TaskRepo:       taskRepo,
		Metrics:        metrics,
	})

	notifier := automation.NewNotifier(logger, cfg.Notification)
	idempotency := automation.NewRedisIdempotencyStore(redis.Client)
	dispatcher := automation.NewDispatcher(workflowService, notifier, idempotency, cfg.Worker.IdempotencyTTL(), logger)

	breachManager := sla.NewBreachManager(slaInstanceRepo, slaBreachRepo, logger, metrics)
	monitor := sla.NewMonitor(slaDefinitionRepo, slaRecordRepo, []sla.Collector{
		sla.NewTaskLatencyCollector(taskRepo),
		sla.NewConsentLatencyCollector(taskRepo),
		sla.NewFreshnessCollector(pipelineRunRepo, cfg.Worker.AnalyticsPipelineName),
	}, breachManager, logger, metrics)

	runtime := worker.NewRuntime(worker.Config{
		EventInterval:  cfg.Worker.EventInterval(),
		EventBatchSize: cfg.Worker.EventBatchSize,
		SLAInterval:    cfg.Worker.SLAInterval(),
		SLABackoff:     cfg.Worker.SLABackoff(),
	}, outboxRepo, dispatcher, monitor, logger, metrics)
	runtime.Start()
	defer runtime.Stop()

	authMiddleware := auth.NewMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret))
	opsGuard := auth.NewOpsKeyGuard(cfg.Auth.OpsAPIKeyHash)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Workflow:       handlers.NewWorkflowHandler(workflowService),
		SLA:            handlers.NewSLAHandler(slaService),
		AuthMiddleware: authMiddleware,
		OpsGuard:       opsGuard,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
