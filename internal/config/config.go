package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Worker       WorkerConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines identity parameters. Authentication itself is an
// external collaborator; this service only parses identity claims and checks
// the ops key on admin endpoints.
type AuthConfig struct {
	JWTSecret     string
	OpsAPIKeyHash string
}

// WorkerConfig holds background loop scheduling values.
type WorkerConfig struct {
	EventIntervalSeconds  int
	EventBatchSize        int
	SLAIntervalSeconds    int
	SLABackoffSeconds     int
	IdempotencyTTLHours   int
	AnalyticsPipelineName string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "workflow-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", "dev-secret"),
			OpsAPIKeyHash: os.Getenv("AUTH_OPS_API_KEY_HASH"),
		},
		Worker: WorkerConfig{
			EventIntervalSeconds:  getEnvAsInt("WORKER_EVENT_INTERVAL_SECONDS", 5),
			EventBatchSize:        getEnvAsInt("WORKER_EVENT_BATCH_SIZE", 100),
			SLAIntervalSeconds:    getEnvAsInt("WORKER_SLA_INTERVAL_SECONDS", 300),
			SLABackoffSeconds:     getEnvAsInt("WORKER_SLA_BACKOFF_SECONDS", 60),
			IdempotencyTTLHours:   getEnvAsInt("AUTOMATION_IDEMPOTENCY_TTL_HOURS", 24),
			AnalyticsPipelineName: getEnv("ANALYTICS_PIPELINE_NAME", "analytics-projection"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// EventInterval returns the outbox drain interval.
func (w WorkerConfig) EventInterval() time.Duration {
	return time.Duration(w.EventIntervalSeconds) * time.Second
}

// SLAInterval returns the SLA monitoring interval.
func (w WorkerConfig) SLAInterval() time.Duration {
	return time.Duration(w.SLAIntervalSeconds) * time.Second
}

// SLABackoff returns the sleep applied after a failed monitoring pass.
func (w WorkerConfig) SLABackoff() time.Duration {
	return time.Duration(w.SLABackoffSeconds) * time.Second
}

// IdempotencyTTL returns how long processed-event markers are kept.
func (w WorkerConfig) IdempotencyTTL() time.Duration {
	return time.Duration(w.IdempotencyTTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
