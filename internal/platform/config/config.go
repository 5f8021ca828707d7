package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"clypzy"`

	DBDriver      string `env:"DB_DRIVER" envDefault:"postgres"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"clypzy.db"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	RedisURL     string   `env:"REDIS_URL"`
	MetricsAddr  string   `env:"METRICS_ADDR"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	PollInterval      time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"2s"`
	ReconcileInterval time.Duration `env:"WALLET_RECONCILE_INTERVAL" envDefault:"10m"`
	OutboxBatchSize   int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	IdempotencyTTL    time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"168h"`

	EnableViewSyncConsumer bool `env:"ENABLE_VIEW_SYNC_CONSUMER" envDefault:"true"`
	EnableWalletReconcile  bool `env:"ENABLE_WALLET_RECONCILE" envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	brokers := make([]string, 0, len(cfg.KafkaBrokers))
	for _, value := range cfg.KafkaBrokers {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	cfg.KafkaBrokers = brokers
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	switch cfg.DBDriver {
	case "postgres":
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return Config{}, fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
	case "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("WORKER_POLL_INTERVAL must be positive")
	}
	return cfg, nil
}
