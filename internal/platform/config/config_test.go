package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsWithSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ServiceName != "clypzy" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("expected 2s poll interval, got %s", cfg.PollInterval)
	}
	if !cfg.EnableWalletReconcile {
		t.Fatalf("expected wallet reconcile enabled by default")
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("expected no brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadTrimsBrokers(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092 , ,kafka-2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "kafka-1:9092" || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestLoadRequiresPostgresDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without POSTGRES_DSN")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
