package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database wraps DB connectivity.
// Transaction helpers live next to it so outbox rows and state changes commit
// together.
type Database struct {
	DB     *gorm.DB
	Driver string
}

type Options struct {
	Driver      string
	PostgresDSN string
	SQLitePath  string
	LogLevel    logger.LogLevel
}

func Connect(opts Options) (*Database, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = DriverPostgres
	}
	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}

	var (
		conn *gorm.DB
		err  error
	)
	switch driver {
	case DriverPostgres:
		if strings.TrimSpace(opts.PostgresDSN) == "" {
			return nil, errors.New("postgres dsn is required")
		}
		conn, err = gorm.Open(postgres.Open(opts.PostgresDSN), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("open gorm postgres: %w", err)
		}
	case DriverSQLite:
		path := strings.TrimSpace(opts.SQLitePath)
		if path == "" {
			return nil, errors.New("sqlite path is required")
		}
		conn, err = gorm.Open(sqlite.Open(path), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("open gorm sqlite: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve sql db handle: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite allows a single writer; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &Database{DB: conn, Driver: driver}, nil
}

func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
