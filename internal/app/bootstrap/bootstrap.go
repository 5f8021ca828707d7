package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	campaignservice "clypzy/contexts/campaign-editorial/campaign-service"
	campaignpostgres "clypzy/contexts/campaign-editorial/campaign-service/adapters/postgres"
	campaignredis "clypzy/contexts/campaign-editorial/campaign-service/adapters/redis"
	campaignports "clypzy/contexts/campaign-editorial/campaign-service/ports"
	clipservice "clypzy/contexts/campaign-editorial/clip-service"
	clipmemory "clypzy/contexts/campaign-editorial/clip-service/adapters/memory"
	clippostgres "clypzy/contexts/campaign-editorial/clip-service/adapters/postgres"
	walletservice "clypzy/contexts/finance-core/wallet-service"
	walletmemory "clypzy/contexts/finance-core/wallet-service/adapters/memory"
	walletpostgres "clypzy/contexts/finance-core/wallet-service/adapters/postgres"
	"clypzy/internal/platform/cache"
	"clypzy/internal/platform/config"
	"clypzy/internal/platform/db"
	"clypzy/internal/platform/lock"
	"clypzy/internal/platform/observability"
	"clypzy/internal/shared/outbox"

	"github.com/redis/go-redis/v9"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

// Core holds the three service modules wired against one shared unit of work,
// so clip review and wallet recompute serialize on the same creator key.
type Core struct {
	Campaigns campaignservice.Module
	Clips     clipservice.Module
	Wallets   walletservice.Module

	outboxes map[string]outbox.Source
	database *db.Database
	redis    *redis.Client
	logger   *slog.Logger
}

// BuildInMemoryCore wires every module to memory stores behind a lock scope.
// metrics may be nil.
func BuildInMemoryCore(logger *slog.Logger, metrics *observability.Metrics) *Core {
	if logger == nil {
		logger = slog.Default()
	}
	scope := lock.NewScope()

	campaigns := campaignservice.NewInMemoryModule(nil, scope, logger)
	clipStore := clipmemory.NewStore(nil)
	walletStore := walletmemory.NewStore(nil)

	wallets := walletservice.NewModule(walletservice.Dependencies{
		Wallets:    walletStore,
		Earnings:   memoryEarnings{clips: clipStore},
		Outbox:     walletStore,
		UnitOfWork: scope,
		Metrics:    metrics,
		Clock:      walletStore,
		IDGen:      walletStore,
		Logger:     logger,
	})
	wallets.Store = walletStore

	clips := clipservice.NewModule(clipservice.Dependencies{
		Clips:      clipStore,
		Audits:     clipStore,
		Campaigns:  campaignSnapshots{campaigns: campaigns},
		Creators:   walletCreators{wallets: wallets},
		Wallets:    wallets,
		Outbox:     clipStore,
		Dedup:      clipStore,
		UnitOfWork: scope,
		Metrics:    metrics,
		Clock:      clipStore,
		IDGen:      clipStore,
		Logger:     logger,
	})
	clips.Store = clipStore

	return &Core{
		Campaigns: campaigns,
		Clips:     clips,
		Wallets:   wallets,
		outboxes: map[string]outbox.Source{
			"campaign-editorial/campaign-service": campaigns.Store.Outbox,
			"campaign-editorial/clip-service":     clipStore.Outbox,
			"finance-core/wallet-service":         walletStore.Outbox,
		},
		logger: logger,
	}
}

// BuildCore wires every module to the configured database. Campaign create
// idempotency moves to redis when REDIS_URL is set.
func BuildCore(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) (*Core, error) {
	if logger == nil {
		logger = slog.Default()
	}
	database, err := db.Connect(db.Options{
		Driver:      cfg.DBDriver,
		PostgresDSN: cfg.PostgresDSN,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		return nil, err
	}
	core, err := buildDatabaseCore(ctx, database, cfg, logger, metrics)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return core, nil
}

func buildDatabaseCore(
	ctx context.Context,
	database *db.Database,
	cfg config.Config,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (*Core, error) {
	if logger == nil {
		logger = slog.Default()
	}
	scope := db.NewScope(database.DB)
	campaignRepo := campaignpostgres.NewRepository(database.DB, logger)
	clipRepo := clippostgres.NewRepository(database.DB, logger)
	walletRepo := walletpostgres.NewRepository(database.DB, logger)

	if cfg.DBAutoMigrate {
		migrations := []struct {
			name    string
			migrate func(context.Context) error
		}{
			{"campaign", campaignRepo.Migrate},
			{"clip", clipRepo.Migrate},
			{"wallet", walletRepo.Migrate},
		}
		for _, item := range migrations {
			if err := item.migrate(ctx); err != nil {
				return nil, fmt.Errorf("migrate %s tables: %w", item.name, err)
			}
		}
	}

	var (
		idempotency campaignports.IdempotencyStore = campaignRepo
		redisClient *redis.Client
	)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		redisClient = client
		idempotency = campaignredis.NewIdempotencyStore(client)
	}

	idempotencyTTL := cfg.IdempotencyTTL
	if idempotencyTTL <= 0 {
		idempotencyTTL = 7 * 24 * time.Hour
	}
	campaigns := campaignservice.NewModule(campaignservice.Dependencies{
		Campaigns:      campaignRepo,
		History:        campaignRepo,
		Idempotency:    idempotency,
		Outbox:         campaignRepo,
		UnitOfWork:     scope,
		Clock:          campaignpostgres.SystemClock{},
		IDGenerator:    campaignpostgres.UUIDGenerator{},
		IdempotencyTTL: idempotencyTTL,
		Logger:         logger,
	})

	wallets := walletservice.NewModule(walletservice.Dependencies{
		Wallets:    walletRepo,
		Earnings:   walletpostgres.NewEarningsReader(database.DB),
		Outbox:     walletRepo,
		UnitOfWork: scope,
		Metrics:    metrics,
		Clock:      walletpostgres.SystemClock{},
		IDGen:      walletpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	clips := clipservice.NewModule(clipservice.Dependencies{
		Clips:      clipRepo,
		Audits:     clipRepo,
		Campaigns:  clippostgres.NewCampaignReader(database.DB),
		Creators:   walletCreators{wallets: wallets},
		Wallets:    wallets,
		Outbox:     clipRepo,
		Dedup:      clipRepo,
		UnitOfWork: scope,
		Metrics:    metrics,
		Clock:      clippostgres.SystemClock{},
		IDGen:      clippostgres.UUIDGenerator{},
		Logger:     logger,
	})

	return &Core{
		Campaigns: campaigns,
		Clips:     clips,
		Wallets:   wallets,
		outboxes: map[string]outbox.Source{
			"campaign-editorial/campaign-service": campaignRepo.Outbox(),
			"campaign-editorial/clip-service":     clipRepo.Outbox(),
			"finance-core/wallet-service":         walletRepo.Outbox(),
		},
		database: database,
		redis:    redisClient,
		logger:   logger,
	}, nil
}

// Relays returns one outbox relay per module, publishing to publisher.
func (c *Core) Relays(publisher outbox.Publisher, batchSize int) []outbox.Relay {
	relays := make([]outbox.Relay, 0, len(c.outboxes))
	for _, module := range []string{
		"campaign-editorial/campaign-service",
		"campaign-editorial/clip-service",
		"finance-core/wallet-service",
	} {
		relays = append(relays, outbox.Relay{
			Module:    module,
			Source:    c.outboxes[module],
			Publisher: publisher,
			BatchSize: batchSize,
			Logger:    c.logger,
		})
	}
	return relays
}

func (c *Core) Close() error {
	var errs []error
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.database != nil {
		errs = append(errs, c.database.Close())
	}
	return errors.Join(errs...)
}
