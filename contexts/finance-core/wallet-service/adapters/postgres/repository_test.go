package postgresadapter

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"clypzy/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "clypzy/contexts/finance-core/wallet-service/domain/errors"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewRepository(conn, nil)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo, conn
}

func TestRepositoryWalletLifecycle(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	wallet := entities.Wallet{
		UserID:           "creator-1",
		AvailableBalance: decimal.Zero,
		Currency:         entities.CurrencyUSD,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, repo.CreateWallet(ctx, wallet))
	require.ErrorIs(t, repo.CreateWallet(ctx, wallet), domainerrors.ErrConflict)

	recomputedAt := now.Add(time.Minute)
	wallet.AvailableBalance = decimal.RequireFromString("40.8625")
	wallet.ApprovedClipCount = 1
	wallet.LastRecomputedAt = &recomputedAt
	wallet.UpdatedAt = recomputedAt
	require.NoError(t, repo.UpdateWallet(ctx, wallet))

	loaded, err := repo.GetWallet(ctx, "creator-1")
	require.NoError(t, err)
	require.True(t, loaded.AvailableBalance.Equal(decimal.RequireFromString("40.8625")))
	require.Equal(t, 1, loaded.ApprovedClipCount)
	require.NotNil(t, loaded.LastRecomputedAt)

	_, err = repo.GetWallet(ctx, "creator-404")
	require.ErrorIs(t, err, domainerrors.ErrWalletNotFound)
	require.ErrorIs(t, repo.UpdateWallet(ctx, entities.Wallet{UserID: "creator-404"}), domainerrors.ErrWalletNotFound)

	require.NoError(t, repo.CreateWallet(ctx, entities.Wallet{UserID: "creator-0", Currency: entities.CurrencyEUR, CreatedAt: now, UpdatedAt: now}))
	ids, err := repo.ListWalletIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"creator-0", "creator-1"}, ids)
}

func TestEarningsReaderSumsApprovedClipsOnly(t *testing.T) {
	_, conn := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, conn.Exec(
		"CREATE TABLE clips (clip_id TEXT PRIMARY KEY, creator_id TEXT, status TEXT, earnings NUMERIC)",
	).Error)
	for _, row := range [][]any{
		{"clip-1", "creator-1", "approved", "50"},
		{"clip-2", "creator-1", "flagged", "25"},
		{"clip-3", "creator-1", "approved", "0.5"},
		{"clip-4", "creator-2", "approved", "7"},
	} {
		require.NoError(t, conn.Exec(
			"INSERT INTO clips (clip_id, creator_id, status, earnings) VALUES (?, ?, ?, ?)", row...,
		).Error)
	}

	reader := NewEarningsReader(conn)
	items, err := reader.ListApprovedEarnings(ctx, "creator-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "clip-1", items[0].ClipID)
	require.True(t, items[0].Earnings.Add(items[1].Earnings).Equal(decimal.RequireFromString("50.5")))
}

func TestGetWalletMissIsQuiet(t *testing.T) {
	var trace bytes.Buffer
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.New(log.New(&trace, "", 0), logger.Config{
			LogLevel: logger.Warn,
		}),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewRepository(conn, nil)
	require.NoError(t, repo.Migrate(context.Background()))
	trace.Reset()

	_, err = repo.GetWallet(context.Background(), "creator-new")
	require.ErrorIs(t, err, domainerrors.ErrWalletNotFound)
	require.Empty(t, trace.String())
}
