package postgresadapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"clypzy/contexts/campaign-editorial/campaign-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/campaign-service/domain/errors"
	"clypzy/contexts/campaign-editorial/campaign-service/ports"
	"clypzy/internal/platform/db"

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

func sampleCampaign(id string) entities.Campaign {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return entities.Campaign{
		CampaignID:        id,
		BrandID:           "brand-1",
		Title:             "Summer Launch",
		Description:       "Short clips of the summer launch stream",
		SourceVideos:      []string{"https://videos.example.com/a", "https://videos.example.com/b"},
		GoalViews:         10_000,
		CPM:               decimal.RequireFromString("2.5"),
		Deposit:           decimal.RequireFromString("25"),
		Currency:          entities.CurrencyEUR,
		MinViewsForPayout: 100,
		Status:            entities.CampaignStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestRepositoryCampaignLifecycle(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	campaign := sampleCampaign("c-1")
	require.NoError(t, repo.CreateCampaign(ctx, campaign))
	require.ErrorIs(t, repo.CreateCampaign(ctx, campaign), domainerrors.ErrConflict)

	got, err := repo.GetCampaign(ctx, "c-1")
	require.NoError(t, err)
	require.Equal(t, campaign.SourceVideos, got.SourceVideos)
	require.True(t, got.CPM.Equal(campaign.CPM))
	require.True(t, got.Deposit.Equal(campaign.Deposit))
	require.Equal(t, entities.CurrencyEUR, got.Currency)

	launched := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	got.Status = entities.CampaignStatusLive
	got.LaunchedAt = &launched
	require.NoError(t, repo.UpdateCampaign(ctx, got))

	live, err := repo.ListCampaigns(ctx, ports.CampaignFilter{Status: entities.CampaignStatusLive})
	require.NoError(t, err)
	require.Len(t, live, 1)
	require.NotNil(t, live[0].LaunchedAt)

	require.NoError(t, repo.DeleteCampaign(ctx, "c-1"))
	_, err = repo.GetCampaign(ctx, "c-1")
	require.ErrorIs(t, err, domainerrors.ErrCampaignNotFound)
	require.ErrorIs(t, repo.UpdateCampaign(ctx, got), domainerrors.ErrCampaignNotFound)
}

func TestRepositoryWritesRollBackWithScope(t *testing.T) {
	repo, conn := newTestRepository(t)
	ctx := context.Background()
	scope := db.NewScope(conn)
	boom := errors.New("boom")

	err := scope.Within(ctx, "campaign:c-2", func(ctx context.Context) error {
		require.NoError(t, repo.CreateCampaign(ctx, sampleCampaign("c-2")))
		require.NoError(t, repo.AppendState(ctx, entities.StateHistory{
			HistoryID:  "h-1",
			CampaignID: "c-2",
			FromState:  entities.CampaignStatusPending,
			ToState:    entities.CampaignStatusLive,
			CreatedAt:  time.Now().UTC(),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetCampaign(ctx, "c-2")
	require.ErrorIs(t, err, domainerrors.ErrCampaignNotFound)
	states, err := repo.ListStates(ctx, "c-2")
	require.NoError(t, err)
	require.Empty(t, states)
}

func TestRepositoryIdempotencyRecords(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	record := ports.IdempotencyRecord{
		Key:             "idem-1",
		RequestHash:     "hash-1",
		ResponsePayload: []byte(`{"campaign_id":"c-1"}`),
		ExpiresAt:       now.Add(time.Hour),
	}
	require.NoError(t, repo.PutRecord(ctx, record))
	require.NoError(t, repo.PutRecord(ctx, record))

	got, found, err := repo.GetRecord(ctx, "idem-1", now)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, record.ResponsePayload, got.ResponsePayload)

	_, found, err = repo.GetRecord(ctx, "idem-1", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, found)

	record.RequestHash = "hash-2"
	require.ErrorIs(t, repo.PutRecord(ctx, record), domainerrors.ErrIdempotencyKeyConflict)
}
