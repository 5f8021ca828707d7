package postgresadapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
	"clypzy/contexts/campaign-editorial/clip-service/ports"
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

func sampleClip(id string, creatorID string, status entities.ClipStatus, submittedAt time.Time) entities.Clip {
	return entities.Clip{
		ClipID:         id,
		CampaignID:     "camp-1",
		CreatorID:      creatorID,
		ClipLink:       "https://clips.example.com/" + id,
		ClipTimestamps: []string{"00:00:10", "00:00:45"},
		CreatorMessage: "cut from the intro",
		Views:          11_675,
		Earnings:       decimal.RequireFromString("40.8625"),
		CPMApplied:     decimal.RequireFromString("3.5"),
		Status:         status,
		SubmittedAt:    submittedAt,
		UpdatedAt:      submittedAt,
	}
}

func TestRepositoryClipLifecycle(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	clip := sampleClip("clip-1", "creator-1", entities.ClipStatusApproved, base)
	require.NoError(t, repo.CreateClip(ctx, clip))
	require.ErrorIs(t, repo.CreateClip(ctx, clip), domainerrors.ErrConflict)

	loaded, err := repo.GetClip(ctx, "clip-1")
	require.NoError(t, err)
	require.Equal(t, []string{"00:00:10", "00:00:45"}, loaded.ClipTimestamps)
	require.True(t, loaded.Earnings.Equal(decimal.RequireFromString("40.8625")))
	require.Equal(t, entities.ClipStatusApproved, loaded.Status)

	flaggedAt := base.Add(time.Hour)
	loaded.Status = entities.ClipStatusFlagged
	loaded.FlaggedAt = &flaggedAt
	loaded.ReviewedBy = "admin-1"
	require.NoError(t, repo.UpdateClip(ctx, loaded))

	reloaded, err := repo.GetClip(ctx, "clip-1")
	require.NoError(t, err)
	require.Equal(t, entities.ClipStatusFlagged, reloaded.Status)
	require.NotNil(t, reloaded.FlaggedAt)
	require.Equal(t, "admin-1", reloaded.ReviewedBy)

	require.NoError(t, repo.DeleteClip(ctx, "clip-1"))
	_, err = repo.GetClip(ctx, "clip-1")
	require.ErrorIs(t, err, domainerrors.ErrClipNotFound)
	require.ErrorIs(t, repo.UpdateClip(ctx, loaded), domainerrors.ErrClipNotFound)
	require.ErrorIs(t, repo.DeleteClip(ctx, "clip-1"), domainerrors.ErrClipNotFound)
}

func TestRepositoryListClipsFilters(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateClip(ctx, sampleClip("clip-a", "creator-1", entities.ClipStatusApproved, base)))
	require.NoError(t, repo.CreateClip(ctx, sampleClip("clip-b", "creator-1", entities.ClipStatusPending, base.Add(time.Minute))))
	require.NoError(t, repo.CreateClip(ctx, sampleClip("clip-c", "creator-2", entities.ClipStatusApproved, base.Add(2*time.Minute))))

	items, err := repo.ListClips(ctx, ports.ClipFilter{CreatorID: "creator-1"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "clip-b", items[0].ClipID)

	approved, err := repo.ListClips(ctx, ports.ClipFilter{CreatorID: "creator-1", Status: entities.ClipStatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, "clip-a", approved[0].ClipID)

	all, err := repo.ListClips(ctx, ports.ClipFilter{CampaignID: "camp-1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestRepositoryAuditsAndEventDedup(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.AppendAudit(ctx, entities.ClipAudit{
		AuditID:     "audit-1",
		ClipID:      "clip-1",
		CreatorID:   "creator-1",
		Action:      entities.AuditActionViewsUpdated,
		ActorID:     "system:view-sync",
		FromStatus:  entities.ClipStatusApproved,
		ToStatus:    entities.ClipStatusApproved,
		OldViews:    0,
		NewViews:    10_000,
		OldEarnings: decimal.Zero,
		NewEarnings: decimal.RequireFromString("50"),
		CreatedAt:   now,
	}))
	audits, err := repo.ListAudits(ctx, "clip-1")
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, int64(10_000), audits[0].NewViews)

	replayed, err := repo.ReserveEvent(ctx, "evt-1", "hash-a", now.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, replayed)
	replayed, err = repo.ReserveEvent(ctx, "evt-1", "hash-a", now.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, replayed)
	_, err = repo.ReserveEvent(ctx, "evt-1", "hash-b", now.Add(time.Hour))
	require.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestRepositoryRollsBackInsideScope(t *testing.T) {
	repo, conn := newTestRepository(t)
	ctx := context.Background()
	scope := db.NewScope(conn)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := scope.Within(ctx, "creator:creator-1", func(ctx context.Context) error {
		if err := repo.CreateClip(ctx, sampleClip("clip-x", "creator-1", entities.ClipStatusPending, base)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = repo.GetClip(ctx, "clip-x")
	require.ErrorIs(t, err, domainerrors.ErrClipNotFound)
}

func TestCampaignReaderProjection(t *testing.T) {
	_, conn := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, conn.Exec(
		"CREATE TABLE campaigns (campaign_id TEXT PRIMARY KEY, status TEXT, cpm NUMERIC, currency TEXT)",
	).Error)
	require.NoError(t, conn.Exec(
		"INSERT INTO campaigns (campaign_id, status, cpm, currency) VALUES (?, ?, ?, ?)",
		"camp-1", "live", "3.5", "USD",
	).Error)

	reader := NewCampaignReader(conn)
	snapshot, err := reader.GetCampaign(ctx, "camp-1")
	require.NoError(t, err)
	require.True(t, snapshot.IsLive())
	require.True(t, snapshot.CPM.Equal(decimal.RequireFromString("3.5")))

	_, err = reader.GetCampaign(ctx, "camp-missing")
	require.ErrorIs(t, err, domainerrors.ErrCampaignNotFound)
}
