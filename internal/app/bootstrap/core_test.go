package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	campaigncommands "clypzy/contexts/campaign-editorial/campaign-service/application/commands"
	campaignentities "clypzy/contexts/campaign-editorial/campaign-service/domain/entities"
	clipcommands "clypzy/contexts/campaign-editorial/clip-service/application/commands"
	clipentities "clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	cliperrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
	contractsv1 "clypzy/contracts/gen/events/v1"
	"clypzy/internal/platform/config"
	"clypzy/internal/platform/db"

	"github.com/shopspring/decimal"
)

func launchCampaign(t *testing.T, core *Core, cpm string, goal int64, deposit string) string {
	t.Helper()
	ctx := context.Background()
	created, err := core.Campaigns.CreateCampaign(ctx, campaigncommands.CreateCampaignCommand{
		BrandID:      "brand-1",
		Title:        "Summer Launch",
		Description:  "Short clips of the summer launch stream",
		SourceVideos: []string{"https://videos.example.com/launch"},
		GoalViews:    goal,
		CPM:          decimal.RequireFromString(cpm),
		Deposit:      decimal.RequireFromString(deposit),
	})
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if _, err := core.Campaigns.ChangeStatus(ctx, campaigncommands.ChangeStatusCommand{
		CampaignID: created.Campaign.CampaignID,
		ActorID:    "admin-1",
		Status:     campaignentities.CampaignStatusLive,
	}); err != nil {
		t.Fatalf("launch campaign failed: %v", err)
	}
	return created.Campaign.CampaignID
}

func approvedClip(t *testing.T, core *Core, campaignID string, creatorID string, views int64) clipentities.Clip {
	t.Helper()
	ctx := context.Background()
	clip, err := core.Clips.SubmitClip(ctx, clipcommands.SubmitClipCommand{
		CreatorID:      creatorID,
		CampaignID:     campaignID,
		ClipLink:       "https://clips.example.com/" + creatorID,
		ClipTimestamps: []string{"00:00:05"},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := core.Clips.TransitionClipStatus(ctx, clipcommands.TransitionClipCommand{
		ClipID: clip.ClipID, Status: clipentities.ClipStatusApproved, ActorID: "admin-1",
	}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	updated, err := core.Clips.UpdateClipViews(ctx, clipcommands.UpdateViewsCommand{
		ClipID: clip.ClipID, Views: views, ActorID: "admin-1",
	})
	if err != nil {
		t.Fatalf("update views failed: %v", err)
	}
	return updated
}

func walletBalance(t *testing.T, core *Core, creatorID string) string {
	t.Helper()
	wallet, err := core.Wallets.GetCreatorWallet(context.Background(), creatorID)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	return wallet.AvailableBalance.StringFixed(2)
}

func runMarketplaceScenario(t *testing.T, core *Core) {
	t.Helper()
	ctx := context.Background()

	if _, err := core.Wallets.OpenWallet(ctx, "creator-1", "USD"); err != nil {
		t.Fatalf("open wallet failed: %v", err)
	}
	campaignID := launchCampaign(t, core, "5.00", 10_000, "50.00")
	clip := approvedClip(t, core, campaignID, "creator-1", 10_000)
	if clip.Earnings.StringFixed(2) != "50.00" {
		t.Fatalf("expected clip earnings 50.00, got %s", clip.Earnings)
	}
	if got := walletBalance(t, core, "creator-1"); got != "50.00" {
		t.Fatalf("expected wallet 50.00, got %s", got)
	}

	if _, err := core.Clips.TransitionClipStatus(ctx, clipcommands.TransitionClipCommand{
		ClipID: clip.ClipID, Status: clipentities.ClipStatusFlagged, ActorID: "admin-1",
	}); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	if got := walletBalance(t, core, "creator-1"); got != "0.00" {
		t.Fatalf("expected wallet 0.00 after flag, got %s", got)
	}
}

func TestInMemoryCoreScenario(t *testing.T) {
	runMarketplaceScenario(t, BuildInMemoryCore(nil, nil))
}

func TestInMemoryCoreRejectsClipsFromCreatorsWithoutWallet(t *testing.T) {
	core := BuildInMemoryCore(nil, nil)
	ctx := context.Background()
	campaignID := launchCampaign(t, core, "5.00", 10_000, "50.00")

	_, err := core.Clips.SubmitClip(ctx, clipcommands.SubmitClipCommand{
		CreatorID:  "creator-9",
		CampaignID: campaignID,
		ClipLink:   "https://clips.example.com/creator-9",
	})
	if !errors.Is(err, cliperrors.ErrCreatorNotFound) {
		t.Fatalf("expected creator not found, got %v", err)
	}

	if _, err := core.Wallets.OpenWallet(ctx, "creator-9", "USD"); err != nil {
		t.Fatalf("open wallet failed: %v", err)
	}
	approvedClip(t, core, campaignID, "creator-9", 2_000)
	if got := walletBalance(t, core, "creator-9"); got != "10.00" {
		t.Fatalf("expected wallet 10.00, got %s", got)
	}
}

func TestInMemoryCorePreciseEarnings(t *testing.T) {
	core := BuildInMemoryCore(nil, nil)
	if _, err := core.Wallets.OpenWallet(context.Background(), "creator-2", ""); err != nil {
		t.Fatalf("open wallet failed: %v", err)
	}
	campaignID := launchCampaign(t, core, "3.50", 20_000, "70.00")
	approvedClip(t, core, campaignID, "creator-2", 11_675)

	if got := walletBalance(t, core, "creator-2"); got != "40.86" {
		t.Fatalf("expected wallet 40.86, got %s", got)
	}
}

func TestInMemoryCoreConcurrentUpdatesKeepWalletExact(t *testing.T) {
	core := BuildInMemoryCore(nil, nil)
	ctx := context.Background()
	if _, err := core.Wallets.OpenWallet(ctx, "creator-1", "USD"); err != nil {
		t.Fatalf("open wallet failed: %v", err)
	}
	campaignID := launchCampaign(t, core, "5.00", 100_000, "500.00")

	const clips = 12
	ids := make([]string, 0, clips)
	for i := 0; i < clips; i++ {
		ids = append(ids, approvedClip(t, core, campaignID, "creator-1", 0).ClipID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, clips*2)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			for _, views := range []int64{int64(i) * 100, 1_000} {
				if _, err := core.Clips.UpdateClipViews(ctx, clipcommands.UpdateViewsCommand{
					ClipID: id, Views: views, ActorID: "sync",
				}); err != nil {
					errs <- fmt.Errorf("clip %s: %w", id, err)
				}
			}
		}(i, id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("update failed: %v", err)
	}

	if got := walletBalance(t, core, "creator-1"); got != "60.00" {
		t.Fatalf("expected wallet 60.00 for 12 clips at 5.00, got %s", got)
	}
}

func TestDatabaseCoreScenarioOnSQLite(t *testing.T) {
	ctx := context.Background()
	database, err := db.Connect(db.Options{
		Driver:     db.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "clypzy.db"),
	})
	if err != nil {
		t.Fatalf("connect sqlite failed: %v", err)
	}
	core, err := buildDatabaseCore(ctx, database, config.Config{DBAutoMigrate: true}, nil, nil)
	if err != nil {
		t.Fatalf("build core failed: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })

	runMarketplaceScenario(t, core)

	publisher := &capturePublisher{}
	relays := core.Relays(publisher, 50)
	if len(relays) != 3 {
		t.Fatalf("expected a relay per module, got %d", len(relays))
	}
	for _, relay := range relays {
		if _, err := relay.RunOnce(ctx); err != nil {
			t.Fatalf("relay %s failed: %v", relay.Module, err)
		}
	}
	seen := map[string]bool{}
	for _, topic := range publisher.topics {
		seen[topic] = true
	}
	for _, want := range []string{"campaign.created", "clip.submitted", "clip.status_changed", "clip.views_updated", "wallet.recomputed"} {
		if !seen[want] {
			t.Fatalf("expected %s to be relayed, got %v", want, publisher.topics)
		}
	}
	for _, relay := range relays {
		published, err := relay.RunOnce(ctx)
		if err != nil || published != 0 {
			t.Fatalf("expected relayed rows to stay published, got %d err=%v", published, err)
		}
	}
}

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *capturePublisher) Publish(_ context.Context, topic string, _ contractsv1.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}
