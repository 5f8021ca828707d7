package bootstrap

import (
	"context"
	"testing"
	"time"

	clipentities "clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	contractsv1 "clypzy/contracts/gen/events/v1"
	"clypzy/internal/platform/config"
	"clypzy/internal/platform/messaging"

	"github.com/prometheus/client_golang/prometheus"
)

func TestWorkerAppliesReportedViewsAndRelaysOutbox(t *testing.T) {
	core := BuildInMemoryCore(nil, nil)
	if _, err := core.Wallets.OpenWallet(context.Background(), "creator-1", "USD"); err != nil {
		t.Fatalf("open wallet failed: %v", err)
	}
	campaignID := launchCampaign(t, core, "5.00", 10_000, "50.00")
	clip := approvedClip(t, core, campaignID, "creator-1", 0)

	bus := messaging.NewInProcessBus(nil)
	app := newWorkerApp(core, bus, prometheus.NewRegistry(), config.Config{
		PollInterval:           20 * time.Millisecond,
		OutboxBatchSize:        10,
		EnableViewSyncConsumer: true,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relayed := make(chan contractsv1.Envelope, 16)
	if err := bus.Subscribe(ctx, "clip.status_changed", "test-cg", func(_ context.Context, event contractsv1.Envelope) error {
		relayed <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case event := <-relayed:
		if event.PartitionKey != "creator-1" {
			t.Fatalf("expected creator partition key, got %q", event.PartitionKey)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed clip.status_changed")
	}

	source := contractsv1.Source{Service: "view-scraper", PartitionKeyPath: "clip_id"}
	report, err := source.New("evt-views-1", "clip.views_reported", clip.ClipID, time.Now(), map[string]any{
		"clip_id": clip.ClipID,
		"views":   10_000,
	})
	if err != nil {
		t.Fatalf("build event failed: %v", err)
	}
	if err := bus.Publish(ctx, "clip.views_reported", report); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for walletBalance(t, core, "creator-1") != "50.00" {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for reported views to reach the wallet")
		}
		time.Sleep(10 * time.Millisecond)
	}
	stored, err := core.Clips.GetClip(ctx, clip.ClipID, clipentities.Viewer{Role: clipentities.ActorRoleAdmin})
	if err != nil || stored.Views != 10_000 {
		t.Fatalf("expected clip views 10000, got %d err=%v", stored.Views, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("worker returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
