package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	contractsv1 "clypzy/contracts/gen/events/v1"
)

func TestInProcessBusDeliversToSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewInProcessBus(nil)
	received := make(chan contractsv1.Envelope, 1)
	if err := bus.Subscribe(ctx, "clip.views_reported", "test-cg", func(_ context.Context, event contractsv1.Envelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := bus.Publish(ctx, "clip.views_reported", contractsv1.Envelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "evt-1" {
			t.Fatalf("expected evt-1, got %s", event.EventID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestInProcessBusIgnoresOtherTopics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewInProcessBus(nil)
	received := make(chan contractsv1.Envelope, 1)
	_ = bus.Subscribe(ctx, "wallet.recomputed", "test-cg", func(_ context.Context, event contractsv1.Envelope) error {
		received <- event
		return nil
	})
	_ = bus.Publish(ctx, "clip.deleted", contractsv1.Envelope{EventID: "evt-2"})

	select {
	case event := <-received:
		t.Fatalf("unexpected delivery of %s", event.EventID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeliverWithRetryRedeliversUntilSuccess(t *testing.T) {
	calls := 0
	err := deliverWithRetry(context.Background(), func(context.Context, contractsv1.Envelope) error {
		calls++
		if calls < 3 {
			return errors.New("wallet busy")
		}
		return nil
	}, contractsv1.Envelope{EventID: "evt-1"}, 5, time.Millisecond)
	if err != nil {
		t.Fatalf("expected delivery to succeed, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestDeliverWithRetryGivesUpAfterAttempts(t *testing.T) {
	failure := errors.New("wallet unavailable")
	calls := 0
	err := deliverWithRetry(context.Background(), func(context.Context, contractsv1.Envelope) error {
		calls++
		return failure
	}, contractsv1.Envelope{EventID: "evt-2"}, 3, time.Millisecond)
	if !errors.Is(err, failure) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestDeliverWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := deliverWithRetry(ctx, func(context.Context, contractsv1.Envelope) error {
		calls++
		cancel()
		return errors.New("wallet unavailable")
	}, contractsv1.Envelope{EventID: "evt-3"}, 5, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestInProcessBusRetriesFailedHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewInProcessBus(nil)
	done := make(chan int, 1)
	calls := 0
	if err := bus.Subscribe(ctx, "clip.views_reported", "test-cg", func(_ context.Context, _ contractsv1.Envelope) error {
		calls++
		if calls == 1 {
			return errors.New("wallet busy")
		}
		done <- calls
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := bus.Publish(ctx, "clip.views_reported", contractsv1.Envelope{EventID: "evt-4"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-done:
		if got != 2 {
			t.Fatalf("expected delivery on the second attempt, got %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event was not redelivered")
	}
}
