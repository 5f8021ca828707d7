package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	contractsv1 "clypzy/contracts/gen/events/v1"
)

// Source is the read side of a module's outbox table.
type Source interface {
	ListPending(ctx context.Context, limit int) ([]Message, error)
	MarkPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, event contractsv1.Envelope) error
}

// Relay publishes one module's pending outbox rows to the event bus.
type Relay struct {
	Module    string
	Source    Source
	Publisher Publisher
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending rows and marks each row
// published only after the broker accepted it. It stops on the first failure
// so the next cycle retries the remaining rows in order.
func (r Relay) RunOnce(ctx context.Context) (int, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Source.ListPending(ctx, limit)
	if err != nil {
		logger.Error("outbox list failed",
			"event", "outbox_list_failed",
			"module", r.Module,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	published := 0
	for _, row := range pending {
		var event contractsv1.Envelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("outbox decode failed",
				"event", "outbox_decode_failed",
				"module", r.Module,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("outbox publish failed",
				"event", "outbox_publish_failed",
				"module", r.Module,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Source.MarkPublished(ctx, row.OutboxID, time.Now().UTC()); err != nil {
			logger.Error("outbox mark published failed",
				"event", "outbox_mark_published_failed",
				"module", r.Module,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		published++
	}

	if published > 0 {
		logger.Info("outbox relay cycle completed",
			"event", "outbox_relay_completed",
			"module", r.Module,
			"layer", "worker",
			"published_count", published,
		)
	}
	return published, nil
}
