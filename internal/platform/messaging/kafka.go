package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	contractsv1 "clypzy/contracts/gen/events/v1"

	"github.com/segmentio/kafka-go"
)

// KafkaBus publishes envelopes as JSON messages keyed by partition key and
// runs one reader per subscription.
type KafkaBus struct {
	brokers []string
	writer  *kafka.Writer
	logger  *slog.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
}

func NewKafkaBus(brokers []string, logger *slog.Logger) (*KafkaBus, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka bus requires at least one broker")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaBus{
		brokers: append([]string(nil), brokers...),
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}, nil
}

func (k *KafkaBus) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.PartitionKey),
		Value: payload,
		Time:  event.OccurredAt.UTC(),
	}); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (k *KafkaBus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	if consumerGroup == "" {
		return fmt.Errorf("kafka subscription requires a consumer group")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  consumerGroup,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	k.mu.Lock()
	k.readers = append(k.readers, reader)
	k.mu.Unlock()

	go k.consume(ctx, reader, topic, consumerGroup, handler)
	return nil
}

func (k *KafkaBus) consume(
	ctx context.Context,
	reader *kafka.Reader,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				return
			}
			k.logger.Error("kafka fetch failed",
				"event", "kafka_fetch_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"error", err.Error(),
			)
			continue
		}

		var event contractsv1.Envelope
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			k.logger.Error("kafka message decode failed",
				"event", "kafka_decode_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"offset", msg.Offset,
				"error", err.Error(),
			)
		} else if err := deliverWithRetry(ctx, handler, event, handlerAttempts, handlerBackoff); err != nil {
			if ctx.Err() != nil {
				// Left uncommitted so the group redelivers it after restart.
				return
			}
			k.logger.Error("consumer handler failed, message skipped",
				"event", "kafka_consume_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"offset", msg.Offset,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"attempts", handlerAttempts,
				"error", err.Error(),
			)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			k.logger.Warn("kafka commit failed",
				"event", "kafka_commit_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"offset", msg.Offset,
				"error", err.Error(),
			)
		}
	}
}

const (
	handlerAttempts = 5
	handlerBackoff  = 200 * time.Millisecond
)

// deliverWithRetry runs handler until it succeeds, attempts run out or ctx
// ends. The delay doubles after every failure.
func deliverWithRetry(
	ctx context.Context,
	handler func(context.Context, contractsv1.Envelope) error,
	event contractsv1.Envelope,
	attempts int,
	backoff time.Duration,
) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = handler(ctx, event); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
		backoff *= 2
	}
	return err
}

func (k *KafkaBus) Close() error {
	k.mu.Lock()
	readers := k.readers
	k.readers = nil
	k.mu.Unlock()

	errs := make([]error, 0, len(readers)+1)
	for _, reader := range readers {
		errs = append(errs, reader.Close())
	}
	errs = append(errs, k.writer.Close())
	return errors.Join(errs...)
}
