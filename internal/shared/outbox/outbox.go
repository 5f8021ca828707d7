package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	contractsv1 "clypzy/contracts/gen/events/v1"
	"clypzy/internal/platform/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	StatusPending   = "pending"
	StatusPublished = "published"
)

var (
	// ErrPayloadConflict is returned when an event ID is reused with a
	// different payload.
	ErrPayloadConflict = errors.New("outbox payload conflict")
	ErrNotFound        = errors.New("outbox row not found")
)

// Message is an outbox row persisted inside the same DB transaction as the
// state change it describes. The relay reads pending rows and publishes them.
type Message struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// Store keeps outbox and consumer dedup rows in per-module tables.
// Writes join the transaction carried by ctx when there is one.
type Store struct {
	db          *gorm.DB
	outboxTable string
	dedupTable  string
}

func NewStore(conn *gorm.DB, outboxTable string, dedupTable string) *Store {
	return &Store{
		db:          conn,
		outboxTable: outboxTable,
		dedupTable:  dedupTable,
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	conn := s.db.WithContext(ctx)
	if err := conn.Table(s.outboxTable).AutoMigrate(&outboxRow{}); err != nil {
		return fmt.Errorf("migrate %s: %w", s.outboxTable, err)
	}
	if s.dedupTable != "" {
		if err := conn.Table(s.dedupTable).AutoMigrate(&dedupRow{}); err != nil {
			return fmt.Errorf("migrate %s: %w", s.dedupTable, err)
		}
	}
	return nil
}

func (s *Store) Append(ctx context.Context, envelope contractsv1.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope %s: %w", envelope.EventID, err)
	}
	row := outboxRow{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	conn := db.Conn(ctx, s.db).WithContext(ctx)
	create := conn.Table(s.outboxTable).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return fmt.Errorf("insert outbox row %s: %w", row.OutboxID, create.Error)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxRow
	if err := conn.Table(s.outboxTable).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return fmt.Errorf("load outbox row %s: %w", row.OutboxID, err)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return ErrPayloadConflict
	}
	return nil
}

func (s *Store) ListPending(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxRow
	if err := db.Conn(ctx, s.db).WithContext(ctx).
		Table(s.outboxTable).
		Where("status = ?", StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list pending %s: %w", s.outboxTable, err)
	}
	items := make([]Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, Message{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (s *Store) MarkPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := db.Conn(ctx, s.db).WithContext(ctx).
		Table(s.outboxTable).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       StatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("mark published %s: %w", outboxID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReserveEvent records eventID as processed. It reports true when the event
// was already reserved with the same payload hash.
func (s *Store) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	row := dedupRow{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	conn := db.Conn(ctx, s.db).WithContext(ctx)
	create := conn.Table(s.dedupTable).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, fmt.Errorf("reserve event %s: %w", row.EventID, create.Error)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing dedupRow
	if err := conn.Table(s.dedupTable).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, fmt.Errorf("load reserved event %s: %w", row.EventID, err)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, ErrPayloadConflict
	}
	return true, nil
}

type outboxRow struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type;index"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

type dedupRow struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}
