package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	contractsv1 "clypzy/contracts/gen/events/v1"
	"clypzy/internal/platform/lock"
)

// MemoryStore is the in-process counterpart of Store. Writes register undo
// entries so a failed unit of work drops the rows it appended.
type MemoryStore struct {
	mu       sync.Mutex
	rows     map[string]memoryRow
	reserved map[string]string
	sequence int64
}

type memoryRow struct {
	message   Message
	published bool
	seq       int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:     make(map[string]memoryRow),
		reserved: make(map[string]string),
	}
}

func (s *MemoryStore) Append(ctx context.Context, envelope contractsv1.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(envelope.EventID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rows[id]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return ErrPayloadConflict
		}
		return nil
	}
	s.sequence++
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.rows[id] = memoryRow{
		message: Message{
			OutboxID:     id,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    createdAt,
		},
		seq: s.sequence,
	}
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		delete(s.rows, id)
		s.mu.Unlock()
	})
	return nil
}

func (s *MemoryStore) ListPending(_ context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]memoryRow, 0, len(s.rows))
	for _, row := range s.rows {
		if !row.published {
			pending = append(pending, row)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].seq < pending[j].seq })
	if len(pending) > limit {
		pending = pending[:limit]
	}
	items := make([]Message, 0, len(pending))
	for _, row := range pending {
		msg := row.message
		msg.Payload = append([]byte(nil), msg.Payload...)
		items = append(items, msg)
	}
	return items, nil
}

func (s *MemoryStore) MarkPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[strings.TrimSpace(outboxID)]
	if !ok {
		return ErrNotFound
	}
	row.published = true
	s.rows[row.message.OutboxID] = row
	return nil
}

func (s *MemoryStore) ReserveEvent(ctx context.Context, eventID string, payloadHash string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eventID = strings.TrimSpace(eventID)
	if existing, ok := s.reserved[eventID]; ok {
		if existing != payloadHash {
			return false, ErrPayloadConflict
		}
		return true, nil
	}
	s.reserved[eventID] = payloadHash
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		delete(s.reserved, eventID)
		s.mu.Unlock()
	})
	return false, nil
}

// Events decodes every stored envelope in append order.
func (s *MemoryStore) Events() []contractsv1.Envelope {
	s.mu.Lock()
	rows := make([]memoryRow, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}
	s.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	events := make([]contractsv1.Envelope, 0, len(rows))
	for _, row := range rows {
		var envelope contractsv1.Envelope
		if err := json.Unmarshal(row.message.Payload, &envelope); err == nil {
			events = append(events, envelope)
		}
	}
	return events
}
