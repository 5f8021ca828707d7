package v1

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// Envelope is the canonical, versioned event envelope for cross-runtime use.
// This package is contract-only and must stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// DataHash fingerprints the payload. Consumers store it with the event id to
// tell a replay from a conflicting reuse of the id.
func (e Envelope) DataHash() string {
	sum := sha256.Sum256(e.Data)
	return hex.EncodeToString(sum[:])
}

// Source describes the emitting service and the payload field used to
// partition its events.
type Source struct {
	Service          string
	PartitionKeyPath string
}

// New builds a schema version 1 envelope. The trace id defaults to the event
// id so replays can be correlated without an upstream trace.
func (s Source) New(
	eventID string,
	eventType string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) (Envelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        strings.TrimSpace(eventType),
		OccurredAt:       occurredAt.UTC(),
		SourceService:    s.Service,
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: s.PartitionKeyPath,
		PartitionKey:     strings.TrimSpace(partitionKey),
		Data:             payload,
	}, nil
}
