package postgresadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemClock reports wall time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator issues UUIDv4 identifiers for campaigns and their outbox events.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
