package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	domainerrors "clypzy/contexts/campaign-editorial/campaign-service/domain/errors"
	"clypzy/contexts/campaign-editorial/campaign-service/ports"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "campaign:idempotency:"

// IdempotencyStore keeps campaign create replay records in Redis. Expiry is
// delegated to the key TTL.
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

type storedRecord struct {
	RequestHash     string    `json:"request_hash"`
	ResponsePayload []byte    `json:"response_payload"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func (s *IdempotencyStore) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	key = strings.TrimSpace(key)
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	if !stored.ExpiresAt.After(now) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:             key,
		RequestHash:     stored.RequestHash,
		ResponsePayload: stored.ResponsePayload,
		ExpiresAt:       stored.ExpiresAt.UTC(),
	}, true, nil
}

func (s *IdempotencyStore) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	key := strings.TrimSpace(record.Key)
	raw, err := json.Marshal(storedRecord{
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	})
	if err != nil {
		return err
	}
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	stored, err := s.client.SetNX(ctx, keyPrefix+key, raw, ttl).Result()
	if err != nil {
		return err
	}
	if stored {
		return nil
	}
	existing, found, err := s.GetRecord(ctx, key, time.Now().UTC())
	if err != nil {
		return err
	}
	if found && existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	return nil
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)
