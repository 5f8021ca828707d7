package ports

import (
	"context"
	"time"

	"clypzy/contexts/campaign-editorial/campaign-service/domain/entities"
	contractsv1 "clypzy/contracts/gen/events/v1"
)

type CampaignFilter struct {
	BrandID string
	Status  entities.CampaignStatus
}

type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign entities.Campaign) error
	UpdateCampaign(ctx context.Context, campaign entities.Campaign) error
	DeleteCampaign(ctx context.Context, campaignID string) error
	GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]entities.Campaign, error)
}

type HistoryRepository interface {
	AppendState(ctx context.Context, item entities.StateHistory) error
	ListStates(ctx context.Context, campaignID string) ([]entities.StateHistory, error)
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

// UnitOfWork runs fn so that every write made through ctx commits together
// or not at all. Calls sharing a key are serialized.
type UnitOfWork interface {
	Within(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}
