package ports

import (
	"context"
	"time"

	"clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	contractsv1 "clypzy/contracts/gen/events/v1"

	"github.com/shopspring/decimal"
)

type ClipFilter struct {
	CreatorID  string
	CampaignID string
	Status     entities.ClipStatus
}

type ClipRepository interface {
	CreateClip(ctx context.Context, clip entities.Clip) error
	UpdateClip(ctx context.Context, clip entities.Clip) error
	DeleteClip(ctx context.Context, clipID string) error
	GetClip(ctx context.Context, clipID string) (entities.Clip, error)
	ListClips(ctx context.Context, filter ClipFilter) ([]entities.Clip, error)
}

type AuditRepository interface {
	AppendAudit(ctx context.Context, audit entities.ClipAudit) error
	ListAudits(ctx context.Context, clipID string) ([]entities.ClipAudit, error)
}

// CampaignReader resolves the campaign a clip belongs to. A missing campaign
// is reported as ErrCampaignNotFound.
type CampaignReader interface {
	GetCampaign(ctx context.Context, campaignID string) (entities.CampaignSnapshot, error)
}

// WalletAggregator recomputes a creator's balance from approved clip
// earnings. It must join the unit of work carried by ctx.
type WalletAggregator interface {
	Recompute(ctx context.Context, creatorID string) (decimal.Decimal, error)
}

// CreatorDirectory reports whether a creator is registered and can hold
// earnings.
type CreatorDirectory interface {
	CreatorExists(ctx context.Context, creatorID string) (bool, error)
}

// UnitOfWork runs fn so that every write made through ctx commits together
// or not at all. Calls sharing a key are serialized.
type UnitOfWork interface {
	Within(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type Metrics interface {
	RecordTransition(from string, to string)
	RecordViewUpdate(outcome string)
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

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}
