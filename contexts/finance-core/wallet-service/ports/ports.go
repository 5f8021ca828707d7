package ports

import (
	"context"
	"time"

	"clypzy/contexts/finance-core/wallet-service/domain/entities"
	contractsv1 "clypzy/contracts/gen/events/v1"
)

type WalletRepository interface {
	CreateWallet(ctx context.Context, wallet entities.Wallet) error
	UpdateWallet(ctx context.Context, wallet entities.Wallet) error
	GetWallet(ctx context.Context, userID string) (entities.Wallet, error)
	ListWalletIDs(ctx context.Context) ([]string, error)
}

// EarningsSource lists a creator's approved clip earnings. It must read
// through the unit of work carried by ctx.
type EarningsSource interface {
	ListApprovedEarnings(ctx context.Context, creatorID string) ([]entities.ApprovedEarning, error)
}

// UnitOfWork runs fn so that every write made through ctx commits together
// or not at all. Calls sharing a key are serialized.
type UnitOfWork interface {
	Within(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type Metrics interface {
	ObserveRecompute(outcome string, duration time.Duration)
	RecordDrift()
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
