package commands

import (
	"context"
	"time"

	"clypzy/contexts/finance-core/wallet-service/domain/entities"
	"clypzy/contexts/finance-core/wallet-service/ports"
	contractsv1 "clypzy/contracts/gen/events/v1"
)

const eventWalletRecomputed = "wallet.recomputed"

var walletSource = contractsv1.Source{
	Service:          "wallet-service",
	PartitionKeyPath: "user_id",
}

// CreatorScopeKey is the unit of work key guarding one creator's approved
// clips and wallet. Clip review uses the same key.
func CreatorScopeKey(creatorID string) string {
	return "creator:" + creatorID
}

func emitRecomputed(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	wallet entities.Wallet,
	previous entities.Wallet,
	occurredAt time.Time,
) error {
	if outbox == nil {
		return nil
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := walletSource.New(eventID, eventWalletRecomputed, wallet.UserID, occurredAt, map[string]any{
		"user_id":             wallet.UserID,
		"available_balance":   wallet.AvailableBalance.String(),
		"previous_balance":    previous.AvailableBalance.String(),
		"approved_clip_count": wallet.ApprovedClipCount,
		"currency":            string(wallet.Currency),
	})
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, envelope)
}
