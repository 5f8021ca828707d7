package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "clypzy/contexts/finance-core/wallet-service/application"
	"clypzy/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "clypzy/contexts/finance-core/wallet-service/domain/errors"
	"clypzy/contexts/finance-core/wallet-service/domain/services"
	"clypzy/contexts/finance-core/wallet-service/ports"

	"github.com/shopspring/decimal"
)

type RecomputeResult struct {
	Wallet          entities.Wallet
	PreviousBalance decimal.Decimal
	PreviousCount   int
}

// Changed reports whether the recompute moved the stored balance or count.
func (r RecomputeResult) Changed() bool {
	return !r.Wallet.AvailableBalance.Equal(r.PreviousBalance) ||
		r.Wallet.ApprovedClipCount != r.PreviousCount
}

type RecomputeWalletUseCase struct {
	Wallets    ports.WalletRepository
	Earnings   ports.EarningsSource
	Outbox     ports.OutboxWriter
	UnitOfWork ports.UnitOfWork
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// Execute rebuilds the creator's balance from scratch out of their approved
// clip earnings. It joins a creator scope already held by ctx.
func (uc RecomputeWalletUseCase) Execute(ctx context.Context, creatorID string) (RecomputeResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	started := time.Now()
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		uc.observe("invalid", started)
		return RecomputeResult{}, domainerrors.ErrInvalidWalletInput
	}

	var result RecomputeResult
	err := uc.UnitOfWork.Within(ctx, CreatorScopeKey(creatorID), func(ctx context.Context) error {
		wallet, err := uc.Wallets.GetWallet(ctx, creatorID)
		if err != nil {
			return err
		}
		earnings, err := uc.Earnings.ListApprovedEarnings(ctx, creatorID)
		if err != nil {
			return err
		}
		total, err := services.SumApproved(earnings)
		if err != nil {
			return err
		}

		previous := wallet
		now := uc.Clock.Now().UTC()
		wallet.AvailableBalance = total
		wallet.ApprovedClipCount = len(earnings)
		wallet.LastRecomputedAt = &now
		wallet.UpdatedAt = now
		if err := uc.Wallets.UpdateWallet(ctx, wallet); err != nil {
			return err
		}

		result = RecomputeResult{
			Wallet:          wallet,
			PreviousBalance: previous.AvailableBalance,
			PreviousCount:   previous.ApprovedClipCount,
		}
		if !result.Changed() {
			return nil
		}
		return emitRecomputed(ctx, uc.Outbox, uc.IDGen, wallet, previous, now)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrWalletNotFound) {
			uc.observe("not_found", started)
		} else {
			uc.observe("failed", started)
		}
		logger.Error("wallet recompute failed",
			"event", "wallet_recompute_failed",
			"module", "finance-core/wallet-service",
			"layer", "application",
			"user_id", creatorID,
			"error", err.Error(),
		)
		return RecomputeResult{}, err
	}

	uc.observe("ok", started)
	logger.Debug("wallet recomputed",
		"event", "wallet_recomputed",
		"module", "finance-core/wallet-service",
		"layer", "application",
		"user_id", creatorID,
		"available_balance", services.DisplayBalance(result.Wallet.AvailableBalance),
		"approved_clip_count", result.Wallet.ApprovedClipCount,
		"changed", result.Changed(),
	)
	return result, nil
}

func (uc RecomputeWalletUseCase) observe(outcome string, started time.Time) {
	if uc.Metrics != nil {
		uc.Metrics.ObserveRecompute(outcome, time.Since(started))
	}
}
