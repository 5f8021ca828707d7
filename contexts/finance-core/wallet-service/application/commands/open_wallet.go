package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "clypzy/contexts/finance-core/wallet-service/application"
	"clypzy/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "clypzy/contexts/finance-core/wallet-service/domain/errors"
	"clypzy/contexts/finance-core/wallet-service/ports"

	"github.com/shopspring/decimal"
)

type OpenWalletCommand struct {
	UserID   string
	Currency string
}

type OpenWalletUseCase struct {
	Wallets    ports.WalletRepository
	UnitOfWork ports.UnitOfWork
	Recompute  RecomputeWalletUseCase
	Clock      ports.Clock
	Logger     *slog.Logger
}

// Execute creates the creator's wallet and seeds it from any approved clips
// that already exist. Opening an existing wallet returns it unchanged; asking
// for a different currency is a conflict.
func (uc OpenWalletUseCase) Execute(ctx context.Context, cmd OpenWalletCommand) (entities.Wallet, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	currency := entities.NormalizeCurrency(cmd.Currency)
	if userID == "" {
		return entities.Wallet{}, domainerrors.ErrInvalidWalletInput
	}
	if !entities.IsSupportedCurrency(currency) {
		return entities.Wallet{}, domainerrors.ErrUnsupportedCurrency
	}

	var (
		opened  entities.Wallet
		created bool
	)
	err := uc.UnitOfWork.Within(ctx, CreatorScopeKey(userID), func(ctx context.Context) error {
		existing, err := uc.Wallets.GetWallet(ctx, userID)
		if err == nil {
			if existing.Currency != currency {
				return domainerrors.ErrConflict
			}
			opened = existing
			return nil
		}
		if !errors.Is(err, domainerrors.ErrWalletNotFound) {
			return err
		}

		now := uc.Clock.Now().UTC()
		if err := uc.Wallets.CreateWallet(ctx, entities.Wallet{
			UserID:           userID,
			AvailableBalance: decimal.Zero,
			Currency:         currency,
			CreatedAt:        now,
			UpdatedAt:        now,
		}); err != nil {
			return err
		}
		result, err := uc.Recompute.Execute(ctx, userID)
		if err != nil {
			return err
		}
		opened = result.Wallet
		created = true
		return nil
	})
	if err != nil {
		logger.Warn("wallet open rejected",
			"event", "wallet_open_failed",
			"module", "finance-core/wallet-service",
			"layer", "application",
			"user_id", userID,
			"error", err.Error(),
		)
		return entities.Wallet{}, err
	}

	if created {
		logger.Info("wallet opened",
			"event", "wallet_opened",
			"module", "finance-core/wallet-service",
			"layer", "application",
			"user_id", userID,
			"currency", string(currency),
		)
	}
	return opened, nil
}
