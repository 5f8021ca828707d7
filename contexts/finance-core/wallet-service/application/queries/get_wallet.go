package queries

import (
	"context"
	"log/slog"
	"strings"

	"clypzy/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "clypzy/contexts/finance-core/wallet-service/domain/errors"
	"clypzy/contexts/finance-core/wallet-service/ports"
)

type GetWalletUseCase struct {
	Wallets ports.WalletRepository
	Logger  *slog.Logger
}

func (uc GetWalletUseCase) Execute(ctx context.Context, userID string) (entities.Wallet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.Wallet{}, domainerrors.ErrInvalidWalletInput
	}
	return uc.Wallets.GetWallet(ctx, userID)
}
