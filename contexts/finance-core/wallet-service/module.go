package walletservice

import (
	"context"
	"log/slog"

	"clypzy/contexts/finance-core/wallet-service/adapters/memory"
	"clypzy/contexts/finance-core/wallet-service/application/commands"
	"clypzy/contexts/finance-core/wallet-service/application/queries"
	"clypzy/contexts/finance-core/wallet-service/application/workers"
	"clypzy/contexts/finance-core/wallet-service/domain/entities"
	"clypzy/contexts/finance-core/wallet-service/ports"
	"clypzy/internal/platform/lock"

	"github.com/shopspring/decimal"
)

// Module is the wallet facade used by the composition root.
type Module struct {
	recompute  commands.RecomputeWalletUseCase
	openWallet commands.OpenWalletUseCase
	getWallet  queries.GetWalletUseCase
	reconcile  workers.ReconcileJob

	Store *memory.Store
}

type Dependencies struct {
	Wallets    ports.WalletRepository
	Earnings   ports.EarningsSource
	Outbox     ports.OutboxWriter
	UnitOfWork ports.UnitOfWork
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	recompute := commands.RecomputeWalletUseCase{
		Wallets:    deps.Wallets,
		Earnings:   deps.Earnings,
		Outbox:     deps.Outbox,
		UnitOfWork: deps.UnitOfWork,
		Metrics:    deps.Metrics,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	return Module{
		recompute: recompute,
		openWallet: commands.OpenWalletUseCase{
			Wallets:    deps.Wallets,
			UnitOfWork: deps.UnitOfWork,
			Recompute:  recompute,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
		getWallet: queries.GetWalletUseCase{Wallets: deps.Wallets, Logger: deps.Logger},
		reconcile: workers.ReconcileJob{
			Wallets:   deps.Wallets,
			Recompute: recompute,
			Metrics:   deps.Metrics,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module to a memory store reading approved
// earnings from earnings. A nil unitOfWork gets a private lock scope.
func NewInMemoryModule(seed []entities.Wallet, earnings ports.EarningsSource, unitOfWork ports.UnitOfWork, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	if unitOfWork == nil {
		unitOfWork = lock.NewScope()
	}
	module := NewModule(Dependencies{
		Wallets:    store,
		Earnings:   earnings,
		Outbox:     store,
		UnitOfWork: unitOfWork,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}

// Recompute rebuilds the creator's balance and returns it. Clip review calls
// it inside its own creator scope.
func (m Module) Recompute(ctx context.Context, creatorID string) (decimal.Decimal, error) {
	result, err := m.recompute.Execute(ctx, creatorID)
	if err != nil {
		return decimal.Zero, err
	}
	return result.Wallet.AvailableBalance, nil
}

func (m Module) OpenWallet(ctx context.Context, creatorID string, currency string) (entities.Wallet, error) {
	return m.openWallet.Execute(ctx, commands.OpenWalletCommand{UserID: creatorID, Currency: currency})
}

func (m Module) GetCreatorWallet(ctx context.Context, creatorID string) (entities.Wallet, error) {
	return m.getWallet.Execute(ctx, creatorID)
}

func (m Module) ReconcileJob() workers.ReconcileJob {
	return m.reconcile
}
