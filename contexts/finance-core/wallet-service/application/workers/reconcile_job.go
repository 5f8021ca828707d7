package workers

import (
	"context"
	"errors"
	"log/slog"

	application "clypzy/contexts/finance-core/wallet-service/application"
	"clypzy/contexts/finance-core/wallet-service/application/commands"
	"clypzy/contexts/finance-core/wallet-service/domain/services"
	"clypzy/contexts/finance-core/wallet-service/ports"
)

// ReconcileJob recomputes every wallet. A balance that moves during
// reconciliation missed an earlier recompute and is counted as drift.
type ReconcileJob struct {
	Wallets   ports.WalletRepository
	Recompute commands.RecomputeWalletUseCase
	Metrics   ports.Metrics
	Logger    *slog.Logger
}

type ReconcileReport struct {
	Checked   int
	Corrected int
	Failed    int
}

func (j ReconcileJob) RunOnce(ctx context.Context) (ReconcileReport, error) {
	logger := application.ResolveLogger(j.Logger)
	ids, err := j.Wallets.ListWalletIDs(ctx)
	if err != nil {
		logger.Error("wallet reconcile listing failed",
			"event", "wallet_reconcile_list_failed",
			"module", "finance-core/wallet-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return ReconcileReport{}, err
	}

	var (
		report ReconcileReport
		errs   []error
	)
	for _, userID := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		result, err := j.Recompute.Execute(ctx, userID)
		if err != nil {
			report.Failed++
			errs = append(errs, err)
			continue
		}
		if !result.Changed() {
			continue
		}
		report.Corrected++
		if j.Metrics != nil {
			j.Metrics.RecordDrift()
		}
		logger.Warn("wallet drift corrected",
			"event", "wallet_drift_corrected",
			"module", "finance-core/wallet-service",
			"layer", "worker",
			"user_id", userID,
			"previous_balance", services.DisplayBalance(result.PreviousBalance),
			"available_balance", services.DisplayBalance(result.Wallet.AvailableBalance),
		)
	}

	logger.Info("wallet reconcile cycle completed",
		"event", "wallet_reconcile_completed",
		"module", "finance-core/wallet-service",
		"layer", "worker",
		"checked", report.Checked,
		"corrected", report.Corrected,
		"failed", report.Failed,
	)
	return report, errors.Join(errs...)
}
