package services

import (
	domainerrors "clypzy/contexts/campaign-editorial/campaign-service/domain/errors"

	"github.com/shopspring/decimal"
)

// RequiredDeposit is goalViews / 1000 * cpm, exact.
func RequiredDeposit(goalViews int64, cpm decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(goalViews).Mul(cpm).Shift(-3)
}

// ValidateFunding rejects a deposit below the amount needed to pay out
// goalViews at cpm. Inputs that cannot describe a campaign are reported as
// ErrInvalidCampaignInput before the funding check.
func ValidateFunding(goalViews int64, cpm decimal.Decimal, deposit decimal.Decimal) error {
	if goalViews <= 0 || !cpm.IsPositive() || deposit.IsNegative() {
		return domainerrors.ErrInvalidCampaignInput
	}
	required := RequiredDeposit(goalViews, cpm)
	if deposit.LessThan(required) {
		return domainerrors.InsufficientDepositError{Required: required, Deposit: deposit}
	}
	return nil
}
