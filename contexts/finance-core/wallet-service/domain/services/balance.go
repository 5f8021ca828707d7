package services

import (
	"clypzy/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "clypzy/contexts/finance-core/wallet-service/domain/errors"

	"github.com/shopspring/decimal"
)

// SumApproved totals approved clip earnings exactly. A negative total means
// the earnings feed is corrupt and is rejected.
func SumApproved(items []entities.ApprovedEarning) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Earnings)
	}
	if total.IsNegative() {
		return decimal.Zero, domainerrors.ErrNegativeBalance
	}
	return total, nil
}

// DisplayBalance rounds to cents for presentation only.
func DisplayBalance(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
