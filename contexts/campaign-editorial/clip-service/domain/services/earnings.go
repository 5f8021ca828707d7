package services

import (
	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"

	"github.com/shopspring/decimal"
)

// CalculateEarnings is views / 1000 * cpm with no intermediate rounding.
func CalculateEarnings(views int64, cpm decimal.Decimal) (decimal.Decimal, error) {
	if views < 0 || cpm.IsNegative() {
		return decimal.Zero, domainerrors.ErrInvalidEarningsInput
	}
	return decimal.NewFromInt(views).Mul(cpm).Shift(-3), nil
}

// DisplayAmount rounds to cents for presentation only.
func DisplayAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// SumEarnings adds amounts exactly.
func SumEarnings(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}
