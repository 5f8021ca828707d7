package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyPKR Currency = "PKR"
	CurrencyINR Currency = "INR"
)

// NormalizeCurrency upper-cases value and defaults an empty one to USD.
func NormalizeCurrency(value string) Currency {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return CurrencyUSD
	}
	return Currency(value)
}

func IsSupportedCurrency(value Currency) bool {
	switch value {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyPKR, CurrencyINR:
		return true
	default:
		return false
	}
}

// Wallet holds a creator's available balance. The balance is always the sum
// of the creator's approved clip earnings as of LastRecomputedAt.
type Wallet struct {
	UserID            string
	AvailableBalance  decimal.Decimal
	Currency          Currency
	ApprovedClipCount int
	LastRecomputedAt  *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ApprovedEarning is one approved clip's contribution to a wallet.
type ApprovedEarning struct {
	ClipID   string
	Earnings decimal.Decimal
}
