package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CampaignStatus string
type Currency string
type ActorRole string

const (
	CampaignStatusPending   CampaignStatus = "pending"
	CampaignStatusLive      CampaignStatus = "live"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusRejected  CampaignStatus = "rejected"

	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyPKR Currency = "PKR"
	CurrencyINR Currency = "INR"

	ActorRoleBrand ActorRole = "brand"
	ActorRoleAdmin ActorRole = "admin"
)

type Campaign struct {
	CampaignID        string
	BrandID           string
	Title             string
	Description       string
	SourceVideos      []string
	GoalViews         int64
	CPM               decimal.Decimal
	Currency          Currency
	Deposit           decimal.Decimal
	MinViewsForPayout int64
	Status            CampaignStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LaunchedAt        *time.Time
	CompletedAt       *time.Time
}

// StateHistory is an append-only record of one status change.
type StateHistory struct {
	HistoryID    string
	CampaignID   string
	FromState    CampaignStatus
	ToState      CampaignStatus
	ChangedBy    string
	ChangeReason string
	CreatedAt    time.Time
}

func (c Campaign) CanEdit() bool {
	return c.Status == CampaignStatusPending || c.Status == CampaignStatusLive
}

func (c Campaign) CanDelete() bool {
	return c.Status == CampaignStatusPending || c.Status == CampaignStatusRejected
}

// ValidateBasics checks field-level rules. Funding is checked separately.
func (c Campaign) ValidateBasics() bool {
	title := strings.TrimSpace(c.Title)
	description := strings.TrimSpace(c.Description)

	return strings.TrimSpace(c.BrandID) != "" &&
		len(title) >= 5 &&
		len(description) >= 10 &&
		ValidSourceVideos(c.SourceVideos) &&
		c.GoalViews > 0 &&
		c.CPM.IsPositive() &&
		!c.Deposit.IsNegative() &&
		c.MinViewsForPayout >= 0 &&
		IsSupportedCurrency(c.Currency)
}

func ValidSourceVideos(items []string) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			return false
		}
	}
	return true
}

func IsSupportedCurrency(value Currency) bool {
	switch value {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyPKR, CurrencyINR:
		return true
	default:
		return false
	}
}

// NormalizeCurrency upper-cases value and defaults empty input to USD.
func NormalizeCurrency(value string) Currency {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return CurrencyUSD
	}
	return Currency(value)
}

func IsValidStatus(value CampaignStatus) bool {
	switch value {
	case CampaignStatusPending, CampaignStatusLive, CampaignStatusCompleted, CampaignStatusRejected:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a campaign may move from one status to
// another: pending -> live|rejected, live -> completed.
func CanTransition(from CampaignStatus, to CampaignStatus) bool {
	switch from {
	case CampaignStatusPending:
		return to == CampaignStatusLive || to == CampaignStatusRejected
	case CampaignStatusLive:
		return to == CampaignStatusCompleted
	default:
		return false
	}
}
