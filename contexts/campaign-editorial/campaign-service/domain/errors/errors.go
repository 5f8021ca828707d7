package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrInvalidCampaignInput   = errors.New("invalid campaign input")
	ErrInsufficientDeposit    = errors.New("insufficient deposit")
	ErrCampaignNotEditable    = errors.New("campaign cannot be edited in current state")
	ErrCampaignNotDeletable   = errors.New("campaign cannot be deleted in current state")
	ErrInvalidStateTransition = errors.New("invalid campaign state transition")
	ErrForbidden              = errors.New("forbidden")
	ErrIdempotencyKeyConflict = errors.New("idempotency key conflict")
	ErrConflict               = errors.New("conflict")
)

// InsufficientDepositError carries the deposit a campaign needs for its goal.
type InsufficientDepositError struct {
	Required decimal.Decimal
	Deposit  decimal.Decimal
}

func (e InsufficientDepositError) Error() string {
	return fmt.Sprintf("insufficient deposit: required %s, got %s",
		e.Required.StringFixed(2), e.Deposit.StringFixed(2))
}

func (e InsufficientDepositError) Is(target error) bool {
	return target == ErrInsufficientDeposit
}
