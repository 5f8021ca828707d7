package errors

import (
	"errors"
	"fmt"
)

var (
	ErrClipNotFound             = errors.New("clip not found")
	ErrCampaignNotFound         = errors.New("campaign not found")
	ErrCreatorNotFound          = errors.New("creator not found")
	ErrCampaignNotLive          = errors.New("can only submit clips to live campaigns")
	ErrInvalidClipInput         = errors.New("invalid clip input")
	ErrInvalidTimestamp         = errors.New("timestamps must be in HH:MM:SS format")
	ErrMessageTooLong           = errors.New("message too long (max 1000 chars)")
	ErrInvalidViews             = errors.New("views must be a non-negative number")
	ErrInvalidEarningsInput     = errors.New("earnings inputs must be non-negative")
	ErrInvalidStatusTransition  = errors.New("invalid clip status transition")
	ErrInvalidClipState         = errors.New("can only track views on approved clips")
	ErrApprovedClipNotDeletable = errors.New("cannot delete an approved clip")
	ErrForbidden                = errors.New("forbidden")
	ErrConflict                 = errors.New("conflict")
)

// InvalidTransitionError names the rejected status move.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

func (e InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidStatusTransition
}
