package entities

import (
	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
)

type ClipStatus string

const (
	ClipStatusPending  ClipStatus = "pending"
	ClipStatusApproved ClipStatus = "approved"
	ClipStatusFlagged  ClipStatus = "flagged"
)

func (s ClipStatus) Valid() bool {
	switch s {
	case ClipStatusPending, ClipStatusApproved, ClipStatusFlagged:
		return true
	default:
		return false
	}
}

// Transition checks a review move. Pending clips may be approved or flagged,
// approved clips flagged, flagged clips approved again. Nothing returns to
// pending.
func Transition(from ClipStatus, to ClipStatus) error {
	allowed := false
	switch from {
	case ClipStatusPending:
		allowed = to == ClipStatusApproved || to == ClipStatusFlagged
	case ClipStatusApproved:
		allowed = to == ClipStatusFlagged
	case ClipStatusFlagged:
		allowed = to == ClipStatusApproved
	}
	if !allowed {
		return domainerrors.InvalidTransitionError{From: string(from), To: string(to)}
	}
	return nil
}
