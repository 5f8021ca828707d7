package entities

import (
	"errors"
	"testing"

	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
)

func TestTransitionTable(t *testing.T) {
	statuses := []ClipStatus{ClipStatusPending, ClipStatusApproved, ClipStatusFlagged}
	allowed := map[ClipStatus]map[ClipStatus]bool{
		ClipStatusPending:  {ClipStatusApproved: true, ClipStatusFlagged: true},
		ClipStatusApproved: {ClipStatusFlagged: true},
		ClipStatusFlagged:  {ClipStatusApproved: true},
	}
	for _, from := range statuses {
		for _, to := range statuses {
			err := Transition(from, to)
			if allowed[from][to] {
				if err != nil {
					t.Fatalf("%s -> %s should be allowed, got %v", from, to, err)
				}
				continue
			}
			if !errors.Is(err, domainerrors.ErrInvalidStatusTransition) {
				t.Fatalf("%s -> %s should be rejected, got %v", from, to, err)
			}
			var typed domainerrors.InvalidTransitionError
			if !errors.As(err, &typed) || typed.From != string(from) || typed.To != string(to) {
				t.Fatalf("expected typed transition error for %s -> %s, got %v", from, to, err)
			}
		}
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	if err := Transition(ClipStatusPending, ClipStatus("archived")); !errors.Is(err, domainerrors.ErrInvalidStatusTransition) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestValidateSubmission(t *testing.T) {
	base := Clip{CampaignID: "c-1", CreatorID: "u-1", ClipLink: "https://clips.example.com/1"}
	if err := base.ValidateSubmission(); err != nil {
		t.Fatalf("expected valid clip, got %v", err)
	}

	noLink := base
	noLink.ClipLink = "  "
	if err := noLink.ValidateSubmission(); !errors.Is(err, domainerrors.ErrInvalidClipInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	badTimestamp := base
	badTimestamp.ClipTimestamps = []string{"00:01:05", "1:05"}
	if err := badTimestamp.ValidateSubmission(); !errors.Is(err, domainerrors.ErrInvalidTimestamp) {
		t.Fatalf("expected invalid timestamp, got %v", err)
	}

	long := base
	long.CreatorMessage = string(make([]rune, MaxCreatorMessageLength+1))
	if err := long.ValidateSubmission(); !errors.Is(err, domainerrors.ErrMessageTooLong) {
		t.Fatalf("expected message too long, got %v", err)
	}
}
