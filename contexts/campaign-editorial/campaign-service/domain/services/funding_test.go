package services

import (
	"errors"
	"testing"

	domainerrors "clypzy/contexts/campaign-editorial/campaign-service/domain/errors"

	"github.com/shopspring/decimal"
)

func TestValidateFundingBoundary(t *testing.T) {
	cpm := decimal.RequireFromString("5.00")

	err := ValidateFunding(10_000, cpm, decimal.RequireFromString("49.99"))
	if !errors.Is(err, domainerrors.ErrInsufficientDeposit) {
		t.Fatalf("expected insufficient deposit, got %v", err)
	}
	var typed domainerrors.InsufficientDepositError
	if !errors.As(err, &typed) {
		t.Fatalf("expected typed error, got %T", err)
	}
	if !typed.Required.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected required 50, got %s", typed.Required)
	}
	if err.Error() != "insufficient deposit: required 50.00, got 49.99" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	if err := ValidateFunding(10_000, cpm, decimal.RequireFromString("50.00")); err != nil {
		t.Fatalf("expected exact deposit to pass, got %v", err)
	}
}

func TestRequiredDepositIsExact(t *testing.T) {
	got := RequiredDeposit(333, decimal.RequireFromString("0.07"))
	if !got.Equal(decimal.RequireFromString("0.02331")) {
		t.Fatalf("expected 0.02331, got %s", got)
	}
}

func TestValidateFundingRejectsNonsenseInputs(t *testing.T) {
	cases := []struct {
		name    string
		goal    int64
		cpm     string
		deposit string
	}{
		{name: "zero goal", goal: 0, cpm: "1", deposit: "10"},
		{name: "zero cpm", goal: 1000, cpm: "0", deposit: "10"},
		{name: "negative cpm", goal: 1000, cpm: "-1", deposit: "10"},
		{name: "negative deposit", goal: 1000, cpm: "1", deposit: "-0.01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFunding(tc.goal, decimal.RequireFromString(tc.cpm), decimal.RequireFromString(tc.deposit))
			if !errors.Is(err, domainerrors.ErrInvalidCampaignInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}
