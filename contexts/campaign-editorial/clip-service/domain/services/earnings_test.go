package services

import (
	"errors"
	"testing"

	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"

	"github.com/shopspring/decimal"
)

func TestCalculateEarningsIsExact(t *testing.T) {
	cases := []struct {
		views int64
		cpm   string
		want  string
	}{
		{views: 12_345, cpm: "2.50", want: "30.8625"},
		{views: 50_000, cpm: "1.00", want: "50"},
		{views: 0, cpm: "9.99", want: "0"},
		{views: 1, cpm: "0.01", want: "0.00001"},
	}
	for _, tc := range cases {
		got, err := CalculateEarnings(tc.views, decimal.RequireFromString(tc.cpm))
		if err != nil {
			t.Fatalf("calculate %d x %s failed: %v", tc.views, tc.cpm, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("calculate %d x %s: expected %s, got %s", tc.views, tc.cpm, tc.want, got)
		}
	}
}

func TestCalculateEarningsRejectsNegativeInputs(t *testing.T) {
	if _, err := CalculateEarnings(-1, decimal.NewFromInt(1)); !errors.Is(err, domainerrors.ErrInvalidEarningsInput) {
		t.Fatalf("expected invalid input for negative views, got %v", err)
	}
	if _, err := CalculateEarnings(1, decimal.NewFromInt(-1)); !errors.Is(err, domainerrors.ErrInvalidEarningsInput) {
		t.Fatalf("expected invalid input for negative cpm, got %v", err)
	}
}

func TestDisplayAmountRoundsToCents(t *testing.T) {
	if got := DisplayAmount(decimal.RequireFromString("30.8625")); got != "30.86" {
		t.Fatalf("expected 30.86, got %s", got)
	}
	total := SumEarnings(decimal.RequireFromString("30.8625"), decimal.RequireFromString("10"))
	if got := DisplayAmount(total); got != "40.86" {
		t.Fatalf("expected 40.86, got %s", got)
	}
}
