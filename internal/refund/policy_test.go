package refund

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercentageTiers(t *testing.T) {
	scheduled := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		notice time.Duration
		want   int
	}{
		{"two days", 48 * time.Hour, 100},
		{"exactly 24h is inclusive", 24 * time.Hour, 100},
		{"just under 24h", 24*time.Hour - time.Second, 50},
		{"12 hours", 12 * time.Hour, 50},
		{"exactly 2h is inclusive", 2 * time.Hour, 50},
		{"just under 2h", 2*time.Hour - time.Second, 0},
		{"90 minutes", 90 * time.Minute, 0},
		{"after start", -10 * time.Minute, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentage(scheduled, scheduled.Add(-tt.notice))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPercentageMonotonic(t *testing.T) {
	scheduled := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	prev := 101
	// Shrinking notice must never increase the refund.
	for notice := 72 * time.Hour; notice >= 0; notice -= 17 * time.Minute {
		pct := Percentage(scheduled, scheduled.Add(-notice))
		assert.LessOrEqual(t, pct, prev, "notice %v", notice)
		prev = pct
	}
}

func TestEvaluateAmounts(t *testing.T) {
	scheduled := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		amount     string
		notice     time.Duration
		wantPct    int
		wantAmount string
	}{
		{"full refund of 100", "100.00", 30 * time.Hour, 100, "100.00"},
		{"half of 60", "60.00", 5 * time.Hour, 50, "30.00"},
		{"nothing inside 2h", "60.00", 90 * time.Minute, 0, "0.00"},
		{"half of odd cents rounds half-up", "10.05", 3 * time.Hour, 50, "5.03"},
		{"half of 99.99", "99.99", 3 * time.Hour, 50, "50.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			q := Evaluate(amount, scheduled, scheduled.Add(-tt.notice))
			assert.Equal(t, tt.wantPct, q.Percentage)
			assert.Equal(t, tt.wantAmount, q.Amount.StringFixed(2))
		})
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	scheduled := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	cancelAt := scheduled.Add(-3 * time.Hour)
	amount := decimal.RequireFromString("75.50")

	first := Evaluate(amount, scheduled, cancelAt)
	for i := 0; i < 5; i++ {
		again := Evaluate(amount, scheduled, cancelAt)
		assert.Equal(t, first.Percentage, again.Percentage)
		assert.True(t, first.Amount.Equal(again.Amount))
		assert.Equal(t, first.Basis, again.Basis)
	}
}
