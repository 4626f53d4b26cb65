// Package refund computes the refund owed when a call booking is
// cancelled, based on how much notice the caller gave. The tiers are
// policy constants; both the pre-cancellation display and the actual
// cancellation go through Evaluate so the numbers can never diverge.
package refund

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notice thresholds. Boundaries are inclusive: cancelling exactly 24h or
// exactly 2h before the call resolves to the higher tier.
const (
	FullRefundNotice = 24 * time.Hour
	HalfRefundNotice = 2 * time.Hour

	FullRefundPercent = 100
	HalfRefundPercent = 50
	NoRefundPercent   = 0
)

// Quote is the computed refund for a prospective cancellation. It is a
// value object: nothing is persisted until the cancellation commits.
type Quote struct {
	Percentage int
	Amount     decimal.Decimal
	Basis      string
}

var oneHundred = decimal.NewFromInt(100)

// Percentage returns the refund tier for cancelling at cancelAt a booking
// scheduled at scheduledAt. Deterministic and side-effect free.
func Percentage(scheduledAt, cancelAt time.Time) int {
	notice := scheduledAt.Sub(cancelAt)
	switch {
	case notice >= FullRefundNotice:
		return FullRefundPercent
	case notice >= HalfRefundNotice:
		return HalfRefundPercent
	default:
		return NoRefundPercent
	}
}

// Evaluate computes the full quote for a booking amount. The amount is
// rounded half-up to cents.
func Evaluate(amount decimal.Decimal, scheduledAt, cancelAt time.Time) Quote {
	pct := Percentage(scheduledAt, cancelAt)

	refund := amount.
		Mul(decimal.NewFromInt(int64(pct))).
		Div(oneHundred).
		Round(2)

	return Quote{
		Percentage: pct,
		Amount:     refund,
		Basis:      basisFor(pct),
	}
}

func basisFor(pct int) string {
	switch pct {
	case FullRefundPercent:
		return ">=24h notice"
	case HalfRefundPercent:
		return ">=2h notice"
	default:
		return "<2h notice"
	}
}
