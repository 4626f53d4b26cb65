package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking is the caller's reservation of a private call with a performer.
// Status moves pending -> confirmed -> active -> completed, or is cancelled
// from pending/confirmed. Money fields are decimal to keep cents exact.
type Booking struct {
	ID               int64           `json:"id"`
	CallerID         int64           `json:"caller_id"`
	PerformerID      int64           `json:"performer_id"`
	SlotID           int64           `json:"slot_id"`
	ScheduledAt      time.Time       `json:"scheduled_at"`
	DurationMinutes  int             `json:"duration_minutes"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	PaymentRef       string          `json:"payment_ref"`
	PaymentMethod    string          `json:"payment_method"`
	RoomURL          string          `json:"room_url,omitempty"`
	RefundPercentage int             `json:"refund_percentage"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CancelledBy      int64           `json:"cancelled_by,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// EndsAt returns the scheduled end of the call.
func (b *Booking) EndsAt() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// IsTerminal reports whether the booking can no longer change status.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}
