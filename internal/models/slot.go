package models

import "time"

// Slot is a bookable time window for a performer. While a caller is in
// checkout the slot carries a hold: an expiring claim that keeps other
// callers out until payment lands or the hold lapses.
type Slot struct {
	ID              int64      `json:"id"`
	PerformerID     int64      `json:"performer_id"`
	StartAt         time.Time  `json:"start_at"`
	EndAt           time.Time  `json:"end_at"`
	DurationMinutes int        `json:"duration_minutes"`
	State           string     `json:"state"` // open, held, booked
	HoldUserID      int64      `json:"hold_user_id,omitempty"`
	HoldExpiresAt   *time.Time `json:"hold_expires_at,omitempty"`
	BookingID       int64      `json:"booking_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// HoldLive reports whether the slot carries a non-expired hold at now.
func (s *Slot) HoldLive(now time.Time) bool {
	return s.State == SlotHeld && s.HoldExpiresAt != nil && s.HoldExpiresAt.After(now)
}

// HoldReceipt is returned to the caller after a successful hold. The caller
// must complete payment before ExpiresAt or restart checkout.
type HoldReceipt struct {
	SlotID      int64     `json:"slot_id"`
	BookingID   int64     `json:"booking_id"`
	PaymentRef  string    `json:"payment_ref"`
	CheckoutURL string    `json:"checkout_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
