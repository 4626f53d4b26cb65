package database

import "errors"

// Sentinel errors surfaced to callers. All are recoverable at the caller's
// discretion and are matched with errors.Is; the bot layer maps them to
// user-facing text.
var (
	// ErrNotFound no row matched the lookup.
	ErrNotFound = errors.New("record not found")

	// ErrSlotUnavailable the slot is booked or validly held by someone else.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrHoldExpired the hold lapsed or belongs to a different caller at
	// confirmation time. The caller must restart checkout.
	ErrHoldExpired = errors.New("hold expired or mismatched")

	// ErrInvalidTransition the requested booking status change is not
	// allowed by the state machine.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrTooLateToReschedule rescheduling inside the two-hour guard.
	ErrTooLateToReschedule = errors.New("too late to reschedule")

	// ErrPaymentNotConfirmed the external payment signal is absent or does
	// not match the booking.
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")

	// ErrPastDate caller picked a date in the past.
	ErrPastDate = errors.New("date is in the past")

	// ErrDateTooFar caller picked a date beyond the scheduling horizon.
	ErrDateTooFar = errors.New("date is too far in the future")
)
