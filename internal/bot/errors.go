package bot

import (
	"errors"

	"github.com/pnpbots/pnptv-app-sub003/internal/database"
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, database.ErrSlotUnavailable) {
		return "⚠️ Sorry, this time slot was just taken. Please pick another one."
	}

	if errors.Is(err, database.ErrHoldExpired) {
		return "⚠️ Your checkout window expired. Please pick a slot again."
	}

	if errors.Is(err, database.ErrTooLateToReschedule) {
		return "⚠️ Rescheduling is only possible up to 2 hours before the call."
	}

	if errors.Is(err, database.ErrPaymentNotConfirmed) {
		return "⚠️ This booking has not been paid yet."
	}

	if errors.Is(err, database.ErrInvalidTransition) {
		return "⚠️ This booking is already settled and cannot be changed."
	}

	if errors.Is(err, database.ErrPastDate) {
		return "⚠️ That time is in the past. Please pick a future time."
	}

	if errors.Is(err, database.ErrDateTooFar) {
		return "⚠️ That is too far ahead. Please pick an earlier date."
	}

	if errors.Is(err, database.ErrNotFound) {
		return "⚠️ Not found. It may have been removed."
	}

	// Default error message
	return "❌ Something went wrong while processing your request. Please try again later or contact support."
}
