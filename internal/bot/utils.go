package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Button labels shared between keyboards and the message router.
const (
	btnBookCall      = "📞 Book a Call"
	btnMyBookings    = "📋 My Bookings"
	btnLiveStreams   = "🎥 Live Streams"
	btnNearbyVenues  = "📍 Nearby Venues"
	btnSubmitListing = "📣 Submit a Listing"
	btnGoPrime       = "⭐ Go Prime"
	btnMainMenu      = "🏠 Main Menu"
	btnCancelInput   = "❌ Cancel"
	btnShareLocation = "📍 Share Location"

	btnAdminListings  = "🗂 Pending Listings"
	btnAdminStats     = "📊 Stats"
	btnAdminExport    = "💾 Export Week"
	btnAdminBroadcast = "📢 Broadcast"
)

const dateTimeInputLayout = "02.01.2006 15:04"

// Dialog state helpers. Failures are logged and swallowed: losing dialog
// state degrades to the main menu, it never blocks a user.

func (b *Bot) setUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) {
	if err := b.stateService.SetUserState(ctx, userID, step, data); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Str("step", step).Msg("Failed to set user state")
	}
}

func (b *Bot) getUserState(ctx context.Context, userID int64) *models.UserState {
	state, err := b.stateService.GetUserState(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to get user state")
		return nil
	}
	return state
}

func (b *Bot) clearUserState(ctx context.Context, userID int64) {
	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}
}

func (b *Bot) isBlacklisted(userID int64) bool {
	return b.userService.IsBlacklisted(userID)
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.userService.IsAdmin(userID)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	if _, err := b.tgService.SendMarkdown(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) answerCallback(callbackID string) {
	if err := b.tgService.AnswerCallback(callbackID, ""); err != nil {
		b.logger.Debug().Err(err).Msg("Failed to answer callback")
	}
}

// handleMainMenu renders the main reply keyboard for the user's role.
func (b *Bot) handleMainMenu(ctx context.Context, chatID, userID int64) {
	var rows [][]tgbotapi.KeyboardButton

	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnBookCall),
		tgbotapi.NewKeyboardButton(btnMyBookings),
	))
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnLiveStreams),
		tgbotapi.NewKeyboardButton(btnNearbyVenues),
	))
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSubmitListing),
		tgbotapi.NewKeyboardButton(btnGoPrime),
	))

	if b.isAdmin(userID) {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAdminListings),
			tgbotapi.NewKeyboardButton(btnAdminStats),
		))
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAdminExport),
			tgbotapi.NewKeyboardButton(btnAdminBroadcast),
		))
	}

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	if _, err := b.tgService.SendWithKeyboard(chatID, "Welcome! Choose an action:", keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send main menu")
	}

	b.setUserState(ctx, userID, StateMainMenu, nil)
}

// parseDateTimeInput parses a user-entered date and time in the local
// timezone, e.g. "25.12.2026 18:30".
func parseDateTimeInput(text string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeInputLayout, strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected format DD.MM.YYYY HH:MM")
	}
	return t, nil
}

func sanitizeInput(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) > 500 {
		text = text[:500]
	}
	return text
}

func statusEmoji(status string) string {
	switch status {
	case models.StatusConfirmed:
		return "✅"
	case models.StatusActive:
		return "📹"
	case models.StatusCompleted:
		return "🏁"
	case models.StatusCancelled:
		return "❌"
	default:
		return "⏳"
	}
}

func formatBookingLine(booking *models.Booking) string {
	return fmt.Sprintf("%s *Booking #%d* — %s, %d min, %s %s",
		statusEmoji(booking.Status),
		booking.ID,
		booking.ScheduledAt.Format("02.01.2006 15:04"),
		booking.DurationMinutes,
		booking.Amount.StringFixed(2),
		booking.Currency,
	)
}

func formatBookingDetails(booking *models.Booking, performerName string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s *Booking #%d*\n\n", statusEmoji(booking.Status), booking.ID))
	if performerName != "" {
		sb.WriteString(fmt.Sprintf("👤 %s\n", performerName))
	}
	sb.WriteString(fmt.Sprintf("📅 %s\n", booking.ScheduledAt.Format("02.01.2006 15:04")))
	sb.WriteString(fmt.Sprintf("⏱ %d minutes\n", booking.DurationMinutes))
	sb.WriteString(fmt.Sprintf("💰 %s %s\n", booking.Amount.StringFixed(2), booking.Currency))
	sb.WriteString(fmt.Sprintf("📌 Status: %s\n", booking.Status))
	if booking.Status == models.StatusActive && booking.RoomURL != "" {
		sb.WriteString(fmt.Sprintf("\n🔗 Join your call: %s\n", booking.RoomURL))
	}
	if booking.Status == models.StatusCancelled {
		sb.WriteString(fmt.Sprintf("↩️ Refund: %d%%\n", booking.RefundPercentage))
	}
	return sb.String()
}

func formatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%.0f m away", km*1000)
	}
	return fmt.Sprintf("%.1f km away", km)
}

func formatSlotLabel(slot *models.Slot) string {
	return fmt.Sprintf("%s (%d min)", slot.StartAt.Format("Mon 02.01 15:04"), slot.DurationMinutes)
}
