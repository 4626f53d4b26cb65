package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendPerformersPage lists bookable performers with pagination.
func (b *Bot) sendPerformersPage(ctx context.Context, chatID int64, messageID, page int) {
	performers, err := b.performerService.GetActivePerformers(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Error getting active performers")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	if len(performers) == 0 {
		b.sendMessage(chatID, "No performers are available right now. Check back soon!")
		return
	}

	params := PaginationParams{
		ChatID:       chatID,
		MessageID:    messageID,
		Page:         page,
		Title:        "📞 *Book a private call*",
		PagePrefix:   "performers_page:",
		BackCallback: "back_to_main",
	}

	b.renderPaginatedList(params, len(performers), b.config.Bot.PaginationSize, func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton

		for i, p := range performers[startIdx:endIdx] {
			content.WriteString(fmt.Sprintf("%d. *%s*\n", startIdx+i+1, p.StageName))
			if p.Bio != "" {
				content.WriteString(fmt.Sprintf("   %s\n", p.Bio))
			}
			content.WriteString(fmt.Sprintf("   💰 from %s\n\n", p.Rate30.StringFixed(2)))

			btn := tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%d. %s", startIdx+i+1, p.StageName),
				fmt.Sprintf("performer:%d", p.ID),
			)
			keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{btn})
		}

		return content.String(), keyboard
	})
}

func (b *Bot) showPerformerProfile(ctx context.Context, chatID, performerID int64) {
	performer, err := b.performerService.GetPerformer(ctx, performerID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 *%s*\n\n", performer.StageName))
	if performer.Bio != "" {
		sb.WriteString(performer.Bio + "\n\n")
	}
	sb.WriteString("Pick a call length:")

	var row []tgbotapi.InlineKeyboardButton
	for _, minutes := range models.CallDurations {
		rate := performer.RateFor(minutes)
		if rate.IsZero() {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d min — %s", minutes, rate.StringFixed(2)),
			fmt.Sprintf("duration:%d:%d", performer.ID, minutes),
		))
	}
	if len(row) == 0 {
		b.sendMessage(chatID, "This performer has no published rates yet.")
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "performers_page:0"),
		),
	)
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, sb.String(), keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send performer profile")
	}
}

// handleDurationSelected shows open slots of the chosen length for the
// next week. Callback data: duration:<performerID>:<minutes>.
func (b *Bot) handleDurationSelected(ctx context.Context, chatID int64, data string) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return
	}
	performerID, _ := strconv.ParseInt(parts[1], 10, 64)
	minutes, _ := strconv.Atoi(parts[2])

	now := time.Now()
	slots, err := b.bookingService.OpenSlots(ctx, performerID, now, now.AddDate(0, 0, 7))
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, slot := range slots {
		if slot.DurationMinutes != minutes {
			continue
		}
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				formatSlotLabel(slot),
				fmt.Sprintf("slot:%d:%d", slot.ID, performerID),
			),
		))
		if len(keyboard) >= 10 {
			break
		}
	}

	if len(keyboard) == 0 {
		b.sendMessage(chatID, "No open slots of that length in the next 7 days. Try another duration.")
		return
	}

	keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", fmt.Sprintf("performer:%d", performerID)),
	))

	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, "🗓 Pick a time:", markup); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send slots")
	}
}

// handleSlotSelected asks for a payment method. Callback data:
// slot:<slotID>:<performerID>.
func (b *Bot) handleSlotSelected(ctx context.Context, chatID int64, data string) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return
	}
	slotID := parts[1]
	performerID := parts[2]

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Card", fmt.Sprintf("pay:%s:%s:%s", slotID, performerID, models.PaymentMethodCard)),
			tgbotapi.NewInlineKeyboardButtonData("🪙 Crypto", fmt.Sprintf("pay:%s:%s:%s", slotID, performerID, models.PaymentMethodCrypto)),
		),
	)
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, "How would you like to pay?", keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send payment options")
	}
}

// handlePaymentMethodSelected places the hold and sends the checkout
// link. Callback data: pay:<slotID>:<performerID>:<method>.
func (b *Bot) handlePaymentMethodSelected(ctx context.Context, chatID, userID int64, data string) {
	parts := strings.Split(data, ":")
	if len(parts) != 4 {
		return
	}
	slotID, _ := strconv.ParseInt(parts[1], 10, 64)
	performerID, _ := strconv.ParseInt(parts[2], 10, 64)
	method := parts[3]

	receipt, err := b.bookingService.RequestSlot(ctx, userID, performerID, slotID, method)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	minutesLeft := int(time.Until(receipt.ExpiresAt).Minutes())
	text := fmt.Sprintf(
		"⏳ *Slot held for you!*\n\nBooking #%d\n\nComplete payment within %d minutes or the slot is released:\n%s",
		receipt.BookingID, minutesLeft, receipt.CheckoutURL,
	)
	b.sendMarkdown(chatID, text)
}

// showUserBookings lists the caller's upcoming and recent bookings.
func (b *Bot) showUserBookings(ctx context.Context, chatID, userID int64, messageID, page int) {
	bookings, err := b.bookingService.ListUpcoming(ctx, userID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	if len(bookings) == 0 {
		b.sendMessage(chatID, "You have no upcoming bookings. Book a call to get started!")
		return
	}

	params := PaginationParams{
		ChatID:       chatID,
		MessageID:    messageID,
		Page:         page,
		Title:        "📋 *Your bookings*",
		PagePrefix:   "bookings_page:",
		BackCallback: "back_to_main",
	}

	b.renderPaginatedList(params, len(bookings), models.DefaultBookingsPaginationSize, func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton

		for _, booking := range bookings[startIdx:endIdx] {
			content.WriteString(formatBookingLine(booking) + "\n\n")
			keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("#%d — %s", booking.ID, booking.ScheduledAt.Format("02.01 15:04")),
					fmt.Sprintf("booking:%d", booking.ID),
				),
			))
		}

		return content.String(), keyboard
	})
}

func (b *Bot) showBookingDetails(ctx context.Context, chatID, userID, bookingID int64) {
	booking, err := b.bookingService.GetBooking(ctx, bookingID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	if booking.CallerID != userID && !b.isAdmin(userID) {
		b.sendMessage(chatID, "⚠️ This booking belongs to someone else.")
		return
	}

	performerName := ""
	if performer, err := b.performerService.GetPerformer(ctx, booking.PerformerID); err == nil {
		performerName = performer.StageName
	}

	text := formatBookingDetails(booking, performerName)

	var rows [][]tgbotapi.InlineKeyboardButton
	if booking.Status == models.StatusPending || booking.Status == models.StatusConfirmed {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel booking", fmt.Sprintf("cancel_quote:%d", booking.ID)),
		))
	}
	if booking.Status == models.StatusConfirmed {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Reschedule", fmt.Sprintf("resched:%d", booking.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "bookings_page:0"),
	))

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, markup); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send booking details")
	}
}

// showCancelQuote previews the refund before the user commits.
func (b *Bot) showCancelQuote(ctx context.Context, chatID, userID, bookingID int64) {
	booking, err := b.bookingService.GetBooking(ctx, bookingID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	if booking.CallerID != userID && !b.isAdmin(userID) {
		b.sendMessage(chatID, "⚠️ This booking belongs to someone else.")
		return
	}

	quote, err := b.bookingService.QuoteRefund(ctx, bookingID, time.Now())
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	var text string
	if booking.Status == models.StatusPending {
		text = fmt.Sprintf("Booking #%d is not paid yet — cancelling releases the slot, nothing is charged.\n\nCancel it?", bookingID)
	} else {
		text = fmt.Sprintf(
			"Cancelling booking #%d now refunds *%d%%* — %s %s.\n\nAre you sure?",
			bookingID, quote.Percentage, quote.Amount.StringFixed(2), booking.Currency,
		)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, cancel", fmt.Sprintf("cancel_yes:%d", bookingID)),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Keep it", fmt.Sprintf("booking:%d", bookingID)),
		),
	)
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send cancel quote")
	}
}

func (b *Bot) handleCancelConfirmed(ctx context.Context, chatID, userID, bookingID int64) {
	booking, err := b.bookingService.GetBooking(ctx, bookingID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	if booking.CallerID != userID && !b.isAdmin(userID) {
		b.sendMessage(chatID, "⚠️ This booking belongs to someone else.")
		return
	}

	cancelled, err := b.bookingService.Cancel(ctx, bookingID, userID, time.Now())
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if cancelled.RefundPercentage > 0 {
		b.sendMessage(chatID, fmt.Sprintf(
			"❌ Booking #%d cancelled. A %d%% refund is on its way back to you.",
			bookingID, cancelled.RefundPercentage,
		))
	} else {
		b.sendMessage(chatID, fmt.Sprintf("❌ Booking #%d cancelled.", bookingID))
	}
}

func (b *Bot) startReschedule(ctx context.Context, chatID, userID, bookingID int64) {
	booking, err := b.bookingService.GetBooking(ctx, bookingID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	if booking.CallerID != userID && !b.isAdmin(userID) {
		b.sendMessage(chatID, "⚠️ This booking belongs to someone else.")
		return
	}

	b.setUserState(ctx, userID, StateAwaitRescheduleDate, map[string]interface{}{
		"booking_id": bookingID,
	})
	b.sendMessage(chatID, fmt.Sprintf(
		"Enter the new date and time in the format %s (e.g. 25.12.2026 18:30):",
		dateTimeInputLayout,
	))
}

func (b *Bot) handleRescheduleDateInput(ctx context.Context, update tgbotapi.Update, text string, state *models.UserState) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	bookingID := state.GetInt64("booking_id")

	newTime, err := parseDateTimeInput(text, time.Local)
	if err != nil {
		b.sendMessage(chatID, "⚠️ "+err.Error())
		return
	}

	if err := b.bookingService.Reschedule(ctx, bookingID, newTime, time.Now()); err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	b.clearUserState(ctx, userID)
	b.sendMessage(chatID, fmt.Sprintf(
		"🔄 Booking #%d moved to %s.",
		bookingID, newTime.Format("02.01.2006 15:04"),
	))
	b.handleMainMenu(ctx, chatID, userID)
}
