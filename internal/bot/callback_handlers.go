package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	data := callback.Data
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	// Answer right away to clear the spinner
	b.answerCallback(callback.ID)

	if data == "confirm_age" {
		b.handleAgeConfirmed(ctx, chatID, userID)
		return
	}

	user, err := b.userService.GetUser(ctx, userID)
	if err != nil || user == nil || !user.AgeConfirmed {
		b.sendAgePrompt(chatID)
		return
	}

	if b.isAdmin(userID) && b.handleAdminCallback(ctx, update) {
		return
	}

	switch {
	case data == "back_to_main":
		b.clearUserState(ctx, userID)
		b.handleMainMenu(ctx, chatID, userID)

	case strings.HasPrefix(data, "performers_page:"):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, "performers_page:"))
		b.sendPerformersPage(ctx, chatID, messageID, page)

	case strings.HasPrefix(data, "performer:"):
		performerID, _ := strconv.ParseInt(strings.TrimPrefix(data, "performer:"), 10, 64)
		b.showPerformerProfile(ctx, chatID, performerID)

	case strings.HasPrefix(data, "duration:"):
		b.handleDurationSelected(ctx, chatID, data)

	case strings.HasPrefix(data, "slot:"):
		b.handleSlotSelected(ctx, chatID, data)

	case strings.HasPrefix(data, "pay:"):
		b.handlePaymentMethodSelected(ctx, chatID, userID, data)

	case strings.HasPrefix(data, "bookings_page:"):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, "bookings_page:"))
		b.showUserBookings(ctx, chatID, userID, messageID, page)

	case strings.HasPrefix(data, "booking:"):
		bookingID, _ := strconv.ParseInt(strings.TrimPrefix(data, "booking:"), 10, 64)
		b.showBookingDetails(ctx, chatID, userID, bookingID)

	case strings.HasPrefix(data, "cancel_quote:"):
		bookingID, _ := strconv.ParseInt(strings.TrimPrefix(data, "cancel_quote:"), 10, 64)
		b.showCancelQuote(ctx, chatID, userID, bookingID)

	case strings.HasPrefix(data, "cancel_yes:"):
		bookingID, _ := strconv.ParseInt(strings.TrimPrefix(data, "cancel_yes:"), 10, 64)
		b.handleCancelConfirmed(ctx, chatID, userID, bookingID)

	case strings.HasPrefix(data, "resched:"):
		bookingID, _ := strconv.ParseInt(strings.TrimPrefix(data, "resched:"), 10, 64)
		b.startReschedule(ctx, chatID, userID, bookingID)

	case strings.HasPrefix(data, "join_stream:"):
		streamID, _ := strconv.ParseInt(strings.TrimPrefix(data, "join_stream:"), 10, 64)
		b.handleJoinStream(ctx, chatID, userID, streamID)
	}
}

func (b *Bot) handleAgeConfirmed(ctx context.Context, chatID, userID int64) {
	if err := b.userService.ConfirmAge(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Age confirmation failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	b.handleMainMenu(ctx, chatID, userID)
}
