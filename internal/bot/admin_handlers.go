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

// handleAdminCommand routes admin-only keyboard buttons. Returns true
// when the message was handled.
func (b *Bot) handleAdminCommand(ctx context.Context, update tgbotapi.Update) bool {
	text := update.Message.Text
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	switch text {
	case btnAdminListings:
		b.showPendingListings(ctx, chatID)
		return true

	case btnAdminStats:
		b.showStats(ctx, chatID)
		return true

	case btnAdminExport:
		b.handleExportWeek(ctx, chatID)
		return true

	case btnAdminBroadcast:
		b.setUserState(ctx, userID, StateAwaitBroadcast, nil)
		b.sendMessage(chatID, "Send the message to broadcast to all users, or \""+btnCancelInput+"\" to abort.")
		return true
	}

	return false
}

// handleAdminCallback routes admin-only inline buttons. Returns true
// when the callback was handled.
func (b *Bot) handleAdminCallback(ctx context.Context, update tgbotapi.Update) bool {
	callback := update.CallbackQuery
	data := callback.Data
	chatID := callback.Message.Chat.ID
	userID := callback.From.ID

	switch {
	case strings.HasPrefix(data, "approve_listing:"):
		listingID, _ := strconv.ParseInt(strings.TrimPrefix(data, "approve_listing:"), 10, 64)
		b.handleListingDecision(ctx, chatID, userID, listingID, true, "")
		return true

	case strings.HasPrefix(data, "reject_listing:"):
		listingID, _ := strconv.ParseInt(strings.TrimPrefix(data, "reject_listing:"), 10, 64)
		b.setUserState(ctx, userID, StateAwaitRejectReason, map[string]interface{}{
			"listing_id": listingID,
		})
		b.sendMessage(chatID, "Why is this listing rejected? The reason is sent to the submitter.")
		return true
	}

	return false
}

func (b *Bot) showPendingListings(ctx context.Context, chatID int64) {
	listings, err := b.listingService.PendingReview(ctx)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	if len(listings) == 0 {
		b.sendMessage(chatID, "No listings waiting for review. 🎉")
		return
	}

	for _, listing := range listings {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("🗂 *%s* (score %d/100)\n\n", listing.BusinessName, listing.QualityScore))
		if listing.Description != "" {
			sb.WriteString(listing.Description + "\n\n")
		}
		sb.WriteString(fmt.Sprintf("📍 %s · %s\n", listing.City, listing.Category))
		if listing.ContactPhone != "" {
			sb.WriteString("📱 " + listing.ContactPhone + "\n")
		}
		if listing.Website != "" {
			sb.WriteString("🌐 " + listing.Website + "\n")
		}

		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Approve", fmt.Sprintf("approve_listing:%d", listing.ID)),
				tgbotapi.NewInlineKeyboardButtonData("❌ Reject", fmt.Sprintf("reject_listing:%d", listing.ID)),
			),
		)
		if _, err := b.tgService.SendWithInlineKeyboard(chatID, sb.String(), keyboard); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send pending listing")
		}
	}
}

func (b *Bot) handleListingDecision(ctx context.Context, chatID, reviewerID, listingID int64, approved bool, reason string) {
	listing, err := b.listingService.Review(ctx, listingID, approved, reviewerID, reason)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	if approved {
		b.sendMessage(chatID, fmt.Sprintf("✅ Listing \"%s\" approved.", listing.BusinessName))
		b.notifySubmitter(listing.SubmitterID, fmt.Sprintf("🎉 Your listing \"%s\" was approved and is now visible!", listing.BusinessName))
	} else {
		b.sendMessage(chatID, fmt.Sprintf("❌ Listing \"%s\" rejected.", listing.BusinessName))
		msg := fmt.Sprintf("😔 Your listing \"%s\" was not approved.", listing.BusinessName)
		if reason != "" {
			msg += "\nReason: " + reason
		}
		b.notifySubmitter(listing.SubmitterID, msg)
	}
}

func (b *Bot) handleRejectReasonInput(ctx context.Context, update tgbotapi.Update, text string, state *models.UserState) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	listingID := state.GetInt64("listing_id")

	b.clearUserState(ctx, userID)
	b.handleListingDecision(ctx, chatID, userID, listingID, false, sanitizeInput(text))
}

func (b *Bot) notifySubmitter(submitterID int64, text string) {
	if submitterID == 0 {
		return
	}
	if _, err := b.tgService.SendMessage(submitterID, text); err != nil {
		b.logger.Warn().Err(err).Int64("user_id", submitterID).Msg("Failed to notify submitter")
	}
}

// showStats reports booking counts and revenue for the last 30 days.
func (b *Bot) showStats(ctx context.Context, chatID int64) {
	now := time.Now()
	stats, err := b.db.GetBookingStats(ctx, now.AddDate(0, 0, -30), now)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 *Last 30 days*\n\n")
	for _, status := range []string{
		models.StatusPending, models.StatusConfirmed, models.StatusActive,
		models.StatusCompleted, models.StatusCancelled,
	} {
		sb.WriteString(fmt.Sprintf("%s %s: %d\n", statusEmoji(status), status, stats.CountByStatus[status]))
	}
	sb.WriteString(fmt.Sprintf("\n💰 Revenue: %s %s\n",
		stats.Revenue.StringFixed(2), b.config.Payments.Currency))

	b.sendMarkdown(chatID, sb.String())
}

func (b *Bot) handleBroadcastInput(ctx context.Context, update tgbotapi.Update, text string) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	b.clearUserState(ctx, userID)

	users, err := b.userService.GetAllUsers(ctx)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	sent := 0
	for _, user := range users {
		if user.IsBlacklisted || user.TelegramID == userID {
			continue
		}
		if _, err := b.tgService.SendMessage(user.TelegramID, text); err != nil {
			b.logger.Warn().Err(err).Int64("user_id", user.TelegramID).Msg("Broadcast send failed")
			continue
		}
		sent++
	}

	b.sendMessage(chatID, fmt.Sprintf("📢 Broadcast delivered to %d users.", sent))
}
