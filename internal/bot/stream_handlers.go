package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pnpbots/pnptv-app-sub003/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) showLiveStreams(ctx context.Context, chatID int64) {
	streams, err := b.streamService.LiveStreams(ctx)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	if len(streams) == 0 {
		b.sendMessage(chatID, "Nobody is live right now. Check back later!")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎥 *Live now:*\n\n")

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, stream := range streams {
		label := stream.Title
		if stream.PrimeOnly {
			label += " ⭐"
			sb.WriteString(fmt.Sprintf("⭐ *%s* (Prime only)\n", stream.Title))
		} else {
			sb.WriteString(fmt.Sprintf("🔴 *%s*\n", stream.Title))
		}
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ "+label, fmt.Sprintf("join_stream:%d", stream.ID)),
		))
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, sb.String(), markup); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send live streams")
	}
}

func (b *Bot) handleJoinStream(ctx context.Context, chatID, userID, streamID int64) {
	viewer, err := b.userService.GetUser(ctx, userID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	roomURL, err := b.streamService.JoinStream(ctx, streamID, viewer)
	if err != nil {
		if errors.Is(err, service.ErrPrimeRequired) {
			b.sendMessage(chatID, "⭐ This stream is Prime only. Tap \"Go Prime\" in the menu to join.")
			return
		}
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	b.sendMessage(chatID, "🔗 Join the stream: "+roomURL)
}

// handleGoLive starts the stream setup flow for performers.
func (b *Bot) handleGoLive(ctx context.Context, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	performer, err := b.performerService.GetPerformerByUserID(ctx, userID)
	if err != nil || performer == nil {
		b.sendMessage(chatID, "⚠️ Only registered performers can go live.")
		return
	}

	b.setUserState(ctx, userID, StateAwaitStreamTitle, map[string]interface{}{
		"performer_id": performer.ID,
	})
	b.sendMessage(chatID, "What is the title of your stream? Add \"prime\" at the end to make it Prime only.")
}

func (b *Bot) handleStreamTitleInput(ctx context.Context, update tgbotapi.Update, text string) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	state := b.getUserState(ctx, userID)
	if state == nil {
		return
	}
	performerID := state.GetInt64("performer_id")

	title := sanitizeInput(text)
	primeOnly := false
	if strings.HasSuffix(strings.ToLower(title), " prime") {
		primeOnly = true
		title = strings.TrimSpace(title[:len(title)-len(" prime")])
	}
	if title == "" {
		b.sendMessage(chatID, "⚠️ The stream needs a title.")
		return
	}

	stream, err := b.streamService.StartStream(ctx, performerID, title, primeOnly)
	if err != nil {
		if errors.Is(err, service.ErrStreamAlreadyLive) {
			b.sendMessage(chatID, "⚠️ You are already live. Use /endstream first.")
		} else {
			b.sendMessage(chatID, b.getErrorMessage(err))
		}
		b.clearUserState(ctx, userID)
		return
	}

	b.clearUserState(ctx, userID)
	b.sendMessage(chatID, fmt.Sprintf("🔴 You are live! Your room: %s\n\nUse /endstream when you are done.", stream.RoomURL))
}

func (b *Bot) handleEndStream(ctx context.Context, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	performer, err := b.performerService.GetPerformerByUserID(ctx, userID)
	if err != nil || performer == nil {
		b.sendMessage(chatID, "⚠️ Only registered performers can end streams.")
		return
	}

	stream, err := b.streamService.EndStream(ctx, performer.ID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("⏹ Stream \"%s\" ended. Thanks for going live!", stream.Title))
}
