package bot

import (
	"context"
	"strings"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := update.Message.Text
	l := zerolog.Ctx(ctx)

	l.Debug().
		Int64("user_id", userID).
		Str("username", update.Message.From.UserName).
		Str("text", text).
		Msg("Handling message")

	if text == "/start" || strings.EqualFold(text, "reset") {
		b.clearUserState(ctx, userID)
		b.handleStart(ctx, update)
		return
	}

	// Everything below the age gate requires a confirmed adult.
	user, err := b.userService.GetUser(ctx, userID)
	if err != nil || user == nil || !user.AgeConfirmed {
		b.sendAgePrompt(chatID)
		return
	}

	if update.Message.Location != nil {
		b.handleLocation(ctx, update)
		return
	}

	if text == btnCancelInput || text == btnMainMenu {
		b.clearUserState(ctx, userID)
		b.handleMainMenu(ctx, chatID, userID)
		return
	}

	if b.isAdmin(userID) && b.handleAdminCommand(ctx, update) {
		return
	}

	if b.handleUserCommands(ctx, update, user) {
		return
	}

	state := b.getUserState(ctx, userID)
	if state != nil && b.handleUserStateSteps(ctx, update, text, state) {
		return
	}

	b.handleMainMenu(ctx, chatID, userID)
}

func (b *Bot) handleUserCommands(ctx context.Context, update tgbotapi.Update, user *models.User) bool {
	text := update.Message.Text
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	switch text {
	case btnBookCall:
		b.sendPerformersPage(ctx, chatID, 0, 0)
		return true

	case btnMyBookings:
		b.showUserBookings(ctx, chatID, userID, 0, 0)
		return true

	case btnLiveStreams:
		b.showLiveStreams(ctx, chatID)
		return true

	case btnNearbyVenues:
		b.requestLocation(chatID)
		return true

	case btnSubmitListing:
		b.startListingWizard(ctx, update)
		return true

	case btnGoPrime:
		b.handleGoPrime(ctx, chatID, userID)
		return true

	case "/golive":
		b.handleGoLive(ctx, update)
		return true

	case "/endstream":
		b.handleEndStream(ctx, update)
		return true
	}

	return false
}

func (b *Bot) handleUserStateSteps(ctx context.Context, update tgbotapi.Update, text string, state *models.UserState) bool {
	switch state.CurrentStep {
	case StateAwaitRescheduleDate:
		b.handleRescheduleDateInput(ctx, update, text, state)
		return true

	case StateAwaitStreamTitle:
		b.handleStreamTitleInput(ctx, update, text)
		return true

	case StateAwaitRejectReason:
		b.handleRejectReasonInput(ctx, update, text, state)
		return true

	case StateAwaitBroadcast:
		b.handleBroadcastInput(ctx, update, text)
		return true

	case StateListingName, StateListingDescription, StateListingCity,
		StateListingCategory, StateListingPhone, StateListingWebsite:
		b.handleListingStep(ctx, update, text, state)
		return true
	}

	return false
}

func (b *Bot) handleStart(ctx context.Context, update tgbotapi.Update) {
	from := update.Message.From
	user := &models.User{
		TelegramID:   from.ID,
		Username:     from.UserName,
		DisplayName:  strings.TrimSpace(from.FirstName + " " + from.LastName),
		LanguageCode: from.LanguageCode,
		LastActivity: time.Now(),
	}

	if err := b.userService.SaveUser(ctx, user); err != nil {
		b.logger.Error().Err(err).Int64("user_id", from.ID).Msg("Error tracking user")
	}

	stored, err := b.userService.GetUser(ctx, from.ID)
	if err == nil && stored != nil && stored.AgeConfirmed {
		b.handleMainMenu(ctx, update.Message.Chat.ID, from.ID)
		return
	}

	b.sendAgePrompt(update.Message.Chat.ID)
}

func (b *Bot) sendAgePrompt(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ I am 18 or older", "confirm_age"),
		),
	)
	text := "🔞 This service is for adults only.\n\nPlease confirm that you are 18 years of age or older."
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send age prompt")
	}
}

func (b *Bot) requestLocation(chatID int64) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonLocation(btnShareLocation),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnMainMenu),
		),
	)
	if _, err := b.tgService.SendWithKeyboard(chatID, "Share your location to find venues near you:", keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to request location")
	}
}

func (b *Bot) handleLocation(ctx context.Context, update tgbotapi.Update) {
	loc := update.Message.Location
	chatID := update.Message.Chat.ID

	venues, err := b.venueService.Nearby(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		b.logger.Error().Err(err).Msg("Nearby venues lookup failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	if len(venues) == 0 {
		b.sendMessage(chatID, "No venues found near you yet.")
		b.handleMainMenu(ctx, chatID, update.Message.From.ID)
		return
	}

	var sb strings.Builder
	sb.WriteString("📍 *Venues near you:*\n\n")
	for _, vd := range venues {
		sb.WriteString("🔹 *" + vd.Venue.Name + "*")
		if vd.Venue.Category != "" {
			sb.WriteString(" (" + vd.Venue.Category + ")")
		}
		sb.WriteString("\n")
		if vd.Venue.Address != "" {
			sb.WriteString("   " + vd.Venue.Address + ", " + vd.Venue.City + "\n")
		}
		sb.WriteString("   " + formatDistance(vd.DistanceKM) + "\n\n")
	}

	b.sendMarkdown(chatID, sb.String())
	b.handleMainMenu(ctx, chatID, update.Message.From.ID)
}

func (b *Bot) handleGoPrime(ctx context.Context, chatID, userID int64) {
	user, err := b.userService.GetUser(ctx, userID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	if user.IsPrime() {
		b.sendMessage(chatID, "⭐ You already have Prime. Enjoy!")
		return
	}

	if err := b.userService.UpgradeToPrime(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Prime upgrade failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}
	b.sendMessage(chatID, "⭐ Welcome to Prime! Prime-only streams are now open for you.")
}
