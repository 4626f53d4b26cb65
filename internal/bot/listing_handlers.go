package bot

import (
	"context"
	"fmt"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const skipAnswer = "-"

// startListingWizard begins the step-by-step listing submission.
func (b *Bot) startListingWizard(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID
	b.setUserState(ctx, userID, StateListingName, nil)
	b.sendMessage(update.Message.Chat.ID, "📣 Let's submit your listing.\n\nWhat is the business name?")
}

// handleListingStep walks the wizard one field at a time. Phone and
// website can be skipped with "-".
func (b *Bot) handleListingStep(ctx context.Context, update tgbotapi.Update, text string, state *models.UserState) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	answer := sanitizeInput(text)

	switch state.CurrentStep {
	case StateListingName:
		if answer == "" {
			b.sendMessage(chatID, "⚠️ The business name cannot be empty.")
			return
		}
		state.Set("name", answer)
		b.setUserState(ctx, userID, StateListingDescription, state.Data)
		b.sendMessage(chatID, "Describe the business (a couple of sentences):")

	case StateListingDescription:
		state.Set("description", answer)
		b.setUserState(ctx, userID, StateListingCity, state.Data)
		b.sendMessage(chatID, "Which city is it in?")

	case StateListingCity:
		state.Set("city", answer)
		b.setUserState(ctx, userID, StateListingCategory, state.Data)
		b.sendMessage(chatID, "What category fits best? (club, bar, spa, shop, other)")

	case StateListingCategory:
		state.Set("category", answer)
		b.setUserState(ctx, userID, StateListingPhone, state.Data)
		b.sendMessage(chatID, "Contact phone? Send \"-\" to skip.")

	case StateListingPhone:
		if answer != skipAnswer {
			state.Set("phone", answer)
		}
		b.setUserState(ctx, userID, StateListingWebsite, state.Data)
		b.sendMessage(chatID, "Website? Send \"-\" to skip.")

	case StateListingWebsite:
		if answer != skipAnswer {
			state.Set("website", answer)
		}
		b.submitListing(ctx, chatID, userID, state)
	}
}

func (b *Bot) submitListing(ctx context.Context, chatID, userID int64, state *models.UserState) {
	listing := &models.Listing{
		SubmitterID:  userID,
		BusinessName: state.GetString("name"),
		Description:  state.GetString("description"),
		City:         state.GetString("city"),
		Category:     state.GetString("category"),
		ContactPhone: state.GetString("phone"),
		Website:      state.GetString("website"),
	}

	if err := b.listingService.Submit(ctx, listing); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Listing submission failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		b.clearUserState(ctx, userID)
		return
	}

	b.clearUserState(ctx, userID)
	b.sendMessage(chatID, fmt.Sprintf(
		"✅ Listing \"%s\" submitted for review (quality score %d/100). We'll let you know once it's approved.",
		listing.BusinessName, listing.QualityScore,
	))
	b.handleMainMenu(ctx, chatID, userID)
}
