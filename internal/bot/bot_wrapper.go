package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
)

// BotWrapper adapts *tgbotapi.BotAPI to domain.TelegramSender so the
// telegram service and everything above it can run against fakes.
// Send, Request, GetUpdatesChan and StopReceivingUpdates come straight
// from the embedded client.
type BotWrapper struct {
	*tgbotapi.BotAPI
}

var _ domain.TelegramSender = (*BotWrapper)(nil)

func NewBotWrapper(api *tgbotapi.BotAPI) *BotWrapper {
	return &BotWrapper{BotAPI: api}
}

// GetSelf wraps the Self field; the interface only deals in methods.
func (w *BotWrapper) GetSelf() tgbotapi.User {
	return w.Self
}
