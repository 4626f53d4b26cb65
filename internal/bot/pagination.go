package bot

import (
	"fmt"
	"strings"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type PaginationParams struct {
	ChatID       int64
	MessageID    int // 0 if new message
	Page         int
	Title        string
	PagePrefix   string
	BackCallback string
}

// renderPaginatedList renders one page of a list with prev/next
// navigation. The renderer fills in the page content and per-item
// buttons for [startIdx, endIdx).
func (b *Bot) renderPaginatedList(params PaginationParams, totalCount int, itemsPerPage int, renderer func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton)) {
	if itemsPerPage <= 0 {
		itemsPerPage = models.DefaultPaginationSize
	}

	startIdx := params.Page * itemsPerPage
	endIdx := startIdx + itemsPerPage
	if endIdx > totalCount {
		endIdx = totalCount
	}

	totalPages := (totalCount + itemsPerPage - 1) / itemsPerPage
	if params.Page >= totalPages && totalPages > 0 {
		params.Page = totalPages - 1
		startIdx = params.Page * itemsPerPage
		endIdx = totalCount
	}

	content, keyboard := renderer(startIdx, endIdx)

	var message strings.Builder
	message.WriteString(fmt.Sprintf("%s\n\n", params.Title))
	if totalPages > 1 {
		message.WriteString(fmt.Sprintf("Page %d of %d\n\n", params.Page+1, totalPages))
	}
	message.WriteString(content)

	var navButtons []tgbotapi.InlineKeyboardButton
	if params.Page > 0 {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("%s%d", params.PagePrefix, params.Page-1)))
	}
	if endIdx < totalCount {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s%d", params.PagePrefix, params.Page+1)))
	}
	if len(navButtons) > 0 {
		keyboard = append(keyboard, navButtons)
	}

	if params.BackCallback != "" {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to menu", params.BackCallback),
		})
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)

	if params.MessageID != 0 {
		if _, err := b.tgService.EditMessage(params.ChatID, params.MessageID, message.String(), &markup); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", params.ChatID).Msg("Failed to edit paginated message")
		}
		return
	}

	msg := tgbotapi.NewMessage(params.ChatID, message.String())
	msg.ReplyMarkup = markup
	msg.ParseMode = models.ParseModeMarkdown
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", params.ChatID).Msg("Failed to send paginated message")
	}
}
