package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"
)

// handleExportWeek builds and sends an Excel report for the past week.
func (b *Bot) handleExportWeek(ctx context.Context, chatID int64) {
	end := time.Now()
	start := end.AddDate(0, 0, -7)

	path, err := b.exportToExcel(ctx, start, end)
	if err != nil {
		b.logger.Error().Err(err).Msg("Export failed")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = fmt.Sprintf("Bookings %s — %s", start.Format("02.01.2006"), end.Format("02.01.2006"))
	if _, err := b.tgService.Send(doc); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send export")
		b.sendMessage(chatID, "❌ Could not deliver the export file.")
	}
}

// exportToExcel writes all bookings scheduled in [start, end] to an
// xlsx file and returns its path.
func (b *Bot) exportToExcel(ctx context.Context, start, end time.Time) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	bookings, err := b.db.ListBookingsInWindow(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %w", err)
	}

	performers, err := b.performerService.GetActivePerformers(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting performers: %w", err)
	}
	performerNames := make(map[int64]string, len(performers))
	for _, p := range performers {
		performerNames[p.ID] = p.StageName
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s — %s",
		start.Format("02.01.2006"), end.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "H1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"ID", "Scheduled", "Performer", "Duration (min)", "Amount", "Currency", "Status", "Refund %"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, booking := range bookings {
		row := i + 3
		values := []interface{}{
			booking.ID,
			booking.ScheduledAt.Format("02.01.2006 15:04"),
			performerNames[booking.PerformerID],
			booking.DurationMinutes,
			booking.Amount.StringFixed(2),
			booking.Currency,
			booking.Status,
			refundCell(booking),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "C", 20)
	_ = f.SetColWidth(sheetName, "D", "H", 14)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	filePath := filepath.Join(b.config.Exports.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	b.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}

func refundCell(booking *models.Booking) string {
	if booking.Status != models.StatusCancelled {
		return ""
	}
	return fmt.Sprintf("%d%%", booking.RefundPercentage)
}
