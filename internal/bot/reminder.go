package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"
)

// StartReminders schedules daily reminders for next-day calls.
func (b *Bot) StartReminders(ctx context.Context) {
	if b == nil || b.tgService == nil {
		return
	}

	go func() {
		hour := models.ReminderHour
		if b.config.Bot.ReminderTime != "" {
			var m int
			if _, err := fmt.Sscanf(b.config.Bot.ReminderTime, "%d:%d", &hour, &m); err != nil {
				b.logger.Error().Err(err).Str("reminder_time", b.config.Bot.ReminderTime).Msg("Invalid reminder time format")
				return
			}
		}

		// First wait until the next reminder hour, then tick every 24h.
		timer := time.NewTimer(timeUntilNextHour(hour))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				b.sendTomorrowReminders(ctx)
				timer.Reset(24 * time.Hour)
			}
		}
	}()
}

func (b *Bot) sendTomorrowReminders(ctx context.Context) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	end := start.AddDate(0, 0, 1)

	bookings, err := b.db.ListBookingsInWindow(ctx, start, end)
	if err != nil {
		b.logger.Error().Err(err).Time("start", start).Time("end", end).Msg("reminder: get bookings error")
		return
	}

	for _, booking := range bookings {
		if booking.Status != models.StatusConfirmed {
			continue
		}

		text := fmt.Sprintf(
			"⏰ Reminder: your %d-minute call is tomorrow at %s. See you there!",
			booking.DurationMinutes, booking.ScheduledAt.Format("15:04"),
		)
		if _, err := b.tgService.SendMessage(booking.CallerID, text); err != nil {
			b.logger.Error().Err(err).Int64("caller_id", booking.CallerID).Msg("reminder: send error")
		}

		// The performer side gets the same nudge when they have a chat.
		performer, err := b.performerService.GetPerformer(ctx, booking.PerformerID)
		if err != nil || performer.UserID == 0 {
			continue
		}
		if _, err := b.tgService.SendMessage(performer.UserID, text); err != nil {
			b.logger.Error().Err(err).Int64("performer_user_id", performer.UserID).Msg("reminder: send error")
		}
	}
}

func timeUntilNextHour(hour int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
