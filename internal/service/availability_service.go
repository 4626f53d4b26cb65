package service

import (
	"context"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/rs/zerolog"
)

// AvailabilityService materializes bookable slots from each performer's
// weekly schedule. Generation is idempotent: a slot that already exists
// for (performer, start, duration) is skipped, so the generator can run
// daily without duplicating anything.
type AvailabilityService struct {
	repo      domain.Repository
	daysAhead int
	logger    *zerolog.Logger
}

func NewAvailabilityService(repo domain.Repository, daysAhead int, logger *zerolog.Logger) *AvailabilityService {
	if daysAhead <= 0 {
		daysAhead = 14
	}
	return &AvailabilityService{repo: repo, daysAhead: daysAhead, logger: logger}
}

// GenerateSlots fills the slot table for all active performers from now
// through the configured horizon. Returns how many new slots appeared.
func (s *AvailabilityService) GenerateSlots(ctx context.Context, now time.Time) (int, error) {
	performers, err := s.repo.GetActivePerformers(ctx)
	if err != nil {
		return 0, err
	}

	var created int
	for _, p := range performers {
		n, err := s.generateForPerformer(ctx, p, now)
		if err != nil {
			s.logger.Error().Err(err).Int64("performer_id", p.ID).Msg("slot generation failed")
			continue
		}
		created += n
	}

	s.logger.Info().Int("created", created).Int("performers", len(performers)).Msg("availability generated")
	return created, nil
}

func (s *AvailabilityService) generateForPerformer(ctx context.Context, p *models.Performer, now time.Time) (int, error) {
	var created int

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for d := 0; d < s.daysAhead; d++ {
		date := day.AddDate(0, 0, d)
		if !p.WorksOn(date.Weekday()) {
			continue
		}

		dayStart := date.Add(time.Duration(p.HourFrom) * time.Hour)
		dayEnd := date.Add(time.Duration(p.HourTo) * time.Hour)

		for _, durMin := range models.CallDurations {
			dur := time.Duration(durMin) * time.Minute
			// Starts on the half hour; last slot must end by dayEnd.
			for start := dayStart; !start.Add(dur).After(dayEnd); start = start.Add(30 * time.Minute) {
				if !start.After(now) {
					continue
				}
				slot := &models.Slot{
					PerformerID:     p.ID,
					StartAt:         start,
					EndAt:           start.Add(dur),
					DurationMinutes: durMin,
					State:           models.SlotOpen,
				}
				ok, err := s.repo.CreateSlot(ctx, slot)
				if err != nil {
					return created, err
				}
				if ok {
					created++
				}
			}
		}
	}

	return created, nil
}

// SweepExpiredHolds frees lapsed holds; meant to run on a short ticker.
func (s *AvailabilityService) SweepExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	released, err := s.repo.ReleaseExpiredHolds(ctx, now)
	if err != nil {
		return 0, err
	}
	if released > 0 {
		s.logger.Debug().Int64("released", released).Msg("expired holds released")
	}
	return released, nil
}

// RunSweeper releases expired holds periodically until ctx is done.
func (s *AvailabilityService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.SweepExpiredHolds(ctx, now); err != nil {
				s.logger.Error().Err(err).Msg("hold sweep failed")
			}
		}
	}
}
