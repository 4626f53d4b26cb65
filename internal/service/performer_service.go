package service

import (
	"context"

	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/rs/zerolog"
)

type PerformerService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewPerformerService(repo domain.Repository, logger *zerolog.Logger) *PerformerService {
	return &PerformerService{repo: repo, logger: logger}
}

func (s *PerformerService) GetActivePerformers(ctx context.Context) ([]*models.Performer, error) {
	return s.repo.GetActivePerformers(ctx)
}

func (s *PerformerService) GetPerformer(ctx context.Context, id int64) (*models.Performer, error) {
	return s.repo.GetPerformer(ctx, id)
}

func (s *PerformerService) GetPerformerByUserID(ctx context.Context, userID int64) (*models.Performer, error) {
	return s.repo.GetPerformerByUserID(ctx, userID)
}

func (s *PerformerService) CreatePerformer(ctx context.Context, p *models.Performer) error {
	if err := s.repo.CreatePerformer(ctx, p); err != nil {
		return err
	}
	s.logger.Info().Int64("performer_id", p.ID).Str("stage_name", p.StageName).Msg("performer created")
	return nil
}

func (s *PerformerService) UpdatePerformer(ctx context.Context, p *models.Performer) error {
	return s.repo.UpdatePerformer(ctx, p)
}
