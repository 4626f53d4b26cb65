package service

import (
	"context"

	"github.com/pnpbots/pnptv-app-sub003/internal/config"
	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo         domain.Repository
	config       *config.Config
	logger       *zerolog.Logger
	adminsMap    map[int64]bool
	blacklistMap map[int64]bool
}

func NewUserService(repo domain.Repository, cfg *config.Config, logger *zerolog.Logger) *UserService {
	adminsMap := make(map[int64]bool)
	for _, id := range cfg.Admins {
		adminsMap[id] = true
	}

	blacklistMap := make(map[int64]bool)
	for _, id := range cfg.Blacklist {
		blacklistMap[id] = true
	}

	return &UserService{
		repo:         repo,
		config:       cfg,
		logger:       logger,
		adminsMap:    adminsMap,
		blacklistMap: blacklistMap,
	}
}

func (s *UserService) IsAdmin(userID int64) bool {
	return s.adminsMap[userID]
}

func (s *UserService) IsBlacklisted(userID int64) bool {
	return s.blacklistMap[userID]
}

func (s *UserService) SaveUser(ctx context.Context, user *models.User) error {
	user.IsAdmin = s.IsAdmin(user.TelegramID)
	user.IsBlacklisted = s.IsBlacklisted(user.TelegramID)
	if user.Tier == "" {
		user.Tier = models.TierFree
	}
	return s.repo.CreateOrUpdateUser(ctx, user)
}

func (s *UserService) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.repo.GetUserByTelegramID(ctx, telegramID)
}

// ConfirmAge records the one-time age attestation. Nothing past the
// welcome screen is reachable until this has happened.
func (s *UserService) ConfirmAge(ctx context.Context, telegramID int64) error {
	if err := s.repo.SetUserAgeConfirmed(ctx, telegramID); err != nil {
		return err
	}
	s.logger.Info().Int64("telegram_id", telegramID).Msg("age confirmed")
	return nil
}

func (s *UserService) SetDisplayName(ctx context.Context, telegramID int64, name string) error {
	return s.repo.UpdateUserDisplayName(ctx, telegramID, name)
}

func (s *UserService) UpgradeToPrime(ctx context.Context, telegramID int64) error {
	if err := s.repo.SetUserTier(ctx, telegramID, models.TierPrime); err != nil {
		return err
	}
	s.logger.Info().Int64("telegram_id", telegramID).Msg("user upgraded to prime")
	return nil
}

func (s *UserService) UpdateUserActivity(ctx context.Context, telegramID int64) error {
	return s.repo.UpdateUserActivity(ctx, telegramID)
}

func (s *UserService) GetActiveUsers(ctx context.Context, days int) ([]*models.User, error) {
	return s.repo.GetActiveUsers(ctx, days)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}
