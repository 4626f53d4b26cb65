package service

import (
	"context"
	"strings"

	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/events"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/rs/zerolog"
)

// ListingService handles business listing submission and moderation.
// Every submission gets a quality score before it reaches the review
// queue; admins see the score next to the listing.
type ListingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewListingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ListingService {
	return &ListingService{repo: repo, eventBus: eventBus, logger: logger}
}

// QualityScore rates completeness of a listing on a 0-100 scale.
func QualityScore(l *models.Listing) int {
	score := 0
	if strings.TrimSpace(l.BusinessName) != "" {
		score += 25
	}
	if len(strings.TrimSpace(l.Description)) >= 40 {
		score += 25
	} else if strings.TrimSpace(l.Description) != "" {
		score += 10
	}
	if strings.TrimSpace(l.ContactPhone) != "" {
		score += 15
	}
	if strings.TrimSpace(l.Website) != "" {
		score += 15
	}
	if strings.TrimSpace(l.City) != "" {
		score += 10
	}
	if strings.TrimSpace(l.Category) != "" {
		score += 10
	}
	return score
}

func (s *ListingService) Submit(ctx context.Context, l *models.Listing) error {
	l.QualityScore = QualityScore(l)
	l.Status = models.ListingSubmitted

	if err := s.repo.CreateListing(ctx, l); err != nil {
		return err
	}

	if err := s.eventBus.PublishJSON(events.EventListingSubmitted, l); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish listing event")
	}

	s.logger.Info().
		Int64("listing_id", l.ID).
		Int64("submitter_id", l.SubmitterID).
		Int("quality_score", l.QualityScore).
		Msg("listing submitted")
	return nil
}

// Review approves or rejects a submitted listing. A listing can only be
// reviewed once; the second attempt fails as an invalid transition.
func (s *ListingService) Review(ctx context.Context, listingID int64, approved bool, reviewerID int64, reason string) (*models.Listing, error) {
	if err := s.repo.ReviewListing(ctx, listingID, approved, reviewerID, reason); err != nil {
		return nil, err
	}

	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if err := s.eventBus.PublishJSON(events.EventListingReviewed, listing); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish listing event")
	}

	s.logger.Info().
		Int64("listing_id", listingID).
		Bool("approved", approved).
		Int64("reviewer_id", reviewerID).
		Msg("listing reviewed")
	return listing, nil
}

func (s *ListingService) PendingReview(ctx context.Context) ([]*models.Listing, error) {
	return s.repo.GetListingsByStatus(ctx, models.ListingSubmitted)
}

func (s *ListingService) Approved(ctx context.Context) ([]*models.Listing, error) {
	return s.repo.GetListingsByStatus(ctx, models.ListingApproved)
}

func (s *ListingService) BySubmitter(ctx context.Context, submitterID int64) ([]*models.Listing, error) {
	return s.repo.GetListingsBySubmitter(ctx, submitterID)
}
