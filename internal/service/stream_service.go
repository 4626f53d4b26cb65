package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/database"
	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/events"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/rs/zerolog"
)

var (
	// ErrStreamAlreadyLive is returned when a performer tries to go
	// live while their previous stream is still open.
	ErrStreamAlreadyLive = errors.New("performer already has a live stream")
	// ErrPrimeRequired is returned when a free-tier user tries to join
	// a prime-only stream.
	ErrPrimeRequired = errors.New("prime subscription required")
)

// StreamService runs performer live streams on top of the room provider.
type StreamService struct {
	repo     domain.Repository
	rooms    domain.RoomProvider
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewStreamService(repo domain.Repository, rooms domain.RoomProvider, eventBus domain.EventPublisher, logger *zerolog.Logger) *StreamService {
	return &StreamService{repo: repo, rooms: rooms, eventBus: eventBus, logger: logger}
}

// StartStream opens a room and records the live session. One live
// stream per performer at a time.
func (s *StreamService) StartStream(ctx context.Context, performerID int64, title string, primeOnly bool) (*models.Stream, error) {
	if existing, err := s.repo.GetLiveStreamByPerformer(ctx, performerID); err == nil && existing != nil {
		return nil, ErrStreamAlreadyLive
	} else if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	roomName := fmt.Sprintf("stream-%d-%d", performerID, time.Now().Unix())
	room, err := s.rooms.CreateRoom(ctx, roomName, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("create stream room: %w", err)
	}

	stream := &models.Stream{
		PerformerID: performerID,
		Title:       title,
		RoomName:    room.Name,
		RoomURL:     room.URL,
		Status:      models.StreamLive,
		StartedAt:   time.Now(),
		PrimeOnly:   primeOnly,
	}
	if err := s.repo.CreateStream(ctx, stream); err != nil {
		if dErr := s.rooms.DeleteRoom(ctx, room.Name); dErr != nil {
			s.logger.Warn().Err(dErr).Str("room", room.Name).Msg("failed to clean up stream room")
		}
		return nil, err
	}

	if err := s.eventBus.PublishJSON(events.EventStreamStarted, stream); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish stream event")
	}

	s.logger.Info().Int64("stream_id", stream.ID).Int64("performer_id", performerID).Msg("stream started")
	return stream, nil
}

// EndStream closes the performer's live stream and tears down its room.
func (s *StreamService) EndStream(ctx context.Context, performerID int64) (*models.Stream, error) {
	stream, err := s.repo.GetLiveStreamByPerformer(ctx, performerID)
	if err != nil {
		return nil, err
	}

	endedAt := time.Now()
	if err := s.repo.EndStream(ctx, stream.ID, endedAt); err != nil {
		return nil, err
	}
	stream.Status = models.StreamEnded
	stream.EndedAt = &endedAt

	if err := s.rooms.DeleteRoom(ctx, stream.RoomName); err != nil {
		s.logger.Warn().Err(err).Str("room", stream.RoomName).Msg("failed to delete stream room")
	}

	if err := s.eventBus.PublishJSON(events.EventStreamEnded, stream); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish stream event")
	}

	s.logger.Info().Int64("stream_id", stream.ID).Msg("stream ended")
	return stream, nil
}

func (s *StreamService) LiveStreams(ctx context.Context) ([]*models.Stream, error) {
	return s.repo.GetLiveStreams(ctx)
}

// JoinStream returns the room URL for a viewer, enforcing the prime
// gate on prime-only streams.
func (s *StreamService) JoinStream(ctx context.Context, streamID int64, viewer *models.User) (string, error) {
	stream, err := s.repo.GetStream(ctx, streamID)
	if err != nil {
		return "", err
	}
	if stream.Status != models.StreamLive {
		return "", database.ErrNotFound
	}
	if stream.PrimeOnly && !viewer.IsPrime() {
		return "", ErrPrimeRequired
	}
	return stream.RoomURL, nil
}
