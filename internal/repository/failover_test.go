package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserState), args.Error(1)
}

func (m *mockRepo) SetState(ctx context.Context, state *models.UserState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockRepo) ClearState(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverStateRepository(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := new(mockRepo)
		repo := NewFailoverStateRepository(primary, fallback, &logger)

		want := &models.UserState{UserID: 1, CurrentStep: "booking_pick_duration"}
		primary.On("GetState", ctx, int64(1)).Return(want, nil)

		got, err := repo.GetState(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
		fallback.AssertNotCalled(t, "GetState", mock.Anything, mock.Anything)
	})

	t.Run("FallbackOnPrimaryError", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := new(mockRepo)
		repo := NewFailoverStateRepository(primary, fallback, &logger)

		want := &models.UserState{UserID: 2, CurrentStep: "onboarding_age"}
		primary.On("GetState", ctx, int64(2)).Return(nil, errors.New("connection refused"))
		fallback.On("GetState", ctx, int64(2)).Return(want, nil)

		got, err := repo.GetState(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("StaysOnFallbackWhileDown", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := new(mockRepo)
		repo := NewFailoverStateRepository(primary, fallback, &logger)

		state := &models.UserState{UserID: 3, CurrentStep: "x"}
		primary.On("SetState", ctx, state).Return(errors.New("down")).Once()
		fallback.On("SetState", ctx, state).Return(nil).Twice()

		assert.NoError(t, repo.SetState(ctx, state))
		// While marked down the primary is not retried for writes.
		assert.NoError(t, repo.SetState(ctx, state))
		primary.AssertNumberOfCalls(t, "SetState", 1)
	})

	t.Run("RateLimitFailover", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := new(mockRepo)
		repo := NewFailoverStateRepository(primary, fallback, &logger)

		primary.On("CheckRateLimit", ctx, int64(4), 20, time.Minute).Return(false, errors.New("down"))
		fallback.On("CheckRateLimit", ctx, int64(4), 20, time.Minute).Return(true, nil)

		allowed, err := repo.CheckRateLimit(ctx, 4, 20, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("ClearStateFailover", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := new(mockRepo)
		repo := NewFailoverStateRepository(primary, fallback, &logger)

		primary.On("ClearState", ctx, int64(5)).Return(errors.New("down"))
		fallback.On("ClearState", ctx, int64(5)).Return(nil)

		assert.NoError(t, repo.ClearState(ctx, 5))
	})
}
