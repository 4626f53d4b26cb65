package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetState", func(t *testing.T) {
		state := &models.UserState{
			UserID:      1,
			CurrentStep: "booking_pick_slot",
			Data:        map[string]interface{}{"slot_id": int64(42)},
		}
		require.NoError(t, repo.SetState(ctx, state))

		got, err := repo.GetState(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "booking_pick_slot", got.CurrentStep)
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := repo.GetState(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearState", func(t *testing.T) {
		require.NoError(t, repo.SetState(ctx, &models.UserState{UserID: 2, CurrentStep: "x"}))
		require.NoError(t, repo.ClearState(ctx, 2))

		got, _ := repo.GetState(ctx, 2)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, err := repo.CheckRateLimit(ctx, 3, 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := repo.CheckRateLimit(ctx, 3, 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("RateLimitWindowReset", func(t *testing.T) {
		allowed, err := repo.CheckRateLimit(ctx, 4, 1, time.Nanosecond)
		require.NoError(t, err)
		assert.True(t, allowed)

		time.Sleep(time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, 4, 1, time.Nanosecond)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}
