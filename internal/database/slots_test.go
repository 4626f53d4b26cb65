package database

import (
	"context"
	"testing"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSlot(t *testing.T, db *DB, performerID int64, start time.Time, durationMinutes int) *models.Slot {
	t.Helper()
	slot := &models.Slot{
		PerformerID:     performerID,
		StartAt:         start,
		EndAt:           start.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
		State:           models.SlotOpen,
	}
	created, err := db.CreateSlot(context.Background(), slot)
	require.NoError(t, err)
	require.True(t, created)
	return slot
}

func TestCreateSlotIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)

	slot := makeSlot(t, db, 1, start, 60)
	assert.NotZero(t, slot.ID)

	// Same (performer, start, duration) again is a no-op.
	dup := &models.Slot{
		PerformerID:     1,
		StartAt:         start,
		EndAt:           start.Add(time.Hour),
		DurationMinutes: 60,
		State:           models.SlotOpen,
	}
	created, err := db.CreateSlot(ctx, dup)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestHoldSlot(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("HoldOpenSlot", func(t *testing.T) {
		slot := makeSlot(t, db, 1, now.Add(24*time.Hour), 60)

		held, err := db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, now)
		require.NoError(t, err)
		assert.Equal(t, models.SlotHeld, held.State)
		assert.Equal(t, int64(100), held.HoldUserID)
		require.NotNil(t, held.HoldExpiresAt)
		assert.Equal(t, now.Add(10*time.Minute).Unix(), held.HoldExpiresAt.Unix())
	})

	t.Run("SecondCallerRejected", func(t *testing.T) {
		slot := makeSlot(t, db, 1, now.Add(25*time.Hour), 60)

		_, err := db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, now)
		require.NoError(t, err)

		_, err = db.HoldSlot(ctx, slot.ID, 200, 10*time.Minute, now)
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("SameCallerRefreshesHold", func(t *testing.T) {
		slot := makeSlot(t, db, 1, now.Add(26*time.Hour), 60)

		_, err := db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, now)
		require.NoError(t, err)

		// Double-tap from the same caller extends, not fails.
		later := now.Add(2 * time.Minute)
		held, err := db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, later)
		require.NoError(t, err)
		assert.Equal(t, later.Add(10*time.Minute).Unix(), held.HoldExpiresAt.Unix())
	})

	t.Run("ExpiredHoldIsHoldable", func(t *testing.T) {
		slot := makeSlot(t, db, 1, now.Add(27*time.Hour), 60)

		_, err := db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, now)
		require.NoError(t, err)

		// 11 minutes later the hold has lapsed.
		later := now.Add(11 * time.Minute)
		held, err := db.HoldSlot(ctx, slot.ID, 200, 10*time.Minute, later)
		require.NoError(t, err)
		assert.Equal(t, int64(200), held.HoldUserID)
	})

	t.Run("BookedSlotNeverHoldable", func(t *testing.T) {
		slot := makeSlot(t, db, 1, now.Add(28*time.Hour), 60)

		_, err := db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, now)
		require.NoError(t, err)
		require.NoError(t, db.ConfirmSlotBooking(ctx, slot.ID, 100, 77, now))

		_, err = db.HoldSlot(ctx, slot.ID, 200, 10*time.Minute, now.Add(time.Hour))
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("MissingSlot", func(t *testing.T) {
		_, err := db.HoldSlot(ctx, 99999, 100, 10*time.Minute, now)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestConfirmSlotBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("ConfirmHeldSlot", func(t *testing.T) {
		slot := makeSlot(t, db, 2, now.Add(24*time.Hour), 30)
		_, err := db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, now)
		require.NoError(t, err)

		require.NoError(t, db.ConfirmSlotBooking(ctx, slot.ID, 100, 55, now.Add(time.Minute)))

		got, err := db.GetSlot(ctx, slot.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SlotBooked, got.State)
		assert.Equal(t, int64(55), got.BookingID)
		assert.Zero(t, got.HoldUserID)
	})

	t.Run("RepeatConfirmSameBookingIsNoop", func(t *testing.T) {
		slot := makeSlot(t, db, 2, now.Add(25*time.Hour), 30)
		_, err := db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, now)
		require.NoError(t, err)

		require.NoError(t, db.ConfirmSlotBooking(ctx, slot.ID, 100, 56, now))
		require.NoError(t, db.ConfirmSlotBooking(ctx, slot.ID, 100, 56, now))
	})

	t.Run("ExpiredHoldRejected", func(t *testing.T) {
		slot := makeSlot(t, db, 2, now.Add(26*time.Hour), 30)
		_, err := db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, now)
		require.NoError(t, err)

		err = db.ConfirmSlotBooking(ctx, slot.ID, 100, 57, now.Add(11*time.Minute))
		assert.ErrorIs(t, err, ErrHoldExpired)
	})

	t.Run("WrongHolderRejected", func(t *testing.T) {
		slot := makeSlot(t, db, 2, now.Add(27*time.Hour), 30)
		_, err := db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, now)
		require.NoError(t, err)

		err = db.ConfirmSlotBooking(ctx, slot.ID, 200, 58, now)
		assert.ErrorIs(t, err, ErrHoldExpired)
	})
}

func TestReleaseExpiredHolds(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	live := makeSlot(t, db, 3, now.Add(24*time.Hour), 60)
	lapsed := makeSlot(t, db, 3, now.Add(25*time.Hour), 60)

	_, err := db.HoldSlot(ctx, live.ID, 100, 20*time.Minute, now)
	require.NoError(t, err)
	_, err = db.HoldSlot(ctx, lapsed.ID, 200, 10*time.Minute, now)
	require.NoError(t, err)

	released, err := db.ReleaseExpiredHolds(ctx, now.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	// Redundant sweeps are no-ops.
	released, err = db.ReleaseExpiredHolds(ctx, now.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, released)

	got, err := db.GetSlot(ctx, lapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotOpen, got.State)

	got, err = db.GetSlot(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotHeld, got.State)
}

func TestReopenSlot(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	slot := makeSlot(t, db, 4, now.Add(24*time.Hour), 60)
	_, err := db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, now)
	require.NoError(t, err)
	require.NoError(t, db.ConfirmSlotBooking(ctx, slot.ID, 100, 88, now))

	require.NoError(t, db.ReopenSlot(ctx, slot.ID, 88))

	got, err := db.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotOpen, got.State)
	assert.Zero(t, got.BookingID)

	// Wrong booking id does nothing.
	_, err = db.HoldSlot(ctx, slot.ID, 200, 10*time.Minute, now)
	require.NoError(t, err)
	require.NoError(t, db.ConfirmSlotBooking(ctx, slot.ID, 200, 89, now))
	require.NoError(t, db.ReopenSlot(ctx, slot.ID, 88))

	got, err = db.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotBooked, got.State)
}

func TestGetOpenSlots(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	s1 := makeSlot(t, db, 5, now.Add(24*time.Hour), 60)
	s2 := makeSlot(t, db, 5, now.Add(26*time.Hour), 60)
	makeSlot(t, db, 6, now.Add(24*time.Hour), 60) // other performer

	_, err := db.HoldSlot(ctx, s2.ID, 100, 10*time.Minute, now)
	require.NoError(t, err)

	open, err := db.GetOpenSlots(ctx, 5, now, now.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, s1.ID, open[0].ID)
}
