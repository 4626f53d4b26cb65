package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentHolds pounds one open slot from many goroutines; the
// conditional update must let exactly one of them through.
func TestConcurrentHolds(t *testing.T) {
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "concurrency.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now()
	slot := makeSlot(t, db, 1, now.Add(24*time.Hour), 60)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(callerID int64) {
			defer wg.Done()
			_, err := db.HoldSlot(ctx, slot.ID, callerID, 10*time.Minute, now)
			results <- err
		}(int64(i + 1))
	}

	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotUnavailable):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, numGoroutines-1, losses)

	got, err := db.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotHeld, got.State)
}

// TestConcurrentConfirms only one confirmation converts the hold even if
// the button is mashed from parallel sessions.
func TestConcurrentConfirms(t *testing.T) {
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "confirms.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now()
	slot := makeSlot(t, db, 1, now.Add(24*time.Hour), 60)

	_, err = db.HoldSlot(ctx, slot.ID, 100, 10*time.Minute, now)
	require.NoError(t, err)

	const numGoroutines = 5
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			results <- db.ConfirmSlotBooking(ctx, slot.ID, 100, 77, now)
		}()
	}

	wg.Wait()
	close(results)

	// Same booking id every time, so every call reports success: either
	// it applied the transition or found it already applied.
	for err := range results {
		assert.NoError(t, err)
	}

	got, err := db.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotBooked, got.State)
	assert.Equal(t, int64(77), got.BookingID)
}
