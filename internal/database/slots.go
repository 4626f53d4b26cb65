package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"
)

// Slot mutations are single-row conditional updates. RowsAffected tells
// whether the precondition held; there is no read-modify-write window, so
// concurrent callers can never both win the same slot.

// CreateSlot inserts a slot row. A duplicate (performer, start, duration)
// is silently ignored so availability generation is idempotent.
func (db *DB) CreateSlot(ctx context.Context, slot *models.Slot) (bool, error) {
	query := `INSERT OR IGNORE INTO slots (performer_id, start_at, end_at, duration_minutes, state)
              VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		slot.PerformerID,
		slot.StartAt.Unix(),
		slot.EndAt.Unix(),
		slot.DurationMinutes,
		models.SlotOpen,
	)
	if err != nil {
		return false, fmt.Errorf("create slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create slot rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("create slot last insert id: %w", err)
	}
	slot.ID = id
	slot.State = models.SlotOpen
	return true, nil
}

// HoldSlot places an expiring hold for callerID. It succeeds when the slot
// is open, carries an expired hold, or is already held by the same caller
// (a double-tap refreshes the expiry). Returns ErrSlotUnavailable otherwise.
func (db *DB) HoldSlot(ctx context.Context, slotID, callerID int64, ttl time.Duration, now time.Time) (*models.Slot, error) {
	expiry := now.Add(ttl)

	query := `UPDATE slots
              SET state = ?, hold_user_id = ?, hold_expires_at = ?
              WHERE id = ?
                AND state != ?
                AND (state = ? OR hold_expires_at <= ? OR hold_user_id = ?)`
	result, err := db.ExecContext(ctx, query,
		models.SlotHeld, callerID, expiry.Unix(),
		slotID,
		models.SlotBooked,
		models.SlotOpen, now.Unix(), callerID,
	)
	if err != nil {
		return nil, fmt.Errorf("hold slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("hold slot rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish contention from a bad id for the caller's sake.
		if _, err := db.GetSlot(ctx, slotID); err != nil {
			return nil, err
		}
		return nil, ErrSlotUnavailable
	}

	return db.GetSlot(ctx, slotID)
}

// ConfirmSlotBooking converts a live hold owned by callerID into a booked
// slot referencing bookingID. A lapsed or foreign hold yields ErrHoldExpired.
func (db *DB) ConfirmSlotBooking(ctx context.Context, slotID, callerID, bookingID int64, now time.Time) error {
	query := `UPDATE slots
              SET state = ?, booking_id = ?, hold_user_id = 0, hold_expires_at = 0
              WHERE id = ? AND state = ? AND hold_user_id = ? AND hold_expires_at > ?`
	result, err := db.ExecContext(ctx, query,
		models.SlotBooked, bookingID,
		slotID, models.SlotHeld, callerID, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("confirm slot booking: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm slot rows affected: %w", err)
	}
	if affected == 0 {
		slot, err := db.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.State == models.SlotBooked && slot.BookingID == bookingID {
			// Already confirmed for this booking; retried confirmation.
			return nil
		}
		return ErrHoldExpired
	}
	return nil
}

// ReleaseExpiredHolds sweeps lapsed holds back to open. Safe to run
// concurrently and redundantly.
func (db *DB) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE slots
              SET state = ?, hold_user_id = 0, hold_expires_at = 0
              WHERE state = ? AND hold_expires_at <= ?`
	result, err := db.ExecContext(ctx, query, models.SlotOpen, models.SlotHeld, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("release expired holds: %w", err)
	}
	released, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("release holds rows affected: %w", err)
	}
	return released, nil
}

// ReleaseHold frees a hold owned by callerID without waiting for expiry
// (checkout abandoned explicitly).
func (db *DB) ReleaseHold(ctx context.Context, slotID, callerID int64) error {
	query := `UPDATE slots
              SET state = ?, hold_user_id = 0, hold_expires_at = 0
              WHERE id = ? AND state = ? AND hold_user_id = ?`
	_, err := db.ExecContext(ctx, query, models.SlotOpen, slotID, models.SlotHeld, callerID)
	if err != nil {
		return fmt.Errorf("release hold: %w", err)
	}
	return nil
}

// ReopenSlot returns a booked slot to the open pool after its booking
// was cancelled. No-op when the slot is no longer tied to that booking.
func (db *DB) ReopenSlot(ctx context.Context, slotID, bookingID int64) error {
	query := `UPDATE slots
              SET state = ?, hold_user_id = 0, hold_expires_at = 0, booking_id = 0
              WHERE id = ? AND state = ? AND booking_id = ?`
	_, err := db.ExecContext(ctx, query, models.SlotOpen, slotID, models.SlotBooked, bookingID)
	if err != nil {
		return fmt.Errorf("reopen slot: %w", err)
	}
	return nil
}

func (db *DB) GetSlot(ctx context.Context, id int64) (*models.Slot, error) {
	query := `SELECT id, performer_id, start_at, end_at, duration_minutes, state,
                     hold_user_id, hold_expires_at, booking_id, created_at
              FROM slots WHERE id = ?`
	slot, err := scanSlot(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return slot, nil
}

// GetOpenSlots lists bookable slots for a performer between from and to.
// Slots with expired holds count as open; the caller should run
// ReleaseExpiredHolds first so the stored state matches.
func (db *DB) GetOpenSlots(ctx context.Context, performerID int64, from, to time.Time) ([]*models.Slot, error) {
	query := `SELECT id, performer_id, start_at, end_at, duration_minutes, state,
                     hold_user_id, hold_expires_at, booking_id, created_at
              FROM slots
              WHERE performer_id = ? AND state = ? AND start_at >= ? AND start_at < ?
              ORDER BY start_at`
	rows, err := db.QueryContext(ctx, query, performerID, models.SlotOpen, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("get open slots: %w", err)
	}
	defer rows.Close()

	var slots []*models.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*models.Slot, error) {
	var (
		slot          models.Slot
		startAt       int64
		endAt         int64
		holdExpiresAt int64
	)
	err := row.Scan(
		&slot.ID, &slot.PerformerID, &startAt, &endAt, &slot.DurationMinutes,
		&slot.State, &slot.HoldUserID, &holdExpiresAt, &slot.BookingID, &slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.StartAt = time.Unix(startAt, 0).UTC()
	slot.EndAt = time.Unix(endAt, 0).UTC()
	if holdExpiresAt > 0 {
		t := time.Unix(holdExpiresAt, 0).UTC()
		slot.HoldExpiresAt = &t
	}
	return &slot, nil
}
