package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/shopspring/decimal"
)

// transitionSources maps a target status to the statuses it may be reached
// from. Terminal statuses never appear as sources of anything but
// themselves; skipping states is not possible.
var transitionSources = map[string][]string{
	models.StatusConfirmed: {models.StatusPending},
	models.StatusActive:    {models.StatusConfirmed},
	models.StatusCompleted: {models.StatusActive},
	models.StatusCancelled: {models.StatusPending, models.StatusConfirmed},
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
                caller_id, performer_id, slot_id, scheduled_at, duration_minutes,
                amount, currency, status, payment_ref, payment_method, created_at, updated_at
              ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.CallerID,
		booking.PerformerID,
		booking.SlotID,
		booking.ScheduledAt.Unix(),
		booking.DurationMinutes,
		booking.Amount.String(),
		booking.Currency,
		models.StatusPending,
		booking.PaymentRef,
		booking.PaymentMethod,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create booking last insert id: %w", err)
	}
	booking.ID = id
	booking.Status = models.StatusPending
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// TransitionBookingStatus applies the state machine with a conditional
// update: the row only changes when the current status is a legal source
// for the target. Illegal attempts return ErrInvalidTransition.
func (db *DB) TransitionBookingStatus(ctx context.Context, id int64, toStatus string) error {
	sources, ok := transitionSources[toStatus]
	if !ok {
		return ErrInvalidTransition
	}

	placeholders := strings.Repeat("?, ", len(sources)-1) + "?"
	query := fmt.Sprintf(
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status IN (%s)`,
		placeholders,
	)

	args := []interface{}{toStatus, time.Now(), id}
	for _, s := range sources {
		args = append(args, s)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition booking status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := db.GetBooking(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

// MarkBookingCancelled transitions to cancelled while attaching the refund
// quote, in one conditional update so the transition and its metadata can
// never disagree.
func (db *DB) MarkBookingCancelled(ctx context.Context, id int64, refundPercentage int, cancelledBy int64, cancelledAt time.Time) error {
	query := `UPDATE bookings
              SET status = ?, refund_percentage = ?, cancelled_at = ?, cancelled_by = ?, updated_at = ?
              WHERE id = ? AND status IN (?, ?)`
	result, err := db.ExecContext(ctx, query,
		models.StatusCancelled, refundPercentage, cancelledAt.Unix(), cancelledBy, time.Now(),
		id, models.StatusPending, models.StatusConfirmed,
	)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := db.GetBooking(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

// UpdateBookingSchedule moves the scheduled start. Allowed only while the
// booking is still pending or confirmed; the slot machinery is not re-run.
func (db *DB) UpdateBookingSchedule(ctx context.Context, id int64, newStart time.Time) error {
	query := `UPDATE bookings SET scheduled_at = ?, updated_at = ?
              WHERE id = ? AND status IN (?, ?)`
	result, err := db.ExecContext(ctx, query,
		newStart.Unix(), time.Now(),
		id, models.StatusPending, models.StatusConfirmed,
	)
	if err != nil {
		return fmt.Errorf("update booking schedule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reschedule rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := db.GetBooking(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

func (db *DB) SetBookingRoomURL(ctx context.Context, id int64, roomURL string) error {
	query := `UPDATE bookings SET room_url = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, roomURL, time.Now(), id)
	if err != nil {
		return fmt.Errorf("set booking room url: %w", err)
	}
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := selectBooking + ` WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) GetBookingByPaymentRef(ctx context.Context, paymentRef string) (*models.Booking, error) {
	query := selectBooking + ` WHERE payment_ref = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, paymentRef))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking by payment ref: %w", err)
	}
	return booking, nil
}

// ListUpcomingByCaller returns pending and confirmed bookings that have
// not started yet, soonest first.
func (db *DB) ListUpcomingByCaller(ctx context.Context, callerID int64, now time.Time) ([]*models.Booking, error) {
	query := selectBooking + ` WHERE caller_id = ? AND status IN (?, ?) AND scheduled_at >= ? ORDER BY scheduled_at`
	return db.queryBookings(ctx, query, callerID, models.StatusPending, models.StatusConfirmed, now.Unix())
}

func (db *DB) ListUpcomingByPerformer(ctx context.Context, performerID int64, now time.Time) ([]*models.Booking, error) {
	query := selectBooking + ` WHERE performer_id = ? AND status IN (?, ?) AND scheduled_at >= ? ORDER BY scheduled_at`
	return db.queryBookings(ctx, query, performerID, models.StatusPending, models.StatusConfirmed, now.Unix())
}

// HasOverlappingBooking reports whether the performer already holds a
// paid booking intersecting [start, end). Generated slots of different
// durations share wall-clock time, so slot-level exclusivity alone does
// not keep a performer single-booked.
func (db *DB) HasOverlappingBooking(ctx context.Context, performerID, excludeBookingID int64, start, end time.Time) (bool, error) {
	query := `SELECT COUNT(1) FROM bookings
              WHERE performer_id = ? AND id != ? AND status IN (?, ?)
                AND scheduled_at < ? AND scheduled_at + duration_minutes * 60 > ?`
	var n int
	err := db.QueryRowContext(ctx, query, performerID, excludeBookingID,
		models.StatusConfirmed, models.StatusActive, end.Unix(), start.Unix()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check overlapping booking: %w", err)
	}
	return n > 0, nil
}

// ListBookingsInWindow returns confirmed bookings starting inside
// [from, to), used by the reminder sweep.
func (db *DB) ListBookingsInWindow(ctx context.Context, from, to time.Time) ([]*models.Booking, error) {
	query := selectBooking + ` WHERE status = ? AND scheduled_at >= ? AND scheduled_at < ? ORDER BY scheduled_at`
	return db.queryBookings(ctx, query, models.StatusConfirmed, from.Unix(), to.Unix())
}

// BookingStats aggregates counts and revenue per status for the admin
// dashboard. Revenue sums confirmed/active/completed amounts.
type BookingStats struct {
	CountByStatus map[string]int64
	Revenue       decimal.Decimal
}

func (db *DB) GetBookingStats(ctx context.Context, from, to time.Time) (*BookingStats, error) {
	query := `SELECT status, COUNT(*), COALESCE(SUM(CAST(amount AS REAL)), 0)
              FROM bookings
              WHERE created_at >= ? AND created_at < ?
              GROUP BY status`
	rows, err := db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("booking stats: %w", err)
	}
	defer rows.Close()

	stats := &BookingStats{
		CountByStatus: make(map[string]int64),
		Revenue:       decimal.Zero,
	}
	for rows.Next() {
		var (
			status string
			count  int64
			total  float64
		)
		if err := rows.Scan(&status, &count, &total); err != nil {
			return nil, fmt.Errorf("scan booking stats: %w", err)
		}
		stats.CountByStatus[status] = count
		switch status {
		case models.StatusConfirmed, models.StatusActive, models.StatusCompleted:
			stats.Revenue = stats.Revenue.Add(decimal.NewFromFloat(total).Round(2))
		}
	}
	return stats, rows.Err()
}

const selectBooking = `SELECT id, caller_id, performer_id, slot_id, scheduled_at, duration_minutes,
       amount, currency, status, COALESCE(payment_ref, ''), COALESCE(payment_method, ''),
       COALESCE(room_url, ''), refund_percentage, cancelled_at, cancelled_by, created_at, updated_at
FROM bookings`

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		booking     models.Booking
		scheduledAt int64
		amount      string
		cancelledAt int64
	)
	err := row.Scan(
		&booking.ID, &booking.CallerID, &booking.PerformerID, &booking.SlotID,
		&scheduledAt, &booking.DurationMinutes, &amount, &booking.Currency,
		&booking.Status, &booking.PaymentRef, &booking.PaymentMethod,
		&booking.RoomURL, &booking.RefundPercentage, &cancelledAt,
		&booking.CancelledBy, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.ScheduledAt = time.Unix(scheduledAt, 0).UTC()
	booking.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse booking amount %q: %w", amount, err)
	}
	if cancelledAt > 0 {
		t := time.Unix(cancelledAt, 0).UTC()
		booking.CancelledAt = &t
	}
	return &booking, nil
}
