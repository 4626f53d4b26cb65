package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"
)

func (db *DB) CreateRefundTask(ctx context.Context, task *models.RefundTask) error {
	query := `INSERT INTO refund_queue (booking_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		task.BookingID,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("create refund task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create refund task last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// ClaimRefundTask atomically moves a pending or due-retry task to
// processing and returns its current row. A task can reach the worker
// through Redis, the in-memory queue and DB polling at the same time;
// whichever copy claims first executes the refund, the rest get nil.
func (db *DB) ClaimRefundTask(ctx context.Context, id int64) (*models.RefundTask, error) {
	query := `UPDATE refund_queue SET status = 'processing'
	          WHERE id = ? AND status IN ('pending', 'retry')
	            AND (next_retry_at IS NULL OR next_retry_at <= ?)`
	result, err := db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return nil, fmt.Errorf("claim refund task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claim refund task rows affected: %w", err)
	}
	if rows == 0 {
		return nil, nil
	}
	return db.getRefundTask(ctx, id)
}

func (db *DB) getRefundTask(ctx context.Context, id int64) (*models.RefundTask, error) {
	query := `SELECT id, booking_id, payload, status, retry_count, COALESCE(last_error, ''),
                     created_at, processed_at, next_retry_at
              FROM refund_queue WHERE id = ?`
	var t models.RefundTask
	err := db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.BookingID, &t.Payload, &t.Status,
		&t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt)
	if err != nil {
		return nil, fmt.Errorf("get refund task: %w", err)
	}
	return &t, nil
}

func (db *DB) GetPendingRefundTasks(ctx context.Context, limit int) ([]models.RefundTask, error) {
	query := `SELECT id, booking_id, payload, status, retry_count, COALESCE(last_error, ''),
                     created_at, processed_at, next_retry_at
              FROM refund_queue
              WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("get pending refund tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.RefundTask
	for rows.Next() {
		var t models.RefundTask
		err := rows.Scan(&t.ID, &t.BookingID, &t.Payload, &t.Status, &t.RetryCount,
			&t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt)
		if err != nil {
			return nil, fmt.Errorf("scan refund task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) UpdateRefundTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var query string
	var args []interface{}
	now := time.Now()

	switch status {
	case "retry":
		query = `UPDATE refund_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	case "completed", "failed":
		query = `UPDATE refund_queue SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, &now, id}
	default:
		query = `UPDATE refund_queue SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	}

	_, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update refund task status: %w", err)
	}
	return nil
}

func (db *DB) GetFailedRefundTasks(ctx context.Context) ([]models.RefundTask, error) {
	query := `SELECT id, booking_id, payload, status, retry_count, COALESCE(last_error, ''),
                     created_at, processed_at, next_retry_at
              FROM refund_queue WHERE status = 'failed' ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get failed refund tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.RefundTask
	for rows.Next() {
		var t models.RefundTask
		err := rows.Scan(&t.ID, &t.BookingID, &t.Payload, &t.Status, &t.RetryCount,
			&t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt)
		if err != nil {
			return nil, fmt.Errorf("scan refund task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
