package models

import "time"

// RefundTask is a durable unit of work for the refund dispatch worker.
// The booking is already cancelled when the task is enqueued; the task
// only carries the money movement to the payment provider.
type RefundTask struct {
	ID          int64      `json:"id"`
	BookingID   int64      `json:"booking_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"` // pending, retry, completed, failed
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}
