package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/database"
	"github.com/pnpbots/pnptv-app-sub003/internal/metrics"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"
	"github.com/pnpbots/pnptv-app-sub003/internal/payments"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// refundTaskPayload is persisted in RefundTask.Payload as JSON.
type refundTaskPayload struct {
	BookingID int64           `json:"booking_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reason    string          `json:"reason,omitempty"`
}

// RefundWorker executes refunds against payment providers after a
// cancellation has already committed. Work is durable in the
// refund_queue table; Redis is a fast path, the in-memory channel a
// fallback, and DB polling catches anything both of those miss.
type RefundWorker struct {
	db            *database.DB
	payments      *payments.Router
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.RefundTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewRefundWorker builds a worker with sane defaults.
func NewRefundWorker(db *database.DB, paymentRouter *payments.Router, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *RefundWorker {
	return &RefundWorker{
		db:            db,
		payments:      paymentRouter,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan models.RefundTask, 128),
		redisQueueKey: "refunds:queue",
		deadLetterKey: "refunds:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueRefund persists the refund and schedules it via Redis or the
// in-memory queue. The DB row exists before either push, so a dropped
// push only delays the refund until the next poll.
func (w *RefundWorker) EnqueueRefund(ctx context.Context, bookingID int64, amount decimal.Decimal, currency, reason string) error {
	if bookingID == 0 {
		return errors.New("booking id is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("refund amount must be positive")
	}

	payload := refundTaskPayload{
		BookingID: bookingID,
		Amount:    amount,
		Currency:  currency,
		Reason:    reason,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.RefundTask{
		BookingID: bookingID,
		Payload:   string(payloadBytes),
		Status:    "pending",
	}
	if err := w.db.CreateRefundTask(ctx, &task); err != nil {
		return fmt.Errorf("persist refund task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("refund_worker: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("refund_worker: in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *RefundWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("refund_worker: started")
	defer w.logger.Info().Msg("refund_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingRefundTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("refund_worker: fetch pending")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *RefundWorker) tryLocalQueue() (models.RefundTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.RefundTask{}, false
	}
}

func (w *RefundWorker) tryRedis(ctx context.Context) (models.RefundTask, bool) {
	if w.redis == nil {
		return models.RefundTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.RefundTask{}, false
		}
		w.logger.Error().Err(err).Msg("refund_worker: redis BRPOP error")
		return models.RefundTask{}, false
	}
	if len(res) != 2 {
		return models.RefundTask{}, false
	}
	var task models.RefundTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("refund_worker: decode redis task")
		return models.RefundTask{}, false
	}
	return task, true
}

func (w *RefundWorker) processTask(ctx context.Context, task *models.RefundTask) {
	// The same task may arrive via Redis, the channel and the DB poll.
	// Only the copy that wins the claim touches the provider; a money
	// refund must run exactly once per cancellation.
	claimed, err := w.db.ClaimRefundTask(ctx, task.ID)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("refund_worker: claim failed")
		return
	}
	if claimed == nil {
		w.logger.Debug().Int64("task_id", task.ID).Msg("refund_worker: task already claimed or settled")
		return
	}
	task = claimed

	var payload refundTaskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.executeRefund(ctx, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateRefundTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("refund_worker: mark completed")
	}
	metrics.IncRefundTask("completed")
	w.logger.Info().
		Int64("booking_id", payload.BookingID).
		Str("amount", payload.Amount.StringFixed(2)).
		Msg("refund processed")
}

// executeRefund routes the money back through the provider that took
// the original charge.
func (w *RefundWorker) executeRefund(ctx context.Context, payload refundTaskPayload) error {
	booking, err := w.db.GetBooking(ctx, payload.BookingID)
	if err != nil {
		return fmt.Errorf("load booking %d: %w", payload.BookingID, err)
	}
	method := payments.DefaultMethod(booking.PaymentMethod)
	return w.payments.RefundVia(ctx, method, payload.BookingID, payload.Amount, payload.Currency, payload.Reason)
}

func (w *RefundWorker) retryOrFail(ctx context.Context, task *models.RefundTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.db.UpdateRefundTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("refund_worker: mark failed")
		}
		w.pushDeadLetter(ctx, task)
		metrics.IncRefundTask("failed")
		return
	}

	metrics.IncRefundTask("retry")
	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.db.UpdateRefundTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("refund_worker: mark retry")
	}
	w.logger.Warn().
		Err(cause).
		Int64("task_id", task.ID).
		Int("attempt", attempt).
		Dur("next_delay", nextDelay).
		Msg("refund_worker: refund failed, will retry")
}

func (w *RefundWorker) failTask(ctx context.Context, task *models.RefundTask, cause error) {
	if err := w.db.UpdateRefundTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("refund_worker: mark failed")
	}
	w.pushDeadLetter(ctx, task)
	metrics.IncRefundTask("failed")
}

func (w *RefundWorker) pushRedis(ctx context.Context, task models.RefundTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *RefundWorker) pushDeadLetter(ctx context.Context, task *models.RefundTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("refund_worker: dead letter push failed")
	}
}
