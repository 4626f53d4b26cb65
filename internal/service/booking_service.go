package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/database"
	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/events"
	"github.com/pnpbots/pnptv-app-sub003/internal/metrics"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"
	"github.com/pnpbots/pnptv-app-sub003/internal/payments"
	"github.com/pnpbots/pnptv-app-sub003/internal/refund"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// rescheduleNotice is the minimum lead time before the scheduled start
// at which a reschedule is still accepted. The boundary is inclusive:
// exactly two hours out is allowed.
const rescheduleNotice = 2 * time.Hour

// BookingService sequences slot holds, payment confirmation and
// cancellation. All slot and ledger mutations go through here; handlers
// never touch those tables directly.
type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	payments *payments.Router
	rooms    domain.RoomProvider
	refunds  domain.RefundDispatcher
	holdTTL  time.Duration
	maxDays  int
	currency string
	logger   *zerolog.Logger
}

func NewBookingService(
	repo domain.Repository,
	eventBus domain.EventPublisher,
	paymentRouter *payments.Router,
	rooms domain.RoomProvider,
	refunds domain.RefundDispatcher,
	holdTTLMinutes int,
	maxDays int,
	currency string,
	logger *zerolog.Logger,
) *BookingService {
	if holdTTLMinutes <= 0 {
		holdTTLMinutes = models.DefaultHoldTTLMinutes
	}
	if maxDays <= 0 {
		maxDays = models.MaxBookingDaysAhead
	}
	if currency == "" {
		currency = "USD"
	}
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		payments: paymentRouter,
		rooms:    rooms,
		refunds:  refunds,
		holdTTL:  time.Duration(holdTTLMinutes) * time.Minute,
		maxDays:  maxDays,
		currency: currency,
		logger:   logger,
	}
}

// RequestSlot holds the slot for the caller, opens a pending booking and
// starts a checkout with the chosen payment provider. The hold receipt
// carries the checkout URL and the deadline by which payment must land.
func (s *BookingService) RequestSlot(ctx context.Context, callerID, performerID, slotID int64, method string) (*models.HoldReceipt, error) {
	now := time.Now()
	method = payments.DefaultMethod(method)

	performer, err := s.repo.GetPerformer(ctx, performerID)
	if err != nil {
		return nil, err
	}

	slot, err := s.repo.HoldSlot(ctx, slotID, callerID, s.holdTTL, now)
	if err != nil {
		return nil, err
	}
	if slot.PerformerID != performerID {
		// Slot ids come from callback data; a mismatch means a stale
		// keyboard, not contention.
		_ = s.repo.ReleaseHold(ctx, slotID, callerID)
		return nil, database.ErrNotFound
	}

	// Overlapping slots of other durations may already carry a paid
	// booking for this performer; the hold on this one does not see it.
	overlap, err := s.repo.HasOverlappingBooking(ctx, performerID, 0, slot.StartAt, slot.EndAt)
	if err != nil {
		_ = s.repo.ReleaseHold(ctx, slotID, callerID)
		return nil, err
	}
	if overlap {
		_ = s.repo.ReleaseHold(ctx, slotID, callerID)
		return nil, database.ErrSlotUnavailable
	}

	amount := performer.RateFor(slot.DurationMinutes)
	if amount.IsZero() {
		_ = s.repo.ReleaseHold(ctx, slotID, callerID)
		return nil, fmt.Errorf("performer %d has no rate for %d minute calls", performerID, slot.DurationMinutes)
	}

	reference := uuid.NewString()
	session, err := s.payments.InitiateChargeVia(ctx, method, amount, s.currency, reference)
	if err != nil {
		_ = s.repo.ReleaseHold(ctx, slotID, callerID)
		return nil, fmt.Errorf("initiate charge: %w", err)
	}

	booking := &models.Booking{
		CallerID:        callerID,
		PerformerID:     performerID,
		SlotID:          slotID,
		ScheduledAt:     slot.StartAt,
		DurationMinutes: slot.DurationMinutes,
		Amount:          amount,
		Currency:        s.currency,
		PaymentRef:      session.PaymentRef,
		PaymentMethod:   method,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		_ = s.repo.ReleaseHold(ctx, slotID, callerID)
		return nil, err
	}

	s.publishBookingEvent(events.EventBookingHeld, booking, callerID)
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("slot_id", slotID).
		Int64("caller_id", callerID).
		Str("method", method).
		Msg("slot held, checkout started")

	return &models.HoldReceipt{
		SlotID:      slotID,
		BookingID:   booking.ID,
		PaymentRef:  session.PaymentRef,
		CheckoutURL: session.CheckoutURL,
		ExpiresAt:   now.Add(s.holdTTL),
	}, nil
}

// ConfirmPayment moves a pending booking to confirmed once the payment
// collaborator reports success. Idempotent: confirming an already
// confirmed booking is a no-op success. A lapsed hold fails with
// ErrHoldExpired and the booking is closed out; the caller restarts.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID int64, paymentRef string) error {
	now := time.Now()

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if booking.Status == models.StatusConfirmed {
		return nil
	}
	if booking.Status != models.StatusPending {
		return database.ErrInvalidTransition
	}
	if paymentRef != "" && booking.PaymentRef != paymentRef {
		return database.ErrPaymentNotConfirmed
	}

	// Two callers can hold overlapping slots of different durations at
	// once; whichever payment settles first wins. The loser is closed
	// out and made whole in full, independent of the refund tiers.
	end := booking.ScheduledAt.Add(time.Duration(booking.DurationMinutes) * time.Minute)
	overlap, err := s.repo.HasOverlappingBooking(ctx, booking.PerformerID, booking.ID, booking.ScheduledAt, end)
	if err != nil {
		return err
	}
	if overlap {
		_ = s.repo.ReleaseHold(ctx, booking.SlotID, booking.CallerID)
		if cErr := s.repo.MarkBookingCancelled(ctx, booking.ID, 100, 0, now); cErr != nil {
			s.logger.Error().Err(cErr).Int64("booking_id", booking.ID).Msg("failed to close booking after overlap")
		}
		if s.refunds != nil {
			if qErr := s.refunds.EnqueueRefund(ctx, booking.ID, booking.Amount, booking.Currency, "performer already booked at this time"); qErr != nil {
				s.logger.Error().Err(qErr).Int64("booking_id", booking.ID).Msg("failed to enqueue overlap refund")
			}
		}
		return database.ErrSlotUnavailable
	}

	if err := s.repo.ConfirmSlotBooking(ctx, booking.SlotID, booking.CallerID, booking.ID, now); err != nil {
		if errors.Is(err, database.ErrHoldExpired) {
			// The slot has lapsed back to the pool; the pending booking
			// is dead and the caller must start over.
			if cErr := s.repo.MarkBookingCancelled(ctx, booking.ID, 0, 0, now); cErr != nil {
				s.logger.Error().Err(cErr).Int64("booking_id", booking.ID).Msg("failed to close booking after lapsed hold")
			}
		}
		return err
	}

	if err := s.repo.TransitionBookingStatus(ctx, booking.ID, models.StatusConfirmed); err != nil {
		return err
	}
	booking.Status = models.StatusConfirmed

	s.publishBookingEvent(events.EventBookingConfirmed, booking, booking.CallerID)
	s.logger.Info().Int64("booking_id", booking.ID).Str("payment_ref", booking.PaymentRef).Msg("booking confirmed")
	return nil
}

// GetBookingByPaymentRef resolves a booking from a provider payment reference.
func (s *BookingService) GetBookingByPaymentRef(ctx context.Context, paymentRef string) (*models.Booking, error) {
	return s.repo.GetBookingByPaymentRef(ctx, paymentRef)
}

// ConfirmPaymentByRef resolves the booking from a provider webhook reference.
func (s *BookingService) ConfirmPaymentByRef(ctx context.Context, paymentRef string) error {
	booking, err := s.repo.GetBookingByPaymentRef(ctx, paymentRef)
	if err != nil {
		return err
	}
	return s.ConfirmPayment(ctx, booking.ID, paymentRef)
}

// QuoteRefund computes what a cancellation at now would return, without
// committing anything. Safe to call repeatedly for display.
func (s *BookingService) QuoteRefund(ctx context.Context, bookingID int64, now time.Time) (domain.RefundQuote, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.RefundQuote{}, err
	}
	q := refund.Evaluate(booking.Amount, booking.ScheduledAt, now)
	return domain.RefundQuote{Percentage: q.Percentage, Amount: q.Amount, Basis: q.Basis}, nil
}

// Cancel transitions the booking to cancelled with the refund quote
// attached and hands the refund to the dispatcher. The cancellation
// commits regardless of whether the refund dispatch succeeds; a failed
// dispatch is logged and retried by the worker, never rolled back.
func (s *BookingService) Cancel(ctx context.Context, bookingID, callerID int64, now time.Time) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	wasConfirmed := booking.Status == models.StatusConfirmed
	quote := refund.Evaluate(booking.Amount, booking.ScheduledAt, now)

	if err := s.repo.MarkBookingCancelled(ctx, booking.ID, quote.Percentage, callerID, now); err != nil {
		return nil, err
	}

	booking.Status = models.StatusCancelled
	booking.RefundPercentage = quote.Percentage
	booking.CancelledAt = &now
	booking.CancelledBy = callerID

	// Return the slot to the pool. Pending bookings still carry a hold;
	// confirmed ones own the slot outright.
	if wasConfirmed {
		if err := s.repo.ReopenSlot(ctx, booking.SlotID, booking.ID); err != nil {
			s.logger.Error().Err(err).Int64("slot_id", booking.SlotID).Msg("failed to reopen slot after cancellation")
		}
	} else {
		if err := s.repo.ReleaseHold(ctx, booking.SlotID, booking.CallerID); err != nil {
			s.logger.Error().Err(err).Int64("slot_id", booking.SlotID).Msg("failed to release hold after cancellation")
		}
	}

	s.publishBookingEvent(events.EventBookingCancelled, booking, callerID)

	if wasConfirmed && quote.Percentage > 0 {
		if err := s.refunds.EnqueueRefund(ctx, booking.ID, quote.Amount, booking.Currency, quote.Basis); err != nil {
			// Dispatch failure never undoes the cancellation.
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("failed to enqueue refund")
		}
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int("refund_percentage", quote.Percentage).
		Str("refund_amount", quote.Amount.StringFixed(2)).
		Msg("booking cancelled")

	return booking, nil
}

// Reschedule moves a confirmed booking to a new start time. Allowed only
// while now is at least two hours before the current scheduled time; the
// slot machinery is not re-run.
func (s *BookingService) Reschedule(ctx context.Context, bookingID int64, newTime, now time.Time) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	switch booking.Status {
	case models.StatusConfirmed:
	case models.StatusPending:
		return database.ErrPaymentNotConfirmed
	default:
		return database.ErrInvalidTransition
	}

	if booking.ScheduledAt.Sub(now) < rescheduleNotice {
		return database.ErrTooLateToReschedule
	}
	if newTime.Before(now) {
		return database.ErrPastDate
	}
	if newTime.After(now.AddDate(0, 0, s.maxDays)) {
		return database.ErrDateTooFar
	}

	newEnd := newTime.Add(time.Duration(booking.DurationMinutes) * time.Minute)
	overlap, err := s.repo.HasOverlappingBooking(ctx, booking.PerformerID, booking.ID, newTime, newEnd)
	if err != nil {
		return err
	}
	if overlap {
		return database.ErrSlotUnavailable
	}

	if err := s.repo.UpdateBookingSchedule(ctx, bookingID, newTime); err != nil {
		return err
	}
	booking.ScheduledAt = newTime

	s.publishBookingEvent(events.EventBookingRescheduled, booking, booking.CallerID)
	s.logger.Info().Int64("booking_id", bookingID).Time("new_time", newTime).Msg("booking rescheduled")
	return nil
}

// StartCall provisions the video room and moves the booking to active.
func (s *BookingService) StartCall(ctx context.Context, bookingID int64) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status == models.StatusPending {
		return database.ErrPaymentNotConfirmed
	}

	if err := s.repo.TransitionBookingStatus(ctx, bookingID, models.StatusActive); err != nil {
		return err
	}

	room, err := s.rooms.CreateRoom(ctx, fmt.Sprintf("call-%d", bookingID), booking.EndsAt().Add(15*time.Minute))
	if err != nil {
		// The call is active even if the room API hiccups; the
		// performer can retry room creation from the bot.
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to create call room")
	} else {
		if err := s.repo.SetBookingRoomURL(ctx, bookingID, room.URL); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to store room url")
		}
		booking.RoomURL = room.URL
	}

	booking.Status = models.StatusActive
	s.publishBookingEvent(events.EventCallStarted, booking, booking.PerformerID)
	return nil
}

// CompleteCall closes out an active booking and tears down its room.
func (s *BookingService) CompleteCall(ctx context.Context, bookingID int64) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.repo.TransitionBookingStatus(ctx, bookingID, models.StatusCompleted); err != nil {
		return err
	}

	if err := s.rooms.DeleteRoom(ctx, fmt.Sprintf("call-%d", bookingID)); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", bookingID).Msg("failed to delete call room")
	}

	booking.Status = models.StatusCompleted
	s.publishBookingEvent(events.EventBookingCompleted, booking, booking.PerformerID)
	s.logger.Info().Int64("booking_id", bookingID).Msg("call completed")
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) ListUpcoming(ctx context.Context, callerID int64) ([]*models.Booking, error) {
	return s.repo.ListUpcomingByCaller(ctx, callerID, time.Now())
}

func (s *BookingService) ListUpcomingForPerformer(ctx context.Context, performerID int64) ([]*models.Booking, error) {
	return s.repo.ListUpcomingByPerformer(ctx, performerID, time.Now())
}

// OpenSlots sweeps expired holds first so lapsed slots show as bookable.
func (s *BookingService) OpenSlots(ctx context.Context, performerID int64, from, to time.Time) ([]*models.Slot, error) {
	if _, err := s.repo.ReleaseExpiredHolds(ctx, time.Now()); err != nil {
		s.logger.Warn().Err(err).Msg("failed to sweep expired holds")
	}
	return s.repo.GetOpenSlots(ctx, performerID, from, to)
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking, changedBy int64) {
	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		CallerID:    booking.CallerID,
		PerformerID: booking.PerformerID,
		SlotID:      booking.SlotID,
		Status:      booking.Status,
		ScheduledAt: booking.ScheduledAt,
		Amount:      booking.Amount,
		Currency:    booking.Currency,
		ChangedBy:   changedBy,
	}
	metrics.IncTransition(booking.Status)
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
