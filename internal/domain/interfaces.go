package domain

import (
	"context"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// SlotStore tracks availability and enforces single-holder exclusivity.
type SlotStore interface {
	CreateSlot(ctx context.Context, slot *models.Slot) (bool, error)
	HoldSlot(ctx context.Context, slotID, callerID int64, ttl time.Duration, now time.Time) (*models.Slot, error)
	ConfirmSlotBooking(ctx context.Context, slotID, callerID, bookingID int64, now time.Time) error
	ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error)
	ReleaseHold(ctx context.Context, slotID, callerID int64) error
	ReopenSlot(ctx context.Context, slotID, bookingID int64) error
	GetSlot(ctx context.Context, id int64) (*models.Slot, error)
	GetOpenSlots(ctx context.Context, performerID int64, from, to time.Time) ([]*models.Slot, error)
}

// BookingLedger is the durable record of bookings and their transitions.
type BookingLedger interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByPaymentRef(ctx context.Context, paymentRef string) (*models.Booking, error)
	TransitionBookingStatus(ctx context.Context, id int64, toStatus string) error
	MarkBookingCancelled(ctx context.Context, id int64, refundPercentage int, cancelledBy int64, cancelledAt time.Time) error
	UpdateBookingSchedule(ctx context.Context, id int64, newStart time.Time) error
	SetBookingRoomURL(ctx context.Context, id int64, roomURL string) error
	ListUpcomingByCaller(ctx context.Context, callerID int64, now time.Time) ([]*models.Booking, error)
	ListUpcomingByPerformer(ctx context.Context, performerID int64, now time.Time) ([]*models.Booking, error)
	ListBookingsInWindow(ctx context.Context, from, to time.Time) ([]*models.Booking, error)
	HasOverlappingBooking(ctx context.Context, performerID, excludeBookingID int64, start, end time.Time) (bool, error)
}

// Repository is the full persistence surface used by the services.
type Repository interface {
	SlotStore
	BookingLedger

	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	SetUserAgeConfirmed(ctx context.Context, telegramID int64) error
	SetUserTier(ctx context.Context, telegramID int64, tier string) error
	UpdateUserDisplayName(ctx context.Context, telegramID int64, name string) error
	UpdateUserActivity(ctx context.Context, telegramID int64) error
	GetActiveUsers(ctx context.Context, days int) ([]*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)

	CreatePerformer(ctx context.Context, p *models.Performer) error
	UpdatePerformer(ctx context.Context, p *models.Performer) error
	GetPerformer(ctx context.Context, id int64) (*models.Performer, error)
	GetPerformerByUserID(ctx context.Context, userID int64) (*models.Performer, error)
	GetActivePerformers(ctx context.Context) ([]*models.Performer, error)

	CreateVenue(ctx context.Context, v *models.Venue) error
	GetActiveVenues(ctx context.Context) ([]*models.Venue, error)

	CreateListing(ctx context.Context, l *models.Listing) error
	ReviewListing(ctx context.Context, id int64, approved bool, reviewerID int64, reason string) error
	GetListing(ctx context.Context, id int64) (*models.Listing, error)
	GetListingsByStatus(ctx context.Context, status string) ([]*models.Listing, error)
	GetListingsBySubmitter(ctx context.Context, submitterID int64) ([]*models.Listing, error)

	CreateStream(ctx context.Context, s *models.Stream) error
	EndStream(ctx context.Context, id int64, endedAt time.Time) error
	GetStream(ctx context.Context, id int64) (*models.Stream, error)
	GetLiveStreamByPerformer(ctx context.Context, performerID int64) (*models.Stream, error)
	GetLiveStreams(ctx context.Context) ([]*models.Stream, error)
}

// StateRepository stores per-user dialog state with a TTL.
type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// StateManager is the service-level dialog state API.
type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// PaymentProvider is the opaque external payment collaborator. Charges
// return a checkout URL; refunds either land or fail, nothing in between
// is observable.
type PaymentProvider interface {
	InitiateCharge(ctx context.Context, amount decimal.Decimal, currency, reference string) (*ChargeSession, error)
	ProcessRefund(ctx context.Context, bookingID int64, amount decimal.Decimal, currency, reason string) error
}

// ChargeSession is what a provider hands back for a started checkout.
type ChargeSession struct {
	PaymentRef  string
	CheckoutURL string
}

// RoomProvider creates video rooms for private calls and live streams.
type RoomProvider interface {
	CreateRoom(ctx context.Context, name string, expiresAt time.Time) (*Room, error)
	DeleteRoom(ctx context.Context, name string) error
}

type Room struct {
	Name string
	URL  string
}

// RefundDispatcher accepts refund work without blocking the caller.
// Dispatch failure is the worker's problem; cancellation has already
// committed by the time a task is enqueued.
type RefundDispatcher interface {
	EnqueueRefund(ctx context.Context, bookingID int64, amount decimal.Decimal, currency, reason string) error
}

// Notifier delivers user-facing messages. Fire-and-forget: failures are
// logged by implementations and never block state transitions.
type Notifier interface {
	Notify(userID int64, text string)
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// BookingOrchestrator sequences slot holds, payment confirmation and
// cancellation. The only component with externally visible side effects.
type BookingOrchestrator interface {
	RequestSlot(ctx context.Context, callerID, performerID, slotID int64, method string) (*models.HoldReceipt, error)
	ConfirmPayment(ctx context.Context, bookingID int64, paymentRef string) error
	GetBookingByPaymentRef(ctx context.Context, paymentRef string) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID, callerID int64, now time.Time) (*models.Booking, error)
	Reschedule(ctx context.Context, bookingID int64, newTime, now time.Time) error
	QuoteRefund(ctx context.Context, bookingID int64, now time.Time) (RefundQuote, error)
	StartCall(ctx context.Context, bookingID int64) error
	CompleteCall(ctx context.Context, bookingID int64) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListUpcoming(ctx context.Context, callerID int64) ([]*models.Booking, error)
	OpenSlots(ctx context.Context, performerID int64, from, to time.Time) ([]*models.Slot, error)
}

// RefundQuote mirrors refund.Quote without importing the policy package
// here; the orchestrator converts between them.
type RefundQuote struct {
	Percentage int
	Amount     decimal.Decimal
	Basis      string
}

type UserService interface {
	IsAdmin(userID int64) bool
	IsBlacklisted(userID int64) bool
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	ConfirmAge(ctx context.Context, telegramID int64) error
	SetDisplayName(ctx context.Context, telegramID int64, name string) error
	UpgradeToPrime(ctx context.Context, telegramID int64) error
	UpdateUserActivity(ctx context.Context, telegramID int64) error
	GetActiveUsers(ctx context.Context, days int) ([]*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

type PerformerService interface {
	GetActivePerformers(ctx context.Context) ([]*models.Performer, error)
	GetPerformer(ctx context.Context, id int64) (*models.Performer, error)
	GetPerformerByUserID(ctx context.Context, userID int64) (*models.Performer, error)
	CreatePerformer(ctx context.Context, p *models.Performer) error
	UpdatePerformer(ctx context.Context, p *models.Performer) error
}

type ListingService interface {
	Submit(ctx context.Context, l *models.Listing) error
	Review(ctx context.Context, listingID int64, approved bool, reviewerID int64, reason string) (*models.Listing, error)
	PendingReview(ctx context.Context) ([]*models.Listing, error)
	BySubmitter(ctx context.Context, submitterID int64) ([]*models.Listing, error)
	Approved(ctx context.Context) ([]*models.Listing, error)
}

type VenueService interface {
	Nearby(ctx context.Context, lat, lon float64) ([]models.VenueDistance, error)
	AddVenue(ctx context.Context, v *models.Venue) error
}

type StreamService interface {
	StartStream(ctx context.Context, performerID int64, title string, primeOnly bool) (*models.Stream, error)
	EndStream(ctx context.Context, performerID int64) (*models.Stream, error)
	LiveStreams(ctx context.Context) ([]*models.Stream, error)
	JoinStream(ctx context.Context, streamID int64, viewer *models.User) (string, error)
}
