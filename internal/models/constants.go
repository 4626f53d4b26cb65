package models

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Slot states.
const (
	SlotOpen   = "open"
	SlotHeld   = "held"
	SlotBooked = "booked"
)

// Listing moderation statuses.
const (
	ListingSubmitted = "submitted"
	ListingApproved  = "approved"
	ListingRejected  = "rejected"
)

// Stream session statuses.
const (
	StreamLive  = "live"
	StreamEnded = "ended"
)

// Subscription tiers.
const (
	TierFree  = "free"
	TierPrime = "prime"
)

// Payment methods.
const (
	PaymentMethodCard   = "card"
	PaymentMethodCrypto = "crypto"
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// DefaultRedisTTL dialog state lifetime in Redis, seconds.
	DefaultRedisTTL = 24 * 60 * 60

	// DefaultHoldTTLMinutes checkout hold duration.
	DefaultHoldTTLMinutes = 10

	// ReminderHour hour of day for next-day call reminders.
	ReminderHour = 9

	// WorkerQueueSize refund dispatch worker queue size.
	WorkerQueueSize = 1000

	// DefaultPaginationSize performer browse page size.
	DefaultPaginationSize = 8

	// DefaultBookingsPaginationSize page size for booking lists.
	DefaultBookingsPaginationSize = 5

	// RateLimitMessages messages allowed per window.
	RateLimitMessages = 20

	// RateLimitWindow rate limit window, seconds.
	RateLimitWindow = 60

	// MaxBookingDaysAhead upper bound for scheduling in the future.
	MaxBookingDaysAhead = 60
)

// CallDurations is the fixed set of bookable call lengths, minutes.
var CallDurations = []int{30, 60, 90}
