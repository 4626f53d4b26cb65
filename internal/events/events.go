package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventBookingHeld        = "booking_held"
	EventBookingConfirmed   = "booking_confirmed"
	EventBookingCancelled   = "booking_cancelled"
	EventBookingCompleted   = "booking_completed"
	EventBookingRescheduled = "booking_rescheduled"
	EventCallStarted        = "call_started"
	EventRefundRequested    = "refund_requested"
	EventStreamStarted      = "stream_started"
	EventStreamEnded        = "stream_ended"
	EventListingSubmitted   = "listing_submitted"
	EventListingReviewed    = "listing_reviewed"
)

// BookingEventPayload is the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID   int64           `json:"booking_id"`
	CallerID    int64           `json:"caller_id"`
	PerformerID int64           `json:"performer_id"`
	SlotID      int64           `json:"slot_id"`
	Status      string          `json:"status"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	ChangedBy   int64           `json:"changed_by,omitempty"`
}

// RefundEventPayload describes the refund owed after a cancellation.
type RefundEventPayload struct {
	BookingID  int64           `json:"booking_id"`
	Percentage int             `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Reason     string          `json:"reason,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
