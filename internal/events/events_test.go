package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingConfirmed, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	payload := BookingEventPayload{
		BookingID: 7,
		CallerID:  100,
		Status:    "confirmed",
		Amount:    decimal.NewFromInt(100),
		Currency:  "USD",
	}
	if err := bus.PublishJSON(EventBookingConfirmed, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if received.Type != EventBookingConfirmed {
		t.Errorf("expected type %s, got %s", EventBookingConfirmed, received.Type)
	}

	var decoded BookingEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.BookingID != 7 || decoded.CallerID != 100 {
		t.Errorf("payload mismatch: %+v", decoded)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe(EventRefundRequested, func(_ *Event) error { count1++; return nil })
	bus.Subscribe(EventRefundRequested, func(_ *Event) error { count1++; return errors.New("handler error is swallowed") })
	bus.Subscribe(EventStreamEnded, func(_ *Event) error { count2++; return nil })

	if err := bus.PublishJSON(EventRefundRequested, RefundEventPayload{BookingID: 1}); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if count1 != 2 {
		t.Errorf("expected both subscribers called, got %d", count1)
	}
	if count2 != 0 {
		t.Errorf("unexpected call for unrelated event type")
	}
}

func TestEventBusNilReceiver(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON(EventBookingHeld, nil); err != nil {
		t.Fatalf("nil bus should be a no-op, got %v", err)
	}
}
