package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	handler := func(event *Event) error {
		received = event
		callCount++
		return nil
	}

	bus.Subscribe(EventBookingCreated, handler)

	payload := BookingEventPayload{
		BookingID:   7,
		FarrierID:   2,
		ServiceType: "Trimming",
		Status:      "pending",
		ScheduledAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		City:        "Stockholm",
	}
	if err := bus.Publish(EventBookingCreated, payload); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != EventBookingCreated {
		t.Errorf("expected type %s, got %s", EventBookingCreated, received.Type)
	}
	if received.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}

	var decoded BookingEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if decoded.BookingID != 7 || decoded.City != "Stockholm" {
		t.Errorf("payload roundtrip mismatch: %+v", decoded)
	}
	if !decoded.ScheduledAt.Equal(payload.ScheduledAt) {
		t.Errorf("expected scheduled_at %v, got %v", payload.ScheduledAt, decoded.ScheduledAt)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	if err := bus.Publish("event", nil); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusTypeIsolation(t *testing.T) {
	bus := NewEventBus()
	var created, cancelled int

	bus.Subscribe(EventBookingCreated, func(_ *Event) error { created++; return nil })
	bus.Subscribe(EventBookingCancelled, func(_ *Event) error { cancelled++; return nil })

	if err := bus.Publish(EventBookingCancelled, nil); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if created != 0 {
		t.Errorf("created handler should not fire, got %d calls", created)
	}
	if cancelled != 1 {
		t.Errorf("expected 1 cancelled call, got %d", cancelled)
	}
}

func TestEventBusHandlerErrorDoesNotStopFanout(t *testing.T) {
	bus := NewEventBus()
	var called bool

	bus.Subscribe("event", func(_ *Event) error { return errors.New("boom") })
	bus.Subscribe("event", func(_ *Event) error { called = true; return nil })

	if err := bus.Publish("event", nil); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if !called {
		t.Errorf("second handler should run after first handler error")
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	// Should not panic
	if err := bus.Publish("unknown", nil); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
}

func TestEventBusNilReceiver(t *testing.T) {
	var bus *EventBus
	if err := bus.Publish(EventBookingCreated, BookingEventPayload{BookingID: 1}); err != nil {
		t.Errorf("nil bus Publish should be a no-op, got %v", err)
	}
}
