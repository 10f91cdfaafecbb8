package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated    = "booking_created"
	EventBookingConfirmed  = "booking_confirmed"
	EventBookingStarted    = "booking_started"
	EventBookingCompleted  = "booking_completed"
	EventBookingCancelled  = "booking_cancelled"
)

// BookingEventPayload is the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID   int64     `json:"booking_id"`
	OwnerID     int64     `json:"owner_id"`
	FarrierID   int64     `json:"farrier_id"`
	HorseID     int64     `json:"horse_id"`
	ServiceType string    `json:"service_type"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
	City        string    `json:"city,omitempty"`
	ActorRole   string    `json:"actor_role,omitempty"`
}

// Event is a lightweight in-process domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for booking lifecycle events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish serializes the payload and notifies subscribers synchronously;
// the caller decides the concurrency model. Handler errors are the
// handler's problem, not the publisher's.
func (b *EventBus) Publish(eventType string, payload any) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := &Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}

	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[eventType]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(event)
	}
	return nil
}
