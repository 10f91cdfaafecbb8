package models

import "time"

// BookingStatus is a closed enumeration of booking lifecycle states.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// statusTransitions is the full lifecycle table. Completed and cancelled
// are terminal; cancellation is allowed from any non-terminal state.
var statusTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// ParseStatus validates a raw status string against the enumeration.
func ParseStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return BookingStatus(s), true
	}
	return "", false
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist from s.
func (s BookingStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// Cancellation attribution values.
const (
	CancelledByOwner   = "owner"
	CancelledByFarrier = "farrier"
)

// Booking is the central transactional entity: one visit of a farrier to a
// horse at a scheduled time. ScheduledAt is always stored in UTC; total
// price is fixed at creation time and never edited afterwards.
type Booking struct {
	ID              int64   `json:"id"`
	OwnerID         int64   `json:"owner_id"`
	FarrierID       int64   `json:"farrier_id"`
	HorseID         int64   `json:"horse_id"`
	ServiceType     string  `json:"service_type"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int     `json:"duration_minutes"`

	LocationAddress   string  `json:"location_address,omitempty"`
	LocationCity      string  `json:"location_city,omitempty"`
	LocationLatitude  float64 `json:"location_latitude,omitempty"`
	LocationLongitude float64 `json:"location_longitude,omitempty"`

	ServicePrice float64 `json:"service_price"`
	TravelFee    float64 `json:"travel_fee"`
	TotalPrice   float64 `json:"total_price"`

	Status BookingStatus `json:"status"`

	NotesFromOwner   string `json:"notes_from_owner,omitempty"`
	NotesFromFarrier string `json:"notes_from_farrier,omitempty"`

	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Duration returns the booking duration, applying the default when unset.
func (b *Booking) Duration() time.Duration {
	minutes := b.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultDurationMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// Start returns the UTC start instant of the booking window.
func (b *Booking) Start() time.Time {
	return b.ScheduledAt.UTC()
}

// End returns the exclusive UTC end instant of the booking window.
func (b *Booking) End() time.Time {
	return b.Start().Add(b.Duration())
}

// Overlaps reports whether the half-open windows of two bookings intersect.
func (b *Booking) Overlaps(other *Booking) bool {
	return b.Start().Before(other.End()) && other.Start().Before(b.End())
}

// Locks reports whether this booking occupies time and location for
// availability purposes. Cancelled and completed bookings never lock.
func (b *Booking) Locks() bool {
	switch b.Status {
	case StatusPending, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}
