package models

const (
	// DefaultDurationMinutes applies when a booking carries no duration.
	DefaultDurationMinutes = 60

	// Default working window when a farrier has no schedule entry for the day.
	DefaultDayStartHour = 8
	DefaultDayEndHour   = 17

	// SlotMinutes is the bookable slot granularity. Slots are hour aligned.
	SlotMinutes = 60

	// DateLayout is the calendar-date wire format.
	DateLayout = "2006-01-02"

	// AvailabilityCacheTTL holds daily snapshots in the cache, seconds.
	AvailabilityCacheTTL = 5 * 60

	// WorkerQueueSize bounds the in-memory sync task queue.
	WorkerQueueSize = 128
)

// Weekdays is indexed by day-of-week with Monday as 0.
var Weekdays = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}
