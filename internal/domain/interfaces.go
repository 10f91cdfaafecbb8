// Package domain declares the contracts between the scheduling engine and
// its collaborators: durable storage, the snapshot cache, the event bus
// and the outbound sync/notification channels.
package domain

import (
	"context"
	"time"

	"github.com/aliceryden/portalen/internal/models"
)

// Repository is the storage surface the engine depends on.
type Repository interface {
	CreateBookingOverlapChecked(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingState(ctx context.Context, booking *models.Booking) error
	ListBookings(ctx context.Context, farrierID int64, status models.BookingStatus) ([]*models.Booking, error)
	FindConflictingBooking(ctx context.Context, farrierID int64, start time.Time, durationMinutes int) (*models.Booking, error)
	BookingsForFarrierDay(ctx context.Context, farrierID int64, dayStart, dayEnd time.Time) ([]*models.Booking, error)
	ActiveBookingsForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]*models.Booking, error)
	ActiveBookingsForDayInCities(ctx context.Context, dayStart, dayEnd time.Time, cities []string) ([]*models.Booking, error)

	GetFarrier(ctx context.Context, id int64) (*models.Farrier, error)
	GetFarriersByID(ctx context.Context, ids []int64) (map[int64]*models.Farrier, error)
	SearchFarriers(ctx context.Context, city string, minRating float64) ([]*models.Farrier, error)
	ServiceAreas(ctx context.Context, farrierID int64) ([]models.ServiceArea, error)
	ScheduleForDay(ctx context.Context, farrierID int64, dayOfWeek int) (*models.ScheduleEntry, error)

	UpdateHorseLastVisit(ctx context.Context, horseID int64, visitedAt time.Time) error

	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
}

// AvailabilityCache holds computed daily snapshots so repeated read-side
// queries skip recomputation. Implementations must treat a miss as
// (nil, nil).
type AvailabilityCache interface {
	GetDay(ctx context.Context, farrierID int64, date string) (*models.DayAvailability, error)
	SetDay(ctx context.Context, snapshot *models.DayAvailability) error
	InvalidateDay(ctx context.Context, farrierID int64, date string) error
}

// EventPublisher emits booking lifecycle events to in-process subscribers.
type EventPublisher interface {
	Publish(eventType string, payload any) error
}

// SyncWorker accepts calendar synchronization work.
type SyncWorker interface {
	EnqueueUpsert(ctx context.Context, booking *models.Booking) error
	EnqueueStatusUpdate(ctx context.Context, bookingID int64, status models.BookingStatus) error
}

// CalendarClient applies booking changes to the external calendar.
type CalendarClient interface {
	UpsertBooking(booking *models.Booking) error
	DeleteBooking(bookingID int64) error
	UpdateBookingStatus(bookingID int64, status models.BookingStatus) error
}

// Notifier delivers booking notifications to farriers.
type Notifier interface {
	BookingCreated(booking *models.Booking, farrier *models.Farrier)
	BookingCancelled(booking *models.Booking, farrier *models.Farrier)
}
