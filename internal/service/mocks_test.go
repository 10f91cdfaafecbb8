package service

import (
	"context"
	"time"

	"github.com/aliceryden/portalen/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateBookingOverlapChecked(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) UpdateBookingState(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) ListBookings(ctx context.Context, farrierID int64, status models.BookingStatus) ([]*models.Booking, error) {
	args := m.Called(ctx, farrierID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) FindConflictingBooking(ctx context.Context, farrierID int64, start time.Time, durationMinutes int) (*models.Booking, error) {
	args := m.Called(ctx, farrierID, start, durationMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) BookingsForFarrierDay(ctx context.Context, farrierID int64, dayStart, dayEnd time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, farrierID, dayStart, dayEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ActiveBookingsForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, dayStart, dayEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ActiveBookingsForDayInCities(ctx context.Context, dayStart, dayEnd time.Time, cities []string) ([]*models.Booking, error) {
	args := m.Called(ctx, dayStart, dayEnd, cities)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetFarrier(ctx context.Context, id int64) (*models.Farrier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Farrier), args.Error(1)
}
func (m *mockRepo) GetFarriersByID(ctx context.Context, ids []int64) (map[int64]*models.Farrier, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*models.Farrier), args.Error(1)
}
func (m *mockRepo) SearchFarriers(ctx context.Context, city string, minRating float64) ([]*models.Farrier, error) {
	args := m.Called(ctx, city, minRating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Farrier), args.Error(1)
}
func (m *mockRepo) ServiceAreas(ctx context.Context, farrierID int64) ([]models.ServiceArea, error) {
	args := m.Called(ctx, farrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceArea), args.Error(1)
}
func (m *mockRepo) ScheduleForDay(ctx context.Context, farrierID int64, dayOfWeek int) (*models.ScheduleEntry, error) {
	args := m.Called(ctx, farrierID, dayOfWeek)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduleEntry), args.Error(1)
}
func (m *mockRepo) UpdateHorseLastVisit(ctx context.Context, horseID int64, visitedAt time.Time) error {
	return m.Called(ctx, horseID, visitedAt).Error(0)
}
func (m *mockRepo) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	return m.Called(ctx, task).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) Publish(eventType string, payload any) error {
	return m.Called(eventType, payload).Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueUpsert(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockSyncWorker) EnqueueStatusUpdate(ctx context.Context, bookingID int64, status models.BookingStatus) error {
	return m.Called(ctx, bookingID, status).Error(0)
}

type mockDayCache struct {
	mock.Mock
}

func (m *mockDayCache) GetDay(ctx context.Context, farrierID int64, date string) (*models.DayAvailability, error) {
	args := m.Called(ctx, farrierID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DayAvailability), args.Error(1)
}
func (m *mockDayCache) SetDay(ctx context.Context, snapshot *models.DayAvailability) error {
	return m.Called(ctx, snapshot).Error(0)
}
func (m *mockDayCache) InvalidateDay(ctx context.Context, farrierID int64, date string) error {
	return m.Called(ctx, farrierID, date).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BookingCreated(b *models.Booking, f *models.Farrier) {
	m.Called(b, f)
}
func (m *mockNotifier) BookingCancelled(b *models.Booking, f *models.Farrier) {
	m.Called(b, f)
}
