package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aliceryden/portalen/internal/database"
	"github.com/aliceryden/portalen/internal/domain"
	"github.com/aliceryden/portalen/internal/events"
	"github.com/aliceryden/portalen/internal/metrics"
	"github.com/aliceryden/portalen/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo             domain.Repository
	eventBus         domain.EventPublisher
	syncWorker       domain.SyncWorker
	cache            domain.AvailabilityCache
	notifier         domain.Notifier
	defaultTravelFee float64
	maxAdvanceDays   int
	logger           *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, cache domain.AvailabilityCache, notifier domain.Notifier, defaultTravelFee float64, maxAdvanceDays int, logger *zerolog.Logger) *BookingService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = 365
	}
	return &BookingService{
		repo:             repo,
		eventBus:         eventBus,
		syncWorker:       syncWorker,
		cache:            cache,
		notifier:         notifier,
		defaultTravelFee: defaultTravelFee,
		maxAdvanceDays:   maxAdvanceDays,
		logger:           logger,
	}
}

func (s *BookingService) validateRequest(booking *models.Booking) error {
	if booking.FarrierID <= 0 {
		return &ValidationError{Field: "farrier_id", Message: "must be a positive id"}
	}
	if booking.OwnerID <= 0 {
		return &ValidationError{Field: "owner_id", Message: "must be a positive id"}
	}
	if booking.HorseID <= 0 {
		return &ValidationError{Field: "horse_id", Message: "must be a positive id"}
	}
	if booking.ServiceType == "" {
		return &ValidationError{Field: "service_type", Message: "is required"}
	}
	if booking.ScheduledAt.IsZero() {
		return &ValidationError{Field: "scheduled_at", Message: "is required"}
	}
	if booking.DurationMinutes < 0 {
		return &ValidationError{Field: "duration_minutes", Message: "cannot be negative"}
	}

	scheduled := booking.ScheduledAt.UTC()
	if scheduled.Before(time.Now().UTC()) {
		return &ValidationError{Field: "scheduled_at", Message: "cannot be in the past"}
	}
	maxDate := time.Now().UTC().AddDate(0, 0, s.maxAdvanceDays)
	if scheduled.After(maxDate) {
		return &ValidationError{Field: "scheduled_at", Message: "too far in the future"}
	}
	return nil
}

// priceBooking resolves the service price from the farrier's catalog and
// the travel fee from the area match. The booking duration falls back to
// the catalog duration when the request leaves it unset.
func (s *BookingService) priceBooking(booking *models.Booking, farrier *models.Farrier) (*models.PriceQuote, error) {
	match, err := MatchServiceArea(farrier.Areas, booking.LocationCity, booking.LocationAddress, s.defaultTravelFee)
	if err != nil {
		return nil, err
	}

	var servicePrice float64
	for _, svc := range farrier.Services {
		if !svc.IsActive {
			continue
		}
		if strings.EqualFold(svc.Name, booking.ServiceType) {
			servicePrice = svc.Price
			if booking.DurationMinutes == 0 && svc.DurationMinutes > 0 {
				booking.DurationMinutes = svc.DurationMinutes
			}
			break
		}
	}

	booking.ServicePrice = servicePrice
	booking.TravelFee = match.TravelFee
	booking.TotalPrice = servicePrice + match.TravelFee
	return &models.PriceQuote{TravelFee: match.TravelFee, TotalPrice: booking.TotalPrice}, nil
}

// CreateBooking runs the full admission pipeline: request validation, area
// match with pricing, then the overlap-checked transactional insert. The
// stored total price is fixed here and never edited by later transitions.
func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := s.validateRequest(booking); err != nil {
		metrics.IncBookingRejected("validation")
		return err
	}

	farrier, err := s.repo.GetFarrier(ctx, booking.FarrierID)
	if err != nil {
		return err
	}

	booking.ScheduledAt = booking.ScheduledAt.UTC()
	if _, err := s.priceBooking(booking, farrier); err != nil {
		metrics.IncBookingRejected("outside_area")
		return err
	}

	booking.Status = models.StatusPending
	if err := s.repo.CreateBookingOverlapChecked(ctx, booking); err != nil {
		var conflict *database.ConflictError
		if errors.As(err, &conflict) {
			metrics.IncBookingRejected("conflict")
		}
		return err
	}
	metrics.IncBookingCreated()

	s.publishEvent(events.EventBookingCreated, booking, "owner")
	s.enqueueUpsert(ctx, booking)
	s.invalidateDay(ctx, booking)

	if s.notifier != nil {
		s.notifier.BookingCreated(booking, farrier)
	}
	return nil
}

// ValidateAndPrice runs the area match and pricing without persisting
// anything. Used by the read-side validation endpoint.
func (s *BookingService) ValidateAndPrice(ctx context.Context, farrierID int64, serviceType, city, address string) (*models.PriceQuote, error) {
	if farrierID <= 0 {
		return nil, &ValidationError{Field: "farrier_id", Message: "must be a positive id"}
	}
	farrier, err := s.repo.GetFarrier(ctx, farrierID)
	if err != nil {
		return nil, err
	}

	probe := &models.Booking{
		FarrierID:       farrierID,
		ServiceType:     serviceType,
		LocationCity:    city,
		LocationAddress: address,
	}
	return s.priceBooking(probe, farrier)
}

// CheckConflict reports the first booking whose window intersects the
// given one, or nil when the slot is free.
func (s *BookingService) CheckConflict(ctx context.Context, farrierID int64, start time.Time, durationMinutes int) (*models.Booking, error) {
	if farrierID <= 0 {
		return nil, &ValidationError{Field: "farrier_id", Message: "must be a positive id"}
	}
	if start.IsZero() {
		return nil, &ValidationError{Field: "start", Message: "is required"}
	}
	return s.repo.FindConflictingBooking(ctx, farrierID, start.UTC(), durationMinutes)
}

// TransitionStatus applies one lifecycle step. Cancellation has its own
// entry point because it carries attribution; requesting it here is
// rejected the same way as any other illegal transition.
func (s *BookingService) TransitionStatus(ctx context.Context, bookingID int64, next models.BookingStatus, farrierNotes string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if next == models.StatusCancelled || !booking.Status.CanTransitionTo(next) {
		return nil, &InvalidTransitionError{From: booking.Status, To: next}
	}

	booking.Status = next
	if farrierNotes != "" {
		booking.NotesFromFarrier = farrierNotes
	}
	if next == models.StatusCompleted {
		now := time.Now().UTC()
		booking.CompletedAt = &now
	}

	if err := s.repo.UpdateBookingState(ctx, booking); err != nil {
		return nil, err
	}
	metrics.IncTransition(string(next))

	if next == models.StatusCompleted {
		if err := s.repo.UpdateHorseLastVisit(ctx, booking.HorseID, booking.ScheduledAt); err != nil {
			s.logger.Error().Err(err).Int64("horse_id", booking.HorseID).Msg("update horse last visit error")
		}
	}

	s.publishEvent(eventForStatus(next), booking, "farrier")
	s.enqueueStatusUpdate(ctx, booking)
	s.invalidateDay(ctx, booking)

	return booking, nil
}

// CancelBooking cancels from any non-terminal state and records who
// cancelled and why.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64, cancelledBy, reason string) (*models.Booking, error) {
	if cancelledBy != models.CancelledByOwner && cancelledBy != models.CancelledByFarrier {
		return nil, &ValidationError{Field: "cancelled_by", Message: "must be owner or farrier"}
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, &InvalidTransitionError{From: booking.Status, To: models.StatusCancelled}
	}

	now := time.Now().UTC()
	booking.Status = models.StatusCancelled
	booking.CancelledBy = cancelledBy
	booking.CancellationReason = reason
	booking.CancelledAt = &now

	if err := s.repo.UpdateBookingState(ctx, booking); err != nil {
		return nil, err
	}
	metrics.IncTransition(string(models.StatusCancelled))

	s.publishEvent(events.EventBookingCancelled, booking, cancelledBy)
	s.enqueueStatusUpdate(ctx, booking)
	s.invalidateDay(ctx, booking)

	if s.notifier != nil && cancelledBy == models.CancelledByOwner {
		if farrier, err := s.repo.GetFarrier(ctx, booking.FarrierID); err == nil {
			s.notifier.BookingCancelled(booking, farrier)
		}
	}
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, farrierID int64, status models.BookingStatus) ([]*models.Booking, error) {
	if status != "" {
		if _, ok := models.ParseStatus(string(status)); !ok {
			return nil, &ValidationError{Field: "status", Message: "unknown status"}
		}
	}
	return s.repo.ListBookings(ctx, farrierID, status)
}

func eventForStatus(status models.BookingStatus) string {
	switch status {
	case models.StatusConfirmed:
		return events.EventBookingConfirmed
	case models.StatusInProgress:
		return events.EventBookingStarted
	case models.StatusCompleted:
		return events.EventBookingCompleted
	case models.StatusCancelled:
		return events.EventBookingCancelled
	}
	return ""
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, actorRole string) {
	if s.eventBus == nil || eventType == "" {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		OwnerID:     booking.OwnerID,
		FarrierID:   booking.FarrierID,
		HorseID:     booking.HorseID,
		ServiceType: booking.ServiceType,
		Status:      string(booking.Status),
		ScheduledAt: booking.ScheduledAt,
		City:        booking.LocationCity,
		ActorRole:   actorRole,
	}

	if err := s.eventBus.Publish(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueUpsert(ctx context.Context, booking *models.Booking) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueUpsert(ctx, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("calendar enqueue error")
	}
}

func (s *BookingService) enqueueStatusUpdate(ctx context.Context, booking *models.Booking) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueStatusUpdate(ctx, booking.ID, booking.Status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("calendar enqueue error")
	}
}

func (s *BookingService) invalidateDay(ctx context.Context, booking *models.Booking) {
	if s.cache == nil {
		return
	}
	date := booking.ScheduledAt.UTC().Format(models.DateLayout)
	if err := s.cache.InvalidateDay(ctx, booking.FarrierID, date); err != nil {
		s.logger.Error().Err(err).Int64("farrier_id", booking.FarrierID).Str("date", date).Msg("cache invalidate error")
	}
}
