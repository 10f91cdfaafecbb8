package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aliceryden/portalen/internal/domain"
	"github.com/aliceryden/portalen/internal/geo"
	"github.com/aliceryden/portalen/internal/metrics"
	"github.com/aliceryden/portalen/internal/models"

	"github.com/rs/zerolog"
)

type AvailabilityService struct {
	repo   domain.Repository
	graph  *geo.Graph
	cache  domain.AvailabilityCache
	logger *zerolog.Logger
}

func NewAvailabilityService(repo domain.Repository, graph *geo.Graph, cache domain.AvailabilityCache, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{
		repo:   repo,
		graph:  graph,
		cache:  cache,
		logger: logger,
	}
}

// weekdayIndex maps a calendar day to the schedule convention, Monday = 0.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func parseDate(date string) (time.Time, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseHour extracts the hour from an "HH:MM" time of day.
func parseHour(timeOfDay string, fallback int) int {
	parts := strings.SplitN(timeOfDay, ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return fallback
	}
	return h
}

// stringSet is an insertion-ordered set of strings so snapshot output
// order stays deterministic.
type stringSet struct {
	seen  map[string]struct{}
	order []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]struct{})}
}

func (s *stringSet) Add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *stringSet) Values() []string {
	return s.order
}

// ResolveDay computes where a farrier is committed on one calendar day and
// which hour-aligned slots remain open. Snapshots are cached per farrier
// and date and invalidated on every booking write.
func (s *AvailabilityService) ResolveDay(ctx context.Context, farrierID int64, date string) (*models.DayAvailability, error) {
	dayStart, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetDay(ctx, farrierID, date)
		if err != nil {
			s.logger.Warn().Err(err).Int64("farrier_id", farrierID).Msg("availability cache read error")
		} else if cached != nil {
			return cached, nil
		}
	}

	started := time.Now()
	farrier, err := s.repo.GetFarrier(ctx, farrierID)
	if err != nil {
		return nil, err
	}

	dayEnd := dayStart.AddDate(0, 0, 1)
	bookings, err := s.repo.BookingsForFarrierDay(ctx, farrierID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	snapshot := s.buildSnapshot(ctx, farrier, dayStart, date, bookings)
	metrics.ObserveAvailabilityResolve(time.Since(started).Seconds())

	if s.cache != nil {
		if err := s.cache.SetDay(ctx, snapshot); err != nil {
			s.logger.Warn().Err(err).Int64("farrier_id", farrierID).Msg("availability cache write error")
		}
	}
	return snapshot, nil
}

func (s *AvailabilityService) buildSnapshot(ctx context.Context, farrier *models.Farrier, dayStart time.Time, date string, bookings []*models.Booking) *models.DayAvailability {
	snapshot := &models.DayAvailability{
		FarrierID:    farrier.ID,
		FarrierName:  farrier.UserName,
		BusinessName: farrier.BusinessName,
		Phone:        farrier.Phone,
		Date:         date,
	}

	booked := newStringSet()
	available := newStringSet()
	for _, b := range bookings {
		booked.Add(s.graph.Canonical(b.LocationCity))
		snapshot.Bookings = append(snapshot.Bookings, models.BookingSummary{
			ID:              b.ID,
			Time:            b.Start().Format("15:04"),
			DurationMinutes: int(b.Duration().Minutes()),
			Service:         b.ServiceType,
			Location:        b.LocationCity,
			Latitude:        b.LocationLatitude,
			Longitude:       b.LocationLongitude,
		})
	}
	for _, area := range booked.Values() {
		for _, n := range s.graph.Neighbors(area) {
			available.Add(n)
		}
	}
	snapshot.BookedAreas = booked.Values()
	snapshot.AvailableAreas = available.Values()

	// Primary location is the first booked area of the day, a deliberate
	// simplification over ranking areas by time spent.
	if areas := booked.Values(); len(areas) > 0 {
		snapshot.PrimaryLocation = areas[0]
		if coords, ok := s.graph.Coordinates(areas[0]); ok {
			snapshot.PrimaryCoordinates = &coords
		}
	}

	startHour, endHour := models.DefaultDayStartHour, models.DefaultDayEndHour
	schedule, err := s.repo.ScheduleForDay(ctx, farrier.ID, weekdayIndex(dayStart))
	if err != nil {
		s.logger.Warn().Err(err).Int64("farrier_id", farrier.ID).Msg("schedule lookup error")
	} else if schedule != nil {
		startHour = parseHour(schedule.StartTime, startHour)
		endHour = parseHour(schedule.EndTime, endHour)
	}

	snapshot.AvailableTimes = freeSlots(startHour, endHour, bookings)
	return snapshot
}

// freeSlots returns the hour-aligned slot starts inside [startHour,
// endHour) not covered by any booking window. Coverage is hour-granular:
// a slot is taken when its start hour falls inside a booking interval.
func freeSlots(startHour, endHour int, bookings []*models.Booking) []string {
	slots := make([]string, 0, endHour-startHour)
	for h := startHour; h < endHour; h++ {
		covered := false
		for _, b := range bookings {
			bh := b.Start().Hour()
			if h >= bh && (h-bh)*60 < int(b.Duration().Minutes()) {
				covered = true
				break
			}
		}
		if !covered {
			slots = append(slots, fmt.Sprintf("%02d:00", h))
		}
	}
	return slots
}

// FindAvailableFarriers lists farriers who already have a booking that day
// in the requested area or one of its neighbors, ranked by rating. Being
// nearby anyway makes an extra visit cheap for both sides.
func (s *AvailabilityService) FindAvailableFarriers(ctx context.Context, area, date string) ([]models.FarrierAvailabilitySummary, error) {
	if strings.TrimSpace(area) == "" {
		return nil, &ValidationError{Field: "area", Message: "is required"}
	}
	dayStart, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	wanted := s.graph.Canonical(area)
	neighbors := s.graph.Neighbors(wanted)
	bookings, err := s.repo.ActiveBookingsForDayInCities(ctx, dayStart, dayStart.AddDate(0, 0, 1), neighbors)
	if err != nil {
		return nil, err
	}

	bookedIn := make(map[int64]string)
	var order []int64
	for _, b := range bookings {
		if _, ok := bookedIn[b.FarrierID]; ok {
			continue
		}
		bookedIn[b.FarrierID] = s.graph.Canonical(b.LocationCity)
		order = append(order, b.FarrierID)
	}
	if len(order) == 0 {
		return []models.FarrierAvailabilitySummary{}, nil
	}

	farriers, err := s.repo.GetFarriersByID(ctx, order)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.FarrierAvailabilitySummary, 0, len(order))
	for _, id := range order {
		farrier, ok := farriers[id]
		if !ok || !farrier.IsAvailable {
			continue
		}
		city := bookedIn[id]
		summaries = append(summaries, models.FarrierAvailabilitySummary{
			FarrierID:        farrier.ID,
			Name:             farrier.UserName,
			BusinessName:     farrier.BusinessName,
			Phone:            farrier.Phone,
			AverageRating:    farrier.AverageRating,
			TotalReviews:     farrier.TotalReviews,
			BookedIn:         city,
			AvailableForArea: wanted,
			Reason:           fmt.Sprintf("already booked in %s on this date", city),
			Services:         farrier.Services,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].AverageRating > summaries[j].AverageRating
	})
	return summaries, nil
}

// DailyLocations summarizes which areas every farrier is booked in on a
// given day.
func (s *AvailabilityService) DailyLocations(ctx context.Context, date string) ([]models.FarrierDayLocation, error) {
	dayStart, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ActiveBookingsForDay(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	areas := make(map[int64]*stringSet)
	counts := make(map[int64]int)
	var order []int64
	for _, b := range bookings {
		set, ok := areas[b.FarrierID]
		if !ok {
			set = newStringSet()
			areas[b.FarrierID] = set
			order = append(order, b.FarrierID)
		}
		set.Add(s.graph.Canonical(b.LocationCity))
		counts[b.FarrierID]++
	}
	if len(order) == 0 {
		return []models.FarrierDayLocation{}, nil
	}

	farriers, err := s.repo.GetFarriersByID(ctx, order)
	if err != nil {
		return nil, err
	}

	out := make([]models.FarrierDayLocation, 0, len(order))
	for _, id := range order {
		loc := models.FarrierDayLocation{
			FarrierID: id,
			Areas:     areas[id].Values(),
			Bookings:  counts[id],
		}
		if farrier, ok := farriers[id]; ok {
			loc.Name = farrier.UserName
			loc.BusinessName = farrier.BusinessName
		}
		out = append(out, loc)
	}
	return out, nil
}

// WeeklySchedule builds a multi-day overview for one farrier starting at
// the given date.
func (s *AvailabilityService) WeeklySchedule(ctx context.Context, farrierID int64, startDate string, days int) ([]models.ScheduleDay, error) {
	if days <= 0 || days > 31 {
		days = 7
	}
	start, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}

	overview := make([]models.ScheduleDay, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		date := day.Format(models.DateLayout)
		snapshot, err := s.ResolveDay(ctx, farrierID, date)
		if err != nil {
			return nil, err
		}
		overview = append(overview, models.ScheduleDay{
			Date:            date,
			Weekday:         models.Weekdays[weekdayIndex(day)],
			Areas:           snapshot.BookedAreas,
			AvailableNearby: snapshot.AvailableAreas,
			BookingsCount:   len(snapshot.Bookings),
		})
	}
	return overview, nil
}
