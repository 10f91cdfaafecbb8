package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aliceryden/portalen/internal/metrics"
	"github.com/aliceryden/portalen/internal/models"
	"github.com/aliceryden/portalen/internal/service"
)

func (s *HTTPServer) handleAreas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("areas")

	writeJSON(w, http.StatusOK, map[string]any{
		"areas":     s.graph.Areas(),
		"adjacency": s.graph.Adjacency(),
	})
}

// handleAvailabilityDay serves GET /api/v1/availability/{farrierID}?date=.
func (s *HTTPServer) handleAvailabilityDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("availability_day")

	farrierID, ok := pathID(w, r.URL.Path, "/api/v1/availability/")
	if !ok {
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	snapshot, err := s.availability.ResolveDay(r.Context(), farrierID, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleDailyLocations serves GET /api/v1/availability?date=, the overview
// of where every farrier is booked on one day.
func (s *HTTPServer) handleDailyLocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("daily_locations")

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	locations, err := s.availability.DailyLocations(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "farriers": locations})
}

func (s *HTTPServer) handleFarriersAvailable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("farriers_available")

	area := strings.TrimSpace(r.URL.Query().Get("area"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	farriers, err := s.availability.FindAvailableFarriers(r.Context(), area, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"area": area, "date": date, "farriers": farriers})
}

func (s *HTTPServer) handleFarrierSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("farrier_search")

	q := r.URL.Query()
	filters := service.SearchFilters{
		City:        strings.TrimSpace(q.Get("city")),
		ServiceType: strings.TrimSpace(q.Get("service_type")),
	}

	var err error
	if filters.Latitude, err = floatParam(q.Get("lat"), "lat"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filters.Longitude, err = floatParam(q.Get("lng"), "lng"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if (filters.Latitude == nil) != (filters.Longitude == nil) {
		writeError(w, http.StatusBadRequest, "lat and lng must be provided together")
		return
	}
	if filters.RadiusKm, err = floatParam(q.Get("radius_km"), "radius_km"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filters.MaxPrice, err = floatParam(q.Get("max_price"), "max_price"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if raw := strings.TrimSpace(q.Get("min_rating")); raw != "" {
		rating, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "min_rating must be a number")
			return
		}
		filters.MinRating = rating
	}

	results, err := s.search.Search(r.Context(), filters)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"farriers": results})
}

// handleFarrierSchedule serves GET /api/v1/farriers/{id}/schedule and
// GET /api/v1/farriers/{id}/schedule/export.
func (s *HTTPServer) handleFarrierSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/farriers/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	farrierID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || farrierID <= 0 {
		writeError(w, http.StatusBadRequest, "farrier id must be a positive integer")
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "schedule":
		s.serveWeeklySchedule(w, r, farrierID)
	case len(parts) == 3 && parts[1] == "schedule" && parts[2] == "export":
		s.serveScheduleExport(w, r, farrierID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) serveWeeklySchedule(w http.ResponseWriter, r *http.Request, farrierID int64) {
	metrics.IncHTTP("weekly_schedule")

	startDate := strings.TrimSpace(r.URL.Query().Get("start_date"))
	if startDate == "" {
		startDate = time.Now().UTC().Format(models.DateLayout)
	}

	days := 7
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = parsed
	}

	schedule, err := s.availability.WeeklySchedule(r.Context(), farrierID, startDate, days)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"farrier_id": farrierID, "days": schedule})
}

func (s *HTTPServer) serveScheduleExport(w http.ResponseWriter, r *http.Request, farrierID int64) {
	metrics.IncHTTP("schedule_export")

	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are not configured")
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	dayStart, err := time.ParseInLocation(models.DateLayout, date, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	farrier, err := s.db.GetFarrier(r.Context(), farrierID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	bookings, err := s.db.BookingsForFarrierDay(r.Context(), farrierID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	sheet, err := s.exporter.BuildRouteSheet(farrier, date, bookings)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	defer sheet.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=route_%d_%s.xlsx", farrierID, date))
	if err := sheet.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("stream route sheet error")
	}
}

// bookingRequest is the client-settable subset of a booking. Status and
// prices are always assigned server-side.
type bookingRequest struct {
	OwnerID           int64     `json:"owner_id"`
	FarrierID         int64     `json:"farrier_id"`
	HorseID           int64     `json:"horse_id"`
	ServiceType       string    `json:"service_type"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	DurationMinutes   int       `json:"duration_minutes"`
	LocationAddress   string    `json:"location_address"`
	LocationCity      string    `json:"location_city"`
	LocationLatitude  float64   `json:"location_latitude"`
	LocationLongitude float64   `json:"location_longitude"`
	NotesFromOwner    string    `json:"notes_from_owner"`
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.serveCreateBooking(w, r)
	case http.MethodGet:
		s.serveListBookings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) serveCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_create")

	var req bookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking := &models.Booking{
		OwnerID:           req.OwnerID,
		FarrierID:         req.FarrierID,
		HorseID:           req.HorseID,
		ServiceType:       req.ServiceType,
		ScheduledAt:       req.ScheduledAt,
		DurationMinutes:   req.DurationMinutes,
		LocationAddress:   req.LocationAddress,
		LocationCity:      req.LocationCity,
		LocationLatitude:  req.LocationLatitude,
		LocationLongitude: req.LocationLongitude,
		NotesFromOwner:    req.NotesFromOwner,
	}

	if err := s.bookings.CreateBooking(r.Context(), booking); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) serveListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_list")

	farrierID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("farrier_id")), 10, 64)
	if err != nil || farrierID <= 0 {
		writeError(w, http.StatusBadRequest, "farrier_id must be a positive integer")
		return
	}
	status := models.BookingStatus(strings.TrimSpace(r.URL.Query().Get("status")))

	bookings, err := s.bookings.ListBookings(r.Context(), farrierID, status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleBookingValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("booking_validate")

	var req struct {
		FarrierID   int64  `json:"farrier_id"`
		ServiceType string `json:"service_type"`
		City        string `json:"city"`
		Address     string `json:"address"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	quote, err := s.bookings.ValidateAndPrice(r.Context(), req.FarrierID, req.ServiceType, req.City, req.Address)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) handleBookingConflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("booking_conflicts")

	q := r.URL.Query()
	farrierID, err := strconv.ParseInt(strings.TrimSpace(q.Get("farrier_id")), 10, 64)
	if err != nil || farrierID <= 0 {
		writeError(w, http.StatusBadRequest, "farrier_id must be a positive integer")
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(q.Get("start")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
		return
	}
	duration := 0
	if raw := strings.TrimSpace(q.Get("duration_minutes")); raw != "" {
		if duration, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, "duration_minutes must be an integer")
			return
		}
	}

	conflicting, err := s.bookings.CheckConflict(r.Context(), farrierID, start, duration)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := map[string]any{"conflict": conflicting != nil}
	if conflicting != nil {
		resp["booking"] = conflicting
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBookingByID dispatches /api/v1/bookings/{id}, {id}/status and
// {id}/cancel.
func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	bookingID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || bookingID <= 0 {
		writeError(w, http.StatusBadRequest, "booking id must be a positive integer")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.serveGetBooking(w, r, bookingID)
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPut:
		s.serveTransitionStatus(w, r, bookingID)
	case len(parts) == 2 && parts[1] == "cancel" && r.Method == http.MethodPut:
		s.serveCancelBooking(w, r, bookingID)
	case len(parts) == 1 || (len(parts) == 2 && (parts[1] == "status" || parts[1] == "cancel")):
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) serveGetBooking(w http.ResponseWriter, r *http.Request, bookingID int64) {
	metrics.IncHTTP("booking_get")

	booking, err := s.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) serveTransitionStatus(w http.ResponseWriter, r *http.Request, bookingID int64) {
	metrics.IncHTTP("booking_status")

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	next, ok := models.ParseStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	booking, err := s.bookings.TransitionStatus(r.Context(), bookingID, next, req.Notes)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) serveCancelBooking(w http.ResponseWriter, r *http.Request, bookingID int64) {
	metrics.IncHTTP("booking_cancel")

	var req struct {
		CancelledBy string `json:"cancelled_by"`
		Reason      string `json:"reason"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.bookings.CancelBooking(r.Context(), bookingID, req.CancelledBy, req.Reason)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// pathID extracts the single numeric path segment after prefix.
func pathID(w http.ResponseWriter, path, prefix string) (int64, bool) {
	raw := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func floatParam(raw, name string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}
