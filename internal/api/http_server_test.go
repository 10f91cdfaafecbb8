package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aliceryden/portalen/internal/config"
	"github.com/aliceryden/portalen/internal/database"
	"github.com/aliceryden/portalen/internal/export"
	"github.com/aliceryden/portalen/internal/geo"
	"github.com/aliceryden/portalen/internal/models"
	"github.com/aliceryden/portalen/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func testGraph() *geo.Graph {
	return geo.NewGraph(models.AreaConfig{
		Areas: []models.Area{
			{Name: "Stockholm", Latitude: 59.3293, Longitude: 18.0686},
			{Name: "Solna", Latitude: 59.3600, Longitude: 18.0009},
			{Name: "Täby", Latitude: 59.4439, Longitude: 18.0687},
		},
		Adjacency: map[string][]string{
			"Stockholm": {"Solna", "Täby"},
			"Solna":     {"Stockholm"},
			"Täby":      {"Stockholm"},
		},
	})
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), &logger)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServerWithConfig(t *testing.T, db *database.DB, cfg *config.APIConfig) *HTTPServer {
	t.Helper()
	logger := zerolog.New(io.Discard)
	graph := testGraph()
	bookings := service.NewBookingService(db, nil, nil, nil, nil, 200, 90, &logger)
	availability := service.NewAvailabilityService(db, graph, nil, &logger)
	search := service.NewSearchService(db, &logger)
	exporter := export.NewRouteSheetExporter(t.TempDir(), &logger)
	return NewHTTPServer(cfg, db, bookings, availability, search, exporter, graph, &logger)
}

func newTestServer(t *testing.T, db *database.DB) *httptest.Server {
	t.Helper()
	cfg := &config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth:    config.APIAuthConfig{Enabled: false},
	}
	server := newTestServerWithConfig(t, db, cfg)
	ts := httptest.NewServer(server.server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func createTestFarrier(t *testing.T, db *database.DB, name string, rating float64) *models.Farrier {
	t.Helper()
	ctx := context.Background()
	farrier := &models.Farrier{
		UserName:       name,
		Phone:          "+46700000000",
		TravelRadiusKm: 50,
		AverageRating:  rating,
		IsAvailable:    true,
	}
	if err := db.CreateFarrier(ctx, farrier); err != nil {
		t.Fatalf("create farrier: %v", err)
	}
	svc := &models.FarrierService{
		FarrierID:       farrier.ID,
		Name:            "Trimming",
		Price:           600,
		DurationMinutes: 45,
		IsActive:        true,
	}
	if err := db.AddFarrierService(ctx, svc); err != nil {
		t.Fatalf("add service: %v", err)
	}
	area := &models.ServiceArea{FarrierID: farrier.ID, City: "Stockholm", TravelFee: 150}
	if err := db.AddServiceArea(ctx, area); err != nil {
		t.Fatalf("add area: %v", err)
	}
	for day := 0; day < 7; day++ {
		entry := &models.ScheduleEntry{
			FarrierID:   farrier.ID,
			DayOfWeek:   day,
			StartTime:   "08:00",
			EndTime:     "16:00",
			IsAvailable: true,
		}
		if err := db.AddScheduleEntry(ctx, entry); err != nil {
			t.Fatalf("add schedule: %v", err)
		}
	}
	return farrier
}

// testDay returns a date comfortably in the future so bookings pass the
// scheduling window checks.
func testDay() (time.Time, string) {
	day := time.Now().UTC().AddDate(0, 0, 14)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return dayStart, dayStart.Format(models.DateLayout)
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func putJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func createBookingRequest(farrierID int64, start time.Time) map[string]any {
	return map[string]any{
		"owner_id":         1,
		"farrier_id":       farrierID,
		"horse_id":         3,
		"service_type":     "Trimming",
		"scheduled_at":     start.Format(time.RFC3339),
		"location_city":    "Stockholm",
		"location_address": "Karlavägen 10",
	}
}

func TestCreateBooking(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)
	dayStart, _ := testDay()

	resp := postJSON(t, ts.URL+"/api/v1/bookings", createBookingRequest(farrier.ID, dayStart.Add(10*time.Hour)))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var booking models.Booking
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if booking.ID == 0 {
		t.Fatalf("expected assigned booking id")
	}
	if booking.Status != models.StatusPending {
		t.Fatalf("expected pending, got %s", booking.Status)
	}
	if booking.TotalPrice != 750 {
		t.Fatalf("expected total 750, got %.2f", booking.TotalPrice)
	}
	if booking.DurationMinutes != 45 {
		t.Fatalf("expected catalog duration 45, got %d", booking.DurationMinutes)
	}
}

func TestCreateBookingErrors(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)
	dayStart, _ := testDay()

	t.Run("InvalidJSON", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/v1/bookings", "application/json", strings.NewReader("not json"))
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("MissingFarrier", func(t *testing.T) {
		req := createBookingRequest(farrier.ID, dayStart.Add(9*time.Hour))
		req["farrier_id"] = 0
		resp := postJSON(t, ts.URL+"/api/v1/bookings", req)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("UnknownFarrier", func(t *testing.T) {
		req := createBookingRequest(9999, dayStart.Add(9*time.Hour))
		resp := postJSON(t, ts.URL+"/api/v1/bookings", req)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("OutsideArea", func(t *testing.T) {
		req := createBookingRequest(farrier.ID, dayStart.Add(9*time.Hour))
		req["location_city"] = "Uppsala"
		resp := postJSON(t, ts.URL+"/api/v1/bookings", req)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("Conflict", func(t *testing.T) {
		slot := dayStart.Add(12 * time.Hour)
		first := postJSON(t, ts.URL+"/api/v1/bookings", createBookingRequest(farrier.ID, slot))
		first.Body.Close()
		if first.StatusCode != http.StatusCreated {
			t.Fatalf("seed booking failed: %d", first.StatusCode)
		}

		second := postJSON(t, ts.URL+"/api/v1/bookings", createBookingRequest(farrier.ID, slot))
		defer second.Body.Close()
		if second.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", second.StatusCode)
		}
	})
}

func TestGetAndListBookings(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)
	dayStart, _ := testDay()

	created := postJSON(t, ts.URL+"/api/v1/bookings", createBookingRequest(farrier.ID, dayStart.Add(10*time.Hour)))
	var booking models.Booking
	if err := json.NewDecoder(created.Body).Decode(&booking); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	created.Body.Close()

	t.Run("GetByID", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/bookings/%d", ts.URL, booking.ID))
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got models.Booking
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if got.ID != booking.ID {
			t.Errorf("expected booking %d, got %d", booking.ID, got.ID)
		}
	})

	t.Run("GetUnknown", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/bookings/424242")
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("List", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/bookings?farrier_id=%d", ts.URL, farrier.ID))
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var body struct {
			Bookings []models.Booking `json:"bookings"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body.Bookings) != 1 {
			t.Errorf("expected 1 booking, got %d", len(body.Bookings))
		}
	})

	t.Run("ListBadStatus", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/bookings?farrier_id=%d&status=bogus", ts.URL, farrier.ID))
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestBookingStatusEndpoint(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)
	dayStart, _ := testDay()

	created := postJSON(t, ts.URL+"/api/v1/bookings", createBookingRequest(farrier.ID, dayStart.Add(10*time.Hour)))
	var booking models.Booking
	if err := json.NewDecoder(created.Body).Decode(&booking); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	created.Body.Close()

	statusURL := fmt.Sprintf("%s/api/v1/bookings/%d/status", ts.URL, booking.ID)

	t.Run("Confirm", func(t *testing.T) {
		resp := putJSON(t, statusURL, map[string]string{"status": "confirmed"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got models.Booking
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if got.Status != models.StatusConfirmed {
			t.Errorf("expected confirmed, got %s", got.Status)
		}
	})

	t.Run("IllegalJump", func(t *testing.T) {
		resp := putJSON(t, statusURL, map[string]string{"status": "completed"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		resp := putJSON(t, statusURL, map[string]string{"status": "done"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("CancelViaStatusRejected", func(t *testing.T) {
		resp := putJSON(t, statusURL, map[string]string{"status": "cancelled"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})
}

func TestBookingCancelEndpoint(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)
	dayStart, _ := testDay()

	created := postJSON(t, ts.URL+"/api/v1/bookings", createBookingRequest(farrier.ID, dayStart.Add(10*time.Hour)))
	var booking models.Booking
	if err := json.NewDecoder(created.Body).Decode(&booking); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	created.Body.Close()

	cancelURL := fmt.Sprintf("%s/api/v1/bookings/%d/cancel", ts.URL, booking.ID)

	t.Run("UnknownActor", func(t *testing.T) {
		resp := putJSON(t, cancelURL, map[string]string{"cancelled_by": "manager"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("OwnerCancel", func(t *testing.T) {
		resp := putJSON(t, cancelURL, map[string]string{"cancelled_by": "owner", "reason": "horse is sick"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got models.Booking
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if got.Status != models.StatusCancelled {
			t.Errorf("expected cancelled, got %s", got.Status)
		}
		if got.CancelledBy != models.CancelledByOwner {
			t.Errorf("expected owner attribution, got %q", got.CancelledBy)
		}
	})

	t.Run("CancelTwice", func(t *testing.T) {
		resp := putJSON(t, cancelURL, map[string]string{"cancelled_by": "farrier"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})
}

func TestBookingValidateEndpoint(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)

	t.Run("Accepted", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/api/v1/bookings/validate", map[string]any{
			"farrier_id":   farrier.ID,
			"service_type": "Trimming",
			"city":         "Stockholm",
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var quote models.PriceQuote
		if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if quote.TravelFee != 150 {
			t.Errorf("expected travel fee 150, got %.2f", quote.TravelFee)
		}
		if quote.TotalPrice != 750 {
			t.Errorf("expected total 750, got %.2f", quote.TotalPrice)
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/api/v1/bookings/validate", map[string]any{
			"farrier_id":   farrier.ID,
			"service_type": "Trimming",
			"city":         "Uppsala",
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestBookingConflictsEndpoint(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)
	dayStart, _ := testDay()
	slot := dayStart.Add(10 * time.Hour)

	created := postJSON(t, ts.URL+"/api/v1/bookings", createBookingRequest(farrier.ID, slot))
	created.Body.Close()
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("seed booking failed: %d", created.StatusCode)
	}

	check := func(t *testing.T, start time.Time) bool {
		url := fmt.Sprintf("%s/api/v1/bookings/conflicts?farrier_id=%d&start=%s&duration_minutes=30",
			ts.URL, farrier.ID, start.Format(time.RFC3339))
		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var body struct {
			Conflict bool `json:"conflict"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return body.Conflict
	}

	if !check(t, slot.Add(30*time.Minute)) {
		t.Errorf("expected conflict inside booked window")
	}
	if check(t, slot.Add(2*time.Hour)) {
		t.Errorf("expected free slot after booked window")
	}

	t.Run("BadStart", func(t *testing.T) {
		url := fmt.Sprintf("%s/api/v1/bookings/conflicts?farrier_id=%d&start=tomorrow", ts.URL, farrier.ID)
		resp, err := http.Get(url)
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestAvailabilityDayEndpoint(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)
	dayStart, date := testDay()

	created := postJSON(t, ts.URL+"/api/v1/bookings", createBookingRequest(farrier.ID, dayStart.Add(10*time.Hour)))
	created.Body.Close()

	t.Run("Snapshot", func(t *testing.T) {
		url := fmt.Sprintf("%s/api/v1/availability/%d?date=%s", ts.URL, farrier.ID, date)
		resp, err := http.Get(url)
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var snapshot models.DayAvailability
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if snapshot.FarrierID != farrier.ID {
			t.Errorf("expected farrier %d, got %d", farrier.ID, snapshot.FarrierID)
		}
		if len(snapshot.BookedAreas) != 1 || snapshot.BookedAreas[0] != "Stockholm" {
			t.Errorf("unexpected booked areas: %v", snapshot.BookedAreas)
		}
		if snapshot.PrimaryLocation != "Stockholm" {
			t.Errorf("expected primary location Stockholm, got %q", snapshot.PrimaryLocation)
		}
		for _, slot := range snapshot.AvailableTimes {
			if slot == "10:00" {
				t.Errorf("booked slot 10:00 still listed as free")
			}
		}
	})

	t.Run("MissingDate", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/availability/%d", ts.URL, farrier.ID))
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("InvalidDate", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/availability/%d?date=03/04/2026", ts.URL, farrier.ID))
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("UnknownFarrier", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/availability/9999?date=%s", ts.URL, date))
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestDailyLocationsEndpoint(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)
	dayStart, date := testDay()

	created := postJSON(t, ts.URL+"/api/v1/bookings", createBookingRequest(farrier.ID, dayStart.Add(10*time.Hour)))
	created.Body.Close()

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/availability?date=%s", ts.URL, date))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Date     string                      `json:"date"`
		Farriers []models.FarrierDayLocation `json:"farriers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Farriers) != 1 {
		t.Fatalf("expected 1 farrier, got %d", len(body.Farriers))
	}
	if body.Farriers[0].Bookings != 1 {
		t.Errorf("expected 1 booking, got %d", body.Farriers[0].Bookings)
	}
}

func TestFarriersAvailableEndpoint(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)
	dayStart, date := testDay()

	created := postJSON(t, ts.URL+"/api/v1/bookings", createBookingRequest(farrier.ID, dayStart.Add(10*time.Hour)))
	created.Body.Close()

	// Solna is adjacent to Stockholm, where the booking is.
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/farriers/available?area=Solna&date=%s", ts.URL, date))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Farriers []models.FarrierAvailabilitySummary `json:"farriers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Farriers) != 1 {
		t.Fatalf("expected 1 farrier, got %d", len(body.Farriers))
	}
	if body.Farriers[0].BookedIn != "Stockholm" {
		t.Errorf("expected booked in Stockholm, got %q", body.Farriers[0].BookedIn)
	}

	t.Run("MissingArea", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/farriers/available?date=%s", ts.URL, date))
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestFarrierSearchEndpoint(t *testing.T) {
	db := newTestDB(t)
	createTestFarrier(t, db, "anna", 4.8)
	createTestFarrier(t, db, "bertil", 3.5)
	ts := newTestServer(t, db)

	t.Run("RatingOrder", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/farriers/search")
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var body struct {
			Farriers []models.FarrierSearchResult `json:"farriers"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body.Farriers) != 2 {
			t.Fatalf("expected 2 farriers, got %d", len(body.Farriers))
		}
		if body.Farriers[0].Name != "anna" {
			t.Errorf("expected anna first, got %q", body.Farriers[0].Name)
		}
	})

	t.Run("MinRating", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/farriers/search?min_rating=4.0")
		assert.NoError(t, err)
		defer resp.Body.Close()
		var body struct {
			Farriers []models.FarrierSearchResult `json:"farriers"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body.Farriers) != 1 {
			t.Errorf("expected 1 farrier, got %d", len(body.Farriers))
		}
	})

	t.Run("BadLatitude", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/farriers/search?lat=north&lng=18.0")
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("LatWithoutLng", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/farriers/search?lat=59.3")
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestWeeklyScheduleEndpoint(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)
	_, date := testDay()

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/farriers/%d/schedule?start_date=%s&days=3", ts.URL, farrier.ID, date))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		FarrierID int64                `json:"farrier_id"`
		Days      []models.ScheduleDay `json:"days"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(body.Days))
	}
	if body.Days[0].Date != date {
		t.Errorf("expected first day %s, got %s", date, body.Days[0].Date)
	}
}

func TestScheduleExportEndpoint(t *testing.T) {
	db := newTestDB(t)
	farrier := createTestFarrier(t, db, "anna", 4.8)
	ts := newTestServer(t, db)
	dayStart, date := testDay()

	created := postJSON(t, ts.URL+"/api/v1/bookings", createBookingRequest(farrier.ID, dayStart.Add(9*time.Hour)))
	created.Body.Close()

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/farriers/%d/schedule/export?date=%s", ts.URL, farrier.ID, date))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("unexpected content type %q", ct)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(payload) == 0 {
		t.Errorf("expected non-empty spreadsheet")
	}

	t.Run("MissingDate", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/farriers/%d/schedule/export", ts.URL, farrier.ID))
		assert.NoError(t, err)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestAreasEndpoint(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)

	resp, err := http.Get(ts.URL + "/api/v1/areas")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Areas     []models.Area       `json:"areas"`
		Adjacency map[string][]string `json:"adjacency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Areas) != 3 {
		t.Errorf("expected 3 areas, got %d", len(body.Areas))
	}
	if len(body.Adjacency["Stockholm"]) != 2 {
		t.Errorf("expected 2 neighbors for Stockholm, got %v", body.Adjacency["Stockholm"])
	}
}

func TestHealthz(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReadyz(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)

	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReadyzDBFail(t *testing.T) {
	db := newTestDB(t)
	db.Close()
	ts := newTestServer(t, db)

	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestCORS(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/areas", http.NoBody)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected CORS header")
	}
}

func TestRequestIDHeader(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-Id") == "" {
		t.Errorf("expected request id header")
	}
}

func TestRateLimit(t *testing.T) {
	db := newTestDB(t)
	cfg := &config.APIConfig{
		Enabled:   true,
		HTTP:      config.APIHTTPConfig{Enabled: true, Port: 0},
		RateLimit: config.APIRateLimitConfig{RPS: 1, Burst: 1},
	}
	server := newTestServerWithConfig(t, db, cfg)
	ts := httptest.NewServer(server.server.Handler)
	t.Cleanup(ts.Close)

	resp1, err := http.Get(ts.URL + "/api/v1/areas")
	if err != nil {
		t.Fatalf("request 1 failed: %v", err)
	}
	resp1.Body.Close()
	if resp1.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp1.StatusCode)
	}

	resp2, err := http.Get(ts.URL + "/api/v1/areas")
	if err != nil {
		t.Fatalf("request 2 failed: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", resp2.StatusCode)
	}
}
