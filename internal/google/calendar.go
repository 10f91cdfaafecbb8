// Package google syncs bookings into a shared Google Calendar so farriers
// can see their route in the tools they already use.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aliceryden/portalen/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const callTimeout = 30 * time.Second

type CalendarService struct {
	service    *calendar.Service
	calendarID string
}

func NewCalendarService(credentialsFile, calendarID string) (*CalendarService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}

	return &CalendarService{
		service:    srv,
		calendarID: calendarID,
	}, nil
}

// TestConnection checks the calendar is reachable and shared with the
// service account.
func (s *CalendarService) TestConnection(ctx context.Context) error {
	_, err := s.service.Calendars.Get(s.calendarID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// eventID builds a deterministic calendar event id for a booking. Event
// ids only allow the base32hex alphabet, which the fixed prefix satisfies.
func eventID(bookingID int64) string {
	return fmt.Sprintf("portalenbooking%d", bookingID)
}

func buildEvent(booking *models.Booking) *calendar.Event {
	start := booking.Start()
	end := booking.End()

	var description strings.Builder
	fmt.Fprintf(&description, "Booking #%d\n", booking.ID)
	fmt.Fprintf(&description, "Status: %s\n", booking.Status)
	fmt.Fprintf(&description, "Horse: #%d\n", booking.HorseID)
	fmt.Fprintf(&description, "Total price: %.2f (service %.2f + travel %.2f)\n",
		booking.TotalPrice, booking.ServicePrice, booking.TravelFee)
	if booking.NotesFromOwner != "" {
		fmt.Fprintf(&description, "Owner notes: %s\n", booking.NotesFromOwner)
	}

	location := booking.LocationAddress
	if location == "" {
		location = booking.LocationCity
	} else if booking.LocationCity != "" {
		location = location + ", " + booking.LocationCity
	}

	return &calendar.Event{
		Id:          eventID(booking.ID),
		Summary:     fmt.Sprintf("%s (booking #%d)", booking.ServiceType, booking.ID),
		Location:    location,
		Description: description.String(),
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: "UTC"},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: "UTC"},
	}
}

func isNotFound(err error) bool {
	if apiErr, ok := err.(*googleapi.Error); ok {
		return apiErr.Code == 404 || apiErr.Code == 410
	}
	return false
}

// UpsertBooking creates or replaces the calendar event for a booking.
func (s *CalendarService) UpsertBooking(booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is nil")
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	event := buildEvent(booking)
	_, err := s.service.Events.Update(s.calendarID, event.Id, event).Context(ctx).Do()
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("update event: %w", err)
	}

	if _, err := s.service.Events.Insert(s.calendarID, event).Context(ctx).Do(); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// DeleteBooking removes the calendar event; an already absent event is
// fine.
func (s *CalendarService) DeleteBooking(bookingID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	err := s.service.Events.Delete(s.calendarID, eventID(bookingID)).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// UpdateBookingStatus rewrites the status line of the event description.
// A cancelled booking drops off the calendar entirely.
func (s *CalendarService) UpdateBookingStatus(bookingID int64, status models.BookingStatus) error {
	if status == models.StatusCancelled {
		return s.DeleteBooking(bookingID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	id := eventID(bookingID)
	event, err := s.service.Events.Get(s.calendarID, id).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}

	event.Description = replaceStatusLine(event.Description, status)
	if _, err := s.service.Events.Update(s.calendarID, id, event).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func replaceStatusLine(description string, status models.BookingStatus) string {
	lines := strings.Split(description, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "Status: ") {
			lines[i] = "Status: " + string(status)
			return strings.Join(lines, "\n")
		}
	}
	if description == "" {
		return "Status: " + string(status)
	}
	return description + "\nStatus: " + string(status)
}
