package models

// BookingSummary is the read-side projection of a booking inside a daily
// availability snapshot.
type BookingSummary struct {
	ID              int64   `json:"id"`
	Time            string  `json:"time"`
	DurationMinutes int     `json:"duration"`
	Service         string  `json:"service"`
	Location        string  `json:"location,omitempty"`
	Latitude        float64 `json:"latitude,omitempty"`
	Longitude       float64 `json:"longitude,omitempty"`
}

// DayAvailability describes where a farrier is committed on one calendar
// day and which hour slots remain open. BookedAreas and AvailableAreas
// preserve first-seen insertion order; PrimaryLocation is the first booked
// area of the day, a deliberate simplification of the source ranking.
type DayAvailability struct {
	FarrierID    int64  `json:"farrier_id"`
	FarrierName  string `json:"farrier_name"`
	BusinessName string `json:"business_name,omitempty"`
	Phone        string `json:"phone,omitempty"`

	Date string `json:"date"`

	BookedAreas    []string `json:"booked_areas"`
	AvailableAreas []string `json:"available_areas"`

	PrimaryLocation    string       `json:"primary_location,omitempty"`
	PrimaryCoordinates *Coordinates `json:"primary_coordinates,omitempty"`

	Bookings       []BookingSummary `json:"bookings"`
	AvailableTimes []string         `json:"available_times"`
}

// FarrierAvailabilitySummary describes a farrier considered available in a
// searched area because of an existing booking nearby.
type FarrierAvailabilitySummary struct {
	FarrierID        int64            `json:"farrier_id"`
	Name             string           `json:"name"`
	BusinessName     string           `json:"business_name,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	AverageRating    float64          `json:"average_rating"`
	TotalReviews     int              `json:"total_reviews"`
	BookedIn         string           `json:"booked_in"`
	AvailableForArea string           `json:"available_for_area"`
	Reason           string           `json:"reason"`
	Services         []FarrierService `json:"services"`
}

// FarrierDayLocation summarizes where one farrier is booked on a given day.
type FarrierDayLocation struct {
	FarrierID    int64    `json:"farrier_id"`
	Name         string   `json:"name"`
	BusinessName string   `json:"business_name,omitempty"`
	Areas        []string `json:"areas"`
	Bookings     int      `json:"bookings"`
}

// ScheduleDay is one day of the weekly schedule overview.
type ScheduleDay struct {
	Date            string   `json:"date"`
	Weekday         string   `json:"weekday"`
	Areas           []string `json:"areas"`
	AvailableNearby []string `json:"available_nearby"`
	BookingsCount   int      `json:"bookings_count"`
}

// FarrierSearchResult is one ranked row of a farrier search.
type FarrierSearchResult struct {
	FarrierID      int64    `json:"farrier_id"`
	Name           string   `json:"name"`
	BusinessName   string   `json:"business_name,omitempty"`
	AverageRating  float64  `json:"average_rating"`
	TotalReviews   int      `json:"total_reviews"`
	TravelRadiusKm int      `json:"travel_radius_km"`
	BaseLatitude   float64  `json:"base_latitude,omitempty"`
	BaseLongitude  float64  `json:"base_longitude,omitempty"`
	MinPrice       *float64 `json:"min_price,omitempty"`
	MaxPrice       *float64 `json:"max_price,omitempty"`
	DistanceKm     *float64 `json:"distance_km,omitempty"`
}

// PriceQuote is the result of validating a prospective booking location.
type PriceQuote struct {
	TravelFee  float64 `json:"travel_fee"`
	TotalPrice float64 `json:"total_price"`
}
