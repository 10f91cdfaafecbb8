package models

import "time"

// Farrier is the aggregate root for a hoof-care professional: profile,
// service catalog, weekly schedule and declared working areas. Rating
// fields are maintained by the review subsystem and are read-only here.
type Farrier struct {
	ID           int64  `json:"id"`
	UserName     string `json:"user_name"`
	BusinessName string `json:"business_name,omitempty"`
	Phone        string `json:"phone,omitempty"`

	BaseLatitude   float64 `json:"base_latitude,omitempty"`
	BaseLongitude  float64 `json:"base_longitude,omitempty"`
	TravelRadiusKm int     `json:"travel_radius_km"`

	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`

	IsAvailable bool `json:"is_available"`

	// TelegramChatID is the notification target for booking events; zero
	// means the farrier has not linked a chat.
	TelegramChatID int64 `json:"telegram_chat_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Services  []FarrierService `json:"services,omitempty"`
	Schedules []ScheduleEntry  `json:"schedules,omitempty"`
	Areas     []ServiceArea    `json:"areas,omitempty"`
}

// ActivePriceRange returns the min and max price over active services.
// ok is false when the farrier has no active services.
func (f *Farrier) ActivePriceRange() (min, max float64, ok bool) {
	for _, s := range f.Services {
		if !s.IsActive {
			continue
		}
		if !ok {
			min, max, ok = s.Price, s.Price, true
			continue
		}
		if s.Price < min {
			min = s.Price
		}
		if s.Price > max {
			max = s.Price
		}
	}
	return min, max, ok
}

// FarrierService is one priced entry in a farrier's catalog.
type FarrierService struct {
	ID              int64   `json:"id"`
	FarrierID       int64   `json:"farrier_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	IsActive        bool    `json:"is_active"`
}

// ScheduleEntry is one weekday row of a farrier's weekly schedule.
// DayOfWeek uses 0 for Monday through 6 for Sunday. Start and End are
// times of day in "HH:MM" form; the window is [Start, End).
type ScheduleEntry struct {
	ID          int64  `json:"id"`
	FarrierID   int64  `json:"farrier_id"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// ServiceArea declares a city where the farrier works, optionally narrowed
// by a 3-digit postal prefix and carrying an override travel fee. A farrier
// with no ServiceArea rows has no geographic restriction.
type ServiceArea struct {
	ID               int64   `json:"id"`
	FarrierID        int64   `json:"farrier_id"`
	City             string  `json:"city"`
	PostalCodePrefix string  `json:"postal_code_prefix,omitempty"`
	TravelFee        float64 `json:"travel_fee"`
}
