package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aliceryden/portalen/internal/models"
)

const farrierColumns = `id, user_name, business_name, phone, base_latitude, base_longitude,
        travel_radius_km, average_rating, total_reviews, is_available, telegram_chat_id,
        created_at, updated_at`

func scanFarrier(row rowScanner) (*models.Farrier, error) {
	var f models.Farrier
	var business, phone sql.NullString
	var lat, lng sql.NullFloat64

	err := row.Scan(
		&f.ID, &f.UserName, &business, &phone, &lat, &lng,
		&f.TravelRadiusKm, &f.AverageRating, &f.TotalReviews, &f.IsAvailable, &f.TelegramChatID,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.BusinessName = business.String
	f.Phone = phone.String
	f.BaseLatitude = lat.Float64
	f.BaseLongitude = lng.Float64
	return &f, nil
}

func (db *DB) CreateFarrier(ctx context.Context, f *models.Farrier) error {
	query := `INSERT INTO farriers (
            user_name, business_name, phone, base_latitude, base_longitude,
            travel_radius_km, average_rating, total_reviews, is_available, telegram_chat_id,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		f.UserName, f.BusinessName, f.Phone, f.BaseLatitude, f.BaseLongitude,
		f.TravelRadiusKm, f.AverageRating, f.TotalReviews, f.IsAvailable, f.TelegramChatID,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("create farrier: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = id
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

// GetFarrier loads the farrier row with its services, schedules and
// declared service areas.
func (db *DB) GetFarrier(ctx context.Context, id int64) (*models.Farrier, error) {
	query := `SELECT ` + farrierColumns + ` FROM farriers WHERE id = ?`
	farrier, err := scanFarrier(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get farrier: %w", err)
	}
	if err := db.loadFarrierRelations(ctx, farrier); err != nil {
		return nil, err
	}
	return farrier, nil
}

func (db *DB) loadFarrierRelations(ctx context.Context, f *models.Farrier) error {
	services, err := db.FarrierServices(ctx, f.ID)
	if err != nil {
		return err
	}
	f.Services = services

	areas, err := db.ServiceAreas(ctx, f.ID)
	if err != nil {
		return err
	}
	f.Areas = areas

	schedules, err := db.farrierSchedules(ctx, f.ID)
	if err != nil {
		return err
	}
	f.Schedules = schedules
	return nil
}

// SearchFarriers returns available farriers with relations loaded, filtered
// server-side by city substring and minimum rating when given. Distance,
// price and service-type filters are applied by the search service.
func (db *DB) SearchFarriers(ctx context.Context, city string, minRating float64) ([]*models.Farrier, error) {
	query := `SELECT ` + farrierColumns + ` FROM farriers WHERE is_available = 1`
	var args []any
	if city != "" {
		query += ` AND LOWER(business_name || ' ' || user_name || ' ' || COALESCE((
            SELECT GROUP_CONCAT(city, ' ') FROM farrier_areas WHERE farrier_id = farriers.id
        ), '')) LIKE ?`
		args = append(args, "%"+sqlLower(city)+"%")
	}
	if minRating > 0 {
		query += ` AND average_rating >= ?`
		args = append(args, minRating)
	}
	query += ` ORDER BY average_rating DESC, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search farriers: %w", err)
	}
	defer rows.Close()

	var farriers []*models.Farrier
	for rows.Next() {
		f, err := scanFarrier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan farrier: %w", err)
		}
		farriers = append(farriers, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, f := range farriers {
		if err := db.loadFarrierRelations(ctx, f); err != nil {
			return nil, err
		}
	}
	return farriers, nil
}

// GetFarriersByID loads a batch of farriers with relations, keyed by id.
func (db *DB) GetFarriersByID(ctx context.Context, ids []int64) (map[int64]*models.Farrier, error) {
	out := make(map[int64]*models.Farrier, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		f, err := db.GetFarrier(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = f
	}
	return out, nil
}

func (db *DB) AddFarrierService(ctx context.Context, s *models.FarrierService) error {
	query := `INSERT INTO farrier_services (farrier_id, name, description, price, duration_minutes, is_active)
        VALUES (?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		s.FarrierID, s.Name, s.Description, s.Price, s.DurationMinutes, s.IsActive)
	if err != nil {
		return fmt.Errorf("add farrier service: %w", err)
	}
	s.ID, err = result.LastInsertId()
	return err
}

func (db *DB) FarrierServices(ctx context.Context, farrierID int64) ([]models.FarrierService, error) {
	query := `SELECT id, farrier_id, name, COALESCE(description, ''), price, duration_minutes, is_active
        FROM farrier_services WHERE farrier_id = ? ORDER BY id`
	rows, err := db.QueryContext(ctx, query, farrierID)
	if err != nil {
		return nil, fmt.Errorf("farrier services: %w", err)
	}
	defer rows.Close()

	var services []models.FarrierService
	for rows.Next() {
		var s models.FarrierService
		if err := rows.Scan(&s.ID, &s.FarrierID, &s.Name, &s.Description, &s.Price, &s.DurationMinutes, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (db *DB) AddScheduleEntry(ctx context.Context, e *models.ScheduleEntry) error {
	query := `INSERT INTO farrier_schedules (farrier_id, day_of_week, start_time, end_time, is_available)
        VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		e.FarrierID, e.DayOfWeek, e.StartTime, e.EndTime, e.IsAvailable)
	if err != nil {
		return fmt.Errorf("add schedule entry: %w", err)
	}
	e.ID, err = result.LastInsertId()
	return err
}

func (db *DB) farrierSchedules(ctx context.Context, farrierID int64) ([]models.ScheduleEntry, error) {
	query := `SELECT id, farrier_id, day_of_week, start_time, end_time, is_available
        FROM farrier_schedules WHERE farrier_id = ? ORDER BY day_of_week, id`
	rows, err := db.QueryContext(ctx, query, farrierID)
	if err != nil {
		return nil, fmt.Errorf("farrier schedules: %w", err)
	}
	defer rows.Close()

	var entries []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		if err := rows.Scan(&e.ID, &e.FarrierID, &e.DayOfWeek, &e.StartTime, &e.EndTime, &e.IsAvailable); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ScheduleForDay returns the farrier's available schedule entry for a
// weekday (Monday = 0), or nil when none is configured.
func (db *DB) ScheduleForDay(ctx context.Context, farrierID int64, dayOfWeek int) (*models.ScheduleEntry, error) {
	query := `SELECT id, farrier_id, day_of_week, start_time, end_time, is_available
        FROM farrier_schedules
        WHERE farrier_id = ? AND day_of_week = ? AND is_available = 1
        ORDER BY id LIMIT 1`
	var e models.ScheduleEntry
	err := db.QueryRowContext(ctx, query, farrierID, dayOfWeek).Scan(
		&e.ID, &e.FarrierID, &e.DayOfWeek, &e.StartTime, &e.EndTime, &e.IsAvailable)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("schedule for day: %w", err)
	}
	return &e, nil
}

func (db *DB) AddServiceArea(ctx context.Context, a *models.ServiceArea) error {
	query := `INSERT INTO farrier_areas (farrier_id, city, postal_code_prefix, travel_fee)
        VALUES (?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query, a.FarrierID, a.City, a.PostalCodePrefix, a.TravelFee)
	if err != nil {
		return fmt.Errorf("add service area: %w", err)
	}
	a.ID, err = result.LastInsertId()
	return err
}

func (db *DB) ServiceAreas(ctx context.Context, farrierID int64) ([]models.ServiceArea, error) {
	query := `SELECT id, farrier_id, city, COALESCE(postal_code_prefix, ''), travel_fee
        FROM farrier_areas WHERE farrier_id = ? ORDER BY id`
	rows, err := db.QueryContext(ctx, query, farrierID)
	if err != nil {
		return nil, fmt.Errorf("service areas: %w", err)
	}
	defer rows.Close()

	var areas []models.ServiceArea
	for rows.Next() {
		var a models.ServiceArea
		if err := rows.Scan(&a.ID, &a.FarrierID, &a.City, &a.PostalCodePrefix, &a.TravelFee); err != nil {
			return nil, fmt.Errorf("scan service area: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

func sqlLower(s string) string {
	// sqlite LOWER folds ASCII only; matching the same fold here keeps the
	// comparison consistent for the LIKE patterns we build.
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
