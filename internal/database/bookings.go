package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aliceryden/portalen/internal/models"
)

const bookingColumns = `id, owner_id, farrier_id, horse_id, service_type, scheduled_at,
        duration_minutes, location_address, location_city, location_latitude, location_longitude,
        service_price, travel_fee, total_price, status, notes_from_owner, notes_from_farrier,
        cancelled_by, cancellation_reason, cancelled_at, completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var address, city, notesOwner, notesFarrier, cancelledBy, cancelReason sql.NullString
	var lat, lng sql.NullFloat64
	var cancelledAt, completedAt sql.NullTime
	var status string

	err := row.Scan(
		&b.ID, &b.OwnerID, &b.FarrierID, &b.HorseID, &b.ServiceType, &b.ScheduledAt,
		&b.DurationMinutes, &address, &city, &lat, &lng,
		&b.ServicePrice, &b.TravelFee, &b.TotalPrice, &status, &notesOwner, &notesFarrier,
		&cancelledBy, &cancelReason, &cancelledAt, &completedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.ScheduledAt = b.ScheduledAt.UTC()
	b.Status = models.BookingStatus(status)
	b.LocationAddress = address.String
	b.LocationCity = city.String
	b.LocationLatitude = lat.Float64
	b.LocationLongitude = lng.Float64
	b.NotesFromOwner = notesOwner.String
	b.NotesFromFarrier = notesFarrier.String
	b.CancelledBy = cancelledBy.String
	b.CancellationReason = cancelReason.String
	if cancelledAt.Valid {
		t := cancelledAt.Time.UTC()
		b.CancelledAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		b.CompletedAt = &t
	}
	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]*models.Booking, error) {
	defer rows.Close()
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

const insertBookingQuery = `INSERT INTO bookings (
        owner_id, farrier_id, horse_id, service_type, scheduled_at, duration_minutes,
        location_address, location_city, location_latitude, location_longitude,
        service_price, travel_fee, total_price, status, notes_from_owner,
        created_at, updated_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func bookingInsertArgs(b *models.Booking, now time.Time) []any {
	return []any{
		b.OwnerID, b.FarrierID, b.HorseID, b.ServiceType, b.ScheduledAt.UTC(), b.DurationMinutes,
		b.LocationAddress, b.LocationCity, b.LocationLatitude, b.LocationLongitude,
		b.ServicePrice, b.TravelFee, b.TotalPrice, string(b.Status), b.NotesFromOwner,
		now, now,
	}
}

// CreateBooking inserts a booking without overlap protection. Intended for
// fixtures and migrations; production writes go through
// CreateBookingOverlapChecked.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, insertBookingQuery, bookingInsertArgs(booking, now)...)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// CreateBookingOverlapChecked checks the farrier's existing non-cancelled
// bookings for window intersection and inserts atomically in one
// transaction. The unique index on (farrier_id, scheduled_at) backstops
// races the transaction isolation alone would let through.
func (db *DB) CreateBookingOverlapChecked(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT id, scheduled_at, duration_minutes FROM bookings
        WHERE farrier_id = ? AND status != ?`
	rows, err := tx.QueryContext(ctx, query, booking.FarrierID, string(models.StatusCancelled))
	if err != nil {
		return fmt.Errorf("load existing bookings: %w", err)
	}

	type window struct {
		id    int64
		start time.Time
		end   time.Time
	}
	var existing []window
	for rows.Next() {
		var w window
		var durationMinutes int
		if err := rows.Scan(&w.id, &w.start, &durationMinutes); err != nil {
			rows.Close()
			return fmt.Errorf("scan existing booking: %w", err)
		}
		if durationMinutes <= 0 {
			durationMinutes = models.DefaultDurationMinutes
		}
		w.start = w.start.UTC()
		w.end = w.start.Add(time.Duration(durationMinutes) * time.Minute)
		existing = append(existing, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	start := booking.Start()
	end := booking.End()
	for _, w := range existing {
		if start.Before(w.end) && w.start.Before(end) {
			return &ConflictError{BookingID: w.id, ConflictingTime: w.start}
		}
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, insertBookingQuery, bookingInsertArgs(booking, now)...)
	if err != nil {
		if isUniqueViolation(err) {
			return &ConflictError{ConflictingTime: start}
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return &ConflictError{ConflictingTime: start}
		}
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// FindConflictingBooking returns the first non-cancelled booking of the
// farrier whose window intersects [start, start+duration), or nil.
func (db *DB) FindConflictingBooking(ctx context.Context, farrierID int64, start time.Time, durationMinutes int) (*models.Booking, error) {
	if durationMinutes <= 0 {
		durationMinutes = models.DefaultDurationMinutes
	}
	candidate := &models.Booking{ScheduledAt: start.UTC(), DurationMinutes: durationMinutes}

	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE farrier_id = ? AND status != ? ORDER BY scheduled_at`
	rows, err := db.QueryContext(ctx, query, farrierID, string(models.StatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if candidate.Overlaps(b) {
			return b, nil
		}
	}
	return nil, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

// UpdateBookingState persists the mutable lifecycle fields of a booking:
// status, farrier notes, cancellation metadata and completion stamp.
func (db *DB) UpdateBookingState(ctx context.Context, b *models.Booking) error {
	query := `UPDATE bookings SET
            status = ?, notes_from_farrier = ?,
            cancelled_by = ?, cancellation_reason = ?, cancelled_at = ?,
            completed_at = ?, updated_at = ?
        WHERE id = ?`

	var cancelledAt, completedAt any
	if b.CancelledAt != nil {
		cancelledAt = b.CancelledAt.UTC()
	}
	if b.CompletedAt != nil {
		completedAt = b.CompletedAt.UTC()
	}

	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		string(b.Status), b.NotesFromFarrier,
		b.CancelledBy, b.CancellationReason, cancelledAt,
		completedAt, now, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update booking state: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	b.UpdatedAt = now
	return nil
}

// ListBookings returns bookings filtered by farrier and/or status, newest
// scheduled first.
func (db *DB) ListBookings(ctx context.Context, farrierID int64, status models.BookingStatus) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []any
	if farrierID != 0 {
		query += ` AND farrier_id = ?`
		args = append(args, farrierID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY scheduled_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return scanBookings(rows)
}

func activeStatusPlaceholders() (string, []any) {
	return `?, ?, ?`, []any{
		string(models.StatusPending), string(models.StatusConfirmed), string(models.StatusInProgress),
	}
}

// BookingsForFarrierDay returns the farrier's locking bookings inside
// [dayStart, dayEnd), ordered by scheduled time.
func (db *DB) BookingsForFarrierDay(ctx context.Context, farrierID int64, dayStart, dayEnd time.Time) ([]*models.Booking, error) {
	placeholders, statusArgs := activeStatusPlaceholders()
	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE farrier_id = ? AND scheduled_at >= ? AND scheduled_at < ?
          AND status IN (` + placeholders + `)
        ORDER BY scheduled_at, created_at`
	args := append([]any{farrierID, dayStart.UTC(), dayEnd.UTC()}, statusArgs...)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings for farrier day: %w", err)
	}
	return scanBookings(rows)
}

// ActiveBookingsForDay returns every farrier's locking bookings inside
// [dayStart, dayEnd), ordered by scheduled time.
func (db *DB) ActiveBookingsForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]*models.Booking, error) {
	placeholders, statusArgs := activeStatusPlaceholders()
	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE scheduled_at >= ? AND scheduled_at < ?
          AND status IN (` + placeholders + `)
        ORDER BY scheduled_at, created_at`
	args := append([]any{dayStart.UTC(), dayEnd.UTC()}, statusArgs...)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("active bookings for day: %w", err)
	}
	return scanBookings(rows)
}

// ActiveBookingsForDayInCities restricts ActiveBookingsForDay to a set of
// cities, matched case-insensitively. The fold happens in Go: sqlite's
// LOWER covers ASCII only, and area names carry Å/Ä/Ö.
func (db *DB) ActiveBookingsForDayInCities(ctx context.Context, dayStart, dayEnd time.Time, cities []string) ([]*models.Booking, error) {
	if len(cities) == 0 {
		return nil, nil
	}
	bookings, err := db.ActiveBookingsForDay(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("active bookings in cities: %w", err)
	}

	var matched []*models.Booking
	for _, b := range bookings {
		for _, c := range cities {
			if strings.EqualFold(b.LocationCity, c) {
				matched = append(matched, b)
				break
			}
		}
	}
	return matched, nil
}
