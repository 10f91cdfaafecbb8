package database

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ConflictError reports that a prospective booking window collides with an
// existing non-cancelled booking of the same farrier.
type ConflictError struct {
	BookingID       int64
	ConflictingTime time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time already booked (%s)", e.ConflictingTime.UTC().Format("2006-01-02 15:04"))
}
