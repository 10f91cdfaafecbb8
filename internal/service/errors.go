// Package service contains the scheduling engine itself: booking creation
// with area and overlap guards, the lifecycle state machine, daily
// availability resolution and farrier search.
package service

import (
	"fmt"
	"strings"

	"github.com/aliceryden/portalen/internal/models"
)

// ValidationError means the request was malformed before any business rule
// was consulted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AreaRejectedError means the requested location matched none of the
// farrier's configured service areas. It carries the configured areas so
// callers can tell the user where the farrier actually works.
type AreaRejectedError struct {
	City  string
	Areas []models.ServiceArea
}

func (e *AreaRejectedError) Error() string {
	names := make([]string, 0, len(e.Areas))
	for _, a := range e.Areas {
		name := a.City
		if a.PostalCodePrefix != "" {
			name = fmt.Sprintf("%s (postnr %sXX)", a.City, a.PostalCodePrefix)
		}
		names = append(names, name)
	}
	return fmt.Sprintf("farrier does not serve %q, service areas: %s", e.City, strings.Join(names, ", "))
}

// InvalidTransitionError means the lifecycle table forbids the requested
// status change.
type InvalidTransitionError struct {
	From models.BookingStatus
	To   models.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s", e.From, e.To)
}
