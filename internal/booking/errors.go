package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrFacilityNotFound is returned for lookups of unknown facilities.
	ErrFacilityNotFound = errors.New("facility not found")
	// ErrFacilityInactive is returned when the facility exists but has been
	// taken off the booking surface.
	ErrFacilityInactive = errors.New("facility is not accepting bookings")
	// ErrSlotUnavailable is returned when a requested interval overlaps an
	// existing pending or confirmed reservation, including when this request
	// lost a race against a concurrent admission.
	ErrSlotUnavailable = errors.New("requested time slot is unavailable")
	// ErrReservationNotFound is returned for status changes on unknown ids.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrInvalidTransition is returned for status changes the reservation
	// state machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError rejects a malformed request. Deterministic: retrying the
// same input can never succeed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
