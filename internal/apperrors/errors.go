// Package apperrors defines the stable error taxonomy of the
// reservation engine.  Every validation failure maps to exactly one
// Error value with a fixed code and HTTP status, so the transport
// layer can render a specific client-facing message without inspecting
// error strings.  Storage failures are not part of this taxonomy; they
// surface as plain errors and become generic 500 responses, which the
// caller may treat as retryable.
package apperrors

import "net/http"

// Error is a validation error with a stable machine-readable code.
type Error struct {
	Code    string // stable identifier, e.g. "ShortCredit"
	Status  int    // HTTP status the transport layer should use
	Message string // human readable default message
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Code + ": " + e.Message }

var (
	// ErrInvalidTimeFormat is returned when a time-window string does
	// not match the required yyyymmddHHMM shape.
	ErrInvalidTimeFormat = &Error{"InvalidTimeFormat", http.StatusBadRequest,
		"time must be a 12 digit yyyymmddHHMM string, e.g. 202009251400"}

	// ErrNotOnTenMinuteBoundary is returned when a window timestamp is
	// not aligned to a 10 minute boundary.
	ErrNotOnTenMinuteBoundary = &Error{"NotOnTenMinuteBoundary", http.StatusBadRequest,
		"minutes must be a multiple of 10"}

	// ErrTooLessOrTooMuchTime is returned when the window duration is
	// outside the allowed range of 30 minutes to 30 days.
	ErrTooLessOrTooMuchTime = &Error{"TooLessOrTooMuchTime", http.StatusBadRequest,
		"rental window must be between 30 minutes and 30 days"}

	// ErrBeforeTheCurrentTime is returned when the window start is not
	// strictly in the future.
	ErrBeforeTheCurrentTime = &Error{"BeforeTheCurrentTime", http.StatusBadRequest,
		"rental window must start after the current time"}

	// ErrAlreadyReservedTime is returned when the requested window
	// overlaps an active reservation on the same car.
	ErrAlreadyReservedTime = &Error{"AlreadyReservedTime", http.StatusBadRequest,
		"the requested time window is not available for this car"}

	// ErrShortCredit is returned when the member's balance cannot cover
	// a computed fee or fee delta.
	ErrShortCredit = &Error{"ShortCredit", http.StatusBadRequest,
		"not enough credit"}

	// ErrInvalidInsurance is returned for an unknown insurance tier.
	ErrInvalidInsurance = &Error{"InvalidInsurance", http.StatusBadRequest,
		"insurance must be one of light, standard, special or none"}

	// ErrNotAvailableCar is returned when the requested car does not
	// belong to the requested zone.
	ErrNotAvailableCar = &Error{"NotAvailableCar", http.StatusBadRequest,
		"car is not available in this car zone"}

	// ErrAlreadySettled is returned when post-use settlement is
	// attempted a second time for the same reservation.
	ErrAlreadySettled = &Error{"AlreadySettled", http.StatusBadRequest,
		"this reservation has already been settled"}

	// ErrReservationNotFound is returned for lookups of reservations
	// that do not exist or belong to another member.
	ErrReservationNotFound = &Error{"ReservationNotFound", http.StatusNotFound,
		"no matching reservation"}

	// ErrCarNotFound is returned when the referenced car does not exist.
	ErrCarNotFound = &Error{"CarNotFound", http.StatusNotFound,
		"no matching car"}

	// ErrCarZoneNotFound is returned when the referenced zone does not exist.
	ErrCarZoneNotFound = &Error{"CarZoneNotFound", http.StatusNotFound,
		"no matching car zone"}
)
