package reservation

import (
	"errors"
)

var (
	// ErrReservationNotFound is returned for an unknown book_ref.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrOwnershipMismatch is returned when an update's email differs from
	// the stored submitter email.
	ErrOwnershipMismatch = errors.New("reservation belongs to another customer")

	// ErrDuplicateBookRef is returned by repositories when a generated
	// book_ref collides with an existing row.
	ErrDuplicateBookRef = errors.New("book reference already exists")

	ErrUnknownStatus = errors.New("unknown reservation status")
)

// ValidationError carries the user-facing message for a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
