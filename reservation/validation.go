package reservation

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxBookRefLength = 16
	MaxNameLength    = 256
	MaxPhoneLength   = 32
	MaxNotesLength   = 512
	MinTableSize     = 1
	MaxTableSize     = 20

	// PastTolerance lets a form submitted right at the booked minute through.
	PastTolerance = 3 * time.Minute
)

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Validate checks the business fields of r at time now and returns the
// first failure as a *ValidationError.
func Validate(r *Reservation, now time.Time) error {
	if strings.TrimSpace(r.BookRef) == "" {
		return invalid("book_ref", "Book reference cannot be empty.")
	}
	if len(r.BookRef) > MaxBookRefLength {
		return invalid("book_ref", "Book reference cannot exceed 16 characters.")
	}

	if strings.TrimSpace(r.CustomerEmail) == "" {
		return invalid("customer_email", "Customer email cannot be empty.")
	}
	if !strings.Contains(r.CustomerEmail, "@") {
		return invalid("customer_email", "Customer email must contain '@'.")
	}

	if strings.TrimSpace(r.CustomerName) == "" {
		return invalid("customer_name", "Customer name cannot be empty.")
	}
	if utf8.RuneCountInString(r.CustomerName) > MaxNameLength {
		return invalid("customer_name", "Customer name cannot exceed 256 characters.")
	}

	if strings.TrimSpace(r.CustomerPhone) == "" || len(r.CustomerPhone) > MaxPhoneLength {
		return invalid("customer_phone", "Customer phone cannot be empty or exceed 32 characters.")
	}
	for _, c := range r.CustomerPhone {
		if (c < '0' || c > '9') && c != '+' {
			return invalid("customer_phone", "Customer phone must contain only digits or '+'.")
		}
	}

	if r.TableSize < MinTableSize || r.TableSize > MaxTableSize {
		return invalid("table_size", "Table size must be between 1 and 20.")
	}

	if r.ReservationTime.Before(now.Add(-PastTolerance)) {
		return invalid("reservation_time", "Reservation time cannot be in the past.")
	}

	if utf8.RuneCountInString(r.Notes) > MaxNotesLength {
		return invalid("notes", "Notes cannot exceed 512 characters.")
	}
	return nil
}
