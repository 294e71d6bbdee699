// Package reservation holds the reservation domain: the record, its field
// validation, public booking references and the reconciler that turns an
// anonymous submission into an insert or an owner-checked update.
package reservation

import (
	"fmt"
	"strings"
	"time"
)

// Status is stored as text in the reservation table.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus converts stored text back to a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) String() string { return string(s) }

// Reservation is a persisted booking.
type Reservation struct {
	ID              int64     `json:"id"`
	BookRef         string    `json:"book_ref"`
	RestaurantID    int64     `json:"restaurant_id"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	TableSize       int       `json:"table_size"`
	ReservationTime time.Time `json:"reservation_time"`
	Notes           string    `json:"notes,omitempty"`
	Status          Status    `json:"status"`
	AssignedTable   int       `json:"assigned_table,omitempty"` // 0 when unassigned
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsNew reports whether the record has not been persisted yet.
func (r *Reservation) IsNew() bool { return r.ID == 0 }

// Request is the public submission body. BookRef is empty for a new booking.
type Request struct {
	RefCheck        string `json:"ref_check"`
	BookRef         string `json:"book_ref,omitempty"`
	CustomerEmail   string `json:"customer_email"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	TableSize       int    `json:"table_size"`
	ReservationTime string `json:"reservation_time"`
	Notes           string `json:"notes,omitempty"`
}

// Accepted layouts for reservation_time. Values without a zone are UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseReservationTime parses the time formats accepted from forms and JSON.
func ParseReservationTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ValidationError{Field: "reservation_time", Message: "Reservation time is not a valid date."}
}

// toReservation copies the business fields of a request into a new record.
func (req Request) toReservation() (*Reservation, error) {
	at, err := ParseReservationTime(req.ReservationTime)
	if err != nil {
		return nil, err
	}
	return &Reservation{
		BookRef:         strings.TrimSpace(req.BookRef),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		TableSize:       req.TableSize,
		ReservationTime: at,
		Notes:           req.Notes,
	}, nil
}
