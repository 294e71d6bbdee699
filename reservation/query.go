package reservation

import (
	"time"
)

// Query filters reservations. Zero-valued fields are ignored.
//
//	q := NewQuery().WithStatus(StatusPending).From(start).To(end).WithLimit(50)
type Query struct {
	BookRef  string
	Email    string
	Status   Status
	FromTime time.Time
	ToTime   time.Time
	Limit    int
}

func NewQuery() Query { return Query{} }

func (q Query) WithBookRef(ref string) Query {
	q.BookRef = ref
	return q
}

func (q Query) WithEmail(email string) Query {
	q.Email = email
	return q
}

func (q Query) WithStatus(s Status) Query {
	q.Status = s
	return q
}

// From keeps reservations at or after t.
func (q Query) From(t time.Time) Query {
	q.FromTime = t
	return q
}

// To keeps reservations at or before t.
func (q Query) To(t time.Time) Query {
	q.ToTime = t
	return q
}

func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// Matches applies the query to an in-memory record.
func (q Query) Matches(r *Reservation) bool {
	if q.BookRef != "" && r.BookRef != q.BookRef {
		return false
	}
	if q.Email != "" && r.CustomerEmail != q.Email {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if !q.FromTime.IsZero() && r.ReservationTime.Before(q.FromTime) {
		return false
	}
	if !q.ToTime.IsZero() && r.ReservationTime.After(q.ToTime) {
		return false
	}
	return true
}
