package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"ruserwation/reservation"
)

// ReservationRepository implements reservation.Repository over SQLite.
type ReservationRepository struct {
	db *Database
}

func NewReservationRepository(db *Database) *ReservationRepository {
	return &ReservationRepository{db: db}
}

var _ reservation.Repository = (*ReservationRepository)(nil)

const reservationColumns = `id, book_ref, restaurant_id, customer_email, customer_name,
	customer_phone, table_size, reservation_time, notes, status, assigned_table,
	created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (*reservation.Reservation, error) {
	var (
		r                    reservation.Reservation
		at, created, updated string
		status               string
		notes                sql.NullString
		assigned             sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.BookRef, &r.RestaurantID, &r.CustomerEmail, &r.CustomerName,
		&r.CustomerPhone, &r.TableSize, &at, &notes, &status, &assigned, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if r.ReservationTime, err = parseTime(at); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if r.Status, err = reservation.ParseStatus(status); err != nil {
		return nil, err
	}
	r.Notes = notes.String
	r.AssignedTable = int(assigned.Int64)
	return &r, nil
}

// buildWhere turns a Query into a WHERE clause and its arguments.
func buildWhere(q reservation.Query) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if q.BookRef != "" {
		conds = append(conds, "book_ref = ?")
		args = append(args, q.BookRef)
	}
	if q.Email != "" {
		conds = append(conds, "customer_email = ?")
		args = append(args, q.Email)
	}
	if q.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(q.Status))
	}
	if !q.FromTime.IsZero() {
		conds = append(conds, "reservation_time >= ?")
		args = append(args, formatTime(q.FromTime))
	}
	if !q.ToTime.IsZero() {
		conds = append(conds, "reservation_time <= ?")
		args = append(args, formatTime(q.ToTime))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// FindByQuery returns matching reservations ordered by reservation time.
func (r *ReservationRepository) FindByQuery(ctx context.Context, q reservation.Query) ([]*reservation.Reservation, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	where, args := buildWhere(q)
	query := `SELECT ` + reservationColumns + ` FROM reservation` + where + ` ORDER BY reservation_time, id`
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var out []*reservation.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}
	return out, nil
}

// FindByPublicRef returns reservation.ErrReservationNotFound when no row matches.
func (r *ReservationRepository) FindByPublicRef(ctx context.Context, bookRef string) (*reservation.Reservation, error) {
	found, err := r.FindByQuery(ctx, reservation.NewQuery().WithBookRef(bookRef).WithLimit(1))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, reservation.ErrReservationNotFound
	}
	return found[0], nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id int64) (*reservation.Reservation, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}
	row := conn.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservation WHERE id = ?`, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reservation.ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation %d: %w", id, err)
	}
	return res, nil
}

func (r *ReservationRepository) FindByStatus(ctx context.Context, status reservation.Status) ([]*reservation.Reservation, error) {
	return r.FindByQuery(ctx, reservation.NewQuery().WithStatus(status))
}

// FindByTime returns reservations with from <= reservation_time <= to.
func (r *ReservationRepository) FindByTime(ctx context.Context, from, to time.Time) ([]*reservation.Reservation, error) {
	return r.FindByQuery(ctx, reservation.NewQuery().From(from).To(to))
}

// Save inserts when res.ID is zero and updates by id otherwise.
// A book_ref collision on insert is reported as reservation.ErrDuplicateBookRef.
func (r *ReservationRepository) Save(ctx context.Context, res *reservation.Reservation) (int64, error) {
	conn, err := r.db.conn()
	if err != nil {
		return 0, err
	}

	var assigned interface{}
	if res.AssignedTable > 0 {
		assigned = res.AssignedTable
	}
	var notes interface{}
	if res.Notes != "" {
		notes = res.Notes
	}

	if res.IsNew() {
		result, err := conn.ExecContext(ctx, `
			INSERT INTO reservation (book_ref, restaurant_id, customer_email, customer_name,
				customer_phone, table_size, reservation_time, notes, status, assigned_table,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.BookRef, res.RestaurantID, res.CustomerEmail, res.CustomerName,
			res.CustomerPhone, res.TableSize, formatTime(res.ReservationTime), notes,
			string(res.Status), assigned, formatTime(res.CreatedAt), formatTime(res.UpdatedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return 0, reservation.ErrDuplicateBookRef
			}
			return 0, fmt.Errorf("failed to insert reservation: %w", err)
		}
		return result.LastInsertId()
	}

	result, err := conn.ExecContext(ctx, `
		UPDATE reservation SET
			customer_email = ?, customer_name = ?, customer_phone = ?, table_size = ?,
			reservation_time = ?, notes = ?, status = ?, assigned_table = ?, updated_at = ?
		WHERE id = ?`,
		res.CustomerEmail, res.CustomerName, res.CustomerPhone, res.TableSize,
		formatTime(res.ReservationTime), notes, string(res.Status), assigned,
		formatTime(res.UpdatedAt), res.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to update reservation %d: %w", res.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return 0, reservation.ErrReservationNotFound
	}
	return res.ID, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}
