package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ruserwation/core"
)

// timeLayout stores timestamps as sortable UTC text, the same shape as
// SQLite's datetime().
const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

// AdminRepository reads and writes the admin table.
type AdminRepository struct {
	db *Database
}

func NewAdminRepository(db *Database) *AdminRepository {
	return &AdminRepository{db: db}
}

const adminColumns = `id, username, password, email, root, last_login_time`

func scanAdmin(row interface{ Scan(...interface{}) error }) (*core.Admin, error) {
	var (
		a         core.Admin
		lastLogin sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Email, &a.Root, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to scan admin: %w", err)
	}
	if lastLogin.Valid {
		t, err := parseTime(lastLogin.String)
		if err != nil {
			return nil, err
		}
		a.LastLoginTime = &t
	}
	return &a, nil
}

// FindByID returns core.ErrAdminNotFound when no row matches.
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*core.Admin, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}
	row := conn.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admin WHERE id = ?`, id)
	return scanAdmin(row)
}

// FindByUsername returns core.ErrAdminNotFound when no row matches.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*core.Admin, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}
	row := conn.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admin WHERE username = ?`, username)
	return scanAdmin(row)
}

// Save inserts a new admin when ID is zero. A non-zero ID is inserted with
// that id or, if the row exists, updated in place.
func (r *AdminRepository) Save(ctx context.Context, a *core.Admin) (int64, error) {
	conn, err := r.db.conn()
	if err != nil {
		return 0, err
	}

	var lastLogin interface{}
	if a.LastLoginTime != nil {
		lastLogin = formatTime(*a.LastLoginTime)
	}

	if a.ID == 0 {
		res, err := conn.ExecContext(ctx,
			`INSERT INTO admin (username, password, email, root, last_login_time) VALUES (?, ?, ?, ?, ?)`,
			a.Username, a.PasswordHash, a.Email, a.Root, lastLogin)
		if err != nil {
			return 0, fmt.Errorf("failed to insert admin: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read admin id: %w", err)
		}
		a.ID = id
		return id, nil
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO admin (id, username, password, email, root, last_login_time)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			password = excluded.password,
			email = excluded.email,
			root = excluded.root,
			last_login_time = excluded.last_login_time`,
		a.ID, a.Username, a.PasswordHash, a.Email, a.Root, lastLogin)
	if err != nil {
		return 0, fmt.Errorf("failed to save admin %d: %w", a.ID, err)
	}
	return a.ID, nil
}

// UpdateLastLogin stamps an admin's last successful login.
func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	conn, err := r.db.conn()
	if err != nil {
		return err
	}
	res, err := conn.ExecContext(ctx, `UPDATE admin SET last_login_time = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrAdminNotFound
	}
	return nil
}

// UpdatePasswordHash replaces an admin's stored password hash.
func (r *AdminRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	conn, err := r.db.conn()
	if err != nil {
		return err
	}
	res, err := conn.ExecContext(ctx, `UPDATE admin SET password = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrAdminNotFound
	}
	return nil
}

// LastLoginUpdate is queued on the AsyncWriter after a successful login.
type LastLoginUpdate struct {
	AdminID int64
	At      time.Time
}

// AsyncWriteHandler applies queued LastLoginUpdate operations.
func (r *AdminRepository) AsyncWriteHandler(logger *zap.Logger) WriteHandler {
	return func(op WriteOperation) error {
		update, ok := op.Data.(LastLoginUpdate)
		if !ok {
			return fmt.Errorf("unsupported async operation %T", op.Data)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.UpdateLastLogin(ctx, update.AdminID, update.At); err != nil {
			logger.Warn("failed to record last login",
				zap.Int64("admin_id", update.AdminID),
				zap.Duration("queued_for", time.Since(op.Timestamp)),
				zap.Error(err))
			return err
		}
		return nil
	}
}
