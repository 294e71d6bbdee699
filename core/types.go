package core

import (
	"errors"
	"time"

	"go.uber.org/zap/zapcore"
)

// RootAdminID is the id of the bootstrap administrator row.
const RootAdminID int64 = 1

var (
	ErrAdminNotFound      = errors.New("admin not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
)

// Username identifies an authenticated administrator.
type Username string

func (u Username) String() string { return string(u) }

// Admin is a stored administrator account.
type Admin struct {
	ID int64 `json:"id"`
	// Username is unique across admins.
	Username string `json:"username"`
	// PasswordHash is an argon2id PHC string. Never serialized.
	PasswordHash string `json:"-"`
	Email        string `json:"email"`
	Root         bool   `json:"root"`
	// LastLoginTime is nil until the first successful login.
	LastLoginTime *time.Time `json:"last_login_time,omitempty"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler. The hash is omitted.
func (a Admin) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("id", a.ID)
	enc.AddString("username", a.Username)
	enc.AddString("email", a.Email)
	enc.AddBool("root", a.Root)
	if a.LastLoginTime != nil {
		enc.AddTime("last_login_time", *a.LastLoginTime)
	}
	return nil
}

// Restaurant is the venue shown on the public page.
type Restaurant struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	MaxCapacity int    `json:"max_capacity"`
	Active      bool   `json:"active"`
}

func (r Restaurant) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("id", r.ID)
	enc.AddString("name", r.Name)
	enc.AddString("location", r.Location)
	enc.AddInt("max_capacity", r.MaxCapacity)
	enc.AddBool("active", r.Active)
	return nil
}
