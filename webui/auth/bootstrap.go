package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"ruserwation/core"
)

// Bounds for generated root passwords.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 32

	fallbackUsername = "admin"
	fallbackEmail    = "admin@localhost"
	passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+(\.[a-zA-Z]{2,})?$`)
)

// AdminStore is satisfied by *db.AdminRepository.
type AdminStore interface {
	FindByID(ctx context.Context, id int64) (*core.Admin, error)
	Save(ctx context.Context, a *core.Admin) (int64, error)
}

// EnsureRootAdmin creates the root admin (id core.RootAdminID) from cfg when
// it does not exist. A generated password is printed to out once. When the
// root admin already exists only its last login is logged.
func EnsureRootAdmin(ctx context.Context, store AdminStore, cfg core.AdminConfig, out io.Writer, logger *zap.Logger) (*core.Admin, error) {
	existing, err := store.FindByID(ctx, core.RootAdminID)
	if err == nil {
		if existing.LastLoginTime != nil {
			logger.Info("root admin present", zap.String("username", existing.Username), zap.Time("last_login", *existing.LastLoginTime))
		} else {
			logger.Info("root admin present, never logged in", zap.String("username", existing.Username))
		}
		return existing, nil
	}
	if !errors.Is(err, core.ErrAdminNotFound) {
		return nil, fmt.Errorf("failed to look up root admin: %w", err)
	}

	username := SanitizeUsername(cfg.Username)
	email := SanitizeEmail(cfg.Email)

	password := cfg.Password
	generated := false
	if len(stripSpace(password)) < MinPasswordLength {
		password, err = GeneratePassword(cfg.PasswordLen)
		if err != nil {
			return nil, err
		}
		generated = true
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash root password: %w", err)
	}

	admin := &core.Admin{
		ID:           core.RootAdminID,
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Root:         true,
	}
	if _, err := store.Save(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create root admin: %w", err)
	}

	logger.Info("root admin created", zap.Object("admin", admin), zap.Bool("generated_password", generated))
	if generated && out != nil {
		printGeneratedPassword(out, username, password)
	}
	return admin, nil
}

// SanitizeUsername returns name if it is 3-32 characters of letters, digits,
// '_' or '-', and "admin" otherwise.
func SanitizeUsername(name string) string {
	name = strings.TrimSpace(name)
	if usernamePattern.MatchString(name) {
		return name
	}
	return fallbackUsername
}

// SanitizeEmail returns email if it looks like an address, and
// "admin@localhost" otherwise.
func SanitizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if emailPattern.MatchString(email) {
		return email
	}
	return fallbackEmail
}

// GeneratePassword returns a random alphanumeric password. length is clamped
// to [MinPasswordLength, MaxPasswordLength].
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		length = MinPasswordLength
	}
	if length > MaxPasswordLength {
		length = MaxPasswordLength
	}

	limit := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func printGeneratedPassword(out io.Writer, username, password string) {
	warn := color.New(color.FgYellow, color.Bold)
	warn.Fprintln(out, "━━━ Root admin created ━━━")
	fmt.Fprintf(out, "  username: %s\n", username)
	fmt.Fprint(out, "  password: ")
	color.New(color.FgGreen, color.Bold).Fprintln(out, password)
	color.New(color.FgHiBlack).Fprintln(out, "  This password is shown once. Set RW_ADMIN_PASSWORD to choose your own.")
}
