package auth

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"ruserwation/core"
)

// AdminLookup is satisfied by *db.AdminRepository.
type AdminLookup interface {
	FindByUsername(ctx context.Context, username string) (*core.Admin, error)
}

// PasswordUpdater is implemented by stores that can replace a stored hash.
// When the lookup also implements it, hashes made with weaker parameters are
// upgraded on the next successful login.
type PasswordUpdater interface {
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

// CredentialVerifier checks admin usernames and passwords against stored
// argon2id hashes.
type CredentialVerifier struct {
	admins AdminLookup
	logger *zap.Logger
	target Params

	dummyOnce sync.Once
	dummyHash string
}

// VerifierOption configures a CredentialVerifier.
type VerifierOption func(*CredentialVerifier)

// WithRehashParams sets the parameters stored hashes are upgraded to.
// The default is DefaultParams.
func WithRehashParams(p Params) VerifierOption {
	return func(v *CredentialVerifier) { v.target = p }
}

// NewCredentialVerifier creates a verifier.
func NewCredentialVerifier(admins AdminLookup, logger *zap.Logger, opts ...VerifierOption) *CredentialVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &CredentialVerifier{admins: admins, logger: logger, target: DefaultParams}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// dummy returns a hash to verify against when the user does not exist, so
// unknown and known usernames take about the same time.
func (v *CredentialVerifier) dummy() string {
	v.dummyOnce.Do(func() {
		hash, err := HashPassword("ruserwation-timing-equaliser")
		if err != nil {
			v.logger.Error("failed to build dummy hash", zap.Error(err))
			return
		}
		v.dummyHash = hash
	})
	return v.dummyHash
}

// Authenticate returns the admin for a matching username and password, or
// ErrInvalidCredentials. Lookup failures other than not-found are returned
// wrapped.
func (v *CredentialVerifier) Authenticate(ctx context.Context, username, password string) (*core.Admin, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	admin, err := v.admins.FindByUsername(ctx, username)
	if errors.Is(err, core.ErrAdminNotFound) {
		VerifyPassword(password, v.dummy())
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !IsValidHash(admin.PasswordHash) {
		v.logger.Error("stored password hash is unusable", zap.Int64("admin_id", admin.ID))
		VerifyPassword(password, v.dummy())
		return nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(password, admin.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	v.upgradeHash(ctx, admin, password)
	return admin, nil
}

// upgradeHash rehashes password with the target parameters when the stored
// hash is weaker. Failures are logged; the login still succeeds.
func (v *CredentialVerifier) upgradeHash(ctx context.Context, admin *core.Admin, password string) {
	updater, ok := v.admins.(PasswordUpdater)
	if !ok || !NeedsRehash(admin.PasswordHash, v.target) {
		return
	}
	hash, err := HashPasswordWithParams(password, v.target)
	if err != nil {
		v.logger.Warn("failed to rehash password", zap.Int64("admin_id", admin.ID), zap.Error(err))
		return
	}
	if err := updater.UpdatePasswordHash(ctx, admin.ID, hash); err != nil {
		v.logger.Warn("failed to store upgraded password hash", zap.Int64("admin_id", admin.ID), zap.Error(err))
		return
	}
	admin.PasswordHash = hash
	v.logger.Info("upgraded password hash parameters", zap.Int64("admin_id", admin.ID))
}

// VerifyUser reports whether username exists and password matches.
func (v *CredentialVerifier) VerifyUser(ctx context.Context, username, password string) bool {
	admin, err := v.Authenticate(ctx, username, password)
	return err == nil && admin != nil
}

// UserExists reports whether an admin called username exists. Lookup errors
// count as absent.
func (v *CredentialVerifier) UserExists(ctx context.Context, username string) bool {
	_, err := v.admins.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, core.ErrAdminNotFound) {
		v.logger.Warn("admin lookup failed", zap.Error(err))
	}
	return err == nil
}
