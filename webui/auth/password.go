// Package auth authenticates the restaurant admin: password hashing,
// credential verification, sessions, cookies and the login/logout handlers.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params are the argon2id cost parameters encoded into every hash.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams matches the argon2 crate defaults the stored hashes were
// created with: 64 MiB, one pass, four lanes.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  1,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

var (
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrPasswordMismatch does not say whether the hash itself was usable.
	ErrPasswordMismatch = errors.New("password does not match")

	ErrInvalidHash = errors.New("invalid password hash format")

	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// HashPassword hashes password with DefaultParams.
func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, DefaultParams)
}

// HashPasswordWithParams returns a PHC string:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func HashPasswordWithParams(password string, p Params) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword returns nil when password matches hash, ErrPasswordMismatch
// when it does not, and a parse error when hash is malformed.
func VerifyPassword(password, hash string) error {
	p, salt, key, err := DecodeHash(hash)
	if err != nil {
		return err
	}

	other := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	if subtle.ConstantTimeCompare(key, other) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// DecodeHash parses a PHC argon2id string.
func DecodeHash(hash string) (Params, []byte, []byte, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return Params{}, nil, nil, ErrIncompatibleVersion
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}

// IsValidHash reports whether hash parses as argon2id.
func IsValidHash(hash string) bool {
	_, _, _, err := DecodeHash(hash)
	return err == nil
}

// NeedsRehash reports whether hash was made with weaker parameters than target.
func NeedsRehash(hash string, target Params) bool {
	p, _, _, err := DecodeHash(hash)
	if err != nil {
		return true
	}
	return p.Memory < target.Memory || p.Iterations < target.Iterations || p.KeyLength < target.KeyLength
}
