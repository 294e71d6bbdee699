// Package refcheck implements the ref_check token: a stateless, timestamped
// HMAC-SHA256 signature that authorizes one anonymous reservation submission
// for a bounded window after the booking form was rendered.
//
// Wire form:
//
//	<unix_ts>:<base64(HMAC-SHA256(key=secret, msg=secret + ":" + unix_ts))>
package refcheck

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"ruserwation/core"
)

// DefaultWindow is how long a token stays valid, in either direction of now.
const DefaultWindow = time.Hour

// ClientMessage is the only detail returned to clients on any token failure.
const ClientMessage = "The reservation request is either invalid or has expired."

var (
	ErrInvalidSecret    = errors.New("ref_check secret is empty")
	ErrInvalidFormat    = errors.New("ref_check token must have exactly two parts")
	ErrInvalidTimestamp = errors.New("ref_check timestamp is not an integer")
	ErrExpired          = errors.New("ref_check token is outside the validity window")
	ErrInvalidSignature = errors.New("ref_check signature mismatch")
)

// IsTokenError reports whether err is one of the token validation errors.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrInvalidTimestamp) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrInvalidSecret)
}

func sign(secret string, ts int64) []byte {
	stamp := strconv.FormatInt(ts, 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(secret + ":" + stamp))
	return mac.Sum(nil)
}

// Generate returns the token for secret at unix time ts.
func Generate(secret string, ts int64) (string, error) {
	if secret == "" {
		return "", ErrInvalidSecret
	}
	return strconv.FormatInt(ts, 10) + ":" + base64.StdEncoding.EncodeToString(sign(secret, ts)), nil
}

// Validate checks token against secret at the current time.
func Validate(token, secret string, window time.Duration) error {
	return ValidateAt(token, secret, window, time.Now())
}

// ValidateAt checks, in order: shape, timestamp, window, then signature.
// Each failure returns its own sentinel so the server can log which check
// failed; clients only ever see ClientMessage. Signature decoding is
// strict so altered padding bits do not decode to the same digest.
func ValidateAt(token, secret string, window time.Duration, now time.Time) error {
	if secret == "" {
		return ErrInvalidSecret
	}

	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return ErrInvalidFormat
	}

	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}

	if !withinWindow(ts, now.Unix(), window) {
		return ErrExpired
	}

	got, err := base64.StdEncoding.Strict().DecodeString(parts[1])
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(got, sign(secret, ts)) {
		return ErrInvalidSignature
	}
	return nil
}

// withinWindow reports whether |now - ts| <= window. The distance is taken
// in uint64 so extreme timestamps cannot wrap around into the window.
func withinWindow(ts, now int64, window time.Duration) bool {
	if window < 0 {
		return false
	}
	var dist uint64
	if ts <= now {
		dist = uint64(now) - uint64(ts)
	} else {
		dist = uint64(ts) - uint64(now)
	}
	return dist <= uint64(window/time.Second)
}

// Issuer binds a secret, window and clock for the HTTP layer.
type Issuer struct {
	secret string
	window time.Duration
	now    core.Clock
}

// NewIssuer returns an Issuer. A nil clock uses the system clock and a
// negative window is treated as zero.
func NewIssuer(secret string, window time.Duration, clock core.Clock) (*Issuer, error) {
	if secret == "" {
		return nil, ErrInvalidSecret
	}
	if clock == nil {
		clock = core.SystemClock
	}
	if window < 0 {
		window = 0
	}
	return &Issuer{secret: secret, window: window, now: clock}, nil
}

// Issue returns a token stamped with the issuer's current time.
func (i *Issuer) Issue() (string, error) {
	return Generate(i.secret, i.now().Unix())
}

// Check validates token against the issuer's current time.
func (i *Issuer) Check(token string) error {
	return ValidateAt(token, i.secret, i.window, i.now())
}

// Window returns the configured validity window.
func (i *Issuer) Window() time.Duration { return i.window }
