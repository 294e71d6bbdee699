package core

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SessionIDLength is the number of random bytes behind a session id (256 bits).
const SessionIDLength = 32

// GenerateSessionID returns a URL-safe, unpadded base64 encoding of
// SessionIDLength bytes from crypto/rand.
func GenerateSessionID() (string, error) {
	buf := make([]byte, SessionIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ShortID returns the first 8 characters of a session id for log output.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
