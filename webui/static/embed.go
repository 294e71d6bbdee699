// Package static holds the default stylesheet and poster compiled into the
// binary. Files in RW_STATIC_DIR take precedence over these.
package static

import (
	"embed"
	"io/fs"
)

// DefaultPoster is served when the configured poster is missing.
const DefaultPoster = "poster.svg"

//go:embed style.css poster.svg
var StaticFS embed.FS

// GetFS returns the embedded filesystem.
func GetFS() fs.FS {
	return StaticFS
}

// ReadFile reads a file from the embedded filesystem.
func ReadFile(name string) ([]byte, error) {
	return StaticFS.ReadFile(name)
}
