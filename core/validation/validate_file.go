package validation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileExistsError reports a path that is missing or is not a regular file.
type FileExistsError struct {
	Path    string
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// CheckFileExists returns a *FileExistsError unless path is a regular file.
func CheckFileExists(path string) error {
	if path == "" {
		return &FileExistsError{Path: path, Message: "file path cannot be empty"}
	}
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return &FileExistsError{Path: path, Message: fmt.Sprintf("file not found: %s", path)}
	case err != nil:
		return &FileExistsError{Path: path, Message: fmt.Sprintf("error checking file %s: %v", path, err)}
	case info.IsDir():
		return &FileExistsError{Path: path, Message: fmt.Sprintf("path is a directory, not a file: %s", path)}
	}
	return nil
}

// StaticAssetsCheck warns when the poster is missing from the static
// directory. The server then falls back to its embedded poster.
func StaticAssetsCheck(staticDir, poster string) Check {
	return Check{
		Name:    "Static Assets",
		Warning: true,
		Run: func(ctx context.Context) (string, error) {
			info, err := os.Stat(staticDir)
			if err != nil || !info.IsDir() {
				return "embedded assets only", fmt.Errorf("static directory %s not found", staticDir)
			}
			if poster == "" {
				return staticDir, nil
			}
			if err := CheckFileExists(filepath.Join(staticDir, poster)); err != nil {
				return "embedded poster used", err
			}
			return filepath.Join(staticDir, poster), nil
		},
	}
}
