package validation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ruserwation/core"
)

// MinDatabaseFreeSpace is the free space below which DiskSpaceCheck warns.
const MinDatabaseFreeSpace = 64 * core.BytesPerMB

// DiskSpaceInfo describes the filesystem holding a path.
type DiskSpaceInfo struct {
	Path  string
	Total int64
	Free  int64
}

// Used returns the bytes in use.
func (i DiskSpaceInfo) Used() int64 {
	return i.Total - i.Free
}

// DiskSpaceError is returned when less than Required bytes are free.
type DiskSpaceError struct {
	Path      string
	Required  int64
	Available int64
}

func (e *DiskSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space at %s: need %s, have %s free",
		e.Path, core.FormatBytes(e.Required), core.FormatBytes(e.Available))
}

// GetDiskSpace reports the filesystem holding path. Missing path elements
// are skipped, so the database file need not exist yet.
func GetDiskSpace(path string) (*DiskSpaceInfo, error) {
	dir, err := existingDir(path)
	if err != nil {
		return nil, err
	}
	total, free, err := getDiskSpace(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk space for %s: %w", dir, err)
	}
	return &DiskSpaceInfo{Path: dir, Total: total, Free: free}, nil
}

// CheckDiskSpace returns a *DiskSpaceError when fewer than requiredBytes are free.
func CheckDiskSpace(path string, requiredBytes int64) error {
	info, err := GetDiskSpace(path)
	if err != nil {
		return err
	}
	if info.Free < requiredBytes {
		return &DiskSpaceError{Path: info.Path, Required: requiredBytes, Available: info.Free}
	}
	return nil
}

// DiskSpaceCheck warns when the database filesystem is nearly full.
func DiskSpaceCheck(dbPath string, requiredBytes int64) Check {
	return Check{
		Name:    "Disk Space",
		Warning: true,
		Run: func(ctx context.Context) (string, error) {
			info, err := GetDiskSpace(dbPath)
			if err != nil {
				return "", err
			}
			msg := fmt.Sprintf("%s free of %s", core.FormatBytes(info.Free), core.FormatBytes(info.Total))
			if info.Free < requiredBytes {
				return msg, &DiskSpaceError{Path: info.Path, Required: requiredBytes, Available: info.Free}
			}
			return msg, nil
		},
	}
}

// existingDir walks up from path to the nearest directory that exists.
func existingDir(path string) (string, error) {
	p, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", path, err)
	}
	for {
		info, err := os.Stat(p)
		switch {
		case err == nil && info.IsDir():
			return p, nil
		case err != nil && !os.IsNotExist(err):
			return "", fmt.Errorf("cannot access %s: %w", p, err)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", fmt.Errorf("no existing directory above %s", path)
		}
		p = parent
	}
}
