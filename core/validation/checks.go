package validation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ruserwation/core"
)

// ConfigCheck re-validates the loaded configuration.
func ConfigCheck(cfg *core.Config) Check {
	return Check{
		Name: "Configuration",
		Run: func(ctx context.Context) (string, error) {
			if err := cfg.Validate(); err != nil {
				return "", err
			}
			return fmt.Sprintf("listening on %s, %s session store", cfg.Addr(), cfg.Session.Store), nil
		},
	}
}

// DatabaseDirCheck verifies that the directory holding the SQLite file exists
// or can be created, and is writable.
func DatabaseDirCheck(dbPath string) Check {
	return Check{
		Name: "Database Directory",
		Run: func(ctx context.Context) (string, error) {
			dir := filepath.Dir(dbPath)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", fmt.Errorf("cannot create %s: %w", dir, err)
			}
			probe, err := os.CreateTemp(dir, ".rw-probe-*")
			if err != nil {
				return "", fmt.Errorf("%s is not writable: %w", dir, err)
			}
			name := probe.Name()
			probe.Close()
			os.Remove(name)
			return dir, nil
		},
	}
}

// RefCheckSecretCheck warns when the ref_check secret was generated for this
// process or is shorter than core.MinRefCheckSecretLength.
func RefCheckSecretCheck(secret string, generated bool) Check {
	return Check{
		Name:    "Reservation Token Secret",
		Warning: true,
		Run: func(ctx context.Context) (string, error) {
			if generated {
				return "generated at startup", errors.New("set RW_REF_CHECK_SECRET so tokens survive restarts")
			}
			if len(secret) < core.MinRefCheckSecretLength {
				return "", fmt.Errorf("RW_REF_CHECK_SECRET is shorter than %d characters", core.MinRefCheckSecretLength)
			}
			return "configured", nil
		},
	}
}

// SessionStoreCheck pings the session store backend. It is skipped for the
// in-memory store.
func SessionStoreCheck(kind string, ping func(ctx context.Context) error) Check {
	return Check{
		Name: "Session Store",
		Skip: func() string {
			if kind == core.SessionStoreMemory || ping == nil {
				return "in-memory store"
			}
			return ""
		},
		Run: func(ctx context.Context) (string, error) {
			if err := ping(ctx); err != nil {
				return "", fmt.Errorf("%s store unreachable: %w", kind, err)
			}
			return kind + " reachable", nil
		},
	}
}
