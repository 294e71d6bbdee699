package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearConfigEnv unsets every variable LoadConfig reads so the host
// environment cannot leak into a test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"APP_ENV", "DEV_MODE", "RW_REST_HOST", "RW_REST_PORT", "RW_STATIC_DIR",
		"RW_LOG_LEVEL", "RW_LOG_FILE", "RW_SQLITE_URL", "RW_SQLITE_MAX_CONN",
		"RW_RETENTION_DAYS", "RW_ADMIN_USERNAME", "RW_ADMIN_PASSWORD", "RW_ADMIN_EMAIL",
		"RW_ADMIN_PWD_LEN", "RW_REF_CHECK_SECRET", "RW_REF_CHECK_WINDOW",
		"RW_SESSION_STORE", "RW_SESSION_TTL", "RW_REDIS_ADDR", "RW_REDIS_PASSWORD",
		"RW_REDIS_DB", "RW_REDIS_PREFIX", "RW_RESTAURANT_NAME", "RW_RESTAURANT_LOCATION",
		"RW_RESTAURANT_CAPACITY", "RW_POSTER", "RW_CONFIG_FILE", "RW_TRUST_PROXY",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != 3030 {
		t.Errorf("Port = %d, want 3030", cfg.Port)
	}
	if cfg.SQLiteMaxConn != 8 {
		t.Errorf("SQLiteMaxConn = %d, want 8", cfg.SQLiteMaxConn)
	}
	if cfg.Admin.PasswordLen != 16 {
		t.Errorf("Admin.PasswordLen = %d, want 16", cfg.Admin.PasswordLen)
	}
	if cfg.SessionTTL() != 12*time.Hour {
		t.Errorf("SessionTTL() = %v, want 12h", cfg.SessionTTL())
	}
	if cfg.RefCheckWindow() != time.Hour {
		t.Errorf("RefCheckWindow() = %v, want 1h", cfg.RefCheckWindow())
	}
	if cfg.Session.Store != SessionStoreMemory {
		t.Errorf("Session.Store = %q, want %q", cfg.Session.Store, SessionStoreMemory)
	}
	if cfg.IsProduction() {
		t.Error("IsProduction() = true with APP_ENV unset")
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy = true by default")
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("RW_REST_PORT", "8080")
	t.Setenv("RW_SESSION_TTL", "60")
	t.Setenv("RW_ADMIN_USERNAME", "root_admin")
	t.Setenv("RW_TRUST_PROXY", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.SessionTTL() != time.Minute {
		t.Errorf("SessionTTL() = %v, want 1m", cfg.SessionTTL())
	}
	if cfg.Admin.Username != "root_admin" {
		t.Errorf("Admin.Username = %q, want %q", cfg.Admin.Username, "root_admin")
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false with APP_ENV=prod")
	}
	if !cfg.TrustProxy {
		t.Error("TrustProxy = false with RW_TRUST_PROXY=true")
	}
}

func TestLoadConfig_YAMLThenEnvironment(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "ruserwation.yaml")
	content := `port: 4040
restaurant:
  name: Chez Test
  max_capacity: 12
session:
  ttl_seconds: 120
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("RW_CONFIG_FILE", path)
	t.Setenv("RW_REST_PORT", "5050")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != 5050 {
		t.Errorf("Port = %d, want environment value 5050", cfg.Port)
	}
	if cfg.Restaurant.Name != "Chez Test" {
		t.Errorf("Restaurant.Name = %q, want %q", cfg.Restaurant.Name, "Chez Test")
	}
	if cfg.Restaurant.MaxCapacity != 12 {
		t.Errorf("Restaurant.MaxCapacity = %d, want 12", cfg.Restaurant.MaxCapacity)
	}
	if cfg.SessionTTL() != 2*time.Minute {
		t.Errorf("SessionTTL() = %v, want 2m", cfg.SessionTTL())
	}
	// Untouched by either layer.
	if cfg.Restaurant.Poster != "poster.webp" {
		t.Errorf("Restaurant.Poster = %q, want default", cfg.Restaurant.Poster)
	}
}

func TestLoadConfig_MissingYAMLFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("RW_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	configErr, ok := IsConfigError(err)
	if !ok {
		t.Fatalf("LoadConfig() error = %v, want ConfigError", err)
	}
	if configErr.Code != ErrCodeConfigFile {
		t.Errorf("Code = %s, want %s", configErr.Code, ErrCodeConfigFile)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		wantCode string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"port too large", func(c *Config) { c.Port = 70000 }, ErrCodeInvalidValue},
		{"empty sqlite url", func(c *Config) { c.SQLiteURL = "" }, ErrCodeMissingConfig},
		{"in-memory sqlite", func(c *Config) { c.SQLiteURL = "sqlite::memory:" }, ErrCodeInvalidValue},
		{"zero session ttl", func(c *Config) { c.Session.TTLSeconds = 0 }, ErrCodeInvalidValue},
		{"zero ref_check window", func(c *Config) { c.RefCheck.WindowSeconds = 0 }, ErrCodeInvalidValue},
		{"unknown store", func(c *Config) { c.Session.Store = "memcached" }, ErrCodeUnsupportedStore},
		{"redis without addr", func(c *Config) {
			c.Session.Store = SessionStoreRedis
			c.Redis.Addr = ""
		}, ErrCodeMissingConfig},
		{"redis with addr", func(c *Config) { c.Session.Store = SessionStoreRedis }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			configErr, ok := IsConfigError(err)
			if !ok {
				t.Fatalf("Validate() error = %v, want ConfigError", err)
			}
			if configErr.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", configErr.Code, tt.wantCode)
			}
		})
	}
}

func TestConfig_SQLitePath(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"data/app.db", "data/app.db"},
		{"sqlite://data/app.db", "data/app.db"},
		{"sqlite:data/app.db", "data/app.db"},
		{"sqlite::memory:", ":memory:"},
	}
	for _, tt := range tests {
		cfg := &Config{SQLiteURL: tt.url}
		if got := cfg.SQLitePath(); got != tt.want {
			t.Errorf("SQLitePath(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestConfig_EnsureRefCheckSecret(t *testing.T) {
	cfg := DefaultConfig()

	generated, err := cfg.EnsureRefCheckSecret()
	if err != nil {
		t.Fatalf("EnsureRefCheckSecret() error = %v", err)
	}
	if !generated {
		t.Error("EnsureRefCheckSecret() = false for an empty secret")
	}
	if len(cfg.RefCheck.Secret) != 64 {
		t.Errorf("generated secret length = %d, want 64 hex chars", len(cfg.RefCheck.Secret))
	}

	secret := cfg.RefCheck.Secret
	generated, err = cfg.EnsureRefCheckSecret()
	if err != nil || generated {
		t.Errorf("second EnsureRefCheckSecret() = (%v, %v), want (false, nil)", generated, err)
	}
	if cfg.RefCheck.Secret != secret {
		t.Error("EnsureRefCheckSecret() replaced an existing secret")
	}
}
