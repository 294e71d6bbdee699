package core

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session store backends accepted by RW_SESSION_STORE.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// MinRefCheckSecretLength is the shortest ref_check secret accepted without a warning.
const MinRefCheckSecretLength = 16

// AdminConfig holds the bootstrap values for the root admin account.
type AdminConfig struct {
	Username    string `env:"RW_ADMIN_USERNAME" yaml:"username"`
	Password    string `env:"RW_ADMIN_PASSWORD" yaml:"password"`
	Email       string `env:"RW_ADMIN_EMAIL" yaml:"email"`
	PasswordLen int    `env:"RW_ADMIN_PWD_LEN" yaml:"password_length"` // length of a generated password
}

// RefCheckConfig configures the reservation form token.
type RefCheckConfig struct {
	Secret        string `env:"RW_REF_CHECK_SECRET" yaml:"secret"`
	WindowSeconds int    `env:"RW_REF_CHECK_WINDOW" yaml:"window_seconds"`
}

// SessionConfig selects and tunes the admin session store.
type SessionConfig struct {
	Store      string `env:"RW_SESSION_STORE" yaml:"store"`
	TTLSeconds int    `env:"RW_SESSION_TTL" yaml:"ttl_seconds"`
}

// RedisConfig is only read when the redis session store is selected.
type RedisConfig struct {
	Addr      string `env:"RW_REDIS_ADDR" yaml:"addr"`
	Password  string `env:"RW_REDIS_PASSWORD" yaml:"password"`
	DB        int    `env:"RW_REDIS_DB" yaml:"db"`
	KeyPrefix string `env:"RW_REDIS_PREFIX" yaml:"key_prefix"`
}

// RestaurantConfig describes the restaurant shown on the public page.
type RestaurantConfig struct {
	Name        string `env:"RW_RESTAURANT_NAME" yaml:"name"`
	Location    string `env:"RW_RESTAURANT_LOCATION" yaml:"location"`
	MaxCapacity int    `env:"RW_RESTAURANT_CAPACITY" yaml:"max_capacity"`
	Poster      string `env:"RW_POSTER" yaml:"poster"`
}

// Config holds all configuration values.
//
// Values are layered: DefaultConfig, then the optional YAML file named by
// RW_CONFIG_FILE, then environment variables. A variable that is not set
// leaves the lower layer untouched.
type Config struct {
	Environment string `env:"APP_ENV" yaml:"app_env"`
	DevMode     bool   `env:"DEV_MODE" yaml:"dev_mode"`

	// HTTP server
	Host      string `env:"RW_REST_HOST" yaml:"host"`
	Port      int    `env:"RW_REST_PORT" yaml:"port"`
	StaticDir string `env:"RW_STATIC_DIR" yaml:"static_dir"`

	// TrustProxy honours X-Forwarded-For and X-Real-IP.
	TrustProxy bool `env:"RW_TRUST_PROXY" yaml:"trust_proxy"`

	// Logging
	LogLevel string `env:"RW_LOG_LEVEL" yaml:"log_level"`
	LogFile  string `env:"RW_LOG_FILE" yaml:"log_file"`

	// Storage
	SQLiteURL     string `env:"RW_SQLITE_URL" yaml:"sqlite_url"`
	SQLiteMaxConn int    `env:"RW_SQLITE_MAX_CONN" yaml:"sqlite_max_conn"`
	RetentionDays int    `env:"RW_RETENTION_DAYS" yaml:"retention_days"`

	Admin      AdminConfig      `yaml:"admin"`
	RefCheck   RefCheckConfig   `yaml:"ref_check"`
	Session    SessionConfig    `yaml:"session"`
	Redis      RedisConfig      `yaml:"redis"`
	Restaurant RestaurantConfig `yaml:"restaurant"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Environment:   "dev",
		Host:          "0.0.0.0",
		Port:          3030,
		StaticDir:     "./static",
		LogLevel:      "info",
		LogFile:       "ruserwation.log",
		SQLiteURL:     "data/ruserwation.db",
		SQLiteMaxConn: 8,
		RetentionDays: 90,
		Admin: AdminConfig{
			Username:    "admin",
			Email:       "admin@localhost",
			PasswordLen: 16,
		},
		RefCheck: RefCheckConfig{
			WindowSeconds: 3600,
		},
		Session: SessionConfig{
			Store:      SessionStoreMemory,
			TTLSeconds: int(DefaultSessionTTL / time.Second),
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "ruserwation:session:",
		},
		Restaurant: RestaurantConfig{
			Name:        "Ruserwation",
			Location:    "Main Street",
			MaxCapacity: 40,
			Poster:      "poster.webp",
		},
	}
}

// LoadEnvFile loads .env.prod when APP_ENV=prod and .env otherwise.
// It returns the file it tried; a missing file is reported as a ConfigError
// that callers may treat as a warning.
func LoadEnvFile() (string, error) {
	name := ".env"
	if os.Getenv("APP_ENV") == "prod" {
		name = ".env.prod"
	}
	if err := godotenv.Load(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return name, ErrEnvFileMissing(name)
		}
		return name, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return name, nil
}

// LoadConfig builds a Config from defaults, the optional YAML file and the
// environment, then validates it.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("RW_CONFIG_FILE"); path != "" {
		if err := cfg.LoadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadYAML overlays the values found in a YAML file onto cfg.
func (c *Config) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrConfigFile(path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return ErrConfigFile(path, err)
	}
	return nil
}

// Validate checks the values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidValue("RW_REST_PORT", fmt.Sprint(c.Port), "must be between 1 and 65535")
	}

	path := c.SQLitePath()
	if path == "" {
		return ErrMissingConfig("RW_SQLITE_URL")
	}
	if path == ":memory:" {
		return ErrInvalidValue("RW_SQLITE_URL", c.SQLiteURL, "in-memory databases cannot run in WAL mode")
	}
	if c.SQLiteMaxConn < 1 {
		return ErrInvalidValue("RW_SQLITE_MAX_CONN", fmt.Sprint(c.SQLiteMaxConn), "must be at least 1")
	}
	if c.RetentionDays < 0 {
		return ErrInvalidValue("RW_RETENTION_DAYS", fmt.Sprint(c.RetentionDays), "must not be negative")
	}

	if c.Session.TTLSeconds <= 0 {
		return ErrInvalidValue("RW_SESSION_TTL", fmt.Sprint(c.Session.TTLSeconds), "must be positive")
	}
	if c.RefCheck.WindowSeconds <= 0 {
		return ErrInvalidValue("RW_REF_CHECK_WINDOW", fmt.Sprint(c.RefCheck.WindowSeconds), "must be positive")
	}

	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.Redis.Addr == "" {
			return ErrMissingConfig("RW_REDIS_ADDR")
		}
	default:
		return ErrUnsupportedStore(c.Session.Store)
	}

	if c.Restaurant.MaxCapacity < 1 {
		return ErrInvalidValue("RW_RESTAURANT_CAPACITY", fmt.Sprint(c.Restaurant.MaxCapacity), "must be at least 1")
	}
	return nil
}

// IsProduction reports whether APP_ENV is "prod". Production turns on Secure cookies.
func (c *Config) IsProduction() bool {
	return c.Environment == "prod"
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SQLitePath strips the optional "sqlite://" or "sqlite:" scheme from RW_SQLITE_URL.
func (c *Config) SQLitePath() string {
	path := strings.TrimSpace(c.SQLiteURL)
	path = strings.TrimPrefix(path, "sqlite://")
	path = strings.TrimPrefix(path, "sqlite:")
	return path
}

// SessionTTL returns the configured session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLSeconds) * time.Second
}

// RefCheckWindow returns the configured ref_check validity window.
func (c *Config) RefCheckWindow() time.Duration {
	return time.Duration(c.RefCheck.WindowSeconds) * time.Second
}

// EnsureRefCheckSecret fills in a random secret when none is configured and
// reports whether it did so. A generated secret lives only as long as the
// process, so tokens handed out before a restart stop validating.
func (c *Config) EnsureRefCheckSecret() (bool, error) {
	if c.RefCheck.Secret != "" {
		return false, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return false, fmt.Errorf("failed to generate ref_check secret: %w", err)
	}
	c.RefCheck.Secret = hex.EncodeToString(buf)
	return true, nil
}
