package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Database manages the SQLite connection pool, migrations and shutdown.
//
//	database, err := NewDatabase(DefaultDatabaseConfig("data/ruserwation.db"), logger)
//	if err != nil {
//	    return err
//	}
//	defer database.Close()
//	if err := database.Migrate(); err != nil {
//	    return err
//	}
type Database struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
	mu     sync.RWMutex
}

// DatabaseConfig configures NewDatabase.
type DatabaseConfig struct {
	Path string
	// ConnectionConfig overrides the connection defaults when non-nil.
	ConnectionConfig *ConnectionConfig
}

func DefaultDatabaseConfig(path string) DatabaseConfig {
	return DatabaseConfig{Path: path}
}

// NewDatabase opens the database, creating the file and its parent
// directories when missing.
func NewDatabase(config DatabaseConfig, logger *zap.Logger) (*Database, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(config.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	connConfig := DefaultConnectionConfig(config.Path)
	if config.ConnectionConfig != nil {
		connConfig = *config.ConnectionConfig
		connConfig.Path = config.Path
	}

	conn, err := NewSQLiteConnection(connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	logger.Debug("database opened",
		zap.String("path", config.Path),
		zap.Int("max_open_conns", connConfig.MaxOpenConns))

	return &Database{db: conn, path: config.Path, logger: logger}, nil
}

// Migrate applies pending embedded migrations over a separate connection,
// since golang-migrate closes the connection it is handed.
func (d *Database) Migrate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := MigrateUpFromPath(d.path); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	version, dirty, err := MigrationVersionFromPath(d.path)
	if err == nil {
		d.logger.Info("database migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}

// DB returns the pool for repositories. Do not close it directly.
func (d *Database) DB() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

func (d *Database) Path() string {
	return d.path
}

// Ping is used by the health endpoint.
func (d *Database) Ping(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return fmt.Errorf("database connection is closed")
	}
	return d.db.PingContext(ctx)
}

// Close closes the pool. Calling it twice is safe.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	d.db = nil
	return nil
}

// conn returns the pool or an error once closed.
func (d *Database) conn() (*sql.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return nil, fmt.Errorf("database connection is closed")
	}
	return d.db, nil
}
