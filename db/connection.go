// Package db owns the SQLite database: connections, embedded migrations,
// repositories for admins, restaurants and reservations, the async writer
// used for login bookkeeping, and retention cleanup.
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	// SQLite driver (pure Go, no CGO required)
	_ "modernc.org/sqlite"
)

// ConnectionConfig holds configuration for SQLite connections.
type ConnectionConfig struct {
	Path string
	// BusyTimeout is how long to wait for locks (milliseconds)
	BusyTimeout     int
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConnectionConfig returns WAL-friendly defaults: several readers,
// with SQLite serialising writers behind busy_timeout.
func DefaultConnectionConfig(path string) ConnectionConfig {
	return ConnectionConfig{
		Path:         path,
		BusyTimeout:  5000,
		MaxOpenConns: 8,
		MaxIdleConns: 2,
	}
}

// dsn encodes pragmas into the modernc DSN so every pooled connection gets
// them, not only the first one.
func (c ConnectionConfig) dsn() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(ON)")
	q.Add("_txlock", "immediate")
	return "file:" + c.Path + "?" + q.Encode()
}

// NewSQLiteConnection opens the database, applies pragmas and pool limits,
// and verifies WAL mode is active.
func NewSQLiteConnection(config ConnectionConfig) (*sql.DB, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if config.MaxOpenConns < 1 {
		config.MaxOpenConns = 1
	}

	db, err := sql.Open("sqlite", config.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		db.Close()
		return nil, fmt.Errorf("WAL mode not enabled, got: %s", journalMode)
	}

	return db, nil
}

// NewSQLiteConnectionWithDefaults is NewSQLiteConnection with DefaultConnectionConfig.
func NewSQLiteConnectionWithDefaults(path string) (*sql.DB, error) {
	return NewSQLiteConnection(DefaultConnectionConfig(path))
}
