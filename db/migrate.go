package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp applies all pending migrations. ErrNoChange is not an error.
//
// The migrator takes ownership of db and closes it.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrateUpFromPath opens its own connection to dbPath and migrates it.
func MigrateUpFromPath(dbPath string) error {
	db, err := NewSQLiteConnection(migrationConnConfig(dbPath))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	return MigrateUp(db)
}

// MigrateDownFromPath rolls back steps migrations, or all of them when steps is -1.
func MigrateDownFromPath(dbPath string, steps int) error {
	db, err := NewSQLiteConnection(migrationConnConfig(dbPath))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	m, err := newMigrator(db)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if steps == -1 {
		err = m.Down()
	} else {
		err = m.Steps(-steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// MigrationVersionFromPath returns the applied version and dirty flag.
// A fresh database reports version 0.
func MigrationVersionFromPath(dbPath string) (uint, bool, error) {
	db, err := NewSQLiteConnection(migrationConnConfig(dbPath))
	if err != nil {
		return 0, false, fmt.Errorf("failed to open database: %w", err)
	}
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

func migrationConnConfig(dbPath string) ConnectionConfig {
	cfg := DefaultConnectionConfig(dbPath)
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	return cfg
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{DatabaseName: "main"})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
