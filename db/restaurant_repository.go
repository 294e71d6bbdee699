package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ruserwation/core"
)

// RestaurantRepository reads and writes the restaurant table.
type RestaurantRepository struct {
	db *Database
}

func NewRestaurantRepository(db *Database) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

// FindByID returns core.ErrRestaurantNotFound when no row matches.
func (r *RestaurantRepository) FindByID(ctx context.Context, id int64) (*core.Restaurant, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}
	var rest core.Restaurant
	err = conn.QueryRowContext(ctx,
		`SELECT id, name, location, max_capacity, active FROM restaurant WHERE id = ?`, id,
	).Scan(&rest.ID, &rest.Name, &rest.Location, &rest.MaxCapacity, &rest.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRestaurantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load restaurant %d: %w", id, err)
	}
	return &rest, nil
}

// Upsert writes rest under its ID, inserting or replacing the row.
func (r *RestaurantRepository) Upsert(ctx context.Context, rest *core.Restaurant) error {
	if rest.ID == 0 {
		return fmt.Errorf("restaurant id is required")
	}
	conn, err := r.db.conn()
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, `
		INSERT INTO restaurant (id, name, location, max_capacity, active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			location = excluded.location,
			max_capacity = excluded.max_capacity,
			active = excluded.active`,
		rest.ID, rest.Name, rest.Location, rest.MaxCapacity, rest.Active)
	if err != nil {
		return fmt.Errorf("failed to save restaurant %d: %w", rest.ID, err)
	}
	return nil
}
