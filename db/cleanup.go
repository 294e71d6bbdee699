package db

import (
	"context"
	"fmt"
	"time"
)

// CleanupResult reports one retention pass.
type CleanupResult struct {
	ReservationsDeleted int64
	Duration            time.Duration
}

// Cleanup deletes cancelled reservations whose reservation_time is more than
// retentionDays in the past, then runs VACUUM. Active bookings are never
// removed. Sessions are not touched; their expiry is lazy.
func (d *Database) Cleanup(ctx context.Context, retentionDays int) (CleanupResult, error) {
	if retentionDays < 0 {
		return CleanupResult{}, fmt.Errorf("retentionDays must be non-negative, got %d", retentionDays)
	}
	return d.CleanupBefore(ctx, time.Now().AddDate(0, 0, -retentionDays))
}

// CleanupBefore deletes cancelled reservations scheduled before cutoff.
func (d *Database) CleanupBefore(ctx context.Context, cutoff time.Time) (CleanupResult, error) {
	start := time.Now()
	result := CleanupResult{}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	conn, err := d.conn()
	if err != nil {
		return result, err
	}

	res, err := conn.ExecContext(ctx,
		`DELETE FROM reservation WHERE status = 'Cancelled' AND reservation_time < ?`,
		formatTime(cutoff))
	if err != nil {
		return result, fmt.Errorf("failed to delete cancelled reservations: %w", err)
	}
	if result.ReservationsDeleted, err = res.RowsAffected(); err != nil {
		return result, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if result.ReservationsDeleted > 0 {
		// Not fatal: the rows are already gone.
		if _, err := conn.ExecContext(ctx, "VACUUM"); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("cleanup succeeded but VACUUM failed: %w", err)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// CleanupSchedulerConfig configures StartCleanupScheduler.
type CleanupSchedulerConfig struct {
	RetentionDays int
	Interval      time.Duration
	// OnCleanup is called after each run, typically to log the result.
	OnCleanup func(result CleanupResult, err error)
}

// DefaultCleanupSchedulerConfig runs hourly with a 90 day retention.
func DefaultCleanupSchedulerConfig() CleanupSchedulerConfig {
	return CleanupSchedulerConfig{
		RetentionDays: 90,
		Interval:      time.Hour,
	}
}

// StartCleanupScheduler runs Cleanup once immediately and then every
// Interval until ctx is cancelled. The returned channel closes when the
// goroutine exits.
func (d *Database) StartCleanupScheduler(ctx context.Context, config CleanupSchedulerConfig) <-chan struct{} {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	done := make(chan struct{})

	run := func() {
		result, err := d.Cleanup(ctx, config.RetentionDays)
		if config.OnCleanup != nil {
			config.OnCleanup(result, err)
		}
	}

	go func() {
		defer close(done)
		run()

		ticker := time.NewTicker(config.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
	return done
}
