package reservation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ruserwation/core"
)

// Repository is the persistence the reconciler needs.
type Repository interface {
	// FindByPublicRef returns ErrReservationNotFound when no row matches.
	FindByPublicRef(ctx context.Context, bookRef string) (*Reservation, error)

	// Save inserts when r.ID is zero and updates otherwise, returning the id.
	Save(ctx context.Context, r *Reservation) (int64, error)
}

// TokenChecker validates a ref_check token. *refcheck.Issuer satisfies it.
type TokenChecker interface {
	Check(token string) error
}

// maxInsertAttempts bounds book_ref regeneration on collisions.
const maxInsertAttempts = 3

// Reconciler decides whether a submission is an insert or an owner-checked
// update. Checks run in a fixed order: ref_check, field validation,
// ownership, then the write.
type Reconciler struct {
	repo         Repository
	tokens       TokenChecker
	restaurantID int64
	now          core.Clock
	logger       *zap.Logger
}

// Option customises a Reconciler.
type Option func(*Reconciler)

func WithClock(clock core.Clock) Option {
	return func(r *Reconciler) { r.now = clock }
}

// WithRestaurantID sets the restaurant new bookings are attached to.
func WithRestaurantID(id int64) Option {
	return func(r *Reconciler) { r.restaurantID = id }
}

func NewReconciler(repo Repository, tokens TokenChecker, logger *zap.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reconciler{
		repo:         repo,
		tokens:       tokens,
		restaurantID: 1,
		now:          core.SystemClock,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit validates and persists req. It returns the stored reservation, or
// one of: a refcheck error, *ValidationError, ErrReservationNotFound,
// ErrOwnershipMismatch, or a wrapped storage error.
func (rc *Reconciler) Submit(ctx context.Context, req Request) (*Reservation, error) {
	if err := rc.tokens.Check(req.RefCheck); err != nil {
		rc.logger.Warn("ref_check rejected",
			zap.Error(err),
			zap.Bool("update", req.BookRef != ""))
		return nil, err
	}

	res, err := req.toReservation()
	if err != nil {
		return nil, err
	}

	now := rc.now()
	isUpdate := res.BookRef != ""
	if !isUpdate {
		if res.BookRef, err = GenerateBookRef(BookRefLength); err != nil {
			return nil, err
		}
	}

	if err := Validate(res, now); err != nil {
		rc.logger.Debug("reservation rejected by validation", zap.Error(err))
		return nil, err
	}

	if isUpdate {
		stored, err := rc.repo.FindByPublicRef(ctx, res.BookRef)
		if errors.Is(err, ErrReservationNotFound) {
			rc.logger.Warn("update for unknown reservation", zap.String("book_ref", res.BookRef))
			return nil, ErrReservationNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up reservation %s: %w", res.BookRef, err)
		}
		if stored.CustomerEmail != res.CustomerEmail {
			rc.logger.Warn("reservation update with mismatched email",
				zap.String("book_ref", res.BookRef),
				zap.Int64("reservation_id", stored.ID))
			return nil, ErrOwnershipMismatch
		}
		res.ID = stored.ID
		res.RestaurantID = stored.RestaurantID
		res.AssignedTable = stored.AssignedTable
		res.Status = stored.Status
		res.CreatedAt = stored.CreatedAt
	} else {
		res.RestaurantID = rc.restaurantID
		res.Status = StatusPending
		res.CreatedAt = now
	}
	res.UpdatedAt = now

	if err := rc.save(ctx, res, isUpdate); err != nil {
		return nil, err
	}
	rc.logger.Info("reservation saved",
		zap.Int64("reservation_id", res.ID),
		zap.String("book_ref", res.BookRef),
		zap.Bool("update", isUpdate))
	return res, nil
}

func (rc *Reconciler) save(ctx context.Context, res *Reservation, isUpdate bool) error {
	for attempt := 1; ; attempt++ {
		id, err := rc.repo.Save(ctx, res)
		if err == nil {
			res.ID = id
			return nil
		}
		if isUpdate || !errors.Is(err, ErrDuplicateBookRef) || attempt >= maxInsertAttempts {
			return fmt.Errorf("failed to save reservation: %w", err)
		}
		rc.logger.Debug("book_ref collision, regenerating", zap.Int("attempt", attempt))
		if res.BookRef, err = GenerateBookRef(BookRefLength); err != nil {
			return err
		}
	}
}
