package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/slotbook/libs/db"
)

// Repository reads and writes booking-service tables. Every method takes the
// Querier to run on, so callers decide whether it joins a transaction.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Pool() *db.Pool {
	return r.pool
}

// LockHost serializes booking writes for one host until the surrounding
// transaction ends. Availability must be re-read after taking it.
func (r *Repository) LockHost(ctx context.Context, tx pgx.Tx, hostUserID string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, hostUserID)
	return err
}

// IsConflict reports an exclusion constraint violation (overlapping
// confirmed bookings) or a unique violation.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505")
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsInvalidInput reports malformed ids and similar bad text representations.
func IsInvalidInput(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
