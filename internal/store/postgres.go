// Package store persists canonical records into Postgres. Writes are
// upsert-by-key and each record is a single statement, so one bad row never
// aborts its siblings and replaying a snapshot is idempotent.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hometrics/market-ingester/internal/records"
)

const defaultRecordTimeout = 10 * time.Second

// Postgres wraps a pgx pool shared by all loader workers. The pool supports
// concurrent transactions; conflict resolution is delegated entirely to the
// ON CONFLICT clauses.
type Postgres struct {
	pool          *pgxpool.Pool
	recordTimeout time.Duration
}

// Options tunes the connection pool and per-record statement timeout.
type Options struct {
	MaxConns      int32
	RecordTimeout time.Duration
}

// Connect opens a pool, pings it, and ensures the schema exists. A failure
// here is fatal for the run (StoreUnavailable); per-record failures later
// are not.
func Connect(ctx context.Context, connString string, opts Options) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &Postgres{pool: pool, recordTimeout: opts.RecordTimeout}
	if s.recordTimeout <= 0 {
		s.recordTimeout = defaultRecordTimeout
	}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Pool exposes the underlying pool for read-only collaborators.
func (s *Postgres) Pool() *pgxpool.Pool { return s.pool }

// Close releases the pool.
func (s *Postgres) Close() { s.pool.Close() }

// UpsertListing writes one listing. Inserts when the id is new; on conflict
// only the mutable fields (price, updated_at) change and the rest of the row
// is left untouched.
func (s *Postgres) UpsertListing(ctx context.Context, l records.Listing) error {
	ctx, cancel := context.WithTimeout(ctx, s.recordTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO listings
			(listing_id, date, region, city, property_type, price,
			 tax, sale_type, ownership, bedrooms, bathrooms, sqft)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (listing_id)
		DO UPDATE SET
			price = EXCLUDED.price,
			updated_at = CURRENT_TIMESTAMP`,
		l.ListingID, l.Date, l.Region, l.City, l.PropertyType, l.Price,
		l.Tax, l.SaleType, l.Ownership, l.Bedrooms, l.Bathrooms, l.Sqft,
	)
	return err
}

// UpsertMacroIndicator writes one macro observation keyed by (region, date).
func (s *Postgres) UpsertMacroIndicator(ctx context.Context, m records.MacroIndicator) error {
	ctx, cancel := context.WithTimeout(ctx, s.recordTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO macro_indicators (region, date, mortgage_rate)
		VALUES ($1, $2, $3)
		ON CONFLICT (region, date)
		DO UPDATE SET
			mortgage_rate = EXCLUDED.mortgage_rate,
			updated_at = CURRENT_TIMESTAMP`,
		m.Region, m.Date, m.Value,
	)
	return err
}

// ErrKind buckets per-record write failures for the run summary.
type ErrKind string

const (
	ErrKindNone       ErrKind = ""
	ErrKindConstraint ErrKind = "constraint"
	ErrKindTimeout    ErrKind = "timeout"
	ErrKindWrite      ErrKind = "write"
)

// Classify maps a write error to its kind. Constraint violations are the
// Postgres 23xxx class.
func Classify(err error) ErrKind {
	if err == nil {
		return ErrKindNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23" {
		return ErrKindConstraint
	}
	return ErrKindWrite
}
