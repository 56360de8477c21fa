package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists request records in PostgreSQL.
// Expired rows are invisible to reads and removed by PurgeExpired.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
	now    func() time.Time
}

var (
	_ Store  = (*PostgresStore)(nil)
	_ Purger = (*PostgresStore)(nil)
)

// StoreOption configures PostgresStore.
type StoreOption func(*PostgresStore) error

// WithSchema sets the DB schema used by the store (default: "resumegate").
func WithSchema(schema string) StoreOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return ErrInvalidInput
		}
		s.schema = schema
		return nil
	}
}

// WithPostgresClock overrides the clock used for expiry checks (tests).
func WithPostgresClock(now func() time.Time) StoreOption {
	return func(s *PostgresStore) error {
		if now == nil {
			return ErrInvalidInput
		}
		s.now = now
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...StoreOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "resumegate",
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, ErrInvalidInput
	}
	return st, nil
}

// Close is a no-op: the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

// Ping checks that a connection can be acquired.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the schema and table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	table := s.table()
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
CREATE SCHEMA IF NOT EXISTS %s;

CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  decided_at TIMESTAMPTZ NULL,
  requester_name TEXT NOT NULL,
  requester_email TEXT NOT NULL,
  requester_company TEXT NOT NULL,
  requester_reason TEXT NOT NULL,
  expires_at TIMESTAMPTZ NOT NULL,
  CONSTRAINT chk_resume_requests_status CHECK (status IN ('pending', 'approved', 'denied'))
);

CREATE INDEX IF NOT EXISTS idx_resume_requests_expires_at ON %s (expires_at);
`, pgx.Identifier{s.schema}.Sanitize(), table, table))
	return err
}

// Put upserts rec; expiry restarts at now+ttl.
func (s *PostgresStore) Put(ctx context.Context, rec Record, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validRecord(rec) || ttl <= 0 {
		return ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (
		     id, status, created_at, decided_at,
		     requester_name, requester_email, requester_company, requester_reason,
		     expires_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE
		    SET status = EXCLUDED.status,
		        created_at = EXCLUDED.created_at,
		        decided_at = EXCLUDED.decided_at,
		        requester_name = EXCLUDED.requester_name,
		        requester_email = EXCLUDED.requester_email,
		        requester_company = EXCLUDED.requester_company,
		        requester_reason = EXCLUDED.requester_reason,
		        expires_at = EXCLUDED.expires_at`,
		rec.ID,
		string(rec.Status),
		rec.CreatedAt,
		rec.DecidedAt,
		rec.Requester.Name,
		rec.Requester.Email,
		rec.Requester.Company,
		rec.Requester.Reason,
		s.now().Add(ttl),
	)
	return err
}

// Get fetches a live record by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrInvalidInput
	}

	var (
		out    Record
		status string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, created_at, decided_at,
		        requester_name, requester_email, requester_company, requester_reason
		   FROM `+s.table()+`
		  WHERE id = $1
		    AND expires_at > $2`,
		id,
		s.now(),
	).Scan(
		&out.ID,
		&status,
		&out.CreatedAt,
		&out.DecidedAt,
		&out.Requester.Name,
		&out.Requester.Email,
		&out.Requester.Company,
		&out.Requester.Reason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	out.Status = Status(status)
	return out, nil
}

// PutIfStatus moves the record to next.Status while the stored status equals expected.
// Requester fields and expiry are left untouched.
func (s *PostgresStore) PutIfStatus(ctx context.Context, id string, expected Status, next Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" || next.ID != id || !validRecord(next) {
		return ErrInvalidInput
	}

	var got string
	err := s.pool.QueryRow(ctx,
		`UPDATE `+s.table()+`
		    SET status = $1,
		        decided_at = $2
		  WHERE id = $3
		    AND status = $4
		    AND expires_at > $5
		RETURNING id`,
		string(next.Status),
		next.DecidedAt,
		id,
		string(expected),
		s.now(),
	).Scan(&got)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	// Distinguish not-found vs status mismatch.
	if _, selErr := s.Get(ctx, id); selErr != nil {
		return selErr
	}
	return ErrConflict
}

// PurgeExpired deletes rows whose retention window has elapsed.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "resume_requests"}.Sanitize()
}
