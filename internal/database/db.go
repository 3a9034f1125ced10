// Package database owns the process-wide Postgres handle and lends
// request-scoped sessions from it.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/freeflow/safecollab-api/internal/config"
)

// ErrUnsupportedDriver is returned by Open for a driver other than "pgx" or
// "postgres".
var ErrUnsupportedDriver = errors.New("unsupported database driver")

var drivers = map[string]bool{
	"pgx":      true, // github.com/jackc/pgx/v5/stdlib
	"postgres": true, // github.com/lib/pq
}

// DB is the shared connection resource.  It is safe for concurrent use.
type DB struct {
	pool     *sql.DB
	openErr  error
	sessions atomic.Int64
}

// Open builds the shared handle from cfg without dialing the server.  A
// connection string the driver cannot parse does not fail Open; the error is
// returned from every session acquisition instead.
func Open(cfg config.DBConfig) (*DB, error) {
	if !drivers[cfg.Driver] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	pool, err := sql.Open(cfg.Driver, cfg.URL())
	if err != nil {
		return &DB{openErr: err}, nil
	}

	// Pool settings
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return New(pool), nil
}

// New wraps an already opened pool.
func New(pool *sql.DB) *DB {
	return &DB{pool: pool}
}

// Session acquires a dedicated connection from the pool.  The caller must
// Close it; prefer WithSession.
func (d *DB) Session(ctx context.Context) (*Session, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	conn, err := d.pool.Conn(ctx)
	if err != nil {
		return nil, err
	}
	d.sessions.Add(1)
	return &Session{conn: conn, db: d}, nil
}

// WithSession runs fn with a fresh session and releases the session on every
// exit path, including a panic in fn.
func (d *DB) WithSession(ctx context.Context, fn func(*Session) error) (err error) {
	s, err := d.Session(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// Probe checks that a session can be opened and answers a trivial query.
func (d *DB) Probe(ctx context.Context) error {
	return d.WithSession(ctx, func(s *Session) error {
		return s.Probe(ctx)
	})
}

// OpenSessions reports how many sessions are currently lent out.
func (d *DB) OpenSessions() int64 {
	return d.sessions.Load()
}

// Stats returns the pool statistics, or zero values when the pool could not
// be opened.
func (d *DB) Stats() sql.DBStats {
	if d.pool == nil {
		return sql.DBStats{}
	}
	return d.pool.Stats()
}

// Close releases the pool.  It is called once at shutdown.
func (d *DB) Close() error {
	if d.pool == nil {
		return nil
	}
	return d.pool.Close()
}
