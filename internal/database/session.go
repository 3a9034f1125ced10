package database

import (
	"context"
	"database/sql"
)

// Session is one unit of interaction with the database, bound to a single
// pooled connection.  It is not safe for concurrent use.
type Session struct {
	conn     *sql.Conn
	db       *DB
	released bool
}

// Probe runs SELECT 1 on the session's connection.
func (s *Session) Probe(ctx context.Context) error {
	var one int
	return s.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// Close returns the connection to the pool.  Calling it twice is a no-op.
func (s *Session) Close() error {
	if s.released {
		return nil
	}
	s.released = true
	s.db.sessions.Add(-1)
	return s.conn.Close()
}
