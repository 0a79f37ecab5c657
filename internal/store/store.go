// Package store persists resources, bookings, events and users in SQLite.
//
// Functions that must compose into a larger transaction take a Querier,
// which both *sql.DB and *sql.Tx satisfy.
package store

import (
	"context"
	"database/sql"
	"time"
)

// Querier is the subset of *sql.DB and *sql.Tx used by the store.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func unix(t time.Time) int64 { return t.Unix() }

func fromUnix(s int64) time.Time { return time.Unix(s, 0).UTC() }
