package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// Booking intervals are stored as unix seconds so that interval filters
// compare integers rather than formatted timestamps.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'attendee' CHECK (role IN ('admin', 'organizer', 'attendee')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS resources (
    id                 INTEGER PRIMARY KEY,
    name               TEXT NOT NULL,
    category           TEXT NOT NULL CHECK (category IN ('Audio', 'Video', 'Furniture', 'Technical', 'Venue', 'Other')),
    description        TEXT,
    location           TEXT,
    total_quantity     INTEGER NOT NULL CHECK (total_quantity >= 1),
    available_quantity INTEGER NOT NULL CHECK (available_quantity >= 0 AND available_quantity <= total_quantity),
    image              BLOB,
    image_mime         TEXT,
    created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS bookings (
    id          INTEGER PRIMARY KEY,
    resource_id INTEGER NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
    event_id    INTEGER NOT NULL,
    quantity    INTEGER NOT NULL CHECK (quantity >= 1),
    start_at    INTEGER NOT NULL,
    end_at      INTEGER NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK (start_at < end_at)
);

CREATE INDEX IF NOT EXISTS idx_bookings_resource_end ON bookings(resource_id, end_at);
CREATE INDEX IF NOT EXISTS idx_bookings_event ON bookings(event_id);

CREATE TABLE IF NOT EXISTS events (
    id           INTEGER PRIMARY KEY,
    title        TEXT NOT NULL,
    venue        TEXT,
    date         TEXT NOT NULL,
    start_time   TEXT NOT NULL,
    end_time     TEXT NOT NULL,
    organizer_id INTEGER REFERENCES users(id),
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS event_resources (
    event_id    INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    resource_id INTEGER NOT NULL,
    quantity    INTEGER NOT NULL CHECK (quantity >= 1),
    PRIMARY KEY (event_id, resource_id)
);

CREATE INDEX IF NOT EXISTS idx_event_resources_resource ON event_resources(resource_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires ON revoked_tokens(expires_at);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
