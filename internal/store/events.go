package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/eventify/internal/model"
)

// InsertEvent stores a new event row and its resource list.
func InsertEvent(ctx context.Context, q Querier, e *model.Event) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO events (title, venue, date, start_time, end_time, organizer_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Title, e.Venue, e.Date, e.StartTime, e.EndTime, e.OrganizerID,
	)
	if err != nil {
		return 0, fmt.Errorf("creating event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting event id: %w", err)
	}
	if err := SetEventResources(ctx, q, id, e.Resources); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateEventRow replaces an event's fields and resource list.
func UpdateEventRow(ctx context.Context, q Querier, e *model.Event) error {
	result, err := q.ExecContext(ctx,
		`UPDATE events SET title = ?, venue = ?, date = ?, start_time = ?, end_time = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		e.Title, e.Venue, e.Date, e.StartTime, e.EndTime, e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &model.NotFoundError{Kind: "event", ID: e.ID}
	}
	return SetEventResources(ctx, q, e.ID, e.Resources)
}

// SetEventResources replaces the resource list recorded on an event.
func SetEventResources(ctx context.Context, q Querier, eventID int64, resources []model.ResourceRequest) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM event_resources WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("clearing event resources: %w", err)
	}
	for _, r := range resources {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO event_resources (event_id, resource_id, quantity) VALUES (?, ?, ?)`,
			eventID, r.ResourceID, r.Quantity,
		); err != nil {
			return fmt.Errorf("recording event resource: %w", err)
		}
	}
	return nil
}

// DeleteEventRow deletes an event; its resource list goes with it.
func DeleteEventRow(ctx context.Context, q Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &model.NotFoundError{Kind: "event", ID: id}
	}
	return nil
}

const eventColumns = `id, title, venue, date, start_time, end_time, organizer_id, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*model.Event, error) {
	e := &model.Event{}
	var venue sql.NullString
	if err := row.Scan(&e.ID, &e.Title, &venue, &e.Date, &e.StartTime, &e.EndTime,
		&e.OrganizerID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Venue = venue.String
	e.Resources = []model.ResourceRequest{}
	return e, nil
}

// GetEvent returns an event with its resource list, or nil if it does not exist.
func GetEvent(ctx context.Context, q Querier, id int64) (*model.Event, error) {
	e, err := scanEvent(q.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT resource_id, quantity FROM event_resources WHERE event_id = ? ORDER BY resource_id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting event resources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r model.ResourceRequest
		if err := rows.Scan(&r.ResourceID, &r.Quantity); err != nil {
			return nil, fmt.Errorf("scanning event resource: %w", err)
		}
		e.Resources = append(e.Resources, r)
	}
	return e, rows.Err()
}

// ListEvents returns all events ordered by date and start time, without
// their resource lists.
func ListEvents(ctx context.Context, db *sql.DB) ([]model.Event, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY date, start_time, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// StripResourceFromEvents removes a resource from every event's resource list
// and returns the IDs of the events that referenced it.
func StripResourceFromEvents(ctx context.Context, q Querier, resourceID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT event_id FROM event_resources WHERE resource_id = ? ORDER BY event_id`, resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding events using resource: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning event id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM event_resources WHERE resource_id = ?`, resourceID,
	); err != nil {
		return nil, fmt.Errorf("stripping resource from events: %w", err)
	}
	return ids, nil
}

// SyncEventResources rewrites an event's resource list from the bookings it
// holds: one entry per resource with the summed booked quantity.
func SyncEventResources(ctx context.Context, q Querier, eventID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM event_resources WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("clearing event resources: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO event_resources (event_id, resource_id, quantity)
		 SELECT event_id, resource_id, SUM(quantity) FROM bookings
		 WHERE event_id = ? GROUP BY event_id, resource_id`,
		eventID,
	); err != nil {
		return fmt.Errorf("syncing event resources: %w", err)
	}
	return nil
}
