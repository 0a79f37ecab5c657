package store

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/eventify/internal/interval"
	"github.com/erazemk/eventify/internal/model"
)

const bookingColumns = `b.id, b.resource_id, b.event_id, b.quantity, b.start_at, b.end_at, b.created_at, r.name`

func queryBookings(ctx context.Context, q Querier, where string, args ...any) ([]model.Booking, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings b
		 JOIN resources r ON r.id = b.resource_id
		 WHERE `+where+`
		 ORDER BY b.start_at, b.id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		var start, end int64
		if err := rows.Scan(&b.ID, &b.ResourceID, &b.EventID, &b.Quantity, &start, &end,
			&b.CreatedAt, &b.ResourceName); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		b.Start = fromUnix(start)
		b.End = fromUnix(end)
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ListBookings returns every booking of a resource, past ones included.
func ListBookings(ctx context.Context, q Querier, resourceID int64) ([]model.Booking, error) {
	return queryBookings(ctx, q, `b.resource_id = ?`, resourceID)
}

// ListActiveBookings returns a resource's bookings that end after now.
func ListActiveBookings(ctx context.Context, q Querier, resourceID int64, now time.Time) ([]model.Booking, error) {
	return queryBookings(ctx, q, `b.resource_id = ? AND b.end_at > ?`, resourceID, unix(now))
}

// ListBookingsBetween returns a resource's bookings that overlap [start, end).
// The SQL filter is the same half-open overlap test the interval package uses.
func ListBookingsBetween(ctx context.Context, q Querier, resourceID int64, start, end time.Time) ([]model.Booking, error) {
	return queryBookings(ctx, q, `b.resource_id = ? AND b.start_at < ? AND ? < b.end_at`,
		resourceID, unix(end), unix(start))
}

// ListEventBookings returns every booking held by an event.
func ListEventBookings(ctx context.Context, q Querier, eventID int64) ([]model.Booking, error) {
	return queryBookings(ctx, q, `b.event_id = ?`, eventID)
}

// EventResourceIDs returns the distinct resources an event holds bookings on.
func EventResourceIDs(ctx context.Context, q Querier, eventID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT DISTINCT resource_id FROM bookings WHERE event_id = ? ORDER BY resource_id`, eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing event resources: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning resource id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Book commits quantity units of a resource to an event over [start, end).
// It must run inside a transaction that holds the resource's lock: the
// capacity check and the insert are only atomic together.
func Book(ctx context.Context, q Querier, resourceID, eventID int64, quantity int, start, end, now time.Time) (*model.Booking, error) {
	r, err := mustGetResource(ctx, q, resourceID)
	if err != nil {
		return nil, err
	}

	start, end = start.Truncate(time.Second), end.Truncate(time.Second)
	if quantity < 1 {
		return nil, model.Invalid("quantity", "must be at least 1")
	}
	if !start.Before(end) {
		return nil, model.Invalid("end", "must be after start")
	}

	existing, err := ListBookingsBetween(ctx, q, resourceID, start, end)
	if err != nil {
		return nil, err
	}
	free := interval.Free(r.TotalQuantity, existing, start, end)
	if free < quantity {
		return nil, &model.CapacityError{
			ResourceID:   r.ID,
			ResourceName: r.Name,
			Requested:    quantity,
			Free:         max(free, 0),
		}
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO bookings (resource_id, event_id, quantity, start_at, end_at) VALUES (?, ?, ?, ?, ?)`,
		resourceID, eventID, quantity, unix(start), unix(end),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting booking: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting booking id: %w", err)
	}

	if err := ReconcileAvailability(ctx, q, resourceID, now); err != nil {
		return nil, err
	}

	return &model.Booking{
		ID:           id,
		ResourceID:   resourceID,
		EventID:      eventID,
		Quantity:     quantity,
		Start:        start.UTC(),
		End:          end.UTC(),
		CreatedAt:    now.UTC(),
		ResourceName: r.Name,
	}, nil
}

// Release removes every booking an event holds on a resource and returns the
// number of units released. Releasing nothing is not an error.
func Release(ctx context.Context, q Querier, resourceID, eventID int64, now time.Time) (int, error) {
	var released int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM bookings WHERE resource_id = ? AND event_id = ?`,
		resourceID, eventID,
	).Scan(&released)
	if err != nil {
		return 0, fmt.Errorf("summing bookings: %w", err)
	}
	if released == 0 {
		return 0, nil
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM bookings WHERE resource_id = ? AND event_id = ?`, resourceID, eventID,
	); err != nil {
		return 0, fmt.Errorf("deleting bookings: %w", err)
	}

	if err := ReconcileAvailability(ctx, q, resourceID, now); err != nil {
		return 0, err
	}
	return released, nil
}
