package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/eventify/internal/metrics"
	"github.com/erazemk/eventify/internal/model"
	"github.com/erazemk/eventify/internal/notify"
	"github.com/erazemk/eventify/internal/store"
)

// Tx is a locked booking transaction. It embeds the SQL transaction so
// callers can persist their own rows through the store in the same commit.
type Tx struct {
	*sql.Tx

	now      time.Time
	locked   map[int64]bool
	outbox   []notify.Message
	created  []int64
	released int
}

// Now is the clock reading taken when the transaction began.
func (tx *Tx) Now() time.Time { return tx.now }

func (tx *Tx) checkLocked(resourceID int64) error {
	if !tx.locked[resourceID] {
		return fmt.Errorf("resource %d: %w", resourceID, errLockSetChanged)
	}
	return nil
}

// Book commits quantity units of a locked resource to an event.
func (tx *Tx) Book(ctx context.Context, resourceID, eventID int64, quantity int, start, end time.Time) (*model.Booking, error) {
	if err := tx.checkLocked(resourceID); err != nil {
		return nil, err
	}

	b, err := store.Book(ctx, tx, resourceID, eventID, quantity, start, end, tx.now)
	if err != nil {
		recordRejection(err)
		return nil, err
	}

	tx.created = append(tx.created, b.ID)
	tx.outbox = append(tx.outbox, notify.Message{
		RoutingKey: notify.BookingCreated,
		Payload: notify.BookingMessage{
			BookingID:  b.ID,
			ResourceID: b.ResourceID,
			EventID:    b.EventID,
			Quantity:   b.Quantity,
			Start:      b.Start,
			End:        b.End,
		},
	})
	return b, nil
}

// Release drops the event's bookings on a locked resource.
func (tx *Tx) Release(ctx context.Context, resourceID, eventID int64) (int, error) {
	if err := tx.checkLocked(resourceID); err != nil {
		return 0, err
	}

	n, err := store.Release(ctx, tx, resourceID, eventID, tx.now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		tx.released += n
		tx.outbox = append(tx.outbox, notify.Message{
			RoutingKey: notify.BookingReleased,
			Payload:    notify.ReleaseMessage{ResourceID: resourceID, EventID: eventID, Released: n},
		})
	}
	return n, nil
}

// ReleaseEvent drops every booking held by an event. All of the event's
// resources must be locked.
func (tx *Tx) ReleaseEvent(ctx context.Context, eventID int64) ([]int64, error) {
	ids, err := store.EventResourceIDs(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := tx.checkLocked(id); err != nil {
			return nil, err
		}
	}
	for _, id := range ids {
		if _, err := tx.Release(ctx, id, eventID); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// RebookEvent replaces the event's bookings with one booking per request.
func (tx *Tx) RebookEvent(ctx context.Context, eventID int64, requests []model.ResourceRequest, start, end time.Time) ([]model.Booking, error) {
	if err := model.ValidateRequests(requests); err != nil {
		return nil, err
	}
	if _, err := tx.ReleaseEvent(ctx, eventID); err != nil {
		return nil, err
	}

	bookings := make([]model.Booking, 0, len(requests))
	for _, r := range requests {
		b, err := tx.Book(ctx, r.ResourceID, eventID, r.Quantity, start, end)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, nil
}

func recordRejection(err error) {
	var cerr *model.CapacityError
	var verr *model.ValidationError
	switch {
	case errors.As(err, &cerr):
		metrics.BookingAttempt(metrics.OutcomeCapacity)
	case errors.As(err, &verr):
		metrics.BookingAttempt(metrics.OutcomeInvalid)
	default:
		metrics.BookingAttempt(metrics.OutcomeError)
	}
}
