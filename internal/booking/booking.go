// Package booking is the only writer of booking records.
//
// Every mutation takes the per-resource locks for the resources it touches,
// runs inside one database transaction and reconciles each touched
// resource's available quantity before committing. Notifications and
// metrics are emitted only after the commit succeeds.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/erazemk/eventify/internal/lock"
	"github.com/erazemk/eventify/internal/metrics"
	"github.com/erazemk/eventify/internal/model"
	"github.com/erazemk/eventify/internal/notify"
	"github.com/erazemk/eventify/internal/store"
)

// errLockSetChanged means an event gained a resource between computing the
// lock set and opening the transaction.
var errLockSetChanged = errors.New("event resources changed while locking")

const maxLockAttempts = 3

// Coordinator serialises booking decisions per resource.
type Coordinator struct {
	DB        *sql.DB
	Locker    lock.Locker
	Publisher notify.Publisher
	Now       func() time.Time
}

// New creates a Coordinator. A nil locker uses an in-process KeyedMutex and a
// nil publisher discards notifications.
func New(db *sql.DB, locker lock.Locker, publisher notify.Publisher) *Coordinator {
	if locker == nil {
		locker = &lock.KeyedMutex{}
	}
	if publisher == nil {
		publisher = notify.Noop{}
	}
	return &Coordinator{DB: db, Locker: locker, Publisher: publisher, Now: time.Now}
}

func resourceKey(id int64) string {
	return "resource:" + strconv.FormatInt(id, 10)
}

// Transact locks resourceIDs, opens a transaction and runs fn. The
// transaction commits only if fn returns nil. Booking changes made through
// tx are limited to the locked resources.
func (c *Coordinator) Transact(ctx context.Context, resourceIDs []int64, fn func(tx *Tx) error) error {
	keys := make([]string, 0, len(resourceIDs))
	locked := make(map[int64]bool, len(resourceIDs))
	for _, id := range resourceIDs {
		keys = append(keys, resourceKey(id))
		locked[id] = true
	}

	waitStart := time.Now()
	unlock, err := c.Locker.Lock(ctx, keys...)
	metrics.LockWait(time.Since(waitStart))
	if err != nil {
		return fmt.Errorf("locking resources: %w", err)
	}
	defer unlock()

	sqlTx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	tx := &Tx{Tx: sqlTx, now: c.Now(), locked: locked}
	if err := fn(tx); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	c.flush(ctx, tx)
	return nil
}

// TransactEvent is Transact over every resource the event currently holds
// bookings on plus extra. If the event's resources change before the lock
// is taken, it retries with the new set.
func (c *Coordinator) TransactEvent(ctx context.Context, eventID int64, extra []int64, fn func(tx *Tx) error) error {
	for attempt := 1; ; attempt++ {
		current, err := store.EventResourceIDs(ctx, c.DB, eventID)
		if err != nil {
			return err
		}

		ids := slices.Concat(current, extra)
		slices.Sort(ids)
		ids = slices.Compact(ids)

		err = c.Transact(ctx, ids, fn)
		if errors.Is(err, errLockSetChanged) && attempt < maxLockAttempts {
			slog.Debug("retrying event transaction", "event", eventID, "attempt", attempt)
			continue
		}
		return err
	}
}

// flush publishes the notifications collected by a committed transaction.
func (c *Coordinator) flush(ctx context.Context, tx *Tx) {
	for range tx.created {
		metrics.BookingAttempt(metrics.OutcomeCreated)
	}
	metrics.UnitsReleased(tx.released)

	for _, m := range tx.outbox {
		if err := c.Publisher.Publish(ctx, m.RoutingKey, m.Payload); err != nil {
			metrics.NotifyFailed(m.RoutingKey)
			slog.Warn("publishing notification", "routing_key", m.RoutingKey, "error", err)
		}
	}
}

// BookResource commits quantity units of a resource to an event over [start, end).
func (c *Coordinator) BookResource(ctx context.Context, resourceID, eventID int64, quantity int, start, end time.Time) (*model.Booking, error) {
	var b *model.Booking
	err := c.Transact(ctx, []int64{resourceID}, func(tx *Tx) error {
		var err error
		b, err = tx.Book(ctx, resourceID, eventID, quantity, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ReleaseBooking drops every booking the event holds on the resource and
// returns the number of units released. Releasing nothing is not an error.
func (c *Coordinator) ReleaseBooking(ctx context.Context, resourceID, eventID int64) (int, error) {
	var released int
	err := c.Transact(ctx, []int64{resourceID}, func(tx *Tx) error {
		var err error
		released, err = tx.Release(ctx, resourceID, eventID)
		return err
	})
	return released, err
}

// Rebook replaces an event's bookings on one resource with a single new
// booking. The old bookings do not count against the new one; on failure
// they are kept.
func (c *Coordinator) Rebook(ctx context.Context, resourceID, eventID int64, quantity int, start, end time.Time) (*model.Booking, error) {
	var b *model.Booking
	err := c.Transact(ctx, []int64{resourceID}, func(tx *Tx) error {
		if _, err := tx.Release(ctx, resourceID, eventID); err != nil {
			return err
		}
		var err error
		b, err = tx.Book(ctx, resourceID, eventID, quantity, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// RebookEvent replaces all of an event's bookings with one booking per
// request over [start, end). Either every request is booked or nothing
// changes.
func (c *Coordinator) RebookEvent(ctx context.Context, eventID int64, requests []model.ResourceRequest, start, end time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := c.TransactEvent(ctx, eventID, RequestIDs(requests), func(tx *Tx) error {
		var err error
		bookings, err = tx.RebookEvent(ctx, eventID, requests, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ReleaseEvent drops every booking held by an event and returns the
// affected resource IDs.
func (c *Coordinator) ReleaseEvent(ctx context.Context, eventID int64) ([]int64, error) {
	var ids []int64
	err := c.TransactEvent(ctx, eventID, nil, func(tx *Tx) error {
		var err error
		ids, err = tx.ReleaseEvent(ctx, eventID)
		return err
	})
	return ids, err
}

// SetTotalQuantity changes a resource's capacity under its lock.
func (c *Coordinator) SetTotalQuantity(ctx context.Context, resourceID int64, total int) (*model.Resource, error) {
	unlock, err := c.Locker.Lock(ctx, resourceKey(resourceID))
	if err != nil {
		return nil, fmt.Errorf("locking resources: %w", err)
	}
	defer unlock()

	return store.SetTotalQuantity(ctx, c.DB, resourceID, total, c.Now())
}

// DeleteResource removes a resource with no active bookings and notifies
// the events that referenced it.
func (c *Coordinator) DeleteResource(ctx context.Context, resourceID int64) ([]int64, error) {
	unlock, err := c.Locker.Lock(ctx, resourceKey(resourceID))
	if err != nil {
		return nil, fmt.Errorf("locking resources: %w", err)
	}
	defer unlock()

	eventIDs, err := store.DeleteResource(ctx, c.DB, resourceID, c.Now())
	if err != nil {
		return nil, err
	}
	if eventIDs == nil {
		eventIDs = []int64{}
	}

	msg := notify.ResourceDeletedMessage{ResourceID: resourceID, EventIDs: eventIDs}
	if err := c.Publisher.Publish(ctx, notify.ResourceDeleted, msg); err != nil {
		metrics.NotifyFailed(notify.ResourceDeleted)
		slog.Warn("publishing notification", "routing_key", notify.ResourceDeleted, "error", err)
	}
	return eventIDs, nil
}

// ListEventBookings returns every booking held by an event.
func (c *Coordinator) ListEventBookings(ctx context.Context, eventID int64) ([]model.Booking, error) {
	return store.ListEventBookings(ctx, c.DB, eventID)
}

// ListResourceBookings returns every booking of a resource.
func (c *Coordinator) ListResourceBookings(ctx context.Context, resourceID int64) ([]model.Booking, error) {
	r, err := store.GetResource(ctx, c.DB, resourceID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &model.NotFoundError{Kind: "resource", ID: resourceID}
	}
	return store.ListBookings(ctx, c.DB, resourceID)
}

// RequestIDs returns the resource IDs named by requests.
func RequestIDs(requests []model.ResourceRequest) []int64 {
	ids := make([]int64, len(requests))
	for i, r := range requests {
		ids[i] = r.ResourceID
	}
	return ids
}
