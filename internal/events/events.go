// Package events manages events and keeps their bookings in step with
// their resource lists. Every change to an event row commits in the same
// transaction as the bookings it implies.
package events

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/erazemk/eventify/internal/booking"
	"github.com/erazemk/eventify/internal/interval"
	"github.com/erazemk/eventify/internal/model"
	"github.com/erazemk/eventify/internal/store"
)

// Input holds the editable fields of an event.
type Input struct {
	Title     string                  `json:"title"`
	Venue     string                  `json:"venue"`
	Date      string                  `json:"date"`
	StartTime string                  `json:"start_time"`
	EndTime   string                  `json:"end_time"`
	Resources []model.ResourceRequest `json:"resources"`
}

// Service creates, updates and deletes events.
type Service struct {
	DB          *sql.DB
	Coordinator *booking.Coordinator
	// Location is the time zone event dates and times are read in.
	Location *time.Location
}

// New creates a Service. A nil loc means UTC.
func New(db *sql.DB, c *booking.Coordinator, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{DB: db, Coordinator: c, Location: loc}
}

// validate normalises in and returns the absolute interval it covers.
func (s *Service) validate(in *Input) (time.Time, time.Time, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Venue = strings.TrimSpace(in.Venue)
	if in.Title == "" {
		return time.Time{}, time.Time{}, model.Invalid("title", "required")
	}
	start, end, err := interval.Span(in.Date, in.StartTime, in.EndTime, s.Location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if in.Resources == nil {
		in.Resources = []model.ResourceRequest{}
	}
	if err := model.ValidateRequests(in.Resources); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (in *Input) event(id int64, organizerID *int64) *model.Event {
	return &model.Event{
		ID:          id,
		Title:       in.Title,
		Venue:       in.Venue,
		Date:        in.Date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		OrganizerID: organizerID,
		Resources:   in.Resources,
	}
}

// Create stores a new event and books every resource it lists. If any
// resource cannot be booked, nothing is stored.
func (s *Service) Create(ctx context.Context, in Input, organizerID *int64) (*model.Event, error) {
	start, end, err := s.validate(&in)
	if err != nil {
		return nil, err
	}

	var id int64
	err = s.Coordinator.Transact(ctx, booking.RequestIDs(in.Resources), func(tx *booking.Tx) error {
		var err error
		id, err = store.InsertEvent(ctx, tx, in.event(0, organizerID))
		if err != nil {
			return err
		}
		for _, r := range in.Resources {
			if _, err := tx.Book(ctx, r.ResourceID, id, r.Quantity, start, end); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Update replaces an event's fields and resource list and rebooks it.
// Either the event and all of its bookings change, or nothing does.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*model.Event, error) {
	start, end, err := s.validate(&in)
	if err != nil {
		return nil, err
	}

	err = s.Coordinator.TransactEvent(ctx, id, booking.RequestIDs(in.Resources), func(tx *booking.Tx) error {
		existing, err := store.GetEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return &model.NotFoundError{Kind: "event", ID: id}
		}

		if err := store.UpdateEventRow(ctx, tx, in.event(id, existing.OrganizerID)); err != nil {
			return err
		}
		_, err = tx.RebookEvent(ctx, id, in.Resources, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete releases an event's bookings and removes it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.Coordinator.TransactEvent(ctx, id, nil, func(tx *booking.Tx) error {
		if _, err := tx.ReleaseEvent(ctx, id); err != nil {
			return err
		}
		return store.DeleteEventRow(ctx, tx, id)
	})
}

// Book commits quantity units of a resource to an existing event over
// [start, end) and records the resource on the event in the same commit.
func (s *Service) Book(ctx context.Context, eventID, resourceID int64, quantity int, start, end time.Time) (*model.Booking, error) {
	var b *model.Booking
	err := s.Coordinator.Transact(ctx, []int64{resourceID}, func(tx *booking.Tx) error {
		if err := mustExist(ctx, tx, eventID); err != nil {
			return err
		}
		var err error
		if b, err = tx.Book(ctx, resourceID, eventID, quantity, start, end); err != nil {
			return err
		}
		return store.SyncEventResources(ctx, tx, eventID)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Release drops an event's bookings on one resource and removes the
// resource from the event's list. It returns the number of units released.
func (s *Service) Release(ctx context.Context, eventID, resourceID int64) (int, error) {
	var released int
	err := s.Coordinator.Transact(ctx, []int64{resourceID}, func(tx *booking.Tx) error {
		if err := mustExist(ctx, tx, eventID); err != nil {
			return err
		}
		var err error
		if released, err = tx.Release(ctx, resourceID, eventID); err != nil {
			return err
		}
		return store.SyncEventResources(ctx, tx, eventID)
	})
	return released, err
}

func mustExist(ctx context.Context, q store.Querier, eventID int64) error {
	e, err := store.GetEvent(ctx, q, eventID)
	if err != nil {
		return err
	}
	if e == nil {
		return &model.NotFoundError{Kind: "event", ID: eventID}
	}
	return nil
}

// Get returns an event with its resource list.
func (s *Service) Get(ctx context.Context, id int64) (*model.Event, error) {
	e, err := store.GetEvent(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &model.NotFoundError{Kind: "event", ID: id}
	}
	return e, nil
}

// List returns every event ordered by date and start time.
func (s *Service) List(ctx context.Context) ([]model.Event, error) {
	events, err := store.ListEvents(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// Span returns the absolute interval an event occupies.
func (s *Service) Span(e *model.Event) (time.Time, time.Time, error) {
	return interval.Span(e.Date, e.StartTime, e.EndTime, s.Location)
}
