package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/eventify/internal/interval"
	"github.com/erazemk/eventify/internal/model"
)

// DailyTimeline reports, for each slot offset from the start of day, how many
// units of a resource are booked at that instant and how many remain.
// It does not reserve anything.
func DailyTimeline(ctx context.Context, db *sql.DB, resourceID int64, day time.Time, slots []time.Duration) ([]model.Slot, error) {
	r, err := mustGetResource(ctx, db, resourceID)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return []model.Slot{}, nil
	}

	first, last := wallClock(day, slots[0]), wallClock(day, slots[len(slots)-1])
	bookings, err := ListBookingsBetween(ctx, db, resourceID, first, last.Add(time.Second))
	if err != nil {
		return nil, err
	}

	timeline := make([]model.Slot, 0, len(slots))
	for _, offset := range slots {
		t := wallClock(day, offset)
		booked := interval.CoveredAt(bookings, t)
		timeline = append(timeline, model.Slot{
			Time:      t,
			Booked:    booked,
			Available: r.TotalQuantity - booked,
		})
	}
	return timeline, nil
}

// CheckAvailability reports whether every requested quantity fits in the
// free capacity of its resource during [start, end). It never mutates.
func CheckAvailability(ctx context.Context, db *sql.DB, requests []model.ResourceRequest, start, end time.Time) (*model.AvailabilityReport, error) {
	if len(requests) == 0 {
		return nil, model.Invalid("resources", "at least one resource required")
	}
	if !start.Before(end) {
		return nil, model.Invalid("end_time", "must be after start_time")
	}

	report := &model.AvailabilityReport{
		Start:        start,
		End:          end,
		AllAvailable: true,
		Resources:    make([]model.ResourceAvailability, 0, len(requests)),
	}

	if err := model.ValidateRequests(requests); err != nil {
		return nil, err
	}

	for _, req := range requests {
		r, err := mustGetResource(ctx, db, req.ResourceID)
		if err != nil {
			return nil, err
		}
		bookings, err := ListBookingsBetween(ctx, db, r.ID, start, end)
		if err != nil {
			return nil, err
		}

		free := interval.Free(r.TotalQuantity, bookings, start, end)
		ok := req.Quantity <= free
		report.AllAvailable = report.AllAvailable && ok
		report.Resources = append(report.Resources, model.ResourceAvailability{
			ResourceID: r.ID,
			Name:       r.Name,
			Requested:  req.Quantity,
			Free:       free,
			Available:  ok,
		})
	}
	return report, nil
}

// wallClock returns the instant offset reads on the clock of day's location,
// so 08:00 stays 08:00 on days that gain or lose an hour.
func wallClock(day time.Time, offset time.Duration) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, int(offset/time.Minute), 0, 0, day.Location())
}
