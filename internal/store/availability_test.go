package store

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/erazemk/eventify/internal/db"
	"github.com/erazemk/eventify/internal/interval"
	"github.com/erazemk/eventify/internal/model"
)

func TestDailyTimeline(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r := newResource(t, ctx, database, "Projector", 3)
	Book(ctx, database, r.ID, 1, 2, hour(9), hour(11), now)
	Book(ctx, database, r.ID, 2, 1, hour(10), hour(12), now)

	slots, err := DailyTimeline(ctx, database, r.ID, base, interval.DefaultSlots)
	if err != nil {
		t.Fatalf("DailyTimeline: %v", err)
	}
	if len(slots) != 13 {
		t.Fatalf("expected 13 slots, got %d", len(slots))
	}

	want := map[int]int{8: 0, 9: 2, 10: 3, 11: 1, 12: 0}
	for _, s := range slots {
		h := s.Time.Hour()
		booked, ok := want[h]
		if !ok {
			continue
		}
		if s.Booked != booked || s.Available != 3-booked {
			t.Errorf("%02d:00: booked %d available %d, want %d / %d", h, s.Booked, s.Available, booked, 3-booked)
		}
	}
}

func TestDailyTimelineUnknownResource(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := DailyTimeline(context.Background(), database, 42, base, interval.DefaultSlots)
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	projector := newResource(t, ctx, database, "Projector", 2)
	mic := newResource(t, ctx, database, "Mic", 10)
	Book(ctx, database, projector.ID, 1, 2, hour(9), hour(11), now)

	report, err := CheckAvailability(ctx, database, []model.ResourceRequest{
		{ResourceID: projector.ID, Quantity: 1},
		{ResourceID: mic.ID, Quantity: 4},
	}, hour(10), hour(12))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if report.AllAvailable {
		t.Error("expected all_available=false")
	}
	if len(report.Resources) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report.Resources))
	}
	if p := report.Resources[0]; p.Available || p.Free != 0 || p.Name != "Projector" {
		t.Errorf("unexpected projector entry %+v", p)
	}
	if m := report.Resources[1]; !m.Available || m.Free != 10 {
		t.Errorf("unexpected mic entry %+v", m)
	}

	// Touching interval is free.
	report, _ = CheckAvailability(ctx, database, []model.ResourceRequest{
		{ResourceID: projector.ID, Quantity: 2},
	}, hour(11), hour(13))
	if !report.AllAvailable {
		t.Error("expected projector free from 11:00")
	}

	// Nothing was reserved.
	if got := available(t, ctx, database, mic.ID); got != 10 {
		t.Errorf("check mutated availability: %d", got)
	}
}

func TestCheckAvailabilityErrors(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r := newResource(t, ctx, database, "Projector", 2)
	one := []model.ResourceRequest{{ResourceID: r.ID, Quantity: 1}}

	var verr *model.ValidationError
	if _, err := CheckAvailability(ctx, database, nil, hour(9), hour(10)); !errors.As(err, &verr) {
		t.Errorf("empty list: expected ValidationError, got %v", err)
	}
	if _, err := CheckAvailability(ctx, database, one, hour(10), hour(10)); !errors.As(err, &verr) {
		t.Errorf("empty interval: expected ValidationError, got %v", err)
	}
	zero := []model.ResourceRequest{{ResourceID: r.ID, Quantity: 0}}
	if _, err := CheckAvailability(ctx, database, zero, hour(9), hour(10)); !errors.As(err, &verr) {
		t.Errorf("zero quantity: expected ValidationError, got %v", err)
	}

	twice := []model.ResourceRequest{{ResourceID: r.ID, Quantity: 1}, {ResourceID: r.ID, Quantity: 1}}
	if _, err := CheckAvailability(ctx, database, twice, hour(9), hour(10)); !errors.As(err, &verr) {
		t.Errorf("repeated resource: expected ValidationError, got %v", err)
	}

	var nf *model.NotFoundError
	missing := []model.ResourceRequest{{ResourceID: 404, Quantity: 1}}
	if _, err := CheckAvailability(ctx, database, missing, hour(9), hour(10)); !errors.As(err, &nf) {
		t.Errorf("unknown resource: expected NotFoundError, got %v", err)
	}
}

func TestDailyTimelineAcrossClockChange(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	loc, err := time.LoadLocation("Europe/Ljubljana")
	if err != nil {
		t.Fatalf("loading location: %v", err)
	}
	// Clocks jump from 02:00 to 03:00 on this day.
	day := time.Date(2025, 3, 30, 0, 0, 0, 0, loc)

	r := newResource(t, ctx, database, "Hall", 1)
	Book(ctx, database, r.ID, 1, 1, time.Date(2025, 3, 30, 9, 0, 0, 0, loc), time.Date(2025, 3, 30, 10, 0, 0, 0, loc), now)

	slots, err := DailyTimeline(ctx, database, r.ID, day, interval.DefaultSlots)
	if err != nil {
		t.Fatalf("DailyTimeline: %v", err)
	}
	for i, s := range slots {
		if h := s.Time.In(loc).Hour(); h != 8+i {
			t.Errorf("slot %d: expected %02d:00 local, got %02d:00", i, 8+i, h)
		}
		wantBooked := 0
		if 8+i == 9 {
			wantBooked = 1
		}
		if s.Booked != wantBooked {
			t.Errorf("%02d:00: booked %d, want %d", 8+i, s.Booked, wantBooked)
		}
	}
}
