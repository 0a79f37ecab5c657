package store

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/erazemk/eventify/internal/db"
	"github.com/erazemk/eventify/internal/interval"
	"github.com/erazemk/eventify/internal/model"
)

func available(t *testing.T, ctx context.Context, q Querier, id int64) int {
	t.Helper()
	r, err := GetResource(ctx, q, id)
	if err != nil || r == nil {
		t.Fatalf("GetResource(%d): %v", id, err)
	}
	return r.AvailableQuantity
}

func TestBookProjectorScenario(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r := newResource(t, ctx, database, "Projector", 2)

	a, err := Book(ctx, database, r.ID, 1, 2, hour(9), hour(11), now)
	if err != nil {
		t.Fatalf("booking A: %v", err)
	}
	if a.ResourceName != "Projector" {
		t.Errorf("expected resource name on booking, got %q", a.ResourceName)
	}
	if got := available(t, ctx, database, r.ID); got != 0 {
		t.Errorf("after A: expected 0 available, got %d", got)
	}

	_, err = Book(ctx, database, r.ID, 2, 1, hour(10), hour(12), now)
	var cerr *model.CapacityError
	if !errors.As(err, &cerr) {
		t.Fatalf("booking B: expected CapacityError, got %v", err)
	}
	if cerr.Requested != 1 || cerr.Free != 0 || cerr.ResourceID != r.ID {
		t.Errorf("unexpected capacity error %+v", cerr)
	}

	// C touches A at 11:00; half-open intervals do not overlap.
	if _, err := Book(ctx, database, r.ID, 3, 2, hour(11), hour(13), now); err != nil {
		t.Fatalf("booking C: %v", err)
	}
	if got := available(t, ctx, database, r.ID); got != 0 {
		t.Errorf("after C: expected 0 available, got %d", got)
	}

	all, _ := ListBookings(ctx, database, r.ID)
	if len(all) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(all))
	}
	if !all[0].Start.Equal(hour(9)) || !all[1].Start.Equal(hour(11)) {
		t.Errorf("unexpected booking order: %v, %v", all[0].Start, all[1].Start)
	}
}

func TestBookValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r := newResource(t, ctx, database, "Projector", 2)
	var verr *model.ValidationError

	if _, err := Book(ctx, database, r.ID, 1, 0, hour(9), hour(10), now); !errors.As(err, &verr) {
		t.Errorf("zero quantity: expected ValidationError, got %v", err)
	}
	if _, err := Book(ctx, database, r.ID, 1, 1, hour(10), hour(10), now); !errors.As(err, &verr) {
		t.Errorf("empty interval: expected ValidationError, got %v", err)
	}
	if _, err := Book(ctx, database, r.ID, 1, 1, hour(11), hour(10), now); !errors.As(err, &verr) {
		t.Errorf("reversed interval: expected ValidationError, got %v", err)
	}

	var nf *model.NotFoundError
	if _, err := Book(ctx, database, 999, 1, 1, hour(9), hour(10), now); !errors.As(err, &nf) {
		t.Errorf("unknown resource: expected NotFoundError, got %v", err)
	}

	var cerr *model.CapacityError
	if _, err := Book(ctx, database, r.ID, 1, 3, hour(9), hour(10), now); !errors.As(err, &cerr) {
		t.Errorf("over total: expected CapacityError, got %v", err)
	}
}

func TestBookTruncatesToSeconds(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r := newResource(t, ctx, database, "Projector", 1)
	b, err := Book(ctx, database, r.ID, 1, 1, hour(9).Add(500*time.Millisecond), hour(10), now)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if !b.Start.Equal(hour(9)) {
		t.Errorf("expected truncated start %v, got %v", hour(9), b.Start)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r := newResource(t, ctx, database, "Projector", 2)
	Book(ctx, database, r.ID, 7, 2, hour(9), hour(11), now)

	n, err := Release(ctx, database, r.ID, 7, now)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 units released, got %d", n)
	}
	if got := available(t, ctx, database, r.ID); got != 2 {
		t.Errorf("expected 2 available, got %d", got)
	}

	n, err = Release(ctx, database, r.ID, 7, now)
	if err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if n != 0 {
		t.Errorf("expected second release to be a no-op, got %d", n)
	}
	if got := available(t, ctx, database, r.ID); got != 2 {
		t.Errorf("expected 2 available after no-op, got %d", got)
	}
}

func TestBookReleaseRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r := newResource(t, ctx, database, "Chairs", 50)
	Book(ctx, database, r.ID, 1, 20, hour(8), hour(18), now)
	before, _ := ListBookings(ctx, database, r.ID)
	beforeAvail := available(t, ctx, database, r.ID)

	if _, err := Book(ctx, database, r.ID, 2, 15, hour(9), hour(12), now); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := Release(ctx, database, r.ID, 2, now); err != nil {
		t.Fatalf("Release: %v", err)
	}

	after, _ := ListBookings(ctx, database, r.ID)
	if len(after) != len(before) || after[0].ID != before[0].ID {
		t.Errorf("booking set changed: before %v, after %v", before, after)
	}
	if got := available(t, ctx, database, r.ID); got != beforeAvail {
		t.Errorf("expected %d available, got %d", beforeAvail, got)
	}
}

func TestReleaseAllEventResources(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mic := newResource(t, ctx, database, "Mic", 4)
	hall := newResource(t, ctx, database, "Hall", 1)
	Book(ctx, database, mic.ID, 5, 2, hour(9), hour(11), now)
	Book(ctx, database, hall.ID, 5, 1, hour(9), hour(11), now)
	Book(ctx, database, mic.ID, 6, 1, hour(9), hour(11), now)

	ids, err := EventResourceIDs(ctx, database, 5)
	if err != nil {
		t.Fatalf("EventResourceIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 resources, got %v", ids)
	}
	for _, id := range ids {
		if _, err := Release(ctx, database, id, 5, now); err != nil {
			t.Fatalf("Release(%d): %v", id, err)
		}
	}

	if left, _ := ListEventBookings(ctx, database, 5); len(left) != 0 {
		t.Errorf("expected event 5 to hold nothing, got %d", len(left))
	}
	if left, _ := ListEventBookings(ctx, database, 6); len(left) != 1 {
		t.Errorf("expected event 6 untouched, got %d", len(left))
	}
	if got := available(t, ctx, database, mic.ID); got != 3 {
		t.Errorf("expected 3 mics available, got %d", got)
	}
	if got := available(t, ctx, database, hall.ID); got != 1 {
		t.Errorf("expected hall available, got %d", got)
	}
}

func TestPastBookingsDoNotHoldAvailability(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r := newResource(t, ctx, database, "Projector", 2)
	Book(ctx, database, r.ID, 1, 2, hour(9), hour(11), now)

	// Reconciling after the booking ended restores the counter.
	if err := ReconcileAvailability(ctx, database, r.ID, hour(11)); err != nil {
		t.Fatalf("ReconcileAvailability: %v", err)
	}
	if got := available(t, ctx, database, r.ID); got != 2 {
		t.Errorf("expected 2 available, got %d", got)
	}

	active, _ := ListActiveBookings(ctx, database, r.ID, hour(11))
	if len(active) != 0 {
		t.Errorf("expected no active bookings, got %d", len(active))
	}
}

// TestRandomBookingsNeverOversell books random intervals and checks that the
// committed quantity never exceeds capacity at any hour boundary.
func TestRandomBookingsNeverOversell(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	const total = 5
	r := newResource(t, ctx, database, "Tables", total)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		s := rng.Intn(20)
		e := s + 1 + rng.Intn(4)
		qty := 1 + rng.Intn(3)
		_, err := Book(ctx, database, r.ID, int64(i), qty, hour(s), hour(e), now)
		var cerr *model.CapacityError
		if err != nil && !errors.As(err, &cerr) {
			t.Fatalf("Book: %v", err)
		}
	}

	all, _ := ListBookings(ctx, database, r.ID)
	for h := 0; h < 24; h++ {
		if c := interval.CoveredAt(all, hour(h)); c > total {
			t.Fatalf("hour %d: %d committed, capacity %d", h, c, total)
		}
	}
	if got := available(t, ctx, database, r.ID); got != total-interval.Peak(all, now) {
		t.Errorf("counter %d disagrees with peak %d", got, interval.Peak(all, now))
	}
}
