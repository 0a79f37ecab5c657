package interval

import (
	"testing"
	"time"

	"github.com/erazemk/eventify/internal/model"
)

var base = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func booking(qty, start, end int) model.Booking {
	return model.Booking{Quantity: qty, Start: at(start), End: at(end)}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd int
		bStart, bEnd int
		expected     bool
	}{
		{"disjoint", 0, 2, 3, 5, false},
		{"touching", 0, 2, 2, 4, false},
		{"touching reversed", 2, 4, 0, 2, false},
		{"partial", 0, 3, 2, 4, true},
		{"contained", 0, 10, 2, 4, true},
		{"identical", 1, 2, 1, 2, true},
		{"zero length inside", 0, 10, 5, 5, false},
		{"zero length at start", 5, 5, 5, 10, false},
	}

	for _, tt := range tests {
		got := Overlaps(at(tt.aStart), at(tt.aEnd), at(tt.bStart), at(tt.bEnd))
		if got != tt.expected {
			t.Errorf("%s: Overlaps = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestCommitted(t *testing.T) {
	bookings := []model.Booking{booking(1, 0, 10), booking(2, 5, 15)}

	tests := []struct {
		start, end int
		expected   int
	}{
		{8, 12, 3},  // both overlap
		{10, 10, 0}, // zero-length
		{15, 20, 0}, // touches booking 2 at 15
		{0, 5, 1},
		{10, 15, 2},
		{12, 11, 0}, // inverted
	}

	for _, tt := range tests {
		got := Committed(bookings, at(tt.start), at(tt.end))
		if got != tt.expected {
			t.Errorf("Committed([%d,%d)) = %d, want %d", tt.start, tt.end, got, tt.expected)
		}
	}
}

func TestFree(t *testing.T) {
	bookings := []model.Booking{booking(2, 9, 11)}

	if got := Free(2, bookings, at(10), at(12)); got != 0 {
		t.Errorf("Free over overlapping interval = %d, want 0", got)
	}
	if got := Free(2, bookings, at(11), at(13)); got != 2 {
		t.Errorf("Free over touching interval = %d, want 2", got)
	}
	if got := Free(2, nil, at(11), at(13)); got != 2 {
		t.Errorf("Free with no bookings = %d, want 2", got)
	}
}

func TestCoveredAt(t *testing.T) {
	bookings := []model.Booking{booking(1, 8, 10), booking(3, 9, 12)}

	tests := []struct {
		hour     int
		expected int
	}{
		{7, 0},
		{8, 1},
		{9, 4},
		{10, 3}, // first booking ended at 10
		{12, 0},
	}

	for _, tt := range tests {
		if got := CoveredAt(bookings, at(tt.hour)); got != tt.expected {
			t.Errorf("CoveredAt(%02d:00) = %d, want %d", tt.hour, got, tt.expected)
		}
	}
}

func TestPeak(t *testing.T) {
	tests := []struct {
		name     string
		bookings []model.Booking
		from     int
		expected int
	}{
		{"empty", nil, 0, 0},
		{"single", []model.Booking{booking(2, 9, 11)}, 0, 2},
		{"touching not concurrent", []model.Booking{booking(2, 9, 11), booking(2, 11, 13)}, 0, 2},
		{"overlapping", []model.Booking{booking(1, 0, 10), booking(2, 5, 15), booking(1, 14, 20)}, 0, 3},
		{"past bookings ignored", []model.Booking{booking(5, 0, 2), booking(1, 3, 4)}, 2, 1},
		{"running booking counted", []model.Booking{booking(2, 0, 5), booking(1, 4, 6)}, 3, 3},
	}

	for _, tt := range tests {
		if got := Peak(tt.bookings, at(tt.from)); got != tt.expected {
			t.Errorf("%s: Peak = %d, want %d", tt.name, got, tt.expected)
		}
	}
}

func TestSpan(t *testing.T) {
	loc := time.UTC

	start, end, err := Span("2025-03-10", "09:00", "11:30", loc)
	if err != nil {
		t.Fatalf("Span: %v", err)
	}
	if !start.Equal(at(9)) {
		t.Errorf("start = %v, want %v", start, at(9))
	}
	if !end.Equal(at(11).Add(30 * time.Minute)) {
		t.Errorf("end = %v, want 11:30", end)
	}

	invalid := []struct{ date, start, end string }{
		{"2025-03-10", "11:00", "09:00"},
		{"2025-03-10", "09:00", "09:00"},
		{"10.03.2025", "09:00", "10:00"},
		{"2025-03-10", "9am", "10:00"},
		{"2025-03-10", "09:00", "25:00"},
	}
	for _, tt := range invalid {
		if _, _, err := Span(tt.date, tt.start, tt.end, loc); err == nil {
			t.Errorf("Span(%q, %q, %q): expected error", tt.date, tt.start, tt.end)
		}
	}
}

func TestDefaultSlots(t *testing.T) {
	if len(DefaultSlots) != 13 {
		t.Fatalf("expected 13 default slots, got %d", len(DefaultSlots))
	}
	if DefaultSlots[0] != 8*time.Hour || DefaultSlots[12] != 20*time.Hour {
		t.Errorf("unexpected slot range %v..%v", DefaultSlots[0], DefaultSlots[12])
	}
}
