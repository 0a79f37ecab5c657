// Package interval implements half-open interval arithmetic over bookings.
//
// An interval [start, end) contains start but not end, so two bookings that
// touch at an endpoint never overlap. An interval with start >= end is empty:
// it overlaps nothing and commits nothing.
package interval

import (
	"sort"
	"time"

	"github.com/erazemk/eventify/internal/model"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share an instant.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aStart.Before(aEnd) || !bStart.Before(bEnd) {
		return false
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Committed returns the summed quantity of bookings overlapping [start, end).
func Committed(bookings []model.Booking, start, end time.Time) int {
	if !start.Before(end) {
		return 0
	}
	total := 0
	for _, b := range bookings {
		if Overlaps(b.Start, b.End, start, end) {
			total += b.Quantity
		}
	}
	return total
}

// Free returns capacity minus the quantity committed during [start, end).
func Free(capacity int, bookings []model.Booking, start, end time.Time) int {
	return capacity - Committed(bookings, start, end)
}

// CoveredAt returns the summed quantity of bookings whose interval contains t.
func CoveredAt(bookings []model.Booking, t time.Time) int {
	total := 0
	for _, b := range bookings {
		if !b.Start.After(t) && t.Before(b.End) {
			total += b.Quantity
		}
	}
	return total
}

// Peak returns the largest quantity committed at any single instant at or
// after from. Bookings that ended by from are ignored.
func Peak(bookings []model.Booking, from time.Time) int {
	type point struct {
		at    time.Time
		delta int
	}

	points := make([]point, 0, 2*len(bookings))
	for _, b := range bookings {
		if !b.End.After(from) || !b.Start.Before(b.End) {
			continue
		}
		start := b.Start
		if start.Before(from) {
			start = from
		}
		points = append(points, point{start, b.Quantity}, point{b.End, -b.Quantity})
	}

	// Ends sort before starts at the same instant: touching bookings
	// are never concurrent.
	sort.Slice(points, func(i, j int) bool {
		if points[i].at.Equal(points[j].at) {
			return points[i].delta < points[j].delta
		}
		return points[i].at.Before(points[j].at)
	})

	peak, current := 0, 0
	for _, p := range points {
		current += p.delta
		if current > peak {
			peak = current
		}
	}
	return peak
}
