package interval

import (
	"time"

	"github.com/erazemk/eventify/internal/model"
)

// Layouts for event dates and wall-clock times.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ParseDate parses a YYYY-MM-DD day as midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, model.Invalid("date", "must be YYYY-MM-DD")
	}
	return d, nil
}

// Combine joins a YYYY-MM-DD date and an HH:MM clock time into an absolute time in loc.
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	c, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, model.Invalid("time", "must be HH:MM")
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}

// Span combines a date with start and end clock times and checks start < end.
func Span(date, startClock, endClock string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := Combine(date, startClock, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := Combine(date, endClock, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, model.Invalid("end_time", "must be after start_time")
	}
	return start, end, nil
}

// HourlySlots returns slot offsets from midnight, every step from first up to
// and including last.
func HourlySlots(first, last, step time.Duration) []time.Duration {
	if step <= 0 {
		return nil
	}
	var slots []time.Duration
	for d := first; d <= last; d += step {
		slots = append(slots, d)
	}
	return slots
}

// DefaultSlots are the hourly marks from 08:00 to 20:00.
var DefaultSlots = HourlySlots(8*time.Hour, 20*time.Hour, time.Hour)
