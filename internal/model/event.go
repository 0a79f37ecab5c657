package model

import "time"

// Event is an organised event that may consume resources.
// Date is YYYY-MM-DD; StartTime and EndTime are HH:MM wall-clock times.
type Event struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Venue       string            `json:"venue,omitempty"`
	Date        string            `json:"date"`
	StartTime   string            `json:"start_time"`
	EndTime     string            `json:"end_time"`
	OrganizerID *int64            `json:"organizer_id,omitempty"`
	Resources   []ResourceRequest `json:"resources"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Slot is one point of a resource's daily utilisation timeline.
type Slot struct {
	Time      time.Time `json:"time"`
	Booked    int       `json:"booked"`
	Available int       `json:"available"`
}

// ResourceAvailability is the per-resource part of an availability check.
type ResourceAvailability struct {
	ResourceID int64  `json:"resource_id"`
	Name       string `json:"name"`
	Requested  int    `json:"requested"`
	Free       int    `json:"free"`
	Available  bool   `json:"available"`
}

// AvailabilityReport is the result of checking several resources at once.
type AvailabilityReport struct {
	Start        time.Time              `json:"start"`
	End          time.Time              `json:"end"`
	AllAvailable bool                   `json:"all_available"`
	Resources    []ResourceAvailability `json:"resources"`
}
