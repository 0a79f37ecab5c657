package model

import (
	"fmt"
	"time"
)

// Resource is a finite-quantity bookable asset (hall, lab, equipment).
type Resource struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Description       string    `json:"description,omitempty"`
	Location          string    `json:"location,omitempty"`
	TotalQuantity     int       `json:"total_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	IsAvailable       bool      `json:"is_available"`
	ImageMime         string    `json:"image_mime,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Populated only by detail lookups.
	Bookings []Booking `json:"bookings,omitempty"`
}

// Resource categories.
const (
	CategoryAudio     = "Audio"
	CategoryVideo     = "Video"
	CategoryFurniture = "Furniture"
	CategoryTechnical = "Technical"
	CategoryVenue     = "Venue"
	CategoryOther     = "Other"
)

// Categories lists every accepted resource category.
var Categories = []string{
	CategoryAudio,
	CategoryVideo,
	CategoryFurniture,
	CategoryTechnical,
	CategoryVenue,
	CategoryOther,
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Booking is a committed reservation of some quantity of a resource
// over the half-open interval [Start, End), tied to an event.
type Booking struct {
	ID         int64     `json:"id"`
	ResourceID int64     `json:"resource_id"`
	EventID    int64     `json:"event_id"`
	Quantity   int       `json:"quantity"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined field (not always populated).
	ResourceName string `json:"resource_name,omitempty"`
}

// ResourceRequest asks for a quantity of one resource.
type ResourceRequest struct {
	ResourceID int64 `json:"resource_id"`
	Quantity   int   `json:"quantity"`
}

// ValidateRequests rejects non-positive quantities and repeated resources.
func ValidateRequests(requests []ResourceRequest) error {
	seen := make(map[int64]bool, len(requests))
	for _, r := range requests {
		if r.Quantity < 1 {
			return Invalid("quantity", fmt.Sprintf("resource %d: must be at least 1", r.ResourceID))
		}
		if seen[r.ResourceID] {
			return Invalid("resources", fmt.Sprintf("resource %d listed more than once", r.ResourceID))
		}
		seen[r.ResourceID] = true
	}
	return nil
}
