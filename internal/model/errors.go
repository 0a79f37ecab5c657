package model

import "fmt"

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NotFoundError reports a missing resource, booking, event or user.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// CapacityError reports that a request exceeds the free capacity of a resource,
// or that a capacity change would leave committed bookings uncovered.
type CapacityError struct {
	ResourceID   int64
	ResourceName string
	Requested    int
	Free         int
	Reason       string
}

func (e *CapacityError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "requested quantity exceeds availability for that interval"
	}
	return fmt.Sprintf("%s: resource %q (id %d) requested %d, available %d",
		reason, e.ResourceName, e.ResourceID, e.Requested, e.Free)
}

// ConflictError reports an operation blocked by existing state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Invalid is shorthand for a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
