package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/eventify/internal/interval"
	"github.com/erazemk/eventify/internal/model"
)

// ResourceInput holds the editable fields of a resource.
type ResourceInput struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	TotalQuantity int    `json:"total_quantity"`
}

// Validate checks required fields. TotalQuantity is only checked when
// checkTotal is set, since metadata updates leave it untouched.
func (in *ResourceInput) Validate(checkTotal bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)

	if in.Name == "" {
		return model.Invalid("name", "required")
	}
	if !model.ValidCategory(in.Category) {
		return model.Invalid("category", "must be one of "+strings.Join(model.Categories, ", "))
	}
	if checkTotal && in.TotalQuantity < 1 {
		return model.Invalid("total_quantity", "must be at least 1")
	}
	return nil
}

const resourceColumns = `id, name, category, description, location,
	total_quantity, available_quantity, image_mime, created_at, updated_at`

func scanResource(row interface{ Scan(...any) error }) (*model.Resource, error) {
	r := &model.Resource{}
	var description, location, imageMime sql.NullString
	err := row.Scan(&r.ID, &r.Name, &r.Category, &description, &location,
		&r.TotalQuantity, &r.AvailableQuantity, &imageMime, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Description = description.String
	r.Location = location.String
	r.ImageMime = imageMime.String
	r.IsAvailable = r.AvailableQuantity > 0
	return r, nil
}

// CreateResource adds a resource with all of its units available.
func CreateResource(ctx context.Context, db *sql.DB, in ResourceInput) (*model.Resource, error) {
	if err := in.Validate(true); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO resources (name, category, description, location, total_quantity, available_quantity)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.Name, in.Category, in.Description, in.Location, in.TotalQuantity, in.TotalQuantity,
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting resource id: %w", err)
	}

	return GetResource(ctx, db, id)
}

// GetResource returns a resource by ID, or nil if it does not exist.
func GetResource(ctx context.Context, q Querier, id int64) (*model.Resource, error) {
	r, err := scanResource(q.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting resource: %w", err)
	}
	return r, nil
}

// mustGetResource is GetResource with a NotFoundError for missing rows.
func mustGetResource(ctx context.Context, q Querier, id int64) (*model.Resource, error) {
	r, err := GetResource(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &model.NotFoundError{Kind: "resource", ID: id}
	}
	return r, nil
}

// ListResources returns all resources, optionally filtered by category.
func ListResources(ctx context.Context, db *sql.DB, category string) ([]model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		resources = append(resources, *r)
	}
	return resources, rows.Err()
}

// UpdateResource updates a resource's descriptive fields. Capacity changes
// go through SetTotalQuantity.
func UpdateResource(ctx context.Context, db *sql.DB, id int64, in ResourceInput) (*model.Resource, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE resources SET name = ?, category = ?, description = ?, location = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		in.Name, in.Category, in.Description, in.Location, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating resource: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, &model.NotFoundError{Kind: "resource", ID: id}
	}
	return GetResource(ctx, db, id)
}

// AdjustAvailability applies delta to a resource's available quantity.
// The update is a single guarded statement: a delta that would leave
// [0, total_quantity] changes nothing and returns a CapacityError.
func AdjustAvailability(ctx context.Context, q Querier, id int64, delta int) error {
	if delta == 0 {
		return nil
	}

	result, err := q.ExecContext(ctx,
		`UPDATE resources SET available_quantity = available_quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND available_quantity + ? BETWEEN 0 AND total_quantity`,
		delta, id, delta,
	)
	if err != nil {
		return fmt.Errorf("adjusting availability: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 1 {
		return nil
	}

	r, err := mustGetResource(ctx, q, id)
	if err != nil {
		return err
	}
	return &model.CapacityError{
		ResourceID:   r.ID,
		ResourceName: r.Name,
		Requested:    -delta,
		Free:         r.AvailableQuantity,
		Reason:       "availability adjustment out of bounds",
	}
}

// ReconcileAvailability recomputes a resource's available quantity from its
// active bookings: total minus the peak quantity committed at any instant
// from now on.
func ReconcileAvailability(ctx context.Context, q Querier, id int64, now time.Time) error {
	r, err := mustGetResource(ctx, q, id)
	if err != nil {
		return err
	}

	active, err := ListActiveBookings(ctx, q, id, now)
	if err != nil {
		return err
	}

	target := r.TotalQuantity - interval.Peak(active, now)
	return AdjustAvailability(ctx, q, id, target-r.AvailableQuantity)
}

// SetTotalQuantity changes a resource's capacity. The new total may not fall
// below the quantity committed by active bookings at any instant.
func SetTotalQuantity(ctx context.Context, db *sql.DB, id int64, newTotal int, now time.Time) (*model.Resource, error) {
	if newTotal < 1 {
		return nil, model.Invalid("total_quantity", "must be at least 1")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	r, err := mustGetResource(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	active, err := ListActiveBookings(ctx, tx, id, now)
	if err != nil {
		return nil, err
	}
	committed := interval.Peak(active, now)
	if newTotal < committed {
		return nil, &model.CapacityError{
			ResourceID:   r.ID,
			ResourceName: r.Name,
			Requested:    committed,
			Free:         newTotal,
			Reason:       "cannot reduce total below committed quantity",
		}
	}

	// Both columns move in one statement so the CHECK constraint never
	// sees an intermediate state.
	_, err = tx.ExecContext(ctx,
		`UPDATE resources SET total_quantity = ?, available_quantity = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		newTotal, newTotal-committed, id,
	)
	if err != nil {
		return nil, fmt.Errorf("setting total quantity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing total quantity: %w", err)
	}
	return GetResource(ctx, db, id)
}

// DeleteResource removes a resource, its bookings and every event reference
// to it. It refuses while any booking has not yet ended. The IDs of events
// that lost their reference are returned so callers can notify them.
func DeleteResource(ctx context.Context, db *sql.DB, id int64, now time.Time) ([]int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	r, err := mustGetResource(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	active, err := ListActiveBookings(ctx, tx, id, now)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return nil, &model.ConflictError{
			Message: fmt.Sprintf("resource %q has %d active booking(s)", r.Name, len(active)),
		}
	}

	eventIDs, err := StripResourceFromEvents(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting resource: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing resource deletion: %w", err)
	}
	return eventIDs, nil
}

// SetResourceImage sets a resource's photo.
func SetResourceImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE resources SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting resource image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &model.NotFoundError{Kind: "resource", ID: id}
	}
	return nil
}

// GetResourceImage returns a resource's photo and its MIME type.
func GetResourceImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM resources WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting resource image: %w", err)
	}
	return image, mime.String, nil
}
