package repository

import (
	"context"
	"time"

	"github.com/and161185/foodpocket/internal/model"
	"github.com/gofrs/uuid/v5"
)

// RestaurantRepository provides owner-scoped access to restaurants.
type RestaurantRepository interface {
	// FindOrCreate inserts r unless a live restaurant of the owner has the same
	// name; it returns the id of the row that holds the name.
	FindOrCreate(ctx context.Context, r *model.Restaurant) (id uuid.UUID, created bool, err error)
	// Get loads an owned restaurant regardless of status.
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Restaurant, error)
	// NameTaken reports whether another live restaurant of the owner uses name.
	NameTaken(ctx context.Context, ownerID uuid.UUID, name string, except uuid.UUID) (bool, error)
	// Update applies a partial edit; storing DELETED cascades to visit records.
	Update(ctx context.Context, ownerID, id uuid.UUID, patch model.RestaurantPatch) error
	// Remove soft-deletes the restaurant and its visit records.
	Remove(ctx context.Context, ownerID, id uuid.UUID) error
	// ListByPocket returns the live restaurants of a pocket, oldest first.
	ListByPocket(ctx context.Context, pocketID uuid.UUID) ([]model.Restaurant, error)
	// ListVisible returns live restaurants not hidden on today, ordered by
	// last_visit then created_at.
	ListVisible(ctx context.Context, pocketID uuid.UUID, today time.Time) ([]model.Restaurant, error)
}

// VisitRepository provides owner-scoped access to visit records. Every
// mutation recomputes the parent restaurant's last_visit in the same transaction.
type VisitRepository interface {
	// Create inserts a record.
	Create(ctx context.Context, v *model.VisitRecord) error
	// Update applies a partial edit to a live record.
	Update(ctx context.Context, ownerID, id uuid.UUID, patch model.VisitPatch) error
	// Remove soft-deletes a record.
	Remove(ctx context.Context, ownerID, id uuid.UUID) error
	// ListByPocket returns the owner's live records in a pocket, newest visit first.
	ListByPocket(ctx context.Context, ownerID, pocketID uuid.UUID) ([]model.VisitView, error)
	// RecentCounts counts live visits per restaurant, overall and with
	// visit_date after today-30 and today-7.
	RecentCounts(ctx context.Context, pocketID uuid.UUID, today time.Time) (map[uuid.UUID]model.VisitCounts, error)
}
