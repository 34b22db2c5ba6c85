package repository

import (
	"context"
	"time"

	"github.com/and161185/foodpocket/internal/model"
	"github.com/gofrs/uuid/v5"
)

// PocketRepository provides owner-scoped access to pockets.
type PocketRepository interface {
	// Create inserts a pocket.
	Create(ctx context.Context, p *model.Pocket) error
	// Get loads an owned pocket regardless of status.
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Pocket, error)
	// List returns live pockets with live restaurant counts, oldest first.
	List(ctx context.Context, ownerID uuid.UUID) ([]model.PocketSummary, error)
	// LastUsed returns the most recently used live pocket.
	LastUsed(ctx context.Context, ownerID uuid.UUID) (*model.Pocket, error)
	// Touch stamps last_use_time.
	Touch(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error
	// Update applies a partial edit.
	Update(ctx context.Context, ownerID, id uuid.UUID, patch model.PocketPatch) error
	// Remove applies patch and soft-deletes the pocket with its restaurants and
	// their visit records in one transaction. Returns errs.ErrLastPocket, with
	// nothing written, when it is the only live pocket.
	Remove(ctx context.Context, ownerID, id uuid.UUID, patch model.PocketPatch) error
}
