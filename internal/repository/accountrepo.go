// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/and161185/foodpocket/internal/model"
	"github.com/gofrs/uuid/v5"
)

// AccountRepository provides access to accounts.
type AccountRepository interface {
	// Create inserts a new account together with its first pocket.
	// Returns errs.ErrUsernameTaken / errs.ErrEmailTaken on conflicts.
	Create(ctx context.Context, a *model.Account, first *model.Pocket) error
	// GetByUsername loads an account by its normalized username.
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	// TouchLogin stamps last_login.
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// TokenRepository stores bearer tokens.
type TokenRepository interface {
	// Create inserts a token; a duplicate token string yields errs.ErrAlreadyExists.
	Create(ctx context.Context, t *model.Token) error
	// Owner resolves a token valid at now to its account id.
	Owner(ctx context.Context, token string, now time.Time) (uuid.UUID, error)
}
