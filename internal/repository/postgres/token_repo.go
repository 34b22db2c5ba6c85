package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// TokenRepo implements TokenRepository using PostgreSQL.
type TokenRepo struct{ db *DB }

// NewTokenRepo constructs a token repository.
func NewTokenRepo(db *DB) *TokenRepo { return &TokenRepo{db: db} }

// Create inserts a token row.
func (r *TokenRepo) Create(ctx context.Context, t *model.Token) error {
	const q = `
INSERT INTO tokens (token, account_id, expire_time, status)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, t.Token, t.AccountID, t.ExpireTime, t.Status)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Owner resolves a token that has not expired at now.
func (r *TokenRepo) Owner(ctx context.Context, token string, now time.Time) (uuid.UUID, error) {
	const q = `SELECT account_id FROM tokens WHERE token=$1 AND expire_time>=$2`
	var id uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, q, token, now).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, errs.ErrUnauthorized
		}
		return uuid.Nil, err
	}
	return id, nil
}
