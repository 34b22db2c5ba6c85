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

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts the account and its first pocket in one transaction.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account, first *model.Pocket) error {
	const (
		byName  = `SELECT count(*) FROM accounts WHERE lower(username)=lower($1)`
		byEmail = `SELECT count(*) FROM accounts WHERE email=$1`
		ins     = `
INSERT INTO accounts (id, username, pwd_hash, salt, email, status)
VALUES ($1, $2, $3, $4, $5, $6)`
		insPocket = `
INSERT INTO pockets (id, owner_id, name, status, note)
VALUES ($1, $2, $3, $4, $5)`
	)
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		var n int
		if err := tx.QueryRow(ctx, byName, a.Username).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return errs.ErrUsernameTaken
		}
		if err := tx.QueryRow(ctx, byEmail, a.Email).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return errs.ErrEmailTaken
		}
		if _, err := tx.Exec(ctx, ins, a.ID, a.Username, a.PwdHash, a.Salt, a.Email, a.Status); err != nil {
			if isUniqueViolation(err) {
				if violatedConstraint(err) == "accounts_email_key" {
					return errs.ErrEmailTaken
				}
				return errs.ErrUsernameTaken
			}
			return err
		}
		_, err := tx.Exec(ctx, insPocket, first.ID, a.ID, first.Name, int(first.Status), first.Note)
		return err
	})
}

// GetByUsername selects an account by normalized username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	const q = `
SELECT id, username, pwd_hash, salt, email, status, last_login, created_at
FROM accounts WHERE lower(username)=lower($1)`
	var a model.Account
	err := r.db.Pool.QueryRow(ctx, q, username).
		Scan(&a.ID, &a.Username, &a.PwdHash, &a.Salt, &a.Email, &a.Status, &a.LastLogin, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// TouchLogin updates last_login.
func (r *AccountRepo) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `UPDATE accounts SET last_login=$2 WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, at)
	return err
}
