package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG keeps login failure counters in the login_attempts table.
type PG struct {
	db     Querier
	policy Policy
	now    func() time.Time
}

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(db Querier, p Policy) *PG {
	return &PG{db: db, policy: p, now: time.Now}
}

// Allow reports whether the pair is currently unblocked.
func (l *PG) Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM login_attempts WHERE username=$1 AND ip_hash=$2`
	var until time.Time
	err := l.db.QueryRow(ctx, q, username, ipHash).Scan(&until)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	case err != nil:
		return false, 0, err
	}
	now := l.now()
	if until.After(now) {
		return false, until.Sub(now), nil
	}
	return true, 0, nil
}

// Success drops the counters of the pair.
func (l *PG) Success(ctx context.Context, username string, ipHash []byte) error {
	const q = `DELETE FROM login_attempts WHERE username=$1 AND ip_hash=$2`
	_, err := l.db.Exec(ctx, q, username, ipHash)
	return err
}

// Failure bumps the counter, restarting it when the previous failure fell
// outside the window, and blocks the pair once MaxFails is reached.
func (l *PG) Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	const (
		upsert = `
INSERT INTO login_attempts (username, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 1, 'epoch', $3)
ON CONFLICT (username, ip_hash) DO UPDATE SET
  fail_count = CASE WHEN login_attempts.updated_at < $4 THEN 1 ELSE login_attempts.fail_count + 1 END,
  updated_at = $3
RETURNING fail_count`
		block = `UPDATE login_attempts SET blocked_until=$3, fail_count=0 WHERE username=$1 AND ip_hash=$2`
	)
	now := l.now()
	var fails int
	if err := l.db.QueryRow(ctx, upsert, username, ipHash, now, now.Add(-l.policy.Window)).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.policy.MaxFails {
		return false, 0, nil
	}
	if _, err := l.db.Exec(ctx, block, username, ipHash, now.Add(l.policy.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.policy.BlockFor, nil
}
