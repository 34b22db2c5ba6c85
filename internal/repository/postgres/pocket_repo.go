package postgres

import (
	"context"
	"errors"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// PocketRepo implements PocketRepository using PostgreSQL.
type PocketRepo struct{ db *DB }

// NewPocketRepo constructs a pocket repository.
func NewPocketRepo(db *DB) *PocketRepo { return &PocketRepo{db: db} }

// Create inserts a pocket row.
func (r *PocketRepo) Create(ctx context.Context, p *model.Pocket) error {
	const q = `
INSERT INTO pockets (id, owner_id, name, status, note)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, p.ID, p.OwnerID, p.Name, int(p.Status), p.Note)
	return err
}

// Get selects an owned pocket.
func (r *PocketRepo) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Pocket, error) {
	const q = `
SELECT id, owner_id, name, status, note, created_at, last_use_time
FROM pockets WHERE id=$1 AND owner_id=$2`
	return scanPocket(r.db.Pool.QueryRow(ctx, q, id, ownerID))
}

// LastUsed selects the live pocket used most recently, falling back to the newest.
func (r *PocketRepo) LastUsed(ctx context.Context, ownerID uuid.UUID) (*model.Pocket, error) {
	const q = `
SELECT id, owner_id, name, status, note, created_at, last_use_time
FROM pockets WHERE owner_id=$1 AND status<>999
ORDER BY last_use_time DESC NULLS LAST, created_at DESC
LIMIT 1`
	return scanPocket(r.db.Pool.QueryRow(ctx, q, ownerID))
}

func scanPocket(row pgx.Row) (*model.Pocket, error) {
	var (
		p      model.Pocket
		status int
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &status, &p.Note, &p.CreatedAt, &p.LastUseTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	p.Status = model.PocketStatus(status)
	return &p, nil
}

// List returns live pockets annotated with their live restaurant count.
func (r *PocketRepo) List(ctx context.Context, ownerID uuid.UUID) ([]model.PocketSummary, error) {
	const q = `
SELECT p.id, p.owner_id, p.name, p.status, p.note, p.created_at, p.last_use_time,
       (SELECT count(*) FROM restaurants r WHERE r.pocket_id=p.id AND r.status<>999)
FROM pockets p
WHERE p.owner_id=$1 AND p.status<>999
ORDER BY p.created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PocketSummary{}
	for rows.Next() {
		var (
			s      model.PocketSummary
			status int
		)
		if err = rows.Scan(&s.ID, &s.OwnerID, &s.Name, &status, &s.Note, &s.CreatedAt, &s.LastUseTime, &s.Size); err != nil {
			return nil, err
		}
		s.Status = model.PocketStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Touch stamps last_use_time.
func (r *PocketRepo) Touch(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error {
	const q = `UPDATE pockets SET last_use_time=$3 WHERE id=$1 AND owner_id=$2`
	_, err := r.db.Pool.Exec(ctx, q, id, ownerID, at)
	return err
}

// pocketUpdate builds the UPDATE for the fields present in patch; ok is false
// when there is nothing to write.
func pocketUpdate(ownerID, id uuid.UUID, patch model.PocketPatch) (q string, args []any, ok bool, err error) {
	set := map[string]any{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Note != nil {
		set["note"] = *patch.Note
	}
	if patch.Status != nil {
		set["status"] = int(*patch.Status)
	}
	if len(set) == 0 {
		return "", nil, false, nil
	}
	q, args, err = psql.Update("pockets").SetMap(set).
		Where(sq.Eq{"id": id}).Where(sq.Eq{"owner_id": ownerID}).ToSql()
	return q, args, err == nil, err
}

// Update writes only the fields present in patch.
func (r *PocketRepo) Update(ctx context.Context, ownerID, id uuid.UUID, patch model.PocketPatch) error {
	q, args, ok, err := pocketUpdate(ownerID, id, patch)
	if err != nil || !ok {
		return err
	}
	tag, err := r.db.Pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Remove soft-deletes a pocket and cascades to its restaurants and visit records.
// All live pockets of the owner stay locked until commit, so concurrent removals
// cannot both pass the last-pocket guard.
func (r *PocketRepo) Remove(ctx context.Context, ownerID, id uuid.UUID, patch model.PocketPatch) error {
	const (
		lock   = `SELECT id FROM pockets WHERE owner_id=$1 AND status<>999 FOR UPDATE`
		sel    = `SELECT status FROM pockets WHERE id=$1 AND owner_id=$2`
		upd    = `UPDATE pockets SET status=999 WHERE id=$1`
		visits = `
UPDATE visit_records SET status=2
WHERE status<>2 AND restaurant_id IN (SELECT id FROM restaurants WHERE pocket_id=$1 AND status<>999)`
		rests = `UPDATE restaurants SET status=999, last_visit=NULL WHERE pocket_id=$1 AND status<>999`
	)
	patch.Status = nil
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, lock, ownerID)
		if err != nil {
			return err
		}
		live, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return err
		}
		if !slices.Contains(live, id) {
			var status int
			if err := tx.QueryRow(ctx, sel, id, ownerID).Scan(&status); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return errs.ErrNotFound
				}
				return err
			}
			// already deleted
			return nil
		}
		if len(live) <= 1 {
			return errs.ErrLastPocket
		}
		if q, args, ok, err := pocketUpdate(ownerID, id, patch); err != nil {
			return err
		} else if ok {
			if _, err := tx.Exec(ctx, q, args...); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, upd, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, visits, id); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, rests, id)
		return err
	})
}
