package postgres

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// VisitRepo implements VisitRepository using PostgreSQL.
type VisitRepo struct{ db *DB }

// NewVisitRepo constructs a visit record repository.
func NewVisitRepo(db *DB) *VisitRepo { return &VisitRepo{db: db} }

// refreshLastVisit sets last_visit to the newest live visit date, or NULL.
func refreshLastVisit(ctx context.Context, tx pgx.Tx, restaurantID uuid.UUID) error {
	const q = `
UPDATE restaurants
SET last_visit = (SELECT MAX(visit_date) FROM visit_records WHERE restaurant_id=$1 AND status<>2)
WHERE id=$1`
	_, err := tx.Exec(ctx, q, restaurantID)
	return err
}

// Create inserts a record and refreshes the restaurant's last_visit.
func (r *VisitRepo) Create(ctx context.Context, v *model.VisitRecord) error {
	const q = `
INSERT INTO visit_records (id, restaurant_id, owner_id, visit_date, score, status)
VALUES ($1, $2, $3, $4, $5, $6)`
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, q, v.ID, v.RestaurantID, v.OwnerID, v.VisitDate, v.Score, int(v.Status)); err != nil {
			return err
		}
		return refreshLastVisit(ctx, tx, v.RestaurantID)
	})
}

// Update edits a live record and refreshes the restaurant's last_visit.
func (r *VisitRepo) Update(ctx context.Context, ownerID, id uuid.UUID, patch model.VisitPatch) error {
	set := map[string]any{}
	if patch.VisitDate != nil {
		set["visit_date"] = *patch.VisitDate
	}
	if patch.Score != nil {
		set["score"] = *patch.Score
	}
	if len(set) == 0 {
		return nil
	}
	q, args, err := psql.Update("visit_records").SetMap(set).
		Where(sq.Eq{"id": id}).Where(sq.Eq{"owner_id": ownerID}).Where(sq.NotEq{"status": int(model.VisitDeleted)}).
		Suffix("RETURNING restaurant_id").ToSql()
	if err != nil {
		return err
	}
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		var restaurantID uuid.UUID
		if err := tx.QueryRow(ctx, q, args...).Scan(&restaurantID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		return refreshLastVisit(ctx, tx, restaurantID)
	})
}

// Remove soft-deletes a record and refreshes the restaurant's last_visit.
func (r *VisitRepo) Remove(ctx context.Context, ownerID, id uuid.UUID) error {
	const q = `UPDATE visit_records SET status=2 WHERE id=$1 AND owner_id=$2 RETURNING restaurant_id`
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		var restaurantID uuid.UUID
		if err := tx.QueryRow(ctx, q, id, ownerID).Scan(&restaurantID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		return refreshLastVisit(ctx, tx, restaurantID)
	})
}

// ListByPocket selects the owner's live records in a pocket.
func (r *VisitRepo) ListByPocket(ctx context.Context, ownerID, pocketID uuid.UUID) ([]model.VisitView, error) {
	const q = `
SELECT v.id, v.restaurant_id, v.owner_id, v.visit_date, v.score, v.status, v.created_at, r.name
FROM visit_records v
JOIN restaurants r ON r.id = v.restaurant_id
WHERE v.owner_id=$1 AND r.pocket_id=$2 AND v.status<>2
ORDER BY v.visit_date DESC, v.created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID, pocketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.VisitView{}
	for rows.Next() {
		var (
			v      model.VisitView
			status int
		)
		if err = rows.Scan(&v.ID, &v.RestaurantID, &v.OwnerID, &v.VisitDate, &v.Score, &status, &v.CreatedAt, &v.RestaurantName); err != nil {
			return nil, err
		}
		v.Status = model.VisitStatus(status)
		out = append(out, v)
	}
	return out, rows.Err()
}

// RecentCounts counts live visits per restaurant, overall and in the
// trailing 30 and 7 day windows.
func (r *VisitRepo) RecentCounts(ctx context.Context, pocketID uuid.UUID, today time.Time) (map[uuid.UUID]model.VisitCounts, error) {
	const q = `
SELECT v.restaurant_id,
       count(*),
       count(*) FILTER (WHERE v.visit_date > $2),
       count(*) FILTER (WHERE v.visit_date > $3)
FROM visit_records v
JOIN restaurants r ON r.id = v.restaurant_id
WHERE r.pocket_id=$1 AND v.status<>2
GROUP BY v.restaurant_id`
	rows, err := r.db.Pool.Query(ctx, q, pocketID, today.AddDate(0, 0, -30), today.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[uuid.UUID]model.VisitCounts{}
	for rows.Next() {
		var (
			id uuid.UUID
			c  model.VisitCounts
		)
		if err = rows.Scan(&id, &c.Total, &c.Last30Days, &c.Last7Days); err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, rows.Err()
}
