package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// RestaurantRepo implements RestaurantRepository using PostgreSQL.
type RestaurantRepo struct{ db *DB }

// NewRestaurantRepo constructs a restaurant repository.
func NewRestaurantRepo(db *DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

const restaurantCols = `id, owner_id, pocket_id, name, longitude, latitude, address, note, status, hide_until, last_visit, created_at`

// FindOrCreate relies on the partial unique index on (owner_id, name) of live
// rows, so concurrent calls with the same name converge on one row.
func (r *RestaurantRepo) FindOrCreate(ctx context.Context, rest *model.Restaurant) (uuid.UUID, bool, error) {
	const (
		ins = `
INSERT INTO restaurants (id, owner_id, pocket_id, name, longitude, latitude, address, note, status, hide_until)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (owner_id, name) WHERE status <> 999 DO NOTHING
RETURNING id`
		sel = `SELECT id FROM restaurants WHERE owner_id=$1 AND name=$2 AND status<>999`
	)
	var id uuid.UUID
	err := r.db.Pool.QueryRow(ctx, ins,
		rest.ID, rest.OwnerID, rest.PocketID, rest.Name, rest.Longitude, rest.Latitude,
		rest.Address, rest.Note, int(rest.Status), rest.HideUntil,
	).Scan(&id)
	switch {
	case err == nil:
		return id, true, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return uuid.Nil, false, err
	}

	if err := r.db.Pool.QueryRow(ctx, sel, rest.OwnerID, rest.Name).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, fmt.Errorf("restaurant %q vanished after conflict: %w", rest.Name, errs.ErrNotFound)
		}
		return uuid.Nil, false, err
	}
	return id, false, nil
}

// Get selects an owned restaurant.
func (r *RestaurantRepo) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Restaurant, error) {
	q := `SELECT ` + restaurantCols + ` FROM restaurants WHERE id=$1 AND owner_id=$2`
	rest, err := scanRestaurant(r.db.Pool.QueryRow(ctx, q, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return rest, nil
}

func scanRestaurant(row pgx.Row) (*model.Restaurant, error) {
	var (
		rest   model.Restaurant
		status int
	)
	err := row.Scan(&rest.ID, &rest.OwnerID, &rest.PocketID, &rest.Name, &rest.Longitude, &rest.Latitude,
		&rest.Address, &rest.Note, &status, &rest.HideUntil, &rest.LastVisit, &rest.CreatedAt)
	if err != nil {
		return nil, err
	}
	rest.Status = model.RestaurantStatus(status)
	return &rest, nil
}

// NameTaken checks for another live restaurant of the owner with the name.
func (r *RestaurantRepo) NameTaken(ctx context.Context, ownerID uuid.UUID, name string, except uuid.UUID) (bool, error) {
	const q = `SELECT count(*) FROM restaurants WHERE owner_id=$1 AND name=$2 AND status<>999 AND id<>$3`
	var n int
	if err := r.db.Pool.QueryRow(ctx, q, ownerID, name, except).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update writes only the fields present in patch.
func (r *RestaurantRepo) Update(ctx context.Context, ownerID, id uuid.UUID, patch model.RestaurantPatch) error {
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
	if patch.HideUntil != nil {
		set["hide_until"] = *patch.HideUntil
	}
	if len(set) == 0 {
		return nil
	}
	deleting := patch.Status != nil && *patch.Status == model.RestaurantDeleted
	if deleting {
		set["last_visit"] = nil
	}
	q, args, err := psql.Update("restaurants").SetMap(set).
		Where(sq.Eq{"id": id}).Where(sq.Eq{"owner_id": ownerID}).ToSql()
	if err != nil {
		return err
	}

	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, q, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return errs.Invalid("Repeated Name")
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		if deleting {
			return deleteVisitsOf(ctx, tx, id)
		}
		return nil
	})
}

// Remove soft-deletes the restaurant and all its visit records.
func (r *RestaurantRepo) Remove(ctx context.Context, ownerID, id uuid.UUID) error {
	const upd = `UPDATE restaurants SET status=999, last_visit=NULL WHERE id=$1 AND owner_id=$2`
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, upd, id, ownerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return deleteVisitsOf(ctx, tx, id)
	})
}

func deleteVisitsOf(ctx context.Context, tx pgx.Tx, restaurantID uuid.UUID) error {
	const q = `UPDATE visit_records SET status=2 WHERE restaurant_id=$1 AND status<>2`
	_, err := tx.Exec(ctx, q, restaurantID)
	return err
}

// ListByPocket selects the live restaurants of a pocket.
func (r *RestaurantRepo) ListByPocket(ctx context.Context, pocketID uuid.UUID) ([]model.Restaurant, error) {
	q := `SELECT ` + restaurantCols + `
FROM restaurants WHERE pocket_id=$1 AND status<>999
ORDER BY created_at ASC`
	return r.list(ctx, q, pocketID)
}

// ListVisible selects live restaurants not hidden on today. Never visited
// restaurants come last, matching Postgres' default NULL ordering.
func (r *RestaurantRepo) ListVisible(ctx context.Context, pocketID uuid.UUID, today time.Time) ([]model.Restaurant, error) {
	q := `SELECT ` + restaurantCols + `
FROM restaurants WHERE pocket_id=$1 AND status<>999 AND hide_until<=$2
ORDER BY last_visit ASC NULLS LAST, created_at ASC`
	return r.list(ctx, q, pocketID, today)
}

func (r *RestaurantRepo) list(ctx context.Context, q string, args ...any) ([]model.Restaurant, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Restaurant{}
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rest)
	}
	return out, rows.Err()
}
