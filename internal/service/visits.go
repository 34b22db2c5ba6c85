package service

import (
	"context"
	"fmt"

	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/model"
	"github.com/and161185/foodpocket/internal/repository"
	"github.com/gofrs/uuid/v5"
)

const badVisitDate = "Wrong date format, should be YYYY-MM-DD"

// VisitService defines owner-scoped visit record operations.
type VisitService interface {
	// Create records a visit to a live restaurant.
	Create(ctx context.Context, ownerID, restaurantID uuid.UUID, in model.VisitInput) (uuid.UUID, error)
	// Edit moves a live record to a new date and optionally rescores it.
	Edit(ctx context.Context, ownerID, id uuid.UUID, in model.VisitInput) error
	// Remove soft-deletes a record.
	Remove(ctx context.Context, ownerID, id uuid.UUID) error
	// List returns the owner's live records in a pocket, newest first.
	List(ctx context.Context, ownerID, pocketID uuid.UUID) ([]model.VisitView, error)
}

type VisitServiceImpl struct {
	pockets     repository.PocketRepository
	restaurants repository.RestaurantRepository
	visits      repository.VisitRepository
	clock       Clock
}

// NewVisitService constructs VisitService.
func NewVisitService(
	pockets repository.PocketRepository,
	restaurants repository.RestaurantRepository,
	visits repository.VisitRepository,
	clock Clock,
) *VisitServiceImpl {
	return &VisitServiceImpl{pockets: pockets, restaurants: restaurants, visits: visits, clock: clock}
}

// Create defaults a missing or empty date to today and the score to
// DefaultScore, clamping the score into range.
func (s *VisitServiceImpl) Create(ctx context.Context, ownerID, restaurantID uuid.UUID, in model.VisitInput) (uuid.UUID, error) {
	date := s.clock.Today()
	if in.VisitDate != nil && *in.VisitDate != "" {
		d, err := model.ParseDate(*in.VisitDate)
		if err != nil {
			return uuid.Nil, errs.Invalid(badVisitDate)
		}
		date = d
	}
	score := model.DefaultScore
	if in.Score != nil {
		score = model.ClampScore(*in.Score)
	}

	r, err := s.restaurants.Get(ctx, ownerID, restaurantID)
	if err != nil {
		return uuid.Nil, err
	}
	if r.Status == model.RestaurantDeleted {
		return uuid.Nil, errs.ErrNotFound
	}

	v := &model.VisitRecord{
		ID:           uuid.Must(uuid.NewV4()),
		RestaurantID: r.ID,
		OwnerID:      ownerID,
		VisitDate:    date,
		Score:        score,
		Status:       model.VisitActive,
	}
	if err := s.visits.Create(ctx, v); err != nil {
		return uuid.Nil, fmt.Errorf("create visit: %w", err)
	}
	return v.ID, nil
}

// Edit requires a visit date; the score changes only when supplied.
func (s *VisitServiceImpl) Edit(ctx context.Context, ownerID, id uuid.UUID, in model.VisitInput) error {
	if in.VisitDate == nil {
		return errs.Invalid(badVisitDate)
	}
	d, err := model.ParseDate(*in.VisitDate)
	if err != nil {
		return errs.Invalid(badVisitDate)
	}
	patch := model.VisitPatch{VisitDate: &d}
	if in.Score != nil {
		score := model.ClampScore(*in.Score)
		patch.Score = &score
	}
	return s.visits.Update(ctx, ownerID, id, patch)
}

// Remove soft-deletes the record; removing it twice is harmless.
func (s *VisitServiceImpl) Remove(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.visits.Remove(ctx, ownerID, id)
}

// List returns the records of a live pocket.
func (s *VisitServiceImpl) List(ctx context.Context, ownerID, pocketID uuid.UUID) ([]model.VisitView, error) {
	if _, err := livePocket(ctx, s.pockets, ownerID, pocketID); err != nil {
		return nil, err
	}
	return s.visits.ListByPocket(ctx, ownerID, pocketID)
}
