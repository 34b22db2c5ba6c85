package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/model"
	"github.com/and161185/foodpocket/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// Recommendation thresholds: a restaurant visited this often inside the
// trailing window is left out.
const (
	monthVisitCap = 5
	weekVisitCap  = 2
	// randomPassAbove is the draw (1..100) a RANDOM restaurant must beat.
	randomPassAbove = 50
)

// RestaurantService defines owner-scoped restaurant operations.
type RestaurantService interface {
	// Create finds a live restaurant of the owner by name or adds one to the pocket.
	Create(ctx context.Context, ownerID, pocketID uuid.UUID, in model.RestaurantInput) (uuid.UUID, error)
	// Edit applies name, note, status and hide_until edits in that order.
	Edit(ctx context.Context, ownerID, id uuid.UUID, e model.RestaurantEdit) error
	// Remove soft-deletes a restaurant with its visit records.
	Remove(ctx context.Context, ownerID, id uuid.UUID) error
	// List summarizes the pocket's restaurants with their visit history.
	List(ctx context.Context, ownerID, pocketID uuid.UUID) ([]model.RestaurantSummary, error)
	// Recommend picks restaurants of the pocket worth going to today.
	Recommend(ctx context.Context, ownerID, pocketID uuid.UUID) ([]model.RestaurantBrief, error)
}

type RestaurantServiceImpl struct {
	pockets     repository.PocketRepository
	restaurants repository.RestaurantRepository
	visits      repository.VisitRepository
	clock       Clock
	draw        func() int
}

// NewRestaurantService constructs RestaurantService.
func NewRestaurantService(
	pockets repository.PocketRepository,
	restaurants repository.RestaurantRepository,
	visits repository.VisitRepository,
	clock Clock,
) *RestaurantServiceImpl {
	return &RestaurantServiceImpl{
		pockets:     pockets,
		restaurants: restaurants,
		visits:      visits,
		clock:       clock,
		draw:        func() int { return rand.IntN(100) + 1 },
	}
}

// Create returns the id of the owner's live restaurant with the same name,
// inserting a RANDOM one into the pocket when there is none.
func (s *RestaurantServiceImpl) Create(ctx context.Context, ownerID, pocketID uuid.UUID, in model.RestaurantInput) (uuid.UUID, error) {
	name, err := model.CleanName(in.Name)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := livePocket(ctx, s.pockets, ownerID, pocketID); err != nil {
		return uuid.Nil, err
	}
	r := &model.Restaurant{
		ID:        uuid.Must(uuid.NewV4()),
		OwnerID:   ownerID,
		PocketID:  pocketID,
		Name:      name,
		Longitude: in.Longitude,
		Latitude:  in.Latitude,
		Address:   model.Truncate(in.Address, model.MaxAddressLen),
		Note:      model.Truncate(in.Note, model.MaxNoteLen),
		Status:    model.RestaurantRandom,
		HideUntil: s.clock.Today(),
	}
	id, _, err := s.restaurants.FindOrCreate(ctx, r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create restaurant: %w", err)
	}
	return id, nil
}

// Edit validates every supplied field before writing anything. A status
// edit moves hide_until to today; an explicit hide_until is applied after it.
func (s *RestaurantServiceImpl) Edit(ctx context.Context, ownerID, id uuid.UUID, e model.RestaurantEdit) error {
	r, err := s.restaurants.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	var patch model.RestaurantPatch
	if e.Name != nil {
		name, err := model.CleanName(*e.Name)
		if err != nil {
			return err
		}
		if name != r.Name && r.Status != model.RestaurantDeleted {
			taken, err := s.restaurants.NameTaken(ctx, ownerID, name, r.ID)
			if err != nil {
				return err
			}
			if taken {
				return errs.Invalid("Repeated Name")
			}
		}
		patch.Name = &name
	}
	if e.Note != nil {
		note := model.Truncate(*e.Note, model.MaxNoteLen)
		patch.Note = &note
	}
	if e.Status != nil {
		st, err := r.NextStatus(*e.Status)
		if err != nil {
			return err
		}
		today := s.clock.Today()
		patch.Status = st
		patch.HideUntil = &today
	}
	if e.HideUntil != nil {
		d, err := model.ParseDate(*e.HideUntil)
		if err != nil {
			return errs.Invalid("Wrong hide_until format, should be YYYY-MM-DD")
		}
		patch.HideUntil = &d
	}
	if patch.Empty() {
		return nil
	}
	return s.restaurants.Update(ctx, ownerID, id, patch)
}

// Remove soft-deletes the restaurant and its visit records.
func (s *RestaurantServiceImpl) Remove(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.restaurants.Remove(ctx, ownerID, id)
}

// List folds the pocket's live visit records into one summary per live
// restaurant, most recently visited first. Reading a pocket marks it used.
func (s *RestaurantServiceImpl) List(ctx context.Context, ownerID, pocketID uuid.UUID) ([]model.RestaurantSummary, error) {
	if _, err := livePocket(ctx, s.pockets, ownerID, pocketID); err != nil {
		return nil, err
	}
	if err := s.pockets.Touch(ctx, ownerID, pocketID, s.clock.Now()); err != nil {
		return nil, err
	}
	rests, err := s.restaurants.ListByPocket(ctx, pocketID)
	if err != nil {
		return nil, err
	}
	visits, err := s.visits.ListByPocket(ctx, ownerID, pocketID)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	out := make([]model.RestaurantSummary, len(rests))
	idx := make(map[uuid.UUID]int, len(rests))
	for i, r := range rests {
		idx[r.ID] = i
		out[i] = model.RestaurantSummary{
			ID:         r.ID,
			Name:       r.Name,
			VisitDates: []time.Time{},
			LastUpdate: r.CreatedAt,
			Status:     r.StatusLabel(today),
			HideUntil:  r.HideUntil,
			Note:       r.Note,
		}
	}
	for _, v := range visits {
		i, ok := idx[v.RestaurantID]
		if !ok {
			continue
		}
		sum := &out[i]
		sum.Visited++
		sum.VisitDates = append(sum.VisitDates, v.VisitDate)
		if v.CreatedAt.After(sum.LastUpdate) {
			sum.LastUpdate = v.CreatedAt
		}
	}

	slices.SortStableFunc(out, func(a, b model.RestaurantSummary) int {
		if c := firstVisit(b).Compare(firstVisit(a)); c != 0 {
			return c
		}
		return b.LastUpdate.Compare(a.LastUpdate)
	})
	return out, nil
}

// firstVisit is the newest visit date, or the zero time when never visited.
func firstVisit(s model.RestaurantSummary) time.Time {
	if len(s.VisitDates) == 0 {
		return time.Time{}
	}
	return s.VisitDates[0]
}

// Recommend keeps visible restaurants that were not visited too often lately.
// ACTIVE ones always qualify; RANDOM ones pass a coin flip each call.
func (s *RestaurantServiceImpl) Recommend(ctx context.Context, ownerID, pocketID uuid.UUID) ([]model.RestaurantBrief, error) {
	if _, err := livePocket(ctx, s.pockets, ownerID, pocketID); err != nil {
		return nil, err
	}
	today := s.clock.Today()
	cands, err := s.restaurants.ListVisible(ctx, pocketID, today)
	if err != nil {
		return nil, err
	}
	counts, err := s.visits.RecentCounts(ctx, pocketID, today)
	if err != nil {
		return nil, err
	}

	out := []model.RestaurantBrief{}
	for _, r := range cands {
		c := counts[r.ID]
		if c.Last30Days >= monthVisitCap || c.Last7Days >= weekVisitCap {
			continue
		}
		switch r.Status {
		case model.RestaurantActive:
		case model.RestaurantRandom:
			if s.draw() <= randomPassAbove {
				continue
			}
		default:
			continue
		}
		out = append(out, s.brief(r, c, today))
	}
	return out, nil
}

func (s *RestaurantServiceImpl) brief(r model.Restaurant, c model.VisitCounts, today time.Time) model.RestaurantBrief {
	lastUpdate := r.CreatedAt
	if r.LastVisit != nil && r.LastVisit.After(model.DateOf(r.CreatedAt.In(s.clock.Loc))) {
		lastUpdate = *r.LastVisit
	}
	return model.RestaurantBrief{
		ID:         r.ID,
		Name:       r.Name,
		VisitCount: c.Total,
		LastVisit:  r.LastVisit,
		LastUpdate: lastUpdate,
		Status:     r.StatusLabel(today),
		HideUntil:  r.HideUntil,
		Note:       r.Note,
	}
}
