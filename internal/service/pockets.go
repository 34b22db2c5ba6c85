package service

import (
	"context"
	"fmt"

	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/model"
	"github.com/and161185/foodpocket/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// PocketService defines owner-scoped pocket operations.
type PocketService interface {
	// Create adds a pocket and returns its id.
	Create(ctx context.Context, ownerID uuid.UUID, name, note string) (uuid.UUID, error)
	// Edit applies name, note and status edits in that order.
	Edit(ctx context.Context, ownerID, id uuid.UUID, e model.PocketEdit) error
	// Remove soft-deletes a pocket with everything in it.
	Remove(ctx context.Context, ownerID, id uuid.UUID) error
	// List returns the live pockets with their sizes.
	List(ctx context.Context, ownerID uuid.UUID) ([]model.PocketSummary, error)
}

type PocketServiceImpl struct {
	repo repository.PocketRepository
}

// NewPocketService constructs PocketService.
func NewPocketService(repo repository.PocketRepository) *PocketServiceImpl {
	return &PocketServiceImpl{repo: repo}
}

// Create validates the name and stores an ACTIVE pocket.
func (s *PocketServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, name, note string) (uuid.UUID, error) {
	name, err := model.CleanName(name)
	if err != nil {
		return uuid.Nil, err
	}
	p := &model.Pocket{
		ID:      uuid.Must(uuid.NewV4()),
		OwnerID: ownerID,
		Name:    name,
		Status:  model.PocketActive,
		Note:    model.Truncate(note, model.MaxNoteLen),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return uuid.Nil, fmt.Errorf("create pocket: %w", err)
	}
	return p.ID, nil
}

// Edit validates every supplied field before writing anything. A status
// edit to DELETED hands name and note to Remove so the guard and the edit
// commit together.
func (s *PocketServiceImpl) Edit(ctx context.Context, ownerID, id uuid.UUID, e model.PocketEdit) error {
	p, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	var (
		patch    model.PocketPatch
		deleting bool
	)
	if e.Name != nil {
		name, err := model.CleanName(*e.Name)
		if err != nil {
			return err
		}
		patch.Name = &name
	}
	if e.Note != nil {
		note := model.Truncate(*e.Note, model.MaxNoteLen)
		patch.Note = &note
	}
	if e.Status != nil {
		st, err := p.NextStatus(*e.Status)
		if err != nil {
			return err
		}
		if st == model.PocketDeleted {
			deleting = true
		} else {
			patch.Status = &st
		}
	}

	if deleting {
		return s.repo.Remove(ctx, ownerID, id, patch)
	}
	if patch.Empty() {
		return nil
	}
	return s.repo.Update(ctx, ownerID, id, patch)
}

// Remove soft-deletes the pocket unless it is the owner's last live one.
func (s *PocketServiceImpl) Remove(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.repo.Remove(ctx, ownerID, id, model.PocketPatch{})
}

// List returns the owner's live pockets, oldest first.
func (s *PocketServiceImpl) List(ctx context.Context, ownerID uuid.UUID) ([]model.PocketSummary, error) {
	return s.repo.List(ctx, ownerID)
}

// livePocket loads an owned pocket and hides deleted ones as not found.
func livePocket(ctx context.Context, repo repository.PocketRepository, ownerID, id uuid.UUID) (*model.Pocket, error) {
	p, err := repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.Status == model.PocketDeleted {
		return nil, errs.ErrNotFound
	}
	return p, nil
}
