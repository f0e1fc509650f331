package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/interaction"
	"github.com/Strob0t/crmlite/internal/port/database"
)

// InteractionService manages interactions, always reached through an
// opportunity the caller owns.
type InteractionService struct {
	store database.Store
	opps  *OpportunityService
}

// NewInteractionService creates a new InteractionService.
func NewInteractionService(store database.Store, opps *OpportunityService) *InteractionService {
	return &InteractionService{store: store, opps: opps}
}

// List returns the interactions of an owned opportunity, oldest first.
func (s *InteractionService) List(ctx context.Context, userID string, opportunityID int64) ([]interaction.Interaction, error) {
	if _, err := s.opps.Owned(ctx, userID, opportunityID); err != nil {
		return nil, err
	}
	return s.store.ListInteractions(ctx, opportunityID)
}

// Get returns an interaction whose opportunity is owned by userID.
func (s *InteractionService) Get(ctx context.Context, userID string, id int64) (*interaction.Interaction, error) {
	i, err := s.store.GetInteraction(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("interaction %d: %w", id, domain.ErrNotFoundOrDenied)
		}
		return nil, err
	}
	if _, err := s.opps.Owned(ctx, userID, i.OpportunityID); err != nil {
		return nil, fmt.Errorf("interaction %d: %w", id, domain.ErrNotFoundOrDenied)
	}
	return i, nil
}

// Create records an interaction on an owned opportunity. A missing or foreign
// opportunity yields domain.ErrParentNotFound.
func (s *InteractionService) Create(ctx context.Context, userID string, opportunityID int64, req interaction.CreateRequest) (*interaction.Interaction, error) {
	req.OpportunityID = opportunityID
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.opps.Owned(ctx, userID, opportunityID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("create interaction: opportunity %d: %w", opportunityID, domain.ErrParentNotFound)
		}
		return nil, err
	}

	i, err := s.store.CreateInteraction(ctx, req)
	if err != nil {
		var ref *domain.ReferenceError
		if errors.As(err, &ref) {
			return nil, fmt.Errorf("create interaction: opportunity %d: %w", opportunityID, domain.ErrParentNotFound)
		}
		return nil, err
	}
	return i, nil
}

// Update applies a sparse patch to an interaction.
func (s *InteractionService) Update(ctx context.Context, userID string, id int64, req interaction.UpdateRequest) (*interaction.Interaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.UpdateInteraction(ctx, id, req)
}

// Delete removes a single interaction.
func (s *InteractionService) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteInteraction(ctx, id)
}
