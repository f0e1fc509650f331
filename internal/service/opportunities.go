package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cfotel "github.com/Strob0t/crmlite/internal/adapter/otel"
	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/opportunity"
	"github.com/Strob0t/crmlite/internal/port/database"
	"github.com/Strob0t/crmlite/internal/port/messagequeue"
)

// OpportunityService handles opportunity lifecycle with ownership scoping.
type OpportunityService struct {
	store   database.Store
	events  messagequeue.Publisher
	metrics *cfotel.Metrics
}

// NewOpportunityService creates a new OpportunityService.
func NewOpportunityService(store database.Store, events messagequeue.Publisher, metrics *cfotel.Metrics) *OpportunityService {
	return &OpportunityService{store: store, events: events, metrics: metrics}
}

// Owned returns the opportunity only if userID owns it. Absence and foreign
// ownership both yield domain.ErrNotFoundOrDenied.
func (s *OpportunityService) Owned(ctx context.Context, userID string, id int64) (*opportunity.Opportunity, error) {
	o, err := s.store.GetOpportunity(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("opportunity %d: %w", id, domain.ErrNotFoundOrDenied)
		}
		return nil, err
	}
	if !opportunity.BelongsTo(o, userID) {
		return nil, fmt.Errorf("opportunity %d: %w", id, domain.ErrNotFoundOrDenied)
	}
	return o, nil
}

// List returns opportunities, optionally restricted to one owner and status.
func (s *OpportunityService) List(ctx context.Context, filter opportunity.ListFilter) ([]opportunity.Opportunity, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q is invalid", domain.ErrValidation, filter.Status)
	}
	return s.store.ListOpportunities(ctx, filter)
}

// Get returns an opportunity owned by userID.
func (s *OpportunityService) Get(ctx context.Context, userID string, id int64) (*opportunity.Opportunity, error) {
	return s.Owned(ctx, userID, id)
}

// Create validates and persists a new opportunity. The owning user must
// already exist.
func (s *OpportunityService) Create(ctx context.Context, req opportunity.CreateRequest) (*opportunity.Opportunity, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	o, err := s.store.CreateOpportunity(ctx, req)
	if err != nil {
		var ref *domain.ReferenceError
		if errors.As(err, &ref) {
			return nil, fmt.Errorf("create opportunity: user %s: %w", req.UserID, domain.ErrParentNotFound)
		}
		return nil, err
	}

	publish(ctx, s.events, messagequeue.SubjectOpportunityCreated, messagequeue.OpportunityCreatedPayload{
		OpportunityID: o.ID,
		UserID:        o.UserID,
		Name:          o.Name,
		Status:        string(o.Status),
		Value:         o.Value,
		CreatedAt:     o.CreatedAt,
	})
	slog.InfoContext(ctx, "opportunity created", "opportunity_id", o.ID)
	return o, nil
}

// Update applies a sparse patch to an opportunity owned by userID.
func (s *OpportunityService) Update(ctx context.Context, userID string, id int64, req opportunity.UpdateRequest) (*opportunity.Opportunity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Owned(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.UpdateOpportunity(ctx, id, req)
}

// Delete removes an opportunity owned by userID with all its interactions
// and strategies.
func (s *OpportunityService) Delete(ctx context.Context, userID string, id int64) (opportunity.CascadeResult, error) {
	if _, err := s.Owned(ctx, userID, id); err != nil {
		return opportunity.CascadeResult{}, err
	}

	ctx, span := cfotel.StartCascadeSpan(ctx, id)
	res, err := s.store.DeleteOpportunity(ctx, id)
	cfotel.EndSpan(span, err)
	if err != nil {
		return opportunity.CascadeResult{}, err
	}

	s.metrics.RecordCascade(ctx, res.Interactions, res.Strategies)
	publish(ctx, s.events, messagequeue.SubjectOpportunityDeleted, messagequeue.OpportunityDeletedPayload{
		OpportunityID: id,
		UserID:        userID,
		Interactions:  res.Interactions,
		Strategies:    res.Strategies,
	})
	slog.InfoContext(ctx, "opportunity deleted",
		"opportunity_id", id, "interactions", res.Interactions, "strategies", res.Strategies)
	return res, nil
}
