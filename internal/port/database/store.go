// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/crmlite/internal/domain/interaction"
	"github.com/Strob0t/crmlite/internal/domain/opportunity"
	"github.com/Strob0t/crmlite/internal/domain/strategy"
	"github.com/Strob0t/crmlite/internal/domain/user"
)

// Store is the port interface for database operations.
//
// Writes that reference a missing parent fail with *domain.ReferenceError.
// Lookups of absent rows fail with domain.ErrNotFound. The store performs no
// ownership checks; those belong to the service layer.
type Store interface {
	// EnsureSchema applies pending migrations. It is a no-op when the schema
	// is current.
	EnsureSchema(ctx context.Context) error

	// Users
	UpsertUser(ctx context.Context, req user.CreateRequest) (*user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)

	// Opportunities
	ListOpportunities(ctx context.Context, filter opportunity.ListFilter) ([]opportunity.Opportunity, error)
	GetOpportunity(ctx context.Context, id int64) (*opportunity.Opportunity, error)
	CreateOpportunity(ctx context.Context, req opportunity.CreateRequest) (*opportunity.Opportunity, error)
	UpdateOpportunity(ctx context.Context, id int64, req opportunity.UpdateRequest) (*opportunity.Opportunity, error)
	DeleteOpportunity(ctx context.Context, id int64) (opportunity.CascadeResult, error)
	CountOpportunities(ctx context.Context, userID string) (int, error)

	// Interactions
	ListInteractions(ctx context.Context, opportunityID int64) ([]interaction.Interaction, error)
	GetInteraction(ctx context.Context, id int64) (*interaction.Interaction, error)
	CreateInteraction(ctx context.Context, req interaction.CreateRequest) (*interaction.Interaction, error)
	UpdateInteraction(ctx context.Context, id int64, req interaction.UpdateRequest) (*interaction.Interaction, error)
	DeleteInteraction(ctx context.Context, id int64) error

	// Strategies
	CreateStrategy(ctx context.Context, s *strategy.Strategy) (*strategy.Strategy, error)
	LatestStrategy(ctx context.Context, opportunityID int64) (*strategy.Strategy, error)
	ListStrategies(ctx context.Context, opportunityID int64) ([]strategy.Strategy, error)
	CountStrategies(ctx context.Context, opportunityID int64) (int, error)
}
