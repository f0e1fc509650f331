package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/crmlite/internal/domain/interaction"
	"github.com/Strob0t/crmlite/internal/domain/opportunity"
	"github.com/Strob0t/crmlite/internal/domain/user"
	"github.com/Strob0t/crmlite/internal/port/database"
)

// SeedResult reports what SeedDemoData wrote.
type SeedResult struct {
	Skipped       bool `json:"skipped"`
	Opportunities int  `json:"opportunities"`
	Interactions  int  `json:"interactions"`
}

var demoOpportunities = []opportunity.CreateRequest{
	{Name: "John Doe", Email: "john@email.com", Status: opportunity.StatusContacted, Value: 1200},
	{Name: "Jane Smith", Email: "jane@company.com", Status: opportunity.StatusNew, Value: 4500},
	{Name: "Acme Corp", Email: "deals@acme.com", Status: opportunity.StatusFollowUp, Value: 12000},
	{Name: "Sarah Lee", Email: "sarah@startup.io", Status: opportunity.StatusWon, Value: 8500},
	{Name: "Bob Williams", Email: "bob@enterprise.co", Status: opportunity.StatusLost, Value: 3200},
}

var demoInteractions = []interaction.CreateRequest{
	{Type: interaction.TypePhoneCall, Notes: "Client interested in our premium plan. Asked about pricing tiers."},
	{Type: interaction.TypeEmailSent, Notes: "Sent detailed pricing breakdown with comparison chart."},
}

// SeedDemoData ensures owner exists and gives them the demo pipeline. It
// does nothing when the owner already has opportunities.
func SeedDemoData(ctx context.Context, store database.Store, owner user.CreateRequest) (SeedResult, error) {
	var res SeedResult
	if err := owner.Validate(); err != nil {
		return res, err
	}
	if _, err := store.UpsertUser(ctx, owner); err != nil {
		return res, fmt.Errorf("seed user: %w", err)
	}

	n, err := store.CountOpportunities(ctx, owner.ID)
	if err != nil {
		return res, err
	}
	if n > 0 {
		slog.InfoContext(ctx, "seed skipped", "user_id", owner.ID, "existing", n)
		res.Skipped = true
		return res, nil
	}

	var created []int64
	for _, req := range demoOpportunities {
		req.UserID = owner.ID
		o, err := store.CreateOpportunity(ctx, req)
		if err != nil {
			return SeedResult{}, undoSeed(ctx, store, created, fmt.Errorf("seed opportunity %q: %w", req.Name, err))
		}
		created = append(created, o.ID)
		res.Opportunities++
	}

	for _, req := range demoInteractions {
		req.OpportunityID = created[0]
		if _, err := store.CreateInteraction(ctx, req); err != nil {
			return SeedResult{}, undoSeed(ctx, store, created, fmt.Errorf("seed interaction: %w", err))
		}
		res.Interactions++
	}

	slog.InfoContext(ctx, "seed complete", "user_id", owner.ID,
		"opportunities", res.Opportunities, "interactions", res.Interactions)
	return res, nil
}

// undoSeed removes the opportunities written by a failed seed, with their
// children, so a later run starts from an empty pipeline again.
func undoSeed(ctx context.Context, store database.Store, ids []int64, cause error) error {
	errs := []error{cause}
	for _, id := range ids {
		if _, err := store.DeleteOpportunity(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("undo seed opportunity %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
