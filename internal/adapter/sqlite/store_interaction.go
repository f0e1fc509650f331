package sqlite

import (
	"context"
	"fmt"
	"strconv"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/interaction"
)

// ListInteractions returns the interactions of one opportunity, oldest first.
func (s *Store) ListInteractions(ctx context.Context, opportunityID int64) ([]interaction.Interaction, error) {
	var out []interaction.Interaction
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, type, notes, timestamp, opportunity_id
		FROM interactions WHERE opportunity_id = ?
		ORDER BY timestamp ASC, id ASC`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return orEmpty(out), nil
}

func (s *Store) GetInteraction(ctx context.Context, id int64) (*interaction.Interaction, error) {
	var i interaction.Interaction
	err := s.db.GetContext(ctx, &i, `
		SELECT id, type, notes, timestamp, opportunity_id
		FROM interactions WHERE id = ?`, id)
	if err != nil {
		return nil, notFoundWrap(err, "get interaction %d", id)
	}
	return &i, nil
}

func (s *Store) CreateInteraction(ctx context.Context, req interaction.CreateRequest) (*interaction.Interaction, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (type, notes, timestamp, opportunity_id)
		VALUES (?, ?, ?, ?)`,
		string(req.Type), req.Notes, s.now(), req.OpportunityID,
	)
	if err != nil {
		ref := &domain.ReferenceError{
			Entity:   "interaction",
			Parent:   "opportunity",
			ParentID: strconv.FormatInt(req.OpportunityID, 10),
		}
		return nil, writeErr(err, ref, "create interaction")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create interaction: %w", err)
	}
	return s.GetInteraction(ctx, id)
}

// UpdateInteraction applies the supplied fields. An empty patch writes
// nothing and returns the stored row.
func (s *Store) UpdateInteraction(ctx context.Context, id int64, req interaction.UpdateRequest) (*interaction.Interaction, error) {
	if req.IsEmpty() {
		return s.GetInteraction(ctx, id)
	}

	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("interactions")
	var assigns []string
	if req.Type != nil {
		assigns = append(assigns, ub.Assign("type", string(*req.Type)))
	}
	if req.Notes != nil {
		assigns = append(assigns, ub.Assign("notes", *req.Notes))
	}
	ub.Set(assigns...)
	ub.Where(ub.Equal("id", id))
	query, args := ub.Build()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err := execExpectOne(res, err, "update interaction %d", id); err != nil {
		return nil, err
	}
	return s.GetInteraction(ctx, id)
}

func (s *Store) DeleteInteraction(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM interactions WHERE id = ?`, id)
	return execExpectOne(res, err, "delete interaction %d", id)
}
