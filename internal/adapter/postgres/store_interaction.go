package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/interaction"
)

func scanInteraction(row scannable) (interaction.Interaction, error) {
	var i interaction.Interaction
	var typ string
	err := row.Scan(&i.ID, &typ, &i.Notes, &i.Timestamp, &i.OpportunityID)
	i.Type = interaction.Type(typ)
	return i, err
}

// ListInteractions returns the interactions of one opportunity, oldest first.
func (s *Store) ListInteractions(ctx context.Context, opportunityID int64) ([]interaction.Interaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, notes, timestamp, opportunity_id
		FROM interactions WHERE opportunity_id = $1
		ORDER BY timestamp ASC, id ASC`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var out []interaction.Interaction
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return orEmpty(out), nil
}

func (s *Store) GetInteraction(ctx context.Context, id int64) (*interaction.Interaction, error) {
	i, err := scanInteraction(s.pool.QueryRow(ctx, `
		SELECT id, type, notes, timestamp, opportunity_id
		FROM interactions WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get interaction %d", id)
	}
	return &i, nil
}

func (s *Store) CreateInteraction(ctx context.Context, req interaction.CreateRequest) (*interaction.Interaction, error) {
	i, err := scanInteraction(s.pool.QueryRow(ctx, `
		INSERT INTO interactions (type, notes, timestamp, opportunity_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, type, notes, timestamp, opportunity_id`,
		string(req.Type), req.Notes, s.now(), req.OpportunityID,
	))
	if err != nil {
		ref := &domain.ReferenceError{
			Entity:   "interaction",
			Parent:   "opportunity",
			ParentID: strconv.FormatInt(req.OpportunityID, 10),
		}
		return nil, writeErr(err, ref, "create interaction")
	}
	return &i, nil
}

// UpdateInteraction applies the supplied fields. An empty patch writes
// nothing and returns the stored row.
func (s *Store) UpdateInteraction(ctx context.Context, id int64, req interaction.UpdateRequest) (*interaction.Interaction, error) {
	if req.IsEmpty() {
		return s.GetInteraction(ctx, id)
	}

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
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

	tag, err := s.pool.Exec(ctx, query, args...)
	if err := execExpectOne(tag, err, "update interaction %d", id); err != nil {
		return nil, err
	}
	return s.GetInteraction(ctx, id)
}

func (s *Store) DeleteInteraction(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM interactions WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete interaction %d", id)
}
