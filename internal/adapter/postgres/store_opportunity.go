package postgres

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/opportunity"
)

var opportunityColumns = []string{"id", "name", "email", "status", "value", "user_id", "created_at", "updated_at"}

func scanOpportunity(row scannable) (opportunity.Opportunity, error) {
	var o opportunity.Opportunity
	var status string
	err := row.Scan(&o.ID, &o.Name, &o.Email, &status, &o.Value, &o.UserID, &o.CreatedAt, &o.UpdatedAt)
	o.Status = opportunity.Status(status)
	return o, err
}

func (s *Store) ListOpportunities(ctx context.Context, filter opportunity.ListFilter) ([]opportunity.Opportunity, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(opportunityColumns...)
	sb.From("opportunities")
	if filter.UserID != "" {
		sb.Where(sb.Equal("user_id", filter.UserID))
	}
	if filter.Status != "" {
		sb.Where(sb.Equal("status", string(filter.Status)))
	}
	sb.OrderBy("created_at DESC", "id DESC")

	query, args := sb.Build()
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var out []opportunity.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	return orEmpty(out), nil
}

func (s *Store) GetOpportunity(ctx context.Context, id int64) (*opportunity.Opportunity, error) {
	o, err := scanOpportunity(s.pool.QueryRow(ctx, `
		SELECT id, name, email, status, value, user_id, created_at, updated_at
		FROM opportunities WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get opportunity %d", id)
	}
	return &o, nil
}

func (s *Store) CreateOpportunity(ctx context.Context, req opportunity.CreateRequest) (*opportunity.Opportunity, error) {
	now := s.now()
	o, err := scanOpportunity(s.pool.QueryRow(ctx, `
		INSERT INTO opportunities (name, email, status, value, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, name, email, status, value, user_id, created_at, updated_at`,
		req.Name, req.Email, string(req.Status), req.Value, req.UserID, now,
	))
	if err != nil {
		ref := &domain.ReferenceError{Entity: "opportunity", Parent: "user", ParentID: req.UserID}
		return nil, writeErr(err, ref, "create opportunity")
	}
	return &o, nil
}

// UpdateOpportunity applies the supplied fields and refreshes updated_at.
// An empty patch writes nothing and returns the stored row.
func (s *Store) UpdateOpportunity(ctx context.Context, id int64, req opportunity.UpdateRequest) (*opportunity.Opportunity, error) {
	if req.IsEmpty() {
		return s.GetOpportunity(ctx, id)
	}

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("opportunities")
	var assigns []string
	if req.Name != nil {
		assigns = append(assigns, ub.Assign("name", *req.Name))
	}
	if req.Email != nil {
		assigns = append(assigns, ub.Assign("email", *req.Email))
	}
	if req.Status != nil {
		assigns = append(assigns, ub.Assign("status", string(*req.Status)))
	}
	if req.Value != nil {
		assigns = append(assigns, ub.Assign("value", *req.Value))
	}
	assigns = append(assigns, ub.Assign("updated_at", s.now()))
	ub.Set(assigns...)
	ub.Where(ub.Equal("id", id))
	query, args := ub.Build()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx, query, args...)
	if err := execExpectOne(tag, err, "update opportunity %d", id); err != nil {
		return nil, err
	}

	o, err := scanOpportunity(tx.QueryRow(ctx, `
		SELECT id, name, email, status, value, user_id, created_at, updated_at
		FROM opportunities WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "reload opportunity %d", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update opportunity: %w", err)
	}
	return &o, nil
}

// DeleteOpportunity removes the opportunity with its strategies and
// interactions in one transaction, children first.
func (s *Store) DeleteOpportunity(ctx context.Context, id int64) (opportunity.CascadeResult, error) {
	var res opportunity.CascadeResult

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	// Lock the parent so no child can be inserted while the cascade runs.
	var locked int64
	if err := tx.QueryRow(ctx, `SELECT id FROM opportunities WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		return res, notFoundWrap(err, "delete opportunity %d", id)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM strategies WHERE opportunity_id = $1`, id)
	if err != nil {
		return res, fmt.Errorf("delete strategies of opportunity %d: %w", id, err)
	}
	res.Strategies = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM interactions WHERE opportunity_id = $1`, id)
	if err != nil {
		return res, fmt.Errorf("delete interactions of opportunity %d: %w", id, err)
	}
	res.Interactions = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err := execExpectOne(tag, err, "delete opportunity %d", id); err != nil {
		return opportunity.CascadeResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return opportunity.CascadeResult{}, fmt.Errorf("commit delete opportunity: %w", err)
	}
	return res, nil
}

func (s *Store) CountOpportunities(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM opportunities WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count opportunities: %w", err)
	}
	return n, nil
}
