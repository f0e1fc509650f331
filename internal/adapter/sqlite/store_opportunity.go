package sqlite

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/opportunity"
)

const selectOpportunity = `SELECT id, name, email, status, value, user_id, created_at, updated_at FROM opportunities`

func (s *Store) ListOpportunities(ctx context.Context, filter opportunity.ListFilter) ([]opportunity.Opportunity, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "name", "email", "status", "value", "user_id", "created_at", "updated_at")
	sb.From("opportunities")
	if filter.UserID != "" {
		sb.Where(sb.Equal("user_id", filter.UserID))
	}
	if filter.Status != "" {
		sb.Where(sb.Equal("status", string(filter.Status)))
	}
	sb.OrderBy("created_at DESC", "id DESC")
	query, args := sb.Build()

	var out []opportunity.Opportunity
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	return orEmpty(out), nil
}

func (s *Store) GetOpportunity(ctx context.Context, id int64) (*opportunity.Opportunity, error) {
	return getOpportunity(ctx, s.db, id)
}

func getOpportunity(ctx context.Context, q sqlx.QueryerContext, id int64) (*opportunity.Opportunity, error) {
	var o opportunity.Opportunity
	if err := sqlx.GetContext(ctx, q, &o, selectOpportunity+` WHERE id = ?`, id); err != nil {
		return nil, notFoundWrap(err, "get opportunity %d", id)
	}
	return &o, nil
}

func (s *Store) CreateOpportunity(ctx context.Context, req opportunity.CreateRequest) (*opportunity.Opportunity, error) {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO opportunities (name, email, status, value, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.Name, req.Email, string(req.Status), req.Value, req.UserID, now, now,
	)
	if err != nil {
		ref := &domain.ReferenceError{Entity: "opportunity", Parent: "user", ParentID: req.UserID}
		return nil, writeErr(err, ref, "create opportunity")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create opportunity: %w", err)
	}
	return s.GetOpportunity(ctx, id)
}

// UpdateOpportunity applies the supplied fields and refreshes updated_at.
// An empty patch writes nothing and returns the stored row.
func (s *Store) UpdateOpportunity(ctx context.Context, id int64, req opportunity.UpdateRequest) (*opportunity.Opportunity, error) {
	if req.IsEmpty() {
		return s.GetOpportunity(ctx, id)
	}

	ub := sqlbuilder.SQLite.NewUpdateBuilder()
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

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx, query, args...)
	if err := execExpectOne(res, err, "update opportunity %d", id); err != nil {
		return nil, err
	}
	o, err := getOpportunity(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update opportunity: %w", err)
	}
	return o, nil
}

// DeleteOpportunity removes the opportunity with its strategies and
// interactions in one transaction, children first.
func (s *Store) DeleteOpportunity(ctx context.Context, id int64) (opportunity.CascadeResult, error) {
	var res opportunity.CascadeResult

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var found int64
	if err := tx.GetContext(ctx, &found, `SELECT id FROM opportunities WHERE id = ?`, id); err != nil {
		return res, notFoundWrap(err, "delete opportunity %d", id)
	}

	r, err := tx.ExecContext(ctx, `DELETE FROM strategies WHERE opportunity_id = ?`, id)
	if err != nil {
		return res, fmt.Errorf("delete strategies of opportunity %d: %w", id, err)
	}
	if res.Strategies, err = r.RowsAffected(); err != nil {
		return res, fmt.Errorf("delete strategies of opportunity %d: %w", id, err)
	}

	r, err = tx.ExecContext(ctx, `DELETE FROM interactions WHERE opportunity_id = ?`, id)
	if err != nil {
		return opportunity.CascadeResult{}, fmt.Errorf("delete interactions of opportunity %d: %w", id, err)
	}
	if res.Interactions, err = r.RowsAffected(); err != nil {
		return opportunity.CascadeResult{}, fmt.Errorf("delete interactions of opportunity %d: %w", id, err)
	}

	r, err = tx.ExecContext(ctx, `DELETE FROM opportunities WHERE id = ?`, id)
	if err := execExpectOne(r, err, "delete opportunity %d", id); err != nil {
		return opportunity.CascadeResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return opportunity.CascadeResult{}, fmt.Errorf("commit delete opportunity: %w", err)
	}
	return res, nil
}

func (s *Store) CountOpportunities(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM opportunities WHERE user_id = ?`, userID); err != nil {
		return 0, fmt.Errorf("count opportunities: %w", err)
	}
	return n, nil
}
