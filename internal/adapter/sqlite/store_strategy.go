package sqlite

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/strategy"
)

const selectStrategy = `SELECT id, summary, sentiment, next_step, tactical_advice, opportunity_id, created_at FROM strategies`

// CreateStrategy inserts a new strategy. A zero CreatedAt is set to now;
// timestamps are stored in UTC.
func (s *Store) CreateStrategy(ctx context.Context, st *strategy.Strategy) (*strategy.Strategy, error) {
	createdAt := st.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO strategies (summary, sentiment, next_step, tactical_advice, opportunity_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		st.Summary, st.Sentiment, st.NextStep, st.TacticalAdvice, st.OpportunityID, createdAt,
	)
	if err != nil {
		ref := &domain.ReferenceError{
			Entity:   "strategy",
			Parent:   "opportunity",
			ParentID: strconv.FormatInt(st.OpportunityID, 10),
		}
		return nil, writeErr(err, ref, "create strategy")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create strategy: %w", err)
	}
	var out strategy.Strategy
	if err := s.db.GetContext(ctx, &out, selectStrategy+` WHERE id = ?`, id); err != nil {
		return nil, notFoundWrap(err, "get strategy %d", id)
	}
	return &out, nil
}

// LatestStrategy returns the newest strategy of an opportunity, or
// domain.ErrNotFound when it has none.
func (s *Store) LatestStrategy(ctx context.Context, opportunityID int64) (*strategy.Strategy, error) {
	var st strategy.Strategy
	err := s.db.GetContext(ctx, &st, selectStrategy+`
		WHERE opportunity_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, opportunityID)
	if err != nil {
		return nil, notFoundWrap(err, "latest strategy for opportunity %d", opportunityID)
	}
	return &st, nil
}

// ListStrategies returns all strategies of an opportunity, newest first.
func (s *Store) ListStrategies(ctx context.Context, opportunityID int64) ([]strategy.Strategy, error) {
	var out []strategy.Strategy
	err := s.db.SelectContext(ctx, &out, selectStrategy+`
		WHERE opportunity_id = ?
		ORDER BY created_at DESC, id DESC`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	return orEmpty(out), nil
}

func (s *Store) CountStrategies(ctx context.Context, opportunityID int64) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM strategies WHERE opportunity_id = ?`, opportunityID); err != nil {
		return 0, fmt.Errorf("count strategies: %w", err)
	}
	return n, nil
}
