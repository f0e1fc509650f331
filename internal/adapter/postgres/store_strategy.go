package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/strategy"
)

func scanStrategy(row scannable) (strategy.Strategy, error) {
	var st strategy.Strategy
	err := row.Scan(&st.ID, &st.Summary, &st.Sentiment, &st.NextStep, &st.TacticalAdvice, &st.OpportunityID, &st.CreatedAt)
	return st, err
}

// CreateStrategy inserts a new strategy. A zero CreatedAt is set to now;
// timestamps are stored in UTC.
func (s *Store) CreateStrategy(ctx context.Context, st *strategy.Strategy) (*strategy.Strategy, error) {
	createdAt := st.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	out, err := scanStrategy(s.pool.QueryRow(ctx, `
		INSERT INTO strategies (summary, sentiment, next_step, tactical_advice, opportunity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, summary, sentiment, next_step, tactical_advice, opportunity_id, created_at`,
		st.Summary, st.Sentiment, st.NextStep, st.TacticalAdvice, st.OpportunityID, createdAt,
	))
	if err != nil {
		ref := &domain.ReferenceError{
			Entity:   "strategy",
			Parent:   "opportunity",
			ParentID: strconv.FormatInt(st.OpportunityID, 10),
		}
		return nil, writeErr(err, ref, "create strategy")
	}
	return &out, nil
}

// LatestStrategy returns the newest strategy of an opportunity, or
// domain.ErrNotFound when it has none.
func (s *Store) LatestStrategy(ctx context.Context, opportunityID int64) (*strategy.Strategy, error) {
	st, err := scanStrategy(s.pool.QueryRow(ctx, `
		SELECT id, summary, sentiment, next_step, tactical_advice, opportunity_id, created_at
		FROM strategies WHERE opportunity_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, opportunityID))
	if err != nil {
		return nil, notFoundWrap(err, "latest strategy for opportunity %d", opportunityID)
	}
	return &st, nil
}

// ListStrategies returns all strategies of an opportunity, newest first.
func (s *Store) ListStrategies(ctx context.Context, opportunityID int64) ([]strategy.Strategy, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, summary, sentiment, next_step, tactical_advice, opportunity_id, created_at
		FROM strategies WHERE opportunity_id = $1
		ORDER BY created_at DESC, id DESC`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()

	var out []strategy.Strategy
	for rows.Next() {
		st, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	return orEmpty(out), nil
}

func (s *Store) CountStrategies(ctx context.Context, opportunityID int64) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM strategies WHERE opportunity_id = $1`, opportunityID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count strategies: %w", err)
	}
	return n, nil
}
