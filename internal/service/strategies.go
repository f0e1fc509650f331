package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cfotel "github.com/Strob0t/crmlite/internal/adapter/otel"
	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/strategy"
	"github.com/Strob0t/crmlite/internal/port/database"
	"github.com/Strob0t/crmlite/internal/port/llm"
	"github.com/Strob0t/crmlite/internal/port/messagequeue"
)

// StrategyConfig holds generation parameters.
type StrategyConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// StrategyService turns an opportunity's interaction history into a
// persisted AI strategy.
type StrategyService struct {
	store   database.Store
	gen     llm.Generator
	opps    *OpportunityService
	events  messagequeue.Publisher
	metrics *cfotel.Metrics
	cfg     StrategyConfig
	now     func() time.Time
}

// NewStrategyService creates a new StrategyService.
func NewStrategyService(
	store database.Store,
	gen llm.Generator,
	opps *OpportunityService,
	events messagequeue.Publisher,
	metrics *cfotel.Metrics,
	cfg StrategyConfig,
) *StrategyService {
	return &StrategyService{
		store:   store,
		gen:     gen,
		opps:    opps,
		events:  events,
		metrics: metrics,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Generate calls the generator exactly once for an owned opportunity and
// persists the parsed result. Any generator or parse failure is
// domain.ErrGeneration and nothing is written.
func (s *StrategyService) Generate(ctx context.Context, userID string, opportunityID int64) (*strategy.Strategy, error) {
	opp, err := s.opps.Owned(ctx, userID, opportunityID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ListInteractions(ctx, opportunityID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	ctx, span := cfotel.StartGenerateSpan(ctx, opportunityID, s.cfg.Model)
	st, reason, err := s.generate(ctx, opportunityID, strategy.BuildPrompt(opp, strategy.Transcript(items)))
	cfotel.EndSpan(span, err)
	s.metrics.RecordGeneration(ctx, started, reason)
	if err != nil {
		slog.WarnContext(ctx, "strategy generation failed",
			"opportunity_id", opportunityID, "reason", reason, "error", err)
		return nil, err
	}

	publish(ctx, s.events, messagequeue.SubjectStrategyGenerated, messagequeue.StrategyGeneratedPayload{
		StrategyID:    st.ID,
		OpportunityID: opportunityID,
		UserID:        userID,
		Sentiment:     st.Sentiment,
		Model:         s.cfg.Model,
		CreatedAt:     st.CreatedAt,
	})
	slog.InfoContext(ctx, "strategy generated", "opportunity_id", opportunityID, "strategy_id", st.ID)
	return st, nil
}

// generate runs the single generator call, parses and persists. reason names
// the failed step for metrics.
func (s *StrategyService) generate(ctx context.Context, opportunityID int64, prompt string) (*strategy.Strategy, string, error) {
	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	resp, err := s.gen.Generate(callCtx, llm.Request{
		System:      strategy.SystemPrompt,
		Prompt:      prompt,
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
		JSON:        true,
	})
	if err != nil {
		reason := "provider"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return nil, reason, fmt.Errorf("generate strategy for opportunity %d: %w: %w", opportunityID, domain.ErrGeneration, err)
	}

	res, err := strategy.Parse(resp.Content)
	if err != nil {
		return nil, "parse", fmt.Errorf("opportunity %d: %w", opportunityID, err)
	}

	st, err := s.store.CreateStrategy(ctx, &strategy.Strategy{
		Summary:        res.Summary,
		Sentiment:      res.Sentiment,
		NextStep:       res.NextStep,
		TacticalAdvice: res.TacticalAdvice,
		OpportunityID:  opportunityID,
		CreatedAt:      s.now(),
	})
	if err != nil {
		var ref *domain.ReferenceError
		if errors.As(err, &ref) {
			return nil, "store", fmt.Errorf("opportunity %d: %w", opportunityID, domain.ErrNotFoundOrDenied)
		}
		return nil, "store", err
	}
	return st, "", nil
}

// Latest returns the newest strategy of an owned opportunity, or
// domain.ErrNoStrategyYet.
func (s *StrategyService) Latest(ctx context.Context, userID string, opportunityID int64) (*strategy.Strategy, error) {
	if _, err := s.opps.Owned(ctx, userID, opportunityID); err != nil {
		return nil, err
	}
	st, err := s.store.LatestStrategy(ctx, opportunityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("opportunity %d: %w", opportunityID, domain.ErrNoStrategyYet)
		}
		return nil, err
	}
	return st, nil
}

// History returns all strategies of an owned opportunity, newest first.
func (s *StrategyService) History(ctx context.Context, userID string, opportunityID int64) ([]strategy.Strategy, error) {
	if _, err := s.opps.Owned(ctx, userID, opportunityID); err != nil {
		return nil, err
	}
	return s.store.ListStrategies(ctx, opportunityID)
}
