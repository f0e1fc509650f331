package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/crmlite/internal/adapter/gemini"
	cfhttp "github.com/Strob0t/crmlite/internal/adapter/http"
	"github.com/Strob0t/crmlite/internal/adapter/litellm"
	cfnats "github.com/Strob0t/crmlite/internal/adapter/nats"
	"github.com/Strob0t/crmlite/internal/adapter/postgres"
	"github.com/Strob0t/crmlite/internal/adapter/sqlite"
	"github.com/Strob0t/crmlite/internal/config"
	"github.com/Strob0t/crmlite/internal/port/database"
	"github.com/Strob0t/crmlite/internal/port/llm"
	"github.com/Strob0t/crmlite/internal/port/messagequeue"
	"github.com/Strob0t/crmlite/internal/resilience"
)

// storeDeps is an opened entity store with its health probe and cleanup.
type storeDeps struct {
	store  database.Store
	health cfhttp.HealthCheck
	close  func()
}

// openStore connects the backend selected by store.driver.
func openStore(ctx context.Context, cfg *config.Config) (*storeDeps, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		s := sqlite.NewStore(db)
		slog.Info("sqlite opened", "path", cfg.SQLite.Path)
		return &storeDeps{store: s, health: db.PingContext, close: func() { _ = s.Close() }}, nil
	default:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		slog.Info("postgres connected", "max_conns", cfg.Postgres.MaxConns)
		return &storeDeps{store: postgres.NewStore(pool), health: pool.Ping, close: pool.Close}, nil
	}
}

// generatorDeps is the configured generation client.
type generatorDeps struct {
	gen    llm.Generator
	health cfhttp.HealthCheck
	close  func()
}

// newGenerator builds the provider selected by llm.provider behind a shared
// circuit breaker.
func newGenerator(ctx context.Context, cfg *config.Config) (*generatorDeps, error) {
	breaker := resilience.NewBreaker("llm", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		c, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		c.SetBreaker(breaker)
		return &generatorDeps{gen: c, close: func() { _ = c.Close() }}, nil
	default:
		c := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey, cfg.LLM.Model)
		c.SetBreaker(breaker)
		health := func(ctx context.Context) error {
			ok, err := c.Health(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("litellm reports unhealthy")
			}
			return nil
		}
		return &generatorDeps{gen: c, health: health, close: func() {}}, nil
	}
}

// eventDeps is the event publisher; Subscriber is nil without a broker.
type eventDeps struct {
	pub messagequeue.Publisher
	sub messagequeue.Subscriber
}

// connectEvents returns a NATS JetStream publisher when nats.url is set, and a
// no-op publisher otherwise.
func connectEvents(ctx context.Context, cfg *config.Config) (*eventDeps, error) {
	if cfg.NATS.URL == "" {
		slog.Info("nats disabled, events are discarded")
		return &eventDeps{pub: messagequeue.Nop{}}, nil
	}
	q, err := cfnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("nats: %w", err)
	}
	slog.Info("nats connected", "url", cfg.NATS.URL)
	return &eventDeps{pub: q, sub: q}, nil
}
