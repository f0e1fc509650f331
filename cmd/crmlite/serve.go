package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cfhttp "github.com/Strob0t/crmlite/internal/adapter/http"
	cfotel "github.com/Strob0t/crmlite/internal/adapter/otel"
	"github.com/Strob0t/crmlite/internal/adapter/ristretto"
	"github.com/Strob0t/crmlite/internal/config"
	"github.com/Strob0t/crmlite/internal/middleware"
	"github.com/Strob0t/crmlite/internal/port/cache"
	"github.com/Strob0t/crmlite/internal/port/database"
	"github.com/Strob0t/crmlite/internal/port/llm"
	"github.com/Strob0t/crmlite/internal/port/messagequeue"
	"github.com/Strob0t/crmlite/internal/service"
)

const shutdownTimeout = 10 * time.Second

// services bundles the core services wired over one store.
type services struct {
	users         *service.UserService
	opportunities *service.OpportunityService
	interactions  *service.InteractionService
	strategies    *service.StrategyService
}

func newServices(cfg *config.Config, store database.Store, gen llm.Generator, pub messagequeue.Publisher, c cache.Cache, metrics *cfotel.Metrics) *services {
	opps := service.NewOpportunityService(store, pub, metrics)
	return &services{
		users:         service.NewUserService(store, c, cfg.Cache.TTL),
		opportunities: opps,
		interactions:  service.NewInteractionService(store, opps),
		strategies: service.NewStrategyService(store, gen, opps, pub, metrics, service.StrategyConfig{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}),
	}
}

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c.cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"llm_provider", cfg.LLM.Provider,
		"log_level", cfg.Logging.Level,
	)

	// --- Infrastructure ---

	shutdownOTEL, err := cfotel.Init(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	sd, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer sd.close()

	if err := sd.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("schema ready")

	userCache, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer userCache.Close()

	events, err := connectEvents(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = events.pub.Close() }()

	gd, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer gd.close()

	// --- Services ---

	svc := newServices(cfg, sd.store, gd.gen, events.pub, userCache, metrics)

	// --- HTTP ---

	checks := map[string]cfhttp.HealthCheck{"store": sd.health}
	if gd.health != nil {
		checks["llm"] = gd.health
	}
	handlers := &cfhttp.Handlers{
		Users:         svc.users,
		Opportunities: svc.opportunities,
		Interactions:  svc.interactions,
		Strategies:    svc.strategies,
		Checks:        checks,
		BodyLimit:     cfg.Server.BodyLimit,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cfotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cfhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	opts := cfhttp.RouteOptions{
		Idempotency: middleware.Idempotency(userCache, cfg.Server.IdempotencyTTL),
	}
	if cfg.Server.StrategyBurst > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.StrategyRate, cfg.Server.StrategyBurst)
		limiter.StartCleanup(ctx, 10*time.Minute, time.Hour)
		opts.StrategyLimiter = limiter
	}
	cfhttp.MountRoutes(r, handlers, opts)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Strategy generation blocks on the LLM for up to llm.timeout.
		WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
