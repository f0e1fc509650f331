package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/crmlite/internal/middleware"
)

// RouteOptions holds optional middleware. Nil fields are skipped.
type RouteOptions struct {
	// StrategyLimiter throttles strategy generation per caller.
	StrategyLimiter *middleware.RateLimiter
	// Idempotency replays opportunity creation for a repeated
	// Idempotency-Key. It is not applied to nested resources.
	Idempotency func(http.Handler) http.Handler
}

// MountRoutes registers all API routes on the given chi router. Everything
// except health and user sync requires the caller identity header.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		r.Get("/health", h.Health)

		// Identity provider sync
		r.Post("/users", h.UpsertUser)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(h.Users))

			r.Get("/users/me", h.Me)

			// Opportunities
			r.Get("/opportunities", h.ListOpportunities)
			create := http.Handler(http.HandlerFunc(h.CreateOpportunity))
			if opts.Idempotency != nil {
				create = opts.Idempotency(create)
			}
			r.Method(http.MethodPost, "/opportunities", create)
			r.Get("/opportunities/{id}", handleGet(h.Opportunities.Get, opportunityNotFound))
			r.Patch("/opportunities/{id}", handleUpdate(h.BodyLimit, h.Opportunities.Update, opportunityNotFound))
			r.Delete("/opportunities/{id}", h.DeleteOpportunity)

			// Interactions (nested under opportunities)
			r.Get("/opportunities/{id}/interactions", handleListByID(h.Interactions.List, opportunityNotFound))
			r.Post("/opportunities/{id}/interactions", handleCreateUnder(h.BodyLimit, h.Interactions.Create, opportunityNotFound))
			r.Get("/interactions/{id}", handleGet(h.Interactions.Get, "interaction not found"))
			r.Patch("/interactions/{id}", handleUpdate(h.BodyLimit, h.Interactions.Update, "interaction not found"))
			r.Delete("/interactions/{id}", handleDelete(h.Interactions.Delete, "interaction not found"))

			// Strategies
			generate := http.Handler(http.HandlerFunc(h.GenerateStrategy))
			if opts.StrategyLimiter != nil {
				generate = opts.StrategyLimiter.Handler(generate)
			}
			r.Method(http.MethodPost, "/opportunities/{id}/strategies", generate)
			r.Get("/opportunities/{id}/strategies", handleListByID(h.Strategies.History, opportunityNotFound))
			r.Get("/opportunities/{id}/strategies/latest", handleGet(h.Strategies.Latest, opportunityNotFound))
		})
	})
}
