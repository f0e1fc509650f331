package http

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/Strob0t/crmlite/internal/domain/user"
	"github.com/Strob0t/crmlite/internal/middleware"
	"github.com/Strob0t/crmlite/internal/service"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Users         *service.UserService
	Opportunities *service.OpportunityService
	Interactions  *service.InteractionService
	Strategies    *service.StrategyService
	Checks        map[string]HealthCheck
	BodyLimit     int64
}

const healthCheckTimeout = 3 * time.Second

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health runs every registered check and reports 503 if any fails.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", "check", name, "error", err)
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	writeJSON(w, status, resp)
}

// UpsertUser handles POST /api/v1/users. An existing user is returned unchanged.
func (h *Handlers) UpsertUser(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.CreateRequest](w, r, h.BodyLimit)
	if !ok {
		return
	}
	u, err := h.Users.Upsert(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Me handles GET /api/v1/users/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Get(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
