package http

import (
	"net/http"

	"github.com/Strob0t/crmlite/internal/middleware"
)

// GenerateStrategy handles POST /api/v1/opportunities/{id}/strategies. It
// blocks for the single generation call.
func (h *Handlers) GenerateStrategy(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s, err := h.Strategies.Generate(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err, opportunityNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}
