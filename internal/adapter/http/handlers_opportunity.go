package http

import (
	"net/http"

	"github.com/Strob0t/crmlite/internal/domain/opportunity"
	"github.com/Strob0t/crmlite/internal/middleware"
)

const opportunityNotFound = "opportunity not found"

// ListOpportunities handles GET /api/v1/opportunities.
//
// The list is always restricted to the caller. Query parameters: status
// filters the list; a user_id naming anyone else matches nothing.
func (h *Handlers) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	caller := middleware.UserIDFromContext(r.Context())
	if uid := q.Get("user_id"); uid != "" && uid != caller {
		writeJSON(w, http.StatusOK, []opportunity.Opportunity{})
		return
	}
	filter := opportunity.ListFilter{
		UserID: caller,
		Status: opportunity.Status(q.Get("status")),
	}

	items, err := h.Opportunities.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err, opportunityNotFound)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateOpportunity handles POST /api/v1/opportunities. The new opportunity
// is always owned by the caller.
func (h *Handlers) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[opportunity.CreateRequest](w, r, h.BodyLimit)
	if !ok {
		return
	}
	req.UserID = middleware.UserIDFromContext(r.Context())

	o, err := h.Opportunities.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err, opportunityNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

type deleteOpportunityResponse struct {
	Deleted bool `json:"deleted"`
	opportunity.CascadeResult
}

// DeleteOpportunity handles DELETE /api/v1/opportunities/{id} and reports the
// child rows removed with it.
func (h *Handlers) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	res, err := h.Opportunities.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err, opportunityNotFound)
		return
	}
	writeJSON(w, http.StatusOK, deleteOpportunityResponse{Deleted: true, CascadeResult: res})
}
