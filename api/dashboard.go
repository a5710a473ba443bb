package api

import (
	"net/http"

	"github.com/garnizeh/marketplace/internal/marketplace"
)

type DashboardHandler struct {
	svc *marketplace.Service
}

func NewDashboardHandler(svc *marketplace.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// ProviderStats returns the caller's dashboard aggregates: pending bid count,
// accepted earnings total, and the three most recent bid activities.
func (h *DashboardHandler) ProviderStats(w http.ResponseWriter, r *http.Request) {
	callerID, ok := profileID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := h.svc.ProviderStats(r.Context(), callerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, stats, http.StatusOK)
}
