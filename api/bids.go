package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/garnizeh/marketplace/internal/marketplace"
	"github.com/gorilla/mux"
)

type BidsHandler struct {
	svc *marketplace.Service
}

func NewBidsHandler(svc *marketplace.Service) *BidsHandler {
	return &BidsHandler{svc: svc}
}

// CreateBid places the caller's bid on the job named in the path.
func (h *BidsHandler) CreateBid(w http.ResponseWriter, r *http.Request) {
	callerID, ok := profileID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	jobID, err := jobIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	var in marketplace.BidInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	bid, err := h.svc.CreateBid(r.Context(), jobID, callerID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, bid, http.StatusCreated)
}

// ListBidsForJob returns every bid on the job with provider display data.
func (h *BidsHandler) ListBidsForJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	bids, err := h.svc.ListBidsForJob(r.Context(), jobID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{
		"total": len(bids),
		"items": bids,
	}

	writeJSON(w, resp, http.StatusOK)
}

// ListMyBids returns the caller's own bids joined with their jobs.
func (h *BidsHandler) ListMyBids(w http.ResponseWriter, r *http.Request) {
	callerID, ok := profileID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	bids, err := h.svc.ListBidsForProvider(r.Context(), callerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{
		"total": len(bids),
		"items": bids,
	}

	writeJSON(w, resp, http.StatusOK)
}

func (h *BidsHandler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	callerID, ok := profileID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	bidID, err := bidIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid bid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.AcceptBid(r.Context(), bidID, callerID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BidsHandler) RejectBid(w http.ResponseWriter, r *http.Request) {
	callerID, ok := profileID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	bidID, err := bidIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid bid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.RejectBid(r.Context(), bidID, callerID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func bidIDFromPath(r *http.Request) (int64, error) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", idStr)
	}

	return id, nil
}
