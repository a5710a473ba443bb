package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/garnizeh/marketplace/internal/marketplace"
	"github.com/garnizeh/marketplace/pkg/models"
	"github.com/garnizeh/marketplace/pkg/timeago"
	"github.com/gorilla/mux"
	"github.com/qri-io/jsonschema"
)

type JobsHandler struct {
	svc          *marketplace.Service
	createSchema *jsonschema.Schema
}

// NewJobsHandler wires the marketplace service and the compiled JSON schema
// used to validate job-creation payloads before decoding.
func NewJobsHandler(svc *marketplace.Service, createSchema *jsonschema.Schema) *JobsHandler {
	return &JobsHandler{svc: svc, createSchema: createSchema}
}

// jobView decorates a job with the relative-time label listings display.
type jobView struct {
	models.JobWithCustomer
	Posted string `json:"posted"`
}

func newJobView(j models.JobWithCustomer, now time.Time) jobView {
	return jobView{JobWithCustomer: j, Posted: timeago.LabelMillis(j.Created, now)}
}

func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	callerID, ok := profileID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if h.createSchema != nil {
		keyErrs, err := h.createSchema.ValidateBytes(ctx, body)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
			return
		}
		if len(keyErrs) > 0 {
			http.Error(w, fmt.Sprintf("invalid job payload: %s", keyErrs[0].Message), http.StatusBadRequest)
			return
		}
	}

	var in marketplace.JobInput
	if err := json.Unmarshal(body, &in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	job, err := h.svc.CreateJob(ctx, callerID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, job, http.StatusCreated)
}

func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.JobFilter{
		Status:      q.Get("status"),
		Category:    q.Get("category"),
		Location:    q.Get("location"),
		Search:      q.Get("search"),
		BudgetRange: q.Get("budget_range"),
		CustomerID:  q.Get("customer_id"),
	}

	jobs, err := h.svc.ListJobs(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now().UTC()
	items := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, newJobView(j, now))
	}

	resp := map[string]any{
		"total": len(items),
		"items": items,
	}

	writeJSON(w, resp, http.StatusOK)
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.svc.GetJob(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, newJobView(*job, time.Now().UTC()), http.StatusOK)
}

func (h *JobsHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	callerID, ok := profileID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := jobIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	var patch models.JobPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	job, err := h.svc.UpdateJob(r.Context(), id, callerID, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, newJobView(*job, time.Now().UTC()), http.StatusOK)
}

func jobIDFromPath(r *http.Request) (int64, error) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", idStr)
	}

	return id, nil
}
