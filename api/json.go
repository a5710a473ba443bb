package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/garnizeh/marketplace/internal/marketplace"
	"github.com/garnizeh/marketplace/pkg/repository"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// writeDomainError maps domain errors onto HTTP statuses. Conflicts
// (duplicate bid, job no longer open, illegal transition) are expected
// outcomes under concurrent use and map to 409 rather than 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marketplace.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, marketplace.ErrNotOwner):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, repository.ErrDuplicateBid),
		errors.Is(err, repository.ErrJobNotOpen),
		errors.Is(err, repository.ErrInvalidTransition),
		errors.Is(err, repository.ErrEmailInUse):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, marketplace.ErrProvisioningFailed):
		http.Error(w, "profile provisioning failed", http.StatusServiceUnavailable)
	default:
		logger.Error("internal error", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
