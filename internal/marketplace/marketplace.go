// Package marketplace implements the job/bid lifecycle: profile
// provisioning, the job and bid state machines, the browse query engine and
// provider stats. It owns the business rules; storage invariants (uniqueness,
// atomic acceptance) live in the repositories it is built on.
package marketplace

import (
	"errors"
	"io"

	"log/slog"

	"github.com/garnizeh/marketplace/pkg/repository"
)

var (
	// ErrValidation indicates a malformed or missing required field.
	ErrValidation = errors.New("validation failed")

	// ErrNotOwner indicates the caller does not own the record it is
	// trying to mutate.
	ErrNotOwner = errors.New("caller does not own this record")

	// ErrProvisioningFailed indicates a profile could neither be created
	// nor fetched. Callers must not proceed to job/bid operations.
	ErrProvisioningFailed = errors.New("profile provisioning failed")
)

// Service exposes the marketplace operations over injected repositories.
type Service struct {
	profiles repository.ProfileRepo
	jobs     repository.JobRepo
	bids     repository.BidRepo
	logger   *slog.Logger
}

func NewService(profiles repository.ProfileRepo, jobs repository.JobRepo, bids repository.BidRepo, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{profiles: profiles, jobs: jobs, bids: bids, logger: logger}
}
