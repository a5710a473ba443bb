package marketplace

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"github.com/garnizeh/marketplace/pkg/models"
	"github.com/garnizeh/marketplace/pkg/repository"
)

// BidInput carries the fields a provider supplies when bidding on a job.
type BidInput struct {
	Amount            float64 `json:"amount"`
	Message           string  `json:"message"`
	EstimatedDuration string  `json:"estimated_duration"`
}

// CreateBid validates the input and inserts a pending bid. The parent job
// must still be open and the provider must not already have a bid on it;
// both checks are enforced transactionally by the bid store.
func (s *Service) CreateBid(ctx context.Context, jobID int64, providerID string, in BidInput) (*models.Bid, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}
	dur := strings.TrimSpace(in.EstimatedDuration)
	if dur == "" {
		return nil, fmt.Errorf("%w: estimated_duration is required", ErrValidation)
	}

	provider, err := s.profiles.GetProfile(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("fetch provider profile: %w", err)
	}
	if provider == nil {
		return nil, repository.ErrNotFound
	}
	if provider.UserType != models.UserTypeProvider {
		return nil, fmt.Errorf("%w: only providers can bid", ErrValidation)
	}

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, repository.ErrNotFound
	}
	if job.CustomerID == providerID {
		return nil, fmt.Errorf("%w: cannot bid on your own job", ErrValidation)
	}

	b := &models.Bid{
		JobID:             jobID,
		ProviderID:        providerID,
		Amount:            in.Amount,
		Message:           msg,
		EstimatedDuration: dur,
		Status:            models.BidStatusPending,
	}

	id, err := s.bids.CreateBid(ctx, b)
	if err != nil {
		return nil, err
	}
	b.ID = id

	s.logger.Info("bid created", slog.Int64("bid_id", id), slog.Int64("job_id", jobID), slog.String("provider_id", providerID))

	got, err := s.bids.GetBid(ctx, id)
	if err != nil || got == nil {
		return b, nil
	}

	return got, nil
}

// AcceptBid accepts the bid and moves its job to in_progress as one atomic
// operation, owner-only. A concurrent acceptance that lost the race surfaces
// as ErrJobNotOpen and is a normal outcome, not a failure. Sibling pending
// bids are deliberately left pending.
func (s *Service) AcceptBid(ctx context.Context, bidID int64, callerID string) error {
	bid, err := s.bids.GetBid(ctx, bidID)
	if err != nil {
		return err
	}
	if bid == nil {
		return repository.ErrNotFound
	}

	job, err := s.jobs.GetJob(ctx, bid.JobID)
	if err != nil {
		return err
	}
	if job == nil {
		return repository.ErrNotFound
	}
	if job.CustomerID != callerID {
		return ErrNotOwner
	}

	if err := s.bids.AcceptBid(ctx, bidID); err != nil {
		return err
	}

	s.logger.Info("bid accepted", slog.Int64("bid_id", bidID), slog.Int64("job_id", bid.JobID))
	return nil
}

// RejectBid moves a pending bid to rejected, owner-only. It stays available
// while the job is in_progress so the customer can clear out losing bids
// after accepting one.
func (s *Service) RejectBid(ctx context.Context, bidID int64, callerID string) error {
	bid, err := s.bids.GetBid(ctx, bidID)
	if err != nil {
		return err
	}
	if bid == nil {
		return repository.ErrNotFound
	}

	job, err := s.jobs.GetJob(ctx, bid.JobID)
	if err != nil {
		return err
	}
	if job == nil {
		return repository.ErrNotFound
	}
	if job.CustomerID != callerID {
		return ErrNotOwner
	}

	if err := s.bids.UpdateBidStatus(ctx, bidID, models.BidStatusPending, models.BidStatusRejected); err != nil {
		return err
	}

	s.logger.Info("bid rejected", slog.Int64("bid_id", bidID), slog.Int64("job_id", bid.JobID))
	return nil
}

// ListBidsForJob returns a job's bids joined with provider summaries,
// newest first.
func (s *Service) ListBidsForJob(ctx context.Context, jobID int64) ([]models.BidWithProvider, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, repository.ErrNotFound
	}

	return s.bids.ListBidsForJob(ctx, jobID)
}

// ListBidsForProvider returns a provider's bids joined with job summaries,
// newest first.
func (s *Service) ListBidsForProvider(ctx context.Context, providerID string) ([]models.BidWithJob, error) {
	return s.bids.ListBidsForProvider(ctx, providerID, 0)
}
