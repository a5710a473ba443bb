package repository

import (
	"context"

	"github.com/garnizeh/marketplace/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type AccountRepo interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

type ProfileRepo interface {
	// InsertProfileIfAbsent writes the profile unless one already exists for
	// the same id. It reports whether a row was inserted; losing the race to
	// a concurrent creator is not an error.
	InsertProfileIfAbsent(ctx context.Context, p *models.Profile) (bool, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error
}

type JobRepo interface {
	CreateJob(ctx context.Context, j *models.Job) (int64, error)
	GetJob(ctx context.Context, id int64) (*models.JobWithCustomer, error)
	ListJobs(ctx context.Context, f models.JobFilter) ([]models.JobWithCustomer, error)
	UpdateJobFields(ctx context.Context, j *models.Job) error
	// UpdateJobStatus moves a job from one status to another as a single
	// conditional write; ErrInvalidTransition when the job is no longer in
	// the expected source status.
	UpdateJobStatus(ctx context.Context, id int64, from, to string) error
}

type BidRepo interface {
	// CreateBid inserts a bid while re-checking that the parent job is still
	// open inside the same transaction. ErrNotFound when the job does not
	// exist, ErrJobNotOpen when it has moved on, ErrDuplicateBid when the
	// provider already bid on the job.
	CreateBid(ctx context.Context, b *models.Bid) (int64, error)
	GetBid(ctx context.Context, id int64) (*models.Bid, error)
	// AcceptBid transitions the bid to accepted and its parent job to
	// in_progress in one transaction, conditioned on the job still being
	// open. Exactly one of any set of concurrent callers wins; the rest get
	// ErrJobNotOpen.
	AcceptBid(ctx context.Context, id int64) error
	// UpdateBidStatus is a conditional single-bid write used for rejection.
	UpdateBidStatus(ctx context.Context, id int64, from, to string) error
	ListBidsForJob(ctx context.Context, jobID int64) ([]models.BidWithProvider, error)
	ListBidsForProvider(ctx context.Context, providerID string, limit int) ([]models.BidWithJob, error)
	CountBidsByProviderAndStatus(ctx context.Context, providerID, status string) (int64, error)
	SumBidAmountByProviderAndStatus(ctx context.Context, providerID, status string) (float64, error)
}
