package marketplace

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"github.com/garnizeh/marketplace/pkg/models"
	"github.com/garnizeh/marketplace/pkg/repository"
)

// JobInput carries the fields a customer supplies when posting a job.
type JobInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Subcategory  string   `json:"subcategory,omitempty"`
	Budget       float64  `json:"budget"`
	BudgetType   string   `json:"budget_type"`
	Location     string   `json:"location"`
	Urgency      string   `json:"urgency,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Images       []string `json:"images,omitempty"`
}

// CreateJob validates the input, checks the caller acts in the customer
// role, and stores the job as open.
func (s *Service) CreateJob(ctx context.Context, customerID string, in JobInput) (*models.Job, error) {
	if err := validateJobInput(in); err != nil {
		return nil, err
	}

	customer, err := s.profiles.GetProfile(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("fetch customer profile: %w", err)
	}
	if customer == nil {
		return nil, repository.ErrNotFound
	}
	if customer.UserType != models.UserTypeCustomer {
		return nil, fmt.Errorf("%w: only customers can post jobs", ErrValidation)
	}

	urgency := in.Urgency
	if urgency == "" {
		urgency = models.UrgencyMedium
	}

	j := &models.Job{
		CustomerID:   customerID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Category:     in.Category,
		Subcategory:  in.Subcategory,
		Budget:       in.Budget,
		BudgetType:   in.BudgetType,
		Location:     strings.TrimSpace(in.Location),
		Urgency:      urgency,
		Status:       models.JobStatusOpen,
		Requirements: in.Requirements,
		Images:       in.Images,
	}

	id, err := s.jobs.CreateJob(ctx, j)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	j.ID = id

	s.logger.Info("job created", slog.Int64("job_id", id), slog.String("customer_id", customerID), slog.String("category", j.Category))

	got, err := s.jobs.GetJob(ctx, id)
	if err != nil || got == nil {
		// the job exists; return what we have rather than failing the create
		return j, nil
	}

	return &got.Job, nil
}

// GetJob returns the job joined with its customer summary.
func (s *Service) GetJob(ctx context.Context, id int64) (*models.JobWithCustomer, error) {
	j, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, repository.ErrNotFound
	}

	return j, nil
}

// ListJobs is the browse query engine: read-only, all filters AND-composed,
// newest first.
func (s *Service) ListJobs(ctx context.Context, f models.JobFilter) ([]models.JobWithCustomer, error) {
	if f.BudgetRange != "" {
		switch f.BudgetRange {
		case models.BudgetRangeUnder100, models.BudgetRange100To500, models.BudgetRange500To1K, models.BudgetRangeOver1K:
		default:
			return nil, fmt.Errorf("%w: unknown budget range %q", ErrValidation, f.BudgetRange)
		}
	}

	return s.jobs.ListJobs(ctx, f)
}

// UpdateJob applies field edits and customer-driven status transitions.
// Field edits are owner-only; status may only move forward
// (in_progress -> completed, open|in_progress -> cancelled). Entering
// in_progress happens exclusively through AcceptBid.
func (s *Service) UpdateJob(ctx context.Context, jobID int64, callerID string, patch models.JobPatch) (*models.JobWithCustomer, error) {
	cur, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, repository.ErrNotFound
	}
	if cur.CustomerID != callerID {
		return nil, ErrNotOwner
	}

	// Validate the whole patch before writing anything: a rejected patch
	// must leave the job exactly as it was, even when it combines a legal
	// status move with a bad field edit.
	statusChange := patch.Status != nil && *patch.Status != cur.Status
	if statusChange {
		if !allowedJobTransition(cur.Status, *patch.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, cur.Status, *patch.Status)
		}
	}

	next := cur.Job
	if patchesFields(patch) {
		applyJobPatch(&next, patch)
		if err := validateJobFields(&next); err != nil {
			return nil, err
		}
	}

	if statusChange {
		to := *patch.Status
		if err := s.jobs.UpdateJobStatus(ctx, jobID, cur.Status, to); err != nil {
			return nil, err
		}

		s.logger.Info("job status changed", slog.Int64("job_id", jobID), slog.String("from", cur.Status), slog.String("to", to))
	}

	if patchesFields(patch) {
		if err := s.jobs.UpdateJobFields(ctx, &next); err != nil {
			return nil, err
		}
	}

	return s.GetJob(ctx, jobID)
}

// allowedJobTransition encodes the forward-only job state machine as seen
// from updateJob. open -> in_progress is reserved for the acceptance flow.
func allowedJobTransition(from, to string) bool {
	switch from {
	case models.JobStatusOpen:
		return to == models.JobStatusCancelled
	case models.JobStatusInProgress:
		return to == models.JobStatusCompleted || to == models.JobStatusCancelled
	default:
		// completed and cancelled are terminal
		return false
	}
}

func patchesFields(p models.JobPatch) bool {
	return p.Title != nil || p.Description != nil || p.Category != nil || p.Subcategory != nil ||
		p.Budget != nil || p.BudgetType != nil || p.Location != nil || p.Urgency != nil ||
		p.Requirements != nil || p.Images != nil
}

func applyJobPatch(j *models.Job, p models.JobPatch) {
	if p.Title != nil {
		j.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		j.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		j.Category = *p.Category
	}
	if p.Subcategory != nil {
		j.Subcategory = *p.Subcategory
	}
	if p.Budget != nil {
		j.Budget = *p.Budget
	}
	if p.BudgetType != nil {
		j.BudgetType = *p.BudgetType
	}
	if p.Location != nil {
		j.Location = strings.TrimSpace(*p.Location)
	}
	if p.Urgency != nil {
		j.Urgency = *p.Urgency
	}
	if p.Requirements != nil {
		j.Requirements = *p.Requirements
	}
	if p.Images != nil {
		j.Images = *p.Images
	}
}

func validateJobInput(in JobInput) error {
	return validateJobFields(&models.Job{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Budget:      in.Budget,
		BudgetType:  in.BudgetType,
		Location:    strings.TrimSpace(in.Location),
		Urgency:     in.Urgency,
	})
}

func validateJobFields(j *models.Job) error {
	if j.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if j.Description == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if j.Category == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if j.Location == "" {
		return fmt.Errorf("%w: location is required", ErrValidation)
	}
	if j.Budget <= 0 {
		return fmt.Errorf("%w: budget must be positive", ErrValidation)
	}
	switch j.BudgetType {
	case models.BudgetTypeFixed, models.BudgetTypeHourly:
	default:
		return fmt.Errorf("%w: unknown budget type %q", ErrValidation, j.BudgetType)
	}
	switch j.Urgency {
	case "", models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
	default:
		return fmt.Errorf("%w: unknown urgency %q", ErrValidation, j.Urgency)
	}

	return nil
}
