package marketplace_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/garnizeh/marketplace/internal/marketplace"
	"github.com/garnizeh/marketplace/pkg/models"
	"github.com/garnizeh/marketplace/pkg/repository"
	"github.com/garnizeh/marketplace/pkg/repository/mock"
)

func newService() (*marketplace.Service, *mock.Store) {
	store := mock.NewStore()
	return marketplace.NewService(store, store, store, nil), store
}

func seedProfile(store *mock.Store, id, userType string) {
	store.Profiles[id] = &models.Profile{ID: id, Email: id + "@example.com", DisplayName: id, UserType: userType}
}

func seedJob(t *testing.T, store *mock.Store, customerID string) int64 {
	t.Helper()
	id, err := store.CreateJob(context.Background(), &models.Job{
		CustomerID:  customerID,
		Title:       "Fix kitchen sink",
		Description: "The sink drains slowly",
		Category:    "plumbing",
		Budget:      150,
		BudgetType:  models.BudgetTypeFixed,
		Location:    "Springfield",
		Urgency:     models.UrgencyMedium,
	})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return id
}

func seedBid(t *testing.T, store *mock.Store, jobID int64, providerID string, amount float64) int64 {
	t.Helper()
	id, err := store.CreateBid(context.Background(), &models.Bid{
		JobID:             jobID,
		ProviderID:        providerID,
		Amount:            amount,
		Message:           "I can do this",
		EstimatedDuration: "2 days",
	})
	if err != nil {
		t.Fatalf("seed bid: %v", err)
	}
	return id
}

func TestEnsureProfile_CreatesWithDefaults(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	p, err := svc.EnsureProfile(ctx, marketplace.Identity{ID: "u1", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("EnsureProfile error: %v", err)
	}
	if p.UserType != models.UserTypeCustomer {
		t.Fatalf("expected customer default got %q", p.UserType)
	}
	if p.DisplayName != "alice" {
		t.Fatalf("expected display name from email local part got %q", p.DisplayName)
	}
	if store.Profiles["u1"] == nil {
		t.Fatalf("profile not persisted")
	}
}

func TestEnsureProfile_Idempotent(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	first, err := svc.EnsureProfile(ctx, marketplace.Identity{ID: "u1", Email: "a@example.com", UserType: models.UserTypeProvider})
	if err != nil {
		t.Fatalf("EnsureProfile error: %v", err)
	}

	// a later session with different identity hints returns the same record
	second, err := svc.EnsureProfile(ctx, marketplace.Identity{ID: "u1", Email: "changed@example.com", UserType: models.UserTypeCustomer})
	if err != nil {
		t.Fatalf("EnsureProfile second error: %v", err)
	}
	if second.Email != first.Email || second.UserType != first.UserType {
		t.Fatalf("expected the existing profile back, got %#v", second)
	}
}

func TestEnsureProfile_ConcurrentSessions(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	const sessions = 8
	profiles := make([]*models.Profile, sessions)
	errs := make([]error, sessions)

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			profiles[i], errs[i] = svc.EnsureProfile(ctx, marketplace.Identity{ID: "raced", Email: "race@example.com"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < sessions; i++ {
		if errs[i] != nil {
			t.Fatalf("session %d error: %v", i, errs[i])
		}
		if profiles[i] == nil || profiles[i].ID != "raced" {
			t.Fatalf("session %d got wrong profile: %#v", i, profiles[i])
		}
		if profiles[i].Created != profiles[0].Created {
			t.Fatalf("sessions diverged on profile record")
		}
	}
}

func TestEnsureProfile_Failures(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	if _, err := svc.EnsureProfile(ctx, marketplace.Identity{Email: "x@example.com"}); !errors.Is(err, marketplace.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty id got: %v", err)
	}

	store.InsertProfileErr = fmt.Errorf("disk full")
	store.GetProfileErr = fmt.Errorf("disk full")
	if _, err := svc.EnsureProfile(ctx, marketplace.Identity{ID: "u1", Email: "x@example.com"}); !errors.Is(err, marketplace.ErrProvisioningFailed) {
		t.Fatalf("expected ErrProvisioningFailed got: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	seedProfile(store, "u1", models.UserTypeProvider)

	strPtr := func(s string) *string { return &s }

	if _, err := svc.UpdateProfile(ctx, "ghost", models.ProfilePatch{DisplayName: strPtr("x")}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got: %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, "u1", models.ProfilePatch{Email: strPtr("  ")}); !errors.Is(err, marketplace.ErrValidation) {
		t.Fatalf("expected ErrValidation got: %v", err)
	}

	got, err := svc.UpdateProfile(ctx, "u1", models.ProfilePatch{
		Email:       strPtr("  New.Name@Example.COM "),
		DisplayName: strPtr("  New Name "),
	})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if got.Email != "new.name@example.com" {
		t.Fatalf("email not normalized: %q", got.Email)
	}
	if got.DisplayName != "New Name" {
		t.Fatalf("display name not updated: %q", got.DisplayName)
	}
	if got.UserType != models.UserTypeProvider {
		t.Fatalf("user type must be immutable, got %q", got.UserType)
	}

	// a blank display name falls back to the email local part
	got, err = svc.UpdateProfile(ctx, "u1", models.ProfilePatch{DisplayName: strPtr("   ")})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if got.DisplayName != "new.name" {
		t.Fatalf("expected local-part fallback got %q", got.DisplayName)
	}

	if store.Profiles["u1"].Email != "new.name@example.com" {
		t.Fatalf("profile not persisted: %#v", store.Profiles["u1"])
	}
}

func TestCreateJob(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	seedProfile(store, "cust1", models.UserTypeCustomer)
	seedProfile(store, "prov1", models.UserTypeProvider)

	valid := marketplace.JobInput{
		Title:       "Fix kitchen sink",
		Description: "The sink drains slowly",
		Category:    "plumbing",
		Budget:      150,
		BudgetType:  models.BudgetTypeFixed,
		Location:    "Springfield",
	}

	tests := []struct {
		name    string
		caller  string
		mutate  func(*marketplace.JobInput)
		wantErr error
	}{
		{"missing title", "cust1", func(in *marketplace.JobInput) { in.Title = "  " }, marketplace.ErrValidation},
		{"missing description", "cust1", func(in *marketplace.JobInput) { in.Description = "" }, marketplace.ErrValidation},
		{"missing category", "cust1", func(in *marketplace.JobInput) { in.Category = "" }, marketplace.ErrValidation},
		{"missing location", "cust1", func(in *marketplace.JobInput) { in.Location = "" }, marketplace.ErrValidation},
		{"zero budget", "cust1", func(in *marketplace.JobInput) { in.Budget = 0 }, marketplace.ErrValidation},
		{"negative budget", "cust1", func(in *marketplace.JobInput) { in.Budget = -5 }, marketplace.ErrValidation},
		{"bad budget type", "cust1", func(in *marketplace.JobInput) { in.BudgetType = "weekly" }, marketplace.ErrValidation},
		{"bad urgency", "cust1", func(in *marketplace.JobInput) { in.Urgency = "asap" }, marketplace.ErrValidation},
		{"provider cannot post", "prov1", nil, marketplace.ErrValidation},
		{"unknown caller", "ghost", nil, repository.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			if _, err := svc.CreateJob(ctx, tt.caller, in); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v got: %v", tt.wantErr, err)
			}
		})
	}

	job, err := svc.CreateJob(ctx, "cust1", valid)
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}
	if job.Status != models.JobStatusOpen {
		t.Fatalf("new jobs must be open, got %q", job.Status)
	}
	if job.Urgency != models.UrgencyMedium {
		t.Fatalf("expected medium urgency default got %q", job.Urgency)
	}
}

func TestListJobs_BudgetRangeValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.ListJobs(ctx, models.JobFilter{BudgetRange: "bogus"}); !errors.Is(err, marketplace.ErrValidation) {
		t.Fatalf("expected ErrValidation got: %v", err)
	}
	if _, err := svc.ListJobs(ctx, models.JobFilter{BudgetRange: models.BudgetRangeUnder100}); err != nil {
		t.Fatalf("expected valid range to pass got: %v", err)
	}
}

func TestUpdateJob(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	seedProfile(store, "cust1", models.UserTypeCustomer)
	seedProfile(store, "cust2", models.UserTypeCustomer)
	jid := seedJob(t, store, "cust1")

	strPtr := func(s string) *string { return &s }

	// owner-only
	if _, err := svc.UpdateJob(ctx, jid, "cust2", models.JobPatch{Title: strPtr("hijack")}); !errors.Is(err, marketplace.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner got: %v", err)
	}
	if _, err := svc.UpdateJob(ctx, 9999, "cust1", models.JobPatch{}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got: %v", err)
	}

	// field edit
	got, err := svc.UpdateJob(ctx, jid, "cust1", models.JobPatch{Title: strPtr("Fix kitchen sink (urgent)")})
	if err != nil {
		t.Fatalf("UpdateJob error: %v", err)
	}
	if got.Title != "Fix kitchen sink (urgent)" {
		t.Fatalf("title not updated: %q", got.Title)
	}

	// patched fields are still validated
	if _, err := svc.UpdateJob(ctx, jid, "cust1", models.JobPatch{Title: strPtr("  ")}); !errors.Is(err, marketplace.ErrValidation) {
		t.Fatalf("expected ErrValidation got: %v", err)
	}

	// a patch mixing a legal status move with a bad field edit is rejected
	// as a whole: neither the status nor the fields may change
	if _, err := svc.UpdateJob(ctx, jid, "cust1", models.JobPatch{Status: strPtr(models.JobStatusCancelled), Title: strPtr("")}); !errors.Is(err, marketplace.ErrValidation) {
		t.Fatalf("expected ErrValidation got: %v", err)
	}
	if store.Jobs[jid].Status != models.JobStatusOpen {
		t.Fatalf("rejected patch must leave status untouched, got %q", store.Jobs[jid].Status)
	}
	if store.Jobs[jid].Title != "Fix kitchen sink (urgent)" {
		t.Fatalf("rejected patch must leave fields untouched, got %q", store.Jobs[jid].Title)
	}

	// open -> completed is not reachable directly
	if _, err := svc.UpdateJob(ctx, jid, "cust1", models.JobPatch{Status: strPtr(models.JobStatusCompleted)}); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition got: %v", err)
	}
	// open -> in_progress only happens through acceptance
	if _, err := svc.UpdateJob(ctx, jid, "cust1", models.JobPatch{Status: strPtr(models.JobStatusInProgress)}); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition got: %v", err)
	}

	// open -> cancelled is allowed and terminal
	got, err = svc.UpdateJob(ctx, jid, "cust1", models.JobPatch{Status: strPtr(models.JobStatusCancelled)})
	if err != nil {
		t.Fatalf("UpdateJob cancel error: %v", err)
	}
	if got.Status != models.JobStatusCancelled {
		t.Fatalf("expected cancelled got %q", got.Status)
	}
	if _, err := svc.UpdateJob(ctx, jid, "cust1", models.JobPatch{Status: strPtr(models.JobStatusOpen)}); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from terminal state got: %v", err)
	}
}

func TestUpdateJob_InProgressLifecycle(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	seedProfile(store, "cust1", models.UserTypeCustomer)
	seedProfile(store, "prov1", models.UserTypeProvider)
	jid := seedJob(t, store, "cust1")
	bid := seedBid(t, store, jid, "prov1", 120)

	if err := svc.AcceptBid(ctx, bid, "cust1"); err != nil {
		t.Fatalf("AcceptBid error: %v", err)
	}

	strPtr := func(s string) *string { return &s }
	got, err := svc.UpdateJob(ctx, jid, "cust1", models.JobPatch{Status: strPtr(models.JobStatusCompleted)})
	if err != nil {
		t.Fatalf("UpdateJob complete error: %v", err)
	}
	if got.Status != models.JobStatusCompleted {
		t.Fatalf("expected completed got %q", got.Status)
	}
}

func TestCreateBid(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	seedProfile(store, "cust1", models.UserTypeCustomer)
	seedProfile(store, "prov1", models.UserTypeProvider)
	jid := seedJob(t, store, "cust1")

	valid := marketplace.BidInput{Amount: 120, Message: "I can do this", EstimatedDuration: "2 days"}

	tests := []struct {
		name    string
		jobID   int64
		caller  string
		mutate  func(*marketplace.BidInput)
		wantErr error
	}{
		{"zero amount", jid, "prov1", func(in *marketplace.BidInput) { in.Amount = 0 }, marketplace.ErrValidation},
		{"blank message", jid, "prov1", func(in *marketplace.BidInput) { in.Message = "  " }, marketplace.ErrValidation},
		{"blank duration", jid, "prov1", func(in *marketplace.BidInput) { in.EstimatedDuration = "" }, marketplace.ErrValidation},
		{"customer cannot bid", jid, "cust1", nil, marketplace.ErrValidation},
		{"unknown provider", jid, "ghost", nil, repository.ErrNotFound},
		{"missing job", 9999, "prov1", nil, repository.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			if _, err := svc.CreateBid(ctx, tt.jobID, tt.caller, in); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v got: %v", tt.wantErr, err)
			}
		})
	}

	bid, err := svc.CreateBid(ctx, jid, "prov1", valid)
	if err != nil {
		t.Fatalf("CreateBid error: %v", err)
	}
	if bid.Status != models.BidStatusPending {
		t.Fatalf("new bids must be pending, got %q", bid.Status)
	}

	// bidding twice on the same job is a conflict
	if _, err := svc.CreateBid(ctx, jid, "prov1", valid); !errors.Is(err, repository.ErrDuplicateBid) {
		t.Fatalf("expected ErrDuplicateBid got: %v", err)
	}
}

func TestCreateBid_OwnJob(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	// a provider who somehow owns a job still cannot bid on it
	seedProfile(store, "prov1", models.UserTypeProvider)
	jid := seedJob(t, store, "prov1")

	in := marketplace.BidInput{Amount: 120, Message: "mine", EstimatedDuration: "1 day"}
	if _, err := svc.CreateBid(ctx, jid, "prov1", in); !errors.Is(err, marketplace.ErrValidation) {
		t.Fatalf("expected ErrValidation got: %v", err)
	}
}

func TestAcceptAndRejectBid(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	seedProfile(store, "cust1", models.UserTypeCustomer)
	seedProfile(store, "cust2", models.UserTypeCustomer)
	seedProfile(store, "prov1", models.UserTypeProvider)
	seedProfile(store, "prov2", models.UserTypeProvider)

	jid := seedJob(t, store, "cust1")
	bid1 := seedBid(t, store, jid, "prov1", 120)
	bid2 := seedBid(t, store, jid, "prov2", 130)

	// only the job owner may accept
	if err := svc.AcceptBid(ctx, bid1, "cust2"); !errors.Is(err, marketplace.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner got: %v", err)
	}
	if err := svc.AcceptBid(ctx, 9999, "cust1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got: %v", err)
	}

	if err := svc.AcceptBid(ctx, bid1, "cust1"); err != nil {
		t.Fatalf("AcceptBid error: %v", err)
	}
	if store.Jobs[jid].Status != models.JobStatusInProgress {
		t.Fatalf("job must move to in_progress, got %q", store.Jobs[jid].Status)
	}
	if store.Bids[bid1].Status != models.BidStatusAccepted {
		t.Fatalf("bid must be accepted, got %q", store.Bids[bid1].Status)
	}
	if store.Bids[bid2].Status != models.BidStatusPending {
		t.Fatalf("sibling bid must stay pending, got %q", store.Bids[bid2].Status)
	}

	// accepting the sibling now fails: the job is no longer open
	if err := svc.AcceptBid(ctx, bid2, "cust1"); !errors.Is(err, repository.ErrJobNotOpen) {
		t.Fatalf("expected ErrJobNotOpen got: %v", err)
	}

	// the sibling can still be rejected after acceptance
	if err := svc.RejectBid(ctx, bid2, "cust2"); !errors.Is(err, marketplace.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner got: %v", err)
	}
	if err := svc.RejectBid(ctx, bid2, "cust1"); err != nil {
		t.Fatalf("RejectBid error: %v", err)
	}
	if store.Bids[bid2].Status != models.BidStatusRejected {
		t.Fatalf("expected rejected got %q", store.Bids[bid2].Status)
	}
	if err := svc.RejectBid(ctx, bid2, "cust1"); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition got: %v", err)
	}
}

func TestListBidsForJob_MissingJob(t *testing.T) {
	svc, _ := newService()
	if _, err := svc.ListBidsForJob(context.Background(), 9999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got: %v", err)
	}
}

func TestProviderStats(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	seedProfile(store, "cust1", models.UserTypeCustomer)
	seedProfile(store, "prov1", models.UserTypeProvider)

	var bidIDs []int64
	for i := 0; i < 4; i++ {
		jid, err := store.CreateJob(ctx, &models.Job{
			CustomerID:  "cust1",
			Title:       fmt.Sprintf("Job %d", i),
			Description: "d",
			Category:    "plumbing",
			Budget:      100,
			BudgetType:  models.BudgetTypeFixed,
			Location:    "Springfield",
		})
		if err != nil {
			t.Fatalf("seed job: %v", err)
		}
		bidIDs = append(bidIDs, seedBid(t, store, jid, "prov1", float64(100+i*10)))
	}

	// accept the newest bid, reject the oldest, leave two pending
	if err := svc.AcceptBid(ctx, bidIDs[3], "cust1"); err != nil {
		t.Fatalf("AcceptBid error: %v", err)
	}
	if err := svc.RejectBid(ctx, bidIDs[0], "cust1"); err != nil {
		t.Fatalf("RejectBid error: %v", err)
	}

	stats, err := svc.ProviderStats(ctx, "prov1")
	if err != nil {
		t.Fatalf("ProviderStats error: %v", err)
	}

	if stats.ActiveBids != 2 {
		t.Fatalf("expected 2 active bids got %d", stats.ActiveBids)
	}
	if stats.TotalEarnings != 130 {
		t.Fatalf("expected earnings 130 got %v", stats.TotalEarnings)
	}
	if len(stats.RecentActivity) != 3 {
		t.Fatalf("expected 3 recent activities got %d", len(stats.RecentActivity))
	}
	for _, a := range stats.RecentActivity {
		switch a.BidID {
		case bidIDs[3]:
			if a.Kind != marketplace.ActivityBidAccepted {
				t.Fatalf("accepted bid must surface as %s got %s", marketplace.ActivityBidAccepted, a.Kind)
			}
		default:
			if a.Kind != marketplace.ActivityBidSubmitted {
				t.Fatalf("non-accepted bid must surface as %s got %s", marketplace.ActivityBidSubmitted, a.Kind)
			}
		}
		if a.Time != "Just now" {
			t.Fatalf("expected fresh relative label got %q", a.Time)
		}
	}

	// unknown providers are all zeroes, not an error
	empty, err := svc.ProviderStats(ctx, "nobody")
	if err != nil {
		t.Fatalf("ProviderStats empty error: %v", err)
	}
	if empty.ActiveBids != 0 || empty.TotalEarnings != 0 || len(empty.RecentActivity) != 0 {
		t.Fatalf("expected zero stats got %#v", empty)
	}
}
