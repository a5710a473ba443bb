package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/garnizeh/marketplace/pkg/models"
	"github.com/garnizeh/marketplace/pkg/repository"
)

// Store is an in-memory implementation of the repository interfaces for
// handler and service tests. It mirrors the SQLite store's semantics,
// including the sentinel errors, so tests exercise the same error paths.
type Store struct {
	mu sync.Mutex

	Accounts map[string]*models.Account
	Profiles map[string]*models.Profile
	Jobs     map[int64]*models.Job
	Bids     map[int64]*models.Bid

	nextJobID int64
	nextBidID int64
	nextTick  int64

	// Error overrides; when set, the corresponding method fails with it.
	CreateAccountErr error
	InsertProfileErr error
	GetProfileErr    error
	CreateJobErr     error
	CreateBidErr     error
}

var _ repository.AccountRepo = (*Store)(nil)
var _ repository.ProfileRepo = (*Store)(nil)
var _ repository.JobRepo = (*Store)(nil)
var _ repository.BidRepo = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		Accounts: make(map[string]*models.Account),
		Profiles: make(map[string]*models.Profile),
		Jobs:     make(map[int64]*models.Job),
		Bids:     make(map[int64]*models.Bid),
	}
}

// tick hands out strictly increasing millisecond timestamps so ordering
// assertions and relative-time labels behave like the real store.
func (s *Store) tick() int64 {
	if now := time.Now().UTC().UnixMilli(); now > s.nextTick {
		s.nextTick = now
	} else {
		s.nextTick++
	}
	return s.nextTick
}

func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateAccountErr != nil {
		return s.CreateAccountErr
	}
	for _, existing := range s.Accounts {
		if existing.Email == a.Email {
			return repository.ErrEmailInUse
		}
	}
	a.Created = s.tick()
	cp := *a
	s.Accounts[a.ID] = &cp
	return nil
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.Accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.Accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertProfileIfAbsent(ctx context.Context, p *models.Profile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.InsertProfileErr != nil {
		return false, s.InsertProfileErr
	}
	if _, ok := s.Profiles[p.ID]; ok {
		return false, nil
	}
	p.Created = s.tick()
	p.Updated = p.Created
	cp := *p
	s.Profiles[p.ID] = &cp
	return true, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.GetProfileErr != nil {
		return nil, s.GetProfileErr
	}
	if p, ok := s.Profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) UpdateProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.Profiles[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Email = p.Email
	existing.DisplayName = p.DisplayName
	existing.Updated = s.tick()
	return nil
}

func (s *Store) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateJobErr != nil {
		return 0, s.CreateJobErr
	}
	s.nextJobID++
	j.ID = s.nextJobID
	j.Status = models.JobStatusOpen
	j.Created = s.tick()
	j.Updated = j.Created
	cp := *j
	s.Jobs[j.ID] = &cp
	return j.ID, nil
}

func (s *Store) GetJob(ctx context.Context, id int64) (*models.JobWithCustomer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.Jobs[id]
	if !ok {
		return nil, nil
	}
	return s.jobWithCustomer(j), nil
}

func (s *Store) jobWithCustomer(j *models.Job) *models.JobWithCustomer {
	out := models.JobWithCustomer{Job: *j}
	if p, ok := s.Profiles[j.CustomerID]; ok {
		out.Customer = &models.ProfileSummary{ID: p.ID, Email: p.Email, DisplayName: p.DisplayName}
	}
	return &out
}

func (s *Store) ListJobs(ctx context.Context, f models.JobFilter) ([]models.JobWithCustomer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.JobWithCustomer
	for _, j := range s.Jobs {
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		if f.Category != "" && j.Category != f.Category {
			continue
		}
		if f.CustomerID != "" && j.CustomerID != f.CustomerID {
			continue
		}
		if f.Location != "" && !containsFold(j.Location, f.Location) {
			continue
		}
		if f.Search != "" && !containsFold(j.Title, f.Search) && !containsFold(j.Description, f.Search) {
			continue
		}
		if f.BudgetRange != "" && !budgetInRange(j.Budget, f.BudgetRange) {
			continue
		}
		out = append(out, *s.jobWithCustomer(j))
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Created != out[b].Created {
			return out[a].Created > out[b].Created
		}
		return out[a].ID > out[b].ID
	})
	return out, nil
}

func (s *Store) UpdateJobFields(ctx context.Context, j *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.Jobs[j.ID]
	if !ok {
		return repository.ErrNotFound
	}
	status := existing.Status
	created := existing.Created
	*existing = *j
	existing.Status = status
	existing.Created = created
	existing.Updated = s.tick()
	return nil
}

func (s *Store) UpdateJobStatus(ctx context.Context, id int64, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.Jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if j.Status != from {
		return repository.ErrInvalidTransition
	}
	j.Status = to
	j.Updated = s.tick()
	return nil
}

func (s *Store) CreateBid(ctx context.Context, b *models.Bid) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateBidErr != nil {
		return 0, s.CreateBidErr
	}
	j, ok := s.Jobs[b.JobID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if j.Status != models.JobStatusOpen {
		return 0, repository.ErrJobNotOpen
	}
	for _, existing := range s.Bids {
		if existing.JobID == b.JobID && existing.ProviderID == b.ProviderID {
			return 0, repository.ErrDuplicateBid
		}
	}
	s.nextBidID++
	b.ID = s.nextBidID
	b.Status = models.BidStatusPending
	b.Created = s.tick()
	b.Updated = b.Created
	cp := *b
	s.Bids[b.ID] = &cp
	return b.ID, nil
}

func (s *Store) GetBid(ctx context.Context, id int64) (*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.Bids[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) AcceptBid(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.Bids[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != models.BidStatusPending {
		return repository.ErrInvalidTransition
	}
	j, ok := s.Jobs[b.JobID]
	if !ok {
		return repository.ErrNotFound
	}
	if j.Status != models.JobStatusOpen {
		return repository.ErrJobNotOpen
	}
	j.Status = models.JobStatusInProgress
	j.Updated = s.tick()
	b.Status = models.BidStatusAccepted
	b.Updated = j.Updated
	return nil
}

func (s *Store) UpdateBidStatus(ctx context.Context, id int64, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.Bids[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != from {
		return repository.ErrInvalidTransition
	}
	b.Status = to
	b.Updated = s.tick()
	return nil
}

func (s *Store) ListBidsForJob(ctx context.Context, jobID int64) ([]models.BidWithProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.BidWithProvider
	for _, b := range s.Bids {
		if b.JobID != jobID {
			continue
		}
		item := models.BidWithProvider{Bid: *b}
		if p, ok := s.Profiles[b.ProviderID]; ok {
			item.Provider = &models.ProfileSummary{ID: p.ID, Email: p.Email, DisplayName: p.DisplayName}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Created > out[b].Created })
	return out, nil
}

func (s *Store) ListBidsForProvider(ctx context.Context, providerID string, limit int) ([]models.BidWithJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.BidWithJob
	for _, b := range s.Bids {
		if b.ProviderID != providerID {
			continue
		}
		item := models.BidWithJob{Bid: *b}
		if j, ok := s.Jobs[b.JobID]; ok {
			item.Job = &models.JobSummary{
				ID:         j.ID,
				Title:      j.Title,
				Budget:     j.Budget,
				BudgetType: j.BudgetType,
				Location:   j.Location,
				Status:     j.Status,
			}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Created > out[b].Created })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountBidsByProviderAndStatus(ctx context.Context, providerID, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, b := range s.Bids {
		if b.ProviderID == providerID && b.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Store) SumBidAmountByProviderAndStatus(ctx context.Context, providerID, status string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum float64
	for _, b := range s.Bids {
		if b.ProviderID == providerID && b.Status == status {
			sum += b.Amount
		}
	}
	return sum, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func budgetInRange(budget float64, bucket string) bool {
	switch bucket {
	case models.BudgetRangeUnder100:
		return budget < 100
	case models.BudgetRange100To500:
		return budget >= 100 && budget <= 500
	case models.BudgetRange500To1K:
		return budget >= 500 && budget <= 1000
	case models.BudgetRangeOver1K:
		return budget > 1000
	default:
		return false
	}
}
