package models

// Domain models matching the database schema in db/migrations/0001_init.sql

// User types a profile may hold. The type is fixed at creation and gates
// role-specific write operations.
const (
	UserTypeCustomer = "customer"
	UserTypeProvider = "provider"
)

// Job statuses. Transitions only move forward:
// open -> in_progress -> completed, open|in_progress -> cancelled.
const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// Bid statuses. pending -> accepted and pending -> rejected are the only
// transitions; both targets are terminal.
const (
	BidStatusPending  = "pending"
	BidStatusAccepted = "accepted"
	BidStatusRejected = "rejected"
)

const (
	BudgetTypeFixed  = "fixed"
	BudgetTypeHourly = "hourly"
)

const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// Budget range buckets recognized by the job browse filter. The two middle
// buckets are inclusive on both ends.
const (
	BudgetRangeUnder100 = "under-100"
	BudgetRange100To500 = "100-500"
	BudgetRange500To1K  = "500-1000"
	BudgetRangeOver1K   = "over-1000"
)

// Account is an authenticated identity. Exactly one Profile is provisioned
// per account on first signin.
type Account struct {
	ID           string `json:"id" db:"id"`
	Email        string `json:"email" db:"email" validate:"required,email"`
	DisplayName  string `json:"display_name,omitempty" db:"display_name"`
	UserType     string `json:"user_type" db:"user_type"`
	PasswordHash string `json:"-" db:"password_hash"`
	Created      int64  `json:"created" db:"created"`
}

type Profile struct {
	ID          string `json:"id" db:"id"`
	Email       string `json:"email" db:"email"`
	DisplayName string `json:"display_name,omitempty" db:"display_name"`
	UserType    string `json:"user_type" db:"user_type"`
	Created     int64  `json:"created" db:"created"`
	Updated     int64  `json:"updated" db:"updated"`
}

// ProfilePatch carries optional display-data edits for a profile. Nil fields
// are left untouched; the user type is fixed at provisioning.
type ProfilePatch struct {
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
}

type Job struct {
	ID           int64    `json:"id" db:"id"`
	CustomerID   string   `json:"customer_id" db:"customer_id"`
	Title        string   `json:"title" db:"title" validate:"required"`
	Description  string   `json:"description" db:"description" validate:"required"`
	Category     string   `json:"category" db:"category" validate:"required"`
	Subcategory  string   `json:"subcategory,omitempty" db:"subcategory"`
	Budget       float64  `json:"budget" db:"budget"`
	BudgetType   string   `json:"budget_type" db:"budget_type"`
	Location     string   `json:"location" db:"location" validate:"required"`
	Urgency      string   `json:"urgency" db:"urgency"`
	Status       string   `json:"status" db:"status"`
	Requirements []string `json:"requirements,omitempty" db:"requirements"`
	Images       []string `json:"images,omitempty" db:"images"`
	Created      int64    `json:"created" db:"created"`
	Updated      int64    `json:"updated" db:"updated"`
}

type Bid struct {
	ID                int64   `json:"id" db:"id"`
	JobID             int64   `json:"job_id" db:"job_id"`
	ProviderID        string  `json:"provider_id" db:"provider_id"`
	Amount            float64 `json:"amount" db:"amount"`
	Message           string  `json:"message" db:"message"`
	EstimatedDuration string  `json:"estimated_duration" db:"estimated_duration"`
	Status            string  `json:"status" db:"status"`
	Created           int64   `json:"created" db:"created"`
	Updated           int64   `json:"updated" db:"updated"`
}

// ProfileSummary is the slice of a profile embedded in read joins.
type ProfileSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// JobSummary is the slice of a job embedded in provider-side bid listings.
type JobSummary struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Budget     float64 `json:"budget"`
	BudgetType string  `json:"budget_type"`
	Location   string  `json:"location"`
	Status     string  `json:"status"`
}

type JobWithCustomer struct {
	Job
	Customer *ProfileSummary `json:"customer,omitempty"`
}

type BidWithProvider struct {
	Bid
	Provider *ProfileSummary `json:"provider,omitempty"`
}

type BidWithJob struct {
	Bid
	Job *JobSummary `json:"job,omitempty"`
}

// JobFilter enumerates the recognized browse options; each field is
// independently optional and all set fields compose with AND.
type JobFilter struct {
	Status      string
	Category    string
	Location    string
	Search      string
	BudgetRange string
	CustomerID  string
}

// JobPatch carries optional field edits for a job. Nil fields are left
// untouched. Status moves are validated against the job state machine.
type JobPatch struct {
	Title        *string   `json:"title,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Subcategory  *string   `json:"subcategory,omitempty"`
	Budget       *float64  `json:"budget,omitempty"`
	BudgetType   *string   `json:"budget_type,omitempty"`
	Location     *string   `json:"location,omitempty"`
	Urgency      *string   `json:"urgency,omitempty"`
	Status       *string   `json:"status,omitempty"`
	Requirements *[]string `json:"requirements,omitempty"`
	Images       *[]string `json:"images,omitempty"`
}

// ProviderStats is derived from the bid store on every call; nothing here is
// persisted.
type ProviderStats struct {
	ActiveBids     int64         `json:"active_bids"`
	TotalEarnings  float64       `json:"total_earnings"`
	RecentActivity []BidActivity `json:"recent_activity"`
}

// BidActivity is one entry of a provider's recent-activity feed.
type BidActivity struct {
	BidID    int64   `json:"bid_id"`
	Kind     string  `json:"kind"`
	JobTitle string  `json:"job_title"`
	Amount   float64 `json:"amount"`
	Time     string  `json:"time"`
}
