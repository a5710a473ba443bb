package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garnizeh/marketplace/pkg/models"
	"github.com/garnizeh/marketplace/pkg/repository"
)

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	if j == nil {
		return 0, fmt.Errorf("job is nil")
	}

	reqs, err := encodeStrings(j.Requirements)
	if err != nil {
		return 0, fmt.Errorf("encode requirements: %w", err)
	}
	imgs, err := encodeStrings(j.Images)
	if err != nil {
		return 0, fmt.Errorf("encode images: %w", err)
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO jobs (customer_id, title, description, category, subcategory, budget, budget_type, location, urgency, status, requirements, images, created, updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.CustomerID, j.Title, j.Description, j.Category, j.Subcategory, j.Budget, j.BudgetType, j.Location, j.Urgency, j.Status, reqs, imgs, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

const jobColumns = `j.id, j.customer_id, j.title, j.description, j.category, j.subcategory, j.budget, j.budget_type, j.location, j.urgency, j.status, j.requirements, j.images, j.created, j.updated,
	p.id, p.email, p.display_name`

func (r *SQLiteRepo) GetJob(ctx context.Context, id int64) (*models.JobWithCustomer, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs j LEFT JOIN profiles p ON p.id = j.customer_id WHERE j.id = ?`, id)

	j, err := scanJobWithCustomer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return j, nil
}

// ListJobs filters and orders jobs for browsing. All set filter fields
// compose with AND; ordering is newest first with id as the tiebreak.
func (r *SQLiteRepo) ListJobs(ctx context.Context, f models.JobFilter) ([]models.JobWithCustomer, error) {
	q := `SELECT ` + jobColumns + ` FROM jobs j LEFT JOIN profiles p ON p.id = j.customer_id WHERE 1=1`
	var args []any

	if f.Status != "" {
		q += ` AND j.status = ?`
		args = append(args, f.Status)
	}
	if f.Category != "" {
		q += ` AND j.category = ?`
		args = append(args, f.Category)
	}
	if f.CustomerID != "" {
		q += ` AND j.customer_id = ?`
		args = append(args, f.CustomerID)
	}
	if f.Location != "" {
		q += ` AND LOWER(j.location) LIKE '%' || LOWER(?) || '%'`
		args = append(args, f.Location)
	}
	if f.Search != "" {
		q += ` AND (LOWER(j.title) LIKE '%' || LOWER(?) || '%' OR LOWER(j.description) LIKE '%' || LOWER(?) || '%')`
		args = append(args, f.Search, f.Search)
	}
	switch f.BudgetRange {
	case "":
	case models.BudgetRangeUnder100:
		q += ` AND j.budget < 100`
	case models.BudgetRange100To500:
		q += ` AND j.budget >= 100 AND j.budget <= 500`
	case models.BudgetRange500To1K:
		q += ` AND j.budget >= 500 AND j.budget <= 1000`
	case models.BudgetRangeOver1K:
		q += ` AND j.budget > 1000`
	default:
		return nil, fmt.Errorf("unknown budget range %q", f.BudgetRange)
	}

	q += ` ORDER BY j.created DESC, j.id DESC`

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.JobWithCustomer
	for rows.Next() {
		j, err := scanJobWithCustomer(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *j)
	}

	return out, rows.Err()
}

// UpdateJobFields persists the editable fields of a job. Status and
// customer_id are deliberately not written here; status moves go through
// UpdateJobStatus or AcceptBid.
func (r *SQLiteRepo) UpdateJobFields(ctx context.Context, j *models.Job) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}

	reqs, err := encodeStrings(j.Requirements)
	if err != nil {
		return fmt.Errorf("encode requirements: %w", err)
	}
	imgs, err := encodeStrings(j.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}

	res, err := r.conn.Exec(ctx,
		`UPDATE jobs SET title = ?, description = ?, category = ?, subcategory = ?, budget = ?, budget_type = ?, location = ?, urgency = ?, requirements = ?, images = ?, updated = ? WHERE id = ?`,
		j.Title, j.Description, j.Category, j.Subcategory, j.Budget, j.BudgetType, j.Location, j.Urgency, reqs, imgs, now(), j.ID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateJobStatus moves a job between statuses as one conditional write.
func (r *SQLiteRepo) UpdateJobStatus(ctx context.Context, id int64, from, to string) error {
	res, err := r.conn.Exec(ctx,
		`UPDATE jobs SET status = ?, updated = ? WHERE id = ? AND status = ?`,
		to, now(), id, from)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// distinguish a missing job from one that moved on
		var exists int
		row := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM jobs WHERE id = ?`, id)
		if err := row.Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return repository.ErrNotFound
		}

		return repository.ErrInvalidTransition
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobWithCustomer(row rowScanner) (*models.JobWithCustomer, error) {
	var j models.JobWithCustomer
	var subcategory, reqs, imgs sql.NullString
	var custID, custEmail, custName sql.NullString

	if err := row.Scan(&j.ID, &j.CustomerID, &j.Title, &j.Description, &j.Category, &subcategory,
		&j.Budget, &j.BudgetType, &j.Location, &j.Urgency, &j.Status, &reqs, &imgs, &j.Created, &j.Updated,
		&custID, &custEmail, &custName); err != nil {
		return nil, err
	}

	if subcategory.Valid {
		j.Subcategory = subcategory.String
	}
	var err error
	if j.Requirements, err = decodeStrings(reqs); err != nil {
		return nil, fmt.Errorf("decode requirements: %w", err)
	}
	if j.Images, err = decodeStrings(imgs); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}

	if custID.Valid {
		j.Customer = &models.ProfileSummary{
			ID:          custID.String,
			Email:       custEmail.String,
			DisplayName: custName.String,
		}
	}

	return &j, nil
}

// encodeStrings stores ordered string lists as JSON text; nil and empty both
// persist as NULL.
func encodeStrings(ss []string) (any, error) {
	if len(ss) == 0 {
		return nil, nil
	}

	b, err := json.Marshal(ss)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

func decodeStrings(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}

	var ss []string
	if err := json.Unmarshal([]byte(ns.String), &ss); err != nil {
		return nil, err
	}

	return ss, nil
}
