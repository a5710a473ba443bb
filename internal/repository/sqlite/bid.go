package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/marketplace/pkg/models"
	"github.com/garnizeh/marketplace/pkg/repository"
)

// CreateBid inserts a bid after re-checking, inside the same transaction,
// that the parent job is still open. The UNIQUE(job_id, provider_id)
// constraint enforces one bid per provider per job.
func (r *SQLiteRepo) CreateBid(ctx context.Context, b *models.Bid) (int64, error) {
	if b == nil {
		return 0, fmt.Errorf("bid is nil")
	}

	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	var status string
	row := tx.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = ?`, b.JobID)
	if err := row.Scan(&status); err != nil {
		_ = tx.Rollback()
		if err == sql.ErrNoRows {
			return 0, repository.ErrNotFound
		}

		return 0, err
	}
	if status != models.JobStatusOpen {
		_ = tx.Rollback()
		return 0, repository.ErrJobNotOpen
	}

	ts := now()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bids (job_id, provider_id, amount, message, estimated_duration, status, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.JobID, b.ProviderID, b.Amount, b.Message, b.EstimatedDuration, models.BidStatusPending, ts, ts)
	if err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicateBid
		}

		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	return id, tx.Commit()
}

func (r *SQLiteRepo) GetBid(ctx context.Context, id int64) (*models.Bid, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT id, job_id, provider_id, amount, message, estimated_duration, status, created, updated FROM bids WHERE id = ?`, id)

	var b models.Bid
	if err := row.Scan(&b.ID, &b.JobID, &b.ProviderID, &b.Amount, &b.Message, &b.EstimatedDuration, &b.Status, &b.Created, &b.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &b, nil
}

// AcceptBid marks the bid accepted and its parent job in_progress in one
// transaction. The job update is conditioned on the job still being open, so
// of any set of concurrent acceptors exactly one commits; the rest see
// ErrJobNotOpen. Sibling pending bids are left untouched.
func (r *SQLiteRepo) AcceptBid(ctx context.Context, id int64) error {
	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	var jobID int64
	var bidStatus string
	row := tx.QueryRowContext(ctx, `SELECT job_id, status FROM bids WHERE id = ?`, id)
	if err := row.Scan(&jobID, &bidStatus); err != nil {
		_ = tx.Rollback()
		if err == sql.ErrNoRows {
			return repository.ErrNotFound
		}

		return err
	}
	if bidStatus != models.BidStatusPending {
		_ = tx.Rollback()
		return repository.ErrInvalidTransition
	}

	ts := now()
	res, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated = ? WHERE id = ? AND status = ?`,
		models.JobStatusInProgress, ts, jobID, models.JobStatusOpen)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if n == 0 {
		_ = tx.Rollback()
		return repository.ErrJobNotOpen
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE bids SET status = ?, updated = ? WHERE id = ? AND status = ?`,
		models.BidStatusAccepted, ts, id, models.BidStatusPending)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	n, err = res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if n == 0 {
		_ = tx.Rollback()
		return repository.ErrInvalidTransition
	}

	return tx.Commit()
}

// UpdateBidStatus moves a bid between statuses as one conditional write.
func (r *SQLiteRepo) UpdateBidStatus(ctx context.Context, id int64, from, to string) error {
	res, err := r.conn.Exec(ctx,
		`UPDATE bids SET status = ?, updated = ? WHERE id = ? AND status = ?`,
		to, now(), id, from)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		row := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM bids WHERE id = ?`, id)
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

func (r *SQLiteRepo) ListBidsForJob(ctx context.Context, jobID int64) ([]models.BidWithProvider, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT b.id, b.job_id, b.provider_id, b.amount, b.message, b.estimated_duration, b.status, b.created, b.updated,
			p.id, p.email, p.display_name
		 FROM bids b LEFT JOIN profiles p ON p.id = b.provider_id
		 WHERE b.job_id = ? ORDER BY b.created DESC, b.id DESC`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BidWithProvider
	for rows.Next() {
		var b models.BidWithProvider
		var provID, provEmail, provName sql.NullString
		if err := rows.Scan(&b.ID, &b.JobID, &b.ProviderID, &b.Amount, &b.Message, &b.EstimatedDuration, &b.Status, &b.Created, &b.Updated,
			&provID, &provEmail, &provName); err != nil {
			return nil, err
		}

		if provID.Valid {
			b.Provider = &models.ProfileSummary{ID: provID.String, Email: provEmail.String, DisplayName: provName.String}
		}
		out = append(out, b)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) ListBidsForProvider(ctx context.Context, providerID string, limit int) ([]models.BidWithJob, error) {
	q := `SELECT b.id, b.job_id, b.provider_id, b.amount, b.message, b.estimated_duration, b.status, b.created, b.updated,
			j.id, j.title, j.budget, j.budget_type, j.location, j.status
		 FROM bids b LEFT JOIN jobs j ON j.id = b.job_id
		 WHERE b.provider_id = ? ORDER BY b.created DESC, b.id DESC`
	args := []any{providerID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BidWithJob
	for rows.Next() {
		var b models.BidWithJob
		var jobID sql.NullInt64
		var title, budgetType, location, status sql.NullString
		var budget sql.NullFloat64
		if err := rows.Scan(&b.ID, &b.JobID, &b.ProviderID, &b.Amount, &b.Message, &b.EstimatedDuration, &b.Status, &b.Created, &b.Updated,
			&jobID, &title, &budget, &budgetType, &location, &status); err != nil {
			return nil, err
		}

		if jobID.Valid {
			b.Job = &models.JobSummary{
				ID:         jobID.Int64,
				Title:      title.String,
				Budget:     budget.Float64,
				BudgetType: budgetType.String,
				Location:   location.String,
				Status:     status.String,
			}
		}
		out = append(out, b)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CountBidsByProviderAndStatus(ctx context.Context, providerID, status string) (int64, error) {
	row := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM bids WHERE provider_id = ? AND status = ?`, providerID, status)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *SQLiteRepo) SumBidAmountByProviderAndStatus(ctx context.Context, providerID, status string) (float64, error) {
	row := r.conn.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM bids WHERE provider_id = ? AND status = ?`, providerID, status)
	var sum float64
	if err := row.Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}
