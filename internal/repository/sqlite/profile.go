package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/marketplace/pkg/models"
)

// InsertProfileIfAbsent writes the profile unless a row already exists for
// the same id. The ON CONFLICT DO NOTHING makes the create-on-first-login
// race converge: the loser simply inserts zero rows.
func (r *SQLiteRepo) InsertProfileIfAbsent(ctx context.Context, p *models.Profile) (bool, error) {
	if p == nil {
		return false, fmt.Errorf("profile is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO profiles (id, email, display_name, user_type, created, updated) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		p.ID, p.Email, p.DisplayName, p.UserType, ts, ts)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *SQLiteRepo) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT id, email, display_name, user_type, created, updated FROM profiles WHERE id = ?`, id)

	var p models.Profile
	var displayName sql.NullString
	if err := row.Scan(&p.ID, &p.Email, &displayName, &p.UserType, &p.Created, &p.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if displayName.Valid {
		p.DisplayName = displayName.String
	}

	return &p, nil
}

func (r *SQLiteRepo) UpdateProfile(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}

	_, err := r.conn.Exec(ctx,
		`UPDATE profiles SET email = ?, display_name = ?, updated = ? WHERE id = ?`,
		p.Email, p.DisplayName, now(), p.ID)
	return err
}
