package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/marketplace/pkg/models"
	"github.com/garnizeh/marketplace/pkg/repository"
)

func (r *SQLiteRepo) CreateAccount(ctx context.Context, a *models.Account) error {
	if a == nil {
		return fmt.Errorf("account is nil")
	}

	_, err := r.conn.Exec(ctx,
		`INSERT INTO accounts (id, email, display_name, user_type, password_hash, created) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.DisplayName, a.UserType, a.PasswordHash, now())
	if isUniqueViolation(err) {
		return repository.ErrEmailInUse
	}

	return err
}

func (r *SQLiteRepo) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	return r.scanAccount(r.conn.QueryRow(ctx,
		`SELECT id, email, display_name, user_type, password_hash, created FROM accounts WHERE id = ?`, id))
}

func (r *SQLiteRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.scanAccount(r.conn.QueryRow(ctx,
		`SELECT id, email, display_name, user_type, password_hash, created FROM accounts WHERE email = ?`, email))
}

func (r *SQLiteRepo) scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	var displayName sql.NullString
	if err := row.Scan(&a.ID, &a.Email, &displayName, &a.UserType, &a.PasswordHash, &a.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if displayName.Valid {
		a.DisplayName = displayName.String
	}

	return &a, nil
}
