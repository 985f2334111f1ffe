package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"patient-portal/backend/internal/identity/domain"
)

// PostgresRepository implements Repository over database/sql.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a Repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*domain.Account, error) {
	needle := strings.TrimSpace(strings.ToLower(usernameOrEmail))
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, mobile, password_hash,
		       failed_login_count, lockout_end_at, created_at, updated_at
		FROM accounts
		WHERE LOWER(username) = $1 OR LOWER(email) = $1`, needle)

	a := &domain.Account{}
	var mobile sql.NullString
	var lockoutEndAt sql.NullTime
	err := row.Scan(&a.ID, &a.Username, &a.Email, &mobile, &a.PasswordHash,
		&a.FailedLoginCount, &lockoutEndAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Mobile = mobile.String
	if lockoutEndAt.Valid {
		t := lockoutEndAt.Time
		a.LockoutEndAt = &t
	}
	return a, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, accountID, passwordHash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = $3
		WHERE id = $1`, accountID, passwordHash, at)
	return err
}

func (r *PostgresRepository) ClearLockout(ctx context.Context, accountID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET failed_login_count = 0, lockout_end_at = NULL, updated_at = $2
		WHERE id = $1`, accountID, at)
	return err
}
