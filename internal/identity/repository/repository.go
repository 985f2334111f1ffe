package repository

import (
	"context"
	"time"

	"patient-portal/backend/internal/identity/domain"
)

// Repository stores credentialed accounts.
type Repository interface {
	// FindByUsernameOrEmail returns the account matching the given username
	// or email, or nil when none exists.
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*domain.Account, error)
	// UpdatePassword replaces the account's password hash.
	UpdatePassword(ctx context.Context, accountID, passwordHash string, at time.Time) error
	// ClearLockout resets the failed login counter and lockout window.
	ClearLockout(ctx context.Context, accountID string, at time.Time) error
}
