package repository

import (
	"context"
	"time"

	"patient-portal/backend/internal/otp/domain"
)

// Repository defines persistence for OTP challenges. Challenges are never
// deleted; lockout is expressed by moving expires_at into the past.
type Repository interface {
	Create(ctx context.Context, c *domain.Challenge) error
	// GetByID returns the challenge for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Challenge, error)
	// UpdateDelivery sets the per-channel delivery flags after send attempts.
	UpdateDelivery(ctx context.Context, id string, sms, email bool) error
	// RegisterFailure increments failed_attempts and, when the new count
	// reaches maxAttempts, moves expires_at to expireAt in the same statement
	// (lockout). Returns the new failed_attempts count.
	RegisterFailure(ctx context.Context, id string, maxAttempts int, expireAt time.Time) (int, error)
	// MarkUsed sets used_at if and only if it is still null. Returns true when
	// this call consumed the challenge, false when it was already used.
	MarkUsed(ctx context.Context, id string, at time.Time) (bool, error)
}
