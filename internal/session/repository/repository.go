package repository

import (
	"context"
	"time"

	"patient-portal/backend/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	// GetByJTI returns the session whose token id is jti, or nil if not found.
	GetByJTI(ctx context.Context, jti string) (*domain.Session, error)
	// DeactivateAllByUser flips every active session for userID to inactive
	// with revoked_at set, in a single conditional statement. Returns the
	// number of sessions revoked.
	DeactivateAllByUser(ctx context.Context, userID string, at time.Time) (int64, error)
	// Deactivate flips the session with id to inactive with revoked_at set.
	Deactivate(ctx context.Context, id string, at time.Time) error
	// UpdateLastSeen sets last_seen_at and client_ip for the session with id.
	UpdateLastSeen(ctx context.Context, id string, at time.Time, clientIP string) error
}
