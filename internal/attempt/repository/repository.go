package repository

import (
	"context"

	"patient-portal/backend/internal/attempt/domain"
)

// Repository defines persistence for login attempts.
type Repository interface {
	Create(ctx context.Context, a *domain.Attempt) error
	// ListByUser returns the most recent attempts for userID, newest first,
	// up to limit. Used for reporting.
	ListByUser(ctx context.Context, userID string, limit int32) ([]*domain.Attempt, error)
}
