package repository

import (
	"context"

	"patient-portal/backend/internal/settings/domain"
)

// Repository defines persistence for runtime settings.
type Repository interface {
	// Get returns the setting for key, or nil if not found.
	Get(ctx context.Context, key string) (*domain.Setting, error)
	Upsert(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]*domain.Setting, error)
}
