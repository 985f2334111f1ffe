package repository

import (
	"context"

	"patient-portal/backend/internal/authz/domain"
)

// Repository reads role assignments and role permissions.
type Repository interface {
	// ListRoleIDsByUser returns the role ids assigned to userID.
	ListRoleIDsByUser(ctx context.Context, userID string) ([]string, error)
	// ListPermissionsByRole returns the active permissions granted to roleID.
	ListPermissionsByRole(ctx context.Context, roleID string) ([]*domain.Permission, error)
	// ListUserIDsByRole returns every user id holding roleID.
	ListUserIDsByRole(ctx context.Context, roleID string) ([]string, error)
}
