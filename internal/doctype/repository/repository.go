package repository

import (
	"context"

	"patient-portal/backend/internal/doctype/domain"
)

// Repository defines persistence for document types.
type Repository interface {
	// GetByCode returns the active document type for code, or nil if not found.
	GetByCode(ctx context.Context, code string) (*domain.DocumentType, error)
}
