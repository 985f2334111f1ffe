package repository

import (
	"context"
	"database/sql"
	"errors"

	"patient-portal/backend/internal/doctype/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a document type repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByCode returns the active document type for code, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*domain.DocumentType, error) {
	var dt domain.DocumentType
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, name, is_active FROM document_types WHERE code = $1 AND is_active`, code,
	).Scan(&dt.ID, &dt.Code, &dt.Name, &dt.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &dt, nil
}
