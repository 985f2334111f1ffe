package repository

import (
	"context"
	"database/sql"

	"patient-portal/backend/internal/attempt/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a login attempt repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the attempt. The attempt must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Attempt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_attempts (id, doc_type_code, doc_number, user_id, success, reason, ip, trace_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID,
		sql.NullString{String: a.DocTypeCode, Valid: a.DocTypeCode != ""},
		sql.NullString{String: a.DocNumber, Valid: a.DocNumber != ""},
		a.UserID,
		a.Success,
		a.Reason,
		sql.NullString{String: a.IP, Valid: a.IP != ""},
		sql.NullString{String: a.TraceID, Valid: a.TraceID != ""},
		a.CreatedAt,
	)
	return err
}

// ListByUser returns the most recent attempts for userID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int32) ([]*domain.Attempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, doc_type_code, doc_number, user_id, success, reason, ip, trace_id, created_at
		 FROM login_attempts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Attempt
	for rows.Next() {
		var (
			a           domain.Attempt
			docTypeCode sql.NullString
			docNumber   sql.NullString
			ip          sql.NullString
			traceID     sql.NullString
		)
		if err := rows.Scan(&a.ID, &docTypeCode, &docNumber, &a.UserID, &a.Success, &a.Reason, &ip, &traceID, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.DocTypeCode = docTypeCode.String
		a.DocNumber = docNumber.String
		a.IP = ip.String
		a.TraceID = traceID.String
		out = append(out, &a)
	}
	return out, rows.Err()
}
