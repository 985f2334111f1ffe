package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"patient-portal/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the session. The session must have ID and JTI set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, doc_type_id, doc_number, user_id, jti, issued_at, expires_at, is_active, revoked_at, client_ip, last_seen_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID,
		nullString(s.DocTypeID),
		nullString(s.DocNumber),
		s.UserID,
		s.JTI,
		s.IssuedAt,
		s.ExpiresAt,
		s.IsActive,
		nullTime(s.RevokedAt),
		nullString(s.ClientIP),
		nullTime(s.LastSeenAt),
	)
	return err
}

// GetByJTI returns the session for jti, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByJTI(ctx context.Context, jti string) (*domain.Session, error) {
	var (
		s          domain.Session
		docTypeID  sql.NullString
		docNumber  sql.NullString
		revokedAt  sql.NullTime
		clientIP   sql.NullString
		lastSeenAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, doc_type_id, doc_number, user_id, jti, issued_at, expires_at, is_active, revoked_at, client_ip, last_seen_at
		 FROM sessions WHERE jti = $1`, jti,
	).Scan(&s.ID, &docTypeID, &docNumber, &s.UserID, &s.JTI, &s.IssuedAt, &s.ExpiresAt, &s.IsActive, &revokedAt, &clientIP, &lastSeenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.DocTypeID = docTypeID.String
	s.DocNumber = docNumber.String
	s.RevokedAt = timePtr(revokedAt)
	s.ClientIP = clientIP.String
	s.LastSeenAt = timePtr(lastSeenAt)
	return &s, nil
}

// DeactivateAllByUser revokes every active session for userID in one
// conditional UPDATE, so concurrent logins cannot leave two active rows.
func (r *PostgresRepository) DeactivateAllByUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET is_active = FALSE, revoked_at = $2 WHERE user_id = $1 AND is_active`,
		userID, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Deactivate revokes the session with id. No-op when already inactive.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET is_active = FALSE, revoked_at = $2 WHERE id = $1 AND is_active`,
		id, at)
	return err
}

// UpdateLastSeen sets the session's last-seen timestamp and client IP.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time, clientIP string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = $2, client_ip = $3 WHERE id = $1`,
		id, at, nullString(clientIP))
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
