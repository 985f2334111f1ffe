package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"patient-portal/backend/internal/otp/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a challenge repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the challenge. The challenge must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Challenge) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_challenges (id, doc_type_id, doc_type_code, doc_number, user_id, kind, code_hash, expires_at, used_at, failed_attempts, delivered_sms, delivered_email, client_ip, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID,
		nullString(c.DocTypeID),
		nullString(c.DocTypeCode),
		nullString(c.DocNumber),
		c.UserID,
		string(c.Kind),
		c.CodeHash,
		c.ExpiresAt,
		nullTime(c.UsedAt),
		c.FailedAttempts,
		c.DeliveredSMS,
		c.DeliveredEmail,
		nullString(c.ClientIP),
		c.CreatedAt,
	)
	return err
}

// GetByID returns the challenge for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	var (
		c           domain.Challenge
		kind        string
		docTypeID   sql.NullString
		docTypeCode sql.NullString
		docNumber   sql.NullString
		usedAt      sql.NullTime
		clientIP    sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, doc_type_id, doc_type_code, doc_number, user_id, kind, code_hash, expires_at, used_at, failed_attempts, delivered_sms, delivered_email, client_ip, created_at
		 FROM otp_challenges WHERE id = $1`, id,
	).Scan(&c.ID, &docTypeID, &docTypeCode, &docNumber, &c.UserID, &kind, &c.CodeHash, &c.ExpiresAt, &usedAt, &c.FailedAttempts, &c.DeliveredSMS, &c.DeliveredEmail, &clientIP, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Kind = domain.ChallengeKind(kind)
	c.DocTypeID = docTypeID.String
	c.DocTypeCode = docTypeCode.String
	c.DocNumber = docNumber.String
	if usedAt.Valid {
		c.UsedAt = &usedAt.Time
	}
	c.ClientIP = clientIP.String
	return &c, nil
}

// UpdateDelivery sets the per-channel delivery flags after send attempts.
func (r *PostgresRepository) UpdateDelivery(ctx context.Context, id string, sms, email bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE otp_challenges SET delivered_sms = $2, delivered_email = $3 WHERE id = $1`,
		id, sms, email)
	return err
}

// RegisterFailure bumps failed_attempts and applies the lockout expiry in one
// conditional statement, so concurrent wrong submissions cannot overshoot the
// threshold without expiring the challenge.
func (r *PostgresRepository) RegisterFailure(ctx context.Context, id string, maxAttempts int, expireAt time.Time) (int, error) {
	var attempts int
	err := r.db.QueryRowContext(ctx,
		`UPDATE otp_challenges
		 SET failed_attempts = failed_attempts + 1,
		     expires_at = CASE WHEN failed_attempts + 1 >= $2 THEN $3 ELSE expires_at END
		 WHERE id = $1
		 RETURNING failed_attempts`,
		id, maxAttempts, expireAt,
	).Scan(&attempts)
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

// MarkUsed consumes the challenge if it is still unconsumed. Returns true when
// this call set used_at, false when another call already had.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_challenges SET used_at = $2 WHERE id = $1 AND used_at IS NULL`,
		id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
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
