package domain

import "time"

// ChallengeKind distinguishes the login OTP flow from the password-reset flow.
// Both run the same state machine with different policies.
type ChallengeKind string

const (
	KindLogin         ChallengeKind = "login"
	KindPasswordReset ChallengeKind = "password_reset"
)

// Challenge tracks one OTP issuance and its verification state.
// A challenge is consumable at most once: used_at is set exactly once, on
// success. On the final failed attempt expires_at is moved into the past so
// the challenge can never be consumed; rows are never deleted, for audit.
type Challenge struct {
	ID             string
	DocTypeID      string
	DocTypeCode    string
	DocNumber      string
	UserID         string
	Kind           ChallengeKind
	CodeHash       string // one-way hash of the numeric code, never the code itself
	ExpiresAt      time.Time
	UsedAt         *time.Time // nil until consumed
	FailedAttempts int
	DeliveredSMS   bool
	DeliveredEmail bool
	ClientIP       string
	CreatedAt      time.Time
}

// UserID builds the portal identity key "{docTypeCode}-{docNumber}".
// Every login flow is keyed by document, not by username.
func UserID(docTypeCode, docNumber string) string {
	return docTypeCode + "-" + docNumber
}

// Consumable reports whether the challenge can still be verified at now:
// it exists, was never used, and has not expired (naturally or by lockout).
func (c *Challenge) Consumable(now time.Time) bool {
	return c != nil && c.UsedAt == nil && now.Before(c.ExpiresAt)
}
