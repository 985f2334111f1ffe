package domain

import "time"

// Session is the server-side record of an issued token's validity and
// activity, independent of the token's signature-based validity.
type Session struct {
	ID         string
	DocTypeID  string
	DocNumber  string
	UserID     string
	JTI        string // matches the token's embedded jti claim
	IssuedAt   time.Time
	ExpiresAt  time.Time
	IsActive   bool
	RevokedAt  *time.Time // nil when not revoked
	ClientIP   string
	LastSeenAt *time.Time // nil until the first heartbeat
}

// ActiveAt reports whether the session is usable at now: flagged active, not
// revoked, and not past its expiry. Readers treat past-expiry rows as inactive
// even when the flag was never flipped.
func (s *Session) ActiveAt(now time.Time) bool {
	return s != nil && s.IsActive && s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// HeartbeatStaleness is how stale LastSeenAt must be before a heartbeat
// writes again. Bounds write load on busy sessions.
const HeartbeatStaleness = 60 * time.Second

// NeedsHeartbeat reports whether a heartbeat at now should write: LastSeenAt
// is nil or more than HeartbeatStaleness old.
func (s *Session) NeedsHeartbeat(now time.Time) bool {
	return s.LastSeenAt == nil || now.Sub(*s.LastSeenAt) > HeartbeatStaleness
}
