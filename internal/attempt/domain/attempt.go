package domain

import "time"

// Reasons recorded on a login attempt. Every verification call writes exactly
// one attempt with one of these.
const (
	ReasonChallengeInvalidOrExpired = "ChallengeInvalidOrExpired"
	ReasonIdentityMismatch          = "IdentityMismatch"
	ReasonInvalidOtp                = "InvalidOtp"
	ReasonSuccess                   = "Success"
)

// Attempt is an immutable audit record of one verification call. Write-only:
// rows are never updated or deleted.
type Attempt struct {
	ID          string
	DocTypeCode string
	DocNumber   string
	UserID      string
	Success     bool
	Reason      string
	IP          string
	TraceID     string
	CreatedAt   time.Time
}
