// Package domain holds the credentialed account entity used by the
// password-reset flow.
package domain

import "time"

// Account is a credentialed portal account. Patients authenticate by OTP
// challenge; accounts exist for users with a password (staff, administrators)
// and are the subject of the password-reset flow.
type Account struct {
	ID               string
	Username         string
	Email            string
	Mobile           string
	PasswordHash     string
	FailedLoginCount int
	LockoutEndAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
