// Package settings provides typed read access to runtime configuration stored
// in the settings table. Values are read on every call, not cached, so operator
// changes take effect without a redeploy.
package settings

import (
	"context"
	"strconv"

	"patient-portal/backend/internal/settings/repository"
)

// Keys for runtime settings. Defaults apply when a row is missing or unparsable.
const (
	KeyOTPTTLSeconds         = "otp.ttl_seconds"
	KeyOTPMaxAttempts        = "otp.max_attempts"
	KeyOTPSMSTemplate        = "otp.sms_template"
	KeyOTPEmailSubject       = "otp.email_subject"
	KeyOTPEmailTemplate      = "otp.email_template"
	KeyOTPNoContactMessage   = "otp.no_contact_message"
	KeyOTPMaxAttemptsMessage = "otp.max_attempts_message"

	KeyTokenLifetimeMinutes = "session.token_lifetime_minutes"

	KeyResetTTLSeconds    = "reset.ttl_seconds"
	KeyResetMaxAttempts   = "reset.max_attempts"
	KeyResetEmailSubject  = "reset.email_subject"
	KeyResetEmailTemplate = "reset.email_template"
	KeyResetSMSTemplate   = "reset.sms_template"
)

// Provider reads typed settings values through the repository.
type Provider struct {
	repo repository.Repository
}

// NewProvider returns a Provider backed by repo.
func NewProvider(repo repository.Repository) *Provider {
	return &Provider{repo: repo}
}

// GetString returns the value for key, or def if the row is missing or the read fails.
// Read failures are treated as missing; callers needing hard errors should use the repository.
func (p *Provider) GetString(ctx context.Context, key, def string) string {
	s, err := p.repo.Get(ctx, key)
	if err != nil || s == nil {
		return def
	}
	return s.Value
}

// GetInt returns the value for key parsed as int, or def if missing or unparsable.
func (p *Provider) GetInt(ctx context.Context, key string, def int) int {
	s, err := p.repo.Get(ctx, key)
	if err != nil || s == nil {
		return def
	}
	v, err := strconv.Atoi(s.Value)
	if err != nil {
		return def
	}
	return v
}
