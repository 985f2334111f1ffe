// Package reset implements the password-reset flow for credentialed accounts.
// It runs the same challenge state machine as the login flow, under the
// six-digit reset policy, and never issues a session.
package reset

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	identityrepo "patient-portal/backend/internal/identity/repository"
	"patient-portal/backend/internal/masking"
	"patient-portal/backend/internal/notify"
	"patient-portal/backend/internal/otp"
	"patient-portal/backend/internal/security"
	"patient-portal/backend/internal/settings"
)

// Sentinel errors for the reset flow; the handler maps them to status codes.
var (
	ErrAccountNotFound           = errors.New("account not found")
	ErrTooManyRequests           = errors.New("too many reset requests")
	ErrChallengeInvalidOrExpired = errors.New("challenge invalid or expired")
	ErrIdentityMismatch          = errors.New("challenge does not belong to this account")
	ErrInvalidCode               = errors.New("invalid code")
	ErrMaxAttemptsReached        = errors.New("maximum verification attempts reached")
	ErrPasswordTooShort          = errors.New("password too short")
)

const (
	minPasswordLength = 8

	defaultEmailSubject = "Password reset code"
	defaultEmailBody    = "<p>Your password reset code is <b>{code}</b>.</p>"
	defaultSMSTemplate  = "Your password reset code is {code}"
)

// StartResult is the client-safe shape returned by Start.
type StartResult struct {
	ChallengeID string
	MaskedEmail string
	MaskedPhone string
}

// Service runs the password-reset flow: Start delivers a six-digit code to the
// account's contact channels, Verify consumes it and replaces the password.
type Service struct {
	engine   *otp.Engine
	accounts identityrepo.Repository
	hasher   *security.Hasher
	email    notify.EmailSender
	sms      notify.SMSSender
	settings otp.SettingsReader
	limiter  *otp.StartLimiter
}

// NewService returns a Service. limiter may be nil to disable start
// throttling (tests).
func NewService(
	engine *otp.Engine,
	accounts identityrepo.Repository,
	hasher *security.Hasher,
	email notify.EmailSender,
	sms notify.SMSSender,
	settingsReader otp.SettingsReader,
	limiter *otp.StartLimiter,
) *Service {
	return &Service{
		engine:   engine,
		accounts: accounts,
		hasher:   hasher,
		email:    email,
		sms:      sms,
		settings: settingsReader,
		limiter:  limiter,
	}
}

// Start resolves the account and delivers a reset code to its email, and to
// its mobile when one is on file. The challenge is keyed by account id, not by
// the identifier the caller typed.
func (s *Service) Start(ctx context.Context, usernameOrEmail, clientIP string) (*StartResult, error) {
	account, err := s.accounts.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if s.limiter != nil && !s.limiter.Allow(account.ID) {
		return nil, ErrTooManyRequests
	}

	ch, code, err := s.engine.Create(ctx, otp.ChallengeSpec{
		UserID:   account.ID,
		ClientIP: clientIP,
	})
	if err != nil {
		return nil, err
	}

	deliveredSMS, deliveredEmail := false, false
	if account.Email != "" && s.email != nil {
		subject := s.settings.GetString(ctx, settings.KeyResetEmailSubject, defaultEmailSubject)
		body := strings.ReplaceAll(s.settings.GetString(ctx, settings.KeyResetEmailTemplate, defaultEmailBody), "{code}", code)
		if err := s.email.Send(ctx, account.Email, subject, body); err != nil {
			log.Warn().Err(err).Msg("reset email delivery failed")
		} else {
			deliveredEmail = true
		}
	}
	if account.Mobile != "" && s.sms != nil {
		msg := strings.ReplaceAll(s.settings.GetString(ctx, settings.KeyResetSMSTemplate, defaultSMSTemplate), "{code}", code)
		if err := s.sms.Send(ctx, account.Mobile, msg); err != nil {
			log.Warn().Err(err).Msg("reset sms delivery failed")
		} else {
			deliveredSMS = true
		}
	}
	if err := s.engine.SetDelivery(ctx, ch.ID, deliveredSMS, deliveredEmail); err != nil {
		log.Warn().Err(err).Str("challenge_id", ch.ID).Msg("failed to record delivery flags")
	}

	return &StartResult{
		ChallengeID: ch.ID,
		MaskedEmail: masking.MaskEmail(account.Email),
		MaskedPhone: masking.MaskPhone(account.Mobile),
	}, nil
}

// Verify consumes the challenge and on success replaces the account's
// password and clears any login lockout. The new password is validated before
// the challenge is consumed so a too-short password does not burn it.
func (s *Service) Verify(ctx context.Context, usernameOrEmail, challengeID, submittedCode, newPassword, clientIP string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}
	account, err := s.accounts.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}

	ch, err := s.engine.Get(ctx, challengeID)
	if err != nil {
		return err
	}
	if ch == nil || !ch.Consumable(time.Now().UTC()) {
		return ErrChallengeInvalidOrExpired
	}
	if ch.UserID != account.ID {
		return ErrIdentityMismatch
	}

	outcome, err := s.engine.Consume(ctx, ch, submittedCode)
	if err != nil {
		return err
	}
	switch outcome {
	case otp.OutcomeInvalid:
		return ErrChallengeInvalidOrExpired
	case otp.OutcomeWrongCode:
		return ErrInvalidCode
	case otp.OutcomeExhausted:
		return ErrMaxAttemptsReached
	}

	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash, now); err != nil {
		return err
	}
	if err := s.accounts.ClearLockout(ctx, account.ID, now); err != nil {
		return err
	}
	log.Info().Str("account_id", account.ID).Msg("password reset completed")
	return nil
}
