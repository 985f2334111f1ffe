// Package otp implements the one-time-password challenge state machine:
// Created -> Verified (terminal success), Created -> Expired (TTL or lockout).
// The login and password-reset flows run the same machine under different
// policies.
package otp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"patient-portal/backend/internal/otp/domain"
	otprepo "patient-portal/backend/internal/otp/repository"
	"patient-portal/backend/internal/settings"
	"patient-portal/backend/internal/telemetry"
)

// Policy fixes the constants of one challenge flow. Digits are compile-time
// per flow (4 for login, 6 for reset); TTL and the lockout threshold are
// runtime settings re-read on every operation.
type Policy struct {
	Kind               domain.ChallengeKind
	Digits             int
	TTLKey             string
	DefaultTTLSeconds  int
	MaxAttemptsKey     string
	DefaultMaxAttempts int
}

// LoginPolicy is the 4-digit, 3-attempt policy of the portal login flow.
var LoginPolicy = Policy{
	Kind:               domain.KindLogin,
	Digits:             4,
	TTLKey:             settings.KeyOTPTTLSeconds,
	DefaultTTLSeconds:  300,
	MaxAttemptsKey:     settings.KeyOTPMaxAttempts,
	DefaultMaxAttempts: 3,
}

// PasswordResetPolicy is the 6-digit, 5-attempt policy of the reset flow.
var PasswordResetPolicy = Policy{
	Kind:               domain.KindPasswordReset,
	Digits:             6,
	TTLKey:             settings.KeyResetTTLSeconds,
	DefaultTTLSeconds:  600,
	MaxAttemptsKey:     settings.KeyResetMaxAttempts,
	DefaultMaxAttempts: 5,
}

// SettingsReader is the runtime-settings surface the engine and its callers need.
type SettingsReader interface {
	GetString(ctx context.Context, key, def string) string
	GetInt(ctx context.Context, key string, def int) int
}

// Outcome classifies one consume attempt.
type Outcome int

const (
	// OutcomeOK: correct code, challenge consumed.
	OutcomeOK Outcome = iota
	// OutcomeInvalid: challenge missing, already used, or expired.
	OutcomeInvalid
	// OutcomeWrongCode: wrong code, attempts remain.
	OutcomeWrongCode
	// OutcomeExhausted: wrong code and the lockout threshold was reached;
	// the challenge is now force-expired.
	OutcomeExhausted
)

// ChallengeSpec identifies who a new challenge is for.
type ChallengeSpec struct {
	DocTypeID   string
	DocTypeCode string
	DocNumber   string
	UserID      string
	ClientIP    string
}

// Engine creates and consumes challenges under one Policy.
type Engine struct {
	repo     otprepo.Repository
	settings SettingsReader
	policy   Policy
	metrics  *telemetry.Metrics
}

// NewEngine returns an Engine for the given policy. metrics may be nil.
func NewEngine(repo otprepo.Repository, settings SettingsReader, policy Policy, metrics *telemetry.Metrics) *Engine {
	return &Engine{repo: repo, settings: settings, policy: policy, metrics: metrics}
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy { return e.policy }

// Create generates a fresh code, persists the challenge with the TTL read
// from settings, and returns the challenge plus the plaintext code for
// delivery. The code is never persisted or logged; the caller must hand it to
// the delivery channels and drop it.
func (e *Engine) Create(ctx context.Context, spec ChallengeSpec) (*domain.Challenge, string, error) {
	code, err := GenerateCode(e.policy.Digits)
	if err != nil {
		return nil, "", err
	}
	ttl := e.settings.GetInt(ctx, e.policy.TTLKey, e.policy.DefaultTTLSeconds)
	now := time.Now().UTC()
	ch := &domain.Challenge{
		ID:          uuid.New().String(),
		DocTypeID:   spec.DocTypeID,
		DocTypeCode: spec.DocTypeCode,
		DocNumber:   spec.DocNumber,
		UserID:      spec.UserID,
		Kind:        e.policy.Kind,
		CodeHash:    HashCode(code),
		ExpiresAt:   now.Add(time.Duration(ttl) * time.Second),
		ClientIP:    spec.ClientIP,
		CreatedAt:   now,
	}
	if err := e.repo.Create(ctx, ch); err != nil {
		return nil, "", err
	}
	e.metrics.ChallengeIssued(ctx, string(e.policy.Kind))
	return ch, code, nil
}

// Get returns the challenge for id, or nil if unknown.
func (e *Engine) Get(ctx context.Context, id string) (*domain.Challenge, error) {
	return e.repo.GetByID(ctx, id)
}

// SetDelivery records the per-channel delivery flags after send attempts.
func (e *Engine) SetDelivery(ctx context.Context, id string, sms, email bool) error {
	return e.repo.UpdateDelivery(ctx, id, sms, email)
}

// Consume runs one verification attempt against ch. Identity checks are the
// caller's responsibility before calling Consume. The lockout threshold is
// read from settings on every call. Returns a non-nil error only for store
// failures; policy failures come back as outcomes.
func (e *Engine) Consume(ctx context.Context, ch *domain.Challenge, submittedCode string) (Outcome, error) {
	now := time.Now().UTC()
	if !ch.Consumable(now) {
		return OutcomeInvalid, nil
	}
	if !CodeEqual(submittedCode, ch.CodeHash) {
		max := e.settings.GetInt(ctx, e.policy.MaxAttemptsKey, e.policy.DefaultMaxAttempts)
		attempts, err := e.repo.RegisterFailure(ctx, ch.ID, max, now.Add(-time.Second))
		if err != nil {
			return OutcomeInvalid, err
		}
		if attempts >= max {
			return OutcomeExhausted, nil
		}
		return OutcomeWrongCode, nil
	}
	consumed, err := e.repo.MarkUsed(ctx, ch.ID, now)
	if err != nil {
		return OutcomeInvalid, err
	}
	if !consumed {
		// Lost the race to a concurrent verify; the challenge is single-use.
		return OutcomeInvalid, nil
	}
	return OutcomeOK, nil
}
