package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	attemptdomain "patient-portal/backend/internal/attempt/domain"
	doctypedomain "patient-portal/backend/internal/doctype/domain"
	"patient-portal/backend/internal/masking"
	"patient-portal/backend/internal/notify"
	"patient-portal/backend/internal/otp"
	otpdomain "patient-portal/backend/internal/otp/domain"
	"patient-portal/backend/internal/patient"
	"patient-portal/backend/internal/session"
	"patient-portal/backend/internal/settings"
)

// Sentinel errors for the login flow; the handler maps them to status codes.
var (
	ErrDocumentTypeNotFound      = errors.New("document type not found")
	ErrPatientNotFound           = errors.New("patient not found")
	ErrChallengeNotFound         = errors.New("challenge not found")
	ErrTooManyRequests           = errors.New("too many challenge requests")
	ErrChallengeInvalidOrExpired = errors.New("challenge invalid or expired")
	ErrIdentityMismatch          = errors.New("challenge does not belong to this identity")
	ErrInvalidCode               = errors.New("invalid code")
	ErrMaxAttemptsReached        = errors.New("maximum verification attempts reached")
)

const (
	defaultSMSTemplate      = "Your verification code is {code}"
	defaultEmailSubject     = "Your verification code"
	defaultEmailTemplate    = "<p>Your verification code is <b>{code}</b>.</p>"
	defaultNoContactMessage = "We have no phone or email on file for this document. Please contact the hospital to update your information."
)

// StartResult is the client-safe shape returned by Start and Resend. When the
// patient has no contact channel, Message is set and no challenge exists.
type StartResult struct {
	ChallengeID string
	MaskedPhone string
	MaskedEmail string
	FullName    string
	HistoryID   string
	Message     string
}

// VerifyResult holds the session token minted by a successful verification.
type VerifyResult struct {
	Token     string
	ExpiresAt time.Time
}

// DocTypeRepo is the minimal document type repository needed by the service.
type DocTypeRepo interface {
	GetByCode(ctx context.Context, code string) (*doctypedomain.DocumentType, error)
}

// SessionIssuer mints the session token on successful verification.
type SessionIssuer interface {
	Issue(ctx context.Context, docTypeID, docNumber, userID, clientIP string) (*session.IssueResult, error)
}

// AttemptRecorder records every verification outcome, best-effort.
type AttemptRecorder interface {
	Record(ctx context.Context, docTypeCode, docNumber, userID string, success bool, reason, ip string)
}

// Service implements the portal login flow: Start/Resend create and deliver
// challenges, Verify consumes them and mints a session.
type Service struct {
	engine   *otp.Engine
	doctypes DocTypeRepo
	patients patient.Lookup
	sms      notify.SMSSender
	email    notify.EmailSender
	sessions SessionIssuer
	attempts AttemptRecorder
	settings otp.SettingsReader
	limiter  *otp.StartLimiter
}

// NewService returns a Service with the given dependencies. limiter may be nil
// to disable start throttling (tests).
func NewService(
	engine *otp.Engine,
	doctypes DocTypeRepo,
	patients patient.Lookup,
	sms notify.SMSSender,
	email notify.EmailSender,
	sessions SessionIssuer,
	attempts AttemptRecorder,
	settingsReader otp.SettingsReader,
	limiter *otp.StartLimiter,
) *Service {
	return &Service{
		engine:   engine,
		doctypes: doctypes,
		patients: patients,
		sms:      sms,
		email:    email,
		sessions: sessions,
		attempts: attempts,
		settings: settingsReader,
		limiter:  limiter,
	}
}

// Start resolves the document, looks up the patient's contact channels, and
// when at least one exists creates and delivers a challenge. A patient with no
// channels gets the configured no-contact message, not an error.
func (s *Service) Start(ctx context.Context, docTypeCode, docNumber, clientIP string) (*StartResult, error) {
	docTypeCode = strings.TrimSpace(strings.ToUpper(docTypeCode))
	docNumber = strings.TrimSpace(docNumber)
	if docTypeCode == "" || docNumber == "" {
		return nil, ErrDocumentTypeNotFound
	}
	dt, err := s.doctypes.GetByCode(ctx, docTypeCode)
	if err != nil {
		return nil, err
	}
	if dt == nil {
		return nil, ErrDocumentTypeNotFound
	}
	userID := otpdomain.UserID(docTypeCode, docNumber)
	if s.limiter != nil && !s.limiter.Allow(userID) {
		return nil, ErrTooManyRequests
	}
	contact, err := s.patients.GetContact(ctx, docTypeCode, docNumber)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, ErrPatientNotFound
	}
	if !contact.HasChannel() {
		msg := s.settings.GetString(ctx, settings.KeyOTPNoContactMessage, defaultNoContactMessage)
		return &StartResult{Message: msg, FullName: contact.FullName, HistoryID: contact.HistoryID}, nil
	}

	ch, code, err := s.engine.Create(ctx, otp.ChallengeSpec{
		DocTypeID:   dt.ID,
		DocTypeCode: docTypeCode,
		DocNumber:   docNumber,
		UserID:      userID,
		ClientIP:    clientIP,
	})
	if err != nil {
		return nil, err
	}

	deliveredSMS, deliveredEmail := s.deliver(ctx, contact.Mobile, contact.Email, code)
	if err := s.engine.SetDelivery(ctx, ch.ID, deliveredSMS, deliveredEmail); err != nil {
		log.Warn().Err(err).Str("challenge_id", ch.ID).Msg("failed to record delivery flags")
	}

	return &StartResult{
		ChallengeID: ch.ID,
		MaskedPhone: masking.MaskPhone(contact.Mobile),
		MaskedEmail: masking.MaskEmail(contact.Email),
		FullName:    contact.FullName,
		HistoryID:   contact.HistoryID,
	}, nil
}

// Resend loads the prior challenge only to recover the identity it was issued
// for, then runs the Start path again. The old challenge is left to expire
// naturally.
func (s *Service) Resend(ctx context.Context, challengeID, clientIP string) (*StartResult, error) {
	ch, err := s.engine.Get(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChallengeNotFound
	}
	return s.Start(ctx, ch.DocTypeCode, ch.DocNumber, clientIP)
}

// Verify consumes the challenge and on success mints a session token, revoking
// every other active session for the identity. Every terminal branch, success
// or failure, records exactly one login attempt.
func (s *Service) Verify(ctx context.Context, docTypeCode, docNumber, challengeID, submittedCode, clientIP string) (*VerifyResult, error) {
	docTypeCode = strings.TrimSpace(strings.ToUpper(docTypeCode))
	docNumber = strings.TrimSpace(docNumber)
	userID := otpdomain.UserID(docTypeCode, docNumber)

	ch, err := s.engine.Get(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if ch == nil || !ch.Consumable(now) {
		s.attempts.Record(ctx, docTypeCode, docNumber, userID, false, attemptdomain.ReasonChallengeInvalidOrExpired, clientIP)
		return nil, ErrChallengeInvalidOrExpired
	}

	// Re-resolve the document and compare against the challenge's stored
	// identity; a challenge id must not be replayable across identities.
	dt, err := s.doctypes.GetByCode(ctx, docTypeCode)
	if err != nil {
		return nil, err
	}
	if dt == nil || dt.ID != ch.DocTypeID || ch.DocNumber != docNumber || ch.UserID != userID {
		s.attempts.Record(ctx, docTypeCode, docNumber, userID, false, attemptdomain.ReasonIdentityMismatch, clientIP)
		return nil, ErrIdentityMismatch
	}

	outcome, err := s.engine.Consume(ctx, ch, submittedCode)
	if err != nil {
		return nil, err
	}
	switch outcome {
	case otp.OutcomeInvalid:
		s.attempts.Record(ctx, docTypeCode, docNumber, userID, false, attemptdomain.ReasonChallengeInvalidOrExpired, clientIP)
		return nil, ErrChallengeInvalidOrExpired
	case otp.OutcomeWrongCode:
		s.attempts.Record(ctx, docTypeCode, docNumber, userID, false, attemptdomain.ReasonInvalidOtp, clientIP)
		return nil, ErrInvalidCode
	case otp.OutcomeExhausted:
		s.attempts.Record(ctx, docTypeCode, docNumber, userID, false, attemptdomain.ReasonInvalidOtp, clientIP)
		return nil, ErrMaxAttemptsReached
	}

	res, err := s.sessions.Issue(ctx, dt.ID, docNumber, userID, clientIP)
	if err != nil {
		return nil, err
	}
	s.attempts.Record(ctx, docTypeCode, docNumber, userID, true, attemptdomain.ReasonSuccess, clientIP)
	return &VerifyResult{Token: res.Token, ExpiresAt: res.ExpiresAt}, nil
}

// deliver sends the code through whichever channels exist. Delivery is
// best-effort per channel: failures are logged, reflected only in the flags,
// and never surfaced to the caller.
func (s *Service) deliver(ctx context.Context, mobile, email, code string) (deliveredSMS, deliveredEmail bool) {
	if mobile != "" && s.sms != nil {
		msg := strings.ReplaceAll(s.settings.GetString(ctx, settings.KeyOTPSMSTemplate, defaultSMSTemplate), "{code}", code)
		if err := s.sms.Send(ctx, mobile, msg); err != nil {
			log.Warn().Err(err).Msg("otp sms delivery failed")
		} else {
			deliveredSMS = true
		}
	}
	if email != "" && s.email != nil {
		subject := s.settings.GetString(ctx, settings.KeyOTPEmailSubject, defaultEmailSubject)
		body := strings.ReplaceAll(s.settings.GetString(ctx, settings.KeyOTPEmailTemplate, defaultEmailTemplate), "{code}", code)
		if err := s.email.Send(ctx, email, subject, body); err != nil {
			log.Warn().Err(err).Msg("otp email delivery failed")
		} else {
			deliveredEmail = true
		}
	}
	return deliveredSMS, deliveredEmail
}
