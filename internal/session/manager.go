// Package session issues signed session tokens and enforces the
// one-active-session-per-identity rule.
package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"patient-portal/backend/internal/security"
	"patient-portal/backend/internal/session/domain"
	sessionrepo "patient-portal/backend/internal/session/repository"
	"patient-portal/backend/internal/settings"
)

const (
	defaultTokenLifetimeMinutes = 30
	lockStripes                 = 64
)

// SettingsReader is the minimal settings surface needed by the manager.
type SettingsReader interface {
	GetInt(ctx context.Context, key string, def int) int
}

// IssueResult holds the token minted for a successful verification.
type IssueResult struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// Manager issues, revokes, and tracks sessions. Issue serializes
// revoke-then-insert per identity so concurrent logins for the same user
// converge to exactly one active session.
type Manager struct {
	repo     sessionrepo.Repository
	tokens   *security.TokenProvider
	settings SettingsReader

	// locks stripes per-identity mutual exclusion for Issue. Striping bounds
	// memory; collisions only serialize unrelated users, never break safety.
	locks [lockStripes]sync.Mutex
}

// NewManager returns a Manager with the given dependencies.
func NewManager(repo sessionrepo.Repository, tokens *security.TokenProvider, settings SettingsReader) *Manager {
	return &Manager{repo: repo, tokens: tokens, settings: settings}
}

func (m *Manager) lockFor(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &m.locks[h.Sum32()%lockStripes]
}

// Issue revokes every other active session for userID, mints a signed token
// with a fresh jti, and persists the mirroring session row. The token lifetime
// is read from settings on every call. Logging in anywhere logs you out
// everywhere else.
func (m *Manager) Issue(ctx context.Context, docTypeID, docNumber, userID, clientIP string) (*IssueResult, error) {
	lifetimeMinutes := m.settings.GetInt(ctx, settings.KeyTokenLifetimeMinutes, defaultTokenLifetimeMinutes)
	lifetime := time.Duration(lifetimeMinutes) * time.Minute

	mu := m.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()
	revoked, err := m.repo.DeactivateAllByUser(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if revoked > 0 {
		log.Info().Str("user_id", userID).Int64("revoked", revoked).Msg("revoked prior sessions on new login")
	}

	token, jti, expiresAt, err := m.tokens.Issue(userID, lifetime)
	if err != nil {
		return nil, err
	}
	sess := &domain.Session{
		ID:        uuid.New().String(),
		DocTypeID: docTypeID,
		DocNumber: docNumber,
		UserID:    userID,
		JTI:       jti,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
		IsActive:  true,
		ClientIP:  clientIP,
	}
	if err := m.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &IssueResult{Token: token, JTI: jti, ExpiresAt: expiresAt}, nil
}

// Logout revokes the session identified by jti. Idempotent: unknown, expired,
// or already-revoked jtis are a no-op, never an error.
func (m *Manager) Logout(ctx context.Context, jti string) error {
	sess, err := m.repo.GetByJTI(ctx, jti)
	if err != nil {
		return err
	}
	if sess == nil || !sess.IsActive {
		return nil
	}
	return m.repo.Deactivate(ctx, sess.ID, time.Now().UTC())
}

// Heartbeat records passive liveness for the session identified by jti: when
// the session is active and last_seen_at is missing or more than 60 seconds
// stale, it updates last_seen_at and client_ip. Best-effort: failures are
// logged and never returned, so a heartbeat can never fail a request.
func (m *Manager) Heartbeat(ctx context.Context, jti, clientIP string) {
	sess, err := m.repo.GetByJTI(ctx, jti)
	if err != nil {
		log.Warn().Err(err).Msg("heartbeat: session lookup failed")
		return
	}
	now := time.Now().UTC()
	if sess == nil || !sess.ActiveAt(now) {
		return
	}
	if !sess.NeedsHeartbeat(now) {
		return
	}
	if err := m.repo.UpdateLastSeen(ctx, sess.ID, now, clientIP); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("heartbeat: update failed")
	}
}

// Validate checks the signed token and its backing session row. Returns the
// userID and jti when both the signature and the server-side state are valid.
func (m *Manager) Validate(ctx context.Context, token string) (userID, jti string, err error) {
	userID, jti, err = m.tokens.Validate(token)
	if err != nil {
		return "", "", err
	}
	sess, err := m.repo.GetByJTI(ctx, jti)
	if err != nil {
		return "", "", err
	}
	if !sess.ActiveAt(time.Now().UTC()) {
		return "", "", security.ErrInvalidToken
	}
	return userID, jti, nil
}
