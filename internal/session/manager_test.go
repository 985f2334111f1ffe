package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"patient-portal/backend/internal/security"
	"patient-portal/backend/internal/session/domain"
)

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*domain.Session // by id
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: make(map[string]*domain.Session)}
}

func (r *memSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.m[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) GetByJTI(ctx context.Context, jti string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.m {
		if s.JTI == jti {
			s2 := *s
			return &s2, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) DeactivateAllByUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.m {
		if s.UserID == userID && s.IsActive {
			s.IsActive = false
			t := at
			s.RevokedAt = &t
			n++
		}
	}
	return n, nil
}

func (r *memSessionRepo) Deactivate(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok && s.IsActive {
		s.IsActive = false
		t := at
		s.RevokedAt = &t
	}
	return nil
}

func (r *memSessionRepo) UpdateLastSeen(ctx context.Context, id string, at time.Time, clientIP string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		t := at
		s.LastSeenAt = &t
		s.ClientIP = clientIP
	}
	return nil
}

func (r *memSessionRepo) activeCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.m {
		if s.UserID == userID && s.IsActive {
			n++
		}
	}
	return n
}

func (r *memSessionRepo) byJTI(jti string) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.m {
		if s.JTI == jti {
			return s
		}
	}
	return nil
}

type staticSettings struct {
	ints map[string]int
}

func (s *staticSettings) GetInt(ctx context.Context, key string, def int) int {
	if v, ok := s.ints[key]; ok {
		return v
	}
	return def
}

func newTestManager(t *testing.T) (*Manager, *memSessionRepo) {
	t.Helper()
	repo := newMemSessionRepo()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return NewManager(repo, tokens, &staticSettings{ints: map[string]int{}}), repo
}

func TestManager_IssueRevokesPriorSessions(t *testing.T) {
	m, repo := newTestManager(t)
	ctx := context.Background()

	first, err := m.Issue(ctx, "dt-1", "123", "CC-123", "10.0.0.1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := m.Issue(ctx, "dt-1", "123", "CC-123", "10.0.0.2")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if got := repo.activeCount("CC-123"); got != 1 {
		t.Fatalf("active sessions = %d, want 1", got)
	}
	if s := repo.byJTI(first.JTI); s.IsActive || s.RevokedAt == nil {
		t.Error("first session should be revoked")
	}
	if s := repo.byJTI(second.JTI); !s.IsActive {
		t.Error("second session should be active")
	}
}

func TestManager_IssueConcurrentSingleActive(t *testing.T) {
	m, repo := newTestManager(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Issue(ctx, "dt-1", "123", "CC-123", ""); err != nil {
				t.Errorf("Issue: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := repo.activeCount("CC-123"); got != 1 {
		t.Fatalf("active sessions after concurrent logins = %d, want 1", got)
	}
}

func TestManager_IssueDifferentUsersIndependent(t *testing.T) {
	m, repo := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Issue(ctx, "dt-1", "123", "CC-123", ""); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Issue(ctx, "dt-1", "456", "CC-456", ""); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if repo.activeCount("CC-123") != 1 || repo.activeCount("CC-456") != 1 {
		t.Error("each user should keep their own active session")
	}
}

func TestManager_LogoutIdempotent(t *testing.T) {
	m, repo := newTestManager(t)
	ctx := context.Background()

	res, err := m.Issue(ctx, "dt-1", "123", "CC-123", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := m.Logout(ctx, res.JTI); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if repo.activeCount("CC-123") != 0 {
		t.Fatal("session should be revoked")
	}
	revokedAt := *repo.byJTI(res.JTI).RevokedAt

	// Second logout and unknown jti are no-ops.
	if err := m.Logout(ctx, res.JTI); err != nil {
		t.Errorf("second Logout: %v", err)
	}
	if err := m.Logout(ctx, "unknown-jti"); err != nil {
		t.Errorf("Logout unknown jti: %v", err)
	}
	if got := *repo.byJTI(res.JTI).RevokedAt; !got.Equal(revokedAt) {
		t.Error("second logout must not move revoked_at")
	}
	if repo.byJTI(res.JTI).IsActive {
		t.Error("logout must never reactivate a session")
	}
}

func TestManager_HeartbeatThrottled(t *testing.T) {
	m, repo := newTestManager(t)
	ctx := context.Background()

	res, err := m.Issue(ctx, "dt-1", "123", "CC-123", "10.0.0.1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.Heartbeat(ctx, res.JTI, "10.0.0.9")
	s := repo.byJTI(res.JTI)
	if s.LastSeenAt == nil {
		t.Fatal("first heartbeat should write last_seen_at")
	}
	if s.ClientIP != "10.0.0.9" {
		t.Errorf("heartbeat should update client_ip, got %q", s.ClientIP)
	}
	firstSeen := *s.LastSeenAt

	// Within the staleness window nothing is written.
	m.Heartbeat(ctx, res.JTI, "10.0.0.10")
	if got := *repo.byJTI(res.JTI).LastSeenAt; !got.Equal(firstSeen) {
		t.Error("heartbeat within 60s should not write")
	}

	// Stale last_seen_at triggers a write.
	stale := time.Now().UTC().Add(-2 * domain.HeartbeatStaleness)
	repo.UpdateLastSeen(ctx, s.ID, stale, s.ClientIP)
	m.Heartbeat(ctx, res.JTI, "10.0.0.11")
	if got := *repo.byJTI(res.JTI).LastSeenAt; got.Equal(stale) {
		t.Error("stale heartbeat should write")
	}
}

func TestManager_HeartbeatUnknownJTINoPanic(t *testing.T) {
	m, _ := newTestManager(t)
	m.Heartbeat(context.Background(), "unknown", "10.0.0.1")
}

func TestManager_ValidateRevokedSession(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	res, err := m.Issue(ctx, "dt-1", "123", "CC-123", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	userID, jti, err := m.Validate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if userID != "CC-123" || jti != res.JTI {
		t.Errorf("Validate = (%q, %q)", userID, jti)
	}

	if err := m.Logout(ctx, res.JTI); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, _, err := m.Validate(ctx, res.Token); err != security.ErrInvalidToken {
		t.Errorf("revoked session: want ErrInvalidToken, got %v", err)
	}
}
