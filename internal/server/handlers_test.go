package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"patient-portal/backend/internal/authz"
	authzdomain "patient-portal/backend/internal/authz/domain"
	"patient-portal/backend/internal/security"
	"patient-portal/backend/internal/session"
	sessiondomain "patient-portal/backend/internal/session/domain"
)

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*sessiondomain.Session // by id
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*sessiondomain.Session)}
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.sessions[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) GetByJTI(ctx context.Context, jti string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
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
	for _, s := range r.sessions {
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
	if s, ok := r.sessions[id]; ok {
		s.IsActive = false
		t := at
		s.RevokedAt = &t
	}
	return nil
}

func (r *memSessionRepo) UpdateLastSeen(ctx context.Context, id string, at time.Time, clientIP string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		t := at
		s.LastSeenAt = &t
		s.ClientIP = clientIP
	}
	return nil
}

type memAuthzStore struct {
	rolesByUser map[string][]string
	permsByRole map[string][]*authzdomain.Permission
}

func (r *memAuthzStore) ListRoleIDsByUser(ctx context.Context, userID string) ([]string, error) {
	return r.rolesByUser[userID], nil
}

func (r *memAuthzStore) ListPermissionsByRole(ctx context.Context, roleID string) ([]*authzdomain.Permission, error) {
	return r.permsByRole[roleID], nil
}

func (r *memAuthzStore) ListUserIDsByRole(ctx context.Context, roleID string) ([]string, error) {
	return nil, nil
}

type staticSettings struct{}

func (staticSettings) GetString(ctx context.Context, key, def string) string { return def }
func (staticSettings) GetInt(ctx context.Context, key string, def int) int   { return def }

// newPermissionsFixture wires the real router, auth middleware, session
// manager, and authorization service over in-memory stores, and returns a
// bearer token for CC-123.
func newPermissionsFixture(t *testing.T) (http.Handler, string) {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	sessions := session.NewManager(newMemSessionRepo(), tokens, staticSettings{})
	store := &memAuthzStore{
		rolesByUser: map[string][]string{"CC-123": {"patient"}},
		permsByRole: map[string][]*authzdomain.Permission{
			"patient": {{ID: "p-1", Name: "Results.Read", Module: "Results", IsActive: true}},
		},
	}
	authzService := authz.NewService(store, authz.NewCache(), nil)
	srv := NewServer(nil, nil, sessions, authzService, staticSettings{})

	issued, err := sessions.Issue(context.Background(), "dt-cc", "123", "CC-123", "10.0.0.1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return srv.Routes(), issued.Token
}

func TestGetPermissions_OwnIdentity(t *testing.T) {
	handler, token := newPermissionsFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/auth/permissions/CC-123", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	var res permissionsResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.UserID != "CC-123" || len(res.Permissions) != 1 || res.Permissions[0] != "Results.Read" {
		t.Errorf("response = %+v", res)
	}
}

func TestGetPermissions_OtherIdentityForbidden(t *testing.T) {
	handler, token := newPermissionsFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/auth/permissions/CC-456", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestGetPermissions_NoToken(t *testing.T) {
	handler, _ := newPermissionsFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/auth/permissions/CC-123", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
