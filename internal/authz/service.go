package authz

import (
	"context"
	"sort"
	"strings"
	"time"

	authzrepo "patient-portal/backend/internal/authz/repository"
	"patient-portal/backend/internal/telemetry"
)

const (
	cacheKeyPrefix     = "UserPermissions_"
	permissionCacheTTL = 10 * time.Minute
)

// Service resolves the effective permission set for an identity: the union of
// the active permissions of every role the identity holds. Results are cached
// for ten minutes; writes to role assignments must call the Invalidate
// methods.
type Service struct {
	repo    authzrepo.Repository
	cache   *Cache
	metrics *telemetry.Metrics
}

// NewService returns a Service. metrics may be nil.
func NewService(repo authzrepo.Repository, cache *Cache, metrics *telemetry.Metrics) *Service {
	return &Service{repo: repo, cache: cache, metrics: metrics}
}

func cacheKey(userID string) string {
	return cacheKeyPrefix + userID
}

// GetPermissions returns the distinct permission names granted to userID,
// sorted, deduplicated case-insensitively (first casing seen wins). Unknown
// identities get an empty set, not an error; the empty result is cached too.
func (s *Service) GetPermissions(ctx context.Context, userID string) ([]string, error) {
	key := cacheKey(userID)
	if perms, ok := s.cache.Get(key); ok {
		s.metrics.PermissionCacheHit(ctx)
		return perms, nil
	}
	s.metrics.PermissionCacheMiss(ctx)

	roleIDs, err := s.repo.ListRoleIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	perms := []string{}
	for _, roleID := range roleIDs {
		rolePerms, err := s.repo.ListPermissionsByRole(ctx, roleID)
		if err != nil {
			return nil, err
		}
		for _, p := range rolePerms {
			lower := strings.ToLower(p.Name)
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
			perms = append(perms, p.Name)
		}
	}
	sort.Strings(perms)
	s.cache.Put(key, perms, permissionCacheTTL)
	return perms, nil
}

// HasPermission reports whether userID holds the named permission,
// case-insensitively. A blank name is false immediately, without touching the
// cache or the store.
func (s *Service) HasPermission(ctx context.Context, userID, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, nil
	}
	perms, err := s.GetPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if strings.EqualFold(p, name) {
			return true, nil
		}
	}
	return false, nil
}

// InvalidateIdentity drops the cached permissions for userID. The next lookup
// rebuilds from the store.
func (s *Service) InvalidateIdentity(userID string) {
	s.cache.Delete(cacheKey(userID))
}

// InvalidateRole drops the cached permissions of every identity holding
// roleID. Used after a role's permission grants change.
func (s *Service) InvalidateRole(ctx context.Context, roleID string) error {
	userIDs, err := s.repo.ListUserIDsByRole(ctx, roleID)
	if err != nil {
		return err
	}
	for _, id := range userIDs {
		s.cache.Delete(cacheKey(id))
	}
	return nil
}
