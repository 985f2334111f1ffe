// Package domain holds the role and permission entities.
package domain

// Role groups permissions. Users are assigned roles, never permissions
// directly.
type Role struct {
	ID   string
	Name string
}

// Permission names one guarded capability, e.g. "Requests.Create". Module
// groups permissions for administration screens. Inactive permissions are
// excluded from every lookup.
type Permission struct {
	ID       string
	Name     string
	Module   string
	IsActive bool
}
