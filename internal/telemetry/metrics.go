// Package telemetry holds the portal's domain metric instruments.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics bundles the counters the portal emits. A nil *Metrics is valid and
// drops every measurement, so callers never need to guard.
type Metrics struct {
	loginAttempts    metric.Int64Counter
	challengesIssued metric.Int64Counter
	permCacheHits    metric.Int64Counter
	permCacheMisses  metric.Int64Counter
}

// NewMetrics registers the portal instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	loginAttempts, err := meter.Int64Counter("portal.login.attempts",
		metric.WithDescription("Login verification attempts by result"))
	if err != nil {
		return nil, err
	}
	challengesIssued, err := meter.Int64Counter("portal.otp.challenges_issued",
		metric.WithDescription("OTP challenges created by kind"))
	if err != nil {
		return nil, err
	}
	permCacheHits, err := meter.Int64Counter("portal.authz.cache_hits",
		metric.WithDescription("Permission cache hits"))
	if err != nil {
		return nil, err
	}
	permCacheMisses, err := meter.Int64Counter("portal.authz.cache_misses",
		metric.WithDescription("Permission cache misses"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		loginAttempts:    loginAttempts,
		challengesIssued: challengesIssued,
		permCacheHits:    permCacheHits,
		permCacheMisses:  permCacheMisses,
	}, nil
}

// LoginAttempt counts one verification attempt with its outcome reason.
func (m *Metrics) LoginAttempt(ctx context.Context, success bool, reason string) {
	if m == nil {
		return
	}
	m.loginAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
		attribute.String("reason", reason),
	))
}

// ChallengeIssued counts one challenge creation for the given flow kind.
func (m *Metrics) ChallengeIssued(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.challengesIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// PermissionCacheHit counts one permission lookup served from cache.
func (m *Metrics) PermissionCacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.permCacheHits.Add(ctx, 1)
}

// PermissionCacheMiss counts one permission lookup that hit the store.
func (m *Metrics) PermissionCacheMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.permCacheMisses.Add(ctx, 1)
}
