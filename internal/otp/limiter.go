package otp

import (
	"sync"

	"golang.org/x/time/rate"
)

// limiterCap bounds the limiter map; when exceeded the map is reset rather
// than grown without bound. Losing limiter state only relaxes throttling.
const limiterCap = 10000

// StartLimiter throttles challenge creation per identity so a hostile client
// cannot flood a patient's phone with codes.
type StartLimiter struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

// NewStartLimiter returns a limiter allowing burst immediate starts per
// identity, refilling at limit.
func NewStartLimiter(limit rate.Limit, burst int) *StartLimiter {
	return &StartLimiter{
		m:     make(map[string]*rate.Limiter),
		limit: limit,
		burst: burst,
	}
}

// Allow reports whether userID may start or resend a challenge now.
func (l *StartLimiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.m) > limiterCap {
		l.m = make(map[string]*rate.Limiter)
	}
	lim, ok := l.m[userID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.m[userID] = lim
	}
	return lim.Allow()
}
