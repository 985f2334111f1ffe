package authz

import (
	"sync"
	"testing"
	"time"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCache_EntryExpiresOnWallClock(t *testing.T) {
	// Production constructor on purpose: expiry must work against the real
	// clock, read at every Get, not a timestamp captured at construction.
	c := NewCache()
	c.Put("stale", []string{"Results.Read"}, time.Nanosecond)
	c.Put("fresh", []string{"Results.Read"}, time.Hour)

	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("stale"); ok {
		t.Error("entry past its TTL must expire")
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("entry within its TTL must survive")
	}
}

func TestCache_ExpiredReadEvicts(t *testing.T) {
	clk := &stubClock{now: time.Now().UTC()}
	c := newCacheWithClock(clk.Now)
	c.Put("k", []string{"Results.Read"}, time.Minute)

	clk.advance(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry past its TTL must expire")
	}
	// The expired entry is gone, not just hidden: rewinding the clock must
	// not resurrect it.
	clk.advance(-2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry must be evicted on read")
	}
}

func TestCache_DeleteMissingKeyNoop(t *testing.T) {
	c := NewCache()
	c.Delete("absent")
	c.Put("k", []string{"Results.Read"}, time.Hour)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("deleted entry must not be returned")
	}
}
