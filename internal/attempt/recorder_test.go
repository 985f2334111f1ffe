package attempt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"patient-portal/backend/internal/attempt/domain"
)

type memAttemptRepo struct {
	mu   sync.Mutex
	rows []*domain.Attempt
	fail bool
}

func (r *memAttemptRepo) Create(ctx context.Context, a *domain.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("store unavailable")
	}
	r.rows = append(r.rows, a)
	return nil
}

func (r *memAttemptRepo) ListByUser(ctx context.Context, userID string, limit int32) ([]*domain.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Attempt
	for i := len(r.rows) - 1; i >= 0 && int32(len(out)) < limit; i-- {
		if r.rows[i].UserID == userID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *memAttemptRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func TestSink_RecordAndDrain(t *testing.T) {
	repo := &memAttemptRepo{}
	sink := NewSink(repo, 16, nil)
	ctx := context.Background()

	sink.Record(ctx, "CC", "123", "CC-123", false, domain.ReasonInvalidOtp, "10.0.0.1")
	sink.Record(ctx, "CC", "123", "CC-123", true, domain.ReasonSuccess, "10.0.0.1")
	sink.Close()

	if got := repo.count(); got != 2 {
		t.Fatalf("persisted attempts = %d, want 2", got)
	}
	rows, err := repo.ListByUser(ctx, "CC-123", 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if rows[0].Reason != domain.ReasonSuccess || !rows[0].Success {
		t.Errorf("newest attempt = %+v", rows[0])
	}
	if rows[1].ID == rows[0].ID {
		t.Error("attempts must have distinct ids")
	}
}

func TestSink_StoreFailureSwallowed(t *testing.T) {
	repo := &memAttemptRepo{fail: true}
	sink := NewSink(repo, 4, nil)

	// Must not panic or surface the failure.
	sink.Record(context.Background(), "CC", "123", "CC-123", false, domain.ReasonInvalidOtp, "")
	sink.Close()

	if got := repo.count(); got != 0 {
		t.Fatalf("persisted attempts = %d, want 0", got)
	}
}

func TestSink_RecordAfterCloseDropsWithoutPanic(t *testing.T) {
	repo := &memAttemptRepo{}
	sink := NewSink(repo, 4, nil)
	ctx := context.Background()

	sink.Record(ctx, "CC", "123", "CC-123", true, domain.ReasonSuccess, "")
	sink.Close()
	sink.Record(ctx, "CC", "123", "CC-123", false, domain.ReasonInvalidOtp, "")
	sink.Close()

	if got := repo.count(); got != 1 {
		t.Fatalf("persisted attempts = %d, want 1", got)
	}
}

func TestSink_FullBufferDropsWithoutBlocking(t *testing.T) {
	repo := &memAttemptRepo{}
	s := &Sink{repo: repo, ch: make(chan *domain.Attempt, 1), done: make(chan struct{})}
	// Writer not started: second record must drop instead of blocking.
	fin := make(chan struct{})
	go func() {
		s.Record(context.Background(), "CC", "1", "CC-1", false, domain.ReasonInvalidOtp, "")
		s.Record(context.Background(), "CC", "2", "CC-2", false, domain.ReasonInvalidOtp, "")
		close(fin)
	}()
	select {
	case <-fin:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full buffer")
	}
}
