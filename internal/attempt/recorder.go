// Package attempt records every verification outcome for audit and reporting.
// Recording is fire-and-forget: a failure to persist an attempt must never
// mask or alter the outcome of the operation being observed.
package attempt

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"patient-portal/backend/internal/attempt/domain"
	attemptrepo "patient-portal/backend/internal/attempt/repository"
	"patient-portal/backend/internal/telemetry"
)

// writeTimeout bounds a single audit write so a slow store cannot back up the sink.
const writeTimeout = 5 * time.Second

// Recorder accepts attempt records without blocking the caller.
type Recorder interface {
	Record(ctx context.Context, docTypeCode, docNumber, userID string, success bool, reason, ip string)
}

// Sink implements Recorder with a buffered channel drained by one background
// writer goroutine. When the buffer is full the attempt is dropped and logged;
// the login flow is never slowed or failed by its audit trail.
type Sink struct {
	repo    attemptrepo.Repository
	metrics *telemetry.Metrics
	ch      chan *domain.Attempt
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewSink returns a started Sink with the given buffer size. metrics may be
// nil. Call Close to drain and stop the writer.
func NewSink(repo attemptrepo.Repository, buffer int, metrics *telemetry.Metrics) *Sink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &Sink{
		repo:    repo,
		metrics: metrics,
		ch:      make(chan *domain.Attempt, buffer),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Record queues one attempt row. The trace id is taken from the active span in
// ctx when present. Never blocks and never returns an error.
func (s *Sink) Record(ctx context.Context, docTypeCode, docNumber, userID string, success bool, reason, ip string) {
	s.metrics.LoginAttempt(ctx, success, reason)
	a := &domain.Attempt{
		ID:          uuid.New().String(),
		DocTypeCode: docTypeCode,
		DocNumber:   docNumber,
		UserID:      userID,
		Success:     success,
		Reason:      reason,
		IP:          ip,
		TraceID:     traceIDFrom(ctx),
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.Warn().Str("user_id", userID).Str("reason", reason).Msg("attempt sink closed, dropping audit record")
		return
	}
	select {
	case s.ch <- a:
	default:
		log.Warn().Str("user_id", userID).Str("reason", reason).Msg("attempt sink full, dropping audit record")
	}
}

func (s *Sink) run() {
	defer close(s.done)
	for a := range s.ch {
		// Background context: request cancellation must not abort an audit write.
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := s.repo.Create(ctx, a); err != nil {
			log.Warn().Err(err).Str("user_id", a.UserID).Str("reason", a.Reason).Msg("failed to persist login attempt")
		}
		cancel()
	}
}

// Close stops accepting records, drains the buffer, and waits for the writer.
// Idempotent; records arriving after Close are dropped and logged, never a
// panic.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	<-s.done
}

func traceIDFrom(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
