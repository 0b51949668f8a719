package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// emitTimeout is the max time allowed for a single async call. Used by AsyncSink and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long Close may wait for in-flight calls before
// the underlying sink is shut down. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// AsyncSink forwards calls to the wrapped sink in a goroutine so callers are not blocked.
// Errors are logged. Each call gets its own timeout detached from the request context,
// so request cancellation does not abort an in-flight call. Calls made after Close are dropped.
type AsyncSink struct {
	next    Sink
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ Sequencer = (*AsyncSink)(nil)

// NewAsyncSink wraps next. next may be nil; calls then return immediately.
func NewAsyncSink(next Sink, logger *slog.Logger) *AsyncSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncSink{next: next, logger: logger, timeout: emitTimeout}
}

// Identify schedules next.Identify and returns nil.
func (s *AsyncSink) Identify(ctx context.Context, id Identity) error {
	s.run("identify", func(c context.Context) error { return s.next.Identify(c, id) })
	return nil
}

// Track schedules next.Track and returns nil.
func (s *AsyncSink) Track(ctx context.Context, ev Event) error {
	s.run("track "+ev.Name, func(c context.Context) error { return s.next.Track(c, ev) })
	return nil
}

// Sequence schedules id and events on a single goroutine, in order, and returns nil.
// A failed identify drops the events.
func (s *AsyncSink) Sequence(ctx context.Context, id Identity, events ...Event) error {
	s.run("sequence", func(c context.Context) error { return Sequence(c, s.next, id, events...) })
	return nil
}

func (s *AsyncSink) run(what string, call func(context.Context) error) {
	if s == nil || s.next == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("telemetry: call after close dropped", "call", what)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Warn("telemetry: async call panicked", "call", what, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := call(ctx); err != nil {
			s.logger.Warn("telemetry: async call failed", "call", what, "error", err)
		}
	}()
}

// Close stops accepting calls, then waits for in-flight ones or until ctx is done.
// It may be called more than once.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
