package analysisentry

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// Sink is a dependent feature that recomputes its view of a document when analysis changes.
type Sink interface {
	// OnNewAnalysis is called after a completed analysis a has been recorded on e.
	OnNewAnalysis(ctx context.Context, e *Entry, a Analysis) error
	// OnAnalysisUnavailable is called when previously delivered results must no longer be shown.
	OnAnalysisUnavailable(ctx context.Context, e *Entry, cause error) error
}

// SinkOption configures a sink registration.
type SinkOption func(*subscription)

// WithAsync delivers notifications to the sink on its own goroutine. Notifications to one sink keep their order.
func WithAsync() SinkOption {
	return func(s *subscription) {
		s.async = true
	}
}

// WithOnce removes the sink after its first notification.
func WithOnce() SinkOption {
	return func(s *subscription) {
		s.once = true
	}
}

type notification struct {
	analysis *Analysis
	cause    error
}

type subscription struct {
	key   string
	sink  Sink
	async bool
	once  bool

	mu      sync.Mutex
	pending []notification
	running bool
}

// AddSink registers sink under key. A sink already registered under key is kept and returned with false.
func (e *Entry) AddSink(key string, sink Sink, opts ...SinkOption) (Sink, bool) {
	sub := &subscription{key: key, sink: sink}
	if _, ok := e.asyncKeys[key]; ok {
		sub.async = true
	}
	for _, opt := range opts {
		opt(sub)
	}

	existing, added := e.sinks.Add(key, sub)
	return existing.sink, added
}

// RemoveSink unregisters the sink under key. It is safe to call while notifications are being delivered; a fan-out in
// progress skips the sink if it has not reached it yet.
func (e *Entry) RemoveSink(key string) bool {
	_, ok := e.sinks.Remove(key)
	return ok
}

// Sink returns the sink registered under key.
func (e *Entry) Sink(key string) (Sink, bool) {
	sub, ok := e.sinks.Get(key)
	if !ok {
		return nil, false
	}
	return sub.sink, true
}

// SinkCount returns the number of registered sinks.
func (e *Entry) SinkCount() int {
	return e.sinks.Len()
}

// notify must be called with fanoutMu held.
func (e *Entry) notify(ctx context.Context, n notification) error {
	var errs error
	delivered := e.stats.Counter(_deliveredCounter)

	for _, reg := range e.sinks.Snapshot() {
		sub := reg.Value
		if sub.once {
			if !e.sinks.RemoveRegistration(reg) {
				continue
			}
		} else if !e.sinks.Active(reg) {
			continue
		}

		if sub.async {
			e.enqueue(ctx, sub, n)
			continue
		}

		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notifying %q: %w", sub.key, err))
			continue
		}
		if err := e.deliver(ctx, sub, n); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notifying %q: %w", sub.key, err))
			continue
		}
		delivered.Inc(1)
	}
	return errs
}

func (e *Entry) deliver(ctx context.Context, sub *subscription, n notification) error {
	if n.analysis != nil {
		return sub.sink.OnNewAnalysis(ctx, e, *n.analysis)
	}
	return sub.sink.OnAnalysisUnavailable(ctx, e, n.cause)
}

// enqueue hands n to the subscription's delivery goroutine, starting one if none is running.
func (e *Entry) enqueue(ctx context.Context, sub *subscription, n notification) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.pending = append(sub.pending, n)
	if sub.running {
		return
	}
	sub.running = true
	e.async.Add(1)
	go e.drain(context.WithoutCancel(ctx), sub)
}

func (e *Entry) drain(ctx context.Context, sub *subscription) {
	defer e.async.Done()
	delivered := e.stats.Counter(_deliveredCounter)

	for {
		sub.mu.Lock()
		if len(sub.pending) == 0 {
			sub.running = false
			sub.mu.Unlock()
			return
		}
		n := sub.pending[0]
		sub.pending = sub.pending[1:]
		sub.mu.Unlock()

		if err := e.deliver(ctx, sub, n); err != nil {
			e.logger.Warnw("asynchronous notification failed", "sink", sub.key, "error", err)
			continue
		}
		delivered.Inc(1)
	}
}
