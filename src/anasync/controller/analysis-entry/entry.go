// Package analysisentry tracks the analysis state of one document and notifies its dependents.
package analysisentry

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"github.com/uber/analysis-sync/src/anasync/internal/sinkregistry"
	"github.com/uber/analysis-sync/src/anasync/internal/versionchain"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

const _deliveredCounter = "notifications_delivered"

// State of an entry.
type State int

const (
	// Unanalyzed means no analysis is available, either because none has completed yet or because the engine exited.
	Unanalyzed State = iota
	// Analyzing means an analysis has been requested and not yet reported.
	Analyzing
	// Analyzed means the most recent analysis completed.
	Analyzed
)

func (s State) String() string {
	switch s {
	case Unanalyzed:
		return "unanalyzed"
	case Analyzing:
		return "analyzing"
	case Analyzed:
		return "analyzed"
	default:
		return "unknown"
	}
}

// Analysis is a completed analysis reported by the engine.
type Analysis struct {
	// Version is the document version that was analyzed.
	Version int
	// Document is the analyzed version of the live buffer, nil when the document is not open.
	Document *versionchain.DocumentVersion
	// Results is the engine payload, opaque to the entry.
	Results json.RawMessage
}

// Option configures an Entry.
type Option func(*Entry)

// WithAnalyzer records the engine instance the entry belongs to.
func WithAnalyzer(id uuid.UUID) Option {
	return func(e *Entry) {
		e.analyzer = id
	}
}

// WithLogger overrides the default noop logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(e *Entry) {
		e.logger = logger
	}
}

// WithScope sets the metrics scope.
func WithScope(stats tally.Scope) Option {
	return func(e *Entry) {
		e.stats = stats
	}
}

// WithAsyncKeys delivers notifications to sinks registered under any of keys without blocking the fan-out.
func WithAsyncKeys(keys ...string) Option {
	return func(e *Entry) {
		for _, k := range keys {
			e.asyncKeys[k] = struct{}{}
		}
	}
}

// Entry is the analysis state of one document.
type Entry struct {
	uri      uri.URI
	analyzer uuid.UUID
	logger   *zap.SugaredLogger
	stats    tally.Scope

	asyncKeys map[string]struct{}

	// fanoutMu serializes transitions together with their delivery so notifications reach sinks in version order.
	fanoutMu sync.Mutex

	mu           sync.RWMutex
	state        State
	lastAnalyzed *Analysis
	watermark    int
	disposed     bool

	sinks      *sinkregistry.Registry[string, *subscription]
	properties *sinkregistry.Registry[string, any]
	async      sync.WaitGroup
}

// New creates an unanalyzed entry for the document at u.
func New(u uri.URI, opts ...Option) *Entry {
	e := &Entry{
		uri:        u,
		logger:     zap.NewNop().Sugar(),
		stats:      tally.NoopScope,
		asyncKeys:  make(map[string]struct{}),
		watermark:  -1,
		sinks:      sinkregistry.New[string, *subscription](),
		properties: sinkregistry.New[string, any](),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("document", string(u))
	return e
}

// URI returns the document the entry tracks.
func (e *Entry) URI() uri.URI {
	return e.uri
}

// FilePath returns the filesystem path of the document.
func (e *Entry) FilePath() string {
	return e.uri.Filename()
}

// Analyzer returns the engine instance the entry belongs to.
func (e *Entry) Analyzer() uuid.UUID {
	return e.analyzer
}

// State returns the current state.
func (e *Entry) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// IsAnalyzed reports whether a completed analysis is available.
func (e *Entry) IsAnalyzed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastAnalyzed != nil
}

// LastAnalysis returns the most recent completed analysis, or false if none is available.
func (e *Entry) LastAnalysis() (Analysis, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastAnalyzed == nil {
		return Analysis{}, false
	}
	return *e.lastAnalyzed, true
}

// LastAnalyzedVersion returns the live buffer version of the most recent completed analysis. It is nil when no
// analysis is available or the analyzed document was not open.
func (e *Entry) LastAnalyzedVersion() *versionchain.DocumentVersion {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastAnalyzed == nil {
		return nil
	}
	return e.lastAnalyzed.Document
}

// BeginAnalysis marks an analysis as requested. It is a no-op if one is already in flight.
func (e *Entry) BeginAnalysis() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return syncerrors.EntryDisposedError
	}
	if e.state != Analyzing {
		e.logger.Debugw("analysis requested", "from", e.state.String())
		e.state = Analyzing
	}
	return nil
}

// CompleteAnalysis records a completed analysis and notifies every sink in registration order.
// Analyses of versions older than one already delivered are dropped and reported as not delivered.
// Errors returned by synchronous sinks are combined into the returned error.
func (e *Entry) CompleteAnalysis(ctx context.Context, a Analysis) (bool, error) {
	e.fanoutMu.Lock()
	defer e.fanoutMu.Unlock()

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return false, syncerrors.EntryDisposedError
	}
	if a.Version < e.watermark {
		e.mu.Unlock()
		e.logger.Debugw("dropping out of order analysis", "version", a.Version, "watermark", e.watermark)
		return false, nil
	}
	e.watermark = a.Version
	e.lastAnalyzed = &a
	e.state = Analyzed
	e.mu.Unlock()

	if a.Document != nil {
		a.Document.Chain().SetFloor(a.Version)
	}

	return true, e.notify(ctx, notification{analysis: &a})
}

// Reset discards the available analysis after the engine became unavailable and signals cause to every sink.
func (e *Entry) Reset(ctx context.Context, cause error) error {
	e.fanoutMu.Lock()
	defer e.fanoutMu.Unlock()

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return syncerrors.EntryDisposedError
	}
	e.state = Unanalyzed
	e.lastAnalyzed = nil
	e.mu.Unlock()

	e.logger.Infow("analysis unavailable", "cause", cause)
	return e.notify(ctx, notification{cause: cause})
}

// Dispose detaches every sink and waits for pending asynchronous deliveries. The entry is unusable afterwards.
func (e *Entry) Dispose() {
	e.fanoutMu.Lock()
	e.mu.Lock()
	e.disposed = true
	e.mu.Unlock()
	e.sinks.Clear()
	e.fanoutMu.Unlock()

	e.async.Wait()
}

// Wait blocks until pending asynchronous deliveries have finished.
func (e *Entry) Wait() {
	e.async.Wait()
}

// Reassign disposes e and returns an unanalyzed entry for the same document bound to analyzer. Sinks move to the new
// entry with their delivery options. Properties are engine specific and are dropped.
func (e *Entry) Reassign(analyzer uuid.UUID) (*Entry, error) {
	e.fanoutMu.Lock()
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		e.fanoutMu.Unlock()
		return nil, syncerrors.EntryDisposedError
	}
	e.disposed = true
	watermark := e.watermark
	e.mu.Unlock()
	registrations := e.sinks.Snapshot()
	e.sinks.Clear()
	e.fanoutMu.Unlock()

	e.async.Wait()

	next := &Entry{
		uri:        e.uri,
		analyzer:   analyzer,
		logger:     e.logger,
		stats:      e.stats,
		asyncKeys:  e.asyncKeys,
		watermark:  watermark,
		sinks:      sinkregistry.New[string, *subscription](),
		properties: sinkregistry.New[string, any](),
	}
	for _, r := range registrations {
		next.sinks.Add(r.Key, &subscription{
			key:   r.Value.key,
			sink:  r.Value.sink,
			async: r.Value.async,
			once:  r.Value.once,
		})
	}
	e.logger.Infow("entry reassigned", "from", e.analyzer.String(), "to", analyzer.String())
	return next, nil
}
