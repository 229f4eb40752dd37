// Package analysis tracks the analysis entry of every document and applies engine notifications to them.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	analysisentry "github.com/uber/analysis-sync/src/anasync/controller/analysis-entry"
	docsync "github.com/uber/analysis-sync/src/anasync/controller/doc-sync"
	analyzerclient "github.com/uber/analysis-sync/src/anasync/gateway/analyzer-client"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"github.com/uber/analysis-sync/src/anasync/internal/sinkregistry"
	"github.com/uber/analysis-sync/src/anasync/internal/stamp"
	"github.com/uber/analysis-sync/src/anasync/internal/translator"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_nameKey   = "analysis"
	_configKey = "analysis"

	_defaultMaxRestarts = 5
)

//go:generate mockgen -source=analysis.go -destination=analysismock/analysis_mock.go -package=analysismock

// SinkFactory creates the sink a feature attaches to one entry.
type SinkFactory func(e *analysisentry.Entry) analysisentry.Sink

// Controller owns the analysis entries of tracked documents.
type Controller interface {
	analyzerclient.NotificationHandler

	// Track starts tracking the document at u and requests its analysis. Tracking a tracked document returns its entry.
	Track(ctx context.Context, u uri.URI) (*analysisentry.Entry, error)
	// Reanalyze requests a new analysis of a tracked document, typically after an edit.
	Reanalyze(ctx context.Context, u uri.URI) error
	// Untrack disposes the entry of the document at u.
	Untrack(u uri.URI)
	// Entry returns the entry of a tracked document.
	Entry(u uri.URI) (*analysisentry.Entry, error)
	// Entries returns every tracked entry.
	Entries() []*analysisentry.Entry

	// AddSinkFactory attaches a sink created by factory to every current and future entry under key. A factory
	// already registered under key is kept and false is returned.
	AddSinkFactory(key string, factory SinkFactory, opts ...analysisentry.SinkOption) bool
	// Resolve consumes a request stamp for the document at u. A nil translator means the response is stale.
	Resolve(s *stamp.Stamp, u uri.URI) (*translator.Translator, error)
}

// Config configures the analysis controller.
type Config struct {
	// MaxRestarts is the number of abnormal engine exits after which analysis is no longer requested again.
	MaxRestarts int `yaml:"maxRestarts"`
	// AsyncSinks lists sink keys that are notified without blocking the fan-out.
	AsyncSinks []string `yaml:"asyncSinks"`
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Analyzer  analyzerclient.Gateway
	Documents docsync.Controller
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Config    config.Provider
}

type sinkFactory struct {
	create SinkFactory
	opts   []analysisentry.SinkOption
}

type controller struct {
	analyzer  analyzerclient.Gateway
	documents docsync.Controller
	logger    *zap.SugaredLogger
	stats     tally.Scope
	resolver  *stamp.Resolver
	cfg       Config

	entriesMu sync.RWMutex
	entries   map[uri.URI]*analysisentry.Entry
	factories *sinkregistry.Registry[string, sinkFactory]

	exitsMu sync.Mutex
	exits   int
}

// New creates the analysis controller and registers it as the engine's notification handler.
func New(p Params) (Controller, error) {
	cfg := Config{MaxRestarts: _defaultMaxRestarts}
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKey, err)
	}

	stats := p.Stats.SubScope("analysis")
	logger := p.Logger.With("plugin", _nameKey)
	c := &controller{
		analyzer:  p.Analyzer,
		documents: p.Documents,
		logger:    logger,
		stats:     stats,
		resolver:  stamp.NewResolver(logger, stats),
		cfg:       cfg,
		entries:   make(map[uri.URI]*analysisentry.Entry),
		factories: sinkregistry.New[string, sinkFactory](),
	}
	if err := p.Analyzer.RegisterHandler(c); err != nil {
		return nil, fmt.Errorf("registering analysis notification handler: %w", err)
	}
	c.updateMetrics()
	return c, nil
}

func (c *controller) Track(ctx context.Context, u uri.URI) (*analysisentry.Entry, error) {
	c.entriesMu.Lock()
	e, ok := c.entries[u]
	if !ok {
		e = c.newEntry(u, c.analyzer.EngineID())
		c.entries[u] = e
	}
	c.entriesMu.Unlock()

	if ok {
		return e, nil
	}
	c.updateMetrics()
	return e, c.requestAnalysis(ctx, e)
}

func (c *controller) Reanalyze(ctx context.Context, u uri.URI) error {
	e, err := c.Entry(u)
	if err != nil {
		return err
	}
	return c.requestAnalysis(ctx, e)
}

func (c *controller) Untrack(u uri.URI) {
	c.entriesMu.Lock()
	e, ok := c.entries[u]
	delete(c.entries, u)
	c.entriesMu.Unlock()

	if ok {
		e.Dispose()
		c.updateMetrics()
	}
}

func (c *controller) Entry(u uri.URI) (*analysisentry.Entry, error) {
	c.entriesMu.RLock()
	defer c.entriesMu.RUnlock()
	e, ok := c.entries[u]
	if !ok {
		return nil, &syncerrors.EntryNotFoundError{Path: u.Filename()}
	}
	return e, nil
}

func (c *controller) Entries() []*analysisentry.Entry {
	c.entriesMu.RLock()
	result := make([]*analysisentry.Entry, 0, len(c.entries))
	for _, e := range c.entries {
		result = append(result, e)
	}
	c.entriesMu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].URI() < result[j].URI() })
	return result
}

func (c *controller) AddSinkFactory(key string, factory SinkFactory, opts ...analysisentry.SinkOption) bool {
	f := sinkFactory{create: factory, opts: opts}
	if _, added := c.factories.Add(key, f); !added {
		return false
	}
	for _, e := range c.Entries() {
		e.AddSink(key, factory(e), opts...)
	}
	return true
}

func (c *controller) Resolve(s *stamp.Stamp, u uri.URI) (*translator.Translator, error) {
	var lastAnalyzed *analysisentry.Entry
	c.entriesMu.RLock()
	lastAnalyzed = c.entries[u]
	c.entriesMu.RUnlock()

	if lastAnalyzed == nil {
		return c.resolver.Resolve(s, nil)
	}
	return c.resolver.Resolve(s, lastAnalyzed.LastAnalyzedVersion())
}

func (c *controller) OnConnected(ctx context.Context, engine uuid.UUID) error {
	c.logger.Infow("analysis engine connected, requesting analysis", zap.Stringer("engine", engine))
	return c.restart(ctx, c.Entries())
}

func (c *controller) OnAnalysisCompleted(ctx context.Context, engine uuid.UUID, params *analyzerclient.AnalysisCompletedParams) error {
	e, err := c.entryFor(params.URI, engine)
	if err != nil {
		var notFound *syncerrors.EntryNotFoundError
		if errors.As(err, &notFound) {
			c.logger.Debugw("ignoring analysis of untracked document", "document", string(params.URI), "version", params.Version)
			return nil
		}
		return err
	}

	doc, err := c.documents.Version(params.URI, params.Version)
	if err != nil {
		// The document is closed or the version is gone; results cannot be translated but are still recorded.
		c.logger.Debugw("analyzed version is not live", "document", string(params.URI), "version", params.Version, "error", err)
		doc = nil
	}

	delivered, err := e.CompleteAnalysis(ctx, analysisentry.Analysis{
		Version:  params.Version,
		Document: doc,
		Results:  params.Results,
	})
	if !delivered && err == nil {
		c.stats.Counter("stale_analyses_dropped").Inc(1)
	}
	if err != nil {
		return fmt.Errorf("completing analysis of %q: %w", params.URI, err)
	}
	return nil
}

func (c *controller) OnAbnormalExit(ctx context.Context, engine uuid.UUID, params *analyzerclient.AbnormalExitParams) error {
	cause := &syncerrors.AnalysisEngineAbnormalExitError{
		EngineID: engine,
		ExitCode: params.ExitCode,
		Stderr:   params.Stderr,
	}
	c.stats.Counter("abnormal_exits").Inc(1)
	c.logger.Errorw("analysis engine exited abnormally",
		zap.Stringer("engine", engine),
		"exitCode", params.ExitCode,
		"stderr", params.Stderr,
	)

	var errs error
	affected := make([]*analysisentry.Entry, 0)
	for _, e := range c.Entries() {
		if e.Analyzer() != engine {
			continue
		}
		affected = append(affected, e)
		if err := e.Reset(ctx, cause); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("resetting %q: %w", e.URI(), err))
		}
	}

	c.exitsMu.Lock()
	c.exits++
	exits := c.exits
	c.exitsMu.Unlock()

	if exits >= c.cfg.MaxRestarts {
		c.logger.Errorw("analysis engine exited too often, not requesting analysis again", "exits", exits)
		return errs
	}
	return multierr.Append(errs, c.restart(ctx, affected))
}

// restart sends every open document to the engine again and requests analysis of entries.
func (c *controller) restart(ctx context.Context, entries []*analysisentry.Entry) error {
	errs := c.documents.Resync(ctx)
	for _, e := range entries {
		errs = multierr.Append(errs, c.requestAnalysis(ctx, e))
	}
	return errs
}

// entryFor returns the entry of u owned by engine, reassigning it when another engine instance reports on it.
func (c *controller) entryFor(u uri.URI, engine uuid.UUID) (*analysisentry.Entry, error) {
	c.entriesMu.Lock()
	defer c.entriesMu.Unlock()

	e, ok := c.entries[u]
	if !ok {
		return nil, &syncerrors.EntryNotFoundError{Path: u.Filename()}
	}
	if e.Analyzer() == engine {
		return e, nil
	}

	next, err := e.Reassign(engine)
	if err != nil {
		return nil, fmt.Errorf("reassigning %q: %w", u, err)
	}
	c.entries[u] = next
	return next, nil
}

func (c *controller) newEntry(u uri.URI, engine uuid.UUID) *analysisentry.Entry {
	e := analysisentry.New(u,
		analysisentry.WithAnalyzer(engine),
		analysisentry.WithLogger(c.logger),
		analysisentry.WithScope(c.stats),
		analysisentry.WithAsyncKeys(c.cfg.AsyncSinks...),
	)
	for _, r := range c.factories.Snapshot() {
		e.AddSink(r.Key, r.Value.create(e), r.Value.opts...)
	}
	return e
}

func (c *controller) requestAnalysis(ctx context.Context, e *analysisentry.Entry) error {
	if err := e.BeginAnalysis(); err != nil {
		return err
	}
	if err := c.analyzer.AnalyzeFile(ctx, &analyzerclient.AnalyzeFileParams{URI: e.URI()}); err != nil {
		if errors.Is(err, syncerrors.NoAnalyzerConnectionError) {
			c.logger.Debugw("analyzer not connected, analysis will be requested on connect", "document", string(e.URI()))
			return nil
		}
		return fmt.Errorf("requesting analysis of %q: %w", e.URI(), err)
	}
	return nil
}

func (c *controller) updateMetrics() {
	c.entriesMu.RLock()
	defer c.entriesMu.RUnlock()
	c.stats.Gauge("entries").Update(float64(len(c.entries)))
}
