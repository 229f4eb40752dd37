package docsync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/uber-go/tally"
	analyzerclient "github.com/uber/analysis-sync/src/anasync/gateway/analyzer-client"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"github.com/uber/analysis-sync/src/anasync/internal/stamp"
	"github.com/uber/analysis-sync/src/anasync/internal/versionchain"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_nameKey        = "doc-sync"
	_maxFileSizeKey = "docsync.maxFileSizeBytes"
)

//go:generate mockgen -source=doc_sync.go -destination=docsyncmock/doc_sync_mock.go -package=docsyncmock

// Controller owns the live buffer of every open document and keeps the analysis engine's copy of it current.
type Controller interface {
	// DidOpen starts tracking a document and sends its initial content to the engine.
	DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	// DidChange appends a version built from the content changes and sends the changes to the engine.
	DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	// DidSave reconciles the live buffer with the saved text, when the client includes it.
	DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error
	// DidClose stops tracking a document.
	DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error

	// Replace appends a version with the given full text. Only the regions that differ are recorded as edits.
	Replace(ctx context.Context, u uri.URI, text string) (*versionchain.DocumentVersion, error)

	// Chain returns the version chain of an open document.
	Chain(u uri.URI) (*versionchain.Chain, error)
	// Version returns a retained version of an open document.
	Version(u uri.URI, number int) (*versionchain.DocumentVersion, error)
	// Capture stamps a request against the current version of an open document.
	Capture(u uri.URI) (*stamp.Stamp, error)
	// Documents returns the open documents.
	Documents() []uri.URI

	// Sync sends the engine whatever it is missing of a document.
	Sync(ctx context.Context, u uri.URI) error
	// Resync sends the full content of every open document, for use after the engine lost its state.
	Resync(ctx context.Context) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Analyzer analyzerclient.Gateway
	Logger   *zap.SugaredLogger
	Stats    tally.Scope
	Config   config.Provider
}

type document struct {
	uri           uri.URI
	clientVersion int32
	chain         *versionchain.Chain

	// mu serializes edits and engine updates of the document.
	mu sync.Mutex
	// lastSent is the newest version the engine has received, pinned while it is the base for the next update.
	lastSent *versionchain.DocumentVersion
}

type controller struct {
	analyzer         analyzerclient.Gateway
	logger           *zap.SugaredLogger
	stats            tally.Scope
	maxFileSizeBytes int64

	documents   map[uri.URI]*document
	documentsMu sync.RWMutex
}

// New creates a new controller for document sync.
func New(p Params) (Controller, error) {
	var maxFileSizeBytes int64
	if err := p.Config.Get(_maxFileSizeKey).Populate(&maxFileSizeBytes); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _maxFileSizeKey, err)
	}
	if maxFileSizeBytes <= 0 {
		return nil, fmt.Errorf("missing field %q in config", _maxFileSizeKey)
	}

	c := &controller{
		analyzer:         p.Analyzer,
		logger:           p.Logger.With("plugin", _nameKey),
		stats:            p.Stats.SubScope("doc_sync"),
		maxFileSizeBytes: maxFileSizeBytes,
		documents:        make(map[uri.URI]*document),
	}
	defer c.updateMetrics()
	return c, nil
}

func (c *controller) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	defer c.updateMetrics()

	item := params.TextDocument
	if err := c.validateSize(item.Text); err != nil {
		// Some documents are expected to exceed the limit. Later requests for them fail with DocumentNotFoundError.
		c.logger.Warnf("unable to track open document %q: %v", item.URI, err)
		return nil
	}

	doc := &document{
		uri:           item.URI,
		clientVersion: item.Version,
		chain:         versionchain.New(item.Text, int(item.Version), versionchain.WithLogger(c.logger)),
	}

	c.documentsMu.Lock()
	if previous, ok := c.documents[item.URI]; ok {
		c.logger.Warnf("document %q opened twice, discarding previous buffer", item.URI)
		previous.release()
	}
	c.documents[item.URI] = doc
	c.documentsMu.Unlock()

	doc.mu.Lock()
	defer doc.mu.Unlock()
	return c.syncLocked(ctx, doc)
}

func (c *controller) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	defer c.updateMetrics()

	doc, err := c.getDocument(params.TextDocument.URI)
	if err != nil {
		return err
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	edits, text, err := ContentChangesToEdits(doc.chain.Current().Text(), params.ContentChanges)
	if err != nil {
		return fmt.Errorf("adding changes to document %q: %w", doc.uri, err)
	}
	if err := c.validateSize(text); err != nil {
		return fmt.Errorf("unable to add changes to document %q: %w", doc.uri, err)
	}

	doc.clientVersion = params.TextDocument.Version
	v := doc.chain.Advance(edits...)
	c.logger.Debugw("document changed", "document", string(doc.uri), "version", v.Number(), "clientVersion", doc.clientVersion)
	return c.syncLocked(ctx, doc)
}

func (c *controller) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text == "" {
		return nil
	}
	doc, err := c.getDocument(params.TextDocument.URI)
	if err != nil {
		return err
	}
	if doc.currentText() == params.Text {
		return nil
	}

	// Text should already be current from DidChange, but this reconciles it in case something got out of sync.
	c.logger.Infof("reconciling document %q with saved text", doc.uri)
	_, err = c.Replace(ctx, doc.uri, params.Text)
	return err
}

func (c *controller) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	defer c.updateMetrics()

	c.documentsMu.Lock()
	doc, ok := c.documents[params.TextDocument.URI]
	delete(c.documents, params.TextDocument.URI)
	c.documentsMu.Unlock()

	if ok {
		doc.release()
	}
	return nil
}

func (c *controller) Replace(ctx context.Context, u uri.URI, text string) (*versionchain.DocumentVersion, error) {
	defer c.updateMetrics()

	doc, err := c.getDocument(u)
	if err != nil {
		return nil, err
	}
	if err := c.validateSize(text); err != nil {
		return nil, fmt.Errorf("unable to replace document %q: %w", u, err)
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	v := doc.chain.Advance(DiffToEdits(doc.chain.Current().Text(), text)...)
	return v, c.syncLocked(ctx, doc)
}

func (c *controller) Chain(u uri.URI) (*versionchain.Chain, error) {
	doc, err := c.getDocument(u)
	if err != nil {
		return nil, err
	}
	return doc.chain, nil
}

func (c *controller) Version(u uri.URI, number int) (*versionchain.DocumentVersion, error) {
	doc, err := c.getDocument(u)
	if err != nil {
		return nil, err
	}
	return doc.chain.Version(number)
}

func (c *controller) Capture(u uri.URI) (*stamp.Stamp, error) {
	doc, err := c.getDocument(u)
	if err != nil {
		return nil, err
	}
	return stamp.Capture(doc.chain)
}

func (c *controller) Documents() []uri.URI {
	c.documentsMu.RLock()
	defer c.documentsMu.RUnlock()

	result := make([]uri.URI, 0, len(c.documents))
	for u := range c.documents {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func (c *controller) Sync(ctx context.Context, u uri.URI) error {
	doc, err := c.getDocument(u)
	if err != nil {
		return err
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()
	return c.syncLocked(ctx, doc)
}

func (c *controller) Resync(ctx context.Context) error {
	c.documentsMu.RLock()
	docs := make([]*document, 0, len(c.documents))
	for _, doc := range c.documents {
		docs = append(docs, doc)
	}
	c.documentsMu.RUnlock()

	var errs error
	for _, doc := range docs {
		doc.mu.Lock()
		doc.resetSent()
		if err := c.syncLocked(ctx, doc); err != nil {
			errs = multierr.Append(errs, err)
		}
		doc.mu.Unlock()
	}
	return errs
}

// syncLocked sends the updates between the last sent version and the current one. A missing engine connection is not
// an error: the next successful sync after connecting starts with a full reset.
func (c *controller) syncLocked(ctx context.Context, doc *document) error {
	current := doc.chain.Current()
	if doc.lastSent == current {
		return nil
	}

	params := &analyzerclient.FileUpdateParams{
		URI:     doc.uri,
		Updates: doc.chain.UpdatesSince(doc.lastSent),
	}
	if err := c.analyzer.SendFileUpdates(ctx, params); err != nil {
		if errors.Is(err, syncerrors.NoAnalyzerConnectionError) {
			c.logger.Debugf("analyzer not connected, deferring updates for %q", doc.uri)
			doc.resetSent()
			return nil
		}
		return fmt.Errorf("sending updates for %q: %w", doc.uri, err)
	}

	if err := doc.chain.Pin(current); err != nil {
		return fmt.Errorf("pinning sent version of %q: %w", doc.uri, err)
	}
	doc.resetSent()
	doc.lastSent = current
	return nil
}

func (c *controller) getDocument(u uri.URI) (*document, error) {
	c.documentsMu.RLock()
	defer c.documentsMu.RUnlock()

	doc, ok := c.documents[u]
	if !ok {
		return nil, &syncerrors.DocumentNotFoundError{Document: u}
	}
	return doc, nil
}

func (c *controller) updateMetrics() {
	c.documentsMu.RLock()
	defer c.documentsMu.RUnlock()

	openBytes := 0
	retained := 0
	for _, doc := range c.documents {
		openBytes += doc.chain.Current().Length()
		retained += doc.chain.RetainedCount()
	}
	c.stats.Gauge("open_docs").Update(float64(len(c.documents)))
	c.stats.Gauge("open_bytes").Update(float64(openBytes))
	c.stats.Gauge("retained_versions").Update(float64(retained))
}

func (c *controller) validateSize(text string) error {
	size := int64(len(text))
	if size > c.maxFileSizeBytes {
		return &syncerrors.DocumentSizeLimitError{Size: size}
	}
	return nil
}

func (d *document) currentText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chain.Current().Text()
}

// resetSent forgets the last sent version so the next sync sends the full content.
func (d *document) resetSent() {
	if d.lastSent != nil {
		d.chain.Unpin(d.lastSent)
		d.lastSent = nil
	}
}

func (d *document) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetSent()
}
