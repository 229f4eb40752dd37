// Package diagnostics publishes the diagnostics reported with every completed analysis.
package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"github.com/uber/analysis-sync/src/anasync/controller/analysis"
	analysisentry "github.com/uber/analysis-sync/src/anasync/controller/analysis-entry"
	ideclient "github.com/uber/analysis-sync/src/anasync/gateway/ide-client"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"github.com/uber/analysis-sync/src/anasync/internal/location"
	"github.com/uber/analysis-sync/src/anasync/internal/translator"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey = "diagnostics"
)

// Controller keeps the diagnostics shown for each document in line with its latest analysis.
type Controller interface {
	// Diagnostics returns the diagnostics last published for u, in live buffer coordinates at the time of publishing.
	Diagnostics(u uri.URI) []protocol.Diagnostic
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Analysis   analysis.Controller
	IdeGateway ideclient.Gateway
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
}

// results is the part of an analysis payload this controller reads.
type results struct {
	Diagnostics []protocol.Diagnostic `json:"diagnostics"`
}

type diagnosticStore map[uri.URI][]protocol.Diagnostic

type controller struct {
	ideGateway    ideclient.Gateway
	logger        *zap.SugaredLogger
	stats         tally.Scope
	diagnostics   diagnosticStore
	diagnosticsMu sync.Mutex

	// reportedExits holds the engines whose abnormal exit was already shown to the user.
	reportedExits   map[uuid.UUID]struct{}
	reportedExitsMu sync.Mutex
}

// New creates the diagnostics controller and subscribes it to every analysis entry.
func New(p Params) (Controller, error) {
	c := &controller{
		ideGateway:    p.IdeGateway,
		logger:        p.Logger.With("plugin", _nameKey),
		stats:         p.Stats.SubScope(_nameKey),
		diagnostics:   make(diagnosticStore),
		reportedExits: make(map[uuid.UUID]struct{}),
	}
	if !p.Analysis.AddSinkFactory(_nameKey, func(*analysisentry.Entry) analysisentry.Sink { return c }) {
		return nil, fmt.Errorf("sink %q already registered", _nameKey)
	}
	return c, nil
}

func (c *controller) Diagnostics(u uri.URI) []protocol.Diagnostic {
	c.diagnosticsMu.Lock()
	defer c.diagnosticsMu.Unlock()
	return c.diagnostics[u]
}

// OnNewAnalysis publishes the diagnostics of a, moved onto the live buffer when the analyzed version is known.
func (c *controller) OnNewAnalysis(ctx context.Context, e *analysisentry.Entry, a analysisentry.Analysis) error {
	var r results
	if len(a.Results) > 0 {
		if err := json.Unmarshal(a.Results, &r); err != nil {
			c.stats.Counter("invalid_results").Inc(1)
			return fmt.Errorf("decoding diagnostics of %q: %w", e.URI(), err)
		}
	}

	diagnostics := r.Diagnostics
	if a.Document != nil {
		tr, err := translator.New(a.Document, translator.WithLogger(c.logger), translator.WithScope(c.stats))
		if err != nil {
			// The analyzed version is gone; the ranges are published as reported.
			c.logger.Debugw("unable to translate diagnostics", "document", string(e.URI()), "error", err)
		} else {
			diagnostics = translate(tr, diagnostics)
			tr.Close()
		}
	}
	diagnostics = dedupe(e.FilePath(), diagnostics)

	c.stats.Counter("reported").Inc(int64(len(diagnostics)))
	c.stats.Counter("runs").Inc(1)
	return c.publish(ctx, e.URI(), diagnostics)
}

// OnAnalysisUnavailable clears the diagnostics of the document and tells the user once per engine that exited.
func (c *controller) OnAnalysisUnavailable(ctx context.Context, e *analysisentry.Entry, cause error) error {
	if exit, ok := syncerrors.AbnormalExit(cause); ok && c.firstExitReport(exit.EngineID) {
		if err := c.ideGateway.ShowMessage(ctx, &protocol.ShowMessageParams{
			Type:    protocol.MessageTypeWarning,
			Message: fmt.Sprintf("The analysis engine exited unexpectedly (code %d). Diagnostics will return once it restarts.", exit.ExitCode),
		}); err != nil {
			c.logger.Warnw("unable to notify abnormal exit", "error", err)
		}
	}
	return c.publish(ctx, e.URI(), []protocol.Diagnostic{})
}

func (c *controller) publish(ctx context.Context, u uri.URI, diagnostics []protocol.Diagnostic) error {
	c.diagnosticsMu.Lock()
	if len(diagnostics) == 0 {
		delete(c.diagnostics, u)
	} else {
		c.diagnostics[u] = diagnostics
	}
	c.diagnosticsMu.Unlock()

	c.logger.Debugf("Publishing %d diagnostics for %s", len(diagnostics), u)
	if err := c.ideGateway.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         u,
		Diagnostics: diagnostics,
	}); err != nil {
		c.logger.Errorf("Error publishing diagnostics: %s", u)
		return err
	}
	return nil
}

func (c *controller) firstExitReport(engine uuid.UUID) bool {
	c.reportedExitsMu.Lock()
	defer c.reportedExitsMu.Unlock()
	if _, ok := c.reportedExits[engine]; ok {
		return false
	}
	c.reportedExits[engine] = struct{}{}
	return true
}

// dedupe drops diagnostics repeated at the exact same location with the same message.
func dedupe(path string, diagnostics []protocol.Diagnostic) []protocol.Diagnostic {
	result := make([]protocol.Diagnostic, 0, len(diagnostics))
	seen := make(map[uint64][]int, len(diagnostics))
	for _, d := range diagnostics {
		loc := locationOf(path, d)
		h := location.Exact.Hash(loc)
		duplicate := false
		for _, i := range seen[h] {
			if location.Exact.Equal(locationOf(path, result[i]), loc) && result[i].Message == d.Message {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		seen[h] = append(seen[h], len(result))
		result = append(result, d)
	}
	return result
}

func locationOf(path string, d protocol.Diagnostic) location.Location {
	r := d.Range
	return location.Location{
		FilePath:       path,
		Line:           int(r.Start.Line),
		Column:         int(r.Start.Character),
		DefinitionSpan: &r,
	}
}

func translate(tr *translator.Translator, diagnostics []protocol.Diagnostic) []protocol.Diagnostic {
	result := make([]protocol.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		d.Range = tr.TranslateRangeForward(d.Range)
		result = append(result, d)
	}
	return result
}
