// Package syncdaemon implements the editor facing business logic of the analysis sync daemon.
package syncdaemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"github.com/uber/analysis-sync/src/anasync/controller/analysis"
	"github.com/uber/analysis-sync/src/anasync/controller/completion"
	docsync "github.com/uber/analysis-sync/src/anasync/controller/doc-sync"
	analyzerclient "github.com/uber/analysis-sync/src/anasync/gateway/analyzer-client"
	ideclient "github.com/uber/analysis-sync/src/anasync/gateway/ide-client"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_serverName = "analysis-sync"

	// Configuration keys
	_idleTimeoutMinutesKey = "idleTimeoutMinutes"
)

//go:generate mockgen -source=sync_daemon.go -destination=syncdaemonmock/sync_daemon_mock.go -package=syncdaemonmock

// Controller orchestrates the business logic for each editor request.
type Controller interface {
	// LSP Methods defined per protocol.
	Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error)
	Initialized(ctx context.Context, params *protocol.InitializedParams) error
	Shutdown(ctx context.Context) error
	Exit(ctx context.Context) error

	// Document related methods.
	DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error
	DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error

	// Completion related methods.
	Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error)

	// Custom methods for use within this service.
	InitSession(ctx context.Context, conn jsonrpc2.Conn) (uuid.UUID, error)
	EndSession(ctx context.Context, id uuid.UUID) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Shutdowner fx.Shutdowner
	IdeGateway ideclient.Gateway
	Analyzer   analyzerclient.Gateway
	Documents  docsync.Controller
	Analysis   analysis.Controller
	Completion completion.Controller
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
	Config     config.Provider
}

// session is the state of one editor connection.
type session struct {
	id          uuid.UUID
	initialized bool
	shutdown    bool
	// documents holds the documents this session has open.
	documents map[uri.URI]struct{}
}

type controller struct {
	shutdowner fx.Shutdowner
	ideGateway ideclient.Gateway
	analyzer   analyzerclient.Gateway
	documents  docsync.Controller
	analysis   analysis.Controller
	completion completion.Controller
	logger     *zap.SugaredLogger
	stats      tally.Scope

	// openMu serializes opening and closing documents. It is acquired before sessionsMu.
	openMu     sync.Mutex
	sessionsMu sync.Mutex
	sessions   map[uuid.UUID]*session
	// openCount is the number of sessions that have each document open.
	openCount map[uri.URI]int

	idleTimer   *time.Timer
	idleTimerMu sync.Mutex
	idleTimeout time.Duration
}

// New constructs a new top-level controller for the service.
func New(p Params) (Controller, error) {
	var timeoutMinutesRaw int64
	if err := p.Config.Get(_idleTimeoutMinutesKey).Populate(&timeoutMinutesRaw); err != nil {
		return nil, fmt.Errorf("unable to get idle timeout from config: %v", err)
	}
	if timeoutMinutesRaw <= 0 {
		return nil, fmt.Errorf("%q must be positive, got %d", _idleTimeoutMinutesKey, timeoutMinutesRaw)
	}

	c := &controller{
		shutdowner:  p.Shutdowner,
		ideGateway:  p.IdeGateway,
		analyzer:    p.Analyzer,
		documents:   p.Documents,
		analysis:    p.Analysis,
		completion:  p.Completion,
		logger:      p.Logger,
		stats:       p.Stats.SubScope("sessions"),
		sessions:    make(map[uuid.UUID]*session),
		openCount:   make(map[uri.URI]int),
		idleTimeout: time.Duration(timeoutMinutesRaw) * time.Minute,
	}
	c.refreshIdleTimer()
	return c, nil
}

// InitSession creates a new empty session and returns its UUID.
func (c *controller) InitSession(ctx context.Context, conn jsonrpc2.Conn) (uuid.UUID, error) {
	defer c.refreshIdleTimer()

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	if err := c.ideGateway.RegisterClient(ctx, id, conn); err != nil {
		return uuid.Nil, err
	}

	c.sessionsMu.Lock()
	c.sessions[id] = &session{id: id, documents: make(map[uri.URI]struct{})}
	c.updateMetricsLocked()
	c.sessionsMu.Unlock()
	return id, nil
}

// EndSession includes any cleanup at the end of the session, during or after the last JSON-RPC request.
// Documents left open by the session are closed unless another session still has them open.
func (c *controller) EndSession(ctx context.Context, id uuid.UUID) error {
	defer c.refreshIdleTimer()

	c.openMu.Lock()
	c.sessionsMu.Lock()
	s, ok := c.sessions[id]
	delete(c.sessions, id)
	var released []uri.URI
	if ok {
		for u := range s.documents {
			if c.releaseLocked(u) {
				released = append(released, u)
			}
		}
	}
	c.updateMetricsLocked()
	c.sessionsMu.Unlock()

	var errs error
	for _, u := range released {
		errs = multierr.Append(errs, c.closeDocument(ctx, u))
	}
	c.openMu.Unlock()

	if err := c.ideGateway.DeregisterClient(ctx, id); err != nil {
		c.logger.Error(err)
	}
	return errs
}

// Initialize advertises the capabilities of the daemon to a new session.
func (c *controller) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s, err := c.sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	c.sessionsMu.Lock()
	s.initialized = true
	c.sessionsMu.Unlock()

	result := &protocol.InitializeResult{
		ServerInfo: &protocol.ServerInfo{
			Name: _serverName,
		},
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindIncremental,
				Save: &protocol.SaveOptions{
					IncludeText: true,
				},
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{"."},
			},
		},
	}
	return result, nil
}

// Initialized tells the user whether analysis results can be expected yet.
func (c *controller) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	msg := &protocol.ShowMessageParams{
		Message: "Connection to the analysis sync daemon is now initialized.",
		Type:    protocol.MessageTypeInfo,
	}
	if c.analyzer.EngineID() == uuid.Nil {
		msg = &protocol.ShowMessageParams{
			Message: "The analysis engine is not connected yet. Results will appear once it connects.",
			Type:    protocol.MessageTypeWarning,
		}
	}
	if err := c.ideGateway.ShowMessage(ctx, msg); err != nil {
		c.logger.Warnf("showing initialized message: %s", err)
	}
	return nil
}

// Shutdown is sent just before Exit to indicate that the session will exit.
func (c *controller) Shutdown(ctx context.Context) error {
	s, err := c.sessionFromContext(ctx)
	if err != nil {
		return err
	}

	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()
	s.shutdown = true
	return nil
}

// Exit cleans up an individual connection. The process shuts down once it has been idle for the configured timeout.
func (c *controller) Exit(ctx context.Context) error {
	id, err := ideclient.SessionFromContext(ctx)
	if err != nil {
		return fmt.Errorf("error during session exit: %w", err)
	}
	return c.EndSession(ctx, id)
}

func (c *controller) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s, err := c.sessionFromContext(ctx)
	if err != nil {
		return err
	}
	u := params.TextDocument.URI

	c.openMu.Lock()
	defer c.openMu.Unlock()

	c.sessionsMu.Lock()
	first := c.openCount[u] == 0
	if _, ok := s.documents[u]; !ok {
		s.documents[u] = struct{}{}
		c.openCount[u]++
	}
	c.sessionsMu.Unlock()

	if !first {
		// Later opens share the buffer and analysis of the first one.
		c.logger.Debugf("session %s joined open document %q", s.id, u)
		return nil
	}

	if err := c.documents.DidOpen(ctx, params); err != nil {
		c.sessionsMu.Lock()
		delete(s.documents, u)
		c.releaseLocked(u)
		c.sessionsMu.Unlock()
		return err
	}

	if _, err := c.documents.Chain(u); err != nil {
		// Documents over the size limit are not tracked and get no analysis.
		c.logger.Debugf("not analyzing untracked document %q", u)
		return nil
	}
	_, err = c.analysis.Track(ctx, u)
	return err
}

func (c *controller) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	if err := c.documents.DidChange(ctx, params); err != nil {
		if untracked(err) {
			return nil
		}
		return err
	}
	return c.analysis.Reanalyze(ctx, params.TextDocument.URI)
}

func (c *controller) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	return c.documents.DidSave(ctx, params)
}

func (c *controller) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s, err := c.sessionFromContext(ctx)
	if err != nil {
		return err
	}
	u := params.TextDocument.URI

	c.openMu.Lock()
	defer c.openMu.Unlock()

	c.sessionsMu.Lock()
	released := false
	if _, ok := s.documents[u]; ok {
		delete(s.documents, u)
		released = c.releaseLocked(u)
	}
	c.sessionsMu.Unlock()

	if !released {
		return nil
	}
	return c.closeDocument(ctx, u)
}

func (c *controller) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	return c.completion.Complete(ctx, params)
}

// releaseLocked drops one session's claim on u and reports whether no session has it open anymore.
func (c *controller) releaseLocked(u uri.URI) bool {
	c.openCount[u]--
	if c.openCount[u] > 0 {
		return false
	}
	delete(c.openCount, u)
	return true
}

func (c *controller) closeDocument(ctx context.Context, u uri.URI) error {
	c.analysis.Untrack(u)
	err := c.documents.DidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: u},
	})
	if untracked(err) {
		return nil
	}
	return err
}

// untracked reports whether err is due to a document that was never tracked, such as one over the size limit.
func untracked(err error) bool {
	var notFound *syncerrors.DocumentNotFoundError
	return errors.As(err, &notFound)
}

func (c *controller) sessionFromContext(ctx context.Context) (*session, error) {
	id, err := ideclient.SessionFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting session from context: %w", err)
	}

	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, errors.New("session not found")
	}
	return s, nil
}

func (c *controller) updateMetricsLocked() {
	c.stats.Gauge("active").Update(float64(len(c.sessions)))
}

// refreshIdleTimer ensures that the service shuts down after a defined inactivity period with no connections.
func (c *controller) refreshIdleTimer() {
	c.sessionsMu.Lock()
	active := len(c.sessions)
	c.sessionsMu.Unlock()

	c.idleTimerMu.Lock()
	defer c.idleTimerMu.Unlock()

	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
	if active > 0 {
		return
	}
	c.idleTimer = time.AfterFunc(c.idleTimeout, func() {
		c.logger.Info("Shutdown signal received.")
		if err := c.shutdowner.Shutdown(); err != nil {
			c.logger.Errorf("shutting down: %s", err)
		}
	})
}
