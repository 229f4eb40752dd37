package analyzerclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/uber/analysis-sync/src/anasync/factory"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyAddress = "analyzer.address"
	_errSendToEngine  = "sending call/notification to analysis engine: %w"

	// _exitCodeDisconnected is reported when the connection to the engine closes without an exit notification.
	_exitCodeDisconnected = -1
)

//go:generate mockgen -source=analyzer_client.go -destination=analyzerclientmock/analyzer_client_mock.go -package=analyzerclientmock

// Gateway is used to exchange requests and notifications with the external analysis engine.
type Gateway interface {
	// Connect starts serving an engine connection over rwc, replacing any existing connection. The registered handler's
	// OnConnected runs before Connect returns.
	Connect(ctx context.Context, rwc io.ReadWriteCloser) (uuid.UUID, error)
	// Disconnect closes the current connection, if any.
	Disconnect(ctx context.Context) error
	// EngineID returns the identity of the connected engine instance, or uuid.Nil when disconnected.
	EngineID() uuid.UUID
	// RegisterHandler sets the receiver of engine notifications.
	RegisterHandler(h NotificationHandler) error

	AnalyzeFile(ctx context.Context, params *AnalyzeFileParams) error
	SendFileUpdates(ctx context.Context, params *FileUpdateParams) error
	GetMembers(ctx context.Context, params *MemberQueryParams) (*MembersResult, error)
	GetAllAvailableMembers(ctx context.Context, params *MemberQueryParams) (*MembersResult, error)
	FindNameInAllModules(ctx context.Context, params *MemberQueryParams) (*MembersResult, error)
}

// NotificationHandler receives notifications sent by an engine instance.
type NotificationHandler interface {
	OnConnected(ctx context.Context, engine uuid.UUID) error
	OnAnalysisCompleted(ctx context.Context, engine uuid.UUID, params *AnalysisCompletedParams) error
	OnAbnormalExit(ctx context.Context, engine uuid.UUID, params *AbnormalExitParams) error
}

// Params are inbound parameters to initialize a new gateway.
type Params struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

type gateway struct {
	address string
	logger  *zap.SugaredLogger

	mu       sync.RWMutex
	conn     jsonrpc2.Conn
	engineID uuid.UUID
	closing  map[uuid.UUID]bool
	watched  map[uuid.UUID]chan struct{}
	handler  NotificationHandler
}

// New returns a Gateway for the analysis engine. When analyzer.address is configured, the gateway dials it on start.
func New(p Params) (Gateway, error) {
	g := &gateway{
		logger:  p.Logger.With("gateway", "analyzer-client"),
		closing: make(map[uuid.UUID]bool),
		watched: make(map[uuid.UUID]chan struct{}),
	}
	if err := p.Config.Get(_configKeyAddress).Populate(&g.address); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyAddress, err)
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: g.onStart,
		OnStop:  g.Disconnect,
	})
	return g, nil
}

func (g *gateway) onStart(ctx context.Context) error {
	if g.address == "" {
		g.logger.Infow("no analyzer address configured, waiting for a connection")
		return nil
	}

	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", g.address)
	if err != nil {
		return fmt.Errorf("dialing analysis engine at %q: %w", g.address, err)
	}
	_, err = g.Connect(context.Background(), c)
	return err
}

func (g *gateway) Connect(ctx context.Context, rwc io.ReadWriteCloser) (uuid.UUID, error) {
	if err := g.Disconnect(ctx); err != nil {
		return uuid.Nil, err
	}

	id := factory.UUID()
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))

	watched := make(chan struct{})
	g.mu.Lock()
	g.conn = conn
	g.engineID = id
	g.watched[id] = watched
	handler := g.handler
	g.mu.Unlock()

	conn.Go(ctx, jsonrpc2.AsyncHandler(func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		return g.handle(ctx, id, reply, req)
	}))

	go g.watch(ctx, id, conn, watched)

	g.logger.Infow("analysis engine connected", zap.Stringer("engine", id))
	if handler != nil {
		if err := handler.OnConnected(ctx, id); err != nil {
			g.logger.Errorw("handling engine connection", zap.Stringer("engine", id), "error", err)
		}
	}
	return id, nil
}

// watch reports an abnormal exit when a connection closes without Disconnect.
func (g *gateway) watch(ctx context.Context, id uuid.UUID, conn jsonrpc2.Conn, watched chan struct{}) {
	defer close(watched)
	<-conn.Done()

	g.mu.Lock()
	expected := g.closing[id]
	delete(g.closing, id)
	delete(g.watched, id)
	if g.engineID == id {
		g.conn = nil
		g.engineID = uuid.Nil
	}
	handler := g.handler
	g.mu.Unlock()

	if expected {
		g.logger.Infow("analysis engine disconnected", zap.Stringer("engine", id))
		return
	}

	params := &AbnormalExitParams{ExitCode: _exitCodeDisconnected}
	if err := conn.Err(); err != nil && !errors.Is(err, io.EOF) {
		params.Stderr = err.Error()
	}
	g.logger.Warnw("analysis engine connection lost", zap.Stringer("engine", id), "error", conn.Err())
	if handler != nil {
		if err := handler.OnAbnormalExit(context.WithoutCancel(ctx), id, params); err != nil {
			g.logger.Errorw("handling lost engine connection", "error", err)
		}
	}
}

func (g *gateway) Disconnect(ctx context.Context) error {
	g.mu.Lock()
	conn, id := g.conn, g.engineID
	watched := g.watched[id]
	if conn != nil {
		g.closing[id] = true
	}
	g.conn = nil
	g.engineID = uuid.Nil
	g.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-watched
	if err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("closing analysis engine connection: %w", err)
	}
	return nil
}

func (g *gateway) EngineID() uuid.UUID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.engineID
}

func (g *gateway) RegisterHandler(h NotificationHandler) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.handler != nil {
		return errors.New("cannot register a duplicate notification handler")
	}
	g.handler = h
	return nil
}

func (g *gateway) AnalyzeFile(ctx context.Context, params *AnalyzeFileParams) error {
	return g.call(ctx, MethodAnalyzeFile, params, nil)
}

func (g *gateway) SendFileUpdates(ctx context.Context, params *FileUpdateParams) error {
	conn, err := g.getConn()
	if err != nil {
		return fmt.Errorf(_errSendToEngine, err)
	}
	if err := conn.Notify(ctx, MethodFileUpdate, params); err != nil {
		return fmt.Errorf(_errSendToEngine, err)
	}
	return nil
}

func (g *gateway) GetMembers(ctx context.Context, params *MemberQueryParams) (*MembersResult, error) {
	result := &MembersResult{}
	if err := g.call(ctx, MethodGetMembers, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *gateway) GetAllAvailableMembers(ctx context.Context, params *MemberQueryParams) (*MembersResult, error) {
	result := &MembersResult{}
	if err := g.call(ctx, MethodGetAllAvailableMembers, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *gateway) FindNameInAllModules(ctx context.Context, params *MemberQueryParams) (*MembersResult, error) {
	result := &MembersResult{}
	if err := g.call(ctx, MethodFindNameInAllModules, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *gateway) call(ctx context.Context, method string, params, result interface{}) error {
	conn, err := g.getConn()
	if err != nil {
		return fmt.Errorf(_errSendToEngine, err)
	}
	if _, err := conn.Call(ctx, method, params, result); err != nil {
		return fmt.Errorf(_errSendToEngine, err)
	}
	return nil
}

func (g *gateway) getConn() (jsonrpc2.Conn, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.conn == nil {
		return nil, syncerrors.NoAnalyzerConnectionError
	}
	return g.conn, nil
}

// handle dispatches a single inbound message from the engine identified by id.
func (g *gateway) handle(ctx context.Context, id uuid.UUID, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	g.mu.RLock()
	handler := g.handler
	g.mu.RUnlock()

	if handler == nil {
		g.logger.Warnw("dropping engine message, no handler registered", "method", req.Method())
		return reply(ctx, nil, nil)
	}

	var err error
	switch req.Method() {
	case NotificationAnalysisCompleted:
		var params AnalysisCompletedParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err))
		}
		err = handler.OnAnalysisCompleted(ctx, id, &params)
	case NotificationAbnormalExit:
		var params AbnormalExitParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err))
		}
		err = handler.OnAbnormalExit(ctx, id, &params)
	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}

	if err != nil {
		g.logger.Errorw("handling engine message", "method", req.Method(), "error", err)
	}
	return reply(ctx, nil, err)
}
