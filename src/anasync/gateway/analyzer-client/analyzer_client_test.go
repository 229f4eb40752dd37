package analyzerclient

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"github.com/uber/analysis-sync/src/anasync/internal/versionchain"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

const _timeout = 5 * time.Second

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type completedEvent struct {
	engine uuid.UUID
	params *AnalysisCompletedParams
}

type exitEvent struct {
	engine uuid.UUID
	params *AbnormalExitParams
}

type fakeHandler struct {
	connected chan uuid.UUID
	completed chan completedEvent
	exits     chan exitEvent
}

func newFakeHandler() *fakeHandler {
	return &fakeHandler{
		connected: make(chan uuid.UUID, 10),
		completed: make(chan completedEvent, 10),
		exits:     make(chan exitEvent, 10),
	}
}

func (h *fakeHandler) OnConnected(ctx context.Context, engine uuid.UUID) error {
	h.connected <- engine
	return nil
}

func (h *fakeHandler) OnAnalysisCompleted(ctx context.Context, engine uuid.UUID, params *AnalysisCompletedParams) error {
	h.completed <- completedEvent{engine: engine, params: params}
	return nil
}

func (h *fakeHandler) OnAbnormalExit(ctx context.Context, engine uuid.UUID, params *AbnormalExitParams) error {
	h.exits <- exitEvent{engine: engine, params: params}
	return nil
}

func testConfig(t *testing.T, address interface{}) config.Provider {
	cfg, err := config.NewStaticProvider(map[string]interface{}{
		"analyzer": map[string]interface{}{
			"address": address,
		},
	})
	require.NoError(t, err)
	return cfg
}

func newTestGateway(t *testing.T) *gateway {
	g, err := New(Params{
		Config:    testConfig(t, ""),
		Lifecycle: fxtest.NewLifecycle(t),
		Logger:    zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return g.(*gateway)
}

// fakeEngine serves the engine side of a connection.
type fakeEngine struct {
	conn    jsonrpc2.Conn
	updates chan FileUpdateParams
}

func startFakeEngine(ctx context.Context, t *testing.T) (*fakeEngine, net.Conn) {
	engineSide, clientSide := net.Pipe()
	e := &fakeEngine{
		conn:    jsonrpc2.NewConn(jsonrpc2.NewStream(engineSide)),
		updates: make(chan FileUpdateParams, 10),
	}
	e.conn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case MethodAnalyzeFile:
			return reply(ctx, nil, nil)
		case MethodFileUpdate:
			var params FileUpdateParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			e.updates <- params
			return reply(ctx, nil, nil)
		case MethodGetMembers, MethodGetAllAvailableMembers, MethodFindNameInAllModules:
			var params MemberQueryParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, MembersResult{
				Version: params.Version,
				Members: []Member{{Name: req.Method(), Kind: protocol.CompletionItemKindMethod}},
			}, nil)
		}
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	})
	t.Cleanup(func() {
		e.conn.Close()
		<-e.conn.Done()
	})
	return e, clientSide
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		address interface{}
		wantErr bool
	}{
		{
			name:    "no address",
			address: "",
		},
		{
			name:    "address",
			address: "localhost:9000",
		},
		{
			name:    "invalid address",
			address: map[string]interface{}{"host": "localhost"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(Params{
				Config:    testConfig(t, tt.address),
				Lifecycle: fxtest.NewLifecycle(t),
				Logger:    zap.NewNop().Sugar(),
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uuid.Nil, g.EngineID())
		})
	}
}

func TestLifecycleWithoutAddress(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	_, err := New(Params{
		Config:    testConfig(t, ""),
		Lifecycle: lc,
		Logger:    zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	lc.RequireStart()
	lc.RequireStop()
}

func TestNotConnected(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)

	err := g.AnalyzeFile(ctx, &AnalyzeFileParams{URI: uri.File("/sample.py")})
	assert.ErrorIs(t, err, syncerrors.NoAnalyzerConnectionError)
	err = g.SendFileUpdates(ctx, &FileUpdateParams{})
	assert.ErrorIs(t, err, syncerrors.NoAnalyzerConnectionError)
	_, err = g.GetMembers(ctx, &MemberQueryParams{})
	assert.ErrorIs(t, err, syncerrors.NoAnalyzerConnectionError)
	assert.NoError(t, g.Disconnect(ctx))
}

func TestRegisterHandler(t *testing.T) {
	g := newTestGateway(t)
	assert.NoError(t, g.RegisterHandler(newFakeHandler()))
	assert.Error(t, g.RegisterHandler(newFakeHandler()))
}

func TestCalls(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)
	engine, clientSide := startFakeEngine(ctx, t)

	id, err := g.Connect(ctx, clientSide)
	require.NoError(t, err)
	assert.Equal(t, id, g.EngineID())
	defer g.Disconnect(ctx)

	sampleURI := uri.File("/home/user/project/sample.py")
	assert.NoError(t, g.AnalyzeFile(ctx, &AnalyzeFileParams{URI: sampleURI}))

	query := &MemberQueryParams{URI: sampleURI, Version: 3, Position: protocol.Position{Line: 1, Character: 3}}
	tests := []struct {
		method string
		call   func(context.Context, *MemberQueryParams) (*MembersResult, error)
	}{
		{MethodGetMembers, g.GetMembers},
		{MethodGetAllAvailableMembers, g.GetAllAvailableMembers},
		{MethodFindNameInAllModules, g.FindNameInAllModules},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			result, err := tt.call(ctx, query)
			require.NoError(t, err)
			assert.Equal(t, 3, result.Version)
			require.Len(t, result.Members, 1)
			assert.Equal(t, tt.method, result.Members[0].Name)
			assert.Equal(t, protocol.CompletionItemKindMethod, result.Members[0].Kind)
		})
	}

	t.Run("file updates", func(t *testing.T) {
		params := &FileUpdateParams{
			URI: sampleURI,
			Updates: []versionchain.FileUpdate{
				{Kind: versionchain.UpdateReset, Version: 1, Content: "import os\n"},
			},
		}
		require.NoError(t, g.SendFileUpdates(ctx, params))
		select {
		case got := <-engine.updates:
			assert.Equal(t, *params, got)
		case <-time.After(_timeout):
			t.Fatal("file update not received")
		}
	})
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)
	h := newFakeHandler()
	require.NoError(t, g.RegisterHandler(h))
	engine, clientSide := startFakeEngine(ctx, t)

	id, err := g.Connect(ctx, clientSide)
	require.NoError(t, err)
	require.Len(t, h.connected, 1)
	assert.Equal(t, id, <-h.connected)

	t.Run("analysis completed", func(t *testing.T) {
		params := AnalysisCompletedParams{
			URI:     uri.File("/home/user/project/sample.py"),
			Version: 4,
			Results: json.RawMessage(`{"diagnostics":[]}`),
		}
		require.NoError(t, engine.conn.Notify(ctx, NotificationAnalysisCompleted, params))
		select {
		case got := <-h.completed:
			assert.Equal(t, id, got.engine)
			assert.Equal(t, 4, got.params.Version)
			assert.JSONEq(t, `{"diagnostics":[]}`, string(got.params.Results))
		case <-time.After(_timeout):
			t.Fatal("notification not received")
		}
	})

	t.Run("abnormal exit", func(t *testing.T) {
		params := AbnormalExitParams{Stderr: "Traceback (most recent call last)", ExitCode: 1}
		require.NoError(t, engine.conn.Notify(ctx, NotificationAbnormalExit, params))
		select {
		case got := <-h.exits:
			assert.Equal(t, id, got.engine)
			assert.Equal(t, params, *got.params)
		case <-time.After(_timeout):
			t.Fatal("notification not received")
		}
	})

	t.Run("lost connection", func(t *testing.T) {
		require.NoError(t, engine.conn.Close())
		select {
		case got := <-h.exits:
			assert.Equal(t, id, got.engine)
			assert.Equal(t, _exitCodeDisconnected, got.params.ExitCode)
		case <-time.After(_timeout):
			t.Fatal("lost connection not reported")
		}
		assert.Eventually(t, func() bool { return g.EngineID() == uuid.Nil }, _timeout, 10*time.Millisecond)
		assert.NoError(t, g.Disconnect(ctx))
	})
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)
	h := newFakeHandler()
	require.NoError(t, g.RegisterHandler(h))
	_, clientSide := startFakeEngine(ctx, t)

	_, err := g.Connect(ctx, clientSide)
	require.NoError(t, err)
	require.NoError(t, g.Disconnect(ctx))

	assert.Equal(t, uuid.Nil, g.EngineID())
	assert.Len(t, h.exits, 0)
	assert.ErrorIs(t, g.AnalyzeFile(ctx, &AnalyzeFileParams{}), syncerrors.NoAnalyzerConnectionError)
}

func TestReconnect(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)
	h := newFakeHandler()
	require.NoError(t, g.RegisterHandler(h))

	_, first := startFakeEngine(ctx, t)
	firstID, err := g.Connect(ctx, first)
	require.NoError(t, err)

	_, second := startFakeEngine(ctx, t)
	secondID, err := g.Connect(ctx, second)
	require.NoError(t, err)
	defer g.Disconnect(ctx)

	assert.NotEqual(t, firstID, secondID)
	assert.Equal(t, secondID, g.EngineID())
	assert.Len(t, h.exits, 0)
	require.Len(t, h.connected, 2)
	assert.Equal(t, firstID, <-h.connected)
	assert.Equal(t, secondID, <-h.connected)
	assert.NoError(t, g.AnalyzeFile(ctx, &AnalyzeFileParams{}))
}
