package syncdaemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"github.com/uber/analysis-sync/idl/mock/fxmock"
	"github.com/uber/analysis-sync/idl/mock/jsonrpc2mock"
	"github.com/uber/analysis-sync/src/anasync/controller/analysis"
	"github.com/uber/analysis-sync/src/anasync/controller/analysis/analysismock"
	"github.com/uber/analysis-sync/src/anasync/controller/completion/completionmock"
	docsync "github.com/uber/analysis-sync/src/anasync/controller/doc-sync"
	"github.com/uber/analysis-sync/src/anasync/controller/doc-sync/docsyncmock"
	"github.com/uber/analysis-sync/src/anasync/factory"
	analyzerclient "github.com/uber/analysis-sync/src/anasync/gateway/analyzer-client"
	"github.com/uber/analysis-sync/src/anasync/gateway/analyzer-client/analyzerclientmock"
	ideclient "github.com/uber/analysis-sync/src/anasync/gateway/ide-client"
	"github.com/uber/analysis-sync/src/anasync/gateway/ide-client/ideclientmock"
	syncerrors "github.com/uber/analysis-sync/src/anasync/internal/errors"
	"github.com/uber/analysis-sync/src/anasync/internal/versionchain"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type sampleConfig map[string]interface{}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testController struct {
	*controller
	shutdowner *fxmock.MockShutdowner
	ide        *ideclientmock.MockGateway
	analyzer   *analyzerclientmock.MockGateway
	docs       *docsyncmock.MockController
	analysis   *analysismock.MockController
	completion *completionmock.MockController
	ctrl       *gomock.Controller
	scope      tally.TestScope
}

func newTestController(t *testing.T) *testController {
	ctrl := gomock.NewController(t)
	tc := &testController{
		shutdowner: fxmock.NewMockShutdowner(ctrl),
		ide:        ideclientmock.NewMockGateway(ctrl),
		analyzer:   analyzerclientmock.NewMockGateway(ctrl),
		docs:       docsyncmock.NewMockController(ctrl),
		analysis:   analysismock.NewMockController(ctrl),
		completion: completionmock.NewMockController(ctrl),
		ctrl:       ctrl,
		scope:      tally.NewTestScope("testing", make(map[string]string, 0)),
	}
	cfg, err := config.NewStaticProvider(sampleConfig{_idleTimeoutMinutesKey: 5})
	require.NoError(t, err)

	c, err := New(Params{
		Shutdowner: tc.shutdowner,
		IdeGateway: tc.ide,
		Analyzer:   tc.analyzer,
		Documents:  tc.docs,
		Analysis:   tc.analysis,
		Completion: tc.completion,
		Logger:     zap.NewNop().Sugar(),
		Stats:      tc.scope,
		Config:     cfg,
	})
	require.NoError(t, err)
	tc.controller = c.(*controller)
	t.Cleanup(tc.stopIdleTimer)
	return tc
}

func (tc *testController) stopIdleTimer() {
	tc.idleTimerMu.Lock()
	defer tc.idleTimerMu.Unlock()
	if tc.idleTimer != nil {
		tc.idleTimer.Stop()
	}
}

// session starts a session and returns a context carrying it.
func (tc *testController) session(t *testing.T) context.Context {
	tc.ide.EXPECT().RegisterClient(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	id, err := tc.InitSession(context.Background(), jsonrpc2mock.NewMockConn(tc.ctrl))
	require.NoError(t, err)
	return ideclient.WithSession(context.Background(), id)
}

// open opens u in the session of ctx, expecting the document to be tracked for the first opener only.
func (tc *testController) open(t *testing.T, ctx context.Context, u uri.URI, first bool) {
	params := &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: u, Version: 1, Text: "import os\n"},
	}
	if first {
		tc.docs.EXPECT().DidOpen(ctx, params).Return(nil)
		tc.docs.EXPECT().Chain(u).Return(versionchain.New("import os\n", 1), nil)
		tc.analysis.EXPECT().Track(ctx, u).Return(nil, nil)
	}
	require.NoError(t, tc.DidOpen(ctx, params))
	assert.Equal(t, first, tc.openCount[u] == 1)
}

func closeParams(u uri.URI) *protocol.DidCloseTextDocumentParams {
	return &protocol.DidCloseTextDocumentParams{TextDocument: protocol.TextDocumentIdentifier{URI: u}}
}

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)

	tests := []struct {
		name    string
		config  sampleConfig
		wantErr bool
	}{
		{name: "config includes timeout", config: sampleConfig{_idleTimeoutMinutesKey: 5}},
		{name: "missing timeout", config: sampleConfig{}, wantErr: true},
		{name: "zero timeout", config: sampleConfig{_idleTimeoutMinutesKey: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.NewStaticProvider(tt.config)
			require.NoError(t, err)
			c, err := New(Params{
				Shutdowner: fxmock.NewMockShutdowner(ctrl),
				Logger:     zap.NewNop().Sugar(),
				Stats:      tally.NoopScope,
				Config:     cfg,
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			impl := c.(*controller)
			assert.Equal(t, 5*time.Minute, impl.idleTimeout)
			impl.idleTimer.Stop()
		})
	}
}

func TestInitSession(t *testing.T) {
	tc := newTestController(t)
	ctx := tc.session(t)

	id, err := ideclient.SessionFromContext(ctx)
	require.NoError(t, err)
	assert.Contains(t, tc.sessions, id)
	assert.Nil(t, tc.idleTimer, "idle timer stops while a session is connected")
	assert.Equal(t, float64(1), tc.scope.Snapshot().Gauges()["testing.sessions.active+"].Value())

	t.Run("register failure", func(t *testing.T) {
		tc.ide.EXPECT().RegisterClient(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("duplicate"))
		_, err := tc.InitSession(context.Background(), jsonrpc2mock.NewMockConn(tc.ctrl))
		assert.Error(t, err)
		assert.Len(t, tc.sessions, 1)
	})
}

func TestEndSession(t *testing.T) {
	tc := newTestController(t)
	first := tc.session(t)
	second := tc.session(t)
	shared := factory.DocumentURI(1)
	own := factory.DocumentURI(2)

	tc.open(t, first, shared, true)
	tc.open(t, second, shared, false)
	tc.open(t, first, own, true)

	firstID, err := ideclient.SessionFromContext(first)
	require.NoError(t, err)

	// Only the document no other session has open is released.
	tc.analysis.EXPECT().Untrack(own)
	tc.docs.EXPECT().DidClose(gomock.Any(), closeParams(own)).Return(nil)
	tc.ide.EXPECT().DeregisterClient(gomock.Any(), firstID).Return(nil)
	require.NoError(t, tc.EndSession(first, firstID))

	assert.NotContains(t, tc.sessions, firstID)
	assert.Equal(t, 1, tc.openCount[shared])
	assert.NotContains(t, tc.openCount, own)
	assert.Nil(t, tc.idleTimer)

	t.Run("last session", func(t *testing.T) {
		secondID, err := ideclient.SessionFromContext(second)
		require.NoError(t, err)
		tc.analysis.EXPECT().Untrack(shared)
		tc.docs.EXPECT().DidClose(gomock.Any(), closeParams(shared)).Return(errors.New("not open"))
		tc.ide.EXPECT().DeregisterClient(gomock.Any(), secondID).Return(errors.New("not found"))

		assert.Error(t, tc.EndSession(second, secondID))
		assert.Empty(t, tc.sessions)
		assert.NotNil(t, tc.idleTimer, "idle timer starts once no session is connected")
	})
}

func TestInitialize(t *testing.T) {
	tc := newTestController(t)
	ctx := tc.session(t)

	result, err := tc.Initialize(ctx, &protocol.InitializeParams{})
	require.NoError(t, err)
	assert.Equal(t, _serverName, result.ServerInfo.Name)
	sync, ok := result.Capabilities.TextDocumentSync.(protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindIncremental, sync.Change)
	assert.True(t, sync.Save.IncludeText)
	assert.Equal(t, []string{"."}, result.Capabilities.CompletionProvider.TriggerCharacters)

	s, err := tc.sessionFromContext(ctx)
	require.NoError(t, err)
	assert.True(t, s.initialized)

	t.Run("unknown session", func(t *testing.T) {
		_, err := tc.Initialize(ideclient.WithSession(context.Background(), factory.UUID()), &protocol.InitializeParams{})
		assert.Error(t, err)
	})

	t.Run("no session", func(t *testing.T) {
		_, err := tc.Initialize(context.Background(), &protocol.InitializeParams{})
		assert.Error(t, err)
	})
}

func TestInitialized(t *testing.T) {
	tests := []struct {
		name     string
		engine   uuid.UUID
		wantType protocol.MessageType
		showErr  error
	}{
		{name: "engine connected", engine: factory.UUID(), wantType: protocol.MessageTypeInfo},
		{name: "engine not connected", engine: uuid.Nil, wantType: protocol.MessageTypeWarning},
		{name: "message failure", engine: factory.UUID(), wantType: protocol.MessageTypeInfo, showErr: errors.New("closed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController(t)
			ctx := tc.session(t)
			tc.analyzer.EXPECT().EngineID().Return(tt.engine)
			tc.ide.EXPECT().ShowMessage(ctx, gomock.Any()).DoAndReturn(
				func(_ context.Context, params *protocol.ShowMessageParams) error {
					assert.Equal(t, tt.wantType, params.Type)
					return tt.showErr
				})
			assert.NoError(t, tc.Initialized(ctx, &protocol.InitializedParams{}))
		})
	}
}

func TestShutdownAndExit(t *testing.T) {
	tc := newTestController(t)
	ctx := tc.session(t)
	id, err := ideclient.SessionFromContext(ctx)
	require.NoError(t, err)

	require.NoError(t, tc.Shutdown(ctx))
	assert.True(t, tc.sessions[id].shutdown)

	tc.ide.EXPECT().DeregisterClient(gomock.Any(), id).Return(nil)
	require.NoError(t, tc.Exit(ctx))
	assert.Empty(t, tc.sessions)

	t.Run("exit without session", func(t *testing.T) {
		assert.Error(t, tc.Exit(context.Background()))
	})

	t.Run("shutdown without session", func(t *testing.T) {
		assert.Error(t, tc.Shutdown(ctx))
	})
}

func TestIdleShutdown(t *testing.T) {
	tc := newTestController(t)
	done := make(chan struct{})
	tc.shutdowner.EXPECT().Shutdown().DoAndReturn(func(...interface{}) error {
		close(done)
		return nil
	})

	tc.idleTimeout = time.Millisecond
	tc.refreshIdleTimer()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("idle shutdown was not requested")
	}
}

func TestDidOpen(t *testing.T) {
	u := factory.DocumentURI(1)
	params := &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: u, Version: 1, Text: "import os\n"},
	}

	t.Run("tracks document", func(t *testing.T) {
		tc := newTestController(t)
		ctx := tc.session(t)
		tc.open(t, ctx, u, true)

		s, err := tc.sessionFromContext(ctx)
		require.NoError(t, err)
		assert.Contains(t, s.documents, u)
	})

	t.Run("document over size limit", func(t *testing.T) {
		tc := newTestController(t)
		ctx := tc.session(t)
		tc.docs.EXPECT().DidOpen(ctx, params).Return(nil)
		tc.docs.EXPECT().Chain(u).Return(nil, &syncerrors.DocumentNotFoundError{Document: u})
		assert.NoError(t, tc.DidOpen(ctx, params))
		assert.Equal(t, 1, tc.openCount[u])
	})

	t.Run("open failure", func(t *testing.T) {
		tc := newTestController(t)
		ctx := tc.session(t)
		tc.docs.EXPECT().DidOpen(ctx, params).Return(errors.New("invalid"))
		assert.Error(t, tc.DidOpen(ctx, params))
		assert.NotContains(t, tc.openCount, u)
	})

	t.Run("track failure", func(t *testing.T) {
		tc := newTestController(t)
		ctx := tc.session(t)
		tc.docs.EXPECT().DidOpen(ctx, params).Return(nil)
		tc.docs.EXPECT().Chain(u).Return(versionchain.New("import os\n", 1), nil)
		tc.analysis.EXPECT().Track(ctx, u).Return(nil, errors.New("engine failure"))
		assert.Error(t, tc.DidOpen(ctx, params))
	})

	t.Run("no session", func(t *testing.T) {
		tc := newTestController(t)
		assert.Error(t, tc.DidOpen(context.Background(), params))
	})
}

func TestDidOpenSharedDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := factory.UUID()
	analyzer := analyzerclientmock.NewMockGateway(ctrl)
	analyzer.EXPECT().RegisterHandler(gomock.Any()).Return(nil)
	analyzer.EXPECT().EngineID().Return(engine).AnyTimes()
	analyzer.EXPECT().AnalyzeFile(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	analyzer.EXPECT().SendFileUpdates(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	cfg, err := config.NewStaticProvider(sampleConfig{
		_idleTimeoutMinutesKey: 5,
		"docsync":              sampleConfig{"maxFileSizeBytes": 1024},
	})
	require.NoError(t, err)
	logger := zap.NewNop().Sugar()

	documents, err := docsync.New(docsync.Params{Analyzer: analyzer, Logger: logger, Stats: tally.NoopScope, Config: cfg})
	require.NoError(t, err)
	tracker, err := analysis.New(analysis.Params{
		Analyzer:  analyzer,
		Documents: documents,
		Logger:    logger,
		Stats:     tally.NoopScope,
		Config:    cfg,
	})
	require.NoError(t, err)

	ide := ideclientmock.NewMockGateway(ctrl)
	ide.EXPECT().RegisterClient(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	c, err := New(Params{
		Shutdowner: fxmock.NewMockShutdowner(ctrl),
		IdeGateway: ide,
		Analyzer:   analyzer,
		Documents:  documents,
		Analysis:   tracker,
		Completion: completionmock.NewMockController(ctrl),
		Logger:     logger,
		Stats:      tally.NoopScope,
		Config:     cfg,
	})
	require.NoError(t, err)
	tc := &testController{controller: c.(*controller), ide: ide, ctrl: ctrl}
	t.Cleanup(tc.stopIdleTimer)

	u := factory.DocumentURI(1)
	params := &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: u, Version: 1, Text: "import os\n"},
	}
	first := tc.session(t)
	second := tc.session(t)

	require.NoError(t, tc.DidOpen(first, params))
	chain, err := documents.Chain(u)
	require.NoError(t, err)
	require.NoError(t, tracker.OnAnalysisCompleted(context.Background(), engine,
		&analyzerclient.AnalysisCompletedParams{URI: u, Version: 1}))

	// The second open joins the live buffer instead of replacing it.
	require.NoError(t, tc.DidOpen(second, params))
	shared, err := documents.Chain(u)
	require.NoError(t, err)
	assert.Same(t, chain, shared)
	assert.Equal(t, 2, tc.openCount[u])

	s, err := documents.Capture(u)
	require.NoError(t, err)
	tr, err := tracker.Resolve(s, u)
	require.NoError(t, err)
	require.NotNil(t, tr)
	tr.Close()
}

func TestDidChange(t *testing.T) {
	u := factory.DocumentURI(1)
	params := &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: u},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "import sys\n"}},
	}

	t.Run("reanalyzes", func(t *testing.T) {
		tc := newTestController(t)
		ctx := context.Background()
		gomock.InOrder(
			tc.docs.EXPECT().DidChange(ctx, params).Return(nil),
			tc.analysis.EXPECT().Reanalyze(ctx, u).Return(nil),
		)
		assert.NoError(t, tc.DidChange(ctx, params))
	})

	t.Run("untracked document", func(t *testing.T) {
		tc := newTestController(t)
		tc.docs.EXPECT().DidChange(gomock.Any(), params).Return(&syncerrors.DocumentNotFoundError{Document: u})
		assert.NoError(t, tc.DidChange(context.Background(), params))
	})

	t.Run("change failure", func(t *testing.T) {
		tc := newTestController(t)
		tc.docs.EXPECT().DidChange(gomock.Any(), params).Return(errors.New("mismatched buffer"))
		assert.Error(t, tc.DidChange(context.Background(), params))
	})
}

func TestDidSave(t *testing.T) {
	tc := newTestController(t)
	params := &protocol.DidSaveTextDocumentParams{TextDocument: protocol.TextDocumentIdentifier{URI: factory.DocumentURI(1)}}
	tc.docs.EXPECT().DidSave(gomock.Any(), params).Return(nil)
	assert.NoError(t, tc.DidSave(context.Background(), params))
}

func TestDidClose(t *testing.T) {
	tc := newTestController(t)
	first := tc.session(t)
	second := tc.session(t)
	u := factory.DocumentURI(1)

	tc.open(t, first, u, true)
	tc.open(t, second, u, false)

	// Still open in the second session.
	require.NoError(t, tc.DidClose(first, closeParams(u)))
	assert.Equal(t, 1, tc.openCount[u])

	// Closing twice is ignored.
	require.NoError(t, tc.DidClose(first, closeParams(u)))
	assert.Equal(t, 1, tc.openCount[u])

	tc.analysis.EXPECT().Untrack(u)
	tc.docs.EXPECT().DidClose(second, closeParams(u)).Return(nil)
	require.NoError(t, tc.DidClose(second, closeParams(u)))
	assert.NotContains(t, tc.openCount, u)

	t.Run("no session", func(t *testing.T) {
		assert.Error(t, tc.DidClose(context.Background(), closeParams(u)))
	})
}

func TestCompletion(t *testing.T) {
	tc := newTestController(t)
	params := &protocol.CompletionParams{}
	want := &protocol.CompletionList{Items: []protocol.CompletionItem{{Label: "path"}}}
	tc.completion.EXPECT().Complete(gomock.Any(), params).Return(want, nil)

	got, err := tc.Completion(context.Background(), params)
	require.NoError(t, err)
	assert.Same(t, want, got)
}
