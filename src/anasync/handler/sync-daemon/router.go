package syncdaemon

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	controller "github.com/uber/analysis-sync/src/anasync/controller/sync-daemon"
	ideclient "github.com/uber/analysis-sync/src/anasync/gateway/ide-client"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

type jsonRPCRouter struct {
	syncdaemon controller.Controller
	uuid       uuid.UUID
	stats      tally.Scope
}

// HandleReq handles routing for a single request.
func (r *jsonRPCRouter) HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	ctx = ideclient.WithSession(ctx, r.uuid)
	if r.stats != nil {
		scope := r.stats.Tagged(map[string]string{"method": req.Method()})
		scope.Counter("requests").Inc(1)
		defer scope.Timer("latency").Start().Stop()
	}

	// Results are passed back to reply to be returned to the client.
	switch req.Method() {
	// Lifecycle related methods.
	case protocol.MethodInitialize:
		return r.Initialize(ctx, reply, req)

	case protocol.MethodInitialized:
		return r.Initialized(ctx, reply, req)

	case protocol.MethodShutdown:
		return r.Shutdown(ctx, reply, req)

	case protocol.MethodExit:
		return r.Exit(ctx, reply, req)

	// Document related methods.
	case protocol.MethodTextDocumentDidOpen:
		return r.DidOpen(ctx, reply, req)

	case protocol.MethodTextDocumentDidChange:
		return r.DidChange(ctx, reply, req)

	case protocol.MethodTextDocumentDidSave:
		return r.DidSave(ctx, reply, req)

	case protocol.MethodTextDocumentDidClose:
		return r.DidClose(ctx, reply, req)

	// Code intel related methods
	case protocol.MethodTextDocumentCompletion:
		return r.Completion(ctx, reply, req)

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func (r *jsonRPCRouter) UUID() uuid.UUID {
	return r.uuid
}
