// Package syncdaemon implements the JSON-RPC inbound of the analysis sync daemon.
package syncdaemon

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	controller "github.com/uber/analysis-sync/src/anasync/controller/sync-daemon"
	ideclient "github.com/uber/analysis-sync/src/anasync/gateway/ide-client"
	"github.com/uber/analysis-sync/src/anasync/internal/jsonrpcfx"
	"go.lsp.dev/jsonrpc2"
)

// Handler accepts editor connections and routes their requests to the controller.
type Handler = jsonrpcfx.ConnectionManager

// New constructs a new sync-daemon Handler and registers it with the JSON-RPC inbound.
func New(ctrl controller.Controller, jsonrpcmod jsonrpcfx.JSONRPCModule, stats tally.Scope) (Handler, error) {
	c := &jsonRPCConnectionManager{
		ctrl:  ctrl,
		stats: stats.SubScope("json_rpc"),
	}
	if err := jsonrpcmod.RegisterConnectionManager(c); err != nil {
		return nil, err
	}
	return c, nil
}

type jsonRPCConnectionManager struct {
	ctrl  controller.Controller
	stats tally.Scope
}

// NewConnection will store a new connection and return a router that includes its UUID.
func (c *jsonRPCConnectionManager) NewConnection(ctx context.Context, conn jsonrpc2.Conn) (router jsonrpcfx.Router, err error) {
	id, err := c.ctrl.InitSession(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}

	r := jsonRPCRouter{
		syncdaemon: c.ctrl,
		uuid:       id,
		stats:      c.stats,
	}

	return &r, nil
}

// RemoveConnection cleans up a closed connection.
func (c *jsonRPCConnectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	// Ensure session is removed even if no Exit call has been received.
	ctx = ideclient.WithSession(ctx, id)
	c.ctrl.EndSession(ctx, id)
}
