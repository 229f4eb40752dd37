package ideclient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const _errSendToClient = "sending call/notification to IDE: %w"

//go:generate mockgen -source=ide_client.go -destination=ideclientmock/ide_client_mock.go -package=ideclientmock

type keyType string

// _sessionContextKey identifies the session UUID in a context.
const _sessionContextKey keyType = "SessionUUID"

// WithSession returns a context routing outbound notifications to the session id.
func WithSession(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, _sessionContextKey, id)
}

// SessionFromContext returns the session UUID stored by WithSession.
func SessionFromContext(ctx context.Context) (uuid.UUID, error) {
	v := ctx.Value(_sessionContextKey)
	if v == nil {
		return uuid.Nil, errors.New("no session uuid in context")
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid session uuid %v in context", v)
	}
	return id, nil
}

// Gateway is used to send outbound notifications to connected IDE sessions.
// Notifications go to the session in the context when there is one, and to every session otherwise, since analysis
// results belong to documents rather than to the session that opened them.
type Gateway interface {
	// RegisterClient registers a new client with the gateway. Should be called each time a new IDE connection is initialized.
	RegisterClient(ctx context.Context, id uuid.UUID, conn jsonrpc2.Conn) error
	// DeregisterClient removes a client from the gateway. Should be called each time an IDE connection is closed.
	DeregisterClient(ctx context.Context, id uuid.UUID) error
	// Sessions returns the registered sessions.
	Sessions() []uuid.UUID

	PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error
	ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) error
}

type gateway struct {
	clients   map[uuid.UUID]protocol.Client
	clientsMu sync.Mutex
	logger    *zap.Logger
}

// New returns a Gateway for sending IDE notifications.
func New(logger *zap.Logger) Gateway {
	return &gateway{
		clients: make(map[uuid.UUID]protocol.Client),
		logger:  logger,
	}
}

func (g *gateway) RegisterClient(ctx context.Context, id uuid.UUID, conn jsonrpc2.Conn) error {
	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	if _, ok := g.clients[id]; ok {
		return fmt.Errorf("client with id %q already registered", id)
	}
	g.clients[id] = protocol.ClientDispatcher(conn, g.logger)
	return nil
}

func (g *gateway) DeregisterClient(ctx context.Context, id uuid.UUID) error {
	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	delete(g.clients, id)
	return nil
}

func (g *gateway) Sessions() []uuid.UUID {
	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	result := make([]uuid.UUID, 0, len(g.clients))
	for id := range g.clients {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].String() < result[j].String() })
	return result
}

func (g *gateway) PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error {
	return g.send(ctx, func(c protocol.Client) error {
		return c.PublishDiagnostics(ctx, params)
	})
}

func (g *gateway) ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) error {
	return g.send(ctx, func(c protocol.Client) error {
		return c.ShowMessage(ctx, params)
	})
}

// send calls notify for the session in ctx, or for every session when ctx carries none.
func (g *gateway) send(ctx context.Context, notify func(c protocol.Client) error) error {
	clients, err := g.getClients(ctx)
	if err != nil {
		return fmt.Errorf(_errSendToClient, err)
	}

	var errs error
	for _, c := range clients {
		if err := notify(c); err != nil {
			errs = multierr.Append(errs, fmt.Errorf(_errSendToClient, err))
		}
	}
	return errs
}

func (g *gateway) getClients(ctx context.Context) ([]protocol.Client, error) {
	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	id, err := SessionFromContext(ctx)
	if err != nil {
		result := make([]protocol.Client, 0, len(g.clients))
		for _, c := range g.clients {
			result = append(result, c)
		}
		return result, nil
	}

	client, ok := g.clients[id]
	if !ok {
		return nil, fmt.Errorf("client with id %q not found", id)
	}
	return []protocol.Client{client}, nil
}
