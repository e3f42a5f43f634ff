// Package transport defines the contract between the protocol runtime and
// the transports that carry it. A transport owns connection handling and
// JSON-RPC framing; the runtime owns dispatch, session state, and
// subscriptions. Transports receive their collaborators (session host,
// request handlers) explicitly at construction or registration time, never
// through process-wide substitution.
package transport

import (
	"context"
	"encoding/json"
)

// Kind identifies the transport carrying a request.
type Kind string

const (
	KindStdio          Kind = "stdio"
	KindStreamableHTTP Kind = "streamable_http"
	KindInMemory       Kind = "inmemory"
)

// SessionIDHeader is the HTTP header carrying the transport session token,
// per the MCP streamable HTTP transport rules.
const SessionIDHeader = "Mcp-Session-Id"

// RequestHandler handles an incoming request and returns its result.
type RequestHandler func(ctx context.Context, params interface{}) (interface{}, error)

// NotificationHandler handles an incoming notification.
type NotificationHandler func(ctx context.Context, params interface{}) error

// Transport is the server-side transport contract.
type Transport interface {
	// Initialize prepares the transport for use.
	Initialize(ctx context.Context) error

	// Start runs the transport until the context is cancelled or Stop is
	// called. Blocking.
	Start(ctx context.Context) error

	// Stop shuts the transport down, disconnecting all sessions.
	Stop(ctx context.Context) error

	// Kind reports the transport kind, recorded on request contexts.
	Kind() Kind

	// RegisterRequestHandler installs the handler for a request method.
	RegisterRequestHandler(method string, handler RequestHandler)

	// RegisterNotificationHandler installs the handler for a notification
	// method.
	RegisterNotificationHandler(method string, handler NotificationHandler)
}

// Session is one stateful logical connection between a client and the
// server. Sessions are created and owned by the transport; the runtime only
// identifies, registers, and talks through them.
type Session interface {
	// ID returns the stable session identity.
	ID() string

	// SendNotification sends a notification to this session's client.
	// Per-session send ordering matches call ordering.
	SendNotification(ctx context.Context, method string, params interface{}) error

	// SendRequest performs a server-to-client round-trip and returns the raw
	// result. It fails (rather than hangs) when the session disconnects or
	// the context is done.
	SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
}

// SessionHost is the runtime-side registry a transport reports session
// lifecycle to. The server package implements it.
type SessionHost interface {
	// RegisterSession records a newly connected session.
	RegisterSession(s Session)

	// UnregisterSession removes a disconnected session and releases any
	// state keyed on it.
	UnregisterSession(s Session)
}

type sessionContextKey struct{}

// ContextWithSession attaches the originating session to a request context.
// Transports call this before invoking a handler.
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFromContext resolves the current session from ambient request
// context. Returns false when no session is attached (e.g. a transport
// without session correlation).
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(Session)
	return s, ok
}
