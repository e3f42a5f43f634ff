package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	mcperrors "github.com/mcp-use/mcp-go/pkg/errors"
)

// InMemoryTransport is a transport that runs entirely in process. It backs
// the test suites and the examples; real deployments use a framing transport
// in front of the same handler registration surface.
type InMemoryTransport struct {
	mu                   sync.RWMutex
	host                 SessionHost
	requestHandlers      map[string]RequestHandler
	notificationHandlers map[string]NotificationHandler
	sessions             map[string]*InMemorySession

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewInMemoryTransport creates an in-memory transport reporting session
// lifecycle to the given host.
func NewInMemoryTransport(host SessionHost) *InMemoryTransport {
	return &InMemoryTransport{
		host:                 host,
		requestHandlers:      make(map[string]RequestHandler),
		notificationHandlers: make(map[string]NotificationHandler),
		sessions:             make(map[string]*InMemorySession),
		stopped:              make(chan struct{}),
	}
}

// Initialize prepares the transport for use.
func (t *InMemoryTransport) Initialize(ctx context.Context) error {
	return nil
}

// Start blocks until the context is cancelled or Stop is called.
func (t *InMemoryTransport) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.stopped:
		return nil
	}
}

// Stop disconnects all sessions and releases the transport.
func (t *InMemoryTransport) Stop(ctx context.Context) error {
	t.mu.Lock()
	sessions := make([]*InMemorySession, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.mu.Unlock()

	for _, s := range sessions {
		s.Disconnect()
	}

	t.stopOnce.Do(func() { close(t.stopped) })
	return nil
}

// Kind reports the transport kind.
func (t *InMemoryTransport) Kind() Kind {
	return KindInMemory
}

// RegisterRequestHandler installs the handler for a request method.
func (t *InMemoryTransport) RegisterRequestHandler(method string, handler RequestHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requestHandlers[method] = handler
}

// RegisterNotificationHandler installs the handler for a notification method.
func (t *InMemoryTransport) RegisterNotificationHandler(method string, handler NotificationHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notificationHandlers[method] = handler
}

// Connect creates a new session and registers it with the session host.
func (t *InMemoryTransport) Connect() *InMemorySession {
	s := &InMemorySession{
		id:        uuid.NewString(),
		transport: t,
		done:      make(chan struct{}),
	}

	t.mu.Lock()
	t.sessions[s.id] = s
	t.mu.Unlock()

	if t.host != nil {
		t.host.RegisterSession(s)
	}
	return s
}

// Deliver invokes the registered request handler for method on behalf of the
// session, the way a framing transport would after decoding a request.
func (t *InMemoryTransport) Deliver(ctx context.Context, s *InMemorySession, method string, params interface{}) (interface{}, error) {
	t.mu.RLock()
	handler, ok := t.requestHandlers[method]
	t.mu.RUnlock()
	if !ok {
		return nil, mcperrors.MethodNotFound(method)
	}

	if s != nil {
		ctx = ContextWithSession(ctx, s)
	}
	return handler(ctx, params)
}

// DeliverNotification invokes the registered notification handler for method.
func (t *InMemoryTransport) DeliverNotification(ctx context.Context, s *InMemorySession, method string, params interface{}) error {
	t.mu.RLock()
	handler, ok := t.notificationHandlers[method]
	t.mu.RUnlock()
	if !ok {
		return mcperrors.MethodNotFound(method)
	}

	if s != nil {
		ctx = ContextWithSession(ctx, s)
	}
	return handler(ctx, params)
}

func (t *InMemoryTransport) dropSession(s *InMemorySession) {
	t.mu.Lock()
	delete(t.sessions, s.id)
	t.mu.Unlock()

	if t.host != nil {
		t.host.UnregisterSession(s)
	}
}

// SessionNotification is one notification captured by an in-memory session.
type SessionNotification struct {
	Method string
	Params json.RawMessage
}

// Responder scripts the client side of a server-initiated round-trip.
type Responder func(method string, params interface{}) (interface{}, error)

// InMemorySession is the in-process Session implementation. The "client
// side" of the session is scripted via Respond and observed via
// Notifications.
type InMemorySession struct {
	id        string
	transport *InMemoryTransport

	mu            sync.Mutex
	notifications []SessionNotification
	responder     Responder

	closeOnce sync.Once
	done      chan struct{}
}

// ID returns the stable session identity.
func (s *InMemorySession) ID() string { return s.id }

// SendNotification records an outbound notification, preserving send order.
func (s *InMemorySession) SendNotification(ctx context.Context, method string, params interface{}) error {
	select {
	case <-s.done:
		return mcperrors.SessionDisconnected(s.id)
	default:
	}

	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal notification params: %w", err)
		}
		raw = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, SessionNotification{Method: method, Params: raw})
	return nil
}

// SendRequest performs a scripted client round-trip. With no responder
// installed it blocks until the session disconnects or the context is done,
// mirroring an unresponsive client.
func (s *InMemorySession) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	select {
	case <-s.done:
		return nil, mcperrors.SessionDisconnected(s.id)
	default:
	}

	s.mu.Lock()
	responder := s.responder
	s.mu.Unlock()

	if responder == nil {
		select {
		case <-s.done:
			return nil, mcperrors.SessionDisconnected(s.id)
		case <-ctx.Done():
			return nil, mcperrors.RoundTripTimeout(method, s.id)
		}
	}

	result, err := responder(method, params)
	if err != nil {
		return nil, mcperrors.RoundTripFailed(method, s.id, err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal round-trip result: %w", err)
	}
	return data, nil
}

// Respond installs the scripted client responder for round-trips.
func (s *InMemorySession) Respond(r Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responder = r
}

// Notifications returns a snapshot of captured notifications in send order.
func (s *InMemorySession) Notifications() []SessionNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionNotification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// NotificationsFor returns captured notifications matching the method.
func (s *InMemorySession) NotificationsFor(method string) []SessionNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []SessionNotification
	for _, n := range s.notifications {
		if n.Method == method {
			out = append(out, n)
		}
	}
	return out
}

// Disconnect closes the session and unregisters it from the host. Safe to
// call more than once.
func (s *InMemorySession) Disconnect() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.transport != nil {
			s.transport.dropSession(s)
		}
	})
}

// Done reports session termination, for callers that need to tie outstanding
// work to the session lifetime.
func (s *InMemorySession) Done() <-chan struct{} {
	return s.done
}
