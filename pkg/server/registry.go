package server

import (
	"context"
	"sync"

	mcperrors "github.com/mcp-use/mcp-go/pkg/errors"
	"github.com/mcp-use/mcp-go/pkg/logging"
	"github.com/mcp-use/mcp-go/pkg/telemetry"
	"github.com/mcp-use/mcp-go/pkg/transport"
)

// SessionRegistry tracks the currently connected sessions by identity. It is
// the transport.SessionHost a transport reports connects and disconnects to.
type SessionRegistry struct {
	mu           sync.RWMutex
	sessions     map[string]transport.Session
	onUnregister []func(sessionID string)

	logger logging.Logger
	sink   telemetry.Sink
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(logger logging.Logger, sink telemetry.Sink) *SessionRegistry {
	if sink == nil {
		sink = telemetry.NewNoopSink()
	}
	return &SessionRegistry{
		sessions: make(map[string]transport.Session),
		logger:   logger,
		sink:     sink,
	}
}

// RegisterSession makes the session addressable by ID. Re-registering the
// same ID replaces the previous entry.
func (r *SessionRegistry) RegisterSession(s transport.Session) {
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Debug("session registered", logging.String("session_id", s.ID()))
	}
	r.sink.Emit(context.Background(), telemetry.EventSessionOpen, map[string]interface{}{
		"session_id": s.ID(),
	})
}

// OnUnregister adds a callback run after a known session is removed, whether
// the transport reported a disconnect or the server evicted it. Callbacks
// must be added before the registry is handed to a transport.
func (r *SessionRegistry) OnUnregister(fn func(sessionID string)) {
	r.mu.Lock()
	r.onUnregister = append(r.onUnregister, fn)
	r.mu.Unlock()
}

// UnregisterSession removes the session. Unknown sessions are ignored.
func (r *SessionRegistry) UnregisterSession(s transport.Session) {
	r.mu.Lock()
	_, known := r.sessions[s.ID()]
	delete(r.sessions, s.ID())
	hooks := r.onUnregister
	r.mu.Unlock()

	if !known {
		return
	}
	for _, hook := range hooks {
		hook(s.ID())
	}
	if r.logger != nil {
		r.logger.Debug("session unregistered", logging.String("session_id", s.ID()))
	}
	r.sink.Emit(context.Background(), telemetry.EventSessionClose, map[string]interface{}{
		"session_id": s.ID(),
	})
}

// Get returns the session with the given ID.
func (r *SessionRegistry) Get(sessionID string) (transport.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, mcperrors.SessionNotFound(sessionID)
	}
	return s, nil
}

// Len reports the number of connected sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sessions returns a snapshot of the connected sessions.
func (r *SessionRegistry) Sessions() []transport.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]transport.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
