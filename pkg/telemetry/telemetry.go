// Package telemetry provides the fire-and-forget event sink the runtime
// reports to, plus Prometheus metrics and OpenTelemetry tracing backends.
// Sinks must never block or fail request processing: every recording method
// is best-effort.
package telemetry

import (
	"context"
	"sync"
	"time"
)

// Event kinds emitted by the runtime.
const (
	EventRequest      = "request"
	EventNotification = "notification"
	EventRoundTrip    = "round_trip"
	EventSessionOpen  = "session_open"
	EventSessionClose = "session_close"
	EventServerStart  = "server_start"
)

// Sink accepts telemetry events. Implementations must be safe for concurrent
// use and must not block the caller.
type Sink interface {
	// Emit records an event of the given kind with free-form attributes.
	Emit(ctx context.Context, kind string, attrs map[string]interface{})

	// RecordRequest records a completed protocol request dispatch.
	RecordRequest(ctx context.Context, method, status string, duration time.Duration)
}

// NoopSink discards all events.
type NoopSink struct{}

// NewNoopSink creates a sink that discards everything.
func NewNoopSink() *NoopSink { return &NoopSink{} }

// Emit discards the event.
func (*NoopSink) Emit(context.Context, string, map[string]interface{}) {}

// RecordRequest discards the measurement.
func (*NoopSink) RecordRequest(context.Context, string, string, time.Duration) {}

// MemorySink retains events in memory. Intended for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []MemoryEvent
}

// MemoryEvent is one recorded event.
type MemoryEvent struct {
	Kind  string
	Attrs map[string]interface{}
}

// NewMemorySink creates an in-memory sink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

// Emit appends the event.
func (s *MemorySink) Emit(_ context.Context, kind string, attrs map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, MemoryEvent{Kind: kind, Attrs: attrs})
}

// RecordRequest appends a request event.
func (s *MemorySink) RecordRequest(ctx context.Context, method, status string, duration time.Duration) {
	s.Emit(ctx, EventRequest, map[string]interface{}{
		"method":   method,
		"status":   status,
		"duration": duration,
	})
}

// Events returns a snapshot of recorded events.
func (s *MemorySink) Events() []MemoryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MemoryEvent, len(s.events))
	copy(out, s.events)
	return out
}

// EventsOfKind returns recorded events matching the kind.
func (s *MemorySink) EventsOfKind(kind string) []MemoryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []MemoryEvent
	for _, e := range s.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
