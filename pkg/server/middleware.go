package server

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/mcp-use/mcp-go/pkg/logging"
	"github.com/mcp-use/mcp-go/pkg/telemetry"
	"github.com/mcp-use/mcp-go/pkg/transport"
)

// RequestContext carries the request envelope a middleware can observe:
// the raw params, the protocol method, when the server accepted it, which
// transport kind delivered it, and the session it arrived on.
type RequestContext struct {
	// Message is the decoded request params, untouched by the pipeline
	// unless a middleware chooses to replace it.
	Message interface{}

	// Method is the protocol method name, e.g. "tools/call".
	Method string

	// Timestamp is when the server accepted the request.
	Timestamp time.Time

	// Transport is the kind of transport the request arrived on.
	Transport transport.Kind

	// SessionID identifies the originating session, empty when the
	// transport carries no session identity.
	SessionID string
}

// Handler is the continuation a middleware invokes to pass the request
// further down the pipeline.
type Handler func(ctx context.Context, rc *RequestContext) (interface{}, error)

// Middleware observes or intercepts a request on its way to the protocol
// handler. Calling next continues the pipeline; returning without calling
// it short-circuits, and the middleware's result becomes the response.
type Middleware interface {
	HandleRequest(ctx context.Context, rc *RequestContext, next Handler) (interface{}, error)
}

// MiddlewareFunc adapts a plain function to the Middleware interface.
type MiddlewareFunc func(ctx context.Context, rc *RequestContext, next Handler) (interface{}, error)

// HandleRequest implements Middleware.
func (f MiddlewareFunc) HandleRequest(ctx context.Context, rc *RequestContext, next Handler) (interface{}, error) {
	return f(ctx, rc, next)
}

// MiddlewareManager holds the registered middlewares and runs requests
// through them. The first middleware added is the outermost: it sees the
// request first and the response last.
type MiddlewareManager struct {
	mu          sync.RWMutex
	middlewares []Middleware
}

// NewMiddlewareManager creates an empty manager.
func NewMiddlewareManager() *MiddlewareManager {
	return &MiddlewareManager{}
}

// Add appends a middleware to the pipeline.
func (m *MiddlewareManager) Add(mw Middleware) {
	m.mu.Lock()
	m.middlewares = append(m.middlewares, mw)
	m.mu.Unlock()
}

// Len reports the number of registered middlewares.
func (m *MiddlewareManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.middlewares)
}

// Process runs the request through the pipeline and finally through the
// terminal handler. With no middlewares registered the terminal handler is
// invoked directly.
func (m *MiddlewareManager) Process(ctx context.Context, rc *RequestContext, terminal Handler) (interface{}, error) {
	m.mu.RLock()
	chain := make([]Middleware, len(m.middlewares))
	copy(chain, m.middlewares)
	m.mu.RUnlock()

	next := terminal
	for i := len(chain) - 1; i >= 0; i-- {
		mw := chain[i]
		inner := next
		next = func(ctx context.Context, rc *RequestContext) (interface{}, error) {
			return mw.HandleRequest(ctx, rc, inner)
		}
	}
	return next(ctx, rc)
}

// telemetryMiddleware is the built-in instrumentation middleware. It records
// request outcome and duration and always forwards to next, so it can never
// break the pipeline.
type telemetryMiddleware struct {
	sink    telemetry.Sink
	tracing *telemetry.TracingProvider
	logger  logging.Logger
}

func newTelemetryMiddleware(sink telemetry.Sink, tracing *telemetry.TracingProvider, logger logging.Logger) *telemetryMiddleware {
	if sink == nil {
		sink = telemetry.NewNoopSink()
	}
	return &telemetryMiddleware{sink: sink, tracing: tracing, logger: logger}
}

func (t *telemetryMiddleware) HandleRequest(ctx context.Context, rc *RequestContext, next Handler) (interface{}, error) {
	if t.tracing != nil {
		var span trace.Span
		ctx, span = t.tracing.StartMethodSpan(ctx, rc.Method)
		defer span.End()
	}

	start := time.Now()
	result, err := next(ctx, rc)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		if t.tracing != nil {
			t.tracing.RecordError(ctx, err)
		}
	}
	t.sink.RecordRequest(ctx, rc.Method, status, duration)

	if t.logger != nil {
		fields := []logging.Field{
			logging.String("method", rc.Method),
			logging.String("status", status),
			logging.Duration("duration", duration),
		}
		if rc.SessionID != "" {
			fields = append(fields, logging.String("session_id", rc.SessionID))
		}
		if err != nil {
			t.logger.Warn("request failed", append(fields, logging.ErrorField(err))...)
		} else {
			t.logger.Debug("request handled", fields...)
		}
	}
	return result, err
}
