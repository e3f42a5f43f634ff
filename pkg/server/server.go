package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	mcperrors "github.com/mcp-use/mcp-go/pkg/errors"
	"github.com/mcp-use/mcp-go/pkg/logging"
	"github.com/mcp-use/mcp-go/pkg/protocol"
	"github.com/mcp-use/mcp-go/pkg/telemetry"
	"github.com/mcp-use/mcp-go/pkg/transport"
)

// Server is the MCP protocol runtime: it owns the session registry, the
// resource subscription table, the client log-level gate, and the middleware
// pipeline, and registers the protocol handlers on its transport.
type Server struct {
	transport    transport.Transport
	name         string
	version      string
	instructions string

	registry      *SessionRegistry
	subscriptions *SubscriptionTable
	gate          *LevelGate
	middleware    *MiddlewareManager

	toolsProvider      ToolsProvider
	resourcesProvider  ResourcesProvider
	promptsProvider    PromptsProvider
	completionProvider CompletionProvider

	sink    telemetry.Sink
	tracing *telemetry.TracingProvider

	initialized     bool
	clientInfo      *protocol.Implementation
	initializedLock sync.RWMutex

	activeRequests     map[string]context.CancelFunc
	activeRequestsLock sync.Mutex

	logger     Logger
	structured logging.Logger
}

// Logger is the small printf-style logging interface the server uses for its
// own operational messages.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// DefaultLogger adapts a structured logger to the printf-style interface.
type DefaultLogger struct {
	logger logging.Logger
}

// NewDefaultLogger creates a logger writing text-formatted lines to stderr.
func NewDefaultLogger() *DefaultLogger {
	logger := logging.New(nil, logging.NewTextFormatter()).WithFields(
		logging.String("component", "mcp-server"),
	)
	logger.SetLevel(logging.InfoLevel)
	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	logging.NewLegacyAdapter(l.logger).Debug(msg, args...)
}

func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	logging.NewLegacyAdapter(l.logger).Info(msg, args...)
}

func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	logging.NewLegacyAdapter(l.logger).Warn(msg, args...)
}

func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	logging.NewLegacyAdapter(l.logger).Error(msg, args...)
}

// ServerOption configures a Server at construction.
type ServerOption func(*Server)

// WithName sets the server name reported during initialization.
func WithName(name string) ServerOption {
	return func(s *Server) { s.name = name }
}

// WithVersion sets the server version reported during initialization.
func WithVersion(version string) ServerOption {
	return func(s *Server) { s.version = version }
}

// WithInstructions sets the usage instructions returned to clients.
func WithInstructions(instructions string) ServerOption {
	return func(s *Server) { s.instructions = instructions }
}

// WithToolsProvider sets the tools provider.
func WithToolsProvider(provider ToolsProvider) ServerOption {
	return func(s *Server) { s.toolsProvider = provider }
}

// WithResourcesProvider sets the resources provider.
func WithResourcesProvider(provider ResourcesProvider) ServerOption {
	return func(s *Server) { s.resourcesProvider = provider }
}

// WithPromptsProvider sets the prompts provider.
func WithPromptsProvider(provider PromptsProvider) ServerOption {
	return func(s *Server) { s.promptsProvider = provider }
}

// WithCompletionProvider sets the completion provider.
func WithCompletionProvider(provider CompletionProvider) ServerOption {
	return func(s *Server) { s.completionProvider = provider }
}

// WithSessionRegistry injects a registry built ahead of the server, for
// transports constructed against the same registry.
func WithSessionRegistry(registry *SessionRegistry) ServerOption {
	return func(s *Server) { s.registry = registry }
}

// WithMiddleware appends a middleware to the pipeline. Middlewares run in
// the order they were added, after the built-in telemetry middleware.
func WithMiddleware(mw Middleware) ServerOption {
	return func(s *Server) { s.middleware.Add(mw) }
}

// WithTelemetrySink sets the telemetry sink.
func WithTelemetrySink(sink telemetry.Sink) ServerOption {
	return func(s *Server) { s.sink = sink }
}

// WithTracing sets the tracing provider used by the built-in middleware.
func WithTracing(tp *telemetry.TracingProvider) ServerOption {
	return func(s *Server) { s.tracing = tp }
}

// WithLogger sets the printf-style logger.
func WithLogger(logger Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithStructuredLogger sets a structured logger, also used by the registry
// and the built-in middleware.
func WithStructuredLogger(logger logging.Logger) ServerOption {
	return func(s *Server) {
		s.structured = logger
		s.logger = &DefaultLogger{logger: logger}
	}
}

// middlewareMethods is the fixed set of methods dispatched through the
// middleware pipeline. Lifecycle methods (initialize, ping) bypass it.
var middlewareMethods = []string{
	protocol.MethodToolsCall,
	protocol.MethodToolsList,
	protocol.MethodResourcesRead,
	protocol.MethodResourcesList,
	protocol.MethodPromptsGet,
	protocol.MethodPromptsList,
	protocol.MethodLoggingSetLevel,
	protocol.MethodResourcesSubscribe,
	protocol.MethodResourcesUnsubscribe,
	protocol.MethodCompletionComplete,
}

// New creates a server wired to the transport. All protocol handlers are
// registered here, and the middleware pipeline is bound exactly once to the
// fixed method set.
func New(t transport.Transport, options ...ServerOption) *Server {
	// WithMiddleware additions land here; the final pipeline is assembled
	// below with the built-in telemetry middleware outermost.
	userMiddleware := NewMiddlewareManager()

	server := &Server{
		transport:      t,
		name:           "mcp-go-server",
		version:        "1.0.0",
		subscriptions:  NewSubscriptionTable(),
		gate:           NewLevelGate(),
		middleware:     userMiddleware,
		sink:           telemetry.NewNoopSink(),
		logger:         NewDefaultLogger(),
		activeRequests: make(map[string]context.CancelFunc),
	}

	for _, option := range options {
		option(server)
	}

	if server.registry == nil {
		server.registry = NewSessionRegistry(server.structured, server.sink)
	}
	// A disconnect reported by the transport must also scrub the session's
	// resource subscriptions, or dead entries accumulate under churn.
	server.registry.OnUnregister(server.subscriptions.DropSession)

	pipeline := NewMiddlewareManager()
	pipeline.Add(newTelemetryMiddleware(server.sink, server.tracing, server.structured))
	for _, mw := range userMiddleware.middlewares {
		pipeline.Add(mw)
	}
	server.middleware = pipeline

	t.RegisterRequestHandler(protocol.MethodInitialize, server.handleInitialize)
	t.RegisterRequestHandler(protocol.MethodPing, server.handlePing)
	t.RegisterNotificationHandler(protocol.MethodNotificationInitialized, server.handleInitialized)
	t.RegisterNotificationHandler(protocol.MethodNotificationCancelled, server.handleCancelled)

	terminals := map[string]Handler{
		protocol.MethodToolsCall:            server.handleCallTool,
		protocol.MethodToolsList:            server.handleListTools,
		protocol.MethodResourcesRead:        server.handleReadResource,
		protocol.MethodResourcesList:        server.handleListResources,
		protocol.MethodPromptsGet:           server.handleGetPrompt,
		protocol.MethodPromptsList:          server.handleListPrompts,
		protocol.MethodLoggingSetLevel:      server.handleSetLevel,
		protocol.MethodResourcesSubscribe:   server.handleSubscribe,
		protocol.MethodResourcesUnsubscribe: server.handleUnsubscribe,
		protocol.MethodCompletionComplete:   server.handleComplete,
	}
	for _, method := range middlewareMethods {
		t.RegisterRequestHandler(method, server.dispatch(method, terminals[method]))
	}

	return server
}

// dispatch adapts a terminal handler into a transport handler that runs the
// middleware pipeline and tracks the request for cancellation.
func (s *Server) dispatch(method string, terminal Handler) transport.RequestHandler {
	return func(ctx context.Context, params interface{}) (interface{}, error) {
		rc := &RequestContext{
			Message:   params,
			Method:    method,
			Timestamp: time.Now(),
			Transport: s.transport.Kind(),
		}
		if session, ok := transport.SessionFromContext(ctx); ok {
			rc.SessionID = session.ID()
		}

		requestID := logging.RequestIDFromContext(ctx)
		if requestID == "" {
			requestID = uuid.NewString()
			ctx = logging.ContextWithRequestID(ctx, requestID)
		}

		ctx, cancel := context.WithCancel(ctx)
		s.trackRequest(requestID, cancel)
		defer s.completeRequest(requestID)

		return s.middleware.Process(ctx, rc, terminal)
	}
}

// Start initializes the transport and runs it until the context ends.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Initialize(ctx); err != nil {
		return mcperrors.CreateInternalError("transport_initialize", err).
			WithContext(&mcperrors.Context{
				Component: "Server",
				Operation: "Start",
				Timestamp: time.Now(),
			}).
			WithDetail(fmt.Sprintf("Transport kind: %s", s.transport.Kind()))
	}

	s.sink.Emit(ctx, telemetry.EventServerStart, map[string]interface{}{
		"name":    s.name,
		"version": s.version,
	})
	s.logger.Info("Server %s %s starting", s.name, s.version)

	return s.transport.Start(ctx)
}

// Stop cancels active requests and shuts the transport down.
func (s *Server) Stop() error {
	s.activeRequestsLock.Lock()
	for _, cancel := range s.activeRequests {
		cancel()
	}
	s.activeRequests = make(map[string]context.CancelFunc)
	s.activeRequestsLock.Unlock()

	return s.transport.Stop(context.Background())
}

// Registry exposes the session registry for transport construction.
func (s *Server) Registry() *SessionRegistry {
	return s.registry
}

// Subscriptions exposes the resource subscription table.
func (s *Server) Subscriptions() *SubscriptionTable {
	return s.subscriptions
}

// LogGate exposes the client log-level gate.
func (s *Server) LogGate() *LevelGate {
	return s.gate
}

// Capabilities reports what this server advertises during initialization.
// Installing the default handler set always advertises resource
// subscriptions, since the subscribe/unsubscribe handlers are always wired.
func (s *Server) Capabilities() protocol.ServerCapabilities {
	caps := protocol.ServerCapabilities{
		Logging: &protocol.LoggingServerCapability{},
		Resources: &protocol.ResourcesServerCapability{
			Subscribe:   true,
			ListChanged: true,
		},
	}
	if s.toolsProvider != nil {
		caps.Tools = &protocol.ToolsServerCapability{ListChanged: true}
	}
	if s.promptsProvider != nil {
		caps.Prompts = &protocol.PromptsServerCapability{ListChanged: true}
	}
	if s.completionProvider != nil {
		caps.Completions = &protocol.CompletionsCapability{}
	}
	return caps
}

// NotifyResourceUpdated tells every subscriber of the URI that the resource
// changed. Failures to individual subscribers are logged and swallowed.
func (s *Server) NotifyResourceUpdated(ctx context.Context, uri string) {
	s.subscriptions.NotifyUpdated(ctx, uri, s.registry, s.structured)
	s.sink.Emit(ctx, telemetry.EventNotification, map[string]interface{}{
		"method": protocol.MethodNotificationResourceUpdated,
		"uri":    uri,
	})
}

// DisconnectSession scrubs the session from the registry and from every
// resource subscription.
func (s *Server) DisconnectSession(sessionID string) {
	if session, err := s.registry.Get(sessionID); err == nil {
		s.registry.UnregisterSession(session)
	}
	s.subscriptions.DropSession(sessionID)
}

// isInitialized reports whether a client completed the handshake.
func (s *Server) isInitialized() bool {
	s.initializedLock.RLock()
	defer s.initializedLock.RUnlock()
	return s.initialized
}

// ClientInfo returns the implementation info the client sent at initialize.
func (s *Server) ClientInfo() *protocol.Implementation {
	s.initializedLock.RLock()
	defer s.initializedLock.RUnlock()
	return s.clientInfo
}

func (s *Server) createRequestContext(method string) *mcperrors.Context {
	return &mcperrors.Context{
		Method:    method,
		Component: "Server",
		Operation: method,
		Timestamp: time.Now(),
	}
}

// validateParams parses request parameters into target with structured
// errors. A nil params value decodes as the zero value of target.
func (s *Server) validateParams(params interface{}, target interface{}, method string) error {
	if params == nil {
		return nil
	}

	data, err := json.Marshal(params)
	if err != nil {
		return mcperrors.CreateInternalError("marshal_params", err).
			WithContext(s.createRequestContext(method)).
			WithDetail("Failed to process request parameters")
	}

	if err := json.Unmarshal(data, target); err != nil {
		return mcperrors.InvalidParameter("params", params, fmt.Sprintf("%T", target)).
			WithContext(s.createRequestContext(method)).
			WithDetail(err.Error())
	}

	return nil
}

func (s *Server) requireProvider(providerType string, provider interface{}, method string) error {
	if provider == nil {
		return mcperrors.ProviderNotConfigured(providerType).
			WithContext(s.createRequestContext(method))
	}
	return nil
}

func (s *Server) trackRequest(requestID string, cancel context.CancelFunc) {
	s.activeRequestsLock.Lock()
	defer s.activeRequestsLock.Unlock()
	s.activeRequests[requestID] = cancel
}

func (s *Server) completeRequest(requestID string) {
	s.activeRequestsLock.Lock()
	defer s.activeRequestsLock.Unlock()
	delete(s.activeRequests, requestID)
}

func (s *Server) cancelRequest(requestID string) bool {
	s.activeRequestsLock.Lock()
	defer s.activeRequestsLock.Unlock()
	if cancel, exists := s.activeRequests[requestID]; exists {
		cancel()
		delete(s.activeRequests, requestID)
		return true
	}
	return false
}

// Request handlers

func (s *Server) handleInitialize(ctx context.Context, params interface{}) (interface{}, error) {
	var initParams protocol.InitializeParams
	if err := s.validateParams(params, &initParams, protocol.MethodInitialize); err != nil {
		return nil, err
	}

	s.initializedLock.Lock()
	s.clientInfo = &initParams.ClientInfo
	s.initializedLock.Unlock()

	s.logger.Info("Initializing connection with client: %s %s",
		initParams.ClientInfo.Name, initParams.ClientInfo.Version)

	return &protocol.InitializeResult{
		ProtocolVersion: protocol.ProtocolVersion,
		Capabilities:    s.Capabilities(),
		ServerInfo: protocol.Implementation{
			Name:    s.name,
			Version: s.version,
		},
		Instructions: s.instructions,
	}, nil
}

func (s *Server) handleInitialized(ctx context.Context, params interface{}) error {
	s.initializedLock.Lock()
	s.initialized = true
	s.initializedLock.Unlock()

	s.logger.Info("Connection initialized")
	return nil
}

func (s *Server) handlePing(ctx context.Context, params interface{}) (interface{}, error) {
	return &protocol.PingResult{}, nil
}

func (s *Server) handleCancelled(ctx context.Context, params interface{}) error {
	var cancelParams protocol.CancelledParams
	if err := s.validateParams(params, &cancelParams, protocol.MethodNotificationCancelled); err != nil {
		return err
	}

	requestID := fmt.Sprintf("%v", cancelParams.RequestID)
	if s.cancelRequest(requestID) {
		s.logger.Info("Cancelled request %s: %s", requestID, cancelParams.Reason)
	} else {
		s.logger.Debug("Cancellation for unknown request %s", requestID)
	}
	return nil
}

func (s *Server) handleSetLevel(ctx context.Context, rc *RequestContext) (interface{}, error) {
	var levelParams protocol.SetLevelParams
	if err := s.validateParams(rc.Message, &levelParams, protocol.MethodLoggingSetLevel); err != nil {
		return nil, err
	}
	if levelParams.Level == "" {
		return nil, mcperrors.MissingParameter("level").
			WithContext(s.createRequestContext(protocol.MethodLoggingSetLevel))
	}
	if !levelParams.Level.Valid() {
		// An unrecognized level still moves the gate; it ranks lowest,
		// so the client keeps receiving everything.
		s.logger.Warn("Client set an unrecognized log level: %s", levelParams.Level)
	}

	s.gate.SetLevel(levelParams.Level)
	return &protocol.SetLevelResult{}, nil
}

func (s *Server) handleSubscribe(ctx context.Context, rc *RequestContext) (interface{}, error) {
	var subParams protocol.SubscribeParams
	if err := s.validateParams(rc.Message, &subParams, protocol.MethodResourcesSubscribe); err != nil {
		return nil, err
	}
	if subParams.URI == "" {
		return nil, mcperrors.MissingParameter("uri").
			WithContext(s.createRequestContext(protocol.MethodResourcesSubscribe))
	}

	// Without a resolvable session there is nothing to record; the request
	// still succeeds so single-session transports keep working.
	if rc.SessionID != "" {
		s.subscriptions.Subscribe(subParams.URI, rc.SessionID)
	}
	return &protocol.SubscribeResult{}, nil
}

func (s *Server) handleUnsubscribe(ctx context.Context, rc *RequestContext) (interface{}, error) {
	var unsubParams protocol.UnsubscribeParams
	if err := s.validateParams(rc.Message, &unsubParams, protocol.MethodResourcesUnsubscribe); err != nil {
		return nil, err
	}
	if unsubParams.URI == "" {
		return nil, mcperrors.MissingParameter("uri").
			WithContext(s.createRequestContext(protocol.MethodResourcesUnsubscribe))
	}

	if rc.SessionID != "" {
		s.subscriptions.Unsubscribe(unsubParams.URI, rc.SessionID)
	}
	return &protocol.UnsubscribeResult{}, nil
}

func (s *Server) handleComplete(ctx context.Context, rc *RequestContext) (interface{}, error) {
	var completeParams protocol.CompleteParams
	if err := s.validateParams(rc.Message, &completeParams, protocol.MethodCompletionComplete); err != nil {
		return nil, err
	}

	if s.completionProvider == nil {
		return protocol.EmptyCompletion(), nil
	}

	completion, err := s.completionProvider.Complete(ctx, completeParams.Ref, completeParams.Argument)
	if err != nil {
		return nil, mcperrors.ProviderError("completion", "Complete", err).
			WithContext(s.createRequestContext(protocol.MethodCompletionComplete))
	}
	return &protocol.CompleteResult{Completion: *completion}, nil
}

func (s *Server) handleListTools(ctx context.Context, rc *RequestContext) (interface{}, error) {
	if err := s.requireProvider("tools", s.toolsProvider, protocol.MethodToolsList); err != nil {
		return nil, err
	}

	var listParams protocol.ListToolsParams
	if err := s.validateParams(rc.Message, &listParams, protocol.MethodToolsList); err != nil {
		return nil, err
	}

	tools, nextCursor, err := s.toolsProvider.ListTools(ctx, listParams.Cursor)
	if err != nil {
		if mcperrors.IsMCPError(err) {
			return nil, err
		}
		return nil, mcperrors.ProviderError("tools", "ListTools", err).
			WithContext(s.createRequestContext(protocol.MethodToolsList))
	}

	return &protocol.ListToolsResult{Tools: tools, NextCursor: nextCursor}, nil
}

func (s *Server) handleCallTool(ctx context.Context, rc *RequestContext) (interface{}, error) {
	if err := s.requireProvider("tools", s.toolsProvider, protocol.MethodToolsCall); err != nil {
		return nil, err
	}

	var callParams protocol.CallToolParams
	if err := s.validateParams(rc.Message, &callParams, protocol.MethodToolsCall); err != nil {
		return nil, err
	}
	if callParams.Name == "" {
		return nil, mcperrors.MissingParameter("name").
			WithContext(s.createRequestContext(protocol.MethodToolsCall))
	}

	var args map[string]interface{}
	if len(callParams.Arguments) > 0 {
		if err := json.Unmarshal(callParams.Arguments, &args); err != nil {
			return nil, mcperrors.InvalidParameter("arguments", string(callParams.Arguments), "a JSON object").
				WithContext(s.createRequestContext(protocol.MethodToolsCall))
		}
	}

	ctx = ContextIntoRequest(ctx, s, rc)
	result, err := s.toolsProvider.CallTool(ctx, callParams.Name, args)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return protocol.ErrorToolResult("tool call was cancelled"), nil
		}
		// Tool failures flow back as error-flagged results, not as
		// transport faults.
		return protocol.ErrorToolResult(err.Error()), nil
	}
	return result, nil
}

func (s *Server) handleListResources(ctx context.Context, rc *RequestContext) (interface{}, error) {
	if err := s.requireProvider("resources", s.resourcesProvider, protocol.MethodResourcesList); err != nil {
		return nil, err
	}

	var listParams protocol.ListResourcesParams
	if err := s.validateParams(rc.Message, &listParams, protocol.MethodResourcesList); err != nil {
		return nil, err
	}

	resources, nextCursor, err := s.resourcesProvider.ListResources(ctx, listParams.Cursor)
	if err != nil {
		if mcperrors.IsMCPError(err) {
			return nil, err
		}
		return nil, mcperrors.ProviderError("resources", "ListResources", err).
			WithContext(s.createRequestContext(protocol.MethodResourcesList))
	}

	return &protocol.ListResourcesResult{Resources: resources, NextCursor: nextCursor}, nil
}

func (s *Server) handleReadResource(ctx context.Context, rc *RequestContext) (interface{}, error) {
	if err := s.requireProvider("resources", s.resourcesProvider, protocol.MethodResourcesRead); err != nil {
		return nil, err
	}

	var readParams protocol.ReadResourceParams
	if err := s.validateParams(rc.Message, &readParams, protocol.MethodResourcesRead); err != nil {
		return nil, err
	}
	if readParams.URI == "" {
		return nil, mcperrors.MissingParameter("uri").
			WithContext(s.createRequestContext(protocol.MethodResourcesRead))
	}

	contents, err := s.resourcesProvider.ReadResource(ctx, readParams.URI)
	if err != nil {
		if mcperrors.IsMCPError(err) {
			return nil, err
		}
		return nil, mcperrors.ProviderError("resources", "ReadResource", err).
			WithContext(s.createRequestContext(protocol.MethodResourcesRead)).
			WithDetail(fmt.Sprintf("URI: %s", readParams.URI))
	}

	return &protocol.ReadResourceResult{Contents: contents}, nil
}

func (s *Server) handleListPrompts(ctx context.Context, rc *RequestContext) (interface{}, error) {
	if err := s.requireProvider("prompts", s.promptsProvider, protocol.MethodPromptsList); err != nil {
		return nil, err
	}

	var listParams protocol.ListPromptsParams
	if err := s.validateParams(rc.Message, &listParams, protocol.MethodPromptsList); err != nil {
		return nil, err
	}

	prompts, nextCursor, err := s.promptsProvider.ListPrompts(ctx, listParams.Cursor)
	if err != nil {
		if mcperrors.IsMCPError(err) {
			return nil, err
		}
		return nil, mcperrors.ProviderError("prompts", "ListPrompts", err).
			WithContext(s.createRequestContext(protocol.MethodPromptsList))
	}

	return &protocol.ListPromptsResult{Prompts: prompts, NextCursor: nextCursor}, nil
}

func (s *Server) handleGetPrompt(ctx context.Context, rc *RequestContext) (interface{}, error) {
	if err := s.requireProvider("prompts", s.promptsProvider, protocol.MethodPromptsGet); err != nil {
		return nil, err
	}

	var getParams protocol.GetPromptParams
	if err := s.validateParams(rc.Message, &getParams, protocol.MethodPromptsGet); err != nil {
		return nil, err
	}
	if getParams.Name == "" {
		return nil, mcperrors.MissingParameter("name").
			WithContext(s.createRequestContext(protocol.MethodPromptsGet))
	}

	ctx = ContextIntoRequest(ctx, s, rc)
	result, err := s.promptsProvider.GetPrompt(ctx, getParams.Name, getParams.Arguments)
	if err != nil {
		if mcperrors.IsMCPError(err) {
			return nil, err
		}
		return nil, mcperrors.ProviderError("prompts", "GetPrompt", err).
			WithContext(s.createRequestContext(protocol.MethodPromptsGet)).
			WithDetail(fmt.Sprintf("Name: %s", getParams.Name))
	}
	return result, nil
}
