package server

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	mcperrors "github.com/mcp-use/mcp-go/pkg/errors"
	"github.com/mcp-use/mcp-go/pkg/logging"
	"github.com/mcp-use/mcp-go/pkg/protocol"
	"github.com/mcp-use/mcp-go/pkg/transport"
)

// Context is the per-request facade handed to tool and prompt handlers. It
// carries everything a handler may want from the runtime: client logging
// through the level gate, sampling and roots round-trips, elicitation, and
// list-changed notifications. All round-trips go through the session the
// request arrived on and fail rather than hang when that session is gone.
type Context struct {
	server     *Server
	session    transport.Session
	rc         *RequestContext
	loggerName string
}

type facadeContextKey struct{}

// ContextIntoRequest attaches a request facade to the context before the
// request reaches a provider. Providers retrieve it with FromContext.
func ContextIntoRequest(ctx context.Context, s *Server, rc *RequestContext) context.Context {
	session, _ := transport.SessionFromContext(ctx)
	return context.WithValue(ctx, facadeContextKey{}, &Context{
		server:  s,
		session: session,
		rc:      rc,
	})
}

// FromContext retrieves the request facade installed by the server.
func FromContext(ctx context.Context) (*Context, bool) {
	c, ok := ctx.Value(facadeContextKey{}).(*Context)
	return c, ok
}

// SessionID identifies the session the request arrived on, empty when the
// transport carries no session identity.
func (c *Context) SessionID() string {
	if c.session != nil {
		return c.session.ID()
	}
	return ""
}

// Method is the protocol method of the request being served.
func (c *Context) Method() string {
	if c.rc != nil {
		return c.rc.Method
	}
	return ""
}

// WithLoggerName returns a facade whose Log calls carry the given logger
// name on the wire.
func (c *Context) WithLoggerName(name string) *Context {
	clone := *c
	clone.loggerName = name
	return &clone
}

// Log sends a notifications/message log line to the client, subject to the
// client-set level gate. Suppressed messages are dropped silently; that is
// the gate's contract, not an error.
func (c *Context) Log(ctx context.Context, level protocol.LogLevel, data interface{}) error {
	if !c.server.gate.ShouldEmit(level) {
		return nil
	}
	if c.session == nil {
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return mcperrors.CreateInternalError("marshal_log_data", err).
			WithDetail(fmt.Sprintf("Log level: %s, data type: %T", level, data))
	}

	params := &protocol.LogMessageParams{
		Level:  level,
		Logger: c.loggerName,
		Data:   payload,
	}
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		params.RelatedRequestID = requestID
	}

	return c.session.SendNotification(ctx, protocol.MethodNotificationMessage, params)
}

// Debug logs at the debug level.
func (c *Context) Debug(ctx context.Context, data interface{}) error {
	return c.Log(ctx, protocol.LogLevelDebug, data)
}

// Info logs at the info level.
func (c *Context) Info(ctx context.Context, data interface{}) error {
	return c.Log(ctx, protocol.LogLevelInfo, data)
}

// Warning logs at the warning level.
func (c *Context) Warning(ctx context.Context, data interface{}) error {
	return c.Log(ctx, protocol.LogLevelWarning, data)
}

// Error logs at the error level.
func (c *Context) Error(ctx context.Context, data interface{}) error {
	return c.Log(ctx, protocol.LogLevelError, data)
}

// SampleOption adjusts a sampling round-trip.
type SampleOption func(*protocol.CreateMessageParams)

// WithMaxTokens caps the sampled completion length.
func WithMaxTokens(max int) SampleOption {
	return func(p *protocol.CreateMessageParams) { p.MaxTokens = max }
}

// WithSystemPrompt sets the system prompt for the sampling request.
func WithSystemPrompt(prompt string) SampleOption {
	return func(p *protocol.CreateMessageParams) { p.SystemPrompt = prompt }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) SampleOption {
	return func(p *protocol.CreateMessageParams) { p.Temperature = &t }
}

// WithModelPreferences passes model selection hints to the client.
func WithModelPreferences(prefs *protocol.ModelPreferences) SampleOption {
	return func(p *protocol.CreateMessageParams) { p.ModelPreferences = prefs }
}

// Sample asks the client to run an LLM completion. Messages may be a plain
// string (coerced to a single user message), a protocol.SamplingMessage, or
// a []protocol.SamplingMessage.
func (c *Context) Sample(ctx context.Context, messages interface{}, opts ...SampleOption) (*protocol.CreateMessageResult, error) {
	coerced, err := coerceSamplingMessages(messages)
	if err != nil {
		return nil, err
	}

	params := &protocol.CreateMessageParams{
		Messages:  coerced,
		MaxTokens: 1024,
	}
	for _, opt := range opts {
		opt(params)
	}

	raw, err := c.roundTrip(ctx, protocol.MethodSamplingCreateMessage, params)
	if err != nil {
		return nil, err
	}

	var result protocol.CreateMessageResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, mcperrors.CreateInternalError("decode_sampling_result", err)
	}
	return &result, nil
}

// ListRoots asks the client for its filesystem roots.
func (c *Context) ListRoots(ctx context.Context) ([]protocol.Root, error) {
	raw, err := c.roundTrip(ctx, protocol.MethodRootsList, &protocol.ListRootsParams{})
	if err != nil {
		return nil, err
	}

	var result protocol.ListRootsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, mcperrors.CreateInternalError("decode_roots_result", err)
	}
	return result.Roots, nil
}

// ElicitOutcome is the result of an elicitation round-trip. Content carries
// the accepted raw payload; when Elicit was given a struct pointer, the
// payload has also been decoded into it.
type ElicitOutcome struct {
	Action  protocol.ElicitAction
	Content json.RawMessage
}

// Accepted reports whether the client accepted the elicitation.
func (o *ElicitOutcome) Accepted() bool {
	return o.Action == protocol.ElicitActionAccept
}

// Elicit asks the client for structured input. The schema argument resolves
// one of two ways: a protocol.ElicitationSchema (or pointer to one) is sent
// as-is and the raw accepted content comes back in the outcome, while a
// pointer to a struct is projected into a flat primitive schema and, on
// accept, the content is decoded back into that struct.
func (c *Context) Elicit(ctx context.Context, message string, schema interface{}) (*ElicitOutcome, error) {
	wire, proj, err := resolveElicitSchema(schema)
	if err != nil {
		return nil, err
	}

	params := &protocol.ElicitParams{
		Message:         message,
		RequestedSchema: wire,
	}

	raw, err := c.roundTrip(ctx, protocol.MethodElicitationCreate, params)
	if err != nil {
		return nil, err
	}

	var result protocol.ElicitResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, mcperrors.CreateInternalError("decode_elicit_result", err)
	}

	outcome := &ElicitOutcome{Action: result.Action, Content: result.Content}
	if outcome.Accepted() && proj != nil {
		if err := decodeElicitContent(proj, schema, result.Content); err != nil {
			return nil, mcperrors.InvalidParameter("content", string(result.Content), "elicitation schema shape").
				WithDetail(err.Error())
		}
	}
	return outcome, nil
}

// resolveElicitSchema is the tagged resolution step: raw wire schemas pass
// through untouched, struct pointers are projected.
func resolveElicitSchema(schema interface{}) (protocol.ElicitationSchema, *elicitProjection, error) {
	switch s := schema.(type) {
	case protocol.ElicitationSchema:
		return s, nil, nil
	case *protocol.ElicitationSchema:
		return *s, nil, nil
	}

	rv := reflect.ValueOf(schema)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return protocol.ElicitationSchema{}, nil,
			fmt.Errorf("elicitation schema must be an ElicitationSchema or a non-nil struct pointer, got %T", schema)
	}

	proj, err := projectElicitSchema(rv.Type())
	if err != nil {
		return protocol.ElicitationSchema{}, nil, err
	}
	return proj.schema, proj, nil
}

// ReportProgress sends a notifications/progress update tied to the current
// request.
func (c *Context) ReportProgress(ctx context.Context, progress, total float64, message string) error {
	if c.session == nil {
		return nil
	}

	token := logging.RequestIDFromContext(ctx)
	if token == "" {
		token = c.Method()
	}

	return c.session.SendNotification(ctx, protocol.MethodNotificationProgress, &protocol.ProgressParams{
		ProgressToken: token,
		Progress:      progress,
		Total:         total,
		Message:       message,
	})
}

// SendToolListChanged tells the client the tool set changed.
func (c *Context) SendToolListChanged(ctx context.Context) error {
	return c.sendListChanged(ctx, protocol.MethodNotificationToolsListChanged)
}

// SendResourceListChanged tells the client the resource set changed.
func (c *Context) SendResourceListChanged(ctx context.Context) error {
	return c.sendListChanged(ctx, protocol.MethodNotificationResourcesListChanged)
}

// SendPromptListChanged tells the client the prompt set changed.
func (c *Context) SendPromptListChanged(ctx context.Context) error {
	return c.sendListChanged(ctx, protocol.MethodNotificationPromptsListChanged)
}

func (c *Context) sendListChanged(ctx context.Context, method string) error {
	if c.session == nil {
		return nil
	}
	return c.session.SendNotification(ctx, method, nil)
}

func (c *Context) roundTrip(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if c.session == nil {
		return nil, mcperrors.SessionNotFound("").
			WithDetail(fmt.Sprintf("method %s requires a session-bound request", method))
	}
	raw, err := c.session.SendRequest(ctx, method, params)
	if err != nil {
		if mcperrors.IsMCPError(err) {
			return nil, err
		}
		return nil, mcperrors.RoundTripFailed(method, c.session.ID(), err)
	}
	return raw, nil
}

func coerceSamplingMessages(messages interface{}) ([]protocol.SamplingMessage, error) {
	switch m := messages.(type) {
	case string:
		return []protocol.SamplingMessage{protocol.UserMessage(m)}, nil
	case protocol.SamplingMessage:
		return []protocol.SamplingMessage{m}, nil
	case []protocol.SamplingMessage:
		if len(m) == 0 {
			return nil, mcperrors.MissingParameter("messages")
		}
		return m, nil
	case []string:
		out := make([]protocol.SamplingMessage, 0, len(m))
		for _, text := range m {
			out = append(out, protocol.UserMessage(text))
		}
		if len(out) == 0 {
			return nil, mcperrors.MissingParameter("messages")
		}
		return out, nil
	default:
		return nil, mcperrors.InvalidParameter("messages", messages,
			"string, SamplingMessage, []SamplingMessage, or []string")
	}
}
