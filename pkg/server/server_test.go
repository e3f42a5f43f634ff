package server

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-use/mcp-go/pkg/logging"
	"github.com/mcp-use/mcp-go/pkg/protocol"
	"github.com/mcp-use/mcp-go/pkg/transport"
)

// MockLogger captures server log lines for assertions.
type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *MockLogger) record(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *MockLogger) Debug(msg string, args ...interface{}) { m.record(msg) }
func (m *MockLogger) Info(msg string, args ...interface{})  { m.record(msg) }
func (m *MockLogger) Warn(msg string, args ...interface{})  { m.record(msg) }
func (m *MockLogger) Error(msg string, args ...interface{}) { m.record(msg) }

// newTestRuntime wires a server to an in-memory transport sharing one
// session registry.
func newTestRuntime(t *testing.T, opts ...ServerOption) (*Server, *transport.InMemoryTransport) {
	t.Helper()
	registry := NewSessionRegistry(nil, nil)
	tr := transport.NewInMemoryTransport(registry)
	opts = append([]ServerOption{
		WithSessionRegistry(registry),
		WithLogger(&MockLogger{}),
	}, opts...)
	return New(tr, opts...), tr
}

func echoToolsProvider(t *testing.T) *BaseToolsProvider {
	t.Helper()
	provider := NewBaseToolsProvider()
	provider.RegisterTool(protocol.Tool{
		Name:        "echo",
		Description: "Echoes its message argument",
	}, func(ctx context.Context, args map[string]interface{}) (*protocol.CallToolResult, error) {
		msg, _ := args["message"].(string)
		return &protocol.CallToolResult{
			Content: []protocol.Content{protocol.TextContent(msg)},
		}, nil
	})
	return provider
}

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	srv, tr := newTestRuntime(t, WithToolsProvider(echoToolsProvider(t)))
	session := tr.Connect()

	result, err := tr.Deliver(context.Background(), session, protocol.MethodInitialize, &protocol.InitializeParams{
		ProtocolVersion: protocol.ProtocolVersion,
		ClientInfo:      protocol.Implementation{Name: "test-client", Version: "0.1.0"},
	})
	require.NoError(t, err)

	initResult, ok := result.(*protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, protocol.ProtocolVersion, initResult.ProtocolVersion)

	// Subscription handlers are always installed, so the capability is
	// always advertised.
	require.NotNil(t, initResult.Capabilities.Resources)
	assert.True(t, initResult.Capabilities.Resources.Subscribe)
	assert.NotNil(t, initResult.Capabilities.Logging)
	assert.NotNil(t, initResult.Capabilities.Tools)
	assert.Nil(t, initResult.Capabilities.Prompts)

	require.NoError(t, tr.DeliverNotification(context.Background(), session, protocol.MethodNotificationInitialized, nil))
	assert.True(t, srv.isInitialized())
	require.NotNil(t, srv.ClientInfo())
	assert.Equal(t, "test-client", srv.ClientInfo().Name)
}

func TestSetLevelUpdatesGate(t *testing.T) {
	srv, tr := newTestRuntime(t)
	session := tr.Connect()

	result, err := tr.Deliver(context.Background(), session, protocol.MethodLoggingSetLevel,
		&protocol.SetLevelParams{Level: protocol.LogLevelWarning})
	require.NoError(t, err)
	assert.IsType(t, &protocol.SetLevelResult{}, result)

	assert.Equal(t, protocol.LogLevelWarning, srv.LogGate().Level())
	assert.False(t, srv.LogGate().ShouldEmit(protocol.LogLevelInfo))
	assert.True(t, srv.LogGate().ShouldEmit(protocol.LogLevelError))
}

func TestSetLevelRequiresLevel(t *testing.T) {
	_, tr := newTestRuntime(t)
	session := tr.Connect()

	_, err := tr.Deliver(context.Background(), session, protocol.MethodLoggingSetLevel,
		&protocol.SetLevelParams{})
	assert.Error(t, err)
}

func TestSubscribeLifecycleOverTransport(t *testing.T) {
	srv, tr := newTestRuntime(t)
	session := tr.Connect()
	ctx := context.Background()

	_, err := tr.Deliver(ctx, session, protocol.MethodResourcesSubscribe,
		&protocol.SubscribeParams{URI: "data://live"})
	require.NoError(t, err)
	assert.Equal(t, []string{session.ID()}, srv.Subscriptions().Subscribers("data://live"))

	srv.NotifyResourceUpdated(ctx, "data://live")
	require.Len(t, session.NotificationsFor(protocol.MethodNotificationResourceUpdated), 1)

	_, err = tr.Deliver(ctx, session, protocol.MethodResourcesUnsubscribe,
		&protocol.UnsubscribeParams{URI: "data://live"})
	require.NoError(t, err)
	assert.Empty(t, srv.Subscriptions().Subscribers("data://live"))

	// Updates after unsubscribing stay silent.
	srv.NotifyResourceUpdated(ctx, "data://live")
	assert.Len(t, session.NotificationsFor(protocol.MethodNotificationResourceUpdated), 1)
}

func TestDisconnectScrubsSubscriptions(t *testing.T) {
	t.Run("transport disconnect", func(t *testing.T) {
		srv, tr := newTestRuntime(t)
		session := tr.Connect()

		_, err := tr.Deliver(context.Background(), session, protocol.MethodResourcesSubscribe,
			&protocol.SubscribeParams{URI: "data://live"})
		require.NoError(t, err)
		require.Equal(t, []string{session.ID()}, srv.Subscriptions().Subscribers("data://live"))

		// The transport reporting the disconnect is the only trigger: no
		// server-side eviction call.
		session.Disconnect()

		assert.Equal(t, 0, srv.Registry().Len())
		assert.Empty(t, srv.Subscriptions().Subscribers("data://live"))
		assert.Equal(t, 0, srv.Subscriptions().Len())
	})

	t.Run("server eviction", func(t *testing.T) {
		srv, tr := newTestRuntime(t)
		session := tr.Connect()

		_, err := tr.Deliver(context.Background(), session, protocol.MethodResourcesSubscribe,
			&protocol.SubscribeParams{URI: "data://live"})
		require.NoError(t, err)

		srv.DisconnectSession(session.ID())

		assert.Empty(t, srv.Subscriptions().Subscribers("data://live"))
		assert.Equal(t, 0, srv.Registry().Len())
	})
}

func TestCompleteDefaultsToEmpty(t *testing.T) {
	_, tr := newTestRuntime(t)
	session := tr.Connect()

	result, err := tr.Deliver(context.Background(), session, protocol.MethodCompletionComplete,
		&protocol.CompleteParams{
			Ref:      protocol.CompletionReference{Type: "ref/prompt", Name: "greet"},
			Argument: protocol.CompletionArgument{Name: "name", Value: "al"},
		})
	require.NoError(t, err)

	completeResult, ok := result.(*protocol.CompleteResult)
	require.True(t, ok)
	assert.Empty(t, completeResult.Completion.Values)
	assert.Zero(t, completeResult.Completion.Total)
	assert.False(t, completeResult.Completion.HasMore)
}

func TestCallToolEcho(t *testing.T) {
	_, tr := newTestRuntime(t, WithToolsProvider(echoToolsProvider(t)))
	session := tr.Connect()

	args, _ := json.Marshal(map[string]interface{}{"message": "hello"})
	result, err := tr.Deliver(context.Background(), session, protocol.MethodToolsCall,
		&protocol.CallToolParams{Name: "echo", Arguments: args})
	require.NoError(t, err)

	callResult, ok := result.(*protocol.CallToolResult)
	require.True(t, ok)
	require.Len(t, callResult.Content, 1)
	assert.Equal(t, "hello", callResult.Content[0].Text)
	assert.False(t, callResult.IsError)
}

func TestCallToolFailureBecomesErrorResult(t *testing.T) {
	provider := NewBaseToolsProvider()
	provider.RegisterTool(protocol.Tool{Name: "broken"},
		func(ctx context.Context, args map[string]interface{}) (*protocol.CallToolResult, error) {
			return nil, assert.AnError
		})

	_, tr := newTestRuntime(t, WithToolsProvider(provider))
	session := tr.Connect()

	result, err := tr.Deliver(context.Background(), session, protocol.MethodToolsCall,
		&protocol.CallToolParams{Name: "broken"})

	// The request itself succeeds; the failure travels in the result.
	require.NoError(t, err)
	callResult, ok := result.(*protocol.CallToolResult)
	require.True(t, ok)
	assert.True(t, callResult.IsError)
}

func TestCallToolWithoutProvider(t *testing.T) {
	_, tr := newTestRuntime(t)
	session := tr.Connect()

	_, err := tr.Deliver(context.Background(), session, protocol.MethodToolsCall,
		&protocol.CallToolParams{Name: "echo"})
	assert.Error(t, err)
}

func TestListToolsPagination(t *testing.T) {
	provider := echoToolsProvider(t)
	provider.RegisterTool(protocol.Tool{Name: "add"},
		func(ctx context.Context, args map[string]interface{}) (*protocol.CallToolResult, error) {
			return &protocol.CallToolResult{}, nil
		})

	_, tr := newTestRuntime(t, WithToolsProvider(provider))
	session := tr.Connect()

	result, err := tr.Deliver(context.Background(), session, protocol.MethodToolsList,
		&protocol.ListToolsParams{})
	require.NoError(t, err)

	listResult, ok := result.(*protocol.ListToolsResult)
	require.True(t, ok)
	require.Len(t, listResult.Tools, 2)
	assert.Equal(t, "add", listResult.Tools[0].Name)
	assert.Equal(t, "echo", listResult.Tools[1].Name)
	assert.Empty(t, listResult.NextCursor)
}

func TestUnknownMethodIsRejected(t *testing.T) {
	_, tr := newTestRuntime(t)
	session := tr.Connect()

	_, err := tr.Deliver(context.Background(), session, "tools/destroy", nil)
	assert.Error(t, err)
}

func TestCancelledNotificationStopsRequest(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	provider := NewBaseToolsProvider()
	provider.RegisterTool(protocol.Tool{Name: "slow"},
		func(ctx context.Context, args map[string]interface{}) (*protocol.CallToolResult, error) {
			close(started)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-release:
				return &protocol.CallToolResult{}, nil
			}
		})

	_, tr := newTestRuntime(t, WithToolsProvider(provider))
	session := tr.Connect()

	requestID := "req-42"
	ctx := logging.ContextWithRequestID(context.Background(), requestID)

	type outcome struct {
		result interface{}
		err    error
	}
	results := make(chan outcome, 1)
	go func() {
		result, err := tr.Deliver(ctx, session, protocol.MethodToolsCall,
			&protocol.CallToolParams{Name: "slow"})
		results <- outcome{result, err}
	}()

	<-started
	require.NoError(t, tr.DeliverNotification(context.Background(), session,
		protocol.MethodNotificationCancelled,
		&protocol.CancelledParams{RequestID: requestID, Reason: "user gave up"}))

	out := <-results
	require.NoError(t, out.err)
	callResult, ok := out.result.(*protocol.CallToolResult)
	require.True(t, ok)
	assert.True(t, callResult.IsError)
	close(release)
}

func TestMiddlewareSeesSessionAndMethod(t *testing.T) {
	var seen []*RequestContext
	capture := MiddlewareFunc(func(ctx context.Context, rc *RequestContext, next Handler) (interface{}, error) {
		seen = append(seen, rc)
		return next(ctx, rc)
	})

	_, tr := newTestRuntime(t, WithMiddleware(capture))
	session := tr.Connect()

	_, err := tr.Deliver(context.Background(), session, protocol.MethodResourcesSubscribe,
		&protocol.SubscribeParams{URI: "data://live"})
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, protocol.MethodResourcesSubscribe, seen[0].Method)
	assert.Equal(t, session.ID(), seen[0].SessionID)
	assert.Equal(t, transport.KindInMemory, seen[0].Transport)
	assert.False(t, seen[0].Timestamp.IsZero())
}

func TestPing(t *testing.T) {
	_, tr := newTestRuntime(t)
	session := tr.Connect()

	result, err := tr.Deliver(context.Background(), session, protocol.MethodPing, nil)
	require.NoError(t, err)
	assert.IsType(t, &protocol.PingResult{}, result)
}
