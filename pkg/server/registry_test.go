package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-use/mcp-go/pkg/telemetry"
	"github.com/mcp-use/mcp-go/pkg/transport"
)

func TestSessionRegistryLifecycle(t *testing.T) {
	sink := telemetry.NewMemorySink()
	registry := NewSessionRegistry(nil, sink)
	tr := transport.NewInMemoryTransport(registry)

	session := tr.Connect()
	assert.Equal(t, 1, registry.Len())

	found, err := registry.Get(session.ID())
	require.NoError(t, err)
	assert.Equal(t, session.ID(), found.ID())

	session.Disconnect()
	assert.Equal(t, 0, registry.Len())

	_, err = registry.Get(session.ID())
	assert.Error(t, err)

	assert.Len(t, sink.EventsOfKind(telemetry.EventSessionOpen), 1)
	assert.Len(t, sink.EventsOfKind(telemetry.EventSessionClose), 1)
}

func TestSessionRegistryUnregisterHook(t *testing.T) {
	registry := NewSessionRegistry(nil, nil)
	var dropped []string
	registry.OnUnregister(func(sessionID string) { dropped = append(dropped, sessionID) })

	tr := transport.NewInMemoryTransport(registry)
	session := tr.Connect()
	session.Disconnect()

	assert.Equal(t, []string{session.ID()}, dropped)

	// Unknown sessions do not fire the hook.
	registry.UnregisterSession(session)
	assert.Len(t, dropped, 1)
}

func TestSessionRegistryUnknownUnregisterIsSilent(t *testing.T) {
	sink := telemetry.NewMemorySink()
	registry := NewSessionRegistry(nil, sink)
	tr := transport.NewInMemoryTransport(nil)

	stranger := tr.Connect()
	registry.UnregisterSession(stranger)

	assert.Empty(t, sink.Events())
}

func TestSessionRegistrySnapshot(t *testing.T) {
	registry := NewSessionRegistry(nil, nil)
	tr := transport.NewInMemoryTransport(registry)

	a := tr.Connect()
	b := tr.Connect()

	sessions := registry.Sessions()
	assert.Len(t, sessions, 2)

	// The snapshot is stable even when a session leaves mid-iteration.
	a.Disconnect()
	assert.Len(t, sessions, 2)
	assert.Equal(t, 1, registry.Len())
	_ = b
}

func TestSessionRegistryConcurrentAccess(t *testing.T) {
	registry := NewSessionRegistry(nil, nil)
	tr := transport.NewInMemoryTransport(registry)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s := tr.Connect()
				registry.Sessions()
				s.Disconnect()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, registry.Len())
}
