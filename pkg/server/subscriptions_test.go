package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-use/mcp-go/pkg/protocol"
	"github.com/mcp-use/mcp-go/pkg/transport"
)

func TestSubscriptionTableSubscribeIdempotent(t *testing.T) {
	table := NewSubscriptionTable()

	table.Subscribe("data://live", "s1")
	table.Subscribe("data://live", "s1")
	table.Subscribe("data://live", "s2")

	assert.Equal(t, []string{"s1", "s2"}, table.Subscribers("data://live"))
	assert.Equal(t, 1, table.Len())
}

func TestSubscriptionTableUnsubscribe(t *testing.T) {
	table := NewSubscriptionTable()

	t.Run("AbsentIsNoOp", func(t *testing.T) {
		table.Unsubscribe("data://live", "ghost")
		assert.Empty(t, table.Subscribers("data://live"))
	})

	t.Run("RemovesOnlyTheSession", func(t *testing.T) {
		table.Subscribe("data://live", "s1")
		table.Subscribe("data://live", "s2")

		table.Unsubscribe("data://live", "s1")
		assert.Equal(t, []string{"s2"}, table.Subscribers("data://live"))
	})

	t.Run("LastSubscriberDeletesEntry", func(t *testing.T) {
		table.Unsubscribe("data://live", "s2")
		assert.Empty(t, table.Subscribers("data://live"))
		assert.Equal(t, 0, table.Len())
		assert.Empty(t, table.URIs())
	})
}

func TestSubscriptionTableDropSession(t *testing.T) {
	table := NewSubscriptionTable()
	table.Subscribe("data://a", "s1")
	table.Subscribe("data://b", "s1")
	table.Subscribe("data://b", "s2")

	table.DropSession("s1")

	assert.Empty(t, table.Subscribers("data://a"))
	assert.Equal(t, []string{"s2"}, table.Subscribers("data://b"))
	assert.Equal(t, []string{"data://b"}, table.URIs())
}

func TestSubscriptionTableNotifyUpdated(t *testing.T) {
	registry := NewSessionRegistry(nil, nil)
	tr := transport.NewInMemoryTransport(registry)
	table := NewSubscriptionTable()

	subscribed := tr.Connect()
	other := tr.Connect()
	table.Subscribe("data://live", subscribed.ID())

	table.NotifyUpdated(context.Background(), "data://live", registry, nil)

	updates := subscribed.NotificationsFor(protocol.MethodNotificationResourceUpdated)
	require.Len(t, updates, 1)
	assert.JSONEq(t, `{"uri":"data://live"}`, string(updates[0].Params))
	assert.Empty(t, other.Notifications())
}

func TestSubscriptionTableNotifySkipsDeadSessions(t *testing.T) {
	registry := NewSessionRegistry(nil, nil)
	tr := transport.NewInMemoryTransport(registry)
	table := NewSubscriptionTable()

	alive := tr.Connect()
	gone := tr.Connect()
	table.Subscribe("data://live", alive.ID())
	table.Subscribe("data://live", gone.ID())

	gone.Disconnect()

	// A vanished subscriber must not block delivery to the rest.
	table.NotifyUpdated(context.Background(), "data://live", registry, nil)

	assert.Len(t, alive.NotificationsFor(protocol.MethodNotificationResourceUpdated), 1)
	assert.Empty(t, gone.Notifications())
}

func TestSubscriptionTableConcurrentMutation(t *testing.T) {
	table := NewSubscriptionTable()
	done := make(chan struct{})

	for i := 0; i < 4; i++ {
		go func(id string) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				table.Subscribe("data://live", id)
				table.Subscribers("data://live")
				table.Unsubscribe("data://live", id)
			}
		}(string(rune('a' + i)))
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	assert.Empty(t, table.Subscribers("data://live"))
}
