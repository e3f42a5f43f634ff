package server

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mcp-use/mcp-go/pkg/logging"
	"github.com/mcp-use/mcp-go/pkg/protocol"
)

// SubscriptionTable maps resource URIs to the set of session IDs that asked
// to be told when the resource changes. Session IDs are held rather than
// sessions so that a disconnect never leaves a dangling reference.
type SubscriptionTable struct {
	mu    sync.RWMutex
	byURI map[string]map[string]struct{}
}

// NewSubscriptionTable creates an empty table.
func NewSubscriptionTable() *SubscriptionTable {
	return &SubscriptionTable{
		byURI: make(map[string]map[string]struct{}),
	}
}

// Subscribe records the session's interest in the URI. Subscribing twice is
// the same as subscribing once.
func (t *SubscriptionTable) Subscribe(uri, sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.byURI[uri]
	if !ok {
		set = make(map[string]struct{})
		t.byURI[uri] = set
	}
	set[sessionID] = struct{}{}
}

// Unsubscribe removes the session's interest in the URI. Unsubscribing a
// session that never subscribed is a no-op. When the last subscriber of a
// URI leaves, the URI's entry is removed entirely.
func (t *SubscriptionTable) Unsubscribe(uri, sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.byURI[uri]
	if !ok {
		return
	}
	delete(set, sessionID)
	if len(set) == 0 {
		delete(t.byURI, uri)
	}
}

// DropSession removes the session from every URI it subscribed to. Called on
// disconnect so notifications never target dead sessions.
func (t *SubscriptionTable) DropSession(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for uri, set := range t.byURI {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(t.byURI, uri)
		}
	}
}

// Subscribers returns the session IDs subscribed to the URI, sorted for
// deterministic iteration.
func (t *SubscriptionTable) Subscribers(uri string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set, ok := t.byURI[uri]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// URIs returns the URIs that currently have at least one subscriber.
func (t *SubscriptionTable) URIs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.byURI))
	for uri := range t.byURI {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of URIs with subscribers.
func (t *SubscriptionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byURI)
}

// NotifyUpdated sends notifications/resources/updated to every subscriber of
// the URI. Sessions that have vanished from the registry are skipped, and a
// send failure to one subscriber never prevents delivery to the others.
func (t *SubscriptionTable) NotifyUpdated(ctx context.Context, uri string, registry *SessionRegistry, logger logging.Logger) {
	params := &protocol.ResourceUpdatedParams{URI: uri}

	g, gctx := errgroup.WithContext(ctx)
	for _, sessionID := range t.Subscribers(uri) {
		session, err := registry.Get(sessionID)
		if err != nil {
			continue
		}
		g.Go(func() error {
			if err := session.SendNotification(gctx, protocol.MethodNotificationResourceUpdated, params); err != nil {
				if logger != nil {
					logger.Warn("failed to notify subscriber of resource update",
						logging.String("uri", uri),
						logging.String("session_id", session.ID()),
						logging.ErrorField(err))
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}
