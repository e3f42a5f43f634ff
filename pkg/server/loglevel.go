package server

import (
	"sync"

	"github.com/mcp-use/mcp-go/pkg/protocol"
)

// LevelGate is the client-controlled threshold for notifications/message.
// The client moves it with logging/setLevel; every Context.Log call is
// checked against it before anything goes on the wire.
//
// The zero threshold is debug, so a client that never calls setLevel
// receives every message.
type LevelGate struct {
	mu    sync.RWMutex
	level protocol.LogLevel
}

// NewLevelGate creates a gate at the debug threshold.
func NewLevelGate() *LevelGate {
	return &LevelGate{level: protocol.LogLevelDebug}
}

// SetLevel moves the threshold. Last write wins under concurrency.
func (g *LevelGate) SetLevel(level protocol.LogLevel) {
	g.mu.Lock()
	g.level = level
	g.mu.Unlock()
}

// Level returns the current threshold.
func (g *LevelGate) Level() protocol.LogLevel {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.level
}

// ShouldEmit reports whether a message at the given level passes the gate.
// Severity is compared by rank, so an unknown threshold admits everything.
func (g *LevelGate) ShouldEmit(level protocol.LogLevel) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return level.Rank() >= g.level.Rank()
}
