package logging

import "fmt"

// LegacyAdapter adapts the structured logger to a printf-style interface for
// callers that predate structured fields.
type LegacyAdapter struct {
	logger Logger
}

// NewLegacyAdapter creates a new legacy adapter.
func NewLegacyAdapter(logger Logger) *LegacyAdapter {
	return &LegacyAdapter{logger: logger}
}

// Debug logs a debug message using printf-style formatting.
func (a *LegacyAdapter) Debug(msg string, args ...interface{}) {
	a.logger.Debug(fmt.Sprintf(msg, args...))
}

// Info logs an info message using printf-style formatting.
func (a *LegacyAdapter) Info(msg string, args ...interface{}) {
	a.logger.Info(fmt.Sprintf(msg, args...))
}

// Warn logs a warning message using printf-style formatting.
func (a *LegacyAdapter) Warn(msg string, args ...interface{}) {
	a.logger.Warn(fmt.Sprintf(msg, args...))
}

// Error logs an error message using printf-style formatting.
func (a *LegacyAdapter) Error(msg string, args ...interface{}) {
	a.logger.Error(fmt.Sprintf(msg, args...))
}
