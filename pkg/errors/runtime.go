package errors

import "fmt"

// SessionErrorData contains structured data for session-related errors.
type SessionErrorData struct {
	SessionID string `json:"session_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// RoundTripErrorData contains structured data for client round-trip failures.
type RoundTripErrorData struct {
	Method    string `json:"method"`
	SessionID string `json:"session_id,omitempty"`
	TimedOut  bool   `json:"timed_out"`
}

// ProviderErrorData contains structured data for provider-related errors.
type ProviderErrorData struct {
	ProviderType string `json:"provider_type"`
	Operation    string `json:"operation,omitempty"`
}

// CapabilityErrorData contains structured data for capability-related errors.
type CapabilityErrorData struct {
	Capability string `json:"capability"`
	Required   bool   `json:"required"`
}

// SessionNotFound creates an error for a session ID with no live session.
func SessionNotFound(sessionID string) MCPError {
	return NewError(
		CodeSessionNotFound,
		fmt.Sprintf("Session '%s' not found", sessionID),
		CategoryNotFound,
		SeverityWarning,
	).WithData(&SessionErrorData{SessionID: sessionID, Reason: "unknown session"})
}

// SessionDisconnected creates an error for a session that went away while an
// operation on it was outstanding.
func SessionDisconnected(sessionID string) MCPError {
	return NewError(
		CodeSessionDisconnected,
		"Session disconnected",
		CategoryTransport,
		SeverityWarning,
	).WithData(&SessionErrorData{SessionID: sessionID, Reason: "client disconnected"})
}

// RoundTripFailed creates an error for a failed server-to-client round-trip.
func RoundTripFailed(method, sessionID string, cause error) MCPError {
	return WrapError(
		cause,
		CodeRoundTripFailed,
		fmt.Sprintf("Client round-trip %s failed", method),
		CategoryRoundTrip,
		SeverityError,
	).WithData(&RoundTripErrorData{Method: method, SessionID: sessionID})
}

// RoundTripTimeout creates an error for a client round-trip that timed out.
func RoundTripTimeout(method, sessionID string) MCPError {
	return NewError(
		CodeRoundTripTimeout,
		fmt.Sprintf("Client round-trip %s timed out", method),
		CategoryTimeout,
		SeverityError,
	).WithData(&RoundTripErrorData{Method: method, SessionID: sessionID, TimedOut: true})
}

// ProviderNotConfigured creates an error for a missing provider.
func ProviderNotConfigured(providerType string) MCPError {
	return NewError(
		CodeProviderNotConfigured,
		fmt.Sprintf("No %s provider configured", providerType),
		CategoryProvider,
		SeverityError,
	).WithData(&ProviderErrorData{ProviderType: providerType})
}

// ProviderError wraps an error returned by a provider implementation.
func ProviderError(providerType, operation string, cause error) MCPError {
	return WrapError(
		cause,
		CodeProviderError,
		fmt.Sprintf("%s provider failed during %s", providerType, operation),
		CategoryProvider,
		SeverityError,
	).WithData(&ProviderErrorData{ProviderType: providerType, Operation: operation})
}

// CapabilityRequired creates an error for an operation that needs a
// capability the peer did not negotiate.
func CapabilityRequired(capability string) MCPError {
	return NewError(
		CodeCapabilityRequired,
		fmt.Sprintf("Capability '%s' is required for this operation", capability),
		CategoryValidation,
		SeverityError,
	).WithData(&CapabilityErrorData{Capability: capability, Required: true})
}

// MissingParameter creates an error for a required parameter that is absent.
func MissingParameter(name string) MCPError {
	return NewErrorf(
		CodeMissingParameter,
		CategoryValidation,
		SeverityError,
		"Required parameter '%s' is missing", name,
	)
}

// InvalidParameter creates an error for a parameter with an invalid value.
func InvalidParameter(name string, value interface{}, expected string) MCPError {
	return NewErrorf(
		CodeInvalidParameter,
		CategoryValidation,
		SeverityError,
		"Parameter '%s' has invalid value %v (expected %s)", name, value, expected,
	)
}

// MethodNotFound creates an error for an unknown protocol method.
func MethodNotFound(method string) MCPError {
	return NewErrorf(
		CodeMethodNotFound,
		CategoryProtocol,
		SeverityError,
		"Method '%s' not found", method,
	)
}

// CreateInternalError wraps an unexpected failure as an internal error.
func CreateInternalError(operation string, cause error) MCPError {
	return WrapError(
		cause,
		CodeInternalError,
		fmt.Sprintf("Internal error during %s", operation),
		CategoryInternal,
		SeverityError,
	)
}

// OperationCancelled creates an error for a cancelled operation.
func OperationCancelled(operation string) MCPError {
	return NewErrorf(
		CodeOperationCancelled,
		CategoryCancelled,
		SeverityInfo,
		"Operation %s was cancelled", operation,
	)
}
