package errors

// JSON-RPC 2.0 standard error codes.
const (
	// CodeParseError indicates invalid JSON was received by the server.
	CodeParseError int = -32700

	// CodeInvalidRequest indicates the JSON sent is not a valid Request object.
	CodeInvalidRequest int = -32600

	// CodeMethodNotFound indicates the method does not exist / is not available.
	CodeMethodNotFound int = -32601

	// CodeInvalidParams indicates invalid method parameter(s).
	CodeInvalidParams int = -32602

	// CodeInternalError indicates an internal JSON-RPC error.
	CodeInternalError int = -32603
)

// MCP runtime error codes.
const (
	// Server state errors (-32000 to -32099)
	CodeServerInitError int = -32000 // Error during server initialization
	CodeServerNotReady  int = -32001 // Server not ready to handle requests

	// Session errors (-32100 to -32199)
	CodeSessionNotFound     int = -32100 // No session resolvable for the request
	CodeSessionDisconnected int = -32101 // Session went away mid-operation

	// Resource errors (-32200 to -32299)
	CodeResourceNotFound int = -32200 // Requested resource not found

	// Operation errors (-32300 to -32399)
	CodeOperationCancelled int = -32300 // Operation was cancelled
	CodeOperationTimeout   int = -32301 // Operation timed out

	// Capability errors (-32400 to -32499)
	CodeCapabilityRequired int = -32401 // Required capability not enabled

	// Round-trip errors (-32500 to -32599)
	CodeRoundTripFailed  int = -32500 // Client round-trip failed
	CodeRoundTripTimeout int = -32501 // Client round-trip timed out

	// Provider errors (-32650 to -32699)
	CodeProviderNotConfigured int = -32650 // Provider not configured
	CodeProviderError         int = -32652 // Provider-specific error

	// Validation errors (-32750 to -32799)
	CodeMissingParameter int = -32751 // Required parameter missing
	CodeInvalidParameter int = -32752 // Parameter has invalid value
)

// codeCategories maps runtime error codes to their default category.
var codeCategories = map[int]Category{
	CodeParseError:            CategoryProtocol,
	CodeInvalidRequest:        CategoryProtocol,
	CodeMethodNotFound:        CategoryProtocol,
	CodeInvalidParams:         CategoryValidation,
	CodeInternalError:         CategoryInternal,
	CodeServerInitError:       CategoryInternal,
	CodeServerNotReady:        CategoryInternal,
	CodeSessionNotFound:       CategoryNotFound,
	CodeSessionDisconnected:   CategoryTransport,
	CodeResourceNotFound:      CategoryNotFound,
	CodeOperationCancelled:    CategoryCancelled,
	CodeOperationTimeout:      CategoryTimeout,
	CodeCapabilityRequired:    CategoryValidation,
	CodeRoundTripFailed:       CategoryRoundTrip,
	CodeRoundTripTimeout:      CategoryRoundTrip,
	CodeProviderNotConfigured: CategoryProvider,
	CodeProviderError:         CategoryProvider,
	CodeMissingParameter:      CategoryValidation,
	CodeInvalidParameter:      CategoryValidation,
}

// CategoryForCode returns the default category for a runtime error code.
func CategoryForCode(code int) Category {
	if cat, ok := codeCategories[code]; ok {
		return cat
	}
	return CategoryInternal
}
