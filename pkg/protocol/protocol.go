// Package protocol defines the JSON-RPC 2.0 framing and the MCP message types
// exchanged between clients and servers. It contains no I/O: transports frame
// and deliver these messages, the server package dispatches them.
package protocol

// ProtocolVersion is the MCP protocol revision implemented by this module.
const ProtocolVersion = "2025-03-26"

// Request methods handled by a server.
const (
	MethodInitialize = "initialize"
	MethodPing       = "ping"

	MethodToolsList = "tools/list"
	MethodToolsCall = "tools/call"

	MethodResourcesList        = "resources/list"
	MethodResourcesRead        = "resources/read"
	MethodResourcesSubscribe   = "resources/subscribe"
	MethodResourcesUnsubscribe = "resources/unsubscribe"

	MethodPromptsList = "prompts/list"
	MethodPromptsGet  = "prompts/get"

	MethodLoggingSetLevel    = "logging/setLevel"
	MethodCompletionComplete = "completion/complete"
)

// Request methods a server sends to the client.
const (
	MethodSamplingCreateMessage = "sampling/createMessage"
	MethodRootsList             = "roots/list"
	MethodElicitationCreate     = "elicitation/create"
)

// Notification methods.
const (
	MethodNotificationInitialized          = "notifications/initialized"
	MethodNotificationCancelled            = "notifications/cancelled"
	MethodNotificationProgress             = "notifications/progress"
	MethodNotificationMessage              = "notifications/message"
	MethodNotificationResourceUpdated      = "notifications/resources/updated"
	MethodNotificationToolsListChanged     = "notifications/tools/list_changed"
	MethodNotificationResourcesListChanged = "notifications/resources/list_changed"
	MethodNotificationPromptsListChanged   = "notifications/prompts/list_changed"
)
