package protocol

import "encoding/json"

// Implementation describes the name and version of an MCP implementation.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities describes the feature set a client declares during the
// initialize handshake.
type ClientCapabilities struct {
	Roots        *RootsCapability       `json:"roots,omitempty"`
	Sampling     *SamplingCapability    `json:"sampling,omitempty"`
	Elicitation  *ElicitationCapability `json:"elicitation,omitempty"`
	Experimental map[string]interface{} `json:"experimental,omitempty"`
}

// RootsCapability declares client-side root listing support.
type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// SamplingCapability declares client-side sampling support.
type SamplingCapability struct{}

// ElicitationCapability declares client-side elicitation support.
type ElicitationCapability struct{}

// ServerCapabilities describes the feature set a server advertises in its
// initialize result.
type ServerCapabilities struct {
	Tools        *ToolsServerCapability     `json:"tools,omitempty"`
	Resources    *ResourcesServerCapability `json:"resources,omitempty"`
	Prompts      *PromptsServerCapability   `json:"prompts,omitempty"`
	Logging      *LoggingServerCapability   `json:"logging,omitempty"`
	Completions  *CompletionsCapability     `json:"completions,omitempty"`
	Experimental map[string]interface{}     `json:"experimental,omitempty"`
}

// ToolsServerCapability advertises the tools feature.
type ToolsServerCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ResourcesServerCapability advertises the resources feature.
type ResourcesServerCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// PromptsServerCapability advertises the prompts feature.
type PromptsServerCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// LoggingServerCapability advertises the logging feature.
type LoggingServerCapability struct{}

// CompletionsCapability advertises argument completion support.
type CompletionsCapability struct{}

// InitializeParams defines parameters for the initialize request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult defines the response to the initialize request.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// PingParams defines parameters for the ping request. They are empty by
// specification but kept as a struct for symmetry with other methods.
type PingParams struct{}

// PingResult is the (empty) response to a ping request.
type PingResult struct{}

// CancelledParams defines parameters for the notifications/cancelled
// notification.
type CancelledParams struct {
	RequestID interface{} `json:"requestId"`
	Reason    string      `json:"reason,omitempty"`
}

// ProgressParams defines parameters for the notifications/progress
// notification.
type ProgressParams struct {
	ProgressToken interface{} `json:"progressToken"`
	Progress      float64     `json:"progress"`
	Total         float64     `json:"total,omitempty"`
	Message       string      `json:"message,omitempty"`
}

// LogLevel specifies the severity of a log message. The eight levels follow
// RFC 5424 syslog severities, lowest to highest.
type LogLevel string

const (
	LogLevelDebug     LogLevel = "debug"
	LogLevelInfo      LogLevel = "info"
	LogLevelNotice    LogLevel = "notice"
	LogLevelWarning   LogLevel = "warning"
	LogLevelError     LogLevel = "error"
	LogLevelCritical  LogLevel = "critical"
	LogLevelAlert     LogLevel = "alert"
	LogLevelEmergency LogLevel = "emergency"
)

// logLevelRanks orders the RFC 5424 levels from least to most severe.
var logLevelRanks = map[LogLevel]int{
	LogLevelDebug:     0,
	LogLevelInfo:      1,
	LogLevelNotice:    2,
	LogLevelWarning:   3,
	LogLevelError:     4,
	LogLevelCritical:  5,
	LogLevelAlert:     6,
	LogLevelEmergency: 7,
}

// Rank returns the numeric severity rank of the level. An unrecognized level
// ranks 0 (the same as debug), so a garbage level name never silently blocks
// all log delivery.
func (l LogLevel) Rank() int {
	return logLevelRanks[l]
}

// Valid reports whether the level is one of the eight RFC 5424 names.
func (l LogLevel) Valid() bool {
	_, ok := logLevelRanks[l]
	return ok
}

// LogLevels lists all valid levels in severity order.
func LogLevels() []LogLevel {
	return []LogLevel{
		LogLevelDebug, LogLevelInfo, LogLevelNotice, LogLevelWarning,
		LogLevelError, LogLevelCritical, LogLevelAlert, LogLevelEmergency,
	}
}

// SetLevelParams defines parameters for the logging/setLevel request.
type SetLevelParams struct {
	Level LogLevel `json:"level"`
}

// SetLevelResult is the (empty) response to logging/setLevel.
type SetLevelResult struct{}

// LogMessageParams defines parameters for the notifications/message
// notification carrying a server log line to the client.
type LogMessageParams struct {
	Level  LogLevel        `json:"level"`
	Logger string          `json:"logger,omitempty"`
	Data   json.RawMessage `json:"data"`
	// RelatedRequestID correlates the log line with the request whose
	// handler emitted it.
	RelatedRequestID interface{} `json:"relatedRequestId,omitempty"`
}
