package protocol

import "encoding/json"

// SamplingMessage is one role-tagged message in a sampling conversation.
type SamplingMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// UserMessage coerces plain text into a user-role sampling message.
func UserMessage(text string) SamplingMessage {
	return SamplingMessage{Role: "user", Content: TextContent(text)}
}

// ModelHint names a model the server would prefer the client to use.
type ModelHint struct {
	Name string `json:"name,omitempty"`
}

// ModelPreferences expresses how the client should pick a model for a
// sampling request. All fields are advisory.
type ModelPreferences struct {
	Hints                []ModelHint `json:"hints,omitempty"`
	CostPriority         float64     `json:"costPriority,omitempty"`
	SpeedPriority        float64     `json:"speedPriority,omitempty"`
	IntelligencePriority float64     `json:"intelligencePriority,omitempty"`
}

// CreateMessageParams defines parameters for the sampling/createMessage
// request the server sends toward the client.
type CreateMessageParams struct {
	Messages         []SamplingMessage      `json:"messages"`
	MaxTokens        int                    `json:"maxTokens"`
	SystemPrompt     string                 `json:"systemPrompt,omitempty"`
	IncludeContext   string                 `json:"includeContext,omitempty"`
	Temperature      *float64               `json:"temperature,omitempty"`
	StopSequences    []string               `json:"stopSequences,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	ModelPreferences *ModelPreferences      `json:"modelPreferences,omitempty"`
}

// CreateMessageResult defines the client's response to sampling/createMessage.
type CreateMessageResult struct {
	Role       string  `json:"role"`
	Content    Content `json:"content"`
	Model      string  `json:"model,omitempty"`
	StopReason string  `json:"stopReason,omitempty"`
}

// Root is one filesystem root the client exposes to the server.
type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

// ListRootsParams defines parameters for the roots/list request. Empty by
// specification.
type ListRootsParams struct{}

// ListRootsResult defines the client's response to roots/list.
type ListRootsResult struct {
	Roots []Root `json:"roots"`
}

// ElicitAction tags the outcome of an elicitation round-trip.
type ElicitAction string

const (
	ElicitActionAccept  ElicitAction = "accept"
	ElicitActionDecline ElicitAction = "decline"
	ElicitActionCancel  ElicitAction = "cancel"
)

// PrimitiveSchemaDefinition is a single flat property in an elicitation
// schema. Only primitive types are allowed on the wire.
type PrimitiveSchemaDefinition struct {
	Type        string        `json:"type"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Default     interface{}   `json:"default,omitempty"`
	Enum        []interface{} `json:"enum,omitempty"`
	Minimum     *float64      `json:"minimum,omitempty"`
	Maximum     *float64      `json:"maximum,omitempty"`
}

// ElicitationSchema is the restricted JSON-Schema shape elicitation requests
// carry: a flat object of primitive properties.
type ElicitationSchema struct {
	Type       string                               `json:"type"`
	Properties map[string]PrimitiveSchemaDefinition `json:"properties"`
	Required   []string                             `json:"required,omitempty"`
}

// ElicitParams defines parameters for the elicitation/create request the
// server sends toward the client.
type ElicitParams struct {
	Message         string            `json:"message"`
	RequestedSchema ElicitationSchema `json:"requestedSchema"`
}

// ElicitResult defines the client's response to elicitation/create. Content
// is present only when Action is accept.
type ElicitResult struct {
	Action  ElicitAction    `json:"action"`
	Content json.RawMessage `json:"content,omitempty"`
}
