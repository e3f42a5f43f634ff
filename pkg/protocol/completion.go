package protocol

// CompletionReference identifies what a completion request is completing
// against: a prompt (by name) or a resource template (by URI).
type CompletionReference struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

// CompletionArgument is the argument being completed.
type CompletionArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompleteParams defines parameters for the completion/complete request.
type CompleteParams struct {
	Ref      CompletionReference `json:"ref"`
	Argument CompletionArgument  `json:"argument"`
}

// Completion carries completion values for one argument.
type Completion struct {
	Values  []string `json:"values"`
	Total   int      `json:"total"`
	HasMore bool     `json:"hasMore"`
}

// CompleteResult defines the response to completion/complete.
type CompleteResult struct {
	Completion Completion `json:"completion"`
}

// EmptyCompletion returns the zero-value completion result used when no
// completion provider is installed.
func EmptyCompletion() *CompleteResult {
	return &CompleteResult{Completion: Completion{Values: []string{}, Total: 0, HasMore: false}}
}
