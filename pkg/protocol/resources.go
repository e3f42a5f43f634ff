package protocol

// Resource describes a URI-addressed piece of content the server exposes.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// ResourceTemplate describes a parameterized resource URI.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContents holds the contents of a single resource read.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// ListResourcesParams defines parameters for the resources/list request.
type ListResourcesParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListResourcesResult defines the response to resources/list.
type ListResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// ReadResourceParams defines parameters for the resources/read request.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ReadResourceResult defines the response to resources/read.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// SubscribeParams defines parameters for the resources/subscribe request.
type SubscribeParams struct {
	URI string `json:"uri"`
}

// SubscribeResult is the (empty) response to resources/subscribe.
type SubscribeResult struct{}

// UnsubscribeParams defines parameters for the resources/unsubscribe request.
type UnsubscribeParams struct {
	URI string `json:"uri"`
}

// UnsubscribeResult is the (empty) response to resources/unsubscribe.
type UnsubscribeResult struct{}

// ResourceUpdatedParams defines parameters for the
// notifications/resources/updated notification.
type ResourceUpdatedParams struct {
	URI string `json:"uri"`
}
