package server

import (
	"context"
	"sort"
	"strconv"
	"sync"

	mcperrors "github.com/mcp-use/mcp-go/pkg/errors"
	"github.com/mcp-use/mcp-go/pkg/protocol"
)

// ToolsProvider supplies the server's tools.
type ToolsProvider interface {
	ListTools(ctx context.Context, cursor string) ([]protocol.Tool, string, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error)
}

// ResourcesProvider supplies the server's resources.
type ResourcesProvider interface {
	ListResources(ctx context.Context, cursor string) ([]protocol.Resource, string, error)
	ReadResource(ctx context.Context, uri string) ([]protocol.ResourceContents, error)
}

// PromptsProvider supplies the server's prompts.
type PromptsProvider interface {
	ListPrompts(ctx context.Context, cursor string) ([]protocol.Prompt, string, error)
	GetPrompt(ctx context.Context, name string, args map[string]string) (*protocol.GetPromptResult, error)
}

// CompletionProvider supplies argument completions for prompts and resource
// templates. Without one, completion/complete answers with an empty set.
type CompletionProvider interface {
	Complete(ctx context.Context, ref protocol.CompletionReference, arg protocol.CompletionArgument) (*protocol.Completion, error)
}

// defaultPageSize bounds list results when a provider uses paginate.
const defaultPageSize = 50

// paginate slices sorted names into a cursor-addressed page. The cursor is
// the decimal offset of the page start; an empty next cursor means the end.
func paginate(total int, cursor string) (start, end int, next string, err error) {
	start = 0
	if cursor != "" {
		start, err = strconv.Atoi(cursor)
		if err != nil || start < 0 || start > total {
			return 0, 0, "", mcperrors.InvalidParameter("cursor", cursor, "opaque cursor from a previous result")
		}
	}
	end = start + defaultPageSize
	if end >= total {
		return start, total, "", nil
	}
	return start, end, strconv.Itoa(end), nil
}

// ToolFunc executes a registered tool.
type ToolFunc func(ctx context.Context, args map[string]interface{}) (*protocol.CallToolResult, error)

// BaseToolsProvider is an in-memory ToolsProvider keyed by tool name.
type BaseToolsProvider struct {
	mu       sync.RWMutex
	tools    map[string]protocol.Tool
	handlers map[string]ToolFunc
}

// NewBaseToolsProvider creates an empty provider.
func NewBaseToolsProvider() *BaseToolsProvider {
	return &BaseToolsProvider{
		tools:    make(map[string]protocol.Tool),
		handlers: make(map[string]ToolFunc),
	}
}

// RegisterTool adds or replaces a tool and its handler.
func (p *BaseToolsProvider) RegisterTool(tool protocol.Tool, handler ToolFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tools[tool.Name] = tool
	p.handlers[tool.Name] = handler
}

// ListTools implements ToolsProvider with name-sorted cursor pagination.
func (p *BaseToolsProvider) ListTools(ctx context.Context, cursor string) ([]protocol.Tool, string, error) {
	p.mu.RLock()
	names := make([]string, 0, len(p.tools))
	for name := range p.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	start, end, next, err := paginate(len(names), cursor)
	if err != nil {
		p.mu.RUnlock()
		return nil, "", err
	}
	out := make([]protocol.Tool, 0, end-start)
	for _, name := range names[start:end] {
		out = append(out, p.tools[name])
	}
	p.mu.RUnlock()
	return out, next, nil
}

// CallTool implements ToolsProvider.
func (p *BaseToolsProvider) CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error) {
	p.mu.RLock()
	handler, ok := p.handlers[name]
	p.mu.RUnlock()
	if !ok {
		return nil, mcperrors.InvalidParameter("name", name, "a registered tool name")
	}
	return handler(ctx, args)
}

// BaseResourcesProvider is an in-memory ResourcesProvider keyed by URI.
type BaseResourcesProvider struct {
	mu        sync.RWMutex
	resources map[string]protocol.Resource
	contents  map[string][]protocol.ResourceContents
}

// NewBaseResourcesProvider creates an empty provider.
func NewBaseResourcesProvider() *BaseResourcesProvider {
	return &BaseResourcesProvider{
		resources: make(map[string]protocol.Resource),
		contents:  make(map[string][]protocol.ResourceContents),
	}
}

// RegisterResource adds or replaces a resource and its contents.
func (p *BaseResourcesProvider) RegisterResource(resource protocol.Resource, contents []protocol.ResourceContents) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resources[resource.URI] = resource
	p.contents[resource.URI] = contents
}

// UpdateResource replaces a registered resource's contents. Returns false
// when the URI is unknown.
func (p *BaseResourcesProvider) UpdateResource(uri string, contents []protocol.ResourceContents) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.resources[uri]; !ok {
		return false
	}
	p.contents[uri] = contents
	return true
}

// ListResources implements ResourcesProvider with URI-sorted pagination.
func (p *BaseResourcesProvider) ListResources(ctx context.Context, cursor string) ([]protocol.Resource, string, error) {
	p.mu.RLock()
	uris := make([]string, 0, len(p.resources))
	for uri := range p.resources {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	start, end, next, err := paginate(len(uris), cursor)
	if err != nil {
		p.mu.RUnlock()
		return nil, "", err
	}
	out := make([]protocol.Resource, 0, end-start)
	for _, uri := range uris[start:end] {
		out = append(out, p.resources[uri])
	}
	p.mu.RUnlock()
	return out, next, nil
}

// ReadResource implements ResourcesProvider.
func (p *BaseResourcesProvider) ReadResource(ctx context.Context, uri string) ([]protocol.ResourceContents, error) {
	p.mu.RLock()
	contents, ok := p.contents[uri]
	p.mu.RUnlock()
	if !ok {
		return nil, mcperrors.NewErrorf(
			mcperrors.CodeResourceNotFound,
			mcperrors.CategoryNotFound,
			mcperrors.SeverityWarning,
			"Resource '%s' not found", uri,
		)
	}
	return contents, nil
}

// PromptFunc renders a registered prompt.
type PromptFunc func(ctx context.Context, args map[string]string) (*protocol.GetPromptResult, error)

// BasePromptsProvider is an in-memory PromptsProvider keyed by prompt name.
type BasePromptsProvider struct {
	mu       sync.RWMutex
	prompts  map[string]protocol.Prompt
	handlers map[string]PromptFunc
}

// NewBasePromptsProvider creates an empty provider.
func NewBasePromptsProvider() *BasePromptsProvider {
	return &BasePromptsProvider{
		prompts:  make(map[string]protocol.Prompt),
		handlers: make(map[string]PromptFunc),
	}
}

// RegisterPrompt adds or replaces a prompt and its renderer.
func (p *BasePromptsProvider) RegisterPrompt(prompt protocol.Prompt, handler PromptFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts[prompt.Name] = prompt
	p.handlers[prompt.Name] = handler
}

// ListPrompts implements PromptsProvider with name-sorted pagination.
func (p *BasePromptsProvider) ListPrompts(ctx context.Context, cursor string) ([]protocol.Prompt, string, error) {
	p.mu.RLock()
	names := make([]string, 0, len(p.prompts))
	for name := range p.prompts {
		names = append(names, name)
	}
	sort.Strings(names)

	start, end, next, err := paginate(len(names), cursor)
	if err != nil {
		p.mu.RUnlock()
		return nil, "", err
	}
	out := make([]protocol.Prompt, 0, end-start)
	for _, name := range names[start:end] {
		out = append(out, p.prompts[name])
	}
	p.mu.RUnlock()
	return out, next, nil
}

// GetPrompt implements PromptsProvider.
func (p *BasePromptsProvider) GetPrompt(ctx context.Context, name string, args map[string]string) (*protocol.GetPromptResult, error) {
	p.mu.RLock()
	handler, ok := p.handlers[name]
	p.mu.RUnlock()
	if !ok {
		return nil, mcperrors.InvalidParameter("name", name, "a registered prompt name")
	}
	return handler(ctx, args)
}
