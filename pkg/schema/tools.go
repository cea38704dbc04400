package schema

import jsonschema "github.com/google/jsonschema-go/jsonschema"

// Tool describes one callable tool, as returned by tools/list.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"inputSchema,omitempty"`
}

// ListToolsRequest is the params of tools/list.
type ListToolsRequest struct {
	PaginatedRequest
}

// ListToolsResult is the result of tools/list.
type ListToolsResult struct {
	PaginatedResult
	Tools []Tool `json:"tools"`
}

// CallToolRequest is the params of tools/call.
type CallToolRequest struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments,omitempty"`
}

// CallToolResult is the result of tools/call. A tool-level failure is
// reported via IsError=true with a descriptive Content, not a JSON-RPC
// error — only dispatch-level failures (unknown tool, bad schema) become
// JSON-RPC errors (spec.md §4.5, mirroring the teacher's
// handleCallTool split between dispatch errors and tool errors).
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}
