package mcpclient

import (
	"context"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListTools returns every tool the server exposes, paging through cursors
// until the server stops returning one, and caches the result by name for
// CallTool's pre-send validation (grounded on the teacher's ListTools).
func (c *Client) ListTools(ctx context.Context) ([]schema.Tool, error) {
	if err := c.session.RequireServerCapability("tools"); err != nil {
		return nil, err
	}

	var result []schema.Tool
	var cursor string
	for {
		var req schema.ListToolsRequest
		if cursor != "" {
			req.Cursor = cursor
		}

		raw, err := c.session.Request(ctx, schema.MethodToolsList, req)
		if err != nil {
			return nil, err
		}

		var page schema.ListToolsResult
		if err := jsonrpc.Decode(raw, &page); err != nil {
			return nil, mcp.ErrInternalServerError.Withf("decode tools/list result: %v", err)
		}
		result = append(result, page.Tools...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	c.mu.Lock()
	c.tools = make(map[string]*schema.Tool, len(result))
	for i := range result {
		c.tools[result[i].Name] = &result[i]
	}
	c.mu.Unlock()

	return result, nil
}

// CallTool invokes name with args, validating against the tool's cached
// input schema first. Tool-level failures are reported via
// CallToolResult.IsError rather than a Go error (spec.md §7); only
// dispatch-level failures (unknown tool, bad session state) return one.
func (c *Client) CallTool(ctx context.Context, name string, args any) (*schema.CallToolResult, error) {
	if err := c.session.RequireServerCapability("tools"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	tool, cached := c.tools[name]
	c.mu.Unlock()
	if !cached {
		if _, err := c.ListTools(ctx); err != nil {
			return nil, err
		}
		c.mu.Lock()
		tool = c.tools[name]
		c.mu.Unlock()
	}
	if tool == nil {
		return nil, mcp.ErrNotFound.Withf("tool %q not found", name)
	}
	if err := validateArgs(tool, args); err != nil {
		return nil, err
	}

	raw, err := c.session.Request(ctx, schema.MethodToolsCall, schema.CallToolRequest{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}

	var result schema.CallToolResult
	if err := jsonrpc.Decode(raw, &result); err != nil {
		return nil, mcp.ErrInternalServerError.Withf("decode tools/call result: %v", err)
	}
	return &result, nil
}
