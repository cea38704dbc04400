package mcpclient

import (
	"context"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListPrompts pages through prompts/list until the server stops returning
// a cursor.
func (c *Client) ListPrompts(ctx context.Context) ([]schema.Prompt, error) {
	if err := c.session.RequireServerCapability("prompts"); err != nil {
		return nil, err
	}

	var result []schema.Prompt
	var cursor string
	for {
		var req schema.ListPromptsRequest
		req.Cursor = cursor

		raw, err := c.session.Request(ctx, schema.MethodPromptsList, req)
		if err != nil {
			return nil, err
		}

		var page schema.ListPromptsResult
		if err := jsonrpc.Decode(raw, &page); err != nil {
			return nil, mcp.ErrInternalServerError.Withf("decode prompts/list result: %v", err)
		}
		result = append(result, page.Prompts...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return result, nil
}

// GetPrompt renders the named prompt template with the given arguments.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*schema.GetPromptResult, error) {
	if err := c.session.RequireServerCapability("prompts"); err != nil {
		return nil, err
	}

	raw, err := c.session.Request(ctx, schema.MethodPromptsGet, schema.GetPromptRequest{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}

	var result schema.GetPromptResult
	if err := jsonrpc.Decode(raw, &result); err != nil {
		return nil, mcp.ErrInternalServerError.Withf("decode prompts/get result: %v", err)
	}
	return &result, nil
}
