package mcpclient

import (
	"context"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
)

// Complete asks the server to complete argument against ref (a prompt or
// resource reference), e.g. for shell-style tab completion in a host CLI.
func (c *Client) Complete(ctx context.Context, ref schema.CompleteReference, argument schema.CompleteArgument) (*schema.CompleteResult, error) {
	if err := c.session.RequireServerCapability("completions"); err != nil {
		return nil, err
	}

	raw, err := c.session.Request(ctx, schema.MethodCompletionComplete, schema.CompleteRequest{
		Ref:      ref,
		Argument: argument,
	})
	if err != nil {
		return nil, err
	}

	var result schema.CompleteResult
	if err := jsonrpc.Decode(raw, &result); err != nil {
		return nil, mcp.ErrInternalServerError.Withf("decode completion/complete result: %v", err)
	}
	return &result, nil
}
