package mcpclient

import (
	"context"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListResources pages through resources/list until the server stops
// returning a cursor (spec.md §4.4).
func (c *Client) ListResources(ctx context.Context) ([]schema.Resource, error) {
	if err := c.session.RequireServerCapability("resources"); err != nil {
		return nil, err
	}

	var result []schema.Resource
	var cursor string
	for {
		var req schema.ListResourcesRequest
		req.Cursor = cursor

		raw, err := c.session.Request(ctx, schema.MethodResourcesList, req)
		if err != nil {
			return nil, err
		}

		var page schema.ListResourcesResult
		if err := jsonrpc.Decode(raw, &page); err != nil {
			return nil, mcp.ErrInternalServerError.Withf("decode resources/list result: %v", err)
		}
		result = append(result, page.Resources...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return result, nil
}

// ListResourceTemplates pages through resources/templates/list.
func (c *Client) ListResourceTemplates(ctx context.Context) ([]schema.ResourceTemplate, error) {
	if err := c.session.RequireServerCapability("resources"); err != nil {
		return nil, err
	}

	var result []schema.ResourceTemplate
	var cursor string
	for {
		var req schema.ListResourceTemplatesRequest
		req.Cursor = cursor

		raw, err := c.session.Request(ctx, schema.MethodResourcesTemplates, req)
		if err != nil {
			return nil, err
		}

		var page schema.ListResourceTemplatesResult
		if err := jsonrpc.Decode(raw, &page); err != nil {
			return nil, mcp.ErrInternalServerError.Withf("decode resources/templates/list result: %v", err)
		}
		result = append(result, page.ResourceTemplates...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return result, nil
}

// ReadResource fetches the contents of uri.
func (c *Client) ReadResource(ctx context.Context, uri string) (*schema.ReadResourceResult, error) {
	if err := c.session.RequireServerCapability("resources"); err != nil {
		return nil, err
	}

	raw, err := c.session.Request(ctx, schema.MethodResourcesRead, schema.ReadResourceRequest{URI: uri})
	if err != nil {
		return nil, err
	}

	var result schema.ReadResourceResult
	if err := jsonrpc.Decode(raw, &result); err != nil {
		return nil, mcp.ErrInternalServerError.Withf("decode resources/read result: %v", err)
	}
	return &result, nil
}

// Subscribe registers interest in change notifications for uri (spec.md
// §3's Subscription lifecycle). The server must have declared
// resources.subscribe.
func (c *Client) Subscribe(ctx context.Context, uri string) error {
	if err := c.session.RequireServerCapability("resources.subscribe"); err != nil {
		return err
	}
	_, err := c.session.Request(ctx, schema.MethodResourcesSubscribe, schema.SubscribeRequest{URI: uri})
	return err
}

// Unsubscribe removes a prior Subscribe (invariant 8: subscribe then
// unsubscribe leaves the subscription set unchanged).
func (c *Client) Unsubscribe(ctx context.Context, uri string) error {
	if err := c.session.RequireServerCapability("resources.subscribe"); err != nil {
		return err
	}
	_, err := c.session.Request(ctx, schema.MethodResourcesUnsubscribe, schema.UnsubscribeRequest{URI: uri})
	return err
}
