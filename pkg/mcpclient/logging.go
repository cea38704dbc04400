package mcpclient

import (
	"context"

	schema "github.com/mutablelogic/go-mcp/pkg/schema"
)

// SetLoggingLevel asks the server to stop emitting notifications/message
// below level (spec.md §6).
func (c *Client) SetLoggingLevel(ctx context.Context, level schema.LoggingLevel) error {
	if err := c.session.RequireServerCapability("logging"); err != nil {
		return err
	}
	_, err := c.session.Request(ctx, schema.MethodLoggingSetLevel, schema.SetLevelRequest{Level: level})
	return err
}

// Ping issues a liveness check to the peer.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.session.Request(ctx, schema.MethodPing, nil)
	return err
}
