// Package mcpclient is the client-role façade over pkg/session: it drives
// the initialize handshake, caches the negotiated server capabilities and
// tool schemas, and exposes one typed method per MCP operation a host
// calls on a tool provider.
package mcpclient

import (
	"context"
	"encoding/json"
	"sync"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
	session "github.com/mutablelogic/go-mcp/pkg/session"
	transport "github.com/mutablelogic/go-mcp/pkg/transport"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Client is an MCP client bound to a single transport and session.
type Client struct {
	session *session.Session
	info    schema.Implementation
	caps    schema.ClientCapabilities

	mu     sync.Mutex
	tools  map[string]*schema.Tool
	server schema.InitializeResult

	roots             func(ctx context.Context) ([]schema.Root, error)
	sampling          func(ctx context.Context, req schema.CreateMessageRequest) (*schema.CreateMessageResult, error)
	onLogging         func(level schema.LoggingLevel, logger string, data any)
	onProgress        func(token any, progress, total float64)
	onResourceUpdated func(uri string)
	onNotification    func(method string, params json.RawMessage)
}

// Opt configures a Client at construction.
type Opt func(*Client) error

// WithCapabilities declares which optional client capabilities this client
// advertises at initialize time (spec.md §4.3.4).
func WithCapabilities(caps schema.ClientCapabilities) Opt {
	return func(c *Client) error {
		c.caps = caps
		return nil
	}
}

// WithRootsHandler registers the callback answering the server's
// roots/list requests. Declaring it implies RootsCaps in Capabilities if
// the caller hasn't already set one explicitly.
func WithRootsHandler(fn func(ctx context.Context) ([]schema.Root, error)) Opt {
	return func(c *Client) error {
		c.roots = fn
		if c.caps.Roots == nil {
			c.caps.Roots = &schema.RootsCaps{}
		}
		return nil
	}
}

// WithSamplingHandler registers the callback answering the server's
// sampling/createMessage requests.
func WithSamplingHandler(fn func(ctx context.Context, req schema.CreateMessageRequest) (*schema.CreateMessageResult, error)) Opt {
	return func(c *Client) error {
		c.sampling = fn
		if c.caps.Sampling == nil {
			c.caps.Sampling = &schema.SamplingCaps{}
		}
		return nil
	}
}

// WithLoggingHandler registers a callback invoked for every
// notifications/message the server sends.
func WithLoggingHandler(fn func(level schema.LoggingLevel, logger string, data any)) Opt {
	return func(c *Client) error {
		c.onLogging = fn
		return nil
	}
}

// WithProgressHandler registers a callback invoked for every
// notifications/progress the server sends.
func WithProgressHandler(fn func(token any, progress, total float64)) Opt {
	return func(c *Client) error {
		c.onProgress = fn
		return nil
	}
}

// WithResourceUpdatedHandler registers a callback invoked for every
// notifications/resources/updated the server sends for a subscribed URI
// (SPEC_FULL supplement 3 — see DESIGN.md).
func WithResourceUpdatedHandler(fn func(uri string)) Opt {
	return func(c *Client) error {
		c.onResourceUpdated = fn
		return nil
	}
}

// WithNotificationHandler registers a catch-all callback invoked for
// every inbound notification, in addition to any typed handler above;
// useful for a host that just wants to log/display raw traffic (e.g.
// cmd/mcp-client).
func WithNotificationHandler(fn func(method string, params json.RawMessage)) Opt {
	return func(c *Client) error {
		c.onNotification = fn
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New constructs a Client over t, identifying itself with info. The
// client is not yet connected; call Initialize to run the handshake.
func New(t transport.Transport, info schema.Implementation, opts ...Opt) (*Client, error) {
	c := &Client{info: info}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	sessOpts := []session.Opt{}
	sess, err := session.New(session.RoleClient, t, sessOpts...)
	if err != nil {
		return nil, err
	}
	c.session = sess
	c.registerHandlers()
	return c, nil
}

// Initialize starts the transport and runs the initialize/initialized
// handshake (spec.md §4.3.4, scenario S1). It must be called exactly once
// before any other operation.
func (c *Client) Initialize(ctx context.Context) (*schema.InitializeResult, error) {
	if err := c.session.Start(ctx); err != nil {
		return nil, err
	}

	raw, err := c.session.Request(ctx, schema.MethodInitialize, schema.InitializeRequest{
		ProtocolVersion: schema.ProtocolVersion,
		Capabilities:    c.caps,
		ClientInfo:      c.info,
	})
	if err != nil {
		return nil, err
	}

	var result schema.InitializeResult
	if err := jsonrpc.Decode(raw, &result); err != nil {
		return nil, mcp.ErrInternalServerError.Withf("decode initialize result: %v", err)
	}

	c.mu.Lock()
	c.server = result
	c.mu.Unlock()
	c.session.SetPeerCapabilities(&result.Capabilities)
	c.session.SetPeerInfo(result.ServerInfo)
	c.session.MarkReady()

	if err := c.session.Notify(ctx, schema.MethodInitialized, nil); err != nil {
		return nil, err
	}

	return &result, nil
}

// ServerInfo returns the capabilities and implementation info recorded by
// the last successful Initialize call.
func (c *Client) ServerInfo() schema.InitializeResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server
}

// Close terminates the session and underlying transport.
func (c *Client) Close() error {
	return c.session.Close()
}

// validateArgs checks args against tool's declared input schema, mirroring
// the pre-send validation a host performs before tools/call (grounded on
// the teacher's validateToolCall).
func validateArgs(tool *schema.Tool, args any) error {
	if tool == nil || tool.InputSchema == nil {
		return nil
	}
	resolved, err := tool.InputSchema.Resolve(nil)
	if err != nil {
		return mcp.ErrBadParameter.Withf("invalid input schema for tool %q: %v", tool.Name, err)
	}

	var value any
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return mcp.ErrBadParameter.Withf("marshal arguments for tool %q: %v", tool.Name, err)
		}
		if err := json.Unmarshal(raw, &value); err != nil {
			return mcp.ErrBadParameter.Withf("arguments for tool %q are not valid JSON: %v", tool.Name, err)
		}
	} else {
		value = map[string]any{}
	}

	if err := resolved.Validate(value); err != nil {
		return mcp.ErrBadParameter.Withf("arguments for tool %q failed validation: %v", tool.Name, err)
	}
	return nil
}
