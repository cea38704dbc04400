package mcpserver

import (
	"context"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
	session "github.com/mutablelogic/go-mcp/pkg/session"
)

// Exchange is the per-call handle a tool/resource/prompt/completion spec
// receives (spec.md §4.5's Exchange: peer capabilities, peer requests,
// and a logger). It wraps the core session.Exchange with typed
// server-side operations.
type Exchange struct {
	ex   *session.Exchange
	conn *conn
}

// PeerCapabilities returns the client's declared capabilities.
func (e *Exchange) PeerCapabilities() *schema.ClientCapabilities {
	caps, _ := e.ex.PeerCapabilities().(*schema.ClientCapabilities)
	return caps
}

// Done returns a channel closed when the owning session begins closing,
// so a long-running handler can return promptly (spec.md §5).
func (e *Exchange) Done() <-chan struct{} {
	return e.ex.Done()
}

// ListRoots issues a server-originated roots/list request into the
// client (spec.md §4.3.6). The client must have declared the roots
// capability.
func (e *Exchange) ListRoots(ctx context.Context) ([]schema.Root, error) {
	if err := e.ex.Session().RequireClientCapability("roots"); err != nil {
		return nil, err
	}
	raw, err := e.ex.Request(ctx, schema.MethodRootsList, nil)
	if err != nil {
		return nil, err
	}
	var result schema.ListRootsResult
	if err := jsonrpc.Decode(raw, &result); err != nil {
		return nil, mcp.ErrInternalServerError.Withf("decode roots/list result: %v", err)
	}
	return result.Roots, nil
}

// CreateMessage issues a server-originated sampling/createMessage
// request, delegating model sampling to the client (spec.md §4.3.6). The
// client must have declared the sampling capability.
func (e *Exchange) CreateMessage(ctx context.Context, req schema.CreateMessageRequest) (*schema.CreateMessageResult, error) {
	if err := e.ex.Session().RequireClientCapability("sampling"); err != nil {
		return nil, err
	}
	raw, err := e.ex.Request(ctx, schema.MethodSamplingCreateMessage, req)
	if err != nil {
		return nil, err
	}
	var result schema.CreateMessageResult
	if err := jsonrpc.Decode(raw, &result); err != nil {
		return nil, mcp.ErrInternalServerError.Withf("decode sampling/createMessage result: %v", err)
	}
	return &result, nil
}

// Log emits a notifications/message to the peer if level meets or
// exceeds the server's configured minimum (spec.md §6's ordering rule),
// gated by the logging capability having been declared by this server at
// construction (always true — see Server.Capabilities).
func (e *Exchange) Log(level schema.LoggingLevel, logger string, data any) error {
	srv := e.conn.srv
	srv.levelMu.RLock()
	min := srv.level
	srv.levelMu.RUnlock()
	if level < min {
		return nil
	}
	return e.ex.Notify(context.Background(), schema.MethodLoggingMessage, schema.LoggingMessageNotification{
		Level:  level,
		Logger: logger,
		Data:   data,
	})
}
