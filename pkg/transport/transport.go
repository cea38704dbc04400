// Package transport moves opaque JSON-RPC envelopes between peers. Two
// variants are provided: stdio (line-delimited JSON over a pair of
// streams) and SSE+HTTP-POST (an event stream joined with per-message
// POSTs and a runtime-discovered endpoint). Both satisfy the same
// Transport contract so pkg/session never depends on which one is in
// use (spec.md §4.2).
package transport

import (
	"context"

	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
)

// Handler receives every inbound envelope. It returns nothing: a Response
// to an inbound Request is written back by the caller through Send, not
// by the transport. The handler itself must never block on application code — pkg/session's
// implementation hands requests and notifications to worker goroutines
// and returns quickly, keeping the read path non-blocking (spec.md §5).
type Handler func(ctx context.Context, env *jsonrpc.Envelope)

// Transport is the contract every wire implementation satisfies.
type Transport interface {
	// Connect opens the channel. Every inbound envelope is passed to
	// handler. Connect returns once the channel is ready to send/receive
	// (for SSE, once the reader goroutine has started; the endpoint latch
	// may still be pending).
	Connect(ctx context.Context, handler Handler) error

	// Send delivers one envelope (*jsonrpc.Request, *jsonrpc.Notification
	// or *jsonrpc.Response), or fails with mcp.ErrTransportClosed if Close
	// was called. The SSE client returns once the POST has been answered;
	// Stdio and the SSE server's per-peer transport return once the
	// envelope is queued for their writer, before it is written out.
	Send(ctx context.Context, env any) error

	// Close begins graceful shutdown: further Send calls fail with
	// mcp.ErrTransportClosed, and no more inbound envelopes are delivered
	// to the handler.
	Close() error
}
