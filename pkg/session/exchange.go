package session

import (
	"context"
	"encoding/json"
)

// Exchange is the per-invocation handle an inbound handler receives: the
// peer's declared capabilities, a way to issue peer-originated requests
// (e.g. a server's sampling/createMessage call into the client), and a
// logger that emits notifications/message. Role façades (pkg/mcpclient,
// pkg/mcpserver) wrap Exchange with typed helpers; the core only needs it
// to carry the session handle through to handler bodies.
type Exchange struct {
	session *Session
}

// Request issues a peer-originated request through the owning session,
// exactly as the session's own public Request does (spec.md §4.3.6:
// "using the exact same request operation").
func (e *Exchange) Request(ctx context.Context, method string, params any, opts ...ReqOpt) (json.RawMessage, error) {
	return e.session.Request(ctx, method, params, opts...)
}

// Notify sends a fire-and-forget notification through the owning session.
func (e *Exchange) Notify(ctx context.Context, method string, params any) error {
	return e.session.Notify(ctx, method, params)
}

// PeerCapabilities returns whatever capability struct was recorded at
// initialize time (a *schema.ClientCapabilities or
// *schema.ServerCapabilities depending on Session.Role()); callers know
// which to expect from their own role.
func (e *Exchange) PeerCapabilities() any {
	e.session.mu.RLock()
	defer e.session.mu.RUnlock()
	return e.session.peerCapabilities
}

// Done returns a channel closed when the owning session starts closing,
// so long-running handlers can return promptly (spec.md §5: "signals
// every in-flight handler via its exchange that the session is
// terminating").
func (e *Exchange) Done() <-chan struct{} {
	return e.session.doneCh
}

// Session returns the underlying session, for role façades that need to
// reach session-level state the Exchange doesn't expose directly.
func (e *Exchange) Session() *Session {
	return e.session
}
