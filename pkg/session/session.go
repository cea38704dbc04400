// Package session implements the protocol session state machine that
// sits at the heart of MCP (spec.md §4.3): request/response correlation
// by id, inbound dispatch to registered handlers, the
// Created->Initializing->Ready->Closing->Closed lifecycle, capability
// gating, and cancellation/timeout. Both the client and server roles
// (pkg/mcpclient, pkg/mcpserver) drive the identical Session type; only
// which methods each registers as a handler and which it calls as a
// requester differs.
package session

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	gclotel "github.com/mutablelogic/go-client/pkg/otel"
	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
	transport "github.com/mutablelogic/go-mcp/pkg/transport"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// RequestHandler answers one inbound request. Returning a non-nil
// *jsonrpc.Error sends that error Response; otherwise result is
// marshalled as the Response's result.
type RequestHandler func(ctx context.Context, ex *Exchange, params json.RawMessage) (any, *jsonrpc.Error)

// NotificationHandler reacts to one inbound notification. It never
// produces a response (spec.md invariant 3).
type NotificationHandler func(ctx context.Context, ex *Exchange, params json.RawMessage)

// Session is a stateful, bidirectional JSON-RPC conversation carrying the
// MCP lifecycle over a single transport.
type Session struct {
	role      Role
	transport transport.Transport
	tracer    trace.Tracer

	writeMu sync.Mutex

	mu               sync.RWMutex
	phase            Phase
	peerCapabilities any
	peerInfo         schema.Implementation

	nextID atomic.Int64

	pending *pendingTable

	handlersMu    sync.RWMutex
	reqHandlers   map[string]RequestHandler
	notifHandlers map[string][]NotificationHandler

	closeOnce sync.Once
	doneCh    chan struct{}
}

// Opt configures a Session at construction (the teacher's per-package
// functional-options idiom).
type Opt func(*Session) error

// WithTracer installs an OTel tracer used to span outbound requests
// (pkg/mcp/client/credentials.go's otel.StartSpan/endSpan idiom).
func WithTracer(tracer trace.Tracer) Opt {
	return func(s *Session) error {
		s.tracer = tracer
		return nil
	}
}

// New builds a Session of the given role over t. The session does not
// start reading/writing until Start is called.
func New(role Role, t transport.Transport, opts ...Opt) (*Session, error) {
	s := &Session{
		role:          role,
		transport:     t,
		phase:         PhaseCreated,
		pending:       newPendingTable(),
		reqHandlers:   make(map[string]RequestHandler),
		notifHandlers: make(map[string][]NotificationHandler),
		doneCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

///////////////////////////////////////////////////////////////////////////////
// ACCESSORS

func (s *Session) Role() Role { return s.role }

func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// PeerCapabilities returns the capability struct recorded at initialize
// time, or nil before that.
func (s *Session) PeerCapabilities() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peerCapabilities
}

// SetPeerCapabilities records the peer's declared capabilities; called by
// the role façade once initialize completes (client) or is received
// (server).
func (s *Session) SetPeerCapabilities(caps any) {
	s.mu.Lock()
	s.peerCapabilities = caps
	s.mu.Unlock()
}

// PeerInfo returns the peer's Implementation (name/version) recorded at
// initialize time.
func (s *Session) PeerInfo() schema.Implementation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peerInfo
}

func (s *Session) SetPeerInfo(info schema.Implementation) {
	s.mu.Lock()
	s.peerInfo = info
	s.mu.Unlock()
}

// MarkReady transitions the session to Ready. The client role façade
// calls this after a successful initialize, just before it sends
// notifications/initialized (spec.md §4.3.3); the server side transitions
// itself automatically on receiving notifications/initialized.
func (s *Session) MarkReady() {
	s.setPhase(PhaseReady)
}

// Done returns a channel closed once the session begins closing.
func (s *Session) Done() <-chan struct{} {
	return s.doneCh
}

///////////////////////////////////////////////////////////////////////////////
// HANDLER REGISTRATION

// RegisterRequestHandler binds method to handler. Registration is guarded
// by a lock, so it may also happen after Start; a handler registered
// later serves only requests dispatched after it was added.
func (s *Session) RegisterRequestHandler(method string, h RequestHandler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.reqHandlers[method] = h
}

// RegisterNotificationHandler appends h to method's handler list.
func (s *Session) RegisterNotificationHandler(method string, h NotificationHandler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.notifHandlers[method] = append(s.notifHandlers[method], h)
}

func (s *Session) lookupRequestHandler(method string) (RequestHandler, bool) {
	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()
	h, ok := s.reqHandlers[method]
	return h, ok
}

func (s *Session) lookupNotificationHandlers(method string) []NotificationHandler {
	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()
	return append([]NotificationHandler(nil), s.notifHandlers[method]...)
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Start transitions Created -> Initializing and connects the transport,
// wiring its own inbound dispatch as the handler.
func (s *Session) Start(ctx context.Context) error {
	s.setPhase(PhaseInitializing)
	return s.transport.Connect(ctx, s.onEnvelope)
}

// Close transitions the session through Closing to Closed: every pending
// request fails with ErrSessionClosed, in-flight handlers are signalled
// via Exchange.Done, and the transport is closed.
func (s *Session) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		s.setPhase(PhaseClosing)
		close(s.doneCh)
		s.pending.failAll(mcp.ErrSessionClosed.With("session closed"))
		closeErr = s.transport.Close()
		s.setPhase(PhaseClosed)
	})
	return closeErr
}

///////////////////////////////////////////////////////////////////////////////
// OUTBOUND

// ReqOpt configures a single Request call.
type ReqOpt func(*reqOpts)

type reqOpts struct {
	deadline time.Duration
}

// WithDeadline bounds how long Request waits for a response before
// failing the caller with ErrTimeout and broadcasting
// notifications/cancelled (spec.md §4.3.5, scenario S4).
func WithDeadline(d time.Duration) ReqOpt {
	return func(o *reqOpts) { o.deadline = d }
}

// Request sends method/params, allocates the next id, and blocks until a
// matching response arrives, the deadline expires, the caller's context
// is cancelled, or the session closes.
func (s *Session) Request(ctx context.Context, method string, params any, opts ...ReqOpt) (json.RawMessage, error) {
	if err := s.gateOutbound(method); err != nil {
		return nil, err
	}

	ro := &reqOpts{}
	for _, o := range opts {
		o(ro)
	}

	var span context.Context
	var endSpan func(error)
	if s.tracer != nil {
		span, endSpan = gclotel.StartSpan(s.tracer, ctx, "mcp.Request", attribute.String("method", method))
		ctx = span
	}

	id := jsonrpc.ID(strconv.FormatInt(s.nextID.Add(1), 10))

	raw, err := marshalParams(params)
	if err != nil {
		if endSpan != nil {
			endSpan(err)
		}
		return nil, mcp.ErrBadParameter.Withf("marshal params for %s: %v", method, err)
	}

	ch := s.pending.insert(id.String())

	req := &jsonrpc.Request{ID: id, Method: method, Params: raw}
	if err := s.send(ctx, req); err != nil {
		s.pending.take(id.String())
		if endSpan != nil {
			endSpan(err)
		}
		return nil, err
	}

	result, err := s.awaitResponse(ctx, id.String(), ch, ro)
	if endSpan != nil {
		endSpan(err)
	}
	return result, err
}

func (s *Session) awaitResponse(ctx context.Context, id string, ch chan pendingResult, ro *reqOpts) (json.RawMessage, error) {
	var timeoutC <-chan time.Time
	if ro.deadline > 0 {
		timer := time.NewTimer(ro.deadline)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Result, nil
	case <-timeoutC:
		if _, ok := s.pending.take(id); ok {
			s.notifyCancelled(id, "timeout")
		}
		return nil, mcp.ErrTimeout.Withf("request id=%s timed out", id)
	case <-ctx.Done():
		if _, ok := s.pending.take(id); ok {
			s.notifyCancelled(id, "context cancelled")
		}
		return nil, mcp.ErrCancelled.Withf("request id=%s: %v", id, ctx.Err())
	case <-s.doneCh:
		s.pending.take(id)
		return nil, mcp.ErrSessionClosed.Withf("request id=%s", id)
	}
}

func (s *Session) notifyCancelled(requestID, reason string) {
	note := schema.CancelledNotification{RequestID: requestID, Reason: reason}
	if err := s.Notify(context.Background(), schema.MethodCancelled, note); err != nil {
		log.Printf("mcp session: notify cancelled for id=%s: %v", requestID, err)
	}
}

// Notify sends a fire-and-forget message; it never produces a response.
func (s *Session) Notify(ctx context.Context, method string, params any) error {
	raw, err := marshalParams(params)
	if err != nil {
		return mcp.ErrBadParameter.Withf("marshal params for %s: %v", method, err)
	}
	return s.send(ctx, &jsonrpc.Notification{Method: method, Params: raw})
}

func (s *Session) send(ctx context.Context, env any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.transport.Send(ctx, env)
}

// gateOutbound enforces spec.md §4.3.6: the session must not issue peer
// requests before it reaches Ready, except for the initialize request
// itself while Initializing.
func (s *Session) gateOutbound(method string) error {
	phase := s.Phase()
	if method == schema.MethodInitialize {
		if phase != PhaseInitializing {
			return mcp.ErrConflict.Withf("initialize already sent (phase=%s)", phase)
		}
		return nil
	}
	if phase != PhaseReady {
		return mcp.ErrConflict.Withf("session not ready for %s (phase=%s)", method, phase)
	}
	return nil
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	if raw, ok := params.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(params)
}

///////////////////////////////////////////////////////////////////////////////
// INBOUND DISPATCH

// onEnvelope is the transport's inbound handler. It must never block: a
// Response is resolved with a non-blocking channel send; a Request or
// Notification is dispatched to a fresh goroutine (spec.md §4.3.2, §5).
func (s *Session) onEnvelope(ctx context.Context, env *jsonrpc.Envelope) {
	switch env.Kind {
	case jsonrpc.KindResponse:
		s.handleResponse(env.Response)
	case jsonrpc.KindRequest:
		go s.handleRequest(context.Background(), env.Request)
	case jsonrpc.KindNotification:
		go s.handleNotification(context.Background(), env.Notification)
	default:
		log.Printf("mcp session: dropping unparseable envelope")
	}
}

func (s *Session) handleResponse(resp *jsonrpc.Response) {
	ch, ok := s.pending.take(resp.ID.String())
	if !ok {
		// Late or duplicate response (e.g. for an id already failed by
		// timeout/cancellation): log and drop per spec.md §4.3.2/§4.3.5.
		log.Printf("mcp session: dropping late/unknown response for id=%s", resp.ID.String())
		return
	}
	if resp.Error != nil {
		ch <- pendingResult{Err: resp.Error}
		return
	}
	ch <- pendingResult{Result: resp.Result}
}

func (s *Session) handleRequest(ctx context.Context, req *jsonrpc.Request) {
	phase := s.Phase()
	if req.Method == schema.MethodInitialize {
		if phase != PhaseInitializing {
			// Invariant 9: repeated initialize is InvalidRequest.
			s.replyError(ctx, req.ID, jsonrpc.CodeInvalidRequest, "already initialized")
			return
		}
	} else if phase != PhaseReady {
		s.replyError(ctx, req.ID, jsonrpc.CodeInvalidRequest, "session not ready")
		return
	}

	handler, ok := s.lookupRequestHandler(req.Method)
	if !ok {
		s.replyError(ctx, req.ID, jsonrpc.CodeMethodNotFound, "Method not found")
		return
	}

	ex := &Exchange{session: s}
	result, rpcErr := handler(ctx, ex, req.Params)
	if rpcErr != nil {
		s.sendResponse(ctx, req.ID, nil, rpcErr)
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		s.sendResponse(ctx, req.ID, nil, jsonrpc.NewError(jsonrpc.CodeInternalError, err.Error(), nil))
		return
	}
	s.sendResponse(ctx, req.ID, raw, nil)
}

func (s *Session) handleNotification(ctx context.Context, note *jsonrpc.Notification) {
	if note.Method == schema.MethodInitialized {
		s.fanoutNotification(ctx, note)
		if s.role == RoleServer {
			s.setPhase(PhaseReady)
		}
		return
	}
	s.fanoutNotification(ctx, note)
}

// fanoutNotification invokes every registered handler for note.Method
// concurrently (spec.md §4.3.2) and waits on an errgroup until all of
// them return. NotificationHandler has no error result, so nothing is
// collected or logged from the join (grounded on the teacher's pkg/tool/toolkit.go Run fan-out,
// generalized from a WaitGroup+shared-err pattern to errgroup).
func (s *Session) fanoutNotification(ctx context.Context, note *jsonrpc.Notification) {
	handlers := s.lookupNotificationHandlers(note.Method)
	if len(handlers) == 0 {
		return
	}
	ex := &Exchange{session: s}
	var g errgroup.Group
	for _, h := range handlers {
		h := h
		g.Go(func() error {
			h(ctx, ex, note.Params)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Session) replyError(ctx context.Context, id jsonrpc.ID, code int, message string) {
	s.sendResponse(ctx, id, nil, jsonrpc.NewError(code, message, nil))
}

func (s *Session) sendResponse(ctx context.Context, id jsonrpc.ID, result json.RawMessage, rpcErr *jsonrpc.Error) {
	resp := &jsonrpc.Response{ID: id, Result: result, Error: rpcErr}
	if err := s.send(ctx, resp); err != nil {
		log.Printf("mcp session: send response id=%s: %v", id.String(), err)
	}
}
