package transport

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
)

// SSEServer is the server side of the SSE+HTTP-POST transport: an
// http.Handler that accepts one long-lived GET per peer (the event
// stream) and routes POSTs carrying client-to-server envelopes back to
// the matching peer by session id. Grounded on
// _examples/other_examples/.../localrivet-gomcp transport/sse/sse.go
// (buffered per-session eventQueue drained by a flusher-backed writer
// loop, session ids minted with google/uuid), generalized to hand each
// new connection to the caller as a transport.Transport rather than a
// hard-wired server type.
type SSEServer struct {
	ssePath     string
	messagePath string

	// OnConnect is invoked once per new SSE connection with a Transport
	// scoped to that single peer; the caller is expected to Connect a
	// fresh pkg/session.Session onto it. The GET handler calls it
	// synchronously, before it writes the endpoint event, so OnConnect
	// should not itself block past starting the session.
	OnConnect func(ctx context.Context, t Transport)

	sessions sync.Map // sessionID string -> *sseServerSession
}

// NewSSEServer builds an SSE server transport. ssePath/messagePath default
// to "/sse" and "/messages".
func NewSSEServer(onConnect func(ctx context.Context, t Transport), ssePath, messagePath string) *SSEServer {
	if ssePath == "" {
		ssePath = DefaultSSEPath
	}
	if messagePath == "" {
		messagePath = "/messages"
	}
	return &SSEServer{
		ssePath:     ssePath,
		messagePath: messagePath,
		OnConnect:   onConnect,
	}
}

// ServeHTTP implements http.Handler, routing to the SSE stream endpoint
// or the message POST endpoint.
func (s *SSEServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == s.ssePath && r.Method == http.MethodGet:
		s.handleSSE(w, r)
	case strings.HasPrefix(r.URL.Path, s.messagePath) && r.Method == http.MethodPost:
		s.handleMessage(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *SSEServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	session := newSSEServerSession(uuid.NewString())
	s.sessions.Store(session.id, session)
	defer s.sessions.Delete(session.id)
	defer session.markClosed()

	if s.OnConnect != nil {
		s.OnConnect(r.Context(), session)
	}

	endpoint := fmt.Sprintf("%s?sessionId=%s", s.messagePath, session.id)
	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", endpoint)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case event, ok := <-session.eventQueue:
			if !ok {
				return
			}
			if _, err := io.WriteString(w, event); err != nil {
				log.Printf("mcp sse server: write: %v", err)
				return
			}
			flusher.Flush()
		case <-session.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *SSEServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = r.Header.Get("Mcp-Session-Id")
	}
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}

	v, ok := s.sessions.Load(sessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	session := v.(*sseServerSession)

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	env, err := jsonrpc.Parse(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	handler := session.loadHandler()
	if handler == nil {
		http.Error(w, "session not ready", http.StatusServiceUnavailable)
		return
	}
	go handler(r.Context(), env)

	w.WriteHeader(http.StatusNoContent)
}

///////////////////////////////////////////////////////////////////////////////
// PER-PEER TRANSPORT

type sseServerSession struct {
	id         string
	eventQueue chan string
	done       chan struct{}
	closeOnce  sync.Once
	closed     atomic.Bool

	mu      sync.Mutex
	handler Handler
}

func newSSEServerSession(id string) *sseServerSession {
	return &sseServerSession{
		id:         id,
		eventQueue: make(chan string, 100),
		done:       make(chan struct{}),
	}
}

func (s *sseServerSession) loadHandler() Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler
}

// Connect implements transport.Transport. The GET handler has already
// accepted the underlying connection by the time this runs; Connect just
// records the inbound dispatch target for POSTs to use.
func (s *sseServerSession) Connect(ctx context.Context, handler Handler) error {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
	return nil
}

// Send implements transport.Transport by queuing a "message" SSE event.
func (s *sseServerSession) Send(ctx context.Context, env any) error {
	if s.closed.Load() {
		return mcp.ErrTransportClosed.With("sse session closed")
	}
	data, err := encodeAny(env)
	if err != nil {
		return err
	}
	event := fmt.Sprintf("event: message\ndata: %s\n\n", string(data))
	select {
	case s.eventQueue <- event:
		return nil
	case <-s.done:
		return mcp.ErrTransportClosed.With("sse session closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements transport.Transport.
func (s *sseServerSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
	})
	return nil
}

func (s *sseServerSession) markClosed() {
	_ = s.Close()
}
