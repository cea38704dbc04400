// Package mcpserver is the server-role façade over pkg/session (spec.md
// §4.5): it holds the tool/resource/prompt/completion specifications a
// tool provider exposes, drives the server side of the initialize
// handshake, and fans out notifications/*/list_changed to every
// connected peer when a registry mutates. Grounded on the teacher's
// pkg/mcp/server.go (Handler map, handleListTools/handleCallTool
// delegating to a toolkit) and pkg/tool/tool.go's Toolkit (name
// validation, schema-checked Run), generalized into three parallel
// registries instead of just tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
	session "github.com/mutablelogic/go-mcp/pkg/session"
	transport "github.com/mutablelogic/go-mcp/pkg/transport"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Server holds the specification registries shared by every connection a
// transport hands it: tools, resources, resource templates, prompts and
// completion handlers. A single Server can Serve many concurrent peers
// (e.g. one per SSE connection); each gets its own *session.Session and
// subscription set, but mutating a registry fans a list_changed
// notification out to all of them.
type Server struct {
	info         schema.Implementation
	instructions string

	mu        sync.RWMutex
	tools     map[string]*ToolSpec
	resources map[string]*ResourceSpec
	resTmpls  []schema.ResourceTemplate
	prompts   map[string]*PromptSpec
	completes map[completeKey]*CompletionSpec

	resourcesSubscribe bool

	levelMu sync.RWMutex
	level   schema.LoggingLevel

	conns sync.Map // *conn keyed by itself
}

// Opt configures a Server at construction.
type Opt func(*Server) error

// WithInstructions sets the free-form instructions string returned from
// initialize.
func WithInstructions(s string) Opt {
	return func(srv *Server) error {
		srv.instructions = s
		return nil
	}
}

// WithResourceSubscriptions declares that this server supports
// resources/subscribe + resources/unsubscribe (spec.md §3's Resources
// capability flag).
func WithResourceSubscriptions() Opt {
	return func(srv *Server) error {
		srv.resourcesSubscribe = true
		return nil
	}
}

// New builds a Server identifying itself as info. Register tool/resource/
// prompt/completion specs with RegisterTool etc. before calling Serve.
func New(info schema.Implementation, opts ...Opt) (*Server, error) {
	srv := &Server{
		info:      info,
		tools:     make(map[string]*ToolSpec),
		resources: make(map[string]*ResourceSpec),
		prompts:   make(map[string]*PromptSpec),
		completes: make(map[completeKey]*CompletionSpec),
		level:     schema.LoggingInfo,
	}
	for _, opt := range opts {
		if err := opt(srv); err != nil {
			return nil, err
		}
	}
	return srv, nil
}

// Capabilities computes the ServerCapabilities block advertised at
// initialize time, derived from what is actually registered rather than
// hard-coded (generalizing the teacher's handleInitialize, which always
// advertised every block regardless of whether a toolkit was present).
func (srv *Server) Capabilities() schema.ServerCapabilities {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	var caps schema.ServerCapabilities
	if len(srv.tools) > 0 {
		caps.Tools = &schema.ToolsCaps{ListChanged: true}
	}
	if len(srv.resources) > 0 || len(srv.resTmpls) > 0 {
		caps.Resources = &schema.ResourcesCaps{ListChanged: true, Subscribe: srv.resourcesSubscribe}
	}
	if len(srv.prompts) > 0 {
		caps.Prompts = &schema.PromptsCaps{ListChanged: true}
	}
	if len(srv.completes) > 0 {
		caps.Completions = &schema.CompletionsCaps{}
	}
	caps.Logging = &schema.LoggingCaps{}
	return caps
}

///////////////////////////////////////////////////////////////////////////////
// SERVING

// conn is the per-peer state a connected session carries: the session
// itself and its resource subscription set (spec.md §3 — subscriptions
// are scoped to one session, unlike the registries they read from).
type conn struct {
	srv  *Server
	sess *session.Session

	subMu sync.Mutex
	subs  map[string]bool
}

// Serve builds a fresh session over t, registers every MCP method handler
// (§6's catalog), and starts it. It returns once the transport is
// connected; the session continues running in background goroutines
// until it closes or t does. Callers that need to wait for completion
// should select on the returned Session's Done channel.
func (srv *Server) Serve(ctx context.Context, t transport.Transport, sessOpts ...session.Opt) (*session.Session, error) {
	sess, err := session.New(session.RoleServer, t, sessOpts...)
	if err != nil {
		return nil, err
	}

	c := &conn{srv: srv, sess: sess, subs: make(map[string]bool)}
	srv.conns.Store(c, struct{}{})

	c.registerHandlers()

	if err := sess.Start(ctx); err != nil {
		srv.conns.Delete(c)
		return nil, err
	}

	go func() {
		<-sess.Done()
		srv.conns.Delete(c)
	}()

	return sess, nil
}

func (c *conn) registerHandlers() {
	sess := c.sess

	sess.RegisterRequestHandler(schema.MethodInitialize, c.handleInitialize)
	sess.RegisterRequestHandler(schema.MethodPing, func(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
		return struct{}{}, nil
	})
	sess.RegisterNotificationHandler(schema.MethodInitialized, func(ctx context.Context, ex *session.Exchange, params json.RawMessage) {})

	sess.RegisterRequestHandler(schema.MethodToolsList, c.handleListTools)
	sess.RegisterRequestHandler(schema.MethodToolsCall, c.handleCallTool)

	sess.RegisterRequestHandler(schema.MethodResourcesList, c.handleListResources)
	sess.RegisterRequestHandler(schema.MethodResourcesRead, c.handleReadResource)
	sess.RegisterRequestHandler(schema.MethodResourcesTemplates, c.handleListResourceTemplates)
	sess.RegisterRequestHandler(schema.MethodResourcesSubscribe, c.handleSubscribe)
	sess.RegisterRequestHandler(schema.MethodResourcesUnsubscribe, c.handleUnsubscribe)

	sess.RegisterRequestHandler(schema.MethodPromptsList, c.handleListPrompts)
	sess.RegisterRequestHandler(schema.MethodPromptsGet, c.handleGetPrompt)

	sess.RegisterRequestHandler(schema.MethodCompletionComplete, c.handleComplete)

	sess.RegisterRequestHandler(schema.MethodLoggingSetLevel, c.handleSetLevel)
}

func (c *conn) handleInitialize(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	var req schema.InitializeRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, err.Error(), nil)
	}

	if req.ProtocolVersion != schema.ProtocolVersion {
		log.Printf("mcp server: client requested protocol %q, serving %q", req.ProtocolVersion, schema.ProtocolVersion)
	}

	ex.Session().SetPeerCapabilities(&req.Capabilities)
	ex.Session().SetPeerInfo(req.ClientInfo)

	return schema.InitializeResult{
		ProtocolVersion: schema.ProtocolVersion,
		Capabilities:    c.srv.Capabilities(),
		ServerInfo:      c.srv.info,
		Instructions:    c.srv.instructions,
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// FAN-OUT

// notifyAll sends method/params to every currently connected, Ready peer
// — the background notifier from spec.md §4.5 that fires a
// notifications/*/list_changed whenever the owning registry mutates.
func (srv *Server) notifyAll(method string, params any) {
	srv.conns.Range(func(k, _ any) bool {
		c := k.(*conn)
		if c.sess.Phase() != session.PhaseReady {
			return true
		}
		if err := c.sess.Notify(context.Background(), method, params); err != nil {
			log.Printf("mcp server: notify %s: %v", method, err)
		}
		return true
	})
}

// notifyResource sends notifications/resources/updated only to sessions
// that subscribed to uri, per spec.md §3's per-session subscription set.
func (srv *Server) notifyResource(uri string) {
	srv.conns.Range(func(k, _ any) bool {
		c := k.(*conn)
		if c.sess.Phase() != session.PhaseReady {
			return true
		}
		c.subMu.Lock()
		subscribed := c.subs[uri]
		c.subMu.Unlock()
		if !subscribed {
			return true
		}
		note := schema.ResourceUpdatedNotification{URI: uri}
		if err := c.sess.Notify(context.Background(), schema.MethodResourcesUpdated, note); err != nil {
			log.Printf("mcp server: notify resources/updated: %v", err)
		}
		return true
	})
}

func internalError(err error) *jsonrpc.Error {
	return jsonrpc.NewError(jsonrpc.CodeInternalError, err.Error(), nil)
}

func badParams(err error) *jsonrpc.Error {
	return jsonrpc.NewError(jsonrpc.CodeInvalidParams, err.Error(), nil)
}
