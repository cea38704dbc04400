package mcpserver

import (
	"context"
	"encoding/json"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
	session "github.com/mutablelogic/go-mcp/pkg/session"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ResourceSpec pairs a resource's descriptor with its read implementation
// (spec.md §4.5).
type ResourceSpec struct {
	Resource schema.Resource
	Read     func(ctx context.Context, ex *Exchange, req schema.ReadResourceRequest) (*schema.ReadResourceResult, error)
}

///////////////////////////////////////////////////////////////////////////////
// REGISTRATION

// RegisterResource adds spec to the registry and fans out
// notifications/resources/list_changed.
func (srv *Server) RegisterResource(spec ResourceSpec) error {
	if spec.Resource.URI == "" {
		return mcp.ErrBadParameter.With("resource uri must not be empty")
	}

	srv.mu.Lock()
	if _, exists := srv.resources[spec.Resource.URI]; exists {
		srv.mu.Unlock()
		return mcp.ErrConflict.Withf("duplicate resource uri: %q", spec.Resource.URI)
	}
	srv.resources[spec.Resource.URI] = &spec
	srv.mu.Unlock()

	srv.notifyAll(schema.MethodResourcesListChanged, nil)
	return nil
}

// UnregisterResource removes uri from the registry, if present.
func (srv *Server) UnregisterResource(uri string) {
	srv.mu.Lock()
	_, existed := srv.resources[uri]
	delete(srv.resources, uri)
	srv.mu.Unlock()

	if existed {
		srv.notifyAll(schema.MethodResourcesListChanged, nil)
	}
}

// RegisterResourceTemplate adds tmpl to the set returned by
// resources/templates/list.
func (srv *Server) RegisterResourceTemplate(tmpl schema.ResourceTemplate) {
	srv.mu.Lock()
	srv.resTmpls = append(srv.resTmpls, tmpl)
	srv.mu.Unlock()
	srv.notifyAll(schema.MethodResourcesListChanged, nil)
}

// NotifyResourceUpdated fires notifications/resources/updated for uri to
// every session currently subscribed to it (SPEC_FULL supplement 3 — see
// DESIGN.md). Called by application code after mutating a resource's
// underlying content out of band.
func (srv *Server) NotifyResourceUpdated(uri string) {
	srv.notifyResource(uri)
}

///////////////////////////////////////////////////////////////////////////////
// HANDLERS

func (c *conn) handleListResources(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	c.srv.mu.RLock()
	resources := make([]schema.Resource, 0, len(c.srv.resources))
	for _, spec := range c.srv.resources {
		resources = append(resources, spec.Resource)
	}
	c.srv.mu.RUnlock()
	return schema.ListResourcesResult{Resources: resources}, nil
}

func (c *conn) handleListResourceTemplates(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	c.srv.mu.RLock()
	tmpls := append([]schema.ResourceTemplate(nil), c.srv.resTmpls...)
	c.srv.mu.RUnlock()
	return schema.ListResourceTemplatesResult{ResourceTemplates: tmpls}, nil
}

func (c *conn) handleReadResource(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	var req schema.ReadResourceRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, badParams(err)
	}

	c.srv.mu.RLock()
	spec, ok := c.srv.resources[req.URI]
	c.srv.mu.RUnlock()
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "resource not found: "+req.URI, nil)
	}

	result, err := spec.Read(ctx, &Exchange{ex: ex, conn: c}, req)
	if err != nil {
		return nil, internalError(err)
	}
	return result, nil
}

func (c *conn) handleSubscribe(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	if !c.srv.resourcesSubscribe {
		return nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "resources.subscribe not supported", nil)
	}
	var req schema.SubscribeRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, badParams(err)
	}

	c.subMu.Lock()
	c.subs[req.URI] = true
	c.subMu.Unlock()
	return struct{}{}, nil
}

func (c *conn) handleUnsubscribe(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	if !c.srv.resourcesSubscribe {
		return nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "resources.subscribe not supported", nil)
	}
	var req schema.UnsubscribeRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, badParams(err)
	}

	c.subMu.Lock()
	delete(c.subs, req.URI)
	c.subMu.Unlock()
	return struct{}{}, nil
}
