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

// completeKey identifies a registered completion by the reference it
// completes arguments for: a named prompt or a resource URI.
type completeKey struct {
	Type string
	Name string
}

// CompletionSpec pairs a CompleteReference with its completion
// implementation (spec.md §4.5).
type CompletionSpec struct {
	Ref      schema.CompleteReference
	Complete func(ctx context.Context, ex *Exchange, req schema.CompleteRequest) (*schema.CompleteResult, error)
}

func keyFor(ref schema.CompleteReference) completeKey {
	switch ref.Type {
	case "ref/resource":
		return completeKey{Type: ref.Type, Name: ref.URI}
	default:
		return completeKey{Type: ref.Type, Name: ref.Name}
	}
}

///////////////////////////////////////////////////////////////////////////////
// REGISTRATION

// RegisterCompletion adds spec to the registry, keyed by its reference.
func (srv *Server) RegisterCompletion(spec CompletionSpec) error {
	key := keyFor(spec.Ref)
	if key.Name == "" {
		return mcp.ErrBadParameter.With("completion reference must name a prompt or resource")
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if _, exists := srv.completes[key]; exists {
		return mcp.ErrConflict.Withf("duplicate completion reference: %+v", spec.Ref)
	}
	srv.completes[key] = &spec
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// HANDLERS

func (c *conn) handleComplete(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	var req schema.CompleteRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, badParams(err)
	}

	c.srv.mu.RLock()
	spec, ok := c.srv.completes[keyFor(req.Ref)]
	c.srv.mu.RUnlock()
	if !ok {
		return &schema.CompleteResult{Completion: schema.CompleteCompletion{Values: nil}}, nil
	}

	result, err := spec.Complete(ctx, &Exchange{ex: ex, conn: c}, req)
	if err != nil {
		return nil, internalError(err)
	}
	return result, nil
}
