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

// PromptSpec pairs a prompt's descriptor with its render implementation
// (spec.md §4.5).
type PromptSpec struct {
	Prompt schema.Prompt
	Get    func(ctx context.Context, ex *Exchange, req schema.GetPromptRequest) (*schema.GetPromptResult, error)
}

///////////////////////////////////////////////////////////////////////////////
// REGISTRATION

// RegisterPrompt adds spec to the registry and fans out
// notifications/prompts/list_changed.
func (srv *Server) RegisterPrompt(spec PromptSpec) error {
	name := spec.Prompt.Name
	if name == "" {
		return mcp.ErrBadParameter.With("prompt name must not be empty")
	}

	srv.mu.Lock()
	if _, exists := srv.prompts[name]; exists {
		srv.mu.Unlock()
		return mcp.ErrConflict.Withf("duplicate prompt name: %q", name)
	}
	srv.prompts[name] = &spec
	srv.mu.Unlock()

	srv.notifyAll(schema.MethodPromptsListChanged, nil)
	return nil
}

// UnregisterPrompt removes name from the registry, if present.
func (srv *Server) UnregisterPrompt(name string) {
	srv.mu.Lock()
	_, existed := srv.prompts[name]
	delete(srv.prompts, name)
	srv.mu.Unlock()

	if existed {
		srv.notifyAll(schema.MethodPromptsListChanged, nil)
	}
}

///////////////////////////////////////////////////////////////////////////////
// HANDLERS

func (c *conn) handleListPrompts(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	c.srv.mu.RLock()
	prompts := make([]schema.Prompt, 0, len(c.srv.prompts))
	for _, spec := range c.srv.prompts {
		prompts = append(prompts, spec.Prompt)
	}
	c.srv.mu.RUnlock()
	return schema.ListPromptsResult{Prompts: prompts}, nil
}

func (c *conn) handleGetPrompt(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	var req schema.GetPromptRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, badParams(err)
	}

	c.srv.mu.RLock()
	spec, ok := c.srv.prompts[req.Name]
	c.srv.mu.RUnlock()
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "prompt not found: "+req.Name, nil)
	}

	result, err := spec.Get(ctx, &Exchange{ex: ex, conn: c}, req)
	if err != nil {
		return nil, internalError(err)
	}
	return result, nil
}
