package mcpserver

import (
	"context"
	"encoding/json"

	jsonschema "github.com/google/jsonschema-go/jsonschema"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
	session "github.com/mutablelogic/go-mcp/pkg/session"
	types "github.com/mutablelogic/go-mcp/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ToolSpec pairs a tool's descriptor with its call implementation
// (spec.md §4.5). Call reports application-level failure through
// CallToolResult.IsError, matching the teacher's handleCallTool split
// between dispatch errors (returned here as a Go error, mapped to
// InternalError) and tool errors (returned as a normal result).
type ToolSpec struct {
	Tool schema.Tool
	Call func(ctx context.Context, ex *Exchange, args json.RawMessage) (*schema.CallToolResult, error)
}

///////////////////////////////////////////////////////////////////////////////
// REGISTRATION

// RegisterTool adds spec to the registry and fans out
// notifications/tools/list_changed to every connected peer. Returns an
// error for an invalid or duplicate tool name (grounded on the teacher's
// Toolkit.Register).
func (srv *Server) RegisterTool(spec ToolSpec) error {
	name := spec.Tool.Name
	if !types.IsIdentifier(name) {
		return mcp.ErrBadParameter.Withf("invalid tool name: %q", name)
	}

	srv.mu.Lock()
	if _, exists := srv.tools[name]; exists {
		srv.mu.Unlock()
		return mcp.ErrConflict.Withf("duplicate tool name: %q", name)
	}
	srv.tools[name] = &spec
	srv.mu.Unlock()

	srv.notifyAll(schema.MethodToolsListChanged, nil)
	return nil
}

// UnregisterTool removes name from the registry, if present, and fans out
// notifications/tools/list_changed.
func (srv *Server) UnregisterTool(name string) {
	srv.mu.Lock()
	_, existed := srv.tools[name]
	delete(srv.tools, name)
	srv.mu.Unlock()

	if existed {
		srv.notifyAll(schema.MethodToolsListChanged, nil)
	}
}

///////////////////////////////////////////////////////////////////////////////
// HANDLERS

func (c *conn) handleListTools(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	c.srv.mu.RLock()
	tools := make([]schema.Tool, 0, len(c.srv.tools))
	for _, spec := range c.srv.tools {
		tools = append(tools, spec.Tool)
	}
	c.srv.mu.RUnlock()
	return schema.ListToolsResult{Tools: tools}, nil
}

func (c *conn) handleCallTool(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	var req schema.CallToolRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, badParams(err)
	}

	c.srv.mu.RLock()
	spec, ok := c.srv.tools[req.Name]
	c.srv.mu.RUnlock()
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "tool not found: "+req.Name, nil)
	}

	var args json.RawMessage
	if req.Arguments != nil {
		raw, err := json.Marshal(req.Arguments)
		if err != nil {
			return nil, badParams(err)
		}
		args = raw
	}
	if spec.Tool.InputSchema != nil {
		if err := validateAgainstSchema(spec.Tool.InputSchema, args); err != nil {
			return nil, badParams(err)
		}
	}

	result, err := spec.Call(ctx, &Exchange{ex: ex, conn: c}, args)
	if err != nil {
		return nil, internalError(err)
	}
	return result, nil
}

// validateAgainstSchema resolves schema and validates raw (a JSON object,
// or nil for no arguments) against it, mirroring the teacher's
// Toolkit.Run validation step.
func validateAgainstSchema(s *jsonschema.Schema, raw json.RawMessage) error {
	resolved, err := s.Resolve(nil)
	if err != nil {
		return mcp.ErrBadParameter.Withf("invalid input schema: %v", err)
	}

	var value any = map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &value); err != nil {
			return mcp.ErrBadParameter.Withf("arguments are not valid JSON: %v", err)
		}
	}
	if err := resolved.Validate(value); err != nil {
		return mcp.ErrBadParameter.Withf("arguments failed validation: %v", err)
	}
	return nil
}
