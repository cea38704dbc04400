package mcpserver

import (
	"context"
	"encoding/json"

	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
	session "github.com/mutablelogic/go-mcp/pkg/session"
)

// SetLevel adjusts the minimum logging level Exchange.Log emits at, for
// every connection this Server is serving (spec.md §6). The default is
// LoggingInfo.
func (srv *Server) SetLevel(level schema.LoggingLevel) {
	srv.levelMu.Lock()
	srv.level = level
	srv.levelMu.Unlock()
}

func (c *conn) handleSetLevel(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
	var req schema.SetLevelRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, badParams(err)
	}
	c.srv.SetLevel(req.Level)
	return struct{}{}, nil
}
