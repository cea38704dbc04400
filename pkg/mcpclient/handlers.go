package mcpclient

import (
	"context"
	"encoding/json"
	"log"

	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
	session "github.com/mutablelogic/go-mcp/pkg/session"
)

///////////////////////////////////////////////////////////////////////////////
// INBOUND REGISTRATION

// fanoutRaw builds a notification handler that forwards method/params to
// the catch-all WithNotificationHandler callback, if one was configured.
// Registered alongside (never instead of) each typed handler below, so a
// host can observe raw traffic without losing the typed bookkeeping
// (cache invalidation, callback dispatch) those handlers perform.
func (c *Client) fanoutRaw(method string) session.NotificationHandler {
	return func(ctx context.Context, ex *session.Exchange, params json.RawMessage) {
		if c.onNotification != nil {
			c.onNotification(method, params)
		}
	}
}

// registerHandlers binds every inbound notification and request this role
// may receive (spec.md §4.4): the tools, resources, prompts and roots
// list_changed notifications, notifications/message, progress,
// resources/updated and cancelled notifications, and — only when the
// caller supplied a
// handler, which also implies the capability was declared — the
// server-originated roots/list and sampling/createMessage requests.
func (c *Client) registerHandlers() {
	sess := c.session

	for _, method := range []string{
		schema.MethodToolsListChanged,
		schema.MethodResourcesListChanged,
		schema.MethodPromptsListChanged,
		schema.MethodRootsListChanged,
		schema.MethodLoggingMessage,
		schema.MethodProgress,
		schema.MethodResourcesUpdated,
		schema.MethodCancelled,
	} {
		sess.RegisterNotificationHandler(method, c.fanoutRaw(method))
	}

	sess.RegisterNotificationHandler(schema.MethodToolsListChanged, func(ctx context.Context, ex *session.Exchange, params json.RawMessage) {
		c.mu.Lock()
		c.tools = nil
		c.mu.Unlock()
	})

	sess.RegisterNotificationHandler(schema.MethodResourcesUpdated, func(ctx context.Context, ex *session.Exchange, params json.RawMessage) {
		if c.onResourceUpdated == nil {
			return
		}
		var note schema.ResourceUpdatedNotification
		if err := json.Unmarshal(params, &note); err != nil {
			log.Printf("mcp client: decode notifications/resources/updated: %v", err)
			return
		}
		c.onResourceUpdated(note.URI)
	})

	sess.RegisterNotificationHandler(schema.MethodLoggingMessage, func(ctx context.Context, ex *session.Exchange, params json.RawMessage) {
		if c.onLogging == nil {
			return
		}
		var note schema.LoggingMessageNotification
		if err := json.Unmarshal(params, &note); err != nil {
			log.Printf("mcp client: decode notifications/message: %v", err)
			return
		}
		c.onLogging(note.Level, note.Logger, note.Data)
	})

	sess.RegisterNotificationHandler(schema.MethodProgress, func(ctx context.Context, ex *session.Exchange, params json.RawMessage) {
		if c.onProgress == nil {
			return
		}
		var note schema.ProgressNotification
		if err := json.Unmarshal(params, &note); err != nil {
			log.Printf("mcp client: decode notifications/progress: %v", err)
			return
		}
		c.onProgress(note.ProgressToken, note.Progress, note.Total)
	})

	if c.roots != nil {
		sess.RegisterRequestHandler(schema.MethodRootsList, func(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
			roots, err := c.roots(ctx)
			if err != nil {
				return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, err.Error(), nil)
			}
			return schema.ListRootsResult{Roots: roots}, nil
		})
	}

	if c.sampling != nil {
		sess.RegisterRequestHandler(schema.MethodSamplingCreateMessage, func(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
			var req schema.CreateMessageRequest
			if err := json.Unmarshal(params, &req); err != nil {
				return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, err.Error(), nil)
			}
			result, err := c.sampling(ctx, req)
			if err != nil {
				return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, err.Error(), nil)
			}
			return result, nil
		})
	}
}
