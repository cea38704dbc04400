/*
Package mcp implements the Model Context Protocol: a bidirectional
JSON-RPC 2.0 session between a host and a tool provider, carried over
stdio or SSE+HTTP-POST. Subpackages provide the wire codec
(pkg/jsonrpc), the domain data model (pkg/schema), the transports
(pkg/transport), the session state machine (pkg/session), and the
client/server role façades (pkg/mcpclient, pkg/mcpserver).
*/
package mcp

import "fmt"

// Err is a sentinel error code. Values satisfy the error interface
// directly so callers can compare with errors.Is, and wrap with
// .With/.Withf to attach detail without losing the sentinel.
type Err int

const (
	ErrSuccess Err = iota
	ErrBadParameter
	ErrNotFound
	ErrConflict
	ErrNotImplemented
	ErrInternalServerError
	ErrSessionClosed
	ErrTimeout
	ErrCancelled
	ErrTransportClosed
)

func (e Err) Error() string {
	switch e {
	case ErrSuccess:
		return "success"
	case ErrBadParameter:
		return "bad parameter"
	case ErrNotFound:
		return "not found"
	case ErrConflict:
		return "conflict"
	case ErrNotImplemented:
		return "not implemented"
	case ErrInternalServerError:
		return "internal server error"
	case ErrSessionClosed:
		return "session closed"
	case ErrTimeout:
		return "timeout"
	case ErrCancelled:
		return "cancelled"
	case ErrTransportClosed:
		return "transport closed"
	default:
		return fmt.Sprintf("error %d", int(e))
	}
}

// With wraps e with additional detail, joined by fmt.Sprint.
func (e Err) With(args ...interface{}) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprint(args...))
}

// Withf wraps e with additional detail, formatted per format.
func (e Err) Withf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprintf(format, args...))
}
