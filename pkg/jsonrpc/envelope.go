// Package jsonrpc implements the JSON-RPC 2.0 wire codec shared by every
// MCP transport: parsing a single JSON object into one of the three
// envelope shapes (Request, Notification, Response), and encoding them
// back out.
package jsonrpc

import (
	"encoding/json"

	mcp "github.com/mutablelogic/go-mcp"
)

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const Version = "2.0"

// Standard JSON-RPC 2.0 error codes (spec.md §6).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ID is a JSON-RPC request identifier: a string or an integer. It is
// carried as json.RawMessage so it round-trips byte-for-byte regardless
// of which shape the peer chose.
type ID json.RawMessage

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if len(id) == 0 {
		return []byte("null"), nil
	}
	return id, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	*id = append((*id)[0:0], data...)
	return nil
}

// String returns a stable textual form of the id, used as a pending-table
// key regardless of whether the peer sent a string or a number.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool {
	return len(id) == 0 || string(id) == "null"
}

// Request is an outbound or inbound call expecting a Response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Notification is a fire-and-forget message; it carries no id and never
// produces a Response.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response answers a Request by id with exactly one of Result or Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the JSON-RPC error object carried by a failed Response.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds an *Error, marshalling data if non-nil.
func NewError(code int, message string, data any) *Error {
	e := &Error{Code: code, Message: message}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			e.Data = raw
		}
	}
	return e
}

///////////////////////////////////////////////////////////////////////////////
// ENVELOPE UNION

// Kind identifies which of the three envelope shapes a parsed message is.
type Kind int

const (
	KindInvalid Kind = iota
	KindRequest
	KindNotification
	KindResponse
)

// Envelope is the parsed union of the three wire shapes. Exactly one of
// the typed fields is non-nil once Kind is not KindInvalid.
type Envelope struct {
	Kind         Kind
	Request      *Request
	Notification *Notification
	Response     *Response
}

// wireShape is the superset of fields any of the three variants may carry;
// Parse uses field presence to discriminate per spec.md §3.
type wireShape struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id"`
	Method  *string         `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Parse decodes a single top-level JSON object into an Envelope, applying
// the discrimination rule: method+id => Request, method alone =>
// Notification, result-or-error => Response, otherwise invalid.
//
// It never returns a JSON-RPC error code itself, and never returns a
// KindInvalid envelope: both malformed JSON and an unmatched shape come
// back as an mcp.ErrBadParameter error, which callers translate into
// CodeParseError / CodeInvalidRequest as appropriate, since only the session knows whether
// correlation (and thus a Response) is possible.
func Parse(data []byte) (*Envelope, error) {
	var raw wireShape
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, mcp.ErrBadParameter.Withf("unparseable envelope: %v", err)
	}

	switch {
	case raw.Method != nil && raw.ID != nil && !raw.ID.IsZero():
		return &Envelope{
			Kind: KindRequest,
			Request: &Request{
				JSONRPC: raw.JSONRPC,
				ID:      *raw.ID,
				Method:  *raw.Method,
				Params:  raw.Params,
			},
		}, nil
	case raw.Method != nil:
		return &Envelope{
			Kind: KindNotification,
			Notification: &Notification{
				JSONRPC: raw.JSONRPC,
				Method:  *raw.Method,
				Params:  raw.Params,
			},
		}, nil
	case raw.Result != nil || raw.Error != nil:
		var id ID
		if raw.ID != nil {
			id = *raw.ID
		}
		return &Envelope{
			Kind: KindResponse,
			Response: &Response{
				JSONRPC: raw.JSONRPC,
				ID:      id,
				Result:  raw.Result,
				Error:   raw.Error,
			},
		}, nil
	default:
		return nil, mcp.ErrBadParameter.With("unparseable envelope")
	}
}

// Encode serializes one of *Request, *Notification or *Response back to
// its wire form. Fields tagged omitempty/zero-value are dropped, matching
// the "null fields are omitted on output" rule in spec.md §4.1.
func Encode(v any) ([]byte, error) {
	switch m := v.(type) {
	case *Request:
		m.JSONRPC = Version
		return json.Marshal(m)
	case *Notification:
		m.JSONRPC = Version
		return json.Marshal(m)
	case *Response:
		m.JSONRPC = Version
		return json.Marshal(m)
	default:
		return nil, mcp.ErrBadParameter.Withf("cannot encode %T as a jsonrpc envelope", v)
	}
}
