package jsonrpc

import "encoding/json"

// Decode converts a previously parsed generic value (typically a
// Response.Result or a Request.Params) into a typed result. It is the
// "decode(value, type)" transport operation from spec.md §4.2, used by
// the session after response correlation or before request dispatch.
func Decode(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
