package session

import (
	mcp "github.com/mutablelogic/go-mcp"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
)

// RequireServerCapability returns an error unless the session's recorded
// peer capabilities (a *schema.ServerCapabilities, valid only for a
// client-role session after initialize) declare support for the given
// feature. Role façades call this before issuing a request that depends
// on an optional capability (spec.md §7: "capability errors... fail
// before send with a local error").
func (s *Session) RequireServerCapability(feature string) error {
	caps, _ := s.PeerCapabilities().(*schema.ServerCapabilities)
	if caps == nil {
		return mcp.ErrConflict.Withf("peer capabilities not yet known (feature=%s)", feature)
	}
	switch feature {
	case "tools":
		if caps.Tools == nil {
			return mcp.ErrNotImplemented.Withf("server does not declare tools capability")
		}
	case "resources":
		if caps.Resources == nil {
			return mcp.ErrNotImplemented.Withf("server does not declare resources capability")
		}
	case "resources.subscribe":
		if caps.Resources == nil || !caps.Resources.Subscribe {
			return mcp.ErrNotImplemented.Withf("server does not declare resources.subscribe capability")
		}
	case "prompts":
		if caps.Prompts == nil {
			return mcp.ErrNotImplemented.Withf("server does not declare prompts capability")
		}
	case "completions":
		if caps.Completions == nil {
			return mcp.ErrNotImplemented.Withf("server does not declare completions capability")
		}
	case "logging":
		if caps.Logging == nil {
			return mcp.ErrNotImplemented.Withf("server does not declare logging capability")
		}
	default:
		return mcp.ErrBadParameter.Withf("unknown capability %q", feature)
	}
	return nil
}

// RequireClientCapability is RequireServerCapability's mirror for a
// server-role session checking the client's declared capabilities (e.g.
// before issuing a sampling/createMessage or roots/list request into the
// client).
func (s *Session) RequireClientCapability(feature string) error {
	caps, _ := s.PeerCapabilities().(*schema.ClientCapabilities)
	if caps == nil {
		return mcp.ErrConflict.Withf("peer capabilities not yet known (feature=%s)", feature)
	}
	switch feature {
	case "roots":
		if caps.Roots == nil {
			return mcp.ErrNotImplemented.Withf("client does not declare roots capability")
		}
	case "sampling":
		if caps.Sampling == nil {
			return mcp.ErrNotImplemented.Withf("client does not declare sampling capability")
		}
	default:
		return mcp.ErrBadParameter.Withf("unknown capability %q", feature)
	}
	return nil
}
