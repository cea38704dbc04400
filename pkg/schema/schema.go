// Package schema is the MCP domain data model: the types carried inside
// JSON-RPC request/response params and results, independent of the
// envelope that carries them (see pkg/jsonrpc).
package schema

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// ProtocolVersion is the MCP protocol version this module speaks.
const ProtocolVersion = "2024-11-05"

// Method names (spec.md §6 method catalog).
const (
	MethodInitialize    = "initialize"
	MethodInitialized   = "notifications/initialized"
	MethodPing          = "ping"
	MethodCancelled     = "notifications/cancelled"
	MethodProgress      = "notifications/progress"

	MethodToolsList        = "tools/list"
	MethodToolsCall        = "tools/call"
	MethodToolsListChanged = "notifications/tools/list_changed"

	MethodResourcesList        = "resources/list"
	MethodResourcesRead        = "resources/read"
	MethodResourcesTemplates   = "resources/templates/list"
	MethodResourcesSubscribe   = "resources/subscribe"
	MethodResourcesUnsubscribe = "resources/unsubscribe"
	MethodResourcesListChanged = "notifications/resources/list_changed"
	MethodResourcesUpdated     = "notifications/resources/updated"

	MethodPromptsList        = "prompts/list"
	MethodPromptsGet         = "prompts/get"
	MethodPromptsListChanged = "notifications/prompts/list_changed"

	MethodCompletionComplete = "completion/complete"

	MethodLoggingSetLevel = "logging/setLevel"
	MethodLoggingMessage  = "notifications/message"

	MethodRootsList        = "roots/list"
	MethodRootsListChanged = "notifications/roots/list_changed"

	MethodSamplingCreateMessage = "sampling/createMessage"
)

// LoggingLevel is the ordered severity scale from spec.md §6.
type LoggingLevel int

const (
	LoggingDebug LoggingLevel = iota
	LoggingInfo
	LoggingNotice
	LoggingWarning
	LoggingError
	LoggingCritical
	LoggingAlert
	LoggingEmergency
)

var loggingLevelNames = map[LoggingLevel]string{
	LoggingDebug:     "debug",
	LoggingInfo:      "info",
	LoggingNotice:    "notice",
	LoggingWarning:   "warning",
	LoggingError:     "error",
	LoggingCritical:  "critical",
	LoggingAlert:     "alert",
	LoggingEmergency: "emergency",
}

func (l LoggingLevel) String() string {
	if s, ok := loggingLevelNames[l]; ok {
		return s
	}
	return "unknown"
}

// ParseLoggingLevel maps a wire string to a LoggingLevel. ok is false for
// an unrecognized name.
func ParseLoggingLevel(s string) (level LoggingLevel, ok bool) {
	for l, name := range loggingLevelNames {
		if name == s {
			return l, true
		}
	}
	return 0, false
}

// MarshalJSON implements json.Marshaler so LoggingLevel serializes as its
// wire name rather than an integer.
func (l LoggingLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *LoggingLevel) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	level, ok := ParseLoggingLevel(s)
	if !ok {
		return nil
	}
	*l = level
	return nil
}
