package schema

// Implementation identifies either end of a session (clientInfo /
// serverInfo in the initialize handshake).
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities declares the optional feature blocks a client
// supports. A nil block means "not supported" (spec.md §3).
type ClientCapabilities struct {
	Experimental map[string]any  `json:"experimental,omitempty"`
	Roots        *RootsCaps      `json:"roots,omitempty"`
	Sampling     *SamplingCaps   `json:"sampling,omitempty"`
}

type RootsCaps struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// SamplingCaps is intentionally empty: its presence alone advertises the
// capability, per spec.md §3 ("sampling{}" on the client side).
type SamplingCaps struct{}

// ServerCapabilities declares the optional feature blocks a server
// supports.
type ServerCapabilities struct {
	Experimental map[string]any    `json:"experimental,omitempty"`
	Completions  *CompletionsCaps  `json:"completions,omitempty"`
	Logging      *LoggingCaps      `json:"logging,omitempty"`
	Prompts      *PromptsCaps      `json:"prompts,omitempty"`
	Resources    *ResourcesCaps    `json:"resources,omitempty"`
	Tools        *ToolsCaps        `json:"tools,omitempty"`
}

type CompletionsCaps struct{}

type LoggingCaps struct{}

type PromptsCaps struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ResourcesCaps struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

type ToolsCaps struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// InitializeRequest is the params of the initialize method.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult is the result of the initialize method.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}
