package transport

import "time"

// DefaultEndpointTimeout is the default wait for the SSE "endpoint"
// event before Send fails (spec.md §4.2, §9 Open Question).
const DefaultEndpointTimeout = 10 * time.Second

// DefaultSSEPath is the default SSE base path (spec.md §6).
const DefaultSSEPath = "/sse"

// Opt configures an SSE transport, following the teacher's per-package
// functional-options idiom (pkg/mcp/opt.go's Opt func(*Server) error).
type Opt func(*sseOpts) error

type sseOpts struct {
	ssePath         string
	endpointTimeout time.Duration
}

func defaultOpts() *sseOpts {
	return &sseOpts{
		ssePath:         DefaultSSEPath,
		endpointTimeout: DefaultEndpointTimeout,
	}
}

func applyOpts(opts ...Opt) (*sseOpts, error) {
	o := defaultOpts()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithSSEPath overrides the default "/sse" path the SSE client GETs to
// open the event stream.
func WithSSEPath(path string) Opt {
	return func(o *sseOpts) error {
		o.ssePath = path
		return nil
	}
}

// WithEndpointTimeout overrides how long Send waits for the "endpoint"
// event to arrive before failing (spec.md §9's Open Question: surfaced as
// a construction parameter, defaulting to 10s).
func WithEndpointTimeout(d time.Duration) Opt {
	return func(o *sseOpts) error {
		o.endpointTimeout = d
		return nil
	}
}
