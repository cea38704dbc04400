package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	goclient "github.com/mutablelogic/go-client"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
)

// SSEClient is the client side of the SSE+HTTP-POST transport (spec.md
// §4.2): a long-lived GET event stream carrying server-to-client
// envelopes, joined with per-message HTTP POSTs carrying client-to-server
// traffic, over a runtime-discovered POST endpoint. Grounded on the
// teacher's pkg/mcp/client/sse.go sseTransport (endpoint-discovery latch,
// sseReader event loop, doSSERPC/postSSE).
type SSEClient struct {
	base   string
	hc     *goclient.Client
	opts   *sseOpts

	mu          sync.Mutex
	closed      bool
	endpointURL string
	endpointCh  chan string
	cancel      context.CancelFunc
}

// NewSSEClient builds an SSE client transport against baseURI (e.g.
// "http://localhost:8080"). Extra goclient.ClientOpt values (auth,
// tracing, ...) are passed straight through to the underlying HTTP
// client, mirroring the teacher's client.New(url, info, opts...).
func NewSSEClient(baseURI string, opts ...interface{}) (*SSEClient, error) {
	var clientOpts []goclient.ClientOpt
	var transportOpts []Opt
	for _, o := range opts {
		switch v := o.(type) {
		case goclient.ClientOpt:
			clientOpts = append(clientOpts, v)
		case Opt:
			transportOpts = append(transportOpts, v)
		}
	}

	sseOpts, err := applyOpts(transportOpts...)
	if err != nil {
		return nil, err
	}

	hc, err := goclient.New(append([]goclient.ClientOpt{goclient.OptEndpoint(baseURI)}, clientOpts...)...)
	if err != nil {
		return nil, err
	}

	return &SSEClient{
		base: baseURI,
		hc:   hc,
		opts: sseOpts,
	}, nil
}

// Connect implements transport.Transport: it opens the SSE stream and
// starts the background reader. It returns once the reader goroutine is
// running; the endpoint latch may still be pending (resolved lazily by
// the first Send, per spec.md §4.2's "await up to 10 seconds").
func (t *SSEClient) Connect(ctx context.Context, handler Handler) error {
	sseCtx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(sseCtx, http.MethodGet, t.base+t.opts.ssePath, nil)
	if err != nil {
		cancel()
		return err
	}
	req.Header.Set("Accept", goclient.ContentTypeTextStream)

	resp, err := t.hc.Client.Do(req)
	if err != nil {
		cancel()
		return err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("SSE transport: %s", resp.Status)
	}

	t.mu.Lock()
	t.cancel = cancel
	t.endpointCh = make(chan string, 1)
	t.mu.Unlock()

	go t.readLoop(sseCtx, resp.Body, handler)
	return nil
}

func (t *SSEClient) readLoop(ctx context.Context, body io.ReadCloser, handler Handler) {
	defer body.Close()

	_ = goclient.NewTextStream().Decode(body, func(event goclient.TextStreamEvent) error {
		if ctx.Err() != nil {
			return io.EOF
		}
		switch event.Event {
		case "endpoint":
			ep, err := t.resolveEndpoint(event.Data)
			if err != nil {
				log.Printf("mcp sse: invalid endpoint %q: %v", event.Data, err)
				return nil
			}
			t.mu.Lock()
			t.endpointURL = ep
			t.mu.Unlock()
			select {
			case t.endpointCh <- ep:
			default:
			}
			return nil
		case "message", "":
			env, err := jsonrpc.Parse([]byte(event.Data))
			if err != nil {
				log.Printf("mcp sse: %v", err)
				return nil
			}
			handler(ctx, env)
			return nil
		default:
			log.Printf("mcp sse: ignoring event type %q", event.Event)
			return nil
		}
	})
}

func (t *SSEClient) resolveEndpoint(ep string) (string, error) {
	base, err := url.Parse(t.base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(ep)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// Send implements transport.Transport.
func (t *SSEClient) Send(ctx context.Context, env any) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return mcp.ErrTransportClosed.With("sse transport closed")
	}
	endpoint := t.endpointURL
	ch := t.endpointCh
	t.mu.Unlock()

	if endpoint == "" {
		var err error
		endpoint, err = t.awaitEndpoint(ctx, ch)
		if err != nil {
			return err
		}
	}

	data, err := encodeAny(env)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.hc.Client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpresponse.Err(resp.StatusCode)
	}
	return nil
}

// awaitEndpoint blocks for the "endpoint" event up to the configured
// timeout. Per spec.md §9, a timeout and an interrupted wait (ctx done)
// surface the identical McpError text to the caller, but are logged
// distinctly so operators can tell them apart.
func (t *SSEClient) awaitEndpoint(ctx context.Context, ch chan string) (string, error) {
	if ch == nil {
		return "", mcp.ErrTransportClosed.With("endpoint unavailable")
	}
	timer := time.NewTimer(t.opts.endpointTimeout)
	defer timer.Stop()
	select {
	case ep := <-ch:
		return ep, nil
	case <-timer.C:
		log.Printf("mcp sse: endpoint wait: timeout after %s", t.opts.endpointTimeout)
		return "", mcp.ErrTransportClosed.With("endpoint unavailable")
	case <-ctx.Done():
		log.Printf("mcp sse: endpoint wait: context cancelled")
		return "", mcp.ErrTransportClosed.With("endpoint unavailable")
	}
}

// Close implements transport.Transport.
func (t *SSEClient) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.cancel != nil {
		t.cancel()
	}
	return nil
}

// IsHTTPStatus reports whether err is an HTTP error response with the
// given status code, grounded on the teacher's isHTTPStatus helper.
func IsHTTPStatus(err error, code int) bool {
	var httpErr httpresponse.Err
	if errors.As(err, &httpErr) && int(httpErr) == code {
		return true
	}
	return false
}
