package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
)

// Stdio is a line-delimited JSON transport over a pair of streams,
// grounded on the teacher's pkg/mcp/server.go RunStdio loop: a buffered
// line reader feeding goroutine-per-request dispatch, and a writer
// goroutine draining a channel so concurrent writers never interleave.
type Stdio struct {
	r io.Reader
	w io.Writer

	mu     sync.Mutex
	closed bool
	writeC chan []byte
	doneC  chan struct{}
}

// NewStdio builds a Stdio transport over the given streams. Typical
// callers pass os.Stdin/os.Stdout (server side) or the stdin/stdout pipes
// of a spawned server process (client side).
func NewStdio(r io.Reader, w io.Writer) *Stdio {
	return &Stdio{
		r:      r,
		w:      w,
		writeC: make(chan []byte, 64),
		doneC:  make(chan struct{}),
	}
}

// Connect implements Transport.
func (t *Stdio) Connect(ctx context.Context, handler Handler) error {
	go t.writeLoop()
	go t.readLoop(ctx, handler)
	return nil
}

func (t *Stdio) readLoop(ctx context.Context, handler Handler) {
	scanner := bufio.NewScanner(t.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		data := append([]byte(nil), line...)
		env, err := jsonrpc.Parse(data)
		if err != nil {
			log.Printf("mcp stdio: %v", err)
			continue
		}
		// Dispatch off the read path: the handler may itself block on
		// application code, but the scanner loop must keep consuming.
		go handler(ctx, env)
	}
	t.Close()
}

func (t *Stdio) writeLoop() {
	for data := range t.writeC {
		if _, err := t.w.Write(data); err != nil {
			log.Printf("mcp stdio: write: %v", err)
			continue
		}
		if _, err := t.w.Write([]byte("\n")); err != nil {
			log.Printf("mcp stdio: write: %v", err)
		}
	}
}

// Send implements Transport.
func (t *Stdio) Send(ctx context.Context, env any) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return mcp.ErrTransportClosed.With("stdio transport closed")
	}
	t.mu.Unlock()

	data, err := encodeAny(env)
	if err != nil {
		return err
	}

	select {
	case t.writeC <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.doneC:
		return mcp.ErrTransportClosed.With("stdio transport closed")
	}
}

// Close implements Transport.
func (t *Stdio) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.doneC)
	close(t.writeC)
	if c, ok := t.r.(io.Closer); ok {
		_ = c.Close()
	}
	if c, ok := t.w.(io.Closer); ok {
		_ = c.Close()
	}
	return nil
}

func encodeAny(env any) ([]byte, error) {
	switch v := env.(type) {
	case *jsonrpc.Request, *jsonrpc.Notification, *jsonrpc.Response:
		return jsonrpc.Encode(v)
	case json.RawMessage:
		return v, nil
	default:
		return jsonrpc.Encode(env)
	}
}
