package session_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	mcp "github.com/mutablelogic/go-mcp"
	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
	session "github.com/mutablelogic/go-mcp/pkg/session"
	transport "github.com/mutablelogic/go-mcp/pkg/transport"
)

// pipePair wires two Stdio transports back to back through in-memory
// pipes, so client/server sessions can be exercised without a subprocess.
func pipePair(t *testing.T) (client, server *transport.Stdio) {
	t.Helper()
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return transport.NewStdio(ar, aw), transport.NewStdio(br, bw)
}

// handshake drives a minimal initialize/initialized exchange (spec.md
// scenario S1) and returns both sessions already in the Ready phase.
func handshake(t *testing.T) (client, server *session.Session) {
	t.Helper()
	ct, st := pipePair(t)

	server, err := session.New(session.RoleServer, st)
	assert.NoError(t, err)
	server.RegisterRequestHandler(schema.MethodInitialize, func(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
		var req schema.InitializeRequest
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, err.Error(), nil)
		}
		ex.Session().SetPeerCapabilities(&req.Capabilities)
		ex.Session().SetPeerInfo(req.ClientInfo)
		return schema.InitializeResult{
			ProtocolVersion: schema.ProtocolVersion,
			Capabilities:    schema.ServerCapabilities{Tools: &schema.ToolsCaps{}},
			ServerInfo:      schema.Implementation{Name: "test-server", Version: "0.0.0"},
		}, nil
	})
	assert.NoError(t, server.Start(context.Background()))

	client, err = session.New(session.RoleClient, ct)
	assert.NoError(t, err)
	assert.NoError(t, client.Start(context.Background()))

	raw, err := client.Request(context.Background(), schema.MethodInitialize, schema.InitializeRequest{
		ProtocolVersion: schema.ProtocolVersion,
		ClientInfo:      schema.Implementation{Name: "test-client", Version: "0.0.0"},
	})
	assert.NoError(t, err)

	var result schema.InitializeResult
	assert.NoError(t, json.Unmarshal(raw, &result))
	client.SetPeerCapabilities(&result.Capabilities)
	client.SetPeerInfo(result.ServerInfo)
	client.MarkReady()

	assert.NoError(t, client.Notify(context.Background(), schema.MethodInitialized, nil))

	// The server flips to Ready asynchronously on receiving
	// notifications/initialized; give its goroutine a moment.
	assert.Eventually(t, func() bool {
		return server.Phase() == session.PhaseReady
	}, time.Second, 5*time.Millisecond)

	return client, server
}

func Test_session_001(t *testing.T) {
	// Full S1 handshake: both sides end up Ready with peer info recorded.
	assert := assert.New(t)
	client, server := handshake(t)
	defer client.Close()
	defer server.Close()

	assert.Equal(session.PhaseReady, client.Phase())
	assert.Equal(session.PhaseReady, server.Phase())
	assert.Equal("test-client", server.PeerInfo().Name)
	assert.Equal("test-server", client.PeerInfo().Name)
}

func Test_session_002(t *testing.T) {
	// S2: a registered request handler answers a call end to end.
	assert := assert.New(t)
	client, server := handshake(t)
	defer client.Close()
	defer server.Close()

	server.RegisterRequestHandler("echo/ping", func(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
		return map[string]string{"pong": string(params)}, nil
	})

	raw, err := client.Request(context.Background(), "echo/ping", map[string]string{"hello": "world"})
	assert.NoError(err)
	assert.Contains(string(raw), "pong")
}

func Test_session_003(t *testing.T) {
	// S3: an unregistered method is answered with MethodNotFound, which
	// surfaces to the caller as an error.
	assert := assert.New(t)
	client, server := handshake(t)
	defer client.Close()
	defer server.Close()

	_, err := client.Request(context.Background(), "nonexistent/method", nil)
	assert.Error(err)
}

func Test_session_004(t *testing.T) {
	// S4: a request with a short deadline times out and completes the
	// caller with ErrTimeout while the handler is still blocked.
	assert := assert.New(t)
	client, server := handshake(t)
	defer client.Close()
	defer server.Close()

	block := make(chan struct{})
	server.RegisterRequestHandler("slow/op", func(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
		<-block
		return map[string]string{}, nil
	})
	defer close(block)

	_, err := client.Request(context.Background(), "slow/op", nil, session.WithDeadline(50*time.Millisecond))
	assert.ErrorIs(err, mcp.ErrTimeout)
}

func Test_session_005(t *testing.T) {
	// Closing a session fails every still-pending outbound request with
	// ErrSessionClosed rather than leaving the caller blocked forever.
	assert := assert.New(t)
	client, server := handshake(t)
	defer server.Close()

	block := make(chan struct{})
	server.RegisterRequestHandler("slow/op", func(ctx context.Context, ex *session.Exchange, params json.RawMessage) (any, *jsonrpc.Error) {
		<-block
		return map[string]string{}, nil
	})
	defer close(block)

	errCh := make(chan error, 1)
	go func() {
		_, err := client.Request(context.Background(), "slow/op", nil)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	assert.NoError(client.Close())

	select {
	case err := <-errCh:
		assert.Error(err)
	case <-time.After(2 * time.Second):
		t.Fatal("request never completed after session close")
	}
}

func Test_session_006(t *testing.T) {
	// A second initialize request after the handshake is refused by the
	// client session's outbound gate (the session is Ready, not
	// Initializing), so it is never sent or re-answered.
	assert := assert.New(t)
	client, server := handshake(t)
	defer client.Close()
	defer server.Close()

	_, err := client.Request(context.Background(), schema.MethodInitialize, schema.InitializeRequest{})
	assert.Error(err)
}
