package transport_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	transport "github.com/mutablelogic/go-mcp/pkg/transport"
)

// Test_sse_001 exercises the full SSE client/server round trip: endpoint
// discovery (S5), then a request-shaped envelope delivered client -> POST
// -> server handler, and a reply delivered back over the event stream.
func Test_sse_001(t *testing.T) {
	assert := assert.New(t)

	serverGotRequest := make(chan *jsonrpc.Envelope, 1)
	var serverSide transport.Transport

	srv := transport.NewSSEServer(func(ctx context.Context, tr transport.Transport) {
		serverSide = tr
		assert.NoError(tr.Connect(ctx, func(ctx context.Context, env *jsonrpc.Envelope) {
			serverGotRequest <- env
		}))
	}, "", "")

	ts := httptest.NewServer(srv)
	defer ts.Close()

	client, err := transport.NewSSEClient(ts.URL)
	assert.NoError(err)

	clientGotMessage := make(chan *jsonrpc.Envelope, 1)
	assert.NoError(client.Connect(context.Background(), func(ctx context.Context, env *jsonrpc.Envelope) {
		clientGotMessage <- env
	}))

	req := &jsonrpc.Request{ID: jsonrpc.ID(`1`), Method: "ping"}
	assert.NoError(client.Send(context.Background(), req))

	select {
	case env := <-serverGotRequest:
		assert.Equal(jsonrpc.KindRequest, env.Kind)
		assert.Equal("ping", env.Request.Method)
	case <-time.After(3 * time.Second):
		t.Fatal("server never received the request")
	}

	resp := &jsonrpc.Response{ID: req.ID, Result: []byte(`{}`)}
	assert.NoError(serverSide.Send(context.Background(), resp))

	select {
	case env := <-clientGotMessage:
		assert.Equal(jsonrpc.KindResponse, env.Kind)
		assert.Equal(req.ID.String(), env.Response.ID.String())
	case <-time.After(3 * time.Second):
		t.Fatal("client never received the response")
	}
}
