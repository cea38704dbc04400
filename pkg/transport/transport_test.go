package transport_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
	transport "github.com/mutablelogic/go-mcp/pkg/transport"
)

// pipePair wires two Stdio transports back to back through in-memory
// pipes, so a stdio transport can be exercised without a subprocess.
func pipePair(t *testing.T) (a, b *transport.Stdio) {
	t.Helper()
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return transport.NewStdio(ar, aw), transport.NewStdio(br, bw)
}

func Test_transport_001(t *testing.T) {
	// A notification sent on one end of a stdio pipe is observed on the
	// other, matching spec.md §4.2's line-delimited stdio contract.
	assert := assert.New(t)
	a, b := pipePair(t)
	defer a.Close()
	defer b.Close()

	got := make(chan *jsonrpc.Envelope, 1)
	assert.NoError(a.Connect(context.Background(), func(ctx context.Context, env *jsonrpc.Envelope) {}))
	assert.NoError(b.Connect(context.Background(), func(ctx context.Context, env *jsonrpc.Envelope) {
		got <- env
	}))

	note := &jsonrpc.Notification{Method: "notifications/initialized"}
	assert.NoError(a.Send(context.Background(), note))

	select {
	case env := <-got:
		assert.Equal(jsonrpc.KindNotification, env.Kind)
		assert.Equal("notifications/initialized", env.Notification.Method)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func Test_transport_002(t *testing.T) {
	// Send after Close fails with TransportClosed.
	assert := assert.New(t)
	a, _ := pipePair(t)
	assert.NoError(a.Close())
	err := a.Send(context.Background(), &jsonrpc.Notification{Method: "ping"})
	assert.Error(err)
}
