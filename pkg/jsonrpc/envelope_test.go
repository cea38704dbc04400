package jsonrpc_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
)

func Test_jsonrpc_001(t *testing.T) {
	// Request discrimination: method + id
	assert := assert.New(t)
	env, err := jsonrpc.Parse([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`))
	assert.NoError(err)
	assert.Equal(jsonrpc.KindRequest, env.Kind)
	assert.Equal("initialize", env.Request.Method)
	assert.Equal("1", env.Request.ID.String())
}

func Test_jsonrpc_002(t *testing.T) {
	// Notification discrimination: method without id
	assert := assert.New(t)
	env, err := jsonrpc.Parse([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.NoError(err)
	assert.Equal(jsonrpc.KindNotification, env.Kind)
	assert.Equal("notifications/initialized", env.Notification.Method)
}

func Test_jsonrpc_003(t *testing.T) {
	// Response discrimination: result present
	assert := assert.New(t)
	env, err := jsonrpc.Parse([]byte(`{"jsonrpc":"2.0","id":9,"result":{"ok":true}}`))
	assert.NoError(err)
	assert.Equal(jsonrpc.KindResponse, env.Kind)
	assert.Nil(env.Response.Error)
	assert.Equal("9", env.Response.ID.String())
}

func Test_jsonrpc_004(t *testing.T) {
	// Response discrimination: error present (S3 unknown method)
	assert := assert.New(t)
	env, err := jsonrpc.Parse([]byte(`{"jsonrpc":"2.0","id":9,"error":{"code":-32601,"message":"Method not found"}}`))
	assert.NoError(err)
	assert.Equal(jsonrpc.KindResponse, env.Kind)
	assert.NotNil(env.Response.Error)
	assert.Equal(jsonrpc.CodeMethodNotFound, env.Response.Error.Code)
}

func Test_jsonrpc_005(t *testing.T) {
	// Unparseable envelope: neither method nor result/error
	assert := assert.New(t)
	_, err := jsonrpc.Parse([]byte(`{"jsonrpc":"2.0","id":1}`))
	assert.Error(err)
}

func Test_jsonrpc_006(t *testing.T) {
	// Malformed JSON
	assert := assert.New(t)
	_, err := jsonrpc.Parse([]byte(`not json`))
	assert.Error(err)
}

func Test_jsonrpc_007(t *testing.T) {
	// Codec round-trip (invariant 7): decode(encode(x)) == x
	assert := assert.New(t)

	req := &jsonrpc.Request{ID: jsonrpc.ID(`42`), Method: "tools/call", Params: json.RawMessage(`{"name":"echo"}`)}
	data, err := jsonrpc.Encode(req)
	assert.NoError(err)

	env, err := jsonrpc.Parse(data)
	assert.NoError(err)
	assert.Equal(jsonrpc.KindRequest, env.Kind)
	assert.Equal(req.Method, env.Request.Method)
	assert.Equal(req.ID.String(), env.Request.ID.String())
	assert.JSONEq(string(req.Params), string(env.Request.Params))
}

func Test_jsonrpc_008(t *testing.T) {
	// Notification never carries an id on the wire
	assert := assert.New(t)
	note := &jsonrpc.Notification{Method: "notifications/cancelled", Params: json.RawMessage(`{"requestId":42}`)}
	data, err := jsonrpc.Encode(note)
	assert.NoError(err)

	var m map[string]any
	assert.NoError(json.Unmarshal(data, &m))
	_, hasID := m["id"]
	assert.False(hasID)
}
