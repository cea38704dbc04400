package jsonrpc_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	jsonrpc "github.com/mutablelogic/go-mcp/pkg/jsonrpc"
)

func Test_jsonrpc_009(t *testing.T) {
	// Decode populates a typed value from a result/params payload
	assert := assert.New(t)

	type tool struct {
		Name string `json:"name"`
	}
	var out tool
	err := jsonrpc.Decode(json.RawMessage(`{"name":"echo"}`), &out)
	assert.NoError(err)
	assert.Equal("echo", out.Name)
}

func Test_jsonrpc_010(t *testing.T) {
	// Decode of an empty/absent payload is a no-op, not an error (e.g. a
	// roots/list call with no params, or a result with no fields).
	assert := assert.New(t)

	type empty struct{}
	var out empty
	assert.NoError(jsonrpc.Decode(nil, &out))
	assert.NoError(jsonrpc.Decode(json.RawMessage(``), &out))
}

func Test_jsonrpc_011(t *testing.T) {
	// Malformed payload surfaces the underlying unmarshal error
	assert := assert.New(t)

	var out struct{ Name string }
	err := jsonrpc.Decode(json.RawMessage(`not json`), &out)
	assert.Error(err)
}
