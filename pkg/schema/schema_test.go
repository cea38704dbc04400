package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	schema "github.com/mutablelogic/go-mcp/pkg/schema"
)

func Test_schema_001(t *testing.T) {
	// Content is tagged by an explicit "type" field.
	assert := assert.New(t)
	c := schema.TextContent("hi")
	data, err := json.Marshal(c)
	assert.NoError(err)
	assert.JSONEq(`{"type":"text","text":"hi"}`, string(data))
}

func Test_schema_002(t *testing.T) {
	// ResourceContents discriminates structurally: text present => IsText.
	assert := assert.New(t)
	r := schema.ResourceContents{URI: "file:///a", Text: "hello"}
	assert.True(r.IsText())
	assert.False(r.IsBlob())

	data, err := json.Marshal(r)
	assert.NoError(err)
	var m map[string]any
	assert.NoError(json.Unmarshal(data, &m))
	_, hasBlob := m["blob"]
	assert.False(hasBlob)
}

func Test_schema_003(t *testing.T) {
	// ResourceContents discriminates structurally: blob present, text absent.
	assert := assert.New(t)
	r := schema.ResourceContents{URI: "file:///b", Blob: "YmFzZTY0"}
	assert.False(r.IsText())
	assert.True(r.IsBlob())
}

func Test_schema_004(t *testing.T) {
	// LoggingLevel ordering (spec.md §6).
	assert := assert.New(t)
	assert.True(schema.LoggingDebug < schema.LoggingInfo)
	assert.True(schema.LoggingEmergency > schema.LoggingAlert)
}

func Test_schema_005(t *testing.T) {
	// LoggingLevel round-trips through its wire name.
	assert := assert.New(t)
	data, err := json.Marshal(schema.LoggingWarning)
	assert.NoError(err)
	assert.Equal(`"warning"`, string(data))

	var l schema.LoggingLevel
	assert.NoError(json.Unmarshal(data, &l))
	assert.Equal(schema.LoggingWarning, l)
}

func Test_schema_006(t *testing.T) {
	// CallToolResult marshals isError only when true.
	assert := assert.New(t)
	ok := schema.CallToolResult{Content: []schema.Content{schema.TextContent("hi")}}
	data, err := json.Marshal(ok)
	assert.NoError(err)
	var m map[string]any
	assert.NoError(json.Unmarshal(data, &m))
	_, hasIsError := m["isError"]
	assert.False(hasIsError)
}
