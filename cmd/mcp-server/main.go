// Command mcp-server is a small stdio MCP server exercising pkg/mcpserver
// end to end: a couple of demo tools, one resource and one prompt,
// grounded on the teacher's cmd/mcp/mcp.go (Weather tool, signal-driven
// shutdown, RunStdio).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	jsonschema "github.com/google/jsonschema-go/jsonschema"

	mcpserver "github.com/mutablelogic/go-mcp/pkg/mcpserver"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
	transport "github.com/mutablelogic/go-mcp/pkg/transport"
)

func main() {
	srv, err := mcpserver.New(schema.Implementation{
		Name:    "mcp-server",
		Version: "0.0.1",
	}, mcpserver.WithInstructions("A demo MCP server exposing a weather tool, an echo tool, a readme resource and a greeting prompt."))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: ", err)
		os.Exit(1)
	}

	if err := registerTools(srv); err != nil {
		fmt.Fprintln(os.Stderr, "Error: ", err)
		os.Exit(1)
	}
	if err := registerResources(srv); err != nil {
		fmt.Fprintln(os.Stderr, "Error: ", err)
		os.Exit(1)
	}
	if err := registerPrompts(srv); err != nil {
		fmt.Fprintln(os.Stderr, "Error: ", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sess, err := srv.Serve(ctx, transport.NewStdio(os.Stdin, os.Stdout))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: ", err)
		os.Exit(1)
	}

	<-sess.Done()
}

///////////////////////////////////////////////////////////////////////////////
// TOOLS

func registerTools(srv *mcpserver.Server) error {
	echoSchema, err := schemaFromJSON(`{
		"type": "object",
		"properties": { "text": { "type": "string" } },
		"required": ["text"]
	}`)
	if err != nil {
		return err
	}
	if err := srv.RegisterTool(mcpserver.ToolSpec{
		Tool: schema.Tool{
			Name:        "echo",
			Description: "Echo back the given text",
			InputSchema: echoSchema,
		},
		Call: func(ctx context.Context, ex *mcpserver.Exchange, args json.RawMessage) (*schema.CallToolResult, error) {
			var in struct {
				Text string `json:"text"`
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
			}
			return &schema.CallToolResult{Content: []schema.Content{schema.TextContent(in.Text)}}, nil
		},
	}); err != nil {
		return err
	}

	weatherSchema, err := schemaFromJSON(`{
		"type": "object",
		"properties": { "city": { "type": "string" } },
		"required": ["city"]
	}`)
	if err != nil {
		return err
	}
	return srv.RegisterTool(mcpserver.ToolSpec{
		Tool: schema.Tool{
			Name:        "weather",
			Description: "Return current weather information for a city",
			InputSchema: weatherSchema,
		},
		Call: func(ctx context.Context, ex *mcpserver.Exchange, args json.RawMessage) (*schema.CallToolResult, error) {
			var in struct {
				City string `json:"city"`
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
			}
			if in.City == "" {
				return &schema.CallToolResult{
					Content: []schema.Content{schema.TextContent("city is required")},
					IsError: true,
				}, nil
			}
			ex.Log(schema.LoggingInfo, "weather", fmt.Sprintf("looked up weather for %s", in.City))
			return &schema.CallToolResult{
				Content: []schema.Content{schema.TextContent(fmt.Sprintf("The weather in %s is sunny", in.City))},
			}, nil
		},
	})
}

func schemaFromJSON(raw string) (*jsonschema.Schema, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

///////////////////////////////////////////////////////////////////////////////
// RESOURCES

func registerResources(srv *mcpserver.Server) error {
	const readmeURI = "file:///readme.txt"
	return srv.RegisterResource(mcpserver.ResourceSpec{
		Resource: schema.Resource{
			URI:         readmeURI,
			Name:        "readme",
			Description: "A short description of this server",
			MimeType:    "text/plain",
		},
		Read: func(ctx context.Context, ex *mcpserver.Exchange, req schema.ReadResourceRequest) (*schema.ReadResourceResult, error) {
			return &schema.ReadResourceResult{
				Contents: []schema.ResourceContents{
					{
						URI:      readmeURI,
						MimeType: "text/plain",
						Text:     "This is a demo MCP server built with go-mcp.",
					},
				},
			}, nil
		},
	})
}

///////////////////////////////////////////////////////////////////////////////
// PROMPTS

func registerPrompts(srv *mcpserver.Server) error {
	return srv.RegisterPrompt(mcpserver.PromptSpec{
		Prompt: schema.Prompt{
			Name:        "greeting",
			Description: "Render a greeting for a named person",
			Arguments: []schema.PromptArgument{
				{Name: "name", Description: "Who to greet", Required: true},
			},
		},
		Get: func(ctx context.Context, ex *mcpserver.Exchange, req schema.GetPromptRequest) (*schema.GetPromptResult, error) {
			name := req.Arguments["name"]
			if name == "" {
				name = "there"
			}
			return &schema.GetPromptResult{
				Description: "A friendly greeting",
				Messages: []schema.PromptMessage{
					{Role: "user", Content: schema.TextContent(fmt.Sprintf("Say hello to %s", name))},
				},
			}, nil
		},
	})
}
