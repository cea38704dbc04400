package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"

	// Packages
	kong "github.com/alecthomas/kong"
	client "github.com/mutablelogic/go-client"

	mcpclient "github.com/mutablelogic/go-mcp/pkg/mcpclient"
	schema "github.com/mutablelogic/go-mcp/pkg/schema"
	transport "github.com/mutablelogic/go-mcp/pkg/transport"
	version "github.com/mutablelogic/go-mcp/pkg/version"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type CLI struct {
	Globals

	// Commands
	Ping      PingCommand      `cmd:"" help:"Ping the MCP server"`
	Tools     ToolsCommand     `cmd:"" help:"List available tools"`
	Do        DoCommand        `cmd:"" help:"Call a tool by name"`
	Resources ResourcesCommand `cmd:"" help:"List available resources"`
	Resource  ResourceCommand  `cmd:"" help:"Read a resource by URI"`
	Subscribe SubscribeCommand `cmd:"" help:"Subscribe to resource update notifications"`
	Prompts   PromptsCommand   `cmd:"" help:"List available prompts"`
	Prompt    PromptCommand    `cmd:"" help:"Get a prompt by name"`
	Complete  CompleteCommand  `cmd:"" help:"Request argument completions"`
	SetLevel  SetLevelCommand  `cmd:"" help:"Set the server's minimum logging level"`
	Inspect   InspectCommand   `cmd:"" help:"Browse a server's tools, resources and prompts interactively"`
}

type Globals struct {
	Profile string           `name:"profile" help:"Named profile from ~/.config/go-mcp/profiles.yaml" optional:""`
	Auth    string           `name:"auth" help:"Authentication in the form scheme=token (e.g. bearer=TOKEN)" optional:""`
	Debug   bool             `name:"debug" help:"Enable debug output" default:"false"`
	Version kong.VersionFlag `name:"version" help:"Print version and exit"`

	// Private
	ctx    context.Context
	cancel context.CancelFunc
	client *mcpclient.Client
	closer func() error
}

type PingCommand struct {
	URL string `arg:"" help:"MCP server URL, or a profile name" optional:""`
}

type ToolsCommand struct {
	URL string `arg:"" help:"MCP server URL, or a profile name" optional:""`
}

type DoCommand struct {
	URL  string   `arg:"" help:"MCP server URL, or a profile name"`
	Name string   `arg:"" help:"Tool name"`
	Args []string `arg:"" help:"Tool arguments as key=value pairs" optional:""`
}

type ResourcesCommand struct {
	URL string `arg:"" help:"MCP server URL, or a profile name" optional:""`
}

type ResourceCommand struct {
	URL string `arg:"" help:"MCP server URL, or a profile name"`
	URI string `arg:"" help:"Resource URI"`
}

type SubscribeCommand struct {
	URL string `arg:"" help:"MCP server URL, or a profile name"`
	URI string `arg:"" help:"Resource URI"`
}

type PromptsCommand struct {
	URL string `arg:"" help:"MCP server URL, or a profile name" optional:""`
}

type PromptCommand struct {
	URL  string   `arg:"" help:"MCP server URL, or a profile name"`
	Name string   `arg:"" help:"Prompt name"`
	Args []string `arg:"" help:"Prompt arguments as key=value pairs" optional:""`
}

type CompleteCommand struct {
	URL   string `arg:"" help:"MCP server URL, or a profile name"`
	Ref   string `arg:"" help:"Reference, as ref/prompt:name or ref/resource:uri"`
	Arg   string `arg:"" help:"Argument name"`
	Value string `arg:"" help:"Partial argument value" optional:""`
}

type SetLevelCommand struct {
	URL   string `arg:"" help:"MCP server URL, or a profile name"`
	Level string `arg:"" help:"debug, info, notice, warning, error, critical, alert or emergency"`
}

type InspectCommand struct {
	URL string `arg:"" help:"MCP server URL, or a profile name" optional:""`
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func main() {
	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name("mcp-client"),
		kong.Description("MCP (Model Context Protocol) client"),
		kong.Vars{
			"version": string(version.JSON("mcp-client")),
		},
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	// Create context
	cli.ctx, cli.cancel = signal.NotifyContext(context.Background(), os.Interrupt)
	defer cli.cancel()

	// Run the selected command
	cmd.FatalIfErrorf(cmd.Run(&cli.Globals))
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *PingCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.close()

	if err := g.client.Ping(g.ctx); err != nil {
		return err
	}
	fmt.Println("OK")

	info := g.client.ServerInfo()
	fmt.Printf("Server: %s %s (protocol %s)\n", info.ServerInfo.Name, info.ServerInfo.Version, info.ProtocolVersion)
	fmt.Printf("Capabilities: tools=%v prompts=%v resources=%v logging=%v completions=%v\n",
		info.Capabilities.Tools != nil,
		info.Capabilities.Prompts != nil,
		info.Capabilities.Resources != nil,
		info.Capabilities.Logging != nil,
		info.Capabilities.Completions != nil,
	)
	return nil
}

func (cmd *ToolsCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.close()

	tools, err := g.client.ListTools(g.ctx)
	if err != nil {
		return err
	}
	for i, tool := range tools {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s\n", tool.Name)
		if tool.Description != "" {
			fmt.Printf("  %s\n", tool.Description)
		}
		if tool.InputSchema != nil {
			data, err := json.MarshalIndent(tool.InputSchema, "  ", "  ")
			if err == nil {
				fmt.Printf("  %s\n", string(data))
			}
		}
	}
	fmt.Printf("\n%d tools\n", len(tools))
	return nil
}

func (cmd *DoCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.close()

	args, err := parseArgsJSON(cmd.Args)
	if err != nil {
		return err
	}

	result, err := g.client.CallTool(g.ctx, cmd.Name, args)
	if err != nil {
		return err
	}

	if result.IsError {
		fmt.Fprintln(os.Stderr, "Tool returned an error")
	}
	for _, c := range result.Content {
		switch c.Type {
		case schema.ContentTypeText:
			fmt.Println(c.Text)
		default:
			fmt.Printf("[%s] %s\n", c.Type, c.MimeType)
		}
	}
	return nil
}

func (cmd *ResourcesCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.close()

	resources, err := g.client.ListResources(g.ctx)
	if err != nil {
		return err
	}
	for _, r := range resources {
		fmt.Printf("%-40s %s\n", r.URI, r.Name)
		if r.Description != "" {
			fmt.Printf("  %s\n", r.Description)
		}
	}
	fmt.Printf("\n%d resources\n", len(resources))
	return nil
}

func (cmd *ResourceCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.close()

	result, err := g.client.ReadResource(g.ctx, cmd.URI)
	if err != nil {
		return err
	}
	for _, content := range result.Contents {
		if content.IsText() {
			fmt.Println(content.Text)
		} else {
			fmt.Printf("[%s %d bytes base64]\n", content.MimeType, len(content.Blob))
		}
	}
	return nil
}

func (cmd *SubscribeCommand) Run(g *Globals) error {
	notified := make(chan string, 16)
	if err := g.connect(cmd.URL, mcpclient.WithResourceUpdatedHandler(func(uri string) { notified <- uri })); err != nil {
		return err
	}
	defer g.close()

	if err := g.client.Subscribe(g.ctx, cmd.URI); err != nil {
		return err
	}
	fmt.Printf("Subscribed to %s, waiting for updates (ctrl+c to stop)...\n", cmd.URI)

	for {
		select {
		case uri := <-notified:
			fmt.Printf("updated: %s\n", uri)
		case <-g.ctx.Done():
			return nil
		}
	}
}

func (cmd *PromptsCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.close()

	prompts, err := g.client.ListPrompts(g.ctx)
	if err != nil {
		return err
	}
	for _, p := range prompts {
		fmt.Printf("%-30s %s\n", p.Name, p.Description)
		for _, arg := range p.Arguments {
			req := ""
			if arg.Required {
				req = " (required)"
			}
			fmt.Printf("  %-28s %s%s\n", arg.Name, arg.Description, req)
		}
	}
	fmt.Printf("\n%d prompts\n", len(prompts))
	return nil
}

func (cmd *PromptCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.close()

	args := make(map[string]string)
	for _, kv := range cmd.Args {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("argument must be key=value, got %q", kv)
		}
		args[parts[0]] = parts[1]
	}

	result, err := g.client.GetPrompt(g.ctx, cmd.Name, args)
	if err != nil {
		return err
	}
	if result.Description != "" {
		fmt.Println(result.Description)
		fmt.Println()
	}
	for i, msg := range result.Messages {
		fmt.Printf("[%d] %s (%s):\n", i, msg.Role, msg.Content.Type)
		if msg.Content.Text != "" {
			fmt.Println(msg.Content.Text)
		}
		fmt.Println()
	}
	return nil
}

func (cmd *CompleteCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.close()

	ref, err := parseCompleteRef(cmd.Ref)
	if err != nil {
		return err
	}

	result, err := g.client.Complete(g.ctx, ref, schema.CompleteArgument{Name: cmd.Arg, Value: cmd.Value})
	if err != nil {
		return err
	}
	for _, v := range result.Completion.Values {
		fmt.Println(v)
	}
	fmt.Printf("\n%d of %d\n", len(result.Completion.Values), result.Completion.Total)
	return nil
}

func (cmd *SetLevelCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.close()

	level, ok := schema.ParseLoggingLevel(cmd.Level)
	if !ok {
		return fmt.Errorf("unrecognized logging level: %q", cmd.Level)
	}
	return g.client.SetLoggingLevel(g.ctx, level)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// resolveURL expands a profile name into its URL and auth settings,
// applying them to Globals so connect picks them up. A bare http(s):// or
// stdio: URL passes through unchanged.
func (g *Globals) resolveURL(url string) (string, error) {
	if url == "" {
		url = g.Profile
	}
	if url == "" {
		return "", fmt.Errorf("a server URL or --profile is required")
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "stdio:") {
		return url, nil
	}

	path, err := defaultConfigPath()
	if err != nil {
		return "", err
	}
	profile, ok, err := loadProfile(path, url)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("unknown profile %q (and not a URL)", url)
	}
	if g.Auth == "" {
		g.Auth = profile.Auth
	}
	g.Debug = g.Debug || profile.Debug
	return profile.URL, nil
}

// connect creates and stores the MCP client on Globals, dialing either an
// SSE server (http(s)://...) or a stdio subprocess (stdio:command args...).
func (g *Globals) connect(rawURL string, extra ...mcpclient.Opt) error {
	url, err := g.resolveURL(rawURL)
	if err != nil {
		return err
	}

	t, closer, err := g.dial(url)
	if err != nil {
		return err
	}

	opts := append([]mcpclient.Opt{
		mcpclient.WithNotificationHandler(func(method string, params json.RawMessage) {
			if g.Debug {
				fmt.Fprintf(os.Stderr, "notification: %s %s\n", method, string(params))
			}
		}),
	}, extra...)

	c, err := mcpclient.New(t, schema.Implementation{
		Name:    "mcp-client",
		Version: "0.0.1",
	}, opts...)
	if err != nil {
		closer()
		return err
	}

	if _, err := c.Initialize(g.ctx); err != nil {
		closer()
		return err
	}

	g.client = c
	g.closer = closer
	return nil
}

func (g *Globals) close() {
	if g.client != nil {
		g.client.Close()
	}
	if g.closer != nil {
		g.closer()
	}
}

// dial builds the transport for url: a stdio subprocess for "stdio:cmd
// args", or an SSE client for an http(s) URL (grounded on the teacher's
// pkg/mcp/client/sse.go transport and cmd/mcp/mcp.go's stdio RunStdio).
func (g *Globals) dial(url string) (transport.Transport, func() error, error) {
	if strings.HasPrefix(url, "stdio:") {
		fields := strings.Fields(strings.TrimPrefix(url, "stdio:"))
		if len(fields) == 0 {
			return nil, nil, fmt.Errorf("stdio: requires a command")
		}

		proc := exec.CommandContext(g.ctx, fields[0], fields[1:]...)
		proc.Stderr = os.Stderr
		stdin, err := proc.StdinPipe()
		if err != nil {
			return nil, nil, err
		}
		stdout, err := proc.StdoutPipe()
		if err != nil {
			return nil, nil, err
		}
		if err := proc.Start(); err != nil {
			return nil, nil, err
		}

		t := transport.NewStdio(stdout, stdin)
		return t, func() error {
			stdin.Close()
			return proc.Wait()
		}, nil
	}

	var opts []interface{}
	if g.Auth != "" {
		parts := strings.SplitN(g.Auth, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, nil, fmt.Errorf("--auth must be in the form scheme=token (e.g. bearer=TOKEN)")
		}
		scheme := parts[0]
		if strings.EqualFold(scheme, "bearer") {
			scheme = client.Bearer
		}
		opts = append(opts, client.OptReqToken(client.Token{Scheme: scheme, Value: parts[1]}))
	}
	if g.Debug {
		opts = append(opts, client.OptTrace(os.Stderr, true))
	}

	t, err := transport.NewSSEClient(url, opts...)
	if err != nil {
		return nil, nil, err
	}
	return t, func() error { return nil }, nil
}

///////////////////////////////////////////////////////////////////////////////
// HELPERS

// parseArgsJSON converts key=value pairs to a JSON object (json.RawMessage).
// Returns nil if no args are provided.
func parseArgsJSON(args []string) (json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(args))
	for _, kv := range args {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("argument must be key=value, got %q", kv)
		}
		var v any
		if err := json.Unmarshal([]byte(parts[1]), &v); err != nil {
			v = parts[1]
		}
		m[parts[0]] = v
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// parseCompleteRef parses "ref/prompt:name" or "ref/resource:uri" into a
// CompleteReference.
func parseCompleteRef(s string) (schema.CompleteReference, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return schema.CompleteReference{}, fmt.Errorf("ref must be ref/prompt:name or ref/resource:uri, got %q", s)
	}
	switch parts[0] {
	case "ref/prompt":
		return schema.CompleteReference{Type: parts[0], Name: parts[1]}, nil
	case "ref/resource":
		return schema.CompleteReference{Type: parts[0], URI: parts[1]}, nil
	default:
		return schema.CompleteReference{}, fmt.Errorf("unrecognized reference type: %q", parts[0])
	}
}
