package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/i2y/toolwrap/internal/domain"
)

// ClientName and ClientVersion are reported to MCP servers during initialization.
const (
	ClientName    = "toolwrap"
	ClientVersion = "0.1.0"
)

// maxListPages stops cursor pagination against a misbehaving server.
const maxListPages = 50

// RemoteTool is a tool as listed by an MCP server.
type RemoteTool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// Session is one initialized MCP client session.
type Session interface {
	ListTools(ctx context.Context) ([]RemoteTool, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (interface{}, error)
	Close() error
}

// Endpoint describes how to reach one MCP server.
type Endpoint struct {
	Server    string
	Transport domain.CustomType
	URL       string
	Headers   map[string]string
	Command   string
	Args      []string
	Env       []string
}

// Dialer opens an initialized Session. ctx bounds the connection handshake only;
// the returned session stays usable until Close.
type Dialer func(ctx context.Context, endpoint Endpoint) (Session, error)

// DialMCP is the Dialer backed by mark3labs/mcp-go.
func DialMCP(ctx context.Context, endpoint Endpoint) (Session, error) {
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	type dialResult struct {
		client *client.Client
		err    error
	}
	done := make(chan dialResult, 1)
	go func() {
		c, err := startClient(sessionCtx, endpoint)
		done <- dialResult{client: c, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			cancel()
			return nil, res.err
		}
		if err := initialize(ctx, res.client); err != nil {
			_ = res.client.Close()
			cancel()
			return nil, err
		}
		return &mcpSession{client: res.client, cancel: cancel}, nil
	case <-ctx.Done():
		cancel()
		go func() {
			if res := <-done; res.client != nil {
				_ = res.client.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

func startClient(ctx context.Context, endpoint Endpoint) (*client.Client, error) {
	switch endpoint.Transport.Normalize() {
	case domain.CustomTypeStdio:
		// The stdio transport spawns the process on construction.
		c, err := client.NewStdioMCPClient(endpoint.Command, endpoint.Env, endpoint.Args...)
		if err != nil {
			return nil, fmt.Errorf("failed to start %s: %w", endpoint.Command, err)
		}
		return c, nil
	case domain.CustomTypeSSE:
		c, err := client.NewSSEMCPClient(endpoint.URL, transport.WithHeaders(endpoint.Headers))
		if err != nil {
			return nil, fmt.Errorf("failed to create SSE client for %s: %w", endpoint.URL, err)
		}
		if err := c.Start(ctx); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to start SSE session with %s: %w", endpoint.URL, err)
		}
		return c, nil
	case domain.CustomTypeHTTP:
		c, err := client.NewStreamableHttpClient(endpoint.URL, transport.WithHTTPHeaders(endpoint.Headers))
		if err != nil {
			return nil, fmt.Errorf("failed to create streamable HTTP client for %s: %w", endpoint.URL, err)
		}
		if err := c.Start(ctx); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to start streamable HTTP session with %s: %w", endpoint.URL, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", endpoint.Transport)
	}
}

func initialize(ctx context.Context, c *client.Client) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: ClientName, Version: ClientVersion}
	req.Params.Capabilities = mcp.ClientCapabilities{}
	if _, err := c.Initialize(ctx, req); err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}
	return nil
}

type mcpSession struct {
	client *client.Client
	cancel context.CancelFunc
}

func (s *mcpSession) ListTools(ctx context.Context) ([]RemoteTool, error) {
	var tools []RemoteTool
	req := mcp.ListToolsRequest{}
	for page := 0; page < maxListPages; page++ {
		result, err := s.client.ListTools(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("tools/list failed: %w", err)
		}
		for _, tool := range result.Tools {
			tools = append(tools, RemoteTool{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: inputSchemaOf(tool),
			})
		}
		if result.NextCursor == "" {
			break
		}
		req.Params.Cursor = result.NextCursor
	}
	return tools, nil
}

func (s *mcpSession) CallTool(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, err
	}
	text := contentText(result.Content)
	if result.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return nil, errors.New(text)
	}
	return text, nil
}

func (s *mcpSession) Close() error {
	defer s.cancel()
	return s.client.Close()
}

// inputSchemaOf extracts the declared input schema as a plain JSON object,
// honoring a raw schema when the server sent one.
func inputSchemaOf(tool mcp.Tool) map[string]interface{} {
	data, err := json.Marshal(tool)
	if err != nil {
		return nil
	}
	var decoded struct {
		InputSchema map[string]interface{} `json:"inputSchema"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil
	}
	return decoded.InputSchema
}

// contentText flattens tool result content: text blocks verbatim, anything else as JSON.
func contentText(contents []mcp.Content) string {
	parts := make([]string, 0, len(contents))
	for _, content := range contents {
		switch c := content.(type) {
		case mcp.TextContent:
			parts = append(parts, c.Text)
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		default:
			data, err := json.Marshal(content)
			if err != nil {
				continue
			}
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n")
}
