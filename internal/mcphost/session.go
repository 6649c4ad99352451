package mcphost

import (
	"context"
	"fmt"

	"github.com/kgraph-labs/actiongate/pkg/config"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolSession is the protocol surface the pool needs from one live
// server connection. The mcp-go stdio client satisfies it; tests
// inject fakes through a SessionFactory.
type ToolSession interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// SessionFactory launches the transport for a configured server and
// returns an uninitialized session.
type SessionFactory func(cfg config.ToolServerConfig) (ToolSession, error)

// StdioSessionFactory spawns the server process and speaks the tool
// protocol over its stdin/stdout.
func StdioSessionFactory(cfg config.ToolServerConfig) (ToolSession, error) {
	env := make([]string, 0, len(cfg.Env))
	for key, value := range cfg.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	c, err := client.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start tool server %s: %w", cfg.Name, err)
	}
	return c, nil
}
