package mcphost

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kgraph-labs/actiongate/pkg/config"
	"github.com/mark3labs/mcp-go/mcp"
)

const clientName = "actiongate"

// connection is the runtime state for one registered server. The
// session handle is exclusively owned by the pool and never handed
// to callers. Its mutex serializes connect attempts and protects the
// cached tool list; a caller hitting a server mid-connect blocks here
// instead of racing to spawn a second process.
type connection struct {
	mu         sync.Mutex
	config     config.ToolServerConfig
	session    ToolSession
	tools      []mcp.Tool
	connected  bool
	retryCount int
}

// Pool manages named connections to backend tool servers. Membership
// changes are serialized; calls to different servers proceed
// independently.
type Pool struct {
	mu          sync.RWMutex
	connections map[string]*connection
	maxSize     int
	factory     SessionFactory
	logger      *slog.Logger
}

func NewPool(maxSize int, factory SessionFactory, logger *slog.Logger) *Pool {
	return &Pool{
		connections: make(map[string]*connection),
		maxSize:     maxSize,
		factory:     factory,
		logger:      logger,
	}
}

// AddConnection registers a server without any network I/O; the
// session is established lazily on first use.
func (p *Pool) AddConnection(cfg config.ToolServerConfig) error {
	if !cfg.Enabled {
		return fmt.Errorf("%w: %s", ErrServerDisabled, cfg.Name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.connections) >= p.maxSize {
		return fmt.Errorf("%w: cannot add %s", ErrPoolFull, cfg.Name)
	}
	if _, exists := p.connections[cfg.Name]; exists {
		return fmt.Errorf("%w: %s", ErrServerExists, cfg.Name)
	}

	p.connections[cfg.Name] = &connection{config: cfg}
	p.logger.Info("Registered tool server", "server", cfg.Name)
	return nil
}

func (p *Pool) get(name string) (*connection, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conn, ok := p.connections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, name)
	}
	return conn, nil
}

// Connect establishes the session for a server: launch, handshake,
// tool discovery. Already-connected servers are a no-op. There is no
// retry loop; the caller decides whether to try again.
func (p *Pool) Connect(ctx context.Context, name string) error {
	conn, err := p.get(name)
	if err != nil {
		return err
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	return p.connectLocked(ctx, conn)
}

// connectLocked does the actual establishment. Callers hold conn.mu.
func (p *Pool) connectLocked(ctx context.Context, conn *connection) error {
	if conn.connected {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, conn.config.Timeout)
	defer cancel()

	session, err := p.factory(conn.config)
	if err != nil {
		conn.retryCount++
		p.logger.Error("Failed to start tool server",
			"server", conn.config.Name, "attempt", conn.retryCount, "error", err)
		return &ToolExecutionError{Server: conn.config.Name, Err: err}
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: "1.0.0"}

	if _, err := session.Initialize(ctx, initReq); err != nil {
		_ = session.Close()
		conn.retryCount++
		p.logger.Error("Tool server handshake failed",
			"server", conn.config.Name, "attempt", conn.retryCount, "error", err)
		return &ToolExecutionError{Server: conn.config.Name, Err: err}
	}

	toolsResult, err := session.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = session.Close()
		conn.retryCount++
		p.logger.Error("Tool discovery failed",
			"server", conn.config.Name, "attempt", conn.retryCount, "error", err)
		return &ToolExecutionError{Server: conn.config.Name, Err: err}
	}

	conn.session = session
	conn.tools = toolsResult.Tools
	conn.connected = true
	conn.retryCount = 0

	p.logger.Info("Connected to tool server",
		"server", conn.config.Name, "tools", len(conn.tools))
	return nil
}

// CallTool invokes a named tool, connecting first if needed. The tool
// must appear in the server's discovered tool list.
func (p *Pool) CallTool(ctx context.Context, server, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	conn, err := p.get(server)
	if err != nil {
		return nil, err
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()

	if err := p.connectLocked(ctx, conn); err != nil {
		return nil, err
	}

	known := false
	available := make([]string, 0, len(conn.tools))
	for _, t := range conn.tools {
		available = append(available, t.Name)
		if t.Name == tool {
			known = true
		}
	}
	if !known {
		return nil, &UnknownToolError{Server: server, Tool: tool, Available: available}
	}

	callCtx, cancel := context.WithTimeout(ctx, conn.config.Timeout)
	defer cancel()

	request := mcp.CallToolRequest{}
	request.Params.Name = tool
	request.Params.Arguments = args

	result, err := conn.session.CallTool(callCtx, request)
	if err != nil {
		conn.retryCount++
		p.logger.Error("Tool call failed", "server", server, "tool", tool, "error", err)
		return nil, &ToolExecutionError{Server: server, Tool: tool, Err: err}
	}

	p.logger.Debug("Tool call succeeded", "server", server, "tool", tool)
	return result, nil
}

// DiscoverTools returns cached tool metadata, connecting servers as
// needed. With a name it covers one server; without, every registered
// server that can be reached.
func (p *Pool) DiscoverTools(ctx context.Context, name string) (map[string][]mcp.Tool, error) {
	result := make(map[string][]mcp.Tool)

	if name != "" {
		conn, err := p.get(name)
		if err != nil {
			return nil, err
		}
		conn.mu.Lock()
		err = p.connectLocked(ctx, conn)
		tools := conn.tools
		conn.mu.Unlock()
		if err != nil {
			return nil, err
		}
		result[name] = tools
		return result, nil
	}

	for _, serverName := range p.serverNames() {
		conn, err := p.get(serverName)
		if err != nil {
			continue
		}
		conn.mu.Lock()
		if err := p.connectLocked(ctx, conn); err == nil {
			result[serverName] = conn.tools
		}
		conn.mu.Unlock()
	}
	return result, nil
}

// HealthCheck attempts a connection to every registered server. It
// never returns an error; unreachable servers report false.
func (p *Pool) HealthCheck(ctx context.Context) map[string]bool {
	health := make(map[string]bool)

	for _, serverName := range p.serverNames() {
		conn, err := p.get(serverName)
		if err != nil {
			continue
		}
		conn.mu.Lock()
		err = p.connectLocked(ctx, conn)
		conn.mu.Unlock()
		health[serverName] = err == nil
	}
	return health
}

// Disconnect tears down one server's session.
func (p *Pool) Disconnect(name string) error {
	conn, err := p.get(name)
	if err != nil {
		return err
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()

	if conn.session != nil {
		if err := conn.session.Close(); err != nil {
			p.logger.Warn("Error closing tool server session", "server", name, "error", err)
		}
		conn.session = nil
	}
	conn.connected = false
	conn.tools = nil
	return nil
}

// Shutdown disconnects every server. Safe to call more than once.
func (p *Pool) Shutdown() {
	for _, name := range p.serverNames() {
		_ = p.Disconnect(name)
	}
}

func (p *Pool) serverNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.connections))
	for name := range p.connections {
		names = append(names, name)
	}
	return names
}
