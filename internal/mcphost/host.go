package mcphost

import (
	"context"
	"log/slog"

	"github.com/kgraph-labs/actiongate/pkg/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// HealthStatus summarizes reachability across the pool.
type HealthStatus struct {
	Healthy int             `json:"healthy"`
	Total   int             `json:"total"`
	Servers map[string]bool `json:"servers"`
}

// Host is the high-level orchestrator over the connection pool. It is
// what the executor and the HTTP layer talk to.
type Host struct {
	pool   *Pool
	logger *slog.Logger
}

func NewHost(poolSize int, factory SessionFactory, logger *slog.Logger) *Host {
	return &Host{
		pool:   NewPool(poolSize, factory, logger),
		logger: logger,
	}
}

// Initialize registers every enabled server and runs an initial
// health check. Registration failures are logged, not fatal: a
// missing backend degrades to fallback execution rather than taking
// the process down.
func (h *Host) Initialize(ctx context.Context, configs []config.ToolServerConfig) {
	for _, cfg := range configs {
		if !cfg.Enabled {
			h.logger.Info("Skipping disabled tool server", "server", cfg.Name)
			continue
		}
		if err := h.pool.AddConnection(cfg); err != nil {
			h.logger.Warn("Failed to register tool server", "server", cfg.Name, "error", err)
		}
	}

	health := h.pool.HealthCheck(ctx)
	healthy := 0
	for _, ok := range health {
		if ok {
			healthy++
		}
	}
	h.logger.Info("Tool host initialized", "healthy", healthy, "total", len(health))
}

// CallTool dispatches a typed call to a named server.
func (h *Host) CallTool(ctx context.Context, server, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	return h.pool.CallTool(ctx, server, tool, args)
}

// DiscoverTools returns tool metadata per server. Empty name means
// all servers.
func (h *Host) DiscoverTools(ctx context.Context, server string) (map[string][]mcp.Tool, error) {
	return h.pool.DiscoverTools(ctx, server)
}

// HealthStatus reports reachability of every registered server.
func (h *Host) HealthStatus(ctx context.Context) HealthStatus {
	servers := h.pool.HealthCheck(ctx)
	status := HealthStatus{Servers: servers, Total: len(servers)}
	for _, ok := range servers {
		if ok {
			status.Healthy++
		}
	}
	return status
}

// Shutdown disconnects every server. Idempotent.
func (h *Host) Shutdown() {
	h.logger.Info("Shutting down tool host")
	h.pool.Shutdown()
}
