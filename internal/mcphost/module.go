package mcphost

import (
	"context"
	"log/slog"

	"github.com/kgraph-labs/actiongate/pkg/config"
	"go.uber.org/fx"
)

var Module = fx.Module("mcphost",
	fx.Provide(func(cfg *config.ServerConfig, logger *slog.Logger) *Host {
		return NewHost(cfg.PoolSize, StdioSessionFactory, logger)
	}),
	fx.Invoke(func(lc fx.Lifecycle, host *Host, servers []config.ToolServerConfig) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				host.Initialize(ctx, servers)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				host.Shutdown()
				return nil
			},
		})
	}),
)
