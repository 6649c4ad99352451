package executor

import (
	"log/slog"

	"github.com/kgraph-labs/actiongate/internal/audit"
	"github.com/kgraph-labs/actiongate/internal/mcphost"
	"go.uber.org/fx"
)

var Module = fx.Module("executor",
	fx.Provide(func(host *mcphost.Host, sink audit.Sink, logger *slog.Logger) *Executor {
		return NewExecutor(host, sink, logger)
	}),
)
