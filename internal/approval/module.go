package approval

import (
	"log/slog"

	"github.com/kgraph-labs/actiongate/pkg/config"
	"go.uber.org/fx"
)

var Module = fx.Module("approval",
	fx.Provide(func(cfg config.ApprovalsConfig, logger *slog.Logger) *Store {
		return NewStore(cfg.Path, logger)
	}),
)
