package config

import "go.uber.org/fx"

// Module derives the smaller per-consumer configs. The full
// ServerConfig itself is supplied by the composition root, which has
// to load it before fx starts to pick the right fx logger.
var Module = fx.Module("config",
	fx.Provide(func(cfg *ServerConfig) HTTPConfig { return cfg.HTTP }),
	fx.Provide(func(cfg *ServerConfig) ApprovalsConfig { return cfg.Approvals }),
	fx.Provide(func(cfg *ServerConfig) AuditConfig { return cfg.Audit }),
	fx.Provide(func(cfg *ServerConfig) []ToolServerConfig { return cfg.ToolServers }),
)
