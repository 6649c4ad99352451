package fxapp

import (
	"log"

	"github.com/kgraph-labs/actiongate/internal/approval"
	"github.com/kgraph-labs/actiongate/internal/audit"
	"github.com/kgraph-labs/actiongate/internal/executor"
	"github.com/kgraph-labs/actiongate/internal/httpapi"
	"github.com/kgraph-labs/actiongate/internal/mcphost"
	"github.com/kgraph-labs/actiongate/pkg/config"
	"github.com/kgraph-labs/actiongate/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func New() *fx.App {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Default to a verbose logger for debug level
	var fxLogger fx.Option = fx.WithLogger(
		func() fxevent.Logger {
			return &fxevent.ConsoleLogger{W: log.Writer()}
		},
	)

	if cfg.LogLevel != "debug" {
		fxLogger = fx.NopLogger
	}

	return fx.New(
		fxLogger,
		fx.Supply(cfg),
		config.Module,
		logger.Module,
		audit.Module,
		approval.Module,
		mcphost.Module,
		executor.Module,
		httpapi.Module,
	)
}
