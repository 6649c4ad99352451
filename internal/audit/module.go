package audit

import (
	"context"
	"log/slog"

	"github.com/kgraph-labs/actiongate/pkg/config"
	"go.uber.org/fx"
)

// NewSinkFromConfig assembles the configured sinks: the process log
// always, JSONL and SQLite when paths are set.
func NewSinkFromConfig(cfg config.AuditConfig, logger *slog.Logger) (Sink, error) {
	sinks := []Sink{NewSlogSink(logger)}

	if cfg.LogPath != "" {
		sinks = append(sinks, NewJSONLSink(cfg.LogPath))
	}
	if cfg.DBPath != "" {
		dbSink, err := NewSQLiteSink(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, dbSink)
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}

var Module = fx.Module("audit",
	fx.Provide(NewSinkFromConfig),
	fx.Invoke(func(lc fx.Lifecycle, sink Sink) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return sink.Close()
			},
		})
	}),
)
