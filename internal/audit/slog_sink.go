package audit

import (
	"context"
	"log/slog"
)

// SlogSink mirrors every audit event onto the process log.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Record(ctx context.Context, event Event) error {
	s.logger.Info("AUDIT",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"agent", event.Agent,
		"action", event.Action,
		"result", event.Result,
		"user_id", event.UserID,
		"session_id", event.SessionID,
	)
	return nil
}

func (s *SlogSink) Close() error { return nil }
