package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Event is one security-relevant occurrence: a plan queued, an
// approval granted, an execution attempted.
type Event struct {
	EventID      string         `json:"event_id"`
	Timestamp    time.Time      `json:"timestamp"`
	EventType    string         `json:"event_type"`
	Agent        string         `json:"agent"`
	Action       string         `json:"action"`
	Intent       string         `json:"intent"`
	Result       string         `json:"result"`
	UserID       string         `json:"user_id,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// Stamp fills the generated fields if the caller left them empty.
func (e *Event) Stamp() {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.EventID == "" {
		sum := sha256.Sum256([]byte(e.Timestamp.Format(time.RFC3339Nano) + e.Agent + e.Action))
		e.EventID = hex.EncodeToString(sum[:])[:16]
	}
}

type Sink interface {
	Record(ctx context.Context, event Event) error
	Close() error
}

type NoOpSink struct{}

func NewNoOpSink() *NoOpSink { return &NoOpSink{} }

func (s *NoOpSink) Record(ctx context.Context, event Event) error { return nil }

func (s *NoOpSink) Close() error { return nil }

// MultiSink fans one event out to several sinks. Record reports the
// first error but still delivers to the rest.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (s *MultiSink) Record(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Record(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *MultiSink) Close() error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
