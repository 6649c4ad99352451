// Package executor turns an approved action plan into one tool call
// and normalizes whatever comes back. It deliberately never returns
// an error: backend flakiness degrades to a tagged fallback record so
// the agent loop keeps moving.
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/kgraph-labs/actiongate/internal/action"
	"github.com/kgraph-labs/actiongate/internal/audit"
	"github.com/mark3labs/mcp-go/mcp"
)

// FallbackNote tags a synthesized result produced when the backend
// was unreachable. UIs must surface records carrying it as
// degraded-confidence output, not real success.
const FallbackNote = "fallback_result_no_mcp"

// ToolCaller is the slice of the tool host the executor needs.
type ToolCaller interface {
	CallTool(ctx context.Context, server, tool string, args map[string]any) (*mcp.CallToolResult, error)
}

// Metadata carries audit correlation through an execution.
type Metadata struct {
	UserID    string
	SessionID string
	ThreadID  string
}

type Executor struct {
	host   ToolCaller
	audit  audit.Sink
	logger *slog.Logger
}

// NewExecutor builds an executor. A nil host is legal and forces the
// fallback path, which keeps development setups without backends
// usable.
func NewExecutor(host ToolCaller, sink audit.Sink, logger *slog.Logger) *Executor {
	if sink == nil {
		sink = audit.NewNoOpSink()
	}
	return &Executor{host: host, audit: sink, logger: logger}
}

// Execute runs a plan through the tool host and returns normalized
// records. Exactly one audit event is emitted per call, on both the
// normal and the fallback path.
func (e *Executor) Execute(ctx context.Context, plan action.Plan, meta Metadata) []Record {
	records, ok := e.tryExecute(ctx, plan)
	if !ok {
		records = []Record{e.fallbackRecord(plan)}
	}

	event := audit.Event{
		EventType: "agent_action",
		Agent:     "executor",
		Action:    string(plan.ActionType),
		Intent:    "execution",
		Result:    "success",
		UserID:    meta.UserID,
		SessionID: meta.SessionID,
	}
	if !ok {
		event.Details = map[string]any{"note": FallbackNote}
	}
	event.Stamp()
	if err := e.audit.Record(ctx, event); err != nil {
		e.logger.Warn("Failed to record audit event", "error", err)
	}

	return records
}

func (e *Executor) tryExecute(ctx context.Context, plan action.Plan) ([]Record, bool) {
	if e.host == nil || plan.Params == nil {
		return nil, false
	}

	server := plan.Params.ServerName()
	if server == "" {
		return nil, false
	}

	result, err := e.host.CallTool(ctx, server, plan.Tool, plan.Params.Arguments())
	if err != nil {
		e.logger.Warn("Tool call failed, degrading to fallback",
			"server", server, "tool", plan.Tool, "error", err)
		return nil, false
	}
	if result != nil && result.IsError {
		e.logger.Warn("Tool reported an error result, degrading to fallback",
			"server", server, "tool", plan.Tool)
		return nil, false
	}

	return DecodeResult(result).Normalize(), true
}

func (e *Executor) fallbackRecord(plan action.Plan) Record {
	var parameters map[string]any
	if plan.Params != nil {
		parameters = plan.Params.Arguments()
	} else {
		parameters = map[string]any{}
	}
	return Record{
		"status":      "success",
		"action_type": string(plan.ActionType),
		"tool":        plan.Tool,
		"parameters":  parameters,
		"timestamp":   time.Now().Format(time.RFC3339),
		"note":        FallbackNote,
	}
}
