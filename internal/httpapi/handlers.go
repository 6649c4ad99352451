package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/kgraph-labs/actiongate/internal/action"
	"github.com/kgraph-labs/actiongate/internal/approval"
	"github.com/kgraph-labs/actiongate/internal/audit"
	"github.com/kgraph-labs/actiongate/internal/executor"
	"github.com/kgraph-labs/actiongate/internal/mcphost"
)

// Handler wires the approval queue, the executor and the tool host to
// the HTTP surface.
type Handler struct {
	store    *approval.Store
	executor *executor.Executor
	host     *mcphost.Host
	audit    audit.Sink
	logger   *slog.Logger
}

func NewHandler(store *approval.Store, exec *executor.Executor, host *mcphost.Host, sink audit.Sink, logger *slog.Logger) *Handler {
	if sink == nil {
		sink = audit.NewNoOpSink()
	}
	return &Handler{store: store, executor: exec, host: host, audit: sink, logger: logger}
}

// RegisterRoutes attaches all endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/approvals", h.handleCreate)
	mux.HandleFunc("GET /api/approvals/pending", h.handleList)
	mux.HandleFunc("GET /api/approvals/{id}", h.handleGet)
	mux.HandleFunc("POST /api/approvals/{id}/approve", h.handleApprove)
	mux.HandleFunc("POST /api/approvals/{id}/reject", h.handleReject)
	mux.HandleFunc("POST /api/plans", h.handlePlanPreview)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/tools", h.handleTools)
}

type createRequest struct {
	ActionPlan json.RawMessage `json:"action_plan"`
	UserID     string          `json:"user_id,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
	ThreadID   string          `json:"thread_id,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := action.DecodePlan(req.ActionPlan)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.store.Create(*plan, approval.Attribution{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		ThreadID:  req.ThreadID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.recordAudit(r.Context(), audit.Event{
		EventType: "agent_action",
		Agent:     "hitl",
		Action:    "pending_action_created",
		Intent:    "approval",
		Result:    "success",
		UserID:    item.UserID,
		SessionID: item.SessionID,
	})

	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var filter *approval.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := approval.ParseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status: "+raw)
			return
		}
		filter = &status
	}

	items := h.store.List(filter)
	if items == nil {
		items = []*approval.PendingAction{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "pending action not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type approveRequest struct {
	Execute    bool   `json:"execute"`
	ApprovedBy string `json:"approved_by,omitempty"`
}

type actionResponse struct {
	Status string                  `json:"status"`
	Action *approval.PendingAction `json:"action"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// execute defaults to true when the body leaves it out, matching
	// the review UI's one-click approve-and-run.
	req := approveRequest{Execute: true}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.Approve(id, req.ApprovedBy)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.recordAudit(r.Context(), audit.Event{
		EventType: "agent_action",
		Agent:     "hitl",
		Action:    "pending_action_approved",
		Intent:    "approval",
		Result:    "success",
		UserID:    item.UserID,
		SessionID: item.SessionID,
	})

	if !req.Execute {
		writeJSON(w, http.StatusOK, actionResponse{Status: "approved", Action: item})
		return
	}

	records := h.executor.Execute(r.Context(), item.ActionPlan, executor.Metadata{
		UserID:    item.UserID,
		SessionID: item.SessionID,
		ThreadID:  item.ThreadID,
	})

	result, err := json.Marshal(records)
	if err == nil {
		item, err = h.store.MarkExecuted(id, result)
	}
	if err != nil {
		failed, markErr := h.store.MarkFailed(id, err.Error())
		if markErr != nil {
			h.logger.Error("Failed to mark action failed", "id", id, "error", markErr)
			failed = item
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":  err.Error(),
			"action": failed,
		})
		return
	}

	writeJSON(w, http.StatusOK, actionResponse{Status: "executed", Action: item})
}

type rejectRequest struct {
	RejectedBy string `json:"rejected_by,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.Reject(r.PathValue("id"), req.RejectedBy, req.Reason)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.recordAudit(r.Context(), audit.Event{
		EventType: "agent_action",
		Agent:     "hitl",
		Action:    "pending_action_rejected",
		Intent:    "approval",
		Result:    "success",
		UserID:    item.UserID,
		SessionID: item.SessionID,
	})

	writeJSON(w, http.StatusOK, actionResponse{Status: "rejected", Action: item})
}

type planPreviewRequest struct {
	Text string `json:"text"`
}

// handlePlanPreview classifies a natural-language request into a plan
// without queueing or executing anything.
func (h *Handler) handlePlanPreview(w http.ResponseWriter, r *http.Request) {
	var req planPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "a non-empty text field is required")
		return
	}
	writeJSON(w, http.StatusOK, action.PlanFromText(req.Text))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.host.HealthStatus(r.Context()))
}

func (h *Handler) handleTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.host.DiscoverTools(r.Context(), r.URL.Query().Get("server"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tools)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, approval.ErrNotFound):
		writeError(w, http.StatusNotFound, "pending action not found")
	case approval.IsInvalidTransition(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) recordAudit(ctx context.Context, event audit.Event) {
	event.Stamp()
	if err := h.audit.Record(ctx, event); err != nil {
		h.logger.Warn("Failed to record audit event", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
