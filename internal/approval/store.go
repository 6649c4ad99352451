package approval

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kgraph-labs/actiongate/internal/action"
)

// Store is a mutex-guarded pending-action table with best-effort JSON
// file persistence. Mutations rewrite the whole file; an absent or
// unreadable file starts the store empty rather than failing startup.
//
// Contention is human-paced (one mutation per review click), so a
// single lock is deliberate. The transition check happens inside the
// same critical section as the field writes, so two callers racing on
// the same record cannot both observe pending and both transition it.
type Store struct {
	mu     sync.Mutex
	items  map[string]*PendingAction
	path   string
	logger *slog.Logger
}

// NewStore creates a store persisted at path. An empty path keeps the
// store purely in memory.
func NewStore(path string, logger *slog.Logger) *Store {
	s := &Store{
		items:  make(map[string]*PendingAction),
		path:   path,
		logger: logger,
	}
	s.loadFromDisk()
	return s
}

// Attribution carries optional audit correlation for a new record.
type Attribution struct {
	UserID    string
	SessionID string
	ThreadID  string
}

// Create queues a plan for review and persists the new record.
func (s *Store) Create(plan action.Plan, attr Attribution) (*PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	item := &PendingAction{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		UpdatedAt:  now,
		Status:     StatusPending,
		ActionPlan: plan,
		UserID:     attr.UserID,
		SessionID:  attr.SessionID,
		ThreadID:   attr.ThreadID,
	}
	s.items[item.ID] = item
	s.saveToDisk()
	return copyOf(item), nil
}

// Get returns a copy of the record, or ErrNotFound.
func (s *Store) Get(id string) (*PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyOf(item), nil
}

// List returns records newest first, optionally filtered by status.
// A nil filter returns everything.
func (s *Store) List(status *Status) []*PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*PendingAction
	for _, item := range s.items {
		if status != nil && item.Status != *status {
			continue
		}
		items = append(items, copyOf(item))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

// Approve moves a record to approved. Re-approving an approved record
// is legal and idempotent; every other prior state is an invalid
// transition.
func (s *Store) Approve(id, approvedBy string) (*PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if item.Status != StatusPending && item.Status != StatusApproved {
		return nil, &InvalidTransitionError{ID: id, From: item.Status, To: StatusApproved}
	}

	now := time.Now().UTC()
	item.Status = StatusApproved
	item.ApprovedBy = approvedBy
	item.ApprovedAt = &now
	item.UpdatedAt = now
	s.saveToDisk()
	return copyOf(item), nil
}

// Reject moves a record to rejected, recording who and why. Like
// Approve, repeating the call is idempotent.
func (s *Store) Reject(id, rejectedBy, reason string) (*PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if item.Status != StatusPending && item.Status != StatusRejected {
		return nil, &InvalidTransitionError{ID: id, From: item.Status, To: StatusRejected}
	}

	now := time.Now().UTC()
	item.Status = StatusRejected
	item.RejectedBy = rejectedBy
	item.RejectedAt = &now
	item.RejectionReason = reason
	item.UpdatedAt = now
	s.saveToDisk()
	return copyOf(item), nil
}

// MarkExecuted records a successful execution. Only an approved record
// may be marked executed; this keeps execution at-most-once even when
// two approval requests race.
func (s *Store) MarkExecuted(id string, result json.RawMessage) (*PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if item.Status != StatusApproved {
		return nil, &InvalidTransitionError{ID: id, From: item.Status, To: StatusExecuted}
	}

	now := time.Now().UTC()
	item.Status = StatusExecuted
	item.ExecutedAt = &now
	item.ExecutionResult = result
	item.ExecutionError = ""
	item.UpdatedAt = now
	s.saveToDisk()
	return copyOf(item), nil
}

// MarkFailed records a failed execution attempt. Legal from approved,
// or from failed for idempotent re-marking.
func (s *Store) MarkFailed(id string, execErr string) (*PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if item.Status != StatusApproved && item.Status != StatusFailed {
		return nil, &InvalidTransitionError{ID: id, From: item.Status, To: StatusFailed}
	}

	now := time.Now().UTC()
	item.Status = StatusFailed
	item.ExecutedAt = &now
	item.ExecutionError = execErr
	item.ExecutionResult = nil
	item.UpdatedAt = now
	s.saveToDisk()
	return copyOf(item), nil
}

// loadFromDisk restores the table from the persistence file. Any
// read or decode problem leaves the store empty; losing the queue on
// restart beats refusing to start.
func (s *Store) loadFromDisk() {
	if s.path == "" {
		return
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Approval persistence degraded, starting empty",
				"path", s.path, "error", err)
		}
		return
	}
	if len(data) == 0 {
		return
	}

	var items []*PendingAction
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("Approval persistence corrupt, starting empty",
			"path", s.path, "error", err)
		return
	}
	for _, item := range items {
		s.items[item.ID] = item
	}
}

// saveToDisk rewrites the whole table. Failures are logged and
// swallowed; durability is best-effort. Callers hold s.mu.
func (s *Store) saveToDisk() {
	if s.path == "" {
		return
	}

	items := make([]*PendingAction, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		s.logger.Warn("Approval persistence degraded", "error", err)
		return
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.logger.Warn("Approval persistence degraded", "path", s.path, "error", err)
			return
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Warn("Approval persistence degraded", "path", s.path, "error", err)
	}
}

func copyOf(item *PendingAction) *PendingAction {
	clone := *item
	return &clone
}
