package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	event_id      TEXT PRIMARY KEY,
	timestamp     TEXT NOT NULL,
	event_type    TEXT NOT NULL,
	agent         TEXT NOT NULL,
	action        TEXT NOT NULL,
	intent        TEXT,
	result        TEXT NOT NULL,
	user_id       TEXT,
	session_id    TEXT,
	error_message TEXT,
	details       TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
`

// SQLiteSink keeps a queryable audit trail in a local SQLite file.
type SQLiteSink struct {
	db *sql.DB
}

func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if _, err := db.Exec(auditSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Record(ctx context.Context, event Event) error {
	var details []byte
	if event.Details != nil {
		var err error
		details, err = json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(event_id, timestamp, event_type, agent, action, intent, result, user_id, session_id, error_message, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventID,
		event.Timestamp.Format("2006-01-02T15:04:05.000000Z07:00"),
		event.EventType,
		event.Agent,
		event.Action,
		event.Intent,
		event.Result,
		event.UserID,
		event.SessionID,
		event.ErrorMessage,
		string(details),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// CountByResult returns how many recorded events carry each result
// value, for operational inspection.
func (s *SQLiteSink) CountByResult(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT result, COUNT(*) FROM audit_events GROUP BY result`)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var result string
		var count int
		if err := rows.Scan(&result, &count); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		counts[result] = count
	}
	return counts, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
