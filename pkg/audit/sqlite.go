package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/db"
)

const sqliteLogPrefix = "audit:sqlite"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ` + db.AuditTable + ` (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	endpoint         TEXT    NOT NULL,
	method           TEXT    NOT NULL,
	request_id       TEXT    NOT NULL,
	capability_id    TEXT    NOT NULL,
	sender_agent_id  TEXT    NOT NULL DEFAULT '',
	conversation_id  TEXT    NOT NULL DEFAULT '',
	request_payload  TEXT    NOT NULL DEFAULT '{}',
	response_payload TEXT    NOT NULL DEFAULT '{}',
	status_code      INTEGER NOT NULL,
	elapsed_ms       INTEGER NOT NULL DEFAULT 0,
	error            TEXT    NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_a2a_audit_log_created_at ON ` + db.AuditTable + ` (created_at);
`

// SQLiteSink persists entries in a local SQLite file, for single-node
// deployments without Postgres.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at path and ensures the audit
// table exists. The caller is responsible for calling Close.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s - open %s: %w", sqliteLogPrefix, path, err)
	}
	conn.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s - create schema: %w", sqliteLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Audit log at %s", sqliteLogPrefix, path))
	return &SQLiteSink{db: conn}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteSink) Close() error { return s.db.Close() }

// Record inserts one entry.
func (s *SQLiteSink) Record(ctx context.Context, entry *Entry) error {
	reqJSON, respJSON, err := encodePayloads(entry)
	if err != nil {
		return fmt.Errorf("%s - %w", sqliteLogPrefix, err)
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO `+db.AuditTable+`
			(endpoint, method, request_id, capability_id, sender_agent_id, conversation_id,
			 request_payload, response_payload, status_code, elapsed_ms, error, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		entry.Endpoint, entry.Method, entry.RequestID, entry.CapabilityID, entry.SenderAgentID,
		entry.ConversationID, string(reqJSON), string(respJSON),
		entry.StatusCode, entry.ElapsedMs, entry.Error, ts.UTC(),
	)
	if err != nil {
		return fmt.Errorf("%s - insert failed: %w", sqliteLogPrefix, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, endpoint, method, request_id, capability_id, sender_agent_id, conversation_id,
		       request_payload, response_payload, status_code, elapsed_ms, error, created_at
		FROM `+db.AuditTable+`
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%s - query failed: %w", sqliteLogPrefix, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			req, resp string
		)
		if err := rows.Scan(&e.ID, &e.Endpoint, &e.Method, &e.RequestID, &e.CapabilityID, &e.SenderAgentID,
			&e.ConversationID, &req, &resp, &e.StatusCode, &e.ElapsedMs, &e.Error, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("%s - scan failed: %w", sqliteLogPrefix, err)
		}
		if err := decodePayloads(&e, []byte(req), []byte(resp)); err != nil {
			return nil, fmt.Errorf("%s - %w", sqliteLogPrefix, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - rows failed: %w", sqliteLogPrefix, err)
	}
	return out, nil
}

// Clear deletes every entry.
func (s *SQLiteSink) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+db.AuditTable); err != nil {
		return fmt.Errorf("%s - clear failed: %w", sqliteLogPrefix, err)
	}
	return nil
}
