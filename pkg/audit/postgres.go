package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/db"
)

const postgresLogPrefix = "audit:postgres"

// PostgresSink writes entries to the audit table created by the migrations.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a sink backed by pool. The pool is owned by the caller.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Record inserts one entry.
func (s *PostgresSink) Record(ctx context.Context, entry *Entry) error {
	reqJSON, respJSON, err := encodePayloads(entry)
	if err != nil {
		return fmt.Errorf("%s - %w", postgresLogPrefix, err)
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO `+db.AuditTable+`
			(endpoint, method, request_id, capability_id, sender_agent_id, conversation_id,
			 request_payload, response_payload, status_code, elapsed_ms, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10, $11, $12)`,
		entry.Endpoint, entry.Method, entry.RequestID, entry.CapabilityID, entry.SenderAgentID,
		nullString(entry.ConversationID), string(reqJSON), string(respJSON),
		entry.StatusCode, entry.ElapsedMs, nullString(entry.Error), ts,
	)
	if err != nil {
		return fmt.Errorf("%s - insert failed: %w", postgresLogPrefix, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *PostgresSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, endpoint, method, request_id, capability_id, sender_agent_id,
		       COALESCE(conversation_id, ''), request_payload, response_payload,
		       status_code, elapsed_ms, COALESCE(error, ''), created_at
		FROM `+db.AuditTable+`
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%s - query failed: %w", postgresLogPrefix, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s - scan failed: %w", postgresLogPrefix, err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - rows failed: %w", postgresLogPrefix, err)
	}
	return out, nil
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var (
		e         Entry
		req, resp []byte
	)
	if err := row.Scan(&e.ID, &e.Endpoint, &e.Method, &e.RequestID, &e.CapabilityID, &e.SenderAgentID,
		&e.ConversationID, &req, &resp, &e.StatusCode, &e.ElapsedMs, &e.Error, &e.Timestamp); err != nil {
		return nil, err
	}
	if err := decodePayloads(&e, req, resp); err != nil {
		return nil, err
	}
	return &e, nil
}

func encodePayloads(entry *Entry) ([]byte, []byte, error) {
	req, err := json.Marshal(orEmpty(entry.RequestPayload))
	if err != nil {
		return nil, nil, fmt.Errorf("encode request payload: %w", err)
	}
	resp, err := json.Marshal(orEmpty(entry.ResponsePayload))
	if err != nil {
		return nil, nil, fmt.Errorf("encode response payload: %w", err)
	}
	return req, resp, nil
}

func decodePayloads(e *Entry, req, resp []byte) error {
	if err := json.Unmarshal(req, &e.RequestPayload); err != nil {
		return fmt.Errorf("decode request payload: %w", err)
	}
	if err := json.Unmarshal(resp, &e.ResponsePayload); err != nil {
		return fmt.Errorf("decode response payload: %w", err)
	}
	return nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 1000
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}
