// Package audit records handled A2A requests. Sinks are best-effort: callers
// log and discard Record errors.
package audit

import (
	"context"
	"time"
)

// Audit entry constants for A2A traffic.
const (
	MethodA2ARequest = "A2A_REQUEST"
	endpointScheme   = "a2a://"
)

// Endpoint returns the audit endpoint for a capability, e.g. "a2a://nasdaq.query".
func Endpoint(capabilityID string) string {
	return endpointScheme + capabilityID
}

// Entry is one audited request.
type Entry struct {
	ID              int64          `json:"id,omitempty"`
	Endpoint        string         `json:"endpoint"`
	Method          string         `json:"method"`
	RequestID       string         `json:"request_id"`
	CapabilityID    string         `json:"capability_id"`
	SenderAgentID   string         `json:"sender_agent_id,omitempty"`
	ConversationID  string         `json:"conversation_id,omitempty"`
	RequestPayload  map[string]any `json:"request_payload"`
	ResponsePayload map[string]any `json:"response_payload"`
	StatusCode      int            `json:"status_code"`
	ElapsedMs       int64          `json:"elapsed_ms"`
	Error           string         `json:"error,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Sink persists audit entries.
type Sink interface {
	Record(ctx context.Context, entry *Entry) error
}

// Reader lists recently recorded entries, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// NoOpSink is a Sink that discards every entry (AUDIT_BACKEND=none).
type NoOpSink struct{}

// Record is a no-op.
func (s *NoOpSink) Record(_ context.Context, _ *Entry) error {
	return nil
}

// CallbackSink is a Sink that calls a callback function (for testing).
type CallbackSink struct {
	callback func(ctx context.Context, entry *Entry) error
}

// NewCallbackSink creates a new CallbackSink.
func NewCallbackSink(cb func(ctx context.Context, entry *Entry) error) *CallbackSink {
	return &CallbackSink{callback: cb}
}

// Record calls the callback.
func (s *CallbackSink) Record(ctx context.Context, entry *Entry) error {
	return s.callback(ctx, entry)
}
