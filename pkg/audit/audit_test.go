package audit

import (
	"context"
	"testing"
)

func TestEndpoint(t *testing.T) {
	if got := Endpoint("nasdaq.query"); got != "a2a://nasdaq.query" {
		t.Errorf("audit:audit_test - Endpoint = %q", got)
	}
}

func TestNoOpSink(t *testing.T) {
	sink := &NoOpSink{}
	if err := sink.Record(context.Background(), &Entry{Endpoint: "a2a://x.echo"}); err != nil {
		t.Errorf("audit:audit_test - expected no error, got %v", err)
	}
}

func TestCallbackSink(t *testing.T) {
	var captured *Entry
	sink := NewCallbackSink(func(_ context.Context, e *Entry) error {
		captured = e
		return nil
	})

	entry := &Entry{
		Endpoint:     Endpoint("x.echo"),
		Method:       MethodA2ARequest,
		RequestID:    "req-1",
		CapabilityID: "x.echo",
		StatusCode:   200,
	}
	if err := sink.Record(context.Background(), entry); err != nil {
		t.Fatalf("audit:audit_test - unexpected error: %v", err)
	}
	if captured != entry {
		t.Fatal("audit:audit_test - expected callback to receive the entry")
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 20},
		{-3, 20},
		{5, 5},
		{5000, 1000},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("audit:audit_test - clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
