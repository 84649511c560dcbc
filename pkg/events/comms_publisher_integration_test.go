package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"
)

// startTestServer starts an in-process NATS server for testing.
func startTestServer(t *testing.T, port int) (*comms.Conn, func()) {
	t.Helper()

	opts := &commsserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := commsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("events:comms_publisher_integration_test - failed to create server: %v", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("events:comms_publisher_integration_test - server failed to start")
	}

	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("events:comms_publisher_integration_test - failed to connect: %v", err)
	}

	cleanup := func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	}

	return nc, cleanup
}

func subscribeEvents(t *testing.T, nc *comms.Conn, subject string) (chan *CapabilityChangedEvent, func()) {
	t.Helper()
	received := make(chan *CapabilityChangedEvent, 2)
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		var event CapabilityChangedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			t.Errorf("events:comms_publisher_integration_test - failed to unmarshal: %v", err)
			return
		}
		received <- &event
	})
	if err != nil {
		t.Fatalf("events:comms_publisher_integration_test - failed to subscribe to %s: %v", subject, err)
	}
	return received, func() { _ = sub.Unsubscribe() }
}

func TestCommsPublisher_PublishChanged_GranularSubject(t *testing.T) {
	nc, cleanup := startTestServer(t, 14230)
	defer cleanup()

	publisher := NewCommsPublisher(nc, nil)
	received, unsub := subscribeEvents(t, nc, "a2a.nasdaq-stock-agent.capabilities.changed.x.echo")
	defer unsub()

	event := &CapabilityChangedEvent{
		AgentID:      "nasdaq-stock-agent",
		CapabilityID: "x.echo",
		Action:       ActionRegistered,
		Version:      "1.0.0",
		Timestamp:    "2025-01-01T00:00:00Z",
	}

	if err := publisher.PublishChanged(context.Background(), event); err != nil {
		t.Fatalf("events:comms_publisher_integration_test - PublishChanged failed: %v", err)
	}
	nc.Flush()

	select {
	case got := <-received:
		if got.CapabilityID != "x.echo" {
			t.Errorf("events:comms_publisher_integration_test - CapabilityID = %q, want %q", got.CapabilityID, "x.echo")
		}
		if got.Action != ActionRegistered {
			t.Errorf("events:comms_publisher_integration_test - Action = %q, want %q", got.Action, ActionRegistered)
		}
		if got.Version != "1.0.0" {
			t.Errorf("events:comms_publisher_integration_test - Version = %q, want 1.0.0", got.Version)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("events:comms_publisher_integration_test - timeout waiting for granular event")
	}
}

func TestCommsPublisher_PublishChanged_AgentSubject(t *testing.T) {
	nc, cleanup := startTestServer(t, 14231)
	defer cleanup()

	publisher := NewCommsPublisher(nc, nil)
	received, unsub := subscribeEvents(t, nc, "a2a.nasdaq-stock-agent.capabilities.changed")
	defer unsub()

	event := &CapabilityChangedEvent{
		AgentID:      "nasdaq-stock-agent",
		CapabilityID: "nasdaq.query",
		Action:       ActionUnregistered,
		Timestamp:    "2025-02-01T00:00:00Z",
	}

	if err := publisher.PublishChanged(context.Background(), event); err != nil {
		t.Fatalf("events:comms_publisher_integration_test - PublishChanged failed: %v", err)
	}
	nc.Flush()

	select {
	case got := <-received:
		if got.AgentID != "nasdaq-stock-agent" {
			t.Errorf("events:comms_publisher_integration_test - AgentID = %q", got.AgentID)
		}
		if got.Version != "" {
			t.Errorf("events:comms_publisher_integration_test - Version = %q, want empty", got.Version)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("events:comms_publisher_integration_test - timeout waiting for agent-wide event")
	}
}

func TestCommsPublisher_CustomPrefix(t *testing.T) {
	nc, cleanup := startTestServer(t, 14233)
	defer cleanup()

	publisher := NewCommsPublisher(nc, &CommsPublisherOpts{SubjectPrefix: "agents"})
	received, unsub := subscribeEvents(t, nc, "agents.>")
	defer unsub()

	err := publisher.PublishChanged(context.Background(), &CapabilityChangedEvent{
		AgentID:      "other",
		CapabilityID: "x.echo",
		Action:       ActionRegistered,
	})
	if err != nil {
		t.Fatalf("events:comms_publisher_integration_test - PublishChanged failed: %v", err)
	}
	nc.Flush()

	select {
	case got := <-received:
		if got.AgentID != "other" {
			t.Errorf("events:comms_publisher_integration_test - AgentID = %q, want other", got.AgentID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("events:comms_publisher_integration_test - timeout waiting for custom prefix event")
	}
}

func TestNewCommsPublisher_Defaults(t *testing.T) {
	nc, cleanup := startTestServer(t, 14235)
	defer cleanup()

	for _, opts := range []*CommsPublisherOpts{nil, {SubjectPrefix: ""}} {
		publisher := NewCommsPublisher(nc, opts)
		if publisher.prefix != "a2a" {
			t.Errorf("events:comms_publisher_integration_test - prefix = %q, want a2a", publisher.prefix)
		}
	}
}
