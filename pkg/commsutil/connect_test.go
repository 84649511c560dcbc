package commsutil

import (
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"
)

const connectTestPrefix = "commsutil:connect_test"

func TestConnect_InvalidURL(t *testing.T) {
	nc, err := Connect("invalid://not-a-nats-server", "nasdaq-agent")
	if err == nil {
		nc.Close()
		t.Fatalf("%s - expected error for invalid URL", connectTestPrefix)
	}
	if nc != nil {
		t.Errorf("%s - expected nil connection on error", connectTestPrefix)
	}
}

func TestConnect_AgentDefaultsAndOverrides(t *testing.T) {
	ns, err := commsserver.NewServer(&commsserver.Options{Host: "127.0.0.1", Port: commsserver.RANDOM_PORT, NoLog: true, NoSigs: true})
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", connectTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - server failed to start", connectTestPrefix)
	}
	defer ns.Shutdown()

	nc, err := Connect(ns.ClientURL(), "nasdaq-agent", comms.MaxReconnects(0))
	if err != nil {
		t.Fatalf("%s - connect failed: %v", connectTestPrefix, err)
	}
	defer nc.Close()

	if nc.Opts.Name != "nasdaq-agent" {
		t.Errorf("%s - Name = %q, want nasdaq-agent", connectTestPrefix, nc.Opts.Name)
	}
	if nc.Opts.MaxReconnect != 0 {
		t.Errorf("%s - MaxReconnect = %d, want override 0", connectTestPrefix, nc.Opts.MaxReconnect)
	}
	if nc.Opts.ReconnectWait != 2*time.Second {
		t.Errorf("%s - ReconnectWait = %v, want 2s", connectTestPrefix, nc.Opts.ReconnectWait)
	}
	if !nc.IsConnected() {
		t.Errorf("%s - expected a live connection", connectTestPrefix)
	}
}
