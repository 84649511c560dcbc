package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"

	"github.com/DataSup-Engineer/nasdaq-agent/internal/config"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/analysis"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/commsutil"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/events"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/registry"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/taskadapter"
)

const commsTestPrefix = "server:comms_test"

// startTestServer starts an in-process NATS server on a random port.
func startTestServer(t *testing.T) *commsserver.Server {
	t.Helper()

	ns, err := commsserver.NewServer(&commsserver.Options{
		Host:   "127.0.0.1",
		Port:   commsserver.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", commsTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - server failed to start", commsTestPrefix)
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns
}

func connectClient(t *testing.T, url string) *comms.Conn {
	t.Helper()
	nc, err := comms.Connect(url, comms.Timeout(5*time.Second))
	if err != nil {
		t.Fatalf("%s - failed to connect: %v", commsTestPrefix, err)
	}
	t.Cleanup(nc.Close)
	return nc
}

// request sends payload on subject and decodes the reply into out.
func request(t *testing.T, nc *comms.Conn, subject string, payload []byte, out interface{}) {
	t.Helper()
	msg, err := nc.Request(subject, payload, 5*time.Second)
	if err != nil {
		t.Fatalf("%s - request on %s failed: %v", commsTestPrefix, subject, err)
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		t.Fatalf("%s - invalid reply %q: %v", commsTestPrefix, msg.Data, err)
	}
}

// subscribedEnv wires a test Server to an embedded NATS server.
func subscribedEnv(t *testing.T) (*testEnv, *comms.Conn) {
	t.Helper()
	ns := startTestServer(t)
	env := newTestEnv(t)
	env.srv.nc = connectClient(t, ns.ClientURL())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := env.srv.subscribe(ctx); err != nil {
		t.Fatalf("%s - subscribe failed: %v", commsTestPrefix, err)
	}
	t.Cleanup(env.srv.unsubscribe)
	return env, connectClient(t, ns.ClientURL())
}

func TestComms_RequestRoundTrip(t *testing.T) {
	_, client := subscribedEnv(t)

	req := a2a.NewRequest(a2a.CapabilityQuery, map[string]any{"query": "Is NVDA a buy?"})
	req.SenderAgentID = "portfolio-agent"
	req.ConversationID = "conv-1"
	payload, _ := json.Marshal(req)

	var resp a2a.Response
	request(t, client, commsutil.BuildRequestSubject("a2a", "nasdaq-stock-agent"), payload, &resp)

	if !resp.Success {
		t.Fatalf("%s - expected success, got %q", commsTestPrefix, resp.Error)
	}
	if resp.RequestID != req.MessageID {
		t.Errorf("%s - RequestID = %q, want %q", commsTestPrefix, resp.RequestID, req.MessageID)
	}
	if resp.ReceiverAgentID != "portfolio-agent" || resp.SenderAgentID != "nasdaq-stock-agent" || resp.ConversationID != "conv-1" {
		t.Errorf("%s - routing = %+v", commsTestPrefix, resp.Message)
	}
}

func TestComms_InvalidJSON(t *testing.T) {
	_, client := subscribedEnv(t)

	var resp a2a.Response
	request(t, client, commsutil.BuildRequestSubject("a2a", "nasdaq-stock-agent"), []byte("not json"), &resp)

	if resp.Success || resp.RequestID != "unknown" {
		t.Errorf("%s - response = %+v", commsTestPrefix, resp)
	}
	if resp.MessageType() != a2a.MessageTypeError {
		t.Errorf("%s - MessageType = %s, want error", commsTestPrefix, resp.MessageType())
	}
}

func TestComms_UnknownCapability(t *testing.T) {
	_, client := subscribedEnv(t)
	payload, _ := json.Marshal(a2a.NewRequest("x.unknown", nil))

	var resp a2a.Response
	request(t, client, commsutil.BuildRequestSubject("a2a", "nasdaq-stock-agent"), payload, &resp)

	if resp.Success || resp.Error != "capability 'x.unknown' not found" || resp.ProcessingTimeMs != 0 {
		t.Errorf("%s - response = %+v", commsTestPrefix, resp)
	}
}

func TestComms_TaskAndManifest(t *testing.T) {
	_, client := subscribedEnv(t)

	var env taskadapter.Envelope
	request(t, client, commsutil.BuildTaskSubject("a2a", "nasdaq-stock-agent"),
		[]byte(`{"action":"resolve_company_name","parameters":{"company_name":"Apple"}}`), &env)
	if env.Status != taskadapter.StatusCompleted || env.Result == nil || !env.Result.Success {
		t.Errorf("%s - task envelope = %+v", commsTestPrefix, env)
	}

	var m registry.Manifest
	request(t, client, commsutil.BuildManifestSubject("a2a", "nasdaq-stock-agent"), nil, &m)
	if m.AgentID != "nasdaq-stock-agent" || len(m.Capabilities) != 4 {
		t.Errorf("%s - manifest = %+v", commsTestPrefix, m)
	}
}

func TestComms_ConcurrentRequests(t *testing.T) {
	_, client := subscribedEnv(t)
	subject := commsutil.BuildRequestSubject("a2a", "nasdaq-stock-agent")

	var wg sync.WaitGroup
	errs := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := a2a.NewRequest(a2a.CapabilityQuery, map[string]any{"query": "q"})
			payload, _ := json.Marshal(req)
			msg, err := client.Request(subject, payload, 5*time.Second)
			if err != nil {
				errs <- err.Error()
				return
			}
			var resp a2a.Response
			if err := json.Unmarshal(msg.Data, &resp); err != nil || resp.RequestID != req.MessageID {
				errs <- "mismatched reply"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Errorf("%s - %s", commsTestPrefix, e)
	}
}

// TestNewAndServe_Lifecycle builds a Server from configuration with COMMS,
// an HTTP analyzer and the SQLite audit store, serves, then shuts down.
func TestNewAndServe_Lifecycle(t *testing.T) {
	ns := startTestServer(t)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req analysis.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		answer := "answer: " + req.Query
		data, _ := analysis.EncodeResult(&analysis.Analysis{Response: &answer})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}))
	defer backend.Close()

	cfg := testConfig()
	cfg.COMMSURL = ns.ClientURL()
	cfg.AnalyzerURL = backend.URL
	cfg.AnalyzerTimeout = 5 * time.Second
	cfg.AuditBackend = config.AuditBackendSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "audit.db")
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.MetricsEnabled = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("%s - New failed: %v", commsTestPrefix, err)
	}
	defer s.Close()

	if _, ok := s.publisher.(*events.CommsPublisher); !ok {
		t.Errorf("%s - publisher = %T, want *events.CommsPublisher", commsTestPrefix, s.publisher)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	client := connectClient(t, ns.ClientURL())
	subject := commsutil.BuildRequestSubject("a2a", cfg.AgentID)
	payload, _ := json.Marshal(a2a.NewRequest(a2a.CapabilityQuery, map[string]any{"query": "hello"}))

	var resp a2a.Response
	deadline := time.Now().Add(5 * time.Second)
	for {
		msg, err := client.Request(subject, payload, time.Second)
		if err == nil {
			if err := json.Unmarshal(msg.Data, &resp); err != nil {
				t.Fatalf("%s - invalid reply: %v", commsTestPrefix, err)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s - agent never answered: %v", commsTestPrefix, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	if !resp.Success || resp.Result["response"] != "answer: hello" {
		t.Errorf("%s - response = %+v", commsTestPrefix, resp)
	}

	entries, err := s.auditLog.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("%s - Recent failed: %v", commsTestPrefix, err)
	}
	if len(entries) != 1 || entries[0].CapabilityID != a2a.CapabilityQuery || entries[0].StatusCode != 200 {
		t.Errorf("%s - audit entries = %+v", commsTestPrefix, entries)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("%s - Serve returned %v, want nil", commsTestPrefix, err)
		}
	case <-time.After(15 * time.Second):
		t.Fatalf("%s - Serve did not return after cancel", commsTestPrefix)
	}
	if s.handler.IsInitialized() {
		t.Errorf("%s - handler still initialized after shutdown", commsTestPrefix)
	}
}

func TestNew_InvalidCapabilitiesFile(t *testing.T) {
	cfg := testConfig()
	cfg.CapabilitiesFile = filepath.Join(t.TempDir(), "caps.json")
	if err := writeTestFile(cfg.CapabilitiesFile, `{"capabilities":[{"id":"bad","name":"x","type":"query"}]}`); err != nil {
		t.Fatalf("%s - write file: %v", commsTestPrefix, err)
	}

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("server:comms_test - expected error for invalid capabilities file")
	}
}
