package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/dispatcher"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/events"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/metrics"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/registry"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/taskadapter"
)

const httpLogPrefix = "server:http"

// maxBodyBytes caps inbound request bodies.
const maxBodyBytes = 1 << 20

// Router builds the HTTP surface: the A2A binding under the endpoint prefix,
// operational endpoints and the browsable capability pages.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.metricsMiddleware)

	r.Get("/", s.handleHome())
	r.Get("/capability/{id}", s.handleCapabilityDetail())
	r.Get("/capability/{id}/{page}", s.handleCapabilityDetail())
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	if prom, ok := s.recorder.(*metrics.PrometheusRecorder); ok {
		r.Method(http.MethodGet, "/metrics", prom.Handler())
	}

	r.Route(s.reg.Config().EndpointPrefix, func(r chi.Router) {
		r.Get("/manifest", s.handleManifest)
		r.Get("/capabilities", s.handleListCapabilities)
		r.Post("/capabilities", s.handleRegisterCapability)
		r.Get("/capabilities/{id}", s.handleGetCapability)
		r.Delete("/capabilities/{id}", s.handleUnregisterCapability)
		r.Post("/capabilities/{id}/invoke", s.handleInvoke)
		r.Post("/request", s.handleRequest)
		r.Get("/status", s.handleStatus)
		r.Get("/health", s.handleA2AHealth)
		r.Get("/agent", s.handleAgent)
		r.Post("/tasks", s.handleTasks)
	})
	return r
}

func timestamp() string {
	return a2a.FormatTimestamp(time.Now())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", httpLogPrefix, err))
	}
}

// errorBody is the transport-level error shape for non-envelope endpoints.
type errorBody struct {
	Success   bool                    `json:"success"`
	Error     *dispatcher.ErrorDetail `json:"error"`
	Timestamp string                  `json:"timestamp"`
}

func writeError(w http.ResponseWriter, status int, detail *dispatcher.ErrorDetail) {
	writeJSON(w, status, errorBody{Success: false, Error: detail, Timestamp: timestamp()})
}

// requestContext bounds a call by REQUEST_TIMEOUT, or by timeoutSeconds when
// that is positive and shorter.
func (s *Server) requestContext(parent context.Context, timeoutSeconds int) (context.Context, context.CancelFunc) {
	d := s.cfg.RequestTimeout
	// Compare in seconds first: large values overflow time.Duration.
	if timeoutSeconds > 0 && int64(timeoutSeconds) < int64(d/time.Second) {
		d = time.Duration(timeoutSeconds) * time.Second
	}
	return context.WithTimeout(parent, d)
}

func (s *Server) handleManifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.reg.Manifest())
}

type capabilityList struct {
	Success      bool             `json:"success"`
	AgentID      string           `json:"agent_id"`
	Capabilities []a2a.Capability `json:"capabilities"`
	TotalCount   int              `json:"total_count"`
	Timestamp    string           `json:"timestamp"`
}

// handleListCapabilities lists capabilities, optionally filtered by ?type=
// and a semver ?version= range.
func (s *Server) handleListCapabilities(w http.ResponseWriter, r *http.Request) {
	typ := a2a.CapabilityType(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		writeError(w, http.StatusBadRequest, dispatcher.NewErrorDetail("INVALID_ARGUMENT", fmt.Sprintf("unknown capability type %q", typ), false))
		return
	}
	caps := s.reg.ListMatching(typ, r.URL.Query().Get("version"))
	writeJSON(w, http.StatusOK, capabilityList{
		Success:      true,
		AgentID:      s.reg.AgentID(),
		Capabilities: caps,
		TotalCount:   len(caps),
		Timestamp:    timestamp(),
	})
}

func (s *Server) handleGetCapability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m := s.reg.CapabilityManifest(id)
	if m == nil {
		writeError(w, http.StatusNotFound, dispatcher.NewErrorDetail("NOT_FOUND", registry.NotFoundMessage(id), false))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"manifest":  m,
		"timestamp": timestamp(),
	})
}

// handleRequest answers a full A2A Request. Undecodable bodies still get a
// well-formed error Response.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusOK, s.malformedResponse(nil, err))
		return
	}
	writeJSON(w, http.StatusOK, s.dispatch(r.Context(), body))
}

// dispatch decodes a Request, addresses it to this agent and handles it under
// the transport deadline. Shared by the HTTP and COMMS bindings.
func (s *Server) dispatch(ctx context.Context, body []byte) *a2a.Response {
	var req a2a.Request
	if err := json.Unmarshal(body, &req); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to decode request: %v", httpLogPrefix, err))
		return s.malformedResponse(body, err)
	}
	req.ReceiverAgentID = s.reg.AgentID()

	reqCtx, cancel := s.requestContext(ctx, req.TimeoutSeconds)
	defer cancel()
	return s.handler.Handle(reqCtx, &req)
}

// malformedResponse answers a body that is not a Request, echoing whatever
// correlation fields can be recovered from it.
func (s *Server) malformedResponse(body []byte, cause error) *a2a.Response {
	var partial struct {
		MessageID      string `json:"message_id"`
		SenderAgentID  string `json:"sender_agent_id"`
		ConversationID string `json:"conversation_id"`
	}
	_ = json.Unmarshal(body, &partial)
	if partial.MessageID == "" {
		partial.MessageID = "unknown"
	}
	req := &a2a.Request{Message: a2a.Message{
		MessageID:      partial.MessageID,
		SenderAgentID:  partial.SenderAgentID,
		ConversationID: partial.ConversationID,
	}}
	resp := a2a.NewErrorResponse(req, "request handling failed: "+cause.Error(), 0)
	resp.SenderAgentID = s.reg.AgentID()
	return resp
}

// handleInvoke runs one capability from a bare parameters object and returns
// the simplified result shape.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	params := map[string]any{}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, dispatcher.NewErrorDetail("INVALID_ARGUMENT", "parameters must be a JSON object: "+err.Error(), false))
		return
	}
	if params == nil {
		params = map[string]any{}
	}

	req := a2a.NewRequest(id, params)
	req.ReceiverAgentID = s.reg.AgentID()
	ctx, cancel := s.requestContext(r.Context(), req.TimeoutSeconds)
	defer cancel()
	resp := s.handler.Handle(ctx, req)

	out := map[string]interface{}{
		"success":            resp.Success,
		"processing_time_ms": resp.ProcessingTimeMs,
		"timestamp":          a2a.FormatTimestamp(resp.Timestamp),
	}
	if resp.Success {
		out["result"] = resp.Result
	} else {
		out["error"] = resp.Error
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":              true,
		"handler_status":       s.handler.Status(),
		"capabilities_summary": s.reg.Summary(),
		"protocol":             a2a.ProtocolName,
		"protocol_version":     a2a.ProtocolVersion,
		"timestamp":            timestamp(),
	})
}

// handleA2AHealth reports protocol health: healthy iff the handler is initialized.
func (s *Server) handleA2AHealth(w http.ResponseWriter, _ *http.Request) {
	status := "unhealthy"
	if s.handler.IsInitialized() {
		status = "healthy"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":                   status,
		"protocol":                 a2a.ProtocolName,
		"agent_id":                 s.reg.AgentID(),
		"capabilities_count":       s.reg.Count(),
		"agent_protocol_available": true,
		"timestamp":                timestamp(),
	})
}

type agentInfoBody struct {
	*taskadapter.AgentInfo
	AgentProtocolAvailable bool `json:"agent_protocol_available"`
}

func (s *Server) handleAgent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"agent":     agentInfoBody{AgentInfo: s.adapter.Info(), AgentProtocolAvailable: true},
		"timestamp": timestamp(),
	})
}

// handleTasks runs a task payload: a JSON task object or free text.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, dispatcher.NewErrorDetail("INVALID_ARGUMENT", "failed to read task payload: "+err.Error(), false))
		return
	}
	ctx, cancel := s.requestContext(r.Context(), 0)
	defer cancel()
	writeJSON(w, http.StatusOK, s.adapter.Run(ctx, string(body)))
}

// handleRegisterCapability adds or replaces a capability and announces it.
func (s *Server) handleRegisterCapability(w http.ResponseWriter, r *http.Request) {
	var c a2a.Capability
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, dispatcher.NewErrorDetail("INVALID_ARGUMENT", "invalid capability: "+err.Error(), false))
		return
	}
	if regErr := registry.ValidateCapability(c); regErr != nil {
		writeError(w, http.StatusBadRequest, dispatcher.RegistryErrorDetail(regErr))
		return
	}
	s.reg.Register(c)
	s.recorder.SetCapabilities(s.reg.Count())

	registered, _ := s.reg.Get(c.ID)
	s.announce(r.Context(), registered.ID, events.ActionRegistered, registered.Version)
	slog.Info(fmt.Sprintf("%s - Registered capability %s@%s", httpLogPrefix, registered.ID, registered.Version))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"manifest":  s.reg.CapabilityManifest(c.ID),
		"timestamp": timestamp(),
	})
}

// handleUnregisterCapability removes a capability and announces it.
func (s *Server) handleUnregisterCapability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	prev, ok := s.reg.Get(id)
	if !ok || !s.reg.Unregister(id) {
		writeError(w, http.StatusNotFound, dispatcher.NewErrorDetail("NOT_FOUND", registry.NotFoundMessage(id), false))
		return
	}
	s.recorder.SetCapabilities(s.reg.Count())
	s.announce(r.Context(), id, events.ActionUnregistered, prev.Version)
	slog.Info(fmt.Sprintf("%s - Unregistered capability %s", httpLogPrefix, id))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"capability_id": id,
		"timestamp":     timestamp(),
	})
}

// announce publishes a change event. Failures are logged; the registry change stands.
func (s *Server) announce(ctx context.Context, capabilityID, action, version string) {
	event := &events.CapabilityChangedEvent{
		AgentID:      s.reg.AgentID(),
		CapabilityID: capabilityID,
		Action:       action,
		Version:      version,
		Timestamp:    timestamp(),
	}
	if err := s.publisher.PublishChanged(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish %s event for %s: %v", httpLogPrefix, action, capabilityID, err))
	}
}

// healthOutput is the operational health report.
type healthOutput struct {
	Status    string       `json:"status"`
	Checks    healthChecks `json:"checks"`
	Timestamp string       `json:"timestamp"`
}

type healthChecks struct {
	Handler  bool  `json:"handler"`
	Comms    *bool `json:"comms,omitempty"`
	Database *bool `json:"database,omitempty"`
}

// health checks the handler and every configured connection.
func (s *Server) health(ctx context.Context) *healthOutput {
	h := &healthOutput{
		Status:    "healthy",
		Checks:    healthChecks{Handler: s.handler.IsInitialized()},
		Timestamp: timestamp(),
	}
	ok := h.Checks.Handler
	if s.nc != nil {
		connected := s.nc.IsConnected()
		h.Checks.Comms = &connected
		ok = ok && connected
	}
	if s.pool != nil {
		pinged := s.pool.Ping(ctx) == nil
		h.Checks.Database = &pinged
		ok = ok && pinged
	}
	if !ok {
		h.Status = "unhealthy"
	}
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
	defer cancel()
	h := s.health(ctx)
	status := http.StatusOK
	if h.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.handler.IsInitialized() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
