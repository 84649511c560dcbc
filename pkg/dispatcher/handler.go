package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/actions"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/audit"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/metrics"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/registry"
)

const logPrefix = "dispatcher:handler"

// ServiceName identifies the handler in status reports.
const ServiceName = "A2AHandler"

// Response messages for requests rejected before execution.
const (
	MsgNotInitialized      = "A2A handler not initialized"
	validationFailedPrefix = "parameter validation failed: "
	handlingFailedPrefix   = "request handling failed: "
)

const defaultAuditTimeout = 2 * time.Second

// ErrNoImplementation reports a registered capability with no implementation
// wired. It means the registry and the implementation table are out of sync.
var ErrNoImplementation = errors.New("no implementation for capability")

// Handler is the A2A request dispatcher. It is safe for concurrent use.
type Handler struct {
	registry        *registry.Registry
	implementations map[string]actions.Implementation
	sink            audit.Sink
	recorder        metrics.Recorder
	auditTimeout    time.Duration

	initialized atomic.Bool
}

// NewHandlerParams configures a Handler. Registry is required; nil sink and
// recorder default to no-ops.
type NewHandlerParams struct {
	Registry        *registry.Registry
	Implementations map[string]actions.Implementation
	AuditSink       audit.Sink
	Metrics         metrics.Recorder
	// AuditTimeout bounds each audit write. Zero uses two seconds.
	AuditTimeout time.Duration
}

// NewHandler creates an uninitialized Handler.
func NewHandler(params NewHandlerParams) *Handler {
	impls := make(map[string]actions.Implementation, len(params.Implementations))
	for id, fn := range params.Implementations {
		impls[id] = fn
	}
	h := &Handler{
		registry:        params.Registry,
		implementations: impls,
		sink:            params.AuditSink,
		recorder:        params.Metrics,
		auditTimeout:    params.AuditTimeout,
	}
	if h.sink == nil {
		h.sink = &audit.NoOpSink{}
	}
	if h.recorder == nil {
		h.recorder = metrics.NoopRecorder{}
	}
	if h.auditTimeout <= 0 {
		h.auditTimeout = defaultAuditTimeout
	}
	return h
}

// Initialize marks the handler ready. Registered capabilities without an
// implementation are logged; requests for them fail with ErrNoImplementation.
func (h *Handler) Initialize(_ context.Context) error {
	if h.registry == nil {
		return fmt.Errorf("%s - registry is required", logPrefix)
	}
	for _, id := range h.registry.IDs() {
		if _, ok := h.implementations[id]; !ok {
			slog.Warn(fmt.Sprintf("%s - capability %s has no implementation", logPrefix, id))
		}
	}
	h.recorder.SetCapabilities(h.registry.Count())
	h.initialized.Store(true)
	slog.Info(fmt.Sprintf("%s - Initialized for agent %s with %d capabilities", logPrefix, h.registry.AgentID(), h.registry.Count()))
	return nil
}

// Cleanup returns the handler to the uninitialized state.
func (h *Handler) Cleanup() {
	h.initialized.Store(false)
	slog.Info(fmt.Sprintf("%s - Cleaned up", logPrefix))
}

// IsInitialized reports whether Initialize has completed.
func (h *Handler) IsInitialized() bool {
	return h.initialized.Load()
}

// Registry returns the registry the handler validates against.
func (h *Handler) Registry() *registry.Registry {
	return h.registry
}

// Status describes the handler.
func (h *Handler) Status() *Status {
	s := &Status{
		Service:       ServiceName,
		IsInitialized: h.IsInitialized(),
		Timestamp:     a2a.FormatTimestamp(time.Now()),
	}
	if h.registry != nil {
		s.AgentID = h.registry.AgentID()
		s.CapabilitiesCount = h.registry.Count()
	}
	return s
}

// Handle answers one request. It never returns nil and never panics; every
// failure is reported as an error Response.
func (h *Handler) Handle(ctx context.Context, req *a2a.Request) *a2a.Response {
	start := time.Now()

	if !h.IsInitialized() {
		return h.reject(req, MsgNotInitialized, metrics.OutcomeNotInitialized)
	}
	if !h.registry.Has(req.CapabilityID) {
		return h.reject(req, registry.NotFoundMessage(req.CapabilityID), metrics.OutcomeNotFound)
	}
	if msg := h.registry.ValidateInput(req.CapabilityID, req.Parameters); msg != "" {
		return h.reject(req, validationFailedPrefix+msg, metrics.OutcomeInvalid)
	}

	result, err := h.execute(ctx, req)
	elapsed := time.Since(start)
	elapsedMs := elapsed.Milliseconds()

	var resp *a2a.Response
	if err != nil {
		msg := handlingFailedPrefix + err.Error()
		slog.Warn(fmt.Sprintf("%s - capability=%s request=%s failed after %dms: %v",
			logPrefix, req.CapabilityID, req.MessageID, elapsedMs, err))
		resp = a2a.NewErrorResponse(req, msg, elapsedMs)
		h.audit(ctx, req, resp, 500)
		h.recorder.ObserveDispatch(req.CapabilityID, metrics.OutcomeFailed, elapsed)
	} else {
		resp = a2a.NewSuccessResponse(req, result, elapsedMs)
		h.audit(ctx, req, resp, 200)
		h.recorder.ObserveDispatch(req.CapabilityID, metrics.OutcomeSuccess, elapsed)
	}
	resp.SenderAgentID = h.registry.AgentID()
	return resp
}

// execute routes to the implementation, converting panics into errors.
func (h *Handler) execute(ctx context.Context, req *a2a.Request) (result map[string]any, err error) {
	impl, ok := h.implementations[req.CapabilityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoImplementation, req.CapabilityID)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - panic in capability %s: %v", logPrefix, req.CapabilityID, r))
			result, err = nil, fmt.Errorf("capability %s panicked: %v", req.CapabilityID, r)
		}
	}()
	return impl(ctx, req.Parameters)
}

// reject builds the zero-time error Response for requests that never reach
// an implementation.
func (h *Handler) reject(req *a2a.Request, msg, outcome string) *a2a.Response {
	slog.Debug(fmt.Sprintf("%s - rejected capability=%s request=%s: %s", logPrefix, req.CapabilityID, req.MessageID, msg))
	resp := a2a.NewErrorResponse(req, msg, 0)
	if h.registry != nil {
		resp.SenderAgentID = h.registry.AgentID()
	}
	h.recorder.ObserveDispatch(req.CapabilityID, outcome, 0)
	return resp
}

// audit records an executed request. Failures, panics included, are logged
// and swallowed.
func (h *Handler) audit(ctx context.Context, req *a2a.Request, resp *a2a.Response, status int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - audit panicked for %s: %v", logPrefix, req.MessageID, r))
		}
	}()

	entry := &audit.Entry{
		Endpoint:        audit.Endpoint(req.CapabilityID),
		Method:          audit.MethodA2ARequest,
		RequestID:       req.MessageID,
		CapabilityID:    req.CapabilityID,
		SenderAgentID:   req.SenderAgentID,
		ConversationID:  req.ConversationID,
		RequestPayload:  req.Parameters,
		ResponsePayload: resp.Result,
		StatusCode:      status,
		ElapsedMs:       resp.ProcessingTimeMs,
		Error:           resp.Error,
		Timestamp:       time.Now().UTC(),
	}
	if !resp.Success {
		entry.ResponsePayload = map[string]any{"error": resp.Error}
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.auditTimeout)
	defer cancel()
	if err := h.sink.Record(actx, entry); err != nil {
		slog.Warn(fmt.Sprintf("%s - audit failed for %s: %v", logPrefix, req.MessageID, err))
	}
}
