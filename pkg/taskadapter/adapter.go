package taskadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/actions"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/metrics"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/registry"
)

const logPrefix = "taskadapter:adapter"

// Adapter runs tasks against the shared domain actions.
type Adapter struct {
	actions  *actions.Actions
	identity registry.Config
	recorder metrics.Recorder
	now      func() time.Time
}

// NewAdapterParams configures an Adapter. Identity fields left empty use the
// registry defaults; a nil Metrics records nothing.
type NewAdapterParams struct {
	Actions  *actions.Actions
	Identity registry.Config
	Metrics  metrics.Recorder
}

// NewAdapter creates an Adapter.
func NewAdapter(params NewAdapterParams) *Adapter {
	defaults := registry.DefaultConfig()
	id := params.Identity
	if id.AgentID == "" {
		id.AgentID = defaults.AgentID
	}
	if id.AgentName == "" {
		id.AgentName = defaults.AgentName
	}
	if id.AgentVersion == "" {
		id.AgentVersion = defaults.AgentVersion
	}
	if id.AgentDescription == "" {
		id.AgentDescription = defaults.AgentDescription
	}
	a := &Adapter{
		actions:  params.Actions,
		identity: id,
		recorder: params.Metrics,
		now:      time.Now,
	}
	if a.actions == nil {
		a.actions = actions.New(nil)
	}
	if a.recorder == nil {
		a.recorder = metrics.NoopRecorder{}
	}
	return a
}

// ParsePayload reads a task payload. A JSON object is a structured task;
// anything else, including other JSON values and unparseable text, is a
// free-text query. An object whose action is not a string or whose
// parameters are not an object is an error.
func ParsePayload(payload string) (Task, error) {
	trimmed := bytes.TrimSpace([]byte(payload))
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err == nil {
			return decodeTask(fields)
		}
	}
	return Task{Action: ActionQuery, Parameters: map[string]any{actions.ParamQuery: payload}}, nil
}

func decodeTask(fields map[string]json.RawMessage) (Task, error) {
	var task Task
	if raw, ok := fields["action"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &task.Action); err != nil {
			return Task{}, fmt.Errorf("invalid task: action must be a string")
		}
	}
	if raw, ok := fields["parameters"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &task.Parameters); err != nil {
			return Task{}, fmt.Errorf("invalid task: parameters must be an object")
		}
	}
	return task, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// ExecutePayload parses payload and executes it. A malformed task object
// yields a failed Result.
func (a *Adapter) ExecutePayload(ctx context.Context, payload string) *Result {
	task, err := ParsePayload(payload)
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - rejected task payload: %v", logPrefix, err))
		res := failure(err.Error())
		res.AvailableActions = AvailableActions()
		a.recorder.ObserveTask(defaultAction, false)
		return res
	}
	return a.Execute(ctx, task)
}

// Execute runs one task. It never panics and never returns nil.
func (a *Adapter) Execute(ctx context.Context, task Task) (res *Result) {
	action := task.Action
	if action == "" {
		action = defaultAction
	}
	params := task.Parameters
	if params == nil {
		params = map[string]any{}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - task %s panicked: %v", logPrefix, action, r))
			res = failure(fmt.Sprintf("task execution failed: %v", r))
		}
		a.recorder.ObserveTask(action, res.Success)
	}()

	switch action {
	case ActionAnalyzeStock:
		v, ok := required(params, actions.ParamCompanyNameOrTicker)
		if !ok {
			return missing(actions.ParamCompanyNameOrTicker)
		}
		return outcome(a.actions.AnalyzeStock(ctx, v))
	case ActionGetMarketData:
		v, ok := required(params, actions.ParamTicker)
		if !ok {
			return missing(actions.ParamTicker)
		}
		return outcome(a.actions.GetMarketData(ctx, v, actions.IncludeHistorical(params)))
	case ActionResolveCompanyName:
		v, ok := required(params, actions.ParamCompanyName)
		if !ok {
			return missing(actions.ParamCompanyName)
		}
		return outcome(a.actions.ResolveCompanyName(ctx, v))
	case ActionQuery:
		v, ok := required(params, actions.ParamQuery)
		if !ok {
			return missing(actions.ParamQuery)
		}
		return outcome(a.actions.Query(ctx, v))
	default:
		return &Result{
			Success:          false,
			Error:            fmt.Sprintf("unknown action: %s", action),
			AvailableActions: AvailableActions(),
		}
	}
}

// Run executes payload and wraps the result for a transport.
func (a *Adapter) Run(ctx context.Context, payload string) *Envelope {
	res := a.ExecutePayload(ctx, payload)
	status := StatusCompleted
	if !res.Success {
		status = StatusFailed
	}
	now := a.now()
	return &Envelope{
		TaskID:    NewTaskID(now),
		Status:    status,
		Result:    res,
		Timestamp: a2a.FormatTimestamp(now),
	}
}

// NewTaskID returns "task_<YYYYmmdd_HHMMSS>_<8 hex>". The random suffix keeps
// ids unique within one second.
func NewTaskID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("task_%s_%s", t.UTC().Format("20060102_150405"), suffix)
}

// Info returns the agent-protocol self-description.
func (a *Adapter) Info() *AgentInfo {
	return &AgentInfo{
		AgentID:     a.identity.AgentID,
		Name:        a.identity.AgentName,
		Description: a.identity.AgentDescription,
		Version:     a.identity.AgentVersion,
		Protocol:    ProtocolName,
		Capabilities: []ActionInfo{
			{
				Action:      ActionAnalyzeStock,
				Description: "Analyze a NASDAQ stock and provide investment recommendations",
				Parameters:  map[string]string{actions.ParamCompanyNameOrTicker: "Company name or ticker symbol"},
			},
			{
				Action:      ActionGetMarketData,
				Description: "Retrieve current and historical market data",
				Parameters: map[string]string{
					actions.ParamTicker:            "Stock ticker symbol",
					actions.ParamIncludeHistorical: "Include 6-month historical data (optional)",
				},
			},
			{
				Action:      ActionResolveCompanyName,
				Description: "Convert company name to ticker symbol",
				Parameters:  map[string]string{actions.ParamCompanyName: "Company name to resolve"},
			},
			{
				Action:      ActionQuery,
				Description: "Process natural language query about stocks",
				Parameters:  map[string]string{actions.ParamQuery: "Natural language query"},
			},
		},
		Timestamp: a2a.FormatTimestamp(a.now()),
	}
}

func required(params map[string]any, name string) (string, bool) {
	v := actions.StringParam(params, name)
	return v, v != ""
}

func missing(name string) *Result {
	return failure(fmt.Sprintf("missing required parameter: %s", name))
}

func failure(msg string) *Result {
	return &Result{Success: false, Error: msg}
}

func outcome(output map[string]any, err error) *Result {
	if err != nil {
		return failure(err.Error())
	}
	if output == nil {
		output = map[string]any{}
	}
	return &Result{Success: true, Output: output}
}
