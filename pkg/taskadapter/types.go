// Package taskadapter executes agent-protocol style tasks: a payload naming an
// action and its parameters, or plain text treated as a free-text query.
// Failures are returned as data, never as errors or panics.
package taskadapter

// Task actions accepted by the adapter.
const (
	ActionAnalyzeStock       = "analyze_stock"
	ActionGetMarketData      = "get_market_data"
	ActionResolveCompanyName = "resolve_company_name"
	ActionQuery              = "query"

	// defaultAction is used when a task names no action. It is not itself a
	// valid action, so such tasks are reported as unknown.
	defaultAction = "analyze"

	// ProtocolName is advertised in agent info.
	ProtocolName = "agent-protocol"
)

// Task statuses reported in an Envelope.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AvailableActions lists the actions in the order they are advertised.
func AvailableActions() []string {
	return []string{ActionAnalyzeStock, ActionGetMarketData, ActionResolveCompanyName, ActionQuery}
}

// Task is a structured task payload.
type Task struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
}

// Result is the outcome of one task. Output is set iff Success.
type Result struct {
	Success          bool           `json:"success"`
	Output           map[string]any `json:"output,omitempty"`
	Error            string         `json:"error,omitempty"`
	AvailableActions []string       `json:"available_actions,omitempty"`
}

// Envelope wraps a Result with a task id and status for transports.
type Envelope struct {
	TaskID    string  `json:"task_id"`
	Status    string  `json:"status"`
	Result    *Result `json:"result"`
	Timestamp string  `json:"timestamp"`
}

// ActionInfo describes one action in the agent info catalogue.
type ActionInfo struct {
	Action      string            `json:"action"`
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters"`
}

// AgentInfo is the agent-protocol self-description.
type AgentInfo struct {
	AgentID      string       `json:"agent_id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Version      string       `json:"version"`
	Protocol     string       `json:"protocol"`
	Capabilities []ActionInfo `json:"capabilities"`
	Timestamp    string       `json:"timestamp"`
}
