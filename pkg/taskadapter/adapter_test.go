package taskadapter

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/actions"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/analysis"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/registry"
)

const adapterTestPrefix = "taskadapter:adapter_test"

type fakeAnalyzer struct {
	mu      sync.Mutex
	queries []string
	result  *analysis.Analysis
	err     error
	panics  bool
}

func (f *fakeAnalyzer) Analyze(_ context.Context, q string) (*analysis.Analysis, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.panics {
		panic("analyzer exploded")
	}
	return f.result, f.err
}

func strp(s string) *string { return &s }

func newAdapter(fa *fakeAnalyzer) *Adapter {
	return NewAdapter(NewAdapterParams{Actions: actions.New(fa)})
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		action  string
		query   any
	}{
		{"structured", `{"action":"get_market_data","parameters":{"ticker":"AAPL"}}`, "get_market_data", nil},
		{"free text", "What is Apple's outlook?", "query", "What is Apple's outlook?"},
		{"broken json", `{"action":`, "query", `{"action":`},
		{"json scalar", `42`, "query", "42"},
		{"no action", `{"parameters":{}}`, "", nil},
		{"null parameters", `{"action":"query","parameters":null}`, "query", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := ParsePayload(tt.payload)
			if err != nil {
				t.Fatalf("%s - ParsePayload(%q) failed: %v", adapterTestPrefix, tt.payload, err)
			}
			if task.Action != tt.action {
				t.Errorf("%s - Action = %q, want %q", adapterTestPrefix, task.Action, tt.action)
			}
			if tt.query != nil && task.Parameters["query"] != tt.query {
				t.Errorf("%s - query = %v, want %v", adapterTestPrefix, task.Parameters["query"], tt.query)
			}
		})
	}
}

func TestExecutePayload_MalformedTaskObject(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"parameters not an object", `{"action":"query","parameters":"x"}`, "invalid task: parameters must be an object"},
		{"action not a string", `{"action":5}`, "invalid task: action must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAnalyzer{}
			res := newAdapter(fa).ExecutePayload(context.Background(), tt.payload)
			if res.Success || res.Error != tt.want {
				t.Errorf("%s - res = %+v, want error %q", adapterTestPrefix, res, tt.want)
			}
			if len(res.AvailableActions) != 4 {
				t.Errorf("%s - AvailableActions = %v", adapterTestPrefix, res.AvailableActions)
			}
			if len(fa.queries) != 0 {
				t.Errorf("%s - analyzer called with %v, want no call", adapterTestPrefix, fa.queries)
			}
		})
	}
}

func TestExecute_UnknownAction(t *testing.T) {
	fa := &fakeAnalyzer{}
	res := newAdapter(fa).Execute(context.Background(), Task{Action: "bogus"})

	if res.Success || res.Error != "unknown action: bogus" {
		t.Errorf("%s - res = %+v", adapterTestPrefix, res)
	}
	if len(res.AvailableActions) != 4 || res.AvailableActions[0] != "analyze_stock" || res.AvailableActions[3] != "query" {
		t.Errorf("%s - AvailableActions = %v", adapterTestPrefix, res.AvailableActions)
	}
	if len(fa.queries) != 0 {
		t.Errorf("%s - analyzer called for unknown action", adapterTestPrefix)
	}
}

func TestExecute_MissingActionDefaultsToAnalyze(t *testing.T) {
	res := newAdapter(&fakeAnalyzer{}).ExecutePayload(context.Background(), `{"parameters":{"query":"x"}}`)
	if res.Success || res.Error != "unknown action: analyze" {
		t.Errorf("%s - res = %+v", adapterTestPrefix, res)
	}
}

func TestExecute_MissingParameters(t *testing.T) {
	tests := []struct {
		action string
		param  string
	}{
		{ActionAnalyzeStock, "company_name_or_ticker"},
		{ActionGetMarketData, "ticker"},
		{ActionResolveCompanyName, "company_name"},
		{ActionQuery, "query"},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			fa := &fakeAnalyzer{}
			a := newAdapter(fa)
			for _, params := range []map[string]any{nil, {tt.param: ""}, {tt.param: nil}} {
				res := a.Execute(context.Background(), Task{Action: tt.action, Parameters: params})
				if res.Success || res.Error != "missing required parameter: "+tt.param {
					t.Errorf("%s - params %v: res = %+v", adapterTestPrefix, params, res)
				}
			}
			if len(fa.queries) != 0 {
				t.Errorf("%s - analyzer called %d times", adapterTestPrefix, len(fa.queries))
			}
		})
	}
}

func TestExecute_FreeTextQuery(t *testing.T) {
	fa := &fakeAnalyzer{result: &analysis.Analysis{Response: strp("Buy it"), Ticker: strp("AAPL")}}
	res := newAdapter(fa).ExecutePayload(context.Background(), "Should I buy Apple?")

	if !res.Success {
		t.Fatalf("%s - res = %+v", adapterTestPrefix, res)
	}
	if res.Output["response"] != "Buy it" || res.Output["ticker"] != "AAPL" || res.Output["recommendation"] != "Hold" {
		t.Errorf("%s - Output = %v", adapterTestPrefix, res.Output)
	}
	if len(fa.queries) != 1 || fa.queries[0] != "Should I buy Apple?" {
		t.Errorf("%s - queries = %v", adapterTestPrefix, fa.queries)
	}
}

func TestExecute_MarketDataInstruction(t *testing.T) {
	fa := &fakeAnalyzer{result: &analysis.Analysis{}}
	a := newAdapter(fa)

	a.Execute(context.Background(), Task{Action: ActionGetMarketData, Parameters: map[string]any{"ticker": "MSFT"}})
	a.Execute(context.Background(), Task{Action: ActionGetMarketData, Parameters: map[string]any{"ticker": "MSFT", "include_historical": false}})

	want := []string{"Get market data for MSFT including 6-month historical data", "Get market data for MSFT"}
	if len(fa.queries) != 2 || fa.queries[0] != want[0] || fa.queries[1] != want[1] {
		t.Errorf("%s - queries = %v, want %v", adapterTestPrefix, fa.queries, want)
	}
}

func TestExecute_CollaboratorFailure(t *testing.T) {
	tests := []struct {
		name string
		fa   *fakeAnalyzer
		task Task
		want string
	}{
		{"backend message", &fakeAnalyzer{err: &analysis.Failure{Message: "rate limited"}}, Task{Action: ActionQuery, Parameters: map[string]any{"query": "q"}}, "rate limited"},
		{"default message", &fakeAnalyzer{err: &analysis.Failure{}}, Task{Action: ActionResolveCompanyName, Parameters: map[string]any{"company_name": "Acme"}}, "failed to resolve company name: Acme"},
		{"panic", &fakeAnalyzer{panics: true}, Task{Action: ActionQuery, Parameters: map[string]any{"query": "q"}}, "task execution failed: analyzer exploded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newAdapter(tt.fa).Execute(context.Background(), tt.task)
			if res.Success || res.Error != tt.want {
				t.Errorf("%s - res = %+v, want error %q", adapterTestPrefix, res, tt.want)
			}
			if res.Output != nil {
				t.Errorf("%s - Output set on failure: %v", adapterTestPrefix, res.Output)
			}
		})
	}
}

func TestRun_Envelope(t *testing.T) {
	a := newAdapter(&fakeAnalyzer{result: &analysis.Analysis{}})
	a.now = func() time.Time { return time.Date(2025, 4, 2, 9, 30, 5, 0, time.UTC) }

	env := a.Run(context.Background(), "hello")
	if env.Status != StatusCompleted || !env.Result.Success {
		t.Errorf("%s - env = %+v", adapterTestPrefix, env)
	}
	if !regexp.MustCompile(`^task_20250402_093005_[0-9a-f]{8}$`).MatchString(env.TaskID) {
		t.Errorf("%s - TaskID = %q", adapterTestPrefix, env.TaskID)
	}

	failed := a.Run(context.Background(), `{"action":"nope"}`)
	if failed.Status != StatusFailed {
		t.Errorf("%s - Status = %q, want failed", adapterTestPrefix, failed.Status)
	}
	if failed.TaskID == env.TaskID {
		t.Errorf("%s - task ids collide within one second", adapterTestPrefix)
	}
}

func TestResult_JSONShape(t *testing.T) {
	data, _ := json.Marshal(&Result{Success: false, Error: "unknown action: x", AvailableActions: AvailableActions()})
	var wire map[string]any
	_ = json.Unmarshal(data, &wire)
	if _, ok := wire["output"]; ok {
		t.Errorf("%s - output present on failure: %s", adapterTestPrefix, data)
	}
	if wire["success"] != false || wire["error"] != "unknown action: x" {
		t.Errorf("%s - wire = %s", adapterTestPrefix, data)
	}
}

func TestInfo(t *testing.T) {
	a := NewAdapter(NewAdapterParams{Identity: registry.Config{AgentID: "custom-agent"}})
	info := a.Info()

	if info.AgentID != "custom-agent" || info.Name != "NASDAQ Stock Agent" || info.Version != "1.0.0" {
		t.Errorf("%s - identity = %+v", adapterTestPrefix, info)
	}
	if info.Protocol != "agent-protocol" {
		t.Errorf("%s - Protocol = %q", adapterTestPrefix, info.Protocol)
	}
	if len(info.Capabilities) != 4 {
		t.Fatalf("%s - capabilities = %d, want 4", adapterTestPrefix, len(info.Capabilities))
	}
	md := info.Capabilities[1]
	if md.Action != "get_market_data" || md.Parameters["include_historical"] != "Include 6-month historical data (optional)" {
		t.Errorf("%s - market data entry = %+v", adapterTestPrefix, md)
	}
}

func TestExecute_NilActionsFailsGracefully(t *testing.T) {
	res := NewAdapter(NewAdapterParams{}).Execute(context.Background(), Task{Action: ActionQuery, Parameters: map[string]any{"query": "q"}})
	if res.Success || res.Error != "analysis backend not configured" {
		t.Errorf("%s - res = %+v", adapterTestPrefix, res)
	}
}
