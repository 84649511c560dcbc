package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
)

func echoCapability() a2a.Capability {
	return a2a.Capability{
		ID:          "x.echo",
		Name:        "Echo",
		Description: "Echoes its input",
		Type:        a2a.CapabilityTypeQuery,
		InputSchema: a2a.Schema{
			Type: "object",
			Properties: []a2a.Property{
				{Name: "msg", Kind: a2a.KindString},
			},
			Required: []string{"msg"},
		},
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.AgentID != "nasdaq-stock-agent" {
		t.Errorf("registry:registry_test - AgentID = %q, want %q", cfg.AgentID, "nasdaq-stock-agent")
	}
	if cfg.AgentVersion != "1.0.0" {
		t.Errorf("registry:registry_test - AgentVersion = %q, want %q", cfg.AgentVersion, "1.0.0")
	}
	if cfg.EndpointPrefix != "/a2a" {
		t.Errorf("registry:registry_test - EndpointPrefix = %q, want %q", cfg.EndpointPrefix, "/a2a")
	}
}

func TestNewRegistry_DefaultConfig(t *testing.T) {
	reg := NewRegistry(NewRegistryParams{Config: Config{}})

	if reg.config.AgentID != defaultAgentID {
		t.Errorf("registry:registry_test - AgentID = %q, want %q", reg.config.AgentID, defaultAgentID)
	}
	if reg.config.AgentName != defaultAgentName {
		t.Errorf("registry:registry_test - AgentName = %q, want %q", reg.config.AgentName, defaultAgentName)
	}
	if reg.Count() != 0 {
		t.Errorf("registry:registry_test - Count = %d, want 0", reg.Count())
	}
}

func TestNewRegistry_CustomConfig(t *testing.T) {
	reg := NewRegistry(NewRegistryParams{Config: Config{AgentID: "other-agent", EndpointPrefix: "/api/a2a/"}})

	if reg.AgentID() != "other-agent" {
		t.Errorf("registry:registry_test - AgentID = %q, want other-agent", reg.AgentID())
	}
	if got := reg.InvokeEndpoint("x.echo"); got != "/api/a2a/capabilities/x.echo/invoke" {
		t.Errorf("registry:registry_test - InvokeEndpoint = %q", got)
	}
}

func TestNewDefaultRegistry_SeedsDefaults(t *testing.T) {
	reg := NewDefaultRegistry(DefaultConfig())

	for _, c := range a2a.DefaultCapabilities() {
		got, ok := reg.Get(c.ID)
		if !ok {
			t.Errorf("registry:registry_test - default capability %s not registered", c.ID)
			continue
		}
		if !reg.Has(c.ID) {
			t.Errorf("registry:registry_test - Has(%s) = false", c.ID)
		}
		if got.Name != c.Name || got.Type != c.Type || got.Version != c.Version {
			t.Errorf("registry:registry_test - Get(%s) = %+v, want %+v", c.ID, got, c)
		}
	}
}

func TestRegister_Upsert(t *testing.T) {
	reg := NewRegistry(NewRegistryParams{})
	reg.Register(echoCapability())
	reg.Register(a2a.Capability{ID: "x.other", Name: "Other", Type: a2a.CapabilityTypeAnalysis})

	updated := echoCapability()
	updated.Description = "updated"
	reg.Register(updated)

	if reg.Count() != 2 {
		t.Fatalf("registry:registry_test - Count = %d, want 2", reg.Count())
	}
	got, _ := reg.Get("x.echo")
	if got.Description != "updated" {
		t.Errorf("registry:registry_test - Description = %q, want updated", got.Description)
	}
	if got.Version != "1.0.0" {
		t.Errorf("registry:registry_test - Version = %q, want default 1.0.0", got.Version)
	}
	ids := reg.IDs()
	if len(ids) != 2 || ids[0] != "x.echo" || ids[1] != "x.other" {
		t.Errorf("registry:registry_test - IDs = %v, want registration order", ids)
	}
}

func TestUnregister(t *testing.T) {
	reg := NewRegistry(NewRegistryParams{Capabilities: []a2a.Capability{echoCapability()}})

	if !reg.Unregister("x.echo") {
		t.Error("registry:registry_test - Unregister existing = false, want true")
	}
	if reg.Unregister("x.echo") {
		t.Error("registry:registry_test - Unregister missing = true, want false")
	}
	if reg.Has("x.echo") {
		t.Error("registry:registry_test - Has after Unregister = true")
	}
	if len(reg.IDs()) != 0 {
		t.Errorf("registry:registry_test - IDs = %v, want empty", reg.IDs())
	}
}

func TestClear(t *testing.T) {
	reg := NewDefaultRegistry(DefaultConfig())
	reg.Clear()
	if reg.Count() != 0 || len(reg.ListAll()) != 0 {
		t.Errorf("registry:registry_test - expected empty registry after Clear")
	}
}

func TestListByType(t *testing.T) {
	reg := NewDefaultRegistry(DefaultConfig())

	for _, typ := range a2a.CapabilityTypes() {
		caps := reg.ListByType(typ)
		if len(caps) != 1 {
			t.Errorf("registry:registry_test - ListByType(%s) len = %d, want 1", typ, len(caps))
			continue
		}
		if caps[0].Type != typ {
			t.Errorf("registry:registry_test - ListByType(%s) returned type %s", typ, caps[0].Type)
		}
	}

	reg.Clear()
	if caps := reg.ListByType(a2a.CapabilityTypeQuery); caps == nil || len(caps) != 0 {
		t.Errorf("registry:registry_test - ListByType on empty registry = %v, want empty slice", caps)
	}
}

func TestListMatching(t *testing.T) {
	reg := NewRegistry(NewRegistryParams{})
	reg.Register(a2a.Capability{ID: "x.a", Name: "A", Type: a2a.CapabilityTypeQuery, Version: "1.2.0"})
	reg.Register(a2a.Capability{ID: "x.b", Name: "B", Type: a2a.CapabilityTypeQuery, Version: "2.0.0"})
	reg.Register(a2a.Capability{ID: "x.c", Name: "C", Type: a2a.CapabilityTypeAnalysis, Version: "1.0.0"})

	if got := reg.ListMatching("", "1"); len(got) != 2 {
		t.Errorf("registry:registry_test - ListMatching(\"\", 1) len = %d, want 2", len(got))
	}
	if got := reg.ListMatching(a2a.CapabilityTypeQuery, "^1.0.0"); len(got) != 1 || got[0].ID != "x.a" {
		t.Errorf("registry:registry_test - ListMatching(query, ^1.0.0) = %v", got)
	}
	if got := reg.ListMatching(a2a.CapabilityTypeQuery, ""); len(got) != 2 {
		t.Errorf("registry:registry_test - ListMatching(query, \"\") len = %d, want 2", len(got))
	}
	if got := reg.ListMatching("", "2.0.0"); len(got) != 1 || got[0].ID != "x.b" {
		t.Errorf("registry:registry_test - ListMatching(\"\", 2.0.0) = %v", got)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewDefaultRegistry(DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			reg.Register(a2a.Capability{ID: fmt.Sprintf("x.c%d", n), Name: "c", Type: a2a.CapabilityTypeQuery})
		}(i)
		go func() {
			defer wg.Done()
			_ = reg.Manifest()
			_ = reg.ValidateInput(a2a.CapabilityQuery, map[string]any{"query": "q"})
		}()
	}
	wg.Wait()

	if reg.Count() != 24 {
		t.Errorf("registry:registry_test - Count = %d, want 24", reg.Count())
	}
}
