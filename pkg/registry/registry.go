package registry

import (
	"sync"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
)

const (
	defaultAgentID          = "nasdaq-stock-agent"
	defaultAgentName        = "NASDAQ Stock Agent"
	defaultAgentVersion     = "1.0.0"
	defaultAgentDescription = "AI-powered NASDAQ stock analysis and investment recommendations"
	defaultEndpointPrefix   = "/a2a"
)

// Config holds the identity the registry advertises in its manifests.
type Config struct {
	AgentID          string
	AgentName        string
	AgentVersion     string
	AgentDescription string
	// EndpointPrefix is the HTTP path prefix used to compute invocation endpoints.
	EndpointPrefix string
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{
		AgentID:          defaultAgentID,
		AgentName:        defaultAgentName,
		AgentVersion:     defaultAgentVersion,
		AgentDescription: defaultAgentDescription,
		EndpointPrefix:   defaultEndpointPrefix,
	}
}

// Registry holds capability definitions keyed by id, in registration order.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	caps   map[string]a2a.Capability
	order  []string
	config Config
}

// NewRegistryParams holds parameters for NewRegistry.
type NewRegistryParams struct {
	Config Config
	// Capabilities are registered in order at construction. Nil means none.
	Capabilities []a2a.Capability
}

// NewRegistry creates a new Registry instance.
func NewRegistry(params NewRegistryParams) *Registry {
	cfg := params.Config
	if cfg.AgentID == "" {
		cfg.AgentID = defaultAgentID
	}
	if cfg.AgentName == "" {
		cfg.AgentName = defaultAgentName
	}
	if cfg.AgentVersion == "" {
		cfg.AgentVersion = defaultAgentVersion
	}
	if cfg.AgentDescription == "" {
		cfg.AgentDescription = defaultAgentDescription
	}
	if cfg.EndpointPrefix == "" {
		cfg.EndpointPrefix = defaultEndpointPrefix
	}

	r := &Registry{
		caps:   make(map[string]a2a.Capability),
		config: cfg,
	}
	for _, c := range params.Capabilities {
		r.Register(c)
	}
	return r
}

// NewDefaultRegistry returns a registry seeded with a2a.DefaultCapabilities.
func NewDefaultRegistry(cfg Config) *Registry {
	return NewRegistry(NewRegistryParams{Config: cfg, Capabilities: a2a.DefaultCapabilities()})
}

// AgentID returns the id this registry advertises.
func (r *Registry) AgentID() string {
	return r.config.AgentID
}

// Config returns the effective configuration.
func (r *Registry) Config() Config {
	return r.config
}

// Register inserts c, or replaces the capability with the same id.
// A replaced capability keeps its original position.
func (r *Registry) Register(c a2a.Capability) {
	c = c.WithDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.caps[c.ID]; !exists {
		r.order = append(r.order, c.ID)
	}
	r.caps[c.ID] = c
}

// Unregister removes the capability and reports whether it existed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.caps[id]; !exists {
		return false
	}
	delete(r.caps, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every capability.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps = make(map[string]a2a.Capability)
	r.order = nil
}

// Get returns the capability with the given id.
func (r *Registry) Get(id string) (a2a.Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[id]
	return c, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.caps[id]
	return ok
}

// ListAll returns every capability in registration order.
func (r *Registry) ListAll() []a2a.Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]a2a.Capability, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.caps[id])
	}
	return out
}

// ListByType returns the capabilities of type t in registration order.
func (r *Registry) ListByType(t a2a.CapabilityType) []a2a.Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]a2a.Capability, 0)
	for _, id := range r.order {
		if c := r.caps[id]; c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered capabilities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.caps)
}
