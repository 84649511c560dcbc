// Package bootstrap loads capability definition files (JSON or YAML) that
// seed or extend an agent's registry at startup.
package bootstrap

import "github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"

// CapabilityFile is the root of a capability definition file.
type CapabilityFile struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	// IncludeDefaults keeps the built-in stock capabilities. Absent means true.
	IncludeDefaults *bool            `json:"include_defaults,omitempty"`
	Capabilities    []a2a.Capability `json:"capabilities"`
	// Source is the path the file was read from; empty for the built-in file.
	Source string `json:"-"`
}

// includeDefaults reports whether the built-in capabilities should be kept.
func (f *CapabilityFile) includeDefaults() bool {
	return f.IncludeDefaults == nil || *f.IncludeDefaults
}

// ResolvedCapabilities is the ordered, de-duplicated capability set a file
// resolves to.
type ResolvedCapabilities struct {
	name    string
	version string
	source  string
	caps    []a2a.Capability
	index   map[string]int
}

// Get returns the capability with id, or nil.
func (rc *ResolvedCapabilities) Get(id string) *a2a.Capability {
	if i, ok := rc.index[id]; ok {
		c := rc.caps[i]
		return &c
	}
	return nil
}

// List returns the capabilities in resolution order.
func (rc *ResolvedCapabilities) List() []a2a.Capability {
	out := make([]a2a.Capability, len(rc.caps))
	copy(out, rc.caps)
	return out
}

// Name returns the capability file name.
func (rc *ResolvedCapabilities) Name() string {
	return rc.name
}

// Version returns the capability file version.
func (rc *ResolvedCapabilities) Version() string {
	return rc.version
}

// Source returns where the capabilities were loaded from.
func (rc *ResolvedCapabilities) Source() string {
	return rc.source
}
