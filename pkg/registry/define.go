package registry

import (
	"fmt"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/semver"
)

const (
	maxSchemaProperties = 200
	maxNameLength       = 256
)

// ValidateCapability checks a definition supplied from outside the process
// (capability files, administrative registration) before it is registered.
// Capabilities built in code are not required to pass it.
func ValidateCapability(c a2a.Capability) *RegistryError {
	if err := semver.ValidateCapabilityID(c.ID); err != nil {
		return &RegistryError{Code: "INVALID_ARGUMENT", Message: fmt.Sprintf("invalid capability id %q", c.ID), Details: err.Error()}
	}
	if c.Name == "" || len(c.Name) > maxNameLength {
		return &RegistryError{Code: "INVALID_ARGUMENT", Message: fmt.Sprintf("name must be 1-%d characters", maxNameLength)}
	}
	if !c.Type.Valid() {
		return &RegistryError{Code: "INVALID_ARGUMENT", Message: fmt.Sprintf("unknown capability type %q", c.Type)}
	}
	if c.Version != "" {
		if err := semver.ValidateVersion(c.Version); err != nil {
			return &RegistryError{Code: "INVALID_ARGUMENT", Message: fmt.Sprintf("version %q is not MAJOR.MINOR.PATCH", c.Version), Details: err.Error()}
		}
	}
	for _, s := range []a2a.Schema{c.InputSchema, c.OutputSchema} {
		if len(s.Properties) > maxSchemaProperties {
			return &RegistryError{Code: "INVALID_ARGUMENT", Message: fmt.Sprintf("schema properties exceed maximum %d", maxSchemaProperties)}
		}
	}
	for _, name := range c.InputSchema.Required {
		if _, ok := c.InputSchema.Property(name); !ok {
			return &RegistryError{Code: "INVALID_ARGUMENT", Message: fmt.Sprintf("required parameter %q is not a declared property", name)}
		}
	}
	return nil
}

// ListMatching returns the capabilities whose version satisfies rangeStr,
// optionally restricted to one type. An empty type matches all types.
func (r *Registry) ListMatching(t a2a.CapabilityType, rangeStr string) []a2a.Capability {
	var caps []a2a.Capability
	if t == "" {
		caps = r.ListAll()
	} else {
		caps = r.ListByType(t)
	}
	if rangeStr == "" {
		return caps
	}
	out := make([]a2a.Capability, 0, len(caps))
	for _, c := range caps {
		if semver.SatisfiesRange(c.Version, rangeStr) {
			out = append(out, c)
		}
	}
	return out
}
