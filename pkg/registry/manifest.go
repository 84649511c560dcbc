package registry

import (
	"strings"
	"time"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
)

func now() string {
	return a2a.FormatTimestamp(time.Now())
}

// Manifest returns the agent identity and every registered capability.
func (r *Registry) Manifest() *Manifest {
	return &Manifest{
		AgentID:               r.config.AgentID,
		AgentName:             r.config.AgentName,
		Version:               r.config.AgentVersion,
		Description:           r.config.AgentDescription,
		Protocol:              a2a.ProtocolName,
		ProtocolVersion:       a2a.ProtocolVersion,
		Capabilities:          r.ListAll(),
		SupportedMessageTypes: a2a.MessageTypes(),
		Timestamp:             now(),
	}
}

// CapabilityManifest returns the manifest for id, or nil when it is not registered.
func (r *Registry) CapabilityManifest(id string) *CapabilityManifest {
	c, ok := r.Get(id)
	if !ok {
		return nil
	}
	return &CapabilityManifest{
		AgentID:    r.config.AgentID,
		Capability: c,
		Endpoint:   r.InvokeEndpoint(id),
		Timestamp:  now(),
	}
}

// InvokeEndpoint returns the HTTP path that invokes capability id.
func (r *Registry) InvokeEndpoint(id string) string {
	return strings.TrimSuffix(r.config.EndpointPrefix, "/") + "/capabilities/" + id + "/invoke"
}

// Summary returns capability counts with every type bucket present.
func (r *Registry) Summary() *Summary {
	caps := r.ListAll()
	byType := make(map[a2a.CapabilityType]int, len(a2a.CapabilityTypes()))
	for _, t := range a2a.CapabilityTypes() {
		byType[t] = 0
	}
	ids := make([]string, 0, len(caps))
	for _, c := range caps {
		byType[c.Type]++
		ids = append(ids, c.ID)
	}
	return &Summary{
		TotalCapabilities:  len(caps),
		CapabilitiesByType: byType,
		CapabilityIDs:      ids,
		AgentID:            r.config.AgentID,
		Timestamp:          now(),
	}
}
