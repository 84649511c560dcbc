// Package registry holds the capability definitions an agent advertises and
// validates inbound parameters against them.
package registry

import "github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"

// Manifest is the discovery document describing the agent and all its capabilities.
type Manifest struct {
	AgentID               string            `json:"agent_id"`
	AgentName             string            `json:"agent_name"`
	Version               string            `json:"version"`
	Description           string            `json:"description"`
	Protocol              string            `json:"protocol"`
	ProtocolVersion       string            `json:"protocol_version"`
	Capabilities          []a2a.Capability  `json:"capabilities"`
	SupportedMessageTypes []a2a.MessageType `json:"supported_message_types"`
	Timestamp             string            `json:"timestamp"`
}

// CapabilityManifest describes one capability and where to invoke it.
type CapabilityManifest struct {
	AgentID    string         `json:"agent_id"`
	Capability a2a.Capability `json:"capability"`
	Endpoint   string         `json:"endpoint"`
	Timestamp  string         `json:"timestamp"`
}

// Summary counts capabilities overall and per type.
// CapabilitiesByType always carries every capability type.
type Summary struct {
	TotalCapabilities  int                        `json:"total_capabilities"`
	CapabilitiesByType map[a2a.CapabilityType]int `json:"capabilities_by_type"`
	CapabilityIDs      []string                   `json:"capability_ids"`
	AgentID            string                     `json:"agent_id"`
	Timestamp          string                     `json:"timestamp"`
}

// RegistryError is a structured error from the registry.
type RegistryError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *RegistryError) Error() string {
	return e.Code + ": " + e.Message
}

// NewRegistryError creates a new RegistryError.
func NewRegistryError(code, message string) *RegistryError {
	return &RegistryError{Code: code, Message: message}
}
