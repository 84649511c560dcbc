// Package events defines capability change events and the publishers that
// announce them to other agents.
package events

// Change actions carried by CapabilityChangedEvent.
const (
	ActionRegistered   = "registered"
	ActionUnregistered = "unregistered"
)

// CapabilityChangedEvent is emitted when a capability is added to, replaced in
// or removed from an agent's registry.
type CapabilityChangedEvent struct {
	AgentID      string `json:"agent_id"`
	CapabilityID string `json:"capability_id"`
	Action       string `json:"action"`
	Version      string `json:"version,omitempty"`
	Timestamp    string `json:"timestamp"`
}
