// Package a2a defines the agent-to-agent message envelope and capability descriptors.
package a2a

// MessageType identifies the kind of envelope on the wire.
type MessageType string

const (
	MessageTypeRequest      MessageType = "request"
	MessageTypeResponse     MessageType = "response"
	MessageTypeNotification MessageType = "notification"
	MessageTypeError        MessageType = "error"
)

// MessageTypes lists every supported message type in manifest order.
func MessageTypes() []MessageType {
	return []MessageType{MessageTypeRequest, MessageTypeResponse, MessageTypeNotification, MessageTypeError}
}

// CapabilityType is the closed set of capability categories.
type CapabilityType string

const (
	CapabilityTypeAnalysis      CapabilityType = "analysis"
	CapabilityTypeDataRetrieval CapabilityType = "data_retrieval"
	CapabilityTypeResolution    CapabilityType = "resolution"
	CapabilityTypeQuery         CapabilityType = "query"
)

// CapabilityTypes lists every capability type.
func CapabilityTypes() []CapabilityType {
	return []CapabilityType{CapabilityTypeAnalysis, CapabilityTypeDataRetrieval, CapabilityTypeResolution, CapabilityTypeQuery}
}

// Valid reports whether t is one of the known capability types.
func (t CapabilityType) Valid() bool {
	switch t {
	case CapabilityTypeAnalysis, CapabilityTypeDataRetrieval, CapabilityTypeResolution, CapabilityTypeQuery:
		return true
	}
	return false
}

const (
	// ProtocolName is advertised in manifests.
	ProtocolName = "A2A"
	// ProtocolVersion is the envelope version advertised in manifests.
	ProtocolVersion = "1.0"
	// DefaultCapabilityVersion is used when a capability omits its version.
	DefaultCapabilityVersion = "1.0.0"
	// DefaultTimeoutSeconds is the advisory request timeout when none is given.
	DefaultTimeoutSeconds = 60
)
