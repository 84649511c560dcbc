package commsutil

import "fmt"

// Default COMMS subjects.
const (
	DefaultSubjectPrefix   = "a2a"
	DefaultAnalyzerSubject = "nasdaq.analyzer.analyze"
)

// BuildRequestSubject builds the subject an agent answers A2A requests on.
func BuildRequestSubject(prefix, agentID string) string {
	return fmt.Sprintf("%s.%s.request", prefix, agentID)
}

// BuildTaskSubject builds the subject an agent accepts task payloads on.
func BuildTaskSubject(prefix, agentID string) string {
	return fmt.Sprintf("%s.%s.tasks", prefix, agentID)
}

// BuildManifestSubject builds the subject an agent answers manifest requests on.
func BuildManifestSubject(prefix, agentID string) string {
	return fmt.Sprintf("%s.%s.manifest", prefix, agentID)
}

// BuildChangeSubject builds the agent-wide capability change subject.
func BuildChangeSubject(prefix, agentID string) string {
	return fmt.Sprintf("%s.%s.capabilities.changed", prefix, agentID)
}

// BuildCapabilityChangeSubject builds the granular change subject for one capability.
func BuildCapabilityChangeSubject(prefix, agentID, capabilityID string) string {
	return fmt.Sprintf("%s.%s.capabilities.changed.%s", prefix, agentID, capabilityID)
}
