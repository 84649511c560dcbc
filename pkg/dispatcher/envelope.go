// Package dispatcher turns inbound A2A requests into responses: it guards on
// initialization, checks the capability and its parameters against the
// registry, routes to the capability's implementation and audits the outcome.
package dispatcher

import "github.com/DataSup-Engineer/nasdaq-agent/pkg/registry"

// Status is the handler's self-description served on the status endpoints.
type Status struct {
	Service           string `json:"service"`
	IsInitialized     bool   `json:"is_initialized"`
	AgentID           string `json:"agent_id"`
	CapabilitiesCount int    `json:"capabilities_count"`
	Timestamp         string `json:"timestamp"`
}

// ErrorDetail holds structured error information for transport-level errors
// that are not A2A responses (admin endpoints, malformed routes).
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}

// NewErrorDetail creates an ErrorDetail.
func NewErrorDetail(code, message string, retryable bool) *ErrorDetail {
	return &ErrorDetail{Code: code, Message: message, Retryable: retryable}
}

// RegistryErrorDetail converts a registry error; INTERNAL_ERROR is retryable.
func RegistryErrorDetail(err error) *ErrorDetail {
	if regErr, ok := err.(*registry.RegistryError); ok {
		return &ErrorDetail{
			Code:      regErr.Code,
			Message:   regErr.Message,
			Details:   regErr.Details,
			Retryable: regErr.Code == "INTERNAL_ERROR",
		}
	}
	return NewErrorDetail("INTERNAL_ERROR", err.Error(), true)
}
