// Package models contains data types and constants shared by the learnchat
// client and backend.
package models

// Endpoint paths served by the backend
const (
	EndpointChat      = "/api/chat"
	EndpointHealth    = "/api/health"
	EndpointStats     = "/api/stats"
	EndpointKnowledge = "/api/knowledge"
)

// DefaultServerURL is the backend the client talks to when nothing is configured
const DefaultServerURL = "http://127.0.0.1:5000"

// Texts rendered by the exchange controller
const (
	PlaceholderText = "Thinking..."
	ErrorPrefix     = "Error: "

	// FallbackReason is shown when a rejection carries no explanation
	FallbackReason = "Network response was not ok"
	// NetworkFailureReason is shown when the backend could not be reached
	NetworkFailureReason = "Failed to reach server"
	// InvalidResponseReason is shown when the backend answered with an unusable body
	InvalidResponseReason = "Invalid response from server"
)

// Response status values carried in the "status" field
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusHealthy = "healthy"
)

// Provenance tags reported by the backend responder
const (
	SourceLearned = "learned"
	SourceOpenAI  = "openai"
	SourceDemo    = "demo"
)

// DefaultHeaders returns the headers sent with every backend request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "learnchat/1.0",
	}
}
