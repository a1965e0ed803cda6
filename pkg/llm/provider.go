// Package llm defines the abstract LLM collaborator used by the intent
// classifier and entity extractor, and an OpenRouter-backed implementation
// of it. Interface shape is grounded on aurel42-phileasgo's pkg/llm
// (Provider: GenerateText/GenerateJSON/Configure/HealthCheck); the wire
// format and retry path are grounded on osmmcp's pkg/core/http.go so LLM
// calls get the same tracing, backoff, and error-taxonomy treatment as
// every other outbound call in this module.
package llm

import "context"

// Provider is the abstract LLM collaborator. SPEC_FULL.md treats the LLM
// backend as an external collaborator (like RAG): this module talks to it
// through this interface and never assumes a specific vendor.
type Provider interface {
	// GenerateText sends a prompt to the named profile and returns the raw
	// text completion.
	GenerateText(ctx context.Context, profile, prompt string) (string, error)

	// GenerateJSON sends a prompt and unmarshals the completion into target.
	// Implementations must request JSON-mode output where the backend
	// supports it and strip markdown fencing before unmarshalling.
	GenerateJSON(ctx context.Context, profile, prompt string, target any) error

	// HealthCheck verifies the provider is configured and reachable.
	HealthCheck(ctx context.Context) error
}
