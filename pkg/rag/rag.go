// Package rag defines the RAGService external collaborator (spec §6):
// document-grounded question answering over a session's uploaded files.
// Grounded on original_source/backend/app/services/core_llm_agent/dispatcher/
// service_dispatcher.py's _dispatch_rag, which calls a synchronous
// rag_service.ask(query, intent_result, location_result, k, temperature,
// session_id) wrapper around an async RAG pipeline this module never
// implements directly; ServiceDispatcher only needs the interface and an
// unavailable-passthrough, since no vector store or document pipeline
// exists anywhere in the example pack to ground a real implementation on.
package rag

import (
	"context"

	"github.com/geoqa/geoqa/pkg/core"
)

// Response is RAGService's answer: a grounded narrative plus its sources.
type Response struct {
	Analysis   string
	Sources    []string
	Confidence float64
}

// Service is the external collaborator from spec §6:
// ask(query, session_id, k, temperature) -> {analysis, sources, confidence}.
type Service interface {
	Ask(ctx context.Context, query, sessionID string, k int, temperature float64) (Response, error)
}

// defaultK and defaultTemperature mirror service_dispatcher.py's
// _dispatch_rag call site (k=5, temperature=0.7).
const (
	defaultK           = 5
	defaultTemperature = 0.7
)

// Unavailable is the zero-dependency Service used when no real RAG backend
// is configured: every call fails with ErrBackendUnavailable so the
// dispatcher's existing degrade-to-search path handles it uniformly,
// matching _dispatch_rag's "RAG service is currently unavailable" branch.
type Unavailable struct{}

func (Unavailable) Ask(ctx context.Context, query, sessionID string, k int, temperature float64) (Response, error) {
	return Response{}, core.NewError(core.ErrBackendUnavailable, "RAG service is not configured")
}

// Ask is a convenience wrapper applying the dispatcher's default k and
// temperature, so callers don't need to repeat the original's call-site
// constants.
func Ask(ctx context.Context, svc Service, query, sessionID string) (Response, error) {
	return svc.Ask(ctx, query, sessionID, defaultK, defaultTemperature)
}
