// Package agent wires LocationParser, IntentClassifier, ServiceDispatcher,
// and ResultFormatter into the single process_query entry point, the only
// place in this pipeline that recovers a panic into a processing_error
// result rather than letting it cross a stage boundary. Grounded on
// original_source/backend/app/services/core_llm_agent/agent.py's
// CoreLLMAgent.process_query four-step orchestration.
package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/dispatcher"
	"github.com/geoqa/geoqa/pkg/formatter"
	"github.com/geoqa/geoqa/pkg/intent"
	"github.com/geoqa/geoqa/pkg/location"
	"github.com/geoqa/geoqa/pkg/monitoring"
	"github.com/geoqa/geoqa/pkg/telemetry"
	"github.com/geoqa/geoqa/pkg/tracing"
)

// Agent is the top-level orchestrator: process_query's four steps, per
// agent.py's CoreLLMAgent.
type Agent struct {
	locationParser   *location.Parser
	intentClassifier *intent.Classifier
	dispatcher       *dispatcher.Dispatcher
	evidenceSink     telemetry.Sink
}

// New builds an Agent. sink may be nil, in which case completed-request
// evidence is dropped (telemetry.NoopSink's behavior) rather than failing
// construction.
func New(locationParser *location.Parser, intentClassifier *intent.Classifier, disp *dispatcher.Dispatcher, sink telemetry.Sink) *Agent {
	if sink == nil {
		sink = telemetry.NoopSink
	}
	return &Agent{locationParser: locationParser, intentClassifier: intentClassifier, dispatcher: disp, evidenceSink: sink}
}

// ProcessQuery runs the complete pipeline for one query, per agent.py's
// process_query. A panic in any stage is recovered here and converted to
// a processing_error FormattedResult; every stage beneath this boundary is
// expected to use explicit error returns instead of panicking.
func (a *Agent) ProcessQuery(ctx context.Context, query string) *formatter.FormattedResult {
	return a.ProcessQuerySession(ctx, query, "")
}

// ProcessQuerySession is ProcessQuery with an explicit session identifier,
// used by the dispatcher's RAG-session-first routing rule (spec §4.3.1).
func (a *Agent) ProcessQuerySession(ctx context.Context, query, sessionID string) (result *formatter.FormattedResult) {
	start := time.Now()
	requestID := uuid.NewString()
	ctx, span := tracing.StartSpan(ctx, "agent.process_query")
	span.SetAttributes(attribute.String("geoqa.request_id", requestID))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered in process_query", "query", query, "recover", r)
			monitoring.RecordStageRequest("agent.process_query", time.Since(start), false)
			result = errorResult(query, core.ErrProcessing, core.NewError(core.ErrProcessing, "internal error while processing the request").Error(), time.Since(start))
			a.publishEvidence(ctx, requestID, query, nil, result, time.Since(start))
		}
	}()

	if strings.TrimSpace(query) == "" {
		monitoring.RecordStageRequest("agent.process_query", time.Since(start), false)
		result = errorResult(query, core.ErrValidation, core.ErrValidation.UserText(), time.Since(start))
		a.publishEvidence(ctx, requestID, query, nil, result, time.Since(start))
		return result
	}

	slog.Info("parsing locations", "query", query, "request_id", requestID)
	locResult := a.locationParser.Parse(ctx, query)
	if !locResult.Success {
		slog.Warn("location parsing failed", "error", locResult.Error, "request_id", requestID)
	}

	slog.Info("classifying intent", "query", query, "request_id", requestID)
	intentResult := a.intentClassifier.Classify(ctx, query)
	if !intentResult.Success {
		slog.Warn("intent classification failed", "error", intentResult.Error, "request_id", requestID)
	}

	slog.Info("dispatching", "service_type", intentResult.ServiceType, "request_id", requestID)
	dispatchResult := a.dispatcher.Dispatch(ctx, query, intentResult, locResult, sessionID)

	total := time.Since(start)
	fr := formatter.Format(query, intentResult, locResult, dispatchResult, total)
	monitoring.RecordStageRequest("agent.process_query", total, fr.Success)
	a.publishEvidence(ctx, requestID, query, intentResult, fr, total)
	return fr
}

// publishEvidence sends a completed-request audit record to the evidence
// sink (Kafka-backed or no-op), never blocking or failing the request path.
func (a *Agent) publishEvidence(ctx context.Context, requestID, query string, it *intent.IntentResult, fr *formatter.FormattedResult, total time.Duration) {
	rec := telemetry.EvidenceRecord{
		RequestID:   requestID,
		Query:       query,
		Stages:      fr.Evidence,
		ErrorType:   fr.ErrorType,
		Confidence:  fr.Confidence,
		DurationMs:  total.Milliseconds(),
		CompletedAt: time.Now(),
	}
	if it != nil {
		rec.Intent = string(it.ServiceType)
	}
	a.evidenceSink.Publish(ctx, rec)
}

func errorResult(query string, errType core.ErrorType, message string, processingTime time.Duration) *formatter.FormattedResult {
	return &formatter.FormattedResult{
		Analysis:       "❌ " + message,
		Summary:        message,
		Evidence:       []string{"agent:validation_failed"},
		Success:        false,
		Error:          message,
		ErrorType:      string(errType),
		ProcessingTime: processingTime,
		Metadata: map[string]any{
			"query":   query,
			"success": false,
		},
	}
}
