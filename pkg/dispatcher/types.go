// Package dispatcher implements ServiceDispatcher: routing to the correct
// backend (engine/RAG/search), the area gate, the per-analysis-type timeout
// table, and deterministic fallback on failure. Grounded on
// original_source/backend/app/services/core_llm_agent/dispatcher/
// service_dispatcher.py's dispatch/_calculate_timeout_for_area/
// _create_area_too_large_response, reworked into Go's explicit-error-return
// idiom: the Python raises and catches broadly, this returns a
// DispatchResult carrying Success/ErrorType the same way every other stage
// in this pipeline does.
package dispatcher

import (
	"time"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/engine"
	"github.com/geoqa/geoqa/pkg/intent"
	"github.com/geoqa/geoqa/pkg/search"
)

// ServiceUsed records which backend actually produced a DispatchResult,
// distinct from the intent classifier's requested ServiceType since a
// failure can degrade GEE/RAG to search.
type ServiceUsed string

const (
	ServiceUsedGEE    ServiceUsed = "gee"
	ServiceUsedRAG    ServiceUsed = "rag"
	ServiceUsedSearch ServiceUsed = "search"
)

// DispatchResult is ServiceDispatcher's output: whichever backend ran,
// tagged with evidence markers the formatter extends, never shortens.
type DispatchResult struct {
	ServiceUsed    ServiceUsed
	Analysis       *engine.AnalysisResult
	Search         *search.SynthesisResult
	RAGAnalysis    string
	RAGSources     []string
	RAGConfidence  float64
	Evidence       []string
	Success        bool
	Error          string
	ErrorType      core.ErrorType
	ProcessingTime time.Duration
}

// timeoutTable mirrors service_dispatcher.py's base_timeouts dict (seconds).
var timeoutTable = map[intent.GEESubIntent]int{
	intent.SubWater: 120,
	intent.SubNDVI:  120,
	intent.SubLULC:  150,
	intent.SubLST:   150,
}

const defaultBaseTimeoutSecs = 90
const maxTimeoutSecs = 1200
const connectTimeoutSecs = 10
const devReadTimeoutCapSecs = 120

// calculateTimeout implements _calculate_timeout_for_area: base timeout by
// sub-intent, scaled ×1/1.5/2 by area bucket, capped at 1200s (20 minutes).
func calculateTimeout(areaKM2 float64, sub intent.GEESubIntent) time.Duration {
	base, ok := timeoutTable[sub]
	if !ok {
		base = defaultBaseTimeoutSecs
	}

	multiplier := 1.0
	switch {
	case areaKM2 > 10000:
		multiplier = 2.0
	case areaKM2 > 1000:
		multiplier = 1.5
	}

	secs := int(float64(base) * multiplier)
	if secs > maxTimeoutSecs {
		secs = maxTimeoutSecs
	}
	return time.Duration(secs) * time.Second
}

// readTimeout caps the read-side deadline per spec §4.3's connect/read
// split: 120s in development (the original's "avoid very long stalls
// during development" cap), 1200s hard ceiling otherwise.
func readTimeout(full time.Duration, dev bool) time.Duration {
	ceiling := time.Duration(maxTimeoutSecs) * time.Second
	if dev {
		ceiling = time.Duration(devReadTimeoutCapSecs) * time.Second
	}
	if full < ceiling {
		return full
	}
	return ceiling
}

// engineDeadline folds the connect/read split into the single deadline a
// context can carry: the 10s connect budget plus the capped read budget.
// The transport-level connect behavior itself lives in core.DefaultClient.
func engineDeadline(full time.Duration, dev bool) time.Duration {
	return time.Duration(connectTimeoutSecs)*time.Second + readTimeout(full, dev)
}
