package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/engine"
	"github.com/geoqa/geoqa/pkg/intent"
	"github.com/geoqa/geoqa/pkg/location"
	"github.com/geoqa/geoqa/pkg/rag"
	"github.com/geoqa/geoqa/pkg/search"
	"github.com/geoqa/geoqa/pkg/tracing"
)

// areaLimitSuggestionKM2 is the size the refusal text suggests narrowing
// to, per _create_area_too_large_response's "Try a smaller, more specific
// location" guidance.
const areaLimitSuggestionKM2 = 5000.0

// Dispatcher implements ServiceDispatcher (spec §4.3): it picks GEE, RAG,
// or SEARCH for a request, enforces the area gate ahead of any GEE call,
// and degrades to search on engine failure. Grounded on
// service_dispatcher.py's dispatch(); unlike the original's broad
// try/except, every branch here returns a DispatchResult with an explicit
// ErrorType rather than raising.
type Dispatcher struct {
	eng         *engine.Engine
	rag         rag.Service
	synth       *search.Synthesizer
	maxROIKM2   float64
	disableGEE  bool
	devTimeouts bool
}

func New(eng *engine.Engine, ragSvc rag.Service, synth *search.Synthesizer, maxROIKM2 float64, disableGEE bool) *Dispatcher {
	if ragSvc == nil {
		ragSvc = rag.Unavailable{}
	}
	return &Dispatcher{eng: eng, rag: ragSvc, synth: synth, maxROIKM2: maxROIKM2, disableGEE: disableGEE}
}

// WithDevTimeouts selects the development read-timeout cap (120s) instead
// of the 1200s production ceiling for GEE-path deadlines.
func (d *Dispatcher) WithDevTimeouts(dev bool) *Dispatcher {
	d.devTimeouts = dev
	return d
}

// Dispatch routes a classified, location-resolved request to its backend,
// per spec §4.3's ordering: RAG session first, then GEE (area-gated), then
// SEARCH, else a validation error.
func (d *Dispatcher) Dispatch(ctx context.Context, query string, it *intent.IntentResult, loc *location.LocationParseResult, ragSessionID string) *DispatchResult {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "dispatcher.dispatch")
	defer span.End()

	if ragSessionID != "" {
		return d.dispatchRAG(ctx, query, ragSessionID, it, loc, start)
	}

	switch it.ServiceType {
	case intent.ServiceGEE:
		return d.dispatchGEE(ctx, it, loc, start)
	case intent.ServiceRAG:
		return d.dispatchRAG(ctx, query, ragSessionID, it, loc, start)
	case intent.ServiceSearch:
		return d.dispatchSearch(ctx, it, loc, start, nil)
	default:
		return &DispatchResult{
			Success:        false,
			ErrorType:      core.ErrValidation,
			Error:          "intent classifier returned no usable service type",
			ProcessingTime: time.Since(start),
		}
	}
}

func (d *Dispatcher) dispatchGEE(ctx context.Context, it *intent.IntentResult, loc *location.LocationParseResult, start time.Time) *DispatchResult {
	if d.disableGEE {
		return d.dispatchSearch(ctx, it, loc, start, []string{"gee:disabled_fallback"})
	}

	roi := loc.ROIGeometry
	if roi == nil {
		return &DispatchResult{
			Success:        false,
			ErrorType:      core.ErrValidation,
			Error:          "no resolvable location for a GEE analysis",
			ProcessingTime: time.Since(start),
		}
	}

	if roi.AreaKM2 > d.maxROIKM2 {
		return d.areaTooLargeResult(loc, roi.AreaKM2, start)
	}

	timeout := calculateTimeout(roi.AreaKM2, it.GEESubIntent)
	gctx, cancel := context.WithTimeout(ctx, engineDeadline(timeout, d.devTimeouts))
	defer cancel()

	base := engine.Params{}
	if it.TimeRange != nil {
		base.DateStart = it.TimeRange.Start
		base.DateEnd = it.TimeRange.End
	}
	params := engine.NormalizeParams(geeIndicator(it.GEESubIntent), base, time.Now())
	var result *engine.AnalysisResult
	var extraEvidence []string

	switch it.GEESubIntent {
	case intent.SubNDVI:
		result = d.eng.AnalyzeNDVI(gctx, roi, params)
	case intent.SubLST:
		result = d.eng.AnalyzeLST(gctx, roi, params)
	case intent.SubLULC:
		result = d.eng.AnalyzeLULC(gctx, roi, params)
	case intent.SubWater:
		result = d.eng.AnalyzeWater(gctx, roi, params)
		// A water query with an explicit multi-year window also gets the
		// (simulated, labeled) change-detection summary.
		if sy, ey, ok := yearSpan(it.TimeRange); ok && result.Success {
			if change, err := engine.WaterChangeFromAnalysis(result, sy, ey); err == nil {
				result.MapStats["change_detection"] = change
				result.Metadata["simulated"] = true
				extraEvidence = append(extraEvidence, "water_change:simulated")
			}
		}
	default:
		// No engine indicator covers CLIMATE/SOIL/POPULATION/TRANSPORTATION;
		// degrade to search rather than fail the whole request.
		return d.dispatchSearch(ctx, it, loc, start, []string{"gee:unsupported_sub_intent_fallback"})
	}

	if !result.Success && (result.ErrorType == engine.ErrTimeout || result.ErrorType == engine.ErrProcessing || result.ErrorType == engine.ErrBackendUnavailable) {
		return d.dispatchSearch(ctx, it, loc, start, []string{fmt.Sprintf("gee:%s:fallback", result.ErrorType)})
	}

	evidence := append([]string{fmt.Sprintf("gee:%s", it.GEESubIntent)}, extraEvidence...)
	errType := core.ErrorType(result.ErrorType)
	return &DispatchResult{
		ServiceUsed:    ServiceUsedGEE,
		Analysis:       result,
		Evidence:       evidence,
		Success:        result.Success,
		Error:          result.Error,
		ErrorType:      errType,
		ProcessingTime: time.Since(start),
	}
}

func (d *Dispatcher) dispatchRAG(ctx context.Context, query, sessionID string, it *intent.IntentResult, loc *location.LocationParseResult, start time.Time) *DispatchResult {
	resp, err := rag.Ask(ctx, d.rag, query, sessionID)
	if err != nil {
		return d.dispatchSearch(ctx, it, loc, start, []string{"rag:fallback"})
	}
	return &DispatchResult{
		ServiceUsed:    ServiceUsedRAG,
		RAGAnalysis:    resp.Analysis,
		RAGSources:     resp.Sources,
		RAGConfidence:  resp.Confidence,
		Evidence:       []string{"rag_service:ok"},
		Success:        true,
		ProcessingTime: time.Since(start),
	}
}

func (d *Dispatcher) dispatchSearch(ctx context.Context, it *intent.IntentResult, loc *location.LocationParseResult, start time.Time, priorEvidence []string) *DispatchResult {
	locationName := "the requested area"
	if loc != nil && loc.PrimaryLocation != nil {
		locationName = loc.PrimaryLocation.DisplayName
	}

	result := d.synth.Synthesize(ctx, it.AnalysisType, locationName)

	evidence := append([]string{}, priorEvidence...)
	evidence = append(evidence, "search:tavily")

	errType := core.ErrorType("")
	if !result.Success {
		errType = core.ErrNoData
	}

	return &DispatchResult{
		ServiceUsed:    ServiceUsedSearch,
		Search:         result,
		Evidence:       evidence,
		Success:        result.Success,
		Error:          result.Error,
		ErrorType:      errType,
		ProcessingTime: time.Since(start),
	}
}

// areaTooLargeResult implements _create_area_too_large_response: a
// refusal naming the location, its area, the limit, and a smaller
// suggested scope, rather than attempting (and timing out on) the engine.
func (d *Dispatcher) areaTooLargeResult(loc *location.LocationParseResult, areaKM2 float64, start time.Time) *DispatchResult {
	locationName := "the requested area"
	if loc != nil && loc.PrimaryLocation != nil {
		locationName = loc.PrimaryLocation.DisplayName
	}

	msg := fmt.Sprintf(
		"🚫 %s covers %.0f km², which exceeds the %.0f km² analysis limit.\n"+
			"💡 Try a smaller, more specific location (about %.0f km² or less) — "+
			"for example a city or district within %s rather than the whole region.",
		locationName, areaKM2, d.maxROIKM2, areaLimitSuggestionKM2, locationName,
	)

	return &DispatchResult{
		ServiceUsed: ServiceUsedGEE,
		Analysis: &engine.AnalysisResult{
			ROIAreaKM2: areaKM2,
			Success:    false,
			Error:      msg,
			ErrorType:  engine.ErrAreaTooLarge,
			Metadata:   map[string]any{"limit_exceeded": true},
		},
		Evidence:       []string{"area_gate:rejected"},
		Success:        false,
		Error:          msg,
		ErrorType:      core.ErrAreaTooLarge,
		ProcessingTime: time.Since(start),
	}
}

// yearSpan extracts distinct start/end calendar years from an explicit
// time range; ok only when both dates parse and the end year is later.
func yearSpan(tr *intent.TimeRange) (int, int, bool) {
	if tr == nil {
		return 0, 0, false
	}
	start, err1 := time.Parse("2006-01-02", tr.Start)
	end, err2 := time.Parse("2006-01-02", tr.End)
	if err1 != nil || err2 != nil || end.Year() <= start.Year() {
		return 0, 0, false
	}
	return start.Year(), end.Year(), true
}

func geeIndicator(sub intent.GEESubIntent) engine.Indicator {
	switch sub {
	case intent.SubNDVI:
		return engine.IndicatorNDVI
	case intent.SubLST:
		return engine.IndicatorLST
	case intent.SubLULC:
		return engine.IndicatorLULC
	case intent.SubWater:
		return engine.IndicatorWater
	default:
		return engine.IndicatorNDVI
	}
}
