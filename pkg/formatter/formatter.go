package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/geoqa/geoqa/pkg/dispatcher"
	"github.com/geoqa/geoqa/pkg/intent"
	"github.com/geoqa/geoqa/pkg/location"
)

// Format assembles the final agent contract from every stage's output, per
// spec §4.6. It never shortens the evidence trail a stage already built; it
// only appends its own markers and timing lines.
func Format(query string, it *intent.IntentResult, loc *location.LocationParseResult, result *dispatcher.DispatchResult, totalProcessingTime time.Duration) *FormattedResult {
	analysis := analysisTextFor(result)
	analysis = enhanceAnalysis(analysis, query, it, loc, totalProcessingTime)

	summary := buildSummary(it, result)
	roi := formatROI(result, loc)
	evidence := buildEvidence(it, loc, result)
	confidence := blendConfidence(it, result)

	fr := &FormattedResult{
		Analysis:       analysis,
		Summary:        summary,
		ROI:            roi,
		Evidence:       evidence,
		Confidence:     confidence,
		Success:        result.Success,
		Error:          result.Error,
		ErrorType:      string(result.ErrorType),
		ProcessingTime: totalProcessingTime,
		Metadata: map[string]any{
			"query":             query,
			"service_type":      string(it.ServiceType),
			"analysis_type":     it.AnalysisType,
			"locations_found":   len(loc.Entities),
			"processing_time":   totalProcessingTime.Seconds(),
			"intent_confidence": it.Confidence,
			"success":           result.Success,
		},
	}
	if result.ServiceUsed == dispatcher.ServiceUsedRAG {
		fr.Sources = result.RAGSources
	} else if result.ServiceUsed == dispatcher.ServiceUsedSearch && result.Search != nil {
		fr.Sources = result.Search.Sources
	}
	return fr
}

func analysisTextFor(result *dispatcher.DispatchResult) string {
	switch result.ServiceUsed {
	case dispatcher.ServiceUsedGEE:
		if result.Analysis != nil {
			if result.Analysis.Error != "" && !result.Analysis.Success {
				return result.Analysis.Error
			}
			return fmt.Sprintf("GEE analysis completed for %s over %.0f km².", result.Analysis.AnalysisType, result.Analysis.ROIAreaKM2)
		}
	case dispatcher.ServiceUsedRAG:
		return result.RAGAnalysis
	case dispatcher.ServiceUsedSearch:
		if result.Search != nil {
			return result.Search.AnalysisText
		}
	}
	return "Analysis completed"
}

// enhanceAnalysis implements _enhance_analysis: if the text already carries
// one of the emoji headers, it passes through untouched; otherwise a
// standard header naming the query, locations, service, and timing is
// prepended.
func enhanceAnalysis(analysis, query string, it *intent.IntentResult, loc *location.LocationParseResult, processingTime time.Duration) string {
	if hasHeader(analysis) {
		return analysis
	}

	var b strings.Builder
	b.WriteString("🔍 Analysis Results\n")
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n")
	fmt.Fprintf(&b, "📝 Query: %s\n", query)

	if len(loc.Entities) > 0 {
		names := make([]string, len(loc.Entities))
		for i, e := range loc.Entities {
			names[i] = e.MatchedName
		}
		fmt.Fprintf(&b, "📍 Locations: %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(&b, "🔧 Service: %s", it.ServiceType)
	if it.GEESubIntent != "" {
		fmt.Fprintf(&b, " → %s", it.GEESubIntent)
	}
	fmt.Fprintf(&b, " (confidence: %.2f)\n", it.Confidence)
	fmt.Fprintf(&b, "⏱️ Processing time: %.1fs\n\n", processingTime.Seconds())

	b.WriteString(analysis)
	return b.String()
}

func hasHeader(analysis string) bool {
	for _, prefix := range []string{"🌍", "🌿", "🌡️", "📝", "🚫", "📚"} {
		if strings.HasPrefix(analysis, prefix) {
			return true
		}
	}
	return false
}

// formatROI passes through the engine's own ROI representation when one
// exists, else synthesizes one from the primary resolved location, per
// _format_roi.
func formatROI(result *dispatcher.DispatchResult, loc *location.LocationParseResult) map[string]any {
	if result.Analysis != nil && result.Analysis.Success {
		roi := map[string]any{
			"type": "Feature",
			"properties": map[string]any{
				"area_km2": result.Analysis.ROIAreaKM2,
			},
		}
		if loc != nil && loc.PrimaryLocation != nil {
			roi["properties"].(map[string]any)["name"] = loc.PrimaryLocation.DisplayName
			if loc.ROIGeometry != nil {
				roi["geometry"] = loc.ROIGeometry.ToFeature().Geometry
			}
		}
		return roi
	}

	if loc == nil || loc.PrimaryLocation == nil || loc.ROIGeometry == nil {
		return nil
	}

	return map[string]any{
		"type": "Feature",
		"properties": map[string]any{
			"name":     fmt.Sprintf("Analysis ROI - %s", loc.PrimaryLocation.DisplayName),
			"area_km2": loc.PrimaryLocation.AreaKM2,
			"source":   string(loc.ROISource),
			"center":   loc.PrimaryLocation.Center,
		},
		"geometry": loc.ROIGeometry.ToFeature().Geometry,
	}
}

// buildEvidence implements _build_evidence: location and intent markers
// first, then every marker the dispatcher already accumulated (never
// shortened), then processing-time markers.
func buildEvidence(it *intent.IntentResult, loc *location.LocationParseResult, result *dispatcher.DispatchResult) []string {
	var evidence []string

	if loc.Success {
		if len(loc.Entities) > 0 {
			evidence = append(evidence, fmt.Sprintf("location_parser:found_%d_entities", len(loc.Entities)))
			if len(loc.ResolvedLocations) > 0 {
				evidence = append(evidence, fmt.Sprintf("location_parser:resolved_%d_locations", len(loc.ResolvedLocations)))
			}
		} else {
			evidence = append(evidence, "location_parser:no_entities_found")
		}
	} else {
		evidence = append(evidence, "location_parser:failed")
	}

	if it.Success {
		evidence = append(evidence, fmt.Sprintf("intent_classifier:%s_selected", strings.ToLower(string(it.ServiceType))))
		if it.GEESubIntent != "" {
			evidence = append(evidence, fmt.Sprintf("intent_classifier:%s_subintent", strings.ToLower(string(it.GEESubIntent))))
		}
	} else {
		evidence = append(evidence, "intent_classifier:failed")
	}

	evidence = append(evidence, result.Evidence...)

	if it.ProcessingTime > 0 {
		evidence = append(evidence, fmt.Sprintf("intent_processing_time_%.1fs", it.ProcessingTime.Seconds()))
	}
	if loc.ProcessingTime > 0 {
		evidence = append(evidence, fmt.Sprintf("location_processing_time_%.1fs", loc.ProcessingTime.Seconds()))
	}

	return evidence
}

// blendConfidence implements spec §4.6: if the downstream service reports
// its own confidence, use it; otherwise blend intent confidence with
// search data quality.
func blendConfidence(it *intent.IntentResult, result *dispatcher.DispatchResult) float64 {
	switch result.ServiceUsed {
	case dispatcher.ServiceUsedRAG:
		return result.RAGConfidence
	case dispatcher.ServiceUsedSearch:
		if result.Search != nil {
			blended := 0.5*it.Confidence + 0.5*result.Search.Quality.Overall
			if blended > 1 {
				return 1
			}
			return blended
		}
	}
	return it.Confidence
}
