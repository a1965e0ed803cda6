package formatter

import (
	"testing"
	"time"

	"github.com/geoqa/geoqa/pkg/dispatcher"
	"github.com/geoqa/geoqa/pkg/engine"
	"github.com/geoqa/geoqa/pkg/intent"
	"github.com/geoqa/geoqa/pkg/location"
	"github.com/geoqa/geoqa/pkg/search"
	"github.com/stretchr/testify/require"
)

func TestFormatAddsHeaderWhenAnalysisHasNone(t *testing.T) {
	it := &intent.IntentResult{ServiceType: intent.ServiceGEE, GEESubIntent: intent.SubNDVI, AnalysisType: "ndvi", Confidence: 0.9, Success: true}
	loc := &location.LocationParseResult{
		Entities: []location.LocationEntity{{MatchedName: "Pune"}},
		Success:  true,
	}
	result := &dispatcher.DispatchResult{
		ServiceUsed: dispatcher.ServiceUsedGEE,
		Analysis: &engine.AnalysisResult{
			AnalysisType: "NDVI",
			ROIAreaKM2:   120,
			Success:      true,
			MapStats:     map[string]any{"NDVI_mean": 0.55},
		},
		Success:  true,
		Evidence: []string{"gee:NDVI"},
	}

	fr := Format("ndvi for Pune", it, loc, result, 2*time.Second)

	require.Contains(t, fr.Analysis, "🔍 Analysis Results")
	require.Contains(t, fr.Analysis, "Pune")
	require.Contains(t, fr.Summary, "NDVI")
	require.Contains(t, fr.Evidence, "gee:NDVI")
	require.True(t, fr.Success)
}

func TestFormatPassesThroughHeaderedAnalysis(t *testing.T) {
	it := &intent.IntentResult{ServiceType: intent.ServiceSearch, AnalysisType: "ndvi", Confidence: 0.7, Success: true}
	loc := &location.LocationParseResult{Success: true}
	result := &dispatcher.DispatchResult{
		ServiceUsed: dispatcher.ServiceUsedSearch,
		Success:     true,
		Search:      &search.SynthesisResult{AnalysisText: "📝 Web-search synthesis: NDVI\nsome body", Success: true},
	}

	fr := Format("q", it, loc, result, time.Second)
	require.Contains(t, fr.Analysis, "📝")
}

func TestBuildSummaryReportsErrorWhenUnsuccessful(t *testing.T) {
	it := &intent.IntentResult{AnalysisType: "ndvi"}
	result := &dispatcher.DispatchResult{Success: false, Error: "engine timed out"}
	s := buildSummary(it, result)
	require.Contains(t, s, "engine timed out")
}
