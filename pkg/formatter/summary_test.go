package formatter

import (
	"testing"

	"github.com/geoqa/geoqa/pkg/dispatcher"
	"github.com/geoqa/geoqa/pkg/engine"
	"github.com/geoqa/geoqa/pkg/intent"
	"github.com/stretchr/testify/require"
)

func geeResult(analysisType string, stats map[string]any) (*intent.IntentResult, *dispatcher.DispatchResult) {
	it := &intent.IntentResult{AnalysisType: analysisType}
	result := &dispatcher.DispatchResult{
		ServiceUsed: dispatcher.ServiceUsedGEE,
		Success:     true,
		Analysis:    &engine.AnalysisResult{Success: true, MapStats: stats},
	}
	return it, result
}

func TestBuildSummaryNDVIBuckets(t *testing.T) {
	cases := []struct {
		mean float64
		want string
	}{
		{0.8, "excellent vegetation health"},
		{0.5, "good vegetation health"},
		{0.3, "moderate vegetation health"},
		{0.1, "sparse or stressed vegetation"},
	}
	for _, c := range cases {
		it, result := geeResult("ndvi", map[string]any{"NDVI_mean": c.mean})
		s := buildSummary(it, result)
		require.Contains(t, s, c.want)
	}
}

func TestBuildSummaryWaterBuckets(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{80, "extensive water coverage"},
		{30, "Moderate water coverage"},
		{5, "Low water coverage"},
	}
	for _, c := range cases {
		it, result := geeResult("water", map[string]any{"water_percentage": c.pct})
		s := buildSummary(it, result)
		require.Contains(t, s, c.want)
	}
}

func TestBuildSummaryLULCNamesDominantClass(t *testing.T) {
	it, result := geeResult("lulc", map[string]any{"dominant_class": "built"})
	s := buildSummary(it, result)
	require.Contains(t, s, "built")
}

func TestBuildSummaryLSTUHIBuckets(t *testing.T) {
	it, result := geeResult("lst", map[string]any{"LST_mean": 35.0, "uhi_intensity": 6.0})
	s := buildSummary(it, result)
	require.Contains(t, s, "warm")
	require.Contains(t, s, "significant urban heat island")
}

func TestBuildSummaryLSTWithoutUHI(t *testing.T) {
	it, result := geeResult("lst", map[string]any{"LST_mean": 15.0})
	s := buildSummary(it, result)
	require.Contains(t, s, "cool")
	require.NotContains(t, s, "heat island")
}

func TestBuildSummaryMissingStatsFallsBackToGenericMessage(t *testing.T) {
	it, result := geeResult("ndvi", map[string]any{})
	s := buildSummary(it, result)
	require.Contains(t, s, "NDVI")
}

func TestBuildSummaryNonGEEServiceUsesGenericSummary(t *testing.T) {
	it := &intent.IntentResult{AnalysisType: "general"}
	result := &dispatcher.DispatchResult{ServiceUsed: dispatcher.ServiceUsedSearch, Success: true}
	s := buildSummary(it, result)
	require.Contains(t, s, "General analysis was completed successfully.")
}
