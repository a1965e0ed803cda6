package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractMetricsTemperature(t *testing.T) {
	metrics := ExtractMetrics("The surface temperature reached 38.5°C yesterday.", "https://nasa.gov/x")
	require.NotEmpty(t, metrics)
	found := false
	for _, m := range metrics {
		if m.Type == MetricTemperature {
			require.InDelta(t, 38.5, m.Value, 1e-9)
			found = true
		}
	}
	require.True(t, found)
}

func TestExtractMetricsTemperatureRangeUsesMidpoint(t *testing.T) {
	metrics := ExtractMetrics("Temperatures ranged from 20 to 30°C across the region.", "https://nasa.gov/x")
	found := false
	for _, m := range metrics {
		if m.Type == MetricTemperature && m.Value == 25 {
			found = true
		}
	}
	require.True(t, found)
}

func TestExtractMetricsRejectsOutOfBoundsTemperature(t *testing.T) {
	metrics := ExtractMetrics("A reading of 500°C was logged by a faulty sensor.", "https://nasa.gov/x")
	for _, m := range metrics {
		require.NotEqual(t, MetricTemperature, m.Type, "out-of-bounds temperature must be filtered per spec sanity bounds")
	}
}

func TestExtractMetricsNDVIWithinZeroOne(t *testing.T) {
	metrics := ExtractMetrics("NDVI: 0.65 across the sampled area.", "https://nasa.gov/x")
	found := false
	for _, m := range metrics {
		if m.Type == MetricNDVI {
			require.InDelta(t, 0.65, m.Value, 1e-9)
			found = true
		}
	}
	require.True(t, found)
}

func TestExtractMetricsNDVIOutOfRangeRejected(t *testing.T) {
	metrics := ExtractMetrics("NDVI: 1.5 was reported, which is implausible.", "https://nasa.gov/x")
	for _, m := range metrics {
		require.NotEqual(t, MetricNDVI, m.Type)
	}
}

func TestExtractMetricsArea(t *testing.T) {
	metrics := ExtractMetrics("The flooded region covers 1,200.5 km² this season.", "https://nasa.gov/x")
	found := false
	for _, m := range metrics {
		if m.Type == MetricArea {
			require.InDelta(t, 1200.5, m.Value, 1e-9)
			found = true
		}
	}
	require.True(t, found)
}

func TestExtractMetricsPercentageWithinZeroHundred(t *testing.T) {
	metrics := ExtractMetrics("Water coverage increased to 42% this year.", "https://nasa.gov/x")
	found := false
	for _, m := range metrics {
		if m.Type == MetricPercentage {
			require.InDelta(t, 42, m.Value, 1e-9)
			found = true
		}
	}
	require.True(t, found)
}

func TestExtractMetricsPopulationAppliesUnitMultiplier(t *testing.T) {
	metrics := ExtractMetrics("The city is home to 2.5 million people.", "https://census.gov/x")
	found := false
	for _, m := range metrics {
		if m.Type == MetricPopulation {
			require.InDelta(t, 2.5e6, m.Value, 1)
			found = true
		}
	}
	require.True(t, found)
}

func TestExtractMetricsCoordinatesAppliesHemisphereSign(t *testing.T) {
	metrics := ExtractMetrics("Located at 28.6° N, 77.2° E near Delhi.", "https://nasa.gov/x")
	found := false
	for _, m := range metrics {
		if m.Type == MetricCoordinate {
			require.InDelta(t, 28.6, m.Value, 1e-9)
			found = true
		}
	}
	require.True(t, found)
}

func TestExtractMetricsCoordinatesSouthWestAreNegative(t *testing.T) {
	metrics := ExtractMetrics("Located at 15.0° S, 47.0° W in Brazil.", "https://nasa.gov/x")
	found := false
	for _, m := range metrics {
		if m.Type == MetricCoordinate {
			require.InDelta(t, -15.0, m.Value, 1e-9)
			found = true
		}
	}
	require.True(t, found)
}

func TestExtractMetricsNoMatchesReturnsEmpty(t *testing.T) {
	metrics := ExtractMetrics("No quantitative data here at all.", "https://example.com")
	require.Empty(t, metrics)
}
