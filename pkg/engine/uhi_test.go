package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func samplesFor(class int, lst float64, n int) []LandcoverSample {
	samples := make([]LandcoverSample, n)
	for i := range samples {
		samples[i] = LandcoverSample{LST: lst, Class: class}
	}
	return samples
}

func TestComputeUHIDynamicWorldWins(t *testing.T) {
	// Dynamic-World-like urban=6 ("built"), rural=1 ("trees"), each with
	// enough pixels (>=3) to satisfy method 1's minimum, per spec §4.4.5.
	dw := append(samplesFor(6, 35, 4), samplesFor(1, 28, 4)...)
	res := ComputeUHI(dw, nil, nil, nil)
	require.Equal(t, UHIDynamicWorld, res.Method)
	require.InDelta(t, 7, res.IntensityC, 1e-9)
	require.Equal(t, 4, res.UrbanCount)
	require.Equal(t, 4, res.RuralCount)
}

func TestComputeUHIFallsThroughToModisWhenDynamicWorldInsufficient(t *testing.T) {
	dw := append(samplesFor(6, 35, 1), samplesFor(1, 28, 1)...) // below min 3
	modis := append(samplesFor(13, 34, 3), samplesFor(10, 29, 3)...)
	res := ComputeUHI(dw, modis, nil, nil)
	require.Equal(t, UHIModisLC, res.Method)
	require.InDelta(t, 5, res.IntensityC, 1e-9)
}

func TestComputeUHIFallsThroughToEsaWorldCover(t *testing.T) {
	esa := append(samplesFor(50, 36, 6), samplesFor(10, 30, 6)...)
	res := ComputeUHI(nil, nil, esa, nil)
	require.Equal(t, UHIEsaWorldCover, res.Method)
	require.InDelta(t, 6, res.IntensityC, 1e-9)
}

func TestComputeUHIStatisticalAlwaysSucceeds(t *testing.T) {
	lst := []float64{10, 15, 20, 25, 30, 35, 40}
	res := ComputeUHI(nil, nil, nil, lst)
	require.Equal(t, UHIStatistical, res.Method)
	require.GreaterOrEqual(t, res.IntensityC, 0.0)
}

func TestComputeUHIStatisticalOnEmptyFallsBackToErrorFallback(t *testing.T) {
	res := ComputeUHI(nil, nil, nil, nil)
	require.Equal(t, UHIErrorFallback, res.Method)
	require.Equal(t, 0.0, res.IntensityC)
}

func TestComputeUHINeverNegative(t *testing.T) {
	// Rural warmer than urban: intensity must clamp to 0, not go negative.
	dw := append(samplesFor(6, 20, 4), samplesFor(1, 30, 4)...)
	res := ComputeUHI(dw, nil, nil, nil)
	require.Equal(t, 0.0, res.IntensityC)
}

func TestPercentileMonotonic(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	p10 := percentile(sorted, 0.10)
	p90 := percentile(sorted, 0.90)
	require.Less(t, p10, p90)
}
