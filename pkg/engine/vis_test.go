package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVisParamsForEveryIndicator(t *testing.T) {
	for _, ind := range []Indicator{IndicatorNDVI, IndicatorLST, IndicatorLULC, IndicatorWater} {
		vis := visParamsFor(ind)
		require.NotEmpty(t, vis.Bands)
		require.NotEmpty(t, vis.Palette)
	}
}

func TestLULCClassNameKnownCodes(t *testing.T) {
	require.Equal(t, "water", lulcClassName(0))
	require.Equal(t, "built", lulcClassName(6))
	require.Equal(t, "snow_and_ice", lulcClassName(8))
}

func TestLULCClassNameOutOfRange(t *testing.T) {
	require.Equal(t, "unknown", lulcClassName(-1))
	require.Equal(t, "unknown", lulcClassName(9))
}

func TestLULCClassNameFromKeyBasicStatsPassesThroughRawKey(t *testing.T) {
	require.Equal(t, "synthetic", lulcClassNameFromKey("synthetic", "basic_stats"))
}

func TestLULCClassNameFromKeyNumericLooksUpName(t *testing.T) {
	require.Equal(t, "crops", lulcClassNameFromKey("4", "frequency_histogram"))
}
