package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeContinuousSingleTilePassthrough(t *testing.T) {
	tiles := []TileReduction{
		{TileID: "tile-0", AreaKM2: 100, Continuous: map[string]ContinuousStats{
			"NDVI": {Mean: 0.5, Min: 0.1, Max: 0.9, StdDev: 0.2},
		}},
	}
	merged := MergeContinuous(tiles, "NDVI")
	require.Equal(t, 0.5, merged.Mean)
	require.Equal(t, 0.1, merged.Min)
	require.Equal(t, 0.9, merged.Max)
	require.Equal(t, 0.2, merged.StdDev)
}

func TestMergeContinuousWeightedMeanAndPooledVariance(t *testing.T) {
	// Two equal-area tiles with means 0.2 and 0.6, stdDev 0 each (constant
	// per-tile values): the area-weighted mean is 0.4, and the pooled
	// variance collapses to the between-tile variance term alone, per
	// spec §4.4.4 / §8 item 3.
	tiles := []TileReduction{
		{TileID: "tile-0", AreaKM2: 50, Continuous: map[string]ContinuousStats{
			"NDVI": {Mean: 0.2, Min: 0.2, Max: 0.2, StdDev: 0},
		}},
		{TileID: "tile-1", AreaKM2: 50, Continuous: map[string]ContinuousStats{
			"NDVI": {Mean: 0.6, Min: 0.6, Max: 0.6, StdDev: 0},
		}},
	}
	merged := MergeContinuous(tiles, "NDVI")
	require.InDelta(t, 0.4, merged.Mean, 1e-9)
	require.Equal(t, 0.2, merged.Min)
	require.Equal(t, 0.6, merged.Max)

	wantVariance := 0.5*(0.2-0.4)*(0.2-0.4) + 0.5*(0.6-0.4)*(0.6-0.4)
	require.InDelta(t, math.Sqrt(wantVariance), merged.StdDev, 1e-9)
}

func TestMergeContinuousUnequalWeights(t *testing.T) {
	// 75%/25% area split; the weighted mean must favor the larger tile.
	tiles := []TileReduction{
		{TileID: "tile-0", AreaKM2: 75, Continuous: map[string]ContinuousStats{
			"LST": {Mean: 30, Min: 25, Max: 35, StdDev: 1},
		}},
		{TileID: "tile-1", AreaKM2: 25, Continuous: map[string]ContinuousStats{
			"LST": {Mean: 40, Min: 38, Max: 45, StdDev: 2},
		}},
	}
	merged := MergeContinuous(tiles, "LST")
	wantMean := 0.75*30 + 0.25*40
	require.InDelta(t, wantMean, merged.Mean, 1e-9)
	require.Equal(t, 25.0, merged.Min)
	require.Equal(t, 45.0, merged.Max)

	wantVariance := 0.75*1*1 + 0.75*(30-wantMean)*(30-wantMean) +
		0.25*2*2 + 0.25*(40-wantMean)*(40-wantMean)
	require.InDelta(t, math.Sqrt(wantVariance), merged.StdDev, 1e-9)
}

func TestMergeContinuousEmptyTiles(t *testing.T) {
	merged := MergeContinuous(nil, "NDVI")
	require.Equal(t, MergedContinuous{}, merged)
}

func TestMergeDiscreteWithinToleranceNoRenormalize(t *testing.T) {
	tiles := []TileReduction{
		{TileID: "tile-0", AreaKM2: 50, ClassPct: map[string]float64{"water": 40, "non_water": 60}},
		{TileID: "tile-1", AreaKM2: 50, ClassPct: map[string]float64{"water": 20, "non_water": 80}},
	}
	merged, normalized := MergeDiscrete(tiles)
	require.False(t, normalized)
	require.InDelta(t, 30, merged["water"], 1e-9)
	require.InDelta(t, 70, merged["non_water"], 1e-9)

	sum := 0.0
	for _, v := range merged {
		sum += v
	}
	require.InDelta(t, 100, sum, 0.5)
}

func TestMergeDiscreteRenormalizesWhenDrifted(t *testing.T) {
	// Per-tile percentages that sum to 90 (simulating a lossy per-tile
	// histogram); the merge must renormalize to exactly 100 and flag it.
	tiles := []TileReduction{
		{TileID: "tile-0", AreaKM2: 100, ClassPct: map[string]float64{"built": 45, "trees": 45}},
	}
	merged, normalized := MergeDiscrete(tiles)
	require.True(t, normalized)
	sum := 0.0
	for _, v := range merged {
		sum += v
	}
	require.InDelta(t, 100, sum, 1e-9)
	require.InDelta(t, 50, merged["built"], 1e-9)
	require.InDelta(t, 50, merged["trees"], 1e-9)
}

func TestMergeDiscreteEmptyTiles(t *testing.T) {
	merged, normalized := MergeDiscrete(nil)
	require.Nil(t, merged)
	require.False(t, normalized)
}

func TestMergeDiscreteZeroTotalArea(t *testing.T) {
	tiles := []TileReduction{{TileID: "tile-0", AreaKM2: 0, ClassPct: map[string]float64{"water": 100}}}
	merged, normalized := MergeDiscrete(tiles)
	require.Nil(t, merged)
	require.False(t, normalized)
}
