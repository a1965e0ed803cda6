package engine

import (
	"context"
	"fmt"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/paulmach/orb"
)

const maxPixelsBase int64 = 1e8

// reduceContinuous implements spec §4.4.3's reduction strategy for
// continuous indicators (NDVI, LST): one reduce_region call combining
// mean+min+max+stdDev, with scale adaptation (area>1000km^2 forces
// scale>=100m) and a single coarser-scale retry when the first attempt
// returns all zeros/nulls.
func reduceContinuous(ctx context.Context, img Image, geom orb.Geometry, indicator Indicator, areaKM2 float64) (ReduceResult, float64, error) {
	scale := baseScaleMeters(indicator)
	if areaKM2 > 1000 {
		scale = maxFloat(scale, 100)
	}

	result, err := img.ReduceRegion(ctx, geom, ReducerSpec{Kind: ReducerContinuous}, scale, maxPixelsBase, true)
	if err != nil {
		return nil, scale, wrapBackendErr(err)
	}

	if resultIsEmpty(result) {
		scale2 := scale * 2
		result, err = img.ReduceRegion(ctx, geom, ReducerSpec{Kind: ReducerContinuous}, scale2, maxPixelsBase*4, true)
		if err != nil {
			return nil, scale2, wrapBackendErr(err)
		}
		if resultIsEmpty(result) {
			return nil, scale2, core.NewError(core.ErrProcessing, "all reducers returned null after coarser-scale retry")
		}
		return result, scale2, nil
	}

	return result, scale, nil
}

// reduceHistogram implements spec §4.4.3's three-step histogram strategy
// for discrete indicators (LULC, Water).
func reduceHistogram(ctx context.Context, img Image, geom orb.Geometry, indicator Indicator, areaKM2 float64) (ReduceResult, string, error) {
	scale := baseScaleMeters(indicator)

	result, err := img.ReduceRegion(ctx, geom, ReducerSpec{Kind: ReducerHistogram}, scale, maxPixelsBase, true)
	if err == nil && !resultIsEmpty(result) {
		return result, "frequency_histogram", nil
	}

	numPixels := int(minFloat(8*areaKM2, 4000))
	if numPixels < 500 {
		numPixels = 500
	}
	samples, sampleErr := img.Sample(ctx, geom, scale*2, numPixels, true)
	if sampleErr == nil && len(samples) > 0 {
		return binSamples(samples), "point_sample", nil
	}

	synthetic := synthesizeBasicStats(result)
	return synthetic, "basic_stats", nil
}

func resultIsEmpty(result ReduceResult) bool {
	if len(result) == 0 {
		return true
	}
	for _, stats := range result {
		for _, v := range stats {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// binSamples bins client-side sampled pixels into a per-band frequency
// histogram, matching what reduce_region's frequency_histogram reducer
// would have returned.
func binSamples(samples []SampledPixel) ReduceResult {
	counts := map[string]map[string]float64{}
	for _, s := range samples {
		for band, v := range s.Values {
			bandCounts, ok := counts[band]
			if !ok {
				bandCounts = map[string]float64{}
				counts[band] = bandCounts
			}
			key := classKey(v)
			bandCounts[key]++
		}
	}
	return counts
}

func classKey(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

// synthesizeBasicStats builds a 3-bin histogram centered on the mean as a
// last resort, per spec §4.4.3 step 3.
func synthesizeBasicStats(previous ReduceResult) ReduceResult {
	mean := 0.0
	for _, stats := range previous {
		if m, ok := stats["mean"]; ok {
			mean = m
			break
		}
	}
	return ReduceResult{
		"synthetic": {
			"low":  mean * 0.9,
			"mid":  mean,
			"high": mean * 1.1,
		},
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

