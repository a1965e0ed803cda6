package engine

import (
	"context"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/geo"
)

// ndviVegetationBuckets is the vegetation-class table behind the NDVI class
// percentages and grid-cell labels: bare or sparse below 0.2, stressed
// 0.2-0.4, moderate 0.4-0.6, healthy 0.6-0.8, dense above 0.8.
// pkg/formatter's NDVI summary uses its own four buckets (cuts at 0.2, 0.4
// and 0.6) with different names.
var ndviVegetationBuckets = []struct {
	name string
	max  float64
}{
	{"bare_or_sparse", 0.2},
	{"stressed", 0.4},
	{"moderate", 0.6},
	{"healthy", 0.8},
	{"dense", 1.01},
}

func ndviBucketFor(value float64) string {
	for _, b := range ndviVegetationBuckets {
		if value < b.max {
			return b.name
		}
	}
	return "dense"
}

type ndviTileResult struct {
	stats   ContinuousStats
	classes map[string]float64 // percentages, sum ~100
	areaKM2 float64
	tileID  string
}

// AnalyzeNDVI implements analyze_ndvi per spec §4.4: composite median NDVI
// (no [-1,1] clipping is applied in this package; see clipToNDVIRange),
// tiled reduction with area-weighted merge, plus
// vegetation-class percentages via point sampling (SPEC_FULL.md §4.4's
// richer IndicatorStats shape beyond the one worked NDVI_mean example).
func (e *Engine) AnalyzeNDVI(ctx context.Context, roi *geo.ROI, params Params) *AnalysisResult {
	reduceTile := func(ctx context.Context, img Image, tile geo.Tile) (any, error) {
		result, scale, err := reduceContinuous(ctx, img, boundsGeom(tile.Polygon), IndicatorNDVI, tile.AreaKM2)
		if err != nil {
			return nil, err
		}
		stats := extractContinuous(result, "NDVI")

		numPixels := clampInt(int(tile.AreaKM2*8), 500, 4000)
		classes := map[string]float64{}
		samples, sampleErr := img.Sample(ctx, boundsGeom(tile.Polygon), scale*2, numPixels, true)
		if sampleErr == nil && len(samples) > 0 {
			counts := map[string]float64{}
			for _, s := range samples {
				v, ok := s.Values["NDVI"]
				if !ok {
					continue
				}
				counts[ndviBucketFor(v)]++
			}
			total := float64(len(samples))
			for name, c := range counts {
				classes[name] = c / total * 100
			}
		} else {
			classes[ndviBucketFor(stats.Mean)] = 100
		}

		return ndviTileResult{stats: stats, classes: classes, areaKM2: tile.AreaKM2, tileID: tile.ID}, nil
	}

	mergeTiles := func(tileResultsAny []any, tiles geo.TileSet) (map[string]any, bool, error) {
		tileReductions := make([]TileReduction, len(tileResultsAny))
		for i, r := range tileResultsAny {
			tr, ok := r.(ndviTileResult)
			if !ok {
				return nil, false, core.NewError(core.ErrProcessing, "unexpected ndvi tile result type")
			}
			tileReductions[i] = TileReduction{
				TileID:     tr.tileID,
				AreaKM2:    tr.areaKM2,
				Continuous: map[string]ContinuousStats{"NDVI": tr.stats},
				ClassPct:   tr.classes,
			}
		}

		merged := MergeContinuous(tileReductions, "NDVI")
		classPct, normalized := MergeDiscrete(tileReductions)

		mapStats := map[string]any{
			"NDVI_mean":   merged.Mean,
			"NDVI_min":    merged.Min,
			"NDVI_max":    merged.Max,
			"NDVI_stdDev": merged.StdDev,
		}
		for class, pct := range classPct {
			mapStats[class+"_percent"] = pct
		}
		return mapStats, normalized, nil
	}

	vis := visParamsFor(IndicatorNDVI)
	return e.run(ctx, IndicatorNDVI, roi, NormalizeParams(IndicatorNDVI, params, referenceNow()), vis, reduceTile, mergeTiles)
}

func extractContinuous(result ReduceResult, band string) ContinuousStats {
	stats, ok := result[band]
	if !ok {
		return ContinuousStats{}
	}
	return ContinuousStats{
		Mean:   stats["mean"],
		Min:    stats["min"],
		Max:    stats["max"],
		StdDev: stats["stdDev"],
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
