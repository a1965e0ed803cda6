package engine

import (
	"context"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/geo"
)

type lulcTileResult struct {
	classPct map[string]float64 // class name -> percentage, sums ~100
	method   string
	areaKM2  float64
	tileID   string
}

// AnalyzeLULC implements analyze_lulc per spec §4.4: Dynamic-World-like
// mode composite, the three-step histogram strategy (§4.4.3), and
// area-weighted class-percentage merging across tiles (§4.4.4).
func (e *Engine) AnalyzeLULC(ctx context.Context, roi *geo.ROI, params Params) *AnalysisResult {
	reduceTile := func(ctx context.Context, img Image, tile geo.Tile) (any, error) {
		histogram, method, err := reduceHistogram(ctx, img, boundsGeom(tile.Polygon), IndicatorLULC, tile.AreaKM2)
		if err != nil {
			return nil, err
		}

		counts := histogramCounts(histogram)
		total := 0.0
		for _, c := range counts {
			total += c
		}
		classPct := map[string]float64{}
		if total > 0 {
			for classKeyStr, c := range counts {
				name := lulcClassNameFromKey(classKeyStr, method)
				classPct[name] += c / total * 100
			}
		}
		return lulcTileResult{classPct: classPct, method: method, areaKM2: tile.AreaKM2, tileID: tile.ID}, nil
	}

	var lastMethod string
	mergeTiles := func(tileResultsAny []any, tiles geo.TileSet) (map[string]any, bool, error) {
		tileReductions := make([]TileReduction, len(tileResultsAny))
		for i, r := range tileResultsAny {
			tr, ok := r.(lulcTileResult)
			if !ok {
				return nil, false, core.NewError(core.ErrProcessing, "unexpected lulc tile result type")
			}
			tileReductions[i] = TileReduction{TileID: tr.tileID, AreaKM2: tr.areaKM2, ClassPct: tr.classPct}
			lastMethod = tr.method
		}

		classPct, normalized := MergeDiscrete(tileReductions)
		totalArea := tiles.TotalAreaKM2()

		classAreas := map[string]float64{}
		dominant := ""
		dominantPct := -1.0
		for name, pct := range classPct {
			classAreas[name] = pct / 100 * totalArea
			if pct > dominantPct {
				dominant = name
				dominantPct = pct
			}
		}

		mapStats := map[string]any{
			"class_percentages": classPct,
			"class_areas_km2":   classAreas,
			"dominant_class":    dominant,
		}
		return mapStats, normalized, nil
	}

	vis := visParamsFor(IndicatorLULC)
	result := e.run(ctx, IndicatorLULC, roi, NormalizeParams(IndicatorLULC, params, referenceNow()), vis, reduceTile, mergeTiles)
	if result.Success && lastMethod != "" && lastMethod != "frequency_histogram" {
		result.Metadata["histogram_method"] = lastMethod
	}
	return result
}

// histogramCounts flattens a ReduceResult keyed by an arbitrary band name
// (reduceHistogram uses whatever band the backend/sample emits) into a
// single classKey -> count map, since LULC has exactly one meaningful band.
func histogramCounts(result ReduceResult) map[string]float64 {
	for _, counts := range result {
		return counts
	}
	return nil
}

func lulcClassNameFromKey(key, method string) string {
	if method == "basic_stats" {
		return key
	}
	code := 0
	for _, r := range key {
		if r < '0' || r > '9' {
			return key
		}
		code = code*10 + int(r-'0')
	}
	return lulcClassName(code)
}
