package engine

import (
	"context"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/geo"
)

// uhiSampleCount is the per-tile pixel budget for the classification
// samples feeding ComputeUHI; small enough to stay cheap, large enough to
// clear every cascade method's minimum-pixel-count requirement (§4.4.5's
// strictest is 5 pixels per class, ESA-WorldCover-like).
const uhiSampleCount = 400

type lstTileResult struct {
	stats      ContinuousStats
	lstValues  []float64
	dwSamples  []LandcoverSample
	modisSamples []LandcoverSample
	esaSamples []LandcoverSample
	areaKM2    float64
	tileID     string
}

// AnalyzeLST implements analyze_lst per spec §4.4: MODIS-like 8-day
// composite (no DN->Celsius conversion is applied in this package; see
// convertLSTKelvinToCelsius), tiled continuous reduction, and the
// four-method UHI cascade (§4.4.5) computed once over the merged ROI's
// pooled samples.
func (e *Engine) AnalyzeLST(ctx context.Context, roi *geo.ROI, params Params) *AnalysisResult {
	reduceTile := func(ctx context.Context, img Image, tile geo.Tile) (any, error) {
		result, _, err := reduceContinuous(ctx, img, boundsGeom(tile.Polygon), IndicatorLST, tile.AreaKM2)
		if err != nil {
			return nil, err
		}
		stats := extractContinuous(result, "LST")

		samples, sampleErr := img.Sample(ctx, boundsGeom(tile.Polygon), baseScaleMeters(IndicatorLST), uhiSampleCount, true)
		tr := lstTileResult{stats: stats, areaKM2: tile.AreaKM2, tileID: tile.ID}
		if sampleErr == nil {
			for _, s := range samples {
				lst, ok := s.Values["LST"]
				if !ok {
					continue
				}
				tr.lstValues = append(tr.lstValues, lst)
				if cls, ok := s.Values["dw_class"]; ok {
					tr.dwSamples = append(tr.dwSamples, LandcoverSample{LST: lst, Class: int(cls)})
				}
				if cls, ok := s.Values["modis_class"]; ok {
					tr.modisSamples = append(tr.modisSamples, LandcoverSample{LST: lst, Class: int(cls)})
				}
				if cls, ok := s.Values["esa_class"]; ok {
					tr.esaSamples = append(tr.esaSamples, LandcoverSample{LST: lst, Class: int(cls)})
				}
			}
		}
		return tr, nil
	}

	mergeTiles := func(tileResultsAny []any, tiles geo.TileSet) (map[string]any, bool, error) {
		tileReductions := make([]TileReduction, len(tileResultsAny))
		var allLST []float64
		var allDW, allModis, allESA []LandcoverSample

		for i, r := range tileResultsAny {
			tr, ok := r.(lstTileResult)
			if !ok {
				return nil, false, core.NewError(core.ErrProcessing, "unexpected lst tile result type")
			}
			tileReductions[i] = TileReduction{
				TileID:     tr.tileID,
				AreaKM2:    tr.areaKM2,
				Continuous: map[string]ContinuousStats{"LST": tr.stats},
			}
			allLST = append(allLST, tr.lstValues...)
			allDW = append(allDW, tr.dwSamples...)
			allModis = append(allModis, tr.modisSamples...)
			allESA = append(allESA, tr.esaSamples...)
		}

		merged := MergeContinuous(tileReductions, "LST")
		uhi := ComputeUHI(allDW, allModis, allESA, allLST)

		mapStats := map[string]any{
			"LST_mean":   merged.Mean,
			"LST_min":    merged.Min,
			"LST_max":    merged.Max,
			"LST_stdDev": merged.StdDev,
		}
		if uhi.Method != "" {
			mapStats["uhi_intensity"] = uhi.IntensityC
			mapStats["uhi_details"] = map[string]any{
				"method":      string(uhi.Method),
				"urban_pixels": uhi.UrbanCount,
				"rural_pixels": uhi.RuralCount,
			}
		}
		return mapStats, false, nil
	}

	vis := visParamsFor(IndicatorLST)
	return e.run(ctx, IndicatorLST, roi, NormalizeParams(IndicatorLST, params, referenceNow()), vis, reduceTile, mergeTiles)
}
