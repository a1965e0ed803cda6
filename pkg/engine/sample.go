package engine

import (
	"context"
	"time"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/geo"
	"github.com/geoqa/geoqa/pkg/monitoring"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

// generateGridDeadline bounds one generate_grid call, per spec §4.4.7.
const generateGridDeadline = 30 * time.Second

// maxConcurrentCells bounds generate_grid's per-cell fan-out, matching the
// tile-reduction concurrency budget.
const maxConcurrentCells = 8

// SamplePointResult is the output of sample_at_point, per spec §4.4.8.
type SamplePointResult struct {
	Value      float64 `json:"value"`
	BufferM    float64 `json:"buffer_meters"`
	Confidence string  `json:"confidence"`
	Assumed    bool    `json:"assumed,omitempty"`
	Method     string  `json:"method,omitempty"`
}

// SampleAtPoint implements sample_at_point per spec §4.4.8: buffer the point
// by max(scale/2, sampleFloorMeters(indicator)) and reduce over that small
// disk. Water uses the documented three-tier buffer fallback (0m exact pixel,
// then 60m, then 120m) before falling back to a max-extent presence probe and
// finally an "assumed land" low-confidence answer when the dataset has no
// coverage at all near the point.
func (e *Engine) SampleAtPoint(ctx context.Context, indicator Indicator, lng, lat float64, params Params) (*SamplePointResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	params = NormalizeParams(indicator, params, referenceNow())
	point := orb.Point{lng, lat}

	img, _, err := buildComposite(ctx, e.backend, indicator, roiForPoint(point), params)
	if err != nil {
		return nil, err
	}

	if indicator == IndicatorWater {
		return sampleWaterAtPoint(ctx, img, point, params)
	}

	floor := sampleFloorMeters(indicator)
	scale := baseScaleMeters(indicator)
	bufferM := floor
	if scale/2 > bufferM {
		bufferM = scale / 2
	}

	geom := geo.PointBuffer(point, bufferM/1000.0)
	result, err := img.ReduceRegion(ctx, orb.Geometry(geom), ReducerSpec{Kind: ReducerContinuous}, scale, maxPixelsBase, true)
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	value := firstMean(result)

	return &SamplePointResult{Value: value, BufferM: bufferM, Confidence: "high"}, nil
}

// sampleWaterAtPoint implements the three-tier buffer fallback: 0m (the
// single covering pixel), 60m, 120m, then a max-extent presence probe before
// defaulting to "assumed land" at low confidence, per spec §4.4.8.
func sampleWaterAtPoint(ctx context.Context, img Image, point orb.Point, params Params) (*SamplePointResult, error) {
	tiers := []float64{0, 60, 120}
	for _, bufferM := range tiers {
		halfWidthKM := bufferM / 1000.0
		if halfWidthKM == 0 {
			halfWidthKM = 0.015 // one ~30m pixel's half-width, the native Water scale
		}
		geom := orb.Geometry(geo.PointBuffer(point, halfWidthKM))
		result, err := img.ReduceRegion(ctx, geom, ReducerSpec{Kind: ReducerContinuous}, baseScaleMeters(IndicatorWater), maxPixelsBase, true)
		if err == nil && !resultIsEmpty(result) {
			occurrence := firstMean(result)
			value := 0.0
			if occurrence >= params.WaterThreshold {
				value = 1.0
			}
			return &SamplePointResult{Value: value, BufferM: bufferM, Confidence: "high"}, nil
		}
	}

	// max_extent probe: reduce over a 5 km half-width box around the point
	// to see whether the dataset has any coverage nearby, independent of
	// the tight buffers above.
	wideGeom := orb.Geometry(geo.PointBuffer(point, 5.0))
	if result, err := img.ReduceRegion(ctx, wideGeom, ReducerSpec{Kind: ReducerContinuous}, baseScaleMeters(IndicatorWater), maxPixelsBase, true); err == nil && !resultIsEmpty(result) {
		occurrence := firstMean(result)
		value := 0.0
		if occurrence >= params.WaterThreshold {
			value = 1.0
		}
		return &SamplePointResult{Value: value, BufferM: 5000, Confidence: "low", Method: "max_extent_probe"}, nil
	}

	return &SamplePointResult{Value: 0, BufferM: 0, Confidence: "low", Assumed: true, Method: "assumed_land"}, nil
}

// GridCellResult is one cell's reduction in a generate_grid response, per
// spec §4.4.7: the four reduce_region statistics plus an indicator-specific
// classification label (vegetation bucket for NDVI, thermal bucket for LST,
// dominant class for LULC/Water).
type GridCellResult struct {
	CellID     string  `json:"cell_id"`
	Value      float64 `json:"value"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	StdDev     float64 `json:"std_dev"`
	ClassLabel string  `json:"class_label"`
	AreaKM2    float64 `json:"area_km2"`
}

// GenerateGrid implements generate_grid per spec §4.4.7: overlay an
// equirectangular grid at cellKM resolution, reduce the requested indicator
// over each cell in parallel bounded by maxConcurrentCells, and return the
// cells with valid data once every cell has been reduced within
// generateGridDeadline. A deadline exceeded
// mid-fan-out discards the incomplete batch rather than returning a partial
// grid silently mixed with a timeout error.
func (e *Engine) GenerateGrid(ctx context.Context, indicator Indicator, roi *geo.ROI, cellKM float64, params Params) ([]GridCellResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, generateGridDeadline)
	defer cancel()

	params = NormalizeParams(indicator, params, referenceNow())
	img, _, err := buildComposite(ctx, e.backend, indicator, roi.Geometry, params)
	if err != nil {
		return nil, err
	}

	cells := geo.GenerateGrid(roi, cellKM)
	if len(cells) == 0 {
		return nil, core.NewError(core.ErrValidation, "grid cell size produced no cells for this ROI")
	}

	cellResults := make([]*GridCellResult, len(cells))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCells)

	discrete := indicator == IndicatorLULC || indicator == IndicatorWater
	for i, cell := range cells {
		i, cell := i, cell
		g.Go(func() error {
			reducer := ReducerSpec{Kind: ReducerContinuous}
			if discrete {
				reducer = ReducerSpec{Kind: ReducerHistogram}
			}
			result, err := img.ReduceRegion(gctx, orb.Geometry(cell.Polygon), reducer, baseScaleMeters(indicator), maxPixelsBase, true)
			if err != nil {
				return wrapBackendErr(err)
			}
			if resultIsEmpty(result) {
				// A cell with no valid data is skipped, per spec §4.4.7.
				return nil
			}

			cr := &GridCellResult{CellID: cell.CellID, AreaKM2: geo.AreaKM2(cell.Polygon)}
			if discrete {
				cr.Value, cr.ClassLabel = dominantClass(result, indicator)
			} else {
				stats := extractContinuous(result, string(indicator))
				cr.Value, cr.Min, cr.Max, cr.StdDev = stats.Mean, stats.Min, stats.Max, stats.StdDev
				cr.ClassLabel = continuousClassLabel(indicator, stats.Mean)
			}
			cellResults[i] = cr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			monitoring.RecordStageRequest("engine.generate_grid", time.Since(start), false)
			return nil, core.NewError(core.ErrTimeout, "generate_grid deadline exceeded")
		}
		return nil, err
	}

	results := make([]GridCellResult, 0, len(cellResults))
	for _, cr := range cellResults {
		if cr != nil {
			results = append(results, *cr)
		}
	}

	monitoring.RecordStageRequest("engine.generate_grid", time.Since(start), true)
	return results, nil
}

// continuousClassLabel buckets a cell's mean value into the same
// indicator-specific categories used elsewhere in the package: vegetation
// health for NDVI (ndviBucketFor), thermal intensity for LST.
func continuousClassLabel(indicator Indicator, mean float64) string {
	switch indicator {
	case IndicatorNDVI:
		return ndviBucketFor(mean)
	case IndicatorLST:
		return lstBucketFor(mean)
	default:
		return ""
	}
}

// lstBucketFor mirrors pkg/formatter's surface-temperature thermal bands
// (hot/warm/moderate/cool), so a grid cell's label matches the same
// language a user-facing summary would use for the same value.
func lstBucketFor(mean float64) string {
	switch {
	case mean > 40:
		return "hot"
	case mean > 30:
		return "warm"
	case mean > 20:
		return "moderate"
	default:
		return "cool"
	}
}

// dominantClass picks the highest-count key out of a histogram
// ReduceResult and returns its share of the cell (0-1) plus its name,
// mirroring lulcClassNameFromKey/the water binary classification used by
// analyze_lulc/analyze_water.
func dominantClass(result ReduceResult, indicator Indicator) (float64, string) {
	counts := histogramCounts(result)
	total := 0.0
	domKey := ""
	domCount := -1.0
	for key, c := range counts {
		total += c
		if c > domCount {
			domCount = c
			domKey = key
		}
	}
	if total <= 0 || domKey == "" {
		return 0, ""
	}

	share := domCount / total
	if indicator == IndicatorWater {
		if domKey == "1" {
			return share, "water"
		}
		return share, "non_water"
	}
	return share, lulcClassNameFromKey(domKey, "frequency_histogram")
}

func firstMean(result ReduceResult) float64 {
	for _, stats := range result {
		if m, ok := stats["mean"]; ok {
			return m
		}
	}
	return 0
}

// roiForPoint synthesizes a minimal ROI geometry around a single point for
// buildComposite's FilterBounds call; sample_at_point has no polygon ROI of
// its own, per spec §4.4.8.
func roiForPoint(p orb.Point) orb.Geometry {
	return orb.Geometry(geo.PointBuffer(p, 1.0))
}
