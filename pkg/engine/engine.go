package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/geo"
	"github.com/geoqa/geoqa/pkg/monitoring"
	"github.com/geoqa/geoqa/pkg/tracing"
	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentTiles bounds the per-request tile-reduction fan-out, per
// spec §5 ("bounded fan-out; ≤N workers, N configurable").
const maxConcurrentTiles = 8

// Engine implements AnalysisEngine: one analyze_<indicator> operation per
// spec §4.4 indicator, plus sample_at_point and generate_grid. It holds a
// single ImageryBackend handle, constructed once at startup per spec §5's
// "credentials cache loaded once, immutable afterwards" resource model.
type Engine struct {
	backend  ImageryBackend
	deadline time.Duration
}

// NewEngine builds an Engine against backend, bounding every
// analyze_<indicator> call to deadline (spec's ENGINE_DEADLINE_SECS,
// defaulted to defaultEngineDeadline when zero).
func NewEngine(backend ImageryBackend, deadline time.Duration) *Engine {
	if deadline <= 0 {
		deadline = defaultEngineDeadline
	}
	return &Engine{backend: backend, deadline: deadline}
}

// run implements the per-request state machine from spec §4.4.9:
// INIT -> BUILD_COMPOSITE -> (TILED_LOOP | SINGLE_REDUCE) -> MERGE ->
// BUILD_TILES -> DONE, with failure transitions from any state to
// FAILED(error_type). It is shared by every indicator's Analyze method;
// indicator-specific reduction/merge/mapStats assembly is supplied by the
// caller as closures so this function owns only the state sequencing,
// timing, tiling, and tile-URL construction common to all four indicators.
type reduceTileFunc func(ctx context.Context, img Image, tile geo.Tile) (any, error)
type mergeTilesFunc func(tileResults []any, tiles geo.TileSet) (mapStats map[string]any, normalized bool, err error)

func (e *Engine) run(
	ctx context.Context,
	indicator Indicator,
	roi *geo.ROI,
	params Params,
	vis VisParams,
	reduceTile reduceTileFunc,
	mergeTiles mergeTilesFunc,
) *AnalysisResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("engine.analyze_%s", indicator))
	span.SetAttributes(
		attribute.String(tracing.AttrIndicator, string(indicator)),
		attribute.Float64(tracing.AttrAreaKM2, roi.AreaKM2),
	)
	defer span.End()

	result := &AnalysisResult{
		AnalysisType: string(indicator),
		ROIAreaKM2:   roi.AreaKM2,
		DatasetsUsed: []string{},
		Metadata:     map[string]any{},
	}

	// STATE: BUILD_COMPOSITE
	img, dataset, err := buildComposite(ctx, e.backend, indicator, roi.Geometry, params)
	if err != nil {
		if ctx.Err() != nil {
			return failResult(result, ErrTimeout, "engine deadline exceeded building composite", start)
		}
		return e.maybeWidenAndRetry(ctx, indicator, roi, params, vis, reduceTile, mergeTiles, err, start)
	}
	result.DatasetsUsed = append(result.DatasetsUsed, dataset)
	monitoring.RecordStageRequest("engine.build_composite", time.Since(start), true)

	budget := areaBudgetKM2(indicator)
	tiles := geo.TileROI(roi, budget)

	// STATE: TILED_LOOP | SINGLE_REDUCE
	tileResults, err := e.reduceAllTiles(ctx, img, tiles, reduceTile)
	if err != nil {
		if ctx.Err() != nil {
			return failResult(result, ErrTimeout, "engine deadline exceeded reducing tiles", start)
		}
		return failResult(result, classifyReduceErr(err), err.Error(), start)
	}

	// STATE: MERGE (skipped for the single-polygon path, per §4.4.9 — merge
	// on one tile is a passthrough, which mergeTiles implementations handle).
	mapStats, normalized, err := mergeTiles(tileResults, tiles)
	if err != nil {
		return failResult(result, ErrProcessing, err.Error(), start)
	}
	if normalized {
		result.Metadata["normalized"] = true
	}
	result.MapStats = mapStats

	if len(tiles) > 1 {
		result.GeometryType = GeometryTiledPolygon
		result.Metadata["tile_count"] = len(tiles)
		span.SetAttributes(attribute.Int(tracing.AttrTileCount, len(tiles)))
	} else {
		result.GeometryType = GeometrySinglePolygon
	}

	// STATE: BUILD_TILES (visualization map-id construction)
	mapID, err := img.GetMapID(ctx, vis)
	if err != nil {
		// Tile-URL construction failure does not fail the whole analysis;
		// the statistics are still valid. Recorded as a metadata note per
		// spec §4.4.6's "engine does not proxy tiles" scope — the urlFormat
		// is best-effort.
		result.Metadata["tile_url_error"] = err.Error()
	} else {
		result.URLFormat = tileURLFormat(mapID)
	}

	result.ProcessingTimeSecs = time.Since(start).Seconds()
	result.Success = true
	monitoring.RecordStageRequest(fmt.Sprintf("engine.analyze_%s", indicator), time.Since(start), true)
	return result
}

// maybeWidenAndRetry implements spec §4.4.10's no_data row: a collection
// empty for the requested date range is widened to +/-1 year exactly once
// before the stage fails.
func (e *Engine) maybeWidenAndRetry(
	ctx context.Context,
	indicator Indicator,
	roi *geo.ROI,
	params Params,
	vis VisParams,
	reduceTile reduceTileFunc,
	mergeTiles mergeTilesFunc,
	firstErr error,
	start time.Time,
) *AnalysisResult {
	ce, ok := firstErr.(*core.Error)
	if !ok || ce.Type != core.ErrNoData {
		return failResult(&AnalysisResult{AnalysisType: string(indicator), ROIAreaKM2: roi.AreaKM2}, ErrorType(errTypeOf(firstErr)), firstErr.Error(), start)
	}

	widened := widenDateRange(params)
	img, dataset, err := buildComposite(ctx, e.backend, indicator, roi.Geometry, widened)
	if err != nil {
		return failResult(&AnalysisResult{AnalysisType: string(indicator), ROIAreaKM2: roi.AreaKM2}, ErrNoData, "no imagery available even after widening the date window", start)
	}

	result := &AnalysisResult{
		AnalysisType: string(indicator),
		ROIAreaKM2:   roi.AreaKM2,
		DatasetsUsed: []string{dataset},
		Metadata:     map[string]any{"date_window_widened": true},
	}

	budget := areaBudgetKM2(indicator)
	tiles := geo.TileROI(roi, budget)
	tileResults, err := e.reduceAllTiles(ctx, img, tiles, reduceTile)
	if err != nil {
		return failResult(result, classifyReduceErr(err), err.Error(), start)
	}
	mapStats, normalized, err := mergeTiles(tileResults, tiles)
	if err != nil {
		return failResult(result, ErrProcessing, err.Error(), start)
	}
	if normalized {
		result.Metadata["normalized"] = true
	}
	result.MapStats = mapStats
	if len(tiles) > 1 {
		result.GeometryType = GeometryTiledPolygon
		result.Metadata["tile_count"] = len(tiles)
	} else {
		result.GeometryType = GeometrySinglePolygon
	}
	if mapID, err := img.GetMapID(ctx, vis); err == nil {
		result.URLFormat = tileURLFormat(mapID)
	}
	result.ProcessingTimeSecs = time.Since(start).Seconds()
	result.Success = true
	return result
}

// reduceAllTiles reduces every tile, in parallel bounded by
// maxConcurrentTiles, then reassembles results in tile_id order per spec
// §5's ordering guarantee (errgroup preserves slice index, not completion
// order).
func (e *Engine) reduceAllTiles(ctx context.Context, img Image, tiles geo.TileSet, reduceTile reduceTileFunc) ([]any, error) {
	results := make([]any, len(tiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTiles)

	for i, tile := range tiles {
		i, tile := i, tile
		g.Go(func() error {
			r, err := reduceTile(gctx, img, tile)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func failResult(result *AnalysisResult, errType ErrorType, message string, start time.Time) *AnalysisResult {
	result.Success = false
	result.ErrorType = errType
	result.Error = message
	result.ProcessingTimeSecs = time.Since(start).Seconds()
	monitoring.RecordStageRequest(fmt.Sprintf("engine.analyze_%s", result.AnalysisType), time.Since(start), false)
	return result
}

func classifyReduceErr(err error) ErrorType {
	if ce, ok := err.(*core.Error); ok {
		return ErrorType(ce.Type)
	}
	return ErrProcessing
}

func errTypeOf(err error) core.ErrorType {
	if ce, ok := err.(*core.Error); ok {
		return ce.Type
	}
	return core.ErrProcessing
}

// widenDateRange widens the requested window by one year on each side
// (start moved one year earlier, end one year later), per spec §4.4.10's
// no_data row.
func widenDateRange(p Params) Params {
	widened := p
	start, err1 := time.Parse("2006-01-02", p.DateStart)
	end, err2 := time.Parse("2006-01-02", p.DateEnd)
	if err1 != nil || err2 != nil {
		return widened
	}
	widened.DateStart = start.AddDate(-1, 0, 0).Format("2006-01-02")
	widened.DateEnd = end.AddDate(1, 0, 0).Format("2006-01-02")
	return widened
}

// tileURLFormat renders a {z}/{x}/{y} templated URL from a backend MapID,
// per spec §4.4.6. The engine never proxies tiles itself.
func tileURLFormat(id MapID) string {
	if id.Token != "" {
		return fmt.Sprintf("https://earthengine.googleapis.com/v1/%s/tiles/{z}/{x}/{y}?token=%s", id.ID, id.Token)
	}
	return fmt.Sprintf("https://earthengine.googleapis.com/v1/%s/tiles/{z}/{x}/{y}", id.ID)
}

// boundsGeom is a small helper so sample.go/indicator files can pass a
// tile's polygon where an orb.Geometry is expected.
func boundsGeom(p orb.Polygon) orb.Geometry { return p }
