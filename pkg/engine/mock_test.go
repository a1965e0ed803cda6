package engine

import (
	"context"

	"github.com/paulmach/orb"
)

// mockImage is a minimal chainable Image stub: every chain method returns
// itself unchanged, and ReduceRegion/Sample/GetMapID delegate to injected
// closures so each test can script exactly the backend response it needs.
type mockImage struct {
	reduceFn func(ctx context.Context, geom orb.Geometry, reducer ReducerSpec, scale float64, maxPixels int64, bestEffort bool) (ReduceResult, error)
	sampleFn func(ctx context.Context, geom orb.Geometry, scale float64, numPixels int, dropNulls bool) ([]SampledPixel, error)
	mapIDFn  func(ctx context.Context, vis VisParams) (MapID, error)

	reduceCalls int
}

func (m *mockImage) FilterDate(start, end string) Image             { return m }
func (m *mockImage) FilterBounds(geom orb.Geometry) Image           { return m }
func (m *mockImage) FilterProperty(key string, value any) Image     { return m }
func (m *mockImage) Map(fn func(Image) Image) Image                 { return m }
func (m *mockImage) Median() Image                                  { return m }
func (m *mockImage) Mode() Image                                    { return m }
func (m *mockImage) Clip(geom orb.Geometry) Image                   { return m }

func (m *mockImage) ReduceRegion(ctx context.Context, geom orb.Geometry, reducer ReducerSpec, scale float64, maxPixels int64, bestEffort bool) (ReduceResult, error) {
	m.reduceCalls++
	if m.reduceFn != nil {
		return m.reduceFn(ctx, geom, reducer, scale, maxPixels, bestEffort)
	}
	return ReduceResult{}, nil
}

func (m *mockImage) GetMapID(ctx context.Context, vis VisParams) (MapID, error) {
	if m.mapIDFn != nil {
		return m.mapIDFn(ctx, vis)
	}
	return MapID{ID: "mock-map-id"}, nil
}

func (m *mockImage) Sample(ctx context.Context, geom orb.Geometry, scale float64, numPixels int, dropNulls bool) ([]SampledPixel, error) {
	if m.sampleFn != nil {
		return m.sampleFn(ctx, geom, scale, numPixels, dropNulls)
	}
	return nil, nil
}

// mockBackend hands back a fixed Image (or error) for every LoadCollection
// call, regardless of asset id, matching how these tests treat the engine's
// composite-construction step as already-scripted rather than re-deriving
// per-asset branching.
type mockBackend struct {
	img Image
	err error
}

func (b mockBackend) LoadCollection(ctx context.Context, assetID string) (Image, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.img, nil
}

func continuousResult(band string, mean, min, max, stdDev float64) ReduceResult {
	return ReduceResult{
		band: {"mean": mean, "min": min, "max": max, "stdDev": stdDev},
	}
}

func histogramResult(counts map[string]float64) ReduceResult {
	return ReduceResult{"class": counts}
}
