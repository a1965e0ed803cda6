// Package engine implements AnalysisEngine: per-indicator composite
// construction, ROI tiling/reduction/merge, UHI computation, grid and point
// sampling, and the per-request state machine described in SPEC_FULL.md
// §4.4. The actual satellite-imagery API is explicitly out of scope (spec
// §1 Non-goals: "not the satellite API itself") — ImageryBackend is the
// abstract collaborator interface from spec §6, mirroring GEE's chained
// ee.Image/ee.ImageCollection API without depending on any concrete
// provider SDK.
package engine

import (
	"context"

	"github.com/paulmach/orb"
)

// ReducerKind enumerates the statistic groups the backend can combine in a
// single reduce_region call, per spec §4.4.3.
type ReducerKind string

const (
	ReducerContinuous ReducerKind = "mean_min_max_stddev"
	ReducerHistogram  ReducerKind = "frequency_histogram"
)

// ReducerSpec describes one reduce_region call.
type ReducerSpec struct {
	Kind ReducerKind
}

// VisParams is the visualization spec passed to get_map_id (palette, value
// range), per spec §4.4.6.
type VisParams struct {
	Bands   []string
	Min     float64
	Max     float64
	Palette []string
}

// MapID is the backend's tile-serving handle, turned into a urlFormat
// string by the caller.
type MapID struct {
	ID    string
	Token string
}

// SampledPixel is one pixel returned by Image.Sample.
type SampledPixel struct {
	Lng, Lat float64
	Values   map[string]float64
}

// ReduceResult is the decoded output of one reduce_region call: band name
// to statistic name to value (e.g. ReduceResult["NDVI"]["mean"]).
type ReduceResult map[string]map[string]float64

// Image mirrors the chainable subset of spec §6's ImageryBackend operation
// list (filter_date, filter_bounds, filter_property, map, median, mode,
// clip, reduce_region, get_map_id, sample). Every method that doesn't
// return a new Image is a suspension point per spec §5.
type Image interface {
	FilterDate(start, end string) Image
	FilterBounds(geom orb.Geometry) Image
	FilterProperty(key string, value any) Image
	Map(fn func(Image) Image) Image
	Median() Image
	Mode() Image
	Clip(geom orb.Geometry) Image

	ReduceRegion(ctx context.Context, geomInput orb.Geometry, reducer ReducerSpec, scale float64, maxPixels int64, bestEffort bool) (ReduceResult, error)
	GetMapID(ctx context.Context, vis VisParams) (MapID, error)
	Sample(ctx context.Context, geomInput orb.Geometry, scale float64, numPixels int, dropNulls bool) ([]SampledPixel, error)
}

// ImageryBackend loads named collections/images by asset id, per spec §6.
// Client authentication (service-account or user credentials from
// IMAGERY_CREDENTIALS_JSON/IMAGERY_CREDENTIALS_PATH) happens once at
// construction, not per call — matching the §5 "credentials cache loaded
// once at startup, immutable afterwards" resource model.
type ImageryBackend interface {
	LoadCollection(ctx context.Context, assetID string) (Image, error)
}
