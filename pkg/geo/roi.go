package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ROI is the region of interest passed between the location parser,
// dispatcher, and engine: a GeoJSON Feature whose geometry is a Polygon,
// MultiPolygon, or Point, carrying its own computed area. Mirrors
// SPEC_FULL.md's ROI type exactly.
type ROI struct {
	Geometry orb.Geometry
	AreaKM2  float64
	Name     string
}

// NewROI computes the area of geom and wraps it as an ROI.
func NewROI(geom orb.Geometry, name string) *ROI {
	return &ROI{
		Geometry: geom,
		AreaKM2:  AreaKM2(geom),
		Name:     name,
	}
}

// Polygon returns the single polygon the engine reduces over, dissolving
// a MultiPolygon or boxing a Point as needed.
func (r *ROI) Polygon() orb.Polygon {
	return AsPolygon(r.Geometry)
}

// ToFeature renders the ROI as a GeoJSON Feature per SPEC_FULL.md's ROI
// type: geometry plus properties.area_km2 and properties.name.
func (r *ROI) ToFeature() *geojson.Feature {
	f := geojson.NewFeature(r.Geometry)
	f.Properties = geojson.Properties{
		"area_km2": r.AreaKM2,
		"name":     r.Name,
	}
	return f
}

// ROIFromFeature parses a GeoJSON Feature into an ROI, recomputing the area
// rather than trusting a possibly-stale properties.area_km2.
func ROIFromFeature(f *geojson.Feature) (*ROI, error) {
	if f == nil || f.Geometry == nil {
		return nil, fmt.Errorf("geo: feature has no geometry")
	}

	switch f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Point:
	default:
		return nil, fmt.Errorf("geo: unsupported ROI geometry type %T", f.Geometry)
	}

	name := f.Properties.MustString("name")
	return NewROI(f.Geometry, name), nil
}

// ROIFromGeoJSON parses a raw GeoJSON Feature document.
func ROIFromGeoJSON(data []byte) (*ROI, error) {
	f, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return nil, fmt.Errorf("geo: parse geojson: %w", err)
	}
	return ROIFromFeature(f)
}

// Bound returns the geometry's bounding box, used to build a Sentinel-like
// collection filter and to seed the equirectangular grid in generate_grid.
func (r *ROI) Bound() orb.Bound {
	return r.Geometry.Bound()
}
