// Package geo provides the region-of-interest geometry, tiling, and grid
// sampling primitives used by the analysis engine. Geometry representation
// and GeoJSON (de)serialization are grounded on aurel42-phileasgo's
// pkg/geo/feature.go (orb.Point, orb/geojson.Feature, Bound().Contains);
// area and tiling math is hand-rolled against the formulas SPEC_FULL.md
// defines explicitly rather than taken from a library, since those formulas
// are the thing under test (tile-merge correctness, area-gate correctness).
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// kmPerDegLat is constant across latitudes; kmPerDegLon varies with
// cos(latitude) and is computed per-use in areaKM2.
const kmPerDegLat = 111.32

// areaKM2 computes the area of a polygon using an equirectangular
// projection centered on the ring's mean latitude: lon is scaled by
// cos(meanLat)*kmPerDegLat, lat by kmPerDegLat, then the planar shoelace
// formula is applied. This keeps the area calculation auditable in plain
// trigonometry, which matters for the tile-merge and area-gate invariants
// that must reproduce to within 1e-6.
func areaKM2(poly orb.Polygon) float64 {
	if len(poly) == 0 {
		return 0
	}

	total := ringAreaKM2(poly[0])
	for _, hole := range poly[1:] {
		total -= ringAreaKM2(hole)
	}
	if total < 0 {
		total = -total
	}
	return total
}

func ringAreaKM2(ring orb.Ring) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}

	meanLat := 0.0
	for _, p := range ring {
		meanLat += p[1]
	}
	meanLat /= float64(n)
	kmPerDegLon := kmPerDegLat * math.Cos(meanLat*math.Pi/180.0)

	area := 0.0
	for i := 0; i < n; i++ {
		p1 := ring[i]
		p2 := ring[(i+1)%n]
		x1, y1 := p1[0]*kmPerDegLon, p1[1]*kmPerDegLat
		x2, y2 := p2[0]*kmPerDegLon, p2[1]*kmPerDegLat
		area += x1*y2 - x2*y1
	}
	return area / 2.0
}

// AreaKM2 computes the area in square kilometers of any supported
// geometry: Polygon, MultiPolygon (sum of parts), or Point/MultiPoint (0).
func AreaKM2(geom orb.Geometry) float64 {
	switch g := geom.(type) {
	case orb.Polygon:
		return areaKM2(g)
	case orb.MultiPolygon:
		total := 0.0
		for _, p := range g {
			total += areaKM2(p)
		}
		return total
	default:
		return 0
	}
}

// Dissolve flattens a MultiPolygon to a single Polygon for reduction, per
// SPEC_FULL.md's ROI type: the engine only reduces a single polygon at a
// time. orb has no polygon-union primitive in the examples' dependency
// set, so dissolution here keeps the largest-area part by outer ring and
// discards the rest, which is a documented simplification (see DESIGN.md)
// rather than a true geometric union.
func Dissolve(mp orb.MultiPolygon) orb.Polygon {
	if len(mp) == 0 {
		return orb.Polygon{}
	}
	best := mp[0]
	bestArea := areaKM2(best)
	for _, p := range mp[1:] {
		if a := areaKM2(p); a > bestArea {
			best = p
			bestArea = a
		}
	}
	return best
}

// AsPolygon normalizes a geometry to the single Polygon the engine reduces
// over, dissolving MultiPolygons and boxing Points into a tiny square
// (spec: "if absent, synthesize from the primary resolved location").
func AsPolygon(geom orb.Geometry) orb.Polygon {
	switch g := geom.(type) {
	case orb.Polygon:
		return g
	case orb.MultiPolygon:
		return Dissolve(g)
	case orb.Point:
		return PointBuffer(g, 0.5)
	default:
		return orb.Polygon{}
	}
}

// PointBuffer boxes a point into a square polygon of the given half-width
// in kilometers, used when a query resolves to a point location with no
// administrative boundary (e.g. literal "lat, lng" coordinates).
func PointBuffer(p orb.Point, halfWidthKM float64) orb.Polygon {
	lat, lon := p[1], p[0]
	dLat := halfWidthKM / kmPerDegLat
	dLon := halfWidthKM / (kmPerDegLat * math.Cos(lat*math.Pi/180.0))

	ring := orb.Ring{
		{lon - dLon, lat - dLat},
		{lon + dLon, lat - dLat},
		{lon + dLon, lat + dLat},
		{lon - dLon, lat + dLat},
		{lon - dLon, lat - dLat},
	}
	return orb.Polygon{ring}
}
