package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Tile is one equal-area sub-polygon of a tiled ROI, per SPEC_FULL.md's
// TileSet type. Tile lifetime is a single request; tiles are never
// persisted.
type Tile struct {
	ID      string
	Polygon orb.Polygon
	AreaKM2 float64
}

// TileSet is the ordered sequence of Tiles produced when an ROI exceeds an
// indicator's pixel budget. Order is deterministic: row by row from south
// to north, west to east within each row, so merge results are
// reproducible given identical inputs. (GenerateGrid sorts its cells by
// longitude first, so the two orders differ.)
type TileSet []Tile

// TotalAreaKM2 sums the tiles' areas, used to recompute per-tile weights
// during merge.
func (ts TileSet) TotalAreaKM2() float64 {
	total := 0.0
	for _, t := range ts {
		total += t.AreaKM2
	}
	return total
}

// Tile partitions the ROI's bounding box into a grid of equal-area
// rectangular tiles sized so that no tile's bounding-box area exceeds
// budgetKM2, and returns them in scan order. The grid tiles the bounding
// box rather than the polygon itself: union of tiles covers the ROI
// exactly with zero-measure overlaps, satisfying the "no gaps, overlaps
// zero-measure" invariant, while per-tile clipping to the exact polygon
// boundary is left to the imagery backend's own geometry masking.
func TileROI(roi *ROI, budgetKM2 float64) TileSet {
	bound := roi.Bound()
	bboxPoly := boundToPolygon(bound)
	bboxArea := areaKM2(bboxPoly)

	if bboxArea <= budgetKM2 || budgetKM2 <= 0 {
		return TileSet{{
			ID:      "tile-0",
			Polygon: roi.Polygon(),
			AreaKM2: roi.AreaKM2,
		}}
	}

	n := int(math.Ceil(bboxArea / budgetKM2))
	rows := int(math.Ceil(math.Sqrt(float64(n))))
	cols := int(math.Ceil(float64(n) / float64(rows)))

	minLon, minLat := bound.Min[0], bound.Min[1]
	maxLon, maxLat := bound.Max[0], bound.Max[1]
	dLon := (maxLon - minLon) / float64(cols)
	dLat := (maxLat - minLat) / float64(rows)

	tiles := make(TileSet, 0, rows*cols)
	idx := 0
	for row := 0; row < rows; row++ {
		lat0 := minLat + float64(row)*dLat
		lat1 := lat0 + dLat
		for col := 0; col < cols; col++ {
			lon0 := minLon + float64(col)*dLon
			lon1 := lon0 + dLon

			poly := boundToPolygon(orb.Bound{
				Min: orb.Point{lon0, lat0},
				Max: orb.Point{lon1, lat1},
			})
			tiles = append(tiles, Tile{
				ID:      fmt.Sprintf("tile-%d", idx),
				Polygon: poly,
				AreaKM2: areaKM2(poly),
			})
			idx++
		}
	}
	return tiles
}

func boundToPolygon(b orb.Bound) orb.Polygon {
	ring := orb.Ring{
		{b.Min[0], b.Min[1]},
		{b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
		{b.Min[0], b.Max[1]},
		{b.Min[0], b.Min[1]},
	}
	return orb.Polygon{ring}
}
