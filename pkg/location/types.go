// Package location implements LocationParser: NER over the query plus
// parallel geocoding of the resulting entities, merged into a primary ROI.
// Grounded on osmmcp's pkg/tools/geocode.go for the Nominatim client shape
// (LRU cache, singleflight dedup, retry-factory HTTP) and on
// aurel42-phileasgo's geo package for geometry handling.
package location

import (
	"time"

	"github.com/geoqa/geoqa/pkg/geo"
)

// EntityType enumerates the kinds of place mentions NER can recognize.
type EntityType string

const (
	EntityCity     EntityType = "city"
	EntityState    EntityType = "state"
	EntityDistrict EntityType = "district"
	EntityCountry  EntityType = "country"
	EntityPoint    EntityType = "point"
	EntityOther    EntityType = "other"
)

// LocationEntity is a raw place mention extracted from the query.
type LocationEntity struct {
	MatchedName string     `json:"matched_name"`
	Type        EntityType `json:"type"`
	Confidence  float64    `json:"confidence"`
}

// LatLng is a geographic point in (lng, lat) order, matching the spec's
// ResolvedLocation.center field.
type LatLng struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// ResolvedLocation is the geocoder's output for one entity. Owned by the
// geocoder, consumed by the dispatcher, never mutated after creation.
type ResolvedLocation struct {
	DisplayName string   `json:"display_name"`
	Center      LatLng   `json:"center"`
	Geometry    *geo.ROI `json:"-"`
	AreaKM2     float64  `json:"area_km2"`
	Importance  float64  `json:"importance"`
	PlaceID     string   `json:"place_id"`

	// Entity links this resolution back to the entity that produced it, so
	// the orchestrator can compute ner_confidence * geocoder_importance.
	Entity LocationEntity `json:"-"`
}

// ROISource records how roi_geometry in LocationParseResult was obtained.
type ROISource string

const (
	ROISourceGeocoded        ROISource = "geocoded"
	ROISourceQueryCoordinate ROISource = "query_coordinates"
	ROISourceDefault         ROISource = "default"
)

// LocationParseResult is LocationParser's output, per SPEC_FULL.md §3.
type LocationParseResult struct {
	Entities          []LocationEntity    `json:"entities"`
	ResolvedLocations []*ResolvedLocation `json:"resolved_locations"`
	PrimaryLocation   *ResolvedLocation   `json:"primary_location"`
	ROIGeometry       *geo.ROI            `json:"-"`
	ROISource         ROISource           `json:"roi_source"`
	Success           bool                `json:"success"`
	ProcessingTime    time.Duration       `json:"processing_time"`
	Error             string              `json:"error,omitempty"`
}
