package location

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/geo"
	"github.com/paulmach/orb"
)

// defaultGeocodeDeadline is the per-entity geocode timeout, per
// SPEC_FULL.md §4.1 ("parallel ... with a per-call deadline, default 8s").
const defaultGeocodeDeadline = 8 * time.Second

// Parser implements LocationParser: NER over the raw query, parallel
// geocoding of the resulting entities with a per-call deadline, and the
// ner_confidence * geocoder_importance merge into a primary location.
// Orchestration shape (parallel fan-out bounded by a WaitGroup, partial
// failure tolerated) is grounded on osmmcp's pkg/tools/geocode.go batch
// geocoding helper.
type Parser struct {
	extractor       EntityExtractor
	geocoder        Geocoder
	countryBias     string
	geocodeDeadline time.Duration
}

// NewParser builds a LocationParser. countryBias (e.g. "in") is passed to
// the geocoder on every call; pass "" to disable biasing.
func NewParser(extractor EntityExtractor, geocoder Geocoder, countryBias string) *Parser {
	return &Parser{
		extractor:       extractor,
		geocoder:        geocoder,
		countryBias:     countryBias,
		geocodeDeadline: defaultGeocodeDeadline,
	}
}

// Parse implements the full LocationParser orchestration described in
// SPEC_FULL.md §4.1.
func (p *Parser) Parse(ctx context.Context, query string) *LocationParseResult {
	start := time.Now()
	result := &LocationParseResult{
		Entities:          []LocationEntity{},
		ResolvedLocations: []*ResolvedLocation{},
		ROISource:         ROISourceDefault,
	}

	entities, nerErr := p.extractor.Extract(ctx, query)
	result.Entities = entities

	literalLoc := parseLiteralCoordinate(query)

	if nerErr != nil && literalLoc == nil {
		result.Success = false
		result.Error = nerErr.Error()
		result.ProcessingTime = time.Since(start)
		return result
	}

	resolved := p.geocodeAll(ctx, entities)
	result.ResolvedLocations = resolved

	primary := mergePrimary(resolved)
	if primary == nil && literalLoc != nil {
		primary = literalLoc
		result.ResolvedLocations = append(result.ResolvedLocations, literalLoc)
	}

	switch {
	case primary == nil:
		result.ROISource = ROISourceDefault
		result.ROIGeometry = nil
	case primary == literalLoc:
		result.ROISource = ROISourceQueryCoordinate
		result.ROIGeometry = primary.Geometry
	default:
		result.ROISource = ROISourceGeocoded
		result.ROIGeometry = primary.Geometry
	}

	result.PrimaryLocation = primary
	result.Success = true
	result.ProcessingTime = time.Since(start)
	return result
}

// geocodeAll resolves every entity in parallel, each bounded by
// geocodeDeadline. A single entity failing to geocode (error or no match)
// is dropped silently: partial success is the norm per §4.1.
func (p *Parser) geocodeAll(ctx context.Context, entities []LocationEntity) []*ResolvedLocation {
	if len(entities) == 0 {
		return nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*ResolvedLocation
	)

	for _, entity := range entities {
		entity := entity
		wg.Add(1)
		go func() {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, p.geocodeDeadline)
			defer cancel()

			resolved, err := p.geocoder.Geocode(callCtx, entity.MatchedName, p.countryBias)
			if err != nil || resolved == nil {
				return
			}
			resolved.Entity = entity

			mu.Lock()
			results = append(results, resolved)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// mergePrimary picks the resolved location maximizing
// ner_confidence * geocoder_importance, per §4.1.
func mergePrimary(resolved []*ResolvedLocation) *ResolvedLocation {
	var best *ResolvedLocation
	var bestScore float64
	for _, r := range resolved {
		score := r.Entity.Confidence * r.Importance
		if best == nil || score > bestScore {
			best = r
			bestScore = score
		}
	}
	return best
}

// parseLiteralCoordinate looks for a bare "lat, lng" pair within valid
// bounding-box range and, if found, synthesizes a ResolvedLocation centered
// exactly on it with a small point buffer as geometry. This satisfies the
// round-trip invariant: the resulting center matches the input to full
// float64 precision, not just within the geocoder's rounding.
func parseLiteralCoordinate(query string) *ResolvedLocation {
	match := literalCoordPattern.FindStringSubmatch(query)
	if match == nil {
		return nil
	}
	lat, err1 := strconv.ParseFloat(match[1], 64)
	lng, err2 := strconv.ParseFloat(match[2], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	if err := core.ValidateCoords(lat, lng); err != nil {
		return nil
	}

	point := orb.Point{lng, lat}
	roi := geo.NewROI(geo.PointBuffer(point, 0.5), "literal coordinate")

	return &ResolvedLocation{
		DisplayName: "literal coordinate",
		Center:      LatLng{Lng: lng, Lat: lat},
		Geometry:    roi,
		AreaKM2:     roi.AreaKM2,
		Importance:  1.0,
		Entity: LocationEntity{
			MatchedName: query,
			Type:        EntityPoint,
			Confidence:  1.0,
		},
	}
}
