package location

import (
	"context"
	"errors"
	"testing"

	"github.com/geoqa/geoqa/pkg/geo"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

var errTransport = errors.New("transport error")

type stubExtractor struct {
	entities []LocationEntity
	err      error
}

func (s *stubExtractor) Extract(ctx context.Context, query string) ([]LocationEntity, error) {
	return s.entities, s.err
}

type stubGeocoder struct {
	byName map[string]*ResolvedLocation
}

func (s *stubGeocoder) Geocode(ctx context.Context, matchedName, countryBias string) (*ResolvedLocation, error) {
	r, ok := s.byName[matchedName]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func locationAt(lat, lng, importance float64, name string) *ResolvedLocation {
	roi := geo.NewROI(geo.PointBuffer(orb.Point{lng, lat}, 5), name)
	return &ResolvedLocation{
		DisplayName: name,
		Center:      LatLng{Lng: lng, Lat: lat},
		Geometry:    roi,
		AreaKM2:     roi.AreaKM2,
		Importance:  importance,
	}
}

func TestParsePicksHighestConfidenceImportanceProduct(t *testing.T) {
	extractor := &stubExtractor{entities: []LocationEntity{
		{MatchedName: "Mumbai", Type: EntityCity, Confidence: 0.9},
		{MatchedName: "Maharashtra", Type: EntityState, Confidence: 0.95},
	}}
	geocoder := &stubGeocoder{byName: map[string]*ResolvedLocation{
		"Mumbai":      locationAt(19.076, 72.8777, 0.8, "Mumbai"),
		"Maharashtra": locationAt(19.75, 75.71, 0.6, "Maharashtra"),
	}}

	p := NewParser(extractor, geocoder, "")
	result := p.Parse(context.Background(), "NDVI for Mumbai in Maharashtra")

	require.True(t, result.Success)
	require.NotNil(t, result.PrimaryLocation)
	// Mumbai: 0.9*0.8=0.72, Maharashtra: 0.95*0.6=0.57 -> Mumbai wins
	require.Equal(t, "Mumbai", result.PrimaryLocation.DisplayName)
	require.Equal(t, ROISourceGeocoded, result.ROISource)
}

func TestParsePartialGeocodeFailureDoesNotFailStage(t *testing.T) {
	extractor := &stubExtractor{entities: []LocationEntity{
		{MatchedName: "Nowhereville", Type: EntityCity, Confidence: 0.9},
	}}
	geocoder := &stubGeocoder{byName: map[string]*ResolvedLocation{}}

	p := NewParser(extractor, geocoder, "")
	result := p.Parse(context.Background(), "NDVI for Nowhereville")

	require.True(t, result.Success)
	require.Nil(t, result.PrimaryLocation)
	require.Equal(t, ROISourceDefault, result.ROISource)
}

func TestParseFailsOnlyWhenNERFailedAndNoLiteralCoordinate(t *testing.T) {
	extractor := &stubExtractor{entities: nil, err: errTransport}
	geocoder := &stubGeocoder{byName: map[string]*ResolvedLocation{}}

	p := NewParser(extractor, geocoder, "")
	result := p.Parse(context.Background(), "asdkjaslkdj no place mentioned")

	require.False(t, result.Success)
	require.NotEmpty(t, result.Error)
}

func TestParseLiteralCoordinateRescuesNERFailure(t *testing.T) {
	extractor := &stubExtractor{entities: nil, err: errTransport}
	geocoder := &stubGeocoder{byName: map[string]*ResolvedLocation{}}

	p := NewParser(extractor, geocoder, "")
	result := p.Parse(context.Background(), "what is the NDVI at 19.0760, 72.8777")

	require.True(t, result.Success)
	require.NotNil(t, result.PrimaryLocation)
	require.InDelta(t, 19.0760, result.PrimaryLocation.Center.Lat, 1e-6)
	require.InDelta(t, 72.8777, result.PrimaryLocation.Center.Lng, 1e-6)
	require.Equal(t, ROISourceQueryCoordinate, result.ROISource)
}

func TestParseLiteralCoordinateRoundTripWithoutNERFailure(t *testing.T) {
	extractor := &stubExtractor{entities: nil}
	geocoder := &stubGeocoder{byName: map[string]*ResolvedLocation{}}

	p := NewParser(extractor, geocoder, "")
	result := p.Parse(context.Background(), "stats for 12.9716, 77.5946")

	require.True(t, result.Success)
	require.NotNil(t, result.PrimaryLocation)
	require.InDelta(t, 12.9716, result.PrimaryLocation.Center.Lat, 1e-6)
	require.InDelta(t, 77.5946, result.PrimaryLocation.Center.Lng, 1e-6)
}
