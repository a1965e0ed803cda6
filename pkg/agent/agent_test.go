package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/geoqa/geoqa/pkg/dispatcher"
	"github.com/geoqa/geoqa/pkg/intent"
	"github.com/geoqa/geoqa/pkg/location"
	"github.com/geoqa/geoqa/pkg/rag"
	"github.com/geoqa/geoqa/pkg/search"
	"github.com/stretchr/testify/require"
)

var errProviderUnavailable = errors.New("llm provider unavailable")

type emptyExtractor struct{}

func (emptyExtractor) Extract(ctx context.Context, query string) ([]location.LocationEntity, error) {
	return nil, nil
}

type emptyGeocoder struct{}

func (emptyGeocoder) Geocode(ctx context.Context, matchedName, countryBias string) (*location.ResolvedLocation, error) {
	return nil, nil
}

type emptyBackend struct{}

func (emptyBackend) Search(ctx context.Context, query string, maxResults int, includeDomains, excludeDomains []string, depth search.SearchDepth) ([]search.Result, error) {
	return nil, nil
}

// oneResultBackend always returns a single hit so search synthesis succeeds.
type oneResultBackend struct{}

func (oneResultBackend) Search(ctx context.Context, query string, maxResults int, includeDomains, excludeDomains []string, depth search.SearchDepth) ([]search.Result, error) {
	return []search.Result{{
		URL:     "https://www.nasa.gov/report",
		Title:   "2024 vegetation survey",
		Content: "NDVI averaged 0.55 across the sampled region.",
	}}, nil
}

// failingProvider always fails GenerateJSON/GenerateText, forcing the
// intent classifier down its keyword-fallback path deterministically.
type failingProvider struct{}

func (failingProvider) GenerateText(ctx context.Context, profile, prompt string) (string, error) {
	return "", errProviderUnavailable
}

func (failingProvider) GenerateJSON(ctx context.Context, profile, prompt string, target any) error {
	return errProviderUnavailable
}

func (failingProvider) HealthCheck(ctx context.Context) error {
	return errProviderUnavailable
}

func TestProcessQueryRejectsEmptyQuery(t *testing.T) {
	locParser := location.NewParser(emptyExtractor{}, emptyGeocoder{}, "")
	intentClassifier := intent.NewClassifier(nil, "", "")
	disp := dispatcher.New(nil, rag.Unavailable{}, search.NewSynthesizer(emptyBackend{}), 35000, true)

	a := New(locParser, intentClassifier, disp, nil)
	result := a.ProcessQuery(context.Background(), "   ")

	require.False(t, result.Success)
}

func TestProcessQueryFallsBackToSearchWhenGEEDisabled(t *testing.T) {
	locParser := location.NewParser(emptyExtractor{}, emptyGeocoder{}, "")
	intentClassifier := intent.NewClassifier(failingProvider{}, "", "")
	disp := dispatcher.New(nil, rag.Unavailable{}, search.NewSynthesizer(oneResultBackend{}), 35000, true)

	a := New(locParser, intentClassifier, disp, nil)
	result := a.ProcessQuery(context.Background(), "What is the NDVI trend in Pune this year?")

	require.True(t, result.Success)
	require.NotEmpty(t, result.Summary)
}
