package location

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/geoqa/geoqa/pkg/cache"
)

func nominatimServer(t *testing.T, results []nominatimResult) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(results)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNominatimGeocoderPicksHighestImportanceTieBrokenBySmallerArea(t *testing.T) {
	results := []nominatimResult{
		{PlaceID: "1", DisplayName: "Big Mumbai", Lat: "19.0760", Lon: "72.8777", Importance: 0.8,
			BoundingBox: []string{"18.0", "20.0", "72.0", "74.0"}},
		{PlaceID: "2", DisplayName: "Small Mumbai", Lat: "19.0760", Lon: "72.8777", Importance: 0.8,
			BoundingBox: []string{"18.9", "19.2", "72.7", "73.0"}},
	}
	srv := nominatimServer(t, results)

	g := NewNominatimGeocoder(srv.URL, 35000, srv.Client())
	loc, err := g.Geocode(context.Background(), "Mumbai", "")
	require.NoError(t, err)
	require.NotNil(t, loc)
	require.Equal(t, "Small Mumbai", loc.DisplayName)
}

func TestNominatimGeocoderRejectsOversizedGeometry(t *testing.T) {
	results := []nominatimResult{
		{PlaceID: "1", DisplayName: "Too Big", Lat: "20.0", Lon: "78.0", Importance: 0.9,
			BoundingBox: []string{"0", "40", "60", "100"}},
	}
	srv := nominatimServer(t, results)

	g := NewNominatimGeocoder(srv.URL, 100, srv.Client())
	loc, err := g.Geocode(context.Background(), "Too Big", "")
	require.NoError(t, err)
	require.Nil(t, loc)
}

func TestNominatimGeocoderNoResults(t *testing.T) {
	srv := nominatimServer(t, nil)

	g := NewNominatimGeocoder(srv.URL, 35000, srv.Client())
	loc, err := g.Geocode(context.Background(), "Nowhere", "")
	require.NoError(t, err)
	require.Nil(t, loc)
}

func TestNominatimGeocoderWithExternalCachePopulatesAndServesOnMiss(t *testing.T) {
	ctx := context.Background()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	redisCache := cache.NewRedisCacheFromClient(rdb, "geocode-test")
	t.Cleanup(func() { _ = redisCache.Close() })

	calls := 0
	results := []nominatimResult{
		{PlaceID: "1", DisplayName: "Delhi", Lat: "28.6139", Lon: "77.2090", Importance: 0.7,
			BoundingBox: []string{"28.0", "29.0", "76.0", "78.0"}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(results)
	}))
	t.Cleanup(srv.Close)

	g1 := NewNominatimGeocoder(srv.URL, 35000, srv.Client()).WithExternalCache(redisCache)
	loc1, err := g1.Geocode(ctx, "Delhi", "")
	require.NoError(t, err)
	require.NotNil(t, loc1)
	require.Equal(t, 1, calls)

	// A fresh geocoder instance (distinct in-process LRU) should find the
	// result in the Redis second tier without another outbound call.
	g2 := NewNominatimGeocoder(srv.URL, 35000, srv.Client()).WithExternalCache(redisCache)
	loc2, err := g2.Geocode(ctx, "Delhi", "")
	require.NoError(t, err)
	require.NotNil(t, loc2)
	require.Equal(t, 1, calls, "second geocoder should be served from the external cache, not a new HTTP call")
	require.Equal(t, loc1.DisplayName, loc2.DisplayName)
}
