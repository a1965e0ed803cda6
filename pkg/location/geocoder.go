package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/geoqa/geoqa/pkg/cache"
	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/geo"
	"github.com/paulmach/orb"
)

// Geocoder resolves a matched place name to at most one ResolvedLocation.
// Default semantics (NewNominatimGeocoder) pick the highest-importance
// result, breaking ties by smaller area, and reject geometries over
// maxAreaKM2 by returning (nil, nil) rather than an error.
type Geocoder interface {
	Geocode(ctx context.Context, matchedName, countryBias string) (*ResolvedLocation, error)
}

const (
	nominatimUserAgent = "geoqa-location-parser/1.0"
	geocodeCacheSize   = 512
	// externalCacheTTL bounds how long a geocode result is trusted in the
	// optional second-tier (Redis) cache before a place is re-resolved.
	externalCacheTTL = 24 * time.Hour
)

// NominatimGeocoder implements Geocoder against the Nominatim /search
// endpoint. Cache, singleflight, and retry-factory usage is grounded on
// osmmcp's pkg/tools/geocode.go, generalized from a fixed OSM-public
// endpoint to a configurable NOMINATIM_URL. An optional second-tier
// cache.Cache (e.g. cache.NewRedisCache) sits behind the in-process LRU so
// geocode results survive process restarts; it is consulted only on an
// in-memory miss and is best-effort (errors never fail a Geocode call).
type NominatimGeocoder struct {
	baseURL       string
	client        *http.Client
	maxAreaKM2    float64
	cache         *lru.Cache[string, []nominatimResult]
	requestGrp    singleflight.Group
	minImport     float64
	maxResults    int
	externalCache cache.Cache
	limiters      *core.Limiters
}

type nominatimResult struct {
	PlaceID     json.Number `json:"place_id"`
	DisplayName string      `json:"display_name"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	Importance  float64     `json:"importance"`
	BoundingBox []string    `json:"boundingbox"` // [south, north, west, east]
}

// NewNominatimGeocoder builds a geocoder against baseURL (default
// https://nominatim.openstreetmap.org) rejecting results whose area
// exceeds maxAreaKM2; zero or negative means no ceiling. The dispatcher
// owns the user-facing area gate, so callers keep this ceiling well above
// it (or unlimited): an oversized-but-resolvable location must reach the
// gate and produce the refusal naming it, not vanish here.
func NewNominatimGeocoder(baseURL string, maxAreaKM2 float64, client *http.Client) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if client == nil {
		client = core.DefaultClient
	}
	lruCache, _ := lru.New[string, []nominatimResult](geocodeCacheSize)
	return &NominatimGeocoder{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		client:     client,
		maxAreaKM2: maxAreaKM2,
		cache:      lruCache,
		minImport:  0.0,
		maxResults: 3,
	}
}

// WithExternalCache attaches a second-tier cache.Cache (typically a
// cache.RedisCache) that is consulted before any outbound Nominatim call
// and populated on every successful response, so geocode results survive
// restarts of this process.
func (g *NominatimGeocoder) WithExternalCache(c cache.Cache) *NominatimGeocoder {
	g.externalCache = c
	return g
}

// WithLimiters attaches the shared per-endpoint rate limiters; outbound
// Nominatim calls wait on the "geocoder" bucket. Cache hits never wait.
func (g *NominatimGeocoder) WithLimiters(l *core.Limiters) *NominatimGeocoder {
	g.limiters = l
	return g
}

func (g *NominatimGeocoder) cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func (g *NominatimGeocoder) search(ctx context.Context, query string) ([]nominatimResult, error) {
	key := g.cacheKey(query)

	if cached, ok := g.cache.Get(key); ok {
		return cached, nil
	}

	if g.externalCache != nil {
		if raw, ok, err := g.externalCache.Get(ctx, "geocode:"+key); err == nil && ok {
			var results []nominatimResult
			if err := json.Unmarshal(raw, &results); err == nil {
				g.cache.Add(key, results)
				return results, nil
			}
		}
	}

	result, err, _ := g.requestGrp.Do(key, func() (interface{}, error) {
		if g.limiters != nil {
			if err := g.limiters.Wait(ctx, "geocoder"); err != nil {
				return nil, core.NewError(core.ErrTimeout, "request cancelled while waiting for geocoder rate limit")
			}
		}

		reqURL, err := url.Parse(g.baseURL + "/search")
		if err != nil {
			return nil, core.NewError(core.ErrProcessing, "failed to build geocoder URL")
		}
		q := reqURL.Query()
		q.Set("q", query)
		q.Set("format", "json")
		q.Set("limit", strconv.Itoa(g.maxResults))
		q.Set("addressdetails", "0")
		reqURL.RawQuery = q.Encode()

		factory := func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("User-Agent", nominatimUserAgent)
			return req, nil
		}

		resp, err := core.WithRetryFactory(ctx, factory, g.client, core.DefaultRetryOptions)
		if err != nil {
			return nil, core.ServiceError("Nominatim", http.StatusServiceUnavailable, "geocoding service unreachable")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, core.ServiceError("Nominatim", resp.StatusCode, fmt.Sprintf("geocoding service returned %d", resp.StatusCode))
		}

		var results []nominatimResult
		if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
			return nil, core.NewError(core.ErrProcessing, "failed to decode geocoder response")
		}

		g.cache.Add(key, results)
		if g.externalCache != nil {
			if raw, err := json.Marshal(results); err == nil {
				_ = g.externalCache.Set(ctx, "geocode:"+key, raw, externalCacheTTL)
			}
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]nominatimResult), nil
}

// Geocode implements Geocoder.
func (g *NominatimGeocoder) Geocode(ctx context.Context, matchedName, countryBias string) (*ResolvedLocation, error) {
	query := matchedName
	if countryBias != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(countryBias)) {
		query = query + ", " + countryBias
	}

	results, err := g.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	candidates := make([]*ResolvedLocation, 0, len(results))
	for _, r := range results {
		resolved, err := toResolvedLocation(r)
		if err != nil {
			continue
		}
		if g.maxAreaKM2 > 0 && resolved.AreaKM2 > g.maxAreaKM2 {
			continue
		}
		candidates = append(candidates, resolved)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Highest importance first; ties broken by smaller area.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Importance != candidates[j].Importance {
			return candidates[i].Importance > candidates[j].Importance
		}
		return candidates[i].AreaKM2 < candidates[j].AreaKM2
	})

	return candidates[0], nil
}

func toResolvedLocation(r nominatimResult) (*ResolvedLocation, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon: %w", err)
	}

	var geometry orb.Geometry
	if len(r.BoundingBox) == 4 {
		south, _ := strconv.ParseFloat(r.BoundingBox[0], 64)
		north, _ := strconv.ParseFloat(r.BoundingBox[1], 64)
		west, _ := strconv.ParseFloat(r.BoundingBox[2], 64)
		east, _ := strconv.ParseFloat(r.BoundingBox[3], 64)
		geometry = orb.Polygon{orb.Ring{
			{west, south}, {east, south}, {east, north}, {west, north}, {west, south},
		}}
	} else {
		geometry = orb.Point{lon, lat}
	}

	roi := geo.NewROI(geometry, r.DisplayName)

	return &ResolvedLocation{
		DisplayName: r.DisplayName,
		Center:      LatLng{Lng: lon, Lat: lat},
		Geometry:    roi,
		AreaKM2:     roi.AreaKM2,
		Importance:  r.Importance,
		PlaceID:     r.PlaceID.String(),
	}, nil
}
