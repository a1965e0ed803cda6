package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys shared across pipeline stages.
const (
	// Pipeline stage attributes
	AttrStageName     = "geoqa.stage.name"
	AttrStageStatus   = "geoqa.stage.status"
	AttrStageDuration = "geoqa.stage.duration_ms"

	// External service attributes
	AttrServiceName      = "geoqa.service.name"
	AttrServiceOperation = "geoqa.service.operation"
	AttrServiceURL       = "geoqa.service.url"
	AttrServiceStatus    = "geoqa.service.status"

	// Cache attributes
	AttrCacheType = "geoqa.cache.type"
	AttrCacheHit  = "geoqa.cache.hit"
	AttrCacheKey  = "geoqa.cache.key"

	// Rate limiting attributes
	AttrRateLimitService = "geoqa.ratelimit.service"
	AttrRateLimitWaitMs  = "geoqa.ratelimit.wait_ms"

	// HTTP transport attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"

	// Engine attributes
	AttrIndicator = "geoqa.engine.indicator"
	AttrTileID    = "geoqa.engine.tile_id"
	AttrTileCount = "geoqa.engine.tile_count"
	AttrAreaKM2   = "geoqa.engine.area_km2"
)

// Status values
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusTimeout     = "timeout"
	StatusRateLimited = "rate_limited"
)

// Service names for the abstract external collaborators.
const (
	ServiceGeocoder = "geocoder"
	ServiceLLM      = "llm"
	ServiceImagery  = "imagery"
	ServiceSearch   = "search"
)

// Cache types
const (
	CacheTypeGeocode = "geocode"
	CacheTypeIntent  = "intent"
	CacheTypeGeneric = "generic"
)

// StageAttributes returns attributes describing a pipeline stage's outcome.
func StageAttributes(stage, status string, durationMs int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrStageName, stage),
		attribute.String(AttrStageStatus, status),
		attribute.Int64(AttrStageDuration, durationMs),
	}
}

// ServiceAttributes returns attributes for external service calls.
func ServiceAttributes(service, operation, url string, status int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrServiceName, service),
		attribute.String(AttrServiceOperation, operation),
		attribute.String(AttrServiceURL, url),
		attribute.Int(AttrServiceStatus, status),
	}
}

// CacheAttributes returns attributes for cache operations.
func CacheAttributes(cacheType string, hit bool, key string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCacheType, cacheType),
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheKey, key),
	}
}

// ErrorAttributes returns attributes for errors.
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, "error"),
		attribute.String(AttrErrorMessage, err.Error()),
	}
}
