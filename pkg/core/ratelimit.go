package core

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/geoqa/geoqa/pkg/monitoring"
)

// Limiters holds one token-bucket limiter per named external endpoint
// (geocoder, llm, imagery, search). Grounded on the teacher's per-service
// rate limiters in pkg/osm/client.go, generalized from three hardcoded OSM
// services to an arbitrary, configuration-driven endpoint set.
type Limiters struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewLimiters builds a Limiters set from a map of endpoint name to
// (requests-per-second, burst) pairs, read once from Config at startup.
func NewLimiters(specs map[string]RateSpec) *Limiters {
	l := &Limiters{limiters: make(map[string]*rate.Limiter, len(specs))}
	for name, spec := range specs {
		l.limiters[name] = rate.NewLimiter(rate.Limit(spec.RPS), spec.Burst)
	}
	return l
}

// RateSpec configures a single endpoint's rate limiter.
type RateSpec struct {
	RPS   float64
	Burst int
}

// Wait blocks until the named endpoint's limiter admits a request or ctx is
// cancelled. An endpoint with no configured limiter is unrestricted.
func (l *Limiters) Wait(ctx context.Context, endpoint string) error {
	l.mu.RLock()
	limiter, ok := l.limiters[endpoint]
	l.mu.RUnlock()
	if !ok {
		return nil
	}

	if limiter.Allow() {
		return nil
	}

	start := time.Now()
	monitoring.RecordRateLimitExceeded(endpoint)
	err := limiter.Wait(ctx)
	monitoring.RecordRateLimitWait(endpoint, time.Since(start))
	return err
}
