// Command geoqa runs the query orchestration core as a standalone CLI,
// the "packaged as a CLI for testing" surface named in spec §6: it wires
// every pipeline stage together from a single immutable config, runs one
// query through Agent.ProcessQuery, prints the FinalResponse as JSON, and
// exits with the status code spec §6 defines. The HTTP transport, auth
// backend, and document ingestion pipeline that would normally sit in
// front of this core are out of scope (spec §1) and are not implemented
// here; this binary is the headless core's own test harness.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geoqa/geoqa/pkg/agent"
	"github.com/geoqa/geoqa/pkg/cache"
	"github.com/geoqa/geoqa/pkg/config"
	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/dispatcher"
	"github.com/geoqa/geoqa/pkg/engine"
	"github.com/geoqa/geoqa/pkg/intent"
	"github.com/geoqa/geoqa/pkg/llm"
	"github.com/geoqa/geoqa/pkg/location"
	"github.com/geoqa/geoqa/pkg/monitoring"
	"github.com/geoqa/geoqa/pkg/rag"
	"github.com/geoqa/geoqa/pkg/search"
	"github.com/geoqa/geoqa/pkg/telemetry"
	"github.com/geoqa/geoqa/pkg/tracing"
	"github.com/geoqa/geoqa/pkg/version"
)

// geocoderAreaHeadroom keeps the geocoder's area ceiling well above the
// dispatcher's MAX_ROI_KM2 gate (20× covers any Indian state); only
// continent-scale geometries are dropped at resolution time.
const geocoderAreaHeadroom = 20

// Exit codes per spec §6.
const (
	exitSuccess             = 0
	exitBadArguments        = 2
	exitUpstreamUnavailable = 3
	exitAreaTooLarge        = 4
	exitInternalError       = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid arguments:", err)
		return exitBadArguments
	}

	configureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracing(ctx, version.Version)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				slog.Error("error shutting down tracing", "error", err)
			}
		}()
	}

	healthChecker := monitoring.NewHealthChecker(monitoring.ServiceName, version.Version)
	defer healthChecker.Shutdown()

	monitoringServer := startMonitoringServer(ctx, healthChecker)
	if monitoringServer != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = monitoringServer.Shutdown(shutdownCtx)
		}()
	}

	a, evidenceSink := buildAgent(ctx, cfg)
	defer evidenceSink.Close()

	if cfg.Query == "" {
		slog.Info("geoqa core ready; pass -query to run a single request", "version", version.Version)
		<-ctx.Done()
		return exitSuccess
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.EngineDeadlineSecs)*time.Second)
	defer cancel()

	result := a.ProcessQuerySession(reqCtx, cfg.Query, cfg.SessionID)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		slog.Error("failed to marshal result", "error", err)
		return exitInternalError
	}
	fmt.Println(string(out))

	return exitCodeFor(result.Success, core.ErrorType(result.ErrorType))
}

// exitCodeFor maps a FinalResponse outcome to the exit codes spec §6
// defines for CLI packaging: 0 success, 2 bad arguments (validation_error,
// since a malformed/empty query is a caller error here), 3 upstream
// unavailable, 4 area_too_large, 5 internal error.
func exitCodeFor(success bool, errType core.ErrorType) int {
	if success {
		return exitSuccess
	}
	switch errType {
	case core.ErrValidation:
		return exitBadArguments
	case core.ErrAreaTooLarge:
		return exitAreaTooLarge
	case core.ErrNERUnavailable, core.ErrIntentUnavailable, core.ErrBackendUnavailable, core.ErrQuotaExceeded, core.ErrTimeout:
		return exitUpstreamUnavailable
	default:
		return exitInternalError
	}
}

func configureLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func startMonitoringServer(ctx context.Context, hc *monitoring.HealthChecker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", hc.HealthHandler())
	mux.HandleFunc("/readyz", hc.ReadinessHandler())
	mux.HandleFunc("/livez", hc.LivenessHandler())

	srv := &http.Server{
		Addr:              ":9090",
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("monitoring server error", "error", err)
		}
	}()

	return srv
}

// buildAgent wires every pipeline stage from cfg, following spec §4's
// dependency order (leaves first): caches, LLM provider, entity
// extractor/geocoder, intent classifier, imagery backend/engine, web
// search synthesizer, RAG passthrough, dispatcher, then the top-level
// Agent.
func buildAgent(ctx context.Context, cfg *config.Config) (*agent.Agent, telemetry.Sink) {
	geocodeCache := buildGeocodeCache(ctx, cfg)

	limiters := core.NewLimiters(map[string]core.RateSpec{
		"geocoder": {RPS: cfg.GeocoderRPS, Burst: cfg.GeocoderBurst},
		"llm":      {RPS: cfg.LLMRPS, Burst: cfg.LLMBurst},
		"search":   {RPS: cfg.SearchRPS, Burst: cfg.SearchBurst},
	})

	provider := buildLLMProvider(cfg, limiters)

	extractor := location.NewLLMEntityExtractor(provider, "ner")
	// The geocoder's own area ceiling sits far above the dispatcher's gate:
	// a state-sized region must resolve and reach the gate so the refusal
	// can name it, instead of being silently discarded during geocoding.
	geocoder := location.NewNominatimGeocoder(cfg.NominatimURL, cfg.MaxROIKM2*geocoderAreaHeadroom, core.DefaultClient).WithLimiters(limiters)
	if geocodeCache != nil {
		geocoder = geocoder.WithExternalCache(geocodeCache)
	}
	locationParser := location.NewParser(extractor, geocoder, "")

	intentClassifier := intent.NewClassifier(provider, cfg.OpenRouterIntentModel, cfg.OpenRouterIntentModel).
		WithCache(buildIntentCache(ctx, cfg))

	imageryBackend := buildImageryBackend(cfg)
	eng := engine.NewEngine(imageryBackend, time.Duration(cfg.EngineDeadlineSecs)*time.Second)

	var webSearch search.WebSearch = search.NewTavilyClient(cfg.TavilyAPIKey).WithLimiters(limiters)
	synth := search.NewSynthesizer(webSearch)

	ragService := rag.Unavailable{}

	disp := dispatcher.New(eng, ragService, synth, cfg.MaxROIKM2, cfg.DisableGEE).
		WithDevTimeouts(cfg.Debug)

	sink, err := buildEvidenceSink(cfg)
	if err != nil {
		slog.Warn("failed to build Kafka evidence sink, falling back to no-op", "error", err)
		sink = telemetry.NoopSink
	}

	return agent.New(locationParser, intentClassifier, disp, sink), sink
}

func buildLLMProvider(cfg *config.Config, limiters *core.Limiters) llm.Provider {
	profiles := map[string]string{
		"default": cfg.OpenRouterIntentModel,
		"ner":     cfg.OpenRouterIntentModel,
		"intent":  cfg.OpenRouterIntentModel,
	}
	return llm.NewOpenRouterClient(cfg.OpenRouterAPIKey, profiles).WithLimiters(limiters)
}

// buildImageryBackend returns engine.UnavailableBackend: spec §1 places the
// satellite API itself out of scope behind this interface, so no concrete
// SDK is wired into this build regardless of credential configuration. An
// operator integrating a real backend (e.g. Earth Engine) constructs it
// here from cfg.ImageryCredentialsJSON/ImageryCredentialsPath and returns
// it in place of UnavailableBackend; until then every GEE-path request
// degrades to search, per spec §5's "credentials cache loaded once at
// startup" resource model.
func buildImageryBackend(cfg *config.Config) engine.ImageryBackend {
	if cfg.ImageryCredentialsJSON == "" && cfg.ImageryCredentialsPath == "" {
		slog.Warn("no imagery backend credentials configured; GEE-path requests will degrade to search")
	}
	return engine.UnavailableBackend{}
}

// buildGeocodeCache builds the optional Redis-backed second tier sitting
// behind the geocoder's in-process LRU cache, per SPEC_FULL.md §2's cache
// wiring table. Returns nil (no second tier) when REDIS_ADDR is unset.
func buildGeocodeCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return nil
	}
	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, "geocode")
	if err != nil {
		slog.Warn("failed to connect to Redis, geocoder will use in-process cache only", "error", err)
		return nil
	}
	return redisCache
}

// buildIntentCache builds the classifier's two-tier classification cache:
// an in-process TTL tier always present, with Redis behind it when
// REDIS_ADDR is configured, per SPEC_FULL.md §2's cache wiring table.
func buildIntentCache(ctx context.Context, cfg *config.Config) cache.Cache {
	l1 := cache.AsCache(cache.NewNamedTTLCache("intent", 15*time.Minute, time.Minute, 512))
	if cfg.RedisAddr == "" {
		return cache.NewTieredCache(l1, nil)
	}
	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, "intent")
	if err != nil {
		slog.Warn("failed to connect to Redis, intent cache will be in-process only", "error", err)
		return cache.NewTieredCache(l1, nil)
	}
	return cache.NewTieredCache(l1, redisCache)
}

func buildEvidenceSink(cfg *config.Config) (telemetry.Sink, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return telemetry.NoopSink, nil
	}
	return telemetry.NewKafkaSink(cfg.KafkaBrokers, "geoqa.requests")
}
