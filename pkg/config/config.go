// Package config loads a single immutable Config at process startup from
// environment variables and CLI flags, grounded on osmmcp's
// cmd/osmmcp/main.go flag-heavy pattern (per-service rate-limit flags,
// debug/version switches). SPEC_FULL.md §9's "scattered environment reads"
// redesign flag is implemented here: every variable named in spec §6 is
// read exactly once, in Load, and threaded through constructors from then
// on — no component calls os.Getenv on the hot path.
package config

import (
	"flag"
	"os"
	"strconv"
)

// Config is the immutable, fully-resolved application configuration.
// Built once by Load and passed by value/pointer to every component
// constructor; never mutated afterward.
type Config struct {
	// LLM (spec §6)
	OpenRouterAPIKey    string
	OpenRouterIntentModel string

	// Geocoder (spec §6)
	NominatimURL string

	// Web search (spec §6)
	TavilyAPIKey string

	// Imagery backend credentials (spec §6)
	ImageryCredentialsJSON string
	ImageryCredentialsPath string

	// Area/timeout budgets (spec §4.3/§6)
	MaxROIKM2        float64
	EngineDeadlineSecs int

	// SPEC_FULL.md §4 item 5: forces every GEE-path request to degrade to
	// the search synthesizer, for environments with no imagery credentials.
	DisableGEE bool

	// Per-endpoint rate limits, osmmcp's --nominatim-rps style generalized
	// to geocoder/llm/search.
	GeocoderRPS   float64
	GeocoderBurst int
	LLMRPS        float64
	LLMBurst      int
	SearchRPS     float64
	SearchBurst   int

	// Cache/telemetry backends, both optional.
	RedisAddr     string
	KafkaBrokers  []string

	// Logging.
	Debug      bool
	LogFormat  string // "text" (default) or "json"

	// CLI-only (spec §6 "packaged as a CLI for testing"): a single query to
	// run through the pipeline once and print as a FinalResponse, then exit.
	Query     string
	SessionID string
}

const (
	defaultMaxROIKM2         = 35000.0
	defaultEngineDeadlineSecs = 60
	defaultGeocoderRPS       = 1.0
	defaultLLMRPS            = 2.0
	defaultSearchRPS         = 1.0
)

// Load builds a Config from environment variables, then lets flags parsed
// from args override them (flags take precedence, matching osmmcp's own
// main.go). Pass os.Args[1:] in production; tests pass an explicit slice.
func Load(args []string) (*Config, error) {
	cfg := &Config{
		OpenRouterAPIKey:       os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterIntentModel:  getEnv("OPENROUTER_INTENT_MODEL", "openai/gpt-4o-mini"),
		NominatimURL:           getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		TavilyAPIKey:           os.Getenv("TAVILY_API_KEY"),
		ImageryCredentialsJSON: os.Getenv("IMAGERY_CREDENTIALS_JSON"),
		ImageryCredentialsPath: os.Getenv("IMAGERY_CREDENTIALS_PATH"),
		MaxROIKM2:              getEnvFloat("MAX_ROI_KM2", defaultMaxROIKM2),
		EngineDeadlineSecs:     getEnvInt("ENGINE_DEADLINE_SECS", defaultEngineDeadlineSecs),
		DisableGEE:             getEnvBool("GEOQA_DISABLE_GEE", false),
		GeocoderRPS:            defaultGeocoderRPS,
		GeocoderBurst:          1,
		LLMRPS:                 defaultLLMRPS,
		LLMBurst:               2,
		SearchRPS:              defaultSearchRPS,
		SearchBurst:            1,
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		LogFormat:              getEnv("GEOQA_LOG_FORMAT", "text"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitCommaList(brokers)
	}

	fs := flag.NewFlagSet("geoqa", flag.ContinueOnError)
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	fs.Float64Var(&cfg.MaxROIKM2, "max-roi-km2", cfg.MaxROIKM2, "Maximum ROI area in km^2 before the area gate refuses the request")
	fs.IntVar(&cfg.EngineDeadlineSecs, "engine-deadline-secs", cfg.EngineDeadlineSecs, "Per-request engine deadline in seconds")
	fs.StringVar(&cfg.NominatimURL, "nominatim-url", cfg.NominatimURL, "Nominatim-compatible geocoder base URL")
	fs.Float64Var(&cfg.GeocoderRPS, "geocoder-rps", cfg.GeocoderRPS, "Geocoder rate limit in requests per second")
	fs.IntVar(&cfg.GeocoderBurst, "geocoder-burst", cfg.GeocoderBurst, "Geocoder rate limit burst size")
	fs.Float64Var(&cfg.LLMRPS, "llm-rps", cfg.LLMRPS, "LLM rate limit in requests per second")
	fs.IntVar(&cfg.LLMBurst, "llm-burst", cfg.LLMBurst, "LLM rate limit burst size")
	fs.Float64Var(&cfg.SearchRPS, "search-rps", cfg.SearchRPS, "Web search rate limit in requests per second")
	fs.IntVar(&cfg.SearchBurst, "search-burst", cfg.SearchBurst, "Web search rate limit burst size")
	fs.BoolVar(&cfg.DisableGEE, "disable-gee", cfg.DisableGEE, "Force all GEE-path requests to degrade to the search synthesizer")
	fs.StringVar(&cfg.Query, "query", "", "Run a single query through the pipeline and print the result as JSON, then exit")
	fs.StringVar(&cfg.SessionID, "session-id", "", "Session identifier to attach to the query, for RAG routing")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func splitCommaList(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
