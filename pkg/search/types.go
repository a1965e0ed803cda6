// Package search implements ResponseSynthesizer (spec §4.5): multi-query
// fan-out over an abstract WebSearch backend, regex-based metric extraction,
// and quality-scored narrative synthesis. Grounded on
// original_source/backend/app/search_service/services/{enhanced_query_generator,
// tavily_client,data_extractor}.py, ported into the teacher's
// (osmmcp) HTTP-client-with-retry and errgroup fan-out idiom rather than
// translated line-for-line.
package search

import (
	"context"
	"time"
)

// SearchDepth mirrors Tavily's search_depth parameter.
type SearchDepth string

const (
	DepthBasic    SearchDepth = "basic"
	DepthAdvanced SearchDepth = "advanced"
)

// Result is one WebSearch hit, per spec §6's WebSearch interface.
type Result struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Content       string    `json:"content"`
	Score         float64   `json:"score"`
	PublishedDate time.Time `json:"published_date,omitempty"`
}

// WebSearch is the external collaborator from spec §6:
// search(query, max_results, include_domains?, exclude_domains?, depth) -> [Result].
type WebSearch interface {
	Search(ctx context.Context, query string, maxResults int, includeDomains, excludeDomains []string, depth SearchDepth) ([]Result, error)
}

// MetricType enumerates the regex-extracted metric families, per spec
// §4.5 step 3.
type MetricType string

const (
	MetricTemperature MetricType = "temperature"
	MetricNDVI        MetricType = "ndvi"
	MetricArea        MetricType = "area"
	MetricPercentage  MetricType = "percentage"
	MetricPopulation  MetricType = "population"
	MetricCoordinate  MetricType = "coordinates"
)

// Metric is one extracted quantitative value with its provenance.
type Metric struct {
	Type       MetricType `json:"type"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	Confidence float64    `json:"confidence"`
	SourceURL  string     `json:"source_url"`
	Context    string     `json:"context"`
}

// DataQuality is the scoring breakdown from spec §4.5 step 5.
type DataQuality struct {
	Credibility  float64 `json:"credibility"`
	Recency      float64 `json:"recency"`
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Overall      float64 `json:"overall"`
}

// SynthesisResult is ResponseSynthesizer's output.
type SynthesisResult struct {
	AnalysisText   string      `json:"analysis_text"`
	Metrics        []Metric    `json:"metrics"`
	Sources        []string    `json:"sources"`
	Quality        DataQuality `json:"data_quality"`
	QueriesUsed    []string    `json:"queries_used"`
	Success        bool        `json:"success"`
	Error          string      `json:"error,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
}
