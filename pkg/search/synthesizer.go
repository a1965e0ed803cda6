package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/geoqa/geoqa/pkg/monitoring"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentQueries bounds the web-search fan-out, per spec §5.
const maxConcurrentQueries = 5

// defaultWantTypes maps an analysis type to the metric families its
// completeness score should check for, per spec §4.5 step 5.
var defaultWantTypes = map[string][]MetricType{
	"ndvi":  {MetricNDVI, MetricPercentage},
	"lst":   {MetricTemperature},
	"lulc":  {MetricPercentage, MetricArea},
	"water": {MetricPercentage, MetricArea},
}

// Synthesizer implements ResponseSynthesizer per spec §4.5.
type Synthesizer struct {
	backend WebSearch
}

func NewSynthesizer(backend WebSearch) *Synthesizer {
	return &Synthesizer{backend: backend}
}

// Synthesize fans out GenerateQueries(analysisType, location) in parallel,
// extracts metrics from every result, scores data quality, and assembles
// the narrative per spec §4.5 step 6.
func (s *Synthesizer) Synthesize(ctx context.Context, analysisType, location string) *SynthesisResult {
	start := time.Now()
	queries := GenerateQueries(analysisType, location, nil)
	includeDomains := IncludeDomains()

	allResults := make([][]Result, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQueries)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			qStart := time.Now()
			results, err := s.backend.Search(gctx, q, 5, includeDomains, nil, DepthBasic)
			if err != nil {
				// One query failing does not fail the whole synthesis;
				// an empty slice for that query just contributes nothing.
				monitoring.RecordExternalServiceRequest("tavily", "search", time.Since(qStart), false)
				return nil
			}
			monitoring.RecordExternalServiceRequest("tavily", "search", time.Since(qStart), true)
			allResults[i] = results
			return nil
		})
	}
	_ = g.Wait()

	var flat []Result
	seen := map[string]bool{}
	for _, batch := range allResults {
		for _, r := range batch {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			flat = append(flat, r)
		}
	}

	if len(flat) == 0 {
		return &SynthesisResult{
			Success:        false,
			Error:          "no search results returned for any generated query",
			QueriesUsed:    queries,
			ProcessingTime: time.Since(start),
		}
	}

	var metrics []Metric
	var sources []string
	for _, r := range flat {
		metrics = append(metrics, ExtractMetrics(r.Content, r.URL)...)
		sources = append(sources, r.URL)
	}

	quality := ComputeQuality(flat, metrics, defaultWantTypes[strings.ToLower(analysisType)])
	analysisText := buildNarrative(location, analysisType, metrics, quality, len(sources))

	return &SynthesisResult{
		AnalysisText:   analysisText,
		Metrics:        metrics,
		Sources:        sources,
		Quality:        quality,
		QueriesUsed:    queries,
		Success:        true,
		ProcessingTime: time.Since(start),
	}
}

// buildNarrative assembles header, location, data-quality block, top metrics
// per type, source count, and, when overall quality is below 0.4, a
// limitations line, per spec §4.5 step 6. No findings line is written.
func buildNarrative(location, analysisType string, metrics []Metric, quality DataQuality, sourceCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 Web-search synthesis: %s\n", strings.ToUpper(analysisType))
	fmt.Fprintf(&b, "📍 Location: %s\n", location)
	fmt.Fprintf(&b, "📊 Data quality: overall=%s (credibility=%s, recency=%s, completeness=%s, accuracy=%s)\n",
		formatFloat(quality.Overall), formatFloat(quality.Credibility), formatFloat(quality.Recency),
		formatFloat(quality.Completeness), formatFloat(quality.Accuracy))

	byType := map[MetricType][]Metric{}
	for _, m := range metrics {
		byType[m.Type] = append(byType[m.Type], m)
	}
	for _, t := range []MetricType{MetricNDVI, MetricTemperature, MetricPercentage, MetricArea, MetricPopulation, MetricCoordinate} {
		group := byType[t]
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].Confidence > group[j].Confidence })
		n := group
		if len(n) > 3 {
			n = n[:3]
		}
		fmt.Fprintf(&b, "  %s: ", t)
		parts := make([]string, 0, len(n))
		for _, m := range n {
			parts = append(parts, formatFloat(m.Value)+m.Unit)
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Sources consulted: %d\n", sourceCount)
	if quality.Overall < 0.4 {
		b.WriteString("Limitations: low aggregate data quality; treat figures as indicative only.\n")
	}
	return b.String()
}
