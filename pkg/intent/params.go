package intent

import "strings"

// extractTimeRange implements intent_classifier.py's _extract_time_range:
// simple keyword-based windows, deterministic and LLM-free per spec §4.2.
func extractTimeRange(query string) *TimeRange {
	lower := strings.ToLower(query)

	switch {
	case strings.Contains(lower, "last year") || strings.Contains(query, "2023"):
		return &TimeRange{Start: "2023-01-01", End: "2023-12-31"}
	case strings.Contains(lower, "this year") || strings.Contains(query, "2024"):
		return &TimeRange{Start: "2024-01-01", End: "2024-12-31"}
	case strings.Contains(lower, "summer"):
		return &TimeRange{Start: "2023-06-01", End: "2023-08-31"}
	case strings.Contains(lower, "winter"):
		return &TimeRange{Start: "2023-12-01", End: "2024-02-28"}
	case strings.Contains(lower, "last month"):
		return nil
	}
	return nil
}

// metricPatterns is grounded on intent_classifier.py's metric_patterns
// table, extended with the spec's own metric-hint examples (mean, max,
// change).
var metricPatterns = []struct {
	name     string
	keywords []string
}{
	{"ndvi", []string{"ndvi", "vegetation index", "greenness"}},
	{"temperature", []string{"temperature", "temp", "thermal", "heat"}},
	{"area", []string{"area", "coverage", "extent"}},
	{"percentage", []string{"percentage", "percent", "%", "distribution"}},
	{"mean", []string{"mean", "average", "avg"}},
	{"max", []string{"maximum", "max", "highest"}},
	{"min", []string{"minimum", "min", "lowest"}},
	{"change", []string{"change", "difference", "trend", "variation"}},
}

// extractMetrics implements intent_classifier.py's _extract_metrics:
// deterministic metric-hint detection, order matches the pattern table.
func extractMetrics(query string) []string {
	lower := strings.ToLower(query)
	metrics := []string{}
	for _, p := range metricPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				metrics = append(metrics, p.name)
				break
			}
		}
	}
	return metrics
}

// analysisTypeString returns the lowercase sub-intent string. It is only
// called for GEE results; Classify leaves AnalysisType as "general" when
// service_type isn't GEE, per spec §3.
func analysisTypeString(sub GEESubIntent) string {
	return strings.ToLower(string(sub))
}
