package search

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// credibleDomains mirrors data_extractor.py's credible_domains table.
var credibleDomains = map[string][]string{
	"government":    {".gov", ".nic.in", "government", "ministry", "department"},
	"academic":      {".edu", "researchgate", "academia", "scholar", "jstor"},
	"international": {"un.org", "who.int", "unep.org", "nasa.gov", "esa.int"},
	"research":      {"nature.com", "springer.com", "ieee.org", "sciencedirect.com"},
}

// recentIndicators mirrors data_extractor.py's recent_indicators list.
var recentIndicators = []string{"2024", "2023", "recent", "latest", "current", "this year", "last year", "updated", "newest"}

// scoreCredibility returns the fraction of results whose URL host matches a
// credible-domain hint, per spec §4.5 step 5.
func scoreCredibility(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	credible := 0
	for _, r := range results {
		host := hostOf(r.URL)
		for _, domains := range credibleDomains {
			for _, d := range domains {
				if strings.Contains(host, d) {
					credible++
					goto next
				}
			}
		}
	next:
	}
	return float64(credible) / float64(len(results))
}

// scoreRecency returns the fraction of results whose title or content
// mentions a recency indicator (explicit year or relative phrase).
func scoreRecency(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	recent := 0
	now := time.Now()
	for _, r := range results {
		lower := strings.ToLower(r.Title + " " + r.Content)
		if !r.PublishedDate.IsZero() && now.Sub(r.PublishedDate) < 365*24*time.Hour {
			recent++
			continue
		}
		for _, ind := range recentIndicators {
			if strings.Contains(lower, ind) {
				recent++
				break
			}
		}
	}
	return float64(recent) / float64(len(results))
}

// scoreCompleteness returns the fraction of the requested metric types that
// were actually extracted at least once.
func scoreCompleteness(metrics []Metric, wantTypes []MetricType) float64 {
	if len(wantTypes) == 0 {
		return 1
	}
	present := map[MetricType]bool{}
	for _, m := range metrics {
		present[m.Type] = true
	}
	found := 0
	for _, t := range wantTypes {
		if present[t] {
			found++
		}
	}
	return float64(found) / float64(len(wantTypes))
}

// scoreAccuracy returns the mean extraction confidence across all metrics.
func scoreAccuracy(metrics []Metric) float64 {
	if len(metrics) == 0 {
		return 0
	}
	total := 0.0
	for _, m := range metrics {
		total += m.Confidence
	}
	return total / float64(len(metrics))
}

// ComputeQuality implements spec §4.5 step 5's overall formula:
// 0.3·credibility + 0.2·recency + 0.25·completeness + 0.25·accuracy.
func ComputeQuality(results []Result, metrics []Metric, wantTypes []MetricType) DataQuality {
	cred := scoreCredibility(results)
	rec := scoreRecency(results)
	compl := scoreCompleteness(metrics, wantTypes)
	acc := scoreAccuracy(metrics)

	return DataQuality{
		Credibility:  cred,
		Recency:      rec,
		Completeness: compl,
		Accuracy:     acc,
		Overall:      0.3*cred + 0.2*rec + 0.25*compl + 0.25*acc,
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Host)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
