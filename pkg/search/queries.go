package search

import "strings"

// maxQueries caps fan-out at 5, per spec §4.5 step 1 (and
// enhanced_query_generator.py's own "reduced from 8 to 5 for faster
// processing" comment).
const maxQueries = 5

// analysisKeywords mirrors enhanced_query_generator.py's analysis_keywords
// table, trimmed to the subset this module classifies (NDVI/LST/LULC/Water)
// plus two service-level buckets for the general SEARCH path: climate, and
// general, which unknown analysis types fall back to.
var analysisKeywords = map[string][]string{
	"ndvi":    {"vegetation index", "green cover", "vegetation health", "NDVI values"},
	"lst":     {"land surface temperature", "heat island", "thermal data", "LST values"},
	"lulc":    {"land use", "land cover", "urbanization", "land classification"},
	"water":   {"water bodies", "water resources", "hydrological data", "water availability"},
	"climate": {"climate data", "weather patterns", "precipitation", "climate indicators"},
	"general": {"latest data", "current conditions"},
}

// credibleDomainHints mirrors data_source hints from the same module:
// government/academic/satellite-provider domains, used as include_domains
// filters rather than keyword text.
var credibleDomainHints = []string{"nasa.gov", "usgs.gov", "esa.int", "copernicus.eu", ".gov", ".edu"}

// GenerateQueries builds up to maxQueries search queries combining
// indicator keywords, the location name, and metric-specific terms, per
// spec §4.5 step 1.
func GenerateQueries(analysisType, location string, metrics []string) []string {
	keywords, ok := analysisKeywords[strings.ToLower(analysisType)]
	if !ok {
		keywords = analysisKeywords["general"]
	}

	queries := make([]string, 0, maxQueries)
	for _, kw := range keywords {
		if len(queries) >= maxQueries {
			break
		}
		queries = append(queries, kw+" "+location)
	}

	for _, m := range metrics {
		if len(queries) >= maxQueries {
			break
		}
		queries = append(queries, analysisType+" "+m+" "+location)
	}

	if len(queries) == 0 {
		queries = append(queries, location+" "+analysisType+" data")
	}

	return queries
}

// IncludeDomains returns the credible-source domain hints used as Tavily's
// include_domains filter, per spec §4.5 step 1(b).
func IncludeDomains() []string {
	out := make([]string, len(credibleDomainHints))
	copy(out, credibleDomainHints)
	return out
}
