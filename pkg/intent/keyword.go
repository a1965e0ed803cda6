package intent

import "strings"

// topLevelKeywords is grounded on top_level_classifier.py's
// _fallback_classification keyword tables.
var topLevelKeywords = map[ServiceType][]string{
	ServiceGEE: {
		"ndvi", "vegetation", "land use", "lulc", "satellite", "temperature", "lst",
		"heat island", "uhi", "roi", "polygon", "coordinates", "lat", "lng",
		"geospatial", "map", "imagery", "analysis", "greenness", "thermal",
	},
	ServiceRAG: {
		"policy", "law", "regulation", "define", "explain", "what is",
		"definition", "document", "report", "historical", "background",
	},
	ServiceSearch: {
		"latest", "current", "today", "now", "weather", "news", "update",
		"recent", "live", "real-time", "current events",
	},
}

// subIntentKeywords is grounded on gee_subclassifier.py's
// _keyword_classify_gee_intent pattern table.
var subIntentKeywords = map[GEESubIntent][]string{
	SubLST: {
		"temperature", "heat", "thermal", "lst", "land surface temperature",
		"urban heat island", "uhi", "hot", "cool", "warming", "climate",
		"surface temp", "thermal analysis", "heat island", "temperature analysis",
	},
	SubNDVI: {
		"ndvi", "vegetation", "greenness", "plant", "tree", "forest health",
		"vegetation index", "canopy", "biomass", "chlorophyll", "photosynthesis",
		"vegetation analysis", "vegetation health", "green cover", "leaf",
	},
	SubLULC: {
		"land use", "land cover", "lulc", "urban", "built", "classification",
		"developed", "settlement", "infrastructure", "city", "agricultural",
		"cropland", "farming", "development", "construction",
	},
	SubClimate: {
		"weather", "precipitation", "rainfall", "climate", "meteorology",
		"atmospheric", "wind", "humidity", "pressure",
	},
	SubWater: {
		"water", "river", "lake", "hydrology", "watershed", "stream",
		"water body", "aquatic", "marine", "coastal", "flood",
	},
	SubSoil: {
		"soil", "erosion", "sediment", "agriculture", "farming",
		"soil health", "soil quality", "degradation",
	},
	SubPopulation: {
		"population", "demographics", "density", "people", "inhabitants",
		"census", "urban population", "settlement patterns",
	},
	SubTransportation: {
		"road", "highway", "transportation", "infrastructure", "network",
		"connectivity", "accessibility", "traffic", "mobility",
	},
}

// keywordResult carries a scorer verdict plus the reasoning string the
// orchestrator stitches into IntentResult.Reasoning.
type keywordResult struct {
	confidence float64
	reasoning  string
}

// keywordClassifyTopLevel implements the spec §4.2 keyword fallback: highest
// additive match count wins, confidence = min(0.9, matches/len(keywords)+0.1).
// Empty query is guaranteed to return SEARCH, 0.0 (totality, spec §8 item 7).
func keywordClassifyTopLevel(query string) (ServiceType, keywordResult) {
	if strings.TrimSpace(query) == "" {
		return ServiceSearch, keywordResult{confidence: 0.0, reasoning: "empty query, defaulting to SEARCH"}
	}

	lower := strings.ToLower(query)
	best := ServiceSearch
	bestScore := -1
	bestTotal := 1

	order := []ServiceType{ServiceGEE, ServiceRAG, ServiceSearch}
	for _, svc := range order {
		keywords := topLevelKeywords[svc]
		score := countMatches(lower, keywords)
		if score > bestScore {
			best = svc
			bestScore = score
			bestTotal = len(keywords)
		}
	}

	if bestScore <= 0 {
		return ServiceSearch, keywordResult{confidence: 0.1, reasoning: "no keyword matched, defaulting to SEARCH"}
	}

	confidence := minFloat(0.9, float64(bestScore)/float64(bestTotal)+0.1)
	return best, keywordResult{
		confidence: confidence,
		reasoning:  "keyword fallback matched " + best.keywordReasonSuffix(),
	}
}

func (s ServiceType) keywordReasonSuffix() string {
	return string(s)
}

// keywordClassifyGEESubIntent implements gee_subclassifier.py's
// _keyword_classify_gee_intent: highest score wins, default LULC/0.3 when
// nothing matches, per spec §4.2.
func keywordClassifyGEESubIntent(query string) (GEESubIntent, keywordResult) {
	lower := strings.ToLower(query)

	order := []GEESubIntent{
		SubLST, SubNDVI, SubLULC, SubClimate, SubWater, SubSoil, SubPopulation, SubTransportation,
	}

	best := GEESubIntent("")
	bestScore := 0
	bestTotal := 1
	for _, sub := range order {
		keywords := subIntentKeywords[sub]
		score := countMatches(lower, keywords)
		if score > bestScore {
			best = sub
			bestScore = score
			bestTotal = len(keywords)
		}
	}

	if bestScore == 0 {
		return SubLULC, keywordResult{confidence: 0.3, reasoning: "no specific keywords found, defaulting to LULC"}
	}

	confidence := minFloat(0.9, float64(bestScore)/float64(bestTotal)+0.1)
	return best, keywordResult{
		confidence: confidence,
		reasoning:  "keyword match for " + string(best),
	}
}

func countMatches(lower string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
