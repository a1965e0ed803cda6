package intent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/geoqa/geoqa/pkg/cache"
	"github.com/geoqa/geoqa/pkg/llm"
)

// topLevelPrompt mirrors top_level_classifier.py's system prompt, adapted
// to OpenRouter's json_object response format via llm.Provider.GenerateJSON.
const topLevelPrompt = `You are an intent classifier for a geospatial assistant.
Respond ONLY with a compact JSON object: {"intent":"GEE|RAG|SEARCH","confidence":0.0-1.0,"reasoning":"brief explanation"}.
Rules:
- GEE: geospatial analysis tasks (ROI, polygon, coordinates, lat/lng, map analysis, NDVI, LULC, temperature, satellite data).
- RAG: factual/policy/definition queries or document-based information (laws, regulations, historical data).
- SEARCH: external, live, or timely info (weather, latest news, current events, real-time data).

Query: %s`

// subIntentPrompt mirrors gee_subclassifier.py's system prompt.
const subIntentPrompt = `You are a geospatial analysis classifier. Determine the most appropriate
analysis type and respond with JSON only:
{"analysis_type":"NDVI|LULC|LST|CLIMATE|WATER|SOIL|POPULATION|TRANSPORTATION","confidence":0.0-1.0,"reasoning":"brief explanation"}

Analysis Types:
- NDVI: vegetation analysis, greenness, plant health, forest cover, biomass
- LULC: land use/land cover, urban development, built areas, agriculture, classification
- LST: temperature analysis, heat islands, thermal analysis, surface temperature, UHI
- CLIMATE: weather patterns, precipitation, climate data
- WATER: hydrology, water bodies, rivers, lakes, water quality
- SOIL: soil analysis, erosion, soil health
- POPULATION: demographics, population density
- TRANSPORTATION: roads, infrastructure, transportation networks

Choose the MOST SPECIFIC type that matches the query.

Query: %s`

// classifierDeadline is the 15s overall deadline from spec §4.2.
const classifierDeadline = 15 * time.Second

// intentCacheTTL bounds how long a classification is reused for an
// identical query.
const intentCacheTTL = 15 * time.Minute

type topLevelResponse struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

type subIntentResponse struct {
	AnalysisType string  `json:"analysis_type"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// Classifier implements IntentClassifier. Never surfaces an error: a failed
// LLM call at any stage degrades to the keyword scorer, which is total.
type Classifier struct {
	provider        llm.Provider
	topLevelProfile string
	subIntentProfile string
	cache           cache.Cache
}

// NewClassifier builds a Classifier against provider, using topLevelProfile
// and subIntentProfile as the llm.Provider profile keys (both typically
// resolve to OPENROUTER_INTENT_MODEL).
func NewClassifier(provider llm.Provider, topLevelProfile, subIntentProfile string) *Classifier {
	if topLevelProfile == "" {
		topLevelProfile = "intent"
	}
	if subIntentProfile == "" {
		subIntentProfile = "intent"
	}
	return &Classifier{provider: provider, topLevelProfile: topLevelProfile, subIntentProfile: subIntentProfile}
}

// WithCache attaches an optional classification cache (typically a
// cache.TieredCache: in-process TTL tier in front of Redis). An identical
// query inside the TTL skips both LLM calls. Best-effort: a cache error
// never fails Classify.
func (c *Classifier) WithCache(cc cache.Cache) *Classifier {
	c.cache = cc
	return c
}

func (c *Classifier) cacheKey(query string) string {
	return "intent:" + strings.ToLower(strings.TrimSpace(query))
}

// Classify implements the full two-stage hierarchical classification
// described in spec §4.2, with the hybrid blend from SPEC_FULL.md §4 item 3.
func (c *Classifier) Classify(ctx context.Context, query string) *IntentResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, classifierDeadline)
	defer cancel()

	if c.cache != nil {
		if raw, ok, err := c.cache.Get(ctx, c.cacheKey(query)); err == nil && ok {
			var cached IntentResult
			if json.Unmarshal(raw, &cached) == nil {
				cached.ProcessingTime = time.Since(start)
				return &cached
			}
		}
	}

	serviceType, confidence, reasoning, modelUsed := c.classifyTopLevel(ctx, query)

	result := &IntentResult{
		ServiceType:  serviceType,
		Confidence:   confidence,
		AnalysisType: "general",
		Metrics:      extractMetrics(query),
		TimeRange:    extractTimeRange(query),
		Reasoning:    reasoning,
		ModelUsed:    modelUsed,
		Success:      true,
	}

	if serviceType == ServiceGEE {
		sub, subConfidence, subReasoning := c.classifyGEESubIntent(ctx, query)
		result.GEESubIntent = sub
		result.GEEConfidence = subConfidence
		result.AnalysisType = analysisTypeString(sub)
		result.Reasoning = reasoning + " -> " + subReasoning
	}

	result.ProcessingTime = time.Since(start)

	if c.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			_ = c.cache.Set(ctx, c.cacheKey(query), raw, intentCacheTTL)
		}
	}
	return result
}

func (c *Classifier) classifyTopLevel(ctx context.Context, query string) (ServiceType, float64, string, string) {
	if strings.TrimSpace(query) == "" {
		return ServiceSearch, 0.0, "empty query provided", "keyword_fallback"
	}

	keywordLabel, keywordVerdict := keywordClassifyTopLevel(query)

	var resp topLevelResponse
	prompt := strings.Replace(topLevelPrompt, "%s", query, 1)
	err := c.provider.GenerateJSON(ctx, c.topLevelProfile, prompt, &resp)
	if err != nil {
		return keywordLabel, keywordVerdict.confidence, "llm request failed, used keyword fallback: " + keywordVerdict.reasoning, "keyword_fallback"
	}

	llmLabel, ok := parseServiceType(resp.Intent)
	if !ok {
		return keywordLabel, keywordVerdict.confidence, "llm returned invalid intent, used keyword fallback: " + keywordVerdict.reasoning, "keyword_fallback"
	}

	confidence, reasoningSuffix := blendConfidence(string(llmLabel), string(keywordLabel), resp.Confidence, keywordVerdict.confidence)
	reasoning := resp.Reasoning
	if reasoning == "" {
		reasoning = "llm classification"
	}
	return llmLabel, confidence, reasoning + " (" + reasoningSuffix + ")", "llm"
}

func (c *Classifier) classifyGEESubIntent(ctx context.Context, query string) (GEESubIntent, float64, string) {
	keywordSub, keywordVerdict := keywordClassifyGEESubIntent(query)

	var resp subIntentResponse
	prompt := strings.Replace(subIntentPrompt, "%s", query, 1)
	err := c.provider.GenerateJSON(ctx, c.subIntentProfile, prompt, &resp)
	if err != nil {
		return keywordSub, keywordVerdict.confidence, "llm request failed, used keyword fallback: " + keywordVerdict.reasoning
	}

	llmSub, ok := parseGEESubIntent(resp.AnalysisType)
	if !ok {
		return keywordSub, keywordVerdict.confidence, "llm returned invalid analysis type, used keyword fallback: " + keywordVerdict.reasoning
	}

	confidence, reasoningSuffix := blendConfidence(string(llmSub), string(keywordSub), resp.Confidence, keywordVerdict.confidence)
	reasoning := resp.Reasoning
	if reasoning == "" {
		reasoning = "llm sub-intent classification"
	}
	return llmSub, confidence, reasoning + " (" + reasoningSuffix + ")"
}

func parseServiceType(s string) (ServiceType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ServiceGEE):
		return ServiceGEE, true
	case string(ServiceRAG):
		return ServiceRAG, true
	case string(ServiceSearch):
		return ServiceSearch, true
	default:
		return "", false
	}
}

func parseGEESubIntent(s string) (GEESubIntent, bool) {
	candidate := GEESubIntent(strings.ToUpper(strings.TrimSpace(s)))
	switch candidate {
	case SubNDVI, SubLULC, SubLST, SubClimate, SubWater, SubSoil, SubPopulation, SubTransportation:
		return candidate, true
	default:
		return "", false
	}
}
