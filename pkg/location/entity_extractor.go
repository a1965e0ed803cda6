package location

import (
	"context"
	"regexp"
	"strings"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/geoqa/geoqa/pkg/llm"
)

// EntityExtractor recognizes place mentions in a raw query. Implementations
// must be resilient to empty/malformed upstream responses: returning an
// empty slice is always preferable to failing, per SPEC_FULL.md §4.1.
type EntityExtractor interface {
	Extract(ctx context.Context, query string) ([]LocationEntity, error)
}

// llmNERPrompt asks the model for a flat JSON array of entities. Grounded on
// phileasgo's GenerateJSON usage pattern (pkg/llm/provider.go): the prompt
// describes the schema inline since OpenRouter's json_object mode does not
// accept a JSON Schema.
const llmNERPrompt = `Identify every place name mentioned in the query below: cities, states,
districts, countries, or explicit points. Respond with a JSON object of the
shape {"entities":[{"matched_name":"...","type":"city|state|district|country|point|other","confidence":0.0-1.0}]}.
If no place is mentioned, respond {"entities":[]}.

Query: %s`

// LLMEntityExtractor implements EntityExtractor against an llm.Provider.
// Grounded on aurel42-phileasgo's pkg/llm Provider shape; the NER call uses
// the "ner" profile key of the configured OpenRouterClient.
type LLMEntityExtractor struct {
	provider llm.Provider
	profile  string
	fallback *HeuristicEntityExtractor
}

// NewLLMEntityExtractor wraps provider, falling back to a heuristic
// place-token matcher when the LLM call fails outright.
func NewLLMEntityExtractor(provider llm.Provider, profile string) *LLMEntityExtractor {
	if profile == "" {
		profile = "ner"
	}
	return &LLMEntityExtractor{
		provider: provider,
		profile:  profile,
		fallback: NewHeuristicEntityExtractor(),
	}
}

type nerResponse struct {
	Entities []LocationEntity `json:"entities"`
}

// Extract implements EntityExtractor. A malformed or empty LLM response
// yields an empty entity list, not an error: only a transport failure that
// the heuristic fallback also cannot resolve returns ner_unavailable.
func (e *LLMEntityExtractor) Extract(ctx context.Context, query string) ([]LocationEntity, error) {
	var resp nerResponse
	err := e.provider.GenerateJSON(ctx, e.profile, sprintfPrompt(query), &resp)
	if err != nil {
		entities := e.fallback.extractTokens(query)
		if len(entities) == 0 {
			return nil, core.NewError(core.ErrNERUnavailable, "NER call failed and no known place token matched").
				WithGuidance(err.Error())
		}
		return entities, nil
	}
	if resp.Entities == nil {
		return []LocationEntity{}, nil
	}
	return resp.Entities, nil
}

func sprintfPrompt(query string) string {
	return strings.Replace(llmNERPrompt, "%s", query, 1)
}

// HeuristicEntityExtractor is a dependency-free fallback: it matches a small
// table of well-known place tokens (literal coordinates are not matched
// here; Parser handles them via literalCoordPattern), used both
// as LLMEntityExtractor's fallback and standalone when no LLM is configured.
type HeuristicEntityExtractor struct {
	knownPlaces map[string]EntityType
}

// NewHeuristicEntityExtractor builds the fallback matcher. The place table is
// intentionally small: its job is only to keep the stage from failing when
// the LLM is unreachable, not to be a complete gazetteer.
func NewHeuristicEntityExtractor() *HeuristicEntityExtractor {
	return &HeuristicEntityExtractor{
		knownPlaces: map[string]EntityType{
			"mumbai": EntityCity, "delhi": EntityCity, "bangalore": EntityCity,
			"bengaluru": EntityCity, "kolkata": EntityCity, "chennai": EntityCity,
			"hyderabad": EntityCity, "pune": EntityCity, "ahmedabad": EntityCity,
			"jaipur": EntityCity, "surat": EntityCity, "lucknow": EntityCity,
			"kanpur": EntityCity, "india": EntityCountry,
		},
	}
}

func (h *HeuristicEntityExtractor) Extract(_ context.Context, query string) ([]LocationEntity, error) {
	return h.extractTokens(query), nil
}

func (h *HeuristicEntityExtractor) extractTokens(query string) []LocationEntity {
	lower := strings.ToLower(query)
	var entities []LocationEntity
	for token, typ := range h.knownPlaces {
		if strings.Contains(lower, token) {
			entities = append(entities, LocationEntity{
				MatchedName: token,
				Type:        typ,
				Confidence:  0.5,
			})
		}
	}
	return entities
}

// literalCoordPattern matches a bare "lat, lng" pair, e.g. "19.0760, 72.8777"
// or "19.0760,72.8777", per SPEC_FULL.md §8 property 8. Kept deliberately
// strict (decimal degrees only) since it exists to satisfy the round-trip
// invariant, not to parse DMS or compass-letter formats.
var literalCoordPattern = regexp.MustCompile(`(-?\d{1,3}(?:\.\d+)?)\s*,\s*(-?\d{1,3}(?:\.\d+)?)`)
