// Package intent implements IntentClassifier: hierarchical LLM classification
// (top-level service routing, then GEE sub-intent) backed by a keyword
// scorer that guarantees a result for every input, blended per
// SPEC_FULL.md §4 item 3. Grounded on original_source's
// core_llm_agent/intent/{intent_classifier,top_level_classifier,
// gee_subclassifier}.py for the two-stage shape and keyword tables, and on
// aurel42-phileasgo's llm.Provider for the LLM call shape.
package intent

import "time"

// ServiceType is the top-level routing decision.
type ServiceType string

const (
	ServiceGEE    ServiceType = "GEE"
	ServiceRAG    ServiceType = "RAG"
	ServiceSearch ServiceType = "SEARCH"
)

// GEESubIntent enumerates the GEE analysis sub-types, per spec §3.
type GEESubIntent string

const (
	SubNDVI           GEESubIntent = "NDVI"
	SubLULC           GEESubIntent = "LULC"
	SubLST            GEESubIntent = "LST"
	SubWater          GEESubIntent = "WATER"
	SubClimate        GEESubIntent = "CLIMATE"
	SubSoil           GEESubIntent = "SOIL"
	SubPopulation     GEESubIntent = "POPULATION"
	SubTransportation GEESubIntent = "TRANSPORTATION"
)

// TimeRange is an inclusive date window extracted from the query.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// IntentResult is IntentClassifier's output, per spec §3. Invariant:
// ServiceType == ServiceGEE implies GEESubIntent != "".
type IntentResult struct {
	ServiceType    ServiceType  `json:"service_type"`
	Confidence     float64      `json:"confidence"`
	GEESubIntent   GEESubIntent `json:"gee_sub_intent,omitempty"`
	GEEConfidence  float64      `json:"gee_confidence,omitempty"`
	AnalysisType   string       `json:"analysis_type"`
	TimeRange      *TimeRange   `json:"time_range,omitempty"`
	Metrics        []string     `json:"metrics"`
	Reasoning      string       `json:"reasoning"`
	ProcessingTime time.Duration `json:"processing_time"`
	ModelUsed      string       `json:"model_used"`
	Success        bool         `json:"success"`
	Error          string       `json:"error,omitempty"`
}
