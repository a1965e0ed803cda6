// Package formatter implements ResultFormatter (spec §4.6): uniform
// response assembly, an emoji header when the backend's text lacks one, a
// per-indicator natural-language summary template, ROI passthrough or
// synthesis, evidence-trail aggregation, and confidence blending.
// Grounded on original_source/backend/app/services/core_llm_agent/output/
// result_formatter.py's format_final_result/_build_natural_language_summary/
// _enhance_analysis/_format_roi/_build_evidence, reworked from its
// dict-based Dict[str, Any] contract into a typed FormattedResult.
package formatter

import "time"

// FormattedResult is ResultFormatter's output, the final agent contract
// shape per spec §4.6.
type FormattedResult struct {
	Analysis       string         `json:"analysis"`
	Summary        string         `json:"summary"`
	ROI            map[string]any `json:"roi,omitempty"`
	Evidence       []string       `json:"evidence"`
	Sources        []string       `json:"sources,omitempty"`
	Confidence     float64        `json:"confidence"`
	Metadata       map[string]any `json:"metadata"`
	Success        bool           `json:"success"`
	Error          string         `json:"error,omitempty"`
	ErrorType      string         `json:"error_type,omitempty"`
	ProcessingTime time.Duration  `json:"processing_time"`
}
