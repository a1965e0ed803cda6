package intent

import "fmt"

// blendWeight is the LLM share of the blended confidence when the LLM and
// keyword scorer agree, per SPEC_FULL.md §4 item 3 (hybrid_query_analyzer.py
// generalized from a regex/LLM blend to an LLM/keyword-scorer blend).
const blendWeight = 0.8

// blendConfidence merges an LLM confidence with a keyword-scorer confidence
// for the same decision. When they agree on which label wins, the blended
// confidence is 0.8*llm + 0.2*keyword; on disagreement the LLM's confidence
// wins outright and the disagreement is recorded in the returned reasoning
// suffix.
func blendConfidence(llmLabel, keywordLabel string, llmConfidence, keywordConfidence float64) (float64, string) {
	if llmLabel == keywordLabel {
		blended := blendWeight*llmConfidence + (1-blendWeight)*keywordConfidence
		return blended, fmt.Sprintf("llm and keyword scorer agreed on %s (blended confidence)", llmLabel)
	}
	return llmConfidence, fmt.Sprintf("llm (%s) and keyword scorer (%s) disagreed, llm wins", llmLabel, keywordLabel)
}
