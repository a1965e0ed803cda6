package llm

import "strings"

// CleanJSONBlock removes markdown code fencing from a model completion
// before unmarshalling. Grounded on phileasgo's pkg/llm/util.go.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "```json"); start != -1 {
		text = text[start+len("```json"):]
		if end := strings.LastIndex(text, "```"); end != -1 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}

	if start := strings.Index(text, "```"); start != -1 {
		text = text[start+len("```"):]
		if end := strings.LastIndex(text, "```"); end != -1 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}

	return text
}
