package services

import (
	"fmt"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// ExtractionSystemInstruction is the fixed system-level instruction sent
// with every résumé extraction call.
const ExtractionSystemInstruction = `You are a precise data-extraction engine. You convert unstructured résumé text into a single JSON document that conforms to a provided JSON schema. You respond with JSON only, without markdown fences or commentary.`

// BuildExtractionPrompt creates the user prompt for the résumé-to-profile
// extraction: fixed rules, the literal schema document, and the résumé text
// verbatim.
func (pb *PromptBuilder) BuildExtractionPrompt(schemaDoc, resumeText string) string {
	return fmt.Sprintf(`Extract a structured profile from the résumé below.

EXTRACTION RULES:
1. Return a single JSON object conforming to the schema. No surrounding prose.
2. Use null for optional fields that are not present in the résumé.
3. Use empty arrays for list fields with no entries.
4. Format all dates as ISO 8601 (YYYY-MM-DD; YYYY-MM when the day is unknown).
5. For required fields the résumé does not state explicitly, infer the most plausible value from context rather than leaving them out.
6. Do not invent employers, degrees, or certifications that the résumé does not mention.

JSON SCHEMA:
%s

RÉSUMÉ:
%s`, schemaDoc, resumeText)
}
