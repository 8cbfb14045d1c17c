package classify

import "github.com/mentorloop/sage/internal/llm"

// ResultSchema is the structured-output contract for reply
// classification.
var ResultSchema = &llm.Schema{
	Name:        "reply-classification",
	Description: "Judgment of a learner's reply against the concept being probed",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"judgment": map[string]any{
				"type": "string",
				"enum": []any{"understood", "struggling", "misconception", "off_topic"},
			},
			"confidence": map[string]any{
				"type":        "number",
				"description": "How certain the judgment is, 0.0-1.0",
			},
			"misconception": map[string]any{
				"type":        "string",
				"description": "The specific wrong belief, only when judgment is misconception",
			},
			"reasoning": map[string]any{
				"type":        "string",
				"description": "One sentence explaining the judgment",
			},
		},
		"required": []any{"judgment", "confidence", "reasoning"},
	},
}
