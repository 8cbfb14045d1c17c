package analyzer

import "github.com/mentorloop/sage/internal/llm"

// analysisSchema is the structured-output contract for transcript
// analysis.
var analysisSchema = &llm.Schema{
	Name:        "session-analysis",
	Description: "Knowledge assessment extracted from a tutoring transcript",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "Two or three sentences describing what was covered and how the learner did",
			},
			"observations": map[string]any{
				"type":        "array",
				"description": "Notable qualitative observations about the learner, at most five",
				"items":       map[string]any{"type": "string"},
			},
			"gaps": map[string]any{
				"type":        "array",
				"description": "Concepts touched in the session ranked by understanding, weakest first",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"concept": map[string]any{"type": "string"},
						"score": map[string]any{
							"type":        "number",
							"description": "Demonstrated understanding, 0.0 (none) to 1.0 (solid)",
						},
						"evidence": map[string]any{
							"type":        "string",
							"description": "One quote or paraphrase supporting the score",
						},
					},
					"required": []any{"concept", "score"},
				},
			},
			"misconceptions": map[string]any{
				"type":        "array",
				"description": "Specific wrong beliefs the learner voiced",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"concept":     map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
						"evidence":    map[string]any{"type": "string"},
					},
					"required": []any{"concept", "description"},
				},
			},
		},
		"required": []any{"summary", "gaps"},
	},
}

// planSchema is the structured-output contract for a study-plan outline.
var planSchema = &llm.Schema{
	Name:        "study-plan",
	Description: "Module outline for targeted remediation of one weak topic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"modules": map[string]any{
				"type":        "array",
				"description": "Two to four modules, ordered from prerequisite to goal",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic":       map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
						"subtopics": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"topic":       map[string]any{"type": "string"},
									"description": map[string]any{"type": "string"},
								},
								"required": []any{"topic"},
							},
						},
					},
					"required": []any{"topic"},
				},
			},
		},
		"required": []any{"modules"},
	},
}
