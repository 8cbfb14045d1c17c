// Package analyzer re-evaluates a learner's standing from the session
// transcript: periodically in the background, and synchronously (but
// non-fatally) at session finalize.
package analyzer

// Turn is one transcript entry handed to the analyzer.
type Turn struct {
	Role     string `json:"role"` // "learner" or "tutor"
	Content  string `json:"content"`
	Judgment string `json:"judgment,omitempty"` // classification of learner turns
}

// Gap is a ranked knowledge gap extracted from the transcript.
// Score is normalized to [0, 1]; lower means weaker.
type Gap struct {
	Concept  string  `json:"concept"`
	Score    float64 `json:"score"`
	Evidence string  `json:"evidence,omitempty"`
}

// Analysis is the structured outcome of one analysis pass.
type Analysis struct {
	Summary        string   `json:"summary"`
	Observations   []string `json:"observations,omitempty"`
	Gaps           []Gap    `json:"gaps,omitempty"`
	Misconceptions []struct {
		Concept     string `json:"concept"`
		Description string `json:"description"`
		Evidence    string `json:"evidence,omitempty"`
	} `json:"misconceptions,omitempty"`
}

// SuggestionKind discriminates the one suggestion a finalize returns.
type SuggestionKind string

const (
	SuggestionStudyPlan SuggestionKind = "study_plan"
	SuggestionFollowUp  SuggestionKind = "follow_up"
)

// PlanItem is one subtopic in a study-plan outline.
type PlanItem struct {
	Topic       string `json:"topic"`
	Description string `json:"description,omitempty"`
}

// PlanModule is one module of a study-plan outline.
type PlanModule struct {
	Topic       string     `json:"topic"`
	Description string     `json:"description,omitempty"`
	Subtopics   []PlanItem `json:"subtopics,omitempty"`
}

// Suggestion is the single study suggestion attached to a finalize.
type Suggestion struct {
	Kind   SuggestionKind `json:"kind"`
	Topic  string         `json:"topic"`
	Reason string         `json:"reason,omitempty"`

	// Plan is the module outline for study-plan suggestions; may be
	// empty when outline generation degrades.
	Plan []PlanModule `json:"plan,omitempty"`
}

// FinalizeResult is what a session finalize hands back to the caller.
type FinalizeResult struct {
	Summary    string      `json:"summary"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
}
