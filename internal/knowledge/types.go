// Package knowledge holds the durable per-learner record of concept
// mastery and the aggregator that folds session outcomes back into it.
package knowledge

import "time"

// MasteryThreshold is the canonical score at or above which a concept
// counts as mastered. Applied uniformly: level promotion, health checks
// and summary bucketing all use this one value.
const MasteryThreshold = 85

// MaxInsights caps the per-learner session insight log. Oldest entries
// are evicted first.
const MaxInsights = 50

// ConceptCategory classifies a concept's place in the subject.
type ConceptCategory string

const (
	CategoryFundamental  ConceptCategory = "fundamental"
	CategoryIntermediate ConceptCategory = "intermediate"
	CategoryAdvanced     ConceptCategory = "advanced"
	CategorySpecialized  ConceptCategory = "specialized"
)

// UnderstandingLevel is the ordered progression of a learner's command
// of a concept.
type UnderstandingLevel string

const (
	LevelNotExposed  UnderstandingLevel = "not_exposed"
	LevelStruggling  UnderstandingLevel = "struggling"
	LevelLearning    UnderstandingLevel = "learning"
	LevelComfortable UnderstandingLevel = "comfortable"
	LevelMastered    UnderstandingLevel = "mastered"
)

// Difficulty is how hard this concept is for this particular learner.
type Difficulty string

const (
	DifficultyLow      Difficulty = "low"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHigh     Difficulty = "high"
)

// Relation links two concepts.
type Relation string

const (
	RelationPrerequisite Relation = "prerequisite"
	RelationBuildsOn     Relation = "builds_on"
	RelationRelated      Relation = "related"
	RelationAdvancedForm Relation = "advanced_form"
)

// RelatedConcept is a typed link from one concept to another.
type RelatedConcept struct {
	Name     string   `json:"name"`
	Relation Relation `json:"relation"`
}

// Observation is a strength, weakness or misconception with its
// supporting evidence text.
type Observation struct {
	Summary  string    `json:"summary"`
	Evidence string    `json:"evidence,omitempty"`
	At       time.Time `json:"at"`
}

// ConceptRecord is the per-(learner, concept) mastery record.
type ConceptRecord struct {
	Name     string          `json:"name"`
	Category ConceptCategory `json:"category"`

	Level        UnderstandingLevel `json:"level"`
	MasteryScore int                `json:"mastery_score"` // 0-100, clamped
	Difficulty   Difficulty         `json:"difficulty"`
	Confidence   float64            `json:"confidence"` // 0-1

	Strengths      []Observation `json:"strengths,omitempty"`
	Weaknesses     []Observation `json:"weaknesses,omitempty"`
	Misconceptions []Observation `json:"misconceptions,omitempty"`

	TotalInteractions      int `json:"total_interactions"`
	SuccessfulInteractions int `json:"successful_interactions"`

	FirstExposure   time.Time `json:"first_exposure"`
	LastInteraction time.Time `json:"last_interaction"`

	Related []RelatedConcept `json:"related,omitempty"`
}

// LearningProfile captures how this learner learns.
type LearningProfile struct {
	DominantStyle       LearningStyle       `json:"dominant_style"`
	Pace                Pace                `json:"pace"`
	PreferredDepth      Depth               `json:"preferred_depth"`
	ChallengeResponse   ChallengeResponse   `json:"challenge_response"`
	QuestioningBehavior QuestioningBehavior `json:"questioning_behavior"`
}

// LearningStyle is the learner's dominant modality.
type LearningStyle string

const (
	StyleUnknown       LearningStyle = "unknown"
	StyleVisual        LearningStyle = "visual"
	StyleVerbal        LearningStyle = "verbal"
	StyleExampleDriven LearningStyle = "example_driven"
	StyleTheoryFirst   LearningStyle = "theory_first"
)

// Pace is how quickly the learner moves through material.
type Pace string

const (
	PaceUnknown  Pace = "unknown"
	PaceSlow     Pace = "slow"
	PaceModerate Pace = "moderate"
	PaceFast     Pace = "fast"
)

// Depth is the learner's preferred level of detail.
type Depth string

const (
	DepthUnknown  Depth = "unknown"
	DepthOverview Depth = "overview"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// ChallengeResponse is how the learner reacts when stuck.
type ChallengeResponse string

const (
	ChallengeUnknown   ChallengeResponse = "unknown"
	ChallengePersists  ChallengeResponse = "persists"
	ChallengeSeeksHelp ChallengeResponse = "seeks_help"
	ChallengeAvoids    ChallengeResponse = "avoids"
)

// QuestioningBehavior is how often the learner asks their own questions.
type QuestioningBehavior string

const (
	QuestioningUnknown    QuestioningBehavior = "unknown"
	QuestioningRare       QuestioningBehavior = "rare"
	QuestioningOccasional QuestioningBehavior = "occasional"
	QuestioningFrequent   QuestioningBehavior = "frequent"
)

// StrugglePattern is a recurring qualitative struggle with its
// occurrence count and example concepts.
type StrugglePattern struct {
	Pattern     string    `json:"pattern"`
	Occurrences int       `json:"occurrences"`
	Examples    []string  `json:"examples,omitempty"`
	LastSeen    time.Time `json:"last_seen"`
}

// SessionInsight is one entry in the bounded per-session insight log.
type SessionInsight struct {
	SessionID    string    `json:"session_id"`
	Observations []string  `json:"observations"`
	At           time.Time `json:"at"`
}

// MasteredTopic is a mastered topic with its review schedule.
type MasteredTopic struct {
	Name       string    `json:"name"`
	MasteredAt time.Time `json:"mastered_at"`
	NextReview time.Time `json:"next_review"`
}

// EngagementMetrics tracks coarse participation.
type EngagementMetrics struct {
	TotalSessions int       `json:"total_sessions"`
	TotalTurns    int       `json:"total_turns"`
	LastActive    time.Time `json:"last_active"`
}

// TopicCompletion records one completed topic and its parent module.
type TopicCompletion struct {
	TopicID string `json:"topic_id"`
	Module  string `json:"module"`
}

// CourseProgress tracks per-course completion, used only for
// prerequisite gating. Mutated exclusively by topic-completion events.
type CourseProgress struct {
	CompletedSubtopics []string          `json:"completed_subtopics,omitempty"`
	CompletedTopics    []TopicCompletion `json:"completed_topics,omitempty"`
	CurrentTopic       string            `json:"current_topic,omitempty"`
	CurrentModule      string            `json:"current_module,omitempty"`
	LastActive         time.Time         `json:"last_active"`
}

// State is the full per-learner knowledge state document.
type State struct {
	LearnerID string `json:"learner_id"`

	// Concepts is ordered by first exposure. Names are unique
	// case-insensitively.
	Concepts []*ConceptRecord `json:"concepts"`

	Profile          LearningProfile            `json:"profile"`
	FocusAreas       []string                   `json:"focus_areas,omitempty"`
	MasteredTopics   []MasteredTopic            `json:"mastered_topics,omitempty"`
	StrugglePatterns []StrugglePattern          `json:"struggle_patterns,omitempty"`
	Insights         []SessionInsight           `json:"insights,omitempty"`
	Engagement       EngagementMetrics          `json:"engagement"`
	Courses          map[string]*CourseProgress `json:"courses,omitempty"`

	// OptOut makes every write a no-op and empties memory injection.
	OptOut bool `json:"opt_out"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState returns a fresh empty state for a learner.
func NewState(learnerID string) *State {
	now := time.Now().UTC()
	return &State{
		LearnerID: learnerID,
		Profile: LearningProfile{
			DominantStyle:       StyleUnknown,
			Pace:                PaceUnknown,
			PreferredDepth:      DepthUnknown,
			ChallengeResponse:   ChallengeUnknown,
			QuestioningBehavior: QuestioningUnknown,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FindConcept returns the record matching name case-insensitively, or nil.
func (s *State) FindConcept(name string) *ConceptRecord {
	key := NormalizeConcept(name)
	for _, c := range s.Concepts {
		if NormalizeConcept(c.Name) == key {
			return c
		}
	}
	return nil
}

// LevelForScore derives the understanding level implied by a mastery
// score. A record with no interactions stays not_exposed regardless.
func LevelForScore(score int) UnderstandingLevel {
	switch {
	case score >= MasteryThreshold:
		return LevelMastered
	case score >= 65:
		return LevelComfortable
	case score >= 40:
		return LevelLearning
	default:
		return LevelStruggling
	}
}

// ClampScore bounds a mastery score to [0, 100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
