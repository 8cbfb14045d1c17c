// Package classify judges each learner reply against the concept the
// tutor is currently probing.
package classify

// Judgment is the closed set of discrete judgments of a learner reply.
type Judgment string

const (
	JudgmentUnderstood    Judgment = "understood"
	JudgmentStruggling    Judgment = "struggling"
	JudgmentMisconception Judgment = "misconception"
	JudgmentOffTopic      Judgment = "off_topic"
)

// Valid reports whether j is a member of the closed set.
func (j Judgment) Valid() bool {
	switch j {
	case JudgmentUnderstood, JudgmentStruggling, JudgmentMisconception, JudgmentOffTopic:
		return true
	}
	return false
}

// Input is everything the classifier needs for one reply.
type Input struct {
	// Topic is the concept the session is currently probing.
	Topic string

	// LastQuestion is the tutor's most recent question, which the reply
	// answers.
	LastQuestion string

	// Reply is the learner's utterance.
	Reply string

	// RecentTurns is compact context from the transcript, oldest first.
	RecentTurns []string
}

// Result is the typed classification handed to the move selector and
// recorded for the aggregator.
type Result struct {
	Judgment   Judgment `json:"judgment"`
	Confidence float64  `json:"confidence"`

	// Misconception names the specific wrong belief when the judgment is
	// misconception.
	Misconception string `json:"misconception,omitempty"`

	// Reasoning is the model's one-sentence justification, recorded for
	// the aggregator.
	Reasoning string `json:"reasoning,omitempty"`

	// Fallback is true when the collaborator failed and the conservative
	// default was substituted.
	Fallback bool `json:"fallback,omitempty"`
}
