// Package tutor is the Socratic session protocol: per-conversation
// transient state, the closed transition table, and the move selector.
// It decides what kind of utterance to request next; it never writes
// learner-facing prose itself.
package tutor

import "time"

// ProtocolState is the closed set of Socratic session states.
type ProtocolState string

const (
	StateIntroduction       ProtocolState = "introduction"
	StateDiagnostic         ProtocolState = "diagnostic"
	StateGuidedQuestioning  ProtocolState = "guided_questioning"
	StateHinting            ProtocolState = "hinting"
	StateConsolidation      ProtocolState = "consolidation"
	StateMastery            ProtocolState = "mastery" // terminal
)

// MasteryStreak is the number of consecutive understood judgments, at
// guided questioning or later, that completes a topic.
const MasteryStreak = 3

// SessionState is the transient per-conversation record. It is owned by
// the state machine, cached best-effort, and safely reconstructable: a
// lost record just means the next message starts a fresh topic.
type SessionState struct {
	SessionID string `json:"session_id"`
	LearnerID string `json:"learner_id"`

	Module string `json:"module,omitempty"`
	Topic  string `json:"topic"`

	// LastQuestion is the most recent question the tutor asked; the next
	// reply is classified against it.
	LastQuestion string `json:"last_question,omitempty"`

	TurnCount int           `json:"turn_count"`
	State     ProtocolState `json:"state"`

	// Understood counts consecutive understood judgments toward mastery.
	Understood int `json:"understood"`

	StartedAt time.Time `json:"started_at"`
}

// NewSessionState initializes a session at the introduction state.
func NewSessionState(sessionID, learnerID, topic string) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		LearnerID: learnerID,
		Topic:     topic,
		State:     StateIntroduction,
		StartedAt: time.Now().UTC(),
	}
}

// pastDiagnostic reports whether the state is at guided questioning or
// later in the progression.
func (s ProtocolState) pastDiagnostic() bool {
	switch s {
	case StateGuidedQuestioning, StateHinting, StateConsolidation, StateMastery:
		return true
	}
	return false
}
