package tutor

import "github.com/mentorloop/sage/internal/classify"

// Outcome is the result of feeding one classified reply through the
// transition table.
type Outcome struct {
	// State is the protocol state after the transition.
	State ProtocolState

	// Move is the pedagogical move to request next.
	Move Move

	// MasteryReached is true when this turn completed the topic. The
	// caller destroys the session state in response.
	MasteryReached bool

	// CountsTurn is false for off-topic replies, which do not advance
	// the conversation toward mastery.
	CountsTurn bool
}

// Advance applies one classification to the session state and returns
// the outcome. Pure with respect to everything but s: no I/O, fully
// deterministic, exhaustively matched over the closed judgment set.
func Advance(s *SessionState, result *classify.Result) Outcome {
	switch result.Judgment {
	case classify.JudgmentUnderstood:
		s.Understood++
		if s.State.pastDiagnostic() && s.Understood >= MasteryStreak {
			s.State = StateMastery
			s.TurnCount++
			return Outcome{
				State:          StateMastery,
				Move:           MoveCelebrateAdvance,
				MasteryReached: true,
				CountsTurn:     true,
			}
		}
		s.State = progressOnUnderstood(s.State, s.Understood)

	case classify.JudgmentStruggling, classify.JudgmentMisconception:
		s.Understood = 0
		s.State = regressOnStruggle(s.State)

	case classify.JudgmentOffTopic:
		// State and counters untouched; redirect without consuming a
		// turn toward mastery.
		return Outcome{State: s.State, Move: MoveRedirect, CountsTurn: false}

	default:
		// Unknown judgments cannot arrive from the closed classifier
		// set; treat defensively as struggling.
		s.Understood = 0
		s.State = regressOnStruggle(s.State)
	}

	s.TurnCount++
	return Outcome{State: s.State, Move: moveForState(s.State), CountsTurn: true}
}

// progressOnUnderstood moves the session forward after a correct reply.
func progressOnUnderstood(s ProtocolState, streak int) ProtocolState {
	switch s {
	case StateIntroduction:
		return StateDiagnostic
	case StateDiagnostic:
		return StateGuidedQuestioning
	case StateGuidedQuestioning:
		// One understood short of mastery moves to consolidation to
		// confirm with a synthesis question.
		if streak == MasteryStreak-1 {
			return StateConsolidation
		}
		return StateGuidedQuestioning
	case StateHinting:
		return StateGuidedQuestioning
	case StateConsolidation:
		return StateConsolidation
	case StateMastery:
		return StateMastery
	}
	return s
}

// regressOnStruggle moves the session toward hinting. Regression never
// passes diagnostic going backward: a struggling learner gets probed or
// hinted, never re-introduced.
func regressOnStruggle(s ProtocolState) ProtocolState {
	switch s {
	case StateIntroduction:
		return StateDiagnostic
	case StateDiagnostic:
		return StateHinting
	case StateGuidedQuestioning, StateHinting, StateConsolidation:
		return StateHinting
	case StateMastery:
		return StateMastery
	}
	return s
}
