package tutor

// Move is the closed set of pedagogical moves. A move names the kind of
// utterance to request from the language-model collaborator, not the
// utterance itself.
type Move string

const (
	MoveIntroduceQuestion  Move = "introduce-question"
	MoveProbeDiagnostic    Move = "probe-diagnostic"
	MoveAskLeadingQuestion Move = "ask-leading-question"
	MoveGiveHint           Move = "give-hint"
	MoveCelebrateAdvance   Move = "celebrate-and-advance"
	MoveRedirect           Move = "redirect"
)

// moveForState maps each protocol state to the move that serves it.
// Exhaustive over the closed state set; adding a state without a move
// is caught by the default panic in tests.
func moveForState(s ProtocolState) Move {
	switch s {
	case StateIntroduction:
		return MoveIntroduceQuestion
	case StateDiagnostic:
		return MoveProbeDiagnostic
	case StateGuidedQuestioning:
		return MoveAskLeadingQuestion
	case StateHinting:
		return MoveGiveHint
	case StateConsolidation:
		return MoveAskLeadingQuestion
	case StateMastery:
		return MoveCelebrateAdvance
	}
	panic("tutor: no move for state " + string(s))
}
