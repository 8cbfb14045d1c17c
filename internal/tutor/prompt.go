package tutor

import (
	"fmt"
	"strings"
)

// Directive tells the calling chat layer what kind of utterance to
// request from the language-model collaborator. The core never writes
// learner-facing prose; this is as close as it gets.
type Directive struct {
	Move Move `json:"move"`

	// System is the system prompt for the completion call.
	System string `json:"system"`

	// Context is prompt-context assembled for this turn: memory prefix,
	// and on the first turn of a topic, retrieved reference material.
	Context string `json:"context,omitempty"`

	// Topic and LastQuestion orient the completion.
	Topic        string `json:"topic"`
	LastQuestion string `json:"last_question,omitempty"`
}

// moveInstructions phrases each move as an instruction to the model.
var moveInstructions = map[Move]string{
	MoveIntroduceQuestion:  "Open the topic with one inviting question that surfaces what the learner already knows. Do not lecture.",
	MoveProbeDiagnostic:    "Ask one focused diagnostic question that pins down exactly where the learner's understanding stops.",
	MoveAskLeadingQuestion: "Ask one leading question that lets the learner take the next step themselves. Never give the answer.",
	MoveGiveHint:           "Offer one concrete hint that unblocks the learner, then re-ask the question in a simpler form.",
	MoveCelebrateAdvance:   "Acknowledge that the learner has demonstrated understanding, summarize what they worked out, and invite a next topic.",
	MoveRedirect:           "Gently steer the conversation back to the current topic with a bridging question.",
}

// BuildDirective assembles the completion directive for a turn.
// memoryContext comes from the memory injector (empty for opted-out
// learners); referenceText is attached only on the first turn of a
// topic.
func BuildDirective(s *SessionState, move Move, memoryContext, referenceText string) *Directive {
	var system strings.Builder
	system.WriteString("You are a wise Socratic tutor. Guide the learner to the answer; never give it directly.\n")
	fmt.Fprintf(&system, "Current topic: %s\n", s.Topic)
	if s.Module != "" {
		fmt.Fprintf(&system, "Module: %s\n", s.Module)
	}
	fmt.Fprintf(&system, "Instruction for this turn: %s", moveInstructions[move])

	var ctx strings.Builder
	if memoryContext != "" {
		ctx.WriteString(memoryContext)
	}
	if s.TurnCount == 0 && referenceText != "" {
		if ctx.Len() > 0 {
			ctx.WriteString("\n\n")
		}
		ctx.WriteString("REFERENCE MATERIAL:\n")
		ctx.WriteString(referenceText)
	}

	return &Directive{
		Move:         move,
		System:       system.String(),
		Context:      ctx.String(),
		Topic:        s.Topic,
		LastQuestion: s.LastQuestion,
	}
}
