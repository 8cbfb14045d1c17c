package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/mentorloop/sage/internal/analyzer"
	"github.com/mentorloop/sage/internal/llm"
)

const historySystemPrompt = `You compress tutoring conversation history.

Produce a short paragraph capturing what was discussed, what the learner got right, and where they struggled. Keep every detail a tutor would need to continue the session; drop everything else.`

// summarizeTurns folds older transcript turns, plus any prior rolling
// summary, into one compact paragraph.
func (e *Engine) summarizeTurns(ctx context.Context, prior string, turns []analyzer.Turn) (string, error) {
	ctx = llm.WithPurpose(ctx, "history-compression")

	var b strings.Builder
	if prior != "" {
		fmt.Fprintf(&b, "Summary of the conversation so far:\n%s\n\n", prior)
	}
	b.WriteString("Turns to fold in:\n")
	for _, t := range turns {
		role := "Tutor"
		if t.Role == roleLearner {
			role = "Learner"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		System: historySystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: b.String()},
		},
		MaxTokens: 512,
	})
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(resp.Text())
	if summary == "" {
		return "", fmt.Errorf("empty history summary")
	}
	return summary, nil
}
