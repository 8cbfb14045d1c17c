package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mentorloop/sage/internal/analyzer"
	"github.com/mentorloop/sage/internal/engine"
	"github.com/mentorloop/sage/internal/llm"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive tutoring session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

// runChat is the interactive loop: each learner line goes through the
// engine, and the resulting directive is rendered into tutor prose by
// the provider.
func runChat(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	learner := learnerID(cmd)
	sessionID := uuid.NewString()

	fmt.Println("What would you like to learn about today? (/end to finish, /quit to leave)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nyou> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit":
			a.engine.EndSession(ctx, sessionID)
			return scanner.Err()
		case "/end":
			printFinal(a.engine.FinalizeSession(ctx, sessionID))
			sessionID = uuid.NewString()
			fmt.Println("\nReady for a new topic. What next?")
			continue
		}

		turn, err := a.engine.HandleTurn(ctx, sessionID, learner, line)
		if err != nil {
			return fmt.Errorf("handle turn: %w", err)
		}

		utterance, err := renderDirective(ctx, a, turn)
		if err != nil {
			return fmt.Errorf("render tutor reply: %w", err)
		}
		fmt.Printf("\nsage> %s\n", utterance)
		a.engine.RecordTutorUtterance(ctx, sessionID, utterance)

		if turn.MasteryReached {
			printFinal(turn.Final)
			sessionID = uuid.NewString()
			fmt.Println("\nReady for a new topic. What next?")
		}
	}
	return scanner.Err()
}

// renderDirective turns the engine's move directive into learner-facing
// prose via the provider.
func renderDirective(ctx context.Context, a *app, turn *engine.TurnResult) (string, error) {
	ctx = llm.WithPurpose(ctx, "tutor-utterance")

	system := turn.Directive.System
	if turn.Directive.Context != "" {
		system += "\n\n" + turn.Directive.Context
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Topic: %s\n", turn.Directive.Topic)
	if turn.Directive.LastQuestion != "" {
		fmt.Fprintf(&user, "Your previous question: %s\n", turn.Directive.LastQuestion)
	}
	user.WriteString("Produce your next utterance for the learner.")

	resp, err := a.provider.Generate(ctx, llm.Request{
		System: system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: user.String()},
		},
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func printFinal(final *analyzer.FinalizeResult) {
	if final == nil {
		return
	}
	fmt.Printf("\n── Session summary ──\n%s\n", final.Summary)

	sug := final.Suggestion
	if sug == nil {
		return
	}
	switch sug.Kind {
	case analyzer.SuggestionStudyPlan:
		fmt.Printf("\nSuggested next: a short study plan for %s\n", sug.Topic)
		for _, mod := range sug.Plan {
			fmt.Printf("  • %s", mod.Topic)
			if mod.Description != "" {
				fmt.Printf(": %s", mod.Description)
			}
			fmt.Println()
			for _, sub := range mod.Subtopics {
				fmt.Printf("      - %s\n", sub.Topic)
			}
		}
	case analyzer.SuggestionFollowUp:
		fmt.Printf("\nSuggested next: go deeper on %s\n", sug.Topic)
	}
	if sug.Reason != "" {
		fmt.Printf("  (%s)\n", sug.Reason)
	}
}
