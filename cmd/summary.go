package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show what the tutor knows about a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		learner := learnerID(cmd)

		sum, err := a.engine.KnowledgeSummary(ctx, learner)
		if err != nil {
			return fmt.Errorf("generate summary: %w", err)
		}

		fmt.Printf("Learner: %s\n", learner)
		fmt.Println(strings.Repeat("─", 60))
		fmt.Println(sum.Text)

		if len(sum.FocusAreas) > 0 {
			fmt.Printf("\nFocus areas:  %s\n", strings.Join(sum.FocusAreas, ", "))
		}
		if len(sum.TopStruggles) > 0 {
			fmt.Printf("Needs work:   %s\n", strings.Join(sum.TopStruggles, ", "))
		}

		check, _ := cmd.Flags().GetBool("check")
		if !check {
			return nil
		}

		issues, err := a.knowledge.HealthCheck(ctx, learner)
		if err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		fmt.Println()
		if len(issues) == 0 {
			fmt.Println("Health check: no issues.")
			return nil
		}
		fmt.Printf("Health check: %d issue(s)\n", len(issues))
		for _, issue := range issues {
			fmt.Printf("  %-24s %s\n", issue.Concept, issue.Detail)
		}
		return nil
	},
}

func init() {
	summaryCmd.Flags().Bool("check", false, "Also run the data health check")
}
