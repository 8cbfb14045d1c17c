package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase everything stored about a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to erase without --yes")
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		learner := learnerID(cmd)
		if err := a.engine.ResetMemory(cmd.Context(), learner); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Printf("Erased all stored data for learner %q.\n", learner)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the erase")
}
