package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var optoutCmd = &cobra.Command{
	Use:   "optout [on|off]",
	Short: "Stop (or resume) persisting knowledge about a learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var optOut bool
		switch args[0] {
		case "on":
			optOut = true
		case "off":
			optOut = false
		default:
			return fmt.Errorf("argument must be \"on\" or \"off\", got %q", args[0])
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		learner := learnerID(cmd)
		if err := a.engine.SetMemoryOptOut(cmd.Context(), learner, optOut); err != nil {
			return fmt.Errorf("set opt-out: %w", err)
		}
		if optOut {
			fmt.Printf("Learner %q opted out: existing data is kept but frozen.\n", learner)
		} else {
			fmt.Printf("Learner %q opted back in.\n", learner)
		}
		return nil
	},
}
