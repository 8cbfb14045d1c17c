package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a learner's full stored record as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		st, err := a.engine.ExportMemory(cmd.Context(), learnerID(cmd))
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}

		out, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("encode export: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}
