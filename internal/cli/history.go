package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ClawSentry/ClawSentry/internal/report"
)

var (
	historyJSON  bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [skill]",
	Short: "Show recorded scan results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		store, err := a.historyStore()
		if err != nil {
			return err
		}
		if store == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "History is disabled in config.")
			return nil
		}
		defer store.Close()

		skill := ""
		if len(args) == 1 {
			skill = args[0]
		}
		entries, err := store.Recent(skill, historyLimit)
		if err != nil {
			return err
		}
		if historyJSON {
			return report.WriteJSON(cmd.OutOrStdout(), entries)
		}
		report.RenderHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output JSON")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries to show")
}
