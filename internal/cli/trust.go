package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ClawSentry/ClawSentry/internal/audit"
	"github.com/ClawSentry/ClawSentry/internal/manifest"
	"github.com/ClawSentry/ClawSentry/internal/report"
)

var verifyJSON bool

var signCmd = &cobra.Command{
	Use:   "sign [skill]",
	Short: "Record trusted content hashes for installed skills",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		eng := a.manifestEngine()
		outcomes, err := eng.Sign(name)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			fmt.Fprintf(cmd.OutOrStdout(), "  [SIGNED] %s\n", o.Skill)
			fmt.Fprintf(cmd.OutOrStdout(), "           Hash: %.16s...\n", o.CompositeHash)
			fmt.Fprintf(cmd.OutOrStdout(), "           Files: %d\n", o.FileCount)
			a.recordAudit(audit.EventSign, map[string]any{
				"skill": o.Skill,
				"hash":  o.CompositeHash,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "Manifest saved: %s\n", eng.Store().Path())
		fmt.Fprintf(cmd.OutOrStdout(), "Skills signed: %d\n", len(outcomes))
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [skill]",
	Short: "Verify installed skills against the trust manifest",
	Long: "Re-hashes skill contents and compares against the signed manifest.\n" +
		"Exit codes: 0 all verified, 1 unsigned skills present, 2 tampering.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		results, err := a.manifestEngine().Verify(name)
		if err != nil {
			return err
		}

		tampered, unsigned := 0, 0
		for _, r := range results {
			switch r.State {
			case manifest.StateTampered, manifest.StateMissing:
				tampered++
			case manifest.StateUnsigned:
				unsigned++
			}
			a.recordAudit(audit.EventVerify, map[string]any{
				"skill": r.Skill,
				"state": string(r.State),
			})
		}

		if verifyJSON {
			if err := report.WriteJSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}
		} else {
			report.RenderVerify(cmd.OutOrStdout(), results)
		}

		switch {
		case tampered > 0:
			return exitWithCode(2)
		case unsigned > 0:
			return exitWithCode(1)
		default:
			return nil
		}
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List signed skills in the trust manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		m := a.manifestEngine().Store().Load()
		if m == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No trust manifest found. Run 'sign' first.")
			return exitWithCode(1)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", m.Created)
		fmt.Fprintf(cmd.OutOrStdout(), "Updated: %s\n\n", m.Updated)
		if len(m.Skills) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No skills in manifest.")
			return nil
		}

		names := make([]string, 0, len(m.Skills))
		for name := range m.Skills {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rec := m.Skills[name]
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			fmt.Fprintf(cmd.OutOrStdout(), "    Hash: %.16s...\n", rec.CompositeHash)
			fmt.Fprintf(cmd.OutOrStdout(), "    Files: %d\n", rec.FileCount)
			fmt.Fprintf(cmd.OutOrStdout(), "    Signed: %s\n\n", rec.SignedAt)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Total: %d skill(s)\n", len(m.Skills))
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Output JSON")
}
