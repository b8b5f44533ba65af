package cli

import (
	"github.com/spf13/cobra"

	"github.com/ClawSentry/ClawSentry/internal/audit"
	"github.com/ClawSentry/ClawSentry/internal/dlp"
	"github.com/ClawSentry/ClawSentry/internal/report"
)

var (
	urlsJSON       bool
	urlsSkillsOnly bool
)

var urlsCmd = &cobra.Command{
	Use:   "urls [skill]",
	Short: "Scan for data-exfiltration URLs and network calls",
	Long: "Extracts every URL in the workspace, classifies it by exfiltration\n" +
		"risk, and flags network calls in skill code. With a skill name, only\n" +
		"that skill is scanned. Exit codes: 0 clean, 1 network calls found,\n" +
		"2 exfiltration risk.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		var rep *dlp.Report
		if len(args) == 1 {
			sk, err := resolveSkillArg(a, args[0])
			if err != nil {
				return err
			}
			rep, err = a.dlpScanner().ScanSkill(sk.Path)
			if err != nil {
				return err
			}
		} else {
			rep, err = a.dlpScanner().ScanWorkspace(a.ws, urlsSkillsOnly)
			if err != nil {
				return err
			}
		}
		a.recordAudit(audit.EventDLPScan, map[string]any{
			"files":    rep.FilesScanned,
			"critical": rep.CriticalCount(),
			"high":     rep.HighCount(),
		})

		if urlsJSON {
			if err := report.WriteJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
		} else {
			report.RenderDLP(cmd.OutOrStdout(), rep)
		}

		switch {
		case rep.CriticalCount() > 0:
			return exitWithCode(2)
		case rep.HighCount() > 0:
			return exitWithCode(1)
		default:
			return nil
		}
	},
}

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List external domains referenced in the workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		rep, err := a.dlpScanner().ScanWorkspace(a.ws, false)
		if err != nil {
			return err
		}
		report.RenderDomains(cmd.OutOrStdout(), rep.Domains())
		return nil
	},
}

func init() {
	urlsCmd.Flags().BoolVar(&urlsJSON, "json", false, "Output JSON")
	urlsCmd.Flags().BoolVar(&urlsSkillsOnly, "skills-only", false, "Only scan the skills directory")
}
