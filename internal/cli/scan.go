package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ClawSentry/ClawSentry/internal/audit"
	"github.com/ClawSentry/ClawSentry/internal/history"
	"github.com/ClawSentry/ClawSentry/internal/report"
	"github.com/ClawSentry/ClawSentry/internal/scanner"
	"github.com/ClawSentry/ClawSentry/internal/workspace"
)

var (
	scanJSON          bool
	scanInstallIfSafe bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [skill]",
	Short: "Run the static risk scan over installed skills",
	Long: "Scans skill files against the rule catalog and prints a risk score,\n" +
		"verdict, and findings. With a skill name (or a path to a skill\n" +
		"directory) only that skill is scanned; otherwise all installed skills.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		var targets []workspace.Skill
		if len(args) == 1 {
			sk, err := resolveSkillArg(a, args[0])
			if err != nil {
				return err
			}
			targets = []workspace.Skill{sk}
		} else {
			targets, err = workspace.FindSkills(a.ws)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No skills installed.")
				return nil
			}
		}

		store, err := a.historyStore()
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		worst := scanner.VerdictSafe
		var jsonOut []report.ScanJSON
		for _, sk := range targets {
			res, err := scanner.ScanSkill(a.cfg, a.reg, sk.Path)
			if err != nil {
				return fmt.Errorf("scan %s: %w", sk.Name, err)
			}
			res.SkillName = sk.Name

			verdict := res.RiskVerdict(a.cfg.Scanner)
			if verdictRank(verdict) > verdictRank(worst) {
				worst = verdict
			}

			if scanJSON {
				jsonOut = append(jsonOut, report.NewScanJSON(res, a.cfg.Scanner))
			} else {
				report.RenderScan(cmd.OutOrStdout(), res, a.cfg.Scanner)
			}

			a.recordAudit(audit.EventScan, map[string]any{
				"skill":   sk.Name,
				"score":   res.RiskScore(a.cfg.Scanner),
				"verdict": string(verdict),
			})
			if store != nil {
				_, _ = store.Record(history.Entry{
					Skill:         sk.Name,
					Score:         res.RiskScore(a.cfg.Scanner),
					Verdict:       string(verdict),
					CriticalCount: res.CriticalCount(),
					WarningCount:  res.WarningCount(),
					InfoCount:     res.InfoCount(),
					FilesScanned:  res.FilesScanned,
				})
			}
		}

		if scanJSON {
			if len(jsonOut) == 1 {
				if err := report.WriteJSON(cmd.OutOrStdout(), jsonOut[0]); err != nil {
					return err
				}
			} else if err := report.WriteJSON(cmd.OutOrStdout(), jsonOut); err != nil {
				return err
			}
		}

		if scanInstallIfSafe && worst != scanner.VerdictSafe {
			a.recordAudit(audit.EventInstallRef, map[string]any{"verdict": string(worst)})
			return exitWithCode(1)
		}
		return nil
	},
}

// resolveSkillArg accepts an installed skill name or a path to a skill
// directory.
func resolveSkillArg(a *app, arg string) (workspace.Skill, error) {
	skills, err := workspace.FindSkills(a.ws)
	if err != nil {
		return workspace.Skill{}, err
	}
	for _, sk := range skills {
		if sk.Name == arg {
			return sk, nil
		}
	}
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return workspace.Skill{}, err
		}
		return workspace.Skill{Name: filepath.Base(abs), Path: abs}, nil
	}
	return workspace.Skill{}, fmt.Errorf("skill not found: %s", arg)
}

func verdictRank(v scanner.Verdict) int {
	switch v {
	case scanner.VerdictSafe:
		return 0
	case scanner.VerdictCaution:
		return 1
	case scanner.VerdictDanger:
		return 2
	default:
		return 3
	}
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output JSON")
	scanCmd.Flags().BoolVar(&scanInstallIfSafe, "install-if-safe", false, "Exit 0 only when every scanned skill is SAFE")
}
