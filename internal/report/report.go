// Package report renders scan, verification, and DLP results for the
// terminal, plus the JSON shapes used with --json.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ClawSentry/ClawSentry/internal/config"
	"github.com/ClawSentry/ClawSentry/internal/dlp"
	"github.com/ClawSentry/ClawSentry/internal/history"
	"github.com/ClawSentry/ClawSentry/internal/manifest"
	"github.com/ClawSentry/ClawSentry/internal/rules"
	"github.com/ClawSentry/ClawSentry/internal/scanner"
)

// Per-severity display caps; full detail is always available via --json.
const (
	maxCriticalShown = 10
	maxWarningShown  = 5
	maxInfoShown     = 3
)

var (
	redBold = color.New(color.FgRed, color.Bold).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
)

func verdictLabel(v scanner.Verdict) string {
	switch v {
	case scanner.VerdictSafe:
		return green(string(v))
	case scanner.VerdictCaution:
		return yellow(string(v))
	case scanner.VerdictDanger:
		return red(string(v))
	default:
		return redBold(string(v))
	}
}

func rule(w io.Writer) {
	fmt.Fprintln(w, "════════════════════════════════════════════════════════════")
}

// RenderScan prints the skill audit report.
func RenderScan(w io.Writer, res *scanner.ScanResult, pol config.ScannerConfig) {
	fmt.Fprintln(w)
	rule(w)
	fmt.Fprintf(w, "  SKILL SECURITY AUDIT: %s\n", res.SkillName)
	rule(w)
	fmt.Fprintln(w)

	score := res.RiskScore(pol)
	fmt.Fprintf(w, "RISK SCORE: %d/100 - %s\n\n", score, verdictLabel(res.RiskVerdict(pol)))

	bySeverity := func(sev rules.Severity) []scanner.Finding {
		var out []scanner.Finding
		for _, f := range res.Findings {
			if f.Severity == sev {
				out = append(out, f)
			}
		}
		return out
	}

	if criticals := bySeverity(rules.SeverityCritical); len(criticals) > 0 {
		fmt.Fprintf(w, "%s (%d)\n", redBold("CRITICAL FINDINGS"), len(criticals))
		for i, f := range criticals {
			if i == maxCriticalShown {
				fmt.Fprintf(w, "  ... and %d more\n", len(criticals)-maxCriticalShown)
				break
			}
			fmt.Fprintf(w, "  [%s:%d]\n", f.File, f.Line)
			fmt.Fprintf(w, "    Pattern: %s\n", f.Description)
			fmt.Fprintf(w, "    Code: %s\n", f.Snippet)
		}
		fmt.Fprintln(w)
	}

	if warnings := bySeverity(rules.SeverityWarning); len(warnings) > 0 {
		fmt.Fprintf(w, "%s (%d)\n", yellow("WARNINGS"), len(warnings))
		for i, f := range warnings {
			if i == maxWarningShown {
				fmt.Fprintf(w, "  ... and %d more\n", len(warnings)-maxWarningShown)
				break
			}
			fmt.Fprintf(w, "  [%s:%d] %s\n", f.File, f.Line, f.Description)
		}
		fmt.Fprintln(w)
	}

	if infos := bySeverity(rules.SeverityInfo); len(infos) > 0 {
		fmt.Fprintf(w, "%s (%d)\n", green("INFO"), len(infos))
		for i, f := range infos {
			if i == maxInfoShown {
				fmt.Fprintf(w, "  ... and %d more\n", len(infos)-maxInfoShown)
				break
			}
			fmt.Fprintf(w, "  [%s:%d] %s\n", f.File, f.Line, f.Description)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "FILES SCANNED: %d\n", res.FilesScanned)
	fmt.Fprintf(w, "TOTAL LINES: %d\n\n", res.TotalLines)
	rule(w)
	fmt.Fprintf(w, "  %s\n", scanner.Recommendation(res.RiskVerdict(pol)))
	rule(w)
	fmt.Fprintln(w)
}

// RenderVerify prints per-skill verification outcomes with tamper detail.
func RenderVerify(w io.Writer, results []manifest.VerifyResult) {
	verified, tampered, unsigned := 0, 0, 0
	for _, r := range results {
		switch r.State {
		case manifest.StateVerified:
			verified++
			fmt.Fprintf(w, "  [%s] %s\n", green("VERIFIED"), r.Skill)
			fmt.Fprintf(w, "             Hash: %.16s...\n\n", r.Actual)
		case manifest.StateUnsigned:
			unsigned++
			fmt.Fprintf(w, "  [%s] %s\n", yellow("UNSIGNED"), r.Skill)
			fmt.Fprintln(w, "             Not in trust manifest")
			fmt.Fprintln(w)
		case manifest.StateMissing:
			tampered++
			fmt.Fprintf(w, "  [%s] %s\n", redBold("MISSING"), r.Skill)
			fmt.Fprintln(w, "            Signed skill no longer installed")
			fmt.Fprintln(w)
		case manifest.StateTampered:
			tampered++
			fmt.Fprintf(w, "  [%s] %s\n", redBold("TAMPERED"), r.Skill)
			fmt.Fprintf(w, "             Expected: %.16s...\n", r.Expected)
			fmt.Fprintf(w, "             Got:      %.16s...\n", r.Actual)
			for _, d := range r.Diffs {
				fmt.Fprintf(w, "             %-9s %s\n", string(d.Change)+":", d.Path)
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "  Verified: %d\n", verified)
	fmt.Fprintf(w, "  Tampered: %d\n", tampered)
	fmt.Fprintf(w, "  Unsigned: %d\n\n", unsigned)

	switch {
	case tampered > 0:
		fmt.Fprintln(w, redBold("ACTION REQUIRED: Skill tampering detected."))
	case unsigned > 0:
		fmt.Fprintln(w, yellow("REVIEW NEEDED: Unsigned skills detected."))
		fmt.Fprintln(w, "Run 'sign' to add them to the trust manifest.")
	default:
		fmt.Fprintln(w, green("All skills match their trusted signatures."))
	}
}

// RenderDLP prints DLP findings and the per-tier summary.
func RenderDLP(w io.Writer, rep *dlp.Report) {
	if len(rep.Findings) == 0 {
		fmt.Fprintln(w, green("[CLEAN]")+" No outbound network risks detected.")
		return
	}

	for _, f := range rep.Findings {
		label := string(f.Tier)
		switch f.Tier {
		case dlp.TierCritical:
			label = redBold(label)
		case dlp.TierHigh:
			label = red(label)
		case dlp.TierWarning:
			label = yellow(label)
		default:
			label = cyan(label)
		}
		fmt.Fprintf(w, "  [%s] %s:%d\n", label, f.File, f.Line)
		fmt.Fprintf(w, "          %s\n", f.Reason)
		if f.URL != "" {
			fmt.Fprintf(w, "          URL: %s\n", f.URL)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "  Critical: %d\n", rep.CriticalCount())
	fmt.Fprintf(w, "  High:     %d\n", rep.HighCount())
	fmt.Fprintf(w, "  Warnings: %d\n", rep.WarningCount())
	fmt.Fprintf(w, "  Info:     %d\n", rep.InfoCount())
	fmt.Fprintf(w, "  Total:    %d\n\n", len(rep.Findings))

	if domains := rep.Domains(); len(domains) > 0 {
		fmt.Fprintln(w, "  External domains found:")
		for _, d := range domains {
			fmt.Fprintf(w, "    - %s\n", d.Domain)
		}
		fmt.Fprintln(w)
	}
}

// RenderDomains prints the external-domain inventory.
func RenderDomains(w io.Writer, domains []dlp.DomainInfo) {
	if len(domains) == 0 {
		fmt.Fprintln(w, green("[CLEAN]")+" No external domains found.")
		return
	}
	for _, d := range domains {
		fmt.Fprintf(w, "  [%s] %s (%d reference(s))\n", d.Risk, d.Domain, d.Count)
		for _, f := range d.Files {
			fmt.Fprintf(w, "    - %s\n", f)
		}
	}
	fmt.Fprintln(w)
}

// RenderHistory prints recorded scans, newest first.
func RenderHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scans recorded yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  %-20s score %3d  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Skill, e.Score, e.Verdict)
	}
}

// ScanJSON is the machine-readable scan result.
type ScanJSON struct {
	SkillName      string            `json:"skill_name"`
	RiskScore      int               `json:"risk_score"`
	RiskLevel      string            `json:"risk_level"`
	Recommendation string            `json:"recommendation"`
	FilesScanned   int               `json:"files_scanned"`
	TotalLines     int               `json:"total_lines"`
	CriticalCount  int               `json:"critical_count"`
	WarningCount   int               `json:"warning_count"`
	InfoCount      int               `json:"info_count"`
	Findings       []scanner.Finding `json:"findings"`
}

// NewScanJSON builds the JSON shape from a scan result.
func NewScanJSON(res *scanner.ScanResult, pol config.ScannerConfig) ScanJSON {
	verdict := res.RiskVerdict(pol)
	findings := res.Findings
	if findings == nil {
		findings = []scanner.Finding{}
	}
	return ScanJSON{
		SkillName:      res.SkillName,
		RiskScore:      res.RiskScore(pol),
		RiskLevel:      string(verdict),
		Recommendation: scanner.Recommendation(verdict),
		FilesScanned:   res.FilesScanned,
		TotalLines:     res.TotalLines,
		CriticalCount:  res.CriticalCount(),
		WarningCount:   res.WarningCount(),
		InfoCount:      res.InfoCount(),
		Findings:       findings,
	}
}

// WriteJSON pretty-prints v to w.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
