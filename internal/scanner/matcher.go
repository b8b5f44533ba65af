package scanner

import (
	"regexp"
	"strings"

	"github.com/ClawSentry/ClawSentry/internal/config"
	"github.com/ClawSentry/ClawSentry/internal/rules"
	"github.com/ClawSentry/ClawSentry/internal/workspace"
)

// FileContext carries the per-file facts that change rule applicability.
type FileContext struct {
	// RelPath is the file path relative to the scan root.
	RelPath string
	// Category suppresses rule families: privilege escalation in docs,
	// shell substitution in shell scripts.
	Category workspace.FileCategory
}

var sudoExpr = regexp.MustCompile(`\bsudo\b`)

// regexGuards mark lines that look like regex code, where "$(" is a literal.
var regexGuards = []string{"re.", "r'", `r"`, "regex", "pattern", "findall"}

// MatchLine applies the whitelist and the catalog to a single line.
// A whitelisted line short-circuits: no rule is evaluated, no finding is
// produced. Multiple rules may fire on one line, each yielding an
// independent finding; info rules yield at most one finding per line.
func MatchLine(reg *rules.Registry, pol config.ScannerConfig, line string, lineNum int, fctx FileContext) []Finding {
	if reg.Whitelisted(line) {
		return nil
	}

	isDoc := fctx.Category == workspace.CategoryDoc
	isShell := fctx.Category == workspace.CategoryShell
	var findings []Finding

	add := func(sev rules.Severity, id, desc string) {
		findings = append(findings, Finding{
			Severity:    sev,
			File:        fctx.RelPath,
			Line:        lineNum,
			RuleID:      id,
			Description: desc,
			Snippet:     snippet(line, pol.MaxSnippetLen),
		})
	}

	// Sudo in anything that is not documentation.
	if !isDoc && sudoExpr.MatchString(line) {
		add(rules.SeverityCritical, "sudo_usage", "Sudo usage in script")
	}

	// Shell command substitution is normal syntax in shell scripts but
	// suspicious anywhere else. Lines that look like regex code are exempt.
	if strings.Contains(line, "$(") && !isShell && !looksLikeRegexCode(line) {
		add(rules.SeverityCritical, "shell_substitution", "Shell command substitution in non-shell file")
	}

	infoSeen := false
	for _, rule := range reg.Rules() {
		if !reg.Enabled(rule.ID) {
			continue
		}
		if isDoc {
			// Documentation: privilege-escalation family suppressed, and
			// warning/info rules not evaluated at all.
			if rule.SkipInDocs || rule.Severity != rules.SeverityCritical {
				continue
			}
		}
		if rule.Severity == rules.SeverityInfo && infoSeen {
			continue
		}
		if rule.Pattern.MatchString(line) {
			add(rule.Severity, rule.ID, rule.Description)
			if rule.Severity == rules.SeverityInfo {
				infoSeen = true
			}
		}
	}
	return findings
}

func looksLikeRegexCode(line string) bool {
	for _, guard := range regexGuards {
		if strings.Contains(line, guard) {
			return true
		}
	}
	return false
}

func snippet(line string, maxLen int) string {
	s := strings.TrimSpace(line)
	if maxLen > 0 && len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
