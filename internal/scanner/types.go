package scanner

import (
	"github.com/ClawSentry/ClawSentry/internal/rules"
)

// Finding is a single rule match against one line of scanned content.
// Produced, never mutated. Ordering is stable: ascending by line within a
// file, then by rule registration order (the two special checks precede the
// catalog).
type Finding struct {
	Severity rules.Severity `json:"severity"`
	// File is the path relative to the scan root.
	File string `json:"file"`
	// Line is 1-based.
	Line int `json:"line"`
	// RuleID identifies the rule or special check that fired.
	RuleID string `json:"ruleId"`
	// Description is the human explanation.
	Description string `json:"description"`
	// Snippet is the truncated source line.
	Snippet string `json:"snippet,omitempty"`
}

// ScanResult is the per-skill aggregate of one audit invocation. It is
// created per scan and discarded after reporting, never persisted (the
// history store keeps its own summary rows).
type ScanResult struct {
	SkillName    string    `json:"skillName"`
	FilesScanned int       `json:"filesScanned"`
	TotalLines   int       `json:"totalLines"`
	Findings     []Finding `json:"findings,omitempty"`
}

// CriticalCount returns the number of critical findings.
func (r *ScanResult) CriticalCount() int { return r.countBy(rules.SeverityCritical) }

// WarningCount returns the number of warning findings.
func (r *ScanResult) WarningCount() int { return r.countBy(rules.SeverityWarning) }

// InfoCount returns the number of info findings.
func (r *ScanResult) InfoCount() int { return r.countBy(rules.SeverityInfo) }

func (r *ScanResult) countBy(sev rules.Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}
