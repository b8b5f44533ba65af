package scanner

import "github.com/ClawSentry/ClawSentry/internal/config"

// Verdict is the categorical risk classification of a scan.
type Verdict string

const (
	VerdictSafe    Verdict = "SAFE"
	VerdictCaution Verdict = "CAUTION"
	VerdictDanger  Verdict = "DANGER"
	VerdictBlocked Verdict = "BLOCKED"
)

// Score weights for the three severities. Criticals dominate; warning and
// info contributions are capped so volume alone cannot block a skill.
const (
	criticalWeight = 30
	warningWeight  = 3
	infoWeight     = 1
)

// Score reduces severity counts to a risk score in [0,100] using the default
// policy caps. Pure function of its arguments; it performs no matching.
func Score(criticalCount, warningCount, infoCount int) int {
	def := config.DefaultConfig().Scanner
	return ScoreWithPolicy(def, criticalCount, warningCount, infoCount)
}

// ScoreWithPolicy is Score with explicit policy caps.
func ScoreWithPolicy(pol config.ScannerConfig, criticalCount, warningCount, infoCount int) int {
	score := criticalCount * criticalWeight
	score += min(warningCount, pol.WarningScoreCap) * warningWeight
	score += min(infoCount, pol.InfoScoreCap) * infoWeight
	return min(100, score)
}

// VerdictFor maps a score to its verdict. Thresholds are exclusive lower
// bounds evaluated high to low.
func VerdictFor(score int) Verdict {
	switch {
	case score >= 81:
		return VerdictBlocked
	case score >= 51:
		return VerdictDanger
	case score >= 21:
		return VerdictCaution
	default:
		return VerdictSafe
	}
}

// Recommendation is the human action line for a verdict.
func Recommendation(v Verdict) string {
	switch v {
	case VerdictBlocked:
		return "BLOCK - Do NOT install this skill"
	case VerdictDanger:
		return "DANGER - Detailed review required before installation"
	case VerdictCaution:
		return "CAUTION - Review findings before proceeding"
	default:
		return "APPROVE - Safe to install"
	}
}

// RiskScore computes the score of a result under a scanner policy.
func (r *ScanResult) RiskScore(pol config.ScannerConfig) int {
	return ScoreWithPolicy(pol, r.CriticalCount(), r.WarningCount(), r.InfoCount())
}

// RiskVerdict computes the verdict of a result under a scanner policy.
func (r *ScanResult) RiskVerdict(pol config.ScannerConfig) Verdict {
	return VerdictFor(r.RiskScore(pol))
}
