package dlp

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ClawSentry/ClawSentry/internal/config"
	"github.com/ClawSentry/ClawSentry/internal/workspace"
)

// urlPattern extracts candidate URLs from a line. Terminators cover the
// quoting and bracketing characters URLs are normally embedded in.
var urlPattern = regexp.MustCompile("(?i)https?://[^\\s\"'<>\\])}{,`]+")

// trailingPunct is stripped from extracted URLs; sentence punctuation that
// the terminator class cannot exclude.
const trailingPunct = ".,;:)"

// networkCodePatterns detect outbound-capable calls in code. Each hit is a
// High finding regardless of destination, since the endpoint may be computed
// at runtime.
var networkCodePatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"urllib.request", regexp.MustCompile(`\burllib\.request\.urlopen\b`)},
	{"urllib.request.Request", regexp.MustCompile(`\burllib\.request\.Request\b`)},
	{"requests.get/post", regexp.MustCompile(`\brequests\.(?:get|post|put|patch|delete|head)\b`)},
	{"httpx call", regexp.MustCompile(`\bhttpx\.(?:get|post|put|patch|delete|head|Client|AsyncClient)\b`)},
	{"aiohttp session", regexp.MustCompile(`\baiohttp\.ClientSession\b`)},
	{"socket connection", regexp.MustCompile(`\bsocket\.(?:socket|create_connection|connect)\b`)},
	{"http.client", regexp.MustCompile(`\bhttp\.client\.HTTPS?Connection\b`)},
	{"fetch/XMLHttpRequest", regexp.MustCompile(`\bfetch\s*\(|XMLHttpRequest\b`)},
	{"curl command", regexp.MustCompile(`\bcurl\s+-`)},
	{"wget command", regexp.MustCompile(`\bwget\s+`)},
}

// networkCodeExts are the file types checked for network calls.
var networkCodeExts = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".sh": true, ".bash": true,
}

// Finding is one classified network indicator. URL is empty for
// network-code findings.
type Finding struct {
	Tier   Tier   `json:"risk"`
	Reason string `json:"reason"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	URL    string `json:"url,omitempty"`
}

// DomainInfo aggregates references to one external host.
type DomainInfo struct {
	Domain string   `json:"domain"`
	Count  int      `json:"count"`
	Files  []string `json:"files"`
	Risk   Tier     `json:"risk"`
}

// Report is the outcome of a DLP scan.
type Report struct {
	FilesScanned int       `json:"files_scanned"`
	Findings     []Finding `json:"findings"`
}

func (r *Report) countTier(t Tier) int {
	n := 0
	for _, f := range r.Findings {
		if f.Tier == t {
			n++
		}
	}
	return n
}

func (r *Report) CriticalCount() int { return r.countTier(TierCritical) }
func (r *Report) HighCount() int     { return r.countTier(TierHigh) }
func (r *Report) WarningCount() int  { return r.countTier(TierWarning) }
func (r *Report) InfoCount() int     { return r.countTier(TierInfo) }

// Domains aggregates the external hosts referenced by URL findings, sorted
// by domain name. A domain's risk is the highest tier seen for it.
func (r *Report) Domains() []DomainInfo {
	byHost := map[string]*DomainInfo{}
	for _, f := range r.Findings {
		if f.URL == "" {
			continue
		}
		u, err := url.Parse(f.URL)
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := strings.ToLower(u.Hostname())
		info := byHost[host]
		if info == nil {
			info = &DomainInfo{Domain: host, Risk: TierInfo}
			byHost[host] = info
		}
		info.Count++
		info.Files = append(info.Files, f.File)
		if tierRank(f.Tier) < tierRank(info.Risk) {
			info.Risk = f.Tier
		}
	}
	out := make([]DomainInfo, 0, len(byHost))
	for _, info := range byHost {
		sort.Strings(info.Files)
		info.Files = dedupeSorted(info.Files)
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

func dedupeSorted(in []string) []string {
	out := in[:0]
	for i, s := range in {
		if i == 0 || s != in[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// Scanner runs DLP scans over a workspace.
type Scanner struct {
	cls       *Classifier
	maxURLLen int
}

// NewScanner builds a scanner from DLP config.
func NewScanner(cfg config.DLPConfig) *Scanner {
	maxLen := cfg.MaxURLLen
	if maxLen <= 0 {
		maxLen = 100
	}
	return &Scanner{cls: NewClassifier(cfg.ExtraSafeDomains), maxURLLen: maxLen}
}

// ScanWorkspace scans every text file under root (or root/skills when
// skillsOnly is set), classifies all extracted URLs and network calls, and
// returns a deduplicated report sorted most severe first. Safe URLs are
// dropped. Unreadable files are skipped.
func (s *Scanner) ScanWorkspace(root string, skillsOnly bool) (*Report, error) {
	searchRoot := root
	if skillsOnly {
		searchRoot = filepath.Join(root, "skills")
		if _, err := os.Stat(searchRoot); err != nil {
			return &Report{}, nil
		}
	}

	report := &Report{}
	err := workspace.WalkFiles(searchRoot, func(rel, abs string) error {
		rep := rel
		if skillsOnly {
			rep = "skills/" + rel
		}
		// Never audit our own bundles.
		if parts := strings.Split(rep, "/"); len(parts) >= 2 && parts[0] == "skills" && workspace.SelfSkill(parts[1]) {
			return nil
		}
		if isBinary(abs) {
			return nil
		}
		report.FilesScanned++
		report.Findings = append(report.Findings, s.scanFile(rep, abs)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Findings = dedupeFindings(report.Findings)
	sort.SliceStable(report.Findings, func(i, j int) bool {
		return tierRank(report.Findings[i].Tier) < tierRank(report.Findings[j].Tier)
	})
	return report, nil
}

// ScanSkill scans a single skill directory; finding paths are relative to
// the skill root.
func (s *Scanner) ScanSkill(skillDir string) (*Report, error) {
	report := &Report{}
	err := workspace.WalkFiles(skillDir, func(rel, abs string) error {
		if isBinary(abs) {
			return nil
		}
		report.FilesScanned++
		report.Findings = append(report.Findings, s.scanFile(rel, abs)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.Findings = dedupeFindings(report.Findings)
	sort.SliceStable(report.Findings, func(i, j int) bool {
		return tierRank(report.Findings[i].Tier) < tierRank(report.Findings[j].Tier)
	})
	return report, nil
}

// scanFile extracts URL and network-code findings from one file. In
// markdown, URLs inside fenced code blocks are ignored; fences toggle on
// any line whose trimmed text starts with three backticks.
func (s *Scanner) scanFile(rel, abs string) []Finding {
	f, err := os.Open(abs)
	if err != nil {
		slog.Debug("skipping unreadable file", "path", abs, "error", err)
		return nil
	}
	defer f.Close()

	isMarkdown := strings.EqualFold(filepath.Ext(rel), ".md") ||
		strings.EqualFold(filepath.Ext(rel), ".markdown")
	checkCode := networkCodeExts[strings.ToLower(filepath.Ext(rel))]

	var findings []Finding
	inFence := false
	lineNum := 0

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		lineNum++
		line := sc.Text()

		if isMarkdown && strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}

		if !(isMarkdown && inFence) {
			for _, raw := range urlPattern.FindAllString(line, -1) {
				u := strings.TrimRight(raw, trailingPunct)
				tier, reason := s.cls.Classify(u)
				if tier == TierSafe {
					continue
				}
				if len(u) > s.maxURLLen {
					u = u[:s.maxURLLen]
				}
				findings = append(findings, Finding{
					Tier: tier, Reason: reason, File: rel, Line: lineNum, URL: u,
				})
			}
		}

		if checkCode {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
				continue
			}
			for _, p := range networkCodePatterns {
				if p.re.MatchString(line) {
					findings = append(findings, Finding{
						Tier: TierHigh, Reason: "Network call: " + p.name,
						File: rel, Line: lineNum,
					})
				}
			}
		}
	}
	return findings
}

// dedupeFindings keeps the first finding per (file, line, reason).
func dedupeFindings(in []Finding) []Finding {
	type key struct {
		file   string
		line   int
		reason string
	}
	seen := map[key]bool{}
	out := in[:0]
	for _, f := range in {
		k := key{f.File, f.Line, f.Reason}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}

// isBinary reports whether the file looks binary: a NUL byte in the first
// 8KiB. Unreadable files are treated as binary and skipped.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	buf := make([]byte, 8192)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return true
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
