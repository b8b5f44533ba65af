// Package scanner is the static pattern-matching risk engine. It walks a
// skill directory once, feeds each eligible file's lines through the rule
// catalog, and aggregates findings into a score and verdict.
package scanner

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/ClawSentry/ClawSentry/internal/config"
	"github.com/ClawSentry/ClawSentry/internal/rules"
	"github.com/ClawSentry/ClawSentry/internal/workspace"
)

// maxLineBytes bounds a single scanned line; longer lines are split by the
// reader, which is fine for pattern matching.
const maxLineBytes = 1 << 20

type fileResult struct {
	rel      string
	lines    int
	findings []Finding
}

// ScanSkill walks the skill directory at root and scans every eligible file.
// Per-file scanning is read-only and runs on a bounded worker pool; the
// merge is deterministic (files in walk order, findings in line order).
// A file that cannot be read is skipped, never failing the scan.
func ScanSkill(cfg *config.Config, reg *rules.Registry, root string) (*ScanResult, error) {
	result := &ScanResult{SkillName: filepath.Base(root)}

	type job struct {
		rel string
		abs string
	}
	var jobs []job
	err := workspace.WalkFiles(root, func(rel, abs string) error {
		if workspace.Scannable(filepath.Base(rel)) {
			jobs = append(jobs, job{rel: rel, abs: abs})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]*fileResult, len(jobs))
	workers := runtime.NumCPU()
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	jobCh := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				results[i] = scanFile(reg, cfg.Scanner, jobs[i].rel, jobs[i].abs)
			}
		}()
	}
	for i := range jobs {
		jobCh <- i
	}
	close(jobCh)
	wg.Wait()

	for _, fr := range results {
		if fr == nil {
			continue // unreadable file, skipped
		}
		result.FilesScanned++
		result.TotalLines += fr.lines
		result.Findings = append(result.Findings, fr.findings...)
	}
	capInfoFindings(result, cfg.Scanner.InfoFindingCap)
	return result, nil
}

// scanFile scans one file line by line. Returns nil when the file cannot be
// opened; read errors mid-file keep whatever was matched so far.
func scanFile(reg *rules.Registry, pol config.ScannerConfig, rel, abs string) *fileResult {
	f, err := os.Open(abs)
	if err != nil {
		slog.Debug("skipping unreadable file", "path", abs, "error", err)
		return nil
	}
	defer f.Close()

	fctx := FileContext{RelPath: rel, Category: workspace.Categorize(rel)}
	fr := &fileResult{rel: rel}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		fr.findings = append(fr.findings, MatchLine(reg, pol, sc.Text(), lineNum, fctx)...)
	}
	fr.lines = lineNum
	return fr
}

// capInfoFindings drops info findings beyond the per-scan cap, keeping the
// earliest ones in finding order. Critical and warning findings are never
// dropped.
func capInfoFindings(result *ScanResult, limit int) {
	if limit <= 0 {
		return
	}
	kept := result.Findings[:0]
	infoSeen := 0
	for _, f := range result.Findings {
		if f.Severity == rules.SeverityInfo {
			if infoSeen >= limit {
				continue
			}
			infoSeen++
		}
		kept = append(kept, f)
	}
	result.Findings = kept
}

// SortFindings orders findings by file, then line, preserving the in-line
// rule order produced by the matcher. ScanSkill output is already in this
// order; the helper exists for collaborators that merge several results.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		return findings[i].Line < findings[j].Line
	})
}
