package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/ClawSentry/ClawSentry/internal/audit"
	"github.com/ClawSentry/ClawSentry/internal/config"
	"github.com/ClawSentry/ClawSentry/internal/dlp"
	"github.com/ClawSentry/ClawSentry/internal/history"
	"github.com/ClawSentry/ClawSentry/internal/manifest"
	"github.com/ClawSentry/ClawSentry/internal/rules"
)

// app bundles the loaded config and the services every command needs.
type app struct {
	cfg      *config.Config
	ws       string
	reg      *rules.Registry
	auditLog *audit.Log
}

// loadApp resolves config, workspace, rule overrides, and the audit log.
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	ws, err := config.ResolveWorkspace(cfg, workspaceFlag)
	if err != nil {
		return nil, err
	}

	reg := rules.NewRegistry()
	if cfg.Scanner.RulePack != "" {
		pack, err := rules.LoadPack(cfg.Scanner.RulePack)
		if err != nil {
			return nil, fmt.Errorf("load rule pack: %w", err)
		}
		if reg, err = reg.Apply(pack); err != nil {
			return nil, fmt.Errorf("apply rule pack: %w", err)
		}
		cfg.DLP.ExtraSafeDomains = append(cfg.DLP.ExtraSafeDomains, pack.SafeDomains...)
	}

	stateDir, err := config.StateDir(cfg)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		ws:       ws,
		reg:      reg,
		auditLog: audit.NewLog(stateDir),
	}, nil
}

// manifestEngine builds the trust-manifest engine for the workspace.
func (a *app) manifestEngine() *manifest.Engine {
	return manifest.NewEngine(a.cfg.Manifest, a.ws)
}

// dlpScanner builds the egress scanner with config and pack allowlists.
func (a *app) dlpScanner() *dlp.Scanner {
	return dlp.NewScanner(a.cfg.DLP)
}

// historyStore opens the scan-history database, or returns (nil, nil) when
// history is disabled.
func (a *app) historyStore() (*history.Store, error) {
	if !a.cfg.History.Enabled {
		return nil, nil
	}
	stateDir, err := config.StateDir(a.cfg)
	if err != nil {
		return nil, err
	}
	return history.Open(filepath.Join(stateDir, a.cfg.History.DBFile))
}

// recordAudit appends an audit event; failures are reported but never fail
// the command that triggered them.
func (a *app) recordAudit(event string, fields map[string]any) {
	if err := a.auditLog.Append(event, fields); err != nil {
		fmt.Println(color.YellowString("warning:"), "audit log write failed:", err)
	}
}

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}
