package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".clawsentry"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
	// envPrefix namespaces environment overrides (CLAWSENTRY_WORKSPACE, ...).
	envPrefix = "CLAWSENTRY"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("CLAWSENTRY_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := resolveHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := resolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

func resolveHomeDir() (string, error) {
	if h := strings.TrimSpace(os.Getenv("CLAWSENTRY_HOME")); h != "" {
		if strings.HasPrefix(h, "~") {
			base, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(base, h[1:]), nil
		}
		return h, nil
	}
	return os.UserHomeDir()
}

// Load reads the config file (if present), applies defaults for missing
// fields, then applies environment overrides. A missing config file is not
// an error: defaults + env are enough to run.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env overrides
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Save writes the config back to its canonical location with 0600 perms.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// StateDir resolves the private state directory, creating it when missing.
func StateDir(cfg *Config) (string, error) {
	dir := strings.TrimSpace(cfg.Paths.StateDir)
	if dir == "" {
		path, err := ConfigPath()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(filepath.Dir(path), "state")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// ResolveWorkspace picks the workspace root. Precedence: explicit argument,
// configured/env workspace, a cwd that looks like an agent workspace
// (contains AGENTS.md), ~/.clawsentry/workspace when it exists, then cwd.
func ResolveWorkspace(cfg *Config, explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return filepath.Abs(explicit)
	}
	if ws := strings.TrimSpace(cfg.Paths.Workspace); ws != "" {
		return filepath.Abs(ws)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(cwd, "AGENTS.md")); err == nil {
		return cwd, nil
	}
	home, err := resolveHomeDir()
	if err == nil {
		fallback := filepath.Join(home, ConfigDir, "workspace")
		if fi, err := os.Stat(fallback); err == nil && fi.IsDir() {
			return fallback, nil
		}
	}
	return cwd, nil
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Scanner.InfoFindingCap <= 0 {
		cfg.Scanner.InfoFindingCap = def.Scanner.InfoFindingCap
	}
	if cfg.Scanner.WarningScoreCap <= 0 {
		cfg.Scanner.WarningScoreCap = def.Scanner.WarningScoreCap
	}
	if cfg.Scanner.InfoScoreCap <= 0 {
		cfg.Scanner.InfoScoreCap = def.Scanner.InfoScoreCap
	}
	if cfg.Scanner.MaxSnippetLen <= 0 {
		cfg.Scanner.MaxSnippetLen = def.Scanner.MaxSnippetLen
	}
	if cfg.DLP.MaxURLLen <= 0 {
		cfg.DLP.MaxURLLen = def.DLP.MaxURLLen
	}
	if strings.TrimSpace(cfg.Manifest.DirName) == "" {
		cfg.Manifest.DirName = def.Manifest.DirName
	}
	if strings.TrimSpace(cfg.Manifest.FileName) == "" {
		cfg.Manifest.FileName = def.Manifest.FileName
	}
	if strings.TrimSpace(cfg.History.DBFile) == "" {
		cfg.History.DBFile = def.History.DBFile
	}
}
