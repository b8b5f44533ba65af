// Package config provides configuration types and loading for clawsentry.
package config

// Config is the root configuration struct.
// Top-level groups: Paths, Scanner, DLP, Manifest, History.
type Config struct {
	Paths    PathsConfig    `json:"paths"`
	Scanner  ScannerConfig  `json:"scanner"`
	DLP      DLPConfig      `json:"dlp"`
	Manifest ManifestConfig `json:"manifest"`
	History  HistoryConfig  `json:"history"`
}

// ---------------------------------------------------------------------------
// Paths – filesystem locations
// ---------------------------------------------------------------------------

// PathsConfig groups all filesystem path settings.
type PathsConfig struct {
	// Workspace is the agent workspace root containing the skills/ directory.
	Workspace string `json:"workspace" envconfig:"WORKSPACE"`
	// StateDir holds clawsentry's private state (audit ledger, history db).
	// Empty means <config dir>/state.
	StateDir string `json:"stateDir,omitempty" envconfig:"STATE_DIR"`
}

// ---------------------------------------------------------------------------
// Scanner – risk engine policy knobs
// ---------------------------------------------------------------------------

// ScannerConfig holds the tunable policy constants of the risk engine.
// The caps are product policy, not protocol invariants.
type ScannerConfig struct {
	// InfoFindingCap stops info-finding collection once a scan has this many.
	InfoFindingCap int `json:"infoFindingCap" envconfig:"INFO_FINDING_CAP"`
	// WarningScoreCap bounds how many warnings contribute to the risk score.
	WarningScoreCap int `json:"warningScoreCap" envconfig:"WARNING_SCORE_CAP"`
	// InfoScoreCap bounds how many info findings contribute to the risk score.
	InfoScoreCap int `json:"infoScoreCap" envconfig:"INFO_SCORE_CAP"`
	// MaxSnippetLen truncates the source line carried on each finding.
	MaxSnippetLen int `json:"maxSnippetLen" envconfig:"MAX_SNIPPET_LEN"`
	// RulePack optionally points at a YAML override pack (disabled rule IDs,
	// extra whitelist entries).
	RulePack string `json:"rulePack,omitempty" envconfig:"RULE_PACK"`
}

// ---------------------------------------------------------------------------
// DLP – outbound-network classification
// ---------------------------------------------------------------------------

// DLPConfig configures the URL/domain classifier.
type DLPConfig struct {
	// ExtraSafeDomains extends the built-in safe-domain allowlist.
	ExtraSafeDomains []string `json:"extraSafeDomains,omitempty" envconfig:"EXTRA_SAFE_DOMAINS"`
	// MaxURLLen truncates matched URLs carried on findings.
	MaxURLLen int `json:"maxUrlLen" envconfig:"MAX_URL_LEN"`
}

// ---------------------------------------------------------------------------
// Manifest – trust-manifest engine
// ---------------------------------------------------------------------------

// ManifestConfig configures trust-manifest storage.
type ManifestConfig struct {
	// DirName is the manifest engine's storage directory under the workspace.
	// It is always excluded from walks.
	DirName string `json:"dirName" envconfig:"MANIFEST_DIR"`
	// FileName is the manifest file name inside DirName.
	FileName string `json:"fileName" envconfig:"MANIFEST_FILE"`
}

// ---------------------------------------------------------------------------
// History – scan-history store
// ---------------------------------------------------------------------------

// HistoryConfig configures the sqlite scan-history store.
type HistoryConfig struct {
	Enabled bool `json:"enabled" envconfig:"HISTORY_ENABLED"`
	// DBFile is the database file name under the state dir.
	DBFile string `json:"dbFile" envconfig:"HISTORY_DB_FILE"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Scanner: ScannerConfig{
			InfoFindingCap:  20,
			WarningScoreCap: 10,
			InfoScoreCap:    5,
			MaxSnippetLen:   100,
		},
		DLP: DLPConfig{
			MaxURLLen: 100,
		},
		Manifest: ManifestConfig{
			DirName:  ".sentry",
			FileName: "manifest.json",
		},
		History: HistoryConfig{
			Enabled: true,
			DBFile:  "history.db",
		},
	}
}
