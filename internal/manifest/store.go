package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/ClawSentry/ClawSentry/internal/config"
)

// Manifest is the persisted trust record for a workspace.
type Manifest struct {
	Version int                    `json:"version"`
	Created string                 `json:"created"`
	Updated string                 `json:"updated"`
	Skills  map[string]SkillRecord `json:"skills"`
}

// SkillRecord is the trusted snapshot of one signed skill.
type SkillRecord struct {
	CompositeHash string            `json:"composite_hash"`
	Files         map[string]string `json:"files"`
	SignedAt      string            `json:"signed_at"`
	FileCount     int               `json:"file_count"`
}

// Store reads and writes the manifest file under <workspace>/.sentry.
// Load/Save are serialized so concurrent command paths cannot interleave a
// read-modify-write.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore builds a store for the workspace using the configured manifest
// location.
func NewStore(cfg config.ManifestConfig, workspaceRoot string) *Store {
	return &Store{path: filepath.Join(workspaceRoot, cfg.DirName, cfg.FileName)}
}

// Path returns the manifest file location.
func (s *Store) Path() string { return s.path }

// Exists reports whether a manifest has been written.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the manifest. A missing or corrupt file yields nil, which
// callers treat as "not yet initialized"; signing starts fresh rather than
// failing.
func (s *Store) Load() *Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	if m.Skills == nil {
		m.Skills = map[string]SkillRecord{}
	}
	return &m
}

// Save writes the manifest as pretty-printed JSON, creating the state
// directory on first use. Map keys marshal sorted, so output is diffable.
func (s *Store) Save(m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, append(data, '\n'), 0o644)
}
