package manifest

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ClawSentry/ClawSentry/internal/config"
	"github.com/ClawSentry/ClawSentry/internal/workspace"
)

// manifestVersion is the current on-disk format version.
const manifestVersion = 1

// ErrNoManifest is returned by verification before any skill was signed.
var ErrNoManifest = errors.New("no trust manifest found")

// State is the verification outcome for one skill.
type State string

const (
	StateVerified State = "VERIFIED"
	StateTampered State = "TAMPERED"
	StateUnsigned State = "UNSIGNED"
	// StateMissing marks a signed skill that is no longer installed. It
	// counts as tampering: deletion changes the trusted surface too.
	StateMissing State = "MISSING"
)

// Change is the kind of per-file difference behind a composite mismatch.
type Change string

const (
	ChangeModified Change = "MODIFIED"
	ChangeAdded    Change = "ADDED"
	ChangeRemoved  Change = "REMOVED"
)

// FileDiff is one changed file inside a tampered skill.
type FileDiff struct {
	Path   string `json:"path"`
	Change Change `json:"change"`
}

// VerifyResult is the verification outcome for one skill.
type VerifyResult struct {
	Skill    string     `json:"skill"`
	State    State      `json:"state"`
	Expected string     `json:"expected_hash,omitempty"`
	Actual   string     `json:"actual_hash,omitempty"`
	Diffs    []FileDiff `json:"diffs,omitempty"`
}

// SignOutcome records one skill added to or refreshed in the manifest.
type SignOutcome struct {
	Skill         string `json:"skill"`
	CompositeHash string `json:"composite_hash"`
	FileCount     int    `json:"file_count"`
}

// Engine signs skills into the trust manifest and verifies them against it.
type Engine struct {
	store *Store
	ws    string
	now   func() time.Time
}

// NewEngine builds an engine for the workspace.
func NewEngine(cfg config.ManifestConfig, workspaceRoot string) *Engine {
	return &Engine{
		store: NewStore(cfg, workspaceRoot),
		ws:    workspaceRoot,
		now:   time.Now,
	}
}

// Store exposes the underlying manifest store (path, existence checks).
func (e *Engine) Store() *Store { return e.store }

// Sign hashes the named skill (or every installed skill when name is empty)
// and records the result in the manifest. Existing entries for other skills
// are preserved.
func (e *Engine) Sign(name string) ([]SignOutcome, error) {
	skills, err := e.targetSkills(name)
	if err != nil {
		return nil, err
	}

	m := e.store.Load()
	stamp := e.now().UTC().Format(time.RFC3339)
	if m == nil {
		m = &Manifest{
			Version: manifestVersion,
			Created: stamp,
			Skills:  map[string]SkillRecord{},
		}
	}

	var outcomes []SignOutcome
	for _, sk := range skills {
		composite, files, err := SkillHash(sk.Path)
		if err != nil {
			return nil, fmt.Errorf("hash skill %s: %w", sk.Name, err)
		}
		m.Skills[sk.Name] = SkillRecord{
			CompositeHash: composite,
			Files:         files,
			SignedAt:      stamp,
			FileCount:     len(files),
		}
		outcomes = append(outcomes, SignOutcome{
			Skill:         sk.Name,
			CompositeHash: composite,
			FileCount:     len(files),
		})
	}

	m.Updated = stamp
	if err := e.store.Save(m); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Verify checks the named skill (or every skill when name is empty) against
// the manifest. With an empty name, signed skills that are no longer
// installed are appended as Missing. Returns ErrNoManifest before first sign.
func (e *Engine) Verify(name string) ([]VerifyResult, error) {
	m := e.store.Load()
	if m == nil {
		return nil, ErrNoManifest
	}

	installed, err := workspace.FindSkills(e.ws)
	if err != nil {
		return nil, err
	}

	if name != "" {
		for _, sk := range installed {
			if sk.Name == name {
				return []VerifyResult{e.verifyOne(m, sk)}, nil
			}
		}
		if _, signed := m.Skills[name]; signed {
			return []VerifyResult{{Skill: name, State: StateMissing}}, nil
		}
		return nil, fmt.Errorf("skill not found: %s", name)
	}

	var results []VerifyResult
	present := map[string]bool{}
	for _, sk := range installed {
		present[sk.Name] = true
		results = append(results, e.verifyOne(m, sk))
	}

	var absent []string
	for signedName := range m.Skills {
		if !present[signedName] {
			absent = append(absent, signedName)
		}
	}
	sort.Strings(absent)
	for _, n := range absent {
		results = append(results, VerifyResult{Skill: n, State: StateMissing})
	}
	return results, nil
}

func (e *Engine) verifyOne(m *Manifest, sk workspace.Skill) VerifyResult {
	trusted, ok := m.Skills[sk.Name]
	if !ok {
		return VerifyResult{Skill: sk.Name, State: StateUnsigned}
	}

	composite, files, err := SkillHash(sk.Path)
	if err != nil || !skillDirExists(sk.Path) {
		return VerifyResult{Skill: sk.Name, State: StateMissing, Expected: trusted.CompositeHash}
	}
	if composite == trusted.CompositeHash {
		return VerifyResult{
			Skill:    sk.Name,
			State:    StateVerified,
			Expected: trusted.CompositeHash,
			Actual:   composite,
		}
	}
	return VerifyResult{
		Skill:    sk.Name,
		State:    StateTampered,
		Expected: trusted.CompositeHash,
		Actual:   composite,
		Diffs:    diffFiles(trusted.Files, files),
	}
}

// diffFiles explains a composite mismatch file by file, in sorted path
// order.
func diffFiles(trusted, current map[string]string) []FileDiff {
	paths := map[string]bool{}
	for p := range trusted {
		paths[p] = true
	}
	for p := range current {
		paths[p] = true
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	var diffs []FileDiff
	for _, p := range sorted {
		oldHash, hadOld := trusted[p]
		newHash, hasNew := current[p]
		switch {
		case hadOld && hasNew && oldHash != newHash:
			diffs = append(diffs, FileDiff{Path: p, Change: ChangeModified})
		case hasNew && !hadOld:
			diffs = append(diffs, FileDiff{Path: p, Change: ChangeAdded})
		case hadOld && !hasNew:
			diffs = append(diffs, FileDiff{Path: p, Change: ChangeRemoved})
		}
	}
	return diffs
}

// targetSkills resolves the sign target: one named skill or all installed.
func (e *Engine) targetSkills(name string) ([]workspace.Skill, error) {
	skills, err := workspace.FindSkills(e.ws)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return skills, nil
	}
	for _, sk := range skills {
		if sk.Name == name {
			return []workspace.Skill{sk}, nil
		}
	}
	return nil, fmt.Errorf("skill not found: %s", name)
}
