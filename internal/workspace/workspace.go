// Package workspace locates skills inside an agent workspace and defines the
// shared file-walk policy used by both the risk scanner and the manifest
// engine. Sign and verify must agree on the exclusion list or spurious diffs
// appear for paths that were never hashed.
package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// SkipDirs are transient or internal directories excluded from every walk.
var SkipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"__pycache__":  {},
	".venv":        {},
	"venv":         {},
	".integrity":   {},
	".quarantine":  {},
	".snapshots":   {},
	".ledger":      {},
	".sentry":      {},
}

// selfSkillDirs are clawsentry's own skill bundles; auditing ourselves from
// inside the workspace would always report the auditor as unsigned.
var selfSkillDirs = map[string]struct{}{
	"clawsentry":     {},
	"clawsentry-pro": {},
}

// scanExtensions is the fixed table of file types the rule catalog can
// meaningfully evaluate.
var scanExtensions = map[string]struct{}{
	".py":   {},
	".sh":   {},
	".bash": {},
	".js":   {},
	".ts":   {},
	".md":   {},
	".yaml": {},
	".yml":  {},
	".json": {},
}

// scanLiteralNames are metadata files scanned regardless of extension.
var scanLiteralNames = map[string]struct{}{
	"SKILL.md":   {},
	"Dockerfile": {},
}

// FileCategory drives rule applicability during line matching.
type FileCategory int

const (
	// CategoryCode is the default for scripts and structured data.
	CategoryCode FileCategory = iota
	// CategoryDoc marks documentation files; privilege-escalation rules are
	// suppressed there because install instructions legitimately mention them.
	CategoryDoc
	// CategoryShell marks shell scripts; $( ) substitution is normal syntax.
	CategoryShell
)

// Categorize classifies a path by extension for rule applicability.
func Categorize(path string) FileCategory {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".rst", ".txt":
		return CategoryDoc
	case ".sh", ".bash":
		return CategoryShell
	default:
		return CategoryCode
	}
}

// SelfSkill reports whether name is one of clawsentry's own bundles.
func SelfSkill(name string) bool {
	_, ok := selfSkillDirs[name]
	return ok
}

// Scannable reports whether the risk engine should look at this file name.
func Scannable(name string) bool {
	if _, ok := scanLiteralNames[name]; ok {
		return true
	}
	_, ok := scanExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Skill is one installed skill directory.
type Skill struct {
	Name string
	Path string
}

// FindSkills lists installed skills under <workspace>/skills. A directory
// counts as a skill when it contains SKILL.md. Quarantined copies and
// clawsentry's own bundles are skipped.
func FindSkills(workspaceRoot string) ([]Skill, error) {
	skillsDir := filepath.Join(workspaceRoot, "skills")
	entries, err := os.ReadDir(skillsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var skills []Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, ok := selfSkillDirs[name]; ok {
			continue
		}
		if strings.HasPrefix(name, ".quarantine") {
			continue
		}
		dir := filepath.Join(skillsDir, name)
		if _, err := os.Stat(filepath.Join(dir, "SKILL.md")); err != nil {
			continue
		}
		skills = append(skills, Skill{Name: name, Path: dir})
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills, nil
}

// WalkFiles visits every regular file under root in lexicographic order,
// honoring SkipDirs and never following symlinks (guards against link
// cycles). fn receives the slash-separated path relative to root. An error
// from fn for one file does not stop the walk; walk-level errors on a single
// entry are skipped the same way.
func WalkFiles(root string, fn func(rel, abs string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // unreadable entry, not fatal to the walk
		}
		if d.IsDir() {
			if path != root {
				if _, skip := SkipDirs[d.Name()]; skip {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		_ = fn(filepath.ToSlash(rel), path)
		return nil
	})
}

// ---------------------------------------------------------------------------
// SKILL.md frontmatter
// ---------------------------------------------------------------------------

var (
	frontmatterNameExpr = regexp.MustCompile(`(?m)^name:\s*([a-zA-Z0-9_.-]+)\s*$`)
	frontmatterDescExpr = regexp.MustCompile(`(?m)^description:\s*(.+)\s*$`)
)

// Metadata is the parsed SKILL.md frontmatter.
type Metadata struct {
	Name        string
	Description string
}

// ParseMetadata extracts name/description from SKILL.md YAML frontmatter.
// Returns false when the file has no frontmatter block.
func ParseMetadata(skillMD []byte) (Metadata, bool) {
	text := string(skillMD)
	if !strings.HasPrefix(text, "---\n") {
		return Metadata{}, false
	}
	end := strings.Index(text[4:], "\n---")
	if end < 0 {
		return Metadata{}, false
	}
	block := text[4 : 4+end]
	var out Metadata
	if m := frontmatterNameExpr.FindStringSubmatch(block); len(m) >= 2 {
		out.Name = strings.TrimSpace(m[1])
	}
	if m := frontmatterDescExpr.FindStringSubmatch(block); len(m) >= 2 {
		out.Description = strings.Trim(strings.TrimSpace(m[1]), `"'`)
	}
	return out, true
}
