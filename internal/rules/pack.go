package rules

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Pack is an optional YAML override pack layered on the built-in catalog.
// Packs can only narrow or whitelist, never add new detection rules: the
// catalog itself stays a build-time artifact.
type Pack struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Version     string   `yaml:"version"`
	// DisableRules lists rule IDs to turn off.
	DisableRules []string `yaml:"disable_rules"`
	// Whitelist adds extra always-safe line patterns.
	Whitelist []string `yaml:"whitelist"`
	// SafeDomains extends the DLP safe-domain allowlist.
	SafeDomains []string `yaml:"safe_domains"`
}

// LoadPack reads a pack file. A missing path returns an empty pack.
func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Pack{}, nil
		}
		return nil, err
	}
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse rule pack %s: %w", path, err)
	}
	return &pack, nil
}

// Apply folds a pack into the registry, returning a new registry. The
// receiver is not mutated; registries stay immutable after construction.
func (r *Registry) Apply(pack *Pack) (*Registry, error) {
	if pack == nil {
		return r, nil
	}
	next := &Registry{
		rules:     r.rules,
		whitelist: append([]*regexp.Regexp(nil), r.whitelist...),
		disabled:  map[string]struct{}{},
	}
	for id := range r.disabled {
		next.disabled[id] = struct{}{}
	}
	known := map[string]struct{}{}
	for _, rule := range r.rules {
		known[rule.ID] = struct{}{}
	}
	for _, id := range pack.DisableRules {
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("rule pack disables unknown rule %q", id)
		}
		next.disabled[id] = struct{}{}
	}
	for _, expr := range pack.Whitelist {
		re, err := regexp.Compile(`(?i)` + expr)
		if err != nil {
			return nil, fmt.Errorf("rule pack whitelist pattern %q: %w", expr, err)
		}
		next.whitelist = append(next.whitelist, re)
	}
	return next, nil
}
