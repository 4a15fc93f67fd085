// Package secretgate implements the secret-file and large-file gates
// that keep credentials and generated/minified blobs out of the index.
// Patterns are gobwas/glob globs matched against both the basename and
// the full repo-relative path.
package secretgate

import (
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// allowlist overrides the default .env* deny pattern for the .env
// family, since gobwas/glob has no negation operator.
var defaultAllowlist = []string{
	".env.example", ".env.sample", ".env.template", ".env.dist", ".env.tmpl",
}

// Filter matches file paths against secret glob patterns and records
// per-pattern hit counts.
type Filter struct {
	patterns  []compiledPattern
	allowlist []glob.Glob

	mu    sync.Mutex
	stats map[string]int
}

type compiledPattern struct {
	raw string
	g   glob.Glob
}

// NewFilter compiles patterns (defaults extended/replaced per caller) and
// the fixed .env allowlist.
func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{stats: make(map[string]int)}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		f.patterns = append(f.patterns, compiledPattern{raw: p, g: g})
	}
	for _, p := range defaultAllowlist {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		f.allowlist = append(f.allowlist, g)
	}
	return f, nil
}

// IsSecret reports whether path (or its basename) matches a secret
// pattern, and is not allowlisted (the .env.example family).
func (f *Filter) IsSecret(path string) bool {
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		base = path[idx+1:]
	}

	for _, g := range f.allowlist {
		if g.Match(base) || g.Match(path) {
			return false
		}
	}

	matched := false
	for _, cp := range f.patterns {
		if cp.g.Match(base) || cp.g.Match(path) {
			f.recordMatch(cp.raw)
			matched = true
		}
	}
	return matched
}

func (f *Filter) recordMatch(pattern string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats[pattern]++
}

// Stats returns per-pattern match counts accumulated since the filter
// was created (or since the orchestrator started a fresh run with a
// fresh Filter instance).
func (f *Filter) Stats() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.stats))
	for k, v := range f.stats {
		out[k] = v
	}
	return out
}

// TotalMatches sums every pattern's hit count, reported as
// secrets_detected in indexing stats.
func (f *Filter) TotalMatches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, v := range f.stats {
		total += v
	}
	return total
}
