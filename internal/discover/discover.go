// Package discover implements indexing stage 1: walking a repository
// root and producing DiscoveredFile records, respecting .gitignore and
// the secret/large-file gates. Ignore patterns are compiled once with
// gobwas/glob and matched against slash-separated repo-relative paths.
package discover

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/gianged/cindex/internal/secretgate"
)

// DiscoveredFile is one file surfaced by Discover, before parsing.
type DiscoveredFile struct {
	Path      string // absolute path
	RelPath   string // slash-separated, relative to repo root
	Size      int64
	LineCount int
	Strategy  secretgate.Strategy
	IsSecret  bool
}

// Discoverer walks a repository root applying ignore, secret and
// large-file gates.
type Discoverer struct {
	ignorePatterns []glob.Glob
	secrets        *secretgate.Filter
}

// NewDiscoverer builds a Discoverer. extraIgnores are additional glob
// patterns beyond the repo's own .gitignore (e.g. a global config
// ignore list); secrets is the compiled secret-file filter.
func NewDiscoverer(extraIgnores []string, secrets *secretgate.Filter) (*Discoverer, error) {
	d := &Discoverer{secrets: secrets}
	for _, p := range extraIgnores {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		d.ignorePatterns = append(d.ignorePatterns, g)
	}
	return d, nil
}

// alwaysIgnoredDirs are skipped in every repository regardless of
// .gitignore: VCS metadata and cindex's own state directory.
var alwaysIgnoredDirs = []string{".git", ".cindex"}

// Discover walks root and returns every non-ignored file, each tagged
// with its large-file strategy. Files with Strategy == StrategySkip
// are still returned (callers decide whether to surface them in
// stats) but the orchestrator must not parse/chunk them.
func (d *Discoverer) Discover(root string) ([]DiscoveredFile, error) {
	patterns := append([]glob.Glob(nil), d.ignorePatterns...)
	gitignorePatterns, err := loadGitignore(root)
	if err != nil {
		return nil, err
	}
	patterns = append(patterns, gitignorePatterns...)

	var files []DiscoveredFile
	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			for _, dir := range alwaysIgnoredDirs {
				if info.Name() == dir {
					return filepath.SkipDir
				}
			}
			if matchesAny(relPath, patterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAny(relPath, patterns) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			// Filesystem errors during discovery are recovered locally:
			// skip the file, don't abort the walk.
			return nil
		}
		lineCount := strings.Count(string(content), "\n") + 1
		ext := strings.ToLower(filepath.Ext(path))

		df := DiscoveredFile{
			Path:      path,
			RelPath:   relPath,
			Size:      info.Size(),
			LineCount: lineCount,
			Strategy:  secretgate.LargeFileStrategy(ext, relPath, lineCount, content),
		}
		if d.secrets != nil {
			df.IsSecret = d.secrets.IsSecret(relPath)
		}
		files = append(files, df)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func matchesAny(path string, patterns []glob.Glob) bool {
	for _, p := range patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// loadGitignore reads root/.gitignore if present and compiles each
// non-comment, non-blank line into a glob pattern. Directory-only
// patterns (trailing "/") and bare names are expanded to match at any
// depth, the way git itself treats a pattern with no embedded slash.
func loadGitignore(root string) ([]glob.Glob, error) {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []glob.Glob
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "/")
		line = strings.TrimSuffix(line, "/")

		candidates := []string{line, line + "/**"}
		if !strings.Contains(line, "/") {
			candidates = append(candidates, "**/"+line, "**/"+line+"/**")
		}
		for _, c := range candidates {
			g, err := glob.Compile(c, '/')
			if err != nil {
				continue
			}
			patterns = append(patterns, g)
		}
	}
	return patterns, scanner.Err()
}
