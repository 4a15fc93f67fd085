package secretgate

import (
	"strings"

	"github.com/gobwas/glob"
)

// Strategy names how a file's content should be chunked, selected by
// LargeFileStrategy from extension, path, line count and a content
// sample.
type Strategy string

const (
	StrategySkip           Strategy = "skip"
	StrategyStructureOnly  Strategy = "structure-only"
	StrategySectionChunked Strategy = "section-chunking"
	StrategyNormal         Strategy = "normal"
)

var generatedPathPatterns = mustCompileAll([]string{
	"*.min.js",
	"*.bundle.js",
	"*.map",
	"*.d.ts",
	"*_generated.*",
	"*/package-lock.json",
	"package-lock.json",
	"*/yarn.lock",
	"yarn.lock",
	"*/pnpm-lock.yaml",
	"pnpm-lock.yaml",
	"*/Cargo.lock",
	"Cargo.lock",
	"*/go.sum",
	"go.sum",
	"*/dist/**",
	"*/build/**",
	"*/node_modules/**",
	"*/vendor/**",
	"*/.next/**",
	"*/target/**",
})

func mustCompileAll(patterns []string) []glob.Glob {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		globs = append(globs, glob.MustCompile(p, '/'))
	}
	return globs
}

// isGeneratedPath matches the path, the path with a leading "/", and
// every suffix that starts at or just after a "/", so that patterns
// such as "*.min.js" and "*/dist/**" apply at any directory depth.
func isGeneratedPath(path string) bool {
	candidates := []string{path, "/" + path}
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			candidates = append(candidates, path[i:], path[i+1:])
		}
	}
	for _, g := range generatedPathPatterns {
		for _, c := range candidates {
			if g.Match(c) {
				return true
			}
		}
	}
	return false
}

// LargeFileStrategy selects a chunking strategy for a discovered file.
// lineCount and sample describe the file as discovered; ext is the
// lowercase extension including the leading dot (e.g. ".min.js" isn't
// a real extension, so callers pass the filename-derived extension and
// this function also checks the full path against the generated-path
// glob set).
func LargeFileStrategy(ext string, path string, lineCount int, sample []byte) Strategy {
	if isGeneratedPath(path) {
		return StrategySkip
	}
	if lineCount >= 10 && isMinified(sample) {
		return StrategySkip
	}

	switch {
	case lineCount > 5000:
		return StrategyStructureOnly
	case lineCount >= 1000:
		return StrategySectionChunked
	default:
		return StrategyNormal
	}
}

// isMinified applies a minification heuristic over sample
// lines: a file of >=10 lines is minified if more than 5 lines exceed
// 500 chars, OR line-length variance is under 10, OR the space ratio
// is under 5%.
func isMinified(sample []byte) bool {
	lines := strings.Split(string(sample), "\n")
	if len(lines) < 10 {
		return false
	}

	longLines := 0
	var lengths []float64
	var spaces, total int
	for _, line := range lines {
		l := len(line)
		lengths = append(lengths, float64(l))
		if l > 500 {
			longLines++
		}
		total += l
		spaces += strings.Count(line, " ")
	}
	if longLines > 5 {
		return true
	}

	if variance(lengths) < 10 {
		return true
	}

	if total > 0 && float64(spaces)/float64(total) < 0.05 {
		return true
	}
	return false
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sqDiff float64
	for _, x := range xs {
		d := x - mean
		sqDiff += d * d
	}
	return sqDiff / float64(len(xs))
}
