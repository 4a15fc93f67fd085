package retrieval

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/gianged/cindex/internal/cerrors"
)

// Classification heuristics, applied in order: code signals first,
// then natural-language patterns, defaulting to natural language.
var (
	codeKeywords = []string{
		"function", "const", "let", "var", "class", "interface", "type",
		"import", "export", "return", "async", "await", "def", "public",
		"private", "static",
	}
	codeSymbols = []string{"=>", "===", "!==", "++", "--", "&&", "||", "::"}

	nlPatterns = []string{
		"how to", "how do", "where is", "find", "search", "show me",
		"what is", "when", "why", "explain",
	}

	wordRe       = regexp.MustCompile(`[A-Za-z_]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ClassifyQuery applies an ordered heuristic: code keywords /
// code symbols / special-character density first, then natural-language
// patterns, defaulting to natural_language.
func ClassifyQuery(raw string) QueryType {
	lower := strings.ToLower(raw)

	keywordHits := 0
	words := wordRe.FindAllString(lower, -1)
	wordSet := make(map[string]int, len(words))
	for _, w := range words {
		wordSet[w]++
	}
	for _, kw := range codeKeywords {
		keywordHits += wordSet[kw]
	}
	if keywordHits >= 2 {
		return QueryTypeCodeSnippet
	}

	for _, sym := range codeSymbols {
		if strings.Contains(raw, sym) {
			return QueryTypeCodeSnippet
		}
	}

	if len(raw) > 0 {
		special := 0
		for _, r := range raw {
			switch r {
			case '{', '}', '(', ')', '[', ']', '=', '<', '>':
				special++
			}
		}
		if float64(special)/float64(len(raw)) > 0.10 {
			return QueryTypeCodeSnippet
		}
	}

	for _, p := range nlPatterns {
		if strings.Contains(lower, p) {
			return QueryTypeNaturalLanguage
		}
	}
	if strings.Contains(raw, "?") {
		return QueryTypeNaturalLanguage
	}

	return QueryTypeNaturalLanguage
}

// NormalizeQuery trims and collapses whitespace; natural-language
// queries additionally lose trailing punctuation. Code queries are
// otherwise preserved verbatim.
func NormalizeQuery(raw string, qt QueryType) string {
	out := whitespaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
	if qt == QueryTypeNaturalLanguage {
		out = strings.TrimRight(out, ".!?")
		out = strings.TrimSpace(out)
	}
	return out
}

// ProcessQuery is Retrieval Stage 1: classify, normalize, and embed the
// raw query, consulting the query-embedding cache first. An empty or
// whitespace-only query is a validation error and makes no backend call.
func (p *Pipeline) ProcessQuery(ctx context.Context, raw string) (*ProcessedQuery, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, cerrors.Validation(cerrors.CodeMissingField, "query must not be empty",
			"Pass a non-empty query string")
	}
	started := time.Now()

	qt := ClassifyQuery(raw)
	normalized := NormalizeQuery(raw, qt)

	if vec, ok := p.qcache.Get(normalized); ok {
		return &ProcessedQuery{
			NormalizedText: normalized,
			QueryType:      qt,
			Embedding:      vec,
			ElapsedMS:      time.Since(started).Milliseconds(),
		}, nil
	}

	vecs, err := p.client.Embed(ctx, p.cfg.Embedding.Model, []string{normalized},
		p.cfg.Embedding.Dimensions, p.cfg.Embedding.ContextWindow)
	if err != nil {
		return nil, err
	}
	p.qcache.Set(normalized, vecs[0])

	return &ProcessedQuery{
		NormalizedText: normalized,
		QueryType:      qt,
		Embedding:      vecs[0],
		ElapsedMS:      time.Since(started).Milliseconds(),
	}, nil
}
