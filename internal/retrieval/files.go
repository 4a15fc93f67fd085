package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/gianged/cindex/internal/store"
)

// ftsSanitizer strips FTS query-syntax characters from free text
// before it reaches the keyword leg.
var ftsSanitizer = strings.NewReplacer(
	"&", " ", "|", " ", "!", " ", "(", " ", ")", " ",
	":", " ", "*", " ", "<", " ", ">", " ",
)

// SanitizeKeywordQuery removes query-operator characters and collapses
// whitespace.
func SanitizeKeywordQuery(text string) string {
	return strings.Join(strings.Fields(ftsSanitizer.Replace(text)), " ")
}

// RetrieveFiles is Retrieval Stage 2: top-K files by hybrid score.
//
// A candidate qualifies if its vector similarity exceeds the
// similarity threshold OR its keyword rank exceeds 0.01. Results order
// by score descending, tie-broken by vector distance ascending. With
// hybrid search disabled the ranking collapses to vector-only.
func (p *Pipeline) RetrieveFiles(ctx context.Context, q *ProcessedQuery, scope *ResolvedScope, topK int) ([]FileHit, error) {
	if topK <= 0 {
		topK = 10
	}
	// Overfetch so scope filtering still leaves topK candidates.
	fetch := topK * 4
	if fetch < 40 {
		fetch = 40
	}

	type candidate struct {
		vectorSim   float64
		keywordRank float64
	}
	candidates := make(map[[2]string]*candidate)

	vecMatches, err := store.SearchFilesByVector(p.store.DB(), q.Embedding, fetch)
	if err != nil {
		return nil, err
	}
	for _, m := range vecMatches {
		repoID, filePath := store.SplitFileKey(m.ID)
		candidates[[2]string{repoID, filePath}] = &candidate{vectorSim: 1 - m.Distance}
	}

	hybrid := p.cfg.Retrieval.HybridSearchEnabled
	kwQuery := SanitizeKeywordQuery(q.NormalizedText)
	if hybrid && kwQuery != "" {
		kwMatches, err := store.SearchFilesByKeyword(p.store.DB(), kwQuery, scope.RepoIDs, fetch)
		if err != nil {
			return nil, err
		}
		for _, m := range kwMatches {
			key := [2]string{m.RepoID, m.FilePath}
			// bm25 ranks are negative-is-better; flip to a positive
			// magnitude so the hybrid sum is monotone.
			rank := -m.Rank
			if rank < 0 {
				rank = 0
			}
			if c, ok := candidates[key]; ok {
				c.keywordRank = rank
			} else {
				candidates[key] = &candidate{keywordRank: rank}
			}
		}
	}

	pairs := make([][2]string, 0, len(candidates))
	for key := range candidates {
		pairs = append(pairs, key)
	}
	files, err := p.store.GetFilesByPaths(pairs)
	if err != nil {
		return nil, err
	}

	wv, wk := p.cfg.Retrieval.HybridVectorWeight, p.cfg.Retrieval.HybridKeywordWeight
	threshold := p.cfg.Retrieval.SimilarityThreshold

	var hits []FileHit
	for _, f := range files {
		if !scope.InRepo(f.RepoID) {
			continue
		}
		if !matchScopeDimension(f.WorkspaceID, scope.WorkspaceIDs) ||
			!matchScopeDimension(f.ServiceID, scope.ServiceIDs) ||
			!matchScopeDimension(f.PackageName, scope.PackageNames) {
			continue
		}
		c := candidates[[2]string{f.RepoID, f.FilePath}]

		if !hybrid {
			if c.vectorSim < threshold {
				continue
			}
			hits = append(hits, FileHit{File: f, VectorSim: c.vectorSim, Score: c.vectorSim})
			continue
		}

		if c.vectorSim < threshold && c.keywordRank <= 0.01 {
			continue
		}
		hits = append(hits, FileHit{
			File:        f,
			VectorSim:   c.vectorSim,
			KeywordRank: c.keywordRank,
			Score:       wv*c.vectorSim + wk*c.keywordRank,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		// Tie-break by vector distance ascending, then repo/file for
		// a total deterministic order.
		if hits[i].VectorSim != hits[j].VectorSim {
			return hits[i].VectorSim > hits[j].VectorSim
		}
		if hits[i].File.RepoID != hits[j].File.RepoID {
			return hits[i].File.RepoID < hits[j].File.RepoID
		}
		return hits[i].File.FilePath < hits[j].File.FilePath
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// matchScopeDimension applies one set-membership scope predicate; an
// empty filter set matches everything.
func matchScopeDimension(value string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == value {
			return true
		}
	}
	return false
}
