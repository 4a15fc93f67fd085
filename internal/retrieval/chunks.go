package retrieval

import (
	"context"
	"sort"

	"github.com/gianged/cindex/internal/store"
	"github.com/gianged/cindex/internal/types"
)

// RetrieveChunks is Retrieval Stage 3: the same hybrid machinery as
// Stage 2, restricted to chunks of the Stage 2 top files and excluding
// file_summary chunks. Embeddings are loaded alongside so Stage 7 can
// deduplicate without another round trip.
func (p *Pipeline) RetrieveChunks(ctx context.Context, q *ProcessedQuery, scope *ResolvedScope, files []FileHit) ([]ChunkHit, error) {
	if len(files) == 0 {
		return nil, nil
	}
	allowed := make(map[[2]string]bool, len(files))
	for _, f := range files {
		allowed[[2]string{f.File.RepoID, f.File.FilePath}] = true
	}

	maxChunks := p.cfg.Retrieval.MaxChunks
	if maxChunks <= 0 {
		maxChunks = 100
	}
	fetch := maxChunks * 4

	type candidate struct {
		vectorSim   float64
		keywordRank float64
	}
	candidates := make(map[string]*candidate)

	vecMatches, err := store.SearchChunksByVector(p.store.DB(), q.Embedding, fetch)
	if err != nil {
		return nil, err
	}
	for _, m := range vecMatches {
		candidates[m.ID] = &candidate{vectorSim: 1 - m.Distance}
	}

	hybrid := p.cfg.Retrieval.HybridSearchEnabled
	kwQuery := SanitizeKeywordQuery(q.NormalizedText)
	if hybrid && kwQuery != "" {
		kwMatches, err := store.SearchChunksByKeyword(p.store.DB(), kwQuery, scope.RepoIDs, fetch)
		if err != nil {
			return nil, err
		}
		for _, m := range kwMatches {
			rank := -m.Rank
			if rank < 0 {
				rank = 0
			}
			if c, ok := candidates[m.ChunkID]; ok {
				c.keywordRank = rank
			} else {
				candidates[m.ChunkID] = &candidate{keywordRank: rank}
			}
		}
	}

	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	chunks, err := p.store.GetChunksByIDs(ids)
	if err != nil {
		return nil, err
	}
	embeddings, err := p.store.GetChunkEmbeddings(ids)
	if err != nil {
		return nil, err
	}

	wv, wk := p.cfg.Retrieval.HybridVectorWeight, p.cfg.Retrieval.HybridKeywordWeight
	threshold := p.cfg.Retrieval.ChunkSimilarityThreshold

	var hits []ChunkHit
	for _, c := range chunks {
		if c.ChunkType == types.ChunkTypeFileSummary {
			continue
		}
		if !allowed[[2]string{c.RepoID, c.FilePath}] {
			continue
		}
		cand := candidates[c.ChunkID]

		var score float64
		if hybrid {
			if cand.vectorSim < threshold && cand.keywordRank <= 0.01 {
				continue
			}
			score = wv*cand.vectorSim + wk*cand.keywordRank
		} else {
			if cand.vectorSim < threshold {
				continue
			}
			score = cand.vectorSim
		}

		kind := scope.RepoKinds[c.RepoID]
		hits = append(hits, ChunkHit{
			Chunk:       c,
			Embedding:   embeddings[c.ChunkID],
			VectorSim:   cand.vectorSim,
			KeywordRank: cand.keywordRank,
			Score:       score,
			RepoKind:    kind,
			Priority:    kind.PriorityWeight(),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Chunk.RepoID != hits[j].Chunk.RepoID {
			return hits[i].Chunk.RepoID < hits[j].Chunk.RepoID
		}
		return hits[i].Chunk.ChunkID < hits[j].Chunk.ChunkID
	})
	if len(hits) > maxChunks {
		hits = hits[:maxChunks]
	}
	return hits, nil
}

// ResolveSymbols is Retrieval Stage 4: collect the union of symbol
// names from chunk metadata and look up all exported definitions,
// grouped by name. Unresolved names are logged at debug level only.
func (p *Pipeline) ResolveSymbols(ctx context.Context, scope *ResolvedScope, chunks []ChunkHit, includeInternal bool) (map[string][]types.Symbol, error) {
	seen := make(map[string]bool)
	var names []string
	for _, h := range chunks {
		for _, n := range h.Chunk.Metadata.AllNames() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)

	symbols, err := p.store.ListSymbolsByNames(names, scope.RepoIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]types.Symbol)
	for _, s := range symbols {
		if !includeInternal && s.Scope != types.ScopeExported {
			continue
		}
		out[s.Name] = append(out[s.Name], s)
	}
	for _, n := range names {
		if _, ok := out[n]; !ok {
			p.log.Debug("symbol %q unresolved", n)
		}
	}
	return out, nil
}
