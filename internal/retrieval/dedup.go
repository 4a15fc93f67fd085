package retrieval

import (
	"sort"

	"github.com/gianged/cindex/internal/types"
)

// Dedup is Retrieval Stage 7: collapse near-duplicate chunks and
// apply repo-kind priority weighting.
//
// Chunks with pairwise cosine similarity above threshold are
// duplicates. Same-repo duplicates keep the higher-scored chunk;
// cross-repo duplicates where exactly one side is a reference repo
// keep both but tag the reference side similar_to_main_code; any other
// cross-repo pair keeps both. Retained chunks are ordered by
// similarity x priority descending, tie-broken by ascending repo_id
// then chunk_id.
func Dedup(chunks []ChunkHit, threshold float64) []ChunkHit {
	if threshold <= 0 {
		threshold = 0.92
	}
	dropped := make([]bool, len(chunks))

	for i := 0; i < len(chunks); i++ {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(chunks); j++ {
			if dropped[j] {
				continue
			}
			sim := cosineSimilarity(chunks[i].Embedding, chunks[j].Embedding)
			if sim <= threshold {
				continue
			}

			a, b := &chunks[i], &chunks[j]
			switch {
			case a.Chunk.RepoID == b.Chunk.RepoID:
				// Same repo: keep the higher-scored chunk.
				if a.Score >= b.Score {
					dropped[j] = true
				} else {
					dropped[i] = true
				}
			case (a.RepoKind == types.RepoKindReference) != (b.RepoKind == types.RepoKindReference):
				// Cross-repo, one side a reference repo: keep both,
				// tag the reference side as shadowing main code.
				if a.RepoKind == types.RepoKindReference {
					a.SimilarToMainCode = true
				} else {
					b.SimilarToMainCode = true
				}
			default:
				// Cross-repo, same standing: keep both.
			}
			if dropped[i] {
				break
			}
		}
	}

	var out []ChunkHit
	for i, h := range chunks {
		if dropped[i] {
			continue
		}
		h.Priority = h.RepoKind.PriorityWeight()
		out = append(out, h)
	}

	sort.Slice(out, func(i, j int) bool {
		si := out[i].Score * out[i].Priority
		sj := out[j].Score * out[j].Priority
		if si != sj {
			return si > sj
		}
		if out[i].Chunk.RepoID != out[j].Chunk.RepoID {
			return out[i].Chunk.RepoID < out[j].Chunk.RepoID
		}
		return out[i].Chunk.ChunkID < out[j].Chunk.ChunkID
	})
	return out
}
