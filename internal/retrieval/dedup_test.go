package retrieval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/retrieval"
	"github.com/gianged/cindex/internal/types"
)

func hit(chunkID, repoID string, kind types.RepoKind, score float64, emb []float32) retrieval.ChunkHit {
	return retrieval.ChunkHit{
		Chunk:     types.Chunk{ChunkID: chunkID, RepoID: repoID},
		RepoKind:  kind,
		Score:     score,
		Embedding: emb,
	}
}

func TestDedup_SameRepoKeepsHigherScore(t *testing.T) {
	same := []float32{1, 0, 0, 0}
	out := retrieval.Dedup([]retrieval.ChunkHit{
		hit("low", "r1", types.RepoKindMonolithic, 0.5, same),
		hit("high", "r1", types.RepoKindMonolithic, 0.9, same),
	}, 0.92)

	require.Len(t, out, 1)
	assert.Equal(t, "high", out[0].Chunk.ChunkID)
}

func TestDedup_ReferenceSideIsTagged(t *testing.T) {
	same := []float32{0, 1, 0, 0}
	out := retrieval.Dedup([]retrieval.ChunkHit{
		hit("main", "app", types.RepoKindMonolithic, 0.8, same),
		hit("ref", "stdlib-docs", types.RepoKindReference, 0.8, same),
	}, 0.92)

	require.Len(t, out, 2)
	byID := map[string]retrieval.ChunkHit{}
	for _, h := range out {
		byID[h.Chunk.ChunkID] = h
	}
	assert.False(t, byID["main"].SimilarToMainCode)
	assert.True(t, byID["ref"].SimilarToMainCode)
}

func TestDedup_DistinctChunksSurvive(t *testing.T) {
	out := retrieval.Dedup([]retrieval.ChunkHit{
		hit("a", "r1", types.RepoKindMonolithic, 0.9, []float32{1, 0, 0, 0}),
		hit("b", "r1", types.RepoKindMonolithic, 0.8, []float32{0, 1, 0, 0}),
	}, 0.92)
	assert.Len(t, out, 2)
}

func TestDedup_PriorityWeightedOrdering(t *testing.T) {
	// Reference priority 0.6 drags an equal-similarity chunk below the
	// monolithic one; documentation (0.5) goes last.
	out := retrieval.Dedup([]retrieval.ChunkHit{
		hit("doc", "docs", types.RepoKindDocumentation, 0.9, []float32{1, 0, 0, 0}),
		hit("ref", "refs", types.RepoKindReference, 0.9, []float32{0, 1, 0, 0}),
		hit("main", "app", types.RepoKindMonolithic, 0.8, []float32{0, 0, 1, 0}),
	}, 0.92)

	require.Len(t, out, 3)
	assert.Equal(t, "main", out[0].Chunk.ChunkID) // 0.8 * 1.0
	assert.Equal(t, "ref", out[1].Chunk.ChunkID)  // 0.9 * 0.6
	assert.Equal(t, "doc", out[2].Chunk.ChunkID)  // 0.9 * 0.5
}

func TestDedup_TieBreakIsDeterministic(t *testing.T) {
	out := retrieval.Dedup([]retrieval.ChunkHit{
		hit("z", "repo-b", types.RepoKindMonolithic, 0.7, []float32{1, 0, 0, 0}),
		hit("a", "repo-a", types.RepoKindMonolithic, 0.7, []float32{0, 1, 0, 0}),
	}, 0.92)

	require.Len(t, out, 2)
	assert.Equal(t, "repo-a", out[0].Chunk.RepoID, "ascending repo_id breaks score ties")
}
