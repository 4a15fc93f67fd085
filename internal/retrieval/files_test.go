package retrieval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/retrieval"
	"github.com/gianged/cindex/internal/types"
)

func TestSanitizeKeywordQuery(t *testing.T) {
	assert.Equal(t, "user auth bcrypt",
		retrieval.SanitizeKeywordQuery("user & auth | (bcrypt*)"))
	assert.Equal(t, "", retrieval.SanitizeKeywordQuery("&|!():*<>"))
}

func TestRetrieveFiles_HybridWeightCollapse(t *testing.T) {
	st := openTestStore(t)
	seedRepo(t, st, "app", types.RepoKindMonolithic)
	seedFile(t, st, types.File{
		RepoID: "app", FilePath: "auth.ts", Language: "typescript",
		Summary: "user authentication with bcrypt", SummaryEmbedding: unitVec(0),
		ContentHash: "a",
	})
	seedFile(t, st, types.File{
		RepoID: "app", FilePath: "log.ts", Language: "typescript",
		Summary: "unrelated logging helpers", SummaryEmbedding: unitVec(1),
		ContentHash: "b",
	})

	q := &retrieval.ProcessedQuery{
		NormalizedText: "bcrypt authentication",
		QueryType:      retrieval.QueryTypeNaturalLanguage,
		Embedding:      unitVec(0),
	}

	for _, weights := range []struct {
		name   string
		wv, wk float64
	}{
		{"pure vector", 1.0, 0.0},
		{"pure keyword", 0.0, 1.0},
	} {
		t.Run(weights.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Retrieval.HybridVectorWeight = weights.wv
			cfg.Retrieval.HybridKeywordWeight = weights.wk
			p := newTestPipeline(t, st, cfg)

			scope, err := p.ResolveScope(retrieval.ScopeConfig{Mode: retrieval.ScopeGlobal}, false)
			require.NoError(t, err)

			hits, err := p.RetrieveFiles(context.Background(), q, scope, 10)
			require.NoError(t, err)
			require.NotEmpty(t, hits)
			assert.Equal(t, "auth.ts", hits[0].File.FilePath,
				"bcrypt file ranks first under either weighting")
			for _, h := range hits[1:] {
				assert.Less(t, h.Score, hits[0].Score)
			}
		})
	}
}

func TestRetrieveFiles_ScopeMembershipFilters(t *testing.T) {
	st := openTestStore(t)
	seedRepo(t, st, "in", types.RepoKindMonolithic)
	seedRepo(t, st, "out", types.RepoKindReference)
	seedFile(t, st, types.File{
		RepoID: "in", FilePath: "a.ts", Summary: "payment processing",
		SummaryEmbedding: unitVec(0), ContentHash: "1",
	})
	seedFile(t, st, types.File{
		RepoID: "out", FilePath: "b.ts", Summary: "payment processing reference",
		SummaryEmbedding: unitVec(0), ContentHash: "2",
	})

	p := newTestPipeline(t, st, nil)
	scope, err := p.ResolveScope(retrieval.ScopeConfig{Mode: retrieval.ScopeGlobal}, false)
	require.NoError(t, err)

	q := &retrieval.ProcessedQuery{NormalizedText: "payment", Embedding: unitVec(0)}
	hits, err := p.RetrieveFiles(context.Background(), q, scope, 10)
	require.NoError(t, err)

	for _, h := range hits {
		assert.NotEqual(t, "out", h.File.RepoID,
			"global scope never returns reference-repo rows")
	}
	require.NotEmpty(t, hits)
	assert.Equal(t, "in", hits[0].File.RepoID)
}
