package retrieval_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/retrieval"
	"github.com/gianged/cindex/internal/types"
)

func chunkOfTokens(id string, kind types.RepoKind, tokens int) retrieval.ChunkHit {
	return retrieval.ChunkHit{
		Chunk: types.Chunk{
			ChunkID:    id,
			RepoID:     "r-" + string(kind),
			Content:    strings.Repeat("x", tokens*4),
			TokenCount: tokens,
		},
		RepoKind: kind,
		Score:    0.9,
		Priority: kind.PriorityWeight(),
	}
}

func TestAssemble_HardCapSetsPartialResults(t *testing.T) {
	cfg := testConfig()
	cfg.Retrieval.WarnContextTokens = 100
	cfg.Retrieval.MaxContextTokens = 250
	p := newTestPipeline(t, openTestStore(t), cfg)

	q := &retrieval.ProcessedQuery{NormalizedText: "q", QueryType: retrieval.QueryTypeNaturalLanguage}
	var chunks []retrieval.ChunkHit
	for i := 0; i < 5; i++ {
		chunks = append(chunks, chunkOfTokens(fmt.Sprintf("c%d", i), types.RepoKindMonolithic, 100))
	}

	out := p.Assemble(q, nil, chunks, nil, nil, nil)
	assert.Len(t, out.PrimaryCode, 2, "two 100-token chunks fit under 250")
	assert.True(t, out.Partial)
	assert.NotEmpty(t, out.Warnings)
	assert.LessOrEqual(t, out.TokensUsed, 250)
}

func TestAssemble_GroupCaps(t *testing.T) {
	cfg := testConfig()
	cfg.Retrieval.MaxContextTokens = 1_000_000
	p := newTestPipeline(t, openTestStore(t), cfg)

	q := &retrieval.ProcessedQuery{NormalizedText: "q"}
	var chunks []retrieval.ChunkHit
	for i := 0; i < 8; i++ {
		chunks = append(chunks, chunkOfTokens(fmt.Sprintf("ref%d", i), types.RepoKindReference, 10))
	}
	for i := 0; i < 6; i++ {
		chunks = append(chunks, chunkOfTokens(fmt.Sprintf("doc%d", i), types.RepoKindDocumentation, 10))
	}
	chunks = append(chunks, chunkOfTokens("lib", types.RepoKindLibrary, 10))
	chunks = append(chunks, chunkOfTokens("main", types.RepoKindMicroservice, 10))

	out := p.Assemble(q, nil, chunks, nil, nil, nil)
	assert.Len(t, out.References, 5, "references capped at 5")
	assert.Len(t, out.Documentation, 3, "documentation capped at 3")
	assert.Len(t, out.Libraries, 1)
	assert.Len(t, out.PrimaryCode, 1)
	assert.False(t, out.Partial)
}

func TestAssemble_CarriesAPIResult(t *testing.T) {
	p := newTestPipeline(t, openTestStore(t), nil)
	q := &retrieval.ProcessedQuery{NormalizedText: "q"}
	api := &retrieval.APIResult{
		Endpoints: []types.APIEndpoint{{EndpointID: "e1"}},
		Links:     []retrieval.ContractLink{{EndpointID: "e1", ChunkID: "c1", Confidence: 1.0}},
		Warnings:  []string{"endpoint GET /x is deprecated"},
	}

	out := p.Assemble(q, nil, nil, nil, nil, api)
	require.Len(t, out.Endpoints, 1)
	require.Len(t, out.ContractLinks, 1)
	assert.Contains(t, out.Warnings, "endpoint GET /x is deprecated")
}
