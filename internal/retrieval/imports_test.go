package retrieval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/retrieval"
	"github.com/gianged/cindex/internal/types"
)

func TestIsExternalImport(t *testing.T) {
	aliases := map[string][]string{"@app/*": {"src/*"}}
	packages := map[string]string{"@acme/ui": "packages/ui"}

	tests := []struct {
		spec     string
		external bool
	}{
		{"node:fs", true},
		{"https://deno.land/std/http.ts", true},
		{"express", true},
		{"lodash/merge", true},
		{"@scoped/pkg", true},
		{"./util", false},
		{"../lib/db", false},
		{"/src/index", false},
		{"@app/components", false}, // alias-prefixed
		{"@acme/ui", false},        // workspace package
		{"@acme/ui/button", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.external, retrieval.IsExternalImport(tt.spec, aliases, packages))
		})
	}
}

func TestExpandImports_CircularChain(t *testing.T) {
	st := openTestStore(t)
	seedRepo(t, st, "cyc", types.RepoKindMonolithic)
	seedFile(t, st, types.File{RepoID: "cyc", FilePath: "a.ts", Language: "typescript",
		Imports: []string{"./b"}, Summary: "a", ContentHash: "ha"})
	seedFile(t, st, types.File{RepoID: "cyc", FilePath: "b.ts", Language: "typescript",
		Imports: []string{"./c"}, Summary: "b", ContentHash: "hb"})
	seedFile(t, st, types.File{RepoID: "cyc", FilePath: "c.ts", Language: "typescript",
		Imports: []string{"./a"}, Summary: "c", ContentHash: "hc"})

	cfg := testConfig()
	cfg.Index.ImportDepth = 5
	p := newTestPipeline(t, st, cfg)

	a, err := st.GetFile("cyc", "a.ts")
	require.NoError(t, err)
	chains, err := p.ExpandImports(context.Background(), []retrieval.FileHit{{File: *a}}, 10)
	require.NoError(t, err)

	var circular []retrieval.ChainEntry
	for _, c := range chains {
		if c.Circular {
			circular = append(circular, c)
		}
	}
	require.Len(t, circular, 1, "exactly one circular entry")
	assert.Equal(t, "a.ts", circular[0].FilePath)
	assert.GreaterOrEqual(t, circular[0].Depth, 2)
	assert.True(t, circular[0].Truncated)

	// b and c each appear exactly once: no re-recursion past the cycle.
	count := map[string]int{}
	for _, c := range chains {
		count[c.FilePath]++
	}
	assert.Equal(t, 1, count["b.ts"])
	assert.Equal(t, 1, count["c.ts"])
}

func TestExpandImports_ExternalDependencyTruncation(t *testing.T) {
	st := openTestStore(t)
	seedRepo(t, st, "r", types.RepoKindMonolithic)
	seedFile(t, st, types.File{RepoID: "r", FilePath: "main.ts", Language: "typescript",
		Imports: []string{"express", "./helper"}, Summary: "entry", ContentHash: "h1"})
	seedFile(t, st, types.File{RepoID: "r", FilePath: "helper.ts", Language: "typescript",
		Summary: "helper", ContentHash: "h2"})

	p := newTestPipeline(t, st, nil)
	main, err := st.GetFile("r", "main.ts")
	require.NoError(t, err)
	chains, err := p.ExpandImports(context.Background(), []retrieval.FileHit{{File: *main}}, 10)
	require.NoError(t, err)

	byPath := map[string]retrieval.ChainEntry{}
	for _, c := range chains {
		byPath[c.FilePath] = c
	}

	express := byPath["express"]
	assert.True(t, express.Truncated)
	assert.Equal(t, retrieval.TruncationExternalDependency, express.TruncationReason)

	helper := byPath["helper.ts"]
	assert.False(t, helper.Circular)
	assert.Equal(t, 1, helper.Depth)
	assert.Equal(t, "helper", helper.FileSummary)
}

func TestExpandImports_DepthLimit(t *testing.T) {
	st := openTestStore(t)
	seedRepo(t, st, "deep", types.RepoKindMonolithic)
	seedFile(t, st, types.File{RepoID: "deep", FilePath: "l1.ts", Imports: []string{"./l2"}, ContentHash: "1"})
	seedFile(t, st, types.File{RepoID: "deep", FilePath: "l2.ts", Imports: []string{"./l3"}, ContentHash: "2"})
	seedFile(t, st, types.File{RepoID: "deep", FilePath: "l3.ts", Imports: []string{"./l4"}, ContentHash: "3"})
	seedFile(t, st, types.File{RepoID: "deep", FilePath: "l4.ts", ContentHash: "4"})

	cfg := testConfig()
	cfg.Index.ImportDepth = 2
	p := newTestPipeline(t, st, cfg)

	l1, err := st.GetFile("deep", "l1.ts")
	require.NoError(t, err)
	chains, err := p.ExpandImports(context.Background(), []retrieval.FileHit{{File: *l1}}, 10)
	require.NoError(t, err)

	byPath := map[string]retrieval.ChainEntry{}
	for _, c := range chains {
		byPath[c.FilePath] = c
	}
	assert.False(t, byPath["l2.ts"].Truncated)
	assert.True(t, byPath["l3.ts"].Truncated)
	assert.Equal(t, retrieval.TruncationDepthLimit, byPath["l3.ts"].TruncationReason)
	_, visited := byPath["l4.ts"]
	assert.False(t, visited, "expansion stops at the depth limit")
}
