package retrieval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/retrieval"
	"github.com/gianged/cindex/internal/types"
)

func TestResolveScope_GlobalExcludesReferenceAndDocs(t *testing.T) {
	st := openTestStore(t)
	seedRepo(t, st, "app", types.RepoKindMonolithic)
	seedRepo(t, st, "libs", types.RepoKindLibrary)
	seedRepo(t, st, "stdlib-docs", types.RepoKindReference)
	seedRepo(t, st, "handbook", types.RepoKindDocumentation)
	p := newTestPipeline(t, st, nil)

	scope, err := p.ResolveScope(retrieval.ScopeConfig{Mode: retrieval.ScopeGlobal}, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app", "libs"}, scope.RepoIDs)

	// search_references flips the filter: only the excluded kinds.
	refScope, err := p.ResolveScope(retrieval.ScopeConfig{Mode: retrieval.ScopeGlobal}, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"handbook", "stdlib-docs"}, refScope.RepoIDs)
}

func TestResolveScope_RepositoryModeRequiresIDs(t *testing.T) {
	st := openTestStore(t)
	seedRepo(t, st, "app", types.RepoKindMonolithic)
	p := newTestPipeline(t, st, nil)

	_, err := p.ResolveScope(retrieval.ScopeConfig{Mode: retrieval.ScopeRepository}, false)
	var cerr *cerrors.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cerrors.CategoryValidation, cerr.Category)

	scope, err := p.ResolveScope(retrieval.ScopeConfig{
		Mode: retrieval.ScopeRepository, RepoIDs: []string{"app"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, scope.RepoIDs)
}

func TestResolveScope_BoundaryDepthOne(t *testing.T) {
	st := openTestStore(t)
	seedRepo(t, st, "X", types.RepoKindMicroservice)
	seedRepo(t, st, "Y", types.RepoKindMicroservice)
	seedRepo(t, st, "Z", types.RepoKindMicroservice)
	seedCrossRepoDep(t, st, "X", "Y")
	seedCrossRepoDep(t, st, "Y", "Z")
	p := newTestPipeline(t, st, nil)

	scope, err := p.ResolveScope(retrieval.ScopeConfig{
		Mode: retrieval.ScopeBoundary,
		Boundary: retrieval.BoundaryConfig{
			StartRepo: "X", FollowDependencies: true, MaxDepth: 1,
		},
	}, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"X", "Y"}, scope.RepoIDs)
}

func TestResolveScope_BoundaryDepthZeroIsStartOnly(t *testing.T) {
	st := openTestStore(t)
	seedRepo(t, st, "X", types.RepoKindMicroservice)
	seedRepo(t, st, "Y", types.RepoKindMicroservice)
	seedCrossRepoDep(t, st, "X", "Y")
	p := newTestPipeline(t, st, nil)

	scope, err := p.ResolveScope(retrieval.ScopeConfig{
		Mode: retrieval.ScopeBoundary,
		Boundary: retrieval.BoundaryConfig{
			StartRepo: "X", FollowDependencies: true, MaxDepth: 0,
		},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, scope.RepoIDs)
}

func TestResolveScope_ExclusionListsApplyAfterMode(t *testing.T) {
	st := openTestStore(t)
	seedRepo(t, st, "a", types.RepoKindMonolithic)
	seedRepo(t, st, "b", types.RepoKindMonolithic)
	p := newTestPipeline(t, st, nil)

	scope, err := p.ResolveScope(retrieval.ScopeConfig{
		Mode: retrieval.ScopeGlobal, ExcludeRepos: []string{"b"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, scope.RepoIDs)
}
