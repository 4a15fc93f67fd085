package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gianged/cindex/internal/retrieval"
	"github.com/gianged/cindex/internal/types"
)

func TestArgAccessors(t *testing.T) {
	args := map[string]interface{}{
		"query":   "auth flow",
		"confirm": true,
		"limit":   float64(25),
		"repo_ids": []interface{}{"a", "b", 7},
	}

	assert.Equal(t, "auth flow", strArg(args, "query"))
	assert.Equal(t, "", strArg(args, "missing"))
	assert.True(t, boolArg(args, "confirm"))
	assert.False(t, boolArg(args, "missing"))

	limit, ok := intArg(args, "limit")
	assert.True(t, ok)
	assert.Equal(t, 25, limit)
	_, ok = intArg(args, "missing")
	assert.False(t, ok)

	// Non-string entries are dropped, not errors.
	assert.Equal(t, []string{"a", "b"}, strSliceArg(args, "repo_ids"))
	assert.Nil(t, strSliceArg(args, "missing"))
}

func TestScopeFromArgs(t *testing.T) {
	args := map[string]interface{}{
		"scope_mode":          "boundary-aware",
		"start_repo":          "X",
		"follow_dependencies": true,
		"exclude_repo_types":  []interface{}{"reference"},
		"exclude_repos":       []interface{}{"sandbox"},
	}
	cfg := scopeFromArgs(args)

	assert.Equal(t, retrieval.ScopeBoundary, cfg.Mode)
	assert.Equal(t, "X", cfg.Boundary.StartRepo)
	assert.True(t, cfg.Boundary.FollowDependencies)
	assert.Equal(t, 2, cfg.Boundary.MaxDepth, "absent max_depth defaults to 2")
	assert.Equal(t, []types.RepoKind{types.RepoKindReference}, cfg.ExcludeRepoTypes)
	assert.Equal(t, []string{"sandbox"}, cfg.ExcludeRepos)
}

func TestScopeFromArgs_ExplicitZeroDepth(t *testing.T) {
	cfg := scopeFromArgs(map[string]interface{}{
		"scope_mode": "boundary-aware",
		"start_repo": "X",
		"max_depth":  float64(0),
	})
	assert.Equal(t, 0, cfg.Boundary.MaxDepth, "an explicit 0 means start repo only")
}

func TestNeedsConfirm(t *testing.T) {
	err := needsConfirm("delete_repository")
	assert.Contains(t, err.Error(), "confirm")
}
