package store_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/store"
	"github.com/gianged/cindex/internal/types"
)

const testDims = 4

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "cindex.db"), testDims, 1)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedFullRepo(t *testing.T, st *store.Store, repoID string) {
	t.Helper()
	require.NoError(t, st.UpsertRepository(types.Repository{
		RepoID: repoID, Name: repoID, Kind: types.RepoKindMonolithic, IndexedAt: time.Now(),
	}))
	require.NoError(t, st.WithTx(func(tx *sql.Tx) error {
		if err := st.UpsertFile(tx, types.File{
			RepoID: repoID, FilePath: "a.go", Language: "go",
			Summary: "file a", SummaryEmbedding: []float32{1, 0, 0, 0},
			ContentHash: "h1", IndexedAt: time.Now(),
		}); err != nil {
			return err
		}
		if err := st.UpsertChunk(tx, types.Chunk{
			ChunkID: repoID + "-c1", RepoID: repoID, FilePath: "a.go",
			ChunkType: types.ChunkTypeFunction, Content: "func A() {}",
			StartLine: 1, EndLine: 3, TokenCount: 3,
			Embedding: []float32{0, 1, 0, 0},
		}); err != nil {
			return err
		}
		if err := st.UpsertSymbol(tx, types.Symbol{
			SymbolID: repoID + "-s1", RepoID: repoID, Name: "A",
			Kind: types.SymbolKindFunction, FilePath: "a.go", Line: 1,
			Scope: types.ScopeExported,
		}); err != nil {
			return err
		}
		if err := st.UpsertWorkspace(tx, types.Workspace{
			WorkspaceID: repoID + "-w1", RepoID: repoID, Name: "pkg",
			AbsPath: "/x", RelPath: "pkg",
		}); err != nil {
			return err
		}
		if err := st.UpsertService(tx, types.Service{
			ServiceID: repoID + "-svc1", RepoID: repoID, Name: "api", Kind: types.ServiceKindDocker,
		}); err != nil {
			return err
		}
		return st.UpsertEndpoint(tx, types.APIEndpoint{
			EndpointID: repoID + "-e1", ServiceID: repoID + "-svc1", RepoID: repoID,
			APIType: types.APITypeREST, Path: "/a", Method: "GET",
			Embedding: []float32{0, 0, 1, 0},
		})
	}))
}

func TestDeleteRepository_RemovesEveryOwnedRow(t *testing.T) {
	st := openTestStore(t)
	seedFullRepo(t, st, "victim")
	seedFullRepo(t, st, "survivor")
	require.NoError(t, st.WithTx(func(tx *sql.Tx) error {
		return st.UpsertCrossRepoDependency(tx, "victim", "survivor")
	}))

	require.NoError(t, st.DeleteRepository("victim"))

	for _, q := range []string{
		"SELECT COUNT(*) FROM code_files WHERE repo_id = 'victim'",
		"SELECT COUNT(*) FROM code_chunks WHERE repo_id = 'victim'",
		"SELECT COUNT(*) FROM code_symbols WHERE repo_id = 'victim'",
		"SELECT COUNT(*) FROM workspaces WHERE repo_id = 'victim'",
		"SELECT COUNT(*) FROM services WHERE repo_id = 'victim'",
		"SELECT COUNT(*) FROM api_endpoints WHERE repo_id = 'victim'",
		"SELECT COUNT(*) FROM cross_repo_dependencies WHERE source_repo_id = 'victim' OR target_repo_id = 'victim'",
	} {
		var n int
		require.NoError(t, st.DB().QueryRow(q).Scan(&n))
		assert.Zero(t, n, q)
	}

	// The other repo is untouched.
	repos, err := st.ListRepositories()
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "survivor", repos[0].RepoID)
}

func TestVectorSearchRoundTrip(t *testing.T) {
	st := openTestStore(t)
	seedFullRepo(t, st, "r")

	matches, err := store.SearchChunksByVector(st.DB(), []float32{0, 1, 0, 0}, 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "r-c1", matches[0].ID)
	assert.InDelta(t, 0, matches[0].Distance, 1e-5)

	embs, err := st.GetChunkEmbeddings([]string{"r-c1"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 0}, embs["r-c1"])
}

func TestKeywordSearchEscaping(t *testing.T) {
	st := openTestStore(t)
	seedFullRepo(t, st, "r")

	// Operator characters must not reach FTS5 as syntax.
	matches, err := store.SearchChunksByKeyword(st.DB(), "func A()", nil, 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "r-c1", matches[0].ChunkID)
}

func TestEscapeFTSQuery(t *testing.T) {
	assert.Equal(t, `"bcrypt" "authentication"`, store.EscapeFTSQuery("bcrypt authentication"))
	assert.Equal(t, `"a""b"`, store.EscapeFTSQuery(`a"b`))
	assert.Equal(t, "", store.EscapeFTSQuery("  "))
}

func TestRunStatsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	in := store.RunStats{RepoID: "r", FilesIndexed: 3, Version: "v1"}
	require.NoError(t, st.WithTx(func(tx *sql.Tx) error {
		return st.SaveRunStats(tx, in)
	}))

	out, err := st.LoadRunStats("r")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)

	missing, err := st.LoadRunStats("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListFileHashes(t *testing.T) {
	st := openTestStore(t)
	seedFullRepo(t, st, "r")

	hashes, err := st.ListFileHashes("r")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.go": "h1"}, hashes)
}

func TestFileSummaryChunkUniquenessQuery(t *testing.T) {
	st := openTestStore(t)
	seedFullRepo(t, st, "r")
	require.NoError(t, st.WithTx(func(tx *sql.Tx) error {
		return st.UpsertChunk(tx, types.Chunk{
			ChunkID: "r-sum", RepoID: "r", FilePath: "a.go",
			ChunkType: types.ChunkTypeFileSummary, Content: "summary",
			StartLine: 1, EndLine: 1,
		})
	}))

	var n int
	require.NoError(t, st.DB().QueryRow(
		"SELECT COUNT(*) FROM code_chunks WHERE repo_id='r' AND file_path='a.go' AND chunk_type='file_summary'",
	).Scan(&n))
	assert.Equal(t, 1, n)
}
