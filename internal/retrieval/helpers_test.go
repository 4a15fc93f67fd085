package retrieval_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/config"
	"github.com/gianged/cindex/internal/retrieval"
	"github.com/gianged/cindex/internal/store"
	"github.com/gianged/cindex/internal/types"
)

const testDims = 4

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Embedding.Dimensions = testDims
	return cfg
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "cindex.db"), testDims, 1)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestPipeline(t *testing.T, st *store.Store, cfg *config.Config) *retrieval.Pipeline {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	p, err := retrieval.New(st, nil, cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func seedRepo(t *testing.T, st *store.Store, repoID string, kind types.RepoKind) {
	t.Helper()
	require.NoError(t, st.UpsertRepository(types.Repository{
		RepoID: repoID, Name: repoID, Kind: kind, IndexedAt: time.Now(),
	}))
}

func seedFile(t *testing.T, st *store.Store, f types.File) {
	t.Helper()
	if f.IndexedAt.IsZero() {
		f.IndexedAt = time.Now()
	}
	require.NoError(t, st.WithTx(func(tx *sql.Tx) error {
		return st.UpsertFile(tx, f)
	}))
}

func seedCrossRepoDep(t *testing.T, st *store.Store, source, target string) {
	t.Helper()
	require.NoError(t, st.WithTx(func(tx *sql.Tx) error {
		return st.UpsertCrossRepoDependency(tx, source, target)
	}))
}

// unitVec builds a dims-length vector with a 1 at idx, for orthogonal
// test embeddings.
func unitVec(idx int) []float32 {
	v := make([]float32, testDims)
	v[idx%testDims] = 1
	return v
}
