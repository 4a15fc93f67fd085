package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/types"
)

// ListFileHashes returns content_hash keyed by file_path for a repo, in
// one round trip; the orchestrator's incremental skip and stale-file
// deletion both diff against this map.
func (s *Store) ListFileHashes(repoID string) (map[string]string, error) {
	rows, err := s.db.Query("SELECT file_path, content_hash FROM code_files WHERE repo_id = ?", repoID)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list file hashes", err, false)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan file hash", err, false)
		}
		out[path] = hash
	}
	return out, rows.Err()
}

// ClearTopology removes a repo's workspaces, services and endpoints
// ahead of re-detection. Vector rows for endpoints are not covered by
// foreign keys and are removed explicitly.
func (s *Store) ClearTopology(tx *sql.Tx, repoID string) error {
	endpointIDs, err := queryColumn(tx, "SELECT endpoint_id FROM api_endpoints WHERE repo_id = ?", repoID)
	if err != nil {
		return err
	}
	for _, id := range endpointIDs {
		if err := deleteVector(tx, "api_endpoints_vec", "endpoint_id", id); err != nil {
			return err
		}
	}
	for _, stmt := range []string{
		"DELETE FROM api_endpoints WHERE repo_id = ?",
		"DELETE FROM services WHERE repo_id = ?",
		"DELETE FROM workspaces WHERE repo_id = ?",
	} {
		if _, err := tx.Exec(stmt, repoID); err != nil {
			return fmt.Errorf("clear topology: %w", err)
		}
	}
	return nil
}

// UpdateFileLinkage stamps a file (and its symbols) with the workspace,
// service and package detection resolved after all files were parsed.
func (s *Store) UpdateFileLinkage(tx *sql.Tx, repoID, filePath, workspaceID, serviceID, packageName string) error {
	if _, err := tx.Exec(`
		UPDATE code_files SET workspace_id = ?, service_id = ?, package_name = ?
		WHERE repo_id = ? AND file_path = ?`,
		workspaceID, serviceID, packageName, repoID, filePath); err != nil {
		return fmt.Errorf("update file linkage: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE code_symbols SET workspace_id = ?, service_id = ?
		WHERE repo_id = ? AND file_path = ?`,
		workspaceID, serviceID, repoID, filePath); err != nil {
		return fmt.Errorf("update symbol linkage: %w", err)
	}
	return nil
}

// RunStats is the persisted result of the last successful indexing run
// for a repository, returned verbatim when force-reindexing a reference
// repo whose version is unchanged.
type RunStats struct {
	RepoID          string `json:"repo_id"`
	FilesDiscovered int    `json:"files_discovered"`
	FilesIndexed    int    `json:"files_indexed"`
	FilesSkipped    int    `json:"files_skipped"`
	ChunksCreated   int    `json:"chunks_created"`
	SymbolsExtracted int   `json:"symbols_extracted"`
	Workspaces      int    `json:"workspaces"`
	Services        int    `json:"services"`
	Endpoints       int    `json:"endpoints"`
	SecretsDetected int    `json:"secrets_detected"`
	Version         string `json:"version"`
}

// SaveRunStats records the stats of a completed run in index_metadata.
func (s *Store) SaveRunStats(tx *sql.Tx, stats RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal run stats: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO index_metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		"stats:"+stats.RepoID, string(data))
	if err != nil {
		return fmt.Errorf("save run stats: %w", err)
	}
	return nil
}

// LoadRunStats returns the previous run's stats for a repo, or
// (nil, nil) when the repo has never completed a run.
func (s *Store) LoadRunStats(repoID string) (*RunStats, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM index_metadata WHERE key = ?", "stats:"+repoID).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "load run stats", err, false)
	}
	var stats RunStats
	if err := json.Unmarshal([]byte(value), &stats); err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "decode run stats", err, false)
	}
	return &stats, nil
}

// GetChunkEmbeddings reads back embedding vectors for a chunk ID set,
// used by retrieval-stage deduplication. Blobs hold raw little-endian
// float32s, the layout sqlite-vec stores.
func (s *Store) GetChunkEmbeddings(ids []string) (map[string][]float32, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT chunk_id, embedding FROM code_chunks_vec WHERE chunk_id IN (%s)",
		joinPlaceholders(placeholders)), args...)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "get chunk embeddings", err, false)
	}
	defer rows.Close()

	out := make(map[string][]float32, len(ids))
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan chunk embedding", err, false)
		}
		out[id] = decodeFloat32Blob(blob)
	}
	return out, rows.Err()
}

// GetFilesByPaths fetches file rows for a set of (repoID, filePath)
// pairs, used by file retrieval to apply scope predicates to
// vector/keyword candidates.
func (s *Store) GetFilesByPaths(pairs [][2]string) ([]types.File, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	clauses := make([]string, len(pairs))
	args := make([]interface{}, 0, len(pairs)*2)
	for i, p := range pairs {
		clauses[i] = "(repo_id = ? AND file_path = ?)"
		args = append(args, p[0], p[1])
	}
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT repo_id, file_path, language, total_lines, imports, exports, summary,
			summary_fallback, workspace_id, service_id, package_name, content_hash, indexed_at
		FROM code_files WHERE %s`, orJoin(clauses)), args...)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "get files by paths", err, false)
	}
	defer rows.Close()

	var out []types.File
	for rows.Next() {
		var f types.File
		var importsJSON, exportsJSON, indexedAt string
		if err := rows.Scan(&f.RepoID, &f.FilePath, &f.Language, &f.TotalLines, &importsJSON, &exportsJSON,
			&f.Summary, &f.SummaryFallback, &f.WorkspaceID, &f.ServiceID, &f.PackageName, &f.ContentHash, &indexedAt); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan file", err, false)
		}
		f.Imports = unmarshalStrings(importsJSON)
		f.Exports = unmarshalStrings(exportsJSON)
		out = append(out, f)
	}
	return out, rows.Err()
}

func orJoin(clauses []string) string {
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += " OR " + c
	}
	return out
}

// decodeFloat32Blob decodes the little-endian IEEE 754 float32 layout
// sqlite-vec uses for vector blobs.
func decodeFloat32Blob(blob []byte) []float32 {
	n := len(blob) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
