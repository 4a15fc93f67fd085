package store

import (
	"database/sql"
	"fmt"
	"time"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/types"
)

// UpsertFile writes one code_files row plus its vector and FTS entries
// backing Stage 2 hybrid file retrieval. Callers persist the file and
// its chunks/symbols inside the same indexing-stage transaction; this
// method alone is not transactional.
func (s *Store) UpsertFile(tx *sql.Tx, f types.File) error {
	var embBlob []byte
	if len(f.SummaryEmbedding) > 0 {
		var err error
		embBlob, err = sqlitevec.SerializeFloat32(f.SummaryEmbedding)
		if err != nil {
			return fmt.Errorf("serialize summary embedding: %w", err)
		}
	}
	_, err := tx.Exec(`
		INSERT INTO code_files (repo_id, file_path, language, total_lines, imports, exports,
			summary, summary_fallback, summary_embedding, workspace_id, service_id, package_name,
			content_hash, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, file_path) DO UPDATE SET
			language = excluded.language,
			total_lines = excluded.total_lines,
			imports = excluded.imports,
			exports = excluded.exports,
			summary = excluded.summary,
			summary_fallback = excluded.summary_fallback,
			summary_embedding = excluded.summary_embedding,
			workspace_id = excluded.workspace_id,
			service_id = excluded.service_id,
			package_name = excluded.package_name,
			content_hash = excluded.content_hash,
			indexed_at = excluded.indexed_at
	`, f.RepoID, f.FilePath, f.Language, f.TotalLines, marshalStrings(f.Imports), marshalStrings(f.Exports),
		f.Summary, f.SummaryFallback, embBlob, f.WorkspaceID, f.ServiceID, f.PackageName,
		f.ContentHash, f.IndexedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert file: %w", err)
	}
	key := fileKey(f.RepoID, f.FilePath)
	if err := upsertVector(tx, "code_files_vec", "file_key", key, f.SummaryEmbedding); err != nil {
		return fmt.Errorf("upsert file vector: %w", err)
	}
	if err := upsertFileFTS(tx, key, f.Summary); err != nil {
		return fmt.Errorf("upsert file fts: %w", err)
	}
	return nil
}

// GetFile fetches a single file by its natural key.
func (s *Store) GetFile(repoID, filePath string) (*types.File, error) {
	row := s.db.QueryRow(`
		SELECT repo_id, file_path, language, total_lines, imports, exports, summary,
			summary_fallback, workspace_id, service_id, package_name, content_hash, indexed_at
		FROM code_files WHERE repo_id = ? AND file_path = ?`, repoID, filePath)
	return scanFile(row)
}

func scanFile(row *sql.Row) (*types.File, error) {
	var f types.File
	var importsJSON, exportsJSON, indexedAt string
	err := row.Scan(&f.RepoID, &f.FilePath, &f.Language, &f.TotalLines, &importsJSON, &exportsJSON,
		&f.Summary, &f.SummaryFallback, &f.WorkspaceID, &f.ServiceID, &f.PackageName, &f.ContentHash, &indexedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cerrors.Store(cerrors.CodeNotFound, "file not found", err, false)
		}
		return nil, cerrors.Store(cerrors.CodeQuery, "get file", err, false)
	}
	f.Imports = unmarshalStrings(importsJSON)
	f.Exports = unmarshalStrings(exportsJSON)
	f.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
	return &f, nil
}

// GetFileHash returns just the content hash, used by the indexing
// orchestrator's incremental skip check without paying for a full scan.
func (s *Store) GetFileHash(repoID, filePath string) (string, bool, error) {
	var hash string
	err := s.db.QueryRow("SELECT content_hash FROM code_files WHERE repo_id = ? AND file_path = ?",
		repoID, filePath).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, cerrors.Store(cerrors.CodeQuery, "get file hash", err, false)
	}
	return hash, true, nil
}

// ListFilesByRepo returns every file row for a repository.
func (s *Store) ListFilesByRepo(repoID string) ([]types.File, error) {
	rows, err := s.db.Query(`
		SELECT repo_id, file_path, language, total_lines, imports, exports, summary,
			summary_fallback, workspace_id, service_id, package_name, content_hash, indexed_at
		FROM code_files WHERE repo_id = ?`, repoID)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list files", err, false)
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
		f.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFile removes a file row and its vector/FTS entries; ON DELETE
// CASCADE drops its chunks (the caller is still responsible for those
// chunks' vector/FTS rows — see DeleteChunksByFile).
func (s *Store) DeleteFile(tx *sql.Tx, repoID, filePath string) error {
	key := fileKey(repoID, filePath)
	if err := deleteVector(tx, "code_files_vec", "file_key", key); err != nil {
		return err
	}
	if err := deleteFileFTS(tx, key); err != nil {
		return err
	}
	_, err := tx.Exec("DELETE FROM code_files WHERE repo_id = ? AND file_path = ?", repoID, filePath)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
