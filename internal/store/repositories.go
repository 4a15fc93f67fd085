package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/types"
)

// UpsertRepository inserts or replaces the repository row. Kind is
// immutable once set: callers that want to change it must delete and
// re-index.
func (s *Store) UpsertRepository(repo types.Repository) error {
	return s.withTx(func(tx *sql.Tx) error {
		return s.UpsertRepositoryTx(tx, repo)
	})
}

// UpsertRepositoryTx is UpsertRepository inside the caller's indexing
// transaction. Kind is intentionally absent from the update set.
func (s *Store) UpsertRepositoryTx(tx *sql.Tx, repo types.Repository) error {
	_, err := tx.Exec(`
		INSERT INTO repositories (repo_id, name, kind, version, upstream_url, root_path, workspace_config, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			upstream_url = excluded.upstream_url,
			root_path = excluded.root_path,
			workspace_config = excluded.workspace_config,
			indexed_at = excluded.indexed_at
	`, repo.RepoID, repo.Name, repo.Kind, repo.Version, repo.UpstreamURL, repo.RootPath, repo.WorkspaceConfig, repo.IndexedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return cerrors.Store(cerrors.CodeQuery, "upsert repository", err, false)
	}
	return nil
}

// GetRepository fetches one repository by ID.
func (s *Store) GetRepository(repoID string) (*types.Repository, error) {
	row := s.db.QueryRow(`
		SELECT repo_id, name, kind, version, upstream_url, root_path, workspace_config, indexed_at
		FROM repositories WHERE repo_id = ?`, repoID)
	var r types.Repository
	var indexedAt string
	if err := row.Scan(&r.RepoID, &r.Name, &r.Kind, &r.Version, &r.UpstreamURL, &r.RootPath, &r.WorkspaceConfig, &indexedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, cerrors.Store(cerrors.CodeNotFound, fmt.Sprintf("repository %q not found", repoID), err, false)
		}
		return nil, cerrors.Store(cerrors.CodeQuery, "get repository", err, false)
	}
	r.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
	return &r, nil
}

// ListRepositories returns every indexed repository, ordered by RepoID for
// deterministic tie-breaking with downstream pipeline stages.
func (s *Store) ListRepositories() ([]types.Repository, error) {
	rows, err := s.db.Query(`
		SELECT repo_id, name, kind, version, upstream_url, root_path, workspace_config, indexed_at
		FROM repositories ORDER BY repo_id`)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list repositories", err, false)
	}
	defer rows.Close()

	var out []types.Repository
	for rows.Next() {
		var r types.Repository
		var indexedAt string
		if err := rows.Scan(&r.RepoID, &r.Name, &r.Kind, &r.Version, &r.UpstreamURL, &r.RootPath, &r.WorkspaceConfig, &indexedAt); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan repository", err, false)
		}
		r.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRepository removes a repository and, via ON DELETE CASCADE, every
// row owned by it across code_files, code_chunks, code_symbols,
// workspaces, services, api_endpoints, and cross_repo_dependencies.
// Vector and FTS virtual tables are not covered by foreign keys, so
// their rows are cleaned up explicitly first.
func (s *Store) DeleteRepository(repoID string) error {
	return s.withTx(func(tx *sql.Tx) error {
		filePaths, err := queryColumn(tx, "SELECT file_path FROM code_files WHERE repo_id = ?", repoID)
		if err != nil {
			return err
		}
		for _, p := range filePaths {
			key := fileKey(repoID, p)
			if err := deleteVector(tx, "code_files_vec", "file_key", key); err != nil {
				return err
			}
			if err := deleteFileFTS(tx, key); err != nil {
				return err
			}
		}

		chunkIDs, err := queryColumn(tx, "SELECT chunk_id FROM code_chunks WHERE repo_id = ?", repoID)
		if err != nil {
			return err
		}
		for _, id := range chunkIDs {
			if err := deleteVector(tx, "code_chunks_vec", "chunk_id", id); err != nil {
				return err
			}
			if err := deleteFTS(tx, id); err != nil {
				return err
			}
		}

		endpointIDs, err := queryColumn(tx, "SELECT endpoint_id FROM api_endpoints WHERE repo_id = ?", repoID)
		if err != nil {
			return err
		}
		for _, id := range endpointIDs {
			if err := deleteVector(tx, "api_endpoints_vec", "endpoint_id", id); err != nil {
				return err
			}
		}

		if _, err := tx.Exec("DELETE FROM repositories WHERE repo_id = ?", repoID); err != nil {
			return fmt.Errorf("delete repository: %w", err)
		}
		return nil
	})
}

func queryColumn(tx *sql.Tx, query string, args ...interface{}) ([]string, error) {
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query column: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
