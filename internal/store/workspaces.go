package store

import (
	"database/sql"
	"fmt"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/types"
)

// UpsertWorkspace writes one workspaces row.
func (s *Store) UpsertWorkspace(tx *sql.Tx, w types.Workspace) error {
	_, err := tx.Exec(`
		INSERT INTO workspaces (workspace_id, repo_id, name, abs_path, rel_path, dependencies,
			dev_dependencies, is_private)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id) DO UPDATE SET
			name = excluded.name, abs_path = excluded.abs_path, rel_path = excluded.rel_path,
			dependencies = excluded.dependencies, dev_dependencies = excluded.dev_dependencies,
			is_private = excluded.is_private
	`, w.WorkspaceID, w.RepoID, w.Name, w.AbsPath, w.RelPath, marshalStrings(w.Dependencies),
		marshalStrings(w.DevDependencies), w.Private)
	if err != nil {
		return fmt.Errorf("upsert workspace: %w", err)
	}
	return nil
}

// UpsertWorkspaceDependency records a directed package-to-package edge
// used by find_cross_workspace_usages and import-chain expansion.
func (s *Store) UpsertWorkspaceDependency(tx *sql.Tx, sourceWorkspaceID, targetWorkspaceID string) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO workspace_dependencies (source_workspace_id, target_workspace_id)
		VALUES (?, ?)`, sourceWorkspaceID, targetWorkspaceID)
	if err != nil {
		return fmt.Errorf("upsert workspace dependency: %w", err)
	}
	return nil
}

// ListWorkspacesByRepo returns every workspace package for a repository.
func (s *Store) ListWorkspacesByRepo(repoID string) ([]types.Workspace, error) {
	rows, err := s.db.Query(`
		SELECT workspace_id, repo_id, name, abs_path, rel_path, dependencies, dev_dependencies, is_private
		FROM workspaces WHERE repo_id = ?`, repoID)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list workspaces", err, false)
	}
	defer rows.Close()

	var out []types.Workspace
	for rows.Next() {
		var w types.Workspace
		var deps, devDeps string
		if err := rows.Scan(&w.WorkspaceID, &w.RepoID, &w.Name, &w.AbsPath, &w.RelPath, &deps, &devDeps, &w.Private); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan workspace", err, false)
		}
		w.Dependencies = unmarshalStrings(deps)
		w.DevDependencies = unmarshalStrings(devDeps)
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListAllWorkspaces returns every workspace across every repository, for
// the list_workspaces tool.
func (s *Store) ListAllWorkspaces() ([]types.Workspace, error) {
	rows, err := s.db.Query(`
		SELECT workspace_id, repo_id, name, abs_path, rel_path, dependencies, dev_dependencies, is_private
		FROM workspaces ORDER BY repo_id, name`)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list all workspaces", err, false)
	}
	defer rows.Close()

	var out []types.Workspace
	for rows.Next() {
		var w types.Workspace
		var deps, devDeps string
		if err := rows.Scan(&w.WorkspaceID, &w.RepoID, &w.Name, &w.AbsPath, &w.RelPath, &deps, &devDeps, &w.Private); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan workspace", err, false)
		}
		w.Dependencies = unmarshalStrings(deps)
		w.DevDependencies = unmarshalStrings(devDeps)
		out = append(out, w)
	}
	return out, rows.Err()
}

// WorkspaceDependents returns the workspace IDs that depend on target,
// used by find_cross_workspace_usages.
func (s *Store) WorkspaceDependents(targetWorkspaceID string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT source_workspace_id FROM workspace_dependencies WHERE target_workspace_id = ?",
		targetWorkspaceID)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "query workspace dependents", err, false)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan workspace dependent", err, false)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
