package store

import (
	"database/sql"
	"fmt"

	"github.com/gianged/cindex/internal/cerrors"
)

// UpsertCrossRepoDependency records a directed repo-to-repo edge detected
// from upstream_url / reference-repo matching during indexing.
func (s *Store) UpsertCrossRepoDependency(tx *sql.Tx, sourceRepoID, targetRepoID string) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO cross_repo_dependencies (source_repo_id, target_repo_id)
		VALUES (?, ?)`, sourceRepoID, targetRepoID)
	if err != nil {
		return fmt.Errorf("upsert cross-repo dependency: %w", err)
	}
	return nil
}

// CrossRepoDependents returns the repo IDs that depend on target.
func (s *Store) CrossRepoDependents(targetRepoID string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT source_repo_id FROM cross_repo_dependencies WHERE target_repo_id = ?", targetRepoID)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "query cross-repo dependents", err, false)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan cross-repo dependent", err, false)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CrossRepoDependencies returns the full edge list, used by
// boundary-aware scope resolution to build the repo dependency graph.
func (s *Store) CrossRepoDependencies() ([][2]string, error) {
	rows, err := s.db.Query("SELECT source_repo_id, target_repo_id FROM cross_repo_dependencies")
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list cross-repo dependencies", err, false)
	}
	defer rows.Close()
	var out [][2]string
	for rows.Next() {
		var src, dst string
		if err := rows.Scan(&src, &dst); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan cross-repo dependency", err, false)
		}
		out = append(out, [2]string{src, dst})
	}
	return out, rows.Err()
}
