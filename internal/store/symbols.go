package store

import (
	"database/sql"
	"fmt"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/types"
)

// UpsertSymbol writes one code_symbols row.
func (s *Store) UpsertSymbol(tx *sql.Tx, sym types.Symbol) error {
	_, err := tx.Exec(`
		INSERT INTO code_symbols (symbol_id, repo_id, name, kind, file_path, line, definition, scope,
			workspace_id, service_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol_id) DO UPDATE SET
			name = excluded.name, kind = excluded.kind, file_path = excluded.file_path,
			line = excluded.line, definition = excluded.definition, scope = excluded.scope,
			workspace_id = excluded.workspace_id, service_id = excluded.service_id
	`, sym.SymbolID, sym.RepoID, sym.Name, sym.Kind, sym.FilePath, sym.Line, sym.Definition, sym.Scope,
		sym.WorkspaceID, sym.ServiceID)
	if err != nil {
		return fmt.Errorf("upsert symbol: %w", err)
	}
	return nil
}

// DeleteSymbolsByFile removes every symbol defined in a file, ahead of
// re-insertion on re-index.
func (s *Store) DeleteSymbolsByFile(tx *sql.Tx, repoID, filePath string) error {
	_, err := tx.Exec("DELETE FROM code_symbols WHERE repo_id = ? AND file_path = ?", repoID, filePath)
	if err != nil {
		return fmt.Errorf("delete symbols: %w", err)
	}
	return nil
}

// FindSymbolByName resolves every definition of name, optionally scoped
// to a set of repo IDs, ordered by (Name, FilePath) for deterministic
// multi-match ordering.
func (s *Store) FindSymbolByName(name string, repoIDs []string, includeInternal bool) ([]types.Symbol, error) {
	query := `
		SELECT symbol_id, repo_id, name, kind, file_path, line, definition, scope, workspace_id, service_id
		FROM code_symbols WHERE name = ?`
	args := []interface{}{name}

	if !includeInternal {
		query += " AND scope = ?"
		args = append(args, types.ScopeExported)
	}
	if len(repoIDs) > 0 {
		placeholders := make([]string, len(repoIDs))
		for i, id := range repoIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += fmt.Sprintf(" AND repo_id IN (%s)", joinPlaceholders(placeholders))
	}
	query += " ORDER BY name, file_path"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "find symbol by name", err, false)
	}
	defer rows.Close()

	var out []types.Symbol
	for rows.Next() {
		var sym types.Symbol
		if err := rows.Scan(&sym.SymbolID, &sym.RepoID, &sym.Name, &sym.Kind, &sym.FilePath, &sym.Line,
			&sym.Definition, &sym.Scope, &sym.WorkspaceID, &sym.ServiceID); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan symbol", err, false)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// ListSymbolsByNames resolves Stage 4's union of chunk-metadata names in
// one round trip.
func (s *Store) ListSymbolsByNames(names []string, repoIDs []string) ([]types.Symbol, error) {
	if len(names) == 0 {
		return nil, nil
	}
	namePlaceholders := make([]string, len(names))
	args := make([]interface{}, 0, len(names)+len(repoIDs))
	for i, n := range names {
		namePlaceholders[i] = "?"
		args = append(args, n)
	}
	query := fmt.Sprintf(`
		SELECT symbol_id, repo_id, name, kind, file_path, line, definition, scope, workspace_id, service_id
		FROM code_symbols WHERE name IN (%s)`, joinPlaceholders(namePlaceholders))

	if len(repoIDs) > 0 {
		repoPlaceholders := make([]string, len(repoIDs))
		for i, id := range repoIDs {
			repoPlaceholders[i] = "?"
			args = append(args, id)
		}
		query += fmt.Sprintf(" AND repo_id IN (%s)", joinPlaceholders(repoPlaceholders))
	}
	query += " ORDER BY name, file_path"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list symbols by names", err, false)
	}
	defer rows.Close()

	var out []types.Symbol
	for rows.Next() {
		var sym types.Symbol
		if err := rows.Scan(&sym.SymbolID, &sym.RepoID, &sym.Name, &sym.Kind, &sym.FilePath, &sym.Line,
			&sym.Definition, &sym.Scope, &sym.WorkspaceID, &sym.ServiceID); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan symbol", err, false)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}
