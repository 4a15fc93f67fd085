package store

import (
	"database/sql"
	"fmt"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/types"
)

// UpsertChunk writes a code_chunks row plus its vector and FTS entries.
// Must run inside the caller's transaction so a partial chunk write can
// never be observed.
func (s *Store) UpsertChunk(tx *sql.Tx, c types.Chunk) error {
	_, err := tx.Exec(`
		INSERT INTO code_chunks (chunk_id, repo_id, file_path, chunk_type, content, start_line, end_line,
			token_count, dependencies, imported_symbols, function_names, class_names)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			content = excluded.content,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			token_count = excluded.token_count,
			dependencies = excluded.dependencies,
			imported_symbols = excluded.imported_symbols,
			function_names = excluded.function_names,
			class_names = excluded.class_names
	`, c.ChunkID, c.RepoID, c.FilePath, c.ChunkType, c.Content, c.StartLine, c.EndLine, c.TokenCount,
		marshalStrings(c.Metadata.Dependencies), marshalStrings(c.Metadata.ImportedSymbols),
		marshalStrings(c.Metadata.FunctionNames), marshalStrings(c.Metadata.ClassNames))
	if err != nil {
		return fmt.Errorf("upsert chunk: %w", err)
	}
	if err := upsertVector(tx, "code_chunks_vec", "chunk_id", c.ChunkID, c.Embedding); err != nil {
		return fmt.Errorf("upsert chunk vector: %w", err)
	}
	if err := upsertFTS(tx, c.ChunkID, c.Content); err != nil {
		return fmt.Errorf("upsert chunk fts: %w", err)
	}
	return nil
}

// DeleteChunksByFile removes every chunk belonging to a file along with
// its vector/FTS rows, ahead of re-insertion on re-index.
func (s *Store) DeleteChunksByFile(tx *sql.Tx, repoID, filePath string) error {
	ids, err := queryColumn(tx, "SELECT chunk_id FROM code_chunks WHERE repo_id = ? AND file_path = ?", repoID, filePath)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := deleteVector(tx, "code_chunks_vec", "chunk_id", id); err != nil {
			return err
		}
		if err := deleteFTS(tx, id); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM code_chunks WHERE repo_id = ? AND file_path = ?", repoID, filePath); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// GetChunksByIDs fetches chunks in the given ID set, preserving no
// particular order (callers re-sort per their own ranking).
func (s *Store) GetChunksByIDs(ids []string) ([]types.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`
		SELECT chunk_id, repo_id, file_path, chunk_type, content, start_line, end_line, token_count,
			dependencies, imported_symbols, function_names, class_names
		FROM code_chunks WHERE chunk_id IN (%s)`, joinPlaceholders(placeholders))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "get chunks by ids", err, false)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ListChunksByFile returns every chunk for a file, ordered by StartLine.
func (s *Store) ListChunksByFile(repoID, filePath string) ([]types.Chunk, error) {
	rows, err := s.db.Query(`
		SELECT chunk_id, repo_id, file_path, chunk_type, content, start_line, end_line, token_count,
			dependencies, imported_symbols, function_names, class_names
		FROM code_chunks WHERE repo_id = ? AND file_path = ? ORDER BY start_line`, repoID, filePath)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list chunks by file", err, false)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]types.Chunk, error) {
	var out []types.Chunk
	for rows.Next() {
		var c types.Chunk
		var deps, imported, funcs, classes string
		if err := rows.Scan(&c.ChunkID, &c.RepoID, &c.FilePath, &c.ChunkType, &c.Content, &c.StartLine, &c.EndLine,
			&c.TokenCount, &deps, &imported, &funcs, &classes); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan chunk", err, false)
		}
		c.Metadata = types.ChunkMetadata{
			Dependencies:    unmarshalStrings(deps),
			ImportedSymbols: unmarshalStrings(imported),
			FunctionNames:   unmarshalStrings(funcs),
			ClassNames:      unmarshalStrings(classes),
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func joinPlaceholders(ph []string) string {
	out := ph[0]
	for _, p := range ph[1:] {
		out += "," + p
	}
	return out
}
