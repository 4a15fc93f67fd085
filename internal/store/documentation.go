package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/types"
)

// UpsertDocumentationFile records that a documentation file has been
// indexed, independent of any code repository.
func (s *Store) UpsertDocumentationFile(tx *sql.Tx, repoID, filePath string) error {
	_, err := tx.Exec(`
		INSERT INTO documentation_files (repo_id, file_path, indexed_at) VALUES (?, ?, ?)
		ON CONFLICT(repo_id, file_path) DO UPDATE SET indexed_at = excluded.indexed_at
	`, repoID, filePath, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert documentation file: %w", err)
	}
	return nil
}

// UpsertDocumentationChunk writes one documentation_chunks row plus its
// vector entry. Keyword indexing goes through DocIndex separately since
// it is a standalone bleve index, not a SQLite virtual table.
func (s *Store) UpsertDocumentationChunk(tx *sql.Tx, d types.DocumentationChunk) error {
	_, err := tx.Exec(`
		INSERT INTO documentation_chunks (doc_id, repo_id, file_path, heading_path, language, content,
			start_line, end_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			heading_path = excluded.heading_path, language = excluded.language, content = excluded.content,
			start_line = excluded.start_line, end_line = excluded.end_line
	`, d.DocID, d.RepoID, d.FilePath, marshalStrings(d.HeadingPath), d.Language, d.Content, d.StartLine, d.EndLine)
	if err != nil {
		return fmt.Errorf("upsert documentation chunk: %w", err)
	}
	if err := upsertVector(tx, "documentation_chunks_vec", "doc_id", d.DocID, d.Embedding); err != nil {
		return fmt.Errorf("upsert documentation chunk vector: %w", err)
	}
	return nil
}

// DeleteDocumentationChunksByFile removes documentation chunks for a
// file, ahead of re-insertion, returning the removed IDs so the caller
// can also evict them from the bleve DocIndex.
func (s *Store) DeleteDocumentationChunksByFile(tx *sql.Tx, repoID, filePath string) ([]string, error) {
	ids, err := queryColumn(tx, "SELECT doc_id FROM documentation_chunks WHERE repo_id = ? AND file_path = ?", repoID, filePath)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := deleteVector(tx, "documentation_chunks_vec", "doc_id", id); err != nil {
			return nil, err
		}
	}
	if _, err := tx.Exec("DELETE FROM documentation_chunks WHERE repo_id = ? AND file_path = ?", repoID, filePath); err != nil {
		return nil, fmt.Errorf("delete documentation chunks: %w", err)
	}
	return ids, nil
}

// DeleteDocumentationFile removes the documentation_files row and its
// chunks, returning the removed chunk IDs for DocIndex eviction.
func (s *Store) DeleteDocumentationFile(repoID, filePath string) ([]string, error) {
	var ids []string
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		ids, err = s.DeleteDocumentationChunksByFile(tx, repoID, filePath)
		if err != nil {
			return err
		}
		_, err = tx.Exec("DELETE FROM documentation_files WHERE repo_id = ? AND file_path = ?", repoID, filePath)
		return err
	})
	return ids, err
}

// GetDocumentationChunksByIDs fetches documentation chunks by ID.
func (s *Store) GetDocumentationChunksByIDs(ids []string) ([]types.DocumentationChunk, error) {
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
		SELECT doc_id, repo_id, file_path, heading_path, language, content, start_line, end_line
		FROM documentation_chunks WHERE doc_id IN (%s)`, joinPlaceholders(placeholders))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "get documentation chunks by ids", err, false)
	}
	defer rows.Close()

	var out []types.DocumentationChunk
	for rows.Next() {
		var d types.DocumentationChunk
		var headingPath string
		if err := rows.Scan(&d.DocID, &d.RepoID, &d.FilePath, &headingPath, &d.Language, &d.Content,
			&d.StartLine, &d.EndLine); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan documentation chunk", err, false)
		}
		d.HeadingPath = unmarshalStrings(headingPath)
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListDocumentationFiles returns every indexed documentation file, for
// the list_documentation tool.
func (s *Store) ListDocumentationFiles() ([]string, error) {
	rows, err := s.db.Query("SELECT file_path FROM documentation_files ORDER BY file_path")
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list documentation files", err, false)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan documentation file", err, false)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
