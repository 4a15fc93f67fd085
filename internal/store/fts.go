package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateFTSIndexes creates the FTS5 virtual tables backing the keyword
// legs of code_chunks and code_files hybrid search. Documentation keyword search is handled
// separately by the bleve index (internal/store/docindex.go), since
// documentation chunks are searched standalone, outside any repository.
func CreateFTSIndexes(db *sql.DB) error {
	_, err := db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS code_chunks_fts USING fts5(
		chunk_id UNINDEXED,
		content,
		tokenize = 'unicode61 remove_diacritics 0'
	)`)
	if err != nil {
		return fmt.Errorf("create fts5 index: %w", err)
	}
	_, err = db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS code_files_fts USING fts5(
		file_key UNINDEXED,
		summary,
		tokenize = 'unicode61 remove_diacritics 0'
	)`)
	if err != nil {
		return fmt.Errorf("create files fts5 index: %w", err)
	}
	return nil
}

// upsertFTS deletes any existing row for chunkID, then inserts content.
// FTS5 virtual tables don't support INSERT OR REPLACE either, so this
// mirrors the vec0 upsert pattern.
func upsertFTS(tx *sql.Tx, chunkID, content string) error {
	if _, err := tx.Exec("DELETE FROM code_chunks_fts WHERE chunk_id = ?", chunkID); err != nil {
		return fmt.Errorf("delete existing fts row: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO code_chunks_fts (chunk_id, content) VALUES (?, ?)", chunkID, content); err != nil {
		return fmt.Errorf("insert fts row: %w", err)
	}
	return nil
}

func deleteFTS(tx *sql.Tx, chunkID string) error {
	_, err := tx.Exec("DELETE FROM code_chunks_fts WHERE chunk_id = ?", chunkID)
	return err
}

// KeywordMatch is one BM25 hit against code_chunks_fts.
type KeywordMatch struct {
	ChunkID string
	Rank    float64 // raw FTS5 rank; more negative is more relevant
}

// SearchChunksByKeyword runs a bm25-ranked FTS5 query scoped optionally to
// a set of repo IDs (pass nil/empty for no scoping).
func SearchChunksByKeyword(db *sql.DB, query string, repoIDs []string, limit int) ([]KeywordMatch, error) {
	sqlQuery := `
		SELECT f.chunk_id, bm25(code_chunks_fts) as rank
		FROM code_chunks_fts f
		JOIN code_chunks c ON c.chunk_id = f.chunk_id
		WHERE f.content MATCH ?`
	args := []interface{}{EscapeFTSQuery(query)}

	if len(repoIDs) > 0 {
		placeholders := make([]string, len(repoIDs))
		for i, id := range repoIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		sqlQuery += fmt.Sprintf(" AND c.repo_id IN (%s)", strings.Join(placeholders, ","))
	}
	sqlQuery += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query fts5: %w", err)
	}
	defer rows.Close()

	var out []KeywordMatch
	for rows.Next() {
		var m KeywordMatch
		if err := rows.Scan(&m.ChunkID, &m.Rank); err != nil {
			return nil, fmt.Errorf("scan fts5 result: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// EscapeFTSQuery neutralizes FTS5 operator characters in free-text
// input by quoting each term individually; terms combine with FTS5's
// implicit AND, so multi-word queries match regardless of word order.
func EscapeFTSQuery(input string) string {
	fields := strings.Fields(input)
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// upsertFileFTS delete-then-inserts a code_files_fts row keyed by the
// composite file key, mirroring upsertFTS's pattern for chunks.
func upsertFileFTS(tx *sql.Tx, fileKeyStr, summary string) error {
	if _, err := tx.Exec("DELETE FROM code_files_fts WHERE file_key = ?", fileKeyStr); err != nil {
		return fmt.Errorf("delete existing file fts row: %w", err)
	}
	if summary == "" {
		return nil
	}
	if _, err := tx.Exec("INSERT INTO code_files_fts (file_key, summary) VALUES (?, ?)", fileKeyStr, summary); err != nil {
		return fmt.Errorf("insert file fts row: %w", err)
	}
	return nil
}

func deleteFileFTS(tx *sql.Tx, fileKeyStr string) error {
	_, err := tx.Exec("DELETE FROM code_files_fts WHERE file_key = ?", fileKeyStr)
	return err
}

// FileKeywordMatch is one BM25 hit against code_files_fts.
type FileKeywordMatch struct {
	RepoID   string
	FilePath string
	Rank     float64
}

// SearchFilesByKeyword runs a bm25-ranked FTS5 query over file
// summaries, the keyword leg of hybrid file retrieval.
func SearchFilesByKeyword(db *sql.DB, query string, repoIDs []string, limit int) ([]FileKeywordMatch, error) {
	sqlQuery := `SELECT file_key, bm25(code_files_fts) as rank FROM code_files_fts WHERE summary MATCH ?`
	args := []interface{}{EscapeFTSQuery(query)}
	rows, err := db.Query(sqlQuery+" ORDER BY rank LIMIT ?", append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("query files fts5: %w", err)
	}
	defer rows.Close()

	repoSet := make(map[string]bool, len(repoIDs))
	for _, id := range repoIDs {
		repoSet[id] = true
	}

	var out []FileKeywordMatch
	for rows.Next() {
		var key string
		var rank float64
		if err := rows.Scan(&key, &rank); err != nil {
			return nil, fmt.Errorf("scan files fts5 result: %w", err)
		}
		repoID, filePath := SplitFileKey(key)
		if len(repoSet) > 0 && !repoSet[repoID] {
			continue
		}
		out = append(out, FileKeywordMatch{RepoID: repoID, FilePath: filePath, Rank: rank})
	}
	return out, rows.Err()
}
