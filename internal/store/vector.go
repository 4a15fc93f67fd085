package store

import (
	"database/sql"
	"fmt"
	"strings"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// CreateVectorIndexes creates the vec0 virtual tables backing
// similarity search. Each mirrors only the primary key plus the
// embedding; callers join back to the owning table for full data.
func CreateVectorIndexes(db *sql.DB, dimensions int) error {
	stmts := []string{
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS code_chunks_vec USING vec0(
			chunk_id TEXT PRIMARY KEY,
			embedding float[%d]
		)`, dimensions),
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS api_endpoints_vec USING vec0(
			endpoint_id TEXT PRIMARY KEY,
			embedding float[%d]
		)`, dimensions),
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS documentation_chunks_vec USING vec0(
			doc_id TEXT PRIMARY KEY,
			embedding float[%d]
		)`, dimensions),
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS code_files_vec USING vec0(
			file_key TEXT PRIMARY KEY,
			embedding float[%d]
		)`, dimensions),
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("create vector table: %w", err)
		}
	}
	return nil
}

// upsertVector deletes any existing row for id, then inserts embedding.
// vec0 virtual tables don't support INSERT OR REPLACE, so every vector
// write in this package goes through this delete-then-insert pattern.
func upsertVector(tx *sql.Tx, table, idColumn, id string, embedding []float32) error {
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, idColumn), id); err != nil {
		return fmt.Errorf("delete existing vector: %w", err)
	}
	if len(embedding) == 0 {
		return nil
	}
	blob, err := sqlitevec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("serialize embedding: %w", err)
	}
	if _, err := tx.Exec(
		fmt.Sprintf("INSERT INTO %s (%s, embedding) VALUES (?, ?)", table, idColumn),
		id, blob,
	); err != nil {
		return fmt.Errorf("insert vector: %w", err)
	}
	return nil
}

func deleteVector(tx *sql.Tx, table, idColumn, id string) error {
	_, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, idColumn), id)
	return err
}

// VectorMatch is one nearest-neighbor hit.
type VectorMatch struct {
	ID       string
	Distance float64 // cosine distance, lower is better
}

func queryVectorSimilarity(db *sql.DB, table, idColumn string, query []float32, limit int) ([]VectorMatch, error) {
	if len(query) == 0 || limit <= 0 {
		return nil, nil
	}
	blob, err := sqlitevec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}
	rows, err := db.Query(
		fmt.Sprintf(`SELECT %s, vec_distance_cosine(embedding, ?) as distance FROM %s
			WHERE embedding MATCH ? AND k = ? ORDER BY distance`, idColumn, table),
		blob, blob, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query vector index %s: %w", table, err)
	}
	defer rows.Close()

	var out []VectorMatch
	for rows.Next() {
		var m VectorMatch
		if err := rows.Scan(&m.ID, &m.Distance); err != nil {
			return nil, fmt.Errorf("scan vector result: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SearchChunksByVector runs KNN cosine search over code_chunks_vec.
func SearchChunksByVector(db *sql.DB, query []float32, limit int) ([]VectorMatch, error) {
	return queryVectorSimilarity(db, "code_chunks_vec", "chunk_id", query, limit)
}

// SearchEndpointsByVector runs KNN cosine search over api_endpoints_vec.
func SearchEndpointsByVector(db *sql.DB, query []float32, limit int) ([]VectorMatch, error) {
	return queryVectorSimilarity(db, "api_endpoints_vec", "endpoint_id", query, limit)
}

// SearchDocumentationByVector runs KNN cosine search over documentation_chunks_vec.
func SearchDocumentationByVector(db *sql.DB, query []float32, limit int) ([]VectorMatch, error) {
	return queryVectorSimilarity(db, "documentation_chunks_vec", "doc_id", query, limit)
}

// fileKey encodes the (repo_id, file_path) composite key as the single
// primary-key column vec0 requires.
func fileKey(repoID, filePath string) string { return repoID + "\x00" + filePath }

// SplitFileKey reverses fileKey for callers that only have the vec0 row.
func SplitFileKey(key string) (repoID, filePath string) {
	idx := strings.IndexByte(key, 0)
	if idx < 0 {
		return key, ""
	}
	return key[:idx], key[idx+1:]
}

// SearchFilesByVector runs KNN cosine search over code_files_vec, the
// file-summary-embedding leg of hybrid file retrieval.
func SearchFilesByVector(db *sql.DB, query []float32, limit int) ([]VectorMatch, error) {
	return queryVectorSimilarity(db, "code_files_vec", "file_key", query, limit)
}
