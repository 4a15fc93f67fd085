package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
)

// docRecord is the bleve document shape for a documentation chunk's
// keyword leg. search_documentation's vector leg lives in
// documentation_chunks_vec; bleve covers exact keyword matching, which
// the FTS5 columns reserved for code content don't serve.
type docRecord struct {
	DocID    string `json:"doc_id"`
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

// DocIndex wraps a bleve index dedicated to documentation_chunks.
type DocIndex struct {
	idx bleve.Index
}

// OpenDocIndex opens (or creates) the bleve index at dir.
func OpenDocIndex(dir string) (*DocIndex, error) {
	if _, err := os.Stat(filepath.Join(dir, "index_meta.json")); err == nil {
		idx, err := bleve.Open(dir)
		if err != nil {
			return nil, fmt.Errorf("open bleve index: %w", err)
		}
		return &DocIndex{idx: idx}, nil
	}

	mapping := bleve.NewIndexMapping()
	idx, err := bleve.New(dir, mapping)
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &DocIndex{idx: idx}, nil
}

// Close releases the bleve index.
func (d *DocIndex) Close() error { return d.idx.Close() }

// Upsert indexes or re-indexes a documentation chunk for keyword search.
func (d *DocIndex) Upsert(docID, filePath, content string) error {
	return d.idx.Index(docID, docRecord{DocID: docID, FilePath: filePath, Content: content})
}

// Delete removes a documentation chunk from the keyword index.
func (d *DocIndex) Delete(docID string) error {
	return d.idx.Delete(docID)
}

// Search runs a keyword match against indexed documentation and returns
// doc IDs ordered by bleve's relevance score (descending).
func (d *DocIndex) Search(query string, limit int) ([]string, error) {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	result, err := d.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}
	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
