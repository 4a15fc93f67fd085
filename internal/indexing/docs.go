package indexing

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gianged/cindex/internal/backend"
	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/config"
	"github.com/gianged/cindex/internal/logging"
	"github.com/gianged/cindex/internal/markdown"
	"github.com/gianged/cindex/internal/store"
)

// DocIndexer indexes standalone markdown collections, outside any code
// repository, backing index_documentation / search_documentation.
type DocIndexer struct {
	store    *store.Store
	docIndex *store.DocIndex
	client   backend.Client
	cfg      *config.Config
	log      *logging.Logger
}

// NewDocIndexer builds a DocIndexer. docIndex is the bleve keyword
// index; client may be nil (vector search is then unavailable for the
// indexed docs, keyword search still works).
func NewDocIndexer(st *store.Store, docIndex *store.DocIndex, client backend.Client, cfg *config.Config, log *logging.Logger) *DocIndexer {
	if log == nil {
		log = logging.New("cindex.docs")
	}
	return &DocIndexer{store: st, docIndex: docIndex, client: client, cfg: cfg, log: log}
}

// DocStats summarizes one documentation indexing run.
type DocStats struct {
	FilesIndexed  int         `json:"files_indexed"`
	ChunksCreated int         `json:"chunks_created"`
	Failures      []FileError `json:"failures,omitempty"`
}

var docExtensions = map[string]bool{".md": true, ".mdx": true, ".markdown": true}

// IndexDocumentation walks each path (file or directory) and indexes
// every markdown file found. Per-file failures are recorded, not fatal.
func (d *DocIndexer) IndexDocumentation(ctx context.Context, paths []string) (*DocStats, error) {
	if len(paths) == 0 {
		return nil, cerrors.Validation(cerrors.CodeMissingField, "paths is required", "Pass at least one file or directory")
	}

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, cerrors.Validation(cerrors.CodeMissingField, fmt.Sprintf("path %q: %v", p, err), "")
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.Walk(p, func(path string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil || fi.IsDir() {
				return nil
			}
			if docExtensions[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, cerrors.Filesystem("fs.walk", "walk documentation path", err)
		}
	}

	stats := &DocStats{}
	for _, f := range files {
		if ctx.Err() != nil {
			return stats, cerrors.Validation("indexing.cancelled", "documentation indexing cancelled", "")
		}
		n, err := d.indexFile(ctx, f)
		if err != nil {
			stats.Failures = append(stats.Failures, FileError{File: f, Stage: StageChunk, Error: err.Error()})
			continue
		}
		stats.FilesIndexed++
		stats.ChunksCreated += n
	}
	d.log.Info("indexed %d documentation files, %d chunks, %d failures",
		stats.FilesIndexed, stats.ChunksCreated, len(stats.Failures))
	return stats, nil
}

func (d *DocIndexer) indexFile(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	chunks := markdown.Chunk("", path, content)

	if d.client != nil && len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = strings.Join(append(append([]string(nil), c.HeadingPath...), c.Content), "\n")
		}
		vecs, err := d.client.Embed(ctx, d.cfg.Embedding.Model, texts, d.cfg.Embedding.Dimensions, d.cfg.Embedding.ContextWindow)
		if err != nil {
			return 0, err
		}
		for i := range chunks {
			chunks[i].Embedding = vecs[i]
		}
	}

	var stale []string
	err = d.store.WithTx(func(tx *sql.Tx) error {
		var err error
		stale, err = d.store.DeleteDocumentationChunksByFile(tx, "", path)
		if err != nil {
			return err
		}
		if err := d.store.UpsertDocumentationFile(tx, "", path); err != nil {
			return err
		}
		for _, c := range chunks {
			if err := d.store.UpsertDocumentationChunk(tx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if d.docIndex != nil {
		for _, id := range stale {
			_ = d.docIndex.Delete(id)
		}
		for _, c := range chunks {
			if err := d.docIndex.Upsert(c.DocID, c.FilePath, c.Content); err != nil {
				d.log.Warn("bleve upsert %s: %v", c.DocID, err)
			}
		}
	}
	return len(chunks), nil
}

// DeleteDocumentation removes doc sets by indexed file path, including
// their chunks, vectors and bleve entries.
func (d *DocIndexer) DeleteDocumentation(paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, cerrors.Validation(cerrors.CodeMissingField, "doc_ids is required", "Pass the documentation file paths to delete")
	}
	deleted := 0
	for _, p := range paths {
		ids, err := d.store.DeleteDocumentationFile("", p)
		if err != nil {
			return deleted, err
		}
		if d.docIndex != nil {
			for _, id := range ids {
				_ = d.docIndex.Delete(id)
			}
		}
		deleted++
	}
	return deleted, nil
}
