package config

import (
	"fmt"
	"strings"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/logging"
)

// warnLog carries non-fatal validation warnings to stderr; stdout is
// reserved for the stdio RPC transport and must stay clean.
var warnLog = logging.New("cindex.config")

// Validate checks every configured range and aggregates every
// violation instead of stopping at the first, so one startup failure
// reports the full list of fixes needed.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Store.Password == "" && cfg.Store.Host != "" && cfg.Store.Path == "" {
		errs = append(errs, cerrors.Configuration("config.store.password", "store password is required",
			"Set CINDEX_STORE_PASSWORD in your MCP configuration"))
	}
	if cfg.Store.MaxConnections < 1 || cfg.Store.MaxConnections > 100 {
		errs = append(errs, cerrors.Configuration("config.store.max_connections",
			fmt.Sprintf("max_connections must be 1-100, got %d", cfg.Store.MaxConnections),
			"Set store.max_connections between 1 and 100"))
	}

	if cfg.Embedding.Dimensions < 1 || cfg.Embedding.Dimensions > 4096 {
		errs = append(errs, cerrors.Configuration("config.embedding.dimensions",
			fmt.Sprintf("dimensions must be 1-4096, got %d", cfg.Embedding.Dimensions),
			"Set embedding.dimensions between 1 and 4096"))
	} else if !ValidDimensions[cfg.Embedding.Dimensions] {
		// Non-fatal: uncommon sizes work, they just suggest a typo.
		warnLog.Warn("embedding.dimensions=%d is not one of the common sizes {384,768,1024,1536,3072}", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.ContextWindow < 512 || cfg.Embedding.ContextWindow > 131072 {
		errs = append(errs, cerrors.Configuration("config.embedding.context_window",
			fmt.Sprintf("context_window must be 512-131072, got %d", cfg.Embedding.ContextWindow),
			"Set embedding.context_window between 512 and 131072"))
	}
	if cfg.Embedding.BackendTimeoutSec < 1 || cfg.Embedding.BackendTimeoutSec > 300 {
		errs = append(errs, cerrors.Configuration("config.embedding.backend_timeout",
			fmt.Sprintf("backend_timeout_seconds must be 1-300, got %d", cfg.Embedding.BackendTimeoutSec),
			"Set embedding.backend_timeout_seconds between 1 and 300"))
	}
	if cfg.Embedding.HNSWEfSearch < 10 || cfg.Embedding.HNSWEfSearch > 1000 {
		errs = append(errs, cerrors.Configuration("config.embedding.hnsw_ef_search",
			fmt.Sprintf("hnsw_ef_search must be 10-1000, got %d", cfg.Embedding.HNSWEfSearch), ""))
	}
	if cfg.Embedding.HNSWEfConstruction < 10 || cfg.Embedding.HNSWEfConstruction > 1000 {
		errs = append(errs, cerrors.Configuration("config.embedding.hnsw_ef_construction",
			fmt.Sprintf("hnsw_ef_construction must be 10-1000, got %d", cfg.Embedding.HNSWEfConstruction), ""))
	}
	if cfg.Embedding.HNSWEfSearch < cfg.Embedding.HNSWEfConstruction {
		warnLog.Warn("hnsw_ef_search (%d) < hnsw_ef_construction (%d); search recall may suffer",
			cfg.Embedding.HNSWEfSearch, cfg.Embedding.HNSWEfConstruction)
	}

	for _, f := range []struct {
		name string
		val  float64
	}{
		{"similarity_threshold", cfg.Retrieval.SimilarityThreshold},
		{"chunk_similarity_threshold", cfg.Retrieval.ChunkSimilarityThreshold},
		{"dedup_threshold", cfg.Retrieval.DedupThreshold},
		{"hybrid_vector_weight", cfg.Retrieval.HybridVectorWeight},
		{"hybrid_keyword_weight", cfg.Retrieval.HybridKeywordWeight},
	} {
		if f.val < 0.0 || f.val > 1.0 {
			errs = append(errs, cerrors.Configuration("config.retrieval."+f.name,
				fmt.Sprintf("%s must be 0.0-1.0, got %g", f.name, f.val), ""))
		}
	}
	if cfg.Retrieval.SimilarityThreshold > cfg.Retrieval.DedupThreshold {
		errs = append(errs, cerrors.Configuration("config.retrieval.threshold_order",
			fmt.Sprintf("similarity_threshold (%g) must be <= dedup_threshold (%g)",
				cfg.Retrieval.SimilarityThreshold, cfg.Retrieval.DedupThreshold),
			"Lower similarity_threshold or raise dedup_threshold"))
	}
	if sum := cfg.Retrieval.HybridVectorWeight + cfg.Retrieval.HybridKeywordWeight; sum < 0.95 || sum > 1.05 {
		warnLog.Warn("hybrid_vector_weight + hybrid_keyword_weight = %g, expected close to 1.0", sum)
	}

	for _, d := range []struct {
		name string
		val  int
	}{
		{"import_depth", cfg.Index.ImportDepth},
		{"workspace_depth", cfg.Index.WorkspaceDepth},
		{"service_depth", cfg.Index.ServiceDepth},
	} {
		if d.val < 1 || d.val > 10 {
			errs = append(errs, cerrors.Configuration("config.index."+d.name,
				fmt.Sprintf("%s must be 1-10, got %d", d.name, d.val), ""))
		}
	}
	if cfg.Index.MaxFileSize < 100 || cfg.Index.MaxFileSize > 100000 {
		errs = append(errs, cerrors.Configuration("config.index.max_file_size",
			fmt.Sprintf("max_file_size must be 100-100000 lines, got %d", cfg.Index.MaxFileSize), ""))
	}
	if cfg.Index.BatchSize < 1 {
		errs = append(errs, cerrors.Configuration("config.index.batch_size",
			fmt.Sprintf("indexing_batch_size must be >= 1, got %d", cfg.Index.BatchSize), ""))
	}

	if len(errs) == 0 {
		return nil
	}
	return joinErrors(errs)
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
