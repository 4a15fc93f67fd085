package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Load layers Default() under .cindex/config.yml under CINDEX_*
// environment variables, then validates the result.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".cindex")

	v.SetEnvPrefix("CINDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	setDefaults(v, def)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	bindEnvKeys(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("store.host", d.Store.Host)
	v.SetDefault("store.port", d.Store.Port)
	v.SetDefault("store.database", d.Store.Database)
	v.SetDefault("store.user", d.Store.User)
	v.SetDefault("store.password", d.Store.Password)
	v.SetDefault("store.max_connections", d.Store.MaxConnections)
	v.SetDefault("store.path", d.Store.Path)

	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.context_window", d.Embedding.ContextWindow)
	v.SetDefault("embedding.backend_host", d.Embedding.BackendHost)
	v.SetDefault("embedding.backend_timeout_seconds", d.Embedding.BackendTimeoutSec)
	v.SetDefault("embedding.retry_count", d.Embedding.RetryCount)
	v.SetDefault("embedding.hnsw_ef_search", d.Embedding.HNSWEfSearch)
	v.SetDefault("embedding.hnsw_ef_construction", d.Embedding.HNSWEfConstruction)

	v.SetDefault("summary.method", d.Summary.Method)
	v.SetDefault("summary.model", d.Summary.Model)
	v.SetDefault("summary.context_window", d.Summary.ContextWindow)

	v.SetDefault("index.indexing_batch_size", d.Index.BatchSize)
	v.SetDefault("index.import_depth", d.Index.ImportDepth)
	v.SetDefault("index.workspace_depth", d.Index.WorkspaceDepth)
	v.SetDefault("index.service_depth", d.Index.ServiceDepth)
	v.SetDefault("index.max_file_size", d.Index.MaxFileSize)
	v.SetDefault("index.detect_workspaces", d.Index.DetectWorkspaces)
	v.SetDefault("index.detect_services", d.Index.DetectServices)
	v.SetDefault("index.detect_apis", d.Index.DetectAPIs)

	v.SetDefault("retrieval.similarity_threshold", d.Retrieval.SimilarityThreshold)
	v.SetDefault("retrieval.chunk_similarity_threshold", d.Retrieval.ChunkSimilarityThreshold)
	v.SetDefault("retrieval.dedup_threshold", d.Retrieval.DedupThreshold)
	v.SetDefault("retrieval.hybrid_vector_weight", d.Retrieval.HybridVectorWeight)
	v.SetDefault("retrieval.hybrid_keyword_weight", d.Retrieval.HybridKeywordWeight)
	v.SetDefault("retrieval.hybrid_search_enabled", d.Retrieval.HybridSearchEnabled)
	v.SetDefault("retrieval.max_chunks", d.Retrieval.MaxChunks)
	v.SetDefault("retrieval.api_match_threshold", d.Retrieval.APIMatchThreshold)
	v.SetDefault("retrieval.api_match_cap", d.Retrieval.APIMatchCap)
	v.SetDefault("retrieval.warn_context_tokens", d.Retrieval.WarnContextTokens)
	v.SetDefault("retrieval.max_context_tokens", d.Retrieval.MaxContextTokens)
	v.SetDefault("retrieval.query_cache_ttl_minutes", d.Retrieval.QueryCacheTTLMinutes)
	v.SetDefault("retrieval.query_cache_capacity", d.Retrieval.QueryCacheCapacity)

	v.SetDefault("secrets.protect_secrets", d.Secrets.ProtectSecrets)
	v.SetDefault("secrets.secret_patterns", d.Secrets.SecretPatterns)

	v.SetDefault("features.multi_repo_mode", d.Features.MultiRepoMode)
}

// bindEnvKeys registers every CINDEX_* env var explicitly: AutomaticEnv
// alone only resolves keys viper has already seen via SetDefault/config,
// while BindEnv makes the mapping deterministic.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"store.host", "store.port", "store.database", "store.user", "store.password",
		"store.max_connections", "store.path",
		"embedding.model", "embedding.dimensions", "embedding.context_window",
		"embedding.backend_host", "embedding.backend_timeout_seconds", "embedding.retry_count",
		"embedding.hnsw_ef_search", "embedding.hnsw_ef_construction",
		"summary.method", "summary.model", "summary.context_window",
		"index.indexing_batch_size", "index.import_depth", "index.workspace_depth",
		"index.service_depth", "index.max_file_size",
		"index.detect_workspaces", "index.detect_services", "index.detect_apis",
		"retrieval.similarity_threshold", "retrieval.chunk_similarity_threshold",
		"retrieval.dedup_threshold", "retrieval.hybrid_vector_weight", "retrieval.hybrid_keyword_weight",
		"retrieval.hybrid_search_enabled", "retrieval.max_chunks",
		"retrieval.api_match_threshold", "retrieval.api_match_cap",
		"retrieval.warn_context_tokens", "retrieval.max_context_tokens",
		"retrieval.query_cache_ttl_minutes", "retrieval.query_cache_capacity",
		"secrets.protect_secrets", "secrets.secret_patterns",
		"features.multi_repo_mode",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
