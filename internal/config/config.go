// Package config loads and validates cindex's configuration, layering
// defaults, a .cindex/config.yml file, and CINDEX_* environment
// variables via viper (env wins).
package config

// Config is the complete cindex configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Summary   SummaryConfig   `yaml:"summary" mapstructure:"summary"`
	Index     IndexConfig     `yaml:"index" mapstructure:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Secrets   SecretsConfig   `yaml:"secrets" mapstructure:"secrets"`
	Features  FeaturesConfig  `yaml:"features" mapstructure:"features"`
}

// StoreConfig configures the data store connection.
type StoreConfig struct {
	Host          string `yaml:"host" mapstructure:"host"`
	Port          int    `yaml:"port" mapstructure:"port"`
	Database      string `yaml:"database" mapstructure:"database"`
	User          string `yaml:"user" mapstructure:"user"`
	Password      string `yaml:"password" mapstructure:"password"`
	MaxConnections int   `yaml:"max_connections" mapstructure:"max_connections"`
	Path          string `yaml:"path" mapstructure:"path"` // sqlite file path
}

// EmbeddingConfig configures the embedding backend and its index tunables.
type EmbeddingConfig struct {
	Model             string  `yaml:"model" mapstructure:"model"`
	Dimensions        int     `yaml:"dimensions" mapstructure:"dimensions"`
	ContextWindow     int     `yaml:"context_window" mapstructure:"context_window"`
	BackendHost       string  `yaml:"backend_host" mapstructure:"backend_host"`
	BackendTimeoutSec int     `yaml:"backend_timeout_seconds" mapstructure:"backend_timeout_seconds"`
	RetryCount        int     `yaml:"retry_count" mapstructure:"retry_count"`
	HNSWEfSearch      int     `yaml:"hnsw_ef_search" mapstructure:"hnsw_ef_search"`
	HNSWEfConstruction int    `yaml:"hnsw_ef_construction" mapstructure:"hnsw_ef_construction"`
}

// SummaryConfig configures the file-summary generator.
type SummaryConfig struct {
	Method        string `yaml:"method" mapstructure:"method"` // "llm" or "rule_based"
	Model         string `yaml:"model" mapstructure:"model"`
	ContextWindow int    `yaml:"context_window" mapstructure:"context_window"`
}

// IndexConfig configures the indexing orchestrator.
type IndexConfig struct {
	BatchSize       int  `yaml:"indexing_batch_size" mapstructure:"indexing_batch_size"`
	ImportDepth     int  `yaml:"import_depth" mapstructure:"import_depth"`
	WorkspaceDepth  int  `yaml:"workspace_depth" mapstructure:"workspace_depth"`
	ServiceDepth    int  `yaml:"service_depth" mapstructure:"service_depth"`
	MaxFileSize     int  `yaml:"max_file_size" mapstructure:"max_file_size"` // lines
	DetectWorkspaces bool `yaml:"detect_workspaces" mapstructure:"detect_workspaces"`
	DetectServices   bool `yaml:"detect_services" mapstructure:"detect_services"`
	DetectAPIs       bool `yaml:"detect_apis" mapstructure:"detect_apis"`
}

// RetrievalConfig configures the nine-stage query pipeline.
type RetrievalConfig struct {
	SimilarityThreshold      float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	ChunkSimilarityThreshold float64 `yaml:"chunk_similarity_threshold" mapstructure:"chunk_similarity_threshold"`
	DedupThreshold           float64 `yaml:"dedup_threshold" mapstructure:"dedup_threshold"`
	HybridVectorWeight       float64 `yaml:"hybrid_vector_weight" mapstructure:"hybrid_vector_weight"`
	HybridKeywordWeight      float64 `yaml:"hybrid_keyword_weight" mapstructure:"hybrid_keyword_weight"`
	HybridSearchEnabled      bool    `yaml:"hybrid_search_enabled" mapstructure:"hybrid_search_enabled"`
	MaxChunks                int     `yaml:"max_chunks" mapstructure:"max_chunks"`
	APIMatchThreshold        float64 `yaml:"api_match_threshold" mapstructure:"api_match_threshold"`
	APIMatchCap              int     `yaml:"api_match_cap" mapstructure:"api_match_cap"`
	WarnContextTokens        int     `yaml:"warn_context_tokens" mapstructure:"warn_context_tokens"`
	MaxContextTokens         int     `yaml:"max_context_tokens" mapstructure:"max_context_tokens"`
	QueryCacheTTLMinutes     int     `yaml:"query_cache_ttl_minutes" mapstructure:"query_cache_ttl_minutes"`
	QueryCacheCapacity       int     `yaml:"query_cache_capacity" mapstructure:"query_cache_capacity"`
}

// SecretsConfig configures the secret-file gate.
type SecretsConfig struct {
	ProtectSecrets  bool     `yaml:"protect_secrets" mapstructure:"protect_secrets"`
	SecretPatterns  []string `yaml:"secret_patterns" mapstructure:"secret_patterns"`
}

// FeaturesConfig toggles optional subsystems.
type FeaturesConfig struct {
	MultiRepoMode bool `yaml:"multi_repo_mode" mapstructure:"multi_repo_mode"`
}

// ValidDimensions is the warn-but-allow set of embedding dimensions.
var ValidDimensions = map[int]bool{384: true, 768: true, 1024: true, 1536: true, 3072: true}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "cindex",
			MaxConnections: 10,
			Path:           ".cindex/cindex.db",
		},
		Embedding: EmbeddingConfig{
			Model:              "text-embedding-3-small",
			Dimensions:         1536,
			ContextWindow:      8192,
			BackendHost:        "http://localhost:11434",
			BackendTimeoutSec:  30,
			RetryCount:         3,
			HNSWEfSearch:       100,
			HNSWEfConstruction: 200,
		},
		Summary: SummaryConfig{
			Method:        "llm",
			Model:         "gpt-4o-mini",
			ContextWindow: 8192,
		},
		Index: IndexConfig{
			BatchSize:        8,
			ImportDepth:      3,
			WorkspaceDepth:   3,
			ServiceDepth:     2,
			MaxFileSize:      5000,
			DetectWorkspaces: true,
			DetectServices:   true,
			DetectAPIs:       true,
		},
		Retrieval: RetrievalConfig{
			SimilarityThreshold:      0.70,
			ChunkSimilarityThreshold: 0.30,
			DedupThreshold:           0.92,
			HybridVectorWeight:       0.7,
			HybridKeywordWeight:      0.3,
			HybridSearchEnabled:      true,
			MaxChunks:                100,
			APIMatchThreshold:        0.75,
			APIMatchCap:              50,
			WarnContextTokens:        6000,
			MaxContextTokens:         8000,
			QueryCacheTTLMinutes:     45,
			QueryCacheCapacity:       1000,
		},
		Secrets: SecretsConfig{
			ProtectSecrets: true,
			SecretPatterns: DefaultSecretPatterns,
		},
		Features: FeaturesConfig{
			MultiRepoMode: true,
		},
	}
}

// DefaultSecretPatterns is the built-in secret-file glob set.
var DefaultSecretPatterns = []string{
	".env", ".env.*",
	"*credentials*", "*secret*", "*password*",
	"id_rsa", "*.pem", "*.key",
	"*.crt", "*.cer", "*.p12", "*.pfx", "*.jks", "*.keystore",
	".npmrc", ".pypirc", ".netrc", ".dockercfg",
}

// SecretAllowlist overrides DefaultSecretPatterns for the .env family
// (gobwas/glob has no negation operator, so these are checked first).
var SecretAllowlist = []string{
	".env.example", ".env.sample", ".env.template", ".env.dist", ".env.tmpl",
}
