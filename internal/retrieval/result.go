// Package retrieval implements the nine-stage query pipeline: query
// processing, scope resolution, hybrid file and chunk retrieval,
// symbol resolution, import-chain expansion, API enrichment,
// deduplication/prioritization, and token-budgeted context assembly.
package retrieval

import (
	"github.com/gianged/cindex/internal/types"
)

// QueryType classifies a raw query.
type QueryType string

const (
	QueryTypeCodeSnippet     QueryType = "code_snippet"
	QueryTypeNaturalLanguage QueryType = "natural_language"
)

// ProcessedQuery is Stage 1's output.
type ProcessedQuery struct {
	NormalizedText string    `json:"normalized_text"`
	QueryType      QueryType `json:"query_type"`
	Embedding      []float32 `json:"-"`
	ElapsedMS      int64     `json:"elapsed_ms"`
}

// FileHit is one Stage 2 candidate with its hybrid score parts.
type FileHit struct {
	File        types.File `json:"file"`
	VectorSim   float64    `json:"vector_similarity"`
	KeywordRank float64    `json:"keyword_rank"`
	Score       float64    `json:"score"`
}

// ChunkHit is one Stage 3 candidate, carried through Stages 7-8.
type ChunkHit struct {
	Chunk             types.Chunk    `json:"chunk"`
	Embedding         []float32      `json:"-"`
	VectorSim         float64        `json:"vector_similarity"`
	KeywordRank       float64        `json:"keyword_rank"`
	Score             float64        `json:"score"`
	RepoKind          types.RepoKind `json:"repo_kind"`
	Priority          float64        `json:"priority"`
	SimilarToMainCode bool           `json:"similar_to_main_code,omitempty"`
}

// ChainEntry is one import-chain record from Stage 5.
type ChainEntry struct {
	FilePath         string   `json:"file_path"`
	ImportedFrom     string   `json:"imported_from"`
	Depth            int      `json:"depth"`
	FileSummary      string   `json:"file_summary,omitempty"`
	Exports          []string `json:"exports,omitempty"`
	Circular         bool     `json:"circular,omitempty"`
	Truncated        bool     `json:"truncated,omitempty"`
	TruncationReason string   `json:"truncation_reason,omitempty"`
	CrossWorkspace   bool     `json:"cross_workspace,omitempty"`
	CrossService     bool     `json:"cross_service,omitempty"`
	WorkspaceID      string   `json:"workspace_id,omitempty"`
	ServiceID        string   `json:"service_id,omitempty"`
}

// Truncation reasons for ChainEntry.
const (
	TruncationDepthLimit         = "depth_limit"
	TruncationExternalDependency = "external_dependency"
	TruncationBoundaryCrossed    = "boundary_crossed"
)

// OutboundCall is one detected call site from Stage 6's chunk scan.
type OutboundCall struct {
	SourceChunkID     string `json:"source_chunk_id"`
	SourceFile        string `json:"source_file"`
	SourceServiceID   string `json:"source_service_id,omitempty"`
	TargetServiceID   string `json:"target_service_id,omitempty"`
	EndpointPath      string `json:"endpoint_path"`
	Method            string `json:"method"`
	CallType          string `json:"call_type"`
	EndpointFound     bool   `json:"endpoint_found"`
	MatchedEndpointID string `json:"matched_endpoint,omitempty"`
}

// ContractLink associates an endpoint with the retrieved chunk that
// implements it.
type ContractLink struct {
	EndpointID string  `json:"endpoint_id"`
	ChunkID    string  `json:"chunk_id"`
	Confidence float64 `json:"confidence"`
}

// APIResult is Stage 6's output.
type APIResult struct {
	Endpoints []types.APIEndpoint `json:"endpoints"`
	Calls     []OutboundCall      `json:"calls,omitempty"`
	Links     []ContractLink      `json:"contract_links,omitempty"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// Context is the assembled Stage 8 result.
type Context struct {
	Query         ProcessedQuery            `json:"query"`
	Files         []FileHit                 `json:"files"`
	PrimaryCode   []ChunkHit                `json:"primary_code"`
	Libraries     []ChunkHit                `json:"libraries,omitempty"`
	References    []ChunkHit                `json:"references,omitempty"`
	Documentation []ChunkHit                `json:"documentation,omitempty"`
	Symbols       map[string][]types.Symbol `json:"symbols,omitempty"`
	ImportChains  []ChainEntry              `json:"import_chains,omitempty"`
	Endpoints     []types.APIEndpoint       `json:"api_endpoints,omitempty"`
	Calls         []OutboundCall            `json:"cross_service_calls,omitempty"`
	ContractLinks []ContractLink            `json:"contract_links,omitempty"`
	Warnings      []string                  `json:"warnings,omitempty"`
	TokensUsed    int                       `json:"tokens_used"`
	Partial       bool                      `json:"partial_results,omitempty"`
}
