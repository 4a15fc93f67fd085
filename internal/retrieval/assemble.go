package retrieval

import (
	"github.com/gianged/cindex/internal/types"
)

// Reference and documentation chunks are capped per result so primary
// code is never crowded out.
const (
	maxReferenceChunks     = 5
	maxDocumentationChunks = 3
)

// estimateTokens mirrors the chunker's len/4 heuristic so budgets are
// counted in the same units the index stores.
func estimateTokens(text string) int { return len(text) / 4 }

// Assemble is Retrieval Stage 8: pack retained chunks, files, symbols,
// import chains and API results into one Context under the two token
// budgets. Items are added in descending priority until the hard cap;
// omissions set partial_results.
func (p *Pipeline) Assemble(q *ProcessedQuery, files []FileHit, chunks []ChunkHit,
	symbols map[string][]types.Symbol, chains []ChainEntry, api *APIResult) *Context {

	warnCap := p.cfg.Retrieval.WarnContextTokens
	hardCap := p.cfg.Retrieval.MaxContextTokens

	out := &Context{Query: *q, Files: files, Symbols: symbols}
	if api != nil {
		out.Endpoints = api.Endpoints
		out.Calls = api.Calls
		out.ContractLinks = api.Links
		out.Warnings = append(out.Warnings, api.Warnings...)
	}

	used := 0
	for _, f := range files {
		used += estimateTokens(f.File.Summary)
	}

	warned := false
	addChunk := func(h ChunkHit) bool {
		tokens := h.Chunk.TokenCount
		if tokens == 0 {
			tokens = estimateTokens(h.Chunk.Content)
		}
		if used+tokens > hardCap {
			out.Partial = true
			return false
		}
		used += tokens
		if !warned && used > warnCap {
			warned = true
			out.Warnings = append(out.Warnings, "context size exceeds the warning budget")
		}
		switch h.RepoKind {
		case types.RepoKindLibrary:
			out.Libraries = append(out.Libraries, h)
		case types.RepoKindReference:
			out.References = append(out.References, h)
		case types.RepoKindDocumentation:
			out.Documentation = append(out.Documentation, h)
		default:
			out.PrimaryCode = append(out.PrimaryCode, h)
		}
		return true
	}

	// Chunks arrive pre-sorted by Stage 7 (similarity x priority desc);
	// group caps and the hard budget are applied in that order.
	for _, h := range chunks {
		switch h.RepoKind {
		case types.RepoKindReference:
			if len(out.References) >= maxReferenceChunks {
				continue
			}
		case types.RepoKindDocumentation:
			if len(out.Documentation) >= maxDocumentationChunks {
				continue
			}
		}
		if !addChunk(h) {
			break
		}
	}

	for _, c := range chains {
		used += estimateTokens(c.FileSummary)
	}
	out.ImportChains = chains
	out.TokensUsed = used

	if out.Partial {
		out.Warnings = append(out.Warnings, "partial_results: context token budget reached, some items omitted")
	}
	return out
}
