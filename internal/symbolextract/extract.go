// Package symbolextract implements the symbol-extraction indexing
// stage: turning a file's parse.ParseResult into types.Symbol records
// with exported/internal scope. Symbols are a flat projection of the
// declaration list; the definition snippet keeps only the signature
// lines since the full body already lives in the matching chunk.
package symbolextract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gianged/cindex/internal/parse"
	"github.com/gianged/cindex/internal/types"
)

// declKindToSymbolKind maps parse.DeclKind to types.SymbolKind; the two
// enums are deliberately kept separate (parse operates pre-persistence,
// types is the persisted model) even though the value sets are close.
func declKindToSymbolKind(k parse.DeclKind) types.SymbolKind {
	switch k {
	case parse.DeclFunction:
		return types.SymbolKindFunction
	case parse.DeclMethod:
		return types.SymbolKindMethod
	case parse.DeclClass:
		return types.SymbolKindClass
	case parse.DeclInterface:
		return types.SymbolKindInterface
	case parse.DeclType:
		return types.SymbolKindType
	case parse.DeclConstant:
		return types.SymbolKindConstant
	default:
		return types.SymbolKindVariable
	}
}

// Extract builds one Symbol per top-level declaration in parsed.
// workspaceID/serviceID are the file's already-resolved linkage
// (symbolextract does not itself detect topology, it only denormalizes
// what the orchestrator already knows for the owning file).
func Extract(repoID, filePath string, parsed *parse.ParseResult, workspaceID, serviceID string, lines []string) []types.Symbol {
	if parsed == nil {
		return nil
	}
	out := make([]types.Symbol, 0, len(parsed.Decls))
	for _, d := range parsed.Decls {
		scope := types.ScopeInternal
		if d.Exported {
			scope = types.ScopeExported
		}
		sym := types.Symbol{
			SymbolID:    symbolID(repoID, filePath, d.Name, string(d.Kind), d.StartLine),
			RepoID:      repoID,
			Name:        d.Name,
			Kind:        declKindToSymbolKind(d.Kind),
			FilePath:    filePath,
			Line:        d.StartLine,
			Definition:  definitionSnippet(lines, d.StartLine, d.EndLine),
			Scope:       scope,
			WorkspaceID: workspaceID,
			ServiceID:   serviceID,
		}
		out = append(out, sym)
	}
	return out
}

// definitionSnippet returns the first few lines of a declaration's span
// (its signature/header), bounded so definitions stored in code_symbols
// stay small; the full body is already available via the matching Chunk.
func definitionSnippet(lines []string, startLine, endLine int) string {
	if startLine < 1 || startLine > len(lines) {
		return ""
	}
	end := endLine
	const maxLines = 5
	if end > startLine+maxLines-1 {
		end = startLine + maxLines - 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	out := ""
	for i := startLine - 1; i < end; i++ {
		if out != "" {
			out += "\n"
		}
		out += lines[i]
	}
	return out
}

// symbolID content-addresses a symbol so re-extracting an unchanged
// declaration produces the same ID, mirroring internal/chunk's chunkID.
func symbolID(repoID, filePath, name, kind string, line int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d", repoID, filePath, name, kind, line)
	return hex.EncodeToString(h.Sum(nil))[:32]
}
