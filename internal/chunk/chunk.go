// Package chunk splits a parsed file into the ordered, non-overlapping
// Chunk records the retrieval pipeline embeds and searches, selecting
// a strategy (structure-only/section/syntactic) from the large-file
// gate. Section chunking groups blank-line-delimited regions up to a
// token target, the same shape internal/markdown uses for headings
// and paragraphs.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gianged/cindex/internal/parse"
	"github.com/gianged/cindex/internal/secretgate"
	"github.com/gianged/cindex/internal/types"
)

// Chunker splits file content into Chunk records.
type Chunker struct {
	// targetTokens bounds section chunks. estimateTokens uses a
	// len(text)/4 approximation; chunk sizing does not need a real
	// tokenizer, only a stable rough bound.
	targetTokens int
}

// NewChunker builds a Chunker with the configured target chunk size
// in estimated tokens.
func NewChunker(targetTokens int) *Chunker {
	if targetTokens <= 0 {
		targetTokens = 400
	}
	return &Chunker{targetTokens: targetTokens}
}

// estimateTokens approximates a token count from character length.
func estimateTokens(text string) int {
	return len(text) / 4
}

// Chunk splits content into Chunk records for repoID/filePath, driven
// by strategy (from secretgate.LargeFileStrategy) and the file's
// ParseResult. The returned file_summary chunk (syntactic strategy
// only) has empty Content — the indexing orchestrator fills it in
// after the Summarize stage runs, since Chunk runs before Summarize
// in the pipeline order.
func (c *Chunker) Chunk(repoID, filePath string, content []byte, parsed *parse.ParseResult, strategy secretgate.Strategy) ([]types.Chunk, error) {
	lines := strings.Split(string(content), "\n")

	switch strategy {
	case secretgate.StrategySkip:
		return nil, nil
	case secretgate.StrategyStructureOnly:
		return c.chunkStructureOnly(repoID, filePath, lines, parsed), nil
	case secretgate.StrategySectionChunked:
		return c.chunkSections(repoID, filePath, lines, parsed), nil
	default:
		return c.chunkSyntactic(repoID, filePath, lines, parsed), nil
	}
}

// chunkStructureOnly emits a single chunk holding imports, exports and
// top-level declaration signatures, the strategy for files over 5000
// lines. No function/method bodies are stored.
func (c *Chunker) chunkStructureOnly(repoID, filePath string, lines []string, parsed *parse.ParseResult) []types.Chunk {
	var sb strings.Builder
	sb.WriteString("imports:\n")
	for _, imp := range parsed.Imports {
		fmt.Fprintf(&sb, "  %s\n", imp)
	}
	sb.WriteString("exports:\n")
	for _, exp := range parsed.Exports {
		fmt.Fprintf(&sb, "  %s\n", exp)
	}
	sb.WriteString("declarations:\n")
	var funcNames, classNames []string
	for _, d := range parsed.Decls {
		fmt.Fprintf(&sb, "  %s %s (line %d)\n", d.Kind, d.Name, d.StartLine)
		switch d.Kind {
		case parse.DeclFunction, parse.DeclMethod:
			funcNames = append(funcNames, d.Name)
		case parse.DeclClass, parse.DeclInterface:
			classNames = append(classNames, d.Name)
		}
	}

	text := sb.String()
	endLine := len(lines)
	ch := types.Chunk{
		RepoID:    repoID,
		FilePath:  filePath,
		ChunkType: types.ChunkTypeSection,
		Content:   text,
		StartLine: 1,
		EndLine:   endLine,
		TokenCount: estimateTokens(text),
		Metadata: types.ChunkMetadata{
			Dependencies:  parsed.Imports,
			FunctionNames: funcNames,
			ClassNames:    classNames,
		},
	}
	ch.ChunkID = chunkID(repoID, filePath, ch.ChunkType, ch.StartLine, ch.EndLine, text)
	return []types.Chunk{ch}
}

// chunkSections splits the file into blank-line-delimited regions
// packed up to targetTokens per chunk. Used for 1000-5000 line files.
func (c *Chunker) chunkSections(repoID, filePath string, lines []string, parsed *parse.ParseResult) []types.Chunk {
	var regions []codeRegion
	cur := codeRegion{start: 1}
	for i, line := range lines {
		lineNum := i + 1
		if strings.TrimSpace(line) == "" && len(cur.lines) > 0 {
			cur.end = lineNum - 1
			regions = append(regions, cur)
			cur = codeRegion{start: lineNum + 1}
			continue
		}
		cur.lines = append(cur.lines, line)
	}
	if len(cur.lines) > 0 {
		cur.end = len(lines)
		regions = append(regions, cur)
	}

	var chunks []types.Chunk
	var buf []codeRegion
	bufTokens := 0
	flush := func() {
		if len(buf) == 0 {
			return
		}
		text := joinRegions(buf)
		ch := types.Chunk{
			RepoID:     repoID,
			FilePath:   filePath,
			ChunkType:  types.ChunkTypeSection,
			Content:    text,
			StartLine:  buf[0].start,
			EndLine:    buf[len(buf)-1].end,
			TokenCount: estimateTokens(text),
			Metadata:   metadataFor(parsed, buf[0].start, buf[len(buf)-1].end),
		}
		ch.ChunkID = chunkID(repoID, filePath, ch.ChunkType, ch.StartLine, ch.EndLine, text)
		chunks = append(chunks, ch)
		buf = nil
		bufTokens = 0
	}

	for _, r := range regions {
		text := strings.Join(r.lines, "\n")
		tokens := estimateTokens(text)
		if bufTokens > 0 && bufTokens+tokens > c.targetTokens {
			flush()
		}
		buf = append(buf, r)
		bufTokens += tokens
	}
	flush()

	if len(chunks) == 0 {
		return nil
	}
	return chunks
}

// codeRegion is a blank-line-delimited run of source lines.
type codeRegion struct {
	start, end int
	lines      []string
}

func joinRegions(regions []codeRegion) string {
	parts := make([]string, 0, len(regions))
	for _, r := range regions {
		parts = append(parts, strings.Join(r.lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// chunkSyntactic emits one chunk per top-level declaration plus a
// single synthetic file_summary chunk, the strategy for files under
// 1000 lines.
func (c *Chunker) chunkSyntactic(repoID, filePath string, lines []string, parsed *parse.ParseResult) []types.Chunk {
	chunks := make([]types.Chunk, 0, len(parsed.Decls)+1)

	summary := types.Chunk{
		RepoID:    repoID,
		FilePath:  filePath,
		ChunkType: types.ChunkTypeFileSummary,
		StartLine: 1,
		EndLine:   1,
		Metadata: types.ChunkMetadata{
			Dependencies: parsed.Imports,
		},
	}
	summary.ChunkID = chunkID(repoID, filePath, summary.ChunkType, 0, 0, filePath)
	chunks = append(chunks, summary)

	for _, d := range parsed.Decls {
		text := extractLines(lines, d.StartLine, d.EndLine)
		chunkType := types.ChunkTypeCodeBlock
		var funcNames, classNames []string
		switch d.Kind {
		case parse.DeclFunction, parse.DeclMethod:
			chunkType = types.ChunkTypeFunction
			funcNames = []string{d.Name}
		case parse.DeclClass, parse.DeclInterface:
			chunkType = types.ChunkTypeClass
			classNames = []string{d.Name}
		}

		ch := types.Chunk{
			RepoID:     repoID,
			FilePath:   filePath,
			ChunkType:  chunkType,
			Content:    text,
			StartLine:  d.StartLine,
			EndLine:    d.EndLine,
			TokenCount: estimateTokens(text),
			Metadata: types.ChunkMetadata{
				FunctionNames: funcNames,
				ClassNames:    classNames,
			},
		}
		ch.ChunkID = chunkID(repoID, filePath, ch.ChunkType, ch.StartLine, ch.EndLine, text)
		chunks = append(chunks, ch)
	}

	return chunks
}

func metadataFor(parsed *parse.ParseResult, start, end int) types.ChunkMetadata {
	var funcNames, classNames []string
	for _, d := range parsed.Decls {
		if d.StartLine < start || d.StartLine > end {
			continue
		}
		switch d.Kind {
		case parse.DeclFunction, parse.DeclMethod:
			funcNames = append(funcNames, d.Name)
		case parse.DeclClass, parse.DeclInterface:
			classNames = append(classNames, d.Name)
		}
	}
	return types.ChunkMetadata{FunctionNames: funcNames, ClassNames: classNames}
}

func extractLines(lines []string, startLine, endLine int) string {
	if startLine < 1 || startLine > len(lines) {
		return ""
	}
	start := startLine - 1
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}
	if end < start {
		end = start
	}
	return strings.Join(lines[start:end], "\n")
}

// chunkID content-addresses a chunk so re-indexing an unchanged span
// produces the same ID; sha256 is used (not fnv) because chunk IDs
// are persisted as primary keys and benefit from a wider hash space
// than a cache key does.
func chunkID(repoID, filePath string, chunkType types.ChunkType, start, end int, content string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d|", repoID, filePath, chunkType, start, end)
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
