package chunk_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/chunk"
	"github.com/gianged/cindex/internal/parse"
	"github.com/gianged/cindex/internal/secretgate"
	"github.com/gianged/cindex/internal/types"
)

func sampleParsed() *parse.ParseResult {
	return &parse.ParseResult{
		Language: "go",
		Imports:  []string{"fmt"},
		Exports:  []string{"Foo"},
		Decls: []parse.Decl{
			{Name: "Foo", Kind: parse.DeclFunction, StartLine: 1, EndLine: 3, Exported: true},
			{Name: "bar", Kind: parse.DeclFunction, StartLine: 5, EndLine: 7, Exported: false},
		},
	}
}

func sampleContent() []byte {
	return []byte(strings.Join([]string{
		"func Foo() {",
		"  return",
		"}",
		"",
		"func bar() {",
		"  return",
		"}",
	}, "\n"))
}

func TestChunk_SyntacticStrategy(t *testing.T) {
	c := chunk.NewChunker(400)
	chunks, err := c.Chunk("repo1", "main.go", sampleContent(), sampleParsed(), secretgate.StrategyNormal)
	require.NoError(t, err)
	require.Len(t, chunks, 3) // file_summary + 2 decls

	assert.Equal(t, types.ChunkTypeFileSummary, chunks[0].ChunkType)
	assert.Equal(t, types.ChunkTypeFunction, chunks[1].ChunkType)
	assert.Equal(t, "Foo", chunks[1].Metadata.FunctionNames[0])
	assert.Contains(t, chunks[1].Content, "func Foo")
}

func TestChunk_StructureOnlyStrategy(t *testing.T) {
	c := chunk.NewChunker(400)
	chunks, err := c.Chunk("repo1", "huge.go", sampleContent(), sampleParsed(), secretgate.StrategyStructureOnly)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, types.ChunkTypeSection, chunks[0].ChunkType)
	assert.Contains(t, chunks[0].Content, "fmt")
	assert.Contains(t, chunks[0].Content, "Foo")
}

func TestChunk_SkipStrategyReturnsNil(t *testing.T) {
	c := chunk.NewChunker(400)
	chunks, err := c.Chunk("repo1", "min.js", sampleContent(), sampleParsed(), secretgate.StrategySkip)
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestChunk_ChunkIDStableAcrossCalls(t *testing.T) {
	c := chunk.NewChunker(400)
	parsed := sampleParsed()
	content := sampleContent()

	first, err := c.Chunk("repo1", "main.go", content, parsed, secretgate.StrategyNormal)
	require.NoError(t, err)
	second, err := c.Chunk("repo1", "main.go", content, parsed, secretgate.StrategyNormal)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ChunkID, second[i].ChunkID)
	}
}

func TestChunk_SectionStrategySplitsOnBlankLines(t *testing.T) {
	c := chunk.NewChunker(1) // force a split per non-empty region
	chunks, err := c.Chunk("repo1", "big.go", sampleContent(), sampleParsed(), secretgate.StrategySectionChunked)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(chunks), 2)
	for _, ch := range chunks {
		assert.Equal(t, types.ChunkTypeSection, ch.ChunkType)
	}
}
