package markdown_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/markdown"
)

func TestChunk_HeadingPaths(t *testing.T) {
	src := []byte(`# Guide

Intro text.

## Install

Run the installer.

### Linux

Use the tarball.

## Usage

Call the CLI.
`)
	chunks := markdown.Chunk("", "guide.md", src)
	require.Len(t, chunks, 4)

	assert.Equal(t, []string{"Guide"}, chunks[0].HeadingPath)
	assert.Equal(t, "Intro text.", chunks[0].Content)

	assert.Equal(t, []string{"Guide", "Install"}, chunks[1].HeadingPath)
	assert.Equal(t, []string{"Guide", "Install", "Linux"}, chunks[2].HeadingPath)

	// The sibling ## resets the deeper heading levels.
	assert.Equal(t, []string{"Guide", "Usage"}, chunks[3].HeadingPath)
}

func TestChunk_FencedCodeBlocks(t *testing.T) {
	src := []byte("## Example\n\nBefore.\n\n```go\nfunc main() {}\n```\n\nAfter.\n")
	chunks := markdown.Chunk("r", "doc.md", src)
	require.Len(t, chunks, 3)

	assert.Equal(t, "Before.", chunks[0].Content)
	assert.Empty(t, chunks[0].Language)

	assert.Equal(t, "go", chunks[1].Language)
	assert.Equal(t, "func main() {}", chunks[1].Content)
	assert.Equal(t, 5, chunks[1].StartLine)
	assert.Equal(t, 7, chunks[1].EndLine)

	assert.Equal(t, "After.", chunks[2].Content)
}

func TestChunk_HeadingInsideFenceIsNotAHeading(t *testing.T) {
	src := []byte("## Docs\n\n```\n# not a heading\n```\n")
	chunks := markdown.Chunk("", "doc.md", src)
	require.Len(t, chunks, 1)
	assert.Equal(t, "# not a heading", chunks[0].Content)
	assert.Equal(t, []string{"Docs"}, chunks[0].HeadingPath)
}

func TestChunk_EmptyContent(t *testing.T) {
	assert.Empty(t, markdown.Chunk("", "empty.md", nil))
	assert.Empty(t, markdown.Chunk("", "blank.md", []byte("  \n\n")))
}

func TestChunk_StableIDs(t *testing.T) {
	src := []byte("# A\n\ntext\n")
	a := markdown.Chunk("r", "a.md", src)
	b := markdown.Chunk("r", "a.md", src)
	require.Len(t, a, 1)
	assert.Equal(t, a[0].DocID, b[0].DocID)
}
