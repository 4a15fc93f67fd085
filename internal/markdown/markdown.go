// Package markdown splits documentation files into the
// DocumentationChunk records indexed by index_documentation. Content
// splits at headings, never inside fenced blocks; each chunk carries
// its full heading path, and fenced code blocks become their own
// chunks tagged with their language.
package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/gianged/cindex/internal/types"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	fenceRe   = regexp.MustCompile("^```([A-Za-z0-9_+-]*)\\s*$")
)

// Chunk splits markdown content into documentation chunks. repoID is
// empty when the docs are indexed outside any code repository.
func Chunk(repoID, filePath string, content []byte) []types.DocumentationChunk {
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")

	var out []types.DocumentationChunk
	// headingPath[i] holds the most recent level-(i+1) heading text.
	var headingPath [6]string
	depth := 0

	var prose []string
	proseStart := 1
	flushProse := func(endLine int) {
		body := strings.TrimSpace(strings.Join(prose, "\n"))
		if body != "" {
			out = append(out, newChunk(repoID, filePath, pathSlice(headingPath, depth), "", body, proseStart, endLine))
		}
		prose = nil
	}

	inFence := false
	fenceLang := ""
	var fenceLines []string
	fenceStart := 0

	for i, line := range lines {
		lineNum := i + 1

		if m := fenceRe.FindStringSubmatch(line); m != nil {
			if !inFence {
				flushProse(lineNum - 1)
				inFence = true
				fenceLang = m[1]
				fenceStart = lineNum
				fenceLines = nil
			} else {
				body := strings.Join(fenceLines, "\n")
				if strings.TrimSpace(body) != "" {
					out = append(out, newChunk(repoID, filePath, pathSlice(headingPath, depth), fenceLang, body, fenceStart, lineNum))
				}
				inFence = false
				prose = nil
				proseStart = lineNum + 1
			}
			continue
		}
		if inFence {
			fenceLines = append(fenceLines, line)
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			flushProse(lineNum - 1)
			level := len(m[1])
			headingPath[level-1] = strings.TrimSpace(m[2])
			for j := level; j < 6; j++ {
				headingPath[j] = ""
			}
			depth = level
			proseStart = lineNum + 1
			continue
		}

		if len(prose) == 0 {
			proseStart = lineNum
		}
		prose = append(prose, line)
	}

	// An unterminated fence is treated as prose rather than dropped.
	if inFence {
		prose = fenceLines
		proseStart = fenceStart
	}
	flushProse(len(lines))

	return out
}

func pathSlice(headings [6]string, depth int) []string {
	var out []string
	for i := 0; i < depth; i++ {
		if headings[i] != "" {
			out = append(out, headings[i])
		}
	}
	return out
}

func newChunk(repoID, filePath string, headingPath []string, language, content string, start, end int) types.DocumentationChunk {
	return types.DocumentationChunk{
		DocID:       docID(repoID, filePath, start, end, content),
		RepoID:      repoID,
		FilePath:    filePath,
		HeadingPath: headingPath,
		Language:    language,
		Content:     content,
		StartLine:   start,
		EndLine:     end,
	}
}

// docID content-addresses a documentation chunk, mirroring
// internal/chunk's chunkID so re-indexing unchanged docs is stable.
func docID(repoID, filePath string, start, end int, content string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%d|", repoID, filePath, start, end)
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
