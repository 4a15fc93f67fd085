// Package summarize produces a one-paragraph file summary, either via
// the configured backend model or a deterministic rule-based
// fallback. The fallback reuses the prompt's own structure (imports,
// then declaration headlines) so both paths describe a file the same
// way.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/gianged/cindex/internal/backend"
	"github.com/gianged/cindex/internal/parse"
)

// Result carries the generated summary text and whether the
// rule-based fallback was used (recorded on types.File.SummaryFallback).
type Result struct {
	Text     string
	Fallback bool
}

// Generator builds a file summary.
type Generator struct {
	client  backend.Client
	model   string
	ctxWin  int
	maxDecl int
}

// NewGenerator builds a summary Generator. maxDecls bounds how many
// top-level declarations are named in the prompt/fallback (keeps both
// bounded for very declaration-heavy files).
func NewGenerator(client backend.Client, model string, ctxWindow, maxDecls int) *Generator {
	if maxDecls <= 0 {
		maxDecls = 20
	}
	return &Generator{client: client, model: model, ctxWin: ctxWindow, maxDecl: maxDecls}
}

// Summarize generates a summary for filePath using parsed's imports
// and declarations. On backend error or context cancellation it falls
// back to RuleBased and reports Fallback: true rather than failing the
// whole file out of the index; summary failures degrade, they never
// abort indexing.
func (g *Generator) Summarize(ctx context.Context, filePath string, parsed *parse.ParseResult) (Result, error) {
	if g.client == nil {
		return RuleBased(filePath, parsed), nil
	}

	prompt := buildPrompt(filePath, parsed, g.maxDecl)
	text, err := g.client.Generate(ctx, g.model, prompt, g.ctxWin)
	if err != nil || strings.TrimSpace(text) == "" {
		return RuleBased(filePath, parsed), nil
	}
	return Result{Text: strings.TrimSpace(text), Fallback: false}, nil
}

func buildPrompt(filePath string, parsed *parse.ParseResult, maxDecl int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarize the purpose of %s in one paragraph.\n", filePath)
	fmt.Fprintf(&sb, "Language: %s\n", parsed.Language)
	if len(parsed.Imports) > 0 {
		fmt.Fprintf(&sb, "Imports: %s\n", strings.Join(parsed.Imports, ", "))
	}
	sb.WriteString("Top-level declarations:\n")
	for i, d := range parsed.Decls {
		if i >= maxDecl {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(parsed.Decls)-maxDecl)
			break
		}
		fmt.Fprintf(&sb, "  - %s %s\n", d.Kind, d.Name)
	}
	return sb.String()
}

// RuleBased builds a deterministic summary from the import list and
// symbol headlines, with no backend call.
func RuleBased(filePath string, parsed *parse.ParseResult) Result {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)", filePath, parsed.Language)

	if len(parsed.Imports) > 0 {
		n := parsed.Imports
		if len(n) > 5 {
			n = n[:5]
		}
		fmt.Fprintf(&sb, " imports %s", strings.Join(n, ", "))
		if len(parsed.Imports) > 5 {
			fmt.Fprintf(&sb, " and %d more", len(parsed.Imports)-5)
		}
		sb.WriteString(".")
	}

	headlines := declHeadlines(parsed.Decls, 8)
	if len(headlines) > 0 {
		sb.WriteString(" Defines ")
		sb.WriteString(strings.Join(headlines, ", "))
		sb.WriteString(".")
	}

	return Result{Text: sb.String(), Fallback: true}
}

func declHeadlines(decls []parse.Decl, max int) []string {
	out := make([]string, 0, max)
	for _, d := range decls {
		if len(out) >= max {
			break
		}
		if !d.Exported {
			continue
		}
		out = append(out, fmt.Sprintf("%s %s", d.Kind, d.Name))
	}
	return out
}
