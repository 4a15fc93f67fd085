package summarize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/parse"
	"github.com/gianged/cindex/internal/summarize"
)

type fakeClient struct {
	text string
	err  error
}

func (f *fakeClient) Embed(ctx context.Context, model string, texts []string, dims, ctxWindow int) ([][]float32, error) {
	return nil, nil
}
func (f *fakeClient) Generate(ctx context.Context, model, prompt string, ctxWindow int) (string, error) {
	return f.text, f.err
}
func (f *fakeClient) Close() error { return nil }

func sampleParsed() *parse.ParseResult {
	return &parse.ParseResult{
		Language: "go",
		Imports:  []string{"fmt", "os"},
		Decls: []parse.Decl{
			{Name: "Foo", Kind: parse.DeclFunction, Exported: true},
			{Name: "bar", Kind: parse.DeclFunction, Exported: false},
		},
	}
}

func TestSummarize_UsesBackendOnSuccess(t *testing.T) {
	g := summarize.NewGenerator(&fakeClient{text: "a great summary"}, "m", 512, 20)
	result, err := g.Summarize(context.Background(), "f.go", sampleParsed())
	require.NoError(t, err)
	assert.Equal(t, "a great summary", result.Text)
	assert.False(t, result.Fallback)
}

func TestSummarize_FallsBackOnBackendError(t *testing.T) {
	g := summarize.NewGenerator(&fakeClient{err: errors.New("boom")}, "m", 512, 20)
	result, err := g.Summarize(context.Background(), "f.go", sampleParsed())
	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.Contains(t, result.Text, "f.go")
}

func TestSummarize_NilClientUsesFallback(t *testing.T) {
	g := summarize.NewGenerator(nil, "m", 512, 20)
	result, err := g.Summarize(context.Background(), "f.go", sampleParsed())
	require.NoError(t, err)
	assert.True(t, result.Fallback)
}

func TestRuleBased_ListsImportsAndExportedDecls(t *testing.T) {
	result := summarize.RuleBased("f.go", sampleParsed())
	assert.True(t, result.Fallback)
	assert.Contains(t, result.Text, "fmt")
	assert.Contains(t, result.Text, "Foo")
	assert.NotContains(t, result.Text, "bar")
}
