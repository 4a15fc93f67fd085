package retrieval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/retrieval"
)

func TestClassifyQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  retrieval.QueryType
	}{
		{"two code keywords", "async function handler", retrieval.QueryTypeCodeSnippet},
		{"one code symbol", "a === b", retrieval.QueryTypeCodeSnippet},
		{"arrow function", "items.map(x => x.id)", retrieval.QueryTypeCodeSnippet},
		{"special char density", "foo(bar(), baz[0])", retrieval.QueryTypeCodeSnippet},
		{"natural language pattern", "how to hash passwords", retrieval.QueryTypeNaturalLanguage},
		{"question mark", "is this thread safe?", retrieval.QueryTypeNaturalLanguage},
		{"default", "user authentication bcrypt", retrieval.QueryTypeNaturalLanguage},
		{"single keyword is not enough", "return policy documentation", retrieval.QueryTypeNaturalLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retrieval.ClassifyQuery(tt.query))
		})
	}
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "how do sessions work",
		retrieval.NormalizeQuery("  how do   sessions work?! ", retrieval.QueryTypeNaturalLanguage))

	// Code queries keep their punctuation verbatim (whitespace aside).
	assert.Equal(t, "const x = f();",
		retrieval.NormalizeQuery(" const x = f(); ", retrieval.QueryTypeCodeSnippet))
}

func TestProcessQuery_EmptyQueryIsValidationError(t *testing.T) {
	p := newTestPipeline(t, openTestStore(t), nil)

	_, err := p.ProcessQuery(context.Background(), "   ")
	require.Error(t, err)
	var cerr *cerrors.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cerrors.CategoryValidation, cerr.Category)
}
